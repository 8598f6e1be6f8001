package forms

import (
	"encoding/csv"
	"io"
)

// TimestampLayout renders export timestamps as UTC with millisecond
// precision, e.g. 2024-05-01T12:00:00.000Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type Format int

const (
	FormatText Format = iota
	FormatTimestamp
	FormatStatus
	FormatYesNo
)

// Column maps one CSV header to a record field.
type Column struct {
	Header string
	Field  string
	Format Format
	// Fallback is read when Field is empty.
	Fallback string
}

func (c Column) render(k *Kind, r Record) string {
	switch c.Format {
	case FormatTimestamp:
		if t, ok := r.Time(c.Field); ok {
			return t.UTC().Format(TimestampLayout)
		}
		return ""
	case FormatStatus:
		return k.StatusOf(r)
	case FormatYesNo:
		if r.Bool(c.Field) {
			return "Yes"
		}
		return "No"
	default:
		v := r.String(c.Field)
		if v == "" && c.Fallback != "" {
			v = r.String(c.Fallback)
		}
		return v
	}
}

// Header returns the kind's CSV header row.
func (k *Kind) Header() []string {
	header := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		header[i] = c.Header
	}
	return header
}

// Row renders r with the kind's fixed column set.
func (k *Kind) Row(r Record) []string {
	row := make([]string, len(k.Columns))
	for i, c := range k.Columns {
		row[i] = c.render(k, r)
	}
	return row
}

// WriteCSV writes the header followed by one row per record. Fields are
// quoted when needed and embedded quotes are doubled.
func WriteCSV(w io.Writer, k *Kind, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(k.Header()); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(k.Row(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
