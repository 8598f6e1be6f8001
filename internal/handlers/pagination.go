package handlers

import (
	"errors"
	"strconv"
	"strings"

	"lxrose/internal/forms"
)

var errInvalidLimit = errors.New("limit must be an integer between 1 and 1000")

func parseListLimit(limitStr string) (int64, error) {
	limitStr = strings.TrimSpace(limitStr)
	if limitStr == "" {
		return forms.DefaultListLimit, nil
	}

	l, err := strconv.ParseInt(limitStr, 10, 64)
	if err != nil || l < 1 || l > forms.MaxListLimit {
		return 0, errInvalidLimit
	}
	return l, nil
}
