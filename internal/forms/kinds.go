// Package forms describes the public intake form kinds: where each is
// stored, how it is validated, which status moves the console may apply
// and how it is rendered to CSV.
package forms

import "slices"

const (
	StatusUnread    = "unread"
	StatusRead      = "read"
	StatusArchived  = "archived"
	StatusReplied   = "replied"
	StatusNew       = "new"
	StatusWelcomed  = "welcomed"
	StatusContacted = "contacted"
	StatusReviewed  = "reviewed"
)

// Transition is one console action on a record. It is one-way: the record
// must currently be in one of From.
type Transition struct {
	Action string
	Target string
	From   []string
	// StampField receives the store's server time when the move applies.
	StampField string
	// Set holds constant fields written alongside the status.
	Set map[string]any
	// Reply marks the contact reply action, which carries a body.
	Reply bool
}

func (t Transition) Permits(status string) bool {
	return slices.Contains(t.From, status)
}

// Kind is the descriptor of one form collection.
type Kind struct {
	Slug          string
	Collection    string
	DefaultStatus string
	Filename      string
	Columns       []Column
	Transitions   []Transition

	newSubmission func() Submission
}

func (k *Kind) NewSubmission() Submission {
	return k.newSubmission()
}

func (k *Kind) Transition(action string) (Transition, bool) {
	for _, t := range k.Transitions {
		if t.Action == action {
			return t, true
		}
	}
	return Transition{}, false
}

// StatusOf returns the record's status, treating a missing one as the
// kind's default.
func (k *Kind) StatusOf(r Record) string {
	if s := r.String("status"); s != "" {
		return s
	}
	return k.DefaultStatus
}

var Contact = &Kind{
	Slug:          "contact",
	Collection:    "contactForms",
	DefaultStatus: StatusUnread,
	Filename:      "contact-forms.csv",
	Columns: []Column{
		{Header: "Name", Field: "name"},
		{Header: "Email", Field: "email"},
		{Header: "Message", Field: "message"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
	},
	Transitions: []Transition{
		{Action: "mark-read", Target: StatusRead, From: []string{StatusUnread}, StampField: "readAt"},
		{Action: "archive", Target: StatusArchived, From: []string{StatusUnread, StatusRead}, StampField: "archivedAt"},
		{Action: "reply", Target: StatusReplied, From: []string{StatusUnread, StatusRead}, StampField: "repliedAt", Reply: true},
	},
	newSubmission: func() Submission { return &ContactSubmission{} },
}

var Join = &Kind{
	Slug:          "join",
	Collection:    "joinForms",
	DefaultStatus: StatusNew,
	Filename:      "join-forms.csv",
	Columns: []Column{
		{Header: "Name", Field: "name"},
		{Header: "Email", Field: "email"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
		{Header: "Welcome Email Sent", Field: "welcomeEmailSent", Format: FormatYesNo},
	},
	Transitions: []Transition{
		{
			Action:     "mark-welcomed",
			Target:     StatusWelcomed,
			From:       []string{StatusNew},
			StampField: "welcomeEmailSentAt",
			Set:        map[string]any{"welcomeEmailSent": true},
		},
	},
	newSubmission: func() Submission { return &JoinSubmission{} },
}

var MentalBooking = &Kind{
	Slug:          "mental-bookings",
	Collection:    "mentalServicesBookings",
	DefaultStatus: StatusNew,
	Filename:      "mental-health-bookings.csv",
	Columns: []Column{
		{Header: "Name", Field: "name"},
		{Header: "Email", Field: "email"},
		{Header: "Service", Field: "service", Fallback: "selectedService"},
		{Header: "Additional Info", Field: "additionalInfo"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
	},
	Transitions:   []Transition{markContacted},
	newSubmission: func() Submission { return &MentalBookingSubmission{} },
}

var NursingBooking = &Kind{
	Slug:          "nursing-bookings",
	Collection:    "nursingServiceBookings",
	DefaultStatus: StatusNew,
	Filename:      "nursing-bookings.csv",
	Columns: []Column{
		{Header: "Service Type", Field: "serviceType"},
		{Header: "Patient Age", Field: "patientAge"},
		{Header: "Care Duration", Field: "careDuration"},
		{Header: "Start Date", Field: "startDate"},
		{Header: "Contact Info", Field: "contactInfo"},
		{Header: "Additional Notes", Field: "additionalNotes"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
	},
	Transitions:   []Transition{markContacted},
	newSubmission: func() Submission { return &NursingBookingSubmission{} },
}

var NurseRegistration = &Kind{
	Slug:          "nurse-registrations",
	Collection:    "nurseRegistrations",
	DefaultStatus: StatusNew,
	Filename:      "nurse-registrations.csv",
	Columns: []Column{
		{Header: "Name", Field: "name"},
		{Header: "Qualifications", Field: "qualifications"},
		{Header: "Years of Experience", Field: "yearsOfExperience"},
		{Header: "Availability", Field: "availability"},
		{Header: "Email", Field: "email"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
	},
	Transitions: []Transition{
		{Action: "mark-reviewed", Target: StatusReviewed, From: []string{StatusNew}, StampField: "reviewedAt"},
	},
	newSubmission: func() Submission { return &NurseRegistrationSubmission{} },
}

var NutritionBooking = &Kind{
	Slug:          "nutrition-bookings",
	Collection:    "nutritionServiceBookings",
	DefaultStatus: StatusNew,
	Filename:      "nutrition-bookings.csv",
	Columns: []Column{
		{Header: "Service ID", Field: "serviceId"},
		{Header: "Service Title", Field: "serviceTitle"},
		{Header: "Name", Field: "name"},
		{Header: "Email", Field: "email"},
		{Header: "Info", Field: "info"},
		{Header: "Timestamp", Field: "createdAt", Format: FormatTimestamp},
		{Header: "Status", Field: "status", Format: FormatStatus},
	},
	Transitions:   []Transition{markContacted},
	newSubmission: func() Submission { return &NutritionBookingSubmission{} },
}

var markContacted = Transition{
	Action:     "mark-contacted",
	Target:     StatusContacted,
	From:       []string{StatusNew},
	StampField: "contactedAt",
}

// All lists every kind in console order.
var All = []*Kind{Contact, Join, MentalBooking, NursingBooking, NurseRegistration, NutritionBooking}

// Bookings are the service booking kinds reported together on the dashboard.
var Bookings = []*Kind{MentalBooking, NursingBooking, NurseRegistration, NutritionBooking}
