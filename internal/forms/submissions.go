package forms

import (
	"strings"

	"lxrose/internal/models"
)

// Submission is a decoded public intake body.
type Submission interface {
	// Normalize trims input and fills derived fields before validation.
	Normalize()
	// Document returns the fields to persist. Status and createdAt are
	// added by the caller and the store.
	Document() map[string]any
}

// ContactSubjects are the accepted contact form subjects.
var ContactSubjects = []string{"general", "mental", "nursing", "nutrition", "appointment", "billing", "feedback", "other"}

type ContactSubmission struct {
	Name    string `json:"name" validate:"required,min=2,max=200"`
	Email   string `json:"email" validate:"required,email,max=320"`
	Phone   string `json:"phone" validate:"omitempty,phone,max=40"`
	Subject string `json:"subject" validate:"omitempty,subject"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

func (s *ContactSubmission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Subject = strings.ToLower(strings.TrimSpace(s.Subject))
	s.Message = strings.TrimSpace(s.Message)
}

func (s *ContactSubmission) Document() map[string]any {
	doc := map[string]any{
		"name":    s.Name,
		"email":   s.Email,
		"message": s.Message,
	}
	putOptional(doc, "phone", s.Phone)
	putOptional(doc, "subject", s.Subject)
	return doc
}

type JoinSubmission struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email,max=320"`
}

func (s *JoinSubmission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
}

func (s *JoinSubmission) Document() map[string]any {
	return map[string]any{
		"name":             s.Name,
		"email":            s.Email,
		"welcomeEmailSent": false,
	}
}

type MentalBookingSubmission struct {
	Name            string `json:"name" validate:"required,max=200"`
	Email           string `json:"email" validate:"required,email,max=320"`
	Service         string `json:"service" validate:"required,max=200"`
	SelectedService string `json:"selectedService" validate:"-"`
	AdditionalInfo  string `json:"additionalInfo" validate:"max=5000"`
}

func (s *MentalBookingSubmission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Service = strings.TrimSpace(s.Service)
	if s.Service == "" {
		s.Service = strings.TrimSpace(s.SelectedService)
	}
	s.AdditionalInfo = strings.TrimSpace(s.AdditionalInfo)
}

func (s *MentalBookingSubmission) Document() map[string]any {
	doc := map[string]any{
		"name":    s.Name,
		"email":   s.Email,
		"service": s.Service,
	}
	putOptional(doc, "additionalInfo", s.AdditionalInfo)
	return doc
}

type NursingBookingSubmission struct {
	ServiceType     string            `json:"serviceType" validate:"required,max=200"`
	PatientAge      models.FlexString `json:"patientAge" validate:"required,numeric,max=3"`
	CareDuration    string            `json:"careDuration" validate:"required,max=200"`
	StartDate       string            `json:"startDate" validate:"required,datetime=2006-01-02"`
	ContactInfo     string            `json:"contactInfo" validate:"required,max=500"`
	AdditionalNotes string            `json:"additionalNotes" validate:"max=5000"`
}

func (s *NursingBookingSubmission) Normalize() {
	s.ServiceType = strings.TrimSpace(s.ServiceType)
	s.PatientAge = models.FlexString(strings.TrimSpace(string(s.PatientAge)))
	s.CareDuration = strings.TrimSpace(s.CareDuration)
	s.StartDate = strings.TrimSpace(s.StartDate)
	s.ContactInfo = strings.TrimSpace(s.ContactInfo)
	s.AdditionalNotes = strings.TrimSpace(s.AdditionalNotes)
}

func (s *NursingBookingSubmission) Document() map[string]any {
	doc := map[string]any{
		"serviceType":  s.ServiceType,
		"patientAge":   string(s.PatientAge),
		"careDuration": s.CareDuration,
		"startDate":    s.StartDate,
		"contactInfo":  s.ContactInfo,
	}
	putOptional(doc, "additionalNotes", s.AdditionalNotes)
	return doc
}

type NurseRegistrationSubmission struct {
	Name              string            `json:"name" validate:"required,max=200"`
	Qualifications    string            `json:"qualifications" validate:"required,max=1000"`
	YearsOfExperience models.FlexString `json:"yearsOfExperience" validate:"required,numeric,max=4"`
	Availability      string            `json:"availability" validate:"required,max=200"`
	Email             string            `json:"email" validate:"required,email,max=320"`
}

func (s *NurseRegistrationSubmission) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Qualifications = strings.TrimSpace(s.Qualifications)
	s.YearsOfExperience = models.FlexString(strings.TrimSpace(string(s.YearsOfExperience)))
	s.Availability = strings.TrimSpace(s.Availability)
	s.Email = strings.TrimSpace(s.Email)
}

func (s *NurseRegistrationSubmission) Document() map[string]any {
	return map[string]any{
		"name":              s.Name,
		"qualifications":    s.Qualifications,
		"yearsOfExperience": string(s.YearsOfExperience),
		"availability":      s.Availability,
		"email":             s.Email,
	}
}

// NutritionServices is the public nutrition catalogue, keyed by the id the
// booking form submits.
var NutritionServices = map[string]string{
	"1": "Personalized Nutrition Plans",
	"2": "Nutrition Workshops",
	"3": "Dietary Analysis",
	"4": "Weight Management Programs",
}

type NutritionBookingSubmission struct {
	ServiceID    models.FlexString `json:"serviceId" validate:"required,max=50"`
	ServiceTitle string            `json:"serviceTitle" validate:"max=200"`
	Name         string            `json:"name" validate:"required,max=200"`
	Email        string            `json:"email" validate:"required,email,max=320"`
	Info         string            `json:"info" validate:"required,max=5000"`
}

func (s *NutritionBookingSubmission) Normalize() {
	s.ServiceID = models.FlexString(strings.TrimSpace(string(s.ServiceID)))
	s.ServiceTitle = strings.TrimSpace(s.ServiceTitle)
	if s.ServiceTitle == "" {
		s.ServiceTitle = NutritionServices[string(s.ServiceID)]
	}
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Info = strings.TrimSpace(s.Info)
}

func (s *NutritionBookingSubmission) Document() map[string]any {
	doc := map[string]any{
		"serviceId": string(s.ServiceID),
		"name":      s.Name,
		"email":     s.Email,
		"info":      s.Info,
	}
	putOptional(doc, "serviceTitle", s.ServiceTitle)
	return doc
}

func putOptional(doc map[string]any, key, value string) {
	if value != "" {
		doc[key] = value
	}
}
