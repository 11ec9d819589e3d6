package dto

import (
	"strings"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

// CreateEventRequest is the multipart form for POST /events
type CreateEventRequest struct {
	Title                 string   `form:"title" binding:"required,max=200"`
	Content               string   `form:"content" binding:"required"`
	Description           string   `form:"description" binding:"required,max=2000"`
	RegistrationLink      string   `form:"registrationLink" binding:"required,url"`
	Date                  string   `form:"date" binding:"required"`
	RegistrationStartDate string   `form:"registrationStartDate"`
	RegistrationEndDate   string   `form:"registrationEndDate"`
	MaxParticipants       *int     `form:"maxParticipants"`
	CurrentParticipants   *int     `form:"currentParticipants"`
	IsRegistrationOpen    *bool    `form:"isRegistrationOpen"`
	Location              string   `form:"location" binding:"max=300"`
	EventType             string   `form:"eventType"`
	Tags                  []string `form:"tags"`

	Author string       `form:"-"`
	Image  *ImageUpload `form:"-"`
}

// Validate checks the fields binding tags cannot express
func (r *CreateEventRequest) Validate() (bool, string) {
	if blank(r.Title) || blank(r.Content) || blank(r.Description) {
		return false, "Title, content and description must not be blank"
	}
	if r.Image == nil {
		return false, "Image is required"
	}
	if _, err := ParseTime(r.Date); err != nil {
		return false, "date: " + err.Error()
	}
	if ok, msg := validateWindow(r.RegistrationStartDate, r.RegistrationEndDate); !ok {
		return false, msg
	}
	if ok, msg := validateCounts(r.MaxParticipants, r.CurrentParticipants); !ok {
		return false, msg
	}
	if r.EventType != "" && !domain.IsValidEventType(strings.ToUpper(r.EventType)) {
		return false, "eventType must be one of ONLINE, OFFLINE, HYBRID"
	}
	return true, ""
}

// UpdateEventRequest is the multipart form for PATCH /events/:id. Every
// field is optional; an empty registration date clears it and a
// maxParticipants of 0 removes the cap.
type UpdateEventRequest struct {
	Title                 *string  `form:"title" binding:"omitempty,max=200"`
	Content               *string  `form:"content"`
	Description           *string  `form:"description" binding:"omitempty,max=2000"`
	RegistrationLink      *string  `form:"registrationLink" binding:"omitempty,url"`
	Date                  *string  `form:"date"`
	RegistrationStartDate *string  `form:"registrationStartDate"`
	RegistrationEndDate   *string  `form:"registrationEndDate"`
	MaxParticipants       *int     `form:"maxParticipants"`
	CurrentParticipants   *int     `form:"currentParticipants"`
	IsRegistrationOpen    *bool    `form:"isRegistrationOpen"`
	Location              *string  `form:"location" binding:"omitempty,max=300"`
	EventType             *string  `form:"eventType"`
	Tags                  []string `form:"tags"`

	Image *ImageUpload `form:"-"`
}

// HasChanges reports whether any field or a new image was supplied
func (r *UpdateEventRequest) HasChanges() bool {
	return r.Title != nil || r.Content != nil || r.Description != nil ||
		r.RegistrationLink != nil || r.Date != nil ||
		r.RegistrationStartDate != nil || r.RegistrationEndDate != nil ||
		r.MaxParticipants != nil || r.CurrentParticipants != nil ||
		r.IsRegistrationOpen != nil || r.Location != nil ||
		r.EventType != nil || r.Tags != nil || r.Image != nil
}

// Validate validates that at least one field is provided for update
func (r *UpdateEventRequest) Validate() (bool, string) {
	if !r.HasChanges() {
		return false, "At least one field must be provided for update"
	}
	for name, p := range map[string]*string{"title": r.Title, "content": r.Content, "description": r.Description} {
		if p != nil && blank(*p) {
			return false, name + " must not be blank"
		}
	}
	if r.Date != nil {
		if _, err := ParseTime(*r.Date); err != nil {
			return false, "date: " + err.Error()
		}
	}
	if ok, msg := validateWindow(deref(r.RegistrationStartDate), deref(r.RegistrationEndDate)); !ok {
		return false, msg
	}
	if r.MaxParticipants != nil && *r.MaxParticipants < 0 {
		return false, "maxParticipants must not be negative"
	}
	if r.CurrentParticipants != nil && *r.CurrentParticipants < 0 {
		return false, "currentParticipants must not be negative"
	}
	if r.EventType != nil && !domain.IsValidEventType(strings.ToUpper(*r.EventType)) {
		return false, "eventType must be one of ONLINE, OFFLINE, HYBRID"
	}
	return true, ""
}

// EventListQuery holds the query parameters of GET /events
type EventListQuery struct {
	When string `form:"when" binding:"omitempty,oneof=upcoming past all"`
	PageQuery
}

// SetDefaults sets default values for query parameters
func (q *EventListQuery) SetDefaults() {
	if q.When == "" {
		q.When = string(domain.EventPeriodAll)
	}
	q.PageQuery.SetDefaults()
}

// EventResponse is an event with its registration status computed at read time
type EventResponse struct {
	*domain.Event
	RegistrationStatus domain.RegistrationStatus `json:"registrationStatus"`
	IsUpcoming         bool                      `json:"isUpcoming"`
	DaysUntilEvent     int                       `json:"daysUntilEvent"`
	ContentHTML        string                    `json:"contentHtml,omitempty"`
}

// RegistrationStatusResponse is returned by GET /events/:id/registration-status
type RegistrationStatusResponse struct {
	Event              *domain.Event             `json:"event"`
	RegistrationStatus domain.RegistrationStatus `json:"registrationStatus"`
}

// NormalizeTags splits comma separated values, trims and de-duplicates them
func NormalizeTags(raw []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		for _, tag := range strings.Split(r, ",") {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}

// validateWindow checks the registration dates. Blank values mean "unset",
// matching how the service clears them.
func validateWindow(start, end string) (bool, string) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	var startOK, endOK bool
	st, err := ParseTime(start)
	if start != "" {
		if err != nil {
			return false, "registrationStartDate: " + err.Error()
		}
		startOK = true
	}
	et, err := ParseTime(end)
	if end != "" {
		if err != nil {
			return false, "registrationEndDate: " + err.Error()
		}
		endOK = true
	}
	if startOK && endOK && et.Before(st) {
		return false, "registrationEndDate must not be before registrationStartDate"
	}
	return true, ""
}

func validateCounts(maxP, current *int) (bool, string) {
	if maxP != nil && *maxP < 1 {
		return false, "maxParticipants must be at least 1"
	}
	if current != nil && *current < 0 {
		return false, "currentParticipants must not be negative"
	}
	return true, ""
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
