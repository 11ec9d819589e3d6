package domain

import "time"

// Event is a club event with an external registration link
type Event struct {
	ID                    string     `json:"id"`
	Title                 string     `json:"title"`
	Content               string     `json:"content"`
	Author                string     `json:"author"`
	Description           string     `json:"description"`
	RegistrationLink      string     `json:"registrationLink"`
	ImageURL              string     `json:"imageUrl"`
	ImagePublicID         string     `json:"imagePublicId"`
	Date                  time.Time  `json:"date"`
	RegistrationStartDate *time.Time `json:"registrationStartDate,omitempty"`
	RegistrationEndDate   *time.Time `json:"registrationEndDate,omitempty"`
	MaxParticipants       *int       `json:"maxParticipants,omitempty"`
	CurrentParticipants   *int       `json:"currentParticipants,omitempty"`
	IsRegistrationOpen    bool       `json:"isRegistrationOpen"`
	Location              string     `json:"location,omitempty"`
	EventType             string     `json:"eventType"`
	Tags                  []string   `json:"tags"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// EventType constants
const (
	EventTypeOnline  = "ONLINE"
	EventTypeOffline = "OFFLINE"
	EventTypeHybrid  = "HYBRID"
)

// IsValidEventType reports whether t is one of the EventType constants
func IsValidEventType(t string) bool {
	switch t {
	case EventTypeOnline, EventTypeOffline, EventTypeHybrid:
		return true
	}
	return false
}

// EventPeriod selects events relative to now
type EventPeriod string

const (
	EventPeriodUpcoming EventPeriod = "upcoming"
	EventPeriodPast     EventPeriod = "past"
	EventPeriodAll      EventPeriod = "all"
)

// IsUpcoming reports whether the event starts after now
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Date.After(now)
}

// DaysUntil returns the whole days until the event starts, rounded up.
// Negative once the event has started.
func (e *Event) DaysUntil(now time.Time) int {
	return ceilDays(e.Date.Sub(now))
}

// Clone returns a deep copy of e
func (e *Event) Clone() *Event {
	c := *e
	if e.RegistrationStartDate != nil {
		t := *e.RegistrationStartDate
		c.RegistrationStartDate = &t
	}
	if e.RegistrationEndDate != nil {
		t := *e.RegistrationEndDate
		c.RegistrationEndDate = &t
	}
	if e.MaxParticipants != nil {
		n := *e.MaxParticipants
		c.MaxParticipants = &n
	}
	if e.CurrentParticipants != nil {
		n := *e.CurrentParticipants
		c.CurrentParticipants = &n
	}
	if e.Tags != nil {
		c.Tags = make([]string, len(e.Tags))
		copy(c.Tags, e.Tags)
	}
	return &c
}
