package domain

import (
	"fmt"
	"math"
	"time"
)

const (
	dayLength = 24 * time.Hour

	// closingSoonDays is how close the registration deadline must be before
	// the status announces it.
	closingSoonDays = 7
	// fewSpotsThreshold is the remaining capacity at which the status
	// announces the spots left.
	fewSpotsThreshold = 10
)

// RegistrationReason identifies which rule produced a RegistrationStatus.
type RegistrationReason string

const (
	ReasonConcluded      RegistrationReason = "concluded"
	ReasonClosed         RegistrationReason = "closed"
	ReasonNotYetOpen     RegistrationReason = "not_yet_open"
	ReasonDeadlinePassed RegistrationReason = "deadline_passed"
	ReasonClosingSoon    RegistrationReason = "closing_soon"
	ReasonFull           RegistrationReason = "full"
	ReasonFewSpots       RegistrationReason = "few_spots"
	ReasonOpen           RegistrationReason = "open"
)

// RegistrationStatus is computed on every read and never stored.
type RegistrationStatus struct {
	IsOpen         bool               `json:"isOpen"`
	CanRegister    bool               `json:"canRegister"`
	Message        string             `json:"message"`
	DaysUntilStart *int               `json:"daysUntilStart,omitempty"`
	DaysUntilEnd   *int               `json:"daysUntilEnd,omitempty"`
	Reason         RegistrationReason `json:"-"`
}

// RegistrationStatus evaluates the registration window of e at now. Rules
// are checked in order and the first match wins.
func (e *Event) RegistrationStatus(now time.Time) RegistrationStatus {
	if e.Date.Before(now) {
		return closed(ReasonConcluded, "Event has already concluded")
	}

	if !e.IsRegistrationOpen {
		return closed(ReasonClosed, "Registration is currently closed")
	}

	if start := e.RegistrationStartDate; start != nil && start.After(now) {
		days := ceilDays(start.Sub(now))
		s := closed(ReasonNotYetOpen, fmt.Sprintf("Registration opens in %d %s", days, plural(days, "day")))
		s.DaysUntilStart = &days
		return s
	}

	if end := e.RegistrationEndDate; end != nil {
		if end.Before(now) {
			return closed(ReasonDeadlinePassed, "Registration deadline has passed")
		}
		if days := ceilDays(end.Sub(now)); days <= closingSoonDays {
			s := open(ReasonClosingSoon, fmt.Sprintf("Registration closes in %d %s", days, plural(days, "day")))
			s.DaysUntilEnd = &days
			return s
		}
	}

	if limit, ok := e.capacity(); ok {
		if e.CurrentParticipants != nil && *e.CurrentParticipants >= limit {
			return closed(ReasonFull, "Event is full - registration closed")
		}
		if left := limit - e.participants(); left <= fewSpotsThreshold {
			return open(ReasonFewSpots, fmt.Sprintf("Only %d %s left!", left, plural(left, "spot")))
		}
	}

	return open(ReasonOpen, "Registration is open")
}

// capacity returns the participant cap. Zero or negative caps mean none.
func (e *Event) capacity() (int, bool) {
	if e.MaxParticipants == nil || *e.MaxParticipants <= 0 {
		return 0, false
	}
	return *e.MaxParticipants, true
}

func (e *Event) participants() int {
	if e.CurrentParticipants == nil {
		return 0
	}
	return *e.CurrentParticipants
}

// ceilDays rounds a duration up to whole days. Any positive remainder,
// however small, counts as a day.
func ceilDays(d time.Duration) int {
	return int(math.Ceil(float64(d) / float64(dayLength)))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

func open(reason RegistrationReason, msg string) RegistrationStatus {
	return RegistrationStatus{IsOpen: true, CanRegister: true, Message: msg, Reason: reason}
}

func closed(reason RegistrationReason, msg string) RegistrationStatus {
	return RegistrationStatus{Message: msg, Reason: reason}
}
