package repository

import (
	"context"
	"errors"
	"time"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

// ErrNotFound is returned by Update and Delete when no record matched
var ErrNotFound = errors.New("record not found")

// EventFilter selects events for listing
type EventFilter struct {
	Period domain.EventPeriod
	// Now is the instant Period is measured against
	Now    time.Time
	Limit  int
	Offset int
}

// EventRepository defines the interface for event data access.
// GetByID returns (nil, nil) when the event does not exist.
type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	List(ctx context.Context, filter EventFilter) ([]*domain.Event, int, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
}

// BlogRepository defines the interface for blog data access.
// GetByID returns (nil, nil) when the blog does not exist.
type BlogRepository interface {
	Create(ctx context.Context, blog *domain.Blog) error
	GetByID(ctx context.Context, id string) (*domain.Blog, error)
	// List returns blogs newest first
	List(ctx context.Context, limit, offset int) ([]*domain.Blog, int, error)
	Update(ctx context.Context, blog *domain.Blog) error
	Delete(ctx context.Context, id string) error
}

// MemberRepository defines the interface for team roster data access.
// GetByID returns (nil, nil) when the member does not exist.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	// List returns members ordered by name
	List(ctx context.Context, limit, offset int) ([]*domain.Member, int, error)
	Update(ctx context.Context, member *domain.Member) error
	Delete(ctx context.Context, id string) error
}
