package domain

import "time"

// Resource names used in content notifications and metrics
const (
	ResourceEvent  = "event"
	ResourceBlog   = "blog"
	ResourceMember = "member"
)

// Content actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ContentChange announces an admin write to events, blogs or the team roster
type ContentChange struct {
	Type       string    `json:"type"`
	Resource   string    `json:"resource"`
	ID         string    `json:"id"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewContentChange builds a change with Type "<resource>.<action>"
func NewContentChange(resource, action, id, actor string, at time.Time) ContentChange {
	return ContentChange{
		Type:       resource + "." + action,
		Resource:   resource,
		ID:         id,
		Actor:      actor,
		OccurredAt: at.UTC(),
	}
}
