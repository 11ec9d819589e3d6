package dto

import (
	"errors"
	"strings"
	"time"
)

// ErrInvalidTime is returned by ParseTime for unsupported layouts
var ErrInvalidTime = errors.New("invalid date, expected RFC3339, YYYY-MM-DDTHH:MM or YYYY-MM-DD")

// Accepted date layouts, tried in order. Layouts without a zone are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses the date formats accepted by the admin forms
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidTime
}

// ImageUpload is an image file read from a multipart form
type ImageUpload struct {
	Data     []byte
	Filename string
	MimeType string
}

// PageQuery holds limit/offset pagination parameters
type PageQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// SetDefaults sets default values for query parameters
func (q *PageQuery) SetDefaults() {
	if q.Limit == 0 {
		q.Limit = 20
	}
}

// DeleteResponse confirms a deletion
type DeleteResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
