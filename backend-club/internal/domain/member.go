package domain

import "time"

// SocialLinks are a team member's optional profile links
type SocialLinks struct {
	Instagram string `json:"instagram,omitempty"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
}

// Member is a person on the club team roster
type Member struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Domain        string      `json:"domain"`
	ImageURL      string      `json:"imageUrl"`
	ImagePublicID string      `json:"imagePublicId"`
	SocialLinks   SocialLinks `json:"socialLinks"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}
