package dto

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gronit/club-portal/backend-club/internal/domain"
)

// CreateMemberRequest is the multipart form for POST /team. Social links
// come either as a JSON object in socialLinks or as individual fields.
type CreateMemberRequest struct {
	Name        string `form:"name" binding:"required,max=120"`
	Domain      string `form:"domain" binding:"required,max=120"`
	SocialLinks string `form:"socialLinks"`
	Instagram   string `form:"instagram" binding:"omitempty,url"`
	LinkedIn    string `form:"linkedin" binding:"omitempty,url"`
	GitHub      string `form:"github" binding:"omitempty,url"`

	Image *ImageUpload `form:"-"`
}

// Validate checks the fields binding tags cannot express
func (r *CreateMemberRequest) Validate() (bool, string) {
	if blank(r.Name) || blank(r.Domain) {
		return false, "Name and domain must not be blank"
	}
	if r.Image == nil {
		return false, "Image is required"
	}
	if _, err := r.Links(); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Links merges the JSON object with the individual link fields, which win
func (r *CreateMemberRequest) Links() (domain.SocialLinks, error) {
	links, err := parseSocialLinks(r.SocialLinks)
	if err != nil {
		return links, err
	}
	overlayLinks(&links, r.Instagram, r.LinkedIn, r.GitHub)
	return links, nil
}

// UpdateMemberRequest is the multipart form for PATCH /team/:id
type UpdateMemberRequest struct {
	Name        *string `form:"name" binding:"omitempty,max=120"`
	Domain      *string `form:"domain" binding:"omitempty,max=120"`
	SocialLinks *string `form:"socialLinks"`

	Image *ImageUpload `form:"-"`
}

// Validate validates that at least one field is provided for update
func (r *UpdateMemberRequest) Validate() (bool, string) {
	if r.Name == nil && r.Domain == nil && r.SocialLinks == nil && r.Image == nil {
		return false, "At least one field must be provided for update"
	}
	if r.Name != nil && blank(*r.Name) {
		return false, "name must not be blank"
	}
	if r.Domain != nil && blank(*r.Domain) {
		return false, "domain must not be blank"
	}
	if r.SocialLinks != nil {
		if _, err := parseSocialLinks(*r.SocialLinks); err != nil {
			return false, err.Error()
		}
	}
	return true, ""
}

// Links returns the replacement social links, or nil when unchanged
func (r *UpdateMemberRequest) Links() (*domain.SocialLinks, error) {
	if r.SocialLinks == nil {
		return nil, nil
	}
	links, err := parseSocialLinks(*r.SocialLinks)
	if err != nil {
		return nil, err
	}
	return &links, nil
}

// ErrInvalidSocialLinks is returned for a socialLinks value that is not a JSON object
var ErrInvalidSocialLinks = errors.New("socialLinks must be a JSON object with instagram, linkedin or github")

func parseSocialLinks(raw string) (domain.SocialLinks, error) {
	var links domain.SocialLinks
	if strings.TrimSpace(raw) == "" {
		return links, nil
	}
	if err := json.Unmarshal([]byte(raw), &links); err != nil {
		return links, ErrInvalidSocialLinks
	}
	links.Instagram = strings.TrimSpace(links.Instagram)
	links.LinkedIn = strings.TrimSpace(links.LinkedIn)
	links.GitHub = strings.TrimSpace(links.GitHub)
	return links, nil
}

func overlayLinks(links *domain.SocialLinks, instagram, linkedin, github string) {
	if instagram != "" {
		links.Instagram = instagram
	}
	if linkedin != "" {
		links.LinkedIn = linkedin
	}
	if github != "" {
		links.GitHub = github
	}
}
