package dto

import "github.com/gronit/club-portal/backend-club/internal/domain"

// CreateBlogRequest is the multipart form for POST /blogs
type CreateBlogRequest struct {
	Title       string `form:"title" binding:"required,max=200"`
	Content     string `form:"content" binding:"required"`
	Description string `form:"description" binding:"required,max=2000"`

	Author string       `form:"-"`
	Image  *ImageUpload `form:"-"`
}

// Validate checks the fields binding tags cannot express
func (r *CreateBlogRequest) Validate() (bool, string) {
	if blank(r.Title) || blank(r.Content) || blank(r.Description) {
		return false, "Title, content and description must not be blank"
	}
	if r.Image == nil {
		return false, "Image is required"
	}
	return true, ""
}

// UpdateBlogRequest is the multipart form for PATCH /blogs/:id
type UpdateBlogRequest struct {
	Title       *string `form:"title" binding:"omitempty,max=200"`
	Content     *string `form:"content"`
	Description *string `form:"description" binding:"omitempty,max=2000"`

	Image *ImageUpload `form:"-"`
}

// Validate validates that at least one field is provided for update
func (r *UpdateBlogRequest) Validate() (bool, string) {
	if r.Title == nil && r.Content == nil && r.Description == nil && r.Image == nil {
		return false, "At least one field must be provided for update"
	}
	for name, p := range map[string]*string{"title": r.Title, "content": r.Content, "description": r.Description} {
		if p != nil && blank(*p) {
			return false, name + " must not be blank"
		}
	}
	return true, ""
}

// BlogResponse is a blog with its rendered markdown
type BlogResponse struct {
	*domain.Blog
	ContentHTML string `json:"contentHtml,omitempty"`
}
