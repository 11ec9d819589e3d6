package service

import (
	"context"

	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/dto"
)

// EventService defines the interface for event business logic
type EventService interface {
	// ListEvents lists events for a period, each with its registration status
	ListEvents(ctx context.Context, query *dto.EventListQuery) ([]*dto.EventResponse, int, error)
	// GetEvent retrieves an event with rendered content and registration status
	GetEvent(ctx context.Context, id string) (*dto.EventResponse, error)
	// GetRegistrationStatus evaluates the registration status of an event
	GetRegistrationStatus(ctx context.Context, id string) (*dto.RegistrationStatusResponse, error)
	// CreateEvent uploads the image and creates an event
	CreateEvent(ctx context.Context, req *dto.CreateEventRequest) (*dto.EventResponse, error)
	// UpdateEvent applies a partial update
	UpdateEvent(ctx context.Context, id, actor string, req *dto.UpdateEventRequest) (*dto.EventResponse, error)
	// DeleteEvent deletes an event and its image
	DeleteEvent(ctx context.Context, id, actor string) error
}

// BlogService defines the interface for blog business logic
type BlogService interface {
	ListBlogs(ctx context.Context, query *dto.PageQuery) ([]*domain.Blog, int, error)
	GetBlog(ctx context.Context, id string) (*dto.BlogResponse, error)
	CreateBlog(ctx context.Context, req *dto.CreateBlogRequest) (*domain.Blog, error)
	UpdateBlog(ctx context.Context, id, actor string, req *dto.UpdateBlogRequest) (*domain.Blog, error)
	DeleteBlog(ctx context.Context, id, actor string) error
}

// MemberService defines the interface for team roster business logic
type MemberService interface {
	ListMembers(ctx context.Context, query *dto.PageQuery) ([]*domain.Member, int, error)
	GetMember(ctx context.Context, id string) (*domain.Member, error)
	CreateMember(ctx context.Context, actor string, req *dto.CreateMemberRequest) (*domain.Member, error)
	UpdateMember(ctx context.Context, id, actor string, req *dto.UpdateMemberRequest) (*domain.Member, error)
	DeleteMember(ctx context.Context, id, actor string) error
}

// AdminService manages the accounts allowed into the admin panel
type AdminService interface {
	ListAdmins(ctx context.Context) ([]*domain.AdminUser, error)
	AddAdmin(ctx context.Context, email string) (*domain.AdminUser, error)
	RemoveAdmin(ctx context.Context, uid string) error
}
