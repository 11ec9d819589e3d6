package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/domain"
	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/repository"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/markdown"
	"github.com/gronit/club-portal/pkg/media"
)

// blogService implements the BlogService interface
type blogService struct {
	blogRepo  repository.BlogRepository
	images    media.ImageStore
	publisher ContentPublisher
	clock     clock.Clock
}

// NewBlogService creates a new BlogService
func NewBlogService(blogRepo repository.BlogRepository, images media.ImageStore, publisher ContentPublisher, clk clock.Clock) BlogService {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &blogService{
		blogRepo:  blogRepo,
		images:    images,
		publisher: publisher,
		clock:     clk,
	}
}

// ListBlogs lists blogs newest first
func (s *blogService) ListBlogs(ctx context.Context, query *dto.PageQuery) ([]*domain.Blog, int, error) {
	query.SetDefaults()
	return s.blogRepo.List(ctx, query.Limit, query.Offset)
}

// GetBlog retrieves a blog with its rendered content
func (s *blogService) GetBlog(ctx context.Context, id string) (*dto.BlogResponse, error) {
	blog, err := s.getBlog(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &dto.BlogResponse{Blog: blog}
	html, err := markdown.Render(blog.Content)
	if err != nil {
		logger.WarnCtx(ctx, "failed to render blog content", zap.String("blog_id", id), zap.Error(err))
	} else {
		resp.ContentHTML = html
	}
	return resp, nil
}

// CreateBlog uploads the image and creates a blog
func (s *blogService) CreateBlog(ctx context.Context, req *dto.CreateBlogRequest) (*domain.Blog, error) {
	if req.Image == nil {
		return nil, ErrImageRequired
	}
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}

	img, err := uploadImage(ctx, s.images, req.Image)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	blog := &domain.Blog{
		Title:         strings.TrimSpace(req.Title),
		Content:       req.Content,
		Author:        req.Author,
		Description:   strings.TrimSpace(req.Description),
		ImageURL:      img.URL,
		ImagePublicID: img.PublicID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.blogRepo.Create(ctx, blog); err != nil {
		destroyImage(ctx, s.images, img.PublicID)
		return nil, err
	}

	announce(ctx, s.publisher, domain.ResourceBlog, domain.ActionCreated, blog.ID, req.Author, now)
	return blog, nil
}

// UpdateBlog applies a partial update
func (s *blogService) UpdateBlog(ctx context.Context, id, actor string, req *dto.UpdateBlogRequest) (*domain.Blog, error) {
	if valid, msg := req.Validate(); !valid {
		return nil, invalidInput(msg)
	}

	blog, err := s.getBlog(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		blog.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		blog.Content = *req.Content
	}
	if req.Description != nil {
		blog.Description = strings.TrimSpace(*req.Description)
	}

	oldPublicID := ""
	var img *media.Image
	if req.Image != nil {
		img, err = uploadImage(ctx, s.images, req.Image)
		if err != nil {
			return nil, err
		}
		oldPublicID = blog.ImagePublicID
		blog.ImageURL = img.URL
		blog.ImagePublicID = img.PublicID
	}

	now := s.clock.Now()
	blog.UpdatedAt = now

	if err := s.blogRepo.Update(ctx, blog); err != nil {
		if img != nil {
			destroyImage(ctx, s.images, img.PublicID)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBlogNotFound
		}
		return nil, err
	}
	destroyImage(ctx, s.images, oldPublicID)

	announce(ctx, s.publisher, domain.ResourceBlog, domain.ActionUpdated, blog.ID, actor, now)
	return blog, nil
}

// DeleteBlog deletes a blog and then its image
func (s *blogService) DeleteBlog(ctx context.Context, id, actor string) error {
	blog, err := s.getBlog(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blogRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBlogNotFound
		}
		return err
	}
	destroyImage(ctx, s.images, blog.ImagePublicID)

	announce(ctx, s.publisher, domain.ResourceBlog, domain.ActionDeleted, id, actor, s.clock.Now())
	return nil
}

func (s *blogService) getBlog(ctx context.Context, id string) (*domain.Blog, error) {
	blog, err := s.blogRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if blog == nil {
		return nil, ErrBlogNotFound
	}
	return blog, nil
}
