package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/service"
	"github.com/gronit/club-portal/pkg/middleware"
	"github.com/gronit/club-portal/pkg/response"
	"github.com/gronit/club-portal/pkg/telemetry"
)

// BlogHandler handles blog-related HTTP requests
type BlogHandler struct {
	blogService service.BlogService
}

// NewBlogHandler creates a new BlogHandler
func NewBlogHandler(blogService service.BlogService) *BlogHandler {
	return &BlogHandler{blogService: blogService}
}

// List handles GET /blogs
func (h *BlogHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.blog.list")
	defer span.End()

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	query.SetDefaults()

	blogs, total, err := h.blogService.ListBlogs(ctx, &query)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to list blogs")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(blogs, query.Limit, query.Offset, int64(total)))
}

// Get handles GET /blogs/:id
func (h *BlogHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.blog.get")
	defer span.End()

	blog, err := h.blogService.GetBlog(ctx, c.Param("id"))
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to get blog")
		return
	}

	c.JSON(http.StatusOK, response.Success(blog))
}

// Create handles POST /blogs (admin only)
func (h *BlogHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.blog.create")
	defer span.End()

	var req dto.CreateBlogRequest
	if !bindForm(c, &req) {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image
	req.Author = middleware.GetAuthor(c)

	blog, err := h.blogService.CreateBlog(ctx, &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to create blog")
		return
	}

	middleware.SetAuditResourceID(c, blog.ID)
	middleware.SetAuditNewValues(c, map[string]any{"title": blog.Title})
	auditImage(c, image)
	c.JSON(http.StatusCreated, response.Success(blog))
}

// Update handles PATCH /blogs/:id (admin only)
func (h *BlogHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.blog.update")
	defer span.End()

	var req dto.UpdateBlogRequest
	if !bindForm(c, &req) {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image

	blog, err := h.blogService.UpdateBlog(ctx, c.Param("id"), middleware.GetAuthor(c), &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to update blog")
		return
	}

	auditImage(c, image)
	c.JSON(http.StatusOK, response.Success(blog))
}

// Delete handles DELETE /blogs/:id (admin only)
func (h *BlogHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.blog.delete")
	defer span.End()

	id := c.Param("id")
	if err := h.blogService.DeleteBlog(ctx, id, middleware.GetAuthor(c)); err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to delete blog")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.DeleteResponse{ID: id, Message: "Blog deleted successfully"}))
}
