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

// MemberHandler handles team roster HTTP requests
type MemberHandler struct {
	memberService service.MemberService
}

// NewMemberHandler creates a new MemberHandler
func NewMemberHandler(memberService service.MemberService) *MemberHandler {
	return &MemberHandler{memberService: memberService}
}

// List handles GET /team
func (h *MemberHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member.list")
	defer span.End()

	var query dto.PageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	query.SetDefaults()

	members, total, err := h.memberService.ListMembers(ctx, &query)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to list team members")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(members, query.Limit, query.Offset, int64(total)))
}

// Get handles GET /team/:id
func (h *MemberHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member.get")
	defer span.End()

	member, err := h.memberService.GetMember(ctx, c.Param("id"))
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to get team member")
		return
	}

	c.JSON(http.StatusOK, response.Success(member))
}

// Create handles POST /team (admin only)
func (h *MemberHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member.create")
	defer span.End()

	var req dto.CreateMemberRequest
	if !bindForm(c, &req) {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image

	member, err := h.memberService.CreateMember(ctx, middleware.GetAuthor(c), &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to create team member")
		return
	}

	middleware.SetAuditResourceID(c, member.ID)
	middleware.SetAuditNewValues(c, map[string]any{"name": member.Name, "domain": member.Domain})
	auditImage(c, image)
	c.JSON(http.StatusCreated, response.Success(member))
}

// Update handles PATCH /team/:id (admin only)
func (h *MemberHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member.update")
	defer span.End()

	var req dto.UpdateMemberRequest
	if !bindForm(c, &req) {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image

	member, err := h.memberService.UpdateMember(ctx, c.Param("id"), middleware.GetAuthor(c), &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to update team member")
		return
	}

	auditImage(c, image)
	c.JSON(http.StatusOK, response.Success(member))
}

// Delete handles DELETE /team/:id (admin only)
func (h *MemberHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.member.delete")
	defer span.End()

	id := c.Param("id")
	if err := h.memberService.DeleteMember(ctx, id, middleware.GetAuthor(c)); err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to delete team member")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.DeleteResponse{ID: id, Message: "Team member deleted successfully"}))
}
