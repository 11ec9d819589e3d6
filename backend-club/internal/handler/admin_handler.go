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

// AdminHandler manages admin accounts
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// List handles GET /admin/users
func (h *AdminHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.list")
	defer span.End()

	admins, err := h.adminService.ListAdmins(ctx)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to list admin users")
		return
	}

	c.JSON(http.StatusOK, response.Success(admins))
}

// Add handles POST /admin/users
func (h *AdminHandler) Add(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.add")
	defer span.End()

	var req dto.AddAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("A valid email is required"))
		return
	}

	admin, err := h.adminService.AddAdmin(ctx, req.Email)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to add admin user")
		return
	}

	middleware.SetAuditResourceID(c, admin.UID)
	c.JSON(http.StatusCreated, response.Success(admin))
}

// Remove handles DELETE /admin/users/:uid
func (h *AdminHandler) Remove(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.admin.remove")
	defer span.End()

	uid := c.Param("uid")
	if current, ok := middleware.GetUserID(c); ok && current == uid {
		c.JSON(http.StatusBadRequest, response.BadRequest("You cannot remove your own account"))
		return
	}

	if err := h.adminService.RemoveAdmin(ctx, uid); err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to remove admin user")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.DeleteResponse{ID: uid, Message: "Admin user removed successfully"}))
}
