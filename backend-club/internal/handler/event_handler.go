package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/service"
	"github.com/gronit/club-portal/pkg/middleware"
	"github.com/gronit/club-portal/pkg/response"
	"github.com/gronit/club-portal/pkg/telemetry"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
	}
}

// List handles GET /events - lists events with their registration status
func (h *EventHandler) List(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.list")
	defer span.End()

	var query dto.EventListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	query.SetDefaults()

	events, total, err := h.eventService.ListEvents(ctx, &query)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to list events")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(events, query.Limit, query.Offset, int64(total)))
}

// Get handles GET /events/:id - retrieves an event with rendered content
func (h *EventHandler) Get(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.get")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(id))

	event, err := h.eventService.GetEvent(ctx, id)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to get event")
		return
	}

	c.JSON(http.StatusOK, response.Success(event))
}

// RegistrationStatus handles GET /events/:id/registration-status
func (h *EventHandler) RegistrationStatus(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.registration_status")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(id))

	status, err := h.eventService.GetRegistrationStatus(ctx, id)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to get registration status")
		return
	}

	span.SetAttributes(telemetry.OutcomeAttr(string(status.RegistrationStatus.Reason)))
	c.JSON(http.StatusOK, response.Success(status))
}

// Create handles POST /events - creates an event from a multipart form (admin only)
func (h *EventHandler) Create(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.create")
	defer span.End()

	var req dto.CreateEventRequest
	if !bindForm(c, &req) {
		return
	}
	if !checkBoolFields(c, "isRegistrationOpen") {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image
	req.Author = middleware.GetAuthor(c)

	if req.Image == nil {
		respondError(c, service.ErrImageRequired, "")
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	event, err := h.eventService.CreateEvent(ctx, &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to create event")
		return
	}

	middleware.SetAuditResourceID(c, event.ID)
	middleware.SetAuditNewValues(c, map[string]any{
		"title": event.Title,
		"date":  event.Date,
		"image": event.ImagePublicID,
	})
	auditImage(c, image)
	c.JSON(http.StatusCreated, response.Success(event))
}

// Update handles PATCH /events/:id - applies a partial update (admin only)
func (h *EventHandler) Update(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.update")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(id))

	var req dto.UpdateEventRequest
	if !bindForm(c, &req) {
		return
	}
	if !checkBoolFields(c, "isRegistrationOpen") {
		return
	}

	image, err := readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read image")
		return
	}
	req.Image = image

	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	event, err := h.eventService.UpdateEvent(ctx, id, middleware.GetAuthor(c), &req)
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to update event")
		return
	}

	middleware.SetAuditResourceID(c, event.ID)
	auditImage(c, image)
	c.JSON(http.StatusOK, response.Success(event))
}

// Delete handles DELETE /events/:id (admin only)
func (h *EventHandler) Delete(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "handler.event.delete")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(telemetry.EventIDAttr(id))

	if err := h.eventService.DeleteEvent(ctx, id, middleware.GetAuthor(c)); err != nil {
		telemetry.SetSpanError(ctx, err)
		respondError(c, err, "Failed to delete event")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.DeleteResponse{ID: id, Message: "Event deleted successfully"}))
}

// checkBoolFields rejects boolean form fields sent with a blank value, which
// the form binder would otherwise read as false.
func checkBoolFields(c *gin.Context, fields ...string) bool {
	for _, field := range fields {
		if v, ok := c.GetPostForm(field); ok && strings.TrimSpace(v) == "" {
			c.JSON(http.StatusBadRequest, response.BadRequest(field+" must be true or false"))
			return false
		}
	}
	return true
}
