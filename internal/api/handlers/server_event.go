package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/usecase"
)

// bindJSON decodes the request body, reporting failures as InvalidPayload.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		_ = c.Error(apperrors.ErrInvalidPayloadf("invalid request body: %v", err))
		return false
	}
	return true
}

// ListAllEvents handles GET /events.
func (s *Server) ListAllEvents(c *gin.Context) {
	views, err := s.ledger.ListAllEventsFor(c.Request.Context(), callerFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EventList{Events: views})
}

// CreateEvent handles POST /events. The caller becomes the owner.
func (s *Server) CreateEvent(c *gin.Context) {
	var input usecase.EventInfoInput
	if !bindJSON(c, &input) {
		return
	}

	ev, err := s.ledger.CreateEvent(c.Request.Context(), callerFromCtx(c), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, CreatedEvent{ID: ev.ID, Info: ev.Info})
}

// GetEvent handles GET /events/:event_id.
func (s *Server) GetEvent(c *gin.Context) {
	view, err := s.ledger.GetEventFor(c.Request.Context(), callerFromCtx(c), c.Param("event_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// EditEvent handles PUT /events/:event_id.
func (s *Server) EditEvent(c *gin.Context) {
	var input usecase.EventInfoInput
	if !bindJSON(c, &input) {
		return
	}

	info, err := s.ledger.EditEvent(c.Request.Context(), callerFromCtx(c), c.Param("event_id"), input)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteEvent handles DELETE /events/:event_id.
func (s *Server) DeleteEvent(c *gin.Context) {
	if err := s.ledger.DeleteEvent(c.Request.Context(), callerFromCtx(c), c.Param("event_id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GenerateCode handles POST /events/:event_id/codes.
func (s *Server) GenerateCode(c *gin.Context) {
	code, err := s.ledger.GenerateCode(c.Request.Context(), callerFromCtx(c), c.Param("event_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, MintedCode{Code: code})
}

// ToggleCodeGeneration handles PUT /events/:event_id/code-generation.
func (s *Server) ToggleCodeGeneration(c *gin.Context) {
	var req CodeGenerationToggle
	if !bindJSON(c, &req) {
		return
	}

	enabled, err := s.ledger.ToggleCodeGeneration(c.Request.Context(), callerFromCtx(c), c.Param("event_id"), *req.Enabled)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, CodeGenerationToggle{Enabled: boolPtr(enabled)})
}
