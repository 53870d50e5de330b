// Package handlers implements the ledger HTTP API on gin.
//
// Handlers translate HTTP into EventLifecycle calls and report failures with
// c.Error; middleware.ErrorHandler renders them. Request bodies have already
// passed the OpenAPI validator when a handler runs.
//
// Import Path: seatledger.io/ledger/internal/api/handlers
package handlers

import (
	"github.com/gin-gonic/gin"

	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/usecase"
)

// Server holds the API handlers.
type Server struct {
	ledger *usecase.EventLifecycle
}

// ServerDeps holds all dependencies for creating a Server.
type ServerDeps struct {
	Ledger *usecase.EventLifecycle
}

// NewServer creates a new Server with all dependencies.
func NewServer(deps ServerDeps) *Server {
	return &Server{ledger: deps.Ledger}
}

// RegisterHealth mounts the unauthenticated probes.
func (s *Server) RegisterHealth(r gin.IRoutes) {
	r.GET("/health/live", s.GetLiveness)
	r.GET("/health/ready", s.GetReadiness)
}

// RegisterRoutes mounts the ledger operations on an authenticated group.
func (s *Server) RegisterRoutes(r gin.IRoutes) {
	r.GET("/events", s.ListAllEvents)
	r.POST("/events", s.CreateEvent)
	r.GET("/events/:event_id", s.GetEvent)
	r.PUT("/events/:event_id", s.EditEvent)
	r.DELETE("/events/:event_id", s.DeleteEvent)
	r.POST("/events/:event_id/codes", s.GenerateCode)
	r.PUT("/events/:event_id/code-generation", s.ToggleCodeGeneration)
	r.POST("/events/:event_id/seats", s.ClaimSeat)
	r.GET("/events/:event_id/seats/me", s.GetUserSeat)
	r.GET("/owners/me/events", s.ListOwnedEventIDs)
	r.GET("/me", s.GetCaller)
}

// callerFromCtx returns the authenticated caller set by JWTAuth.
func callerFromCtx(c *gin.Context) domain.Identity {
	return middleware.IdentityFromContext(c.Request.Context())
}
