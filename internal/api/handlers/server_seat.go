package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ClaimSeat handles POST /events/:event_id/seats.
func (s *Server) ClaimSeat(c *gin.Context) {
	var req SeatClaimRequest
	if !bindJSON(c, &req) {
		return
	}

	seat, err := s.ledger.ClaimSeat(c.Request.Context(), callerFromCtx(c), c.Param("event_id"), req.Code)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, seat)
}

// GetUserSeat handles GET /events/:event_id/seats/me.
func (s *Server) GetUserSeat(c *gin.Context) {
	seat, err := s.ledger.GetUserSeat(c.Request.Context(), callerFromCtx(c), c.Param("event_id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, seat)
}

// ListOwnedEventIDs handles GET /owners/me/events.
func (s *Server) ListOwnedEventIDs(c *gin.Context) {
	ids, err := s.ledger.ListEventIDs(c.Request.Context(), callerFromCtx(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, EventIDList{EventIDs: ids})
}

// GetCaller handles GET /me.
func (s *Server) GetCaller(c *gin.Context) {
	caller := callerFromCtx(c)
	c.JSON(http.StatusOK, Caller{Identity: caller, IsAdmin: s.ledger.IsAdmin(caller)})
}
