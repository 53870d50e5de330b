package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seatledger.io/ledger/internal/api/middleware"
	"seatledger.io/ledger/internal/domain"
	"seatledger.io/ledger/internal/pkg/clock"
	apperrors "seatledger.io/ledger/internal/pkg/errors"
	"seatledger.io/ledger/internal/pkg/logger"
	"seatledger.io/ledger/internal/repository"
	"seatledger.io/ledger/internal/service"
	"seatledger.io/ledger/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
	_ = logger.Init("error", "json")
}

var jwtCfg = middleware.JWTConfig{
	SigningKey: []byte("handlers-test-key-1234567890123456"),
	Issuer:     "seat-ledger",
	ExpiresIn:  time.Hour,
}

const (
	startNanos = int64(1_800_000_000_000_000_000)
	endNanos   = int64(1_800_000_007_200_000_000)
)

type apiHarness struct {
	t      *testing.T
	router *gin.Engine
	store  *failingStore
}

// failingStore lets readiness tests break Ping.
type failingStore struct {
	*repository.MemoryStore
	pingErr error
}

func (s *failingStore) Ping(ctx context.Context) error {
	if s.pingErr != nil {
		return s.pingErr
	}
	return s.MemoryStore.Ping(ctx)
}

func newHarness(t *testing.T) *apiHarness {
	t.Helper()
	store := &failingStore{MemoryStore: repository.NewMemoryStore()}
	ledger := usecase.NewEventLifecycle(
		store,
		service.NewIdentityGate("root"),
		service.NewCodeIssuer(service.DefaultCodeIssuerConfig()),
		service.NewSeatClaimEngine(),
		clock.NewFixed(time.Unix(0, startNanos-1)),
		usecase.LifecycleOptions{UniqueEventNames: true},
	)
	srv := NewServer(ServerDeps{Ledger: ledger})

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.MustOpenAPIValidator("/api/v1"), middleware.ErrorHandler())
	srv.RegisterHealth(router)
	api := router.Group("/api/v1", middleware.JWTAuth(jwtCfg))
	srv.RegisterRoutes(api)

	return &apiHarness{t: t, router: router, store: store}
}

func (h *apiHarness) do(method, path string, as domain.Identity, body interface{}) *httptest.ResponseRecorder {
	h.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != "" {
		token, _, err := middleware.GenerateToken(jwtCfg, as)
		require.NoError(h.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func eventBody(name string) map[string]string {
	return map[string]string{
		"name":        name,
		"description": "launch party",
		"start_time":  fmt.Sprint(startNanos),
		"end_time":    fmt.Sprint(endNanos),
	}
}

func (h *apiHarness) createEvent(owner domain.Identity, name string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/v1/events", owner, eventBody(name))
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[CreatedEvent](h.t, w).ID
}

func (h *apiHarness) mint(caller domain.Identity, id string) string {
	h.t.Helper()
	w := h.do(http.MethodPost, "/api/v1/events/"+id+"/codes", caller, nil)
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[MintedCode](h.t, w).Code
}

func TestAPI_LaunchFlow(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/v1/events", "organizer", eventBody("Launch"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[CreatedEvent](t, w)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Launch", created.Info.Name)
	assert.Equal(t, startNanos, created.Info.StartTime)

	code1 := h.mint("organizer", created.ID)
	code2 := h.mint("organizer", created.ID)
	assert.NotEqual(t, code1, code2)

	claim := func(who domain.Identity, code string) *httptest.ResponseRecorder {
		return h.do(http.MethodPost, "/api/v1/events/"+created.ID+"/seats", who, SeatClaimRequest{Code: code})
	}

	w = claim("userA", code1)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	seat := decode[domain.Seat](t, w)
	assert.Equal(t, uint64(1), seat.SeatNo)
	assert.Equal(t, domain.Identity("userA"), seat.Owner)

	w = claim("userA", code2)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeSeatAlreadyHeld, decode[middleware.ErrorResponse](t, w).Code)

	w = claim("userB", code1)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperrors.CodeCodeConsumed, decode[middleware.ErrorResponse](t, w).Code)

	w = claim("userB", code2)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, uint64(2), decode[domain.Seat](t, w).SeatNo)

	w = h.do(http.MethodGet, "/api/v1/events/"+created.ID+"/seats/me", "userB", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code2, decode[domain.Seat](t, w).UniqueCode)

	w = h.do(http.MethodGet, "/api/v1/events/"+created.ID, "organizer", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[usecase.EventView](t, w)
	assert.Equal(t, 2, view.ClaimedSeatsCount)
	assert.ElementsMatch(t, []string{code1, code2}, view.Ledger.IssuedCodes)
	assert.Equal(t, domain.ScheduleUpcoming, view.Status)
}

func TestAPI_AttendeeViewHidesCodes(t *testing.T) {
	h := newHarness(t)
	id := h.createEvent("organizer", "Launch")
	h.mint("organizer", id)

	w := h.do(http.MethodGet, "/api/v1/events/"+id, "guest", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[usecase.EventView](t, w)
	assert.Empty(t, view.Ledger.IssuedCodes)
	assert.Equal(t, 1, view.CodesGenerated)

	w = h.do(http.MethodGet, "/api/v1/events", "guest", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	list := decode[EventList](t, w)
	require.Len(t, list.Events, 1)
	assert.Empty(t, list.Events[0].Ledger.IssuedCodes)

	w = h.do(http.MethodGet, "/api/v1/events", "root", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[EventList](t, w).Events[0].Ledger.IssuedCodes, 1)
}

func TestAPI_EventManagement(t *testing.T) {
	h := newHarness(t)
	id := h.createEvent("organizer", "Launch")

	tests := []struct {
		name       string
		method     string
		path       string
		as         domain.Identity
		body       interface{}
		wantStatus int
		wantCode   string
	}{
		{"duplicate name", http.MethodPost, "/api/v1/events", "other", eventBody("Launch"), http.StatusConflict, apperrors.CodeEventNameExists},
		{"end before start", http.MethodPost, "/api/v1/events", "other", map[string]string{
			"name": "x", "description": "d", "start_time": "20", "end_time": "10",
		}, http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"blank name", http.MethodPost, "/api/v1/events", "other", map[string]string{
			"name": "  ", "description": "d", "start_time": "10", "end_time": "20",
		}, http.StatusBadRequest, apperrors.CodeValidationFailed},
		{"edit by stranger", http.MethodPut, "/api/v1/events/" + id, "stranger", eventBody("Launch 2"), http.StatusForbidden, apperrors.CodeNotEventOwner},
		{"edit missing", http.MethodPut, "/api/v1/events/missing", "organizer", eventBody("Launch 2"), http.StatusNotFound, apperrors.CodeEventNotFound},
		{"mint by stranger", http.MethodPost, "/api/v1/events/" + id + "/codes", "stranger", nil, http.StatusForbidden, apperrors.CodeNotEventOwner},
		{"toggle by stranger", http.MethodPut, "/api/v1/events/" + id + "/code-generation", "stranger", CodeGenerationToggle{Enabled: boolPtr(true)}, http.StatusForbidden, apperrors.CodeNotEventOwner},
		{"claim unknown code", http.MethodPost, "/api/v1/events/" + id + "/seats", "guest", SeatClaimRequest{Code: "nope"}, http.StatusNotFound, apperrors.CodeCodeNotFound},
		{"admin cannot claim", http.MethodPost, "/api/v1/events/" + id + "/seats", "root", SeatClaimRequest{Code: "nope"}, http.StatusForbidden, apperrors.CodeAdminCannotSeat},
		{"no seat yet", http.MethodGet, "/api/v1/events/" + id + "/seats/me", "guest", nil, http.StatusNotFound, apperrors.CodeSeatNotFound},
		{"owner without events", http.MethodGet, "/api/v1/owners/me/events", "guest", nil, http.StatusNotFound, apperrors.CodeOwnerHasNoEvents},
		{"delete by stranger", http.MethodDelete, "/api/v1/events/" + id, "stranger", nil, http.StatusForbidden, apperrors.CodeNotEventOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(tt.method, tt.path, tt.as, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decode[middleware.ErrorResponse](t, w).Code)
		})
	}

	w := h.do(http.MethodPut, "/api/v1/events/"+id+"/code-generation", "organizer", CodeGenerationToggle{Enabled: boolPtr(true)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, *decode[CodeGenerationToggle](t, w).Enabled)

	w = h.do(http.MethodPut, "/api/v1/events/"+id, "root", eventBody("Launch 2"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Launch 2", decode[domain.EventInfo](t, w).Name)

	w = h.do(http.MethodGet, "/api/v1/owners/me/events", "organizer", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{id}, decode[EventIDList](t, w).EventIDs)

	w = h.do(http.MethodDelete, "/api/v1/events/"+id, "organizer", nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = h.do(http.MethodGet, "/api/v1/events/"+id, "organizer", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPI_CallerAndAuth(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/v1/me", "root", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, Caller{Identity: "root", IsAdmin: true}, decode[Caller](t, w))

	w = h.do(http.MethodGet, "/api/v1/me", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[Caller](t, w).IsAdmin)

	w = h.do(http.MethodGet, "/api/v1/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAPI_Health(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, healthStatusOK, decode[Health](t, w).Checks["store"])

	h.store.pingErr = repository.ErrStoreClosed
	w = h.do(http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, healthStatusDegraded, decode[Health](t, w).Status)
}
