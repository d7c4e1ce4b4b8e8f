// Package api exposes the operator HTTP endpoints of the attendance service.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/attendance/internal/auth"
	"example.com/attendance/internal/clock"
	"example.com/attendance/internal/domain"
	"example.com/attendance/internal/persistence"
	"example.com/attendance/internal/router"
	"example.com/attendance/internal/summary"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Option configures a Handler.
type Option func(*Handler)

// WithClock overrides the clock used for the default date.
func WithClock(c clock.Clock) Option {
	return func(h *Handler) {
		h.time = clock.NewTimeSource(c)
	}
}

// WithHealthCheck sets the check run by /healthz.
func WithHealthCheck(check func(context.Context) error) Option {
	return func(h *Handler) {
		if check != nil {
			h.health = check
		}
	}
}

// Handler serves read-only views of activity logs.
type Handler struct {
	logs    domain.LogReader
	history domain.HistoryLister
	time    clock.TimeSource
	health  func(context.Context) error
}

// NewHandler builds a Handler.
func NewHandler(logs domain.LogReader, history domain.HistoryLister, opts ...Option) *Handler {
	h := &Handler{
		logs:    logs,
		history: history,
		time:    clock.NewTimeSource(clock.Real()),
		health:  func(context.Context) error { return nil },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	read := func(fn http.HandlerFunc) http.Handler {
		return auth.RequireScope(auth.ScopeAttendanceRead, fn)
	}
	mux.Handle("GET /v1/attendance/logs/{user_id}", read(h.getLog))
	mux.Handle("GET /v1/attendance/logs/{user_id}/summary", read(h.getSummary))
	mux.Handle("GET /v1/attendance/users/{user_id}/logs", read(h.listLogs))
	mux.HandleFunc("GET /healthz", h.healthz)
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.health(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err.Error())
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) getLog(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := h.logKey(w, r)
	if !ok {
		return
	}
	log, err := h.logs.Get(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	if log == nil {
		writeError(w, http.StatusNotFound, "not_found", "no activity log for that day")
		return
	}
	writeJSON(w, http.StatusOK, toLogView(log))
}

func (h *Handler) getSummary(w http.ResponseWriter, r *http.Request) {
	userID, date, ok := h.logKey(w, r)
	if !ok {
		return
	}
	log, err := h.logs.Get(r.Context(), userID, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = router.DefaultUserName
	}
	msg := summary.Build(log, name)
	writeJSON(w, http.StatusOK, SummaryResponse{
		UserID: userID,
		Date:   date,
		Text:   msg.PlainText(),
		HTML:   msg.HTML(),
	})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}

	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = min(parsed, maxPageSize)
		}
	}

	cursor, err := persistence.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil || (cursor != nil && cursor.UserID != userID) {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	logs, next, err := h.history.ListByUser(r.Context(), userID, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := ListLogsResponse{Items: make([]LogView, 0, len(logs)), NextCursor: persistence.EncodeCursor(next)}
	for _, log := range logs {
		resp.Items = append(resp.Items, toLogView(log))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) logKey(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	userID, ok := parseUserID(w, r)
	if !ok {
		return 0, "", false
	}
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		return userID, h.time.Today(), true
	}
	if _, err := time.Parse(clock.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
		return 0, "", false
	}
	return userID, date, true
}

func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil || userID == 0 {
		writeError(w, http.StatusBadRequest, "validation_failed", "user_id must be a non-zero integer")
		return 0, false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
