package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/dashboard"
	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/goccy/go-json"
)

const (
	sessionCookie = "crime_session"

	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	maxRequestBody      = 1 << 20
)

// refreshRequest is the dashboard configuration record posted by the UI.
type refreshRequest struct {
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Categories []string `json:"categories"`
	Community  string   `json:"community"`
}

type queryResponse struct {
	StartDate  string            `json:"start_date"`
	EndDate    string            `json:"end_date"`
	Categories []domain.Category `json:"categories"`
	Community  string            `json:"community"`
}

type dashboardResponse struct {
	Query       queryResponse     `json:"query"`
	AreaID      string            `json:"area_id,omitempty"`
	Views       domain.Views      `json:"views"`
	Rejected    int               `json:"rejected"`
	RefreshedAt *time.Time        `json:"refreshed_at,omitempty"`
	Error       string            `json:"error,omitempty"`
	FailedAt    *time.Time        `json:"failed_at,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

func (s *Server) handleCommunities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"communities": s.dashboard.Communities().Records(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": domain.Definitions(),
	})
}

// handleDashboard returns the session's dashboard. A session without a
// loaded dataset is refreshed with the default query first.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	state, err := s.sessions.Update(id, func(prev dashboard.State) (dashboard.State, error) {
		if prev.Loaded() {
			return prev, nil
		}
		return s.dashboard.Refresh(r.Context(), prev, s.dashboard.DefaultQuery())
	})
	s.writeState(w, state, err)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)

	q, fields, err := decodeRefresh(r)
	if err != nil {
		state, _ := s.sessions.Get(id)
		resp := newDashboardResponse(state)
		resp.Error = err.Error()
		resp.Fields = fields
		writeJSON(w, http.StatusBadRequest, resp)
		return
	}

	state, err := s.sessions.Update(id, func(prev dashboard.State) (dashboard.State, error) {
		return s.dashboard.Refresh(r.Context(), prev, q)
	})
	s.writeState(w, state, err)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusNotFound, "refresh history is not enabled")
		return
	}

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	records, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("read refresh history failed", "error", err)
		writeError(w, http.StatusInternalServerError, "read refresh history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshes": records})
}

// session returns the caller's session id, issuing a new cookie when the
// request carries none.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := dashboard.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (s *Server) writeState(w http.ResponseWriter, state dashboard.State, err error) {
	resp := newDashboardResponse(state)
	if err == nil {
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var qe *domain.QueryError
	if errors.As(err, &qe) {
		resp.Fields = qe.Fields
	}
	writeJSON(w, statusFor(err), resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownCommunity):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeRefresh reads the request body into a Query. Category labels are
// normalized here and checked against the taxonomy by Query.Validate.
func decodeRefresh(r *http.Request) (domain.Query, map[string]string, error) {
	var req refreshRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return domain.Query{}, nil, fmt.Errorf("%w: malformed request body: %w", domain.ErrInvalidQuery, err)
	}

	fields := make(map[string]string)
	start, err := domain.ParseDate(req.StartDate)
	if err != nil {
		fields["start_date"] = "must be a date in YYYY-MM-DD format"
	}
	end, err := domain.ParseDate(req.EndDate)
	if err != nil {
		fields["end_date"] = "must be a date in YYYY-MM-DD format"
	}
	if len(fields) > 0 {
		return domain.Query{}, fields, &domain.QueryError{Fields: fields}
	}

	categories := make([]domain.Category, len(req.Categories))
	for i, c := range req.Categories {
		categories[i] = domain.Category(strings.ToUpper(strings.TrimSpace(c)))
	}
	return domain.Query{
		Start:      start,
		End:        end,
		Categories: categories,
		Community:  req.Community,
	}, nil, nil
}

func newDashboardResponse(state dashboard.State) dashboardResponse {
	resp := dashboardResponse{
		Query: queryResponse{
			StartDate:  formatDate(state.Query.Start),
			EndDate:    formatDate(state.Query.End),
			Categories: state.Query.Categories,
			Community:  state.Query.Community,
		},
		AreaID:   state.AreaID,
		Views:    state.Views,
		Rejected: state.Rejected,
		Error:    state.LastError,
	}
	if !state.RefreshedAt.IsZero() {
		t := state.RefreshedAt
		resp.RefreshedAt = &t
	}
	if !state.FailedAt.IsZero() && state.LastError != "" {
		t := state.FailedAt
		resp.FailedAt = &t
	}
	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
