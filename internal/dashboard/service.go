package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	"github.com/couchcryptid/crime-dashboard/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ReadinessChecker reports whether a dependency can serve requests.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Config holds the refresh settings.
type Config struct {
	// FetchTimeout bounds a single remote fetch; zero means no extra bound.
	FetchTimeout time.Duration

	// Query applied when a session has no dashboard yet. An empty
	// DefaultCommunity selects the first community in the table.
	DefaultStart      time.Time
	DefaultEnd        time.Time
	DefaultCategories []domain.Category
	DefaultCommunity  string
}

type namedRecorder struct {
	name     string
	recorder domain.Recorder
}

// Service runs the refresh cycle: validate, resolve, fetch, clean, summarize.
type Service struct {
	cfg         Config
	fetcher     domain.Fetcher
	communities *domain.CommunityTable
	recorders   []namedRecorder
	readiness   ReadinessChecker
	clock       clockwork.Clock
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Service that fetches through f and resolves names against communities.
func New(cfg Config, f domain.Fetcher, communities *domain.CommunityTable, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		cfg:         cfg,
		fetcher:     f,
		communities: communities,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
		metrics:     metrics,
	}
}

// SetClock replaces the clock used to stamp refreshes. Intended for tests.
func (s *Service) SetClock(c clockwork.Clock) {
	s.clock = c
}

// AddRecorder registers a recorder that receives every refresh outcome.
// Recorders run in registration order after each refresh.
func (s *Service) AddRecorder(name string, r domain.Recorder) {
	s.recorders = append(s.recorders, namedRecorder{name: name, recorder: r})
}

// SetReadiness makes CheckReadiness delegate to c, typically the API client.
func (s *Service) SetReadiness(c ReadinessChecker) {
	s.readiness = c
}

// Communities returns the community reference table.
func (s *Service) Communities() *domain.CommunityTable {
	return s.communities
}

// DefaultQuery returns the query used for a session's first dashboard.
func (s *Service) DefaultQuery() domain.Query {
	community := s.cfg.DefaultCommunity
	if community == "" && s.communities.Len() > 0 {
		community = s.communities.Names()[0]
	}
	return domain.Query{
		Start:      s.cfg.DefaultStart,
		End:        s.cfg.DefaultEnd,
		Categories: slices.Clone(s.cfg.DefaultCategories),
		Community:  community,
	}
}

// CheckReadiness returns nil when refreshes can be served.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if s.communities == nil || s.communities.Len() == 0 {
		return errors.New("community table is not loaded")
	}
	if s.readiness != nil {
		return s.readiness.CheckReadiness(ctx)
	}
	return nil
}

// Refresh replaces prev with the dashboard for q. The new dataset is built in
// full before it is returned; on any error Refresh returns prev unchanged
// apart from LastError and FailedAt, together with the error.
//
// Errors wrap domain.ErrInvalidQuery, domain.ErrUnknownCommunity or
// domain.ErrFetch. An unknown community never reaches the remote API. A
// query that fails validation is not passed to the recorders.
func (s *Service) Refresh(ctx context.Context, prev State, q domain.Query) (State, error) {
	start := time.Now()
	next, err := s.refresh(ctx, q)
	s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.Refreshes.WithLabelValues(outcome(err)).Inc()
		s.logger.Warn("refresh failed, keeping previous dataset",
			"community", q.Community,
			"error", err,
		)
		failed := prev
		failed.LastError = err.Error()
		failed.FailedAt = s.clock.Now()
		// Rejected input is not a refresh attempt; only lookup and fetch
		// failures reach the history and the event stream.
		if !errors.Is(err, domain.ErrInvalidQuery) {
			s.record(ctx, s.recordFor(q, next.AreaID, failed, err))
		}
		return failed, err
	}

	s.metrics.Refreshes.WithLabelValues("success").Inc()
	s.metrics.DatasetIncidents.Set(float64(next.Dataset.TotalCount))
	s.logger.Info("dashboard refreshed",
		"community", q.Community,
		"area_id", next.AreaID,
		"categories", q.Categories,
		"start", q.Start.Format(domain.DateLayout),
		"end", q.End.Format(domain.DateLayout),
		"incidents", next.Dataset.TotalCount,
		"rejected", next.Rejected,
	)
	s.record(ctx, s.recordFor(q, next.AreaID, next, nil))
	return next, nil
}

func (s *Service) refresh(ctx context.Context, q domain.Query) (State, error) {
	if err := q.Validate(); err != nil {
		return State{}, err
	}
	areaID, err := s.communities.Resolve(q.Community)
	if err != nil {
		return State{}, err
	}

	fetchCtx := ctx
	if s.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
	}

	from, to := q.FetchWindow()
	result, err := s.fetcher.Fetch(fetchCtx, domain.FetchRequest{
		Start:      from,
		End:        to,
		Categories: q.Categories,
		AreaID:     areaID,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrFetch) {
			err = fmt.Errorf("%w: %w", domain.ErrFetch, err)
		}
		return State{AreaID: areaID}, err
	}

	ds, rejected := domain.Clean(result.Incidents, s.communities, q.Categories, q.Start, q.End)
	rejected = append(slices.Clone(result.Rejected), rejected...)
	s.reportRejections(q, rejected)

	return State{
		Query:       q,
		AreaID:      areaID,
		Dataset:     ds,
		Views:       domain.Summarize(ds),
		Rejected:    len(rejected),
		RefreshedAt: s.clock.Now(),
	}, nil
}

func (s *Service) reportRejections(q domain.Query, rejected []domain.Rejection) {
	if len(rejected) == 0 {
		return
	}
	for _, r := range rejected {
		s.metrics.RejectedRecords.WithLabelValues(r.Field).Inc()
		s.logger.Debug("record rejected", "index", r.Index, "id", r.ID, "field", r.Field, "error", r.Err)
	}
	s.logger.Warn("records rejected during refresh",
		"community", q.Community,
		"rejected", len(rejected),
	)
}

func (s *Service) recordFor(q domain.Query, areaID string, st State, err error) domain.RefreshRecord {
	rec := domain.RefreshRecord{
		ID:          uuid.NewString(),
		Community:   q.Community,
		AreaID:      areaID,
		Categories:  slices.Clone(q.Categories),
		Start:       q.Start,
		End:         q.End,
		Status:      domain.RefreshOK,
		RefreshedAt: st.RefreshedAt,
	}
	if err != nil {
		rec.Status = domain.RefreshFailed
		rec.Error = err.Error()
		rec.RefreshedAt = st.FailedAt
		return rec
	}
	rec.TotalCount = st.Dataset.TotalCount
	rec.Rejected = st.Rejected
	rec.TopCrimes = st.Views.TopCrimes
	return rec
}

// recordTimeout bounds the time all recorders may spend on one refresh.
const recordTimeout = 5 * time.Second

// record hands rec to every recorder. Recorder failures are logged and
// counted but never fail the refresh.
func (s *Service) record(ctx context.Context, rec domain.RefreshRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	for _, nr := range s.recorders {
		if err := nr.recorder.Record(ctx, rec); err != nil {
			s.metrics.RecorderErrors.WithLabelValues(nr.name).Inc()
			s.logger.Error("record refresh failed", "recorder", nr.name, "refresh_id", rec.ID, "error", err)
		}
	}
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery):
		return "invalid_query"
	case errors.Is(err, domain.ErrUnknownCommunity):
		return "lookup_error"
	default:
		return "fetch_error"
	}
}
