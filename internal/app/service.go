// Package service composes the week calculator, the upstream fetcher, the
// record normalizer and the dense ranker into the report operations served by
// the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/perfboard/internal/adapters/upstream"
	"github.com/okian/perfboard/internal/domain/isoweek"
	"github.com/okian/perfboard/internal/domain/model"
	"github.com/okian/perfboard/internal/domain/normalize"
	"github.com/okian/perfboard/internal/domain/ranking"
	"github.com/okian/perfboard/internal/domain/scorecard"
	"github.com/okian/perfboard/internal/session"
	"github.com/okian/perfboard/pkg/logger"
	"github.com/okian/perfboard/pkg/metrics"
)

// Upstream is the subset of the evaluation backend the service reads from.
// *upstream.Client implements it.
type Upstream interface {
	FetchPage(ctx context.Context, sess session.Session, q upstream.Query) (model.Page, error)
	FetchAll(ctx context.Context, sess session.Session, q upstream.Query) ([]model.RawRecord, error)
	LatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error)
	ReportsLatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error)
	CheckDuplicate(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (bool, error)
	EmployeeWeek(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (model.RawRecord, error)
	PageSize() int
}

// ReportRequest selects one ranked report.
type ReportRequest struct {
	Scope model.Scope
	// Week is resolved from the backend's latest report week when zero.
	Week   isoweek.WeekKey
	Filter model.Filter
	// ViewID groups successive builds of the same screen. A newer build for
	// a view supersedes the older one.
	ViewID string
}

// SummaryRequest selects one page of the performance summary.
type SummaryRequest struct {
	Week     isoweek.WeekKey
	Page     int
	PageSize int
	Search   string
	SortBy   string
	Order    string
}

// SummaryPage is one page of the performance summary. Ranks come from the
// backend and are kept as-is.
type SummaryPage struct {
	Week     isoweek.WeekKey          `json:"week"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Total    int                      `json:"total"`
	Next     string                   `json:"next,omitempty"`
	Records  []model.NormalizedRecord `json:"records"`
}

// EmployeeWeek is one employee's evaluation for one week.
type EmployeeWeek struct {
	Employee  model.NormalizedRecord `json:"employee"`
	Scorecard scorecard.Scorecard    `json:"scorecard"`
}

// Service implements the report operations.
type Service struct {
	mu sync.RWMutex

	upstream Upstream
	views    *viewTracker

	// Configuration
	strictRollover bool
	reportRoles    []session.Role
	now            func() time.Time

	// State
	started   bool
	lastBuild time.Time

	// Counters
	reportsBuilt      atomic.Int64
	reportsFailed     atomic.Int64
	reportsSuperseded atomic.Int64

	logger  logger.Logger
	metrics *metrics.Manager
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the metrics manager. The global manager is used otherwise.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithStrictRollover selects the calendar-correct previous week (53 after a
// long ISO year) instead of the fixed week 52 rollover.
func WithStrictRollover(strict bool) Option {
	return func(s *Service) {
		s.strictRollover = strict
	}
}

// WithReportRoles sets the roles allowed to read ranked reports.
func WithReportRoles(roles ...string) Option {
	return func(s *Service) {
		if len(roles) == 0 {
			return
		}
		s.reportRoles = s.reportRoles[:0]
		for _, r := range roles {
			s.reportRoles = append(s.reportRoles, session.ParseRole(r))
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New constructs a Service reading from up.
func New(up Upstream, opts ...Option) *Service {
	s := &Service{
		upstream:    up,
		reportRoles: []session.Role{session.RoleAdmin, session.RoleManager},
		now:         time.Now,
		metrics:     metrics.Global(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.views = newViewTracker(s.metrics.UpdateViewsInFlight)
	return s
}

// Start marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.upstream == nil {
		return fmt.Errorf("%w: no upstream", ErrInvalidInput)
	}
	if s.logger == nil {
		s.logger = logger.Named("service")
	}

	s.started = true
	s.logger.Info(ctx, "report service started",
		logger.Bool("strictRollover", s.strictRollover),
		logger.Int("reportRoles", len(s.reportRoles)),
	)
	return nil
}

// Stop cancels every in-flight build.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.views.cancelAll()
	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// CurrentWeek returns the ISO week containing date, or the current week when
// date is zero.
func (s *Service) CurrentWeek(date time.Time) isoweek.WeekKey {
	if date.IsZero() {
		date = s.now()
	}
	return isoweek.Of(date)
}

// LatestWeek returns the most recent week that has evaluations: the backend's
// current processing week minus one.
func (s *Service) LatestWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error) {
	if err := s.ready(); err != nil {
		return isoweek.WeekKey{}, err
	}
	current, err := s.upstream.LatestWeek(ctx, sess)
	if err != nil {
		return isoweek.WeekKey{}, err
	}
	if s.strictRollover {
		return current.Previous(), nil
	}
	return isoweek.LatestEvaluationWeek(current), nil
}

// ReportWeek returns the week report screens open on by default.
func (s *Service) ReportWeek(ctx context.Context, sess session.Session) (isoweek.WeekKey, error) {
	if err := s.ready(); err != nil {
		return isoweek.WeekKey{}, err
	}
	return s.upstream.ReportsLatestWeek(ctx, sess)
}

// Report builds a ranked report: every page is fetched, each record is
// normalized and the set is dense-ranked by score. The search filter is
// applied after ranking so ranks do not depend on it.
func (s *Service) Report(ctx context.Context, sess session.Session, req ReportRequest) (model.Report, error) {
	if err := s.ready(); err != nil {
		return model.Report{}, err
	}
	if !req.Scope.Ranked() {
		return model.Report{}, fmt.Errorf("%w: scope %q has no ranked report", ErrInvalidInput, req.Scope)
	}
	if !sess.HasRole(s.reportRoles...) {
		return model.Report{}, fmt.Errorf("%w: role %q", ErrForbidden, sess.Role)
	}

	start := time.Now()
	buildCtx, finish := s.views.begin(ctx, req.ViewID)
	report, err := s.buildReport(buildCtx, sess, req)
	current := finish()
	elapsed := time.Since(start)
	scope := string(req.Scope)

	switch {
	case !current:
		s.reportsSuperseded.Add(1)
		s.metrics.RecordBuildSuperseded()
		s.metrics.RecordReportBuild(scope, metrics.OutcomeSuperseded, 0, elapsed)
		s.logger.Debug(ctx, "report build superseded",
			logger.String("scope", scope),
			logger.String("view", req.ViewID),
		)
		return model.Report{}, ErrSuperseded
	case err != nil:
		s.reportsFailed.Add(1)
		s.metrics.RecordReportBuild(scope, metrics.OutcomeError, 0, elapsed)
		return model.Report{}, err
	}

	s.reportsBuilt.Add(1)
	s.metrics.RecordReportBuild(scope, metrics.OutcomeOK, len(report.Records), elapsed)

	s.mu.Lock()
	s.lastBuild = report.GeneratedAt
	s.mu.Unlock()

	s.logger.Debug(ctx, "report built",
		logger.String("scope", scope),
		logger.String("week", report.Week.String()),
		logger.Int("records", len(report.Records)),
		logger.Duration("elapsed", elapsed),
	)
	return report, nil
}

func (s *Service) buildReport(ctx context.Context, sess session.Session, req ReportRequest) (model.Report, error) {
	week := req.Week
	if week.IsZero() {
		latest, err := s.upstream.ReportsLatestWeek(ctx, sess)
		if err != nil {
			return model.Report{}, err
		}
		week = latest
	}
	if !week.Valid() {
		return model.Report{}, fmt.Errorf("%w: week %s", ErrInvalidInput, week)
	}

	q := upstream.Query{Scope: req.Scope, Week: &week}
	switch req.Scope {
	case model.ScopeManager:
		q.ScopeID = orDefault(req.Filter.Manager, model.AllManagers)
	case model.ScopeDepartment:
		q.ScopeID = orDefault(req.Filter.Department, model.AllDepartments)
	}

	raws, err := s.upstream.FetchAll(ctx, sess, q)
	if err != nil {
		return model.Report{}, err
	}

	records := normalize.Records(raws)
	s.metrics.RecordRecordsNormalized(len(records))
	ranked := Search(ranking.Dense(records), req.Filter.Search)

	return model.Report{
		Scope:       req.Scope,
		Week:        week,
		Filter:      req.Filter,
		Records:     ranked,
		Total:       len(ranked),
		GeneratedAt: s.now().UTC(),
	}, nil
}

// Summary returns one page of the performance summary.
func (s *Service) Summary(ctx context.Context, sess session.Session, req SummaryRequest) (SummaryPage, error) {
	if err := s.ready(); err != nil {
		return SummaryPage{}, err
	}
	if !sess.HasRole(s.reportRoles...) {
		return SummaryPage{}, fmt.Errorf("%w: role %q", ErrForbidden, sess.Role)
	}

	week := req.Week
	if week.IsZero() {
		latest, err := s.LatestWeek(ctx, sess)
		if err != nil {
			return SummaryPage{}, err
		}
		week = latest
	}
	if !week.Valid() {
		return SummaryPage{}, fmt.Errorf("%w: week %s", ErrInvalidInput, week)
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 {
		req.PageSize = s.upstream.PageSize()
	}

	page, err := s.upstream.FetchPage(ctx, sess, upstream.Query{
		Scope:    model.ScopeSummary,
		Week:     &week,
		Search:   req.Search,
		SortBy:   req.SortBy,
		Order:    req.Order,
		Page:     req.Page,
		PageSize: req.PageSize,
	})
	if err != nil {
		return SummaryPage{}, err
	}

	records := normalize.Records(page.Records)
	s.metrics.RecordRecordsNormalized(len(records))

	return SummaryPage{
		Week:     week,
		Page:     req.Page,
		PageSize: req.PageSize,
		Total:    page.TotalCount,
		Next:     page.NextPageToken,
		Records:  records,
	}, nil
}

// Employees returns the employee directory, every page of it, narrowed by
// search. Records keep the backend order and carry no rank.
func (s *Service) Employees(ctx context.Context, sess session.Session, search string) ([]model.NormalizedRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if !sess.HasRole(s.reportRoles...) {
		return nil, fmt.Errorf("%w: role %q", ErrForbidden, sess.Role)
	}

	raws, err := s.upstream.FetchAll(ctx, sess, upstream.Query{Scope: model.ScopeEmployees})
	if err != nil {
		return nil, err
	}

	records := normalize.Records(raws)
	s.metrics.RecordRecordsNormalized(len(records))
	found := Search(records, search)

	s.logger.Debug(ctx, "employee directory read",
		logger.Int("records", len(records)),
		logger.Int("matched", len(found)),
	)
	return found, nil
}

// EmployeeWeek returns one employee's evaluation for week.
func (s *Service) EmployeeWeek(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (EmployeeWeek, error) {
	if err := s.checkEmployee(sess, empID, week); err != nil {
		return EmployeeWeek{}, err
	}

	raw, err := s.upstream.EmployeeWeek(ctx, sess, empID, week)
	if err != nil {
		return EmployeeWeek{}, err
	}

	header := normalize.Record(raw)
	if header.EmployeeID == model.Placeholder {
		header.EmployeeID = empID
	}
	card := scorecard.FromRaw(raw)
	card.EmployeeID = empID
	card.Week = week

	return EmployeeWeek{Employee: header, Scorecard: card}, nil
}

// WeekExists reports whether empID already has an evaluation for week.
func (s *Service) WeekExists(ctx context.Context, sess session.Session, empID string, week isoweek.WeekKey) (bool, error) {
	if err := s.checkEmployee(sess, empID, week); err != nil {
		return false, err
	}
	return s.upstream.CheckDuplicate(ctx, sess, empID, week)
}

func (s *Service) checkEmployee(sess session.Session, empID string, week isoweek.WeekKey) error {
	if err := s.ready(); err != nil {
		return err
	}
	if strings.TrimSpace(empID) == "" {
		return fmt.Errorf("%w: empty employee id", ErrInvalidInput)
	}
	if !week.Valid() {
		return fmt.Errorf("%w: week %s", ErrInvalidInput, week)
	}
	if !sess.CanViewEmployee(empID) {
		return fmt.Errorf("%w: employee %s", ErrForbidden, empID)
	}
	return nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inFlight := s.views.inFlight()
	stats := map[string]interface{}{
		"started":           s.started,
		"strictRollover":    s.strictRollover,
		"reportsBuilt":      s.reportsBuilt.Load(),
		"reportsFailed":     s.reportsFailed.Load(),
		"reportsSuperseded": s.reportsSuperseded.Load(),
		"viewsInFlight":     inFlight,
	}
	if !s.lastBuild.IsZero() {
		stats["lastBuildAt"] = s.lastBuild.Format(time.RFC3339)
	}

	s.metrics.UpdateViewsInFlight(inFlight)
	return stats
}

// Search keeps the records whose id, name, department or manager contains
// term, case-insensitively. Ranks are left untouched.
func Search(records []model.NormalizedRecord, term string) []model.NormalizedRecord {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return records
	}
	out := make([]model.NormalizedRecord, 0, len(records))
	for _, r := range records {
		if matches(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r model.NormalizedRecord, term string) bool {
	for _, field := range []string{r.EmployeeID, r.FullName, r.Department, r.Manager} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// IsSuperseded reports whether err came from a build that a newer request
// replaced.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}
