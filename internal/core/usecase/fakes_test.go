package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/core/ports"
)

var (
	errNotFound       = errors.New("no such record")
	errFinalized      = errors.New("state is terminal")
	errUnknownVariety = errors.New("not in catalog")
)

type fakeRepo struct {
	mu            sync.Mutex
	records       map[string]*domain.Classification
	createErr     error
	transitionErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*domain.Classification{}}
}

func (r *fakeRepo) Create(_ context.Context, c *domain.Classification) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *c
	r.records[c.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrClassificationNotFound, "get classification", errNotFound)
	}
	clone := *c
	return &clone, nil
}

func (r *fakeRepo) List(_ context.Context, _ domain.Filter, _, _ int) ([]domain.Classification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Classification, 0, len(r.records))
	for _, c := range r.records {
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeRepo) Count(_ context.Context, _ domain.Filter) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records), nil
}

func (r *fakeRepo) Transition(_ context.Context, id, actor string, target domain.State, notes string, at time.Time) (*domain.Classification, error) {
	if r.transitionErr != nil {
		return nil, r.transitionErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.records[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrClassificationNotFound, "transition classification", errNotFound)
	}
	if c.State != domain.StateProcessed {
		return nil, domain.WrapError(domain.ErrInvalidTransition, "transition classification", errFinalized)
	}
	c.State = target
	c.ValidatedBy = actor
	validatedAt := at
	c.ValidatedAt = &validatedAt
	c.ValidationNotes = notes
	clone := *c
	return &clone, nil
}

type fakeAuditLog struct {
	mu        sync.Mutex
	entries   []domain.AuditEntry
	appendErr error
}

func (l *fakeAuditLog) Append(_ context.Context, entry *domain.AuditEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}
	if l.appendErr != nil {
		return l.appendErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, *entry)
	return nil
}

func (l *fakeAuditLog) HistoryFor(_ context.Context, classificationID string) ([]domain.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range l.entries {
		if e.ClassificationID == classificationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (l *fakeAuditLog) entriesFor(classificationID string, action domain.AuditAction) []domain.AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.AuditEntry
	for _, e := range l.entries {
		if e.ClassificationID == classificationID && e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

type fakeCatalog struct {
	active map[string]domain.Variety
}

func newFakeCatalog(names ...string) *fakeCatalog {
	c := &fakeCatalog{active: map[string]domain.Variety{}}
	for _, n := range names {
		c.active[n] = domain.Variety{CommonName: n, Active: true}
	}
	return c
}

func (c *fakeCatalog) ActiveByCommonName(_ context.Context, commonName string) (*domain.Variety, error) {
	v, ok := c.active[commonName]
	if !ok {
		return nil, domain.WrapError(domain.ErrUnknownVariety, "lookup variety", errUnknownVariety)
	}
	return &v, nil
}

func (c *fakeCatalog) ListActive(_ context.Context) ([]domain.Variety, error) {
	out := make([]domain.Variety, 0, len(c.active))
	for _, v := range c.active {
		out = append(out, v)
	}
	return out, nil
}

type fakeClassifier struct {
	prediction domain.Prediction
	err        error
	delay      time.Duration
}

func (f *fakeClassifier) Predict(ctx context.Context, _ io.Reader) (domain.Prediction, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return domain.Prediction{}, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return domain.Prediction{}, f.err
	}
	return f.prediction, nil
}

type fakeImageStore struct {
	mu    sync.Mutex
	saved []string
	err   error
}

func (s *fakeImageStore) Save(_ context.Context, key string, _ io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "images/" + key
	s.saved = append(s.saved, ref)
	return ref, nil
}

func (s *fakeImageStore) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errNotFound
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.LifecycleEvent
	err    error
}

func (p *fakePublisher) PublishLifecycleEvent(_ context.Context, event domain.LifecycleEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeMonitor struct {
	mu       sync.Mutex
	failures []domain.AuditAction
}

func (m *fakeMonitor) AuditAppendFailed(action domain.AuditAction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, action)
}

type fakeStatsReader struct {
	summary     domain.ConfidenceSummary
	byVariety   []domain.VarietyCount
	bySubmitter []domain.SubmitterCount
	byDay       []domain.DailyCount
	byCondition []domain.ConditionCount
	byBoth      []domain.VarietyConditionCount
}

func (s *fakeStatsReader) ConfidenceSummary(_ context.Context, _ domain.Filter) (domain.ConfidenceSummary, error) {
	return s.summary, nil
}

func (s *fakeStatsReader) CountByVariety(_ context.Context, _ domain.Filter) ([]domain.VarietyCount, error) {
	return s.byVariety, nil
}

func (s *fakeStatsReader) CountBySubmitter(_ context.Context, _ domain.Filter) ([]domain.SubmitterCount, error) {
	return s.bySubmitter, nil
}

func (s *fakeStatsReader) CountByDay(_ context.Context, _ domain.Filter, _ int) ([]domain.DailyCount, error) {
	return s.byDay, nil
}

func (s *fakeStatsReader) CountByCondition(_ context.Context, _ domain.Filter) ([]domain.ConditionCount, error) {
	return s.byCondition, nil
}

func (s *fakeStatsReader) CountByVarietyAndCondition(_ context.Context, _ domain.Filter) ([]domain.VarietyConditionCount, error) {
	return s.byBoth, nil
}

var (
	_ ports.ClassificationRepository = (*fakeRepo)(nil)
	_ ports.AuditLog                 = (*fakeAuditLog)(nil)
	_ ports.VarietyCatalog           = (*fakeCatalog)(nil)
	_ ports.VarietyClassifier        = (*fakeClassifier)(nil)
	_ ports.ImageStore               = (*fakeImageStore)(nil)
	_ ports.EventPublisher           = (*fakePublisher)(nil)
	_ ports.AuditMonitor             = (*fakeMonitor)(nil)
	_ ports.StatsReader              = (*fakeStatsReader)(nil)
)
