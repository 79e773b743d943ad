package usecase

import (
	"context"
	"sync"
	"time"

	"ShotTrace/internal/domain/models"
	drepo "ShotTrace/internal/domain/repository"
)

type fakeMetrics struct {
	mu       sync.Mutex
	errors   map[string]int
	analyzed map[string]int
	shots    int
	review   int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: map[string]int{}, analyzed: map[string]int{}}
}

func (m *fakeMetrics) RecordRoundAnalyzed(backend string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzed[backend]++
}

func (m *fakeMetrics) RecordShots(total, needsReview int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shots += total
	m.review += needsReview
}

func (m *fakeMetrics) RecordStrokesGained(string, float64) {}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

func (m *fakeMetrics) errCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakePublisher struct {
	published []*models.RoundAnalysis
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, a *models.RoundAnalysis) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, a)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeStore struct {
	mu     sync.Mutex
	rounds map[string]*models.RoundAnalysis
	err    error
	gets   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rounds: map[string]*models.RoundAnalysis{}}
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) Store(_ context.Context, a *models.RoundAnalysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rounds[a.RoundID] = a
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (*models.RoundAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	a, ok := s.rounds[id]
	if !ok {
		return nil, drepo.ErrRoundNotFound
	}
	return a, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }

func (s *fakeStore) Close() error { return nil }

type fakeFetcher struct {
	windows []models.StabilityWindow
	err     error
	calls   int
	around  []time.Time
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string, around []time.Time, _ time.Duration) ([]models.StabilityWindow, error) {
	f.calls++
	f.around = around
	return f.windows, f.err
}

type fakeRunner struct {
	mu     sync.Mutex
	inputs []models.RoundInput
	err    error
}

func (r *fakeRunner) Process(_ context.Context, in models.RoundInput) (*models.RoundAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, in)
	if r.err != nil {
		return nil, r.err
	}
	return &models.RoundAnalysis{RoundID: in.RoundID}, nil
}

func (r *fakeRunner) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inputs)
}

type fakeStream struct {
	mu         sync.Mutex
	connects   int
	reconnects int
	reads      int
	closed     bool
	msgCh      chan *models.DeviceMessage
	errCh      chan error
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgCh: make(chan *models.DeviceMessage, 16), errCh: make(chan error, 1)}
}

func (s *fakeStream) Connect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connects++
	return nil
}

func (s *fakeStream) Subscribe(context.Context) error { return nil }

func (s *fakeStream) Read(context.Context) (<-chan *models.DeviceMessage, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.msgCh, s.errCh
}

func (s *fakeStream) Reconnect(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStream) IsConnected() bool { return true }

func (s *fakeStream) counts() (reconnects, reads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconnects, s.reads
}
