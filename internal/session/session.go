// Package session owns one loaded transaction set and its mapping table.
package session

import (
	"context"
	"sync"
	"time"

	"fjacquet/bwa-report/internal/aggregator"
	"fjacquet/bwa-report/internal/logging"
	"fjacquet/bwa-report/internal/mapping"
	"fjacquet/bwa-report/internal/models"
	"fjacquet/bwa-report/internal/parser"

	"github.com/google/uuid"
)

// SourceLoader loads and concatenates sources.
type SourceLoader interface {
	LoadAll(ctx context.Context, sources []models.Source) (*parser.LoadResult, error)
}

// Result is delivered once on the channel returned by Start.
type Result struct {
	Load *parser.LoadResult
	Err  error
	// Stale is set when a later Start superseded this load; its data was not installed.
	Stale bool
}

// Snapshot is an immutable view of the session state. Transactions are never
// mutated after loading and Mapping is a private copy.
type Snapshot struct {
	SessionID    string
	Transactions []models.Transaction
	Mapping      *mapping.Table
	Diagnostics  models.Diagnostics
	Sources      []models.Diagnostics
	LoadedAt     time.Time
}

type state struct {
	transactions []models.Transaction
	table        *mapping.Table
	diagnostics  models.Diagnostics
	sources      []models.Diagnostics
	loadedAt     time.Time
}

// Session serialises access to its state. Loads run in the background and
// replace the whole state when they complete.
type Session struct {
	id     uuid.UUID
	loader SourceLoader
	logger logging.Logger
	agg    *aggregator.Aggregator

	mu         sync.RWMutex
	state      state
	generation uint64
}

// New creates a session with an initial mapping table, which is copied.
func New(loader SourceLoader, table *mapping.Table, logger logging.Logger) *Session {
	id := uuid.New()
	logger = logging.OrDefault(logger).WithField(logging.FieldSession, id.String())
	if table == nil {
		table = mapping.NewTable()
	}
	return &Session{
		id:     id,
		loader: loader,
		logger: logger,
		agg:    aggregator.New(logger),
		state:  state{table: table.Clone()},
	}
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string {
	return s.id.String()
}

// Start loads sources in a goroutine. The returned channel yields exactly one
// Result and is then closed. Only the most recent Start installs its data.
func (s *Session) Start(ctx context.Context, sources ...models.Source) <-chan Result {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	loader := s.loader
	s.mu.Unlock()

	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res, err := loader.LoadAll(ctx, sources)
		if err != nil {
			s.logger.WithError(err).Warn("Load failed")
			out <- Result{Err: err}
			return
		}
		if !s.install(gen, res) {
			s.logger.Debug("Discarding superseded load")
			out <- Result{Load: res, Stale: true}
			return
		}
		out <- Result{Load: res}
	}()
	return out
}

// Load runs Start and waits for its result.
func (s *Session) Load(ctx context.Context, sources ...models.Source) (*parser.LoadResult, error) {
	select {
	case r := <-s.Start(ctx, sources...):
		return r.Load, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// install swaps in res when gen is still current. A mapping table carried by
// an exchange document replaces the session table.
func (s *Session) install(gen uint64, res *parser.LoadResult) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	next := state{
		transactions: res.Transactions,
		table:        s.state.table,
		diagnostics:  res.Diagnostics,
		sources:      res.Sources,
		loadedAt:     time.Now(),
	}
	if res.Mapping != nil {
		next.table = res.Mapping.Clone()
	}
	s.state = next
	s.logger.Info("Installed loaded transactions",
		logging.Field{Key: logging.FieldCount, Value: len(next.transactions)},
		logging.Field{Key: logging.FieldSkipped, Value: next.diagnostics.Skipped})
	return true
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		SessionID:    s.id.String(),
		Transactions: s.state.transactions[:len(s.state.transactions):len(s.state.transactions)],
		Mapping:      s.state.table.Clone(),
		Diagnostics:  s.state.diagnostics,
		Sources:      append([]models.Diagnostics(nil), s.state.sources...),
		LoadedAt:     s.state.loadedAt,
	}
}

// SetMapping replaces the mapping table with a copy of table.
func (s *Session) SetMapping(table *mapping.Table) {
	if table == nil {
		table = mapping.NewTable()
	}
	clone := table.Clone()
	s.mu.Lock()
	s.state.table = clone
	s.mu.Unlock()
}

// UpdateMapping applies fn to a copy of the table and installs the copy when
// fn succeeds.
func (s *Session) UpdateMapping(fn func(*mapping.Table) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.state.table.Clone()
	if err := fn(next); err != nil {
		return err
	}
	s.state.table = next
	return nil
}

// Aggregate summarises the current snapshot.
func (s *Session) Aggregate(req aggregator.Request) (*models.PeriodSummary, error) {
	snap := s.Snapshot()
	return s.agg.Aggregate(snap.Transactions, snap.Mapping, req)
}

// AggregateYear summarises all four quarters of the current snapshot.
func (s *Session) AggregateYear(policy models.Policy, year *int) ([]*models.PeriodSummary, error) {
	snap := s.Snapshot()
	return s.agg.AggregateYear(snap.Transactions, snap.Mapping, policy, year)
}
