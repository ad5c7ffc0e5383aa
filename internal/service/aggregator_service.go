package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/apperrors"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/category"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/repository"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/source"
	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/trend"
)

// AggregatorOptions configures an AggregatorService.
type AggregatorOptions struct {
	Timeout  time.Duration  // per-adapter fetch bound, default 20s
	Location *time.Location // zone used to render date ranges
	Logger   *slog.Logger
	Now      func() time.Time
}

// AggregatorService is the aggregation facade. It fans out to every registered
// source adapter, folds successful snapshots into the timeseries store and
// answers windowed statistics queries.
//
// Each source keeps its last successful snapshot in memory; when a fetch fails
// the source is reported stale and its previous quotes keep being served.
type AggregatorService struct {
	db          *sql.DB
	historyRepo *repository.HistoryRepository
	statusRepo  *repository.SourceStatusRepository
	normalizer  *category.Normalizer
	adapters    []source.Adapter
	opts        AggregatorOptions

	// cycleMu serializes the fold phase of overlapping refresh cycles.
	cycleMu sync.Mutex

	mu       sync.RWMutex
	latest   map[string]model.Snapshot
	statuses map[string]model.SourceStatus
	cycleID  string
	appended int
	selected *model.Selection

	// Cycles are numbered when they start. A cycle that finishes after a newer
	// one leaves the newer results in place.
	seq       uint64
	viewSeq   uint64
	sourceSeq map[string]uint64
}

// NewAggregatorService creates an AggregatorService. Adapters are folded in the order given.
func NewAggregatorService(
	db *sql.DB,
	historyRepo *repository.HistoryRepository,
	statusRepo *repository.SourceStatusRepository,
	normalizer *category.Normalizer,
	adapters []source.Adapter,
	opts AggregatorOptions,
) *AggregatorService {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &AggregatorService{
		db:          db,
		historyRepo: historyRepo,
		statusRepo:  statusRepo,
		normalizer:  normalizer,
		adapters:    adapters,
		opts:        opts,
		latest:      make(map[string]model.Snapshot),
		statuses:    make(map[string]model.SourceStatus),
		sourceSeq:   make(map[string]uint64),
	}
}

type fetchResult struct {
	snapshot model.Snapshot
	err      error
}

// Refresh runs one refresh cycle and returns the resulting view.
//
// Adapter failures never fail the cycle: the source is marked stale (or error
// when it never succeeded) and its history is left untouched. A snapshot that
// cannot be folded consistently is excluded from the cycle, its source is marked
// as failed, and Refresh returns the view together with an error wrapping
// apperrors.ErrDataInconsistency. Store failures abort the cycle.
//
// When cycles overlap, a cycle that started earlier but finishes later does not
// replace the snapshots or statuses recorded by the newer one.
func (s *AggregatorService) Refresh(ctx context.Context) (model.AggregateView, error) {
	cycleID := uuid.New().String()
	attemptedAt := s.opts.Now()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	results := s.fetchAll(ctx)

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	var inconsistencies []error
	for i, a := range s.adapters {
		if results[i].err != nil {
			continue
		}
		if err := validateSnapshot(a.ID(), results[i].snapshot); err != nil {
			s.opts.Logger.Error("rejecting inconsistent snapshot", "source", a.ID(), "error", err)
			results[i].err = err
			inconsistencies = append(inconsistencies, err)
		}
	}

	appended, err := s.foldCycle(ctx, results)
	if err != nil {
		return model.AggregateView{}, err
	}

	s.mu.Lock()
	for i, a := range s.adapters {
		if seq < s.sourceSeq[a.ID()] {
			s.opts.Logger.Info("discarding superseded result", "cycle", cycleID, "source", a.ID())
			continue
		}
		s.sourceSeq[a.ID()] = seq
		s.recordResult(a.ID(), results[i], attemptedAt)
	}
	if seq > s.viewSeq {
		s.viewSeq = seq
		s.cycleID = cycleID
		s.appended = appended
	}
	view := s.viewLocked()
	if s.selected == nil && view.DefaultSelection != nil {
		s.selected = view.DefaultSelection
	}
	statuses := append([]model.SourceStatus(nil), view.Sources...)
	s.mu.Unlock()

	for _, st := range statuses {
		if err := s.statusRepo.Upsert(ctx, st); err != nil {
			s.opts.Logger.Warn("failed to persist source status", "source", st.SourceID, "error", err)
		}
	}

	s.opts.Logger.Info("refresh cycle completed",
		"cycle", cycleID,
		"categories", len(view.Categories),
		"appended", appended,
		"duration", s.opts.Now().Sub(attemptedAt),
	)

	if len(inconsistencies) > 0 {
		return view, errors.Join(inconsistencies...)
	}
	return view, nil
}

// fetchAll fetches every adapter concurrently, each bounded by the configured timeout.
func (s *AggregatorService) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(s.adapters))

	var g errgroup.Group
	for i, a := range s.adapters {
		i, a := i, a
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
			defer cancel()

			snap, err := a.Fetch(fctx)
			if err != nil && !errors.Is(err, apperrors.ErrSourceUnavailable) {
				err = apperrors.NewSourceError(a.ID(), err)
			}
			if err == nil && snap.Categories == nil {
				snap.Categories = make(map[string][]model.ProductQuote)
			}
			results[i] = fetchResult{snapshot: snap, err: err}
			return nil
		})
	}
	_ = g.Wait() // failures are carried per adapter

	for i, a := range s.adapters {
		if results[i].err != nil {
			s.opts.Logger.Warn("source fetch failed", "source", a.ID(), "error", results[i].err)
		}
	}
	return results
}

// foldCycle appends the successful snapshots inside one transaction, in
// adapter registration order.
func (s *AggregatorService) foldCycle(ctx context.Context, results []fetchResult) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	history := s.historyRepo.WithTx(tx)
	total := 0
	for i, a := range s.adapters {
		if results[i].err != nil {
			continue
		}
		n, err := s.fold(ctx, history, a.ID(), results[i].snapshot)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

// fold appends one point per product whose price changed or that has no history.
// Categories are visited in canonical order, products in snapshot order.
func (s *AggregatorService) fold(ctx context.Context, history *repository.HistoryRepository, sourceID string, snap model.Snapshot) (int, error) {
	appended := 0
	for _, cat := range s.normalizer.Normalize(snap.CategoryKeys()) {
		for _, q := range snap.Categories[cat] {
			key := model.ProductKey{Source: sourceID, Category: cat, Product: q.Product}

			last, ok, err := history.LastPoint(ctx, key)
			if err != nil {
				return appended, err
			}
			if ok && last.Price == q.Price {
				continue
			}

			err = history.Append(ctx, key, model.HistoryPoint{Timestamp: snap.FetchedAt, Price: q.Price})
			if errors.Is(err, apperrors.ErrOutOfOrderInsert) {
				s.opts.Logger.Warn("dropping out-of-order point", "error", err)
				continue
			}
			if err != nil {
				return appended, err
			}
			appended++
		}
	}
	return appended, nil
}

// validateSnapshot rejects snapshots that cannot be folded: foreign source IDs,
// empty category keys, empty product names and products listed twice in a category.
func validateSnapshot(sourceID string, snap model.Snapshot) error {
	if snap.SourceID != "" && snap.SourceID != sourceID {
		return fmt.Errorf("%w: adapter %s returned snapshot for %s", apperrors.ErrDataInconsistency, sourceID, snap.SourceID)
	}
	if snap.FetchedAt.IsZero() {
		return fmt.Errorf("%w: %s snapshot has no timestamp", apperrors.ErrDataInconsistency, sourceID)
	}
	for cat, quotes := range snap.Categories {
		if cat == "" {
			return fmt.Errorf("%w: %s snapshot has an empty category key", apperrors.ErrDataInconsistency, sourceID)
		}
		seen := make(map[string]bool, len(quotes))
		for _, q := range quotes {
			if q.Product == "" {
				return fmt.Errorf("%w: %s/%s has a quote without product name", apperrors.ErrDataInconsistency, sourceID, cat)
			}
			if seen[q.Product] {
				return fmt.Errorf("%w: %s/%s lists %q twice", apperrors.ErrDataInconsistency, sourceID, cat, q.Product)
			}
			seen[q.Product] = true
		}
	}
	return nil
}

// recordResult updates the in-memory snapshot and status of one source. Callers hold s.mu.
func (s *AggregatorService) recordResult(sourceID string, r fetchResult, attemptedAt time.Time) {
	prev := s.statuses[sourceID]

	if r.err == nil {
		s.latest[sourceID] = r.snapshot
		s.statuses[sourceID] = model.SourceStatus{
			SourceID:    sourceID,
			Status:      model.SourceStatusOK,
			FetchedAt:   attemptedAt,
			AttemptedAt: attemptedAt,
		}
		return
	}

	status := model.SourceStatusError
	if _, ok := s.latest[sourceID]; ok {
		status = model.SourceStatusStale
	}
	s.statuses[sourceID] = model.SourceStatus{
		SourceID:    sourceID,
		Status:      status,
		FetchedAt:   prev.FetchedAt,
		AttemptedAt: attemptedAt,
		Error:       r.err.Error(),
	}
}

// View returns the consolidated view of the latest snapshot of every source.
// Before the first refresh it lists no categories.
func (s *AggregatorService) View() model.AggregateView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewLocked()
}

func (s *AggregatorService) viewLocked() model.AggregateView {
	view := model.AggregateView{
		CycleID:           s.cycleID,
		CurrentByCategory: make(map[string][]model.ProductQuote),
		CategorySources:   make(map[string][]string),
		Sources:           make([]model.SourceStatus, 0, len(s.adapters)),
		Appended:          s.appended,
	}

	var keys []string
	for _, a := range s.adapters {
		id := a.ID()
		if st, ok := s.statuses[id]; ok {
			view.Sources = append(view.Sources, st)
		}

		snap, ok := s.latest[id]
		if !ok {
			continue
		}
		for _, cat := range s.normalizer.Normalize(snap.CategoryKeys()) {
			keys = append(keys, cat)
			view.CurrentByCategory[cat] = append(view.CurrentByCategory[cat], snap.Categories[cat]...)
			view.CategorySources[cat] = append(view.CategorySources[cat], id)
		}
	}
	view.Categories = s.normalizer.Normalize(keys)

	view.DefaultSelection = s.selected
	if view.DefaultSelection == nil {
		view.DefaultSelection = firstSelection(view)
	}
	return view
}

// firstSelection picks the first product of the first canonical category that has one.
func firstSelection(view model.AggregateView) *model.Selection {
	for _, cat := range view.Categories {
		if quotes := view.CurrentByCategory[cat]; len(quotes) > 0 {
			return &model.Selection{Category: cat, Product: quotes[0].Product}
		}
	}
	return nil
}

// Statuses returns the status of every source that has been attempted, in registration order.
func (s *AggregatorService) Statuses() []model.SourceStatus {
	return s.View().Sources
}

// RestoreStatuses loads persisted source statuses so fetch times survive a restart.
// Restored sources have no snapshot in memory, so a failing source is reported
// as error rather than stale until it succeeds once.
func (s *AggregatorService) RestoreStatuses(ctx context.Context) error {
	stored, err := s.statusRepo.GetAll(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range stored {
		if !s.registered(st.SourceID) {
			continue
		}
		if _, ok := s.statuses[st.SourceID]; !ok {
			s.statuses[st.SourceID] = st
		}
	}
	return nil
}

func (s *AggregatorService) registered(sourceID string) bool {
	for _, a := range s.adapters {
		if a.ID() == sourceID {
			return true
		}
	}
	return false
}

// Seed records the dated history of every adapter that provides one. Every dated
// observation is stored at its own timestamp, including unchanged prices and dates
// earlier than the latest stored point, so observations added to a document after
// the fact are backfilled. Observations already in the store are skipped.
// Returns the number of points recorded.
func (s *AggregatorService) Seed(ctx context.Context) (int, error) {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	var errs []error
	total := 0
	for _, a := range s.adapters {
		provider, ok := a.(source.HistoryProvider)
		if !ok {
			continue
		}

		snaps, err := provider.History(ctx)
		if err != nil {
			if source.IsMissingDocument(err) {
				s.opts.Logger.Info("no history to seed", "source", a.ID())
				continue
			}
			errs = append(errs, err)
			continue
		}

		n, err := s.seedSource(ctx, a.ID(), snaps)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		total += n
		s.opts.Logger.Info("seeded history", "source", a.ID(), "snapshots", len(snaps), "appended", n)
	}

	return total, errors.Join(errs...)
}

func (s *AggregatorService) seedSource(ctx context.Context, sourceID string, snaps []model.Snapshot) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	history := s.historyRepo.WithTx(tx)
	total := 0
	for _, snap := range snaps {
		if err := validateSnapshot(sourceID, snap); err != nil {
			s.opts.Logger.Warn("skipping inconsistent history snapshot", "source", sourceID, "error", err)
			continue
		}
		n, err := backfill(ctx, history, sourceID, snap)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return total, nil
}

// backfill stores every quote of a dated snapshot at the snapshot's timestamp.
func backfill(ctx context.Context, history *repository.HistoryRepository, sourceID string, snap model.Snapshot) (int, error) {
	recorded := 0
	for cat, quotes := range snap.Categories {
		for _, q := range quotes {
			key := model.ProductKey{Source: sourceID, Category: cat, Product: q.Product}
			inserted, err := history.Backfill(ctx, key, model.HistoryPoint{Timestamp: snap.FetchedAt, Price: q.Price})
			if err != nil {
				return recorded, err
			}
			if inserted {
				recorded++
			}
		}
	}
	return recorded, nil
}

// Query returns the statistics of the trailing windowSize points of key.
// Unknown products and windowSize <= 0 yield zero Stats without error.
func (s *AggregatorService) Query(ctx context.Context, key model.ProductKey, windowSize int) (model.Stats, error) {
	w, err := s.Trend(ctx, key, windowSize)
	if err != nil {
		return model.Stats{}, err
	}
	return trend.Compute(w), nil
}

// Trend returns the trailing windowSize points of key in chronological order.
func (s *AggregatorService) Trend(ctx context.Context, key model.ProductKey, windowSize int) (model.ProductHistory, error) {
	h, err := s.historyRepo.History(ctx, key)
	if err != nil {
		return nil, err
	}
	return trend.Window(h, windowSize), nil
}

// BoardView returns the current quotes and full stored history of one source.
//
// Returns apperrors.ErrUnknownSource for unregistered sources and
// apperrors.ErrNoSnapshot when the source has neither a snapshot nor history.
func (s *AggregatorService) BoardView(ctx context.Context, sourceID string) (model.BoardView, error) {
	if !s.registered(sourceID) {
		return model.BoardView{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownSource, sourceID)
	}

	s.mu.RLock()
	snap, hasSnap := s.latest[sourceID]
	status := s.statuses[sourceID]
	s.mu.RUnlock()

	series, err := s.historyRepo.Series(ctx, sourceID)
	if err != nil {
		return model.BoardView{}, err
	}
	stamps, err := s.historyRepo.Observations(ctx, sourceID)
	if err != nil {
		return model.BoardView{}, err
	}

	if !hasSnap && len(series) == 0 {
		return model.BoardView{}, fmt.Errorf("%w: %s", apperrors.ErrNoSnapshot, sourceID)
	}

	view := model.BoardView{
		SourceID:  sourceID,
		Current:   make(map[string][]model.ProductQuote),
		Trends:    make(map[string]map[string]model.ProductHistory),
		TotalDays: len(stamps),
		Stale:     !hasSnap || status.Status != model.SourceStatusOK,
		FetchedAt: status.FetchedAt,
	}
	if hasSnap {
		view.Current = snap.Categories
	}

	for _, sr := range series {
		products, ok := view.Trends[sr.Key.Category]
		if !ok {
			products = make(map[string]model.ProductHistory)
			view.Trends[sr.Key.Category] = products
		}
		products[sr.Key.Product] = sr.Points
	}

	if len(stamps) > 0 {
		first, err := repository.ParseTime(stamps[0])
		if err != nil {
			return model.BoardView{}, err
		}
		last, err := repository.ParseTime(stamps[len(stamps)-1])
		if err != nil {
			return model.BoardView{}, err
		}
		view.DateRange = fmt.Sprintf("%s ~ %s",
			first.In(s.opts.Location).Format(source.BoardTimeLayout),
			last.In(s.opts.Location).Format(source.BoardTimeLayout))
	}

	return view, nil
}
