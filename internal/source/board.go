package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// BoardTimeLayout is the layout of the observation keys in the board document.
const BoardTimeLayout = "2006-01-02 15:04"

// boardDocument is the JSON document written by the ingestion pipeline.
type boardDocument struct {
	PriceData    map[string][]boardItem            `json:"price_data"`
	PriceHistory map[string]map[string][]boardItem `json:"price_history"`
}

type boardItem struct {
	Product        string  `json:"product"`
	Price          float64 `json:"price"`
	PriceFormatted string  `json:"price_formatted"`
}

// BoardAdapter reads the domestic community price board document.
//
// The location is an http(s) URL, a file path, or a glob; for a glob the
// lexically last match is used, so timestamped backups resolve to the newest one.
type BoardAdapter struct {
	location string
	client   *resty.Client
	opts     Options
}

// NewBoardAdapter creates a BoardAdapter for the document at location.
func NewBoardAdapter(location string, opts Options) *BoardAdapter {
	opts = opts.withDefaults()
	return &BoardAdapter{
		location: location,
		client:   newHTTPClient(opts.Timeout),
		opts:     opts,
	}
}

// ID returns model.SourceBoard.
func (a *BoardAdapter) ID() string {
	return model.SourceBoard
}

// Raw returns the document bytes exactly as stored upstream together with the
// resolved file name (or URL).
func (a *BoardAdapter) Raw(ctx context.Context) ([]byte, string, error) {
	if isRemote(a.location) {
		body, err := get(ctx, a.client, a.location)
		if err != nil {
			return nil, "", unavailable(a.ID(), err)
		}
		return body, a.location, nil
	}

	path, err := a.resolve()
	if err != nil {
		return nil, "", unavailable(a.ID(), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", unavailable(a.ID(), err)
	}
	return data, path, nil
}

func (a *BoardAdapter) resolve() (string, error) {
	if !strings.ContainsAny(a.location, "*?[") {
		return a.location, nil
	}

	matches, err := filepath.Glob(a.location)
	if err != nil {
		return "", fmt.Errorf("invalid board location %q: %w", a.location, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no board document matches %q: %w", a.location, os.ErrNotExist)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

func (a *BoardAdapter) load(ctx context.Context) (boardDocument, error) {
	data, _, err := a.Raw(ctx)
	if err != nil {
		return boardDocument{}, err
	}

	var doc boardDocument
	if len(strings.TrimSpace(string(data))) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return boardDocument{}, unavailable(a.ID(), fmt.Errorf("failed to decode board document: %w", err))
	}
	return doc, nil
}

// Fetch returns the board's current prices. The snapshot is stamped with the
// newest observation key of the document, or the fetch time when the document
// carries no history.
func (a *BoardAdapter) Fetch(ctx context.Context) (model.Snapshot, error) {
	doc, err := a.load(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	observedAt := a.opts.Now()
	keys := sortedKeys(doc.PriceHistory)
	if len(keys) > 0 {
		t, err := time.ParseInLocation(BoardTimeLayout, keys[len(keys)-1], a.opts.Location)
		if err != nil {
			return model.Snapshot{}, unavailable(a.ID(), fmt.Errorf("invalid observation key %q: %w", keys[len(keys)-1], err))
		}
		observedAt = t
	}

	return a.snapshot(observedAt, doc.PriceData), nil
}

// History returns one snapshot per dated observation in the document, oldest first.
func (a *BoardAdapter) History(ctx context.Context) ([]model.Snapshot, error) {
	doc, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	keys := sortedKeys(doc.PriceHistory)
	snapshots := make([]model.Snapshot, 0, len(keys))
	for _, key := range keys {
		t, err := time.ParseInLocation(BoardTimeLayout, key, a.opts.Location)
		if err != nil {
			a.opts.Logger.Warn("skipping board observation with invalid key", "key", key, "error", err)
			continue
		}
		snapshots = append(snapshots, a.snapshot(t, doc.PriceHistory[key]))
	}

	return snapshots, nil
}

func (a *BoardAdapter) snapshot(at time.Time, categories map[string][]boardItem) model.Snapshot {
	snap := model.NewSnapshot(a.ID(), at)
	for category, items := range categories {
		quotes := make([]model.ProductQuote, 0, len(items))
		seen := make(map[string]bool, len(items))
		for _, item := range items {
			if strings.TrimSpace(item.Product) == "" {
				a.opts.Logger.Warn("skipping board item without product name", "category", category, "price", item.Price)
				continue
			}
			if seen[item.Product] {
				continue
			}
			seen[item.Product] = true

			display := item.PriceFormatted
			if display == "" {
				display = FormatKRW(item.Price)
			}
			quotes = append(quotes, model.ProductQuote{
				Product:      item.Product,
				Price:        item.Price,
				DisplayPrice: display,
			})
		}
		snap.Categories[category] = quotes
	}
	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsMissingDocument reports whether err means the board document does not exist yet.
func IsMissingDocument(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
