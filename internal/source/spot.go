package source

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ndewijer/Memory-Price-Dashboard-Backend/internal/model"
)

// Spot categories, one per DRAM generation.
var spotGenerations = []string{"DDR5", "DDR4", "DDR3"}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// SpotAdapter scrapes the global DRAM spot-exchange price table.
//
// Each table row is product, daily high, daily low, session high, session low,
// session average, session change. Rows whose product names no known
// generation are ignored.
type SpotAdapter struct {
	url    string
	client *resty.Client
	opts   Options
}

// NewSpotAdapter creates a SpotAdapter reading the page at url.
func NewSpotAdapter(url string, opts Options) *SpotAdapter {
	opts = opts.withDefaults()
	return &SpotAdapter{
		url:    url,
		client: newHTTPClient(opts.Timeout),
		opts:   opts,
	}
}

// ID returns model.SourceSpot.
func (a *SpotAdapter) ID() string {
	return model.SourceSpot
}

// Fetch downloads and parses the spot price table.
func (a *SpotAdapter) Fetch(ctx context.Context) (model.Snapshot, error) {
	body, err := get(ctx, a.client, a.url)
	if err != nil {
		return model.Snapshot{}, unavailable(a.ID(), err)
	}

	snap, err := ParseSpotTable(body, a.opts.Now())
	if err != nil {
		return model.Snapshot{}, unavailable(a.ID(), err)
	}

	a.opts.Logger.Debug("parsed spot table", "products", snap.ProductCount())
	return snap, nil
}

// ParseSpotTable extracts spot quotes from an HTML document. A document without
// matching rows yields an empty snapshot.
func ParseSpotTable(body []byte, fetchedAt time.Time) (model.Snapshot, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse spot page: %w", err)
	}

	snap := model.NewSnapshot(model.SourceSpot, fetchedAt)
	seen := make(map[string]bool)

	walk(doc, func(row *html.Node) {
		if row.Type != html.ElementNode || row.DataAtom != atom.Tr {
			return
		}

		cells := rowCells(row)
		if len(cells) < 3 {
			return
		}

		product := cells[0]
		category := spotCategory(product)
		if category == "" || seen[category+"\x00"+product] {
			return
		}

		quote, ok := spotQuote(product, cells)
		if !ok {
			return
		}
		seen[category+"\x00"+product] = true
		snap.Categories[category] = append(snap.Categories[category], quote)
	})

	return snap, nil
}

func spotCategory(product string) string {
	for _, gen := range spotGenerations {
		if strings.Contains(product, gen) {
			return gen
		}
	}
	return ""
}

func spotQuote(product string, cells []string) (model.ProductQuote, bool) {
	session := &model.Session{
		DailyHigh:      cellNumber(cells, 1),
		DailyLow:       cellNumber(cells, 2),
		SessionHigh:    cellNumber(cells, 3),
		SessionLow:     cellNumber(cells, 4),
		SessionAverage: cellNumber(cells, 5),
		SessionChange:  "N/A",
	}
	if len(cells) > 6 && cells[6] != "" {
		session.SessionChange = cells[6]
	}

	price := session.SessionAverage
	if price == 0 {
		// Thin sessions publish no average; fall back to the daily midpoint.
		price = decimal.NewFromFloat(session.DailyHigh).
			Add(decimal.NewFromFloat(session.DailyLow)).
			Div(decimal.NewFromInt(2)).
			InexactFloat64()
	}
	if price == 0 {
		return model.ProductQuote{}, false
	}

	return model.ProductQuote{
		Product:      product,
		Price:        price,
		DisplayPrice: FormatUSD(price),
		Session:      session,
	}, true
}

// cellNumber parses the numeric content of cells[i], ignoring currency signs,
// separators and arrows. Missing or unparsable cells are 0.
func cellNumber(cells []string, i int) float64 {
	if i >= len(cells) {
		return 0
	}
	d, err := decimal.NewFromString(nonNumeric.ReplaceAllString(cells[i], ""))
	if err != nil {
		return 0
	}
	return d.InexactFloat64()
}

func rowCells(row *html.Node) []string {
	var cells []string
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			cells = append(cells, nodeText(c))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(d *html.Node) {
		if d.Type == html.TextNode {
			sb.WriteString(d.Data)
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

// walk visits n and its descendants in document order.
func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}
