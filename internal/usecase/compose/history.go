package compose

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"autobloom/internal/domain/entity"
)

// lastPostKey tracks the most recent publish date across all products.
const lastPostKey = "__last_post_date__"

// History guards against over-posting and rotates products fairly. It
// records, per product, when an article about it was last published, and
// globally the last date anything was published at all. State is a JSON
// snapshot rewritten after every update.
type History struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]string
}

// NewHistory loads the history snapshot. A missing or corrupt file starts
// an empty history.
func NewHistory(path string) *History {
	return newHistory(path, time.Now)
}

func newHistory(path string, now func() time.Time) *History {
	h := &History{
		path:    path,
		now:     now,
		entries: map[string]string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("failed to read post history, starting empty",
				slog.String("path", path),
				slog.Any("error", err))
		}
		return h
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		slog.Warn("corrupt post history, starting empty",
			slog.String("path", path),
			slog.Any("error", err))
		h.entries = map[string]string{}
	}
	return h
}

// PostedToday reports whether anything was already published today.
func (h *History) PostedToday() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[lastPostKey] == h.now().Format("2006-01-02")
}

// MarkPosted records a publish for the given product and stamps today as
// the last post date.
func (h *History) MarkPosted(productName string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	h.entries[lastPostKey] = now.Format("2006-01-02")
	h.entries[productName] = now.Format(time.RFC3339)
	return h.persist()
}

// LastPosted returns when the product was last written about. The zero
// time means never.
func (h *History) LastPosted(productName string) time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, err := time.Parse(time.RFC3339, h.entries[productName])
	if err != nil {
		return time.Time{}
	}
	return t
}

// SelectProduct picks the product to write about. A product whose name or
// keywords match the trending topic's keywords wins; otherwise the least
// recently used product rotates in so the catalog gets even coverage.
func (h *History) SelectProduct(products []entity.Product, topic *entity.HotTopic) (entity.Product, error) {
	if len(products) == 0 {
		return entity.Product{}, fmt.Errorf("no products to select from")
	}

	if topic != nil {
		best := -1
		bestScore := 0
		for i, p := range products {
			score := trendMatchScore(p, topic.Keywords)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
		if best >= 0 {
			slog.Info("product matched to trending topic",
				slog.String("product", products[best].Name),
				slog.String("topic", topic.Topic),
				slog.Int("score", bestScore))
			return products[best], nil
		}
	}

	// No trend match: least recently used wins.
	selected := products[0]
	oldest := h.LastPosted(selected.Name)
	for _, p := range products[1:] {
		last := h.LastPosted(p.Name)
		if last.Before(oldest) {
			oldest = last
			selected = p
		}
	}
	slog.Info("rotating to least recently used product",
		slog.String("product", selected.Name))
	return selected, nil
}

func trendMatchScore(p entity.Product, keywords []string) int {
	name := strings.ToLower(p.Name)
	score := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(name, kw) {
			score += 2
		}
		for _, pk := range p.Keywords {
			if strings.EqualFold(strings.TrimSpace(pk), kw) {
				score++
			}
		}
	}
	return score
}

// persist rewrites the snapshot. Caller holds the mutex.
func (h *History) persist() error {
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal post history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o600); err != nil {
		return fmt.Errorf("write post history: %w", err)
	}
	return nil
}
