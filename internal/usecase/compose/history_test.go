package compose

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autobloom/internal/domain/entity"
)

func TestHistory_PostedToday(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	h := newHistory(path, func() time.Time { return now })

	assert.False(t, h.PostedToday())

	require.NoError(t, h.MarkPosted("Collagen Serum"))
	assert.True(t, h.PostedToday())

	// Reload resumes the same state.
	reloaded := newHistory(path, func() time.Time { return now })
	assert.True(t, reloaded.PostedToday())
	assert.Equal(t, now.Format(time.RFC3339), reloaded.LastPosted("Collagen Serum").Format(time.RFC3339))

	// The guard resets on the next day.
	nextDay := newHistory(path, func() time.Time { return now.Add(24 * time.Hour) })
	assert.False(t, nextDay.PostedToday())
}

func TestHistory_CorruptSnapshotStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	h := NewHistory(path)
	assert.False(t, h.PostedToday())
	require.NoError(t, h.MarkPosted("Serum"))
}

func TestSelectProduct_TrendMatch(t *testing.T) {
	h := newHistory(filepath.Join(t.TempDir(), "history.json"), time.Now)
	products := []entity.Product{
		{Name: "Vitamin C Serum", Keywords: []string{"brightening"}},
		{Name: "Collagen Drink", Keywords: []string{"collagen", "firmness"}},
	}
	topic := &entity.HotTopic{Topic: "Collagen trends", Keywords: []string{"collagen"}}

	selected, err := h.SelectProduct(products, topic)
	require.NoError(t, err)
	assert.Equal(t, "Collagen Drink", selected.Name)
}

func TestSelectProduct_RotatesLeastRecentlyUsed(t *testing.T) {
	now := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	h := newHistory(filepath.Join(t.TempDir(), "history.json"), func() time.Time { return now })
	products := []entity.Product{
		{Name: "Vitamin C Serum"},
		{Name: "Collagen Drink"},
	}

	require.NoError(t, h.MarkPosted("Vitamin C Serum"))

	// No topic match: the never-posted product wins.
	selected, err := h.SelectProduct(products, &entity.HotTopic{Keywords: []string{"sunscreen"}})
	require.NoError(t, err)
	assert.Equal(t, "Collagen Drink", selected.Name)
}

func TestSelectProduct_Empty(t *testing.T) {
	h := newHistory(filepath.Join(t.TempDir(), "history.json"), time.Now)
	_, err := h.SelectProduct(nil, nil)
	assert.Error(t, err)
}
