package compose

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadComplianceRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "allowed_words:\n  - hydrates skin\n  - reduces the appearance of wrinkles\nforbidden_words:\n  - miracle cure\n  - instant whitening\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadComplianceRules(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hydrates skin", "reduces the appearance of wrinkles"}, rules.Allowed)
	assert.Equal(t, []string{"miracle cure", "instant whitening"}, rules.Forbidden)
}

func TestLoadComplianceRules_Missing(t *testing.T) {
	rules, err := LoadComplianceRules(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, rules.Allowed)
	assert.Empty(t, rules.Forbidden)
}

func TestLoadComplianceRules_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allowed_words: [unclosed"), 0o600))

	_, err := LoadComplianceRules(path)
	assert.Error(t, err)
}

func TestForbiddenHits(t *testing.T) {
	rules := &ComplianceRules{Forbidden: []string{"miracle", "instant cure"}}

	hits := rules.ForbiddenHits("This Miracle serum is an INSTANT CURE for acne")
	assert.Equal(t, []string{"miracle", "instant cure"}, hits)

	assert.Empty(t, rules.ForbiddenHits("This serum hydrates skin"))
}

func TestPromptList(t *testing.T) {
	words := []string{"a", "b", "c", "d"}
	assert.Equal(t, "a, b", promptList(words, 2))
	assert.Equal(t, "a, b, c, d", promptList(words, 10))
}
