package retrieval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		minLength int
		expected  []string
	}{
		{
			name:      "drops short words",
			query:     "What did I do in Boston",
			minLength: 2,
			expected:  []string{"what", "did", "boston"},
		},
		{
			name:      "lowercases and deduplicates",
			query:     "Boston BOSTON boston",
			minLength: 2,
			expected:  []string{"boston"},
		},
		{
			name:      "splits on punctuation",
			query:     "coffee-shop, meeting!",
			minLength: 2,
			expected:  []string{"coffee", "shop", "meeting"},
		},
		{
			name:      "empty query",
			query:     "",
			minLength: 2,
			expected:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Tokenize(tt.query, tt.minLength))
		})
	}
}

func TestDetectPersonal(t *testing.T) {
	assert.True(t, DetectPersonal("What did I do last week?"))
	assert.True(t, DetectPersonal("remind me about the dentist"))
	assert.True(t, DetectPersonal("My trip to Boston"))
	assert.False(t, DetectPersonal("History of Boston"))
	assert.False(t, DetectPersonal("coffee shops near the office"))
	assert.False(t, DetectPersonal(""))
}

func TestMatchScore(t *testing.T) {
	// Exact token match counts double, substring single, normalized by 2n
	terms := []string{"boston", "trip"}

	assert.Equal(t, 1.0, matchScore(terms, "my trip to Boston"))
	assert.Equal(t, 0.5, matchScore([]string{"boston"}, "bostonian history"))
	assert.Equal(t, 0.0, matchScore(terms, "nothing relevant"))
	assert.Equal(t, 0.0, matchScore(nil, "any text"))
	assert.Equal(t, 0.0, matchScore(terms, ""))
}

func TestMatchScore_PartialOverlap(t *testing.T) {
	// One exact match out of two terms: 2 / (2*2)
	score := matchScore([]string{"boston", "dentist"}, "flew into Boston")
	assert.InDelta(t, 0.5, score, 1e-9)
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()
	window := 30 * 24 * time.Hour

	assert.Equal(t, 1.0, recencyScore(now, window, now))
	assert.Equal(t, 1.0, recencyScore(now.Add(time.Hour), window, now))
	assert.Equal(t, 0.0, recencyScore(now.Add(-window), window, now))
	assert.Equal(t, 0.0, recencyScore(now.Add(-2*window), window, now))
	assert.Equal(t, 0.0, recencyScore(time.Time{}, window, now))
	assert.Equal(t, 0.0, recencyScore(now, 0, now))

	halfway := recencyScore(now.Add(-window/2), window, now)
	assert.InDelta(t, 0.5, halfway, 1e-9)
}

func TestBlend(t *testing.T) {
	cfg := Configuration{RelevanceWeight: 0.7, RecencyWeight: 0.3}

	assert.InDelta(t, 1.0, blend(1, 1, cfg), 1e-9)
	assert.InDelta(t, 0.7, blend(1, 0, cfg), 1e-9)
	assert.InDelta(t, 0.3, blend(0, 1, cfg), 1e-9)
	assert.Equal(t, 0.0, blend(0, 0, cfg))

	// Weights exceeding 1 in sum still clip at 1
	heavy := Configuration{RelevanceWeight: 1, RecencyWeight: 1}
	assert.Equal(t, 1.0, blend(1, 1, heavy))
}

func TestRankAbove(t *testing.T) {
	candidates := []scored[string]{
		{"low", 0.1},
		{"high", 0.9},
		{"mid", 0.5},
		{"cutoff", 0.3},
	}

	ranked := rankAbove(candidates, 0.3)

	assert.Equal(t, []string{"high", "mid", "cutoff"}, ranked)
}

func TestRankAbove_StableOnTies(t *testing.T) {
	candidates := []scored[string]{
		{"first", 0.5},
		{"second", 0.5},
		{"third", 0.5},
	}

	ranked := rankAbove(candidates, 0)

	assert.Equal(t, []string{"first", "second", "third"}, ranked)
}

func TestConfigurationNormalized(t *testing.T) {
	cfg := Configuration{MaxResults: 0}
	assert.Equal(t, DefaultConfiguration().MaxResults, cfg.normalized().MaxResults)

	cfg = Configuration{MaxResults: 7}
	assert.Equal(t, 7, cfg.normalized().MaxResults)
}
