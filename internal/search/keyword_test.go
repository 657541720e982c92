package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeQuery(t *testing.T) {
	cases := map[string]string{
		"":                     "",
		"  Backend   Engineer ": "backend engineer",
		"C++/Go developer!":    "c go developer",
		"Senior—Rust":          "senior rust",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeQuery(in), "input %q", in)
	}
}

func TestTokenize_DropsStopWordsAndDuplicates(t *testing.T) {
	assert.Equal(t, []string{"head", "engineering"}, Tokenize("Head of the Engineering, head"))
	assert.Empty(t, Tokenize("the of and"))
}

func TestMatchesAll(t *testing.T) {
	title := "Senior Backend Engineer (Go, gRPC)"

	assert.True(t, MatchesAll(title, "backend engineer"))
	assert.True(t, MatchesAll(title, "GRPC"))
	assert.True(t, MatchesAll(title, "engineer of backend"))
	assert.False(t, MatchesAll(title, "frontend engineer"))
	assert.False(t, MatchesAll(title, "the"))
	assert.False(t, MatchesAll("", "go"))
}
