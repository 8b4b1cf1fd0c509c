package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRecommendationPrompt(t *testing.T) {
	prompt := formatRecommendationPrompt([]string{"Dune"}, nil)

	assert.Contains(t, prompt, "cart:\n- Dune\n")
	assert.Contains(t, prompt, "wishlist:\n- (none)\n")
}

func TestRecommend_Disabled(t *testing.T) {
	out := NewRecommender(Config{}).Recommend(context.Background(), []string{"Dune"}, []string{})

	assert.False(t, out.AIEnabled)
	assert.Empty(t, out.Suggestions)
	assert.Equal(t, []string{"Dune"}, out.CartTitles)
}
