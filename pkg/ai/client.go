package ai

import (
	"context"
	"log"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// Config holds the Azure OpenAI settings. The service is disabled when
// Endpoint or APIKey is empty.
type Config struct {
	Endpoint   string
	APIKey     string
	Deployment string
}

// Recommender generates reading suggestions. A zero-value Recommender is
// valid and disabled.
type Recommender struct {
	client     *openai.Client
	deployment string
}

func NewRecommender(cfg Config) *Recommender {
	if cfg.Endpoint == "" || cfg.APIKey == "" {
		log.Println("AI service disabled - Azure OpenAI credentials not provided")
		return &Recommender{}
	}

	clientValue := openai.NewClient(
		option.WithBaseURL(cfg.Endpoint),
		option.WithAPIKey(cfg.APIKey),
	)
	deployment := cfg.Deployment
	if deployment == "" {
		deployment = "gpt-35-turbo" // Default deployment name
	}

	log.Println("AI service initialized with Azure OpenAI")
	return &Recommender{client: &clientValue, deployment: deployment}
}

// IsEnabled returns whether the AI service is properly initialized
func (r *Recommender) IsEnabled() bool {
	return r != nil && r.client != nil
}

// Recommendations is the response for a recommendation request.
type Recommendations struct {
	CartTitles     []string  `json:"cart_titles"`
	WishlistTitles []string  `json:"wishlist_titles"`
	Suggestions    string    `json:"suggestions,omitempty"`
	Error          string    `json:"error,omitempty"`
	AIEnabled      bool      `json:"ai_enabled"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// Recommend asks the model for suggestions. When the service is disabled or
// the model call fails, the titles are still returned and Error explains why
// Suggestions is empty.
func (r *Recommender) Recommend(ctx context.Context, cartTitles, wishlistTitles []string) *Recommendations {
	out := &Recommendations{
		CartTitles:     cartTitles,
		WishlistTitles: wishlistTitles,
		AIEnabled:      r.IsEnabled(),
		GeneratedAt:    time.Now().UTC(),
	}
	if !out.AIEnabled {
		return out
	}
	if len(cartTitles) == 0 && len(wishlistTitles) == 0 {
		out.Error = "add books to your cart or wishlist to get recommendations"
		return out
	}

	suggestions, err := r.generateCompletion(ctx, RecommendationSystemPrompt, formatRecommendationPrompt(cartTitles, wishlistTitles))
	if err != nil {
		out.Error = "AI analysis failed: " + err.Error()
		return out
	}
	out.Suggestions = suggestions
	return out
}

// generateCompletion is a helper function to generate AI completions
func (r *Recommender) generateCompletion(ctx context.Context, systemMessage, userMessage string) (string, error) {
	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.deployment),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(systemMessage),
					},
				},
			},
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(userMessage),
					},
				},
			},
		},
		MaxTokens:   openai.Int(600),
		Temperature: openai.Float(0.7),
	})
	if err != nil {
		log.Printf("AI API Error: %v", err)
		return "", &AIError{Message: "Failed to generate AI response", Cause: err}
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", &AIError{Message: "AI returned empty response"}
	}

	return resp.Choices[0].Message.Content, nil
}

// AIError represents an AI service error
type AIError struct {
	Message string
	Cause   error
}

func (e *AIError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AIError) Unwrap() error {
	return e.Cause
}
