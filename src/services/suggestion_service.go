package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/username/investview/backend/src/config"
	"github.com/username/investview/backend/src/logger"
	"github.com/username/investview/backend/src/models"
)

var ErrSuggestionsUnavailable = errors.New("suggestion service is not configured")

const suggestionSystemPrompt = `You are an investment analysis assistant.
You receive a plain-text summary of a stock portfolio: the current holdings
with quantities and average purchase prices, plus the realized profit so far.
Give practical, concise observations about diversification, concentration risk
and notable positions. Do not give personalised financial advice and do not
recommend specific trades. Answer in short paragraphs, no markdown tables.`

type geminiSuggestionService struct {
	client *genai.Client
}

// NewSuggestionService wraps a genai client. A nil client is accepted and
// turns every call into ErrSuggestionsUnavailable, so callers need no
// key-presence checks of their own.
func NewSuggestionService(client *genai.Client) SuggestionService {
	return &geminiSuggestionService{client: client}
}

func (s *geminiSuggestionService) ProvideSuggestions(ctx context.Context, portfolioData string) (string, error) {
	if s.client == nil {
		return "", ErrSuggestionsUnavailable
	}

	chatConfig := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: suggestionSystemPrompt}}},
	}

	chat, err := s.client.Chats.Create(ctx, config.Cfg.GeminiModel, chatConfig, nil)
	if err != nil {
		return "", fmt.Errorf("error creating suggestion chat: %w", err)
	}

	resp, err := chat.Send(ctx, &genai.Part{Text: "Portfolio Data:\n" + portfolioData})
	if err != nil {
		return "", fmt.Errorf("error requesting suggestions: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from suggestion model")
	}

	logger.L.Info("Suggestions generated", "model", config.Cfg.GeminiModel)
	return resp.Candidates[0].Content.Parts[0].Text, nil
}

// PortfolioSummary flattens a parse result into the plain-text form the
// suggestion prompt expects.
func PortfolioSummary(result *models.ParseResult) string {
	var b strings.Builder
	b.WriteString("Holdings:\n")
	if len(result.Assets) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, asset := range result.Assets {
		fmt.Fprintf(&b, "  %s (%s): %.4f units at average price %.2f, current price %.2f\n",
			asset.Asset, asset.AssetType, asset.Quantity, asset.PurchasePrice, asset.CurrentPrice)
	}
	fmt.Fprintf(&b, "Realized profit: %.2f\n", result.RealizedProfit)
	return b.String()
}
