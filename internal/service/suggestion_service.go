package service

import (
	"context"

	"github.com/eaglebank/ai-engine/internal/cqrs"
	"github.com/eaglebank/ai-engine/internal/models"
	log "github.com/sirupsen/logrus"
)

// SuggestionService answers free-text prompts. There is no model behind it
// yet; every prompt gets an empty suggestion.
type SuggestionService struct{}

func NewSuggestionService() *SuggestionService {
	return &SuggestionService{}
}

func (s *SuggestionService) Suggest(ctx context.Context, q cqrs.SuggestQuery) (*models.Suggestion, error) {
	log.WithField("prompt_length", len(q.Prompt)).Debug("Suggestion requested")
	return &models.Suggestion{Suggestion: ""}, nil
}
