package services

import (
	"context"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

// TextGenerator is the contract consumed from the AI text service. Structured
// calls return schema-validated payloads; a malformed or missing response is a
// hard failure of that call. No call is retried.
type TextGenerator interface {
	GenerateMatch(ctx context.Context, profile domain.UserProfile) (*domain.MatchedUser, error)
	GenerateCoachGuidance(ctx context.Context, profile domain.UserProfile, partner domain.MatchedUser) (*domain.AiCoachResponse, error)
	RewriteForEmpathy(ctx context.Context, text string) (string, error)
	GenerateSummary(ctx context.Context, profile domain.UserProfile, partner domain.MatchedUser) (*domain.SessionSummary, error)
}
