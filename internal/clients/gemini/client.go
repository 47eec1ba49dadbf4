package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.5-flash"
)

// Client calls the Gemini generateContent API. Structured calls constrain the
// output with a response schema and decode the first candidate; there is no
// retry, a bad payload fails the call.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
	log     *logger.Logger
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		log:     log.With("service", "GeminiClient"),
	}, nil
}

// Response schemas mirror the structured types the prompts ask for.

var matchedUserSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"name":          map[string]any{"type": "string"},
		"country":       map[string]any{"type": "string"},
		"skillToOffer":  map[string]any{"type": "string"},
		"skillToLearn":  map[string]any{"type": "string"},
		"personality":   map[string]any{"type": "string"},
		"learningStyle": map[string]any{"type": "string"},
		"profilePicture": map[string]any{
			"type":        "string",
			"description": "A placeholder image URL from i.pravatar.cc",
		},
	},
	"required": []string{"name", "country", "skillToOffer", "skillToLearn", "personality", "learningStyle", "profilePicture"},
}

var coachSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"microLesson": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":   map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
				"for":     map[string]any{"type": "string", "enum": []string{"user", "partner"}},
			},
			"required": []string{"title", "content", "for"},
		},
		"activity": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":       map[string]any{"type": "string"},
				"description": map[string]any{"type": "string"},
			},
			"required": []string{"title", "description"},
		},
		"cultureBridge": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":   map[string]any{"type": "string"},
				"content": map[string]any{"type": "string"},
			},
			"required": []string{"title", "content"},
		},
	},
	"required": []string{"microLesson", "activity", "cultureBridge"},
}

var summarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"score":    map[string]any{"type": "number"},
		"summary":  map[string]any{"type": "string"},
		"takeaway": map[string]any{"type": "string"},
	},
	"required": []string{"score", "summary", "takeaway"},
}

func (c *Client) GenerateMatch(ctx context.Context, profile domain.UserProfile) (*domain.MatchedUser, error) {
	prompt := fmt.Sprintf(`You are a matchmaking AI for SkillSync, a platform for global skill exchange.
A user offers to teach %q and wants to learn %q.
Create a profile for an ideal learning partner.
- The partner's skill to offer must be what the user wants to learn.
- The partner's skill to learn must be what the user is offering.
- Give them a plausible name, country, personality, and learning style.
- Provide a unique placeholder profile picture URL using i.pravatar.cc, for example: "https://i.pravatar.cc/150?u=some-unique-id".
- Ensure the profile is positive and encouraging.`, profile.SkillToOffer, profile.SkillToLearn)

	var match domain.MatchedUser
	err := c.generateJSON(ctx, prompt, generationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   matchedUserSchema,
		Temperature:      ptr(0.8),
	}, &match)
	if err != nil {
		return nil, err
	}
	if match.Name == "" || match.SkillToOffer == "" || match.SkillToLearn == "" {
		return nil, fmt.Errorf("gemini: match profile is missing required fields")
	}
	return &match, nil
}

func (c *Client) GenerateCoachGuidance(ctx context.Context, profile domain.UserProfile, partner domain.MatchedUser) (*domain.AiCoachResponse, error) {
	prompt := fmt.Sprintf(`You are an AI Coach for a SkillSync session.
User A (the user) can teach %q and wants to learn %q.
User B (the partner, from %s) can teach %q and wants to learn %q.
Their personalities are: User A is learning, User B has a personality of %q.

Generate the next part of their 10-minute session. Provide:
1.  A 'microLesson' for one of the users. Specify who it is for ('user' or 'partner').
2.  An 'activity' for them to do together to practice their new skills.
3.  A 'cultureBridge' note about %s to foster understanding.

Keep the tone friendly, encouraging, and clear. Ensure the content is practical for a short session.`,
		profile.SkillToOffer, profile.SkillToLearn,
		partner.Country, partner.SkillToOffer, partner.SkillToLearn,
		partner.Personality, partner.Country)

	var coach domain.AiCoachResponse
	err := c.generateJSON(ctx, prompt, generationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   coachSchema,
		Temperature:      ptr(0.7),
	}, &coach)
	if err != nil {
		return nil, err
	}
	if coach.MicroLesson.Title == "" || coach.Activity.Title == "" || coach.CultureBridge.Title == "" {
		return nil, fmt.Errorf("gemini: coach guidance is missing required fields")
	}
	return &coach, nil
}

// RewriteForEmpathy returns plain rewritten text. The call is capped tightly
// because the rewrite must stay shorter than a chat message.
func (c *Client) RewriteForEmpathy(ctx context.Context, text string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI Empathy Translator. A user, who might be shy or nervous, wrote the following message: %q.
Rewrite it to sound more polite, confident, encouraging, and clear, while maintaining the original intent. Keep it concise.
Return only the rewritten text, with no extra explanations or labels.`, text)

	out, err := c.generateText(ctx, prompt, generationConfig{
		Temperature:     ptr(0.5),
		MaxOutputTokens: 150,
		ThinkingConfig:  &thinkingConfig{ThinkingBudget: 75},
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *Client) GenerateSummary(ctx context.Context, profile domain.UserProfile, partner domain.MatchedUser) (*domain.SessionSummary, error) {
	prompt := fmt.Sprintf(`You are the SkillSync analysis AI. A 10-minute learning session just concluded between two users.
User A taught %q and learned %q.
User B from %s taught %q and learned %q.

Based on a simulated positive, kind, and collaborative interaction where they successfully helped each other, generate:
1.  A 'SkillSync Score' between 85 and 100.
2.  A short, encouraging 'summary' of their session's success.
3.  One positive 'takeaway' about the power of human connection.`,
		profile.SkillToOffer, profile.SkillToLearn,
		partner.Country, partner.SkillToOffer, partner.SkillToLearn)

	var summary domain.SessionSummary
	err := c.generateJSON(ctx, prompt, generationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   summarySchema,
	}, &summary)
	if err != nil {
		return nil, err
	}
	if summary.Summary == "" || summary.Takeaway == "" {
		return nil, fmt.Errorf("gemini: summary is missing required fields")
	}
	return &summary, nil
}

// --- transport ---

type thinkingConfig struct {
	ThinkingBudget int `json:"thinkingBudget"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any  `json:"responseSchema,omitempty"`
	Temperature      *float64        `json:"temperature,omitempty"`
	MaxOutputTokens  int             `json:"maxOutputTokens,omitempty"`
	ThinkingConfig   *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type generateRequest struct {
	Contents []content         `json:"contents"`
	Config   *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func (c *Client) generateJSON(ctx context.Context, prompt string, cfg generationConfig, out any) error {
	text, err := c.generateText(ctx, prompt, cfg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("gemini: decode structured response: %w", err)
	}
	return nil
}

func (c *Client) generateText(ctx context.Context, prompt string, cfg generationConfig) (string, error) {
	reqPayload := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		Config:   &cfg,
	}
	raw, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("gemini: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("gemini: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini: generateContent: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("gemini: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini: generateContent: status %d: %s", resp.StatusCode, truncate(string(body), 300))
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("gemini: decode response: %w", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini: response has no candidates")
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}

func ptr(f float64) *float64 { return &f }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
