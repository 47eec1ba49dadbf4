package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func candidateResponse(text string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{
			{
				"content": map[string]any{
					"parts": []map[string]any{{"text": text}},
				},
				"finishReason": "STOP",
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{APIKey: "test-key", BaseURL: srv.URL}, testLogger(t))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestGenerateMatchDecodesStructuredResponse(t *testing.T) {
	var mu sync.Mutex
	var captured map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("api key header = %q", r.Header.Get("x-goog-api-key"))
		}
		mu.Lock()
		json.NewDecoder(r.Body).Decode(&captured)
		mu.Unlock()

		match := domain.MatchedUser{
			Name:           "Lucia",
			Country:        "Spain",
			SkillToOffer:   "Spanish",
			SkillToLearn:   "Guitar",
			Personality:    "warm",
			LearningStyle:  "visual",
			ProfilePicture: "https://i.pravatar.cc/150?u=lucia",
		}
		raw, _ := json.Marshal(match)
		json.NewEncoder(w).Encode(candidateResponse(string(raw)))
	})

	match, err := c.GenerateMatch(context.Background(), domain.UserProfile{SkillToOffer: "Guitar", SkillToLearn: "Spanish"})
	if err != nil {
		t.Fatalf("generate match: %v", err)
	}
	if match.SkillToOffer != "Spanish" || match.SkillToLearn != "Guitar" {
		t.Fatalf("match = %+v", match)
	}

	mu.Lock()
	defer mu.Unlock()
	genCfg, ok := captured["generationConfig"].(map[string]any)
	if !ok {
		t.Fatalf("request missing generationConfig: %v", captured)
	}
	if genCfg["responseMimeType"] != "application/json" {
		t.Fatalf("responseMimeType = %v", genCfg["responseMimeType"])
	}
	if genCfg["temperature"] != 0.8 {
		t.Fatalf("temperature = %v, want 0.8", genCfg["temperature"])
	}
	if _, ok := genCfg["responseSchema"]; !ok {
		t.Fatal("request missing responseSchema")
	}
}

func TestGenerateMatchRejectsIncompletePayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidateResponse(`{"name":"Lucia"}`))
	})
	if _, err := c.GenerateMatch(context.Background(), domain.UserProfile{SkillToOffer: "a", SkillToLearn: "b"}); err == nil {
		t.Fatal("expected error for incomplete match payload")
	}
}

func TestRewriteForEmpathyTrimsAndCaps(t *testing.T) {
	var mu sync.Mutex
	var captured map[string]any

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		json.NewDecoder(r.Body).Decode(&captured)
		mu.Unlock()
		json.NewEncoder(w).Encode(candidateResponse("  I would love your thoughts on this.  \n"))
	})

	out, err := c.RewriteForEmpathy(context.Background(), "tell me what you think")
	if err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if out != "I would love your thoughts on this." {
		t.Fatalf("output = %q, want trimmed text", out)
	}

	mu.Lock()
	defer mu.Unlock()
	genCfg := captured["generationConfig"].(map[string]any)
	if genCfg["maxOutputTokens"] != float64(150) {
		t.Fatalf("maxOutputTokens = %v, want 150", genCfg["maxOutputTokens"])
	}
	thinking, ok := genCfg["thinkingConfig"].(map[string]any)
	if !ok || thinking["thinkingBudget"] != float64(75) {
		t.Fatalf("thinkingConfig = %v", genCfg["thinkingConfig"])
	}
	if _, ok := genCfg["responseSchema"]; ok {
		t.Fatal("empathy rewrite must not request a schema")
	}
}

func TestGenerateSummaryDecodes(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(candidateResponse(`{"score":93,"summary":"great session","takeaway":"connection matters"}`))
	})
	summary, err := c.GenerateSummary(context.Background(), domain.UserProfile{SkillToOffer: "a", SkillToLearn: "b"}, domain.MatchedUser{Country: "Spain"})
	if err != nil {
		t.Fatalf("generate summary: %v", err)
	}
	if summary.Score != 93 || summary.Summary == "" {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestEmptyCandidatesIsAnError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})
	if _, err := c.RewriteForEmpathy(context.Background(), "hi"); err == nil {
		t.Fatal("expected error for empty candidates")
	}
}

func TestUpstreamErrorStatusSurfaces(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})
	if _, err := c.GenerateMatch(context.Background(), domain.UserProfile{SkillToOffer: "a", SkillToLearn: "b"}); err == nil {
		t.Fatal("expected error for upstream failure")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	if _, err := NewClient(Config{}, testLogger(t)); err == nil {
		t.Fatal("expected error for missing api key")
	}
}
