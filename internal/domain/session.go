package domain

// Session-scoped entities. These live only for one sync-session attempt and
// are never written to the social graph store.

// UserProfile is the pair of skills the user enters at session onboarding.
type UserProfile struct {
	SkillToOffer string `json:"skillToOffer"`
	SkillToLearn string `json:"skillToLearn"`
}

// MatchedUser is the AI-generated counterpart for one session. Its skill to
// offer is the user's skill to learn and vice versa; that swap is part of the
// matchmaking contract.
type MatchedUser struct {
	Name           string `json:"name"`
	Country        string `json:"country"`
	SkillToOffer   string `json:"skillToOffer"`
	SkillToLearn   string `json:"skillToLearn"`
	Personality    string `json:"personality"`
	LearningStyle  string `json:"learningStyle"`
	ProfilePicture string `json:"profilePicture"`
}

const (
	LessonForUser    = "user"
	LessonForPartner = "partner"
)

type MicroLesson struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	// For is "user" or "partner".
	For string `json:"for"`
}

type SessionActivity struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type CultureBridge struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AiCoachResponse is one round of structured coaching guidance. It is
// regenerable on demand; a fresh payload replaces the displayed one.
type AiCoachResponse struct {
	MicroLesson   MicroLesson     `json:"microLesson"`
	Activity      SessionActivity `json:"activity"`
	CultureBridge CultureBridge   `json:"cultureBridge"`
}

// SessionSummary is produced once at session end.
type SessionSummary struct {
	Score    float64 `json:"score"`
	Summary  string  `json:"summary"`
	Takeaway string  `json:"takeaway"`
}
