package session

import (
	"strings"

	"github.com/yungbote/skillsync-backend/internal/domain"
)

// Screen is the top-level application screen. The machine is cyclic: it always
// comes back to DASHBOARD (restart) or HOME (logout), never terminates.
type Screen string

const (
	ScreenHome                  Screen = "HOME"
	ScreenLogin                 Screen = "LOGIN"
	ScreenDashboard             Screen = "DASHBOARD"
	ScreenProfileViewing        Screen = "PROFILE_VIEWING"
	ScreenSessionOnboarding     Screen = "SESSION_ONBOARDING"
	ScreenSessionMatching       Screen = "SESSION_MATCHING"
	ScreenSessionActive         Screen = "SESSION_ACTIVE"
	ScreenSessionSummaryLoading Screen = "SESSION_SUMMARY_LOADING"
	ScreenSessionSummary        Screen = "SESSION_SUMMARY"
)

// SessionSeconds is the fixed sync-session length: a 10 minute countdown.
const SessionSeconds = 10 * 60

// Messages surfaced to the user. Store mutation failures are deliberately not
// represented here; those are logged and swallowed.
const (
	msgMatchFailed    = "Failed to find a match. Please try again."
	msgSummaryFailed  = "Failed to generate session summary."
	msgEmpathyFailed  = "Sorry, translation failed. Please try again."
	msgProfileMissing = "Failed to initialize user profile."
	msgSkillsRequired = "Please enter both a skill to offer and a skill to learn."
)

// Snapshot is the full client-visible application state. It is a value; the
// reducer returns a new Snapshot and never mutates pointed-to session
// entities in place.
type Snapshot struct {
	Screen           Screen                  `json:"screen"`
	CurrentUserID    string                  `json:"currentUserId,omitempty"`
	ViewingProfileID string                  `json:"viewingProfileId,omitempty"`
	Error            string                  `json:"error,omitempty"`

	// Attempt tags one session attempt. Async completions carry the attempt
	// they were started for; a mismatch means the response is stale and is
	// discarded, never merged.
	Attempt int `json:"-"`

	Profile      *domain.UserProfile     `json:"profile,omitempty"`
	Match        *domain.MatchedUser     `json:"match,omitempty"`
	Coach        *domain.AiCoachResponse `json:"coach,omitempty"`
	CoachLoading bool                    `json:"coachLoading,omitempty"`

	EmpathyOutput string `json:"empathyOutput,omitempty"`
	EmpathyBusy   bool   `json:"empathyBusy,omitempty"`

	Summary *domain.SessionSummary `json:"summary,omitempty"`

	SecondsLeft  int  `json:"secondsLeft,omitempty"`
	TimerRunning bool `json:"timerRunning,omitempty"`
}

// Initial is the state before any event: unauthenticated, on HOME.
func Initial() Snapshot {
	return Snapshot{Screen: ScreenHome}
}

func (s Snapshot) authenticated() bool { return s.CurrentUserID != "" }

// Event is a tagged union of everything that can happen to the machine: user
// intents and async completions.
type Event interface{ isEvent() }

type (
	// NavigateLogin moves HOME -> LOGIN.
	NavigateLogin struct{}
	// NavigateHome moves LOGIN -> HOME.
	NavigateHome struct{}

	// SessionRestored fires when app launch finds a valid stored session and
	// a matching profile record.
	SessionRestored struct{ UserID string }
	// RestoreFailed fires when launch found a session but no profile record.
	RestoreFailed struct{ Warning string }

	LoginSucceeded struct{ UserID string }
	LoginFailed    struct{ Message string }
	Logout         struct{}

	ViewProfile     struct{ UserID string }
	BackToDashboard struct{}

	StartSession struct{}
	SubmitSkills struct{ Profile domain.UserProfile }
	MatchReady   struct {
		Attempt int
		Match   domain.MatchedUser
	}
	MatchFailed struct {
		Attempt int
	}
	ConfirmMatch struct{}

	// Tick is one simulated second of the countdown.
	Tick       struct{}
	EndSession struct{}

	RegenerateCoach struct{}
	CoachReady      struct {
		Attempt int
		Coach   domain.AiCoachResponse
	}
	CoachFailed struct {
		Attempt int
	}

	RewriteEmpathy struct{ Text string }
	EmpathyReady   struct {
		Attempt int
		Text    string
	}
	EmpathyFailed struct {
		Attempt int
	}

	SummaryReady struct {
		Attempt int
		Summary domain.SessionSummary
	}
	SummaryFailed struct {
		Attempt int
	}

	RestartFlow struct{}
)

func (NavigateLogin) isEvent()   {}
func (NavigateHome) isEvent()    {}
func (SessionRestored) isEvent() {}
func (RestoreFailed) isEvent()   {}
func (LoginSucceeded) isEvent()  {}
func (LoginFailed) isEvent()     {}
func (Logout) isEvent()          {}
func (ViewProfile) isEvent()     {}
func (BackToDashboard) isEvent() {}
func (StartSession) isEvent()    {}
func (SubmitSkills) isEvent()    {}
func (MatchReady) isEvent()      {}
func (MatchFailed) isEvent()     {}
func (ConfirmMatch) isEvent()    {}
func (Tick) isEvent()            {}
func (EndSession) isEvent()      {}
func (RegenerateCoach) isEvent() {}
func (CoachReady) isEvent()      {}
func (CoachFailed) isEvent()     {}
func (RewriteEmpathy) isEvent()  {}
func (EmpathyReady) isEvent()    {}
func (EmpathyFailed) isEvent()   {}
func (SummaryReady) isEvent()    {}
func (SummaryFailed) isEvent()   {}
func (RestartFlow) isEvent()     {}

// Command is a side effect the runtime must execute after a reduction. The
// reducer itself never touches the outside world.
type Command interface{ isCommand() }

type (
	FetchMatch struct {
		Attempt int
		Profile domain.UserProfile
	}
	FetchCoach struct {
		Attempt int
		Profile domain.UserProfile
		Match   domain.MatchedUser
	}
	FetchSummary struct {
		Attempt int
		Profile domain.UserProfile
		Match   domain.MatchedUser
	}
	FetchEmpathy struct {
		Attempt int
		Text    string
	}
	// RefreshData re-fetches users and posts from the store into the local
	// cache.
	RefreshData struct{}
	// SignOutStore revokes the store session.
	SignOutStore struct{}
	// CloseChat tears down any open chat panel and its poller.
	CloseChat struct{}
)

func (FetchMatch) isCommand()   {}
func (FetchCoach) isCommand()   {}
func (FetchSummary) isCommand() {}
func (FetchEmpathy) isCommand() {}
func (RefreshData) isCommand()  {}
func (SignOutStore) isCommand() {}
func (CloseChat) isCommand()    {}

// Reduce applies one event to the snapshot and returns the next snapshot plus
// the commands to run. It is pure: same inputs, same outputs.
func Reduce(s Snapshot, ev Event) (Snapshot, []Command) {
	next, cmds := reduce(s, ev)
	return applyGuards(next), cmds
}

func reduce(s Snapshot, ev Event) (Snapshot, []Command) {
	switch ev := ev.(type) {

	case NavigateLogin:
		if s.Screen == ScreenHome {
			s.Screen = ScreenLogin
			s.Error = ""
		}
		return s, nil

	case NavigateHome:
		if s.Screen == ScreenLogin {
			s.Screen = ScreenHome
			s.Error = ""
		}
		return s, nil

	case SessionRestored:
		if s.authenticated() {
			return s, nil
		}
		s.CurrentUserID = ev.UserID
		s.Screen = ScreenDashboard
		s.Error = ""
		return s, []Command{RefreshData{}}

	case RestoreFailed:
		// Authenticated but no profile record: stay unauthenticated, surface
		// the warning, do not crash.
		s.Error = ev.Warning
		return s, nil

	case LoginSucceeded:
		s.CurrentUserID = ev.UserID
		s.Screen = ScreenDashboard
		s.Error = ""
		return s, []Command{RefreshData{}}

	case LoginFailed:
		s.Screen = ScreenLogin
		s.Error = ev.Message
		return s, nil

	case Logout:
		if !s.authenticated() {
			return s, nil
		}
		out := Initial()
		return out, []Command{SignOutStore{}, CloseChat{}}

	case ViewProfile:
		if s.Screen == ScreenDashboard || s.Screen == ScreenProfileViewing {
			s.ViewingProfileID = ev.UserID
			s.Screen = ScreenProfileViewing
		}
		return s, nil

	case BackToDashboard:
		if s.Screen == ScreenProfileViewing {
			s.Screen = ScreenDashboard
			s.ViewingProfileID = ""
		}
		return s, nil

	case StartSession:
		if s.Screen != ScreenDashboard {
			return s, nil
		}
		s.Screen = ScreenSessionOnboarding
		s.Error = ""
		return s, nil

	case SubmitSkills:
		if s.Screen != ScreenSessionOnboarding {
			return s, nil
		}
		offer := strings.TrimSpace(ev.Profile.SkillToOffer)
		learn := strings.TrimSpace(ev.Profile.SkillToLearn)
		if offer == "" || learn == "" {
			s.Error = msgSkillsRequired
			return s, nil
		}
		profile := domain.UserProfile{SkillToOffer: offer, SkillToLearn: learn}
		s.Attempt++
		s.Profile = &profile
		s.Match = nil
		s.Coach = nil
		s.Summary = nil
		s.Error = ""
		s.Screen = ScreenSessionMatching
		return s, []Command{FetchMatch{Attempt: s.Attempt, Profile: profile}}

	case MatchReady:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionMatching {
			return s, nil
		}
		match := ev.Match
		s.Match = &match
		return s, nil

	case MatchFailed:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionMatching {
			return s, nil
		}
		s.Screen = ScreenSessionOnboarding
		s.Error = msgMatchFailed
		return s, nil

	case ConfirmMatch:
		if s.Screen != ScreenSessionMatching || s.Match == nil || s.Profile == nil {
			return s, nil
		}
		s.Screen = ScreenSessionActive
		s.SecondsLeft = SessionSeconds
		s.TimerRunning = true
		s.CoachLoading = true
		s.EmpathyOutput = ""
		s.Error = ""
		return s, []Command{FetchCoach{Attempt: s.Attempt, Profile: *s.Profile, Match: *s.Match}}

	case Tick:
		if s.Screen != ScreenSessionActive || !s.TimerRunning {
			return s, nil
		}
		s.SecondsLeft--
		if s.SecondsLeft > 0 {
			return s, nil
		}
		s.SecondsLeft = 0
		return endActiveSession(s)

	case EndSession:
		if s.Screen != ScreenSessionActive {
			return s, nil
		}
		return endActiveSession(s)

	case RegenerateCoach:
		if s.Screen != ScreenSessionActive || s.Profile == nil || s.Match == nil {
			return s, nil
		}
		s.CoachLoading = true
		return s, []Command{FetchCoach{Attempt: s.Attempt, Profile: *s.Profile, Match: *s.Match}}

	case CoachReady:
		// A coach payload that arrives after the screen moved on, or for an
		// older attempt, is discarded.
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionActive {
			return s, nil
		}
		coach := ev.Coach
		s.Coach = &coach
		s.CoachLoading = false
		return s, nil

	case CoachFailed:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionActive {
			return s, nil
		}
		// The previous payload, if any, stays in place.
		s.CoachLoading = false
		return s, nil

	case RewriteEmpathy:
		if s.Screen != ScreenSessionActive || s.EmpathyBusy {
			return s, nil
		}
		text := strings.TrimSpace(ev.Text)
		if text == "" {
			return s, nil
		}
		s.EmpathyBusy = true
		s.EmpathyOutput = ""
		return s, []Command{FetchEmpathy{Attempt: s.Attempt, Text: text}}

	case EmpathyReady:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionActive {
			return s, nil
		}
		s.EmpathyBusy = false
		s.EmpathyOutput = ev.Text
		return s, nil

	case EmpathyFailed:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionActive {
			return s, nil
		}
		s.EmpathyBusy = false
		s.EmpathyOutput = msgEmpathyFailed
		return s, nil

	case SummaryReady:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionSummaryLoading {
			return s, nil
		}
		summary := ev.Summary
		s.Summary = &summary
		s.Screen = ScreenSessionSummary
		return s, nil

	case SummaryFailed:
		if ev.Attempt != s.Attempt || s.Screen != ScreenSessionSummaryLoading {
			return s, nil
		}
		// Back to the live session. The countdown value is preserved and the
		// timer resumes; the session is not restarted.
		s.Screen = ScreenSessionActive
		s.Error = msgSummaryFailed
		if s.SecondsLeft > 0 {
			s.TimerRunning = true
		}
		return s, nil

	case RestartFlow:
		if s.Screen != ScreenSessionSummary && s.Screen != ScreenSessionSummaryLoading {
			return s, nil
		}
		s.Attempt++
		s.Screen = ScreenDashboard
		s.Profile = nil
		s.Match = nil
		s.Coach = nil
		s.CoachLoading = false
		s.Summary = nil
		s.EmpathyOutput = ""
		s.EmpathyBusy = false
		s.SecondsLeft = 0
		s.TimerRunning = false
		s.Error = ""
		return s, nil
	}

	return s, nil
}

func endActiveSession(s Snapshot) (Snapshot, []Command) {
	if s.Profile == nil || s.Match == nil {
		// Guard trips below and sends the machine back to DASHBOARD.
		s.TimerRunning = false
		return s, nil
	}
	s.TimerRunning = false
	s.Screen = ScreenSessionSummaryLoading
	s.Error = ""
	return s, []Command{FetchSummary{Attempt: s.Attempt, Profile: *s.Profile, Match: *s.Match}}
}

// applyGuards enforces the screen preconditions: session screens are
// unreachable without their required transient entities, and authenticated
// screens are unreachable without a user. Violations redirect silently.
func applyGuards(s Snapshot) Snapshot {
	switch s.Screen {
	case ScreenHome, ScreenLogin:
		return s
	}
	if !s.authenticated() {
		s.Screen = ScreenHome
		return s
	}
	switch s.Screen {
	case ScreenSessionActive, ScreenSessionSummaryLoading:
		if s.Profile == nil || s.Match == nil {
			return toDashboard(s)
		}
	case ScreenSessionSummary:
		if s.Summary == nil {
			return toDashboard(s)
		}
	}
	return s
}

func toDashboard(s Snapshot) Snapshot {
	s.Screen = ScreenDashboard
	s.Profile = nil
	s.Match = nil
	s.Coach = nil
	s.CoachLoading = false
	s.Summary = nil
	s.SecondsLeft = 0
	s.TimerRunning = false
	s.EmpathyBusy = false
	s.EmpathyOutput = ""
	return s
}
