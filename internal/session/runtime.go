package session

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yungbote/skillsync-backend/internal/platform/logger"
	"github.com/yungbote/skillsync-backend/internal/services"
)

// Refresher re-fetches the cached social collections from the store. The
// reconciler implements it.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ChatCloser tears down an open chat panel. The message poller implements it.
type ChatCloser interface {
	Close()
}

type envelope struct {
	ev    Event
	reply chan Snapshot
}

// Runtime owns the Snapshot and processes events on a single goroutine, so
// reducer state is never touched concurrently: UI intents, timer ticks and
// async completions all interleave on one logical thread. External calls run
// in their own goroutines and report back as events tagged with the session
// attempt they were started for.
type Runtime struct {
	log   *logger.Logger
	store services.SocialStore
	ai    services.TextGenerator
	data  Refresher
	chat  ChatCloser
	clock clock.Clock

	events chan envelope
	snap   Snapshot

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewRuntime(log *logger.Logger, store services.SocialStore, ai services.TextGenerator, data Refresher, chat ChatCloser, clk clock.Clock) *Runtime {
	if clk == nil {
		clk = clock.New()
	}
	return &Runtime{
		log:    log.With("service", "SessionRuntime"),
		store:  store,
		ai:     ai,
		data:   data,
		chat:   chat,
		clock:  clk,
		events: make(chan envelope, 64),
		snap:   Initial(),
		ctx:    context.Background(),
	}
}

// Start launches the event loop. The countdown ticker is owned by the loop;
// it fires every second and the reducer decides whether the tick matters.
func (r *Runtime) Start(ctx context.Context) {
	if r.cancel != nil {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})
	go r.loop()
}

func (r *Runtime) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	<-r.done
	r.cancel = nil
}

func (r *Runtime) loop() {
	defer close(r.done)
	ticker := r.clock.Ticker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.applyLocked(Tick{})
		case env := <-r.events:
			if env.ev != nil {
				r.applyLocked(env.ev)
			}
			if env.reply != nil {
				env.reply <- r.snap
			}
		}
	}
}

func (r *Runtime) applyLocked(ev Event) {
	next, cmds := Reduce(r.snap, ev)
	r.snap = next
	for _, cmd := range cmds {
		r.exec(cmd)
	}
}

// Dispatch enqueues an event without waiting for it to be processed.
func (r *Runtime) Dispatch(ev Event) {
	select {
	case r.events <- envelope{ev: ev}:
	case <-r.ctx.Done():
	}
}

// Apply enqueues an event and returns the snapshot that resulted from it.
func (r *Runtime) Apply(ctx context.Context, ev Event) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.events <- envelope{ev: ev, reply: reply}:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-r.ctx.Done():
		return Snapshot{}, r.ctx.Err()
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-r.ctx.Done():
		return Snapshot{}, r.ctx.Err()
	}
}

// Snapshot returns the current state as seen by the loop.
func (r *Runtime) Snapshot(ctx context.Context) (Snapshot, error) {
	return r.Apply(ctx, nil)
}

func (r *Runtime) exec(cmd Command) {
	switch cmd := cmd.(type) {

	case FetchMatch:
		go func() {
			match, err := r.ai.GenerateMatch(r.ctx, cmd.Profile)
			if err != nil {
				r.log.Warn("match generation failed", "error", err)
				r.Dispatch(MatchFailed{Attempt: cmd.Attempt})
				return
			}
			r.Dispatch(MatchReady{Attempt: cmd.Attempt, Match: *match})
		}()

	case FetchCoach:
		go func() {
			coach, err := r.ai.GenerateCoachGuidance(r.ctx, cmd.Profile, cmd.Match)
			if err != nil {
				r.log.Warn("coach generation failed", "error", err)
				r.Dispatch(CoachFailed{Attempt: cmd.Attempt})
				return
			}
			r.Dispatch(CoachReady{Attempt: cmd.Attempt, Coach: *coach})
		}()

	case FetchSummary:
		go func() {
			summary, err := r.ai.GenerateSummary(r.ctx, cmd.Profile, cmd.Match)
			if err != nil {
				r.log.Warn("summary generation failed", "error", err)
				r.Dispatch(SummaryFailed{Attempt: cmd.Attempt})
				return
			}
			r.Dispatch(SummaryReady{Attempt: cmd.Attempt, Summary: *summary})
		}()

	case FetchEmpathy:
		go func() {
			text, err := r.ai.RewriteForEmpathy(r.ctx, cmd.Text)
			if err != nil {
				r.log.Warn("empathy rewrite failed", "error", err)
				r.Dispatch(EmpathyFailed{Attempt: cmd.Attempt})
				return
			}
			r.Dispatch(EmpathyReady{Attempt: cmd.Attempt, Text: text})
		}()

	case RefreshData:
		go func() {
			if err := r.data.Refresh(r.ctx); err != nil {
				r.log.Warn("data refresh failed", "error", err)
			}
		}()

	case SignOutStore:
		go func() {
			if err := r.store.SignOut(r.ctx); err != nil {
				r.log.Warn("sign out failed", "error", err)
			}
		}()

	case CloseChat:
		if r.chat != nil {
			r.chat.Close()
		}

	default:
		_ = cmd
	}
}
