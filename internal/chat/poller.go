package chat

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/yungbote/skillsync-backend/internal/domain"
	"github.com/yungbote/skillsync-backend/internal/platform/logger"
	"github.com/yungbote/skillsync-backend/internal/services"
)

const pollInterval = 3 * time.Second

// Poller keeps the open conversation panel fresh by re-fetching the thread on
// a fixed interval. At most one panel is open at a time; opening a new one
// tears the previous loop down first. A fetch that resolves after its panel
// closed is discarded by generation check, never merged.
type Poller struct {
	log   *logger.Logger
	store services.SocialStore
	clock clock.Clock
	root  context.Context

	mu         sync.Mutex
	selfID     string
	partnerID  string
	generation uint64
	thread     []domain.Message
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewPoller builds a poller whose loops live until root is canceled; a loop
// is never bound to the request that opened the panel.
func NewPoller(root context.Context, log *logger.Logger, store services.SocialStore, clk clock.Clock) *Poller {
	if clk == nil {
		clk = clock.New()
	}
	if root == nil {
		root = context.Background()
	}
	return &Poller{
		log:   log.With("service", "ChatPoller"),
		store: store,
		clock: clk,
		root:  root,
	}
}

// Open switches the panel to the given partner and starts polling. The first
// fetch happens immediately so the panel is not blank for a full interval.
func (p *Poller) Open(selfID, partnerID string) {
	p.closeLocked(func() {
		p.selfID = selfID
		p.partnerID = partnerID
		p.generation++
		p.thread = nil
	})

	p.mu.Lock()
	gen := p.generation
	loopCtx, cancel := context.WithCancel(p.root)
	p.cancel = cancel
	done := make(chan struct{})
	p.done = done
	p.mu.Unlock()

	go p.loop(loopCtx, done, gen, selfID, partnerID)
}

// Close stops polling and clears the panel. Safe to call when no panel is
// open.
func (p *Poller) Close() {
	p.closeLocked(func() {
		p.selfID = ""
		p.partnerID = ""
		p.generation++
		p.thread = nil
	})
}

func (p *Poller) closeLocked(reset func()) {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	reset()
	p.mu.Unlock()
	if cancel != nil {
		cancel()
		<-done
	}
}

func (p *Poller) loop(ctx context.Context, done chan struct{}, gen uint64, selfID, partnerID string) {
	defer close(done)
	p.fetch(ctx, gen, selfID, partnerID)
	ticker := p.clock.Ticker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.fetch(ctx, gen, selfID, partnerID)
		}
	}
}

func (p *Poller) fetch(ctx context.Context, gen uint64, selfID, partnerID string) {
	msgs, err := p.store.ListMessages(ctx, selfID, partnerID)
	if err != nil {
		if ctx.Err() == nil {
			p.log.Warn("message poll failed", "partner_id", partnerID, "error", err)
		}
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.generation {
		return
	}
	p.thread = msgs
}

// Send delivers a message to the store and appends the acknowledged result to
// the thread, provided the panel still shows the same partner by the time the
// store responds.
func (p *Poller) Send(ctx context.Context, partnerID, content string) (*domain.Message, error) {
	p.mu.Lock()
	selfID := p.selfID
	p.mu.Unlock()

	msg, err := p.store.SendMessage(ctx, selfID, partnerID, content)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.partnerID == partnerID {
		p.thread = append(p.thread, *msg)
	}
	return msg, nil
}

// Thread returns a copy of the messages currently shown in the panel,
// ascending by time.
func (p *Poller) Thread() []domain.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Message(nil), p.thread...)
}

// Partner reports which conversation is open, if any.
func (p *Poller) Partner() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.partnerID, p.partnerID != ""
}
