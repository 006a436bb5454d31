// Package pump drives the long-polling update loop: fetch, authorize, route,
// invoke the agent, reply. One update is processed to completion before the
// next starts, so there is at most one agent invocation in flight per process.
package pump

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"tgbridge/pkg/agent"
	"tgbridge/pkg/auth"
	"tgbridge/pkg/content"
	"tgbridge/pkg/conversation"
	"tgbridge/pkg/telegram"
)

// State is the pump lifecycle phase.
type State int32

const (
	StateIdle State = iota
	StatePolling
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	defaultPollLimit     = 100
	defaultPollTimeout   = 30 * time.Second
	defaultRetryDelay    = 5 * time.Second
	defaultSweepInterval = time.Hour
	defaultBlobMaxAge    = time.Hour
)

const (
	deniedReply = "⛔ You are not authorized to use this bot."
	errorReply  = "Sorry, I encountered an error processing your message."
)

// Options tune polling and cleanup. Zero values select the defaults above.
type Options struct {
	PollLimit     int
	PollTimeout   time.Duration
	RetryDelay    time.Duration
	SweepInterval time.Duration
	BlobMaxAge    time.Duration
}

func (o Options) withDefaults() Options {
	if o.PollLimit <= 0 {
		o.PollLimit = defaultPollLimit
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = defaultPollTimeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = defaultSweepInterval
	}
	if o.BlobMaxAge <= 0 {
		o.BlobMaxAge = defaultBlobMaxAge
	}
	return o
}

// Router materializes normalized content for one message.
type Router interface {
	Route(ctx context.Context, msg *telegram.Message) (content.Content, error)
}

// Blobs is the slice of the blob store the pump needs: releasing staged
// content and expiring leftovers.
type Blobs interface {
	Delete(path string) error
	ExpireOlderThan(maxAge time.Duration) (int, error)
}

// Pump owns the poll loop and the background cleanup sweeper.
//
// A Pump runs once: after Stop (or Run returning) it cannot be restarted;
// construct a fresh instance instead.
type Pump struct {
	transport telegram.Transport
	policy    *auth.Policy
	router    Router
	agent     agent.Agent
	store     *conversation.Store
	blobs     Blobs
	opts      Options
	log       *slog.Logger

	state        atomic.Int32
	lastUpdateID int64

	stop    chan struct{}
	drained chan struct{}
}

// New wires the pump's collaborators.
func New(transport telegram.Transport, policy *auth.Policy, router Router, ag agent.Agent, store *conversation.Store, blobs Blobs, opts Options, log *slog.Logger) (*Pump, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if router == nil {
		return nil, errors.New("router is required")
	}
	if ag == nil {
		return nil, errors.New("agent is required")
	}
	if store == nil {
		return nil, errors.New("conversation store is required")
	}
	if blobs == nil {
		return nil, errors.New("blob store is required")
	}
	if policy == nil {
		policy = auth.NewPolicy(nil, nil)
	}
	if log == nil {
		log = slog.Default()
	}

	return &Pump{
		transport: transport,
		policy:    policy,
		router:    router,
		agent:     ag,
		store:     store,
		blobs:     blobs,
		opts:      opts.withDefaults(),
		log:       log.With("component", "pump"),
		stop:      make(chan struct{}),
		drained:   make(chan struct{}),
	}, nil
}

// State returns the current lifecycle phase.
func (p *Pump) State() State {
	return State(p.state.Load())
}

// Run starts polling and blocks until the context is cancelled or Stop is
// called. It must only be called once per instance.
func (p *Pump) Run(ctx context.Context) error {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StatePolling)) {
		return fmt.Errorf("pump cannot start from state %s", p.State())
	}

	// Stop cancels only the fetch wait so an in-flight update still finishes.
	fetchCtx, fetchCancel := context.WithCancel(ctx)
	defer fetchCancel()
	go func() {
		select {
		case <-p.stop:
		case <-fetchCtx.Done():
		}
		fetchCancel()
	}()

	sweepCtx, sweepCancel := context.WithCancel(ctx)
	go p.runSweeper(sweepCtx)

	if self, err := p.transport.GetSelf(ctx); err != nil {
		p.log.Error("Failed to fetch bot identity", "error", err)
	} else {
		p.log.Info("Bot started", "username", self.Username, "id", self.ID)
	}

	p.pollLoop(ctx, fetchCtx)

	sweepCancel()
	if err := p.transport.Close(); err != nil {
		p.log.Warn("Failed to close transport", "error", err)
	}
	p.state.Store(int32(StateStopped))
	close(p.drained)
	p.log.Info("Pump stopped", "last_update_id", p.lastUpdateID)

	return nil
}

// Stop signals the loop to drain and blocks until the in-flight poll round
// has finished and resources are released. Calling Stop before Run retires
// the pump so a racing Run refuses to start; extra Stop calls are no-ops.
func (p *Pump) Stop() {
	for {
		switch p.State() {
		case StateIdle:
			if p.state.CompareAndSwap(int32(StateIdle), int32(StateStopped)) {
				return
			}
		case StatePolling:
			if p.state.CompareAndSwap(int32(StatePolling), int32(StateDraining)) {
				p.log.Info("Stopping pump")
				close(p.stop)
				<-p.drained
				return
			}
		case StateDraining:
			<-p.drained
			return
		default:
			return
		}
	}
}

func (p *Pump) pollLoop(ctx context.Context, fetchCtx context.Context) {
	p.log.Info("Polling loop started", "poll_timeout", p.opts.PollTimeout, "poll_limit", p.opts.PollLimit)

	for {
		if ctx.Err() != nil || p.State() != StatePolling {
			return
		}

		updates, err := p.transport.FetchUpdates(fetchCtx, p.lastUpdateID+1, p.opts.PollLimit, p.opts.PollTimeout)
		if err != nil {
			// A cancelled wait must not process partial results.
			if ctx.Err() != nil || p.State() != StatePolling {
				return
			}
			p.log.Error("Failed to fetch updates", "error", err)
			select {
			case <-time.After(p.opts.RetryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}

		// The batch in flight is always finished, even while draining.
		for _, update := range updates {
			p.processUpdate(ctx, update)
			p.lastUpdateID = update.UpdateID
		}
	}
}

func (p *Pump) processUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Content()
	if msg == nil {
		p.log.Debug("Skipping update without message", "update_id", update.UpdateID)
		return
	}

	chatID := msg.Chat.ID

	if !p.policy.Allowed(msg.From, chatID) {
		p.log.Warn("Unauthorized access attempt", "chat_id", chatID, "update_id", update.UpdateID)
		p.reply(ctx, msg, deniedReply)
		return
	}

	if name, ok := commandName(msg.Text); ok {
		p.handleCommand(ctx, name, msg)
		return
	}

	// Best-effort typing indicator.
	if err := p.transport.SendTyping(ctx, chatID); err != nil {
		p.log.Debug("Failed to send typing indicator", "chat_id", chatID, "error", err)
	}

	input, err := p.router.Route(ctx, msg)
	if err != nil {
		var cfgErr *content.ConfigError
		if errors.As(err, &cfgErr) {
			p.log.Warn("Content handler misconfigured", "chat_id", chatID, "reason", cfgErr.Reason)
		} else {
			p.log.Error("Failed to route message", "chat_id", chatID, "error", err)
		}
		p.reply(ctx, msg, errorReply)
		return
	}
	defer input.Release(p.blobs)

	history := p.store.History(chatID)
	reply, err := p.agent.Respond(ctx, history, input)
	if err != nil {
		// History stays untouched so the next turn retries cleanly.
		p.log.Error("Agent invocation failed", "chat_id", chatID, "error", err)
		p.reply(ctx, msg, errorReply)
		return
	}

	p.store.SetHistory(chatID, reply.History)

	if err := p.transport.SendText(ctx, chatID, reply.Text, telegram.SendOptions{ReplyTo: msg.MessageID}); err != nil {
		p.log.Error("Failed to send reply", "chat_id", chatID, "error", err)
		p.reply(ctx, msg, errorReply)
	}
}

// reply sends a fixed service message, ignoring failures.
func (p *Pump) reply(ctx context.Context, msg *telegram.Message, text string) {
	err := p.transport.SendText(ctx, msg.Chat.ID, text, telegram.SendOptions{ReplyTo: msg.MessageID})
	if err != nil {
		p.log.Debug("Failed to send service reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

func (p *Pump) runSweeper(ctx context.Context) {
	ticker := time.NewTicker(p.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := p.blobs.ExpireOlderThan(p.opts.BlobMaxAge)
			if err != nil {
				p.log.Error("Cleanup sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				p.log.Info("Cleanup sweep finished", "deleted", deleted)
			}
		}
	}
}

// commandName extracts the command token from message text: the first
// whitespace-delimited token, lower-cased, with the leading slash stripped.
func commandName(text string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}

	name := strings.Fields(text)[0]
	return strings.ToLower(strings.TrimPrefix(name, "/")), true
}
