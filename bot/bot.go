// Package bot wires the Telegram transport: the bot instance, its
// middleware chain and the routes that feed updates into the menu
// engine and the feedback flow.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"tendersbot/config"
	"tendersbot/feedback"
	"tendersbot/logger"
	"tendersbot/nav"
	"tendersbot/session"
)

// ctxKey stores the per-update context on the telebot context.
const ctxKey = "ctx"

// New builds the bot instance on a long poller.
func New(cfg config.TelegramConfig) (*tele.Bot, error) {
	timeout := time.Duration(cfg.LongPollTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	start := time.Now()
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
		Client: buildHTTPClient(),
	})
	if err != nil {
		return nil, fmt.Errorf("bot initialization failed: %w", err)
	}
	logger.TG.Info("bot ready",
		slog.String("event", "tg.init"),
		slog.String("payload", b.Me.Username),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	)
	return b, nil
}

// Router routes updates to the menu engine and the feedback flow.
type Router struct {
	engine   *nav.Engine
	flow     *feedback.Flow
	sessions *session.Store
}

// NewRouter wires a router.
func NewRouter(engine *nav.Engine, flow *feedback.Flow, sessions *session.Store) *Router {
	return &Router{engine: engine, flow: flow, sessions: sessions}
}

// Setup registers middleware and routes on the bot.
func (r *Router) Setup(b *tele.Bot, rl config.RateLimitConfig) {
	b.Use(recoverMiddleware)
	if interval := time.Duration(rl.IntervalMS) * time.Millisecond; interval > 0 {
		b.Use(rateLimitMiddleware(interval))
	}
	b.Use(loggerMiddleware)

	b.Handle("/start", r.onStart)
	b.Handle(tele.OnCallback, r.onCallback)
	b.Handle(tele.OnText, r.onMessage)
	b.Handle(tele.OnDocument, r.onMessage)
	b.Handle(tele.OnPhoto, r.onMessage)
}

func (r *Router) onStart(c tele.Context) error {
	ctx := updateContext(c)
	ctx = logger.WithHandler(ctx, "start")
	return r.engine.EnterRoot(ctx, c.Chat().ID)
}

func (r *Router) onCallback(c tele.Context) error {
	ctx := updateContext(c)
	cb := c.Callback()
	// Telebot prefixes data-button payloads; ours are written raw, but
	// strip it anyway so buttons created by other builds keep working.
	payload := strings.TrimPrefix(strings.TrimSpace(cb.Data), "\f")

	// Stop the client-side spinner regardless of the outcome.
	defer func() {
		if err := c.Respond(); err != nil {
			logger.Debug(ctx, logger.TG, "tg.respond", slog.Any("err", err))
		}
	}()

	switch {
	case payload == feedback.CallbackCancel:
		ctx = logger.WithHandler(ctx, "feedback.cancel")
		return r.flow.Cancel(ctx, callbackRef(cb))
	case payload == feedback.CallbackSubmit:
		ctx = logger.WithHandler(ctx, "feedback.submit")
		return r.flow.Submit(ctx, callbackRef(cb))
	case nav.IsToken(payload):
		ctx = logger.WithHandler(ctx, "nav")
		return r.engine.HandleCallback(ctx, navCallback(cb), payload)
	}

	logger.Warn(ctx, logger.TG, "tg.unknown_callback",
		slog.String("payload", logger.SanitizeLimit(payload, 128)),
	)
	return nil
}

func (r *Router) onMessage(c tele.Context) error {
	ctx := updateContext(c)
	chatID := c.Chat().ID

	if !r.sessions.Get(chatID).EnteringFeedback {
		// Free-form messages outside the form have no meaning; the menu
		// lives on inline buttons.
		logger.Debug(ctx, logger.TG, "tg.ignored_message",
			slog.Int64("chat_id", chatID),
		)
		return nil
	}

	ctx = logger.WithHandler(ctx, "feedback.message")
	return r.flow.HandleMessage(ctx, inboundMessage(c))
}

// Run starts long polling and stops the bot when the context is
// cancelled.
func Run(ctx context.Context, b *tele.Bot) {
	go func() {
		<-ctx.Done()
		logger.TG.Info("stopping",
			slog.String("event", "tg.stop"),
		)
		b.Stop()
	}()
	b.Start()
}

func updateContext(c tele.Context) context.Context {
	if ctx, ok := c.Get(ctxKey).(context.Context); ok {
		return ctx
	}
	return logger.Background()
}

func callbackRef(cb *tele.Callback) feedback.Callback {
	ref := feedback.Callback{ChatID: cb.Sender.ID}
	if cb.Message != nil {
		ref.ChatID = cb.Message.Chat.ID
		ref.MessageID = cb.Message.ID
	}
	return ref
}

func navCallback(cb *tele.Callback) nav.Callback {
	ref := nav.Callback{ChatID: cb.Sender.ID}
	if cb.Message != nil {
		ref.ChatID = cb.Message.Chat.ID
		ref.MessageID = cb.Message.ID
		ref.MessageText = cb.Message.Text
	}
	return ref
}

func inboundMessage(c tele.Context) feedback.Message {
	msg := feedback.Message{
		ChatID: c.Chat().ID,
		Text:   c.Text(),
	}
	if sender := c.Sender(); sender != nil {
		msg.Username = sender.Username
		msg.FirstName = sender.FirstName
		msg.LastName = sender.LastName
	}
	m := c.Message()
	if m == nil {
		return msg
	}
	msg.Caption = m.Caption
	if m.Document != nil {
		msg.Document = &feedback.FileRef{
			FileID:   m.Document.FileID,
			FileName: m.Document.FileName,
		}
	}
	if m.Photo != nil {
		// Photos carry no user-visible name; the unique id stands in.
		msg.Photo = &feedback.FileRef{
			FileID:   m.Photo.FileID,
			FileName: m.Photo.UniqueID,
		}
	}
	return msg
}
