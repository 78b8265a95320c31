package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tendersbot/bot"
	"tendersbot/config"
	"tendersbot/database"
	"tendersbot/feedback"
	"tendersbot/logger"
	"tendersbot/mail"
	"tendersbot/nav"
	"tendersbot/session"
	"tendersbot/store"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Settings{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Profile: cfg.Logging.Profile,
	})
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	app := logger.Component("app")

	if err := database.RunMigrations(cfg.Database); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("uploads dir: %w", err)
	}

	nodes := store.NewNodeStore(db)
	feedbackStore := store.NewFeedbackStore(db)

	startupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Admin edits made while the bot was down may have moved subtrees;
	// the cached paths are rebuilt before any update is served.
	if err := nodes.RecomputeTree(startupCtx); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			app.Warn("node tree is empty",
				slog.String("event", "startup.empty_tree"),
			)
		} else {
			return fmt.Errorf("node tree: %w", err)
		}
	}

	b, err := bot.New(cfg.Telegram)
	if err != nil {
		return err
	}

	gw := bot.NewGateway(b)
	sessions := session.NewStore()
	flows := nav.NewInputRegistry()
	engine := nav.NewEngine(nodes, gw, sessions, flows)

	flow := feedback.New(feedback.Options{
		Store:         feedbackStore,
		Messenger:     gw,
		Sessions:      sessions,
		Menu:          engine,
		Notifier:      mail.NewSender(cfg.Mail, cfg.Feedback),
		UploadsDir:    cfg.Uploads.Dir,
		MaxFileBytes:  cfg.Uploads.MaxFileBytes(),
		MaxTotalBytes: cfg.Uploads.MaxTotalBytes(),
		IDFormat:      cfg.Feedback.IDFormat,
	})
	if err := flows.Register("feedback", flow.Start); err != nil {
		return err
	}

	// Every input function stored in the tree must resolve to a
	// registered flow, otherwise a button would dead-end at runtime.
	referenced, err := nodes.DistinctInputFunctions(startupCtx)
	if err != nil {
		return fmt.Errorf("input functions: %w", err)
	}
	if err := flows.Validate(referenced); err != nil {
		return err
	}

	router := bot.NewRouter(engine, flow, sessions)
	router.Setup(b, cfg.RateLimit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Info("app ready", slog.String("event", "ready"))
	bot.Run(ctx, b)

	app.Info("shutting down...", slog.String("event", "shutdown"))
	return nil
}
