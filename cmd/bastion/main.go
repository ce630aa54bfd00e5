package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mindhaven/bastion/pkg/config"
	"github.com/mindhaven/bastion/pkg/crisis"
	"github.com/mindhaven/bastion/pkg/events"
	"github.com/mindhaven/bastion/pkg/notify"
	"github.com/mindhaven/bastion/pkg/respond"
	"github.com/mindhaven/bastion/pkg/safety"
	"github.com/mindhaven/bastion/pkg/storage"
)

const Version = "0.1.0"

func main() {
	_ = godotenv.Load()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServer(log)
	case "classify":
		if len(os.Args) < 3 {
			fmt.Println("Usage: bastion classify <text>")
			os.Exit(1)
		}
		runCLIClassify(strings.Join(os.Args[2:], " "))
	case "version":
		fmt.Printf("Bastion v%s\n", Version)
		fmt.Println("Safety and crisis detection service")
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf("Bastion v%s - safety and crisis detection service\n\n", Version)
	fmt.Println("Usage:")
	fmt.Println("  bastion serve             Start the HTTP server")
	fmt.Println("  bastion classify <text>   Classify text risk from the command line")
	fmt.Println("  bastion version           Show version")
	fmt.Println("")
	fmt.Println("Environment Variables:")
	fmt.Println("  DATABASE_URL              Postgres DSN; unset runs without escalation persistence")
	fmt.Println("  BASTION_SCORER_PROVIDER   Risk scorer: none, remote, semantic, hugot")
	fmt.Println("  BASTION_REDIS_ADDR        Redis address for flag event fan-out")
	fmt.Println("  BASTION_SMTP_HOST         SMTP host for operator alert emails")
}

func runServer(log *slog.Logger) {
	cfg := config.NewDefaultConfig()
	cfg.MustValidate()

	ctx := context.Background()

	// Persistence is optional outside production: without it classification
	// and moderation still work, escalation persistence does not.
	var db *storage.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = storage.New(ctx, cfg.DatabaseURL, log)
		if err != nil {
			log.Error("database unavailable, running degraded", "error", err)
			db = nil
		} else {
			if err := db.Migrate(ctx); err != nil {
				log.Error("migration failed", "error", err)
				os.Exit(1)
			}
		}
	} else {
		log.Warn("DATABASE_URL not set, escalation persistence disabled")
	}

	scorer := buildScorer(ctx, cfg, log)
	detector := safety.NewDetector()
	classifier := safety.NewClassifier(detector, scorer, log)
	classifier.SetCriticalThreshold(cfg.CriticalThreshold)

	broker := events.NewBroker(log)
	var publisher crisis.Publisher = broker
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, flag events stay in-process", "error", err)
			_ = client.Close()
		} else {
			publisher = events.Tee{broker, events.NewRedisPublisher(client, log)}
			log.Info("redis flag event publisher enabled", "channel", events.FlagChannel)
		}
	}

	var escalator *crisis.Escalator
	if db != nil {
		mailer := notify.NewSMTPMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			User:     cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, log)
		var mailerIface crisis.Mailer
		if mailer != nil {
			mailerIface = mailer
		} else {
			log.Info("SMTP not configured, alert emails disabled")
		}

		escalator = crisis.NewEscalator(crisis.EscalatorConfig{
			Detector:      detector,
			Scorer:        scorer,
			Flags:         db,
			Settings:      db,
			Publisher:     publisher,
			Fanout:        crisis.NewFanout(db, db, mailerIface, log),
			MaxConcurrent: cfg.MaxConcurrentEscalations,
			Timeout:       cfg.EscalationTimeout,
			Log:           log,
		})
	}

	responder := respond.NewResponder(buildCatalog(ctx, cfg, db, log), log)

	srv := &server{
		cfg:        cfg,
		log:        log,
		classifier: classifier,
		escalator:  escalator,
		responder:  responder,
		broker:     broker,
		db:         db,
	}

	app := srv.routes()

	go func() {
		log.Info("bastion listening", "addr", cfg.ListenAddr, "version", Version)
		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(shutdownCtx)
	if escalator != nil {
		escalator.Wait()
	}
	if db != nil {
		db.Close()
	}
}

// buildScorer wires the configured ML backend, degrading to nil (keyword and
// tier heuristics only) when the backend cannot start.
func buildScorer(ctx context.Context, cfg *config.Config, log *slog.Logger) safety.RiskScorer {
	switch cfg.ScorerProvider {
	case config.ScorerRemote:
		log.Info("remote risk scorer enabled", "url", cfg.ScorerBaseURL)
		return safety.NewRemoteScorer(cfg.ScorerBaseURL)

	case config.ScorerSemantic:
		s, err := safety.NewRemoteEmbeddingScorer(cfg.EmbeddingModel, cfg.EmbeddingBaseURL)
		if err != nil {
			log.Warn("semantic scorer init failed", "error", err)
			return nil
		}
		loadCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		defer cancel()
		if err := s.LoadExemplars(loadCtx); err != nil {
			log.Warn("semantic scorer disabled, exemplar load failed", "error", err)
			return nil
		}
		log.Info("semantic risk scorer enabled", "exemplars", s.ExemplarCount())
		return s

	case config.ScorerHugot:
		if s := safety.NewAutoDetectedHugotScorer(log); s != nil {
			log.Info("hugot risk scorer enabled")
			return s
		}
		return nil

	default:
		log.Info("risk scorer disabled, keyword heuristics only")
		return nil
	}
}

// buildCatalog prefers the database catalog, then a YAML file, then nil so
// the responder serves its built-in baseline.
func buildCatalog(ctx context.Context, cfg *config.Config, db *storage.DB, log *slog.Logger) respond.Catalog {
	var fileCat *respond.FileCatalog
	if cfg.ResourceCatalogPath != "" {
		var err error
		fileCat, err = respond.LoadFileCatalog(cfg.ResourceCatalogPath)
		if err != nil {
			log.Warn("resource catalog file unusable", "path", cfg.ResourceCatalogPath, "error", err)
		}
	}

	if db == nil {
		if fileCat != nil {
			return fileCat
		}
		return nil
	}

	if fileCat != nil {
		var all []respond.Resource
		for _, lang := range fileCat.Languages() {
			entries, _ := fileCat.Resources(ctx, lang)
			all = append(all, entries...)
		}
		if err := db.SeedResources(ctx, all); err != nil {
			log.Warn("resource catalog seed failed", "error", err)
		}
	}
	return db
}

func runCLIClassify(text string) {
	classifier := safety.NewClassifier(safety.NewDetector(), nil, slog.Default())
	level := classifier.Classify(context.Background(), text, nil)

	out, _ := json.MarshalIndent(fiber.Map{
		"risk_level":    level.String(),
		"crisis":        level.Crisis(),
		"labels":        safety.NewDetector().DetectAll(text),
		"safety_prompt": safety.SafetyPrompt(level),
	}, "", "  ")
	fmt.Println(string(out))
}
