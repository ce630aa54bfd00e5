package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v3"

	"github.com/mindhaven/bastion/pkg/config"
	"github.com/mindhaven/bastion/pkg/crisis"
	"github.com/mindhaven/bastion/pkg/events"
	"github.com/mindhaven/bastion/pkg/guardrail"
	"github.com/mindhaven/bastion/pkg/respond"
	"github.com/mindhaven/bastion/pkg/safety"
	"github.com/mindhaven/bastion/pkg/storage"
)

type server struct {
	cfg        *config.Config
	log        *slog.Logger
	classifier *safety.Classifier
	escalator  *crisis.Escalator
	responder  *respond.Responder
	broker     *events.Broker
	db         *storage.DB
}

func (s *server) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Bastion",
	})

	app.Get("/health", s.handleHealth)

	v1 := app.Group("/v1")
	v1.Post("/classify", s.handleClassify)
	v1.Post("/moderate", s.handleModerate)
	v1.Post("/escalate", s.handleEscalate)
	v1.Get("/crisis/message", s.handleCrisisMessage)
	v1.Get("/crisis/resources", s.handleCrisisResources)
	v1.Get("/events", s.handleEvents)
	v1.Get("/flags", s.handleListFlags)

	return app
}

func (s *server) handleHealth(c fiber.Ctx) error {
	resp := fiber.Map{
		"status":    "ok",
		"version":   Version,
		"persisted": s.db != nil,
	}
	if s.db != nil {
		if err := s.db.Ping(c.Context()); err != nil {
			resp["status"] = "degraded"
			resp["persisted"] = false
		}
	}
	if s.escalator != nil {
		resp["escalations"] = s.escalator.Stats()
	}
	return c.JSON(resp)
}

type classifyRequest struct {
	Text           string   `json:"text"`
	History        []string `json:"history"`
	ConversationID string   `json:"conversation_id"`
	UserID         string   `json:"user_id"`
}

func (s *server) handleClassify(c fiber.Ctx) error {
	var req classifyRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "text field is required"})
	}

	level := s.classifier.Classify(c.Context(), req.Text, req.History)

	// A crisis-grade message with known identifiers starts escalation without
	// holding up the response.
	if level.Crisis() && s.escalator != nil && req.ConversationID != "" && req.UserID != "" {
		s.escalator.Escalate(req.ConversationID, req.UserID, req.Text)
	}

	return c.JSON(fiber.Map{
		"risk_level":    level.String(),
		"crisis":        level.Crisis(),
		"safety_prompt": safety.SafetyPrompt(level),
	})
}

type moderateRequest struct {
	Reply    string `json:"reply"`
	UserRisk string `json:"user_risk"`
}

func (s *server) handleModerate(c fiber.Ctx) error {
	var req moderateRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	userRisk := safety.RiskNone
	if req.UserRisk != "" {
		var err error
		userRisk, err = safety.ParseRiskLevel(req.UserRisk)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	g := guardrail.New(s.log)
	result := g.Check(req.Reply, userRisk)
	return c.JSON(result)
}

type escalateRequest struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

func (s *server) handleEscalate(c fiber.Ctx) error {
	if s.escalator == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "escalation requires a configured database",
		})
	}

	var req escalateRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.ConversationID == "" || req.UserID == "" || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "conversation_id, user_id and text are required",
		})
	}

	s.escalator.Escalate(req.ConversationID, req.UserID, req.Text)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "accepted"})
}

func (s *server) handleCrisisMessage(c fiber.Ctx) error {
	lang := c.Query("lang", "en")
	return c.JSON(fiber.Map{
		"language": lang,
		"message":  s.responder.CrisisMessage(lang),
	})
}

func (s *server) handleCrisisResources(c fiber.Ctx) error {
	level := safety.RiskHigh
	if raw := c.Query("level"); raw != "" {
		var err error
		level, err = safety.ParseRiskLevel(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	resources := s.responder.CrisisResources(c.Context(), level, c.Query("lang", "en"), c.Query("region"))
	if resources == nil {
		resources = []respond.Resource{}
	}
	return c.JSON(fiber.Map{"resources": resources})
}

func (s *server) handleListFlags(c fiber.Ctx) error {
	if s.db == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "flag listing requires a configured database",
		})
	}
	flags, err := s.db.ListRecentFlags(c.Context(), fiber.Query[int](c, "limit", 50))
	if err != nil {
		s.log.Error("flag listing failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	if flags == nil {
		flags = []crisis.Flag{}
	}
	return c.JSON(fiber.Map{"flags": flags})
}

// handleEvents streams crisis flag events as server-sent events for the
// operator dashboard.
func (s *server) handleEvents(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ch, cancel := s.broker.Subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		for event := range ch {
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: flag_created\ndata: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// Client went away
				return
			}
		}
	})
}
