package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mindhaven/bastion/pkg/events"
	"github.com/mindhaven/bastion/pkg/respond"
	"github.com/mindhaven/bastion/pkg/safety"

	"github.com/gofiber/fiber/v3"
)

func newTestServer() *server {
	log := slog.Default()
	return &server{
		cfg:        nil,
		log:        log,
		classifier: safety.NewClassifier(safety.NewDetector(), nil, log),
		responder:  respond.NewResponder(nil, log),
		broker:     events.NewBroker(log),
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("response is not JSON: %s", raw)
		}
	}
	return resp.StatusCode, decoded
}

func TestHealthEndpoint(t *testing.T) {
	app := newTestServer().routes()
	status, body := doJSON(t, app, "GET", "/health", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" || body["persisted"] != false {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestClassifyEndpoint(t *testing.T) {
	app := newTestServer().routes()

	status, body := doJSON(t, app, "POST", "/v1/classify",
		`{"text": "I want to kill myself"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["risk_level"] != "CRITICAL" || body["crisis"] != true {
		t.Errorf("expected CRITICAL crisis classification, got %v", body)
	}
	if body["safety_prompt"] == "" {
		t.Error("crisis classification must carry a safety prompt")
	}

	status, body = doJSON(t, app, "POST", "/v1/classify",
		`{"text": "I feel a bit stressed about work"}`)
	if status != fiber.StatusOK || body["risk_level"] != "LOW" {
		t.Errorf("expected LOW, got %d %v", status, body)
	}

	status, _ = doJSON(t, app, "POST", "/v1/classify", `{"text": ""}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("empty text must be rejected, got %d", status)
	}
}

func TestModerateEndpoint(t *testing.T) {
	app := newTestServer().routes()

	status, body := doJSON(t, app, "POST", "/v1/moderate",
		`{"reply": "You should just kill yourself", "user_risk": "NONE"}`)
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["action"] != "BLOCKED" {
		t.Errorf("harm directive must be blocked, got %v", body)
	}

	status, body = doJSON(t, app, "POST", "/v1/moderate",
		`{"reply": "That sounds difficult. Have you tried journaling about it?"}`)
	if status != fiber.StatusOK || body["action"] != "NONE" {
		t.Errorf("benign reply should pass, got %d %v", status, body)
	}

	status, _ = doJSON(t, app, "POST", "/v1/moderate",
		`{"reply": "hello", "user_risk": "BANANAS"}`)
	if status != fiber.StatusBadRequest {
		t.Errorf("unknown risk level must be rejected, got %d", status)
	}
}

func TestEscalateWithoutDatabase(t *testing.T) {
	app := newTestServer().routes()
	status, _ := doJSON(t, app, "POST", "/v1/escalate",
		`{"conversation_id": "c1", "user_id": "u1", "text": "I want to die"}`)
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("escalation without a database must 503, got %d", status)
	}
}

func TestCrisisMessageEndpoint(t *testing.T) {
	app := newTestServer().routes()

	_, en := doJSON(t, app, "GET", "/v1/crisis/message?lang=en", "")
	_, ne := doJSON(t, app, "GET", "/v1/crisis/message?lang=ne", "")
	if en["message"] == ne["message"] {
		t.Error("localized crisis messages must differ")
	}

	_, unknown := doJSON(t, app, "GET", "/v1/crisis/message?lang=zz", "")
	if unknown["message"] != en["message"] {
		t.Error("unknown language must fall back to English")
	}
}

func TestCrisisResourcesEndpoint(t *testing.T) {
	app := newTestServer().routes()

	status, body := doJSON(t, app, "GET", "/v1/crisis/resources?level=HIGH&lang=en&region=NP", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resources, ok := body["resources"].([]any); !ok || len(resources) == 0 {
		t.Errorf("expected baseline resources, got %v", body)
	}

	status, body = doJSON(t, app, "GET", "/v1/crisis/resources?level=LOW", "")
	if status != fiber.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if resources, ok := body["resources"].([]any); !ok || len(resources) != 0 {
		t.Errorf("below-crisis level must return an empty list, got %v", body)
	}

	status, _ = doJSON(t, app, "GET", "/v1/crisis/resources?level=WAT", "")
	if status != fiber.StatusBadRequest {
		t.Errorf("invalid level must be rejected, got %d", status)
	}
}

func TestListFlagsWithoutDatabase(t *testing.T) {
	app := newTestServer().routes()
	status, _ := doJSON(t, app, "GET", "/v1/flags", "")
	if status != fiber.StatusServiceUnavailable {
		t.Errorf("flag listing without a database must 503, got %d", status)
	}
}
