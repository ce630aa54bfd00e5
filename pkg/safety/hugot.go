package safety

// hugot.go - Local ML-based risk scoring using Hugot/ONNX text classification.
//
// Runs fully local with no external API calls. Disabled by default; set
// BASTION_ENABLE_HUGOT=true to opt in. Gracefully degrades to no score when
// the model or ONNX Runtime is unavailable.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
	"github.com/knights-analytics/hugot/pipelines"
)

// HugotScoringEnabled reports whether local Hugot/ONNX scoring should be
// enabled. Default is disabled so installs stay quiet unless opted in.
func HugotScoringEnabled() bool {
	if isTrue(os.Getenv("BASTION_ENABLE_HUGOT")) {
		return true
	}
	if isTrue(os.Getenv("HUGOT_ENABLED")) {
		return true
	}
	return false
}

func isTrue(v string) bool {
	switch v {
	case "1", "true", "TRUE", "yes", "YES", "on", "ON":
		return true
	default:
		return false
	}
}

// HugotConfig configures the local scoring model.
type HugotConfig struct {
	// ModelPath is the local path to the ONNX model directory.
	// If empty and ModelName is set, the model will be downloaded.
	ModelPath string

	// ModelName is the HuggingFace model name used for download when
	// ModelPath is absent.
	ModelName string

	// OnnxLibraryPath is the directory holding libonnxruntime. Empty means
	// fall back to the pure Go backend.
	OnnxLibraryPath string

	// BatchSize is the maximum batch size for inference (default: 16).
	BatchSize int

	// Timeout is the maximum time for a single inference call.
	Timeout time.Duration
}

// DefaultHugotConfig returns the default configuration using a public
// suicidality text-classification model.
func DefaultHugotConfig() HugotConfig {
	return HugotConfig{
		ModelName:       "sentinet/suicidality",
		ModelPath:       "./models/suicidality",
		OnnxLibraryPath: defaultOnnxPath(),
		BatchSize:       16,
		Timeout:         30 * time.Second,
	}
}

// AutoDetectHugotConfig returns a config for a locally present model, or nil
// when no model is found. HUGOT_MODEL_PATH takes priority.
func AutoDetectHugotConfig() *HugotConfig {
	if envPath := os.Getenv("HUGOT_MODEL_PATH"); envPath != "" {
		if _, err := os.Stat(filepath.Join(envPath, "model.onnx")); err == nil {
			cfg := DefaultHugotConfig()
			cfg.ModelName = ""
			cfg.ModelPath = envPath
			return &cfg
		}
	}

	cfg := DefaultHugotConfig()
	if _, err := os.Stat(filepath.Join(cfg.ModelPath, "model.onnx")); err == nil {
		return &cfg
	}
	return nil
}

// HugotScorer scores messages with a local ONNX text-classification model.
type HugotScorer struct {
	session  *hugot.Session
	pipeline *pipelines.TextClassificationPipeline
	mu       sync.RWMutex
	config   HugotConfig
	ready    bool
}

// NewAutoDetectedHugotScorer creates a scorer from an auto-detected model.
// Returns nil when scoring is disabled or no model is available.
func NewAutoDetectedHugotScorer(log *slog.Logger) *HugotScorer {
	if !HugotScoringEnabled() {
		return nil
	}
	cfg := AutoDetectHugotConfig()
	if cfg == nil {
		log.Warn("hugot scoring enabled but no local model found",
			"hint", "set HUGOT_MODEL_PATH or place a model under ./models")
		return nil
	}
	scorer, err := NewHugotScorer(*cfg)
	if err != nil {
		log.Warn("hugot scorer initialization failed", "error", err)
		return nil
	}
	return scorer
}

// NewHugotScorer creates a scorer with the specified configuration.
func NewHugotScorer(cfg HugotConfig) (*HugotScorer, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 16
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := &HugotScorer{config: cfg}
	if err := s.initialize(); err != nil {
		return nil, fmt.Errorf("safety: hugot initialization: %w", err)
	}
	return s, nil
}

func (s *HugotScorer) initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.createSession()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	s.session = session

	modelPath, err := s.resolveModelPath()
	if err != nil {
		_ = s.session.Destroy()
		return fmt.Errorf("resolve model path: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.TextClassificationConfig{
		ModelPath: modelPath,
		Name:      "crisis-risk-scorer",
	})
	if err != nil {
		_ = s.session.Destroy()
		return fmt.Errorf("create pipeline: %w", err)
	}

	s.pipeline = pipeline
	s.ready = true
	return nil
}

func (s *HugotScorer) createSession() (*hugot.Session, error) {
	// Prefer the ONNX Runtime backend when the native library is present
	if s.config.OnnxLibraryPath != "" {
		session, err := hugot.NewORTSession(
			options.WithOnnxLibraryPath(s.config.OnnxLibraryPath),
		)
		if err == nil {
			return session, nil
		}
	}

	// Pure Go backend: slower but dependency-free
	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("create Go session: %w", err)
	}
	return session, nil
}

func (s *HugotScorer) resolveModelPath() (string, error) {
	if s.config.ModelPath != "" {
		if _, err := os.Stat(s.config.ModelPath); err == nil {
			return s.config.ModelPath, nil
		}
	}
	if s.config.ModelName == "" {
		return "", fmt.Errorf("no model path or name specified")
	}

	modelsDir := "./models"
	if err := os.MkdirAll(modelsDir, 0o755); err != nil {
		return "", fmt.Errorf("create models directory: %w", err)
	}

	modelPath, err := hugot.DownloadModel(s.config.ModelName, modelsDir, hugot.NewDownloadOptions())
	if err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	return modelPath, nil
}

// IsReady reports whether the model is loaded and usable.
func (s *HugotScorer) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// isRiskLabel maps model-specific label conventions onto the risk class.
func isRiskLabel(label string) bool {
	switch label {
	case "suicidal", "suicide", "crisis", "risk", "LABEL_1":
		return true
	default:
		return false
	}
}

// Score runs the classification model and converts its confidence into a
// risk probability. ok=false when the model is not loaded.
func (s *HugotScorer) Score(ctx context.Context, text string) (float64, bool, error) {
	if strings.TrimSpace(text) == "" {
		return 0, false, ErrBlankText
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready || s.pipeline == nil {
		return 0, false, nil
	}

	result, err := s.pipeline.RunPipeline([]string{text})
	if err != nil {
		return 0, false, fmt.Errorf("safety: hugot classification: %w", err)
	}
	if len(result.ClassificationOutputs) == 0 || len(result.ClassificationOutputs[0]) == 0 {
		return 0, false, nil
	}

	out := result.ClassificationOutputs[0][0]
	confidence := clampScore(float64(out.Score))
	if isRiskLabel(out.Label) {
		return confidence, true, nil
	}
	// Binary safe/risk model: confidence in the safe label implies the
	// complement as risk probability
	return clampScore(1 - confidence), true, nil
}

// Close releases the underlying ONNX session.
func (s *HugotScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = false
	if s.session != nil {
		if err := s.session.Destroy(); err != nil {
			return fmt.Errorf("safety: destroy session: %w", err)
		}
	}
	return nil
}

func defaultOnnxPath() string {
	paths := []string{
		"/usr/lib/libonnxruntime.so",
		"/usr/local/lib/libonnxruntime.so",
		"/opt/homebrew/lib/libonnxruntime.dylib",
		"/usr/local/lib/libonnxruntime.dylib",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return filepath.Dir(p)
		}
	}
	return ""
}
