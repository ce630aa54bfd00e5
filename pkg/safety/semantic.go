package safety

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/mindhaven/bastion/pkg/httputil"
)

// crisisExemplar is a seed phrase with a prior risk weight. Weight 0 marks a
// benign phrase used for false-positive prevention.
type crisisExemplar struct {
	Text   string
	Label  string
	Weight float32
}

// SemanticScorer scores messages by embedding similarity against curated
// crisis and benign exemplars. It catches paraphrases the keyword tiers miss
// ("I can't see a way forward anymore") while the benign set keeps idioms
// like "this deadline is killing me" from scoring.
type SemanticScorer struct {
	db         *chromem.DB
	collection *chromem.Collection
	threshold  float32
	mu         sync.RWMutex
	ready      bool
}

// NewSemanticScorer creates a scorer with the given embedding source.
func NewSemanticScorer(embeddingFunc chromem.EmbeddingFunc) (*SemanticScorer, error) {
	if embeddingFunc == nil {
		return nil, fmt.Errorf("safety: embedding func is nil")
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("crisis_exemplars", nil, embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("safety: create collection: %w", err)
	}

	return &SemanticScorer{
		db:         db,
		collection: collection,
		threshold:  0.65,
	}, nil
}

// NewRemoteEmbeddingScorer creates a scorer backed by an HTTP embedding
// endpoint (Ollama-style /api/embeddings).
func NewRemoteEmbeddingScorer(model, baseURL string) (*SemanticScorer, error) {
	return NewSemanticScorer(newRemoteEmbeddingFunc(model, baseURL))
}

func newRemoteEmbeddingFunc(model, baseURL string) chromem.EmbeddingFunc {
	client := httputil.MediumClient()

	return func(ctx context.Context, text string) ([]float32, error) {
		reqBody := map[string]string{
			"model":  model,
			"prompt": text,
		}
		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("safety: marshal embedding request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/api/embeddings", bytes.NewBuffer(jsonData))
		if err != nil {
			return nil, fmt.Errorf("safety: build embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("safety: embedding request: %w", err)
		}
		defer httputil.DrainAndClose(resp.Body)

		if resp.StatusCode != http.StatusOK {
			errBody, _ := httputil.ReadErrorBody(resp.Body)
			return nil, fmt.Errorf("safety: embedding service returned %d: %s", resp.StatusCode, string(errBody))
		}

		var result struct {
			Embedding []float32 `json:"embedding"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("safety: decode embedding response: %w", err)
		}

		return result.Embedding, nil
	}
}

// LoadExemplars embeds the curated exemplar set into the vector store.
// Must be called before Score returns usable results.
func (s *SemanticScorer) LoadExemplars(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exemplars := getCrisisExemplars()
	docs := make([]chromem.Document, len(exemplars))
	for i, e := range exemplars {
		docs[i] = chromem.Document{
			ID:      fmt.Sprintf("exemplar_%d", i),
			Content: e.Text,
			Metadata: map[string]string{
				"label":  e.Label,
				"weight": fmt.Sprintf("%.2f", e.Weight),
			},
		}
	}

	// One worker keeps the embedding endpoint from being flooded at startup
	if err := s.collection.AddDocuments(ctx, docs, 1); err != nil {
		return fmt.Errorf("safety: add exemplars: %w", err)
	}

	s.ready = true
	return nil
}

// IsReady reports whether exemplars have been loaded.
func (s *SemanticScorer) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SetThreshold updates the similarity threshold.
func (s *SemanticScorer) SetThreshold(t float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threshold = t
}

// Score returns the similarity-weighted risk of the nearest crisis exemplar.
// ok=false when the scorer is not ready or no exemplar is close enough to
// carry signal.
func (s *SemanticScorer) Score(ctx context.Context, text string) (float64, bool, error) {
	if strings.TrimSpace(text) == "" {
		return 0, false, ErrBlankText
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.ready {
		return 0, false, nil
	}

	// Lowercasing improves embedding similarity for short messages
	results, err := s.collection.Query(ctx, strings.ToLower(text), 3, nil, nil)
	if err != nil {
		return 0, false, fmt.Errorf("safety: exemplar query: %w", err)
	}
	if len(results) == 0 {
		return 0, false, nil
	}

	best := results[0]
	if best.Metadata["label"] == "benign" && best.Similarity > s.threshold {
		return 0, true, nil
	}
	if best.Similarity < s.threshold {
		return 0, false, nil
	}

	var weight float32
	if _, err := fmt.Sscanf(best.Metadata["weight"], "%f", &weight); err != nil {
		weight = 1
	}
	return clampScore(float64(best.Similarity * weight)), true, nil
}

// ExemplarCount returns the number of seed phrases.
func (s *SemanticScorer) ExemplarCount() int {
	return len(getCrisisExemplars())
}

// cached exemplar slice, immutable after initialization
var (
	cachedExemplars     []crisisExemplar
	cachedExemplarsOnce sync.Once
)

func getCrisisExemplars() []crisisExemplar {
	cachedExemplarsOnce.Do(func() {
		cachedExemplars = []crisisExemplar{
			// Direct statements of intent
			{"I am going to kill myself tonight", "crisis", 1.0},
			{"I have a plan to end my life", "crisis", 1.0},
			{"I bought the pills and I'm ready to go", "crisis", 1.0},
			{"this is my final goodbye to everyone", "crisis", 0.95},
			{"I want to die and nothing can change that", "crisis", 0.95},

			// Paraphrased ideation without trigger keywords
			{"I can't see a way forward anymore", "crisis", 0.8},
			{"everyone would be happier if I just disappeared", "crisis", 0.85},
			{"I don't think I'll be around much longer", "crisis", 0.85},
			{"I keep thinking about not waking up", "crisis", 0.8},
			{"what's the point of staying alive", "crisis", 0.8},

			// Self-injury
			{"I cut myself again last night", "crisis", 0.85},
			{"I hurt myself when it gets too much", "crisis", 0.8},
			{"the scratching turned into something worse", "crisis", 0.7},

			// Severe despair
			{"I am completely hopeless and can't go on", "crisis", 0.7},
			{"nothing matters anymore, I give up on everything", "crisis", 0.65},

			// Benign idioms that must not score
			{"this deadline is killing me", "benign", 0},
			{"I'm dying to see the new season", "benign", 0},
			{"my feet are killing me after that hike", "benign", 0},
			{"I killed it in my interview today", "benign", 0},
			{"that workout destroyed me", "benign", 0},
			{"I could murder a pizza right now", "benign", 0},
			{"work has been really stressful lately", "benign", 0},
		}
	})
	return cachedExemplars
}
