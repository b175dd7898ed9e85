// Strategy chain assembly.
package intent

import (
	"context"
	"log/slog"
)

// Detector runs a fixed-priority chain of classification strategies. A
// strategy error or an UNKNOWN verdict falls through to the next link;
// the verdict is UNKNOWN only when every link says so.
type Detector struct {
	chain []Classifier
}

// NewDetector assembles the chain by probing the embedding service once.
// The embedder may be nil or unreachable; the keyword classifier is always
// the terminal link, so the detector itself is never unavailable.
func NewDetector(ctx context.Context, embedder Embedder) *Detector {
	var chain []Classifier
	if embedder != nil {
		ec, err := NewEmbeddingClassifier(ctx, embedder)
		if err != nil {
			slog.Warn("Detector embedding strategy unavailable, continuing with keywords", "error", err)
		} else {
			chain = append(chain, ec)
			slog.Info("Detector embedding strategy enabled")
		}
	}
	chain = append(chain, NewKeywordClassifier())
	return &Detector{chain: chain}
}

// NewDetectorWithChain builds a detector over an explicit strategy list.
func NewDetectorWithChain(chain ...Classifier) *Detector {
	return &Detector{chain: chain}
}

// Classify walks the chain and returns the first confident verdict.
func (d *Detector) Classify(ctx context.Context, text, recentContext string) (Intent, error) {
	for _, c := range d.chain {
		verdict, err := c.Classify(ctx, text, recentContext)
		if err != nil {
			slog.Warn("Detector strategy failed, falling through", "error", err)
			continue
		}
		if verdict != IntentUnknown {
			return verdict, nil
		}
	}
	return IntentUnknown, nil
}
