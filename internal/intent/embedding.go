// Embedding-similarity strategy.
package intent

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// Acceptance thresholds for the similarity strategy. The top-scoring intent
// wins only with strong absolute confidence, or with moderate confidence
// plus a clear lead over the runner-up. The two-part rule blocks both weak
// matches and ambiguous near-ties.
const (
	highThreshold   = 0.78
	mediumThreshold = 0.62
	minimumLead     = 0.08
)

// ErrEmptyEmbedding is returned when the service yields a zero vector.
var ErrEmptyEmbedding = errors.New("embedding has no magnitude")

// Embedder is the narrow capability the similarity classifier consumes.
// *genai.Client satisfies it.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float64, error)
}

// workedExamples are the per-intent reference utterances whose embedding
// centroids incoming messages are scored against.
var workedExamples = map[Intent][]string{
	IntentAppointment: {
		"quiero una cita",
		"quiero agendar una cita",
		"necesito reservar un turno",
		"me gustaría programar una hora",
		"tienen disponibilidad esta semana",
	},
	IntentCheckAppointments: {
		"quiero ver mis citas",
		"qué citas tengo pendientes",
		"consultar mis citas agendadas",
	},
	IntentFAQ: {
		"tengo una pregunta",
		"necesito información sobre sus servicios",
		"cuánto cuesta el servicio",
		"cuál es el horario de atención",
	},
	IntentSupport: {
		"tengo un problema con mi cuenta",
		"algo no funciona",
		"necesito hablar con soporte",
	},
	IntentEndConversation: {
		"gracias, eso es todo",
		"hasta luego",
		"adiós, nos vemos",
	},
}

// EmbeddingClassifier scores input similarity against per-intent centroids.
type EmbeddingClassifier struct {
	embedder  Embedder
	centroids map[Intent][]float64
}

// NewEmbeddingClassifier embeds the worked examples and precomputes one
// centroid per intent. It fails when the embedding service is unreachable,
// which callers treat as "strategy unavailable".
func NewEmbeddingClassifier(ctx context.Context, embedder Embedder) (*EmbeddingClassifier, error) {
	centroids := make(map[Intent][]float64, len(workedExamples))
	for it, examples := range workedExamples {
		vectors, err := embedder.Embed(ctx, examples)
		if err != nil {
			return nil, fmt.Errorf("embedding examples for %s: %w", it, err)
		}
		centroid, err := average(vectors)
		if err != nil {
			return nil, fmt.Errorf("averaging examples for %s: %w", it, err)
		}
		centroids[it] = centroid
	}
	return &EmbeddingClassifier{embedder: embedder, centroids: centroids}, nil
}

// Classify embeds the message and applies the two-part acceptance rule
// against the centroid scores.
func (c *EmbeddingClassifier) Classify(ctx context.Context, text, _ string) (Intent, error) {
	vectors, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return IntentUnknown, fmt.Errorf("embedding message: %w", err)
	}
	if len(vectors) == 0 {
		return IntentUnknown, ErrEmptyEmbedding
	}
	input := vectors[0]

	top, runnerUp := math.Inf(-1), math.Inf(-1)
	best := IntentUnknown
	for it, centroid := range c.centroids {
		score, err := cosine(input, centroid)
		if err != nil {
			return IntentUnknown, err
		}
		if score > top {
			runnerUp = top
			top = score
			best = it
		} else if score > runnerUp {
			runnerUp = score
		}
	}

	if top >= highThreshold {
		return best, nil
	}
	if top >= mediumThreshold && top-runnerUp >= minimumLead {
		return best, nil
	}
	return IntentUnknown, nil
}

func average(vectors [][]float64) ([]float64, error) {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, ErrEmptyEmbedding
	}
	out := make([]float64, len(vectors[0]))
	for _, v := range vectors {
		if len(v) != len(out) {
			return nil, fmt.Errorf("embedding dimensions differ: %d vs %d", len(v), len(out))
		}
		for i, x := range v {
			out[i] += x
		}
	}
	for i := range out {
		out[i] /= float64(len(vectors))
	}
	return out, nil
}

func cosine(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, ErrEmptyEmbedding
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
