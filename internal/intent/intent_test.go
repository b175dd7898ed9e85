package intent

import (
	"context"
	"errors"
	"testing"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	cases := []struct {
		text string
		want Intent
	}{
		{"quiero agendar una cita", IntentAppointment},
		{"quiero una cita", IntentAppointment},
		{"quiero ver mis citas", IntentCheckAppointments},
		{"tengo una duda", IntentFAQ},
		{"tengo un problema con la app", IntentSupport},
		{"gracias, chao", IntentEndConversation},
		{"hola", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tc := range cases {
		got, err := c.Classify(context.Background(), tc.text, "")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", tc.text, err)
		}
		if got != tc.want {
			t.Errorf("%q: got %s, want %s", tc.text, got, tc.want)
		}
	}
}

// fixedEmbedder returns canned vectors keyed by input text, so similarity
// scores are fully deterministic.
type fixedEmbedder struct {
	vectors map[string][]float64
	err     error
}

func (f *fixedEmbedder) Embed(_ context.Context, inputs []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(inputs))
	for i, in := range inputs {
		v, ok := f.vectors[in]
		if !ok {
			v = []float64{0, 0, 1}
		}
		out[i] = v
	}
	return out, nil
}

func newAxisEmbedder() *fixedEmbedder {
	// Each intent's examples sit on one axis of a small orthogonal basis.
	axes := map[Intent][]float64{
		IntentAppointment:       {1, 0, 0, 0, 0},
		IntentCheckAppointments: {0, 1, 0, 0, 0},
		IntentFAQ:               {0, 0, 1, 0, 0},
		IntentSupport:           {0, 0, 0, 1, 0},
		IntentEndConversation:   {0, 0, 0, 0, 1},
	}
	vectors := make(map[string][]float64)
	for it, examples := range workedExamples {
		for _, ex := range examples {
			vectors[ex] = axes[it]
		}
	}
	return &fixedEmbedder{vectors: vectors}
}

func TestEmbeddingClassifier_AcceptsHighConfidence(t *testing.T) {
	embedder := newAxisEmbedder()
	embedder.vectors["resérvame algo"] = []float64{1, 0.1, 0, 0, 0}
	c, err := NewEmbeddingClassifier(context.Background(), embedder)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	got, err := c.Classify(context.Background(), "resérvame algo", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentAppointment {
		t.Errorf("got %s, want %s", got, IntentAppointment)
	}
}

func TestEmbeddingClassifier_RejectsNearTie(t *testing.T) {
	embedder := newAxisEmbedder()
	// Equidistant from two centroids with moderate confidence: no lead.
	embedder.vectors["ambiguo"] = []float64{1, 1, 0, 0, 0}
	c, err := NewEmbeddingClassifier(context.Background(), embedder)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	got, err := c.Classify(context.Background(), "ambiguo", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentUnknown {
		t.Errorf("near-tie accepted as %s, want unknown", got)
	}
}

func TestEmbeddingClassifier_RejectsWeakMatch(t *testing.T) {
	embedder := newAxisEmbedder()
	embedder.vectors["lejano"] = []float64{0.3, 0, 0, 0, 0.29}
	c, err := NewEmbeddingClassifier(context.Background(), embedder)
	if err != nil {
		t.Fatalf("building classifier: %v", err)
	}
	got, err := c.Classify(context.Background(), "lejano", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentUnknown {
		t.Errorf("weak match accepted as %s, want unknown", got)
	}
}

func TestDetector_FallsThroughOnError(t *testing.T) {
	failing := classifierFunc(func(ctx context.Context, text, rc string) (Intent, error) {
		return IntentUnknown, errors.New("strategy down")
	})
	d := NewDetectorWithChain(failing, NewKeywordClassifier())
	got, err := d.Classify(context.Background(), "quiero agendar una cita", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentAppointment {
		t.Errorf("got %s, want %s", got, IntentAppointment)
	}
}

func TestDetector_FallsThroughOnUnknown(t *testing.T) {
	undecided := classifierFunc(func(ctx context.Context, text, rc string) (Intent, error) {
		return IntentUnknown, nil
	})
	d := NewDetectorWithChain(undecided, NewKeywordClassifier())
	got, err := d.Classify(context.Background(), "hasta luego", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentEndConversation {
		t.Errorf("got %s, want %s", got, IntentEndConversation)
	}
}

func TestDetector_ProbeFailureKeepsKeywords(t *testing.T) {
	d := NewDetector(context.Background(), &fixedEmbedder{err: errors.New("unreachable")})
	got, err := d.Classify(context.Background(), "quiero reservar", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != IntentAppointment {
		t.Errorf("got %s, want %s", got, IntentAppointment)
	}
}

// classifierFunc adapts a function to the Classifier interface.
type classifierFunc func(ctx context.Context, text, recentContext string) (Intent, error)

func (f classifierFunc) Classify(ctx context.Context, text, recentContext string) (Intent, error) {
	return f(ctx, text, recentContext)
}
