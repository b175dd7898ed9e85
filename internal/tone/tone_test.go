package tone

import (
	"strings"
	"testing"
)

func TestNormalizeAcceptsWhitelistedTags(t *testing.T) {
	got, err := Normalize([]string{" Concise ", "emojis_ok", "concise"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(got) != 2 || got[0] != "concise" || got[1] != "emojis_ok" {
		t.Errorf("Normalize = %v, want [concise emojis_ok]", got)
	}
}

func TestNormalizeRejectsUnknownTag(t *testing.T) {
	if _, err := Normalize([]string{"concise", "sarcastic"}); err == nil {
		t.Fatal("expected error for unknown tag")
	}
}

func TestNormalizeResolvesExclusivePairs(t *testing.T) {
	got, err := Normalize([]string{"detailed", "concise", "formal", "casual"})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	joined := strings.Join(got, ",")
	if strings.Contains(joined, "detailed") {
		t.Errorf("detailed should lose to concise: %v", got)
	}
	if strings.Contains(joined, "casual") {
		t.Errorf("casual should lose to formal: %v", got)
	}
	if !strings.Contains(joined, "concise") || !strings.Contains(joined, "formal") {
		t.Errorf("winners missing: %v", got)
	}
}

func TestBuildGuideEmptyWithoutTags(t *testing.T) {
	if guide := BuildGuide(nil); guide != "" {
		t.Errorf("BuildGuide(nil) = %q, want empty", guide)
	}
}

func TestBuildGuideContents(t *testing.T) {
	guide := BuildGuide([]string{"concise", "no_emojis", "warm_supportive"})
	for _, want := range []string{"conciso", "NO uses emojis", "cálido"} {
		if !strings.Contains(guide, want) {
			t.Errorf("guide missing %q:\n%s", want, guide)
		}
	}
	if strings.Contains(guide, "Puedes usar emojis") {
		t.Error("no_emojis must suppress the emoji allowance")
	}
}
