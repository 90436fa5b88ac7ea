package summarizer

import (
	"strings"
	"testing"

	"webrag/internal/config"
)

const page = `Honey bees live in colonies. Honey bees dance to share where flowers are.
The weather was nice yesterday.
Foragers follow the dance of honey bees to reach flowers quickly!`

func TestSummarizePicksFrequentSentencesInOrder(t *testing.T) {
	got, err := NewFrequencySummarizer().Summarize(page, 2)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if strings.Contains(got, "weather") {
		t.Fatalf("off-topic sentence selected: %q", got)
	}
	first := strings.Index(got, "Honey bees dance")
	second := strings.Index(got, "Foragers follow")
	if first < 0 || second < 0 || first > second {
		t.Fatalf("expected on-topic sentences in page order, got %q", got)
	}
}

func TestSummarizeShortText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"Just one line without a full stop", "Just one line without a full stop"},
		{"Alpha. Beta.", "Alpha. Beta."},
	}
	for _, tt := range tests {
		got, err := NewFrequencySummarizer().Summarize(tt.in, 3)
		if err != nil {
			t.Fatalf("summarize(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("summarize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	if _, err := New(config.SummarizerConfig{Type: "frequency"}); err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := New(config.SummarizerConfig{Type: "llm"}); err == nil {
		t.Fatal("expected error for unknown summarizer")
	}
}
