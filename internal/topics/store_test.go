package topics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/p-n-ai/ganitha/internal/question"
)

func TestNewDefaultStore_BuiltInTopics(t *testing.T) {
	s, err := NewDefaultStore("")
	if err != nil {
		t.Fatalf("NewDefaultStore() error = %v", err)
	}

	want := []string{"පොළිය", "සමීකරණ", "කොටස් වෙළෙඳපොළ", "ලඝුගණක", "ශ්‍රීඝ්‍රතාවය", "සමාන්තර ශ්‍රේණි"}
	if s.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d (topics: %v)", s.Len(), len(want), s.Topics())
	}
	for _, name := range want {
		cfg, ok := s.Lookup(name)
		if !ok {
			t.Errorf("Lookup(%q) not found", name)
			continue
		}
		if cfg.Topic != name {
			t.Errorf("Lookup(%q).Topic = %q", name, cfg.Topic)
		}
	}

	cfg, _ := s.Lookup("පොළිය")
	easy, ok := cfg.Params(question.Easy)
	if !ok {
		t.Fatal("Params(easy) not found")
	}
	if easy.Steps != (Range{Min: 2, Max: 3}) {
		t.Errorf("easy.Steps = %v, want 2-3", easy.Steps)
	}
	if cfg.PromptTemplate == "" {
		t.Error("PromptTemplate should not be empty for පොළිය")
	}

	ap, _ := s.Lookup("සමාන්තර ශ්‍රේණි")
	if ap.PromptTemplate != "" {
		t.Errorf("සමාන්තර ශ්‍රේණි should have no prompt template, got %q", ap.PromptTemplate)
	}
}

func TestLookup_UnknownTopicFallsBackToDefault(t *testing.T) {
	s, err := NewDefaultStore("")
	if err != nil {
		t.Fatalf("NewDefaultStore() error = %v", err)
	}

	cfg, ok := s.Lookup("unknown-topic")
	if ok {
		t.Error("Lookup(unknown-topic) ok = true, want false")
	}
	if cfg.Topic != DefaultTopic {
		t.Errorf("Lookup(unknown-topic).Topic = %q, want %q", cfg.Topic, DefaultTopic)
	}
	if _, ok := cfg.Params(question.Medium); !ok {
		t.Error("default config should have medium params")
	}
}

func TestLookup_EmptyStore(t *testing.T) {
	cfg, ok := NewStore().Lookup("anything")
	if ok {
		t.Error("ok = true on empty store")
	}
	if _, found := cfg.Params(question.Hard); found {
		t.Error("empty default should have no params")
	}
}

func TestParams_FallsBackToMedium(t *testing.T) {
	medium := &Params{Steps: Range{Min: 3, Max: 4}, Description: "medium"}
	cfg := Config{Topic: "x", Difficulty: Difficulties{Medium: medium}}

	for _, d := range []question.Difficulty{question.Easy, question.Hard, "unknown"} {
		p, ok := cfg.Params(d)
		if !ok {
			t.Fatalf("Params(%q) not found", d)
		}
		if p.Description != "medium" {
			t.Errorf("Params(%q).Description = %q, want medium", d, p.Description)
		}
	}
}

func TestLoadDir_OverridesAndSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "interest.yaml"), `
topic: පොළිය
difficulty:
  medium:
    steps: "5-6"
    description: overridden
`)
	writeFile(t, filepath.Join(dir, "nested", "probability.yml"), `
topic: සම්භාවිතාව
difficulty:
  easy:
    steps: "2"
`)
	writeFile(t, filepath.Join(dir, "broken.yaml"), "topic: [unterminated")
	writeFile(t, filepath.Join(dir, "badrange.yaml"), `
topic: bad
difficulty:
  easy:
    steps: "4-2"
`)
	writeFile(t, filepath.Join(dir, "notes.md"), "# ignored")

	s, err := NewDefaultStore(dir)
	if err != nil {
		t.Fatalf("NewDefaultStore() error = %v", err)
	}

	cfg, ok := s.Lookup("පොළිය")
	if !ok {
		t.Fatal("පොළිය missing")
	}
	p, _ := cfg.Params(question.Medium)
	if p.Description != "overridden" {
		t.Errorf("medium.Description = %q, want overridden", p.Description)
	}

	prob, ok := s.Lookup("සම්භාවිතාව")
	if !ok {
		t.Fatal("සම්භාවිතාව should be loaded from nested dir")
	}
	easy, _ := prob.Params(question.Easy)
	if easy.Steps != (Range{Min: 2, Max: 2}) {
		t.Errorf("easy.Steps = %v, want 2", easy.Steps)
	}

	if _, ok := s.Lookup("bad"); ok {
		t.Error("config with invalid range should be skipped")
	}
}

func TestPut(t *testing.T) {
	s := NewStore()

	err := s.Put(Config{Topic: "  වර්ගඵලය ", Difficulty: Difficulties{
		Medium: &Params{Steps: Range{Min: 2, Max: 4}},
	}})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := s.Lookup("වර්ගඵලය"); !ok {
		t.Error("Put topic not found after trim")
	}
	if _, ok := s.Get("ලඝුගණක"); ok {
		t.Error("Get() should not fall back for unknown topics")
	}

	if err := s.Put(Config{Topic: "empty"}); err == nil {
		t.Error("Put() should reject config without difficulty levels")
	}
	if err := s.Put(Config{Difficulty: Difficulties{Easy: &Params{Steps: Range{Min: 1, Max: 1}}}}); err == nil {
		t.Error("Put() should reject config without topic")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{"2-3", Range{2, 3}, false},
		{" 4 - 8 ", Range{4, 8}, false},
		{"5", Range{5, 5}, false},
		{"", Range{}, true},
		{"a-b", Range{}, true},
		{"5-2", Range{}, true},
		{"0-2", Range{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRange(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRange(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
