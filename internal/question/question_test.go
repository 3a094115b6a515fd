package question

import (
	"testing"
	"time"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{"short_answer", TypeShortAnswer, false},
		{"short", TypeShortAnswer, false},
		{"Structured", TypeStructured, false},
		{"essay", TypeEssay, false},
		{"essay_type", TypeEssay, false},
		{"lesson", TypeLesson, false},
		{"mcq", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		in      string
		want    Difficulty
		wantErr bool
	}{
		{"", Medium, false},
		{"EASY", Easy, false},
		{"hard", Hard, false},
		{"extreme", "", true},
	}

	for _, tt := range tests {
		got, err := ParseDifficulty(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseDifficulty(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWithNumber_DoesNotMutateOriginal(t *testing.T) {
	q := Structured{Number: 7, Context: "ctx"}
	renumbered := q.WithNumber(1)

	if q.Number != 7 {
		t.Errorf("original Number = %d, want 7", q.Number)
	}
	if renumbered.Number != 1 {
		t.Errorf("renumbered Number = %d, want 1", renumbered.Number)
	}
	if renumbered.Text() != "ctx" {
		t.Errorf("Text() = %q, want ctx", renumbered.Text())
	}
}

func TestPaperID(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	if got := PaperID(ts); got != "MP_1700000000" {
		t.Errorf("PaperID() = %q, want MP_1700000000", got)
	}
}

func TestPaper_Total(t *testing.T) {
	p := Paper{Questions: PaperQuestions{
		ShortAnswer: make([]ShortAnswer, 3),
		Structured:  make([]Structured, 2),
		Essay:       make([]Essay, 1),
	}}
	if got := p.Total(); got != 6 {
		t.Errorf("Total() = %d, want 6", got)
	}
}
