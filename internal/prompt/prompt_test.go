package prompt

import (
	"strings"
	"testing"

	"github.com/p-n-ai/ganitha/internal/corpus"
	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/topics"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 6, "padded"},
		{"abcdef", 3, "abc..."},
		{"පොළිය ගණනය", 5, "පොළිය..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func sampleRefs() []corpus.Question {
	return []corpus.Question{
		{
			Topic:    "පොළිය",
			Type:     question.TypeShortAnswer,
			Question: "රු. 5000ක 10% පොලිය සොයන්න.",
			FinalAnswer: corpus.Steps{
				{Step: "s1", Answer: "a1"}, {Step: "s2", Answer: "a2"}, {Step: "s3", Answer: "a3"},
				{Step: "s4", Answer: "a4"}, {Step: "s5", Answer: "a5"},
			},
		},
		{Topic: "සමීකරණ", Question: "x + 1 = 2"},
		{Topic: "කුලක", Question: "third reference"},
	}
}

func TestShortAnswer(t *testing.T) {
	got := ShortAnswer(PaperInput{
		Topics:     []string{"t1", "t2", "t3", "t4", "t5", "t6"},
		Count:      4,
		References: sampleRefs(),
	})

	for _, want := range []string{
		"QUESTION_START", "QUESTION_END", "NUMBER:", "TOPIC:", "QUESTION:", "STEPS:", "FINAL_ANSWER:",
		"=== ආදර්ශ උදාහරණ ===",
		"  • s4 = a4",
		"t1, t2, t3, t4, t5\n",
		"දැන් ප්‍රශ්න 4ක් සාදන්න:",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "s5 = a5") {
		t.Error("reference steps should be capped at 4")
	}
	if strings.Contains(got, "t6") {
		t.Error("topics should be capped at 5")
	}
	if strings.Contains(got, "third reference") {
		t.Error("at most 2 references should be embedded")
	}
}

func TestShortAnswer_NoReferences(t *testing.T) {
	got := ShortAnswer(PaperInput{Topics: []string{"පොළිය"}, Count: 1})
	if strings.Contains(got, "ආදර්ශ උදාහරණ") {
		t.Error("reference section should be omitted without references")
	}
	if !strings.Contains(got, "පියවර 2-4කින්") {
		t.Error("generic guidance missing")
	}
}

func TestStructured(t *testing.T) {
	ref := corpus.Question{
		Topic:    "ත්‍රිකෝණමිතිය",
		Question: strings.Repeat("අ", 250),
		SubQuestions: []corpus.SubQuestion{
			{Text: "one"}, {Text: "two"}, {Text: strings.Repeat("b", 120)}, {Text: "four"},
		},
	}
	got := Structured(PaperInput{Topics: []string{"ත්‍රිකෝණමිතිය"}, Count: 2, References: []corpus.Question{ref}})

	for _, want := range []string{
		"STRUCTURED_START", "MAIN_CONTEXT:", "SUB_QUESTION: (අ)", "TEXT:", "ANSWER:", "STRUCTURED_END",
		strings.Repeat("අ", 200) + "...\n",
		"(ආ) two",
		"(ඇ) " + strings.Repeat("b", 100) + "...",
		"උප ප්‍රශ්න 3-5ක්",
		"ව්‍යුහගත ප්‍රශ්න 2ක්",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "four") {
		t.Error("only the first 3 reference sub-questions should be embedded")
	}
}

func TestEssay(t *testing.T) {
	ref := corpus.Question{Topic: "සම්භාවිතාව", Question: strings.Repeat("x", 400)}
	got := Essay(PaperInput{
		Topics:     []string{"සම්භාවිතාව", "සංඛ්‍යානය"},
		Count:      1,
		References: []corpus.Question{ref},
		Guidance:   &topics.Params{Steps: topics.Range{Min: 3, Max: 5}, Numbers: "1-100"},
	})

	for _, want := range []string{
		"ESSAY_START", "TOPICS:", "SCENARIO:", "SUB_QUESTION: (v)", "ESSAY_END",
		strings.Repeat("x", 300) + "...",
		"සම්භාවිතාව, සංඛ්‍යානය",
		"උප ප්‍රශ්න 4-6ක්",
		"සංසන්දනය හෝ නිගමනය",
		"පියවර ගණන: 3-5",
		"සංඛ්‍යා පරාසය: 1-100",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestLesson(t *testing.T) {
	store := topics.NewStore()
	if err := store.Put(topics.Config{
		Topic: "පොළිය",
		Difficulty: topics.Difficulties{
			Hard: &topics.Params{Steps: topics.Range{Min: 4, Max: 5}, Description: "compound interest", Context: "වැල් පොලිය"},
		},
		PromptTemplate: "TEMPLATE LINE",
	}); err != nil {
		t.Fatal(err)
	}
	cfg, _ := store.Lookup("පොළිය")

	got := Lesson(LessonInput{
		Topic:      "පොළිය",
		Difficulty: question.Hard,
		Count:      3,
		Start:      4,
		Config:     cfg,
		Examples:   []string{strings.Repeat("e", 600), "second", "third"},
		Guidelines: []string{"g1"},
	})

	for _, want := range []string{
		"You are an expert O/L mathematics teacher creating questions in Sinhala.",
		"DIFFICULTY: hard (compound interest)",
		"STEPS: 4-5",
		"NUMBER RANGE: විචල්‍ය",
		"REFERENCE EXAMPLES (use similar format):",
		strings.Repeat("e", 500) + "...",
		"GUIDELINES:\n- g1",
		"TEMPLATE LINE",
		"Generate ALL 3 complete questions. Do NOT stop early.",
		"QUESTION 4:",
		"from 4 to 6",
		"Generate 3 questions about topic: පොළිය",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(got, "third") {
		t.Error("at most 2 examples should be embedded")
	}
}

func TestLesson_GenericFallback(t *testing.T) {
	got := Lesson(LessonInput{Topic: "නොදන්නා", Difficulty: question.Easy, Count: 1})
	if !strings.Contains(got, "STEPS: 2-3") {
		t.Errorf("generic easy steps missing:\n%s", got)
	}
	if !strings.Contains(got, "QUESTION 1:") {
		t.Error("zero start should number from 1")
	}
}
