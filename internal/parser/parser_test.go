package parser

import (
	"strings"
	"testing"

	"github.com/p-n-ai/ganitha/internal/question"
)

func TestSteps(t *testing.T) {
	tests := []struct {
		name  string
		block string
		want  []question.AnswerStep
	}{
		{
			name:  "split on first equals",
			block: "- පොදු හරය සොයන්න = 12x",
			want:  []question.AnswerStep{{Description: "පොදු හරය සොයන්න", Value: "12x"}},
		},
		{
			name:  "only first equals splits",
			block: "- x ගණනය = 2 + 3 = 5",
			want:  []question.AnswerStep{{Description: "x ගණනය", Value: "2 + 3 = 5"}},
		},
		{
			name:  "line without equals",
			block: "- සමීකරණය සරල කරන්න",
			want:  []question.AnswerStep{{Description: "සමීකරණය සරල කරන්න", Value: ""}},
		},
		{
			name:  "blank lines and bullets",
			block: "\n  • a = 1\n\n* b = 2\n",
			want: []question.AnswerStep{
				{Description: "a", Value: "1"},
				{Description: "b", Value: "2"},
			},
		},
		{name: "empty", block: "  \n ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Steps(tt.block)
			if len(got) != len(tt.want) {
				t.Fatalf("Steps() = %+v, want %+v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("step %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

const shortAnswerOutput = `මෙන්න ප්‍රශ්න:

QUESTION_START
NUMBER: 1
TOPIC: පොළිය
QUESTION: රු. 5000ක මුදලක් 8% සරල පොලියට වසර 2කට තැන්පත් කළේය. පොලිය සොයන්න.
STEPS:
- වාර්ෂික පොලිය = 5000 × 8/100 = රු. 400
- වසර 2ක පොලිය = රු. 800
FINAL_ANSWER: රු. 800
QUESTION_END
---
QUESTION_START
NUMBER: 2
TOPIC: සමීකරණ
QUESTION: 2x + 5 = 15 විසඳන්න.
STEPS:
- 2x = 10
- x = 5
FINAL_ANSWER: x = 5
QUESTION_END
---
QUESTION_START
NUMBER: 3
QUESTION: කෙටි
QUESTION_END`

func TestShortAnswer(t *testing.T) {
	got := ShortAnswer(shortAnswerOutput)
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2 (third is too short)", len(got))
	}

	q := got[0]
	if q.Number != 1 {
		t.Errorf("Number = %d, want 1", q.Number)
	}
	if len(q.Topics) != 1 || q.Topics[0] != "පොළිය" {
		t.Errorf("Topics = %v", q.Topics)
	}
	if !strings.HasPrefix(q.Question, "රු. 5000ක") || strings.Contains(q.Question, "STEPS") {
		t.Errorf("Question = %q", q.Question)
	}
	if len(q.Steps) != 2 {
		t.Fatalf("Steps = %+v, want 2", q.Steps)
	}
	if q.Steps[0].Description != "වාර්ෂික පොලිය" || q.Steps[0].Value != "5000 × 8/100 = රු. 400" {
		t.Errorf("Steps[0] = %+v", q.Steps[0])
	}
	if q.FinalAnswer != "රු. 800" {
		t.Errorf("FinalAnswer = %q", q.FinalAnswer)
	}

	if got[1].FinalAnswer != "x = 5" {
		t.Errorf("second FinalAnswer = %q", got[1].FinalAnswer)
	}
}

func TestShortAnswer_FallbackSplitWithoutMarkers(t *testing.T) {
	raw := `NUMBER: 1
TOPIC: ලඝුගණක
QUESTION: lg 100 + lg 1000 හි අගය සොයන්න.
STEPS:
- lg 100 = 2
- lg 1000 = 3
FINAL_ANSWER: 5
---
මෙය ප්‍රශ්නයක් නොවේ.
---
NUMBER: 2
QUESTION: වේගය 60 km/h නම් පැය 3කදී යන දුර සොයන්න.
STEPS:
- දුර = 60 × 3
FINAL_ANSWER: 180 km`

	got := ShortAnswer(raw)
	if len(got) != 2 {
		t.Fatalf("got %d questions, want 2", len(got))
	}
	if got[0].FinalAnswer != "5" || got[1].FinalAnswer != "180 km" {
		t.Errorf("FinalAnswers = %q, %q", got[0].FinalAnswer, got[1].FinalAnswer)
	}
	if got[1].Topics != nil {
		t.Errorf("Topics = %v, want nil when TOPIC is missing", got[1].Topics)
	}
}

func TestShortAnswer_Garbage(t *testing.T) {
	for _, raw := range []string{"", "hello world", "---\n---", "QUESTION_START QUESTION_END"} {
		if got := ShortAnswer(raw); len(got) != 0 {
			t.Errorf("ShortAnswer(%q) = %+v, want none", raw, got)
		}
	}
}

const structuredOutput = `STRUCTURED_START
NUMBER: 1
TOPIC: ත්‍රිකෝණමිතිය
MAIN_CONTEXT: ගොඩනැගිල්ලක පාමුල සිට 20 m දුරින් සිටින ළමයෙක් එහි මුදුන 60° ආරෝහණ කෝණයකින් නිරීක්ෂණය කරයි.
SUB_QUESTION: (අ)
TEXT: දත්ත රූප සටහනක දක්වන්න.
STEPS:
- රූපය = ඍජුකෝණී ත්‍රිකෝණය
ANSWER: රූපය
SUB_QUESTION: (ආ)
TEXT: ගොඩනැගිල්ලේ උස සොයන්න.
STEPS:
- tan 60° = h/20
- h = 20√3
ANSWER: 34.64 m
SUB_QUESTION: (ඇ)
TEXT: නිරීක්ෂකයාගේ සිට මුදුනට ඇති දුර සොයන්න.
STEPS:
- d = 20/cos 60°
ANSWER: 40 m
STRUCTURED_END
---
STRUCTURED_START
NUMBER: 2
MAIN_CONTEXT: එක් උප ප්‍රශ්නයක් පමණි.
SUB_QUESTION: (අ)
TEXT: x සොයන්න.
STEPS:
- x = 1
ANSWER: 1
STRUCTURED_END`

func TestStructured(t *testing.T) {
	got := Structured(structuredOutput)
	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1 (second has one sub-question)", len(got))
	}

	q := got[0]
	if !strings.HasPrefix(q.Context, "ගොඩනැගිල්ලක") || strings.Contains(q.Context, "SUB_QUESTION") {
		t.Errorf("Context = %q", q.Context)
	}
	if len(q.SubQuestions) != 3 {
		t.Fatalf("SubQuestions = %d, want 3", len(q.SubQuestions))
	}

	sq := q.SubQuestions[1]
	if sq.Label != "(ආ)" {
		t.Errorf("Label = %q, want (ආ)", sq.Label)
	}
	if sq.Text != "ගොඩනැගිල්ලේ උස සොයන්න." {
		t.Errorf("Text = %q", sq.Text)
	}
	if len(sq.Steps) != 2 || sq.Steps[1].Value != "20√3" {
		t.Errorf("Steps = %+v", sq.Steps)
	}
	if sq.Answer != "34.64 m" {
		t.Errorf("Answer = %q", sq.Answer)
	}
}

func TestStructured_SecondaryPatternWithoutTextLabel(t *testing.T) {
	raw := `STRUCTURED_START
MAIN_CONTEXT: සාප්පුවක භාණ්ඩ විකිණීම.
SUB_QUESTION: (1) - පළමු කොටස
මිල සොයන්න.
STEPS:
- මිල = 100
ANSWER: 100
SUB_QUESTION: (2)
ලාභය සොයන්න.
ANSWER: 20
STRUCTURED_END`

	got := Structured(raw)
	if len(got) != 1 {
		t.Fatalf("got %d questions, want 1", len(got))
	}
	subs := got[0].SubQuestions
	if len(subs) != 2 {
		t.Fatalf("SubQuestions = %+v, want 2", subs)
	}
	if subs[0].Label != "(1)" || subs[0].Text != "මිල සොයන්න." {
		t.Errorf("first sub = %+v", subs[0])
	}
	if subs[1].Text != "ලාභය සොයන්න." || subs[1].Answer != "20" {
		t.Errorf("second sub = %+v", subs[1])
	}
}

func TestStructured_MissingContextDiscarded(t *testing.T) {
	raw := `STRUCTURED_START
SUB_QUESTION: (අ)
TEXT: a
STEPS:
ANSWER: 1
SUB_QUESTION: (ආ)
TEXT: b
STEPS:
ANSWER: 2
STRUCTURED_END`
	if got := Structured(raw); len(got) != 0 {
		t.Errorf("got %d questions, want 0", len(got))
	}
}

const essayOutput = `ESSAY_START
NUMBER: 1
TOPICS: පොළිය, ප්‍රතිශත
SCENARIO: නිමල් තම ව්‍යාපාරය සඳහා බැංකුවකින් රු. 200000ක ණයක් ලබා ගනී. බැංකුව වාර්ෂිකව 12% සරල පොලියක් අය කරයි. ඔහු වසර 3කින් ණය ගෙවා අවසන් කිරීමට සැලසුම් කරයි.
SUB_QUESTION: (i)
TEXT: පළමු වසරේ පොලිය සොයන්න.
STEPS:
- පොලිය = 200000 × 12/100 = 24000
ANSWER: රු. 24000
SUB_QUESTION: (ii)
TEXT: වසර 3ක මුළු පොලිය සොයන්න.
STEPS:
- මුළු පොලිය = 24000 × 3
ANSWER: රු. 72000
SUB_QUESTION: (iii)
TEXT: ගෙවිය යුතු මුළු මුදල සොයන්න.
ANSWER: රු. 272000
SUB_QUESTION: (iv)
TEXT: මාසික වාරිකය සොයන්න.
STEPS:
- වාරිකය = 272000/36
ANSWER: රු. 7555.56
ESSAY_END`

func TestEssay(t *testing.T) {
	got := Essay(essayOutput)
	if len(got) != 1 {
		t.Fatalf("got %d essays, want 1", len(got))
	}

	q := got[0]
	if len(q.Topics) != 2 || q.Topics[1] != "ප්‍රතිශත" {
		t.Errorf("Topics = %v", q.Topics)
	}
	if !strings.HasPrefix(q.Scenario, "නිමල්") || strings.Contains(q.Scenario, "SUB_QUESTION") {
		t.Errorf("Scenario = %q", q.Scenario)
	}
	if len(q.SubQuestions) != 4 {
		t.Fatalf("SubQuestions = %d, want 4", len(q.SubQuestions))
	}
	if q.SubQuestions[2].Label != "(iii)" || q.SubQuestions[2].Answer != "රු. 272000" {
		t.Errorf("third sub = %+v", q.SubQuestions[2])
	}
	if len(q.SubQuestions[2].Steps) != 0 {
		t.Errorf("third sub Steps = %+v, want none", q.SubQuestions[2].Steps)
	}
}

func TestEssay_ShortScenarioDiscarded(t *testing.T) {
	raw := strings.Replace(essayOutput,
		"SCENARIO: නිමල් තම ව්‍යාපාරය සඳහා බැංකුවකින් රු. 200000ක ණයක් ලබා ගනී. බැංකුව වාර්ෂිකව 12% සරල පොලියක් අය කරයි. ඔහු වසර 3කින් ණය ගෙවා අවසන් කිරීමට සැලසුම් කරයි.",
		"SCENARIO: කෙටි සිද්ධියකි.", 1)
	if got := Essay(raw); len(got) != 0 {
		t.Errorf("got %d essays, want 0", len(got))
	}
}

func TestEssay_TooFewSubQuestionsDiscarded(t *testing.T) {
	cut := strings.Index(essayOutput, "SUB_QUESTION: (iii)")
	raw := essayOutput[:cut] + "ESSAY_END"
	if got := Essay(raw); len(got) != 0 {
		t.Errorf("got %d essays, want 0", len(got))
	}
}
