// Package question defines the generated question records shared by the
// parser, the generation engine and the HTTP layer.
package question

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies the shape of a generated question.
type Type string

const (
	TypeShortAnswer Type = "short_answer"
	TypeStructured  Type = "structured"
	TypeEssay       Type = "essay_type"
	TypeLesson      Type = "lesson"
)

// ParseType accepts the canonical names plus the short aliases used by the CLI.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short_answer", "short-answer", "short":
		return TypeShortAnswer, nil
	case "structured":
		return TypeStructured, nil
	case "essay_type", "essay-type", "essay":
		return TypeEssay, nil
	case "lesson", "lesson-wise":
		return TypeLesson, nil
	default:
		return "", fmt.Errorf("unknown question type %q", s)
	}
}

// Difficulty is the lesson-wise difficulty level.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty returns Medium for an empty string.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(strings.ToLower(strings.TrimSpace(s))) {
	case "", Medium:
		return Medium, nil
	case Easy:
		return Easy, nil
	case Hard:
		return Hard, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// AnswerStep is one line of a worked solution.
type AnswerStep struct {
	Description string `json:"description"`
	Value       string `json:"value"`
}

// ShortAnswer is a single question with a short worked solution.
type ShortAnswer struct {
	Number      int          `json:"question_number"`
	Topics      []string     `json:"topics"`
	Question    string       `json:"question"`
	Steps       []AnswerStep `json:"answer_steps"`
	FinalAnswer string       `json:"final_answer"`
}

func (q ShortAnswer) Text() string { return q.Question }

func (q ShortAnswer) WithNumber(n int) ShortAnswer {
	q.Number = n
	return q
}

// SubQuestion is one labelled part of a structured or essay question.
type SubQuestion struct {
	Label  string       `json:"sub_question_label"`
	Text   string       `json:"sub_question"`
	Steps  []AnswerStep `json:"answer_steps"`
	Answer string       `json:"answer,omitempty"`
}

// Structured is a main context followed by related sub-questions.
type Structured struct {
	Number       int           `json:"question_number"`
	Topics       []string      `json:"topics"`
	Context      string        `json:"main_context"`
	SubQuestions []SubQuestion `json:"sub_questions"`
}

func (q Structured) Text() string { return q.Context }

func (q Structured) WithNumber(n int) Structured {
	q.Number = n
	return q
}

// Essay is a real-life scenario followed by progressive sub-questions.
type Essay struct {
	Number       int           `json:"question_number"`
	Topics       []string      `json:"topics"`
	Scenario     string        `json:"scenario"`
	SubQuestions []SubQuestion `json:"sub_questions"`
}

func (q Essay) Text() string { return q.Scenario }

func (q Essay) WithNumber(n int) Essay {
	q.Number = n
	return q
}

// Lesson is a topic-and-difficulty question with a free-form solution.
type Lesson struct {
	Number   int    `json:"question_number"`
	Question string `json:"question"`
	Solution string `json:"solution"`
	Answer   string `json:"answer"`
}

func (q Lesson) Text() string { return q.Question }

func (q Lesson) WithNumber(n int) Lesson {
	q.Number = n
	return q
}

// Outcome is the terminal state of a generation request that produced output.
type Outcome string

const (
	Success        Outcome = "success"
	PartialFailure Outcome = "partial_failure"
)

// Batch is the accumulated result of one generation request.
// Count may be lower than Requested; callers must check both.
type Batch[T any] struct {
	Type           Type       `json:"type"`
	Topic          string     `json:"topic,omitempty"`
	Difficulty     Difficulty `json:"difficulty,omitempty"`
	Questions      []T        `json:"questions"`
	Count          int        `json:"count"`
	Requested      int        `json:"requested"`
	TopicsUsed     []string   `json:"topics_used"`
	Attempts       int        `json:"attempts"`
	APICalls       int        `json:"api_calls"`
	GroundingUsed  bool       `json:"rag_context_used"`
	Model          string     `json:"model_used,omitempty"`
	Outcome        Outcome    `json:"outcome"`
	ElapsedSeconds float64    `json:"generation_time_seconds"`
}

// Complete reports whether the batch reached the requested count.
func (b Batch[T]) Complete() bool {
	return b.Count >= b.Requested
}

// SectionSummary reports how one section of a paper turned out.
type SectionSummary struct {
	Requested int     `json:"requested"`
	Generated int     `json:"generated"`
	Outcome   Outcome `json:"outcome,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// PaperQuestions groups the three sections of a model paper.
type PaperQuestions struct {
	ShortAnswer []ShortAnswer `json:"short_answer"`
	Structured  []Structured  `json:"structured"`
	Essay       []Essay       `json:"essay_type"`
}

// Paper is a full model paper assembled from the three typed generators.
type Paper struct {
	ID             string                  `json:"paper_id"`
	GeneratedAt    time.Time               `json:"generated_at"`
	Questions      PaperQuestions          `json:"questions"`
	Summary        map[Type]SectionSummary `json:"summary"`
	TopicsUsed     []string                `json:"topics_used"`
	APICalls       int                     `json:"api_calls"`
	ElapsedSeconds float64                 `json:"generation_time_seconds"`
}

// PaperID derives the paper identifier from its generation time.
func PaperID(t time.Time) string {
	return fmt.Sprintf("MP_%d", t.Unix())
}

// Total returns the number of questions across all sections.
func (p Paper) Total() int {
	return len(p.Questions.ShortAnswer) + len(p.Questions.Structured) + len(p.Questions.Essay)
}
