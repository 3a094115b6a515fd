// Package prompt builds the model prompts for each question type.
//
// Every builder is a pure function of its input. The output format blocks
// embedded in the prompts are the contract the parser package reads back.
package prompt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/p-n-ai/ganitha/internal/corpus"
	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/topics"
)

// Truncation limits, in characters.
const (
	maxReferences          = 2
	lessonExampleChars     = 500
	lessonGuidelineChars   = 200
	structuredContextChars = 200
	structuredSubChars     = 100
	structuredSubs         = 3
	essayReferenceChars    = 300
	shortAnswerSteps       = 4
	shortAnswerTopics      = 5
)

// PaperInput drives the short-answer, structured and essay builders.
type PaperInput struct {
	Topics     []string
	Count      int
	References []corpus.Question

	// Guidance is optional topic guidance. When nil the generic rules apply.
	Guidance *topics.Params
}

// LessonInput drives the lesson-wise builder.
type LessonInput struct {
	Topic      string
	Difficulty question.Difficulty
	Count      int
	// Start is the number of the first question in this batch.
	Start int

	Config     topics.Config
	Examples   []string
	Guidelines []string
}

// genericParams is used when a topic has no configured difficulty table.
var genericParams = map[question.Difficulty]topics.Params{
	question.Easy: {
		Steps:       topics.Range{Min: 2, Max: 3},
		Description: "direct single-concept calculations",
		Context:     "සරල එදිනෙදා සන්දර්භ",
	},
	question.Medium: {
		Steps:       topics.Range{Min: 3, Max: 4},
		Description: "multi-step problems combining two ideas",
		Context:     "ප්‍රායෝගික ජීවන සන්දර්භ",
	},
	question.Hard: {
		Steps:       topics.Range{Min: 4, Max: 6},
		Description: "multi-concept problems with several stages",
		Context:     "සංකීර්ණ ප්‍රායෝගික සන්දර්භ",
	},
}

// resolveParams returns the configured parameters for d, or the generic ones.
func resolveParams(cfg topics.Config, d question.Difficulty) topics.Params {
	if p, ok := cfg.Params(d); ok {
		return p
	}
	if p, ok := genericParams[d]; ok {
		return p
	}
	return genericParams[question.Medium]
}

// truncate cuts s to n characters, appending "..." when anything was cut.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

func writeGuidance(b *strings.Builder, p *topics.Params) {
	if p == nil {
		b.WriteString("- ගණනය කිරීම් පියවර 2-4කින් සම්පූර්ණ කළ හැකි විය යුතුය\n")
		b.WriteString("- ප්‍රායෝගික ශ්‍රී ලාංකීය සන්දර්භ භාවිතා කරන්න\n")
		return
	}
	if !p.Steps.IsZero() {
		fmt.Fprintf(b, "- පියවර ගණන: %s\n", p.Steps)
	}
	if p.Numbers != "" {
		fmt.Fprintf(b, "- සංඛ්‍යා පරාසය: %s\n", p.Numbers)
	}
	if p.Context != "" {
		fmt.Fprintf(b, "- සන්දර්භය: %s\n", p.Context)
	}
	if len(p.SubTopics) > 0 {
		fmt.Fprintf(b, "- උප මාතෘකා: %s\n", strings.Join(p.SubTopics, ", "))
	}
	if len(p.Formulas) > 0 {
		fmt.Fprintf(b, "- සූත්‍ර: %s\n", strings.Join(p.Formulas, "; "))
	}
}

func limitRefs(refs []corpus.Question) []corpus.Question {
	if len(refs) > maxReferences {
		return refs[:maxReferences]
	}
	return refs
}
