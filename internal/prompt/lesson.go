package prompt

import (
	"fmt"
	"strings"
)

const defaultNumbers = "විචල්‍ය"

// Lesson builds the lesson-wise prompt for in.Count questions numbered from in.Start.
func Lesson(in LessonInput) string {
	p := resolveParams(in.Config, in.Difficulty)
	start := max(in.Start, 1)
	numbers := p.Numbers
	if numbers == "" {
		numbers = defaultNumbers
	}

	var b strings.Builder
	b.WriteString("You are an expert O/L mathematics teacher creating questions in Sinhala.\n\n")
	fmt.Fprintf(&b, "TOPIC: %s\n", in.Topic)
	fmt.Fprintf(&b, "DIFFICULTY: %s (%s)\n", in.Difficulty, p.Description)
	fmt.Fprintf(&b, "STEPS: %s\n", p.Steps)
	fmt.Fprintf(&b, "NUMBER RANGE: %s\n", numbers)
	fmt.Fprintf(&b, "CONTEXT: %s\n", p.Context)
	if len(p.SubTopics) > 0 {
		fmt.Fprintf(&b, "SUB TOPICS: %s\n", strings.Join(p.SubTopics, ", "))
	}
	if len(p.Formulas) > 0 {
		fmt.Fprintf(&b, "FORMULAS: %s\n", strings.Join(p.Formulas, "; "))
	}

	examples := in.Examples
	if len(examples) == 0 {
		examples = p.Examples
	}
	if len(examples) > 0 {
		b.WriteString("\nREFERENCE EXAMPLES (use similar format):\n")
		for i, ex := range examples[:min(len(examples), maxReferences)] {
			fmt.Fprintf(&b, "\nExample %d:\n%s\n", i+1, truncate(ex, lessonExampleChars))
		}
	}

	if len(in.Guidelines) > 0 {
		b.WriteString("\nGUIDELINES:\n")
		for _, g := range in.Guidelines[:min(len(in.Guidelines), maxReferences)] {
			fmt.Fprintf(&b, "- %s\n", truncate(g, lessonGuidelineChars))
		}
	}

	if tmpl := strings.TrimSpace(in.Config.PromptTemplate); tmpl != "" {
		b.WriteString("\n")
		b.WriteString(tmpl)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nIMPORTANT: Generate ALL %d complete questions. Do NOT stop early.\n", in.Count)
	fmt.Fprintf(&b, `
OUTPUT FORMAT (repeat for every question, separated by a line containing only ---):

QUESTION %d: [question text in Sinhala]
SOLUTION:
පියවර 1: [explanation with calculation]
පියවර 2: [explanation with calculation]
ANSWER: [final answer]
---
`, start)

	fmt.Fprintf(&b, `
RULES:
- Write every question and solution in Sinhala
- Each solution must have %s steps, each showing the calculation
- Use realistic Sri Lankan contexts and "රු." for money
- Use different numbers in every question
- Number the questions from %d to %d
- Give a single clear final answer after ANSWER:
`, p.Steps, start, start+in.Count-1)

	fmt.Fprintf(&b, "\nGenerate %d questions about topic: %s\n", in.Count, in.Topic)
	return b.String()
}
