package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/p-n-ai/ganitha/internal/question"
)

var (
	lessonSplit = regexp.MustCompile(`(?i)QUESTION\s*\d+\s*:`)

	lessonQuestionRules = []rule{
		lessonRule(`(?i)QUESTION\s*\d*\s*:\s*`, `(?i)\n(?:SOLUTION|විසඳුම)|\n\n`, minLessonQuestion),
		lessonRule(`ප්‍රශ්නය\s*\d*\s*:\s*`, `(?i)\n(?:SOLUTION|විසඳුම)|\n\n`, minLessonQuestion),
	}
	lessonSolutionRules = []rule{
		lessonRule(`(?i)SOLUTION\s*:\s*`, `(?i)\n(?:ANSWER|පිළිතුර|අවසාන)`, minLessonSolution),
		lessonRule(`විසඳුම\s*:\s*`, `(?i)\n(?:ANSWER|පිළිතුර|අවසාන)`, minLessonSolution),
	}
	lessonAnswerRules = []rule{
		lineRule(`(?i)ANSWER\s*:[ \t]*`),
		lineRule(`(?:අවසාන\s*)?පිළිතුර\s*:[ \t]*`),
	}

	trailingSolutionLabel = regexp.MustCompile(`(?i)\s*(?:SOLUTION|විසඳුම)\s*:?\s*$`)
)

func lessonRule(label, stop string, minRunes int) rule {
	r := blockRule(label, stop)
	r.minRunes = minRunes
	return r
}

// Lesson parses lesson-wise output. Questions are separated by "---" or, when
// the model omitted separators, by their "QUESTION n:" headers.
func Lesson(raw string) []question.Lesson {
	parts := lessonParts(raw)

	var out []question.Lesson
	for _, part := range parts {
		q := question.Lesson{
			Number:   len(out) + 1,
			Question: cleanQuestion(firstMatch(part, lessonQuestionRules...)),
			Solution: firstMatch(part, lessonSolutionRules...),
			Answer:   firstMatch(part, lessonAnswerRules...),
		}
		if q.Answer == "" {
			q.Answer = answerFromSolution(q.Solution)
		}

		if runeLen(q.Question) <= minLessonQuestion || runeLen(q.Solution) <= minLessonSolution {
			continue
		}
		out = append(out, q)
	}

	logAttrition(question.TypeLesson, len(parts), len(out))
	return out
}

func lessonParts(raw string) []string {
	var pieces []string
	if strings.Contains(raw, "---") {
		pieces = strings.Split(raw, "---")
	} else {
		starts := lessonSplit.FindAllStringIndex(raw, -1)
		prev := 0
		for _, loc := range starts {
			pieces = append(pieces, raw[prev:loc[0]])
			prev = loc[0]
		}
		pieces = append(pieces, raw[prev:])
	}

	var parts []string
	for _, p := range pieces {
		if p = strings.TrimSpace(p); runeLen(p) > minLessonPart {
			parts = append(parts, p)
		}
	}
	return parts
}

func cleanQuestion(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(trailingSolutionLabel.ReplaceAllString(s, ""))
}

// answerFromSolution takes the text after the last "=" on the last solution
// line that has both an "=" and a digit.
func answerFromSolution(solution string) string {
	lines := strings.Split(solution, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, "=") || !strings.ContainsFunc(line, unicode.IsDigit) {
			continue
		}
		if ans := strings.TrimSpace(line[strings.LastIndex(line, "=")+1:]); ans != "" {
			return ans
		}
	}
	return lessonAnswerPlaceholder
}
