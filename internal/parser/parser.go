// Package parser turns raw model output into typed questions.
//
// Parsing never fails: malformed regions are dropped and logged, and the
// caller sees fewer questions than the model produced.
package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/p-n-ai/ganitha/internal/question"
)

var (
	shortAnswerRegion = regexp.MustCompile(`(?s)QUESTION_START(.*?)QUESTION_END`)
	structuredRegion  = regexp.MustCompile(`(?s)STRUCTURED_START(.*?)STRUCTURED_END`)
	essayRegion       = regexp.MustCompile(`(?s)ESSAY_START(.*?)ESSAY_END`)

	topicRule  = lineRule(`TOPIC:[ \t]*`)
	topicsRule = lineRule(`TOPICS?:[ \t]*`)

	shortQuestionRules = []rule{
		blockRule(`QUESTION:\s*`, `\nSTEPS:`),
		blockRule(`ප්‍රශ්නය\s*:\s*`, `\nSTEPS:|\nපියවර\s*:`),
	}
	shortStepsRules = []rule{
		blockRule(`STEPS:`, `FINAL_ANSWER:`),
		blockRule(`පියවර\s*:`, `FINAL_ANSWER:|අවසාන\s*පිළිතුර\s*:`),
	}
	finalAnswerRules = []rule{
		lineRule(`FINAL_ANSWER:[ \t]*`),
		lineRule(`අවසාන\s*පිළිතුර\s*:[ \t]*`),
	}

	contextRules = []rule{
		blockRule(`MAIN_CONTEXT:\s*`, `\nSUB_QUESTION:`),
		blockRule(`CONTEXT:\s*`, `\nSUB_QUESTION:`),
	}
	scenarioRules = []rule{
		blockRule(`SCENARIO:\s*`, `\nSUB_QUESTION:`),
		blockRule(`MAIN_CONTEXT:\s*`, `\nSUB_QUESTION:`),
	}

	looseSubQuestion = subPattern{
		header:      regexp.MustCompile(`SUB_QUESTION:\s*\(([^)\n]+)\)[^\n]*\n(?:TEXT:\s*)?`),
		textStop:    regexp.MustCompile(`\n\s*STEPS:|ANSWER:`),
		requireStop: true,
	}
	structuredSubQuestions = []subPattern{
		{
			header:   regexp.MustCompile(`SUB_QUESTION:\s*\(([අ-ඉa-e\d]+)\)\s*\nTEXT:\s*`),
			textStop: regexp.MustCompile(`\n\s*(?:STEPS|ANSWER):`),
		},
		looseSubQuestion,
	}
	essaySubQuestions = []subPattern{
		{
			header:      regexp.MustCompile(`SUB_QUESTION:\s*\(([ivxIVX\d]+)\)[^\n]*\n(?:TEXT:\s*)?`),
			textStop:    regexp.MustCompile(`\n\s*STEPS:|ANSWER:`),
			requireStop: true,
		},
		looseSubQuestion,
	}
)

// Minimum sizes below which a parsed question is discarded.
const (
	minShortAnswerQuestion  = 10
	minStructuredSubs       = 2
	minEssayScenario        = 50
	minEssaySubs            = 3
	minLessonPart           = 50
	minLessonQuestion       = 20
	minLessonSolution       = 20
	lessonAnswerPlaceholder = "N/A"
)

// ShortAnswer parses QUESTION_START/QUESTION_END regions.
func ShortAnswer(raw string) []question.ShortAnswer {
	parts := regions(raw, shortAnswerRegion, "QUESTION:", "NUMBER:")

	var out []question.ShortAnswer
	for _, region := range parts {
		q := question.ShortAnswer{
			Number:      parseNumber(region, len(out)+1),
			Question:    firstMatch(region, shortQuestionRules...),
			FinalAnswer: firstMatch(region, finalAnswerRules...),
		}
		if topic := firstMatch(region, topicRule); topic != "" {
			q.Topics = []string{topic}
		}
		if steps := firstMatch(region, shortStepsRules...); steps != "" {
			q.Steps = Steps(steps)
		}

		if runeLen(q.Question) <= minShortAnswerQuestion {
			slog.Debug("discarding short answer region", "reason", "question too short", "question", q.Question)
			continue
		}
		out = append(out, q)
	}

	logAttrition(question.TypeShortAnswer, len(parts), len(out))
	return out
}

// Structured parses STRUCTURED_START/STRUCTURED_END regions.
func Structured(raw string) []question.Structured {
	parts := regions(raw, structuredRegion, "MAIN_CONTEXT:", "SUB_QUESTION:")

	var out []question.Structured
	for _, region := range parts {
		q := question.Structured{
			Number:       parseNumber(region, len(out)+1),
			Context:      firstMatch(region, contextRules...),
			SubQuestions: subQuestions(region, structuredSubQuestions...),
		}
		if topic := firstMatch(region, topicRule); topic != "" {
			q.Topics = []string{topic}
		}

		if q.Context == "" || len(q.SubQuestions) < minStructuredSubs {
			slog.Debug("discarding structured region",
				"has_context", q.Context != "",
				"sub_questions", len(q.SubQuestions),
			)
			continue
		}
		out = append(out, q)
	}

	logAttrition(question.TypeStructured, len(parts), len(out))
	return out
}

// Essay parses ESSAY_START/ESSAY_END regions.
func Essay(raw string) []question.Essay {
	parts := regions(raw, essayRegion, "SCENARIO:", "SUB_QUESTION:")

	var out []question.Essay
	for _, region := range parts {
		q := question.Essay{
			Number:       parseNumber(region, len(out)+1),
			Topics:       splitTopics(firstMatch(region, topicsRule)),
			Scenario:     firstMatch(region, scenarioRules...),
			SubQuestions: subQuestions(region, essaySubQuestions...),
		}

		if runeLen(q.Scenario) <= minEssayScenario || len(q.SubQuestions) < minEssaySubs {
			slog.Debug("discarding essay region",
				"scenario_runes", runeLen(q.Scenario),
				"sub_questions", len(q.SubQuestions),
			)
			continue
		}
		out = append(out, q)
	}

	logAttrition(question.TypeEssay, len(parts), len(out))
	return out
}

func splitTopics(s string) []string {
	var topics []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return topics
}

func logAttrition(t question.Type, regions, kept int) {
	if regions > kept {
		slog.Warn("parser discarded malformed questions",
			"type", t,
			"regions", regions,
			"kept", kept,
		)
	}
}
