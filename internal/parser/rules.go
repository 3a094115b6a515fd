package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/p-n-ai/ganitha/internal/question"
)

// rule extracts one field. The value starts where label matches and runs to
// the first stop match, the end of the line, or the end of the text.
type rule struct {
	label    *regexp.Regexp
	stop     *regexp.Regexp
	line     bool
	minRunes int
}

func (r rule) find(s string) (string, bool) {
	loc := r.label.FindStringIndex(s)
	if loc == nil {
		return "", false
	}

	rest := s[loc[1]:]
	if r.line {
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
	}
	if r.stop != nil {
		if m := r.stop.FindStringIndex(rest); m != nil {
			rest = rest[:m[0]]
		}
	}

	v := strings.TrimSpace(rest)
	if v == "" || utf8.RuneCountInString(v) <= r.minRunes {
		return "", false
	}
	return v, true
}

// firstMatch returns the value of the first rule that matches, or "".
func firstMatch(s string, rules ...rule) string {
	for _, r := range rules {
		if v, ok := r.find(s); ok {
			return v
		}
	}
	return ""
}

func lineRule(label string) rule {
	return rule{label: regexp.MustCompile(label), line: true}
}

func blockRule(label, stop string) rule {
	r := rule{label: regexp.MustCompile(label)}
	if stop != "" {
		r.stop = regexp.MustCompile(stop)
	}
	return r
}

var numberPattern = regexp.MustCompile(`NUMBER:\s*(\d+)`)

// parseNumber returns the model's own question number, or fallback.
func parseNumber(region string, fallback int) int {
	m := numberPattern.FindStringSubmatch(region)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}

// regions returns the text between every start/end marker pair. When there
// are none, it falls back to the "---" separated segments that contain at
// least one of the field markers.
func regions(raw string, wrapper *regexp.Regexp, markers ...string) []string {
	var out []string
	for _, m := range wrapper.FindAllStringSubmatch(raw, -1) {
		out = append(out, m[1])
	}
	if len(out) > 0 {
		return out
	}

	for _, part := range strings.Split(raw, "---") {
		for _, marker := range markers {
			if strings.Contains(part, marker) {
				out = append(out, part)
				break
			}
		}
	}
	return out
}

// Steps parses a STEPS block. Each non-empty line is split on its first "=";
// a line without "=" becomes a step with an empty value.
func Steps(block string) []question.AnswerStep {
	var steps []question.AnswerStep
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimLeft(line, "-•*"))
		if line == "" {
			continue
		}
		desc, value, _ := strings.Cut(line, "=")
		steps = append(steps, question.AnswerStep{
			Description: strings.TrimSpace(desc),
			Value:       strings.TrimSpace(value),
		})
	}
	return steps
}

// subPattern locates sub-question headers. The sub-question text runs from
// the end of the header to textStop; when requireStop is set a header whose
// text is not followed by a STEPS or ANSWER marker is ignored.
type subPattern struct {
	header      *regexp.Regexp
	textStop    *regexp.Regexp
	requireStop bool
}

var (
	subQuestionMarker = "SUB_QUESTION:"
	subStepsRule      = blockRule(`STEPS:`, `ANSWER:|SUB_QUESTION:`)
	subAnswerRule     = lineRule(`ANSWER:[ \t]*`)
)

func (p subPattern) extract(region string) []question.SubQuestion {
	var subs []question.SubQuestion
	for _, loc := range p.header.FindAllStringSubmatchIndex(region, -1) {
		label := strings.TrimSpace(region[loc[2]:loc[3]])
		block := region[loc[1]:]
		if next := strings.Index(block, subQuestionMarker); next >= 0 {
			block = block[:next]
		}

		text, rest := block, ""
		if m := p.textStop.FindStringIndex(block); m != nil {
			text, rest = block[:m[0]], block[m[0]:]
		} else if p.requireStop {
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		sq := question.SubQuestion{
			Label: fmt.Sprintf("(%s)", label),
			Text:  text,
		}
		if stepsBlock, ok := subStepsRule.find(rest); ok {
			sq.Steps = Steps(stepsBlock)
		}
		sq.Answer, _ = subAnswerRule.find(rest)
		subs = append(subs, sq)
	}
	return subs
}

// subQuestions tries each pattern in order and returns the first non-empty result.
func subQuestions(region string, patterns ...subPattern) []question.SubQuestion {
	for _, p := range patterns {
		if subs := p.extract(region); len(subs) > 0 {
			return subs
		}
	}
	return nil
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
