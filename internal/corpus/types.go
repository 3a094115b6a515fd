package corpus

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/p-n-ai/ganitha/internal/question"
)

// Question is one past exam question from the reference corpus.
type Question struct {
	Topic        string        `json:"topic"`
	Type         question.Type `json:"type"`
	Question     string        `json:"question"`
	FinalAnswer  Steps         `json:"final_answer,omitempty"`
	SubQuestions []SubQuestion `json:"sub_questions,omitempty"`
}

// Topics splits the question's combined topic field.
func (q Question) Topics() []string {
	return ParseTopics(q.Topic)
}

// Step is one worked step of a reference answer.
type Step struct {
	Step   string `json:"step"`
	Answer string `json:"answer"`
}

// Steps accepts either a list of steps or a single answer string.
type Steps []Step

func (s *Steps) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*s = nil
	case string:
		if strings.TrimSpace(v) == "" {
			*s = nil
			return nil
		}
		*s = Steps{{Answer: v}}
	case []any:
		steps := make(Steps, 0, len(v))
		for _, item := range v {
			switch it := item.(type) {
			case map[string]any:
				steps = append(steps, Step{
					Step:   firstString(it, "step", "description"),
					Answer: firstString(it, "answer", "value"),
				})
			case string:
				steps = append(steps, Step{Step: it})
			}
		}
		*s = steps
	default:
		*s = Steps{{Answer: stringify(v)}}
	}
	return nil
}

// SubQuestion is one part of a structured or essay reference question.
type SubQuestion struct {
	Text string `json:"sub_question"`
}

func (sq *SubQuestion) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		sq.Text = v
	case map[string]any:
		sq.Text = firstString(v, "sub_question", "question", "text")
	}
	return nil
}

type document struct {
	Questions []Question `json:"questions"`
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			if s := stringify(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
