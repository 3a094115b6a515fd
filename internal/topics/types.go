package topics

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/p-n-ai/ganitha/internal/question"
)

// Range is an inclusive integer range written as "min-max" in configuration.
type Range struct {
	Min int
	Max int
}

// ParseRange parses "3-4" or a single number such as "3".
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, fmt.Errorf("empty range")
	}

	lo, hi, found := strings.Cut(s, "-")
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
	}
	to := from
	if found {
		to, err = strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return Range{}, fmt.Errorf("invalid range %q: %w", s, err)
		}
	}

	r := Range{Min: from, Max: to}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks 1 <= Min <= Max.
func (r Range) Validate() error {
	if r.Min < 1 || r.Max < r.Min {
		return fmt.Errorf("invalid range %d-%d", r.Min, r.Max)
	}
	return nil
}

// IsZero reports whether the range was never set.
func (r Range) IsZero() bool {
	return r.Min == 0 && r.Max == 0
}

func (r Range) String() string {
	if r.Min == r.Max {
		return strconv.Itoa(r.Min)
	}
	return fmt.Sprintf("%d-%d", r.Min, r.Max)
}

func (r Range) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Range) UnmarshalText(text []byte) error {
	parsed, err := ParseRange(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Params holds the generation parameters for one difficulty level.
type Params struct {
	Steps       Range    `yaml:"steps" json:"steps"`
	Description string   `yaml:"description" json:"description"`
	Numbers     string   `yaml:"numbers" json:"numbers"`
	Context     string   `yaml:"context" json:"context"`
	SubTopics   []string `yaml:"sub_topics,omitempty" json:"sub_topics,omitempty"`
	Examples    []string `yaml:"examples,omitempty" json:"examples,omitempty"`
	Formulas    []string `yaml:"formulas,omitempty" json:"formulas,omitempty"`
}

// Difficulties is the fixed-key difficulty table of a topic.
type Difficulties struct {
	Easy   *Params `yaml:"easy,omitempty" json:"easy,omitempty"`
	Medium *Params `yaml:"medium,omitempty" json:"medium,omitempty"`
	Hard   *Params `yaml:"hard,omitempty" json:"hard,omitempty"`
}

// Config is the generation configuration of a single topic.
type Config struct {
	Topic          string       `yaml:"topic" json:"topic"`
	Difficulty     Difficulties `yaml:"difficulty" json:"difficulty"`
	PromptTemplate string       `yaml:"prompt_template,omitempty" json:"prompt_template,omitempty"`
}

// Params returns the parameters for d. A level that is not configured
// resolves to medium; ok is false when neither is present.
func (c Config) Params(d question.Difficulty) (Params, bool) {
	var p *Params
	switch d {
	case question.Easy:
		p = c.Difficulty.Easy
	case question.Hard:
		p = c.Difficulty.Hard
	default:
		p = c.Difficulty.Medium
	}
	if p == nil {
		p = c.Difficulty.Medium
	}
	if p == nil {
		return Params{}, false
	}
	return *p, true
}

// Validate rejects configs that cannot drive a prompt.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	levels := map[string]*Params{
		"easy":   c.Difficulty.Easy,
		"medium": c.Difficulty.Medium,
		"hard":   c.Difficulty.Hard,
	}
	configured := 0
	for name, p := range levels {
		if p == nil {
			continue
		}
		configured++
		if p.Steps.IsZero() {
			return fmt.Errorf("topic %q: %s: steps is required", c.Topic, name)
		}
		if err := p.Steps.Validate(); err != nil {
			return fmt.Errorf("topic %q: %s: %w", c.Topic, name, err)
		}
	}
	if configured == 0 {
		return fmt.Errorf("topic %q: at least one difficulty level is required", c.Topic)
	}
	return nil
}
