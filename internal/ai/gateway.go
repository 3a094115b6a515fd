// Package ai provides a provider-agnostic text generation gateway.
//
// Decoding settings are fixed per task when a provider is constructed;
// requests carry only the prompt and the task.
package ai

import "context"

// TaskType selects the decoding profile of a request.
type TaskType int

const (
	TaskShortAnswer TaskType = iota
	TaskStructured
	TaskEssay
	TaskLesson
)

func (t TaskType) String() string {
	switch t {
	case TaskShortAnswer:
		return "short_answer"
	case TaskStructured:
		return "structured"
	case TaskEssay:
		return "essay"
	case TaskLesson:
		return "lesson"
	default:
		return "unknown"
	}
}

// CompletionRequest is the input to a completion.
type CompletionRequest struct {
	Prompt string   `json:"prompt"`
	Task   TaskType `json:"task"`
}

// CompletionResponse is the output from a completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all generation providers implement.
// Complete returns a *GenerationError for every failure it can classify.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Decoding holds the sampling parameters of one task profile.
type Decoding struct {
	Temperature     float32
	TopP            float32
	TopK            float32
	MaxOutputTokens int32
}

// Default decoding values.
const (
	DefaultModel           = "gemini-2.5-flash"
	DefaultTemperature     = 0.8
	DefaultTopP            = 0.95
	DefaultTopK            = 40
	DefaultMaxOutputTokens = 8192
	LessonMaxOutputTokens  = 16384
)

// DefaultDecoding returns the built-in profile for task. Lesson batches ask
// for up to seven worked solutions and get the larger output cap.
func DefaultDecoding(task TaskType) Decoding {
	d := Decoding{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
	if task == TaskLesson {
		d.MaxOutputTokens = LessonMaxOutputTokens
	}
	return d
}
