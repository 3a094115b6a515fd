package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/ganitha/internal/export"
	"github.com/p-n-ai/ganitha/internal/platform/config"
	"github.com/p-n-ai/ganitha/internal/question"
)

const corpusJSON = `{"questions": [
  {"topic": "පොළිය", "type": "short_answer", "question": "රු. 5000ක 10% පොලිය සොයන්න.", "final_answer": "රු. 500"},
  {"topic": "පොළිය", "type": "essay_type", "question": "ණයක් ගෙවීම පිළිබඳ ගැටලුවකි."},
  {"topic": "ත්‍රිකෝණමිතිය", "type": "structured", "question": "ගසක උස සොයන්න.", "sub_questions": ["කෝණය සොයන්න", "උස සොයන්න"]}
]}`

const structuredReply = `STRUCTURED_START
NUMBER: 1
TOPIC: ත්‍රිකෝණමිතිය
MAIN_CONTEXT: 20 m උස කුළුණක මුදුනේ සිට බලන විට නැගීමේ කෝණය 30° කි.
SUB_QUESTION: (අ)
TEXT: උස සොයන්න.
ANSWER: 34.64 m
SUB_QUESTION: (ආ)
TEXT: දුර සොයන්න.
ANSWER: 40 m
STRUCTURED_END
`

const essayReply = `ESSAY_START
NUMBER: 1
TOPICS: පොළිය, ප්‍රතිශත
SCENARIO: නිමල් තම ව්‍යාපාරය සඳහා බැංකුවකින් රු. 200000ක ණයක් ලබා ගනී. බැංකුව වාර්ෂිකව 12% සරල පොලියක් අය කරයි.
SUB_QUESTION: (i)
TEXT: පළමු වසරේ පොලිය සොයන්න.
ANSWER: රු. 24000
SUB_QUESTION: (ii)
TEXT: වසර 3ක මුළු පොලිය සොයන්න.
ANSWER: රු. 72000
SUB_QUESTION: (iii)
TEXT: ගෙවිය යුතු මුළු මුදල සොයන්න.
ANSWER: රු. 272000
ESSAY_END
`

func shortBlocks(questions ...string) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "QUESTION_START\nNUMBER: %d\nTOPIC: පොළිය\nQUESTION: %s\nSTEPS:\n- පොලිය = රු. 400\nFINAL_ANSWER: රු. 400\nQUESTION_END\n---\n", i+1, q)
	}
	return b.String()
}

// fakeModel serves an OpenAI-compatible chat endpoint that answers in the
// format the prompt asks for.
func fakeModel(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Messages) == 0 {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		prompt := req.Messages[0].Content

		reply := shortBlocks(
			"රු. 8000ක් 5% සරල පොලියට වසර 2ක් තැන්පත් කළේය. පොලිය සොයන්න.",
			"රු. 12000ක් 4% සරල පොලියට වසර 3ක් තැන්පත් කළේය. පොලිය සොයන්න.",
		)
		switch {
		case strings.Contains(prompt, "ESSAY_START"):
			reply = essayReply
		case strings.Contains(prompt, "STRUCTURED_START"):
			reply = structuredReply
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"model":   "fake-model",
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
			"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 20},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

// setupEnv isolates the command from the host environment and returns the
// path of a freshly written corpus.
func setupEnv(t *testing.T, modelURL string) string {
	t.Helper()
	for _, v := range []string{
		"GANITHA_AI_GEMINI_API_KEY", "GANITHA_DATABASE_URL", "GANITHA_CACHE_URL",
		"GANITHA_RETRIEVER_DIR", "GANITHA_TOPICS_DIR", "GANITHA_AI_DAILY_TOKEN_BUDGET",
		"GANITHA_ARCHIVE_BACKEND", "GANITHA_LOG_LEVEL", "GANITHA_LOG_FORMAT",
	} {
		t.Setenv(v, "")
	}
	t.Setenv("GANITHA_AI_OPENAI_API_KEY", "")
	t.Setenv("GANITHA_AI_OPENAI_BASE_URL", "")
	if modelURL != "" {
		t.Setenv("GANITHA_AI_OPENAI_API_KEY", "test-key")
		t.Setenv("GANITHA_AI_OPENAI_BASE_URL", modelURL)
	}
	t.Setenv("GANITHA_GENERATION_RATE_INTERVAL", "0")

	path := filepath.Join(t.TempDir(), "questions.json")
	if err := os.WriteFile(path, []byte(corpusJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// resetFlags restores every flag to its default between runs of the shared
// command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			sv.Replace(nil)
		} else {
			f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCorpusStats(t *testing.T) {
	path := setupEnv(t, "")

	out, err := execute(t, "corpus", "stats", "--corpus", path)
	if err != nil {
		t.Fatalf("corpus stats error = %v", err)
	}
	for _, want := range []string{"Questions: 3", "Topics:    2", "short_answer", "essay_type", "ත්‍රිකෝණමිතිය"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCorpusStats_MissingFile(t *testing.T) {
	setupEnv(t, "")

	_, err := execute(t, "corpus", "stats", "--corpus", filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "could not be loaded") {
		t.Errorf("error = %v, want load failure", err)
	}
}

func TestTopics(t *testing.T) {
	setupEnv(t, "")

	out, err := execute(t, "topics")
	if err != nil {
		t.Fatalf("topics error = %v", err)
	}
	if !strings.Contains(out, "පොළිය") || !strings.Contains(out, "2-3") {
		t.Errorf("output missing built-in interest topic:\n%s", out)
	}
}

func TestGenerate_Validation(t *testing.T) {
	path := setupEnv(t, "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown type", []string{"--type", "oral"}, "unknown question type"},
		{"count too high", []string{"--type", "structured", "--count", "11"}, "between 1 and 10"},
		{"bad difficulty", []string{"--type", "lesson", "--topic", "පොළිය", "--difficulty", "brutal"}, "unknown difficulty"},
		{"lesson without topic", []string{"--type", "lesson"}, "exactly one --topic"},
		{"no API key", []string{"--type", "short"}, "API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"generate", "--corpus", path}, tt.args...)
			_, err := execute(t, args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestGenerate_MissingAPIKeyIsConfigError(t *testing.T) {
	path := setupEnv(t, "")
	_, err := execute(t, "generate", "--corpus", path)
	if !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestGenerate_ShortAnswerJSON(t *testing.T) {
	srv := fakeModel(t)
	path := setupEnv(t, srv.URL)

	out, err := execute(t, "generate", "--corpus", path, "--type", "short", "--count", "2")
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}

	var batch question.Batch[question.ShortAnswer]
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if batch.Count != 2 || batch.Outcome != question.Success {
		t.Errorf("batch = %d questions, outcome %q", batch.Count, batch.Outcome)
	}
	if batch.Questions[1].Number != 2 {
		t.Errorf("second question number = %d, want 2", batch.Questions[1].Number)
	}
}

func TestGenerate_ShortAnswerXLSX(t *testing.T) {
	srv := fakeModel(t)
	path := setupEnv(t, srv.URL)
	outPath := filepath.Join(t.TempDir(), "short.xlsx")

	out, err := execute(t, "generate", "--corpus", path, "--type", "short", "--count", "2", "--out", outPath)
	if err != nil {
		t.Fatalf("generate error = %v", err)
	}
	if !strings.Contains(out, "Wrote "+outPath) {
		t.Errorf("output = %q", out)
	}

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.ShortAnswerSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("rows = %d, want header plus 2", len(rows))
	}
}

func TestGenerate_UnsupportedOutput(t *testing.T) {
	srv := fakeModel(t)
	path := setupEnv(t, srv.URL)
	outPath := filepath.Join(t.TempDir(), "short.csv")

	_, err := execute(t, "generate", "--corpus", path, "--count", "2", "--out", outPath)
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("error = %v", err)
	}
	if _, statErr := os.Stat(outPath); !os.IsNotExist(statErr) {
		t.Error("no file should be left behind")
	}
}

func TestPaper(t *testing.T) {
	srv := fakeModel(t)
	path := setupEnv(t, srv.URL)
	outPath := filepath.Join(t.TempDir(), "paper.json")

	_, err := execute(t, "paper", "--corpus", path,
		"--short", "2", "--structured", "1", "--essay", "1", "--out", outPath)
	if err != nil {
		t.Fatalf("paper error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	var paper question.Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(paper.ID, "MP_") {
		t.Errorf("ID = %q", paper.ID)
	}
	q := paper.Questions
	if len(q.ShortAnswer) != 2 || len(q.Structured) != 1 || len(q.Essay) != 1 {
		t.Errorf("sections = %d/%d/%d, want 2/1/1", len(q.ShortAnswer), len(q.Structured), len(q.Essay))
	}
}

func TestPaper_Bounds(t *testing.T) {
	path := setupEnv(t, "")
	_, err := execute(t, "paper", "--corpus", path, "--short", "26")
	if err == nil || !strings.Contains(err.Error(), "--short") {
		t.Errorf("error = %v", err)
	}
}

func TestExport_MemoryArchiveIsEmpty(t *testing.T) {
	path := setupEnv(t, "")
	_, err := execute(t, "export", "latest", "--corpus", path)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("error = %v, want not found", err)
	}
}
