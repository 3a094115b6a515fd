// Package export renders generated questions as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/ganitha/internal/question"
)

// Sheet names.
const (
	SummarySheet     = "Summary"
	ShortAnswerSheet = "Short Answer"
	StructuredSheet  = "Structured"
	EssaySheet       = "Essay"
	LessonSheet      = "Lesson"
)

// WritePaper writes paper as a workbook with a summary sheet and one sheet
// per non-empty section.
func WritePaper(w io.Writer, paper question.Paper) error {
	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()

	summary := [][]any{
		{"Paper", paper.ID},
		{"Generated at", paper.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Questions", paper.Total()},
		{"API calls", paper.APICalls},
		{"Seconds", paper.ElapsedSeconds},
		{"Topics", strings.Join(paper.TopicsUsed, ", ")},
		{},
		{"Section", "Requested", "Generated", "Outcome", "Error"},
	}
	for _, t := range []question.Type{question.TypeShortAnswer, question.TypeStructured, question.TypeEssay} {
		s, ok := paper.Summary[t]
		if !ok {
			continue
		}
		summary = append(summary, []any{string(t), s.Requested, s.Generated, string(s.Outcome), s.Error})
	}
	if err := b.sheet(SummarySheet, nil, summary); err != nil {
		return err
	}

	if qs := paper.Questions.ShortAnswer; len(qs) > 0 {
		if err := b.sheet(ShortAnswerSheet, shortAnswerHeader, shortAnswerRows(qs)); err != nil {
			return err
		}
	}
	if qs := paper.Questions.Structured; len(qs) > 0 {
		rows := make([][]any, 0, len(qs))
		for _, q := range qs {
			rows = append(rows, subQuestionRows(q.Number, q.Topics, q.Context, q.SubQuestions)...)
		}
		if err := b.sheet(StructuredSheet, structuredHeader, rows); err != nil {
			return err
		}
	}
	if qs := paper.Questions.Essay; len(qs) > 0 {
		rows := make([][]any, 0, len(qs))
		for _, q := range qs {
			rows = append(rows, subQuestionRows(q.Number, q.Topics, q.Scenario, q.SubQuestions)...)
		}
		if err := b.sheet(EssaySheet, essayHeader, rows); err != nil {
			return err
		}
	}
	return b.write(w)
}

// WriteLessons writes a lesson-wise batch as a single-sheet workbook.
func WriteLessons(w io.Writer, batch question.Batch[question.Lesson]) error {
	b, err := newBook()
	if err != nil {
		return err
	}
	defer b.f.Close()

	rows := make([][]any, 0, len(batch.Questions))
	for _, q := range batch.Questions {
		rows = append(rows, []any{q.Number, q.Question, q.Solution, q.Answer})
	}
	if err := b.sheet(LessonSheet, lessonHeader, rows); err != nil {
		return err
	}
	return b.write(w)
}

var (
	shortAnswerHeader = []any{"No", "Topics", "Question", "Steps", "Final answer"}
	structuredHeader  = []any{"No", "Topics", "Context", "Part", "Sub-question", "Steps", "Answer"}
	essayHeader       = []any{"No", "Topics", "Scenario", "Part", "Sub-question", "Steps", "Answer"}
	lessonHeader      = []any{"No", "Question", "Solution", "Answer"}
)

func shortAnswerRows(qs []question.ShortAnswer) [][]any {
	rows := make([][]any, 0, len(qs))
	for _, q := range qs {
		rows = append(rows, []any{q.Number, strings.Join(q.Topics, ", "), q.Question, steps(q.Steps), q.FinalAnswer})
	}
	return rows
}

// subQuestionRows emits one row per part; the stem appears on the first.
func subQuestionRows(number int, topics []string, stem string, subs []question.SubQuestion) [][]any {
	head := []any{number, strings.Join(topics, ", "), stem}
	if len(subs) == 0 {
		return [][]any{head}
	}
	rows := make([][]any, 0, len(subs))
	for i, sq := range subs {
		row := []any{"", "", ""}
		if i == 0 {
			row = head
		}
		rows = append(rows, append(row, sq.Label, sq.Text, steps(sq.Steps), sq.Answer))
	}
	return rows
}

func steps(s []question.AnswerStep) string {
	lines := make([]string, 0, len(s))
	for _, st := range s {
		if st.Value == "" {
			lines = append(lines, st.Description)
			continue
		}
		lines = append(lines, st.Description+" = "+st.Value)
	}
	return strings.Join(lines, "\n")
}

type book struct {
	f      *excelize.File
	bold   int
	wrap   int
	sheets int
}

func newBook() (*book, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create header style: %w", err)
	}
	wrap, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create body style: %w", err)
	}
	return &book{f: f, bold: bold, wrap: wrap}, nil
}

// sheet adds a sheet with an optional bold header row.
func (b *book) sheet(name string, header []any, rows [][]any) error {
	if b.sheets == 0 {
		if err := b.f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	} else if _, err := b.f.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}
	b.sheets++

	row := 1
	if header != nil {
		if err := b.f.SetSheetRow(name, "A1", &header); err != nil {
			return fmt.Errorf("write %s header: %w", name, err)
		}
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := b.f.SetCellStyle(name, "A1", last, b.bold); err != nil {
			return fmt.Errorf("style %s header: %w", name, err)
		}
		if err := b.f.SetColWidth(name, "B", columnName(len(header)), 40); err != nil {
			return fmt.Errorf("size %s columns: %w", name, err)
		}
		row++
	}
	for _, r := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := b.f.SetSheetRow(name, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, row, err)
		}
		row++
	}
	if header != nil && row > 2 {
		last, _ := excelize.CoordinatesToCellName(len(header), row-1)
		if err := b.f.SetCellStyle(name, "A2", last, b.wrap); err != nil {
			return fmt.Errorf("style %s body: %w", name, err)
		}
	}
	return nil
}

func (b *book) write(w io.Writer) error {
	b.f.SetActiveSheet(0)
	if err := b.f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
