package archive_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/p-n-ai/ganitha/internal/archive"
	"github.com/p-n-ai/ganitha/internal/platform/cache"
	"github.com/p-n-ai/ganitha/internal/platform/database/dbtest"
	"github.com/p-n-ai/ganitha/internal/question"
)

func samplePaper(at time.Time) question.Paper {
	return question.Paper{
		ID:          question.PaperID(at),
		GeneratedAt: at.UTC(),
		Questions: question.PaperQuestions{
			ShortAnswer: []question.ShortAnswer{
				{
					Number:      1,
					Topics:      []string{"සමීකරණ"},
					Question:    "x + 5 = 12 නම් x හි අගය සොයන්න.",
					Steps:       []question.AnswerStep{{Description: "x = 12 - 5", Value: "7"}},
					FinalAnswer: "7",
				},
			},
			Structured: []question.Structured{},
			Essay:      []question.Essay{},
		},
		Summary: map[question.Type]question.SectionSummary{
			question.TypeShortAnswer: {Requested: 1, Generated: 1, Outcome: question.Success},
		},
		TopicsUsed: []string{"සමීකරණ"},
		APICalls:   1,
	}
}

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s archive.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Latest(ctx); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("Latest() on empty store error = %v, want ErrNotFound", err)
	}
	if _, err := s.Get(ctx, "MP_0"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	first, second := samplePaper(base), samplePaper(base.Add(time.Minute))
	for _, p := range []question.Paper{first, second} {
		if err := s.Save(ctx, p); err != nil {
			t.Fatalf("Save(%s) error = %v", p.ID, err)
		}
	}

	got, err := s.Get(ctx, first.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != first.ID || got.Total() != 1 {
		t.Errorf("Get() = %s with %d questions", got.ID, got.Total())
	}
	if q := got.Questions.ShortAnswer[0]; q.FinalAnswer != "7" || len(q.Steps) != 1 || q.Topics[0] != "සමීකරණ" {
		t.Errorf("question = %+v", q)
	}

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("Latest() = %s, want %s", latest.ID, second.ID)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, archive.NewMemoryStore())
}

func TestPostgresStore(t *testing.T) {
	db := dbtest.New(t)
	exerciseStore(t, archive.NewPostgresStore(db.Pool))
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("GANITHA_TEST_REDIS_URL")
	if url == "" || testing.Short() {
		t.Skip("GANITHA_TEST_REDIS_URL not set")
	}

	c, err := cache.New(t.Context(), url, "ganitha:test:"+t.Name())
	if err != nil {
		t.Fatalf("cache.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	t.Cleanup(func() {
		ctx := context.Background()
		keys, _ := c.Client.Keys(ctx, c.Prefix+":*").Result()
		if len(keys) > 0 {
			c.Client.Del(ctx, keys...)
		}
	})

	exerciseStore(t, archive.NewRedisStore(c, time.Minute))
}
