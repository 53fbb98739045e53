package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quizlive/internal/domain"
)

func TestQuizRepositoryCaches(t *testing.T) {
	loader := &countingLoader{
		QuizLoader: NewStaticQuizLoader(map[string]domain.Quiz{
			"quiz-1": sampleQuiz(),
		}),
	}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls)
	}

	if _, err := repo.GetQuiz(context.Background(), "quiz-1"); err != nil {
		t.Fatalf("get quiz 2: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls)
	}
}

func TestQuizRepositoryMissNotCached(t *testing.T) {
	loader := &countingLoader{QuizLoader: NewStaticQuizLoader(nil)}
	repo := NewQuizRepository(loader, time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "ghost"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := repo.GetQuiz(context.Background(), "ghost"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound on retry, got %v", err)
	}
	if loader.calls != 2 {
		t.Fatalf("misses must not be cached, loader calls %d", loader.calls)
	}
}

func TestFileQuizLoader(t *testing.T) {
	dir := t.TempDir()
	data, err := domain.ExportQuiz(sampleQuiz())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "quiz-1.json"), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewFileQuizLoader(dir)
	quiz, err := loader.LoadQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if quiz.ID != "quiz-1" || quiz.Title != "General Knowledge" {
		t.Fatalf("quiz = %+v", quiz)
	}

	if _, err := loader.LoadQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

type countingLoader struct {
	QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, quizID)
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "General Knowledge",
		Questions: []domain.Question{
			{
				Text: "What is 2 + 2?",
				Answers: []domain.Answer{
					{Text: "3", IsCorrect: false},
					{Text: "4", IsCorrect: true},
				},
				TimeLimit: 30,
			},
		},
	}
}
