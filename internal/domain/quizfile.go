package domain

import (
	"encoding/json"
	"fmt"
)

const (
	MinAnswers   = 2
	MaxAnswers   = 4
	MinTimeLimit = 10
	MaxTimeLimit = 60
)

// ParseQuiz decodes the editor's quiz JSON ({title, questions[]}) and
// validates the structural invariants the session relies on. Internal
// fields like id are accepted and ignored.
func ParseQuiz(data []byte) (Quiz, error) {
	var quiz Quiz
	if err := json.Unmarshal(data, &quiz); err != nil {
		return Quiz{}, fmt.Errorf("parse quiz: %w", err)
	}
	if err := ValidateQuiz(quiz); err != nil {
		return Quiz{}, err
	}
	return quiz, nil
}

// ExportQuiz serializes a quiz back to the editor's interchange format,
// dropping internal metadata so export/import round-trips cleanly.
func ExportQuiz(quiz Quiz) ([]byte, error) {
	clean := Quiz{Title: quiz.Title, Questions: quiz.Questions}
	return json.MarshalIndent(clean, "", "  ")
}

// ValidateQuiz checks the invariants from the quiz interchange format:
// a title, at least one question, 2-4 answers with exactly one correct,
// non-empty texts, and a time limit between 10 and 60 seconds.
func ValidateQuiz(quiz Quiz) error {
	if quiz.Title == "" {
		return fmt.Errorf("quiz title is required")
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("quiz must contain at least one question")
	}
	for i, q := range quiz.Questions {
		if q.Text == "" {
			return fmt.Errorf("question %d: text is required", i+1)
		}
		if len(q.Answers) < MinAnswers || len(q.Answers) > MaxAnswers {
			return fmt.Errorf("question %d: need %d-%d answers, got %d", i+1, MinAnswers, MaxAnswers, len(q.Answers))
		}
		correct := 0
		for j, a := range q.Answers {
			if a.Text == "" {
				return fmt.Errorf("question %d: answer %d has no text", i+1, j+1)
			}
			if a.IsCorrect {
				correct++
			}
		}
		if correct != 1 {
			return fmt.Errorf("question %d: exactly one correct answer required, got %d", i+1, correct)
		}
		if q.TimeLimit < MinTimeLimit || q.TimeLimit > MaxTimeLimit {
			return fmt.Errorf("question %d: time limit must be %d-%ds, got %d", i+1, MinTimeLimit, MaxTimeLimit, q.TimeLimit)
		}
	}
	return nil
}
