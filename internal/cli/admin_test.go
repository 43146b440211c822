package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quiz-arena-service/internal/domain"
)

func TestLoadQuestionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	raw := `
questions:
  - text: "What is 2 + 2?"
    options: ["3", "4", "5", "6"]
    correct: "4"
  - text: "Capital of France?"
    options: ["Paris", "Rome", "Madrid", "Berlin"]
    correct: "Paris"
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	questions, err := loadQuestionFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[1].OptionA != "Paris" || questions[1].CorrectOption != "Paris" {
		t.Fatalf("unexpected question %+v", questions[1])
	}
}

func TestLoadQuestionFileRejectsUnknownCorrectOption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "questions.yaml")
	raw := `
questions:
  - text: "What is 2 + 2?"
    options: ["3", "4", "5", "6"]
    correct: "four"
`
	_ = os.WriteFile(path, []byte(raw), 0o600)
	if _, err := loadQuestionFile(path); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
