package bank

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
	"timed-quiz/internal/domain"
	"timed-quiz/internal/domain/domaintest"
)

const singleQuestion = `
source: demo
questions:
  - id: q1
    category: ethics
    prompt: Which practice reduces bias in training data?
    choices:
      - {id: a, text: Auditing the dataset}
      - {id: b, text: Training longer}
      - {id: c, text: Removing the test set}
      - {id: d, text: Using a larger batch size}
    correctChoiceId: a
    explanation: Audits surface skewed samples.
    difficulty: easy
    tags: [data, bias]
`

func TestLoaderReadsYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "demo.yaml"), singleQuestion)

	questions, err := NewLoader(dir).LoadQuestions(context.Background(), "demo")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(questions))
	}
	q := questions[0]
	if q.Category != domain.CategoryEthics || q.CorrectChoiceID != "a" || len(q.Choices) != 4 {
		t.Fatalf("unexpected question %+v", q)
	}
	if len(q.Tags) != 2 || q.Tags[1] != "bias" {
		t.Fatalf("unexpected tags %v", q.Tags)
	}
}

func TestLoaderFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en.json"), `{"questions":[{"id":"q1","category":"tools","prompt":"p",
		"choices":[{"id":"a","text":"A"},{"id":"b","text":"B"},{"id":"c","text":"C"},{"id":"d","text":"D"}],
		"correctChoiceId":"c"}]}`)

	questions, err := NewLoader(dir).LoadQuestions(context.Background(), "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectChoiceID != "c" {
		t.Fatalf("unexpected questions %+v", questions)
	}
}

func TestLoaderRoundTripsGeneratedBank(t *testing.T) {
	dir := t.TempDir()
	data, err := yaml.Marshal(File{Source: "en", Questions: domaintest.Pool(10)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	writeFile(t, filepath.Join(dir, "en.yml"), string(data))

	questions, err := NewLoader(dir).LoadQuestions(context.Background(), "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(questions) != 40 {
		t.Fatalf("expected 40 questions, got %d", len(questions))
	}
}

func TestLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.yaml"), `questions: [{id: q1, category: ethics, choices: [{id: a}], correctChoiceId: a}]`)
	loader := NewLoader(dir)

	if _, err := loader.LoadQuestions(context.Background(), "missing"); !errors.Is(err, domain.ErrSourceNotFound) {
		t.Fatalf("expected source not found, got %v", err)
	}
	var invalid *domain.InvalidQuestionError
	if _, err := loader.LoadQuestions(context.Background(), "bad"); !errors.As(err, &invalid) {
		t.Fatalf("expected invalid question error, got %v", err)
	}
	if _, err := loader.LoadQuestions(context.Background(), "../etc"); err == nil {
		t.Fatalf("expected path traversal to be rejected")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
