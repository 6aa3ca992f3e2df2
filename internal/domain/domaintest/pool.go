// Package domaintest builds question pools for tests.
package domaintest

import (
	"fmt"

	"timed-quiz/internal/domain"
)

// Question returns a valid question in category whose correct choice is "<id>-a".
func Question(id string, category domain.Category) domain.Question {
	return domain.Question{
		ID:       id,
		Category: category,
		Prompt:   "Prompt for " + id,
		Choices: []domain.Choice{
			{ID: id + "-a", Text: "A"},
			{ID: id + "-b", Text: "B"},
			{ID: id + "-c", Text: "C"},
			{ID: id + "-d", Text: "D"},
		},
		CorrectChoiceID: id + "-a",
		Explanation:     "A is right.",
		Difficulty:      "easy",
		Tags:            []string{string(category)},
	}
}

// Pool returns perCategory questions for every category.
func Pool(perCategory int) []domain.Question {
	pool := make([]domain.Question, 0, perCategory*len(domain.Categories))
	for _, category := range domain.Categories {
		for i := 0; i < perCategory; i++ {
			pool = append(pool, Question(fmt.Sprintf("%s-%02d", category, i), category))
		}
	}
	return pool
}

// PoolOf returns n questions all in category.
func PoolOf(category domain.Category, n int) []domain.Question {
	pool := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		pool = append(pool, Question(fmt.Sprintf("%s-%02d", category, i), category))
	}
	return pool
}

// Wrong returns a choice id of q that is not the correct one.
func Wrong(q domain.Question) string {
	for _, c := range q.Choices {
		if c.ID != q.CorrectChoiceID {
			return c.ID
		}
	}
	return ""
}
