package relevance

import "context"

// Service guesses which statute articles a question is about
type Service interface {
	// ArticleNumbers returns up to the configured number of distinct article numbers, most
	// relevant first. An empty result is valid.
	ArticleNumbers(ctx context.Context, query string) ([]int, error)
}

// llmResponse is the structured output from the LLM
type llmResponse struct {
	ArticleNumbers []int `json:"article_numbers"`
}
