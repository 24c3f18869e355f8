package relevance

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
)

const (
	DefaultMaxNumbers = 5
	DefaultMaxArticle = 300
	DefaultStatute    = "Lietuvos Respublikos darbo kodeksas"
)

type client struct {
	llmClient  gollem.LLMClient
	maxNumbers int
	maxArticle int
	statute    string
}

// Option is a functional option for client configuration
type Option func(*client)

// WithMaxNumbers caps the number of returned article numbers
func WithMaxNumbers(n int) Option {
	return func(c *client) {
		c.maxNumbers = n
	}
}

// WithMaxArticle discards numbers above n
func WithMaxArticle(n int) Option {
	return func(c *client) {
		c.maxArticle = n
	}
}

// WithStatute sets the statute name used in the prompt
func WithStatute(name string) Option {
	return func(c *client) {
		c.statute = name
	}
}

// New creates a relevance service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient:  llmClient,
		maxNumbers: DefaultMaxNumbers,
		maxArticle: DefaultMaxArticle,
		statute:    DefaultStatute,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *client) ArticleNumbers(ctx context.Context, query string) ([]int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(c.buildResponseSchema()),
		gollem.WithSessionSystemPrompt(c.buildSystemPrompt()),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create LLM session")
	}

	resp, err := session.Generate(ctx, []gollem.Input{gollem.Text(query)})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate content from LLM")
	}
	if resp == nil || len(resp.Texts) == 0 {
		return nil, goerr.New("empty LLM response")
	}

	var llmResp llmResponse
	if err := json.Unmarshal([]byte(resp.Texts[0]), &llmResp); err != nil {
		return nil, goerr.Wrap(err, "failed to parse LLM response", goerr.V("response", resp.Texts[0]))
	}

	return c.sanitize(llmResp.ArticleNumbers), nil
}

// sanitize keeps the first occurrence of every in-range number, up to maxNumbers
func (c *client) sanitize(numbers []int) []int {
	seen := make(map[int]struct{}, len(numbers))
	var result []int
	for _, n := range numbers {
		if n < 1 || n > c.maxArticle {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		result = append(result, n)
		if len(result) == c.maxNumbers {
			break
		}
	}
	return result
}

func (c *client) buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are an assistant specialised in Lithuanian employment law.\n\n")
	sb.WriteString("## Instructions:\n\n")
	sb.WriteString("1. Read the user's question. It is usually written in Lithuanian.\n")
	sb.WriteString("2. Identify the articles of the " + c.statute + " that most directly answer it.\n")
	sb.WriteString("3. Return at most " + strconv.Itoa(c.maxNumbers) + " article numbers, most relevant first.\n")
	sb.WriteString("4. Only return numbers between 1 and " + strconv.Itoa(c.maxArticle) + ".\n")
	sb.WriteString("5. If you are not confident that any article applies, return an empty array.\n")

	return sb.String()
}

func (c *client) buildResponseSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ArticleRelevanceResponse",
		Description: "Article numbers relevant to the question",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"article_numbers": {
				Type:        gollem.TypeArray,
				Description: "Relevant article numbers, most relevant first",
				Required:    true,
				Items: &gollem.Parameter{
					Type: gollem.TypeInteger,
				},
			},
		},
	}
}
