package relevance

import "github.com/m-mizutani/gollem"

// BuildResponseSchema is exported for testing
func BuildResponseSchema() *gollem.Parameter {
	return (&client{}).buildResponseSchema()
}
