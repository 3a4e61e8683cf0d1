package mcp

import (
	"context"
	"strings"

	"github.com/kutbudev/gtm-mcp/internal/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// completionHandler suggests values for resource template arguments.
func completionHandler(_ context.Context, req *mcp.CompleteRequest) (*mcp.CompleteResult, error) {
	argValue := strings.ToLower(req.Params.Argument.Value)

	var values []string
	switch req.Params.Argument.Name {
	case "kind":
		values = completeStaticValues(argValue, schema.Kinds())
	default:
		values = []string{}
	}

	return &mcp.CompleteResult{
		Completion: mcp.CompletionResultDetails{
			Values:  values,
			Total:   len(values),
			HasMore: false,
		},
	}, nil
}

// completeStaticValues filters a static list of values by prefix
func completeStaticValues(prefix string, options []string) []string {
	if prefix == "" {
		return options
	}

	matches := []string{}
	for _, opt := range options {
		if strings.HasPrefix(strings.ToLower(opt), prefix) {
			matches = append(matches, opt)
		}
	}
	return matches
}
