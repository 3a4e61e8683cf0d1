package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kutbudev/gtm-mcp/internal/schema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const schemaURIPrefix = "gtm://schemas/"

// registerResources exposes the payload schemas so clients can read the
// config shape before a create or update.
func registerResources(server *mcp.Server) {
	server.AddResource(&mcp.Resource{
		URI:         "gtm://schemas",
		Name:        "schemas",
		Description: "Resource kinds that have a config schema",
		MIMEType:    "application/json",
	}, handleSchemaIndexResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIPrefix + "{kind}",
		Name:        "schema",
		Description: "JSON Schema of a GTM resource (tag, trigger, variable, folder, workspace, container, account)",
		MIMEType:    "application/schema+json",
	}, handleSchemaResource)
}

func handleSchemaIndexResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	kinds := schema.Kinds()
	uris := make([]string, 0, len(kinds))
	for _, k := range kinds {
		uris = append(uris, schemaURIPrefix+k)
	}

	data, err := json.MarshalIndent(map[string]any{"kinds": kinds, "uris": uris}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema index: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

func handleSchemaResource(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	kind := strings.TrimPrefix(req.Params.URI, schemaURIPrefix)
	if kind == "" || kind == req.Params.URI {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	s, err := schema.Canonical(kind)
	if err != nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s schema: %w", kind, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/schema+json",
			Text:     string(data),
		}},
	}, nil
}
