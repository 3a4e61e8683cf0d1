package mcp

import (
	"fmt"

	"github.com/kutbudev/gtm-mcp/internal/apperrors"
	"github.com/kutbudev/gtm-mcp/internal/resource"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Registry holds the exposed tools and the router behind each of them.
type Registry struct {
	tools   []*mcp.Tool
	routers map[string]*resource.Router
}

// NewRegistry builds one router per descriptor. Tool names must be unique.
func NewRegistry(descriptors []resource.Descriptor) (*Registry, error) {
	reg := &Registry{routers: make(map[string]*resource.Router, len(descriptors))}
	for _, d := range descriptors {
		if _, dup := reg.routers[d.Tool]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", d.Tool)
		}
		router, err := resource.NewRouter(d)
		if err != nil {
			return nil, err
		}
		reg.routers[d.Tool] = router
		reg.tools = append(reg.tools, toolFor(d, router))
	}
	return reg, nil
}

// DefaultRegistry registers every Tag Manager tool.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(resource.Catalog())
}

// Tools returns tool metadata in registration order.
func (r *Registry) Tools() []*mcp.Tool {
	out := make([]*mcp.Tool, len(r.tools))
	copy(out, r.tools)
	return out
}

// Lookup finds the router for an exact tool name.
func (r *Registry) Lookup(name string) (*resource.Router, error) {
	router, ok := r.routers[name]
	if !ok {
		return nil, apperrors.UnknownTool(name)
	}
	return router, nil
}

func toolFor(d resource.Descriptor, router *resource.Router) *mcp.Tool {
	readOnly := true
	for _, a := range d.Actions {
		if a != resource.Get && a != resource.List {
			readOnly = false
		}
	}
	return &mcp.Tool{
		Name:        d.Tool,
		Description: d.Description,
		InputSchema: router.InputSchema(),
		Annotations: &mcp.ToolAnnotations{
			Title:           d.Title,
			ReadOnlyHint:    readOnly,
			DestructiveHint: boolPtr(d.Supports(resource.Delete)),
			OpenWorldHint:   boolPtr(true),
		},
	}
}

func boolPtr(b bool) *bool { return &b }
