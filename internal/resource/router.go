package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/kutbudev/gtm-mcp/internal/apperrors"
	"github.com/kutbudev/gtm-mcp/internal/gtm"
	"github.com/kutbudev/gtm-mcp/internal/schema"
)

// Gateway performs one remote call with a bearer token.
type Gateway interface {
	Do(ctx context.Context, token string, call gtm.Call) (json.RawMessage, error)
}

// Plan is the single remote call a tool invocation resolves to.
type Plan struct {
	Action Action
	// Parent is the path of the enclosing resource, empty for accounts.
	Parent string
	Call   gtm.Call
}

type Router struct {
	desc    Descriptor
	payload *schema.Schema
}

// NewRouter compiles the payload schema of d, if it has one.
func NewRouter(d Descriptor) (*Router, error) {
	r := &Router{desc: d}
	if d.Schema == "" {
		return r, nil
	}

	omit := make([]string, 0, len(d.Parents)+2)
	for _, p := range d.Parents {
		omit = append(omit, p.Param)
	}
	omit = append(omit, d.IDParam, schema.Fingerprint)

	payload, err := schema.Compile(d.Schema, omit...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Tool, err)
	}
	r.payload = payload
	return r, nil
}

func (r *Router) Descriptor() Descriptor { return r.desc }

// Plan parses args and resolves them to a remote call. It never touches
// the network, so every argument problem is reported before any
// credential work happens.
func (r *Router) Plan(raw json.RawMessage) (*Plan, error) {
	d := r.desc

	args, err := decodeArgs(raw)
	if err != nil {
		return nil, apperrors.InvalidArguments("", d.Kind, err)
	}

	action, err := r.action(args)
	if err != nil {
		return nil, err
	}

	parent, err := r.parentPath(action, args)
	if err != nil {
		return nil, err
	}
	collection := join(parent, d.Collection)

	plan := &Plan{Action: action, Parent: parent}

	if d.Batch {
		return r.planBatch(plan, collection, args)
	}

	switch action {
	case List:
		plan.Call = gtm.Call{Method: http.MethodGet, Path: collection}
	case Create:
		config, err := r.config(action, args)
		if err != nil {
			return nil, err
		}
		plan.Call = gtm.Call{Method: http.MethodPost, Path: collection, Body: config}
	case Get, Update, Delete:
		id, err := r.ownID(action, args)
		if err != nil {
			return nil, err
		}
		path := join(collection, url.PathEscape(id))
		switch action {
		case Get:
			plan.Call = gtm.Call{Method: http.MethodGet, Path: path}
		case Delete:
			plan.Call = gtm.Call{Method: http.MethodDelete, Path: path}
		case Update:
			config, err := r.config(action, args)
			if err != nil {
				return nil, err
			}
			plan.Call = gtm.Call{Method: http.MethodPut, Path: path, Body: config}
		}
	default:
		return nil, apperrors.UnknownAction(action.String(), d.Kind)
	}
	return plan, nil
}

// planBatch handles collections addressed by a query parameter rather
// than a path id. Create and delete carry the id as a one-element list.
func (r *Router) planBatch(plan *Plan, collection string, args map[string]any) (*Plan, error) {
	if plan.Action == List {
		plan.Call = gtm.Call{Method: http.MethodGet, Path: collection}
		return plan, nil
	}

	id, err := r.ownID(plan.Action, args)
	if err != nil {
		return nil, err
	}
	query := url.Values{r.desc.IDParam: {id}}
	switch plan.Action {
	case Create:
		plan.Call = gtm.Call{Method: http.MethodPost, Path: collection, Query: query}
	case Delete:
		plan.Call = gtm.Call{Method: http.MethodDelete, Path: collection, Query: query}
	default:
		return nil, apperrors.UnknownAction(plan.Action.String(), r.desc.Kind)
	}
	return plan, nil
}

// Execute issues the planned call. Exactly one gateway call is made.
func (r *Router) Execute(ctx context.Context, gw Gateway, token string, p *Plan) (json.RawMessage, error) {
	out, err := gw.Do(ctx, token, p.Call)
	if err != nil {
		if gtm.IsUnauthorized(err) {
			return nil, apperrors.Authorization(p.Action.String(), r.desc.Kind, err)
		}
		return nil, apperrors.Remote(p.Action.String(), r.desc.Kind, err)
	}
	return out, nil
}

func (r *Router) action(args map[string]any) (Action, error) {
	v, ok := args["action"]
	if !ok || v == nil {
		return "", apperrors.MissingAction(r.desc.Kind)
	}
	s, ok := v.(string)
	if !ok {
		return "", apperrors.InvalidArguments("", r.desc.Kind, errors.New("action must be a string"))
	}
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", apperrors.MissingAction(r.desc.Kind)
	}
	action := Action(s)
	if !r.desc.Supports(action) {
		return "", apperrors.UnknownAction(s, r.desc.Kind)
	}
	return action, nil
}

func (r *Router) parentPath(action Action, args map[string]any) (string, error) {
	var path string
	for _, seg := range r.desc.Parents {
		id, err := r.required(action, args, seg.Param)
		if err != nil {
			return "", err
		}
		path = join(path, seg.Collection, url.PathEscape(id))
	}
	return path, nil
}

func (r *Router) ownID(action Action, args map[string]any) (string, error) {
	return r.required(action, args, r.desc.IDParam)
}

func (r *Router) required(action Action, args map[string]any, param string) (string, error) {
	id, err := stringArg(args, param)
	if err != nil {
		return "", apperrors.InvalidArguments(action.String(), r.desc.Kind, err)
	}
	if id == "" {
		return "", apperrors.MissingParameter(action.String(), r.desc.Kind, param)
	}
	return id, nil
}

func (r *Router) config(action Action, args map[string]any) (map[string]any, error) {
	v, ok := args["config"]
	if !ok || v == nil {
		return nil, apperrors.MissingParameter(action.String(), r.desc.Kind, "config")
	}
	config, ok := v.(map[string]any)
	if !ok {
		return nil, apperrors.Validation(action.String(), r.desc.Kind, errors.New("config must be an object"))
	}
	if r.payload != nil {
		if err := r.payload.Validate(config); err != nil {
			return nil, apperrors.Validation(action.String(), r.desc.Kind, err)
		}
	}
	return config, nil
}

// InputSchema describes the tool arguments.
func (r *Router) InputSchema() *jsonschema.Schema {
	d := r.desc

	enum := make([]any, 0, len(d.Actions))
	quoted := make([]string, 0, len(d.Actions))
	for _, a := range d.Actions {
		enum = append(enum, a.String())
		quoted = append(quoted, "'"+a.String()+"'")
	}

	props := map[string]*jsonschema.Schema{
		"action": {
			Type:        "string",
			Enum:        enum,
			Description: fmt.Sprintf("The %s operation to perform. Must be one of: %s.", d.Kind, strings.Join(quoted, ", ")),
		},
	}
	required := []string{"action"}
	for _, p := range d.Parents {
		props[p.Param] = &jsonschema.Schema{Type: "string", Description: p.Description}
		required = append(required, p.Param)
	}
	props[d.IDParam] = &jsonschema.Schema{Type: "string", Description: d.IDDescription}

	if d.Schema != "" && (d.Supports(Create) || d.Supports(Update)) {
		props["config"] = &jsonschema.Schema{
			Type:        "object",
			Description: r.configDescription(),
		}
	}

	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: &jsonschema.Schema{Not: &jsonschema.Schema{}},
	}
}

func (r *Router) configDescription() string {
	d := r.desc
	var actions []string
	for _, a := range []Action{Create, Update} {
		if d.Supports(a) {
			actions = append(actions, a.String())
		}
	}
	desc := fmt.Sprintf("Configuration for %s actions. Fields correspond to the GTM %s resource; path identifiers come from the arguments above.",
		strings.Join(actions, "/"), strings.ToUpper(d.Kind[:1])+d.Kind[1:])
	if r.payload != nil {
		if req := r.payload.Required(); len(req) > 0 {
			desc += " Required fields: " + strings.Join(req, ", ") + "."
		}
	}
	return desc
}

func decodeArgs(raw json.RawMessage) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// stringArg reads an identifier argument. Numeric ids are accepted since
// callers often pass them unquoted.
func stringArg(args map[string]any, key string) (string, error) {
	switch v := args[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%s must be a string", key)
	}
}

func join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}
