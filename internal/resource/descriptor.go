// Package resource maps tool arguments onto Tag Manager API calls.
//
// Every tool is one Router driven by a Descriptor. The descriptor names
// the resource's ancestors, its own collection and id parameter, the
// actions it supports, and the payload schema used for create and update.
package resource

type Action string

const (
	Get    Action = "get"
	List   Action = "list"
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

func (a Action) String() string { return string(a) }

// Segment is one level of the resource hierarchy: the collection name in
// the path and the argument that carries its id.
type Segment struct {
	Collection  string
	Param       string
	Description string
}

var (
	accountSegment   = Segment{Collection: "accounts", Param: "accountId", Description: "The unique ID of the GTM Account."}
	containerSegment = Segment{Collection: "containers", Param: "containerId", Description: "The unique ID of the GTM Container."}
	workspaceSegment = Segment{Collection: "workspaces", Param: "workspaceId", Description: "The unique ID of the GTM Workspace."}
)

type Descriptor struct {
	Tool        string
	Kind        string
	Title       string
	Description string
	Actions     []Action
	// Parents are the ancestor segments, outermost first.
	Parents    []Segment
	Collection string
	IDParam    string
	// IDDescription documents IDParam in the tool input schema.
	IDDescription string
	// Schema is the payload schema kind, empty when the resource takes no config.
	Schema string
	// Batch resources are addressed by a type list in the query instead
	// of an id in the path.
	Batch bool
}

// Supports reports whether action is declared for the resource.
func (d Descriptor) Supports(action Action) bool {
	for _, a := range d.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Address lists every segment from the root down to the resource itself.
func (d Descriptor) Address() []Segment {
	own := Segment{Collection: d.Collection, Param: d.IDParam, Description: d.IDDescription}
	out := make([]Segment, 0, len(d.Parents)+1)
	out = append(out, d.Parents...)
	return append(out, own)
}

var crud = []Action{Get, List, Create, Update, Delete}

// Catalog returns the descriptors of every tool the server exposes.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			Tool:          "gtm_account",
			Kind:          "account",
			Title:         "GTM Accounts",
			Description:   "Performs all account-related operations: get, list, update. Use the 'action' parameter to select the operation.",
			Actions:       []Action{Get, List, Update},
			Collection:    "accounts",
			IDParam:       "accountId",
			IDDescription: "The unique ID of the GTM Account. Required for get and update.",
			Schema:        "account",
		},
		{
			Tool:          "gtm_container",
			Kind:          "container",
			Title:         "GTM Containers",
			Description:   "Performs container operations: get, list, create, update, delete.",
			Actions:       crud,
			Parents:       []Segment{accountSegment},
			Collection:    "containers",
			IDParam:       "containerId",
			IDDescription: "The unique ID of the GTM Container. Required for get, update and delete.",
			Schema:        "container",
		},
		{
			Tool:          "gtm_workspace",
			Kind:          "workspace",
			Title:         "GTM Workspaces",
			Description:   "Performs workspace operations: get, list, create, update, delete.",
			Actions:       crud,
			Parents:       []Segment{accountSegment, containerSegment},
			Collection:    "workspaces",
			IDParam:       "workspaceId",
			IDDescription: "The unique ID of the GTM Workspace. Required for get, update and delete.",
			Schema:        "workspace",
		},
		{
			Tool:          "gtm_folder",
			Kind:          "folder",
			Title:         "GTM Folders",
			Description:   "Manages GTM folders for organizing tags, triggers, and variables.",
			Actions:       crud,
			Parents:       []Segment{accountSegment, containerSegment, workspaceSegment},
			Collection:    "folders",
			IDParam:       "folderId",
			IDDescription: "The unique ID of the GTM Folder. Required for get, update and delete.",
			Schema:        "folder",
		},
		{
			Tool:          "gtm_tag",
			Kind:          "tag",
			Title:         "GTM Tags",
			Description:   "Performs tag operations: get, list, create, update, delete.",
			Actions:       crud,
			Parents:       []Segment{accountSegment, containerSegment, workspaceSegment},
			Collection:    "tags",
			IDParam:       "tagId",
			IDDescription: "The unique ID of the GTM Tag. Required for get, update and delete.",
			Schema:        "tag",
		},
		{
			Tool:          "gtm_trigger",
			Kind:          "trigger",
			Title:         "GTM Triggers",
			Description:   "Performs trigger operations: get, list, create, update, delete.",
			Actions:       crud,
			Parents:       []Segment{accountSegment, containerSegment, workspaceSegment},
			Collection:    "triggers",
			IDParam:       "triggerId",
			IDDescription: "The unique ID of the GTM Trigger. Required for get, update and delete.",
			Schema:        "trigger",
		},
		{
			Tool:          "gtm_variable",
			Kind:          "variable",
			Title:         "GTM Variables",
			Description:   "Performs variable operations: get, list, create, update, delete.",
			Actions:       crud,
			Parents:       []Segment{accountSegment, containerSegment, workspaceSegment},
			Collection:    "variables",
			IDParam:       "variableId",
			IDDescription: "The unique ID of the GTM Variable. Required for get, update and delete.",
			Schema:        "variable",
		},
		{
			Tool:          "gtm_builtin_variable",
			Kind:          "built-in variable",
			Title:         "GTM Built-in Variables",
			Description:   "Manages GTM built-in variables: list, create (enable), delete (disable).",
			Actions:       []Action{List, Create, Delete},
			Parents:       []Segment{accountSegment, containerSegment, workspaceSegment},
			Collection:    "built_in_variables",
			IDParam:       "type",
			IDDescription: "Type of built-in variable (required for create/delete). Examples: 'pageUrl', 'pagePath', 'pageTitle', 'referrer', 'event', etc.",
			Batch:         true,
		},
	}
}
