// Package mcptypes holds the Model Context Protocol payload types that ride
// inside a jsonrpc.Request/Response: initialize, tools, prompts, resources.
// Field shapes and naming follow the teacher's internal/server/mcp/types.go,
// extended to cover prompts and resources (which genai-toolbox, being a
// tools-only server, never needed).
package mcptypes

import "github.com/sreenaths/minimcp-go/internal/schema"

// ServerName is the Implementation.Name this server reports unless
// ServerConfig overrides it.
const ServerName = "minimcp"

// LatestProtocolVersion is the most recent MCP protocol version this server
// speaks natively.
const LatestProtocolVersion = "2025-03-26"

// SupportedProtocolVersions lists every protocol version this server will
// negotiate down to if a client requests one it understands.
var SupportedProtocolVersions = []string{"2024-11-05", "2025-03-26"}

// Role is the sender/recipient of a conversational message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Implementation names an MCP client or server implementation.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ListChanged advertises whether a registry emits list-changed notifications.
// MiniMCP's registries are populated once at startup, so this is always
// omitted/false -- kept for wire compatibility with clients that check it.
type ListChanged struct {
	ListChanged *bool `json:"listChanged,omitempty"`
}

// ClientCapabilities is the subset of initialize params this server reads.
type ClientCapabilities struct {
	Experimental map[string]any `json:"experimental,omitempty"`
	Roots        *ListChanged   `json:"roots,omitempty"`
}

// ServerCapabilities is derived at Handle-time from which registries are
// non-empty -- a capability is advertised iff its list handler is registered,
// per the capability-advertisement invariant.
type ServerCapabilities struct {
	Tools     *ListChanged `json:"tools,omitempty"`
	Prompts   *ListChanged `json:"prompts,omitempty"`
	Resources *ListChanged `json:"resources,omitempty"`
	Logging   *struct{}    `json:"logging,omitempty"`
}

// InitializeParams is the initialize request payload.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the initialize response payload.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// EmptyResult is returned by handlers with nothing to say beyond success
// (resources/subscribe, resources/unsubscribe, logging/setLevel).
type EmptyResult struct{}

/* Annotations / content */

// Annotated carries optional client display hints shared by content types.
type Annotated struct {
	Audience []Role  `json:"audience,omitempty"`
	Priority float64 `json:"priority,omitempty"`
}

// TextContent is a plain-text content block -- the only content kind this
// server produces, matching the teacher's scope.
type TextContent struct {
	Type        string     `json:"type"`
	Text        string     `json:"text"`
	Annotations *Annotated `json:"annotations,omitempty"`
}

// NewTextContent builds a "text"-typed content block.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

/* Tools */

// Tool is the wire representation of one registered tool, as returned from
// tools/list.
type Tool struct {
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	InputSchema  *schema.Schema `json:"inputSchema"`
	OutputSchema *schema.Schema `json:"outputSchema,omitempty"`
}

// ListToolsResult is the tools/list response payload.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams is the tools/call request payload.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is the tools/call response payload. Per the MCP contract,
// handler-raised errors are reported here with IsError true, never as a
// protocol-level JSON-RPC error -- only failures to find/invoke the tool
// itself become RPC errors. StructuredContent is populated only for tools
// that declare an outputSchema, once their result has validated against it;
// a validation mismatch is reported as IsError instead, never silently.
type CallToolResult struct {
	Content           []TextContent  `json:"content"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

/* Prompts */

// PromptArgument describes one named argument a prompt template accepts,
// derived from its input schema's properties/required the way the original
// prompt_manager.py's _get_arguments does.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Prompt is the wire representation of one registered prompt template.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// ListPromptsResult is the prompts/list response payload.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams is the prompts/get request payload.
type GetPromptParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// PromptMessage is one rendered message in a prompt's result.
type PromptMessage struct {
	Role    Role        `json:"role"`
	Content TextContent `json:"content"`
}

// GetPromptResult is the prompts/get response payload.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

/* Resources */

// Resource is a statically addressable piece of content.
type Resource struct {
	URI         string         `json:"uri"`
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	Annotations *Annotated     `json:"annotations,omitempty"`
	Meta        map[string]any `json:"_meta,omitempty"`
}

// ResourceTemplate is a resource whose uri contains {param} placeholders.
type ResourceTemplate struct {
	URITemplate string         `json:"uriTemplate"`
	Name        string         `json:"name"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	MimeType    string         `json:"mimeType,omitempty"`
	Annotations *Annotated     `json:"annotations,omitempty"`
	Meta        map[string]any `json:"_meta,omitempty"`
}

// ListResourcesResult is the resources/list response payload.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ListResourceTemplatesResult is the resources/templates/list response
// payload.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

// ReadResourceParams is the resources/read request payload.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one content block of a resources/read response -- Text
// carries string (and JSON-serialized) results, Blob carries a []byte result
// base64-encoded (mirrors the Python SDK's ReadResourceContents choosing
// between str and bytes).
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult is the resources/read response payload.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeResourceParams / UnsubscribeResourceParams are the
// resources/subscribe and resources/unsubscribe request payloads. Both are
// accepted and acked with EmptyResult but do not actually track
// subscriptions -- change notifications are an explicit Non-goal.
type SubscribeResourceParams struct {
	URI string `json:"uri"`
}

type UnsubscribeResourceParams struct {
	URI string `json:"uri"`
}

/* Progress */

// ProgressNotificationParams is the notifications/progress payload sent by
// Responder.ReportProgress.
type ProgressNotificationParams struct {
	ProgressToken any      `json:"progressToken"`
	Progress      float64  `json:"progress"`
	Total         *float64 `json:"total,omitempty"`
	Message       string   `json:"message,omitempty"`
}

/* Logging */

// SetLevelParams is the logging/setLevel request payload.
type SetLevelParams struct {
	Level string `json:"level"`
}

/* Completion */

// CompleteReference names the prompt or resource template an
// completion/complete request is asking about.
type CompleteReference struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

// CompleteArgument is the partially-typed argument a client is requesting
// completions for.
type CompleteArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CompleteParams is the completion/complete request payload.
type CompleteParams struct {
	Ref      CompleteReference `json:"ref"`
	Argument CompleteArgument  `json:"argument"`
}

// Completion is the candidate-values payload of a CompleteResult.
type Completion struct {
	Values  []string `json:"values"`
	Total   int      `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

// CompleteResult is the completion/complete response payload. MiniMCP has no
// completion providers registered, so every call returns an empty Completion
// -- this keeps the method a valid no-op instead of a protocol error for
// clients that probe it unconditionally.
type CompleteResult struct {
	Completion Completion `json:"completion"`
}
