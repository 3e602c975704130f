// Package tools implements the tool registry: name-keyed handler storage,
// tools/list manifest generation, and tools/call dispatch. Grounded on the
// teacher's internal/tools/tools.go (Register/registry map shape,
// mutex-guarded ResourceManager accessor pattern from server.go) and the
// original minimcp tool_manager.py for the call/list semantics and the
// content-normalization rules of spec.md.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/schema"
)

// NotFoundError means tools/call named a tool with no registered handler.
// This is an error in *finding* the tool, so the core dispatcher maps it to
// an INVALID_PARAMS protocol-level error rather than a CallToolResult,
// exactly as spec.md's error table distinguishes "can't find/invoke the
// tool" from "the tool's own handler returned an error".
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("tool %q is not registered", e.Name) }

// DuplicateNameError is returned by Add when a tool with the same name is
// already registered -- registries enforce strict name uniqueness per the
// duplicate-handler-names design decision.
type DuplicateNameError struct{ Name string }

func (e *DuplicateNameError) Error() string { return fmt.Sprintf("tool %q is already registered", e.Name) }

// Registry holds every registered tool handler.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*schema.Descriptor
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*schema.Descriptor)}
}

// Add registers d under its own name. Returns DuplicateNameError if a tool
// with that name is already registered.
func (r *Registry) Add(d *schema.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[d.Name()]; exists {
		return &DuplicateNameError{Name: d.Name()}
	}
	r.entries[d.Name()] = d
	return nil
}

// Remove unregisters a tool by name. A no-op if the name is not registered.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Len reports how many tools are registered -- used to derive whether the
// "tools" capability should be advertised at all.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns the tools/list manifest for every registered tool.
func (r *Registry) List() []mcptypes.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptypes.Tool, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, mcptypes.Tool{
			Name:         d.Name(),
			Description:  d.Description(),
			InputSchema:  d.InputSchema(),
			OutputSchema: d.OutputSchema(),
		})
	}
	return out
}

// Call runs the named tool's handler against args and normalizes the result
// (or error) into a CallToolResult, following spec.md §4.3's rules:
//  1. an unknown tool name is reported as an error (not a CallToolResult) --
//     the caller could not find the tool to invoke it.
//  2. a handler error is always converted to CallToolResult{IsError: true},
//     never propagated as a protocol-level error, so the model sees the
//     failure and can self-correct.
//  3. a result that is already a CallToolResult or []mcptypes.TextContent is
//     passed through.
//  4. a string result becomes one user-role... server has no role field on
//     CallToolResult content, so it becomes a single TextContent block.
//  5. anything else is JSON-serialized and reported as a single text block.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (mcptypes.CallToolResult, error) {
	r.mu.RLock()
	d, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return mcptypes.CallToolResult{}, &NotFoundError{Name: name}
	}

	result, err := d.Execute(ctx, args)
	if err != nil {
		return mcptypes.CallToolResult{
			Content: []mcptypes.TextContent{mcptypes.NewTextContent(err.Error())},
			IsError: true,
		}, nil
	}

	out := convertResult(result)
	if outputSchema := d.OutputSchema(); outputSchema != nil {
		structured, verr := structuredContent(outputSchema, result)
		if verr != nil {
			return mcptypes.CallToolResult{
				Content: []mcptypes.TextContent{mcptypes.NewTextContent(
					fmt.Sprintf("tool %q result does not match its declared outputSchema: %s", name, verr),
				)},
				IsError: true,
			}, nil
		}
		out.StructuredContent = structured
	}
	return out, nil
}

// structuredContent converts result into a map[string]any (round-tripping it
// through JSON when it isn't already one, e.g. a struct) and validates it
// against s -- spec.md §4.3 step 4's "structured result must validate
// against outputSchema when one is declared" invariant.
func structuredContent(s *schema.Schema, result any) (map[string]any, error) {
	m, ok := result.(map[string]any)
	if !ok {
		b, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("marshaling result for outputSchema validation: %w", err)
		}
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, fmt.Errorf("result is not a JSON object, cannot satisfy outputSchema: %w", err)
		}
	}
	if err := schema.Validate(s, m); err != nil {
		return nil, err
	}
	return m, nil
}

func convertResult(result any) mcptypes.CallToolResult {
	switch v := result.(type) {
	case mcptypes.CallToolResult:
		return v
	case []mcptypes.TextContent:
		return mcptypes.CallToolResult{Content: v}
	case mcptypes.TextContent:
		return mcptypes.CallToolResult{Content: []mcptypes.TextContent{v}}
	case string:
		return mcptypes.CallToolResult{Content: []mcptypes.TextContent{mcptypes.NewTextContent(v)}}
	case nil:
		return mcptypes.CallToolResult{Content: []mcptypes.TextContent{}}
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return mcptypes.CallToolResult{
				Content: []mcptypes.TextContent{mcptypes.NewTextContent(fmt.Sprintf("%v", v))},
			}
		}
		return mcptypes.CallToolResult{Content: []mcptypes.TextContent{mcptypes.NewTextContent(string(b))}}
	}
}
