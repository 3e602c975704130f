// Package prompts implements the prompt registry: parameterized message
// templates addressed by name. Grounded on the original minimcp
// prompt_manager.py, translated into the tools.Registry shape for
// consistency with the rest of minimcp's registries.
package prompts

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/schema"
)

// NotFoundError means prompts/get named a prompt with no registered handler.
type NotFoundError struct{ Name string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("prompt %q is not registered", e.Name) }

// DuplicateNameError is returned by Add for an already-registered name.
type DuplicateNameError struct{ Name string }

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("prompt %q is already registered", e.Name)
}

// Registry holds every registered prompt handler.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*schema.Descriptor
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*schema.Descriptor)}
}

// Add registers d under its own name.
func (r *Registry) Add(d *schema.Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[d.Name()]; exists {
		return &DuplicateNameError{Name: d.Name()}
	}
	r.entries[d.Name()] = d
	return nil
}

// Remove unregisters a prompt by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Len reports how many prompts are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns the prompts/list manifest, deriving each prompt's argument
// list from its input schema's properties/required -- the Go equivalent of
// _get_arguments.
func (r *Registry) List() []mcptypes.Prompt {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptypes.Prompt, 0, len(r.entries))
	for _, d := range r.entries {
		out = append(out, mcptypes.Prompt{
			Name:        d.Name(),
			Description: d.Description(),
			Arguments:   argumentsFromSchema(d.InputSchema()),
		})
	}
	return out
}

func argumentsFromSchema(s *schema.Schema) []mcptypes.PromptArgument {
	if s == nil {
		return nil
	}
	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}
	args := make([]mcptypes.PromptArgument, 0, len(s.Properties))
	for name, prop := range s.Properties {
		desc := ""
		if prop != nil {
			desc = prop.Description
		}
		args = append(args, mcptypes.PromptArgument{
			Name:        name,
			Description: desc,
			Required:    required[name],
		})
	}
	return args
}

// Get renders the named prompt. Unlike tools, a prompt handler error is a
// genuine failure to produce the prompt (there is no "isError" field on
// GetPromptResult to carry it), so it propagates as an error for the core
// dispatcher to map to INTERNAL_ERROR, matching the original's ValueError
// wrapping in PromptManager.get.
func (r *Registry) Get(ctx context.Context, name string, args map[string]any) (mcptypes.GetPromptResult, error) {
	r.mu.RLock()
	d, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return mcptypes.GetPromptResult{}, &NotFoundError{Name: name}
	}

	result, err := d.Execute(ctx, args)
	if err != nil {
		return mcptypes.GetPromptResult{}, fmt.Errorf("prompt %q: %w", name, err)
	}

	messages, err := convertResult(result)
	if err != nil {
		return mcptypes.GetPromptResult{}, fmt.Errorf("prompt %q returned an unusable result: %w", name, err)
	}
	return mcptypes.GetPromptResult{Description: d.Description(), Messages: messages}, nil
}

// convertResult applies _convert_result's rule order: a PromptMessage (or
// slice of them) is kept as-is; a map is validated as a PromptMessage; a
// string becomes a single user-role text message; anything else is
// JSON-serialized as a user-role text message.
func convertResult(result any) ([]mcptypes.PromptMessage, error) {
	switch v := result.(type) {
	case mcptypes.GetPromptResult:
		return v.Messages, nil
	case []mcptypes.PromptMessage:
		return v, nil
	case mcptypes.PromptMessage:
		return []mcptypes.PromptMessage{v}, nil
	case string:
		return []mcptypes.PromptMessage{{Role: mcptypes.RoleUser, Content: mcptypes.NewTextContent(v)}}, nil
	case map[string]any:
		return convertMapToPromptMessage(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("unable to serialize result: %w", err)
		}
		return []mcptypes.PromptMessage{{Role: mcptypes.RoleUser, Content: mcptypes.NewTextContent(string(b))}}, nil
	}
}

// convertMapToPromptMessage validates a bare map result as a single
// PromptMessage{role, content} rather than silently falling back to the
// JSON-serialized text arm -- a handler returning e.g. {"role": "assistant",
// "content": {...}} means it, and a mismatch should surface as an error, not
// as a prompt message containing the map's own JSON dump.
func convertMapToPromptMessage(v map[string]any) ([]mcptypes.PromptMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize result: %w", err)
	}
	var msg mcptypes.PromptMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return nil, fmt.Errorf("result is not a valid PromptMessage: %w", err)
	}
	if msg.Role == "" || msg.Content.Text == "" {
		return nil, fmt.Errorf("result map must have non-empty role and content.text to be used as a PromptMessage")
	}
	return []mcptypes.PromptMessage{msg}, nil
}
