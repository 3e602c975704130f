package schema

import (
	"context"
	"fmt"
)

// InvokeFunc is the closure a registered handler executes: parsed/validated
// arguments in, a result value or error out. Tool/prompt/resource registries
// each wrap the result differently, so Descriptor stays agnostic about
// what "result" means.
type InvokeFunc func(ctx context.Context, args map[string]any) (any, error)

// Descriptor is the compile-time registration unit for a tool, prompt, or
// resource handler: name, optional human-readable description, an input
// schema used to validate arguments before Invoke runs, an optional output
// schema (advertised to clients, not itself enforced), and the invoke
// closure. This is option (b) from the ambient-context design note: no
// runtime reflection, the caller states the schema explicitly.
type Descriptor struct {
	name         string
	description  string
	inputSchema  *Schema
	outputSchema *Schema
	invoke       InvokeFunc
}

// NewDescriptor validates the minimal registration-time invariants (Go has
// no classmethod/staticmethod/*args ambiguity to reject, unlike the
// original's validate_func, so this collapses to: name and invoke are
// required) and returns a ready-to-call Descriptor.
func NewDescriptor(name, description string, inputSchema, outputSchema *Schema, invoke InvokeFunc) (*Descriptor, error) {
	if name == "" {
		return nil, fmt.Errorf("descriptor name must not be empty")
	}
	if invoke == nil {
		return nil, fmt.Errorf("descriptor %q: invoke function must not be nil", name)
	}
	return &Descriptor{
		name:         name,
		description:  description,
		inputSchema:  inputSchema,
		outputSchema: outputSchema,
		invoke:       invoke,
	}, nil
}

func (d *Descriptor) Name() string          { return d.name }
func (d *Descriptor) Description() string   { return d.description }
func (d *Descriptor) InputSchema() *Schema  { return d.inputSchema }
func (d *Descriptor) OutputSchema() *Schema { return d.outputSchema }

// Execute validates args against the input schema and then invokes the
// handler -- mirroring MCPFunc.execute's validate-then-call-then-await shape,
// minus the coroutine-awaiting step Go doesn't need.
func (d *Descriptor) Execute(ctx context.Context, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}
	if err := Validate(d.inputSchema, args); err != nil {
		return nil, err
	}
	return d.invoke(ctx, args)
}
