package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/schema"
)

func mustDescriptor(t *testing.T, name string, invoke schema.InvokeFunc) *schema.Descriptor {
	t.Helper()
	d, err := schema.NewDescriptor(name, "desc", schema.Object(map[string]*schema.Schema{
		"x": schema.String("x"),
	}), nil, invoke)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return d
}

func TestAddRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry()
	d := mustDescriptor(t, "echo", func(context.Context, map[string]any) (any, error) { return "ok", nil })
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := r.Add(d); err == nil {
		t.Fatalf("expected DuplicateNameError")
	}
}

func TestCallUnknownToolReturnsNotFoundError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Call(context.Background(), "missing", nil)
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("want NotFoundError, got %v", err)
	}
}

func TestCallConvertsHandlerErrorToIsErrorResult(t *testing.T) {
	r := NewRegistry()
	d := mustDescriptor(t, "boom", func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("kaboom")
	})
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	res, err := r.Call(context.Background(), "boom", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("handler errors must not propagate as protocol errors: %s", err)
	}
	if !res.IsError {
		t.Fatalf("want IsError true")
	}
	if len(res.Content) != 1 || res.Content[0].Text != "kaboom" {
		t.Fatalf("unexpected content: %+v", res.Content)
	}
}

func TestCallNormalizesStringResult(t *testing.T) {
	r := NewRegistry()
	d := mustDescriptor(t, "greet", func(context.Context, map[string]any) (any, error) { return "hi", nil })
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	res, err := r.Call(context.Background(), "greet", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.IsError || len(res.Content) != 1 || res.Content[0].Text != "hi" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestCallPassesThroughCallToolResult(t *testing.T) {
	r := NewRegistry()
	want := mcptypes.CallToolResult{Content: []mcptypes.TextContent{mcptypes.NewTextContent("pre-built")}}
	d := mustDescriptor(t, "raw", func(context.Context, map[string]any) (any, error) { return want, nil })
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	got, err := r.Call(context.Background(), "raw", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got.Content[0].Text != "pre-built" {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func mustDescriptorWithOutputSchema(t *testing.T, name string, outputSchema *schema.Schema, invoke schema.InvokeFunc) *schema.Descriptor {
	t.Helper()
	d, err := schema.NewDescriptor(name, "desc", schema.Object(map[string]*schema.Schema{
		"x": schema.String("x"),
	}), outputSchema, invoke)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	return d
}

func TestCallValidatesResultAgainstOutputSchema(t *testing.T) {
	r := NewRegistry()
	outputSchema := schema.Object(map[string]*schema.Schema{
		"sum": schema.Integer("the sum"),
	}, "sum")
	d := mustDescriptorWithOutputSchema(t, "add", outputSchema, func(context.Context, map[string]any) (any, error) {
		return map[string]any{"sum": 4}, nil
	})
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	res, err := r.Call(context.Background(), "add", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if res.IsError {
		t.Fatalf("want IsError false, got content: %+v", res.Content)
	}
	if res.StructuredContent["sum"] != float64(4) {
		t.Fatalf("want structured content sum=4, got %+v", res.StructuredContent)
	}
}

func TestCallReportsOutputSchemaMismatchAsIsError(t *testing.T) {
	r := NewRegistry()
	outputSchema := schema.Object(map[string]*schema.Schema{
		"sum": schema.Integer("the sum"),
	}, "sum")
	d := mustDescriptorWithOutputSchema(t, "add", outputSchema, func(context.Context, map[string]any) (any, error) {
		return map[string]any{"sum": "not a number"}, nil
	})
	if err := r.Add(d); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	res, err := r.Call(context.Background(), "add", map[string]any{"x": "y"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !res.IsError {
		t.Fatalf("want IsError true for an outputSchema mismatch, got %+v", res)
	}
}

func TestListReturnsManifestForEveryTool(t *testing.T) {
	r := NewRegistry()
	_ = r.Add(mustDescriptor(t, "a", func(context.Context, map[string]any) (any, error) { return nil, nil }))
	_ = r.Add(mustDescriptor(t, "b", func(context.Context, map[string]any) (any, error) { return nil, nil }))
	list := r.List()
	if len(list) != 2 {
		t.Fatalf("want 2 tools, got %d", len(list))
	}
}
