// Package resources implements the resource and resource-template registry:
// URI-addressable content, with {param} placeholders turned into named
// regex capture groups for template matching. Grounded on the original
// minimcp resource_manager.py, translated from Python's re module onto Go's
// regexp (RE2 supports the same named-group syntax).
package resources

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/sreenaths/minimcp-go/internal/mcptypes"
	"github.com/sreenaths/minimcp-go/internal/schema"
)

// templateParamRegex matches {name} placeholders in a URI (or URI template).
var templateParamRegex = regexp.MustCompile(`\{(\w+)\}`)

// DuplicateNameError is returned by Add for an already-registered name.
type DuplicateNameError struct{ Name string }

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("resource %q is already registered", e.Name)
}

// DuplicateURIError is returned by Add when uri normalizes to the same
// string as an already-registered resource or template -- checked across
// both kinds together, as the original does.
type DuplicateURIError struct{ URI string }

func (e *DuplicateURIError) Error() string {
	return fmt.Sprintf("a resource with normalized uri %q is already registered", e.URI)
}

// ParamMismatchError is returned by Add when a uri's {param} placeholders
// and the descriptor's required input-schema properties are not exactly the
// same set -- the original enforces this equality so a template's arguments
// are never ambiguous.
type ParamMismatchError struct {
	URIParams, HandlerParams []string
}

func (e *ParamMismatchError) Error() string {
	return fmt.Sprintf("uri params %v do not match handler params %v", e.URIParams, e.HandlerParams)
}

// NotFoundError means resources/read named a uri matching no registered
// resource or resource template.
type NotFoundError struct{ URI string }

func (e *NotFoundError) Error() string { return fmt.Sprintf("resource %q is not registered", e.URI) }

type entry struct {
	descriptor    *schema.Descriptor
	uri           string // original, possibly templated, uri
	normalizedURI string // {param} replaced with the "|" sentinel
	pattern       *regexp.Regexp
	isTemplate    bool
	meta          Meta
}

// Meta carries the optional declared fields a resource can be registered
// with beyond its descriptor's name/description -- a display title, a
// mimeType read results fall back to when a handler's own result doesn't
// imply one, client display annotations, and arbitrary server-defined _meta.
// Passed as a variadic Add argument so every existing 2-arg call site (a
// resource with none of these) keeps compiling unchanged.
type Meta struct {
	Title       string
	Description string
	MimeType    string
	Annotations *mcptypes.Annotated
	Extra       map[string]any
}

// Registry holds every registered resource and resource template.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]*entry
	entries []*entry // insertion order, for deterministic List/find
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*entry)}
}

// Add registers a descriptor against uri. If uri contains {param}
// placeholders, it is registered as a resource template and the
// descriptor's input schema's required properties must exactly match the
// placeholder names. A plain uri with no placeholders is a static resource,
// and the descriptor's input schema must declare no required properties.
// meta optionally declares a display title/description/mimeType/annotations
// for the resource; at most one is accepted.
func (r *Registry) Add(uri string, d *schema.Descriptor, meta ...Meta) error {
	if uri == "" {
		return fmt.Errorf("resource uri must not be empty")
	}
	var m Meta
	if len(meta) > 0 {
		m = meta[0]
	}

	uriParams := paramSet(templateParamRegex.FindAllStringSubmatch(uri, -1))
	handlerParams := requiredParamSet(d.InputSchema())

	if len(uriParams) != 0 || len(handlerParams) != 0 {
		if !setsEqual(uriParams, handlerParams) {
			return &ParamMismatchError{URIParams: sortedKeys(uriParams), HandlerParams: sortedKeys(handlerParams)}
		}
	}

	normalized := normalizeURI(uri)
	isTemplate := len(uriParams) > 0

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[d.Name()]; exists {
		return &DuplicateNameError{Name: d.Name()}
	}
	for _, e := range r.entries {
		if e.normalizedURI == normalized {
			return &DuplicateURIError{URI: normalized}
		}
	}

	e := &entry{descriptor: d, uri: uri, normalizedURI: normalized, isTemplate: isTemplate, meta: m}
	if isTemplate {
		pattern, err := uriToPattern(uri)
		if err != nil {
			return fmt.Errorf("building pattern for uri %q: %w", uri, err)
		}
		e.pattern = pattern
	}

	r.byName[d.Name()] = e
	r.entries = append(r.entries, e)
	return nil
}

// Remove unregisters a resource or template by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byName[name]
	if !ok {
		return
	}
	delete(r.byName, name)
	for i, cur := range r.entries {
		if cur == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
}

// Len reports the total number of registered resources and templates.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// List returns the resources/list manifest: static resources only.
func (r *Registry) List() []mcptypes.Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptypes.Resource, 0)
	for _, e := range r.entries {
		if e.isTemplate {
			continue
		}
		out = append(out, mcptypes.Resource{
			URI:         e.uri,
			Name:        e.descriptor.Name(),
			Title:       e.meta.Title,
			Description: firstNonEmpty(e.meta.Description, e.descriptor.Description()),
			MimeType:    e.meta.MimeType,
			Annotations: e.meta.Annotations,
			Meta:        e.meta.Extra,
		})
	}
	return out
}

// ListTemplates returns the resources/templates/list manifest: templates
// only.
func (r *Registry) ListTemplates() []mcptypes.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcptypes.ResourceTemplate, 0)
	for _, e := range r.entries {
		if !e.isTemplate {
			continue
		}
		out = append(out, mcptypes.ResourceTemplate{
			URITemplate: e.uri,
			Name:        e.descriptor.Name(),
			Title:       e.meta.Title,
			Description: firstNonEmpty(e.meta.Description, e.descriptor.Description()),
			MimeType:    e.meta.MimeType,
			Annotations: e.meta.Annotations,
			Meta:        e.meta.Extra,
		})
	}
	return out
}

// Read resolves uri against every registered resource/template (exact match
// on non-template resources first, then first-matching template pattern,
// matching _find_matching_details's ordering) and invokes its handler.
func (r *Registry) Read(ctx context.Context, uri string) (mcptypes.ReadResourceResult, error) {
	e, args, err := r.find(uri)
	if err != nil {
		return mcptypes.ReadResourceResult{}, err
	}

	result, err := e.descriptor.Execute(ctx, args)
	if err != nil {
		return mcptypes.ReadResourceResult{}, fmt.Errorf("resource %q: %w", uri, err)
	}
	contents, err := convertResult(uri, e.meta.MimeType, result)
	if err != nil {
		return mcptypes.ReadResourceResult{}, fmt.Errorf("resource %q returned an unusable result: %w", uri, err)
	}
	return mcptypes.ReadResourceResult{Contents: contents}, nil
}

func (r *Registry) find(uri string) (*entry, map[string]any, error) {
	normalized := uri
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if !e.isTemplate && e.normalizedURI == normalized {
			return e, map[string]any{}, nil
		}
	}
	for _, e := range r.entries {
		if !e.isTemplate {
			continue
		}
		m := e.pattern.FindStringSubmatch(uri)
		if m == nil {
			continue
		}
		args := make(map[string]any, len(e.pattern.SubexpNames())-1)
		for i, name := range e.pattern.SubexpNames() {
			if i == 0 || name == "" {
				continue
			}
			args[name] = m[i]
		}
		return e, args, nil
	}
	return nil, nil, &NotFoundError{URI: uri}
}

// convertResult turns a handler's return value into ReadResourceContents:
// []byte is base64-encoded as a blob, a string is kept as text, anything
// else is JSON-pretty-serialized as text -- mirroring _read_resource.
// declaredMimeType, when the resource was registered with one, wins over
// every per-case default below; absent one, a result that renders as text
// (string, or the generic JSON-marshaled fallback) reports "text/plain"
// rather than assuming the caller wanted JSON, and a blob reports
// "application/octet-stream".
func convertResult(uri, declaredMimeType string, result any) ([]mcptypes.ResourceContents, error) {
	switch v := result.(type) {
	case mcptypes.ReadResourceResult:
		return v.Contents, nil
	case []mcptypes.ResourceContents:
		return v, nil
	case mcptypes.ResourceContents:
		return []mcptypes.ResourceContents{v}, nil
	case string:
		return []mcptypes.ResourceContents{{URI: uri, MimeType: firstNonEmpty(declaredMimeType, "text/plain"), Text: v}}, nil
	case []byte:
		return []mcptypes.ResourceContents{{URI: uri, MimeType: firstNonEmpty(declaredMimeType, "application/octet-stream"), Blob: base64.StdEncoding.EncodeToString(v)}}, nil
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("unable to serialize result: %w", err)
		}
		return []mcptypes.ResourceContents{{URI: uri, MimeType: firstNonEmpty(declaredMimeType, "text/plain"), Text: string(b)}}, nil
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

// normalizeURI replaces every {param} placeholder with the "|" sentinel so
// two templates that differ only in parameter names (e.g. "/a/{x}" and
// "/a/{y}") are detected as the same resource slot, exactly as
// _get_normalized_uri does.
func normalizeURI(uri string) string {
	return templateParamRegex.ReplaceAllString(uri, "|")
}

// uriToPattern builds an anchored regexp matching uri, with each {name}
// placeholder becoming a (?P<name>[^/]+) capture group. The rest of the uri
// is regexp-escaped. A NUL-byte sentinel protects the placeholders from
// QuoteMeta before the named groups are substituted back in, mirroring the
// original's use of "\x00" around placeholder names.
func uriToPattern(uri string) (*regexp.Regexp, error) {
	const sentinel = "\x00"
	protected := templateParamRegex.ReplaceAllString(uri, sentinel+"$1"+sentinel)
	escaped := regexp.QuoteMeta(protected)

	var b strings.Builder
	b.WriteString("^")
	parts := strings.Split(escaped, sentinel)
	// parts alternate: literal, name, literal, name, ...
	for i, part := range parts {
		if i%2 == 1 {
			b.WriteString("(?P<")
			b.WriteString(part)
			b.WriteString(">[^/]+)")
		} else {
			b.WriteString(part)
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}

func paramSet(matches [][]string) map[string]struct{} {
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m[1]] = struct{}{}
	}
	return set
}

func requiredParamSet(s *schema.Schema) map[string]struct{} {
	set := make(map[string]struct{})
	if s == nil {
		return set
	}
	for _, name := range s.Required {
		set[name] = struct{}{}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(s map[string]struct{}) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
