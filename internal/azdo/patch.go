package azdo

import (
	"maps"
	"slices"
	"strings"
)

// OpKind is a JSON-Patch operation verb.
type OpKind string

const (
	OpAdd     OpKind = "add"
	OpReplace OpKind = "replace"
	OpRemove  OpKind = "remove"
	OpTest    OpKind = "test"
)

// PatchOperation is one entry of a JSON-Patch document. The backend applies
// a document's operations in order and atomically.
type PatchOperation struct {
	Op    OpKind `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// FieldPath returns the patch path for a work item field reference name.
func FieldPath(name string) string {
	return "/fields/" + name
}

// Common work item field reference names.
const (
	FieldTitle         = "System.Title"
	FieldDescription   = "System.Description"
	FieldAssignedTo    = "System.AssignedTo"
	FieldState         = "System.State"
	FieldAreaPath      = "System.AreaPath"
	FieldIterationPath = "System.IterationPath"
	FieldTags          = "System.Tags"
	FieldHistory       = "System.History"
	FieldTestSteps     = "Microsoft.VSTS.TCM.Steps"
)

// FieldSet is an insertion-ordered mapping of field reference name to value.
// Setting an existing name replaces its value but keeps its position.
type FieldSet struct {
	names  []string
	values map[string]any
}

// NewFieldSet returns an empty FieldSet.
func NewFieldSet() *FieldSet {
	return &FieldSet{values: make(map[string]any)}
}

// Set records name = value and returns the set for chaining.
func (f *FieldSet) Set(name string, value any) *FieldSet {
	if _, ok := f.values[name]; !ok {
		f.names = append(f.names, name)
	}
	f.values[name] = value
	return f
}

// Get returns the value for name.
func (f *FieldSet) Get(name string) (any, bool) {
	if f == nil {
		return nil, false
	}
	v, ok := f.values[name]
	return v, ok
}

// Len returns the number of fields.
func (f *FieldSet) Len() int {
	if f == nil {
		return 0
	}
	return len(f.names)
}

// Names returns field names in insertion order.
func (f *FieldSet) Names() []string {
	return append([]string(nil), f.names...)
}

// Operations builds one op per field, in insertion order. A nil value
// clears the field: add and replace become remove, which carries no value.
func (f *FieldSet) Operations(op OpKind) []PatchOperation {
	if f == nil {
		return nil
	}
	ops := make([]PatchOperation, 0, len(f.names))
	for _, name := range f.names {
		v := f.values[name]
		if v == nil && (op == OpAdd || op == OpReplace) {
			ops = append(ops, PatchOperation{Op: OpRemove, Path: FieldPath(name)})
			continue
		}
		ops = append(ops, PatchOperation{Op: op, Path: FieldPath(name), Value: v})
	}
	return ops
}

// WorkItemFields holds the common, optional work item fields. Nil pointers
// and nil Tags are left out of the built set.
type WorkItemFields struct {
	Title         *string
	Description   *string
	AssignedTo    *string
	State         *string
	AreaPath      *string
	IterationPath *string
	Tags          []string
	// Extra fields are appended after the common ones, overriding any of them.
	Extra map[string]any
}

// BuildFields converts WorkItemFields into an ordered FieldSet.
func BuildFields(w WorkItemFields) *FieldSet {
	f := NewFieldSet()
	setIf := func(name string, v *string) {
		if v != nil {
			f.Set(name, *v)
		}
	}
	setIf(FieldTitle, w.Title)
	setIf(FieldDescription, w.Description)
	setIf(FieldAssignedTo, w.AssignedTo)
	setIf(FieldState, w.State)
	setIf(FieldAreaPath, w.AreaPath)
	setIf(FieldIterationPath, w.IterationPath)
	if w.Tags != nil {
		f.Set(FieldTags, JoinTags(w.Tags))
	}
	for _, name := range slices.Sorted(maps.Keys(w.Extra)) {
		f.Set(name, w.Extra[name])
	}
	return f
}

// JoinTags trims tags, drops empty ones and joins them the way the backend
// stores System.Tags.
func JoinTags(tags []string) string {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	return strings.Join(clean, "; ")
}

// SplitTags parses a System.Tags value.
func SplitTags(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// MergeTags returns (current ∪ add) − remove, compared case-insensitively,
// keeping the first spelling and order seen.
func MergeTags(current, add, remove []string) []string {
	removed := make(map[string]bool, len(remove))
	for _, t := range remove {
		removed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	seen := make(map[string]bool)
	var out []string
	for _, t := range append(append([]string(nil), current...), add...) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] || removed[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}
