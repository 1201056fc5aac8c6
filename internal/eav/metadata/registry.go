package metadata

import (
	"fmt"
	"sync"

	"github.com/Seliarn/nc2018team1/internal/eav"
)

// Type is the category-erased view of a Descriptor the registry holds.
type Type interface {
	TypeName() string
	ObjectTypeID() int64
	Categories() map[int64]eav.Category
}

// Registry tracks every declared record type. Registration happens once
// at application startup and validates eagerly: an invalid declaration
// fails loudly instead of surfacing later inside a repository call.
type Registry struct {
	mu      sync.RWMutex
	byType  map[int64]Type
	byAttr  map[int64]eav.Category
	declared map[int64]string // attribute id -> declaring type, for diagnostics
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType:   make(map[int64]Type),
		byAttr:   make(map[int64]eav.Category),
		declared: make(map[int64]string),
	}
}

var globalRegistry = NewRegistry()

// Register validates the descriptor and adds it to the global registry.
func Register[T any](d *Descriptor[T]) error {
	return globalRegistry.Register(d)
}

// Register validates the descriptor and records its type.
// Attribute ids are global: the same id may appear in several types only
// under the same category.
func (r *Registry) Register(t Type) error {
	type validator interface{ Validate() error }
	if v, ok := t.(validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, dup := r.byType[t.ObjectTypeID()]; dup {
		return fmt.Errorf("object-type id %d declared by both %q and %q",
			t.ObjectTypeID(), prev.TypeName(), t.TypeName())
	}
	for attrID, cat := range t.Categories() {
		if prevCat, seen := r.byAttr[attrID]; seen && prevCat != cat {
			return fmt.Errorf("attribute id %d declared as %s by %q but as %s by %q",
				attrID, prevCat, r.declared[attrID], cat, t.TypeName())
		}
	}
	for attrID, cat := range t.Categories() {
		r.byAttr[attrID] = cat
		r.declared[attrID] = t.TypeName()
	}
	r.byType[t.ObjectTypeID()] = t
	return nil
}

// Lookup returns the type registered under an object-type id.
func (r *Registry) Lookup(objectTypeID int64) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.byType[objectTypeID]
	return t, ok
}

// Types returns every registered type.
func (r *Registry) Types() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Type, 0, len(r.byType))
	for _, t := range r.byType {
		out = append(out, t)
	}
	return out
}

// Reset clears the global registry (used for testing).
func Reset() {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	globalRegistry.byType = make(map[int64]Type)
	globalRegistry.byAttr = make(map[int64]eav.Category)
	globalRegistry.declared = make(map[int64]string)
}
