package schema

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/erraggy/dtoapi/dtoerrors"
	"github.com/erraggy/dtoapi/meta"
)

// Registry collects the documents reachable from root types through array
// item references, each recorded once under its component name.
type Registry struct {
	factory *Factory
	namer   *Namer
	logger  meta.Logger

	mu     sync.Mutex
	byRef  map[meta.TypeRef]*Document
	byName map[string]meta.TypeRef
}

// NewRegistry creates a registry deriving documents through factory. Names
// come from the factory's namer.
func NewRegistry(factory *Factory, opts ...Option) *Registry {
	cfg := newConfig(opts)
	return &Registry{
		factory: factory,
		namer:   factory.Namer(),
		logger:  cfg.logger,
		byRef:   make(map[meta.TypeRef]*Document),
		byName:  make(map[string]meta.TypeRef),
	}
}

// Ensure records ref and every type it references. Failures of the root
// type are returned; unresolvable nested references are skipped. Two
// different types sharing a component name fail with an error matching
// dtoerrors.ErrNameCollision.
func (r *Registry) Ensure(ref meta.TypeRef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var added []meta.TypeRef
	if err := r.ensureLocked(ref, true, &added); err != nil {
		// A failed Ensure records nothing, so a retry fails the same way.
		for _, a := range added {
			delete(r.byName, r.namer.Name(a))
			delete(r.byRef, a)
		}
		return err
	}
	return nil
}

func (r *Registry) ensureLocked(ref meta.TypeRef, root bool, added *[]meta.TypeRef) error {
	if _, ok := r.byRef[ref]; ok {
		return nil
	}
	doc, err := r.factory.Build(ref)
	if err != nil {
		if root {
			return err
		}
		r.logger.Debug("skipping unresolvable reference", "ref", ref, "error", err)
		return nil
	}

	name := r.namer.Name(ref)
	if existing, ok := r.byName[name]; ok && existing != ref {
		return dtoerrors.NewNameCollisionError(name, string(existing), string(ref))
	}
	r.byRef[ref] = doc
	r.byName[name] = ref
	*added = append(*added, ref)

	for _, dep := range doc.Dependencies {
		if err := r.ensureLocked(dep, false, added); err != nil {
			if errors.Is(err, dtoerrors.ErrNameCollision) {
				return err
			}
			r.logger.Debug("skipping reference", "from", ref, "ref", dep, "error", err)
		}
	}
	return nil
}

// Export returns the recorded documents keyed by component name.
func (r *Registry) Export() map[string]*Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*Document, len(r.byName))
	for name, ref := range r.byName {
		out[name] = r.byRef[ref]
	}
	return out
}

// Names returns the recorded component names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.byName))
}

// Lookup returns the document recorded under name.
func (r *Registry) Lookup(name string) (*Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.byRef[ref], true
}

// SchemaName returns the component name used for ref.
func (r *Registry) SchemaName(ref meta.TypeRef) string {
	return r.namer.Name(ref)
}
