package response

import (
	"errors"
	"maps"
	"net/http"
	"reflect"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/erraggy/dtoapi/meta"
)

var errNoProvider = errors.New("response: no metadata provider")

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger for skipped type references.
func WithLogger(l meta.Logger) Option {
	return func(r *Resolver) {
		r.logger = meta.OrNop(l)
	}
}

// WithRegisterer registers the resolver's counters with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(r *Resolver) {
		r.registerer = reg
	}
}

// Resolver merges method-level, type-level and global default response
// declarations into status-keyed tables.
type Resolver struct {
	provider   meta.Provider
	defaults   map[int]meta.DefaultResponse
	statuses   []int
	logger     meta.Logger
	registerer prometheus.Registerer

	resolved  prometheus.Counter
	cacheHits prometheus.Counter

	tables sync.Map // meta.OperationRef -> Table
	group  singleflight.Group
}

// New creates a resolver. provider supplies type-level declarations and Go
// types; defaults is the global default tier, keyed by status.
func New(provider meta.Provider, defaults map[int]meta.DefaultResponse, opts ...Option) *Resolver {
	r := &Resolver{
		provider: provider,
		defaults: maps.Clone(defaults),
		logger:   meta.NopLogger{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.statuses = slices.Sorted(maps.Keys(r.defaults))
	r.resolved = promauto.With(r.registerer).NewCounter(prometheus.CounterOpts{
		Name: "dtoapi_response_tables_resolved_total",
		Help: "Total number of response tables resolved.",
	})
	r.cacheHits = promauto.With(r.registerer).NewCounter(prometheus.CounterOpts{
		Name: "dtoapi_response_table_cache_hits_total",
		Help: "Total number of operation response tables served from the cache.",
	})
	return r
}

// Resolve builds the response table for one operation. The first tier to
// claim a status wins: method-level entries, then the first declaration of
// each referenced payload type, then the global defaults. Within the method
// tier a later entry replaces an earlier one for the same status. Type
// references that cannot be described are skipped.
func (r *Resolver) Resolve(methodLevel []meta.ResponseMeta, typeRefs []meta.TypeRef) Table {
	claimed := make(map[int]Resolved)
	claim := func(e Resolved) {
		if _, ok := claimed[e.Status]; !ok {
			claimed[e.Status] = e
		}
	}

	for _, m := range methodLevel {
		e := fromMeta(m, TierMethod)
		e.GoType = r.goType(e.Payload)
		claimed[e.Status] = e
	}

	for _, ref := range typeRefs {
		tm, err := r.describe(ref)
		if err != nil {
			r.logger.Debug("skipping response type", "ref", ref, "error", err)
			continue
		}
		if len(tm.Responses) == 0 {
			claim(Resolved{
				Status:      http.StatusOK,
				Payload:     ref,
				ContentType: meta.ContentTypeJSON,
				Source:      TierType,
				GoType:      tm.GoType,
			})
			continue
		}
		e := fromMeta(tm.Responses[0], TierType)
		e.Payload = ref
		e.GoType = tm.GoType
		claim(e)
	}

	for _, status := range r.statuses {
		def := r.defaults[status]
		contentType := def.ContentType
		if contentType == "" {
			contentType = meta.DefaultContentType(def.Stream)
		}
		claim(Resolved{
			Status:      status,
			Payload:     def.Payload,
			ContentType: contentType,
			Stream:      def.Stream,
			Description: def.Description,
			Source:      TierDefault,
			GoType:      r.goType(def.Payload),
		})
	}

	table := make(Table, 0, len(claimed))
	for _, status := range slices.Sorted(maps.Keys(claimed)) {
		table = append(table, claimed[status])
	}
	r.resolved.Inc()
	return table
}

// ResolveOperation resolves the table of a described operation. Tables are
// cached per operation; concurrent first calls share one resolution.
func (r *Resolver) ResolveOperation(ref meta.OperationRef) (Table, error) {
	if t, ok := r.tables.Load(ref); ok {
		r.cacheHits.Inc()
		return slices.Clone(t.(Table)), nil
	}
	v, err, _ := r.group.Do(string(ref), func() (any, error) {
		if t, ok := r.tables.Load(ref); ok {
			return t, nil
		}
		if r.provider == nil {
			return nil, errNoProvider
		}
		op, err := r.provider.DescribeOperation(ref)
		if err != nil {
			return nil, err
		}
		t, _ := r.tables.LoadOrStore(ref, r.Resolve(op.Responses, op.ResponseTypes))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return slices.Clone(v.(Table)), nil
}

func (r *Resolver) describe(ref meta.TypeRef) (*meta.TypeMeta, error) {
	if r.provider == nil {
		return nil, errNoProvider
	}
	return r.provider.DescribeType(ref)
}

// goType returns the Go type behind ref, or nil.
func (r *Resolver) goType(ref meta.TypeRef) reflect.Type {
	if ref == "" || r.provider == nil {
		return nil
	}
	tm, err := r.provider.DescribeType(ref)
	if err != nil {
		return nil
	}
	return tm.GoType
}

// fromMeta defaults a declaration: status 200, content type by stream flag.
func fromMeta(m meta.ResponseMeta, tier Tier) Resolved {
	status := m.Status
	if status == 0 {
		status = http.StatusOK
	}
	contentType := m.ContentType
	if contentType == "" {
		contentType = meta.DefaultContentType(m.Stream)
	}
	return Resolved{
		Status:      status,
		Payload:     m.Payload,
		ContentType: contentType,
		Stream:      m.Stream,
		Name:        m.Name,
		Description: m.Description,
		Source:      tier,
	}
}
