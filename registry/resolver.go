package registry

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/Dawdaborje/sorobonto-backend/compose"
	"github.com/Dawdaborje/sorobonto-backend/schemabuilder"
)

// Status classifies the outcome of resolving one module.
type Status int

const (
	// Loaded means the module's schema loaded. It may still contribute nothing.
	Loaded Status = iota
	// Absent means no source has a schema for the module. This is not an error.
	Absent
	// Failed means the module's schema exists but could not be loaded.
	Failed
)

func (s Status) String() string {
	switch s {
	case Loaded:
		return "loaded"
	case Absent:
		return "absent"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ErrInvalidModule is the cause of a Failed outcome for an empty identifier.
var ErrInvalidModule = errors.New("registry: invalid module identifier")

// PanicError is the cause of a Failed outcome for a loader that panicked.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Outcome is the result of resolving one module identifier.
type Outcome struct {
	Module string
	Status Status
	// Contribution is set when Status is Loaded.
	Contribution *schemabuilder.Schema
	// Err is the cause when Status is Failed.
	Err error
}

// Summary counts outcomes by status.
type Summary struct {
	Loaded int
	Absent int
	Failed int
	// FailedModules lists failed identifiers in resolution order.
	FailedModules []string
}

// Resolution holds the ordered outcomes of one Resolve call and the
// capabilities of the loaded modules.
type Resolution struct {
	outcomes  []Outcome
	queries   []compose.Capability
	mutations []compose.Capability
}

// Outcomes returns one outcome per identifier, in input order.
func (r *Resolution) Outcomes() []Outcome {
	out := make([]Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Queries returns the query capabilities in module order.
func (r *Resolution) Queries() []compose.Capability {
	out := make([]compose.Capability, len(r.queries))
	copy(out, r.queries)
	return out
}

// Mutations returns the mutation capabilities in module order.
func (r *Resolution) Mutations() []compose.Capability {
	out := make([]compose.Capability, len(r.mutations))
	copy(out, r.mutations)
	return out
}

// Summary counts the outcomes.
func (r *Resolution) Summary() Summary {
	var s Summary
	for _, o := range r.outcomes {
		switch o.Status {
		case Loaded:
			s.Loaded++
		case Absent:
			s.Absent++
		case Failed:
			s.Failed++
			s.FailedModules = append(s.FailedModules, o.Module)
		}
	}
	return s
}

// Close releases what the loaded modules registered with OnClose, last module
// first. It is safe to call more than once.
func (r *Resolution) Close() error {
	var errs []error
	for i := len(r.outcomes) - 1; i >= 0; i-- {
		o := r.outcomes[i]
		if o.Contribution == nil {
			continue
		}
		if err := o.Contribution.Close(); err != nil {
			errs = append(errs, fmt.Errorf("registry: close %s: %w", o.Module, err))
		}
	}
	return errors.Join(errs...)
}

// Observer is notified of every outcome and capability. metrics.Collector
// implements it.
type Observer interface {
	ObserveOutcome(module string, status string)
	ObserveCapability(module string, kind string)
}

// Resolver loads module schemas from an ordered list of sources.
type Resolver struct {
	sources  []Source
	logger   zerolog.Logger
	observer Observer
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger outcome records are written to.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// WithObserver sets an observer for outcomes.
func WithObserver(o Observer) ResolverOption {
	return func(r *Resolver) {
		r.observer = o
	}
}

// NewResolver creates a resolver that consults sources in order.
func NewResolver(sources []Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{sources: sources, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve loads every module in ids, in order. A module that is absent or fails
// never stops the modules after it.
func (r *Resolver) Resolve(ids []string) *Resolution {
	res := &Resolution{outcomes: make([]Outcome, 0, len(ids))}

	for _, id := range ids {
		outcome := r.resolveOne(id)
		res.outcomes = append(res.outcomes, outcome)
		r.record(outcome)

		if outcome.Status != Loaded {
			continue
		}
		query, mutation := outcome.Contribution.Capabilities()
		if query != nil {
			res.queries = append(res.queries, compose.Capability{Module: id, Object: query})
			r.recordCapability(id, "query", query)
		}
		if mutation != nil {
			res.mutations = append(res.mutations, compose.Capability{Module: id, Object: mutation})
			r.recordCapability(id, "mutation", mutation)
		}
	}
	return res
}

func (r *Resolver) resolveOne(id string) Outcome {
	if id == "" {
		return Outcome{Module: id, Status: Failed, Err: ErrInvalidModule}
	}

	var loader Loader
	for _, src := range r.sources {
		if l, ok := src.Lookup(id); ok {
			loader = l
			break
		}
	}
	if loader == nil {
		return Outcome{Module: id, Status: Absent}
	}

	sb := schemabuilder.NewSchema()
	if err := load(loader, sb); err != nil {
		err = fmt.Errorf("registry: load %s: %w", id, err)
		if cerr := sb.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("registry: close %s: %w", id, cerr))
		}
		return Outcome{Module: id, Status: Failed, Err: err}
	}
	return Outcome{Module: id, Status: Loaded, Contribution: sb}
}

func load(loader Loader, sb *schemabuilder.Schema) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack()}
		}
	}()
	return loader(sb)
}

func (r *Resolver) record(o Outcome) {
	if r.observer != nil {
		r.observer.ObserveOutcome(o.Module, o.Status.String())
	}

	switch o.Status {
	case Loaded:
		r.logger.Info().Str("module", o.Module).Msg("imported schema module")
	case Absent:
		r.logger.Warn().Str("module", o.Module).Msg("no schema module found, skipping")
	case Failed:
		ev := r.logger.Error().Str("module", o.Module).Err(o.Err)
		var p *PanicError
		if errors.As(o.Err, &p) {
			ev = ev.Bytes("stack", p.Stack)
		}
		ev.Msg("error importing schema module")
	}
}

func (r *Resolver) recordCapability(module, kind string, o *schemabuilder.Object) {
	if r.observer != nil {
		r.observer.ObserveCapability(module, kind)
	}
	r.logger.Info().
		Str("module", module).
		Str("kind", kind).
		Strs("fields", o.FieldNames()).
		Msg("added capability")
}
