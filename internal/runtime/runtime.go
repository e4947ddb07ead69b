// Package runtime wires every component into the concrete l1.Host/l2.Host
// a fiber's stepper needs: atom interning, the global method table, the
// primitive registry, the repository handle, and process configuration.
// Grounded on the teacher's EnhancedVM, which plays the identical role of
// "the one struct everything else reaches through" (sentra
// internal/vm/vm.go), generalized from a single monolithic struct into a
// small Context that only holds references to the independently testable
// component packages.
package runtime

import (
	"github.com/caarlos0/env/v6"
	"github.com/dolthub/swiss"

	"github.com/valence-lang/valence/internal/code"
	"github.com/valence-lang/valence/internal/continuation"
	"github.com/valence-lang/valence/internal/descriptor"
	"github.com/valence-lang/valence/internal/diagnostic"
	"github.com/valence-lang/valence/internal/dispatch"
	"github.com/valence-lang/valence/internal/fiber"
	"github.com/valence-lang/valence/internal/l1"
	"github.com/valence-lang/valence/internal/l2"
	"github.com/valence-lang/valence/internal/primitive"
	"github.com/valence-lang/valence/internal/repository"
	"github.com/valence-lang/valence/internal/typelattice"
)

// Config is the process-level configuration populated from the
// environment, mirroring how the teacher's CLI layer reads environment
// overrides alongside flags (see cmd/valence for the flag-parsing side).
type Config struct {
	RepositoryPath string `env:"VALENCE_REPOSITORY_PATH" envDefault:"valence.repo"`
	MaxFibers      int64  `env:"VALENCE_MAX_FIBERS" envDefault:"8"`
	Verbose        int    `env:"VALENCE_VERBOSE" envDefault:"0"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, diagnostic.Internal("parsing environment configuration: %v", err)
	}
	return cfg, nil
}

// Context is the concrete l1.Host and l2.Host implementation: the single
// object a freshly spawned fiber's stepper closes over.
type Context struct {
	Config     Config
	Atoms      *dispatch.AtomTable
	Methods    *swiss.Map[string, *dispatch.Method]
	Primitives *primitive.Registry
	Repository *repository.Repository
	Scheduler  *fiber.Scheduler
	Stats      *diagnostic.Counters
	generation int
}

// New builds a Context from cfg, opening its repository and primitive
// registry but not yet spawning any fiber.
func New(cfg Config) (*Context, error) {
	repo, err := repository.Open(cfg.RepositoryPath)
	if err != nil {
		return nil, err
	}
	ctx := &Context{
		Config:     cfg,
		Atoms:      dispatch.NewAtomTable(),
		Methods:    swiss.NewMap[string, *dispatch.Method](uint32(8)),
		Primitives: primitive.NewRegistry(),
		Repository: repo,
		Stats:      diagnostic.NewCounters(),
	}
	primitive.RegisterArithmetic(ctx.Primitives)
	return ctx, nil
}

// GenerationPtr returns a pointer to the shared chunk-invalidation
// counter; installed L2 chunks snapshot *this* pointer at compile time
// (see l2.NewChunk) so bumping it here invalidates every chunk at once.
func (c *Context) GenerationPtr() *int { return &c.generation }

// InvalidateChunks bumps the generation counter, the blunt, always-safe
// response to a method redefinition (spec §8 property 8) — finer-grained
// invalidation (only chunks that actually observed the redefined method)
// is future work the teacher's own JIT doesn't attempt either.
func (c *Context) InvalidateChunks() {
	c.generation++
	c.Stats.IncChunkInvalidation()
}

// TypeOf classifies a runtime value into the type lattice (component B),
// satisfying l1.Host/l2.Host. Descriptor-backed values delegate to their
// descriptor; plain Go values used internally (bool, nil) get fixed
// singleton types.
func (c *Context) TypeOf(v any) typelattice.Type {
	switch val := v.(type) {
	case nil:
		return typelattice.Object(map[string]typelattice.Type{"__is_none": typelattice.Any})
	case bool:
		return typelattice.Object(map[string]typelattice.Type{"__is_boolean": typelattice.Any})
	case int64:
		return typelattice.IntegerRange(val, true, val, true)
	case *descriptor.Value:
		return c.typeOfDescriptorValue(val)
	default:
		return typelattice.Any
	}
}

// typeOfDescriptorValue asks the value's own descriptor what family it
// belongs to and builds the matching lattice type, so multimethod
// dispatch over real descriptor.Value arguments (scenario E1/E2)
// discriminates integers from tuples from atoms instead of collapsing
// every heap value into one opaque tag.
func (c *Context) typeOfDescriptorValue(v *descriptor.Value) typelattice.Type {
	v = descriptor.Traversed(v)
	switch v.Descriptor().Family() {
	case descriptor.FamilyInteger:
		n := descriptor.IntegerValue(v)
		return typelattice.IntegerRange(n, true, n, true)
	case descriptor.FamilyTuple:
		tl := v.Descriptor().(descriptor.TupleLike)
		n := tl.Len(v)
		elems := make([]typelattice.Type, n)
		for i := 1; i <= n; i++ {
			elems[i-1] = c.TypeOf(tl.At(v, i))
		}
		return typelattice.Tuple(n, n, elems, typelattice.Bottom)
	case descriptor.FamilyAtom:
		return typelattice.Object(map[string]typelattice.Type{"__is_atom": typelattice.Any})
	default:
		// Families not yet backed by a concrete descriptor.Value
		// constructor (map, set, function, continuation, variable, type,
		// phrase) still need to classify as *something*; an opaque tag
		// keeps them distinguishable from every other family without
		// claiming a structural shape this tree does not yet construct.
		return typelattice.Object(map[string]typelattice.Type{"__is_heap_value": typelattice.Any})
	}
}

// Lookup resolves atom to its Method, satisfying l1.Host/l2.Host.
func (c *Context) Lookup(atom *dispatch.Atom) (*dispatch.Method, error) {
	m, ok := c.Methods.Get(atom.Name)
	if !ok {
		return nil, diagnostic.Runtime(diagnostic.CodeNoMethod, "no method named %q", atom.Name)
	}
	return m, nil
}

// DefineMethod installs (or looks up and extends) the method bound to
// atom, invalidating every installed chunk since a new definition can
// change dispatch outcomes chunks already compiled against.
func (c *Context) DefineMethod(atom *dispatch.Atom, def *dispatch.Definition) error {
	m, ok := c.Methods.Get(atom.Name)
	if !ok {
		m = dispatch.NewMethod(atom)
		c.Methods.Put(atom.Name, m)
	}
	if err := m.AddDefinition(def); err != nil {
		return err
	}
	c.InvalidateChunks()
	c.Stats.IncMethodDefinition()
	return nil
}

// NewContinuation builds a callee continuation, satisfying l1.Host/l2.Host.
func (c *Context) NewContinuation(caller *continuation.Continuation, fn *code.Function, args []any) *continuation.Continuation {
	c.Stats.IncContinuationCreated()
	return continuation.New(caller, fn, args, nil, 0)
}

// Close releases the repository handle and cancels any queued fiber.
func (c *Context) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Cancel()
	}
	return c.Repository.Close()
}

var _ l1.Host = (*Context)(nil)
var _ l2.Host = (*Context)(nil)
