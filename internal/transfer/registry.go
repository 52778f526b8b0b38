package transfer

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/uvshape/internal/uvindex"
	"github.com/Faultbox/uvshape/pkg/math"
	"github.com/Faultbox/uvshape/pkg/mesh"
)

// Registry errors.
var (
	ErrUnknownHandle    = errors.New("unknown binding handle")
	ErrInvalidState     = errors.New("operation not valid in current binding state")
	ErrShapeKeyNotFound = errors.New("shape key not found on source mesh")
	ErrTopologyChanged  = errors.New("mesh topology changed without invalidate")
)

// State is the lifecycle state of a binding.
type State int

// Binding lifecycle: Unbound -> Bound -> (evaluate)* -> Baked | Released.
const (
	StateUnbound State = iota
	StateBound
	StateBaked
	StateReleased
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "Unbound"
	case StateBound:
		return "Bound"
	case StateBaked:
		return "Baked"
	case StateReleased:
		return "Released"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Handle is an opaque reference to a binding owned by a Registry.
type Handle uint32

// Options controls registry behavior.
type Options struct {
	// Tolerance is the UV-space distance within which a target vertex may
	// snap to the nearest source triangle when no triangle contains it.
	Tolerance float32
	// Index configures UV index construction.
	Index uvindex.Options
	// Logger receives bind statistics and per-key evaluation warnings.
	// Nil means no logging.
	Logger *zap.Logger
}

// DefaultOptions returns the standard registry configuration.
func DefaultOptions() Options {
	return Options{
		Tolerance: 0.001,
		Index:     uvindex.DefaultOptions(),
	}
}

// binding is the per-target mutable state: correspondence map, reference
// basis snapshot, linked keys and their influences.
type binding struct {
	source *mesh.Mesh
	target *mesh.Mesh
	state  State

	cmap      *CorrespondenceMap
	basis     []math.Vec3 // reference basis; reset by bake
	linked    []string
	influence map[string]float32
	evaluated bool
	stale     bool // set by Invalidate; rebuilt on next Evaluate
}

// Registry owns all bindings and the shared read-only caches (UV indexes
// and delta arrays, both keyed per source mesh and version).
//
// The registry itself is not safe for concurrent mutation; the host drives
// it synchronously from its update cycle. The caches it hands out are
// immutable once built.
type Registry struct {
	opts Options
	log  *zap.Logger

	bindings map[Handle]*binding
	next     Handle

	indexes map[*mesh.Mesh]*indexEntry
	deltas  map[*mesh.Mesh]*deltaCache
}

type indexEntry struct {
	version uint64
	idx     *uvindex.Index
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Tolerance < 0 {
		opts.Tolerance = 0
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		opts:     opts,
		log:      log,
		bindings: make(map[Handle]*binding),
		next:     1,
		indexes:  make(map[*mesh.Mesh]*indexEntry),
		deltas:   make(map[*mesh.Mesh]*deltaCache),
	}
}

// Bind associates a target with a source and builds the correspondence map.
// keys selects which source shape keys the binding drives; empty means all.
// Influences start at 0.
func (r *Registry) Bind(source, target *mesh.Mesh, keys []string) (Handle, error) {
	if err := source.Validate(); err != nil {
		return 0, fmt.Errorf("source %s: %w", source.Name, err)
	}
	if err := target.Validate(); err != nil {
		return 0, fmt.Errorf("target %s: %w", target.Name, err)
	}
	if !source.HasUVLayer() {
		return 0, fmt.Errorf("source: %w: %s", mesh.ErrNoUVLayer, source.Name)
	}

	if len(keys) == 0 {
		keys = source.ShapeKeyNames()
	}
	for _, name := range keys {
		if source.ShapeKey(name) == nil {
			return 0, fmt.Errorf("%w: %q", ErrShapeKeyNotFound, name)
		}
	}

	idx, err := r.sourceIndex(source)
	if err != nil {
		return 0, err
	}
	cmap, err := BuildCorrespondence(target, idx, r.opts.Tolerance)
	if err != nil {
		return 0, err
	}

	b := &binding{
		source:    source,
		target:    target,
		state:     StateBound,
		cmap:      cmap,
		basis:     append([]math.Vec3(nil), target.Positions...),
		linked:    append([]string(nil), keys...),
		influence: make(map[string]float32, len(keys)),
	}
	for _, name := range keys {
		b.influence[name] = 0
	}

	h := r.next
	r.next++
	r.bindings[h] = b

	r.log.Info("bound target",
		zap.String("source", source.Name),
		zap.String("target", target.Name),
		zap.Int("vertices", len(target.Positions)),
		zap.Int("unresolved", cmap.Unresolved),
		zap.Strings("keys", keys))
	if cmap.Unresolved > 0 {
		r.log.Warn("unresolved target vertices keep their basis position",
			zap.String("target", target.Name),
			zap.Int("unresolved", cmap.Unresolved))
	}

	return h, nil
}

// SetInfluence sets the influence weight for one linked shape key.
// Values clamp to [0, 1].
func (r *Registry) SetInfluence(h Handle, key string, value float32) error {
	b, err := r.binding(h)
	if err != nil {
		return err
	}
	if b.state != StateBound && b.state != StateBaked {
		return fmt.Errorf("%w: %s", ErrInvalidState, b.state)
	}
	if _, ok := b.influence[key]; !ok {
		return fmt.Errorf("%w: %q", ErrShapeKeyNotFound, key)
	}
	if value < 0 {
		value = 0
	} else if value > 1 {
		value = 1
	}
	b.influence[key] = value
	return nil
}

// Influence returns the current influence weight for one linked key.
func (r *Registry) Influence(h Handle, key string) (float32, error) {
	b, err := r.binding(h)
	if err != nil {
		return 0, err
	}
	v, ok := b.influence[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrShapeKeyNotFound, key)
	}
	return v, nil
}

// Evaluate recomputes the target's live vertex positions from the reference
// basis, correspondence map, and current influences. Valid in Bound state
// and, after a bake, in Baked state (where the baked positions serve as the
// reference basis, so deformation never double-applies).
//
// A shape key that disappeared from the source since bind fails only its own
// contribution; the remaining keys still apply and the error reports the
// missing ones.
func (r *Registry) Evaluate(h Handle) error {
	b, err := r.binding(h)
	if err != nil {
		return err
	}
	if b.state != StateBound && b.state != StateBaked {
		return fmt.Errorf("%w: %s", ErrInvalidState, b.state)
	}

	if b.stale {
		if err := r.rebuild(b); err != nil {
			return err
		}
	}
	if len(b.basis) != len(b.target.Positions) {
		return fmt.Errorf("%w: target %s", ErrTopologyChanged, b.target.Name)
	}

	cache := r.sourceDeltas(b.source)
	var active []ActiveKey
	var keyErr error
	for _, name := range b.linked {
		inf := b.influence[name]
		if inf == 0 {
			continue
		}
		key := b.source.ShapeKey(name)
		if key == nil {
			keyErr = multierr.Append(keyErr, fmt.Errorf("%w: %q", ErrShapeKeyNotFound, name))
			r.log.Warn("skipping missing shape key", zap.String("key", name))
			continue
		}
		if len(key.Positions) != len(b.source.Positions) {
			keyErr = multierr.Append(keyErr, fmt.Errorf("key %q: %w", name, ErrTopologyChanged))
			continue
		}
		active = append(active, ActiveKey{Deltas: cache.get(b.source, key), Influence: inf})
	}

	copy(b.target.Positions, Evaluate(b.basis, b.cmap, active))
	b.evaluated = true
	return keyErr
}

// Invalidate marks the binding stale after a host-side topology edit.
// The UV index and correspondence map rebuild on the next Evaluate, and the
// reference basis re-snapshots from the target's current positions.
func (r *Registry) Invalidate(h Handle) error {
	b, err := r.binding(h)
	if err != nil {
		return err
	}
	if b.state != StateBound && b.state != StateBaked {
		return fmt.Errorf("%w: %s", ErrInvalidState, b.state)
	}
	b.stale = true
	return nil
}

// Unresolved returns the count of target vertices without a UV match.
// Such vertices always keep their basis position.
func (r *Registry) Unresolved(h Handle) (int, error) {
	b, err := r.binding(h)
	if err != nil {
		return 0, err
	}
	if b.cmap == nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidState, b.state)
	}
	return b.cmap.Unresolved, nil
}

// State returns the binding's lifecycle state.
func (r *Registry) State(h Handle) (State, error) {
	b, err := r.binding(h)
	if err != nil {
		return StateUnbound, err
	}
	return b.state, nil
}

func (r *Registry) binding(h Handle) (*binding, error) {
	b, ok := r.bindings[h]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return b, nil
}

// rebuild refreshes the binding's cached state after an Invalidate: fresh
// index, fresh correspondence map, and a new reference basis taken from the
// target's current (host-edited) positions.
func (r *Registry) rebuild(b *binding) error {
	idx, err := r.sourceIndex(b.source)
	if err != nil {
		return err
	}
	cmap, err := BuildCorrespondence(b.target, idx, r.opts.Tolerance)
	if err != nil {
		return err
	}
	b.cmap = cmap
	b.basis = append(b.basis[:0:0], b.target.Positions...)
	b.evaluated = false
	b.stale = false

	r.log.Debug("rebuilt binding",
		zap.String("source", b.source.Name),
		zap.String("target", b.target.Name),
		zap.Int("unresolved", cmap.Unresolved))
	return nil
}

// sourceIndex returns the shared UV index for a source mesh, rebuilding it
// when the mesh version moved.
func (r *Registry) sourceIndex(src *mesh.Mesh) (*uvindex.Index, error) {
	if e, ok := r.indexes[src]; ok && e.version == src.Version() {
		return e.idx, nil
	}
	idx, err := uvindex.Build(src, r.opts.Index)
	if err != nil {
		return nil, err
	}
	r.indexes[src] = &indexEntry{version: src.Version(), idx: idx}
	return idx, nil
}

// sourceDeltas returns the shared delta cache for a source mesh, dropping
// stale entries when the mesh version moved.
func (r *Registry) sourceDeltas(src *mesh.Mesh) *deltaCache {
	if c, ok := r.deltas[src]; ok && c.version == src.Version() {
		return c
	}
	c := newDeltaCache(src.Version())
	r.deltas[src] = c
	return c
}
