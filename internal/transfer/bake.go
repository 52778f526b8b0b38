package transfer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/uvshape/pkg/math"
)

// Bake commits the target's current evaluated positions as its new
// permanent basis and moves the binding to Baked. Requires at least one
// evaluation in Bound state. The correspondence map survives the bake, and
// the reference basis becomes the baked positions, so any later Evaluate
// applies deformation relative to the baked shape instead of stacking on
// the pre-bake one.
func (r *Registry) Bake(h Handle) error {
	b, err := r.binding(h)
	if err != nil {
		return err
	}
	if b.state != StateBound || !b.evaluated {
		return fmt.Errorf("%w: bake requires an evaluated Bound binding, state %s", ErrInvalidState, b.state)
	}

	b.basis = append([]math.Vec3(nil), b.target.Positions...)
	b.state = StateBaked
	b.target.Touch()

	r.log.Info("baked deformation",
		zap.String("source", b.source.Name),
		zap.String("target", b.target.Name),
		zap.Int("vertices", len(b.basis)))
	return nil
}

// Release drops the binding's cached state. From Bound state the target
// reverts to its untouched basis; from Baked state the baked positions are
// the basis, so they remain. Any further operation on the handle fails with
// ErrInvalidState.
func (r *Registry) Release(h Handle) error {
	b, err := r.binding(h)
	if err != nil {
		return err
	}
	if b.state == StateReleased {
		return fmt.Errorf("%w: %s", ErrInvalidState, b.state)
	}

	if len(b.basis) == len(b.target.Positions) {
		copy(b.target.Positions, b.basis)
	}
	b.cmap = nil
	b.basis = nil
	b.influence = nil
	b.state = StateReleased

	r.log.Info("released binding",
		zap.String("source", b.source.Name),
		zap.String("target", b.target.Name))
	return nil
}
