package classify

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/datamove/internal/ir"
)

// Default profile values.
const (
	DefaultProfileName = "default"
	DefaultDevice      = ir.Device("accel:0")
	DefaultRowMajor    = ir.Layout("ROW_MAJOR_LAYOUT")
)

// Profile describes one accelerator generation: which operations it computes,
// the device handle transfers bind to, and the host-compatible layout tag.
type Profile struct {
	Name       string      `json:"name"`
	ComputeOps []ir.Target `json:"compute_ops"`
	Device     ir.Device   `json:"device"`
	RowMajor   ir.Layout   `json:"row_major_layout"`
}

// DefaultProfile returns the baseline capability set: elementwise add, sub
// and mul, matmul, softmax, tanh, reshape and permute.
func DefaultProfile() *Profile {
	return &Profile{
		Name: DefaultProfileName,
		ComputeOps: []ir.Target{
			"accel.add",
			"accel.matmul",
			"accel.sub",
			"accel.mul",
			"accel.softmax",
			"accel.tanh",
			"accel.reshape",
			"accel.permute",
		},
		Device:   DefaultDevice,
		RowMajor: DefaultRowMajor,
	}
}

// ErrInvalidProfile is wrapped by every Profile.Validate failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Validate rejects profiles that would break the single-sweep pass: a compute
// list naming a transfer primitive or the layout step would make synthesized
// edges boundaries themselves.
func (p *Profile) Validate() error {
	if p.Device == "" {
		return fmt.Errorf("%w %q: device is required", ErrInvalidProfile, p.Name)
	}
	if p.RowMajor == "" {
		return fmt.Errorf("%w %q: row_major_layout is required", ErrInvalidProfile, p.Name)
	}
	seen := make(map[ir.Target]bool, len(p.ComputeOps))
	for _, t := range p.ComputeOps {
		switch {
		case t == "":
			return fmt.Errorf("%w %q: empty compute op", ErrInvalidProfile, p.Name)
		case t.IsTransfer():
			return fmt.Errorf("%w %q: transfer primitive %s cannot be a compute op", ErrInvalidProfile, p.Name, t)
		case t == ir.TargetToLayout:
			return fmt.Errorf("%w %q: %s cannot be a compute op", ErrInvalidProfile, p.Name, t)
		case seen[t]:
			return fmt.Errorf("%w %q: duplicate compute op %s", ErrInvalidProfile, p.Name, t)
		}
		seen[t] = true
	}
	return nil
}

// Classifier returns a Classifier for the profile's compute list.
func (p *Profile) Classifier() *Classifier {
	return New(p.ComputeOps)
}

// SortedComputeOps returns the compute list in lexical order for display.
func (p *Profile) SortedComputeOps() []ir.Target {
	ops := slices.Clone(p.ComputeOps)
	slices.Sort(ops)
	return ops
}
