package profile

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/datamove/internal/classify"
	"github.com/roach88/datamove/internal/ir"
)

// CompileError reports a malformed profile with its CUE source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Err     error // underlying cause, if any
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Compile turns a CUE profile struct into a validated classify.Profile.
// The profile name is the value's last path selector.
//
//	v := ctx.CompileString(src)
//	p, err := Compile(v.LookupPath(cue.ParsePath("profile.npu")))
func Compile(v cue.Value) (*classify.Profile, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	p := &classify.Profile{RowMajor: classify.DefaultRowMajor}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		p.Name = sels[len(sels)-1].String()
	}

	device, err := requiredString(v, "device")
	if err != nil {
		return nil, err
	}
	p.Device = ir.Device(device)

	if layoutVal := v.LookupPath(cue.ParsePath("row_major_layout")); layoutVal.Exists() {
		layout, err := layoutVal.String()
		if err != nil {
			return nil, fieldError("row_major_layout", layoutVal, err)
		}
		p.RowMajor = ir.Layout(layout)
	}

	opsVal := v.LookupPath(cue.ParsePath("compute_ops"))
	if !opsVal.Exists() {
		return nil, &CompileError{Field: "compute_ops", Message: "compute_ops is required", Pos: v.Pos()}
	}
	iter, err := opsVal.List()
	if err != nil {
		return nil, fieldError("compute_ops", opsVal, err)
	}
	for iter.Next() {
		op, err := iter.Value().String()
		if err != nil {
			return nil, fieldError("compute_ops", iter.Value(), err)
		}
		p.ComputeOps = append(p.ComputeOps, ir.Target(op))
	}

	if err := p.Validate(); err != nil {
		return nil, &CompileError{Field: "profile", Message: err.Error(), Pos: v.Pos(), Err: err}
	}
	return p, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", fieldError(field, fv, err)
	}
	return s, nil
}

func fieldError(field string, v cue.Value, err error) *CompileError {
	return &CompileError{Field: field, Message: errors.Details(err, nil), Pos: v.Pos(), Err: err}
}

// formatCUEError keeps the first error of a CUE error list with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}
