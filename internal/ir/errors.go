package ir

import (
	"errors"
	"fmt"
)

// ErrNoOutput is returned when a graph has no output node, so result
// positions cannot be addressed.
var ErrNoOutput = errors.New("graph has no output node")

// GraphErrorCode categorizes structural graph errors.
type GraphErrorCode string

const (
	// ErrCodeNoOutput indicates the graph lacks an output node.
	ErrCodeNoOutput GraphErrorCode = "NO_OUTPUT"

	// ErrCodeDuplicateOutput indicates a second output node was requested.
	ErrCodeDuplicateOutput GraphErrorCode = "DUPLICATE_OUTPUT"

	// ErrCodeOutputNotLast indicates a node follows the output node.
	ErrCodeOutputNotLast GraphErrorCode = "OUTPUT_NOT_LAST"

	// ErrCodeUnknownNode indicates a reference to a node not in the graph.
	ErrCodeUnknownNode GraphErrorCode = "UNKNOWN_NODE"

	// ErrCodeForwardReference indicates a producer placed after its consumer.
	ErrCodeForwardReference GraphErrorCode = "FORWARD_REFERENCE"

	// ErrCodeSlotOutOfRange indicates an operand index past the slot count.
	ErrCodeSlotOutOfRange GraphErrorCode = "SLOT_OUT_OF_RANGE"

	// ErrCodeRefInSequence indicates a Ref nested inside a literal Seq.
	ErrCodeRefInSequence GraphErrorCode = "REF_IN_SEQUENCE"

	// ErrCodeDuplicateName indicates two nodes share a name.
	ErrCodeDuplicateName GraphErrorCode = "DUPLICATE_NAME"

	// ErrCodeNilOperand indicates an operand slot set to a nil Arg.
	ErrCodeNilOperand GraphErrorCode = "NIL_OPERAND"
)

// GraphError reports a structural problem with a graph or an edit.
type GraphError struct {
	// Code identifies the error category.
	Code GraphErrorCode

	// Message is a human-readable description.
	Message string

	// Node names the node the error concerns, if any.
	Node string
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap lets errors.Is(err, ErrNoOutput) match NO_OUTPUT errors.
func (e *GraphError) Unwrap() error {
	if e.Code == ErrCodeNoOutput {
		return ErrNoOutput
	}
	return nil
}

// IsGraphError reports whether err is a GraphError with the given code.
// Uses errors.As to handle wrapped errors.
func IsGraphError(err error, code GraphErrorCode) bool {
	var ge *GraphError
	if errors.As(err, &ge) {
		return ge.Code == code
	}
	return false
}

func graphErrorf(code GraphErrorCode, node string, format string, args ...any) *GraphError {
	return &GraphError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Node:    node,
	}
}
