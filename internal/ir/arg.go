package ir

// Arg is a sealed interface for operand slot values.
// Ref is the only variant that forms a graph edge; all others are literals
// that later stages materialize as constants.
type Arg interface {
	isArg() // Sealed - only the types below implement it
}

// Ref references the producer node with the given id.
type Ref NodeID

// Int is an integer literal.
type Int int64

// Float is a floating point literal.
type Float float64

// Bool is a boolean literal.
type Bool bool

// Str is a string literal.
type Str string

// Seq is a literal sequence. It never contains a Ref.
type Seq []Arg

// Device is an opaque handle naming the targeted accelerator device.
type Device string

// Layout is an opaque memory layout tag.
type Layout string

func (Ref) isArg()    {}
func (Int) isArg()    {}
func (Float) isArg()  {}
func (Bool) isArg()   {}
func (Str) isArg()    {}
func (Seq) isArg()    {}
func (Device) isArg() {}
func (Layout) isArg() {}

// RefOf returns the producer id held by a, if a is a Ref.
func RefOf(a Arg) (NodeID, bool) {
	r, ok := a.(Ref)
	return NodeID(r), ok
}

// IsLiteral reports whether a is an inline value rather than a producer edge.
func IsLiteral(a Arg) bool {
	_, ok := a.(Ref)
	return !ok
}

// containsRef reports whether a literal sequence hides a producer edge.
func containsRef(s Seq) bool {
	for _, elem := range s {
		switch v := elem.(type) {
		case Ref:
			return true
		case Seq:
			if containsRef(v) {
				return true
			}
		}
	}
	return false
}
