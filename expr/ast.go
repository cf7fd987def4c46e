package expr

// Node is the tagged-variant expression AST node (spec.md §9: "a small
// tagged-variant AST with a Pratt parser"). Exactly one of the typed
// fields below is populated per concrete node; Kind selects which.
type NodeKind uint8

const (
	NodeNumber NodeKind = iota
	NodeString
	NodeDate
	NodeIdent
	NodeUnary
	NodeBinary
	NodeCall
)

type Node struct {
	Kind NodeKind
	Span Span

	// NodeNumber / NodeString / NodeDate / NodeIdent
	Text string

	// NodeUnary
	Op       TokenType
	Operand  *Node

	// NodeBinary
	Left, Right *Node

	// NodeCall
	Callee string
	Args   []*Node
}

// Span is a byte range into the expression's source text, used for error
// reporting (amfnerr.Span is the public mirror of this).
type Span struct {
	Start, End int
}
