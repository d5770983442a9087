package expr

// Span marks a half-open byte range [Start, End) in the parsed source.
type Span struct {
	Start int
	End   int
}

// Node is the interface implemented by every expression node. Spans always
// point into the source string the node was parsed from, so slicing the
// source with a node's span reproduces its exact text.
type Node interface {
	Span() Span
}

// Literal is a string, number, boolean or null literal.
type Literal struct {
	Value any // string, float64, bool or nil
	span  Span
}

// This is the implicit component receiver.
type This struct {
	span Span
}

// Ident is a bare identifier (arrow parameters, globals like "fetch").
type Ident struct {
	Name string
	span Span
}

// Member is a dot-access like recv.name.
type Member struct {
	Obj  Node
	Name string
	span Span
}

// Index is a computed access like recv[key].
type Index struct {
	Obj  Node
	Key  Node
	span Span
}

// Call is a function or method invocation.
type Call struct {
	Callee Node
	Args   []Node
	span   Span
}

// Unary is a prefix operator application: !x, -x, +x.
type Unary struct {
	Op   string
	X    Node
	span Span
}

// Update is an increment or decrement: x++, --x.
type Update struct {
	Op     string // "++" or "--"
	X      Node
	Prefix bool
	span   Span
}

// Binary is an arithmetic or comparison operation.
type Binary struct {
	Op   string
	L, R Node
	span Span
}

// Logical is &&, || or ?? with short-circuit semantics.
type Logical struct {
	Op   string
	L, R Node
	span Span
}

// Cond is the ternary operator test ? then : else.
type Cond struct {
	Test, Then, Else Node
	span             Span
}

// Assign is an assignment: target = value, target += value, target -= value.
type Assign struct {
	Op     string // "=", "+=" or "-="
	Target Node
	Value  Node
	span   Span
}

// Arrow is an arrow function literal. Body holds one expression for
// concise bodies, or the statement expressions of a block body in order.
type Arrow struct {
	Params   []string
	Body     []Node
	ExprBody bool // true when the body is a single concise expression
	BodySpan Span // span of the body text, braces excluded for blocks
	span     Span
}

// Array is an array literal.
type Array struct {
	Elems []Node
	span  Span
}

func (n *Literal) Span() Span { return n.span }
func (n *This) Span() Span    { return n.span }
func (n *Ident) Span() Span   { return n.span }
func (n *Member) Span() Span  { return n.span }
func (n *Index) Span() Span   { return n.span }
func (n *Call) Span() Span    { return n.span }
func (n *Unary) Span() Span   { return n.span }
func (n *Update) Span() Span  { return n.span }
func (n *Binary) Span() Span  { return n.span }
func (n *Logical) Span() Span { return n.span }
func (n *Cond) Span() Span    { return n.span }
func (n *Assign) Span() Span  { return n.span }
func (n *Arrow) Span() Span   { return n.span }
func (n *Array) Span() Span   { return n.span }

// Walk calls fn for node and every node reachable from it, parents before
// children. When fn returns false the node's children are skipped.
func Walk(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *Member:
		Walk(n.Obj, fn)
	case *Index:
		Walk(n.Obj, fn)
		Walk(n.Key, fn)
	case *Call:
		Walk(n.Callee, fn)
		for _, a := range n.Args {
			Walk(a, fn)
		}
	case *Unary:
		Walk(n.X, fn)
	case *Update:
		Walk(n.X, fn)
	case *Binary:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *Logical:
		Walk(n.L, fn)
		Walk(n.R, fn)
	case *Cond:
		Walk(n.Test, fn)
		Walk(n.Then, fn)
		Walk(n.Else, fn)
	case *Assign:
		Walk(n.Target, fn)
		Walk(n.Value, fn)
	case *Arrow:
		for _, s := range n.Body {
			Walk(s, fn)
		}
	case *Array:
		for _, e := range n.Elems {
			Walk(e, fn)
		}
	}
}
