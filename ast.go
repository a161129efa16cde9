// ast.go — abstract syntax tree for pp.
//
// Nodes form a closed set: the evaluator dispatches with an exhaustive type
// switch, so adding a node kind means touching eval as well. Every node
// carries the source position of its introducing token; runtime errors blame
// that position. ASTs are built once by the parser and never mutated, so a
// parsed program can be shared by any number of evaluations.
package pypolicy

// Pos is a source location. Line is 1-based, Col is 0-based (lexer scheme);
// diagnostics render Col as 1-based.
type Pos struct {
	Line int
	Col  int
}

// Node is implemented by every AST node.
type Node interface {
	Position() Pos
}

// ----- literals & names -----

type NilLit struct{ P Pos }

type BoolLit struct {
	V bool
	P Pos
}

type IntLit struct {
	V int64
	P Pos
}

type NumLit struct {
	V float64
	P Pos
}

type StrLit struct {
	V string
	P Pos
}

// Ident is a name lookup.
type Ident struct {
	Name string
	P    Pos
}

// ----- expressions -----

// Unary is prefix "-" or "not".
type Unary struct {
	Op string
	X  Node
	P  Pos
}

// Binary covers arithmetic, comparison, equality and membership ("in").
// Both operands are always evaluated.
type Binary struct {
	Op   string
	L, R Node
	P    Pos
}

// Logical is "and"/"or" with short-circuit evaluation; the result is the
// last operand evaluated, not a coerced boolean.
type Logical struct {
	Op   string
	L, R Node
	P    Pos
}

type ListLit struct {
	Elems []Node
	P     Pos
}

// DictLit holds key/value expression pairs in source order. Bare-name keys
// are lowered to StrLit by the parser.
type DictLit struct {
	Keys []Node
	Vals []Node
	P    Pos
}

// Index is container[key].
type Index struct {
	X   Node
	Key Node
	P   Pos
}

// Attr is receiver.name used as a read (bound method or dict field).
type Attr struct {
	X    Node
	Name string
	P    Pos
}

// Call is callee(args...).
type Call struct {
	Fn   Node
	Args []Node
	P    Pos
}

// MethodCall is receiver.name(args...). Kept distinct from Call so dispatch
// can consult the per-kind method table or the host bridge.
type MethodCall struct {
	Recv Node
	Name string
	Args []Node
	P    Pos
}

// Lambda is an anonymous function. Expression-bodied lambdas are lowered to
// a single-return block by the parser.
type Lambda struct {
	Params []string
	Body   *Block
	P      Pos
}

// ----- statements -----

// FuncDef is "def name(params) ... end"; it binds name in the enclosing scope.
type FuncDef struct {
	Name   string
	Params []string
	Body   *Block
	P      Pos
}

// Assign is "name = expr": create or overwrite a binding in the innermost
// scope.
type Assign struct {
	Name  string
	Value Node
	P     Pos
}

// PathHop is one step of a := target path. Key != nil means an index hop
// ("[expr]"); otherwise Name is an attribute hop (".name").
type PathHop struct {
	Key  Node
	Name string
	P    Pos
}

// PathAssign is `base[hop]...[hop] := value`. Missing intermediate dict
// levels are created during evaluation; the base must already be bound.
type PathAssign struct {
	Base  *Ident
	Hops  []PathHop
	Value Node
	P     Pos
}

type IfClause struct {
	Cond Node
	Body *Block
}

// If is an if/elif*/else? chain.
type If struct {
	Clauses []IfClause
	Else    *Block
	P       Pos
}

// ForIn is "for x in iterable ... end". The loop variable is bound in a
// fresh scope per iteration.
type ForIn struct {
	Var  string
	Iter Node
	Body *Block
	P    Pos
}

// Return unwinds to the nearest call boundary; at top level it ends the
// script with its value. Value may be nil (bare "return").
type Return struct {
	Value Node
	P     Pos
}

// Block is a statement sequence; expressions are valid statements.
type Block struct {
	Stmts []Node
	P     Pos
}

func (n *NilLit) Position() Pos     { return n.P }
func (n *BoolLit) Position() Pos    { return n.P }
func (n *IntLit) Position() Pos     { return n.P }
func (n *NumLit) Position() Pos     { return n.P }
func (n *StrLit) Position() Pos     { return n.P }
func (n *Ident) Position() Pos      { return n.P }
func (n *Unary) Position() Pos      { return n.P }
func (n *Binary) Position() Pos     { return n.P }
func (n *Logical) Position() Pos    { return n.P }
func (n *ListLit) Position() Pos    { return n.P }
func (n *DictLit) Position() Pos    { return n.P }
func (n *Index) Position() Pos      { return n.P }
func (n *Attr) Position() Pos       { return n.P }
func (n *Call) Position() Pos       { return n.P }
func (n *MethodCall) Position() Pos { return n.P }
func (n *Lambda) Position() Pos     { return n.P }
func (n *FuncDef) Position() Pos    { return n.P }
func (n *Assign) Position() Pos     { return n.P }
func (n *PathAssign) Position() Pos { return n.P }
func (n *If) Position() Pos         { return n.P }
func (n *ForIn) Position() Pos      { return n.P }
func (n *Return) Position() Pos     { return n.P }
func (n *Block) Position() Pos      { return n.P }
