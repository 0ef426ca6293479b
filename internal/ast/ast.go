// Package ast defines the node types produced by the parser: expressions,
// statements, function declarations and the top-level program. Unlike a
// source-preserving AST, Zirc's tree keeps only what later phases need:
// structure and positions, no comment association or formatting metadata.
package ast

import "github.com/mna/zirc/internal/token"

// Node is implemented by every AST node.
type Node interface {
	// Pos reports the position of the node's first token.
	Pos() token.Position
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()

	// BlockEnding reports whether this statement transfers control out of
	// its block: return, break, continue. The parser does not reject
	// statements that follow one.
	BlockEnding() bool
}

// Item is either a *Function or a Stmt, appearing at the top level of a
// Program.
type Item interface {
	Node
	itemNode()
}

// Type is a closed set of type annotations. The zero value, TypeNone, means
// no annotation was given.
type Type int8

const (
	TypeNone Type = iota
	TypeInt
	TypeString
	TypeBool
	TypeList
	TypeUnit
)

// TypeNames maps every annotation spelling in source to its Type, used both
// by the parser and by the did-you-mean helper's candidate set.
var TypeNames = map[string]Type{
	"int":    TypeInt,
	"string": TypeString,
	"bool":   TypeBool,
	"list":   TypeList,
	"unit":   TypeUnit,
}

func (t Type) String() string {
	for name, v := range TypeNames {
		if v == t {
			return name
		}
	}
	return "none"
}

// Param is a function parameter: a name with an optional type annotation.
type Param struct {
	Name string
	Ty   Type
}

// Function is a top-level function declaration.
type Function struct {
	NamePos    token.Position
	Name       string
	Params     []Param
	ReturnTy   Type // TypeNone if unannotated
	Body       []Stmt
}

func (n *Function) Pos() token.Position { return n.NamePos }
func (*Function) itemNode()             {}

// Program is the root of the AST: an ordered sequence of function
// declarations and top-level statements.
type Program struct {
	Items []Item
}

// ====================
// STATEMENTS
// ====================

type (
	// LetStmt declares a new binding in the innermost scope.
	LetStmt struct {
		KwPos token.Position
		Name  string
		Ty    Type // TypeNone if unannotated
		Expr  Expr
	}

	// AssignStmt mutates the nearest enclosing binding of Name.
	AssignStmt struct {
		NamePos token.Position
		Name    string
		Expr    Expr
	}

	// ReturnStmt returns Expr's value, or Unit if Expr is nil.
	ReturnStmt struct {
		KwPos token.Position
		Expr  Expr // nil for bare `return`
	}

	// IfStmt is a conditional with an optional else branch.
	IfStmt struct {
		KwPos    token.Position
		Cond     Expr
		Then     []Stmt
		Else     []Stmt // nil if no else branch
	}

	// WhileStmt loops while Cond is true.
	WhileStmt struct {
		KwPos token.Position
		Cond  Expr
		Body  []Stmt
	}

	// ForStmt iterates Var from Start (inclusive) to End (exclusive).
	ForStmt struct {
		KwPos token.Position
		Var   string
		Start Expr
		End   Expr
		Body  []Stmt
	}

	// BreakStmt exits the innermost enclosing loop.
	BreakStmt struct{ KwPos token.Position }

	// ContinueStmt advances to the next iteration of the innermost enclosing loop.
	ContinueStmt struct{ KwPos token.Position }

	// ExprStmt is an expression evaluated for its value and then discarded
	// (except for the last one at top level, whose value is observable).
	ExprStmt struct{ X Expr }
)

func (n *LetStmt) Pos() token.Position      { return n.KwPos }
func (n *AssignStmt) Pos() token.Position   { return n.NamePos }
func (n *ReturnStmt) Pos() token.Position   { return n.KwPos }
func (n *IfStmt) Pos() token.Position       { return n.KwPos }
func (n *WhileStmt) Pos() token.Position    { return n.KwPos }
func (n *ForStmt) Pos() token.Position      { return n.KwPos }
func (n *BreakStmt) Pos() token.Position    { return n.KwPos }
func (n *ContinueStmt) Pos() token.Position { return n.KwPos }
func (n *ExprStmt) Pos() token.Position     { return n.X.Pos() }

func (*LetStmt) stmtNode()      {}
func (*AssignStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()   {}
func (*IfStmt) stmtNode()       {}
func (*WhileStmt) stmtNode()    {}
func (*ForStmt) stmtNode()      {}
func (*BreakStmt) stmtNode()    {}
func (*ContinueStmt) stmtNode() {}
func (*ExprStmt) stmtNode()     {}

func (*LetStmt) itemNode()      {}
func (*AssignStmt) itemNode()   {}
func (*ReturnStmt) itemNode()   {}
func (*IfStmt) itemNode()       {}
func (*WhileStmt) itemNode()    {}
func (*ForStmt) itemNode()      {}
func (*BreakStmt) itemNode()    {}
func (*ContinueStmt) itemNode() {}
func (*ExprStmt) itemNode()     {}

func (n *LetStmt) BlockEnding() bool      { return false }
func (n *AssignStmt) BlockEnding() bool   { return false }
func (n *ReturnStmt) BlockEnding() bool   { return true }
func (n *IfStmt) BlockEnding() bool       { return false }
func (n *WhileStmt) BlockEnding() bool    { return false }
func (n *ForStmt) BlockEnding() bool      { return false }
func (n *BreakStmt) BlockEnding() bool    { return true }
func (n *ContinueStmt) BlockEnding() bool { return true }
func (n *ExprStmt) BlockEnding() bool     { return false }

// ====================
// EXPRESSIONS
// ====================

// BinaryOp identifies a binary operator.
type BinaryOp int8

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	And
	Or
)

type (
	// IntLit is an integer literal.
	IntLit struct {
		LitPos token.Position
		Value  int64
	}

	// StringLit is a string literal with escapes already decoded.
	StringLit struct {
		LitPos token.Position
		Value  string
	}

	// BoolLit is `true` or `false`.
	BoolLit struct {
		LitPos token.Position
		Value  bool
	}

	// Ident is a variable reference.
	Ident struct {
		NamePos token.Position
		Name    string
	}

	// BinaryExpr is a binary operator application.
	BinaryExpr struct {
		Op    BinaryOp
		OpPos token.Position
		X, Y  Expr
	}

	// NotExpr is unary logical negation.
	NotExpr struct {
		BangPos token.Position
		X       Expr
	}

	// CallExpr is a function (built-in or user) call.
	CallExpr struct {
		NamePos token.Position
		Name    string
		Args    []Expr
	}

	// ListExpr is a list literal.
	ListExpr struct {
		LbrackPos token.Position
		Elems     []Expr
	}

	// IndexExpr is a postfix index operation, base[Index].
	IndexExpr struct {
		Base  Expr
		Index Expr
	}
)

func (n *IntLit) Pos() token.Position     { return n.LitPos }
func (n *StringLit) Pos() token.Position  { return n.LitPos }
func (n *BoolLit) Pos() token.Position    { return n.LitPos }
func (n *Ident) Pos() token.Position      { return n.NamePos }
func (n *BinaryExpr) Pos() token.Position { return n.X.Pos() }
func (n *NotExpr) Pos() token.Position    { return n.BangPos }
func (n *CallExpr) Pos() token.Position   { return n.NamePos }
func (n *ListExpr) Pos() token.Position   { return n.LbrackPos }
func (n *IndexExpr) Pos() token.Position  { return n.Base.Pos() }

func (*IntLit) exprNode()     {}
func (*StringLit) exprNode()  {}
func (*BoolLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*BinaryExpr) exprNode() {}
func (*NotExpr) exprNode()    {}
func (*CallExpr) exprNode()   {}
func (*ListExpr) exprNode()   {}
func (*IndexExpr) exprNode()  {}
