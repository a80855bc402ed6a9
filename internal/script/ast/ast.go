// Package ast defines the syntax tree accepted by the script interpreter.
//
// Trees are produced by an external parser; the interpreter only consumes
// them. Nodes are plain values and are never mutated after parsing.
package ast

// Stmt is a statement node.
type Stmt interface {
	stmt()
}

// Expr is an expression node.
type Expr interface {
	expr()
}

// Pass does nothing.
type Pass struct{}

// Return evaluates Value and leaves the enclosing block.
type Return struct {
	Value Expr
}

// Param is a declared function parameter.
type Param struct {
	Name string
	Type Expr
}

// Def defines a function.
type Def struct {
	Name   string
	Params []Param
	Body   []Stmt
}

// Class defines a class whose members are the bindings made by Body.
type Class struct {
	Name string
	Body []Stmt
}

// Var declares Name without a value.
type Var struct {
	Name string
	Type Expr
}

// Assign stores Value into Target.
type Assign struct {
	Target Expr
	Value  Expr
}

// If runs Then when Cond is true and Else when it is false.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt
}

// ExprStmt evaluates an expression, normally a call, for its effects.
type ExprStmt struct {
	X Expr
}

// ImportSpec is one "name [as alias]" clause.
type ImportSpec struct {
	Name  Expr
	Alias string
}

// Import loads packages.
type Import struct {
	Specs []ImportSpec
}

// Number is a numeric literal in source form.
type Number struct {
	Text string
}

// String is a string literal without its quotes.
type String struct {
	Value string
}

// Ident is a name.
type Ident struct {
	Name string
}

// List is a list display "[a, b]".
type List struct {
	Items []Expr
}

// Tuple is a tuple display "(a, b)".
type Tuple struct {
	Items []Expr
}

// Attr is member access "X.Name".
type Attr struct {
	X    Expr
	Name string
}

// Subscript is "X[Index...]".
type Subscript struct {
	X     Expr
	Index []Expr
}

// Keyword is a "name=value" call argument.
type Keyword struct {
	Name  string
	Value Expr
}

// Call is "Func(Args..., Keywords...)".
type Call struct {
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

func (Pass) stmt()     {}
func (Return) stmt()   {}
func (Def) stmt()      {}
func (Class) stmt()    {}
func (Var) stmt()      {}
func (Assign) stmt()   {}
func (If) stmt()       {}
func (ExprStmt) stmt() {}
func (Import) stmt()   {}

func (Number) expr()    {}
func (String) expr()    {}
func (Ident) expr()     {}
func (List) expr()      {}
func (Tuple) expr()     {}
func (Attr) expr()      {}
func (Subscript) expr() {}
func (Call) expr()      {}

// DottedName renders an identifier or attribute chain as "a.b.c". It
// returns false for any other expression.
func DottedName(e Expr) (string, bool) {
	switch x := e.(type) {
	case Ident:
		return x.Name, true
	case Attr:
		return dotted(x.X, x.Name)
	}
	return "", false
}

func dotted(x Expr, name string) (string, bool) {
	prefix, ok := DottedName(x)
	if !ok {
		return "", false
	}
	return prefix + "." + name, true
}
