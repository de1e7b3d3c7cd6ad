// Package ast defines the expression/statement/type/query algebra of the
// timed-automata expression language.
//
// Every node kind is a Go struct tagged with its AST type via the Node
// interface; list fields are never nil (callers get an empty slice, never a
// nil one) so rewriters never need a nil check before a range loop. Parsing
// and pretty-printing are out of scope; this package only
// defines the shapes that a parser would produce and a printer would
// consume, each behind a Node interface sealed by its unexported astType
// method.
package ast

// Node is the base interface implemented by every AST node.
type Node interface {
	astType() string
}

// Expr is a Node that represents an expression.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a Node that represents a statement.
type Stmt interface {
	Node
	stmtNode()
}

// TypeID is a Node that represents the type-id payload of a Type.
type TypeID interface {
	Node
	typeIDNode()
}

// Query is a Node that represents a TCTL/SMC query expression.
type Query interface {
	Node
	queryNode()
}

// ---- Atoms ----

type Integer struct{ Val int64 }
type Double struct{ Val float64 }
type Boolean struct{ Val bool }

func (*Integer) astType() string { return "Integer" }
func (*Double) astType() string  { return "Double" }
func (*Boolean) astType() string { return "Boolean" }
func (*Integer) exprNode()       {}
func (*Double) exprNode()        {}
func (*Boolean) exprNode()       {}

// Variable is an identifier reference.
type Variable struct{ Name string }

func (*Variable) astType() string { return "Variable" }
func (*Variable) exprNode()       {}

// ---- Unary / binary / ternary ----

type UnaryOp string

const (
	OpPlus    UnaryOp = "Plus"
	OpMinus   UnaryOp = "Minus"
	OpLogNot  UnaryOp = "LogNot"
	OpBitNot  UnaryOp = "BitNot"
	OpPreIncr UnaryOp = "PreIncr"
	OpPreDecr UnaryOp = "PreDecr"
)

type UnaryExpr struct {
	Op   UnaryOp
	Expr Expr
}

func (*UnaryExpr) astType() string { return "UnaryExpr" }
func (*UnaryExpr) exprNode()       {}

type BinaryOp string

const (
	OpAdd      BinaryOp = "Add"
	OpSub      BinaryOp = "Sub"
	OpMul      BinaryOp = "Mul"
	OpDiv      BinaryOp = "Div"
	OpMod      BinaryOp = "Mod"
	OpLt       BinaryOp = "Lt"
	OpLe       BinaryOp = "Le"
	OpGt       BinaryOp = "Gt"
	OpGe       BinaryOp = "Ge"
	OpEq       BinaryOp = "Eq"
	OpNeq      BinaryOp = "Neq"
	OpLogAnd   BinaryOp = "LogAnd"
	OpLogOr    BinaryOp = "LogOr"
	OpLogImply BinaryOp = "LogImply"
	OpBitAnd   BinaryOp = "BitAnd"
	OpBitOr    BinaryOp = "BitOr"
	OpBitXor   BinaryOp = "BitXor"
	OpShl      BinaryOp = "Shl"
	OpShr      BinaryOp = "Shr"
	OpMinimum  BinaryOp = "Minimum"
	OpMaximum  BinaryOp = "Maximum"
	OpDot      BinaryOp = "Dot"
	OpArrayAcc BinaryOp = "ArrayAccess"
)

type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*BinaryExpr) astType() string { return "BinaryExpr" }
func (*BinaryExpr) exprNode()       {}

type TernaryExpr struct {
	Left   Expr
	Middle Expr
	Right  Expr
}

func (*TernaryExpr) astType() string { return "TernaryExpr" }
func (*TernaryExpr) exprNode()       {}

type AssignOp string

const (
	OpAssign       AssignOp = "Assign"
	OpAddAssign    AssignOp = "AddAssign"
	OpSubAssign    AssignOp = "SubAssign"
	OpMulAssign    AssignOp = "MulAssign"
	OpDivAssign    AssignOp = "DivAssign"
	OpModAssign    AssignOp = "ModAssign"
	OpBitAndAssign AssignOp = "BitAndAssign"
	OpBitOrAssign  AssignOp = "BitOrAssign"
	OpBitXorAssign AssignOp = "BitXorAssign"
)

type AssignExpr struct {
	Op    AssignOp
	Left  Expr
	Right Expr
}

func (*AssignExpr) astType() string { return "AssignExpr" }
func (*AssignExpr) exprNode()       {}

// PostIncrDecrAssignExpr / PreIncrDecrAssignExpr wrap an lvalue for ++/--.
type PostIncrDecrAssignExpr struct {
	Incr bool // true: ++, false: --
	Expr Expr
}

func (*PostIncrDecrAssignExpr) astType() string { return "PostIncrDecrAssignExpr" }
func (*PostIncrDecrAssignExpr) exprNode()       {}

type PreIncrDecrAssignExpr struct {
	Incr bool
	Expr Expr
}

func (*PreIncrDecrAssignExpr) astType() string { return "PreIncrDecrAssignExpr" }
func (*PreIncrDecrAssignExpr) exprNode()       {}

type FuncCallExpr struct {
	FuncName string
	Args     []Expr
}

func (*FuncCallExpr) astType() string { return "FuncCallExpr" }
func (*FuncCallExpr) exprNode()       {}

// ---- Declarations ----

// VariableID is one declared name within a VariableDecls statement.
type VariableID struct {
	VarName   string
	ArrayDecl []Expr // empty if not an array
	InitData  Expr   // nil if uninitialized
}

func (*VariableID) astType() string { return "VariableID" }

type VariableDecls struct {
	Type    *Type
	VarData []*VariableID
}

func (*VariableDecls) astType() string { return "VariableDecls" }
func (*VariableDecls) stmtNode()       {}

// TypeID variants.

type CustomType struct{ Name string }

func (*CustomType) astType() string { return "CustomType" }
func (*CustomType) typeIDNode()     {}

type BoundedIntType struct {
	Lower Expr
	Upper Expr
}

func (*BoundedIntType) astType() string { return "BoundedIntType" }
func (*BoundedIntType) typeIDNode()     {}

type ScalarType struct{ Expr Expr }

func (*ScalarType) astType() string { return "ScalarType" }
func (*ScalarType) typeIDNode()     {}

type StructField struct {
	Type *Type
	Name string
}

type StructType struct{ Fields []*StructField }

func (*StructType) astType() string { return "StructType" }
func (*StructType) typeIDNode()     {}
func (*StructField) astType() string { return "StructField" }

// Type wraps a TypeID with its prefix keywords (e.g. "const").
type Type struct {
	Prefixes []string
	TypeID   TypeID
}

func (*Type) astType() string { return "Type" }

// Function / Parameter / StatementBlock.

type Parameter struct {
	IsRef   string // "&" if by-reference, "" if by-value
	Type    *Type
	VarData *VariableID
}

func (*Parameter) astType() string { return "Parameter" }

type Function struct {
	Type   *Type
	Name   string
	Params []*Parameter
	Body   *StatementBlock
}

func (*Function) astType() string { return "Function" }
func (*Function) stmtNode()       {}

type StatementBlock struct {
	Decls []Stmt
	Stmts []Stmt
}

func (*StatementBlock) astType() string { return "StatementBlock" }
func (*StatementBlock) stmtNode()       {}

// ---- Statements ----

type ForLoop struct {
	Init Stmt
	Cond Expr
	Post Stmt
	Body Stmt
}

func (*ForLoop) astType() string { return "ForLoop" }
func (*ForLoop) stmtNode()       {}

// Iteration is `for v : T { ... }`.
type Iteration struct {
	VarName string
	Type    *Type
	Body    Stmt
}

func (*Iteration) astType() string { return "Iteration" }
func (*Iteration) stmtNode()       {}

type WhileLoop struct {
	Cond Expr
	Body Stmt
}

func (*WhileLoop) astType() string { return "WhileLoop" }
func (*WhileLoop) stmtNode()       {}

type DoWhileLoop struct {
	Body Stmt
	Cond Expr
}

func (*DoWhileLoop) astType() string { return "DoWhileLoop" }
func (*DoWhileLoop) stmtNode()       {}

type IfStatement struct {
	Cond Expr
	Then Stmt
	Else Stmt // nil if absent
}

func (*IfStatement) astType() string { return "IfStatement" }
func (*IfStatement) stmtNode()       {}

type ReturnStatement struct{ Value Expr } // nil if bare `return;`

func (*ReturnStatement) astType() string { return "ReturnStatement" }
func (*ReturnStatement) stmtNode()       {}

type ExprStatement struct{ Expr Expr }

func (*ExprStatement) astType() string { return "ExprStatement" }
func (*ExprStatement) stmtNode()       {}

type EmptyStatement struct{}

func (*EmptyStatement) astType() string { return "EmptyStatement" }
func (*EmptyStatement) stmtNode()       {}

// ---- Templates / system ----

type Instantiation struct {
	InstanceName string
	Params       []*Parameter
	TemplateName string
	Args         []Expr
}

func (*Instantiation) astType() string { return "Instantiation" }
func (*Instantiation) stmtNode()       {}

// System holds the `system` statement. ProcessNames is a list of priority
// groups, each a list of process names.
type System struct {
	ProcessNames [][]string
}

func (*System) astType() string { return "System" }
func (*System) stmtNode()       {}

// InitialiserArray is a (possibly nested) initializer list, e.g. {1,2,{3,4}}.
type InitialiserArray struct{ Vals []Expr }

func (*InitialiserArray) astType() string { return "InitialiserArray" }
func (*InitialiserArray) exprNode()       {}

// ---- Query AST ----

// QExpr wraps a plain Expr used inside a query (state predicate).
type QExpr struct{ Expr Expr }

func (*QExpr) astType() string { return "QExpr" }
func (*QExpr) queryNode()      {}

type PropAll struct{ Inner Query }      // A[] / A<>
type PropExists struct{ Inner Query }   // E[] / E<>
type PropLeadsTo struct{ Left, Right Query }
type PropGlobally struct{ Inner Query } // []
type PropFinally struct{ Inner Query }  // <>
type PropUntil struct{ Left, Right Query }

func (*PropAll) astType() string      { return "PropAll" }
func (*PropExists) astType() string   { return "PropExists" }
func (*PropLeadsTo) astType() string  { return "PropLeadsTo" }
func (*PropGlobally) astType() string { return "PropGlobally" }
func (*PropFinally) astType() string  { return "PropFinally" }
func (*PropUntil) astType() string    { return "PropUntil" }
func (*PropAll) queryNode()           {}
func (*PropExists) queryNode()        {}
func (*PropLeadsTo) queryNode()       {}
func (*PropGlobally) queryNode()      {}
func (*PropFinally) queryNode()       {}
func (*PropUntil) queryNode()         {}

// ProbEstimate, HypothesisTest, ProbCompare, ValueEstimate, Sim, Sup/Inf are
// the SMC query constructors; they carry enough structure for round-trip
// printing but their statistical semantics are out of scope.
type ProbEstimate struct {
	Inner   Query
	Bound   Expr
	Epsilon Expr
}
type HypothesisTest struct {
	Inner Query
	P0    Expr
	P1    Expr
}
type ProbCompare struct{ Left, Right Query }
type ValueEstimate struct{ Expr Expr }
type Sim struct {
	Inner Query
	Runs  Expr
}
type Sup struct{ Expr Expr }
type Inf struct{ Expr Expr }

func (*ProbEstimate) astType() string    { return "ProbEstimate" }
func (*HypothesisTest) astType() string  { return "HypothesisTest" }
func (*ProbCompare) astType() string     { return "ProbCompare" }
func (*ValueEstimate) astType() string   { return "ValueEstimate" }
func (*Sim) astType() string             { return "Sim" }
func (*Sup) astType() string             { return "Sup" }
func (*Inf) astType() string             { return "Inf" }
func (*ProbEstimate) queryNode()         {}
func (*HypothesisTest) queryNode()       {}
func (*ProbCompare) queryNode()          {}
func (*ValueEstimate) queryNode()        {}
func (*Sim) queryNode()                  {}
func (*Sup) queryNode()                  {}
func (*Inf) queryNode()                  {}
