package js_ast

import "github.com/minroll/minroll/internal/logger"

// Every module (i.e. file) is parsed into a separate AST data structure.
// Identifiers in the tree are plain names; resolving them to declarations is
// done later by the analyzer, which records its results in side tables keyed
// by node pointers instead of writing them into the tree.
//
// Parse trees are intended to be immutable. That makes it easy to cache them
// across incremental builds in "watch" mode. The bundler never mutates an AST
// after it has been parsed. Output is produced by editing the original source
// text at the ranges recorded here.

type L int

// https://developer.mozilla.org/en-US/docs/Web/JavaScript/Reference/Operators/Operator_Precedence
const (
	LLowest L = iota
	LComma
	LSpread
	LYield
	LAssign
	LConditional
	LNullishCoalescing
	LLogicalOr
	LLogicalAnd
	LBitwiseOr
	LBitwiseXor
	LBitwiseAnd
	LEquals
	LCompare
	LShift
	LAdd
	LMultiply
	LExponentiation
	LPrefix
	LPostfix
	LNew
	LCall
	LMember
)

type OpCode int

func (op OpCode) UnaryAssignTarget() AssignTarget {
	if op >= UnOpPreDec && op <= UnOpPostInc {
		return AssignTargetUpdate
	}
	return AssignTargetNone
}

func (op OpCode) IsRightAssociative() bool {
	return op >= BinOpAssign || op == BinOpPow
}

func (op OpCode) BinaryAssignTarget() AssignTarget {
	if op == BinOpAssign {
		return AssignTargetReplace
	}
	if op > BinOpAssign {
		return AssignTargetUpdate
	}
	return AssignTargetNone
}

type AssignTarget uint8

const (
	AssignTargetNone    AssignTarget = iota
	AssignTargetReplace              // "a = b"
	AssignTargetUpdate               // "a += b"
)

// If you add a new token, remember to add it to "OpTable" too
const (
	// Prefix
	UnOpPos OpCode = iota
	UnOpNeg
	UnOpCpl
	UnOpNot
	UnOpVoid
	UnOpTypeof
	UnOpDelete

	// Prefix update
	UnOpPreDec
	UnOpPreInc

	// Postfix update
	UnOpPostDec
	UnOpPostInc

	// Left-associative
	BinOpAdd
	BinOpSub
	BinOpMul
	BinOpDiv
	BinOpRem
	BinOpPow
	BinOpLt
	BinOpLe
	BinOpGt
	BinOpGe
	BinOpIn
	BinOpInstanceof
	BinOpShl
	BinOpShr
	BinOpUShr
	BinOpLooseEq
	BinOpLooseNe
	BinOpStrictEq
	BinOpStrictNe
	BinOpNullishCoalescing
	BinOpLogicalOr
	BinOpLogicalAnd
	BinOpBitwiseOr
	BinOpBitwiseAnd
	BinOpBitwiseXor

	// Non-associative
	BinOpComma

	// Right-associative
	BinOpAssign
	BinOpAddAssign
	BinOpSubAssign
	BinOpMulAssign
	BinOpDivAssign
	BinOpRemAssign
	BinOpPowAssign
	BinOpShlAssign
	BinOpShrAssign
	BinOpUShrAssign
	BinOpBitwiseOrAssign
	BinOpBitwiseAndAssign
	BinOpBitwiseXorAssign
	BinOpNullishCoalescingAssign
	BinOpLogicalOrAssign
	BinOpLogicalAndAssign
)

type opTableEntry struct {
	Text      string
	Level     L
	IsKeyword bool
}

var OpTable = []opTableEntry{
	// Prefix
	{"+", LPrefix, false},
	{"-", LPrefix, false},
	{"~", LPrefix, false},
	{"!", LPrefix, false},
	{"void", LPrefix, true},
	{"typeof", LPrefix, true},
	{"delete", LPrefix, true},

	// Prefix update
	{"--", LPrefix, false},
	{"++", LPrefix, false},

	// Postfix update
	{"--", LPostfix, false},
	{"++", LPostfix, false},

	// Left-associative
	{"+", LAdd, false},
	{"-", LAdd, false},
	{"*", LMultiply, false},
	{"/", LMultiply, false},
	{"%", LMultiply, false},
	{"**", LExponentiation, false}, // Right-associative
	{"<", LCompare, false},
	{"<=", LCompare, false},
	{">", LCompare, false},
	{">=", LCompare, false},
	{"in", LCompare, true},
	{"instanceof", LCompare, true},
	{"<<", LShift, false},
	{">>", LShift, false},
	{">>>", LShift, false},
	{"==", LEquals, false},
	{"!=", LEquals, false},
	{"===", LEquals, false},
	{"!==", LEquals, false},
	{"??", LNullishCoalescing, false},
	{"||", LLogicalOr, false},
	{"&&", LLogicalAnd, false},
	{"|", LBitwiseOr, false},
	{"&", LBitwiseAnd, false},
	{"^", LBitwiseXor, false},

	// Non-associative
	{",", LComma, false},

	// Right-associative
	{"=", LAssign, false},
	{"+=", LAssign, false},
	{"-=", LAssign, false},
	{"*=", LAssign, false},
	{"/=", LAssign, false},
	{"%=", LAssign, false},
	{"**=", LAssign, false},
	{"<<=", LAssign, false},
	{">>=", LAssign, false},
	{">>>=", LAssign, false},
	{"|=", LAssign, false},
	{"&=", LAssign, false},
	{"^=", LAssign, false},
	{"??=", LAssign, false},
	{"||=", LAssign, false},
	{"&&=", LAssign, false},
}

type LocRef struct {
	Loc  logger.Loc
	Name string
}

type PropertyKind int

const (
	PropertyNormal PropertyKind = iota
	PropertyGet
	PropertySet
	PropertySpread
	PropertyClassStaticBlock
)

type Property struct {
	Key Expr

	// This is omitted for class fields
	Value *Expr

	// This is used when parsing a pattern that uses default values:
	//
	//   ({a = 1} = {});
	//
	// It's also used for class fields:
	//
	//   class Foo { a = 1 }
	//
	Initializer *Expr

	// Only set for "static { ... }" blocks in a class body
	StaticBlock *FnBody

	Kind         PropertyKind
	IsComputed   bool
	IsMethod     bool
	IsStatic     bool
	WasShorthand bool
}

type PropertyBinding struct {
	Key          Expr
	Value        Binding
	DefaultValue *Expr
	IsComputed   bool
	IsSpread     bool
	WasShorthand bool
}

type Arg struct {
	Binding Binding
	Default *Expr
}

type Fn struct {
	Name *LocRef
	Args []Arg
	Body FnBody

	IsAsync     bool
	IsGenerator bool
	HasRestArg  bool
}

type FnBody struct {
	Loc   logger.Loc
	Stmts []Stmt
}

type Class struct {
	Name       *LocRef
	Extends    *Expr
	BodyLoc    logger.Loc
	Properties []Property
}

type ArrayBinding struct {
	Binding      Binding
	DefaultValue *Expr
}

type Binding struct {
	Loc  logger.Loc
	Data B
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type B interface{ isBinding() }

type BMissing struct{}

type BIdentifier struct{ Name string }

type BArray struct {
	Items     []ArrayBinding
	HasSpread bool
}

type BObject struct {
	Properties []PropertyBinding
}

func (*BMissing) isBinding()    {}
func (*BIdentifier) isBinding() {}
func (*BArray) isBinding()      {}
func (*BObject) isBinding()     {}

type Expr struct {
	Loc  logger.Loc
	Data E
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type E interface{ isExpr() }

type EArray struct {
	Items []Expr
}

type EUnary struct {
	Op    OpCode
	Value Expr
}

type EBinary struct {
	Op    OpCode
	Left  Expr
	Right Expr
}

type EBoolean struct{ Value bool }

type ESuper struct{}

type ENull struct{}

type EThis struct{}

type ENew struct {
	Target Expr
	Args   []Expr
}

type ENewTarget struct{}

type EImportMeta struct{}

type OptionalChain uint8

const (
	// "a.b"
	OptionalChainNone OptionalChain = iota

	// "a?.b"
	OptionalChainStart

	// "a?.b.c" => ".c" is OptionalChainContinue
	OptionalChainContinue
)

type ECall struct {
	Target        Expr
	Args          []Expr
	OptionalChain OptionalChain
}

type EDot struct {
	Target        Expr
	Name          string
	NameLoc       logger.Loc
	OptionalChain OptionalChain
}

type EIndex struct {
	Target        Expr
	Index         Expr
	OptionalChain OptionalChain
}

type EArrow struct {
	Args []Arg
	Body FnBody

	IsAsync    bool
	HasRestArg bool
	PreferExpr bool // Use shorthand if true and "Body" is a single return statement
}

type EFunction struct{ Fn Fn }

type EClass struct{ Class Class }

type EIdentifier struct {
	Name string
}

// Array holes and the missing values in "a = [, b]" are EMissing
type EMissing struct{}

type ENumber struct{ Value float64 }

type EBigInt struct{ Value string }

type EObject struct {
	Properties []Property
}

type ESpread struct{ Value Expr }

type EString struct {
	Value string
}

type TemplatePart struct {
	Value   Expr
	TailLoc logger.Loc
	Tail    string
}

type ETemplate struct {
	Tag   *Expr
	Head  string
	Parts []TemplatePart
}

type ERegExp struct{ Value string }

type EAwait struct {
	Value Expr
}

type EYield struct {
	Value  *Expr
	IsStar bool
}

type EIf struct {
	Test Expr
	Yes  Expr
	No   Expr
}

// A dynamic "import()" expression. Its target is never bundled.
type EImportCall struct {
	Expr Expr
}

func (*EArray) isExpr()      {}
func (*EUnary) isExpr()      {}
func (*EBinary) isExpr()     {}
func (*EBoolean) isExpr()    {}
func (*ESuper) isExpr()      {}
func (*ENull) isExpr()       {}
func (*EThis) isExpr()       {}
func (*ENew) isExpr()        {}
func (*ENewTarget) isExpr()  {}
func (*EImportMeta) isExpr() {}
func (*ECall) isExpr()       {}
func (*EDot) isExpr()        {}
func (*EIndex) isExpr()      {}
func (*EArrow) isExpr()      {}
func (*EFunction) isExpr()   {}
func (*EClass) isExpr()      {}
func (*EIdentifier) isExpr() {}
func (*EMissing) isExpr()    {}
func (*ENumber) isExpr()     {}
func (*EBigInt) isExpr()     {}
func (*EObject) isExpr()     {}
func (*ESpread) isExpr()     {}
func (*EString) isExpr()     {}
func (*ETemplate) isExpr()   {}
func (*ERegExp) isExpr()     {}
func (*EAwait) isExpr()      {}
func (*EYield) isExpr()      {}
func (*EIf) isExpr()         {}
func (*EImportCall) isExpr() {}

type Stmt struct {
	Loc  logger.Loc
	Data S
}

// This interface is never called. Its purpose is to encode a variant type in
// Go's type system.
type S interface{ isStmt() }

type SBlock struct {
	Stmts []Stmt
}

type SEmpty struct{}

type SDebugger struct{}

type SDirective struct {
	Value string
}

// "export {a, b as c}"
type SExportClause struct {
	Items []ClauseItem
}

// "export {a, b as c} from 'path'"
type SExportFrom struct {
	Items     []ClauseItem
	Path      string
	PathRange logger.Range
}

// "export default value". The value is an SExpr, SFunction, or SClass. Its
// location is where the exported value starts, after the "default" keyword.
type SExportDefault struct {
	Value Stmt
}

type ExportStarAlias struct {
	Loc  logger.Loc
	Name string
}

// "export * from 'path'" and "export * as ns from 'path'"
type SExportStar struct {
	Alias     *ExportStarAlias
	Path      string
	PathRange logger.Range
}

type SExpr struct {
	Value Expr
}

// Exported declarations set "IsExport". The statement's location is where the
// declaration itself starts, after the "export" keyword.
type SFunction struct {
	Fn       Fn
	IsExport bool
}

type SClass struct {
	Class    Class
	IsExport bool
}

type SLabel struct {
	Name LocRef
	Stmt Stmt
}

type SIf struct {
	Test Expr
	Yes  Stmt
	No   *Stmt
}

type SFor struct {
	Init   *Stmt // May be a SLocal or SExpr
	Test   *Expr
	Update *Expr
	Body   Stmt
}

type SForIn struct {
	Init  Stmt // May be a SLocal or SExpr
	Value Expr
	Body  Stmt
}

type SForOf struct {
	IsAwait bool
	Init    Stmt // May be a SLocal or SExpr
	Value   Expr
	Body    Stmt
}

type SDoWhile struct {
	Body Stmt
	Test Expr
}

type SWhile struct {
	Test Expr
	Body Stmt
}

type SWith struct {
	Value Expr
	Body  Stmt
}

type Catch struct {
	Loc     logger.Loc
	Binding *Binding
	Body    Stmt // Always an SBlock
}

type STry struct {
	Block   Stmt // Always an SBlock
	Catch   *Catch
	Finally *Stmt // Always an SBlock
}

type Case struct {
	Value *Expr
	Body  []Stmt
}

type SSwitch struct {
	Test  Expr
	Cases []Case
}

// This object represents all of these types of import statements:
//
//    import 'path'
//    import {item1, item2} from 'path'
//    import * as ns from 'path'
//    import defaultItem, {item1, item2} from 'path'
//    import defaultItem, * as ns from 'path'
//
// Many parts are optional and can be combined in different ways. The only
// restriction is that you cannot have both a clause and a star namespace.
type SImport struct {
	DefaultName *LocRef
	Items       *[]ClauseItem
	StarName    *LocRef
	Path        string
	PathRange   logger.Range
}

type SReturn struct {
	Value *Expr
}

type SThrow struct {
	Value Expr
}

type LocalKind uint8

const (
	LocalVar LocalKind = iota
	LocalLet
	LocalConst
)

func (kind LocalKind) IsBlockScoped() bool {
	return kind != LocalVar
}

type SLocal struct {
	Decls    []Decl
	Kind     LocalKind
	IsExport bool
}

type SBreak struct {
	Label *LocRef
}

type SContinue struct {
	Label *LocRef
}

func (*SBlock) isStmt()         {}
func (*SEmpty) isStmt()         {}
func (*SDebugger) isStmt()      {}
func (*SDirective) isStmt()     {}
func (*SExportClause) isStmt()  {}
func (*SExportFrom) isStmt()    {}
func (*SExportDefault) isStmt() {}
func (*SExportStar) isStmt()    {}
func (*SExpr) isStmt()          {}
func (*SFunction) isStmt()      {}
func (*SClass) isStmt()         {}
func (*SLabel) isStmt()         {}
func (*SIf) isStmt()            {}
func (*SFor) isStmt()           {}
func (*SForIn) isStmt()         {}
func (*SForOf) isStmt()         {}
func (*SDoWhile) isStmt()       {}
func (*SWhile) isStmt()         {}
func (*SWith) isStmt()          {}
func (*STry) isStmt()           {}
func (*SSwitch) isStmt()        {}
func (*SImport) isStmt()        {}
func (*SReturn) isStmt()        {}
func (*SThrow) isStmt()         {}
func (*SLocal) isStmt()         {}
func (*SBreak) isStmt()         {}
func (*SContinue) isStmt()      {}

// In import clauses, "Alias" is the imported name and "Name" is the local
// binding. In export clauses, "Name" is the local binding (or the imported
// name for "export {} from") and "Alias" is the exported name.
type ClauseItem struct {
	Alias    string
	AliasLoc logger.Loc
	Name     LocRef
}

type Decl struct {
	Binding Binding
	Value   *Expr
}

// A Node is anything the tree walker can visit. Nodes are always pointers
// into the tree, so a node's identity is stable for the lifetime of the AST
// and can be used as a map key by passes that annotate the tree.
type Node interface{ isNode() }

func (*Stmt) isNode()            {}
func (*Expr) isNode()            {}
func (*Binding) isNode()         {}
func (*Fn) isNode()              {}
func (*FnBody) isNode()          {}
func (*Class) isNode()           {}
func (*Property) isNode()        {}
func (*PropertyBinding) isNode() {}
func (*ArrayBinding) isNode()    {}
func (*Arg) isNode()             {}
func (*Decl) isNode()            {}
func (*Catch) isNode()           {}
func (*Case) isNode()            {}

type AST struct {
	Hashbang string

	// Top-level statements, along with the source range of each one. The range
	// covers the statement's first token through its last token (including a
	// trailing semicolon) and excludes any surrounding whitespace or comments.
	Stmts  []Stmt
	Ranges []logger.Range

	// The raw text of every template literal token, from the opening "`" or
	// "}" through the closing "`" or "${". Line breaks inside these ranges
	// are part of a string value.
	TemplateRanges []logger.Range
}

// Returns the names declared by a binding pattern, in source order
func BindingNames(binding Binding) []LocRef {
	var names []LocRef
	var visit func(Binding)
	visit = func(b Binding) {
		switch d := b.Data.(type) {
		case *BIdentifier:
			names = append(names, LocRef{Loc: b.Loc, Name: d.Name})
		case *BArray:
			for _, item := range d.Items {
				visit(item.Binding)
			}
		case *BObject:
			for _, property := range d.Properties {
				visit(property.Value)
			}
		}
	}
	visit(binding)
	return names
}
