package analyzer

// The analyzer builds a tree of lexical scopes for one module and computes,
// for every top-level statement, the names it defines, the names it mutates,
// and the module-level names it reads. Nothing is stored on the AST itself.
// Scopes live in an arena and nodes are mapped to the scope they open through
// a side table keyed by node identity.

import (
	"strings"

	"github.com/minroll/minroll/internal/js_ast"
)

type ScopeIndex int32

const (
	RootScope ScopeIndex = 0
	NoScope   ScopeIndex = -1
)

type Scope struct {
	Names   NameSet
	Parent  ScopeIndex
	Depth   int
	IsBlock bool
}

type StmtInfo struct {
	Defines   NameSet
	Modifies  NameSet
	DependsOn NameSet

	// The number of lines in the gap before and after this statement, counted
	// the way "split" would count them (so a gap with no newline is 1)
	Margin [2]int
}

type Result struct {
	// The module scope is always at index 0
	Scopes  []Scope
	ScopeOf map[js_ast.Node]ScopeIndex
	Stmts   []StmtInfo
}

func Analyze(tree *js_ast.AST, contents string) *Result {
	r := &Result{
		Scopes:  []Scope{{Parent: NoScope}},
		ScopeOf: make(map[js_ast.Node]ScopeIndex),
		Stmts:   make([]StmtInfo, len(tree.Stmts)),
	}

	prevEnd := int32(0)
	for i := range tree.Stmts {
		info := &r.Stmts[i]
		start := tree.Ranges[i].Loc.Start
		margin := strings.Count(contents[prevEnd:start], "\n") + 1
		info.Margin[0] = margin
		if i > 0 {
			r.Stmts[i-1].Margin[1] = margin
		}
		prevEnd = tree.Ranges[i].End()

		r.defineNames(&tree.Stmts[i], info)
	}

	// References can only be classified once every declaration is known, since
	// function declarations and "var" make names visible before they appear
	for i := range tree.Stmts {
		r.findReadsAndWrites(&tree.Stmts[i], &r.Stmts[i])
	}
	return r
}

// FindDefiningScope returns the innermost scope starting at "scope" that
// declares "name", or NoScope if the name is never declared.
func (r *Result) FindDefiningScope(scope ScopeIndex, name string) ScopeIndex {
	for scope != NoScope {
		if r.Scopes[scope].Names.Has(name) {
			return scope
		}
		scope = r.Scopes[scope].Parent
	}
	return NoScope
}

// Names declared at the top level of the module
func (r *Result) ModuleNames() []string {
	return r.Scopes[RootScope].Names.Names()
}

func (r *Result) pushScope(parent ScopeIndex, isBlock bool) ScopeIndex {
	r.Scopes = append(r.Scopes, Scope{
		Parent:  parent,
		Depth:   r.Scopes[parent].Depth + 1,
		IsBlock: isBlock,
	})
	return ScopeIndex(len(r.Scopes) - 1)
}

// Function-scoped names skip over block scopes
func (r *Result) declare(scope ScopeIndex, name string, isBlock bool) ScopeIndex {
	if !isBlock {
		for r.Scopes[scope].IsBlock {
			scope = r.Scopes[scope].Parent
		}
	}
	r.Scopes[scope].Names.Add(name)
	return scope
}

func (r *Result) defineNames(stmt *js_ast.Stmt, info *StmtInfo) {
	scope := RootScope

	declare := func(name string, isBlock bool) {
		if r.declare(scope, name, isBlock) == RootScope {
			info.Defines.Add(name)
		}
	}

	// "export default" of an expression or of an anonymous function or class
	// binds the hidden name "default"
	if s, ok := stmt.Data.(*js_ast.SExportDefault); ok {
		switch v := s.Value.Data.(type) {
		case *js_ast.SExpr:
			info.Defines.Add("default")
		case *js_ast.SFunction:
			if v.Fn.Name == nil {
				info.Defines.Add("default")
			}
		case *js_ast.SClass:
			if v.Class.Name == nil {
				info.Defines.Add("default")
			}
		}
	}

	js_ast.Walk(stmt, js_ast.Visitor{
		Enter: func(node js_ast.Node, parent js_ast.Node) js_ast.WalkControl {
			switch n := node.(type) {
			case *js_ast.Stmt:
				switch s := n.Data.(type) {
				case *js_ast.SLocal:
					for _, decl := range s.Decls {
						for _, name := range js_ast.BindingNames(decl.Binding) {
							declare(name.Name, s.Kind.IsBlockScoped())
						}
					}
				case *js_ast.SFunction:
					if s.Fn.Name != nil {
						declare(s.Fn.Name.Name, false)
					}
				case *js_ast.SClass:
					if s.Class.Name != nil {
						declare(s.Class.Name.Name, false)
					}
				}
			}

			if isBlock, names, ok := opensScope(node, parent); ok {
				scope = r.pushScope(scope, isBlock)
				r.ScopeOf[node] = scope
				for _, name := range names {
					r.Scopes[scope].Names.Add(name)
				}
			}
			return js_ast.WalkContinue
		},

		Leave: func(node js_ast.Node, parent js_ast.Node) {
			if _, ok := r.ScopeOf[node]; ok {
				scope = r.Scopes[scope].Parent
			}
		},
	})
}

// Reports whether entering "node" starts a new scope, and the names that the
// scope declares up front (parameters and the names of function and class
// expressions).
func opensScope(node js_ast.Node, parent js_ast.Node) (isBlock bool, names []string, ok bool) {
	switch n := node.(type) {
	case *js_ast.Fn:
		names = argNames(n.Args)

		// The name of a function expression is only visible inside it
		if _, isExpr := parent.(*js_ast.Expr); isExpr && n.Name != nil {
			names = append(names, n.Name.Name)
		}
		return false, names, true

	case *js_ast.FnBody:
		// A class static block behaves like a function body of its own
		_, isStaticBlock := parent.(*js_ast.Property)
		return !isStaticBlock, nil, true

	case *js_ast.Catch:
		if n.Binding != nil {
			for _, name := range js_ast.BindingNames(*n.Binding) {
				names = append(names, name.Name)
			}
		}
		return true, names, true

	case *js_ast.Expr:
		switch e := n.Data.(type) {
		case *js_ast.EArrow:
			return false, argNames(e.Args), true
		case *js_ast.EClass:
			if e.Class.Name != nil {
				return true, []string{e.Class.Name.Name}, true
			}
		}

	case *js_ast.Stmt:
		switch n.Data.(type) {
		case *js_ast.SBlock, *js_ast.SFor, *js_ast.SForIn, *js_ast.SForOf, *js_ast.SSwitch:
			return true, nil, true
		}
	}
	return false, nil, false
}

func argNames(args []js_ast.Arg) (names []string) {
	for _, arg := range args {
		for _, name := range js_ast.BindingNames(arg.Binding) {
			names = append(names, name.Name)
		}
	}
	return
}

func (r *Result) findReadsAndWrites(stmt *js_ast.Stmt, info *StmtInfo) {
	switch s := stmt.Data.(type) {
	case *js_ast.SImport:
		// Imported bindings are resolved through the module's import table
		return

	case *js_ast.SExportClause:
		for _, item := range s.Items {
			if !info.Defines.Has(item.Name.Name) {
				info.DependsOn.Add(item.Name.Name)
			}
		}
		return
	}

	scope := RootScope

	// Only names that resolve to the module scope or to nothing at all matter
	// outside of this statement
	isModuleLevel := func(name string) bool {
		defining := r.FindDefiningScope(scope, name)
		return defining == NoScope || r.Scopes[defining].Depth == 0
	}

	var addWrite func(target js_ast.Expr)
	addWrite = func(target js_ast.Expr) {
		for {
			switch e := target.Data.(type) {
			case *js_ast.EDot:
				target = e.Target
				continue
			case *js_ast.EIndex:
				target = e.Target
				continue
			case *js_ast.EIdentifier:
				if isModuleLevel(e.Name) {
					info.Modifies.Add(e.Name)
				}
			case *js_ast.EArray:
				for _, item := range e.Items {
					addWrite(item)
				}
			case *js_ast.EObject:
				for _, property := range e.Properties {
					if property.Value != nil {
						addWrite(*property.Value)
					}
				}
			case *js_ast.ESpread:
				addWrite(e.Value)
			case *js_ast.EBinary:
				// A destructuring default such as "[a = 1] = b"
				if e.Op == js_ast.BinOpAssign {
					addWrite(e.Left)
				}
			}
			return
		}
	}

	js_ast.Walk(stmt, js_ast.Visitor{
		Enter: func(node js_ast.Node, parent js_ast.Node) js_ast.WalkControl {
			if index, ok := r.ScopeOf[node]; ok {
				scope = index
			}

			// "for (x in y)" and "for (x of y)" assign to "x"
			if s, ok := node.(*js_ast.Stmt); ok {
				switch s := s.Data.(type) {
				case *js_ast.SForIn:
					if init, ok := s.Init.Data.(*js_ast.SExpr); ok {
						addWrite(init.Value)
					}
				case *js_ast.SForOf:
					if init, ok := s.Init.Data.(*js_ast.SExpr); ok {
						addWrite(init.Value)
					}
				}
			}

			expr, ok := node.(*js_ast.Expr)
			if !ok {
				return js_ast.WalkContinue
			}

			switch e := expr.Data.(type) {
			case *js_ast.EIdentifier:
				if isModuleLevel(e.Name) && !info.Defines.Has(e.Name) {
					info.DependsOn.Add(e.Name)
				}

			case *js_ast.EBinary:
				if e.Op.BinaryAssignTarget() != js_ast.AssignTargetNone {
					addWrite(e.Left)
				}

			case *js_ast.EUnary:
				if e.Op.UnaryAssignTarget() != js_ast.AssignTargetNone {
					addWrite(e.Value)
				}

			case *js_ast.ECall:
				for _, arg := range e.Args {
					addWrite(arg)
				}
			}
			return js_ast.WalkContinue
		},

		Leave: func(node js_ast.Node, parent js_ast.Node) {
			if _, ok := r.ScopeOf[node]; ok {
				scope = r.Scopes[scope].Parent
			}
		},
	})
}
