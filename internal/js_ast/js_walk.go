package js_ast

type WalkControl uint8

const (
	// Visit the node's children and then call "Leave" for the node
	WalkContinue WalkControl = iota

	// Don't visit the node's children and don't call "Leave" for the node
	WalkSkip

	// Stop the walk immediately. No further callbacks are made.
	WalkAbort
)

// Either callback may be nil. The parent is nil for the root of the walk.
type Visitor struct {
	Enter func(node Node, parent Node) WalkControl
	Leave func(node Node, parent Node)
}

// Walk visits "node" and its descendants depth-first in source order. It
// returns false if the walk was aborted.
func Walk(node Node, visitor Visitor) bool {
	w := walker{visitor: visitor}
	w.visit(node, nil)
	return !w.aborted
}

// WalkStmts walks a list of sibling statements as if they were the children
// of a parent node that isn't itself visited.
func WalkStmts(stmts []Stmt, visitor Visitor) bool {
	w := walker{visitor: visitor}
	for i := range stmts {
		if !w.visit(&stmts[i], nil) {
			break
		}
	}
	return !w.aborted
}

type walker struct {
	visitor Visitor
	aborted bool
}

// Returns false once the walk has been aborted
func (w *walker) visit(node Node, parent Node) bool {
	if w.aborted {
		return false
	}
	if w.visitor.Enter != nil {
		switch w.visitor.Enter(node, parent) {
		case WalkSkip:
			return true
		case WalkAbort:
			w.aborted = true
			return false
		}
	}
	if !forEachChild(node, func(child Node) bool { return w.visit(child, node) }) {
		return false
	}
	if w.visitor.Leave != nil {
		w.visitor.Leave(node, parent)
	}
	return true
}

func forEachChild(node Node, visit func(Node) bool) bool {
	stmts := func(list []Stmt) bool {
		for i := range list {
			if !visit(&list[i]) {
				return false
			}
		}
		return true
	}
	exprs := func(list []Expr) bool {
		for i := range list {
			if !visit(&list[i]) {
				return false
			}
		}
		return true
	}
	args := func(list []Arg) bool {
		for i := range list {
			if !visit(&list[i]) {
				return false
			}
		}
		return true
	}
	properties := func(list []Property) bool {
		for i := range list {
			if !visit(&list[i]) {
				return false
			}
		}
		return true
	}
	optionalExpr := func(expr *Expr) bool {
		return expr == nil || visit(expr)
	}

	switch n := node.(type) {
	case *Stmt:
		switch s := n.Data.(type) {
		case *SBlock:
			return stmts(s.Stmts)
		case *SExportDefault:
			return visit(&s.Value)
		case *SExpr:
			return visit(&s.Value)
		case *SFunction:
			return visit(&s.Fn)
		case *SClass:
			return visit(&s.Class)
		case *SLabel:
			return visit(&s.Stmt)
		case *SIf:
			if !visit(&s.Test) || !visit(&s.Yes) {
				return false
			}
			return s.No == nil || visit(s.No)
		case *SFor:
			if s.Init != nil && !visit(s.Init) {
				return false
			}
			return optionalExpr(s.Test) && optionalExpr(s.Update) && visit(&s.Body)
		case *SForIn:
			return visit(&s.Init) && visit(&s.Value) && visit(&s.Body)
		case *SForOf:
			return visit(&s.Init) && visit(&s.Value) && visit(&s.Body)
		case *SDoWhile:
			return visit(&s.Body) && visit(&s.Test)
		case *SWhile:
			return visit(&s.Test) && visit(&s.Body)
		case *SWith:
			return visit(&s.Value) && visit(&s.Body)
		case *STry:
			if !visit(&s.Block) {
				return false
			}
			if s.Catch != nil && !visit(s.Catch) {
				return false
			}
			return s.Finally == nil || visit(s.Finally)
		case *SSwitch:
			if !visit(&s.Test) {
				return false
			}
			for i := range s.Cases {
				if !visit(&s.Cases[i]) {
					return false
				}
			}
		case *SReturn:
			return optionalExpr(s.Value)
		case *SThrow:
			return visit(&s.Value)
		case *SLocal:
			for i := range s.Decls {
				if !visit(&s.Decls[i]) {
					return false
				}
			}
		}

	case *Expr:
		switch e := n.Data.(type) {
		case *EArray:
			return exprs(e.Items)
		case *EUnary:
			return visit(&e.Value)
		case *EBinary:
			return visit(&e.Left) && visit(&e.Right)
		case *ENew:
			return visit(&e.Target) && exprs(e.Args)
		case *ECall:
			return visit(&e.Target) && exprs(e.Args)
		case *EDot:
			return visit(&e.Target)
		case *EIndex:
			return visit(&e.Target) && visit(&e.Index)
		case *EArrow:
			return args(e.Args) && visit(&e.Body)
		case *EFunction:
			return visit(&e.Fn)
		case *EClass:
			return visit(&e.Class)
		case *EObject:
			return properties(e.Properties)
		case *ESpread:
			return visit(&e.Value)
		case *ETemplate:
			if !optionalExpr(e.Tag) {
				return false
			}
			for i := range e.Parts {
				if !visit(&e.Parts[i].Value) {
					return false
				}
			}
		case *EAwait:
			return visit(&e.Value)
		case *EYield:
			return optionalExpr(e.Value)
		case *EIf:
			return visit(&e.Test) && visit(&e.Yes) && visit(&e.No)
		case *EImportCall:
			return visit(&e.Expr)
		}

	case *Binding:
		switch b := n.Data.(type) {
		case *BArray:
			for i := range b.Items {
				if !visit(&b.Items[i]) {
					return false
				}
			}
		case *BObject:
			for i := range b.Properties {
				if !visit(&b.Properties[i]) {
					return false
				}
			}
		}

	case *Fn:
		return args(n.Args) && visit(&n.Body)

	case *FnBody:
		return stmts(n.Stmts)

	case *Class:
		return optionalExpr(n.Extends) && properties(n.Properties)

	case *Property:
		if (n.Key.Data != nil && !visit(&n.Key)) || !optionalExpr(n.Value) || !optionalExpr(n.Initializer) {
			return false
		}
		return n.StaticBlock == nil || visit(n.StaticBlock)

	case *PropertyBinding:
		return (n.Key.Data == nil || visit(&n.Key)) && visit(&n.Value) && optionalExpr(n.DefaultValue)

	case *ArrayBinding:
		return visit(&n.Binding) && optionalExpr(n.DefaultValue)

	case *Arg:
		return visit(&n.Binding) && optionalExpr(n.Default)

	case *Decl:
		return visit(&n.Binding) && optionalExpr(n.Value)

	case *Catch:
		if n.Binding != nil && !visit(n.Binding) {
			return false
		}
		return visit(&n.Body)

	case *Case:
		return optionalExpr(n.Value) && stmts(n.Body)
	}
	return true
}
