package analyzer

import (
	"strings"
	"testing"

	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_parser"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/test"
)

func analyzeForTest(t *testing.T, contents string) (*js_ast.AST, *Result) {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := js_parser.Parse(log, test.SourceForTest(contents))
	if !ok {
		msgs := log.Done()
		t.Fatalf("parse failed: %s", msgs[0].Text)
	}
	return &tree, Analyze(&tree, contents)
}

func joined(set NameSet) string {
	return strings.Join(set.Names(), ",")
}

func expectDefines(t *testing.T, contents string, expected ...string) {
	t.Helper()
	_, result := analyzeForTest(t, contents)
	for i, info := range result.Stmts {
		test.AssertEqual(t, joined(info.Defines), expected[i])
	}
}

func expectDependsOn(t *testing.T, contents string, expected string) {
	t.Helper()
	_, result := analyzeForTest(t, contents)
	test.AssertEqual(t, joined(result.Stmts[len(result.Stmts)-1].DependsOn), expected)
}

func expectModifies(t *testing.T, contents string, expected string) {
	t.Helper()
	_, result := analyzeForTest(t, contents)
	test.AssertEqual(t, joined(result.Stmts[len(result.Stmts)-1].Modifies), expected)
}

func TestDefines(t *testing.T) {
	expectDefines(t, "var a = 1, b; let c; const d = 2", "a,b", "c", "d")
	expectDefines(t, "function f() { var x } class C {}", "f", "C")
	expectDefines(t, "var {a, b: [c, ...d]} = x", "a,c,d")
	expectDefines(t, "export const a = 1; export function f() {}", "a", "f")
	expectDefines(t, "export default 1", "default")
	expectDefines(t, "export default function() {}", "default")
	expectDefines(t, "export default class Foo {}", "Foo")
	expectDefines(t, "import a from 'a'; export { a }", "", "")
}

func TestVarHoistsOutOfBlocks(t *testing.T) {
	expectDefines(t, "if (x) { var a; let b; const c = 1 }", "a")
	expectDefines(t, "for (var i = 0; i < 1; i++) {}", "i")
	expectDefines(t, "for (let i = 0; i < 1; i++) {}", "")
	expectDefines(t, "try {} catch (e) { var x }", "x")
	expectDefines(t, "function f() { if (x) { var a } }", "f")
	expectDefines(t, "switch (x) { case 1: var a; let b }", "a")
}

func TestDependsOn(t *testing.T) {
	expectDependsOn(t, "function f() { return g(x) + y.z }", "g,x,y")
	expectDependsOn(t, "var a = { b: c, d, [e]: 1 }", "c,d,e")
	expectDependsOn(t, "function f(a) { return a }", "")
	expectDependsOn(t, "var a = 1; var b = function a() { return a }", "")
	expectDependsOn(t, "var b = (x) => x + y", "y")
	expectDependsOn(t, "function f() { try {} catch (e) { e } let q; { q } }", "")
	expectDependsOn(t, "function f() { return f() }", "")
	expectDependsOn(t, "function f() {} f()", "f")
	expectDependsOn(t, "var x; function f() { return x }", "x")
	expectDependsOn(t, "class A extends B { m() { return this.c } }", "B")
	expectDependsOn(t, "var c = class C { m() { return C } }", "")
	expectDependsOn(t, "label: for (;;) { break label }", "")
	expectDependsOn(t, "var a = `${b}` + t`${c}`", "b,t,c")
}

func TestExportClauseDependsOn(t *testing.T) {
	expectDependsOn(t, "const a = 1, b = 2; export { a, b as c }", "a,b")
	expectDependsOn(t, "export { a } from './a'", "")
}

func TestImportsAreSkipped(t *testing.T) {
	_, result := analyzeForTest(t, "import a, { b as c } from 'x'; import * as ns from 'y'; a(c, ns)")
	test.AssertEqual(t, joined(result.Stmts[0].DependsOn), "")
	test.AssertEqual(t, joined(result.Stmts[1].DependsOn), "")
	test.AssertEqual(t, joined(result.Stmts[2].DependsOn), "a,c,ns")
	test.AssertEqual(t, len(result.ModuleNames()), 0)
}

func TestModifies(t *testing.T) {
	expectModifies(t, "a = 1", "a")
	expectModifies(t, "a.b.c += 1", "a")
	expectModifies(t, "a[b]++", "a")
	expectModifies(t, "--a", "a")
	expectModifies(t, "f(a, b.c, 1, d())", "a,b")
	expectModifies(t, "[a, {b, c: [d = 1]}, ...e] = x", "a,b,d,e")
	expectModifies(t, "for (x in y);", "x")
	expectModifies(t, "for (x.y of z);", "x")
	expectModifies(t, "function f(a) { a = 1; a.x = 2; b = 3 }", "b")
	expectModifies(t, "function f() { let a; { a++ } }", "")
	expectModifies(t, "var a = -b", "")
}

func TestMargins(t *testing.T) {
	_, result := analyzeForTest(t, "a()\n\n\nb()\nc(); d()")
	test.AssertEqual(t, result.Stmts[0].Margin, [2]int{1, 4})
	test.AssertEqual(t, result.Stmts[1].Margin, [2]int{4, 2})
	test.AssertEqual(t, result.Stmts[2].Margin, [2]int{2, 1})
	test.AssertEqual(t, result.Stmts[3].Margin, [2]int{1, 0})

	// Comments between statements count towards the gap
	_, result = analyzeForTest(t, "// one\n// two\na()")
	test.AssertEqual(t, result.Stmts[0].Margin, [2]int{3, 0})
}

func TestScopeTree(t *testing.T) {
	tree, result := analyzeForTest(t, "function f(a, {b}) { let c; try {} catch (e) { var d } }")
	fn := &tree.Stmts[0].Data.(*js_ast.SFunction).Fn

	fnScope, ok := result.ScopeOf[fn]
	if !ok {
		t.Fatal("the function should have a scope")
	}
	test.AssertEqual(t, result.Scopes[fnScope].Parent, RootScope)
	test.AssertEqual(t, result.Scopes[fnScope].Depth, 1)
	test.AssertEqual(t, result.Scopes[fnScope].IsBlock, false)
	test.AssertEqual(t, joined(result.Scopes[fnScope].Names), "a,b,d")

	bodyScope := result.ScopeOf[&fn.Body]
	test.AssertEqual(t, result.Scopes[bodyScope].Parent, fnScope)
	test.AssertEqual(t, result.Scopes[bodyScope].IsBlock, true)
	test.AssertEqual(t, joined(result.Scopes[bodyScope].Names), "c")

	catch := fn.Body.Stmts[1].Data.(*js_ast.STry).Catch
	catchScope := result.ScopeOf[catch]
	test.AssertEqual(t, joined(result.Scopes[catchScope].Names), "e")
	test.AssertEqual(t, result.FindDefiningScope(catchScope, "e"), catchScope)
	test.AssertEqual(t, result.FindDefiningScope(catchScope, "c"), bodyScope)
	test.AssertEqual(t, result.FindDefiningScope(catchScope, "a"), fnScope)
	test.AssertEqual(t, result.FindDefiningScope(catchScope, "f"), RootScope)
	test.AssertEqual(t, result.FindDefiningScope(catchScope, "g"), NoScope)

	// Every scope except the root has a parent that comes before it
	for i, scope := range result.Scopes {
		if i == 0 {
			test.AssertEqual(t, scope.Parent, NoScope)
			test.AssertEqual(t, scope.Depth, 0)
		} else if scope.Parent >= ScopeIndex(i) {
			t.Fatalf("scope %d has parent %d", i, scope.Parent)
		}
	}
}

func TestNameSet(t *testing.T) {
	set := NameSet{}
	test.AssertEqual(t, set.Has("a"), false)
	test.AssertEqual(t, set.Add("b"), true)
	test.AssertEqual(t, set.Add("a"), true)
	test.AssertEqual(t, set.Add("b"), false)
	test.AssertEqual(t, set.Has("a"), true)
	test.AssertEqual(t, set.Len(), 2)
	test.AssertEqual(t, joined(set), "b,a")
}
