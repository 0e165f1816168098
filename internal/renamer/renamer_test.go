package renamer

import (
	"testing"

	"github.com/minroll/minroll/internal/analyzer"
	"github.com/minroll/minroll/internal/js_parser"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/magic"
	"github.com/minroll/minroll/internal/test"
)

// Applies the replacements to every top-level statement
func expectReplaced(t *testing.T, contents string, names map[string]string, expected string) {
	t.Helper()
	log := logger.NewDeferLog()
	source := test.SourceForTest(contents)
	tree, ok := js_parser.Parse(log, source)
	if !ok {
		t.Fatal("parse failed")
	}
	scopes := analyzer.Analyze(&tree, contents)
	code := magic.New(contents)
	for i := range tree.Stmts {
		ReplaceIdentifiers(&tree.Stmts[i], scopes, &source, code, names)
	}
	test.AssertEqualWithDiff(t, code.String(), expected)
}

func TestReplaceReferences(t *testing.T) {
	names := map[string]string{"a": "_a", "b": "lib.b"}
	expectReplaced(t, "var x = a + b(a)", names, "var x = _a + lib.b(_a)")
	expectReplaced(t, "var a = 1; a++", names, "var _a = 1; _a++")
	expectReplaced(t, "function a() { return a }", names, "function _a() { return _a }")
	expectReplaced(t, "class a extends b {}", names, "class _a extends lib.b {}")
	expectReplaced(t, "export default a", names, "export default _a")
	expectReplaced(t, "var {x = a} = b", names, "var {x = _a} = lib.b")
	expectReplaced(t, "var x = `${a}`", names, "var x = `${_a}`")
}

func TestReplaceSkipsNonReferences(t *testing.T) {
	names := map[string]string{"a": "_a"}
	expectReplaced(t, "x.a = y?.a", names, "x.a = y?.a")
	expectReplaced(t, "x = { a: 1, 'a': 2, get a() {}, [a]: 3 }", names, "x = { a: 1, 'a': 2, get a() {}, [_a]: 3 }")
	expectReplaced(t, "class X { a = 1; a() {} }", names, "class X { a = 1; a() {} }")
	expectReplaced(t, "a: for (;;) break a", names, "a: for (;;) break a")
}

func TestReplaceShorthandProperties(t *testing.T) {
	names := map[string]string{"a": "_a"}
	expectReplaced(t, "x = { a }", names, "x = { a: _a }")
	expectReplaced(t, "var { a } = x", names, "var { a: _a } = x")
	expectReplaced(t, "({ a = 1 } = x)", names, "({ a: _a = 1 } = x)")
}

func TestReplaceRespectsShadowing(t *testing.T) {
	names := map[string]string{"a": "_a", "b": "_b"}
	expectReplaced(t, "function f(a) { return a + b }", names, "function f(a) { return a + _b }")
	expectReplaced(t, "var f = (a) => a + b", names, "var f = (a) => a + _b")
	expectReplaced(t, "var f = function a() { return a }", names, "var f = function a() { return a }")
	expectReplaced(t, "var c = class a { m() { return a } }", names, "var c = class a { m() { return a } }")
	expectReplaced(t, "try {} catch (a) { a + b }", names, "try {} catch (a) { a + _b }")
	expectReplaced(t, "if (x) { let a = 1; a + b } a", names, "if (x) { let a = 1; a + _b } _a")
	expectReplaced(t, "for (let a of b) a", names, "for (let a of _b) a")
	expectReplaced(t, "function f() { var a; { a } } a", names, "function f() { var a; { a } } _a")

	// A scope that shadows every name is skipped entirely
	expectReplaced(t, "function f(a, b) { return a + b }", names, "function f(a, b) { return a + b }")
}

func TestReplaceNothing(t *testing.T) {
	expectReplaced(t, "var a = a", map[string]string{}, "var a = a")
	expectReplaced(t, "var a = a", map[string]string{"a": "a"}, "var a = a")
}

func TestNameClaims(t *testing.T) {
	claims := NameClaims[int]{}
	claims.Claim("x", 1)
	claims.Claim("y", 1)
	claims.Claim("x", 2)
	claims.Claim("x", 2)
	claims.Claim("_x", 3)
	claims.Claim("y", 1)

	names, owners := claims.Conflicts()
	test.AssertEqual(t, len(names), 1)
	test.AssertEqual(t, names[0], "x")
	test.AssertEqual(t, len(owners[0]), 2)

	test.AssertEqual(t, claims.SafeName("x", 1), "__x")
	test.AssertEqual(t, claims.SafeName("x", 4), "___x")
	test.AssertEqual(t, claims.SafeName("z", 5), "z")
	test.AssertEqual(t, claims.IsClaimed("z"), true)
}

func TestReservedNames(t *testing.T) {
	claims := NameClaims[int]{}
	claims.Claim("x", 1)
	claims.Claim("x", 2)
	claims.Claim("g", 3)
	claims.Reserve("_x")
	claims.ReserveUnbound("__x")
	claims.ReserveUnbound("g")

	names, owners := claims.Conflicts()
	test.AssertEqual(t, len(names), 2)
	test.AssertEqual(t, names[0], "x")
	test.AssertEqual(t, names[1], "g")
	test.AssertEqual(t, len(owners[1]), 1)
	test.AssertEqual(t, claims.IsUnbound("g"), true)
	test.AssertEqual(t, claims.IsUnbound("x"), false)

	// Neither nested bindings nor globals are handed out
	test.AssertEqual(t, claims.SafeName("x", 1), "___x")
	test.AssertEqual(t, claims.SafeName("g", 3), "_g")
}
