package js_parser

import (
	"testing"

	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/test"
)

func parseForTest(t *testing.T, contents string) js_ast.AST {
	t.Helper()
	log := logger.NewDeferLog()
	tree, ok := Parse(log, test.SourceForTest(contents))
	text := ""
	for _, msg := range log.Done() {
		text += msg.String(logger.OutputOptions{}, logger.TerminalInfo{})
	}
	test.AssertEqualWithDiff(t, text, "")
	if !ok {
		t.Fatal("Parse error")
	}
	return tree
}

func expectParseError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		Parse(log, test.SourceForTest(contents))
		text := ""
		for _, msg := range log.Done() {
			text += msg.String(logger.OutputOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqualWithDiff(t, text, expected)
	})
}

// Checks the source text covered by each top-level statement
func expectRanges(t *testing.T, contents string, expected ...string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		tree := parseForTest(t, contents)
		if len(tree.Ranges) != len(tree.Stmts) {
			t.Fatalf("%d ranges for %d statements", len(tree.Ranges), len(tree.Stmts))
		}
		var texts []string
		for _, r := range tree.Ranges {
			texts = append(texts, contents[r.Loc.Start:r.End()])
		}
		test.AssertEqual(t, len(texts), len(expected))
		for i := range expected {
			test.AssertEqualWithDiff(t, texts[i], expected[i])
		}
	})
}

func TestStatementRanges(t *testing.T) {
	expectRanges(t, "a;b", "a;", "b")
	expectRanges(t, "  var x = 1  \n\n  let y\n", "var x = 1", "let y")
	expectRanges(t, "function f() {}\n// comment\nclass C {}", "function f() {}", "class C {}")
	expectRanges(t, "export default 1 + 2;\nexport const a = 1", "export default 1 + 2;", "export const a = 1")
	expectRanges(t, "import {a} from 'a'\nexport {a}", "import {a} from 'a'", "export {a}")
	expectRanges(t, "if (a) b(); else { c() }", "if (a) b(); else { c() }")
	expectRanges(t, "do x(); while (y) z()", "do x(); while (y)", "z()")
	expectRanges(t, ";;x;;", "x;")
	expectRanges(t, "#!/usr/bin/env node\nfoo()", "foo()")
}

func TestHashbang(t *testing.T) {
	tree := parseForTest(t, "#!/usr/bin/env node\nfoo()")
	test.AssertEqual(t, tree.Hashbang, "#!/usr/bin/env node")
}

func TestDirectives(t *testing.T) {
	tree := parseForTest(t, "'use strict'; 'other'\nfoo(); 'not a directive'")
	test.AssertEqual(t, len(tree.Stmts), 4)
	if d, ok := tree.Stmts[0].Data.(*js_ast.SDirective); !ok || d.Value != "use strict" {
		t.Fatal("expected a directive")
	}
	if _, ok := tree.Stmts[1].Data.(*js_ast.SDirective); !ok {
		t.Fatal("expected a directive")
	}
	if _, ok := tree.Stmts[3].Data.(*js_ast.SExpr); !ok {
		t.Fatal("expected an expression statement")
	}
}

func TestImports(t *testing.T) {
	tree := parseForTest(t, `
		import 'side-effect'
		import def from './a'
		import * as ns from './b'
		import def2, {x, y as z, default as w} from "./c"
		import def3, * as ns2 from './d'
	`)
	test.AssertEqual(t, len(tree.Stmts), 5)

	s := tree.Stmts[0].Data.(*js_ast.SImport)
	test.AssertEqual(t, s.Path, "side-effect")
	test.AssertEqual(t, s.DefaultName == nil && s.Items == nil && s.StarName == nil, true)

	s = tree.Stmts[1].Data.(*js_ast.SImport)
	test.AssertEqual(t, s.DefaultName.Name, "def")
	test.AssertEqual(t, s.Path, "./a")

	s = tree.Stmts[2].Data.(*js_ast.SImport)
	test.AssertEqual(t, s.StarName.Name, "ns")

	s = tree.Stmts[3].Data.(*js_ast.SImport)
	test.AssertEqual(t, s.DefaultName.Name, "def2")
	items := *s.Items
	test.AssertEqual(t, len(items), 3)
	test.AssertEqual(t, items[0].Alias+":"+items[0].Name.Name, "x:x")
	test.AssertEqual(t, items[1].Alias+":"+items[1].Name.Name, "y:z")
	test.AssertEqual(t, items[2].Alias+":"+items[2].Name.Name, "default:w")

	s = tree.Stmts[4].Data.(*js_ast.SImport)
	test.AssertEqual(t, s.DefaultName.Name, "def3")
	test.AssertEqual(t, s.StarName.Name, "ns2")
}

func TestExports(t *testing.T) {
	contents := `
		export var a = 1, b
		export let c
		export const d = 2
		export function e() {}
		export async function f() {}
		export class G {}
		export {a as h, b}
		export {x as y} from './x'
		export * from './star'
		export * as ns from './ns'
		export default function () {}
	`
	tree := parseForTest(t, contents)
	test.AssertEqual(t, len(tree.Stmts), 11)

	for i := 0; i < 3; i++ {
		local := tree.Stmts[i].Data.(*js_ast.SLocal)
		test.AssertEqual(t, local.IsExport, true)
	}
	test.AssertEqual(t, tree.Stmts[1].Data.(*js_ast.SLocal).Kind, js_ast.LocalLet)
	test.AssertEqual(t, tree.Stmts[2].Data.(*js_ast.SLocal).Kind, js_ast.LocalConst)

	// The statement location of an exported declaration is the declaration itself
	fn := tree.Stmts[3]
	test.AssertEqual(t, fn.Data.(*js_ast.SFunction).IsExport, true)
	test.AssertEqual(t, contents[fn.Loc.Start:fn.Loc.Start+8], "function")
	test.AssertEqual(t, contents[tree.Ranges[3].Loc.Start:tree.Ranges[3].Loc.Start+6], "export")

	async := tree.Stmts[4].Data.(*js_ast.SFunction)
	test.AssertEqual(t, async.Fn.IsAsync, true)
	test.AssertEqual(t, contents[tree.Stmts[4].Loc.Start:tree.Stmts[4].Loc.Start+5], "async")

	test.AssertEqual(t, tree.Stmts[5].Data.(*js_ast.SClass).Class.Name.Name, "G")

	clause := tree.Stmts[6].Data.(*js_ast.SExportClause)
	test.AssertEqual(t, clause.Items[0].Name.Name+":"+clause.Items[0].Alias, "a:h")
	test.AssertEqual(t, clause.Items[1].Name.Name+":"+clause.Items[1].Alias, "b:b")

	from := tree.Stmts[7].Data.(*js_ast.SExportFrom)
	test.AssertEqual(t, from.Path, "./x")
	test.AssertEqual(t, from.Items[0].Name.Name+":"+from.Items[0].Alias, "x:y")

	star := tree.Stmts[8].Data.(*js_ast.SExportStar)
	test.AssertEqual(t, star.Alias == nil, true)
	test.AssertEqual(t, tree.Stmts[9].Data.(*js_ast.SExportStar).Alias.Name, "ns")

	def := tree.Stmts[10].Data.(*js_ast.SExportDefault)
	anon := def.Value.Data.(*js_ast.SFunction)
	test.AssertEqual(t, anon.Fn.Name == nil, true)
	test.AssertEqual(t, contents[def.Value.Loc.Start:def.Value.Loc.Start+8], "function")
}

func TestExportDefaultValues(t *testing.T) {
	tree := parseForTest(t, "export default foo")
	def := tree.Stmts[0].Data.(*js_ast.SExportDefault)
	expr := def.Value.Data.(*js_ast.SExpr)
	test.AssertEqual(t, expr.Value.Data.(*js_ast.EIdentifier).Name, "foo")
	test.AssertEqual(t, def.Value.Loc.Start, int32(15))

	tree = parseForTest(t, "export default class Foo extends Bar {}")
	class := tree.Stmts[0].Data.(*js_ast.SExportDefault).Value.Data.(*js_ast.SClass)
	test.AssertEqual(t, class.Class.Name.Name, "Foo")
	test.AssertEqual(t, class.Class.Extends.Data.(*js_ast.EIdentifier).Name, "Bar")

	tree = parseForTest(t, "export default async function named() {}")
	fn := tree.Stmts[0].Data.(*js_ast.SExportDefault).Value.Data.(*js_ast.SFunction)
	test.AssertEqual(t, fn.Fn.IsAsync, true)
	test.AssertEqual(t, fn.Fn.Name.Name, "named")
}

func TestShorthandProperties(t *testing.T) {
	contents := "x = {a, b: c, get, async, [d]: e}"
	tree := parseForTest(t, contents)
	assign := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary)
	object := assign.Right.Data.(*js_ast.EObject)
	test.AssertEqual(t, len(object.Properties), 5)

	a := object.Properties[0]
	test.AssertEqual(t, a.WasShorthand, true)
	test.AssertEqual(t, a.Value.Data.(*js_ast.EIdentifier).Name, "a")
	test.AssertEqual(t, a.Value.Loc, a.Key.Loc)

	test.AssertEqual(t, object.Properties[1].WasShorthand, false)
	test.AssertEqual(t, object.Properties[2].WasShorthand, true)
	test.AssertEqual(t, object.Properties[3].WasShorthand, true)
	test.AssertEqual(t, object.Properties[4].IsComputed, true)
}

func TestDestructuring(t *testing.T) {
	tree := parseForTest(t, "const {a, b: [c, , ...d], e = 1, ...f} = g")
	local := tree.Stmts[0].Data.(*js_ast.SLocal)
	var names []string
	for _, name := range js_ast.BindingNames(local.Decls[0].Binding) {
		names = append(names, name.Name)
	}
	test.AssertEqual(t, len(names), 5)
	test.AssertEqual(t, names[0]+names[1]+names[2]+names[3]+names[4], "acdef")

	object := local.Decls[0].Binding.Data.(*js_ast.BObject)
	test.AssertEqual(t, object.Properties[0].WasShorthand, true)
	test.AssertEqual(t, object.Properties[2].DefaultValue != nil, true)
	test.AssertEqual(t, object.Properties[3].IsSpread, true)
}

func TestArrowFunctions(t *testing.T) {
	tree := parseForTest(t, "a = (b, {c} = {}, ...d) => b; e = async f => { await f }; g = async () => 1; async(h)")
	arrow := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary).Right.Data.(*js_ast.EArrow)
	test.AssertEqual(t, len(arrow.Args), 3)
	test.AssertEqual(t, arrow.HasRestArg, true)
	test.AssertEqual(t, arrow.PreferExpr, true)
	test.AssertEqual(t, arrow.Args[1].Default != nil, true)

	arrow = tree.Stmts[1].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary).Right.Data.(*js_ast.EArrow)
	test.AssertEqual(t, arrow.IsAsync, true)
	test.AssertEqual(t, arrow.PreferExpr, false)

	arrow = tree.Stmts[2].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary).Right.Data.(*js_ast.EArrow)
	test.AssertEqual(t, arrow.IsAsync, true)

	call := tree.Stmts[3].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall)
	test.AssertEqual(t, call.Target.Data.(*js_ast.EIdentifier).Name, "async")
}

func TestClasses(t *testing.T) {
	tree := parseForTest(t, `class A extends B {
		static x = 1
		y
		static { init() }
		get z() { return 1 }
		set z(v) {}
		static async *gen() {}
		static() {}
		[computed]() {}
	}`)
	class := tree.Stmts[0].Data.(*js_ast.SClass).Class
	test.AssertEqual(t, len(class.Properties), 8)
	test.AssertEqual(t, class.Properties[0].IsStatic, true)
	test.AssertEqual(t, class.Properties[0].Initializer != nil, true)
	test.AssertEqual(t, class.Properties[2].Kind, js_ast.PropertyClassStaticBlock)
	test.AssertEqual(t, class.Properties[3].Kind, js_ast.PropertyGet)
	test.AssertEqual(t, class.Properties[4].Kind, js_ast.PropertySet)
	gen := class.Properties[5]
	test.AssertEqual(t, gen.IsStatic, true)
	fn := gen.Value.Data.(*js_ast.EFunction).Fn
	test.AssertEqual(t, fn.IsAsync && fn.IsGenerator, true)
	test.AssertEqual(t, class.Properties[6].Key.Data.(*js_ast.EString).Value, "static")
	test.AssertEqual(t, class.Properties[6].IsStatic, false)
	test.AssertEqual(t, class.Properties[7].IsComputed, true)
}

func TestOperators(t *testing.T) {
	tree := parseForTest(t, "a = b + c * d ** e ** f, g ? h : i")
	comma := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary)
	test.AssertEqual(t, comma.Op, js_ast.BinOpComma)
	assign := comma.Left.Data.(*js_ast.EBinary)
	test.AssertEqual(t, assign.Op, js_ast.BinOpAssign)
	add := assign.Right.Data.(*js_ast.EBinary)
	test.AssertEqual(t, add.Op, js_ast.BinOpAdd)
	mul := add.Right.Data.(*js_ast.EBinary)
	test.AssertEqual(t, mul.Op, js_ast.BinOpMul)
	pow := mul.Right.Data.(*js_ast.EBinary)
	test.AssertEqual(t, pow.Op, js_ast.BinOpPow)
	test.AssertEqual(t, pow.Left.Data.(*js_ast.EIdentifier).Name, "d")
	test.AssertEqual(t, pow.Right.Data.(*js_ast.EBinary).Op, js_ast.BinOpPow)
	if _, ok := comma.Right.Data.(*js_ast.EIf); !ok {
		t.Fatal("expected a conditional expression")
	}
}

func TestMemberExpressions(t *testing.T) {
	tree := parseForTest(t, "a.b.default[c]?.d?.(e)")
	call := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ECall)
	test.AssertEqual(t, call.OptionalChain, js_ast.OptionalChainStart)
	test.AssertEqual(t, call.Target.Data.(*js_ast.EDot).Name, "d")

	tree = parseForTest(t, "tag`f${g}h`")
	template := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.ETemplate)
	test.AssertEqual(t, template.Tag.Data.(*js_ast.EIdentifier).Name, "tag")
	test.AssertEqual(t, template.Head, "f")

	tree = parseForTest(t, "new a.b(c).d")
	dot := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EDot)
	test.AssertEqual(t, dot.Name, "d")
	newExpr := dot.Target.Data.(*js_ast.ENew)
	test.AssertEqual(t, len(newExpr.Args), 1)
	test.AssertEqual(t, newExpr.Target.Data.(*js_ast.EDot).Name, "b")
}

func TestForLoops(t *testing.T) {
	tree := parseForTest(t, "for (let i = 0; i < n; i++) {}\nfor (const k in o) {}\nfor (x of y) {}\nfor (;;) break")
	test.AssertEqual(t, len(tree.Stmts), 4)
	if _, ok := tree.Stmts[0].Data.(*js_ast.SFor); !ok {
		t.Fatal("expected a for loop")
	}
	if _, ok := tree.Stmts[1].Data.(*js_ast.SForIn); !ok {
		t.Fatal("expected a for-in loop")
	}
	if _, ok := tree.Stmts[2].Data.(*js_ast.SForOf); !ok {
		t.Fatal("expected a for-of loop")
	}
}

func TestLetAsIdentifier(t *testing.T) {
	tree := parseForTest(t, "let = 1\nlet\nx = 2")
	test.AssertEqual(t, len(tree.Stmts), 2)
	if _, ok := tree.Stmts[0].Data.(*js_ast.SExpr); !ok {
		t.Fatal("expected an expression statement")
	}
	if _, ok := tree.Stmts[1].Data.(*js_ast.SLocal); !ok {
		t.Fatal("expected a declaration")
	}
}

func TestRegExpAndTemplates(t *testing.T) {
	tree := parseForTest(t, "x = /a\\/b/gi.test(`${y}/`) / 2")
	div := tree.Stmts[0].Data.(*js_ast.SExpr).Value.Data.(*js_ast.EBinary).Right.Data.(*js_ast.EBinary)
	test.AssertEqual(t, div.Op, js_ast.BinOpDiv)
	call := div.Left.Data.(*js_ast.ECall)
	regexp := call.Target.Data.(*js_ast.EDot).Target.Data.(*js_ast.ERegExp)
	test.AssertEqual(t, regexp.Value, "/a\\/b/gi")
	template := call.Args[0].Data.(*js_ast.ETemplate)
	test.AssertEqual(t, len(template.Parts), 1)
	test.AssertEqual(t, template.Parts[0].Tail, "/")
}

func TestTemplateRanges(t *testing.T) {
	source := "x = `a\n${y}\nb`\nz = `c\nd`"
	tree := parseForTest(t, source)
	test.AssertEqual(t, len(tree.TemplateRanges), 3)

	var texts []string
	for _, r := range tree.TemplateRanges {
		texts = append(texts, source[r.Loc.Start:r.End()])
	}
	test.AssertEqual(t, texts[0], "`a\n${")
	test.AssertEqual(t, texts[1], "}\nb`")
	test.AssertEqual(t, texts[2], "`c\nd`")
}

func TestParseErrors(t *testing.T) {
	expectParseError(t, "a b", "<stdin>: error: Expected \";\" but found \"b\"\n")
	expectParseError(t, "function () {}", "<stdin>: error: Expected identifier but found \"(\"\n")
	expectParseError(t, "const a", "<stdin>: error: The constant \"a\" must be initialized\n")
	expectParseError(t, "return 1", "<stdin>: error: A return statement cannot be used here\n")
	expectParseError(t, "{ import 'a' }", "<stdin>: error: Unexpected \"'a'\"\n")
	expectParseError(t, "export foo", "<stdin>: error: Unexpected \"foo\"\n")
	expectParseError(t, "(a, b)", "")
	expectParseError(t, "()", "<stdin>: error: Expected \"=>\" but found end of file\n")
	expectParseError(t, "let interface = 1", "<stdin>: error: \"interface\" is a reserved word and cannot be used in strict mode\n")
	expectParseError(t, "import {default} from 'a'", "<stdin>: error: Expected \"as\" but found \"}\"\n")
	expectParseError(t, "switch (a) { default: default: }", "<stdin>: error: Multiple default clauses are not allowed\n")
}
