package graph

import (
	"strings"
	"testing"

	"github.com/minroll/minroll/internal/js_parser"
	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/test"
)

// Serves modules from memory keyed by import specifier. Anything unknown is
// an external module.
type mapLoader struct {
	log        logger.Log
	files      map[string]string
	modules    map[string]Dependency
	namespaces []*Module
}

func newMapLoader(files map[string]string) *mapLoader {
	return &mapLoader{log: logger.NewDeferLog(), files: files, modules: make(map[string]Dependency)}
}

func (l *mapLoader) FetchModule(importee string, importer *Module) Dependency {
	if dep, ok := l.modules[importee]; ok {
		return dep
	}
	contents, ok := l.files[importee]
	if !ok {
		external := NewExternalModule(importee)
		l.modules[importee] = external
		return external
	}
	name := strings.TrimPrefix(importee, "./")
	source := logger.Source{
		Index:          uint32(len(l.modules)),
		KeyPath:        importee,
		PrettyPath:     name,
		IdentifierName: name,
		Contents:       contents,
	}
	tree, ok := js_parser.Parse(l.log, source)
	if !ok {
		return nil
	}
	module, ok := NewModule(l.log, source, &tree, l)
	if !ok {
		return nil
	}
	l.modules[importee] = module
	return module
}

func (l *mapLoader) RegisterNamespace(module *Module) {
	l.namespaces = append(l.namespaces, module)
}

func (l *mapLoader) entry(t *testing.T) *Module {
	t.Helper()
	module, ok := l.FetchModule("./entry", nil).(*Module)
	if !ok {
		t.Fatal("Could not load the entry module")
	}
	return module
}

func statementTexts(stmts []*Statement) []string {
	texts := make([]string, len(stmts))
	for i, stmt := range stmts {
		texts[i] = stmt.Source.String()
	}
	return texts
}

func TestImportsAndExports(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `import def, { a as b, c } from './lib'
import * as ns from 'ext'
export const x = 1
export default x
export { b as y }
export { z } from './lib'
`,
	})
	m := loader.entry(t)

	test.AssertEqual(t, strings.Join(m.ExportNames(), ","), "x,default,y,z")

	imp, ok := m.Import("def")
	test.AssertEqual(t, ok, true)
	test.AssertEqual(t, imp.Name, "default")
	imp, _ = m.Import("b")
	test.AssertEqual(t, imp.Name, "a")
	imp, _ = m.Import("ns")
	test.AssertEqual(t, imp.Name, "*")
	test.AssertEqual(t, imp.Source, "ext")

	// A re-export is also an import under its exported name
	imp, _ = m.Import("z")
	test.AssertEqual(t, imp.Name, "z")
	test.AssertEqual(t, imp.Source, "./lib")

	export, _ := m.Export("default")
	test.AssertEqual(t, export.AliasOf, "x")
	export, _ = m.Export("y")
	test.AssertEqual(t, export.LocalName, "b")
}

func TestExpandOrder(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `import { c } from './lib'
console.log(c)
`,
		"./lib": `const a = 1
const unused = 2
const b = a + 1
b.count = 0
export const c = b
`,
	})
	m := loader.entry(t)
	stmts := m.ExpandAllStatements(true)
	test.AssertEqualWithDiff(t, strings.Join(statementTexts(stmts), "\n"), `const a = 1
const b = a + 1
b.count = 0
export const c = b
console.log(c)`)

	// Nothing is expanded twice
	test.AssertEqual(t, len(m.ExpandAllStatements(true)), 0)
}

func TestExportClauseOnlyExpandsInEntry(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `const a = 1
export { a }
`,
	})
	m := loader.entry(t)
	test.AssertEqual(t, len(m.ExpandAllStatements(false)), 1)
}

func TestNamespaceImportExpandsEverything(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `import * as lib from './lib'
lib.a()
`,
		"./lib": `export function a() {}
function b() {}
`,
	})
	m := loader.entry(t)
	stmts := m.ExpandAllStatements(true)
	test.AssertEqual(t, len(stmts), 3)
	test.AssertEqual(t, len(loader.namespaces), 1)
	test.AssertEqual(t, loader.namespaces[0].CanonicalName("*"), "lib")
	test.AssertEqual(t, m.CanonicalName("lib"), "lib")
}

func TestCanonicalNames(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `import greet from './greet'
import thing from 'thing'
import { join } from 'path'
console.log(greet, thing, join)
export default 123
`,
		"./greet": `export default function () {}
`,
	})
	m := loader.entry(t)
	m.ExpandAllStatements(true)

	test.AssertEqual(t, m.CanonicalName("greet"), "greet")
	test.AssertEqual(t, loader.modules["./greet"].CanonicalName("default"), "greet")
	test.AssertEqual(t, m.CanonicalName("default"), "entry_default")
	test.AssertEqual(t, m.CanonicalName("console"), "console")

	// External names are only known after they are assigned
	thing := loader.modules["thing"].(*ExternalModule)
	thing.Name = thing.DisplayName()
	path := loader.modules["path"].(*ExternalModule)
	path.Name = path.DisplayName()
	m.ResetCanonicalNames()
	test.AssertEqual(t, m.CanonicalName("thing"), "thing")
	test.AssertEqual(t, thing.NeedsDefault, true)
	test.AssertEqual(t, m.CanonicalName("join"), "path.join")
	test.AssertEqual(t, path.NeedsNamed, true)

	m.Rename("default", "_entry_default")
	test.AssertEqual(t, m.CanonicalName("default"), "_entry_default")
}

func TestUnboundAndNestedNames(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `import { b } from 'lib'
const a = 1
function f(c) { let d = c; return a + b + e }
`,
	})
	m := loader.entry(t)

	test.AssertEqual(t, m.IsUnbound("a"), false)
	test.AssertEqual(t, m.IsUnbound("b"), false)
	test.AssertEqual(t, m.IsUnbound("f"), false)
	test.AssertEqual(t, m.IsUnbound("e"), true)
	test.AssertEqual(t, m.IsUnbound("default"), false)

	nested := make(map[string]bool)
	for _, name := range m.NestedNames() {
		nested[name] = true
	}
	test.AssertEqual(t, nested["c"], true)
	test.AssertEqual(t, nested["d"], true)
	test.AssertEqual(t, nested["a"], false)
	test.AssertEqual(t, nested["f"], false)
}

func TestExternalCanonicalNames(t *testing.T) {
	m := NewExternalModule("./vendor/jquery.js")
	test.AssertEqual(t, m.DisplayName(), "__vendor_jquery_js")

	m.SuggestName("default", "$")
	test.AssertEqual(t, m.DisplayName(), "$")
	m.SuggestName("*", "jq")
	m.SuggestName("*", "ignored")
	test.AssertEqual(t, m.DisplayName(), "jq")

	m.Name = "jq"
	test.AssertEqual(t, m.CanonicalName("*"), "jq")
	test.AssertEqual(t, m.CanonicalName("default"), "jq")
	test.AssertEqual(t, m.CanonicalName("ajax"), "jq.ajax")
	m.NeedsNamed = true
	test.AssertEqual(t, m.CanonicalName("default"), "jq__default")
	m.DefaultName = "_jq__default"
	test.AssertEqual(t, m.CanonicalName("default"), "_jq__default")
}

func TestDefaultIsAlias(t *testing.T) {
	loader := newMapLoader(map[string]string{
		"./entry": `const a = 1
export default a
`,
	})
	m := loader.entry(t)
	test.AssertEqual(t, m.DefaultIsAlias(), true)
	test.AssertEqual(t, m.CanonicalName("default"), "a")

	m.Rename("default", "b")
	test.AssertEqual(t, m.DefaultIsAlias(), false)
}
