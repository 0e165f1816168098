package finalisers

import (
	"testing"

	"github.com/minroll/minroll/internal/config"
	"github.com/minroll/minroll/internal/magic"
	"github.com/minroll/minroll/internal/test"
)

func bodyForTest(code string) *magic.Bundle {
	body := &magic.Bundle{}
	body.AddSource(magic.New(code), "")
	return body
}

func expectFinalised(t *testing.T, format config.Format, code string, input Input, expected string) {
	t.Helper()
	result := ForFormat(format)(bodyForTest(code), input)
	test.AssertEqualWithDiff(t, result.String(), expected)
}

var pathNamed = External{ID: "path", Name: "path", NeedsNamed: true}
var fooDefault = External{ID: "foo", Name: "foo", NeedsDefault: true}
var barBoth = External{ID: "./vendor/bar", Name: "bar", DefaultName: "bar__default", NeedsDefault: true, NeedsNamed: true}

func TestCJSNone(t *testing.T) {
	expectFinalised(t, config.FormatCommonJS, "console.log(1);", Input{ExportMode: config.ExportNone},
		"'use strict'\n\nconsole.log(1);")
}

func TestCJSNamed(t *testing.T) {
	expectFinalised(t, config.FormatCommonJS, "const a = 1;\nconst b = a + 1;", Input{
		ExportMode: config.ExportNamed,
		Exports:    []Export{{Name: "a", Canonical: "a"}, {Name: "c", Canonical: "b"}},
	}, `'use strict'

const a = 1;
const b = a + 1;

exports.a = a
exports.c = b`)
}

func TestCJSDefault(t *testing.T) {
	expectFinalised(t, config.FormatCommonJS, "var main_default = 42;", Input{
		ExportMode:  config.ExportDefault,
		DefaultName: "main_default",
	}, "'use strict'\n\nvar main_default = 42;\n\nmodule.exports = main_default")
}

func TestCJSExternals(t *testing.T) {
	expectFinalised(t, config.FormatCommonJS, "path.join(foo, bar__default, bar.x);", Input{
		ExportMode: config.ExportNone,
		Externals:  []External{pathNamed, fooDefault, barBoth},
	}, `'use strict'

var path = require('path')
var foo = require('foo')
foo = 'default' in foo ? foo['default'] : foo
var bar = require('./vendor/bar')
var bar__default = 'default' in bar ? bar['default'] : bar

path.join(foo, bar__default, bar.x);`)
}

func TestESM(t *testing.T) {
	expectFinalised(t, config.FormatESModule, "const a = 1;", Input{
		ExportMode: config.ExportNamed,
		Externals:  []External{pathNamed, fooDefault, barBoth, {ID: "side-effect", Name: "side_effect"}},
		Exports: []Export{
			{Name: "a", Canonical: "a"},
			{Name: "b", Canonical: "_a"},
			{Name: "join", Canonical: "path.join"},
		},
	}, `import * as path from 'path'
import foo from 'foo'
import bar__default, * as bar from './vendor/bar'
import 'side-effect'

const a = 1;

export const join = path.join
export { a, _a as b }`)

	expectFinalised(t, config.FormatESModule, "var main_default = 42;", Input{
		ExportMode:  config.ExportDefault,
		DefaultName: "main_default",
	}, "var main_default = 42;\n\nexport default main_default")
}

func TestIIFE(t *testing.T) {
	expectFinalised(t, config.FormatIIFE, "console.log(path.sep);", Input{
		ExportMode: config.ExportNone,
		Externals:  []External{pathNamed},
	}, `(function (path) { 'use strict'

	console.log(path.sep);

}(path))`)

	expectFinalised(t, config.FormatIIFE, "function f() {\n  return foo\n}", Input{
		ExportMode: config.ExportNamed,
		GlobalName: "lib",
		Externals:  []External{fooDefault},
		Exports:    []Export{{Name: "f", Canonical: "f"}},
	}, `var lib = (function (exports, foo) { 'use strict'

  foo = 'default' in foo ? foo['default'] : foo

  function f() {
    return foo
  }

  exports.f = f

  return exports

}({}, foo))`)

	expectFinalised(t, config.FormatIIFE, "var x = 1;", Input{
		ExportMode:  config.ExportDefault,
		GlobalName:  "lib",
		DefaultName: "x",
	}, "var lib = (function () { 'use strict'\n\n\tvar x = 1;\n\n\treturn x\n\n}())")
}
