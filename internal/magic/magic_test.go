package magic

import (
	"testing"

	"github.com/minroll/minroll/internal/test"
)

func TestOverwriteAndRemove(t *testing.T) {
	s := New("export const a = b + c;")
	s.Remove(0, 7)
	s.Overwrite(13, 14, "x")
	s.Overwrite(21, 22, "_c")
	test.AssertEqual(t, s.String(), "const x = b + _c;")

	// Overlapping edits replace the earlier one
	s.Overwrite(19, 22, "- d")
	test.AssertEqual(t, s.String(), "const x = b - d;")

	// The original text is never modified
	test.AssertEqual(t, s.Original(), "export const a = b + c;")
}

func TestSnipAndClone(t *testing.T) {
	s := New("let a = 1;\nlet b = a;\n")
	s.Overwrite(4, 5, "A")
	s.Overwrite(19, 20, "A")

	first := s.Snip(0, 10)
	second := s.Snip(11, 21)
	test.AssertEqual(t, first.String(), "let A = 1;")
	test.AssertEqual(t, second.String(), "let b = A;")

	clone := second.Clone()
	clone.Overwrite(15, 16, "B")
	test.AssertEqual(t, clone.String(), "let B = A;")
	test.AssertEqual(t, second.String(), "let b = A;")
}

func TestPrependAppendTrim(t *testing.T) {
	s := New("  \n  x = 1;  \n")
	s.Trim()
	test.AssertEqual(t, s.String(), "x = 1;")

	s.Prepend("var ")
	s.Append("\n")
	test.AssertEqual(t, s.String(), "var x = 1;\n")

	// Edits that become empty at the edges are trimmed away too
	s = New("abc ")
	s.Overwrite(0, 1, "  ")
	s.Trim()
	test.AssertEqual(t, s.String(), "bc")
}

func TestBundleSeparators(t *testing.T) {
	b := Bundle{}
	b.AddSource(New("var a = 1;"), "\n\n\n")
	b.AddSource(New("var b = 2;"), "\n")
	b.AddSource(New("var c = 3;"), "\n\n")
	test.AssertEqual(t, b.String(), "var a = 1;\nvar b = 2;\n\nvar c = 3;")

	b.Prepend("\n\n'use strict'\n\n")
	b.Append("\n\nexports.a = a\n\n")
	b.Trim()
	test.AssertEqual(t, b.String(), "'use strict'\n\nvar a = 1;\nvar b = 2;\n\nvar c = 3;\n\nexports.a = a")
}

func TestBundleIndent(t *testing.T) {
	b := Bundle{}
	b.AddSource(New("function f() {\n\treturn 1\n}"), "")
	test.AssertEqual(t, b.IndentString(), "\t")

	b = Bundle{}
	b.AddSource(New("function f() {\n    if (x) {\n        y()\n    }\n  z()\n}"), "")
	test.AssertEqual(t, b.IndentString(), "  ")

	b = Bundle{}
	b.AddSource(New("var a = 1;"), "")
	test.AssertEqual(t, b.IndentString(), "\t")

	b.AddSource(New("var b = 2;"), "\n\n")
	b.Prepend("'use strict'\n\n")
	b.Indent("\t")
	test.AssertEqual(t, b.String(), "\t'use strict'\n\n\tvar a = 1;\n\n\tvar b = 2;")
	test.AssertEqual(t, b.IsEmpty(), false)
}

func TestIndentKeepsVerbatimLines(t *testing.T) {
	code := "const s = `a\nb`\nif (x) {\n\tf(`${s}\n`)\n}"
	s := New(code)
	s.KeepVerbatim(10, 15)
	s.KeepVerbatim(32, 35)
	s.Overwrite(6, 7, "t")

	b := Bundle{}
	b.AddSource(s.Snip(0, 15), "")
	b.AddSource(s.Snip(16, int32(len(code))), "\n\n")
	b.Prepend("\n\n")
	b.Trim()
	b.Indent("  ")
	test.AssertEqual(t, b.String(), "  const t = `a\nb`\n\n  if (x) {\n  \tf(`${s}\n`)\n  }")

	// Indenting again still leaves the template alone
	b.Indent("  ")
	test.AssertEqual(t, b.String(), "    const t = `a\nb`\n\n    if (x) {\n    \tf(`${s}\n`)\n    }")
}
