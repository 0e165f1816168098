package js_lexer

import (
	"testing"

	"github.com/minroll/minroll/internal/logger"
	"github.com/minroll/minroll/internal/test"
)

func lexToken(contents string) T {
	log := logger.NewDeferLog()
	lexer := NewLexer(log, test.SourceForTest(contents))
	return lexer.Token
}

func expectLexerError(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		log := logger.NewDeferLog()
		func() {
			defer func() {
				r := recover()
				if _, isLexerPanic := r.(LexerPanic); r != nil && !isLexerPanic {
					panic(r)
				}
			}()
			NewLexer(log, test.SourceForTest(contents))
		}()
		msgs := log.Done()
		text := ""
		for _, msg := range msgs {
			text += msg.String(logger.OutputOptions{}, logger.TerminalInfo{})
		}
		test.AssertEqual(t, text, expected)
	})
}

func expectLexed(t *testing.T, contents string) Lexer {
	t.Helper()
	log := logger.NewDeferLog()
	lexer := func() Lexer {
		defer func() {
			r := recover()
			if _, isLexerPanic := r.(LexerPanic); r != nil && !isLexerPanic {
				panic(r)
			}
		}()
		return NewLexer(log, test.SourceForTest(contents))
	}()
	msgs := log.Done()
	test.AssertEqual(t, len(msgs), 0)
	return lexer
}

func expectHashbang(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := expectLexed(t, contents)
		test.AssertEqual(t, lexer.Token, THashbang)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestHashbang(t *testing.T) {
	expectHashbang(t, "#!/usr/bin/env node", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\n", "#!/usr/bin/env node")
	expectHashbang(t, "#!/usr/bin/env node\nlet x", "#!/usr/bin/env node")
	expectLexerError(t, " #!/usr/bin/env node", "<stdin>: error: Syntax error \"#\"\n")
}

func expectIdentifier(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := expectLexed(t, contents)
		test.AssertEqual(t, lexer.Token, TIdentifier)
		test.AssertEqual(t, lexer.Identifier, expected)
	})
}

func TestIdentifier(t *testing.T) {
	expectIdentifier(t, "_", "_")
	expectIdentifier(t, "$", "$")
	expectIdentifier(t, "test", "test")
	expectIdentifier(t, "t\\u0065st", "test")
	expectIdentifier(t, "t\\u{65}st", "test")
	expectIdentifier(t, "café", "café")
	expectIdentifier(t, "a\u200Cb", "a\u200Cb")

	expectLexerError(t, "t\\u.", "<stdin>: error: Syntax error \".\"\n")
	expectLexerError(t, "t\\u0", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "t\\ua", "<stdin>: error: Unexpected end of file\n")
}

func TestEscapedKeyword(t *testing.T) {
	lexer := expectLexed(t, "\\u0076ar")
	test.AssertEqual(t, lexer.Token, TEscapedKeyword)
	test.AssertEqual(t, lexer.Identifier, "var")
}

func expectNumber(t *testing.T, contents string, expected float64) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := expectLexed(t, contents)
		test.AssertEqual(t, lexer.Token, TNumericLiteral)
		test.AssertEqual(t, lexer.Number, expected)
	})
}

func TestNumericLiteral(t *testing.T) {
	expectNumber(t, "0", 0.0)
	expectNumber(t, "123", 123.0)
	expectNumber(t, "1_000", 1000.0)
	expectNumber(t, ".5", 0.5)
	expectNumber(t, "1.5e3", 1500.0)
	expectNumber(t, "1e-2", 0.01)
	expectNumber(t, "0x1F", 31.0)
	expectNumber(t, "0b101", 5.0)
	expectNumber(t, "0o17", 15.0)

	expectLexerError(t, "0b2", "<stdin>: error: Syntax error \"2\"\n")
	expectLexerError(t, "0x", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "1e", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "1a", "<stdin>: error: Syntax error \"a\"\n")
}

func TestBigIntegerLiteral(t *testing.T) {
	lexer := expectLexed(t, "123n")
	test.AssertEqual(t, lexer.Token, TBigIntegerLiteral)
	test.AssertEqual(t, lexer.Identifier, "123")

	lexer = expectLexed(t, "0x1_0n")
	test.AssertEqual(t, lexer.Token, TBigIntegerLiteral)
	test.AssertEqual(t, lexer.Identifier, "0x10")
}

func expectString(t *testing.T, contents string, expected string) {
	t.Helper()
	t.Run(contents, func(t *testing.T) {
		t.Helper()
		lexer := expectLexed(t, contents)
		test.AssertEqual(t, lexer.Token, TStringLiteral)
		test.AssertEqual(t, lexer.StringLiteral, expected)
	})
}

func TestStringLiteral(t *testing.T) {
	expectString(t, "''", "")
	expectString(t, "'123'", "123")
	expectString(t, "'./lib.js'", "./lib.js")

	expectString(t, "'\"'", "\"")
	expectString(t, "'\\''", "'")
	expectString(t, "'\\\"'", "\"")
	expectString(t, "'\\\\'", "\\")
	expectString(t, "'\\a'", "a")
	expectString(t, "'\\b'", "\b")
	expectString(t, "'\\n'", "\n")
	expectString(t, "'\\t'", "\t")

	expectString(t, "'\\0'", "\000")
	expectString(t, "'\\101'", "A")
	expectString(t, "'\\x41'", "A")
	expectString(t, "'\\u0041'", "A")
	expectString(t, "'\\u{1F600}'", "\U0001F600")
	expectString(t, "'\\uD83D\\uDE00'", "\U0001F600")

	// Line continuation
	expectString(t, "'1\\\n2'", "12")
	expectString(t, "'1\\\r\n2'", "12")

	expectLexerError(t, "'\n'", "<stdin>: error: Unterminated string literal\n")
	expectLexerError(t, "\"'", "<stdin>: error: Unexpected end of file\n")
	expectLexerError(t, "'\\u{110000}'", "<stdin>: error: Unicode escape sequence is out of range\n")
	expectLexerError(t, "'\\xG'", "<stdin>: error: Syntax error \"G\"\n")
}

func TestTemplateLiteral(t *testing.T) {
	lexer := expectLexed(t, "`a${b}c`")
	test.AssertEqual(t, lexer.Token, TTemplateHead)
	test.AssertEqual(t, lexer.StringLiteral, "a")

	lexer.Next()
	test.AssertEqual(t, lexer.Token, TIdentifier)
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TCloseBrace)
	lexer.RescanCloseBraceAsTemplateToken()
	test.AssertEqual(t, lexer.Token, TTemplateTail)
	test.AssertEqual(t, lexer.StringLiteral, "c")
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TEndOfFile)
}

func TestRegExp(t *testing.T) {
	lexer := expectLexed(t, "/a[/]b/gi;")
	test.AssertEqual(t, lexer.Token, TSlash)
	lexer.ScanRegExp()
	test.AssertEqual(t, lexer.Raw(), "/a[/]b/gi")
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TSemicolon)
}

func TestPrevEnd(t *testing.T) {
	lexer := expectLexed(t, "foo /* c */ ;\n bar")
	test.AssertEqual(t, lexer.Token, TIdentifier)
	lexer.Next()
	test.AssertEqual(t, lexer.Token, TSemicolon)
	test.AssertEqual(t, lexer.PrevEnd(), int32(3))
	lexer.Next()
	test.AssertEqual(t, lexer.HasNewlineBefore, true)
	test.AssertEqual(t, lexer.PrevEnd(), int32(13))
}

func TestForceValidIdentifier(t *testing.T) {
	test.AssertEqual(t, ForceValidIdentifier("foo"), "foo")
	test.AssertEqual(t, ForceValidIdentifier("lodash-es"), "lodash_es")
	test.AssertEqual(t, ForceValidIdentifier("2d"), "_2d")
	test.AssertEqual(t, ForceValidIdentifier("@scope/pkg"), "_scope_pkg")
}

func TestTokens(t *testing.T) {
	expected := []struct {
		contents string
		token    T
	}{
		{"", TEndOfFile},
		{"\x00", TSyntaxError},
		{"#!", THashbang},

		// Punctuation
		{"(", TOpenParen},
		{"}", TCloseBrace},
		{"...", TDotDotDot},
		{"?.", TQuestionDot},
		{"?.1", TQuestion},
		{"??=", TQuestionQuestionEquals},
		{"&&=", TAmpersandAmpersandEquals},
		{"||", TBarBar},
		{"**=", TAsteriskAsteriskEquals},
		{"=>", TEqualsGreaterThan},
		{"===", TEqualsEqualsEquals},
		{"!==", TExclamationEqualsEquals},
		{">>>=", TGreaterThanGreaterThanGreaterThanEquals},
		{">>", TGreaterThanGreaterThan},
		{"<<=", TLessThanLessThanEquals},
		{"/=", TSlashEquals},
		{"// comment", TEndOfFile},
		{"/* comment */", TEndOfFile},

		// Reserved words
		{"break", TBreak},
		{"export", TExport},
		{"import", TImport},
		{"function", TFunction},
		{"with", TWith},

		// Contextual keywords are plain identifiers
		{"let", TIdentifier},
		{"async", TIdentifier},
		{"from", TIdentifier},
	}

	for _, it := range expected {
		contents := it.contents
		token := it.token
		t.Run(contents, func(t *testing.T) {
			test.AssertEqual(t, lexToken(contents), token)
		})
	}
}
