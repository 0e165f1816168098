package js_lexer

// The lexer converts a source file to a stream of tokens. The lexer is not
// run to completion before the parser starts. Instead, the parser calls it
// repeatedly, because some tokens are context-sensitive and need high-level
// information from the parser. Examples are regular expression literals and
// the tail of a template literal.
//
// Every token carries its byte range in the source. The bundler never prints
// an AST; it edits the original text, so ranges matter more than values here.
// String values are decoded to UTF-8 since they're only ever used for import
// paths and property names.

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/minroll/minroll/internal/logger"
)

type T uint8

// If you add a new token, remember to add it to "tokenToString" too
const (
	TEndOfFile T = iota
	TSyntaxError

	// "#!/usr/bin/env node"
	THashbang

	// Literals
	TNoSubstitutionTemplateLiteral // Contents are in lexer.StringLiteral
	TNumericLiteral                // Contents are in lexer.Number
	TStringLiteral                 // Contents are in lexer.StringLiteral
	TBigIntegerLiteral             // Contents are in lexer.Identifier

	// Pseudo-literals
	TTemplateHead   // Contents are in lexer.StringLiteral
	TTemplateMiddle // Contents are in lexer.StringLiteral
	TTemplateTail   // Contents are in lexer.StringLiteral

	// Punctuation
	TAmpersand
	TAmpersandAmpersand
	TAsterisk
	TAsteriskAsterisk
	TBar
	TBarBar
	TCaret
	TCloseBrace
	TCloseBracket
	TCloseParen
	TColon
	TComma
	TDot
	TDotDotDot
	TEqualsEquals
	TEqualsEqualsEquals
	TEqualsGreaterThan
	TExclamation
	TExclamationEquals
	TExclamationEqualsEquals
	TGreaterThan
	TGreaterThanEquals
	TGreaterThanGreaterThan
	TGreaterThanGreaterThanGreaterThan
	TLessThan
	TLessThanEquals
	TLessThanLessThan
	TMinus
	TMinusMinus
	TOpenBrace
	TOpenBracket
	TOpenParen
	TPercent
	TPlus
	TPlusPlus
	TQuestion
	TQuestionDot
	TQuestionQuestion
	TSemicolon
	TSlash
	TTilde

	// Assignments (keep in sync with IsAssign below)
	TAmpersandAmpersandEquals
	TAmpersandEquals
	TAsteriskAsteriskEquals
	TAsteriskEquals
	TBarBarEquals
	TBarEquals
	TCaretEquals
	TEquals
	TGreaterThanGreaterThanEquals
	TGreaterThanGreaterThanGreaterThanEquals
	TLessThanLessThanEquals
	TMinusEquals
	TPercentEquals
	TPlusEquals
	TQuestionQuestionEquals
	TSlashEquals

	// Identifiers
	TIdentifier     // Contents are in lexer.Identifier
	TEscapedKeyword // A keyword that has been escaped as an identifer

	// Reserved words
	TBreak
	TCase
	TCatch
	TClass
	TConst
	TContinue
	TDebugger
	TDefault
	TDelete
	TDo
	TElse
	TEnum
	TExport
	TExtends
	TFalse
	TFinally
	TFor
	TFunction
	TIf
	TImport
	TIn
	TInstanceof
	TNew
	TNull
	TReturn
	TSuper
	TSwitch
	TThis
	TThrow
	TTrue
	TTry
	TTypeof
	TVar
	TVoid
	TWhile
	TWith
)

var Keywords = map[string]T{
	"break":      TBreak,
	"case":       TCase,
	"catch":      TCatch,
	"class":      TClass,
	"const":      TConst,
	"continue":   TContinue,
	"debugger":   TDebugger,
	"default":    TDefault,
	"delete":     TDelete,
	"do":         TDo,
	"else":       TElse,
	"enum":       TEnum,
	"export":     TExport,
	"extends":    TExtends,
	"false":      TFalse,
	"finally":    TFinally,
	"for":        TFor,
	"function":   TFunction,
	"if":         TIf,
	"import":     TImport,
	"in":         TIn,
	"instanceof": TInstanceof,
	"new":        TNew,
	"null":       TNull,
	"return":     TReturn,
	"super":      TSuper,
	"switch":     TSwitch,
	"this":       TThis,
	"throw":      TThrow,
	"true":       TTrue,
	"try":        TTry,
	"typeof":     TTypeof,
	"var":        TVar,
	"void":       TVoid,
	"while":      TWhile,
	"with":       TWith,
}

// These can't be used as binding names in module code even though they are
// lexed as identifiers
var StrictModeReservedWords = map[string]bool{
	"implements": true,
	"interface":  true,
	"let":        true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"static":     true,
	"yield":      true,
	"await":      true,
}

var tokenToString = map[T]string{
	TEndOfFile:   "end of file",
	TSyntaxError: "syntax error",
	THashbang:    "hashbang comment",

	// Literals
	TNoSubstitutionTemplateLiteral: "template literal",
	TNumericLiteral:                "number",
	TStringLiteral:                 "string",
	TBigIntegerLiteral:             "bigint",

	// Pseudo-literals
	TTemplateHead:   "template literal",
	TTemplateMiddle: "template literal",
	TTemplateTail:   "template literal",

	// Punctuation
	TAmpersand:                         "\"&\"",
	TAmpersandAmpersand:                "\"&&\"",
	TAsterisk:                          "\"*\"",
	TAsteriskAsterisk:                  "\"**\"",
	TBar:                               "\"|\"",
	TBarBar:                            "\"||\"",
	TCaret:                             "\"^\"",
	TCloseBrace:                        "\"}\"",
	TCloseBracket:                      "\"]\"",
	TCloseParen:                        "\")\"",
	TColon:                             "\":\"",
	TComma:                             "\",\"",
	TDot:                               "\".\"",
	TDotDotDot:                         "\"...\"",
	TEqualsEquals:                      "\"==\"",
	TEqualsEqualsEquals:                "\"===\"",
	TEqualsGreaterThan:                 "\"=>\"",
	TExclamation:                       "\"!\"",
	TExclamationEquals:                 "\"!=\"",
	TExclamationEqualsEquals:           "\"!==\"",
	TGreaterThan:                       "\">\"",
	TGreaterThanEquals:                 "\">=\"",
	TGreaterThanGreaterThan:            "\">>\"",
	TGreaterThanGreaterThanGreaterThan: "\">>>\"",
	TLessThan:                          "\"<\"",
	TLessThanEquals:                    "\"<=\"",
	TLessThanLessThan:                  "\"<<\"",
	TMinus:                             "\"-\"",
	TMinusMinus:                        "\"--\"",
	TOpenBrace:                         "\"{\"",
	TOpenBracket:                       "\"[\"",
	TOpenParen:                         "\"(\"",
	TPercent:                           "\"%\"",
	TPlus:                              "\"+\"",
	TPlusPlus:                          "\"++\"",
	TQuestion:                          "\"?\"",
	TQuestionDot:                       "\"?.\"",
	TQuestionQuestion:                  "\"??\"",
	TSemicolon:                         "\";\"",
	TSlash:                             "\"/\"",
	TTilde:                             "\"~\"",

	// Assignments
	TAmpersandAmpersandEquals:                "\"&&=\"",
	TAmpersandEquals:                         "\"&=\"",
	TAsteriskAsteriskEquals:                  "\"**=\"",
	TAsteriskEquals:                          "\"*=\"",
	TBarBarEquals:                            "\"||=\"",
	TBarEquals:                               "\"|=\"",
	TCaretEquals:                             "\"^=\"",
	TEquals:                                  "\"=\"",
	TGreaterThanGreaterThanEquals:            "\">>=\"",
	TGreaterThanGreaterThanGreaterThanEquals: "\">>>=\"",
	TLessThanLessThanEquals:                  "\"<<=\"",
	TMinusEquals:                             "\"-=\"",
	TPercentEquals:                           "\"%=\"",
	TPlusEquals:                              "\"+=\"",
	TQuestionQuestionEquals:                  "\"??=\"",
	TSlashEquals:                             "\"/=\"",

	// Identifiers
	TIdentifier:     "identifier",
	TEscapedKeyword: "escaped keyword",
}

func init() {
	for text, token := range Keywords {
		tokenToString[token] = fmt.Sprintf("%q", text)
	}
}

type Lexer struct {
	log                             logger.Log
	source                          logger.Source
	current                         int
	start                           int
	end                             int
	prevEnd                         int
	Token                           T
	HasNewlineBefore                bool
	codePoint                       rune
	StringLiteral                   string
	Identifier                      string
	Number                          float64
	rescanCloseBraceAsTemplateToken bool
}

type LexerPanic struct{}

func NewLexer(log logger.Log, source logger.Source) Lexer {
	lexer := Lexer{
		log:    log,
		source: source,
	}
	lexer.step()
	lexer.Next()
	return lexer
}

func (lexer *Lexer) Loc() logger.Loc {
	return logger.Loc{Start: int32(lexer.start)}
}

func (lexer *Lexer) Range() logger.Range {
	return logger.Range{Loc: logger.Loc{Start: int32(lexer.start)}, Len: int32(lexer.end - lexer.start)}
}

// The end of the token before the current one. Node ranges end here once
// the parser has moved past the node's last token.
func (lexer *Lexer) PrevEnd() int32 {
	return int32(lexer.prevEnd)
}

func (lexer *Lexer) Raw() string {
	return lexer.source.Contents[lexer.start:lexer.end]
}

func (lexer *Lexer) IsIdentifierOrKeyword() bool {
	return lexer.Token >= TIdentifier
}

func (lexer *Lexer) IsContextualKeyword(text string) bool {
	return lexer.Token == TIdentifier && lexer.Raw() == text
}

func (lexer *Lexer) ExpectContextualKeyword(text string) {
	if !lexer.IsContextualKeyword(text) {
		lexer.ExpectedString(fmt.Sprintf("%q", text))
	}
	lexer.Next()
}

func (lexer *Lexer) SyntaxError() {
	loc := logger.Loc{Start: int32(lexer.end)}
	message := "Unexpected end of file"
	if lexer.end < len(lexer.source.Contents) {
		c, _ := utf8.DecodeRuneInString(lexer.source.Contents[lexer.end:])
		if c < 0x20 {
			message = fmt.Sprintf("Syntax error \"\\x%02X\"", c)
		} else if c >= 0x80 {
			message = fmt.Sprintf("Syntax error \"\\u{%x}\"", c)
		} else {
			message = fmt.Sprintf("Syntax error \"%c\"", c)
		}
	}
	lexer.log.AddError(&lexer.source, loc, message)
	panic(LexerPanic{})
}

func (lexer *Lexer) ExpectedString(text string) {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.log.AddRangeError(&lexer.source, lexer.Range(), fmt.Sprintf("Expected %s but found %s", text, found))
	panic(LexerPanic{})
}

func (lexer *Lexer) Expected(token T) {
	if text, ok := tokenToString[token]; ok {
		lexer.ExpectedString(text)
	} else {
		lexer.Unexpected()
	}
}

func (lexer *Lexer) Unexpected() {
	found := fmt.Sprintf("%q", lexer.Raw())
	if lexer.start == len(lexer.source.Contents) {
		found = "end of file"
	}
	lexer.log.AddRangeError(&lexer.source, lexer.Range(), fmt.Sprintf("Unexpected %s", found))
	panic(LexerPanic{})
}

func (lexer *Lexer) Expect(token T) {
	if lexer.Token != token {
		lexer.Expected(token)
	}
	lexer.Next()
}

func (lexer *Lexer) ExpectOrInsertSemicolon() {
	if lexer.Token == TSemicolon || (!lexer.HasNewlineBefore &&
		lexer.Token != TCloseBrace && lexer.Token != TEndOfFile) {
		lexer.Expect(TSemicolon)
	}
}

func IsIdentifier(text string) bool {
	if len(text) == 0 {
		return false
	}
	for i, codePoint := range text {
		if i == 0 {
			if !IsIdentifierStart(codePoint) {
				return false
			}
		} else {
			if !IsIdentifierContinue(codePoint) {
				return false
			}
		}
	}
	return true
}

// ForceValidIdentifier replaces every character that can't appear in an
// identifier with "_", and prefixes a leading digit with "_".
func ForceValidIdentifier(text string) string {
	if IsIdentifier(text) {
		return text
	}
	sb := strings.Builder{}

	// Identifier start
	c, width := utf8.DecodeRuneInString(text)
	text = text[width:]
	if IsIdentifierStart(c) {
		sb.WriteRune(c)
	} else {
		sb.WriteRune('_')
		if IsIdentifierContinue(c) {
			sb.WriteRune(c)
		}
	}

	// Identifier continue
	for _, c := range text {
		if IsIdentifierContinue(c) {
			sb.WriteRune(c)
		} else {
			sb.WriteRune('_')
		}
	}

	return sb.String()
}

// RangeOfIdentifier returns the range of the identifier starting at "loc",
// including any unicode escapes it was written with.
func RangeOfIdentifier(source logger.Source, loc logger.Loc) logger.Range {
	text := source.Contents[loc.Start:]
	i := 0
	for i < len(text) {
		if text[i] == '\\' {
			i++
			if i < len(text) && text[i] == 'u' {
				i++
				if i < len(text) && text[i] == '{' {
					for i < len(text) && text[i] != '}' {
						i++
					}
					i++
				} else {
					i += 4
				}
			}
			continue
		}
		c, width := utf8.DecodeRuneInString(text[i:])
		if (i == 0 && !IsIdentifierStart(c)) || (i > 0 && !IsIdentifierContinue(c)) {
			break
		}
		i += width
	}
	if i > len(text) {
		i = len(text)
	}
	return logger.Range{Loc: loc, Len: int32(i)}
}

func IsIdentifierStart(codePoint rune) bool {
	switch {
	case codePoint >= 'a' && codePoint <= 'z', codePoint >= 'A' && codePoint <= 'Z',
		codePoint == '_', codePoint == '$':
		return true
	}

	// All ASCII identifier start code points are listed above
	if codePoint < 0x7F {
		return false
	}

	return unicode.In(codePoint, unicode.L, unicode.Nl, unicode.Other_ID_Start)
}

func IsIdentifierContinue(codePoint rune) bool {
	switch {
	case codePoint >= 'a' && codePoint <= 'z', codePoint >= 'A' && codePoint <= 'Z',
		codePoint >= '0' && codePoint <= '9', codePoint == '_', codePoint == '$':
		return true
	}

	// All ASCII identifier continue code points are listed above
	if codePoint < 0x7F {
		return false
	}

	// ZWNJ and ZWJ are allowed in identifiers
	if codePoint == 0x200C || codePoint == 0x200D {
		return true
	}

	return unicode.In(codePoint, unicode.L, unicode.Nl, unicode.Other_ID_Start,
		unicode.Mn, unicode.Mc, unicode.Nd, unicode.Pc, unicode.Other_ID_Continue)
}

func isWhitespace(codePoint rune) bool {
	switch codePoint {
	case '\t', '\f', '\v', ' ', '\xA0', '\uFEFF':
		return true
	}
	return codePoint > 0x7F && unicode.Is(unicode.Zs, codePoint)
}

func isLineTerminator(codePoint rune) bool {
	switch codePoint {
	case '\r', '\n', '\u2028', '\u2029':
		return true
	}
	return false
}

func IsAssign(token T) bool {
	return token >= TAmpersandAmpersandEquals && token <= TSlashEquals
}

func (lexer *Lexer) Next() {
	lexer.HasNewlineBefore = false
	lexer.prevEnd = lexer.end

	for {
		lexer.start = lexer.end
		lexer.Token = 0

		switch lexer.codePoint {
		case -1: // This indicates the end of the file
			lexer.Token = TEndOfFile

		case '#':
			if lexer.start != 0 || !strings.HasPrefix(lexer.source.Contents, "#!") {
				lexer.SyntaxError()
			}
			lexer.Token = THashbang
			for lexer.codePoint != -1 && !isLineTerminator(lexer.codePoint) {
				lexer.step()
			}
			lexer.Identifier = lexer.Raw()

		case '\r', '\n', '\u2028', '\u2029':
			lexer.step()
			lexer.HasNewlineBefore = true
			continue

		case '(':
			lexer.single(TOpenParen)
		case ')':
			lexer.single(TCloseParen)
		case '[':
			lexer.single(TOpenBracket)
		case ']':
			lexer.single(TCloseBracket)
		case '{':
			lexer.single(TOpenBrace)
		case '}':
			lexer.single(TCloseBrace)
		case ',':
			lexer.single(TComma)
		case ':':
			lexer.single(TColon)
		case ';':
			lexer.single(TSemicolon)
		case '~':
			lexer.single(TTilde)

		case '?':
			// '?' or '??' or '??=' or '?.'
			lexer.step()
			switch lexer.codePoint {
			case '?':
				lexer.step()
				lexer.Token = lexer.withEquals(TQuestionQuestion, TQuestionQuestionEquals)
			case '.':
				lexer.Token = TQuestion

				// Lookahead to disambiguate with 'a?.1:b'
				if contents := lexer.source.Contents; lexer.current < len(contents) {
					if c := contents[lexer.current]; c < '0' || c > '9' {
						lexer.step()
						lexer.Token = TQuestionDot
					}
				}
			default:
				lexer.Token = TQuestion
			}

		case '%':
			lexer.step()
			lexer.Token = lexer.withEquals(TPercent, TPercentEquals)

		case '^':
			lexer.step()
			lexer.Token = lexer.withEquals(TCaret, TCaretEquals)

		case '&':
			// '&' or '&=' or '&&' or '&&='
			lexer.step()
			if lexer.codePoint == '&' {
				lexer.step()
				lexer.Token = lexer.withEquals(TAmpersandAmpersand, TAmpersandAmpersandEquals)
			} else {
				lexer.Token = lexer.withEquals(TAmpersand, TAmpersandEquals)
			}

		case '|':
			// '|' or '|=' or '||' or '||='
			lexer.step()
			if lexer.codePoint == '|' {
				lexer.step()
				lexer.Token = lexer.withEquals(TBarBar, TBarBarEquals)
			} else {
				lexer.Token = lexer.withEquals(TBar, TBarEquals)
			}

		case '+':
			// '+' or '+=' or '++'
			lexer.step()
			if lexer.codePoint == '+' {
				lexer.single(TPlusPlus)
			} else {
				lexer.Token = lexer.withEquals(TPlus, TPlusEquals)
			}

		case '-':
			// '-' or '-=' or '--'
			lexer.step()
			if lexer.codePoint == '-' {
				lexer.single(TMinusMinus)
			} else {
				lexer.Token = lexer.withEquals(TMinus, TMinusEquals)
			}

		case '*':
			// '*' or '*=' or '**' or '**='
			lexer.step()
			if lexer.codePoint == '*' {
				lexer.step()
				lexer.Token = lexer.withEquals(TAsteriskAsterisk, TAsteriskAsteriskEquals)
			} else {
				lexer.Token = lexer.withEquals(TAsterisk, TAsteriskEquals)
			}

		case '/':
			// '/' or '/=' or '//' or '/* ... */'
			lexer.step()
			switch lexer.codePoint {
			case '/':
				for lexer.codePoint != -1 && !isLineTerminator(lexer.codePoint) {
					lexer.step()
				}
				continue

			case '*':
				lexer.skipMultiLineComment()
				if lexer.Token == TSyntaxError {
					return
				}
				continue

			default:
				lexer.Token = lexer.withEquals(TSlash, TSlashEquals)
			}

		case '=':
			// '=' or '=>' or '==' or '==='
			lexer.step()
			switch lexer.codePoint {
			case '>':
				lexer.single(TEqualsGreaterThan)
			case '=':
				lexer.step()
				lexer.Token = lexer.withEquals(TEqualsEquals, TEqualsEqualsEquals)
			default:
				lexer.Token = TEquals
			}

		case '<':
			// '<' or '<<' or '<=' or '<<='
			lexer.step()
			if lexer.codePoint == '<' {
				lexer.step()
				lexer.Token = lexer.withEquals(TLessThanLessThan, TLessThanLessThanEquals)
			} else {
				lexer.Token = lexer.withEquals(TLessThan, TLessThanEquals)
			}

		case '>':
			// '>' or '>>' or '>>>' or '>=' or '>>=' or '>>>='
			lexer.step()
			if lexer.codePoint != '>' {
				lexer.Token = lexer.withEquals(TGreaterThan, TGreaterThanEquals)
				break
			}
			lexer.step()
			if lexer.codePoint != '>' {
				lexer.Token = lexer.withEquals(TGreaterThanGreaterThan, TGreaterThanGreaterThanEquals)
				break
			}
			lexer.step()
			lexer.Token = lexer.withEquals(TGreaterThanGreaterThanGreaterThan, TGreaterThanGreaterThanGreaterThanEquals)

		case '!':
			// '!' or '!=' or '!=='
			lexer.step()
			if lexer.codePoint == '=' {
				lexer.step()
				lexer.Token = lexer.withEquals(TExclamationEquals, TExclamationEqualsEquals)
			} else {
				lexer.Token = TExclamation
			}

		case '\'', '"', '`':
			lexer.scanStringOrTemplate()

		case '\\':
			lexer.Identifier, lexer.Token = lexer.scanIdentifierWithEscapes()

		case '.', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			lexer.parseNumericLiteralOrDot()

		default:
			if isWhitespace(lexer.codePoint) {
				lexer.step()
				continue
			}

			if IsIdentifierStart(lexer.codePoint) {
				lexer.step()
				for IsIdentifierContinue(lexer.codePoint) {
					lexer.step()
				}
				if lexer.codePoint == '\\' {
					lexer.Identifier, lexer.Token = lexer.scanIdentifierWithEscapes()
				} else {
					contents := lexer.Raw()
					lexer.Identifier = contents
					lexer.Token = Keywords[contents]
					if lexer.Token == 0 {
						lexer.Token = TIdentifier
					}
				}
				break
			}

			lexer.end = lexer.current
			lexer.Token = TSyntaxError
		}

		return
	}
}

func (lexer *Lexer) single(token T) {
	lexer.step()
	lexer.Token = token
}

func (lexer *Lexer) withEquals(plain T, equals T) T {
	if lexer.codePoint == '=' {
		lexer.step()
		return equals
	}
	return plain
}

func (lexer *Lexer) skipMultiLineComment() {
	lexer.step()
	for {
		switch lexer.codePoint {
		case '*':
			lexer.step()
			if lexer.codePoint == '/' {
				lexer.step()
				return
			}

		case '\r', '\n', '\u2028', '\u2029':
			lexer.step()
			lexer.HasNewlineBefore = true

		case -1: // This indicates the end of the file
			lexer.start = lexer.end
			lexer.log.AddError(&lexer.source, lexer.Loc(), "Expected \"*/\" to terminate multi-line comment")
			lexer.Token = TSyntaxError
			return

		default:
			lexer.step()
		}
	}
}

func (lexer *Lexer) scanStringOrTemplate() {
	quote := lexer.codePoint
	hasEscape := false
	suffixLen := 1

	if quote != '`' {
		lexer.Token = TStringLiteral
	} else if lexer.rescanCloseBraceAsTemplateToken {
		lexer.Token = TTemplateTail
	} else {
		lexer.Token = TNoSubstitutionTemplateLiteral
	}
	lexer.step()

stringLiteral:
	for {
		switch lexer.codePoint {
		case '\\':
			hasEscape = true
			lexer.step()

			// Handle Windows CRLF
			if lexer.codePoint == '\r' {
				lexer.step()
				if lexer.codePoint == '\n' {
					lexer.step()
				}
				continue
			}

		case -1: // This indicates the end of the file
			lexer.SyntaxError()

		case '\r', '\n':
			if quote != '`' {
				lexer.log.AddError(&lexer.source, logger.Loc{Start: int32(lexer.end)}, "Unterminated string literal")
				panic(LexerPanic{})
			}

		case '$':
			if quote == '`' {
				lexer.step()
				if lexer.codePoint == '{' {
					suffixLen = 2
					lexer.step()
					if lexer.rescanCloseBraceAsTemplateToken {
						lexer.Token = TTemplateMiddle
					} else {
						lexer.Token = TTemplateHead
					}
					break stringLiteral
				}
				continue stringLiteral
			}

		case quote:
			lexer.step()
			break stringLiteral
		}
		lexer.step()
	}

	text := lexer.source.Contents[lexer.start+1 : lexer.end-suffixLen]
	if hasEscape {
		lexer.StringLiteral = lexer.decodeEscapeSequences(lexer.start+1, text)
	} else {
		lexer.StringLiteral = text
	}
}

// This is an edge case that doesn't really exist in the wild, so it doesn't
// need to be as fast as possible.
func (lexer *Lexer) scanIdentifierWithEscapes() (string, T) {
	// First pass: scan over the identifier to see how long it is
	for {
		if lexer.codePoint == '\\' {
			lexer.step()
			if lexer.codePoint != 'u' {
				lexer.SyntaxError()
			}
			lexer.step()
			if lexer.codePoint == '{' {
				// Variable-length
				lexer.step()
				for lexer.codePoint != '}' {
					if !isHexDigit(lexer.codePoint) {
						lexer.SyntaxError()
					}
					lexer.step()
				}
				lexer.step()
			} else {
				// Fixed-length
				for j := 0; j < 4; j++ {
					if !isHexDigit(lexer.codePoint) {
						lexer.SyntaxError()
					}
					lexer.step()
				}
			}
			continue
		}

		// Stop when we reach the end of the identifier
		if !IsIdentifierContinue(lexer.codePoint) {
			break
		}
		lexer.step()
	}

	// Second pass: re-use our existing escape sequence parser
	text := lexer.decodeEscapeSequences(lexer.start, lexer.Raw())

	// Even though it was escaped, it must still be a valid identifier
	if !IsIdentifier(text) {
		lexer.log.AddRangeError(&lexer.source, lexer.Range(), fmt.Sprintf("Invalid identifier: %q", text))
	}

	// Escaped keywords are not allowed to work as actual keywords, but they are
	// allowed wherever we allow identifiers or keywords (e.g. "foo.\u0076ar")
	if Keywords[text] != 0 {
		return text, TEscapedKeyword
	}
	return text, TIdentifier
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexValue(c rune) rune {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c + 10 - 'a'
	default:
		return c + 10 - 'A'
	}
}

func (lexer *Lexer) parseNumericLiteralOrDot() {
	// Number or dot
	first := lexer.codePoint
	lexer.step()

	// Dot without a digit after it
	if first == '.' && (lexer.codePoint < '0' || lexer.codePoint > '9') {
		// "..."
		if lexer.codePoint == '.' &&
			lexer.current < len(lexer.source.Contents) &&
			lexer.source.Contents[lexer.current] == '.' {
			lexer.step()
			lexer.step()
			lexer.Token = TDotDotDot
			return
		}

		// "."
		lexer.Token = TDot
		return
	}

	lexer.Token = TNumericLiteral
	hasDotOrExponent := first == '.'
	base := 0

	// Check for binary, octal, or hexadecimal literal
	if first == '0' {
		switch lexer.codePoint {
		case 'b', 'B':
			base = 2
		case 'o', 'O':
			base = 8
		case 'x', 'X':
			base = 16
		}
	}

	if base != 0 {
		lexer.step()
		digits := 0
		for isHexDigit(lexer.codePoint) || lexer.codePoint == '_' {
			if lexer.codePoint != '_' && hexValue(lexer.codePoint) >= rune(base) {
				lexer.SyntaxError()
			}
			digits++
			lexer.step()
		}
		if digits == 0 {
			lexer.SyntaxError()
		}
	} else {
		lexer.scanDecimalDigits()

		// Fractional digits
		if first != '.' && lexer.codePoint == '.' {
			hasDotOrExponent = true
			lexer.step()
			lexer.scanDecimalDigits()
		}

		// Exponent
		if lexer.codePoint == 'e' || lexer.codePoint == 'E' {
			hasDotOrExponent = true
			lexer.step()
			if lexer.codePoint == '+' || lexer.codePoint == '-' {
				lexer.step()
			}
			if lexer.codePoint < '0' || lexer.codePoint > '9' {
				lexer.SyntaxError()
			}
			lexer.scanDecimalDigits()
		}
	}

	text := strings.ReplaceAll(lexer.Raw(), "_", "")
	if strings.HasSuffix(lexer.Raw(), "_") || strings.Contains(lexer.Raw(), "__") {
		lexer.SyntaxError()
	}

	// Store bigints as text to avoid precision loss
	if lexer.codePoint == 'n' && !hasDotOrExponent {
		lexer.step()
		lexer.Token = TBigIntegerLiteral
		lexer.Identifier = text
	} else if base != 0 {
		value, _ := strconv.ParseUint(text[2:], base, 64)
		lexer.Number = float64(value)
	} else {
		value, _ := strconv.ParseFloat(text, 64)
		lexer.Number = value
	}

	// Identifiers can't occur immediately after numbers
	if IsIdentifierStart(lexer.codePoint) {
		lexer.SyntaxError()
	}
}

func (lexer *Lexer) scanDecimalDigits() {
	for (lexer.codePoint >= '0' && lexer.codePoint <= '9') || lexer.codePoint == '_' {
		lexer.step()
	}
}

// The parser calls this when it finds a "/" or "/=" token in a position
// where an expression is expected
func (lexer *Lexer) ScanRegExp() {
	validateAndStep := func() {
		if lexer.codePoint == '\\' {
			lexer.step()
		}

		switch lexer.codePoint {
		case '\r', '\n', 0x2028, 0x2029:
			// Newlines aren't allowed in regular expressions
			lexer.SyntaxError()

		case -1: // This indicates the end of the file
			lexer.SyntaxError()

		default:
			lexer.step()
		}
	}

	for {
		switch lexer.codePoint {
		case '/':
			lexer.step()
			for IsIdentifierContinue(lexer.codePoint) {
				switch lexer.codePoint {
				case 'd', 'g', 'i', 'm', 's', 'u', 'v', 'y':
					lexer.step()

				default:
					lexer.SyntaxError()
				}
			}
			return

		case '[':
			lexer.step()
			for lexer.codePoint != ']' {
				validateAndStep()
			}
			lexer.step()

		default:
			validateAndStep()
		}
	}
}

func (lexer *Lexer) decodeEscapeSequences(start int, text string) string {
	sb := strings.Builder{}
	sb.Grow(len(text))
	i := 0

	for i < len(text) {
		c, width := utf8.DecodeRuneInString(text[i:])
		i += width

		if c != '\\' {
			sb.WriteRune(c)
			continue
		}

		c2, width2 := utf8.DecodeRuneInString(text[i:])
		i += width2

		switch c2 {
		case 'b':
			c = '\b'
		case 'f':
			c = '\f'
		case 'n':
			c = '\n'
		case 'r':
			c = '\r'
		case 't':
			c = '\t'
		case 'v':
			c = '\v'

		case '0', '1', '2', '3', '4', '5', '6', '7':
			// 1-3 digit octal
			value := c2 - '0'
			for j := 0; j < 2 && i < len(text) && text[i] >= '0' && text[i] <= '7'; j++ {
				temp := value*8 + rune(text[i]-'0')
				if temp >= 256 {
					break
				}
				value = temp
				i++
			}
			c = value

		case 'x':
			// 2-digit hexadecimal
			value := rune(0)
			for j := 0; j < 2; j++ {
				if i >= len(text) || !isHexDigit(rune(text[i])) {
					lexer.end = start + i
					lexer.SyntaxError()
				}
				value = value*16 | hexValue(rune(text[i]))
				i++
			}
			c = value

		case 'u':
			c, i = lexer.decodeUnicodeEscape(start, text, i)

		case '\r':
			// Ignore line continuations. A line continuation is not an escaped newline.
			if i < len(text) && text[i] == '\n' {
				// Make sure Windows CRLF counts as a single newline
				i++
			}
			continue

		case '\n', '\u2028', '\u2029':
			// Ignore line continuations. A line continuation is not an escaped newline.
			continue

		default:
			c = c2
		}

		sb.WriteRune(c)
	}

	return sb.String()
}

func (lexer *Lexer) decodeUnicodeEscape(start int, text string, i int) (rune, int) {
	value := rune(0)

	if i < len(text) && text[i] == '{' {
		// Variable-length
		hexStart := i - 2
		i++
		isFirst := true
		for {
			if i >= len(text) {
				lexer.end = start + i
				lexer.SyntaxError()
			}
			c := rune(text[i])
			i++
			if c == '}' {
				if isFirst {
					lexer.end = start + i - 1
					lexer.SyntaxError()
				}
				break
			}
			if !isHexDigit(c) {
				lexer.end = start + i - 1
				lexer.SyntaxError()
			}
			value = value*16 | hexValue(c)
			if value > utf8.MaxRune {
				lexer.log.AddRangeError(&lexer.source,
					logger.Range{Loc: logger.Loc{Start: int32(start + hexStart)}, Len: int32(i - hexStart)},
					"Unicode escape sequence is out of range")
				panic(LexerPanic{})
			}
			isFirst = false
		}
		return value, i
	}

	// Fixed-length
	for j := 0; j < 4; j++ {
		if i >= len(text) || !isHexDigit(rune(text[i])) {
			lexer.end = start + i
			lexer.SyntaxError()
		}
		value = value*16 | hexValue(rune(text[i]))
		i++
	}

	// Combine a surrogate pair into a single code point
	if value >= 0xD800 && value <= 0xDBFF && i+6 <= len(text) && text[i] == '\\' && text[i+1] == 'u' {
		low := rune(0)
		for j := 0; j < 4; j++ {
			c := rune(text[i+2+j])
			if !isHexDigit(c) {
				return value, i
			}
			low = low*16 | hexValue(c)
		}
		if low >= 0xDC00 && low <= 0xDFFF {
			return (value-0xD800)<<10 | (low - 0xDC00) + 0x10000, i + 6
		}
	}
	return value, i
}

func (lexer *Lexer) RescanCloseBraceAsTemplateToken() {
	if lexer.Token != TCloseBrace {
		lexer.Expected(TCloseBrace)
	}

	lexer.rescanCloseBraceAsTemplateToken = true
	lexer.codePoint = '`'
	lexer.current = lexer.end
	lexer.end -= 1
	lexer.Next()
	lexer.rescanCloseBraceAsTemplateToken = false
}

func (lexer *Lexer) step() {
	codePoint, width := utf8.DecodeRuneInString(lexer.source.Contents[lexer.current:])

	// Use -1 to indicate the end of the file
	if width == 0 {
		codePoint = -1
	}

	lexer.codePoint = codePoint
	lexer.end = lexer.current
	lexer.current += width
}
