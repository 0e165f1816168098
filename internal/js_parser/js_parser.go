package js_parser

import (
	"fmt"

	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
)

// This parser does one pass over the source. Unlike a compiler's parser it
// doesn't bind symbols or lower syntax. The bundler only needs the shape of
// the tree and the source range of every top-level statement, since output is
// produced by editing the original text.

type parser struct {
	log                logger.Log
	source             logger.Source
	lexer              js_lexer.Lexer
	allowIn            bool
	fnOrArrowDataParse fnOrArrowDataParse
	templateRanges     []logger.Range
}

type awaitOrYield uint8

const (
	// The keyword is used as an identifier, not a special expression
	allowIdent awaitOrYield = iota

	// Declaring the identifier as a special expression
	allowExpr
)

// This is function-specific information used during parsing. It is saved and
// restored on the call stack around code that parses nested functions and
// arrow expressions.
type fnOrArrowDataParse struct {
	await      awaitOrYield
	yield      awaitOrYield
	isTopLevel bool
}

type parseStmtOpts struct {
	isModuleScope  bool
	isExport       bool
	isNameOptional bool // For "export default" pseudo-statements
}

func newParser(log logger.Log, source logger.Source, lexer js_lexer.Lexer) *parser {
	return &parser{
		log:     log,
		source:  source,
		lexer:   lexer,
		allowIn: true,
	}
}

// Parse returns the AST for an ES module. Syntax errors are written to the
// log, in which case "ok" is false.
func Parse(log logger.Log, source logger.Source) (result js_ast.AST, ok bool) {
	ok = true
	defer func() {
		r := recover()
		if _, isLexerPanic := r.(js_lexer.LexerPanic); isLexerPanic {
			ok = false
		} else if r != nil {
			panic(r)
		}
	}()

	p := newParser(log, source, js_lexer.NewLexer(log, source))

	// Consume a leading hashbang comment
	if p.lexer.Token == js_lexer.THashbang {
		result.Hashbang = p.lexer.Identifier
		p.lexer.Next()
	}

	// Allow top-level await
	p.fnOrArrowDataParse.await = allowExpr
	p.fnOrArrowDataParse.isTopLevel = true

	isDirectivePrologue := true
	for p.lexer.Token != js_lexer.TEndOfFile {
		loc := p.lexer.Loc()
		stmt := p.parseStmt(parseStmtOpts{isModuleScope: true})
		if _, ok := stmt.Data.(*js_ast.SEmpty); ok {
			continue
		}

		// Leading string literals are directives such as "use strict"
		if isDirectivePrologue {
			isDirectivePrologue = false
			if expr, ok := stmt.Data.(*js_ast.SExpr); ok {
				if str, ok := expr.Value.Data.(*js_ast.EString); ok && expr.Value.Loc == loc {
					stmt.Data = &js_ast.SDirective{Value: str.Value}
					isDirectivePrologue = true
				}
			}
		}

		result.Stmts = append(result.Stmts, stmt)
		result.Ranges = append(result.Ranges, logger.Range{Loc: loc, Len: p.lexer.PrevEnd() - loc.Start})
	}
	result.TemplateRanges = p.templateRanges
	return
}

func (p *parser) parseStmtsUpTo(end js_lexer.T, opts parseStmtOpts) []js_ast.Stmt {
	stmts := []js_ast.Stmt{}
	for p.lexer.Token != end {
		stmt := p.parseStmt(opts)
		if _, ok := stmt.Data.(*js_ast.SEmpty); ok {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}

func (p *parser) parseBlock() js_ast.Stmt {
	loc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
	p.lexer.Next()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SBlock{Stmts: stmts}}
}

func (p *parser) parseStmt(opts parseStmtOpts) js_ast.Stmt {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSemicolon:
		p.lexer.Next()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SEmpty{}}

	case js_lexer.TExport:
		if !opts.isModuleScope {
			p.lexer.Unexpected()
		}
		p.lexer.Next()

		switch p.lexer.Token {
		case js_lexer.TVar, js_lexer.TConst, js_lexer.TFunction, js_lexer.TClass:
			return p.parseStmt(parseStmtOpts{isExport: true})

		case js_lexer.TIdentifier:
			if p.lexer.IsContextualKeyword("let") || p.lexer.IsContextualKeyword("async") {
				return p.parseStmt(parseStmtOpts{isExport: true})
			}
			p.lexer.Unexpected()

		case js_lexer.TDefault:
			p.lexer.Next()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportDefault{Value: p.parseExportDefaultValue()}}

		case js_lexer.TAsterisk:
			p.lexer.Next()
			var alias *js_ast.ExportStarAlias
			if p.lexer.IsContextualKeyword("as") {
				p.lexer.Next()
				alias = &js_ast.ExportStarAlias{Loc: p.lexer.Loc(), Name: p.parseClauseAlias("export")}
				p.lexer.Next()
			}
			p.lexer.ExpectContextualKeyword("from")
			path, pathRange := p.parsePath()
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportStar{Alias: alias, Path: path, PathRange: pathRange}}

		case js_lexer.TOpenBrace:
			items := p.parseExportClause()
			if p.lexer.IsContextualKeyword("from") {
				p.lexer.Next()
				path, pathRange := p.parsePath()
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportFrom{Items: items, Path: path, PathRange: pathRange}}
			}
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExportClause{Items: items}}

		default:
			p.lexer.Unexpected()
		}

	case js_lexer.TFunction:
		return p.parseFnStmt(loc, opts, false /* isAsync */)

	case js_lexer.TClass:
		return p.parseClassStmt(loc, opts)

	case js_lexer.TVar:
		p.lexer.Next()
		decls := p.parseDecls()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TConst:
		p.lexer.Next()
		decls := p.parseDecls()
		p.requireInitializers(decls)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: decls, IsExport: opts.isExport}}

	case js_lexer.TImport:
		p.lexer.Next()

		// "import()" and "import.meta" are expressions
		if p.lexer.Token == js_lexer.TOpenParen || p.lexer.Token == js_lexer.TDot {
			expr := p.parseSuffix(p.parseImportExpr(loc, js_ast.LLowest), js_ast.LLowest)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}

		if !opts.isModuleScope {
			p.lexer.Unexpected()
		}
		return js_ast.Stmt{Loc: loc, Data: p.parseImportStmt()}

	case js_lexer.TOpenBrace:
		return p.parseBlock()

	case js_lexer.TIf:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseParenthesizedExpr()
		yes := p.parseStmt(parseStmtOpts{})
		var no *js_ast.Stmt
		if p.lexer.Token == js_lexer.TElse {
			p.lexer.Next()
			stmt := p.parseStmt(parseStmtOpts{})
			no = &stmt
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SIf{Test: test, Yes: yes, No: no}}

	case js_lexer.TDo:
		p.lexer.Next()
		body := p.parseStmt(parseStmtOpts{})
		p.lexer.Expect(js_lexer.TWhile)
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseParenthesizedExpr()

		// This is a weird corner case where automatic semicolon insertion applies
		// even without a newline present
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
		}
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDoWhile{Body: body, Test: test}}

	case js_lexer.TWhile:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseParenthesizedExpr()
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWhile{Test: test, Body: body}}

	case js_lexer.TWith:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		value := p.parseParenthesizedExpr()
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SWith{Value: value, Body: body}}

	case js_lexer.TSwitch:
		p.lexer.Next()
		p.lexer.Expect(js_lexer.TOpenParen)
		test := p.parseParenthesizedExpr()
		p.lexer.Expect(js_lexer.TOpenBrace)
		cases := []js_ast.Case{}
		foundDefault := false

		for p.lexer.Token != js_lexer.TCloseBrace {
			var value *js_ast.Expr
			if p.lexer.Token == js_lexer.TDefault {
				if foundDefault {
					p.log.AddRangeError(&p.source, p.lexer.Range(), "Multiple default clauses are not allowed")
					panic(js_lexer.LexerPanic{})
				}
				foundDefault = true
				p.lexer.Next()
			} else {
				p.lexer.Expect(js_lexer.TCase)
				expr := p.parseExpr(js_ast.LLowest)
				value = &expr
			}
			p.lexer.Expect(js_lexer.TColon)

			body := []js_ast.Stmt{}
			for p.lexer.Token != js_lexer.TCase && p.lexer.Token != js_lexer.TDefault && p.lexer.Token != js_lexer.TCloseBrace {
				body = append(body, p.parseStmt(parseStmtOpts{}))
			}
			cases = append(cases, js_ast.Case{Value: value, Body: body})
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SSwitch{Test: test, Cases: cases}}

	case js_lexer.TTry:
		p.lexer.Next()
		block := p.parseBlock()
		var catch *js_ast.Catch
		var finally *js_ast.Stmt

		if p.lexer.Token == js_lexer.TCatch {
			catchLoc := p.lexer.Loc()
			p.lexer.Next()
			var binding *js_ast.Binding

			// The catch binding is optional
			if p.lexer.Token == js_lexer.TOpenParen {
				p.lexer.Next()
				b := p.parseBinding()
				binding = &b
				p.lexer.Expect(js_lexer.TCloseParen)
			}

			catch = &js_ast.Catch{Loc: catchLoc, Binding: binding, Body: p.parseBlock()}
		}

		if p.lexer.Token == js_lexer.TFinally || catch == nil {
			p.lexer.Expect(js_lexer.TFinally)
			stmt := p.parseBlock()
			finally = &stmt
		}

		return js_ast.Stmt{Loc: loc, Data: &js_ast.STry{Block: block, Catch: catch, Finally: finally}}

	case js_lexer.TFor:
		return p.parseForStmt(loc)

	case js_lexer.TReturn:
		if p.fnOrArrowDataParse.isTopLevel {
			p.log.AddRangeError(&p.source, p.lexer.Range(), "A return statement cannot be used here")
		}
		p.lexer.Next()
		var value *js_ast.Expr
		if p.lexer.Token != js_lexer.TSemicolon &&
			!p.lexer.HasNewlineBefore &&
			p.lexer.Token != js_lexer.TCloseBrace &&
			p.lexer.Token != js_lexer.TEndOfFile {
			expr := p.parseExpr(js_ast.LLowest)
			value = &expr
		}
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SReturn{Value: value}}

	case js_lexer.TThrow:
		p.lexer.Next()
		if p.lexer.HasNewlineBefore {
			p.log.AddError(&p.source, logger.Loc{Start: loc.Start + 5}, "Unexpected newline after \"throw\"")
			panic(js_lexer.LexerPanic{})
		}
		expr := p.parseExpr(js_ast.LLowest)
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SThrow{Value: expr}}

	case js_lexer.TBreak:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SBreak{Label: name}}

	case js_lexer.TContinue:
		p.lexer.Next()
		name := p.parseLabelName()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SContinue{Label: name}}

	case js_lexer.TDebugger:
		p.lexer.Next()
		p.lexer.ExpectOrInsertSemicolon()
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SDebugger{}}

	case js_lexer.TIdentifier:
		// "let" is only a keyword when it starts a declaration
		if p.lexer.IsContextualKeyword("let") {
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
				decls := p.parseDecls()
				p.lexer.ExpectOrInsertSemicolon()
				return js_ast.Stmt{Loc: loc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: decls, IsExport: opts.isExport}}
			}
			expr := p.parseSuffix(js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "let"}}, js_ast.LLowest)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}

		if p.lexer.IsContextualKeyword("async") {
			asyncRange := p.lexer.Range()
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
				return p.parseFnStmt(loc, opts, true /* isAsync */)
			}
			if opts.isExport {
				p.lexer.Expected(js_lexer.TFunction)
			}
			expr := p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LLowest), js_ast.LLowest)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}
	}

	// Parse either an expression statement or a labeled statement
	isIdentifier := p.lexer.Token == js_lexer.TIdentifier
	name := p.lexer.Identifier
	expr := p.parseExpr(js_ast.LLowest)

	if isIdentifier && p.lexer.Token == js_lexer.TColon {
		if id, ok := expr.Data.(*js_ast.EIdentifier); ok && id.Name == name && expr.Loc == loc {
			p.lexer.Next()
			stmt := p.parseStmt(parseStmtOpts{})
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SLabel{Name: js_ast.LocRef{Loc: loc, Name: name}, Stmt: stmt}}
		}
	}

	p.lexer.ExpectOrInsertSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
}

// Parses an expression up to and including the closing parenthesis
func (p *parser) parseParenthesizedExpr() js_ast.Expr {
	oldAllowIn := p.allowIn
	p.allowIn = true
	expr := p.parseExpr(js_ast.LLowest)
	p.allowIn = oldAllowIn
	p.lexer.Expect(js_lexer.TCloseParen)
	return expr
}

func (p *parser) parseLabelName() *js_ast.LocRef {
	if p.lexer.Token != js_lexer.TIdentifier || p.lexer.HasNewlineBefore {
		return nil
	}
	name := &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.lexer.Next()
	return name
}

func (p *parser) parseForStmt(loc logger.Loc) js_ast.Stmt {
	p.lexer.Next()

	// "for await (let x of y) {}"
	isForAwait := p.lexer.IsContextualKeyword("await")
	if isForAwait {
		if p.fnOrArrowDataParse.await != allowExpr {
			p.log.AddRangeError(&p.source, p.lexer.Range(), "Cannot use \"await\" outside an async function")
			panic(js_lexer.LexerPanic{})
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TOpenParen)

	var init *js_ast.Stmt
	var test *js_ast.Expr
	var update *js_ast.Expr

	// "in" expressions aren't allowed here
	p.allowIn = false

	initLoc := p.lexer.Loc()
	isLocal := false
	switch p.lexer.Token {
	case js_lexer.TVar:
		p.lexer.Next()
		init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalVar, Decls: p.parseDecls()}}
		isLocal = true

	case js_lexer.TConst:
		p.lexer.Next()
		init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalConst, Decls: p.parseDecls()}}
		isLocal = true

	case js_lexer.TSemicolon:

	default:
		var expr js_ast.Expr
		if p.lexer.IsContextualKeyword("let") {
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TIdentifier, js_lexer.TOpenBracket, js_lexer.TOpenBrace:
				init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SLocal{Kind: js_ast.LocalLet, Decls: p.parseDecls()}}
				isLocal = true
			default:
				expr = p.parseSuffix(js_ast.Expr{Loc: initLoc, Data: &js_ast.EIdentifier{Name: "let"}}, js_ast.LLowest)
			}
		} else {
			expr = p.parseExpr(js_ast.LLowest)
		}
		if !isLocal {
			init = &js_ast.Stmt{Loc: initLoc, Data: &js_ast.SExpr{Value: expr}}
		}
	}

	p.allowIn = true

	// Detect for-of loops
	if p.lexer.IsContextualKeyword("of") || isForAwait {
		if init == nil {
			p.lexer.ExpectedString("\"of\"")
		}
		p.forbidInitializers(init, "of")
		p.lexer.ExpectContextualKeyword("of")
		value := p.parseExpr(js_ast.LComma)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForOf{IsAwait: isForAwait, Init: *init, Value: value, Body: body}}
	}

	// Detect for-in loops
	if p.lexer.Token == js_lexer.TIn {
		if init == nil {
			p.lexer.Unexpected()
		}
		p.forbidInitializers(init, "in")
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		p.lexer.Expect(js_lexer.TCloseParen)
		body := p.parseStmt(parseStmtOpts{})
		return js_ast.Stmt{Loc: loc, Data: &js_ast.SForIn{Init: *init, Value: value, Body: body}}
	}

	// Only require "const" statement initializers when we know we're a normal for loop
	if init != nil {
		if local, ok := init.Data.(*js_ast.SLocal); ok && local.Kind == js_ast.LocalConst {
			p.requireInitializers(local.Decls)
		}
	}

	p.lexer.Expect(js_lexer.TSemicolon)
	if p.lexer.Token != js_lexer.TSemicolon {
		expr := p.parseExpr(js_ast.LLowest)
		test = &expr
	}

	p.lexer.Expect(js_lexer.TSemicolon)
	if p.lexer.Token != js_lexer.TCloseParen {
		expr := p.parseExpr(js_ast.LLowest)
		update = &expr
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	body := p.parseStmt(parseStmtOpts{})
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFor{Init: init, Test: test, Update: update, Body: body}}
}

func (p *parser) forbidInitializers(init *js_ast.Stmt, loopType string) {
	if local, ok := init.Data.(*js_ast.SLocal); ok {
		if len(local.Decls) > 1 {
			p.log.AddError(&p.source, init.Loc, fmt.Sprintf("for-%s loops must have a single declaration", loopType))
			panic(js_lexer.LexerPanic{})
		}
		if len(local.Decls) == 1 && local.Decls[0].Value != nil {
			p.log.AddError(&p.source, init.Loc, fmt.Sprintf("for-%s loop variables cannot have an initializer", loopType))
			panic(js_lexer.LexerPanic{})
		}
	}
}

func (p *parser) requireInitializers(decls []js_ast.Decl) {
	for _, d := range decls {
		if d.Value == nil {
			if id, ok := d.Binding.Data.(*js_ast.BIdentifier); ok {
				r := js_lexer.RangeOfIdentifier(p.source, d.Binding.Loc)
				p.log.AddRangeError(&p.source, r, fmt.Sprintf("The constant %q must be initialized", id.Name))
			} else {
				p.log.AddError(&p.source, d.Binding.Loc, "This constant must be initialized")
			}
			panic(js_lexer.LexerPanic{})
		}
	}
}

func (p *parser) parseDecls() []js_ast.Decl {
	decls := []js_ast.Decl{}

	for {
		decl := js_ast.Decl{Binding: p.parseBinding()}
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			decl.Value = &value
		}
		decls = append(decls, decl)

		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	return decls
}

func (p *parser) parseBinding() js_ast.Binding {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		p.checkBindingName(name)
		p.lexer.Next()
		return js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.ArrayBinding{}
		hasSpread := false

		// "in" expressions are allowed
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			if p.lexer.Token == js_lexer.TComma {
				items = append(items, js_ast.ArrayBinding{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BMissing{}}})
			} else {
				if p.lexer.Token == js_lexer.TDotDotDot {
					p.lexer.Next()
					hasSpread = true
				}

				item := js_ast.ArrayBinding{Binding: p.parseBinding()}
				if !hasSpread && p.lexer.Token == js_lexer.TEquals {
					p.lexer.Next()
					value := p.parseExpr(js_ast.LComma)
					item.DefaultValue = &value
				}
				items = append(items, item)

				// The spread must be the last item
				if hasSpread {
					break
				}
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.allowIn = oldAllowIn
		p.lexer.Expect(js_lexer.TCloseBracket)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BArray{Items: items, HasSpread: hasSpread}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.PropertyBinding{}

		// "in" expressions are allowed
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			property := p.parsePropertyBinding()
			properties = append(properties, property)

			// The spread must be the last item
			if property.IsSpread || p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.allowIn = oldAllowIn
		p.lexer.Expect(js_lexer.TCloseBrace)
		return js_ast.Binding{Loc: loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.lexer.Expect(js_lexer.TIdentifier)
	return js_ast.Binding{}
}

func (p *parser) parsePropertyBinding() js_ast.PropertyBinding {
	if p.lexer.Token == js_lexer.TDotDotDot {
		p.lexer.Next()
		loc := p.lexer.Loc()
		name := p.lexer.Identifier
		p.lexer.Expect(js_lexer.TIdentifier)
		p.checkBindingName(name)
		return js_ast.PropertyBinding{
			IsSpread: true,
			Value:    js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}},
		}
	}

	key, isComputed, isIdentifier := p.parsePropertyKey()
	property := js_ast.PropertyBinding{Key: key, IsComputed: isComputed}

	if isIdentifier && p.lexer.Token != js_lexer.TColon {
		// "{a}" is shorthand for "{a: a}"
		name := key.Data.(*js_ast.EString).Value
		p.checkBindingName(name)
		property.Value = js_ast.Binding{Loc: key.Loc, Data: &js_ast.BIdentifier{Name: name}}
		property.WasShorthand = true
	} else {
		p.lexer.Expect(js_lexer.TColon)
		property.Value = p.parseBinding()
	}

	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		property.DefaultValue = &value
	}

	return property
}

func (p *parser) checkBindingName(name string) {
	if js_lexer.StrictModeReservedWords[name] && name != "await" && name != "yield" && name != "let" {
		p.log.AddRangeError(&p.source, p.lexer.Range(), fmt.Sprintf("%q is a reserved word and cannot be used in strict mode", name))
		panic(js_lexer.LexerPanic{})
	}
}

func (p *parser) parseFnStmt(loc logger.Loc, opts parseStmtOpts, isAsync bool) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TFunction)
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}

	var name *js_ast.LocRef
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkBindingName(name.Name)
		p.lexer.Next()
	} else if !opts.isNameOptional {
		p.lexer.Expect(js_lexer.TIdentifier)
	}

	fn := p.parseFn(name, fnOrArrowDataParse{
		await: awaitOrYieldFor(isAsync),
		yield: awaitOrYieldFor(isGenerator),
	})
	fn.IsAsync = isAsync
	fn.IsGenerator = isGenerator
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SFunction{Fn: fn, IsExport: opts.isExport}}
}

func awaitOrYieldFor(allowed bool) awaitOrYield {
	if allowed {
		return allowExpr
	}
	return allowIdent
}

func (p *parser) parseFn(name *js_ast.LocRef, data fnOrArrowDataParse) js_ast.Fn {
	// The arguments are parsed with the function's "await" and "yield" rules
	oldFnOrArrowData := p.fnOrArrowDataParse
	p.fnOrArrowDataParse = data

	p.lexer.Expect(js_lexer.TOpenParen)
	args := []js_ast.Arg{}
	hasRestArg := false

	// "in" expressions are allowed in default values
	oldAllowIn := p.allowIn
	p.allowIn = true

	for p.lexer.Token != js_lexer.TCloseParen {
		if p.lexer.Token == js_lexer.TDotDotDot {
			p.lexer.Next()
			hasRestArg = true
		}

		arg := js_ast.Arg{Binding: p.parseBinding()}
		if !hasRestArg && p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			value := p.parseExpr(js_ast.LComma)
			arg.Default = &value
		}
		args = append(args, arg)

		// The rest argument must be the last argument
		if hasRestArg || p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn
	p.fnOrArrowDataParse = oldFnOrArrowData

	return js_ast.Fn{
		Name:       name,
		Args:       args,
		Body:       p.parseFnBody(data),
		HasRestArg: hasRestArg,
	}
}

func (p *parser) parseFnBody(data fnOrArrowDataParse) js_ast.FnBody {
	oldFnOrArrowData := p.fnOrArrowDataParse
	oldAllowIn := p.allowIn
	p.fnOrArrowDataParse = data
	p.allowIn = true

	loc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	stmts := p.parseStmtsUpTo(js_lexer.TCloseBrace, parseStmtOpts{})
	p.lexer.Next()

	p.allowIn = oldAllowIn
	p.fnOrArrowDataParse = oldFnOrArrowData
	return js_ast.FnBody{Loc: loc, Stmts: stmts}
}

func (p *parser) parseClassStmt(loc logger.Loc, opts parseStmtOpts) js_ast.Stmt {
	p.lexer.Expect(js_lexer.TClass)

	var name *js_ast.LocRef
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkBindingName(name.Name)
		p.lexer.Next()
	} else if !opts.isNameOptional {
		p.lexer.Expect(js_lexer.TIdentifier)
	}

	class := p.parseClass(name)
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SClass{Class: class, IsExport: opts.isExport}}
}

func (p *parser) parseClass(name *js_ast.LocRef) js_ast.Class {
	var extends *js_ast.Expr

	if p.lexer.Token == js_lexer.TExtends {
		p.lexer.Next()
		expr := p.parseExpr(js_ast.LNew)
		extends = &expr
	}

	bodyLoc := p.lexer.Loc()
	p.lexer.Expect(js_lexer.TOpenBrace)
	properties := []js_ast.Property{}

	// Class bodies are always strict mode code with "in" allowed
	oldAllowIn := p.allowIn
	p.allowIn = true

	for p.lexer.Token != js_lexer.TCloseBrace {
		if p.lexer.Token == js_lexer.TSemicolon {
			p.lexer.Next()
			continue
		}
		properties = append(properties, p.parseProperty(true /* isClass */))
	}

	p.allowIn = oldAllowIn
	p.lexer.Expect(js_lexer.TCloseBrace)
	return js_ast.Class{Name: name, Extends: extends, BodyLoc: bodyLoc, Properties: properties}
}

func (p *parser) parseExportDefaultValue() js_ast.Stmt {
	loc := p.lexer.Loc()
	opts := parseStmtOpts{isNameOptional: true}

	switch p.lexer.Token {
	case js_lexer.TFunction:
		return p.parseFnStmt(loc, opts, false /* isAsync */)

	case js_lexer.TClass:
		return p.parseClassStmt(loc, opts)

	case js_lexer.TIdentifier:
		if p.lexer.IsContextualKeyword("async") {
			asyncRange := p.lexer.Range()
			p.lexer.Next()
			if p.lexer.Token == js_lexer.TFunction && !p.lexer.HasNewlineBefore {
				return p.parseFnStmt(loc, opts, true /* isAsync */)
			}
			expr := p.parseSuffix(p.parseAsyncPrefixExpr(asyncRange, js_ast.LComma), js_ast.LComma)
			p.lexer.ExpectOrInsertSemicolon()
			return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
		}
	}

	expr := p.parseExpr(js_ast.LComma)
	p.lexer.ExpectOrInsertSemicolon()
	return js_ast.Stmt{Loc: loc, Data: &js_ast.SExpr{Value: expr}}
}

func (p *parser) parsePath() (string, logger.Range) {
	r := p.lexer.Range()
	path := p.lexer.StringLiteral
	if p.lexer.Token == js_lexer.TNoSubstitutionTemplateLiteral {
		p.lexer.Next()
	} else {
		p.lexer.Expect(js_lexer.TStringLiteral)
	}
	return path, r
}

func (p *parser) parseImportStmt() js_ast.S {
	stmt := &js_ast.SImport{}

	switch p.lexer.Token {
	case js_lexer.TStringLiteral, js_lexer.TNoSubstitutionTemplateLiteral:
		// "import 'path'"
		stmt.Path, stmt.PathRange = p.parsePath()
		p.lexer.ExpectOrInsertSemicolon()
		return stmt

	case js_lexer.TAsterisk:
		// "import * as ns from 'path'"
		stmt.StarName = p.parseStarImport()

	case js_lexer.TOpenBrace:
		// "import {item1, item2} from 'path'"
		items := p.parseImportClause()
		stmt.Items = &items

	case js_lexer.TIdentifier:
		// "import defaultItem from 'path'"
		stmt.DefaultName = &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.checkBindingName(stmt.DefaultName.Name)
		p.lexer.Next()

		if p.lexer.Token == js_lexer.TComma {
			p.lexer.Next()
			switch p.lexer.Token {
			case js_lexer.TAsterisk:
				// "import defaultItem, * as ns from 'path'"
				stmt.StarName = p.parseStarImport()

			case js_lexer.TOpenBrace:
				// "import defaultItem, {item1, item2} from 'path'"
				items := p.parseImportClause()
				stmt.Items = &items

			default:
				p.lexer.Unexpected()
			}
		}

	default:
		p.lexer.Unexpected()
	}

	p.lexer.ExpectContextualKeyword("from")
	stmt.Path, stmt.PathRange = p.parsePath()
	p.lexer.ExpectOrInsertSemicolon()
	return stmt
}

func (p *parser) parseStarImport() *js_ast.LocRef {
	p.lexer.Next()
	p.lexer.ExpectContextualKeyword("as")
	name := &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
	p.lexer.Expect(js_lexer.TIdentifier)
	p.checkBindingName(name.Name)
	return name
}

// Import and export aliases may be identifiers, keywords, or strings
func (p *parser) parseClauseAlias(kind string) string {
	if p.lexer.Token == js_lexer.TStringLiteral {
		return p.lexer.StringLiteral
	}
	if !p.lexer.IsIdentifierOrKeyword() {
		p.lexer.ExpectedString(fmt.Sprintf("%s alias", kind))
	}
	return p.lexer.Identifier
}

func (p *parser) parseImportClause() []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		isIdentifier := p.lexer.Token == js_lexer.TIdentifier
		aliasLoc := p.lexer.Loc()
		alias := p.parseClauseAlias("import")
		name := js_ast.LocRef{Loc: aliasLoc, Name: alias}
		p.lexer.Next()

		// "import { type as xyz } from 'path'"
		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			name = js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
			p.lexer.Expect(js_lexer.TIdentifier)
		} else if !isIdentifier {
			// An import where the name is a keyword must have an alias
			p.lexer.ExpectedString("\"as\"")
		}
		p.checkBindingName(name.Name)

		items = append(items, js_ast.ClauseItem{Alias: alias, AliasLoc: aliasLoc, Name: name})
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return items
}

func (p *parser) parseExportClause() []js_ast.ClauseItem {
	items := []js_ast.ClauseItem{}
	p.lexer.Expect(js_lexer.TOpenBrace)

	for p.lexer.Token != js_lexer.TCloseBrace {
		nameLoc := p.lexer.Loc()
		name := p.parseClauseAlias("export")
		alias := name
		aliasLoc := nameLoc
		p.lexer.Next()

		if p.lexer.IsContextualKeyword("as") {
			p.lexer.Next()
			aliasLoc = p.lexer.Loc()
			alias = p.parseClauseAlias("export")
			p.lexer.Next()
		}

		items = append(items, js_ast.ClauseItem{Alias: alias, AliasLoc: aliasLoc, Name: js_ast.LocRef{Loc: nameLoc, Name: name}})
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseBrace)
	return items
}
