package js_parser

import (
	"github.com/minroll/minroll/internal/js_ast"
	"github.com/minroll/minroll/internal/js_lexer"
	"github.com/minroll/minroll/internal/logger"
)

func (p *parser) parseExpr(level js_ast.L) js_ast.Expr {
	return p.parseSuffix(p.parsePrefix(level), level)
}

func (p *parser) parsePrefix(level js_ast.L) js_ast.Expr {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TSuper:
		p.lexer.Next()
		switch p.lexer.Token {
		case js_lexer.TOpenParen, js_lexer.TDot, js_lexer.TOpenBracket:
		default:
			p.lexer.Unexpected()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ESuper{}}

	case js_lexer.TOpenParen:
		return p.parseParenExpr(loc, level, false /* isAsync */)

	case js_lexer.TFalse:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: false}}

	case js_lexer.TTrue:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBoolean{Value: true}}

	case js_lexer.TNull:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENull{}}

	case js_lexer.TThis:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EThis{}}

	case js_lexer.TIdentifier:
		name := p.lexer.Identifier
		nameRange := p.lexer.Range()
		raw := p.lexer.Raw()
		p.lexer.Next()

		// Handle async and await expressions
		switch raw {
		case "async":
			return p.parseAsyncPrefixExpr(nameRange, level)

		case "await":
			if p.fnOrArrowDataParse.await == allowExpr {
				if level > js_ast.LPrefix {
					p.log.AddRangeError(&p.source, nameRange, "Cannot use an \"await\" expression here")
				}
				value := p.parseExpr(js_ast.LPrefix)
				return js_ast.Expr{Loc: loc, Data: &js_ast.EAwait{Value: value}}
			}

		case "yield":
			if p.fnOrArrowDataParse.yield == allowExpr {
				if level > js_ast.LAssign {
					p.log.AddRangeError(&p.source, nameRange, "Cannot use a \"yield\" expression here")
				}
				return p.parseYieldExpr(loc)
			}
		}

		// Handle the start of an arrow function
		if p.lexer.Token == js_lexer.TEqualsGreaterThan && level <= js_ast.LAssign && !p.lexer.HasNewlineBefore {
			p.checkBindingName(name)
			arg := js_ast.Arg{Binding: js_ast.Binding{Loc: loc, Data: &js_ast.BIdentifier{Name: name}}}
			arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{})
			return js_ast.Expr{Loc: loc, Data: arrow}
		}

		return js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: name}}

	case js_lexer.TStringLiteral:
		value := p.lexer.StringLiteral
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: value}}

	case js_lexer.TNoSubstitutionTemplateLiteral, js_lexer.TTemplateHead:
		return p.parseTemplate(loc, nil)

	case js_lexer.TNumericLiteral:
		value := p.lexer.Number
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: value}}

	case js_lexer.TBigIntegerLiteral:
		value := p.lexer.Identifier
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: value}}

	case js_lexer.TSlash, js_lexer.TSlashEquals:
		p.lexer.ScanRegExp()
		value := p.lexer.Raw()
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ERegExp{Value: value}}

	case js_lexer.TVoid:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpVoid, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TTypeof:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpTypeof, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TDelete:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpDelete, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPos, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNeg, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TTilde:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpCpl, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TExclamation:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpNot, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TMinusMinus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreDec, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TPlusPlus:
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPreInc, Value: p.parseExpr(js_ast.LPrefix)}}

	case js_lexer.TFunction:
		return p.parseFnExpr(loc, false /* isAsync */)

	case js_lexer.TClass:
		p.lexer.Next()
		var name *js_ast.LocRef
		if p.lexer.Token == js_lexer.TIdentifier {
			name = &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
			p.lexer.Next()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.EClass{Class: p.parseClass(name)}}

	case js_lexer.TNew:
		p.lexer.Next()

		// Special-case the weird "new.target" expression here
		if p.lexer.Token == js_lexer.TDot {
			p.lexer.Next()
			if p.lexer.Token != js_lexer.TIdentifier || p.lexer.Raw() != "target" {
				p.lexer.Unexpected()
			}
			p.lexer.Next()
			return js_ast.Expr{Loc: loc, Data: &js_ast.ENewTarget{}}
		}

		target := p.parseExpr(js_ast.LMember)
		args := []js_ast.Expr{}
		if p.lexer.Token == js_lexer.TOpenParen {
			args = p.parseCallArgs()
		}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ENew{Target: target, Args: args}}

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		items := []js_ast.Expr{}

		// Allow "in" inside arrays
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBracket {
			switch p.lexer.Token {
			case js_lexer.TComma:
				items = append(items, js_ast.Expr{Loc: p.lexer.Loc(), Data: &js_ast.EMissing{}})

			case js_lexer.TDotDotDot:
				dotsLoc := p.lexer.Loc()
				p.lexer.Next()
				item := p.parseExpr(js_ast.LComma)
				items = append(items, js_ast.Expr{Loc: dotsLoc, Data: &js_ast.ESpread{Value: item}})

			default:
				items = append(items, p.parseExpr(js_ast.LComma))
			}

			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBracket)
		p.allowIn = oldAllowIn
		return js_ast.Expr{Loc: loc, Data: &js_ast.EArray{Items: items}}

	case js_lexer.TOpenBrace:
		p.lexer.Next()
		properties := []js_ast.Property{}

		// Allow "in" inside object literals
		oldAllowIn := p.allowIn
		p.allowIn = true

		for p.lexer.Token != js_lexer.TCloseBrace {
			properties = append(properties, p.parseProperty(false /* isClass */))
			if p.lexer.Token != js_lexer.TComma {
				break
			}
			p.lexer.Next()
		}

		p.lexer.Expect(js_lexer.TCloseBrace)
		p.allowIn = oldAllowIn
		return js_ast.Expr{Loc: loc, Data: &js_ast.EObject{Properties: properties}}

	case js_lexer.TImport:
		p.lexer.Next()
		return p.parseImportExpr(loc, level)
	}

	p.lexer.Unexpected()
	return js_ast.Expr{}
}

// This assumes the "import" keyword has already been consumed
func (p *parser) parseImportExpr(loc logger.Loc, level js_ast.L) js_ast.Expr {
	// Parse an "import.meta" expression
	if p.lexer.Token == js_lexer.TDot {
		p.lexer.Next()
		if !p.lexer.IsContextualKeyword("meta") {
			p.lexer.ExpectedString("\"meta\"")
		}
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.EImportMeta{}}
	}

	if level > js_ast.LCall {
		p.log.AddRangeError(&p.source, logger.Range{Loc: loc, Len: 6}, "Cannot use an \"import\" expression here without parentheses")
	}

	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	p.lexer.Expect(js_lexer.TOpenParen)
	value := p.parseExpr(js_ast.LComma)
	if p.lexer.Token == js_lexer.TComma {
		// Import attributes are parsed but not kept
		p.lexer.Next()
		if p.lexer.Token != js_lexer.TCloseParen {
			p.parseExpr(js_ast.LComma)
			if p.lexer.Token == js_lexer.TComma {
				p.lexer.Next()
			}
		}
	}
	p.lexer.Expect(js_lexer.TCloseParen)

	p.allowIn = oldAllowIn
	return js_ast.Expr{Loc: loc, Data: &js_ast.EImportCall{Expr: value}}
}

// This assumes the "async" keyword has already been consumed
func (p *parser) parseAsyncPrefixExpr(asyncRange logger.Range, level js_ast.L) js_ast.Expr {
	// "async function() {}"
	if !p.lexer.HasNewlineBefore && p.lexer.Token == js_lexer.TFunction {
		return p.parseFnExpr(asyncRange.Loc, true /* isAsync */)
	}

	// Check the precedence level to avoid parsing an arrow function in
	// "new async () => {}". This also avoids parsing "new async()" as
	// "new (async())()" instead.
	if !p.lexer.HasNewlineBefore && level < js_ast.LMember {
		switch p.lexer.Token {
		// "async => {}"
		case js_lexer.TEqualsGreaterThan:
			if level <= js_ast.LAssign {
				arg := js_ast.Arg{Binding: js_ast.Binding{Loc: asyncRange.Loc, Data: &js_ast.BIdentifier{Name: "async"}}}
				arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{})
				return js_ast.Expr{Loc: asyncRange.Loc, Data: arrow}
			}

		// "async x => {}"
		case js_lexer.TIdentifier:
			if level <= js_ast.LAssign {
				name := p.lexer.Identifier
				arg := js_ast.Arg{Binding: js_ast.Binding{Loc: p.lexer.Loc(), Data: &js_ast.BIdentifier{Name: name}}}
				p.lexer.Next()
				if p.lexer.Token != js_lexer.TEqualsGreaterThan {
					p.lexer.Expected(js_lexer.TEqualsGreaterThan)
				}
				arrow := p.parseArrowBody([]js_ast.Arg{arg}, fnOrArrowDataParse{await: allowExpr})
				arrow.IsAsync = true
				return js_ast.Expr{Loc: asyncRange.Loc, Data: arrow}
			}

		// "async()"
		// "async () => {}"
		case js_lexer.TOpenParen:
			return p.parseParenExpr(asyncRange.Loc, level, true /* isAsync */)
		}
	}

	// "async"
	return js_ast.Expr{Loc: asyncRange.Loc, Data: &js_ast.EIdentifier{Name: "async"}}
}

func (p *parser) parseYieldExpr(loc logger.Loc) js_ast.Expr {
	// Parse a yield-from expression, which yields from an iterator
	isStar := p.lexer.Token == js_lexer.TAsterisk
	if isStar && !p.lexer.HasNewlineBefore {
		p.lexer.Next()
	} else {
		isStar = false
	}

	var value *js_ast.Expr

	// The yield expression only has a value in certain cases
	if isStar {
		expr := p.parseExpr(js_ast.LYield)
		value = &expr
	} else {
		switch p.lexer.Token {
		case js_lexer.TCloseBrace, js_lexer.TCloseBracket, js_lexer.TCloseParen,
			js_lexer.TColon, js_lexer.TComma, js_lexer.TSemicolon:

		default:
			if !p.lexer.HasNewlineBefore {
				expr := p.parseExpr(js_ast.LYield)
				value = &expr
			}
		}
	}

	return js_ast.Expr{Loc: loc, Data: &js_ast.EYield{Value: value, IsStar: isStar}}
}

func (p *parser) parseFnExpr(loc logger.Loc, isAsync bool) js_ast.Expr {
	p.lexer.Expect(js_lexer.TFunction)
	isGenerator := p.lexer.Token == js_lexer.TAsterisk
	if isGenerator {
		p.lexer.Next()
	}

	// The name is optional
	var name *js_ast.LocRef
	if p.lexer.Token == js_lexer.TIdentifier {
		name = &js_ast.LocRef{Loc: p.lexer.Loc(), Name: p.lexer.Identifier}
		p.lexer.Next()
	}

	fn := p.parseFn(name, fnOrArrowDataParse{
		await: awaitOrYieldFor(isAsync),
		yield: awaitOrYieldFor(isGenerator),
	})
	fn.IsAsync = isAsync
	fn.IsGenerator = isGenerator
	return js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
}

// This assumes that the open parenthesis hasn't been consumed yet. It may turn
// out to be the argument list of an arrow function, a parenthesized
// expression, or the arguments of a call to a function named "async".
func (p *parser) parseParenExpr(loc logger.Loc, level js_ast.L, isAsync bool) js_ast.Expr {
	items := []js_ast.Expr{}
	spreadRange := logger.Range{}
	commaAfterSpread := false

	p.lexer.Expect(js_lexer.TOpenParen)

	// Allow "in" inside parentheses
	oldAllowIn := p.allowIn
	p.allowIn = true

	// Scan over the comma-separated arguments or expressions
	for p.lexer.Token != js_lexer.TCloseParen {
		itemLoc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot

		if isSpread {
			spreadRange = p.lexer.Range()
			p.lexer.Next()
		}

		item := p.parseExpr(js_ast.LComma)
		if isSpread {
			item = js_ast.Expr{Loc: itemLoc, Data: &js_ast.ESpread{Value: item}}
		}

		items = append(items, item)
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		if isSpread {
			commaAfterSpread = true
		}
		p.lexer.Next()
	}

	// The parenthetical construct must end with a close parenthesis
	p.lexer.Expect(js_lexer.TCloseParen)

	// Restore "in" operator status before we parse the arrow function body
	p.allowIn = oldAllowIn

	// Are these arguments to an arrow function?
	if p.lexer.Token == js_lexer.TEqualsGreaterThan && !p.lexer.HasNewlineBefore {
		// Arrow functions are not allowed inside certain expressions
		if level > js_ast.LAssign {
			p.lexer.Unexpected()
		}
		if commaAfterSpread {
			p.log.AddRangeError(&p.source, spreadRange, "Unexpected \",\" after rest pattern")
			panic(js_lexer.LexerPanic{})
		}

		args := make([]js_ast.Arg, 0, len(items))
		hasRestArg := false
		for _, item := range items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				item = spread.Value
				hasRestArg = true
			}
			binding, initializer := p.convertExprToBindingAndInitializer(item)
			args = append(args, js_ast.Arg{Binding: binding, Default: initializer})
		}

		arrow := p.parseArrowBody(args, fnOrArrowDataParse{await: awaitOrYieldFor(isAsync)})
		arrow.IsAsync = isAsync
		arrow.HasRestArg = hasRestArg
		return js_ast.Expr{Loc: loc, Data: arrow}
	}

	// Are these arguments for a call to a function named "async"?
	if isAsync {
		async := js_ast.Expr{Loc: loc, Data: &js_ast.EIdentifier{Name: "async"}}
		return js_ast.Expr{Loc: loc, Data: &js_ast.ECall{Target: async, Args: items}}
	}

	// Is this a chain of expressions and comma operators?
	if len(items) > 0 {
		if spreadRange.Len > 0 {
			p.log.AddRangeError(&p.source, spreadRange, "Unexpected \"...\"")
			panic(js_lexer.LexerPanic{})
		}
		value := items[0]
		for _, item := range items[1:] {
			value = js_ast.Expr{Loc: value.Loc, Data: &js_ast.EBinary{Op: js_ast.BinOpComma, Left: value, Right: item}}
		}
		return value
	}

	// Indicate that we expected an arrow function
	p.lexer.Expected(js_lexer.TEqualsGreaterThan)
	return js_ast.Expr{}
}

func (p *parser) convertExprToBindingAndInitializer(expr js_ast.Expr) (js_ast.Binding, *js_ast.Expr) {
	var initializer *js_ast.Expr
	if assign, ok := expr.Data.(*js_ast.EBinary); ok && assign.Op == js_ast.BinOpAssign {
		initializer = &assign.Right
		expr = assign.Left
	}
	return p.convertExprToBinding(expr), initializer
}

func (p *parser) convertExprToBinding(expr js_ast.Expr) js_ast.Binding {
	switch e := expr.Data.(type) {
	case *js_ast.EMissing:
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BMissing{}}

	case *js_ast.EIdentifier:
		p.checkBindingName(e.Name)
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BIdentifier{Name: e.Name}}

	case *js_ast.EArray:
		items := []js_ast.ArrayBinding{}
		isSpread := false
		for _, item := range e.Items {
			if spread, ok := item.Data.(*js_ast.ESpread); ok {
				isSpread = true
				item = spread.Value
			}
			binding, initializer := p.convertExprToBindingAndInitializer(item)
			items = append(items, js_ast.ArrayBinding{Binding: binding, DefaultValue: initializer})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BArray{Items: items, HasSpread: isSpread}}

	case *js_ast.EObject:
		properties := []js_ast.PropertyBinding{}
		for _, item := range e.Properties {
			if item.IsMethod || item.Kind == js_ast.PropertyGet || item.Kind == js_ast.PropertySet {
				p.log.AddRangeError(&p.source, js_lexer.RangeOfIdentifier(p.source, item.Key.Loc), "Invalid binding pattern")
				panic(js_lexer.LexerPanic{})
			}
			binding, initializer := p.convertExprToBindingAndInitializer(*item.Value)
			if initializer == nil {
				initializer = item.Initializer
			}
			properties = append(properties, js_ast.PropertyBinding{
				IsSpread:     item.Kind == js_ast.PropertySpread,
				IsComputed:   item.IsComputed,
				WasShorthand: item.WasShorthand,
				Key:          item.Key,
				Value:        binding,
				DefaultValue: initializer,
			})
		}
		return js_ast.Binding{Loc: expr.Loc, Data: &js_ast.BObject{Properties: properties}}
	}

	p.log.AddError(&p.source, expr.Loc, "Invalid binding pattern")
	panic(js_lexer.LexerPanic{})
}

// This assumes the "=>" token hasn't been consumed yet
func (p *parser) parseArrowBody(args []js_ast.Arg, data fnOrArrowDataParse) *js_ast.EArrow {
	p.lexer.Expect(js_lexer.TEqualsGreaterThan)

	if p.lexer.Token == js_lexer.TOpenBrace {
		return &js_ast.EArrow{Args: args, Body: p.parseFnBody(data)}
	}

	oldFnOrArrowData := p.fnOrArrowDataParse
	p.fnOrArrowDataParse = data
	expr := p.parseExpr(js_ast.LComma)
	p.fnOrArrowDataParse = oldFnOrArrowData

	return &js_ast.EArrow{
		Args:       args,
		PreferExpr: true,
		Body: js_ast.FnBody{Loc: expr.Loc, Stmts: []js_ast.Stmt{
			{Loc: expr.Loc, Data: &js_ast.SReturn{Value: &expr}},
		}},
	}
}

func (p *parser) parseCallArgs() []js_ast.Expr {
	// Allow "in" inside call arguments
	oldAllowIn := p.allowIn
	p.allowIn = true

	args := []js_ast.Expr{}
	p.lexer.Expect(js_lexer.TOpenParen)

	for p.lexer.Token != js_lexer.TCloseParen {
		loc := p.lexer.Loc()
		isSpread := p.lexer.Token == js_lexer.TDotDotDot
		if isSpread {
			p.lexer.Next()
		}
		arg := p.parseExpr(js_ast.LComma)
		if isSpread {
			arg = js_ast.Expr{Loc: loc, Data: &js_ast.ESpread{Value: arg}}
		}
		args = append(args, arg)
		if p.lexer.Token != js_lexer.TComma {
			break
		}
		p.lexer.Next()
	}

	p.lexer.Expect(js_lexer.TCloseParen)
	p.allowIn = oldAllowIn
	return args
}

// This assumes the current token is the template head or a template literal
// without substitutions
func (p *parser) parseTemplate(loc logger.Loc, tag *js_ast.Expr) js_ast.Expr {
	head := p.lexer.StringLiteral
	p.templateRanges = append(p.templateRanges, p.lexer.Range())
	if p.lexer.Token == js_lexer.TNoSubstitutionTemplateLiteral {
		p.lexer.Next()
		return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Tag: tag, Head: head}}
	}
	parts := p.parseTemplateParts()
	return js_ast.Expr{Loc: loc, Data: &js_ast.ETemplate{Tag: tag, Head: head, Parts: parts}}
}

func (p *parser) parseTemplateParts() []js_ast.TemplatePart {
	parts := []js_ast.TemplatePart{}

	// Allow "in" inside template literals
	oldAllowIn := p.allowIn
	p.allowIn = true

	for {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LLowest)
		tailLoc := p.lexer.Loc()
		p.lexer.RescanCloseBraceAsTemplateToken()
		p.templateRanges = append(p.templateRanges, p.lexer.Range())
		tail := p.lexer.StringLiteral
		parts = append(parts, js_ast.TemplatePart{Value: value, TailLoc: tailLoc, Tail: tail})
		if p.lexer.Token == js_lexer.TTemplateTail {
			p.lexer.Next()
			break
		}
	}

	p.allowIn = oldAllowIn
	return parts
}

// Returns the key, whether it's computed, and whether it was written as a
// plain identifier (and so can be used as a shorthand property).
func (p *parser) parsePropertyKey() (key js_ast.Expr, isComputed bool, isIdentifier bool) {
	loc := p.lexer.Loc()

	switch p.lexer.Token {
	case js_lexer.TStringLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: p.lexer.StringLiteral}}
		p.lexer.Next()

	case js_lexer.TNumericLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.ENumber{Value: p.lexer.Number}}
		p.lexer.Next()

	case js_lexer.TBigIntegerLiteral:
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EBigInt{Value: p.lexer.Identifier}}
		p.lexer.Next()

	case js_lexer.TOpenBracket:
		p.lexer.Next()
		oldAllowIn := p.allowIn
		p.allowIn = true
		key = p.parseExpr(js_ast.LComma)
		p.allowIn = oldAllowIn
		p.lexer.Expect(js_lexer.TCloseBracket)
		isComputed = true

	default:
		if !p.lexer.IsIdentifierOrKeyword() {
			p.lexer.Unexpected()
		}
		isIdentifier = p.lexer.Token == js_lexer.TIdentifier
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: p.lexer.Identifier}}
		p.lexer.Next()
	}

	return
}

// Returns true if the current token can start a property key. This is used
// to tell modifiers like "get" and "static" apart from keys with those names.
func (p *parser) isPropertyKeyStart() bool {
	switch p.lexer.Token {
	case js_lexer.TStringLiteral, js_lexer.TNumericLiteral, js_lexer.TBigIntegerLiteral, js_lexer.TOpenBracket:
		return true
	}
	return p.lexer.IsIdentifierOrKeyword()
}

func (p *parser) parseProperty(isClass bool) js_ast.Property {
	var property js_ast.Property

	// "{...x}"
	if !isClass && p.lexer.Token == js_lexer.TDotDotDot {
		p.lexer.Next()
		value := p.parseExpr(js_ast.LComma)
		property.Kind = js_ast.PropertySpread
		property.Value = &value
		return property
	}

	var key js_ast.Expr
	hasKey := false
	isIdentifier := false
	isAsync := false
	isGenerator := false

	// A modifier word followed by something other than a key is itself the key
	wordAsKey := func(loc logger.Loc, word string) {
		key = js_ast.Expr{Loc: loc, Data: &js_ast.EString{Value: word}}
		hasKey = true
		isIdentifier = true
	}

	if isClass && p.lexer.IsContextualKeyword("static") {
		loc := p.lexer.Loc()
		p.lexer.Next()

		// "class Foo { static {} }"
		if p.lexer.Token == js_lexer.TOpenBrace {
			body := p.parseFnBody(fnOrArrowDataParse{})
			property.Kind = js_ast.PropertyClassStaticBlock
			property.StaticBlock = &body
			return property
		}

		if p.isPropertyKeyStart() || p.lexer.Token == js_lexer.TAsterisk {
			property.IsStatic = true
		} else {
			wordAsKey(loc, "static")
		}
	}

	if !hasKey && p.lexer.IsContextualKeyword("async") {
		loc := p.lexer.Loc()
		p.lexer.Next()
		if !p.lexer.HasNewlineBefore && (p.isPropertyKeyStart() || p.lexer.Token == js_lexer.TAsterisk) {
			isAsync = true
		} else {
			wordAsKey(loc, "async")
		}
	}

	if !hasKey && !isAsync && (p.lexer.IsContextualKeyword("get") || p.lexer.IsContextualKeyword("set")) {
		loc := p.lexer.Loc()
		word := p.lexer.Raw()
		p.lexer.Next()
		if p.isPropertyKeyStart() {
			if word == "get" {
				property.Kind = js_ast.PropertyGet
			} else {
				property.Kind = js_ast.PropertySet
			}
		} else {
			wordAsKey(loc, word)
		}
	}

	if !hasKey && p.lexer.Token == js_lexer.TAsterisk {
		p.lexer.Next()
		isGenerator = true
	}

	if !hasKey {
		key, property.IsComputed, isIdentifier = p.parsePropertyKey()
	}
	property.Key = key

	// Parse a method expression
	if p.lexer.Token == js_lexer.TOpenParen || isAsync || isGenerator ||
		property.Kind == js_ast.PropertyGet || property.Kind == js_ast.PropertySet {
		loc := p.lexer.Loc()
		fn := p.parseFn(nil, fnOrArrowDataParse{
			await: awaitOrYieldFor(isAsync),
			yield: awaitOrYieldFor(isGenerator),
		})
		fn.IsAsync = isAsync
		fn.IsGenerator = isGenerator
		value := js_ast.Expr{Loc: loc, Data: &js_ast.EFunction{Fn: fn}}
		property.Value = &value
		property.IsMethod = property.Kind == js_ast.PropertyNormal
		return property
	}

	// Parse a class field with an optional initial value
	if isClass {
		if p.lexer.Token == js_lexer.TEquals {
			p.lexer.Next()
			oldFnOrArrowData := p.fnOrArrowDataParse
			p.fnOrArrowDataParse = fnOrArrowDataParse{}
			initializer := p.parseExpr(js_ast.LComma)
			p.fnOrArrowDataParse = oldFnOrArrowData
			property.Initializer = &initializer
		}
		p.lexer.ExpectOrInsertSemicolon()
		return property
	}

	// "{a: b}"
	if p.lexer.Token == js_lexer.TColon || property.IsComputed || !isIdentifier {
		p.lexer.Expect(js_lexer.TColon)
		value := p.parseExpr(js_ast.LComma)
		property.Value = &value
		return property
	}

	// "{a}" is shorthand for "{a: a}"
	name := key.Data.(*js_ast.EString).Value
	value := js_ast.Expr{Loc: key.Loc, Data: &js_ast.EIdentifier{Name: name}}
	property.Value = &value
	property.WasShorthand = true

	// "({a = b} = c)" is only valid as a destructuring pattern
	if p.lexer.Token == js_lexer.TEquals {
		p.lexer.Next()
		initializer := p.parseExpr(js_ast.LComma)
		property.Initializer = &initializer
	}
	return property
}

func (p *parser) parseSuffix(left js_ast.Expr, level js_ast.L) js_ast.Expr {
	optionalChain := js_ast.OptionalChainNone

	for {
		oldOptionalChain := optionalChain
		optionalChain = js_ast.OptionalChainNone

		switch p.lexer.Token {
		case js_lexer.TDot:
			p.lexer.Next()
			if !p.lexer.IsIdentifierOrKeyword() {
				p.lexer.Expect(js_lexer.TIdentifier)
			}
			nameLoc := p.lexer.Loc()
			name := p.lexer.Identifier
			p.lexer.Next()
			if oldOptionalChain != js_ast.OptionalChainNone {
				optionalChain = js_ast.OptionalChainContinue
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: optionalChain}}

		case js_lexer.TQuestionDot:
			p.lexer.Next()
			optionalChain = js_ast.OptionalChainStart

			switch p.lexer.Token {
			case js_lexer.TOpenBracket:
				p.lexer.Next()
				oldAllowIn := p.allowIn
				p.allowIn = true
				index := p.parseExpr(js_ast.LLowest)
				p.allowIn = oldAllowIn
				p.lexer.Expect(js_lexer.TCloseBracket)
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: optionalChain}}

			case js_lexer.TOpenParen:
				if level >= js_ast.LCall {
					return left
				}
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: optionalChain}}

			default:
				if !p.lexer.IsIdentifierOrKeyword() {
					p.lexer.Expect(js_lexer.TIdentifier)
				}
				nameLoc := p.lexer.Loc()
				name := p.lexer.Identifier
				p.lexer.Next()
				left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EDot{Target: left, Name: name, NameLoc: nameLoc, OptionalChain: optionalChain}}
			}

		case js_lexer.TNoSubstitutionTemplateLiteral, js_lexer.TTemplateHead:
			if oldOptionalChain != js_ast.OptionalChainNone {
				p.log.AddRangeError(&p.source, p.lexer.Range(), "Template literals cannot have an optional chain as a tag")
				panic(js_lexer.LexerPanic{})
			}
			tag := left
			left = p.parseTemplate(left.Loc, &tag)

		case js_lexer.TOpenBracket:
			p.lexer.Next()

			// Allow "in" inside the brackets
			oldAllowIn := p.allowIn
			p.allowIn = true
			index := p.parseExpr(js_ast.LLowest)
			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TCloseBracket)
			if oldOptionalChain != js_ast.OptionalChainNone {
				optionalChain = js_ast.OptionalChainContinue
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIndex{Target: left, Index: index, OptionalChain: optionalChain}}

		case js_lexer.TOpenParen:
			if level >= js_ast.LCall {
				return left
			}
			if oldOptionalChain != js_ast.OptionalChainNone {
				optionalChain = js_ast.OptionalChainContinue
			}
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.ECall{Target: left, Args: p.parseCallArgs(), OptionalChain: optionalChain}}

		case js_lexer.TQuestion:
			if level >= js_ast.LConditional {
				return left
			}
			p.lexer.Next()

			// Allow "in" in between "?" and ":"
			oldAllowIn := p.allowIn
			p.allowIn = true
			yes := p.parseExpr(js_ast.LComma)
			p.allowIn = oldAllowIn

			p.lexer.Expect(js_lexer.TColon)
			no := p.parseExpr(js_ast.LComma)
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EIf{Test: left, Yes: yes, No: no}}

		case js_lexer.TMinusMinus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostDec, Value: left}}

		case js_lexer.TPlusPlus:
			if p.lexer.HasNewlineBefore || level >= js_ast.LPostfix {
				return left
			}
			p.lexer.Next()
			left = js_ast.Expr{Loc: left.Loc, Data: &js_ast.EUnary{Op: js_ast.UnOpPostInc, Value: left}}

		case js_lexer.TIn:
			if level >= js_ast.LCompare || !p.allowIn {
				return left
			}
			left = p.parseBinary(left, js_ast.BinOpIn)

		default:
			op, ok := binaryOps[p.lexer.Token]
			if !ok {
				return left
			}
			opLevel := js_ast.OpTable[op].Level
			if level >= opLevel {
				return left
			}
			left = p.parseBinary(left, op)
		}
	}
}

func (p *parser) parseBinary(left js_ast.Expr, op js_ast.OpCode) js_ast.Expr {
	p.lexer.Next()

	// Right-associative operators bind at one level lower so that the
	// right-hand side can contain another operator of the same level
	rightLevel := js_ast.OpTable[op].Level
	if op.IsRightAssociative() {
		rightLevel--
	}

	right := p.parseExpr(rightLevel)
	return js_ast.Expr{Loc: left.Loc, Data: &js_ast.EBinary{Op: op, Left: left, Right: right}}
}

var binaryOps = map[js_lexer.T]js_ast.OpCode{
	js_lexer.TComma:                                  js_ast.BinOpComma,
	js_lexer.TPlus:                                   js_ast.BinOpAdd,
	js_lexer.TMinus:                                  js_ast.BinOpSub,
	js_lexer.TAsterisk:                               js_ast.BinOpMul,
	js_lexer.TSlash:                                  js_ast.BinOpDiv,
	js_lexer.TPercent:                                js_ast.BinOpRem,
	js_lexer.TAsteriskAsterisk:                       js_ast.BinOpPow,
	js_lexer.TLessThan:                               js_ast.BinOpLt,
	js_lexer.TLessThanEquals:                         js_ast.BinOpLe,
	js_lexer.TGreaterThan:                            js_ast.BinOpGt,
	js_lexer.TGreaterThanEquals:                      js_ast.BinOpGe,
	js_lexer.TInstanceof:                             js_ast.BinOpInstanceof,
	js_lexer.TLessThanLessThan:                       js_ast.BinOpShl,
	js_lexer.TGreaterThanGreaterThan:                 js_ast.BinOpShr,
	js_lexer.TGreaterThanGreaterThanGreaterThan:      js_ast.BinOpUShr,
	js_lexer.TEqualsEquals:                           js_ast.BinOpLooseEq,
	js_lexer.TExclamationEquals:                      js_ast.BinOpLooseNe,
	js_lexer.TEqualsEqualsEquals:                     js_ast.BinOpStrictEq,
	js_lexer.TExclamationEqualsEquals:                js_ast.BinOpStrictNe,
	js_lexer.TQuestionQuestion:                       js_ast.BinOpNullishCoalescing,
	js_lexer.TBarBar:                                 js_ast.BinOpLogicalOr,
	js_lexer.TAmpersandAmpersand:                     js_ast.BinOpLogicalAnd,
	js_lexer.TBar:                                    js_ast.BinOpBitwiseOr,
	js_lexer.TAmpersand:                              js_ast.BinOpBitwiseAnd,
	js_lexer.TCaret:                                  js_ast.BinOpBitwiseXor,
	js_lexer.TEquals:                                 js_ast.BinOpAssign,
	js_lexer.TPlusEquals:                             js_ast.BinOpAddAssign,
	js_lexer.TMinusEquals:                            js_ast.BinOpSubAssign,
	js_lexer.TAsteriskEquals:                         js_ast.BinOpMulAssign,
	js_lexer.TSlashEquals:                            js_ast.BinOpDivAssign,
	js_lexer.TPercentEquals:                          js_ast.BinOpRemAssign,
	js_lexer.TAsteriskAsteriskEquals:                 js_ast.BinOpPowAssign,
	js_lexer.TLessThanLessThanEquals:                 js_ast.BinOpShlAssign,
	js_lexer.TGreaterThanGreaterThanEquals:           js_ast.BinOpShrAssign,
	js_lexer.TGreaterThanGreaterThanGreaterThanEquals: js_ast.BinOpUShrAssign,
	js_lexer.TBarEquals:                              js_ast.BinOpBitwiseOrAssign,
	js_lexer.TAmpersandEquals:                        js_ast.BinOpBitwiseAndAssign,
	js_lexer.TCaretEquals:                            js_ast.BinOpBitwiseXorAssign,
	js_lexer.TQuestionQuestionEquals:                 js_ast.BinOpNullishCoalescingAssign,
	js_lexer.TBarBarEquals:                           js_ast.BinOpLogicalOrAssign,
	js_lexer.TAmpersandAmpersandEquals:               js_ast.BinOpLogicalAndAssign,
}
