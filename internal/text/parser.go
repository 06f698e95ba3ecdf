package text

import (
	"strconv"

	"tacir/internal/ir"
	"tacir/internal/types"
)

// Parser is a hand-rolled recursive-descent parser for the IR text format
// (spec §6). It never panics on malformed input — every failure becomes a
// ParseError and parsing resynchronizes at the next top-level function.
type Parser struct {
	tokens []Token
	pos    int

	curFunc *ir.Function
	nBlock  map[int]ir.BlockId
	nInst   map[int]ir.InstId
}

// Parse tokenizes and parses source into a Program, plus any errors
// encountered. A non-empty error slice does not necessarily mean the
// returned program is empty — functions that parsed cleanly are kept.
func Parse(source string) (*ir.Program, []*ParseError) {
	p := &Parser{tokens: NewScanner(source).ScanTokens()}

	prog := &ir.Program{}
	var errs []*ParseError
	for !p.isAtEnd() {
		start := p.pos
		f, err := p.parseFunction()
		if err != nil {
			errs = append(errs, err)
			// Resync from the form's start, not wherever parsing gave up —
			// by then any number of its parens may already be open, and
			// synchronize needs a clean depth-0 starting point to find the
			// form's true closing paren rather than a nested one.
			p.pos = start
			p.synchronize()
			continue
		}
		prog.Functions = append(prog.Functions, f)
	}
	return prog, errs
}

func (p *Parser) peek() Token  { return p.tokens[p.pos] }
func (p *Parser) isAtEnd() bool { return p.peek().Type == EOF }

func (p *Parser) advance() Token {
	t := p.peek()
	if t.Type != EOF {
		p.pos++
	}
	return t
}

func (p *Parser) check(tt TokenType) bool { return p.peek().Type == tt }

func (p *Parser) checkIdent(word string) bool {
	t := p.peek()
	return t.Type == Ident && t.Lexeme == word
}

func (p *Parser) matchIdent(word string) bool {
	if p.checkIdent(word) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) span(t Token) Span {
	end := t.Position
	end.Offset += len(t.Lexeme)
	return Span{Start: t.Position, End: end}
}

func (p *Parser) expect(tt TokenType, which string) (Token, *ParseError) {
	if p.check(tt) {
		return p.advance(), nil
	}
	t := p.peek()
	return t, &ParseError{Kind: Expect, Which: which, Span: p.span(t)}
}

func (p *Parser) expectIdent(word, which string) *ParseError {
	if p.matchIdent(word) {
		return nil
	}
	t := p.peek()
	return &ParseError{Kind: Expect, Which: which, Span: p.span(t)}
}

func (p *Parser) consumeName(which string) (string, *ParseError) {
	if p.check(Ident) {
		return p.advance().Lexeme, nil
	}
	t := p.peek()
	return "", &ParseError{Kind: ExpectName, Which: which, Span: p.span(t)}
}

// parseN parses a nonnegative integer id (block numbers, instruction
// numbers, parameter indices).
func (p *Parser) parseN(which string) (int, *ParseError) {
	tok, err := p.expect(Number, which)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(tok.Lexeme)
	if convErr != nil {
		return 0, &ParseError{Kind: Expect, Which: which, Span: p.span(tok)}
	}
	return n, nil
}

// parseInt parses a signed 64-bit integer literal.
func (p *Parser) parseInt() (int64, *ParseError) {
	neg := false
	if p.check(Minus) {
		p.advance()
		neg = true
	}
	tok, err := p.expect(Number, "an integer literal")
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.ParseInt(tok.Lexeme, 10, 64)
	if convErr != nil {
		return 0, &ParseError{Kind: Expect, Which: "an integer literal", Span: p.span(tok)}
	}
	if neg {
		n = -n
	}
	return n, nil
}

func (p *Parser) parseValue() (ir.Value, *ParseError) {
	if p.check(Percent) {
		p.advance()
		n, err := p.parseN("an instruction reference")
		if err != nil {
			return ir.Value{}, err
		}
		id, ok := p.nInst[n]
		if !ok {
			return ir.Value{}, &ParseError{Kind: ExpectName, Which: "a defined instruction reference", Span: p.span(p.peek())}
		}
		return ir.Dest(id), nil
	}
	n, err := p.parseInt()
	if err != nil {
		return ir.Value{}, err
	}
	return ir.Imm(n), nil
}

func (p *Parser) parseBlockID(which string) (ir.BlockId, *ParseError) {
	if err := p.expectIdent("bb", which); err != nil {
		return ir.BlockId{}, err
	}
	n, err := p.parseN(which)
	if err != nil {
		return ir.BlockId{}, err
	}
	id, ok := p.nBlock[n]
	if !ok {
		return ir.BlockId{}, &ParseError{Kind: ExpectName, Which: "a defined block reference", Span: p.span(p.peek())}
	}
	return id, nil
}

var binOpWords = map[string]ir.BinOp{
	"add": ir.Add, "sub": ir.Sub, "mul": ir.Mul, "div": ir.Div,
	"eq": ir.Eq, "ne": ir.Ne, "lt": ir.Lt, "gt": ir.Gt, "le": ir.Le, "ge": ir.Ge,
}

func (p *Parser) parseType() (types.Ty, *ParseError) {
	if p.check(LParen) {
		p.advance()
		var ty types.Ty
		if p.check(RParen) {
			p.advance()
			ty = types.Unit()
		} else if p.matchIdent("fn") {
			if _, err := p.expect(LParen, "'(' to open a function type's parameter list"); err != nil {
				return types.Ty{}, err
			}
			var params []types.Ty
			for !p.check(RParen) {
				pty, err := p.parseType()
				if err != nil {
					return types.Ty{}, err
				}
				params = append(params, pty)
			}
			p.advance() // ')'
			ret, err := p.parseType()
			if err != nil {
				return types.Ty{}, err
			}
			if _, err := p.expect(RParen, "')' to close a function type"); err != nil {
				return types.Ty{}, err
			}
			ty = types.Function(ret, params)
		} else {
			t := p.peek()
			return types.Ty{}, &ParseError{Kind: Expect, Which: "a type", Span: p.span(t)}
		}
		return p.parsePointerSuffix(ty), nil
	}

	tok, err := p.expect(Ident, "a type")
	if err != nil {
		return types.Ty{}, err
	}
	ty, perr := parseNumericType(tok)
	if perr != nil {
		perr.Span = p.span(tok)
		return types.Ty{}, perr
	}
	return p.parsePointerSuffix(ty), nil
}

func (p *Parser) parsePointerSuffix(ty types.Ty) types.Ty {
	for p.check(Star) {
		p.advance()
		ty = types.Pointer(ty)
	}
	return ty
}

func parseNumericType(tok Token) (types.Ty, *ParseError) {
	lex := tok.Lexeme
	if len(lex) < 2 {
		return types.Ty{}, &ParseError{Kind: Expect, Which: "a type"}
	}
	var kind types.NumKind
	switch lex[0] {
	case 'i':
		kind = types.Int
	case 'b':
		kind = types.Bool
	default:
		return types.Ty{}, &ParseError{Kind: Expect, Which: "a type"}
	}
	bits, convErr := strconv.Atoi(lex[1:])
	if convErr != nil {
		return types.Ty{}, &ParseError{Kind: Expect, Which: "a type"}
	}
	return types.Numeric(kind, bits), nil
}

func (p *Parser) parseInst(bb ir.BlockId) *ParseError {
	if _, err := p.expect(LParen, "'(' to open an instruction"); err != nil {
		return err
	}
	if _, err := p.expect(Percent, "'%' before an instruction number"); err != nil {
		return err
	}
	numTok, err := p.expect(Number, "an instruction number")
	if err != nil {
		return err
	}
	n, _ := strconv.Atoi(numTok.Lexeme)
	id, ok := p.nInst[n]
	if !ok {
		id = ir.InstId{}
	}

	ty, terr := p.parseType()
	if terr != nil {
		return terr
	}

	var kind ir.InstKind
	switch {
	case p.check(Ident) && isBinOpWord(p.peek().Lexeme):
		op := binOpWords[p.advance().Lexeme]
		lhs, err := p.parseValue()
		if err != nil {
			return err
		}
		rhs, err := p.parseValue()
		if err != nil {
			return err
		}
		kind = ir.Binary{Op: op, Lhs: lhs, Rhs: rhs}

	case p.matchIdent("call"):
		name, err := p.consumeName("a call target")
		if err != nil {
			return err
		}
		if _, err := p.expect(LParen, "'(' to open a call's argument list"); err != nil {
			return err
		}
		var params []ir.Value
		for !p.check(RParen) {
			v, err := p.parseValue()
			if err != nil {
				return err
			}
			params = append(params, v)
		}
		p.advance() // ')'
		kind = ir.Call{Name: name, Params: params}

	case p.matchIdent("param"):
		idx, err := p.parseN("a parameter index")
		if err != nil {
			return err
		}
		kind = ir.Param{Index: idx}

	case p.matchIdent("phi"):
		operands := map[ir.BlockId]ir.InstId{}
		for p.check(LParen) {
			p.advance()
			bid, err := p.parseBlockID("a phi operand's block")
			if err != nil {
				return err
			}
			if _, err := p.expect(Percent, "'%' before a phi operand's instruction number"); err != nil {
				return err
			}
			m, err := p.parseN("a phi operand's instruction number")
			if err != nil {
				return err
			}
			iid, ok := p.nInst[m]
			if !ok {
				return &ParseError{Kind: ExpectName, Which: "a defined instruction reference", Span: p.span(p.peek())}
			}
			operands[bid] = iid
			if _, err := p.expect(RParen, "')' to close a phi operand"); err != nil {
				return err
			}
		}
		kind = ir.Phi{Operands: operands}

	default:
		v, err := p.parseValue()
		if err != nil {
			return err
		}
		kind = ir.Assign{Src: v}
	}

	if _, err := p.expect(RParen, "')' to close an instruction"); err != nil {
		return err
	}

	*p.instByID(id) = ir.Instruction{Kind: kind, Ty: ty}
	p.curFunc.InstAppendInBB(id, bb)
	return nil
}

func isBinOpWord(w string) bool {
	_, ok := binOpWords[w]
	return ok
}

// instByID is only ever called with ids minted during the prescan of the
// enclosing function, which always resolves.
func (p *Parser) instByID(id ir.InstId) *ir.Instruction {
	return p.curFunc.Inst(id)
}

func (p *Parser) parseBranch() (ir.Branch, *ParseError) {
	if _, err := p.expect(LParen, "'(' to open a branch"); err != nil {
		return nil, err
	}

	var branch ir.Branch
	switch {
	case p.matchIdent("return"):
		if p.check(RParen) {
			branch = ir.Return{HasValue: false}
		} else {
			v, err := p.parseValue()
			if err != nil {
				return nil, err
			}
			branch = ir.Return{Value: v, HasValue: true}
		}
	case p.matchIdent("br"):
		target, err := p.parseBlockID("a jump target")
		if err != nil {
			return nil, err
		}
		branch = ir.Jump{Target: target}
	case p.matchIdent("brif"):
		cond, err := p.parseValue()
		if err != nil {
			return nil, err
		}
		ifTrue, err := p.parseBlockID("a conditional jump's true target")
		if err != nil {
			return nil, err
		}
		ifFalse, err := p.parseBlockID("a conditional jump's false target")
		if err != nil {
			return nil, err
		}
		branch = ir.CondJump{Cond: cond, IfTrue: ifTrue, IfFalse: ifFalse}
	case p.matchIdent("unreachable"):
		branch = ir.Unreachable{}
	default:
		t := p.peek()
		return nil, &ParseError{Kind: Expect, Which: "a branch (return, br, brif, or unreachable)", Span: p.span(t)}
	}

	if _, err := p.expect(RParen, "')' to close a branch"); err != nil {
		return nil, err
	}
	return branch, nil
}

func (p *Parser) parseBlock() (ir.BlockId, *ParseError) {
	if _, err := p.expect(LParen, "'(' to open a block"); err != nil {
		return ir.BlockId{}, err
	}
	if err := p.expectIdent("bb", "the 'bb' keyword"); err != nil {
		return ir.BlockId{}, err
	}
	numTok, err := p.expect(Number, "a block number")
	if err != nil {
		return ir.BlockId{}, err
	}
	n, _ := strconv.Atoi(numTok.Lexeme)
	bb, ok := p.nBlock[n]
	if !ok {
		bb = p.curFunc.BBNew()
	}

	if _, err := p.expect(LParen, "'(' to open a block's instruction list"); err != nil {
		return ir.BlockId{}, err
	}
	for !p.check(RParen) {
		if err := p.parseInst(bb); err != nil {
			return ir.BlockId{}, err
		}
	}
	p.advance() // ')'

	branch, err := p.parseBranch()
	if err != nil {
		return ir.BlockId{}, err
	}
	p.curFunc.BB(bb).Branch = branch

	if _, err := p.expect(RParen, "')' to close a block"); err != nil {
		return ir.BlockId{}, err
	}
	return bb, nil
}

func (p *Parser) parseFunction() (*ir.Function, *ParseError) {
	start := p.pos
	if _, err := p.expect(LParen, "'(' to open a function definition"); err != nil {
		return nil, reclass(err, ExpectFunctionDef)
	}
	if !p.matchIdent("fn") {
		p.pos = start
		t := p.peek()
		return nil, &ParseError{Kind: ExpectFunctionDef, Span: p.span(t)}
	}

	name, err := p.consumeName("a function name")
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LParen, "'(' to open a function's parameter type list"); err != nil {
		return nil, err
	}
	var paramTys []types.Ty
	for !p.check(RParen) {
		ty, terr := p.parseType()
		if terr != nil {
			return nil, terr
		}
		paramTys = append(paramTys, ty)
	}
	p.advance() // ')'

	retTy, terr := p.parseType()
	if terr != nil {
		return nil, terr
	}

	f := ir.NewFunction(name, types.Function(retTy, paramTys))
	p.curFunc = f

	nBlock, nInst, perr := p.prescanBody(f)
	if perr != nil {
		return nil, perr
	}
	p.nBlock, p.nInst = nBlock, nInst

	var order []ir.BlockId
	for p.check(LParen) {
		bb, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		order = append(order, bb)
	}

	if _, err := p.expect(RParen, "')' to close a function definition"); err != nil {
		return nil, err
	}

	if len(order) > 0 {
		f.SetFirstBlock(order[0])
		for i := 1; i < len(order); i++ {
			f.BBSetAfter(order[i-1], order[i])
		}
	}

	return f, nil
}

// prescanBody walks the token stream for a function's block* forms without
// consuming the parser's position, minting a BlockId/InstId for every
// block/instruction number up front so later references — forward
// branches, and phi operands naming predecessor-block instructions — can
// be resolved regardless of where in the text they're declared.
//
// Block-opening forms ("(" "bb" N) occur only as direct children of the
// function; instruction-opening forms ("(" "%" N) occur only as direct
// children of a block's instruction list. Those are nesting depths 0 and 2
// respectively relative to the function's own opening paren, which is what
// distinguishes a real block header from a phi entry's "(bb N %M)" (nested
// one level deeper, inside an instruction's own parens).
func (p *Parser) prescanBody(f *ir.Function) (map[int]ir.BlockId, map[int]ir.InstId, *ParseError) {
	nBlock := map[int]ir.BlockId{}
	nInst := map[int]ir.InstId{}

	depth := 0
	i := p.pos
	for {
		if i >= len(p.tokens) || p.tokens[i].Type == EOF {
			return nil, nil, &ParseError{Kind: Expect, Which: "')' to close a function definition", Span: p.span(p.tokens[len(p.tokens)-1])}
		}
		tok := p.tokens[i]
		switch tok.Type {
		case LParen:
			if depth == 0 && i+2 < len(p.tokens) && p.tokens[i+1].Type == Ident && p.tokens[i+1].Lexeme == "bb" && p.tokens[i+2].Type == Number {
				n, _ := strconv.Atoi(p.tokens[i+2].Lexeme)
				if _, exists := nBlock[n]; !exists {
					nBlock[n] = f.BBNew()
				}
			} else if depth == 2 && i+2 < len(p.tokens) && p.tokens[i+1].Type == Percent && p.tokens[i+2].Type == Number {
				n, _ := strconv.Atoi(p.tokens[i+2].Lexeme)
				if _, exists := nInst[n]; !exists {
					nInst[n] = f.InstNew(ir.Instruction{Kind: ir.Assign{}, Ty: types.Ty{}})
				}
			}
			depth++
		case RParen:
			if depth == 0 {
				return nBlock, nInst, nil
			}
			depth--
		}
		i++
	}
}

// synchronize skips tokens until the next plausible top-level function
// start, so one malformed function doesn't prevent parsing the rest.
func (p *Parser) synchronize() {
	depth := 0
	for !p.isAtEnd() {
		switch p.peek().Type {
		case LParen:
			depth++
		case RParen:
			depth--
			if depth <= 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func reclass(e *ParseError, kind ErrorKind) *ParseError {
	e.Kind = kind
	return e
}
