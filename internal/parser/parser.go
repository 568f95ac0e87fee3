// Package parser implements a recursive-descent parser with one token of
// lookahead, built directly on top of the lexer's token stream. It
// It uses a single lookahead token, a match/expect helper that records
// a diagnostic and attempts to recover, and a precedence-climbing chain
// of parse methods for expressions.
package parser

import (
	"strconv"

	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/diag"
	"github.com/nof-sh/cc/internal/lexer"
	"github.com/nof-sh/cc/internal/token"
)

// Parser consumes a token stream and produces a Program, collecting
// diagnostics for any malformed input along the way rather than
// aborting on the first problem.
type Parser struct {
	scanner   *lexer.Scanner
	lookahead token.Token

	Diagnostics diag.List

	lastErrLine int
	haveLastErr bool
}

// New returns a Parser reading tokens from s.
func New(s *lexer.Scanner) *Parser {
	p := &Parser{scanner: s}
	p.lookahead = p.scanner.Scan()
	return p
}

// Parse runs the parser to completion and returns the resulting Program
// along with a flag reporting whether parsing succeeded without error.
// Even when ok is false, prog holds whatever could be recovered, so that
// later phases may still print a partial tree.
func Parse(s *lexer.Scanner) (prog *ast.Program, ok bool, diags diag.List) {
	p := New(s)
	prog = p.parseProgram()
	return prog, !p.Diagnostics.HasErrors(), p.Diagnostics
}

func (p *Parser) addError(format string, args ...interface{}) {
	line := p.lookahead.Position.Line
	if p.haveLastErr && p.lastErrLine == line {
		return
	}
	p.haveLastErr = true
	p.lastErrLine = line
	p.Diagnostics.Add(diag.Newf(line, format, args...))
}

func (p *Parser) advance() token.Token {
	tok := p.lookahead
	p.lookahead = p.scanner.Scan()
	return tok
}

// expect consumes and returns the lookahead token. If it does not match
// tt, an error is recorded first and the mismatched token is still
// consumed and returned, so the parser does not loop forever on a
// persistent mismatch.
func (p *Parser) expect(tt token.Type) token.Token {
	if p.lookahead.Type == tt {
		return p.advance()
	}
	p.addError("expected %s, found %s", tt, p.describeLookahead())
	return p.advance()
}

func (p *Parser) at(tt token.Type) bool { return p.lookahead.Type == tt }

func (p *Parser) describeLookahead() string {
	if p.lookahead.Type == token.EOF {
		return "end of file"
	}
	return p.lookahead.Lexeme
}

// synchronize skips tokens until a statement or declaration boundary so
// that one malformed statement does not cascade into spurious errors
// for everything that follows it.
func (p *Parser) synchronize() {
	for {
		switch p.lookahead.Type {
		case token.EOF, token.SEMI, token.RBRACE:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseProgram() *ast.Program {
	var decls []ast.Declaration
	for !p.at(token.EOF) {
		decl := p.parseTopLevelDeclaration()
		if decl != nil {
			decls = append(decls, decl)
		} else {
			p.synchronize()
			if p.at(token.SEMI) {
				p.advance()
			}
		}
	}
	return ast.NewProgram(decls)
}

// parseTopLevelDeclaration distinguishes a function definition from a
// global variable declaration by looking past the declared type and
// name for an opening parenthesis, the one place the two productions
// diverge.
func (p *Parser) parseTopLevelDeclaration() ast.Declaration {
	line := p.lookahead.Position.Line
	typ, ok := p.parseType()
	if !ok {
		return nil
	}

	nameTok := p.expect(token.IDENT)

	if p.at(token.LPAREN) {
		return p.parseFunctionDefinitionTail(line, nameTok.Lexeme, typ)
	}
	return p.parseVariableDeclarationTail(line, typ, nameTok.Lexeme)
}

func (p *Parser) parseType() (ast.Type, bool) {
	switch p.lookahead.Type {
	case token.INT:
		p.advance()
		return ast.Int, true
	case token.CHAR:
		p.advance()
		return ast.Char, true
	case token.FLOAT:
		p.advance()
		return ast.Float, true
	case token.DOUBLE:
		p.advance()
		return ast.Double, true
	case token.VOID:
		p.advance()
		return ast.Void, true
	default:
		p.addError("expected a type name, found %s", p.describeLookahead())
		return ast.Invalid, false
	}
}

func (p *Parser) parseFunctionDefinitionTail(line int, name string, retType ast.Type) *ast.FunctionDefinition {
	p.expect(token.LPAREN)

	var params []ast.Param
	if !p.at(token.RPAREN) {
		params = append(params, p.parseParam())
		for p.at(token.COMMA) {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(token.RPAREN)

	body := p.parseCompoundStatement()
	return ast.NewFunctionDefinition(line, name, retType, params, body)
}

func (p *Parser) parseParam() ast.Param {
	typ, _ := p.parseType()
	nameTok := p.expect(token.IDENT)
	return ast.Param{Name: nameTok.Lexeme, Type: typ}
}

func (p *Parser) parseCompoundStatement() *ast.CompoundStatement {
	line := p.lookahead.Position.Line
	p.expect(token.LBRACE)

	var stmts []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.synchronize()
			if p.at(token.SEMI) {
				p.advance()
			}
		}
	}
	p.expect(token.RBRACE)
	return ast.NewCompoundStatement(line, stmts)
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.lookahead.Type {
	case token.LBRACE:
		return p.parseCompoundStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.RETURN:
		return p.parseReturnStatement()
	case token.BREAK:
		line := p.advance().Position.Line
		p.expect(token.SEMI)
		return ast.NewBreakStatement(line)
	case token.CONTINUE:
		line := p.advance().Position.Line
		p.expect(token.SEMI)
		return ast.NewContinueStatement(line)
	case token.INT, token.CHAR, token.FLOAT, token.DOUBLE, token.VOID:
		return p.parseVariableDeclaration()
	case token.SEMI:
		line := p.advance().Position.Line
		return ast.NewExpressionStatement(line, nil)
	default:
		line := p.lookahead.Position.Line
		expr := p.parseExpression()
		p.expect(token.SEMI)
		return ast.NewExpressionStatement(line, expr)
	}
}

func (p *Parser) parseVariableDeclaration() ast.Statement {
	line := p.lookahead.Position.Line
	typ, _ := p.parseType()
	nameTok := p.expect(token.IDENT)
	return p.parseVariableDeclarationTail(line, typ, nameTok.Lexeme)
}

// parseVariableDeclarationTail parses the comma-separated declarator
// list following a type and its first declared name, each declarator
// either a bare name or a name with an initializer.
func (p *Parser) parseVariableDeclarationTail(line int, typ ast.Type, firstName string) *ast.VariableDeclaration {
	var names []string
	var inits []ast.InitDeclarator

	addDeclarator := func(name string) {
		if p.at(token.ASSIGN) {
			p.advance()
			inits = append(inits, ast.InitDeclarator{Name: name, Init: p.parseAssignment()})
		} else {
			names = append(names, name)
		}
	}

	addDeclarator(firstName)
	for p.at(token.COMMA) {
		p.advance()
		nameTok := p.expect(token.IDENT)
		addDeclarator(nameTok.Lexeme)
	}
	p.expect(token.SEMI)
	return ast.NewVariableDeclaration(line, typ, names, inits)
}

func (p *Parser) parseIfStatement() ast.Statement {
	line := p.advance().Position.Line
	p.expect(token.LPAREN)
	cond := p.parseExpression()
	p.expect(token.RPAREN)
	then := p.parseStatement()

	var els ast.Statement
	if p.at(token.ELSE) {
		p.advance()
		els = p.parseStatement()
	}
	return ast.NewIfStatement(line, cond, then, els)
}

func (p *Parser) parseWhileStatement() ast.Statement {
	line := p.advance().Position.Line
	p.expect(token.LPAREN)
	cond := p.parseExpression()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return ast.NewWhileStatement(line, cond, body)
}

func (p *Parser) parseForStatement() ast.Statement {
	line := p.advance().Position.Line
	p.expect(token.LPAREN)

	var init ast.Statement
	if !p.at(token.SEMI) {
		init = p.parseForClauseStatement()
	} else {
		p.advance()
	}

	var cond ast.Expression
	if !p.at(token.SEMI) {
		cond = p.parseExpression()
	}
	p.expect(token.SEMI)

	var post ast.Statement
	if !p.at(token.RPAREN) {
		post = p.parseForClauseStatementNoSemi()
	}
	p.expect(token.RPAREN)

	body := p.parseStatement()
	return ast.NewForStatement(line, init, cond, post, body)
}

// parseForClauseStatement parses the init clause of a for loop, which
// may be either a variable declaration or an expression, and consumes
// the terminating semicolon itself since both alternatives already do.
func (p *Parser) parseForClauseStatement() ast.Statement {
	switch p.lookahead.Type {
	case token.INT, token.CHAR, token.FLOAT, token.DOUBLE, token.VOID:
		return p.parseVariableDeclaration()
	default:
		line := p.lookahead.Position.Line
		expr := p.parseExpression()
		p.expect(token.SEMI)
		return ast.NewExpressionStatement(line, expr)
	}
}

func (p *Parser) parseForClauseStatementNoSemi() ast.Statement {
	line := p.lookahead.Position.Line
	expr := p.parseExpression()
	return ast.NewExpressionStatement(line, expr)
}

func (p *Parser) parseReturnStatement() ast.Statement {
	line := p.advance().Position.Line
	var value ast.Expression
	if !p.at(token.SEMI) {
		value = p.parseExpression()
	}
	p.expect(token.SEMI)
	return ast.NewReturnStatement(line, value)
}

// parseExpression is the entry point for a full expression, which is
// just an assignment at the top of the precedence chain.
func (p *Parser) parseExpression() ast.Expression {
	return p.parseAssignment()
}

// parseAssignment implements the chain assignment -> logicalOr, rooted
// at assignment since this grammar allows it as an expression.
func (p *Parser) parseAssignment() ast.Expression {
	if p.at(token.IDENT) {
		tok := p.lookahead
		// One token of lookahead is all the scanner buffers, so peek
		// past IDENT by speculatively advancing and checking for '='.
		p.advance()
		if p.at(token.ASSIGN) {
			p.advance()
			value := p.parseAssignment()
			return ast.NewAssignmentExpression(tok.Position.Line, tok.Lexeme, value)
		}
		return p.parseLogicalOrFrom(p.parsePrimaryTail(tok))
	}
	return p.parseLogicalOr()
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.at(token.OR) {
		line := p.advance().Position.Line
		right := p.parseLogicalAnd()
		left = ast.NewBinaryExpression(line, ast.LogOr, left, right)
	}
	return left
}

// parseLogicalOrFrom continues the precedence chain starting from an
// already-parsed primary expression, used when parseAssignment has to
// disambiguate an identifier from an assignment target by one token of
// speculative lookahead.
func (p *Parser) parseLogicalOrFrom(left ast.Expression) ast.Expression {
	left = p.parseLogicalAndFrom(left)
	for p.at(token.OR) {
		line := p.advance().Position.Line
		right := p.parseLogicalAnd()
		left = ast.NewBinaryExpression(line, ast.LogOr, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseEquality()
	for p.at(token.AND) {
		line := p.advance().Position.Line
		right := p.parseEquality()
		left = ast.NewBinaryExpression(line, ast.LogAnd, left, right)
	}
	return left
}

func (p *Parser) parseLogicalAndFrom(left ast.Expression) ast.Expression {
	left = p.parseEqualityFrom(left)
	for p.at(token.AND) {
		line := p.advance().Position.Line
		right := p.parseEquality()
		left = ast.NewBinaryExpression(line, ast.LogAnd, left, right)
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.at(token.EQ) || p.at(token.NE) {
		op, line := p.binOpFor(p.advance())
		right := p.parseRelational()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseEqualityFrom(left ast.Expression) ast.Expression {
	left = p.parseRelationalFrom(left)
	for p.at(token.EQ) || p.at(token.NE) {
		op, line := p.binOpFor(p.advance())
		right := p.parseRelational()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseAdditive()
	for p.at(token.LT) || p.at(token.LE) || p.at(token.GT) || p.at(token.GE) {
		op, line := p.binOpFor(p.advance())
		right := p.parseAdditive()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseRelationalFrom(left ast.Expression) ast.Expression {
	left = p.parseAdditiveFrom(left)
	for p.at(token.LT) || p.at(token.LE) || p.at(token.GT) || p.at(token.GE) {
		op, line := p.binOpFor(p.advance())
		right := p.parseAdditive()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op, line := p.binOpFor(p.advance())
		right := p.parseMultiplicative()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseAdditiveFrom(left ast.Expression) ast.Expression {
	left = p.parseMultiplicativeFrom(left)
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op, line := p.binOpFor(p.advance())
		right := p.parseMultiplicative()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PCT) {
		op, line := p.binOpFor(p.advance())
		right := p.parseUnary()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) parseMultiplicativeFrom(left ast.Expression) ast.Expression {
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PCT) {
		op, line := p.binOpFor(p.advance())
		right := p.parseUnary()
		left = ast.NewBinaryExpression(line, op, left, right)
	}
	return left
}

func (p *Parser) binOpFor(tok token.Token) (ast.BinaryOp, int) {
	switch tok.Type {
	case token.PLUS:
		return ast.Add, tok.Position.Line
	case token.MINUS:
		return ast.Sub, tok.Position.Line
	case token.STAR:
		return ast.Mul, tok.Position.Line
	case token.SLASH:
		return ast.Div, tok.Position.Line
	case token.PCT:
		return ast.Mod, tok.Position.Line
	case token.EQ:
		return ast.Eq, tok.Position.Line
	case token.NE:
		return ast.Ne, tok.Position.Line
	case token.LT:
		return ast.Lt, tok.Position.Line
	case token.LE:
		return ast.Le, tok.Position.Line
	case token.GT:
		return ast.Gt, tok.Position.Line
	case token.GE:
		return ast.Ge, tok.Position.Line
	default:
		return ast.Add, tok.Position.Line
	}
}

func (p *Parser) parseUnary() ast.Expression {
	switch p.lookahead.Type {
	case token.MINUS:
		line := p.advance().Position.Line
		operand := p.parseUnary()
		return ast.NewUnaryExpression(line, ast.Neg, operand)
	case token.PLUS:
		line := p.advance().Position.Line
		operand := p.parseUnary()
		return ast.NewUnaryExpression(line, ast.Pos, operand)
	case token.NOT:
		line := p.advance().Position.Line
		operand := p.parseUnary()
		return ast.NewUnaryExpression(line, ast.Not, operand)
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	switch p.lookahead.Type {
	case token.INTEGER:
		tok := p.advance()
		v, _ := strconv.ParseInt(tok.Lexeme, 10, 64)
		return ast.NewIntegerLiteral(tok.Position.Line, v)
	case token.LPAREN:
		p.advance()
		expr := p.parseExpression()
		p.expect(token.RPAREN)
		return expr
	case token.IDENT:
		tok := p.advance()
		return p.parsePrimaryTail(tok)
	default:
		p.addError("unexpected token %s in expression", p.describeLookahead())
		p.advance()
		return ast.NewIntegerLiteral(0, 0)
	}
}

// parsePrimaryTail finishes parsing a primary expression that begins
// with an identifier already consumed as tok: either a call expression
// or a bare variable reference.
func (p *Parser) parsePrimaryTail(tok token.Token) ast.Expression {
	if p.at(token.LPAREN) {
		p.advance()
		var args []ast.Expression
		if !p.at(token.RPAREN) {
			args = append(args, p.parseAssignment())
			for p.at(token.COMMA) {
				p.advance()
				args = append(args, p.parseAssignment())
			}
		}
		p.expect(token.RPAREN)
		return ast.NewFunctionCall(tok.Position.Line, tok.Lexeme, args)
	}
	return ast.NewIdentifier(tok.Position.Line, tok.Lexeme)
}
