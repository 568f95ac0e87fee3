// Package printer renders the token stream and the AST for the
// inspection modes. Two tree renderings are offered: a plain structural
// dump and one that also shows each node's resolved SemanticInfo.
package printer

import (
	"fmt"
	"io"
	"strings"

	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/token"
)

// PrintToken writes a single token in the line-oriented form used by
// the --tokens inspection mode.
func PrintToken(w io.Writer, tok token.Token) {
	fmt.Fprintf(w, "%-4d %-12s %q\n", tok.Position.Line, tok.Type, tok.Lexeme)
}

// PrintTokenStats writes the scanner statistics shown by --tokens-dfa.
func PrintTokenStats(w io.Writer, total, keywords, identifiers, operators, punctuation, literals, comments, illegal int) {
	fmt.Fprintln(w, "=== scanner statistics ===")
	fmt.Fprintf(w, "total tokens:   %d\n", total)
	fmt.Fprintf(w, "keywords:       %d\n", keywords)
	fmt.Fprintf(w, "identifiers:    %d\n", identifiers)
	fmt.Fprintf(w, "operators:      %d\n", operators)
	fmt.Fprintf(w, "punctuation:    %d\n", punctuation)
	fmt.Fprintf(w, "literals:       %d\n", literals)
	fmt.Fprintf(w, "comments:       %d\n", comments)
	fmt.Fprintf(w, "illegal:        %d\n", illegal)
}

// PrintAST writes the plain structural dump of a Program.
func PrintAST(w io.Writer, prog *ast.Program) {
	p := &treePrinter{w: w}
	p.program(prog)
}

// PrintAnnotatedAST writes the dump with each node's SemanticInfo
// included, the way the annotated tree is shown after semantic
// analysis.
func PrintAnnotatedAST(w io.Writer, prog *ast.Program) {
	p := &treePrinter{w: w, semantics: true}
	p.program(prog)
}

type treePrinter struct {
	w         io.Writer
	semantics bool
}

func (p *treePrinter) indent(depth int) string { return strings.Repeat("  ", depth) }

func (p *treePrinter) line(depth int, node ast.Node, format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s%s", p.indent(depth), fmt.Sprintf(format, args...))
	if p.semantics {
		fmt.Fprintf(p.w, "  %s", describeInfo(node.Info()))
	}
	fmt.Fprintln(p.w)
}

func describeInfo(info *ast.SemanticInfo) string {
	if info.HasError {
		return fmt.Sprintf("[error: %s]", info.ErrorMessage)
	}
	typ := info.Type.String()
	if info.Type == ast.Invalid {
		typ = ""
	}
	return fmt.Sprintf("[type=%s kind=%s init=%t scope=%d]", typ, info.Kind, info.Initialized, info.ScopeLevel)
}

func (p *treePrinter) program(prog *ast.Program) {
	fmt.Fprintln(p.w, "Program")
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDefinition:
			p.functionDefinition(1, d)
		case *ast.VariableDeclaration:
			p.variableDeclaration(1, d)
		}
	}
}

func (p *treePrinter) functionDefinition(depth int, fn *ast.FunctionDefinition) {
	params := make([]string, len(fn.Params))
	for i, param := range fn.Params {
		params[i] = fmt.Sprintf("%s %s", param.Type, param.Name)
	}
	p.line(depth, fn, "FunctionDefinition %s %s(%s)", fn.ReturnType, fn.Name, strings.Join(params, ", "))
	p.compoundStatement(depth+1, fn.Body)
}

func (p *treePrinter) variableDeclaration(depth int, decl *ast.VariableDeclaration) {
	p.line(depth, decl, "VariableDeclaration %s", decl.Type)
	for _, name := range decl.Names {
		fmt.Fprintf(p.w, "%sName %s\n", p.indent(depth+1), name)
	}
	for _, id := range decl.InitDeclarators {
		fmt.Fprintf(p.w, "%sInitDeclarator %s =\n", p.indent(depth+1), id.Name)
		p.expression(depth+2, id.Init)
	}
}

func (p *treePrinter) statement(depth int, stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		p.line(depth, s, "ExpressionStatement")
		if s.Expr != nil {
			p.expression(depth+1, s.Expr)
		}
	case *ast.VariableDeclaration:
		p.variableDeclaration(depth, s)
	case *ast.CompoundStatement:
		p.compoundStatement(depth, s)
	case *ast.IfStatement:
		p.line(depth, s, "IfStatement")
		p.expression(depth+1, s.Cond)
		p.statement(depth+1, s.Then)
		if s.Else != nil {
			p.statement(depth+1, s.Else)
		}
	case *ast.WhileStatement:
		p.line(depth, s, "WhileStatement")
		p.expression(depth+1, s.Cond)
		p.statement(depth+1, s.Body)
	case *ast.ForStatement:
		p.line(depth, s, "ForStatement")
		if s.Init != nil {
			p.statement(depth+1, s.Init)
		}
		if s.Cond != nil {
			p.expression(depth+1, s.Cond)
		}
		if s.Post != nil {
			p.statement(depth+1, s.Post)
		}
		p.statement(depth+1, s.Body)
	case *ast.ReturnStatement:
		p.line(depth, s, "ReturnStatement")
		if s.Value != nil {
			p.expression(depth+1, s.Value)
		}
	case *ast.BreakStatement:
		p.line(depth, s, "BreakStatement")
	case *ast.ContinueStatement:
		p.line(depth, s, "ContinueStatement")
	}
}

func (p *treePrinter) compoundStatement(depth int, block *ast.CompoundStatement) {
	p.line(depth, block, "CompoundStatement")
	for _, stmt := range block.Statements {
		p.statement(depth+1, stmt)
	}
}

func (p *treePrinter) expression(depth int, expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		p.line(depth, e, "IntegerLiteral %d", e.Value)
	case *ast.Identifier:
		p.line(depth, e, "Identifier %s", e.Name)
	case *ast.BinaryExpression:
		p.line(depth, e, "BinaryExpression %s", e.Op)
		p.expression(depth+1, e.Left)
		p.expression(depth+1, e.Right)
	case *ast.UnaryExpression:
		p.line(depth, e, "UnaryExpression %s", e.Op)
		p.expression(depth+1, e.Operand)
	case *ast.AssignmentExpression:
		p.line(depth, e, "AssignmentExpression %s =", e.Target)
		p.expression(depth+1, e.Value)
	case *ast.FunctionCall:
		p.line(depth, e, "FunctionCall %s", e.Callee)
		for _, arg := range e.Args {
			p.expression(depth+1, arg)
		}
	}
}
