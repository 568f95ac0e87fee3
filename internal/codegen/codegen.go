// Package codegen lowers an analyzed AST into textual assembly for a
// 64-bit register architecture with a base pointer, a stack pointer, a
// primary accumulator, a secondary register, and flags. It assumes
// semantic analysis has already succeeded; its only runtime failure
// mode is an address lookup miss, logged and skipped rather than fatal.
package codegen

import (
	"bytes"
	"fmt"

	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/diag"
)

// frameSlot is one entry in a function's frame map: the byte offset
// from the base pointer, and whether it is a parameter (positive
// offset) or a local variable (negative offset). Spill slots are not
// recorded in the frame map.
type frameSlot struct {
	offset  int
	isParam bool
}

// Generator emits assembly for a Program. It carries the output sink,
// the active function's frame map, the next free local/spill offset,
// a program-wide label counter, and the active function's name.
type Generator struct {
	out *bytes.Buffer

	frame       map[string]frameSlot
	stackOffset int
	labelIndex  int

	currentFunction string
	returnType      ast.Type

	Diagnostics diag.List
}

// New returns a ready-to-use Generator.
func New() *Generator {
	return &Generator{out: &bytes.Buffer{}, frame: make(map[string]frameSlot)}
}

// Generate lowers prog into assembly text and returns it along with
// any diagnostics raised during emission (address lookup failures).
func Generate(prog *ast.Program) (asm string, diags diag.List) {
	g := New()
	g.emitProgram(prog)
	return g.out.String(), g.Diagnostics
}

func (g *Generator) line(format string, args ...interface{}) {
	fmt.Fprintf(g.out, "    "+format+"\n", args...)
}

func (g *Generator) label(name string) {
	fmt.Fprintf(g.out, "%s:\n", name)
}

func (g *Generator) directive(format string, args ...interface{}) {
	fmt.Fprintf(g.out, format+"\n", args...)
}

func (g *Generator) comment(format string, args ...interface{}) {
	fmt.Fprintf(g.out, "    # "+format+"\n", args...)
}

// newLabel returns prefix with the program-wide label counter appended
// and then increments the counter. The counter is shared across every
// function so label suffixes are unique in the whole output.
func (g *Generator) newLabel(prefix string) string {
	l := fmt.Sprintf("%s%d", prefix, g.labelIndex)
	g.labelIndex++
	return l
}

// allocateLocal reserves a new 8-byte downward slot for name and
// returns its negative offset.
func (g *Generator) allocateLocal(name string) int {
	g.stackOffset += 8
	g.frame[name] = frameSlot{offset: g.stackOffset, isParam: false}
	return g.stackOffset
}

// allocateSpill reserves a fresh 8-byte slot that is not attached to
// any source name, used to hold an intermediate value while evaluating
// a binary expression's left operand.
func (g *Generator) allocateSpill() int {
	g.stackOffset += 8
	return g.stackOffset
}

func (g *Generator) address(name string) (string, bool) {
	slot, ok := g.frame[name]
	if !ok {
		return "", false
	}
	if slot.isParam {
		return fmt.Sprintf("%d(%%rbp)", slot.offset), true
	}
	return fmt.Sprintf("-%d(%%rbp)", slot.offset), true
}

func (g *Generator) undefinedVariable(line int, name string) {
	g.Diagnostics.Add(diag.Newf(line, "undefined variable '%s'", name))
}

func (g *Generator) emitProgram(prog *ast.Program) {
	g.directive("# Generated assembly")
	g.directive("")
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDefinition:
			g.emitFunctionDefinition(d)
		case *ast.VariableDeclaration:
			g.emitGlobalVariableDeclaration(d)
		}
	}
}

// emitGlobalVariableDeclaration only emits a comment: this code
// generator never lowers data outside a function frame, since the
// language's only storage model is the active function's stack frame.
func (g *Generator) emitGlobalVariableDeclaration(decl *ast.VariableDeclaration) {
	for _, name := range decl.Names {
		g.comment("global variable declaration: %s %s (unsupported storage class, no code emitted)", decl.Type, name)
	}
	for _, id := range decl.InitDeclarators {
		g.comment("global variable declaration: %s %s (unsupported storage class, no code emitted)", decl.Type, id.Name)
	}
}

func (g *Generator) emitFunctionDefinition(fn *ast.FunctionDefinition) {
	g.currentFunction = fn.Name
	g.returnType = fn.ReturnType
	g.frame = make(map[string]frameSlot)
	g.stackOffset = 0

	g.directive(".text")
	g.directive(".globl %s", fn.Name)
	g.label(fn.Name)
	g.line("pushq %%rbp")
	g.line("movq %%rsp, %%rbp")

	paramOffset := 16
	for _, param := range fn.Params {
		g.frame[param.Name] = frameSlot{offset: paramOffset, isParam: true}
		paramOffset += 8
	}

	g.emitCompoundStatement(fn.Body)

	endLabel := g.newLabel("func_end")
	g.label(endLabel)
	g.comment("default return")
	if fn.ReturnType != ast.Void {
		g.line("movq $0, %%rax")
	}
	g.line("leave")
	g.line("ret")
	g.directive("")
}

func (g *Generator) emitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if s.Expr != nil {
			g.emitExpression(s.Expr)
		}
	case *ast.VariableDeclaration:
		g.emitVariableDeclaration(s)
	case *ast.CompoundStatement:
		g.emitCompoundStatement(s)
	case *ast.IfStatement:
		g.emitIfStatement(s)
	case *ast.WhileStatement:
		g.emitWhileStatement(s)
	case *ast.ForStatement:
		g.emitForStatement(s)
	case *ast.ReturnStatement:
		g.emitReturnStatement(s)
	case *ast.BreakStatement, *ast.ContinueStatement:
		// Loop-exit labels are not modeled in this emission scheme;
		// the grammar accepts the tokens but no downstream pass acts
		// on them yet.
	}
}

// emitVariableDeclaration allocates a frame slot for every declarator.
// The frame map is deliberately never rolled back when the enclosing
// compound statement's scope ends, so a name declared in an inner
// block stays addressable - and can collide with a sibling block's
// variable of the same name - for the rest of the function.
func (g *Generator) emitVariableDeclaration(decl *ast.VariableDeclaration) {
	for _, name := range decl.Names {
		g.allocateLocal(name)
		g.comment("variable declaration: %s %s", decl.Type, name)
	}
	for _, id := range decl.InitDeclarators {
		g.allocateLocal(id.Name)
		g.comment("variable declaration with initializer: %s %s", decl.Type, id.Name)
		if id.Init == nil {
			continue
		}
		g.emitExpression(id.Init)
		addr, ok := g.address(id.Name)
		if !ok {
			g.undefinedVariable(decl.Line(), id.Name)
			continue
		}
		g.line("movq %%rax, %s", addr)
	}
}

func (g *Generator) emitCompoundStatement(block *ast.CompoundStatement) {
	for _, stmt := range block.Statements {
		g.emitStatement(stmt)
	}
}

func (g *Generator) emitIfStatement(stmt *ast.IfStatement) {
	falseLabel := g.newLabel("if_false")
	endLabel := g.newLabel("if_end")

	g.emitExpression(stmt.Cond)
	g.line("testq %%rax, %%rax")
	g.line("je %s", falseLabel)

	g.emitStatement(stmt.Then)
	g.line("jmp %s", endLabel)

	g.label(falseLabel)
	if stmt.Else != nil {
		g.emitStatement(stmt.Else)
	}
	g.label(endLabel)
}

func (g *Generator) emitWhileStatement(stmt *ast.WhileStatement) {
	loopLabel := g.newLabel("while_loop")
	endLabel := g.newLabel("while_end")

	g.label(loopLabel)
	g.emitExpression(stmt.Cond)
	g.line("testq %%rax, %%rax")
	g.line("je %s", endLabel)

	g.emitStatement(stmt.Body)
	g.line("jmp %s", loopLabel)
	g.label(endLabel)
}

func (g *Generator) emitForStatement(stmt *ast.ForStatement) {
	loopLabel := g.newLabel("for_loop")
	updateLabel := g.newLabel("for_update")
	endLabel := g.newLabel("for_end")

	if stmt.Init != nil {
		g.emitStatement(stmt.Init)
	}

	g.label(loopLabel)
	if stmt.Cond != nil {
		g.emitExpression(stmt.Cond)
		g.line("testq %%rax, %%rax")
		g.line("je %s", endLabel)
	}

	g.emitStatement(stmt.Body)

	g.label(updateLabel)
	if stmt.Post != nil {
		g.emitStatement(stmt.Post)
	}

	g.line("jmp %s", loopLabel)
	g.label(endLabel)
}

func (g *Generator) emitReturnStatement(stmt *ast.ReturnStatement) {
	if stmt.Value != nil {
		g.emitExpression(stmt.Value)
	} else {
		g.line("movq $0, %%rax")
	}
	g.line("leave")
	g.line("ret")
}

func (g *Generator) emitExpression(expr ast.Expression) {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		g.line("movq $%d, %%rax", e.Value)
	case *ast.Identifier:
		addr, ok := g.address(e.Name)
		if !ok {
			g.undefinedVariable(e.Line(), e.Name)
			return
		}
		g.line("movq %s, %%rax", addr)
	case *ast.BinaryExpression:
		g.emitBinaryExpression(e)
	case *ast.UnaryExpression:
		g.emitUnaryExpression(e)
	case *ast.AssignmentExpression:
		g.emitAssignmentExpression(e)
	case *ast.FunctionCall:
		g.emitFunctionCall(e)
	}
}

// emitBinaryExpression evaluates the right operand first and spills it
// to a fresh frame slot, then evaluates the left operand into the
// accumulator and reloads the spilled right operand into the secondary
// register. Evaluating right before left, and always through a unique
// spill slot rather than a register stack, is what keeps nested binary
// expressions correct without any register-allocation pass.
func (g *Generator) emitBinaryExpression(bin *ast.BinaryExpression) {
	g.emitExpression(bin.Right)
	spillOffset := g.allocateSpill()
	g.line("movq %%rax, -%d(%%rbp)", spillOffset)

	g.emitExpression(bin.Left)
	g.line("movq -%d(%%rbp), %%rbx", spillOffset)

	switch bin.Op {
	case ast.Add:
		g.line("addq %%rbx, %%rax")
	case ast.Sub:
		g.line("subq %%rbx, %%rax")
	case ast.Mul:
		g.line("imulq %%rbx, %%rax")
	case ast.Div:
		g.line("cqto")
		g.line("idivq %%rbx")
	case ast.Mod:
		g.line("cqto")
		g.line("idivq %%rbx")
		g.line("movq %%rdx, %%rax")
	case ast.Eq:
		g.emitCompare("sete")
	case ast.Ne:
		g.emitCompare("setne")
	case ast.Lt:
		g.emitCompare("setl")
	case ast.Gt:
		g.emitCompare("setg")
	case ast.Le:
		g.emitCompare("setle")
	case ast.Ge:
		g.emitCompare("setge")
	case ast.LogAnd:
		g.line("testq %%rax, %%rax")
		g.line("setne %%al")
		g.line("testq %%rbx, %%rbx")
		g.line("setne %%bl")
		g.line("andb %%bl, %%al")
		g.line("movzbq %%al, %%rax")
	case ast.LogOr:
		g.line("orq %%rbx, %%rax")
		g.line("testq %%rax, %%rax")
		g.line("setne %%al")
		g.line("movzbq %%al, %%rax")
	}
}

func (g *Generator) emitCompare(setcc string) {
	g.line("cmpq %%rbx, %%rax")
	g.line("%s %%al", setcc)
	g.line("movzbq %%al, %%rax")
}

func (g *Generator) emitUnaryExpression(un *ast.UnaryExpression) {
	g.emitExpression(un.Operand)
	switch un.Op {
	case ast.Neg:
		g.line("negq %%rax")
	case ast.Pos:
		// Identity: the operand is already in %rax.
	case ast.Not:
		g.line("testq %%rax, %%rax")
		g.line("sete %%al")
		g.line("movzbq %%al, %%rax")
	}
}

func (g *Generator) emitAssignmentExpression(asn *ast.AssignmentExpression) {
	g.emitExpression(asn.Value)
	addr, ok := g.address(asn.Target)
	if !ok {
		g.undefinedVariable(asn.Line(), asn.Target)
		return
	}
	g.line("movq %%rax, %s", addr)
}

// emitFunctionCall pushes arguments right to left, each computed into
// the accumulator before being pushed, so that by the time the call
// instruction runs the arguments sit on the stack in left-to-right
// order for the callee to read at positive frame offsets.
func (g *Generator) emitFunctionCall(call *ast.FunctionCall) {
	if call.Callee == "printf" {
		g.comment("printf call (not lowered, placeholder only)")
		return
	}

	for i := len(call.Args) - 1; i >= 0; i-- {
		g.emitExpression(call.Args[i])
		g.line("push %%rax")
	}

	g.line("call %s", call.Callee)

	if len(call.Args) > 0 {
		g.line("add $%d, %%rsp", len(call.Args)*8)
	}
}
