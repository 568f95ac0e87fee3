// Package sema implements name resolution and type checking: a single
// traversal over the AST that annotates each node's SemanticInfo in
// place and accumulates a list of diagnostics. It never aborts on the
// first problem - it marks the offending node invalid and continues, so
// that one bad identifier does not cascade into a flood of unrelated
// errors.
package sema

import (
	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/diag"
)

const (
	kindUndeclared    = "undeclared error"
	kindRedeclaration = "redeclaration error"
	kindType          = "type error"
	kindAssignment    = "assignment error"
	kindGeneric       = "semantic error"
)

// Analyzer walks a Program and resolves every name and expression type
// it contains.
type Analyzer struct {
	symbols *SymbolTable

	Diagnostics diag.List
	warnings    diag.List

	currentLine    int
	currentContext string
	returnType     ast.Type
	sawReturn      bool
}

// New returns a ready-to-use Analyzer.
func New() *Analyzer {
	return &Analyzer{symbols: NewSymbolTable()}
}

// Analyze runs the analyzer over prog and reports whether it completed
// without error. Warnings never affect the result.
func Analyze(prog *ast.Program) (ok bool, errors, warnings diag.List) {
	a := New()
	a.visitProgram(prog)
	return !a.Diagnostics.HasErrors(), a.Diagnostics, a.warnings
}

func (a *Analyzer) addError(kind, context, format string, args ...interface{}) {
	a.Diagnostics.Add(diag.Kindf(a.currentLine, kind, context, format, args...))
}

func (a *Analyzer) addWarning(format string, args ...interface{}) {
	a.warnings.Add(diag.Warnf(a.currentLine, format, args...))
}

func (a *Analyzer) visitProgram(prog *ast.Program) {
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.FunctionDefinition:
			a.visitFunctionDefinition(d)
		case *ast.VariableDeclaration:
			a.visitVariableDeclaration(d)
		}
	}
}

func (a *Analyzer) visitFunctionDefinition(fn *ast.FunctionDefinition) {
	a.currentLine = fn.Line()
	a.currentContext = "function definition '" + fn.Name + "'"

	if !a.symbols.Declare(fn.Name, fn.ReturnType, ast.KindFunction) {
		a.addError(kindRedeclaration, a.currentContext, "redeclaration of function '%s'", fn.Name)
	}

	a.symbols.EnterScope()
	prevReturn, prevSaw := a.returnType, a.sawReturn
	a.returnType = fn.ReturnType
	a.sawReturn = false

	for _, param := range fn.Params {
		if !a.symbols.Declare(param.Name, param.Type, ast.KindParameter) {
			a.addError(kindRedeclaration, "function parameters", "redeclaration of parameter '%s'", param.Name)
			continue
		}
		sym := a.symbols.Lookup(param.Name)
		sym.Initialized = true
	}

	a.visitStatement(fn.Body)

	if fn.ReturnType != ast.Void && !a.sawReturn {
		a.addWarning("function '%s' may not return a value", fn.Name)
	}

	a.returnType, a.sawReturn = prevReturn, prevSaw
	a.symbols.ExitScope()
}

func (a *Analyzer) visitStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if s.Expr != nil {
			a.visitExpression(s.Expr)
		}
	case *ast.VariableDeclaration:
		a.visitVariableDeclaration(s)
	case *ast.CompoundStatement:
		a.symbols.EnterScope()
		for _, inner := range s.Statements {
			a.visitStatement(inner)
		}
		a.symbols.ExitScope()
	case *ast.IfStatement:
		a.visitExpression(s.Cond)
		a.visitStatement(s.Then)
		if s.Else != nil {
			a.visitStatement(s.Else)
		}
	case *ast.WhileStatement:
		a.visitExpression(s.Cond)
		a.visitStatement(s.Body)
	case *ast.ForStatement:
		if s.Init != nil {
			a.visitStatement(s.Init)
		}
		if s.Cond != nil {
			a.visitExpression(s.Cond)
		}
		if s.Post != nil {
			a.visitStatement(s.Post)
		}
		a.visitStatement(s.Body)
	case *ast.ReturnStatement:
		a.visitReturnStatement(s)
	case *ast.BreakStatement, *ast.ContinueStatement:
		// No symbol-table or type effects. Neither this pass nor the
		// code generator checks that they appear inside a loop.
	}
}

func (a *Analyzer) visitVariableDeclaration(decl *ast.VariableDeclaration) {
	a.currentLine = decl.Line()
	a.currentContext = "variable declaration"

	for _, name := range decl.Names {
		if !a.symbols.Declare(name, decl.Type, ast.KindVariable) {
			a.addError(kindRedeclaration, a.currentContext, "redeclaration of variable '%s'", name)
		}
	}

	for _, id := range decl.InitDeclarators {
		if !a.symbols.Declare(id.Name, decl.Type, ast.KindVariable) {
			a.addError(kindRedeclaration, a.currentContext, "redeclaration of variable '%s'", id.Name)
			continue
		}
		if id.Init == nil {
			continue
		}
		initType := a.visitExpression(id.Init)
		if initType == ast.Invalid {
			continue
		}
		if !initType.CanAssignTo(decl.Type) {
			a.addError(kindType, "variable initialization", "initialization type mismatch: cannot assign %s to %s", initType, decl.Type)
			continue
		}
		sym := a.symbols.Lookup(id.Name)
		sym.Initialized = true
	}
}

func (a *Analyzer) visitReturnStatement(stmt *ast.ReturnStatement) {
	a.currentLine = stmt.Line()
	a.currentContext = "return statement"
	a.sawReturn = true

	if stmt.Value != nil {
		valType := a.visitExpression(stmt.Value)
		if valType != ast.Invalid && !valType.CanAssignTo(a.returnType) {
			a.addError(kindType, a.currentContext, "return type mismatch: expected %s, found %s", a.returnType, valType)
		}
		return
	}
	if a.returnType != ast.Void {
		a.addError(kindType, a.currentContext, "non-void function must return a value")
	}
}

// visitExpression type-checks expr, writes its SemanticInfo in place,
// and returns the type it resolved to.
func (a *Analyzer) visitExpression(expr ast.Expression) ast.Type {
	switch e := expr.(type) {
	case *ast.IntegerLiteral:
		return a.visitIntegerLiteral(e)
	case *ast.Identifier:
		return a.visitIdentifier(e)
	case *ast.BinaryExpression:
		return a.visitBinaryExpression(e)
	case *ast.UnaryExpression:
		return a.visitUnaryExpression(e)
	case *ast.AssignmentExpression:
		return a.visitAssignmentExpression(e)
	case *ast.FunctionCall:
		return a.visitFunctionCall(e)
	default:
		return ast.Invalid
	}
}

func (a *Analyzer) visitIntegerLiteral(lit *ast.IntegerLiteral) ast.Type {
	info := lit.Info()
	info.Type = ast.Int
	info.Kind = ast.KindLiteral
	info.Initialized = true
	return ast.Int
}

func (a *Analyzer) visitIdentifier(id *ast.Identifier) ast.Type {
	a.currentLine = id.Line()
	a.currentContext = "identifier '" + id.Name + "'"

	sym := a.symbols.Lookup(id.Name)
	info := id.Info()
	if sym == nil {
		a.addError(kindUndeclared, "identifier use", "undeclared identifier '%s'", id.Name)
		info.HasError = true
		info.ErrorMessage = "undeclared identifier"
		return ast.Invalid
	}

	if sym.Kind == ast.KindVariable && !sym.Initialized {
		a.addWarning("use of uninitialized variable '%s'", id.Name)
	}

	info.Type = sym.Type
	info.Kind = sym.Kind
	info.Initialized = sym.Initialized
	info.ScopeLevel = sym.ScopeLevel
	return sym.Type
}

func (a *Analyzer) visitBinaryExpression(bin *ast.BinaryExpression) ast.Type {
	a.currentLine = bin.Line()
	a.currentContext = "binary expression '" + bin.Op.String() + "'"

	leftType := a.visitExpression(bin.Left)
	rightType := a.visitExpression(bin.Right)

	info := bin.Info()
	if leftType == ast.Invalid || rightType == ast.Invalid {
		return ast.Invalid
	}
	if !isValidBinaryOperation(bin.Op, leftType, rightType) {
		a.addError(kindType, "binary operator expression", "invalid binary operation: %s %s %s", leftType, bin.Op, rightType)
		info.HasError = true
		info.ErrorMessage = "invalid binary operation"
		return ast.Invalid
	}

	resultType := binaryResultType(bin.Op, leftType, rightType)
	info.Type = resultType
	info.Kind = ast.KindExpression
	info.Initialized = true
	return resultType
}

func (a *Analyzer) visitUnaryExpression(un *ast.UnaryExpression) ast.Type {
	operandType := a.visitExpression(un.Operand)
	info := un.Info()

	if operandType == ast.Invalid {
		return ast.Invalid
	}
	if !isValidUnaryOperation(un.Op, operandType) {
		a.addError(kindType, "unary operator expression", "invalid unary operation: %s%s", un.Op, operandType)
		info.HasError = true
		info.ErrorMessage = "invalid unary operation"
		return ast.Invalid
	}

	info.Type = operandType
	info.Kind = ast.KindExpression
	info.Initialized = true
	return operandType
}

func (a *Analyzer) visitAssignmentExpression(asn *ast.AssignmentExpression) ast.Type {
	a.currentLine = asn.Line()
	a.currentContext = "assignment expression"

	info := asn.Info()
	sym := a.symbols.Lookup(asn.Target)
	if sym == nil {
		a.addError(kindUndeclared, "assignment target", "undeclared variable '%s'", asn.Target)
		info.HasError = true
		return ast.Invalid
	}

	if sym.Kind != ast.KindVariable && sym.Kind != ast.KindParameter {
		a.addError(kindAssignment, a.currentContext, "cannot assign to non-variable '%s'", asn.Target)
		info.HasError = true
		return ast.Invalid
	}

	rightType := a.visitExpression(asn.Value)
	if rightType == ast.Invalid {
		info.HasError = true
		return ast.Invalid
	}
	if !rightType.CanAssignTo(sym.Type) {
		a.addError(kindType, a.currentContext, "type mismatch: cannot assign %s to %s", rightType, sym.Type)
		info.HasError = true
		return ast.Invalid
	}

	sym.Initialized = true
	info.Type = sym.Type
	info.Kind = ast.KindExpression
	info.Initialized = true
	return sym.Type
}

func (a *Analyzer) visitFunctionCall(call *ast.FunctionCall) ast.Type {
	a.currentLine = call.Line()
	a.currentContext = "function call '" + call.Callee + "'"

	info := call.Info()
	sym := a.symbols.Lookup(call.Callee)

	// Argument subexpressions are always analyzed, even when the callee
	// itself fails to resolve, so every identifier used as an argument
	// still gets its own diagnostics.
	for _, arg := range call.Args {
		a.visitExpression(arg)
	}

	if sym == nil {
		a.addError(kindUndeclared, a.currentContext, "undeclared function '%s'", call.Callee)
		info.HasError = true
		return ast.Invalid
	}
	if sym.Kind != ast.KindFunction {
		a.addError(kindType, a.currentContext, "'%s' is not a function", call.Callee)
		info.HasError = true
		return ast.Invalid
	}

	info.Type = sym.Type
	info.Kind = ast.KindExpression
	info.Initialized = true
	return sym.Type
}

func isValidBinaryOperation(op ast.BinaryOp, left, right ast.Type) bool {
	if left == ast.Invalid || right == ast.Invalid {
		return false
	}
	switch op {
	case ast.LogAnd, ast.LogOr:
		return true
	default:
		return left.IsNumeric() && right.IsNumeric()
	}
}

func isValidUnaryOperation(op ast.UnaryOp, operand ast.Type) bool {
	if operand == ast.Invalid {
		return false
	}
	switch op {
	case ast.Not:
		return true
	default:
		return operand.IsNumeric()
	}
}

// binaryResultType implements the promotion ladder: comparisons and
// logical operators always yield int; arithmetic promotes to the
// widest of its operands, double over float over int, with char
// falling through to int.
func binaryResultType(op ast.BinaryOp, left, right ast.Type) ast.Type {
	if op.IsComparison() {
		return ast.Int
	}
	if left == ast.Double || right == ast.Double {
		return ast.Double
	}
	if left == ast.Float || right == ast.Float {
		return ast.Float
	}
	return ast.Int
}
