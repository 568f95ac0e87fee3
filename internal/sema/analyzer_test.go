package sema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/lexer"
	"github.com/nof-sh/cc/internal/parser"
	"github.com/nof-sh/cc/internal/sema"
)

func analyze(t *testing.T, src string) (*ast.Program, bool, []string, []string) {
	t.Helper()
	s := lexer.NewScanner(strings.NewReader(src))
	prog, ok, diags := parser.Parse(s)
	require.True(t, ok, "unexpected parse diagnostics: %v", diags)

	analyzed, errs, warnings := sema.Analyze(prog)
	var errMsgs, warnMsgs []string
	for _, e := range errs {
		errMsgs = append(errMsgs, e.Error())
	}
	for _, w := range warnings {
		warnMsgs = append(warnMsgs, w.Error())
	}
	return prog, analyzed, errMsgs, warnMsgs
}

func TestAnalyzeSimpleMainSucceeds(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { return 0; }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeAssignmentAfterDeclarationSucceeds(t *testing.T) {
	prog, ok, errs, _ := analyze(t, "int main() { int x; x = 5; return x; }")
	require.True(t, ok)
	assert.Empty(t, errs)

	fn := prog.Declarations[0].(*ast.FunctionDefinition)
	ret := fn.Body.Statements[2].(*ast.ReturnStatement)
	id := ret.Value.(*ast.Identifier)
	assert.Equal(t, ast.Int, id.Info().Type)
	assert.True(t, id.Info().Initialized)
}

func TestAnalyzeUndeclaredIdentifierFails(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { return y; }")
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "undeclared error")
	assert.Contains(t, errs[0], "y")
}

func TestAnalyzeRedeclarationInSameScopeFails(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { int x; int x; return 0; }")
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "redeclaration error")
}

func TestAnalyzeShadowingInNestedScopeSucceeds(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { int x; if (1) { int x; x = 2; } return x; }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeUseOfUninitializedVariableWarns(t *testing.T) {
	_, ok, _, warnings := analyze(t, "int main() { int x; return x; }")
	assert.True(t, ok)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "uninitialized")
}

func TestAnalyzeFunctionCallToUndeclaredFunctionFails(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { return f(1); }")
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "undeclared error")
}

func TestAnalyzeFunctionCallStillChecksArgumentsWhenCalleeUndeclared(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { return f(undefinedArg); }")
	assert.False(t, ok)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "undefinedArg")
	assert.Contains(t, errs[1], "'f'")
}

func TestAnalyzeCallToPreviouslyDefinedFunctionSucceeds(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int f(int a) { return a; } int main() { return f(1); }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeAssignmentAcrossNumericTypesIsAllowed(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int main() { double x; x = 1; return 0; }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeReturnTypeMismatchOnVoidFunctionFails(t *testing.T) {
	_, ok, errs, _ := analyze(t, "void f() { return 1; } int main() { return 0; }")
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "type error")
}

func TestAnalyzeMissingReturnOnNonVoidFunctionWarns(t *testing.T) {
	_, ok, _, warnings := analyze(t, "int f() { int x; } int main() { return 0; }")
	assert.True(t, ok)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[len(warnings)-1], "may not return a value")
}

func TestAnalyzeFunctionBodyOpensNestedScopeBeyondParameters(t *testing.T) {
	// The body's CompoundStatement opens its own scope underneath the
	// parameter scope, so a local of the same name as a parameter shadows
	// it rather than colliding with it.
	_, ok, errs, _ := analyze(t, "int f(int a) { int a; a = 2; return a; } int main() { return 0; }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeGlobalVariableDeclarationIsVisited(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int g = 1; int main() { return g; }")
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestAnalyzeAssignmentToFunctionNameFails(t *testing.T) {
	_, ok, errs, _ := analyze(t, "int f() { return 0; } int main() { f = 1; return 0; }")
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "assignment error")
}

func TestAnalyzeUnaryPlusOnNumericSucceeds(t *testing.T) {
	prog, ok, errs, _ := analyze(t, "int main() { int x; x = 1; return +x; }")
	require.True(t, ok)
	assert.Empty(t, errs)

	fn := prog.Declarations[0].(*ast.FunctionDefinition)
	ret := fn.Body.Statements[2].(*ast.ReturnStatement)
	un := ret.Value.(*ast.UnaryExpression)
	assert.Equal(t, ast.Int, un.Info().Type)
}
