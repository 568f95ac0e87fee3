package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.c")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunVersionFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-v"}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "ccomp")
}

func TestRunNoArgsPrintsUsageAndFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "usage")
}

func TestRunCompilesEmptyMainToAssembly(t *testing.T) {
	path := writeSource(t, "int main() { return 0; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), ".globl main")
	assert.Empty(t, stderr.String())
}

func TestRunCompilesAssignmentAndReturn(t *testing.T) {
	path := writeSource(t, "int main() { int x; x = 5; return x; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), "movq $5, %rax")
}

func TestRunSemanticModeReportsUndeclaredIdentifier(t *testing.T) {
	path := writeSource(t, "int main() { return y; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--semantic", path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "undeclared error")
}

func TestRunSemanticModeReportsRedeclaration(t *testing.T) {
	path := writeSource(t, "int main() { int x; int x; return 0; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--semantic", path}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "redeclaration error")
}

func TestRunSemanticModeWarnsOnUninitializedVariable(t *testing.T) {
	path := writeSource(t, "int main() { int x; return x; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--semantic", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr.String(), "uninitialized")
}

func TestRunCompilesTwoFunctionProgram(t *testing.T) {
	path := writeSource(t, "int f(int a) { return a; } int main() { return f(1); }")
	var stdout, stderr bytes.Buffer
	code := run([]string{path}, &stdout, &stderr)
	assert.Equal(t, 0, code, "stderr: %s", stderr.String())
	assert.Contains(t, stdout.String(), ".globl f")
	assert.Contains(t, stdout.String(), "call f")
}

func TestRunTokensMode(t *testing.T) {
	path := writeSource(t, "int main() { return 0; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--tokens", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "int")
	assert.Contains(t, stdout.String(), "EOF")
}

func TestRunTokensDFAModePrintsStatistics(t *testing.T) {
	path := writeSource(t, "int main() { return 0; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--tokens-dfa", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "scanner statistics")
}

func TestRunASTModePrintsTree(t *testing.T) {
	path := writeSource(t, "int main() { return 0; }")
	var stdout, stderr bytes.Buffer
	code := run([]string{"--ast", path}, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "FunctionDefinition")
}

func TestRunMissingFileFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"/nonexistent/path/input.c"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "cannot read")
}
