// Command ccomp is the driver for the compiler: it wires together the
// scanner, parser, semantic analyzer, code generator, and the
// phase-inspection printers behind a small set of mutually exclusive
// mode flags.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nof-sh/cc/internal/ast"
	"github.com/nof-sh/cc/internal/codegen"
	"github.com/nof-sh/cc/internal/diag"
	"github.com/nof-sh/cc/internal/lexer"
	"github.com/nof-sh/cc/internal/parser"
	"github.com/nof-sh/cc/internal/printer"
	"github.com/nof-sh/cc/internal/sema"
	"github.com/nof-sh/cc/internal/token"
)

const version = "ccomp 1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("ccomp", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		tokensFlag     = fs.Bool("tokens", false, "print the token stream and exit")
		tokensDFAFlag  = fs.Bool("tokens-dfa", false, "print the token stream with scanner statistics and exit")
		astFlag        = fs.Bool("ast", false, "parse and print the AST, then exit")
		semanticFlag   = fs.Bool("semantic", false, "parse, analyze, and print the annotated AST and diagnostics")
		allPhasesFlag  = fs.Bool("all-phases", false, "print the token stream, the AST, and the annotated AST")
		outPath        = fs.String("o", "", "output path for the generated assembly (default: input with .s extension)")
		versionFlag    = fs.Bool("v", false, "print version and exit")
		versionFlagLng = fs.Bool("version", false, "print version and exit")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: ccomp [flags] <input-file>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *versionFlag || *versionFlagLng {
		fmt.Fprintln(stdout, version)
		return 0
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}
	inputPath := fs.Arg(0)

	src, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(stderr, "ccomp: cannot read %s: %v\n", inputPath, err)
		return 1
	}

	if *outPath == "" {
		ext := filepath.Ext(inputPath)
		*outPath = strings.TrimSuffix(inputPath, ext) + ".s"
	}

	switch {
	case *tokensFlag:
		return runTokens(string(src), stdout, false)
	case *tokensDFAFlag:
		return runTokens(string(src), stdout, true)
	case *astFlag:
		return runAST(string(src), stdout, stderr)
	case *semanticFlag:
		return runSemantic(string(src), stdout, stderr)
	case *allPhasesFlag:
		return runAllPhases(string(src), stdout, stderr)
	default:
		return runCompile(string(src), stdout, stderr)
	}
}

func runTokens(src string, out io.Writer, withStats bool) int {
	s := lexer.NewScanner(strings.NewReader(src))
	for {
		tok := s.Scan()
		printer.PrintToken(out, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	if withStats {
		st := s.Stats
		printer.PrintTokenStats(out, st.Total, st.Keywords, st.Identifiers, st.Operators, st.Punctuation, st.Literals, st.Comments, st.Illegal)
	}
	return 0
}

func runAST(src string, stdout, stderr io.Writer) int {
	prog, ok, diags := parse(src)
	if !ok {
		reportParseErrors(stderr, diags)
		return 1
	}
	printer.PrintAST(stdout, prog)
	return 0
}

func runSemantic(src string, stdout, stderr io.Writer) int {
	prog, ok, diags := parse(src)
	if !ok {
		reportParseErrors(stderr, diags)
		return 1
	}

	analyzed, errs, warnings := sema.Analyze(prog)
	printer.PrintAnnotatedAST(stdout, prog)
	reportDiagnostics(stderr, errs, warnings)
	if !analyzed {
		return 1
	}
	return 0
}

func runAllPhases(src string, stdout, stderr io.Writer) int {
	runTokens(src, stdout, true)

	prog, ok, diags := parse(src)
	if !ok {
		reportParseErrors(stderr, diags)
		return 1
	}
	printer.PrintAST(stdout, prog)

	analyzed, errs, warnings := sema.Analyze(prog)
	printer.PrintAnnotatedAST(stdout, prog)
	reportDiagnostics(stderr, errs, warnings)
	if !analyzed {
		return 1
	}
	return 0
}

func runCompile(src string, stdout, stderr io.Writer) int {
	prog, ok, diags := parse(src)
	if !ok {
		reportParseErrors(stderr, diags)
		return 1
	}

	analyzed, errs, warnings := sema.Analyze(prog)
	reportDiagnostics(stderr, errs, warnings)
	if !analyzed {
		return 1
	}

	asm, codegenDiags := codegen.Generate(prog)
	for _, d := range codegenDiags {
		fmt.Fprintln(stderr, d.Error())
	}

	fmt.Fprint(stdout, asm)
	return 0
}

func parse(src string) (*ast.Program, bool, diag.List) {
	s := lexer.NewScanner(strings.NewReader(src))
	return parser.Parse(s)
}

func reportParseErrors(stderr io.Writer, diags diag.List) {
	fmt.Fprintln(stderr, "parse failed:")
	for _, d := range diags {
		fmt.Fprintln(stderr, d.Error())
	}
}

func reportDiagnostics(stderr io.Writer, errs, warnings diag.List) {
	for _, d := range errs {
		fmt.Fprintln(stderr, d.Error())
	}
	for _, w := range warnings {
		fmt.Fprintln(stderr, w.Error())
	}
}
