package lexer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nof-sh/cc/internal/lexer"
	"github.com/nof-sh/cc/internal/token"
)

func scanAll(t *testing.T, src string) []token.Token {
	t.Helper()
	s := lexer.NewScanner(strings.NewReader(src))
	var toks []token.Token
	for {
		tok := s.Scan()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	return toks
}

func TestScanBasicTokens(t *testing.T) {
	toks := scanAll(t, "int x = 5;")
	require.Len(t, toks, 6)
	assert.Equal(t, token.INT, toks[0].Type)
	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, "x", toks[1].Lexeme)
	assert.Equal(t, token.ASSIGN, toks[2].Type)
	assert.Equal(t, token.INTEGER, toks[3].Type)
	assert.Equal(t, "5", toks[3].Lexeme)
	assert.Equal(t, token.SEMI, toks[4].Type)
	assert.Equal(t, token.EOF, toks[5].Type)
}

func TestScanMultiCharOperators(t *testing.T) {
	toks := scanAll(t, "== != <= >= && || ++ --")
	want := []token.Type{token.EQ, token.NE, token.LE, token.GE, token.AND, token.OR, token.INC, token.DEC, token.EOF}
	require.Len(t, toks, len(want))
	for i, tt := range want {
		assert.Equal(t, tt, toks[i].Type)
	}
}

func TestScanSingleCharFallback(t *testing.T) {
	toks := scanAll(t, "= < > ! + -")
	want := []token.Type{token.ASSIGN, token.LT, token.GT, token.NOT, token.PLUS, token.MINUS, token.EOF}
	require.Len(t, toks, len(want))
	for i, tt := range want {
		assert.Equal(t, tt, toks[i].Type)
	}
}

func TestScanLineAndBlockComments(t *testing.T) {
	toks := scanAll(t, "int x; // trailing comment\n/* block\ncomment */ int y;")
	var types []token.Type
	for _, tok := range toks {
		types = append(types, tok.Type)
	}
	assert.Contains(t, types, token.INT)
	assert.NotContains(t, types, token.ILLEGAL)
}

func TestScanIllegalLoneAmpersandAndPipe(t *testing.T) {
	toks := scanAll(t, "& |")
	require.Len(t, toks, 3)
	assert.Equal(t, token.ILLEGAL, toks[0].Type)
	assert.Equal(t, token.ILLEGAL, toks[1].Type)
}

func TestScanTracksLineNumbers(t *testing.T) {
	toks := scanAll(t, "int x;\nint y;")
	require.True(t, len(toks) >= 7)
	assert.Equal(t, 0, toks[0].Position.Line)
	var secondIntLine int
	for i, tok := range toks {
		if i > 0 && tok.Type == token.INT {
			secondIntLine = tok.Position.Line
		}
	}
	assert.Equal(t, 1, secondIntLine)
}

func TestScanKeywordVersusIdentifier(t *testing.T) {
	toks := scanAll(t, "while whiles")
	require.Len(t, toks, 3)
	assert.Equal(t, token.WHILE, toks[0].Type)
	assert.Equal(t, token.IDENT, toks[1].Type)
	assert.Equal(t, "whiles", toks[1].Lexeme)
}

func TestScanStatsCounters(t *testing.T) {
	s := lexer.NewScanner(strings.NewReader("int x = 5; // comment\n"))
	for {
		tok := s.Scan()
		if tok.Type == token.EOF {
			break
		}
	}
	assert.Equal(t, 1, s.Stats.Comments)
	assert.Equal(t, 1, s.Stats.Keywords)
	assert.Equal(t, 1, s.Stats.Identifiers)
	assert.True(t, s.Stats.Total > 0)
}
