package token_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nof-sh/cc/internal/token"
)

func TestTypeString(t *testing.T) {
	assert.Equal(t, "int", token.INT.String())
	assert.Equal(t, "==", token.EQ.String())
	assert.Equal(t, "UNKNOWN", token.Type(9999).String())
}

func TestIsTypeName(t *testing.T) {
	assert.True(t, token.INT.IsTypeName())
	assert.True(t, token.VOID.IsTypeName())
	assert.False(t, token.IF.IsTypeName())
	assert.False(t, token.IDENT.IsTypeName())
}

func TestKeywordsTableComplete(t *testing.T) {
	for _, kw := range []string{"int", "char", "float", "double", "void", "if", "else", "while", "for", "return", "break", "continue"} {
		_, ok := token.Keywords[kw]
		assert.True(t, ok, "keyword %q missing from table", kw)
	}
}
