package sema

import "github.com/nof-sh/cc/internal/ast"

// SymbolInfo is a single entry in the symbol table: a name, its
// declared type, the kind of symbol it is, the scope it was declared
// in, and whether it has been given a value yet.
type SymbolInfo struct {
	Name        string
	Type        ast.Type
	Kind        ast.SymbolKind
	ScopeLevel  int
	Initialized bool
}

// SymbolTable is a stack of scope maps. Scope 0 is global; each
// enterScope pushes a fresh map on top, and lookups scan from the
// innermost scope outward.
type SymbolTable struct {
	scopes []map[string]*SymbolInfo
}

// NewSymbolTable returns a table with the global scope already pushed.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.EnterScope()
	return t
}

// CurrentScopeLevel returns the index of the innermost active scope.
func (t *SymbolTable) CurrentScopeLevel() int { return len(t.scopes) - 1 }

// EnterScope pushes a new, empty scope.
func (t *SymbolTable) EnterScope() {
	t.scopes = append(t.scopes, make(map[string]*SymbolInfo))
}

// ExitScope pops the innermost scope. Popping the global scope is
// forbidden and is a no-op, since a program is always analyzed inside
// at least the global scope.
func (t *SymbolTable) ExitScope() {
	if len(t.scopes) > 1 {
		t.scopes = t.scopes[:len(t.scopes)-1]
	}
}

// Declare inserts a new symbol into the current scope. It fails if the
// current scope already has a symbol with this name; shadowing an
// outer-scope name is always permitted.
func (t *SymbolTable) Declare(name string, typ ast.Type, kind ast.SymbolKind) bool {
	if t.LookupInCurrentScope(name) != nil {
		return false
	}
	level := t.CurrentScopeLevel()
	t.scopes[level][name] = &SymbolInfo{Name: name, Type: typ, Kind: kind, ScopeLevel: level}
	return true
}

// Lookup searches scopes from innermost to outermost and returns the
// first match, or nil if name is not declared anywhere visible.
func (t *SymbolTable) Lookup(name string) *SymbolInfo {
	for i := len(t.scopes) - 1; i >= 0; i-- {
		if sym, ok := t.scopes[i][name]; ok {
			return sym
		}
	}
	return nil
}

// LookupInCurrentScope searches only the innermost scope.
func (t *SymbolTable) LookupInCurrentScope(name string) *SymbolInfo {
	return t.scopes[len(t.scopes)-1][name]
}
