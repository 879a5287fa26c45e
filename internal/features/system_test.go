package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSystem(t *testing.T) *System {
	t.Helper()
	sys, err := NewSystem([]Defn{
		{ID: "tense", Kind: DefnClosed, Symbols: []string{"pres", "past"}},
		{ID: "num", Kind: DefnClosed, Symbols: []string{"sg", "pl"}},
		{ID: "pers", Kind: DefnClosed, Symbols: []string{"1", "2", "3"}},
		{ID: "nounAgr", Kind: DefnComplex, Features: []string{"num", "pers"}},
	})
	require.NoError(t, err)
	return sys
}

func TestNewSystemErrors(t *testing.T) {
	tests := []struct {
		name  string
		defns []Defn
	}{
		{"empty id", []Defn{{Kind: DefnClosed, Symbols: []string{"a"}}}},
		{"duplicate", []Defn{{ID: "a", Kind: DefnClosed, Symbols: []string{"x"}}, {ID: "a", Kind: DefnClosed, Symbols: []string{"y"}}}},
		{"closed without symbols", []Defn{{ID: "a", Kind: DefnClosed}}},
		{"unknown kind", []Defn{{ID: "a", Kind: "numeric"}}},
		{"unknown nested", []Defn{{ID: "agr", Kind: DefnComplex, Features: []string{"num"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSystem(tt.defns)
			assert.Error(t, err)
		})
	}
}

func TestSystemValidate(t *testing.T) {
	sys := testSystem(t)

	assert.NoError(t, sys.Validate(yalolaFeatures()))
	assert.NoError(t, sys.Validate(NewStructure(map[string]Value{"tense": Not("past")})))

	tests := []struct {
		name    string
		st      Structure
		wantErr string
	}{
		{"unknown feature", NewStructure(map[string]Value{"mood": Sym("irr")}), "unknown feature 'mood'"},
		{"undeclared symbol", NewStructure(map[string]Value{"tense": Sym("fut")}), "undeclared symbol 'fut'"},
		{"closed given complex", NewStructure(map[string]Value{"tense": Nest(map[string]Value{"num": Sym("sg")})}), "has a complex value"},
		{"complex given closed", NewStructure(map[string]Value{"nounAgr": Sym("sg")}), "has a closed value"},
		{"nested not allowed", NewStructure(map[string]Value{"nounAgr": Nest(map[string]Value{"tense": Sym("pres")})}), "not allowed inside 'nounAgr'"},
		{"nested undeclared symbol", NewStructure(map[string]Value{"nounAgr": Nest(map[string]Value{"num": Sym("du")})}), "nounAgr.num"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := sys.Validate(tt.st)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNilSystemAcceptsEverything(t *testing.T) {
	var sys *System
	assert.NoError(t, sys.Validate(NewStructure(map[string]Value{"anything": Sym("goes")})))
	_, ok := sys.Lookup("tense")
	assert.False(t, ok)
	assert.Nil(t, sys.Defns())
}

func TestSystemLookup(t *testing.T) {
	sys := testSystem(t)

	d, ok := sys.Lookup("nounAgr")
	require.True(t, ok)
	assert.Equal(t, DefnComplex, d.Kind)

	ids := make([]string, 0)
	for _, d := range sys.Defns() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"nounAgr", "num", "pers", "tense"}, ids)
}
