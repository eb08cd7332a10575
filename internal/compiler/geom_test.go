package compiler

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cellcad/internal/deck"
)

// rpn renders tokens in the order they were emitted.
func rpn(toks []deck.Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func TestParseGeom(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"-1", "-1"},
		{"+3", "3"},
		{"-1 2", "-1 2 ∩"},
		{"-1 2 -3", "-1 2 ∩ -3 ∩"},
		{"-1 : 2", "-1 2 :"},
		{"-1 2 : -3", "-1 2 ∩ -3 :"},
		{"-1 (2 : -3)", "-1 2 -3 : ∩"},
		{"#(-1 2)", "-1 2 ∩ #"},
		{"-4 #(-1:2)", "-4 -1 2 : # ∩"},
		{"  -1\t2\n", "-1 2 ∩"},
		{"-1-2", "-1 -2 ∩"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			toks, err := ParseGeom(tt.expr, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rpn(toks))
		})
	}
}

func TestParseGeom_Errors(t *testing.T) {
	tests := []struct {
		expr string
		msg  string
	}{
		{"", "empty expression"},
		{"   ", "empty expression"},
		{"-1 (2", "missing ')'"},
		{"-1 )", "unexpected ')'"},
		{"-1 :", "unexpected end"},
		{"0", "surface 0"},
		{"-x", "expected a number"},
		{"#3", "not allowed"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := ParseGeom(tt.expr, nil)
			require.Error(t, err)
			var ge *GeomError
			require.ErrorAs(t, err, &ge)
			assert.Contains(t, ge.Message, tt.msg)
		})
	}
}

func TestParseGeom_CellComplement(t *testing.T) {
	other := []deck.Token{
		{Kind: deck.TokenSurface, Value: -1},
		{Kind: deck.TokenSurface, Value: 2},
		{Kind: deck.TokenIntersect},
	}
	resolve := func(id int) ([]deck.Token, error) {
		if id == 5 {
			return other, nil
		}
		return nil, fmt.Errorf("undefined cell %d", id)
	}

	toks, err := ParseGeom("-3 #5", resolve)
	require.NoError(t, err)
	assert.Equal(t, "-3 -1 2 ∩ # ∩", rpn(toks))

	_, err = ParseGeom("-3 #6", resolve)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undefined cell 6")
}
