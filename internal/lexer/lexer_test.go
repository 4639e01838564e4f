package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNextScansAllKinds(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Kind
	}{
		{
			name: "keywords and punctuation",
			src:  "let x = fun(a, b) { if (a) { return a; } else { return b; } };",
			want: []Kind{
				KwLet, Ident, Op, KwFun, LParen, Ident, Comma, Ident, RParen, LBrace,
				KwIf, LParen, Ident, RParen, LBrace, KwReturn, Ident, Semi, RBrace,
				KwElse, LBrace, KwReturn, Ident, Semi, RBrace, RBrace, Semi,
			},
		},
		{
			name: "literals",
			src:  `1 2.5 "hi" true false null`,
			want: []Kind{IntLit, FloatLit, StringLit, BoolLit, BoolLit, NullLit},
		},
		{
			name: "multi-char operators longest match first",
			src:  "a <<= b >> c <= d",
			want: []Kind{Ident, Op, Ident, Op, Ident, Op, Ident},
		},
		{
			name: "line comment consumed as trivia",
			src:  "let x = 1; // trailing comment\nlet y = 2;",
			want: []Kind{KwLet, Ident, Op, IntLit, Semi, KwLet, Ident, Op, IntLit, Semi},
		},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			l := New(tc.src)
			var got []Kind
			for {
				tok, err := l.Next()
				require.NoError(t, err)
				if tok.Kind == EOF {
					break
				}
				got = append(got, tok.Kind)
			}
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNextTracksLineAndColumn(t *testing.T) {
	l := New("let\nx = 1;")
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, 1, tok.Pos.Line)

	for tok.Kind != Ident {
		tok, err = l.Next()
		require.NoError(t, err)
	}
	require.Equal(t, 2, tok.Pos.Line)
	require.Equal(t, 1, tok.Pos.Col)
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\"d"`)
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, StringLit, tok.Kind)
	require.Equal(t, "a\nb\tc\"d", tok.Text)
}

func TestUnterminatedStringIsSyntaxError(t *testing.T) {
	l := New(`"abc`)
	_, err := l.Next()
	require.Error(t, err)
}

func TestUnexpectedCharacterIsSyntaxError(t *testing.T) {
	l := New("@")
	_, err := l.Next()
	require.Error(t, err)
}
