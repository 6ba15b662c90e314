package token

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{LeftParen, "LEFT_PAREN"},
		{Identifier, "IDENTIFIER"},
		{Fun, "FUN"},
		{EOF, "EOF"},
	}

	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKeywordsLookup(t *testing.T) {
	for word, kind := range Keywords {
		tok := Token{Kind: kind, Lexeme: word, Line: 1}
		if tok.Kind != kind {
			t.Errorf("keyword %q mapped to wrong kind", word)
		}
	}

	if _, ok := Keywords["myVar"]; ok {
		t.Errorf("myVar should not be a keyword")
	}
}
