package token

import (
	"reflect"
	"testing"
)

func TestExtract_Empty(t *testing.T) {
	if terms := Extract(""); terms != nil {
		t.Errorf("expected nil, got %v", terms)
	}
}

func TestExtract_LowercasesAndFilters(t *testing.T) {
	terms := Extract("The DEADLINE for the Big Work project is SOON!")
	want := []string{"deadline", "work", "project", "soon"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestExtract_DropsShortWords(t *testing.T) {
	terms := Extract("go is fun but the sea air has salt")
	want := []string{"salt"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestExtract_Dedupes(t *testing.T) {
	terms := Extract("work work WORK working")
	want := []string{"work", "working"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestExtract_SplitsOnPunctuation(t *testing.T) {
	terms := Extract("deadline,work;project—done")
	want := []string{"deadline", "work", "project", "done"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestExtract_CountsRunesNotBytes(t *testing.T) {
	terms := Extract("née aux era œuvre")
	want := []string{"œuvre"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("expected %v, got %v", want, terms)
	}
}

func TestSignature_OrderInsensitive(t *testing.T) {
	a := Signature([]string{"work", "deadline"})
	b := Signature([]string{"deadline", "work"})
	if a != b {
		t.Errorf("expected equal signatures, got %q and %q", a, b)
	}
}

func TestSignature_DistinguishesSets(t *testing.T) {
	a := Signature([]string{"work", "deadline"})
	b := Signature([]string{"work"})
	if a == b {
		t.Error("expected different signatures for different sets")
	}
}

func TestSignature_Empty(t *testing.T) {
	if sig := Signature(nil); sig != "" {
		t.Errorf("expected empty signature, got %q", sig)
	}
	if got := SplitSignature(""); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSignature_TokenContentCannotForgeFraming(t *testing.T) {
	cases := [][2][]string{
		{{"a\x1fb"}, {"a", "b"}},
		{{"1:a1:b"}, {"a", "b"}},
		{{"work:1"}, {"work", "1"}},
	}
	for _, c := range cases {
		if Signature(c[0]) == Signature(c[1]) {
			t.Errorf("sets %v and %v collide on %q", c[0], c[1], Signature(c[0]))
		}
	}
}

func TestSplitSignature_RoundTrip(t *testing.T) {
	for _, tokens := range [][]string{
		{"deadline", "work"},
		{"a\x1fb"},
		{"1:a1:b"},
	} {
		got := SplitSignature(Signature(tokens))
		if !reflect.DeepEqual(got, tokens) {
			t.Errorf("expected %v, got %v", tokens, got)
		}
	}
}
