package embedding

import (
	"testing"
)

func TestSplitWords(t *testing.T) {
	words := SplitWords("  IIT-Bombay, fees?  2024 ")
	want := []string{"iit", "bombay", "fees", "2024"}
	if len(words) != len(want) {
		t.Fatalf("expected %v, got %v", want, words)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, words[i], want[i])
		}
	}
	if len(SplitWords("")) != 0 {
		t.Error("empty string should return no words")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("abc")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
}

func TestBigrams(t *testing.T) {
	got := Bigrams([]string{"jee", "main", "cutoff"})
	if len(got) != 2 || got[0] != "jee main" || got[1] != "main cutoff" {
		t.Errorf("got %v", got)
	}
	if Bigrams([]string{"one"}) != nil {
		t.Error("single word has no bigrams")
	}
}
