package tokenizer

import (
	"reflect"
	"testing"
)

func TestTermsNormalises(t *testing.T) {
	terms := Terms("The CATS and the dog!")
	want := []string{"cat", "dog"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("Terms = %v, want %v", terms, want)
	}
}

func TestTermsDropsStopWordsAndShortTokens(t *testing.T) {
	terms := Terms("a is the of x y")
	if len(terms) != 0 {
		t.Errorf("Terms = %v, want empty", terms)
	}
}

func TestTermsSplitsOnNonAlphanumeric(t *testing.T) {
	terms := Terms("cat,dog;bird")
	want := []string{"cat", "dog", "bird"}
	if !reflect.DeepEqual(terms, want) {
		t.Errorf("Terms = %v, want %v", terms, want)
	}
}

func TestStemming(t *testing.T) {
	cases := map[string]string{
		"cats":     "cat",
		"indexing": "index",
		"optional": "option",
		"queries":  "query",
	}
	for word, want := range cases {
		if got := stem(word); got != want {
			t.Errorf("stem(%q) = %q, want %q", word, got, want)
		}
	}
}

func TestVectorCountsFrequencies(t *testing.T) {
	vec := Vector("Cat cat CATS dog")
	if vec["cat"] != 3 {
		t.Errorf("vec[cat] = %d, want 3", vec["cat"])
	}
	if vec["dog"] != 1 {
		t.Errorf("vec[dog] = %d, want 1", vec["dog"])
	}
	if len(vec) != 2 {
		t.Errorf("vec has %d terms, want 2: %v", len(vec), vec)
	}
}
