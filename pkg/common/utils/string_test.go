package utils

import (
	"testing"
)

func TestSplitCamelCase(t *testing.T) {
	for name, want := range map[string][]string{
		"getUserStats": {"get", "User", "Stats"},
		"listItems":    {"list", "Items"},
		"query":        {"query"},
		"":             nil,
	} {
		words := SplitCamelCase(name)
		if len(words) != len(want) {
			t.Fatalf("SplitCamelCase(%q) = %v, want %v", name, words, want)
		}
		for index, word := range want {
			if words[index] != word {
				t.Errorf("SplitCamelCase(%q)[%d] = %s, want %s", name, index, words[index], word)
			}
		}
	}
}

func TestUppercaseFirst(t *testing.T) {
	if got := UppercaseFirst("items"); got != "Items" {
		t.Errorf("UppercaseFirst = %s", got)
	}
	if got := UppercaseFirst(""); got != "" {
		t.Errorf("UppercaseFirst empty = %s", got)
	}
}

func TestFirstNotEmptyString(t *testing.T) {
	if got := FirstNotEmptyString("", "fallback", "later"); got != "fallback" {
		t.Errorf("FirstNotEmptyString = %s", got)
	}
}
