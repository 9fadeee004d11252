package game

import "testing"

func TestSanitizeRemovesUnsafeCharacters(t *testing.T) {
	input := " \tHello\u202e \x07World\x00 "
	got := Trim(sanitizeInput(input))
	want := "Hello World"
	if got != want {
		t.Fatalf("sanitizeInput(%q) = %q, want %q", input, got, want)
	}
}

func TestSanitizeNormalisesWhitespace(t *testing.T) {
	input := "Hello\tthere\u00a0friend"
	got := sanitizeInput(input)
	want := "Hello there friend"
	if got != want {
		t.Fatalf("sanitizeInput(%q) = %q, want %q", input, got, want)
	}
}

func TestTranslateForTelnet(t *testing.T) {
	got := string(translateForTelnet("a\nb\r\nc\xff"))
	want := "a\r\nb\r\nc\xff\xff"
	if got != want {
		t.Fatalf("translateForTelnet = %q, want %q", got, want)
	}
}

func TestExitListSortsNames(t *testing.T) {
	exits := []Exit{{Name: "west"}, {Name: "north"}, {Name: "east"}}
	if got := ExitList(exits); got != "east north west" {
		t.Fatalf("ExitList() = %q", got)
	}
	if got := ExitList(nil); got != "none" {
		t.Fatalf("ExitList(nil) = %q, want none", got)
	}
}

func TestFilterOutRemovesName(t *testing.T) {
	got := FilterOut([]string{"hero", "villain", "sidekick"}, "HERO")
	if len(got) != 2 || got[0] != "villain" || got[1] != "sidekick" {
		t.Fatalf("FilterOut() = %v", got)
	}
}
