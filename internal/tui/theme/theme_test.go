package theme

import "testing"

func TestForMode(t *testing.T) {
	if got := ForMode("dolla-dark", false).Name; got != "dolla-light" {
		t.Fatalf("ForMode(dolla-dark, light) = %q, want dolla-light", got)
	}
	if got := ForMode("dolla-light", true).Name; got != "dolla-dark" {
		t.Fatalf("ForMode(dolla-light, dark) = %q, want dolla-dark", got)
	}
	if got := ForMode("terminal", false).Name; got != "terminal" {
		t.Fatalf("ForMode(terminal) = %q, want terminal", got)
	}
	if got := ByName("nope").Name; got != "dolla-dark" {
		t.Fatalf("ByName(nope) = %q, want dolla-dark", got)
	}
}

func TestCategoryColorCycles(t *testing.T) {
	n := len(DollaDark.Slices)
	if DollaDark.CategoryColor(0) != DollaDark.CategoryColor(n) {
		t.Fatal("CategoryColor should wrap around the palette")
	}
	if DollaDark.CategoryColor(0) == DollaDark.CategoryColor(1) {
		t.Fatal("adjacent slices share a color")
	}
	empty := Theme{Primary: "#123456"}
	if empty.CategoryColor(3) != "#123456" {
		t.Fatal("empty palette should fall back to Primary")
	}
}
