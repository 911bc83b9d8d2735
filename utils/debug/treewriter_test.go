package debug

import "testing"

func TestTreeWriter(t *testing.T) {
	tw := NewTreeWriter()
	if tw.String() != "" {
		t.Fatal("expected empty output from new writer")
	}

	tw.Line(0, "book %d", 1)
	tw.Field(1, "title", "Família \"Silva\"")
	tw.Field(1, "subtitle", "")
	tw.Line(2, "page")

	want := "book 1\n  title: \"Família \\\"Silva\\\"\"\n    page\n"
	if got := tw.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
