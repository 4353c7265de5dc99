package subject

import "testing"

func TestParseType(t *testing.T) {
	if typ, ok := ParseType(" Question "); !ok || typ != TypeQuestion {
		t.Fatalf("expected question, got %q ok=%v", typ, ok)
	}
	if typ, ok := ParseType("answer"); !ok || typ != TypeAnswer {
		t.Fatalf("expected answer, got %q ok=%v", typ, ok)
	}
	if _, ok := ParseType("comment"); ok {
		t.Fatal("expected unknown type to be rejected")
	}
}

func TestRefNaming(t *testing.T) {
	r := Ref{Type: TypeAnswer, ID: 42}
	if got := r.Tag(); got != "subject:answer:42" {
		t.Fatalf("tag: got %q", got)
	}
	if got := r.Channel(); got != "private-answer.42" {
		t.Fatalf("channel: got %q", got)
	}
	if got := CollectionChannel("questions"); got != "private-questions" {
		t.Fatalf("collection channel: got %q", got)
	}
}

func TestRefValid(t *testing.T) {
	if !(Ref{Type: TypeSolution, ID: 1}).Valid() {
		t.Fatal("expected valid ref")
	}
	if (Ref{Type: TypeSolution, ID: 0}).Valid() {
		t.Fatal("zero id must be invalid")
	}
	if (Ref{Type: "post", ID: 3}).Valid() {
		t.Fatal("unknown type must be invalid")
	}
}
