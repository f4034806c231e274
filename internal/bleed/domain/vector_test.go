package domain

import "testing"

func TestParseVector(t *testing.T) {
	for _, vector := range Vectors() {
		parsed, err := ParseVector("  " + string(vector) + " ")
		if err != nil {
			t.Fatalf("parse %q: %v", vector, err)
		}
		if parsed != vector {
			t.Fatalf("expected %q, got %q", vector, parsed)
		}
	}

	if _, err := ParseVector("gravity"); err == nil {
		t.Fatal("expected error for unknown vector")
	}
	if _, err := ParseVector(""); err == nil {
		t.Fatal("expected error for empty vector")
	}
}

func TestVectorAmplifies(t *testing.T) {
	if !VectorCommerce.Amplifies([]string{"festival", "trade"}) {
		t.Fatal("expected commerce to amplify trade tag")
	}
	if VectorCommerce.Amplifies([]string{"omen"}) {
		t.Fatal("expected commerce not to amplify dream tags")
	}
	if !VectorMemory.Amplifies([]string{" GRIEF "}) {
		t.Fatal("expected tag matching to normalize case and spacing")
	}
	if VectorDesire.Amplifies(nil) {
		t.Fatal("expected no amplification for empty tags")
	}
}
