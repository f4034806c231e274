package domain

import "testing"

func TestEchoStatusTransitions(t *testing.T) {
	allowed := map[EchoStatus][]EchoStatus{
		EchoPending:  {EchoApproved, EchoRejected},
		EchoApproved: {EchoManifested},
	}
	statuses := []EchoStatus{EchoPending, EchoApproved, EchoRejected, EchoManifested}

	for _, from := range statuses {
		for _, to := range statuses {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			if got := from.CanTransition(to); got != want {
				t.Fatalf("transition %s -> %s: expected %v, got %v", from, to, want, got)
			}
		}
	}
}

func TestEchoValidate(t *testing.T) {
	echo := Echo{
		ID:        "echo-1",
		EventID:   "event-1",
		ParentID:  "event-1",
		EmbassyID: "emb-1",
		WorldID:   "world-b",
		Depth:     1,
		Strength:  0.54,
		Status:    EchoPending,
		Impact:    9,
	}
	if err := echo.Validate(); err != nil {
		t.Fatalf("valid echo rejected: %v", err)
	}

	deep := echo
	deep.Depth = 4
	if err := deep.Validate(); err == nil {
		t.Fatal("expected depth 4 to be rejected")
	}

	weak := echo
	weak.Strength = 0
	if err := weak.Validate(); err == nil {
		t.Fatal("expected zero strength to be rejected")
	}
}

func TestEchoTerminal(t *testing.T) {
	if (Echo{Status: EchoPending}).Terminal() {
		t.Fatal("pending is not terminal")
	}
	if !(Echo{Status: EchoRejected}).Terminal() {
		t.Fatal("rejected is terminal")
	}
	if !(Echo{Status: EchoManifested}).Terminal() {
		t.Fatal("manifested is terminal")
	}
}
