package transfer

import (
	"testing"
)

func TestComputeIDDeterministic(t *testing.T) {
	secret := []byte("shared-secret")
	in := IDInputs{SourceBlockNumber: 100, SourceTxHash: "0xabc", SourceLogIndex: 2}

	id1 := ComputeID(secret, in)
	id2 := ComputeID(secret, in)
	if id1 != id2 {
		t.Fatalf("ComputeID not deterministic: %q != %q", id1, id2)
	}
	for _, r := range id1 {
		if r < '0' || r > '9' {
			t.Fatalf("expected a decimal id, got %q", id1)
		}
	}
}

func TestComputeIDDiffersBySecret(t *testing.T) {
	in := IDInputs{SourceBlockNumber: 100, SourceTxHash: "0xabc", SourceLogIndex: 2}
	id1 := ComputeID([]byte("secret-a"), in)
	id2 := ComputeID([]byte("secret-b"), in)
	if id1 == id2 {
		t.Fatalf("expected different secrets to produce different ids")
	}
}

func TestComputeIDDiffersByInput(t *testing.T) {
	secret := []byte("shared-secret")
	base := IDInputs{SourceBlockNumber: 100, SourceTxHash: "0xabc", SourceLogIndex: 2}
	variants := []IDInputs{
		{SourceBlockNumber: 101, SourceTxHash: base.SourceTxHash, SourceLogIndex: base.SourceLogIndex},
		{SourceBlockNumber: base.SourceBlockNumber, SourceTxHash: "0xdef", SourceLogIndex: base.SourceLogIndex},
		{SourceBlockNumber: base.SourceBlockNumber, SourceTxHash: base.SourceTxHash, SourceLogIndex: 3},
	}
	baseID := ComputeID(secret, base)
	for _, v := range variants {
		if ComputeID(secret, v) == baseID {
			t.Fatalf("expected variant %+v to differ from base id", v)
		}
	}
}

func TestAnchorRouteToFirstNode(t *testing.T) {
	tr := &Transfer{ID: "deadbeef"}
	if got := tr.Anchor(true); got.Sign() != 0 {
		t.Fatalf("expected zero anchor when routing to first node, got %v", got)
	}
}

func TestAnchorParsesDecimalID(t *testing.T) {
	tr := &Transfer{ID: "255"}
	got := tr.Anchor(false)
	if got.Int64() != 255 {
		t.Fatalf("expected anchor 255, got %v", got)
	}
}

func TestAnchorNonDecimalIDFallsBackToZero(t *testing.T) {
	tr := &Transfer{ID: "not-decimal"}
	if got := tr.Anchor(false); got.Sign() != 0 {
		t.Fatalf("expected zero anchor for non-decimal id, got %v", got)
	}
}
