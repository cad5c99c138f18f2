package transfer

import "testing"

func TestRegisterLifecycle(t *testing.T) {
	r := New()
	t1 := &Transfer{ID: "id-1", InitiatorID: "init-1"}
	t2 := &Transfer{ID: "id-2", InitiatorID: "init-2"}

	r.Register(t1)
	r.Register(t2)

	if r.Len() != 2 {
		t.Fatalf("expected 2 registered, got %d", r.Len())
	}
	if got := r.Get("id-1"); got != t1 {
		t.Fatalf("Get(id-1) = %v, want %v", got, t1)
	}
	if got := r.FindByInitiatorID("init-2"); got != t2 {
		t.Fatalf("FindByInitiatorID(init-2) = %v, want %v", got, t2)
	}

	gone := r.Deregister("id-1")
	if gone != t1 {
		t.Fatalf("Deregister(id-1) = %v, want %v", gone, t1)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 registered after deregister, got %d", r.Len())
	}
	if r.Get("id-1") != nil {
		t.Fatalf("expected id-1 gone from byID index")
	}
	if r.FindByInitiatorID("init-1") != nil {
		t.Fatalf("expected init-1 gone from byInitiator index")
	}
}

func TestRegisterDeregisterMissing(t *testing.T) {
	r := New()
	if got := r.Deregister("missing"); got != nil {
		t.Fatalf("expected nil for missing id, got %v", got)
	}
}

func TestRegisterIterateSnapshot(t *testing.T) {
	r := New()
	r.Register(&Transfer{ID: "a", InitiatorID: "ia"})
	r.Register(&Transfer{ID: "b", InitiatorID: "ib"})

	snap := r.Iterate()
	if len(snap) != 2 {
		t.Fatalf("expected snapshot of 2, got %d", len(snap))
	}

	r.Register(&Transfer{ID: "c", InitiatorID: "ic"})
	if len(snap) != 2 {
		t.Fatalf("snapshot should not observe later registrations")
	}
}

func TestRegisterOverwritesOnReregister(t *testing.T) {
	r := New()
	orig := &Transfer{ID: "dup", InitiatorID: "init-a"}
	r.Register(orig)
	replacement := &Transfer{ID: "dup", InitiatorID: "init-b"}
	r.Register(replacement)

	if r.Len() != 1 {
		t.Fatalf("expected re-registering the same id to overwrite, got len %d", r.Len())
	}
	if r.Get("dup") != replacement {
		t.Fatalf("expected replacement to win")
	}
	if r.FindByInitiatorID("init-a") != nil {
		t.Fatalf("expected stale initiator index entry to be gone")
	}
}
