package duty

import (
	"testing"
	"time"

	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

func mkTransfer(id string, bornAgo time.Duration, now time.Time) *transfer.Transfer {
	return &transfer.Transfer{
		ID:                  id,
		InitiatorID:         "1",
		InitiationTimestamp: now.Add(-bornAgo).Unix(),
	}
}

func TestResolvePeriod(t *testing.T) {
	cfg := Config{TimeoutInitial: 30 * time.Second, TimeoutBackoff: 2}

	tests := []struct {
		name     string
		age      time.Duration
		wantK    int
		wantDur  time.Duration
	}{
		{"fresh", 10 * time.Second, 0, 30 * time.Second},
		{"end of period 0", 29 * time.Second, 0, 30 * time.Second},
		{"start of period 1", 31 * time.Second, 1, 60 * time.Second},
		{"deep in period 2", 30*time.Second + 60*time.Second + 10*time.Second, 2, 120 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolvePeriod(tt.age, cfg)
			if p.K != tt.wantK {
				t.Errorf("K = %d, want %d", p.K, tt.wantK)
			}
			if p.Duration != tt.wantDur {
				t.Errorf("Duration = %v, want %v", p.Duration, tt.wantDur)
			}
		})
	}
}

func TestEvaluateDeadZoneSilence(t *testing.T) {
	// At age timeout_initial*0.75 (second half of period 0), no node
	// should claim duty.
	now := time.Now()
	cfg := Config{TimeoutInitial: 30 * time.Second, TimeoutBackoff: 2, NodeCount: 3}
	transferAge := 22500 * time.Millisecond // 0.75 * 30s
	tr := mkTransfer("01", transferAge, now)

	for node := 1; node <= cfg.NodeCount; node++ {
		c := cfg
		c.NodeID = node
		mine, timedOut := Evaluate(tr, now, c)
		if mine {
			t.Errorf("node %d claimed duty in the dead zone", node)
		}
		if timedOut {
			t.Errorf("node %d saw timed-out in period 0", node)
		}
	}
}

func TestEvaluateSingleOwnerPerPeriod(t *testing.T) {
	// At age 5s, in the first half of period 0, exactly one node claims
	// duty (the dead zone is covered by TestEvaluateDeadZoneSilence).
	now := time.Now()
	cfg := Config{TimeoutInitial: 30 * time.Second, TimeoutBackoff: 2, NodeCount: 5}
	tr := mkTransfer("ff", 5*time.Second, now)

	owners := 0
	for node := 1; node <= cfg.NodeCount; node++ {
		c := cfg
		c.NodeID = node
		if mine, _ := Evaluate(tr, now, c); mine {
			owners++
		}
	}
	if owners != 1 {
		t.Fatalf("expected exactly one owner in the first half of period 0, got %d", owners)
	}
}

func TestEvaluateTakeoverAfterPeriodZero(t *testing.T) {
	// Node 1 owns period 0; once period 1 starts the owner rotates and
	// the transfer is marked timed out.
	cfg := Config{TimeoutInitial: 30 * time.Second, TimeoutBackoff: 2, NodeCount: 3}
	now := time.Now()
	tr := mkTransfer("0", 5*time.Second, now) // anchor 0 -> owner node 1 in period 0

	c1 := cfg
	c1.NodeID = 1
	if mine, timedOut := Evaluate(tr, now, c1); !mine || timedOut {
		t.Fatalf("expected node 1 to own period 0 without timeout, got mine=%v timedOut=%v", mine, timedOut)
	}

	later := now.Add(31 * time.Second) // just past period 0 -> period 1
	c2 := cfg
	c2.NodeID = 2
	if mine, timedOut := Evaluate(tr, later, c2); !mine || !timedOut {
		t.Fatalf("expected node 2 to take over in period 1 (timed out), got mine=%v timedOut=%v", mine, timedOut)
	}
}

func TestRouteToFirstNodeCollapsesAnchor(t *testing.T) {
	cfg := Config{TimeoutInitial: 30 * time.Second, TimeoutBackoff: 2, NodeCount: 4, RouteToFirstNode: true, NodeID: 1}
	now := time.Now()
	tr := mkTransfer("deadbeef", 5*time.Second, now)

	mine, _ := Evaluate(tr, now, cfg)
	if !mine {
		t.Fatal("expected node 1 to own every transfer when route_to_first_node is set")
	}
}
