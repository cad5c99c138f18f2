package statusapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/klingon-exchange/dib-relay/internal/duty"
	"github.com/klingon-exchange/dib-relay/internal/transfer"
)

func freePort(t *testing.T) string {
	t.Helper()
	return "127.0.0.1:0"
}

func startTestServer(t *testing.T, register *transfer.Register, cfg duty.Config) (*Server, string) {
	t.Helper()
	s := New(register, cfg)
	if err := s.Start(freePort(t)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	addr := s.listener.Addr().String()
	t.Cleanup(func() { s.Stop() })
	return s, addr
}

func TestHandleStatus(t *testing.T) {
	reg := transfer.New()
	reg.Register(&transfer.Transfer{ID: "t1", InitiatorID: "i1"})
	cfg := duty.Config{NodeID: 1, NodeCount: 2}

	_, addr := startTestServer(t, reg, cfg)

	resp, err := http.Get(fmt.Sprintf("http://%s/status", addr))
	if err != nil {
		t.Fatalf("GET /status: %v", err)
	}
	defer resp.Body.Close()

	var got statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.NodeID != 1 || got.NodeCount != 2 {
		t.Fatalf("unexpected node id/count: %+v", got)
	}
	if got.Registry != 1 {
		t.Fatalf("expected registry=1, got %d", got.Registry)
	}
}

func TestHandleTransfers(t *testing.T) {
	reg := transfer.New()
	reg.Register(&transfer.Transfer{
		ID:                  "t1",
		InitiatorID:         "i1",
		InitiationTimestamp: time.Now().Unix(),
	})
	cfg := duty.Config{NodeID: 1, NodeCount: 1, TimeoutInitial: time.Hour, TimeoutBackoff: 2}

	_, addr := startTestServer(t, reg, cfg)

	resp, err := http.Get(fmt.Sprintf("http://%s/transfers", addr))
	if err != nil {
		t.Fatalf("GET /transfers: %v", err)
	}
	defer resp.Body.Close()

	var got []transferView
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 transfer, got %d", len(got))
	}
	if got[0].ID != "t1" {
		t.Fatalf("expected id t1, got %q", got[0].ID)
	}
	if !got[0].MyDuty {
		t.Fatalf("expected the sole node to own a fresh transfer")
	}
}
