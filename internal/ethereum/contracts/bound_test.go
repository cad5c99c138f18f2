package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

func TestSourceContractPackAndDecodeSelector(t *testing.T) {
	c := NewSourceContract(common.HexToAddress("0x01"))

	data, err := c.PackCommit(big.NewInt(42), []byte("payload"))
	if err != nil {
		t.Fatalf("PackCommit: %v", err)
	}
	if got := c.DecodeFunctionSelector(data); got != "interledgerCommit" {
		t.Fatalf("expected interledgerCommit, got %q", got)
	}

	data, err = c.PackAbort(big.NewInt(42), big.NewInt(3))
	if err != nil {
		t.Fatalf("PackAbort: %v", err)
	}
	if got := c.DecodeFunctionSelector(data); got != "interledgerAbort" {
		t.Fatalf("expected interledgerAbort, got %q", got)
	}
}

func TestSourceContractDecodeSelectorUnknown(t *testing.T) {
	c := NewSourceContract(common.HexToAddress("0x01"))
	if got := c.DecodeFunctionSelector([]byte{0, 0, 0, 0}); got != "" {
		t.Fatalf("expected empty string for unknown selector, got %q", got)
	}
	if got := c.DecodeFunctionSelector([]byte{1, 2}); got != "" {
		t.Fatalf("expected empty string for too-short calldata, got %q", got)
	}
}

func TestDestinationContractPackAndDecodeSelector(t *testing.T) {
	d := NewDestinationContract(common.HexToAddress("0x02"))

	data, err := d.PackReceive(big.NewInt(7), []byte("x"))
	if err != nil {
		t.Fatalf("PackReceive: %v", err)
	}
	if got := d.DecodeFunctionSelector(data); got != "interledgerReceive" {
		t.Fatalf("expected interledgerReceive, got %q", got)
	}
}

func TestDestinationContractAckEventName(t *testing.T) {
	d := NewDestinationContract(common.HexToAddress("0x02"))
	ev := DestinationABI.Events["InterledgerEventAccepted"]
	idTopic := common.BigToHash(big.NewInt(99))

	log := types.Log{Topics: []common.Hash{ev.ID, idTopic}}
	if got := d.AckEventName(log); got != "InterledgerEventAccepted" {
		t.Fatalf("expected InterledgerEventAccepted, got %q", got)
	}

	id, err := d.AckEventID(log)
	if err != nil {
		t.Fatalf("AckEventID: %v", err)
	}
	if id.Cmp(big.NewInt(99)) != 0 {
		t.Fatalf("expected id 99, got %v", id)
	}
}

func TestDestinationContractAckEventNameNotAnOutcome(t *testing.T) {
	d := NewDestinationContract(common.HexToAddress("0x02"))
	log := types.Log{Topics: []common.Hash{common.HexToHash("0xdeadbeef")}}
	if got := d.AckEventName(log); got != "" {
		t.Fatalf("expected empty string for a non-outcome log, got %q", got)
	}
}
