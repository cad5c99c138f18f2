package ethereum

import (
	"math/big"
	"testing"

	"github.com/klingon-exchange/dib-relay/internal/ethereum/contracts"
)

func TestDecodeUint256ArgAndBytesArg(t *testing.T) {
	data, err := contracts.SourceABI.Pack("interledgerCommit", big.NewInt(123), []byte("hello"))
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	id, err := decodeUint256Arg(contracts.SourceABI, "interledgerCommit", data, 0)
	if err != nil {
		t.Fatalf("decodeUint256Arg: %v", err)
	}
	if id.Cmp(big.NewInt(123)) != 0 {
		t.Fatalf("expected id 123, got %v", id)
	}

	payload, err := decodeBytesArg(contracts.SourceABI, "interledgerCommit", data, 1)
	if err != nil {
		t.Fatalf("decodeBytesArg: %v", err)
	}
	if string(payload) != "hello" {
		t.Fatalf("expected payload %q, got %q", "hello", payload)
	}
}

func TestDecodeUint256ArgUnknownMethod(t *testing.T) {
	if _, err := decodeUint256Arg(contracts.SourceABI, "noSuchMethod", []byte{1, 2, 3, 4}, 0); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}

func TestDecodeUint256ArgShortCalldata(t *testing.T) {
	if _, err := decodeUint256Arg(contracts.SourceABI, "interledgerCommit", []byte{1, 2}, 0); err == nil {
		t.Fatalf("expected error for calldata shorter than a selector")
	}
}

func TestDecodeBytesArgWrongType(t *testing.T) {
	data, err := contracts.SourceABI.Pack("interledgerCommit", big.NewInt(1), []byte("x"))
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if _, err := decodeBytesArg(contracts.SourceABI, "interledgerCommit", data, 0); err == nil {
		t.Fatalf("expected error asking for a uint256 argument as bytes")
	}
}
