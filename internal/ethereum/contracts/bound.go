package contracts

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// SourceContract packs calls and decodes logs for the source-ledger side
// of a bridge deployment.
type SourceContract struct {
	Address common.Address
}

// NewSourceContract binds to an already-deployed source contract.
func NewSourceContract(address common.Address) *SourceContract {
	return &SourceContract{Address: address}
}

// PackCommit encodes interledgerCommit(id, data). data may be nil; it is
// packed as an empty byte slice.
func (s *SourceContract) PackCommit(id *big.Int, data []byte) ([]byte, error) {
	if data == nil {
		data = []byte{}
	}
	return SourceABI.Pack("interledgerCommit", id, data)
}

// PackAbort encodes interledgerAbort(id, reasonCode).
func (s *SourceContract) PackAbort(id *big.Int, reasonCode *big.Int) ([]byte, error) {
	return SourceABI.Pack("interledgerAbort", id, reasonCode)
}

// PackError encodes interledgerError(id, reasonCode).
func (s *SourceContract) PackError(id *big.Int, reasonCode *big.Int) ([]byte, error) {
	return SourceABI.Pack("interledgerError", id, reasonCode)
}

// DecodeFunctionSelector classifies calldata by matching its 4-byte
// selector against the known source methods, returning "" if none match.
func (s *SourceContract) DecodeFunctionSelector(data []byte) string {
	return matchSelector(SourceABI, data)
}

// SendingEvent is the decoded form of InterledgerEventSending.
type SendingEvent struct {
	ID   *big.Int
	To   common.Address
	Data []byte
}

// ParseSending decodes an InterledgerEventSending log, or returns ok=false
// if log isn't one.
func (s *SourceContract) ParseSending(log types.Log) (*SendingEvent, bool) {
	ev, ok := SourceABI.Events["InterledgerEventSending"]
	if !ok || len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return nil, false
	}
	out := new(struct {
		Data []byte
	})
	if err := SourceABI.UnpackIntoInterface(out, "InterledgerEventSending", log.Data); err != nil {
		return nil, false
	}
	if len(log.Topics) < 3 {
		return nil, false
	}
	return &SendingEvent{
		ID:   new(big.Int).SetBytes(log.Topics[1].Bytes()),
		To:   common.BytesToAddress(log.Topics[2].Bytes()),
		Data: out.Data,
	}, true
}

// DestinationContract packs calls and decodes logs for the destination-
// ledger side of a bridge deployment.
type DestinationContract struct {
	Address common.Address
}

// NewDestinationContract binds to an already-deployed destination contract.
func NewDestinationContract(address common.Address) *DestinationContract {
	return &DestinationContract{Address: address}
}

// PackReceive encodes interledgerReceive(nonce, data).
func (d *DestinationContract) PackReceive(nonce *big.Int, data []byte) ([]byte, error) {
	if data == nil {
		data = []byte{}
	}
	return DestinationABI.Pack("interledgerReceive", nonce, data)
}

// PackReceiveAbort encodes interledgerReceiveAbort(nonce, reasonCode), the
// multi-ledger inquiry-abort extension.
func (d *DestinationContract) PackReceiveAbort(nonce, reasonCode *big.Int) ([]byte, error) {
	return DestinationABI.Pack("interledgerReceiveAbort", nonce, reasonCode)
}

// PackError encodes interledgerError(nonce, reasonCode).
func (d *DestinationContract) PackError(nonce, reasonCode *big.Int) ([]byte, error) {
	return DestinationABI.Pack("interledgerError", nonce, reasonCode)
}

// DecodeFunctionSelector classifies calldata by matching its 4-byte
// selector against the known destination methods, returning "" if none
// match.
func (d *DestinationContract) DecodeFunctionSelector(data []byte) string {
	return matchSelector(DestinationABI, data)
}

// AckEventName returns which of the four outcome events a log is, or ""
// if it isn't one of them.
func (d *DestinationContract) AckEventName(log types.Log) string {
	if len(log.Topics) == 0 {
		return ""
	}
	for _, name := range []string{
		"InterledgerEventAccepted", "InterledgerEventRejected",
		"InterledgerInquiryAccepted", "InterledgerInquiryRejected",
	} {
		if ev, ok := DestinationABI.Events[name]; ok && log.Topics[0] == ev.ID {
			return name
		}
	}
	return ""
}

// AckEventID returns the id parameter of an outcome event log.
func (d *DestinationContract) AckEventID(log types.Log) (*big.Int, error) {
	if len(log.Topics) < 2 {
		return nil, fmt.Errorf("contracts: outcome event missing indexed id topic")
	}
	return new(big.Int).SetBytes(log.Topics[1].Bytes()), nil
}

func matchSelector(a abi.ABI, data []byte) string {
	if len(data) < 4 {
		return ""
	}
	for name, m := range a.Methods {
		if bytes.Equal(m.ID, data[:4]) {
			return name
		}
	}
	return ""
}
