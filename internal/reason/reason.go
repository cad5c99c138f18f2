// Package reason defines the shared error-reason enum passed between the
// initiator and responder ledgers when a transfer aborts or fails
// verification.
package reason

import (
	"crypto/md5"
	"encoding/binary"
)

// Code is a reason code carried in interledgerAbort/interledgerError calls.
// Values must stay stable across a deployment: every node computes the same
// codes independently, and a live chain may already hold transactions
// referencing them.
type Code uint32

// Shared reason codes. TransactionFailure starts at 2 to match the
// original deployment's numbering (0 and 1 were reserved for
// protocol-internal use that predates this bridge).
const (
	TransactionFailure Code = 2
	Timeout            Code = 3
	ApplicationReject  Code = 4
	InquiryReject      Code = 5
)

// InvalidTransfer is the fixed sentinel the verifier reports on both ledgers
// when a transfer fails cross-ledger consistency checks. It is derived once
// from md5("INVALID_TRANSFER") rather than picked arbitrarily, so that two
// independently-built nodes agree on it without coordination.
var InvalidTransfer = computeInvalidTransferCode()

func computeInvalidTransferCode() Code {
	sum := md5.Sum([]byte("INVALID_TRANSFER"))
	return Code(binary.BigEndian.Uint32(sum[:4]))
}

// String renders a human-readable label for logging.
func (c Code) String() string {
	switch c {
	case TransactionFailure:
		return "TRANSACTION_FAILURE"
	case Timeout:
		return "TIMEOUT"
	case ApplicationReject:
		return "APPLICATION_REJECT"
	case InquiryReject:
		return "INQUIRY_REJECT"
	case InvalidTransfer:
		return "INVALID_TRANSFER"
	default:
		return "UNKNOWN"
	}
}

// Kind classifies an adapter-level failure before it is mapped to a wire
// Code.
type Kind string

const (
	KindNone              Kind = ""
	KindTransactionFailure Kind = "transaction_failure"
	KindTimeout           Kind = "timeout"
	KindApplicationReject Kind = "application_reject"
	KindInquiryReject     Kind = "inquiry_reject"
)

// ToCode maps an adapter Kind to its wire Code. KindNone maps to
// TransactionFailure: a failed send with no explicit error code still needs
// an abort reason, so it falls back to the generic failure code.
func (k Kind) ToCode() Code {
	switch k {
	case KindTimeout:
		return Timeout
	case KindApplicationReject:
		return ApplicationReject
	case KindInquiryReject:
		return InquiryReject
	default:
		return TransactionFailure
	}
}
