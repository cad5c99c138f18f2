// Package contracts holds the ABI definitions and thin bound-contract
// wrappers for the two interledger entry points an Ethereum deployment
// exposes: the source side (commit/abort/error, reached by the initiator
// adapter) and the destination side (receive/error, reached by the
// responder adapter). Neither contract ships compiled bytecode here; both
// are assumed already deployed, so only the ABI is needed to pack calls
// and decode logs.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const sourceABIJSON = `[
	{"type":"function","name":"interledgerCommit","inputs":[{"name":"id","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"interledgerAbort","inputs":[{"name":"id","type":"uint256"},{"name":"reasonCode","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"interledgerError","inputs":[{"name":"id","type":"uint256"},{"name":"reasonCode","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"InterledgerEventSending","inputs":[{"name":"id","type":"uint256","indexed":true},{"name":"to","type":"address","indexed":true},{"name":"data","type":"bytes","indexed":false}],"anonymous":false}
]`

const destinationABIJSON = `[
	{"type":"function","name":"interledgerReceive","inputs":[{"name":"nonce","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"interledgerReceiveAbort","inputs":[{"name":"nonce","type":"uint256"},{"name":"reasonCode","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"interledgerError","inputs":[{"name":"nonce","type":"uint256"},{"name":"reasonCode","type":"uint256"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"event","name":"InterledgerEventAccepted","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false},
	{"type":"event","name":"InterledgerEventRejected","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false},
	{"type":"event","name":"InterledgerInquiryAccepted","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false},
	{"type":"event","name":"InterledgerInquiryRejected","inputs":[{"name":"id","type":"uint256","indexed":true}],"anonymous":false}
]`

// SourceABI and DestinationABI are parsed once at package init and reused
// by every bound contract instance.
var (
	SourceABI      abi.ABI
	DestinationABI abi.ABI
)

func init() {
	var err error
	SourceABI, err = abi.JSON(strings.NewReader(sourceABIJSON))
	if err != nil {
		panic("contracts: invalid source ABI: " + err.Error())
	}
	DestinationABI, err = abi.JSON(strings.NewReader(destinationABIJSON))
	if err != nil {
		panic("contracts: invalid destination ABI: " + err.Error())
	}
}
