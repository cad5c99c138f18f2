package ethereum

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// decodeUint256Arg unpacks the argIndex'th argument of a call to method,
// assuming it's a uint256 (used for both contracts' leading id/nonce
// parameter).
func decodeUint256Arg(parsed abi.ABI, method string, data []byte, argIndex int) (*big.Int, error) {
	args, err := unpackCallArgs(parsed, method, data)
	if err != nil {
		return nil, err
	}
	if argIndex >= len(args) {
		return nil, fmt.Errorf("ethereum: argument %d out of range for %s", argIndex, method)
	}
	id, ok := args[argIndex].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("ethereum: argument %d of %s is not a uint256", argIndex, method)
	}
	return id, nil
}

// decodeBytesArg unpacks the argIndex'th argument of a call to method,
// assuming it's a dynamic bytes value.
func decodeBytesArg(parsed abi.ABI, method string, data []byte, argIndex int) ([]byte, error) {
	args, err := unpackCallArgs(parsed, method, data)
	if err != nil {
		return nil, err
	}
	if argIndex >= len(args) {
		return nil, fmt.Errorf("ethereum: argument %d out of range for %s", argIndex, method)
	}
	b, ok := args[argIndex].([]byte)
	if !ok {
		return nil, fmt.Errorf("ethereum: argument %d of %s is not bytes", argIndex, method)
	}
	return b, nil
}

func unpackCallArgs(parsed abi.ABI, method string, data []byte) ([]interface{}, error) {
	m, ok := parsed.Methods[method]
	if !ok {
		return nil, fmt.Errorf("ethereum: unknown method %q", method)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("ethereum: calldata too short for %s", method)
	}
	return m.Inputs.Unpack(data[4:])
}
