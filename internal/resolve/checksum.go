package resolve

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ChecksumAddress normalizes a hex address to its EIP-55 mixed-case
// form. Inputs that are not well-formed addresses are rejected so the
// caller can fall back to the raw value.
func ChecksumAddress(address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("not a hex address: %q", address)
	}
	return common.HexToAddress(address).Hex(), nil
}
