package usecases

import "github.com/ethereum/go-ethereum/crypto"

// computeSelector returns the 4-byte EVM function selector of a canonical
// function signature.
func computeSelector(sig string) []byte {
	return crypto.Keccak256([]byte(sig))[:4]
}

// Canonical signatures of the calls built by the payment constructor.
const (
	ERC20TransferSignature = "transfer(address,uint256)"
	BridgeTokenSignature   = "bridgeToken((address,bytes32,bytes32,uint256),(address,uint256,bytes)[])"
)
