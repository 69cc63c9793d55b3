package entities

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/ethereum/go-ethereum/common"

	domainerrors "paybridge.backend/internal/domain/errors"
)

const (
	evmAddressLength    = common.AddressLength
	solanaAddressLength = 32
	canonicalPadding    = CanonicalAddressLength - evmAddressLength
)

// CanonicalAddressLength is the size of the bridge wire form.
const CanonicalAddressLength = 32

// CanonicalAddress32 is the chain-agnostic 32-byte form exchanged with the
// bridge. It is never a native address on either chain.
type CanonicalAddress32 [CanonicalAddressLength]byte

// Hex returns the 0x-prefixed hex form used as a bytes32 ABI argument.
func (c CanonicalAddress32) Hex() string {
	return "0x" + hex.EncodeToString(c[:])
}

func (c CanonicalAddress32) String() string {
	return c.Hex()
}

// AddressKind tags which chain an Address belongs to.
type AddressKind uint8

const (
	AddressKindUnknown AddressKind = iota
	AddressKindEVM
	AddressKindSolana
)

// Address is either a 20-byte EVM address or a 32-byte Solana public key.
// The zero value is invalid and is rejected by every codec operation.
type Address struct {
	kind   AddressKind
	evm    common.Address
	solana [solanaAddressLength]byte
}

// NewEVMAddress wraps raw EVM address bytes.
func NewEVMAddress(b [evmAddressLength]byte) Address {
	return Address{kind: AddressKindEVM, evm: common.Address(b)}
}

// NewSolanaAddress wraps a raw Solana public key.
func NewSolanaAddress(b [solanaAddressLength]byte) Address {
	return Address{kind: AddressKindSolana, solana: b}
}

// ParseAddress parses the textual form of an address on the given chain.
func ParseAddress(chain ChainID, text string) (Address, error) {
	switch chain {
	case ChainA:
		// only a lower-case 0x prefix is accepted
		if strings.HasPrefix(text, "0X") || !common.IsHexAddress(text) {
			return Address{}, fmt.Errorf("%w: %q is not a 20-byte hex address", domainerrors.ErrInvalidAddress, text)
		}
		return Address{kind: AddressKindEVM, evm: common.HexToAddress(text)}, nil
	case ChainB:
		decoded := base58.Decode(text)
		if len(decoded) != solanaAddressLength {
			return Address{}, fmt.Errorf("%w: %q does not decode to 32 bytes", domainerrors.ErrInvalidAddress, text)
		}
		var key [solanaAddressLength]byte
		copy(key[:], decoded)
		return NewSolanaAddress(key), nil
	}
	return Address{}, fmt.Errorf("%w: unknown chain %q", domainerrors.ErrInvalidAddress, chain)
}

// IsValidAddress reports whether text is a well-formed address on chain.
func IsValidAddress(chain ChainID, text string) bool {
	_, err := ParseAddress(chain, text)
	return err == nil
}

func (a Address) Kind() AddressKind {
	return a.kind
}

// Chain returns the chain the address belongs to, or "" for the zero value.
func (a Address) Chain() ChainID {
	switch a.kind {
	case AddressKindEVM:
		return ChainA
	case AddressKindSolana:
		return ChainB
	}
	return ""
}

// IsZero reports whether the address is the unset value or an all-zero key.
func (a Address) IsZero() bool {
	switch a.kind {
	case AddressKindEVM:
		return a.evm == (common.Address{})
	case AddressKindSolana:
		return a.solana == [solanaAddressLength]byte{}
	}
	return true
}

// Bytes returns a copy of the native address bytes.
func (a Address) Bytes() []byte {
	switch a.kind {
	case AddressKindEVM:
		return a.evm.Bytes()
	case AddressKindSolana:
		return bytes.Clone(a.solana[:])
	}
	return nil
}

// EVM returns the go-ethereum form. Only meaningful for EVM addresses.
func (a Address) EVM() common.Address {
	return a.evm
}

// String returns the checksummed hex form for EVM and base58 for Solana.
func (a Address) String() string {
	switch a.kind {
	case AddressKindEVM:
		return a.evm.Hex()
	case AddressKindSolana:
		return base58.Encode(a.solana[:])
	}
	return ""
}

// ToCanonical converts an address into its 32-byte bridge form. EVM
// addresses are left-padded with zeros.
func ToCanonical(a Address) (CanonicalAddress32, error) {
	var out CanonicalAddress32
	switch a.kind {
	case AddressKindEVM:
		copy(out[canonicalPadding:], a.evm[:])
		return out, nil
	case AddressKindSolana:
		copy(out[:], a.solana[:])
		return out, nil
	}
	return out, fmt.Errorf("%w: address is not set", domainerrors.ErrInvalidAddress)
}

// FromCanonical converts the bridge form back into a native address of the
// target chain. For ChainA the high 12 bytes must be zero.
func FromCanonical(c CanonicalAddress32, target ChainID) (Address, error) {
	switch target {
	case ChainA:
		for _, b := range c[:canonicalPadding] {
			if b != 0 {
				return Address{}, fmt.Errorf("%w: %s has non-zero high bytes", domainerrors.ErrPrecisionLoss, c.Hex())
			}
		}
		var raw [evmAddressLength]byte
		copy(raw[:], c[canonicalPadding:])
		return NewEVMAddress(raw), nil
	case ChainB:
		return NewSolanaAddress(c), nil
	}
	return Address{}, fmt.Errorf("%w: unknown chain %q", domainerrors.ErrInvalidAddress, target)
}

// CanonicalFromText parses and canonicalizes in one step.
func CanonicalFromText(chain ChainID, text string) (CanonicalAddress32, error) {
	addr, err := ParseAddress(chain, text)
	if err != nil {
		return CanonicalAddress32{}, err
	}
	return ToCanonical(addr)
}
