package entities

import (
	"fmt"
	"strings"

	domainerrors "paybridge.backend/internal/domain/errors"
)

// ChainID identifies one of the two supported chains. The set is closed:
// adding a chain means adding a constant here and teaching the codecs and
// the route policy about it.
type ChainID string

const (
	// ChainA is the EVM-style chain (Base).
	ChainA ChainID = "base"
	// ChainB is the Solana-style chain.
	ChainB ChainID = "solana"
)

// AllChains lists every supported chain in a stable order.
func AllChains() []ChainID {
	return []ChainID{ChainA, ChainB}
}

// ParseChainID converts an external chain name into a ChainID.
func ParseChainID(s string) (ChainID, error) {
	candidate := ChainID(strings.ToLower(strings.TrimSpace(s)))
	if candidate.IsValid() {
		return candidate, nil
	}
	names := make([]string, 0, 2)
	for _, c := range AllChains() {
		names = append(names, string(c))
	}
	return "", fmt.Errorf("%w: unknown chain %q (supported: %s)", domainerrors.ErrInvalidInput, s, strings.Join(names, ", "))
}

// IsValid reports whether c is one of the known chains.
func (c ChainID) IsValid() bool {
	for _, known := range AllChains() {
		if c == known {
			return true
		}
	}
	return false
}

func (c ChainID) String() string {
	return string(c)
}

// UnmarshalText rejects unknown chain names at the JSON boundary.
func (c *ChainID) UnmarshalText(text []byte) error {
	parsed, err := ParseChainID(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (c ChainID) MarshalText() ([]byte, error) {
	return []byte(c), nil
}
