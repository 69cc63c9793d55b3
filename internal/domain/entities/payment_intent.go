package entities

import (
	"bytes"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// PaymentIntent describes one pay action. It is passed by value and never
// modified after it is built.
type PaymentIntent struct {
	Amount           string
	TokenAddress     string
	TokenDecimals    uint8
	RecipientAddress string
	SourceChain      ChainID
	DestinationChain ChainID
	// RemoteTokenAddress is the token's address on the destination chain.
	// Optional; the network profile mapping is used when empty.
	RemoteTokenAddress string
}

// CallKind tells the submitter how to interpret a ConstructedCall.
type CallKind string

const (
	CallKindNativeTransfer CallKind = "NATIVE_TRANSFER"
	CallKindTokenTransfer  CallKind = "TOKEN_TRANSFER"
	CallKindBridgeToken    CallKind = "BRIDGE_TOKEN"
)

// BridgeTransfer holds the arguments of a bridgeToken call.
type BridgeTransfer struct {
	LocalToken   Address
	RemoteToken  CanonicalAddress32
	To           CanonicalAddress32
	RemoteAmount *big.Int
}

// ConstructedCall is an unsigned on-chain call ready for submission. Its
// fields are only reachable through accessors, which return copies.
type ConstructedCall struct {
	kind     CallKind
	route    PaymentRoute
	chain    ChainID
	target   Address
	value    *big.Int
	method   string
	data     []byte
	transfer *BridgeTransfer
}

// NewNativeTransferCall builds a plain value transfer.
func NewNativeTransferCall(route PaymentRoute, chain ChainID, to Address, value *big.Int) ConstructedCall {
	return ConstructedCall{
		kind:   CallKindNativeTransfer,
		route:  route,
		chain:  chain,
		target: to,
		value:  new(big.Int).Set(value),
	}
}

// NewContractCall builds a call to a contract with pre-encoded calldata.
// transfer is only set for bridge calls.
func NewContractCall(kind CallKind, route PaymentRoute, chain ChainID, target Address, method string, data []byte, transfer *BridgeTransfer) ConstructedCall {
	call := ConstructedCall{
		kind:   kind,
		route:  route,
		chain:  chain,
		target: target,
		value:  new(big.Int),
		method: method,
		data:   bytes.Clone(data),
	}
	if transfer != nil {
		t := *transfer
		t.RemoteAmount = new(big.Int).Set(transfer.RemoteAmount)
		call.transfer = &t
	}
	return call
}

func (c ConstructedCall) Kind() CallKind      { return c.kind }
func (c ConstructedCall) Route() PaymentRoute { return c.route }
func (c ConstructedCall) Chain() ChainID      { return c.chain }
func (c ConstructedCall) Target() Address     { return c.target }
func (c ConstructedCall) Method() string      { return c.method }

func (c ConstructedCall) Value() *big.Int {
	if c.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(c.value)
}

func (c ConstructedCall) Data() []byte {
	return bytes.Clone(c.data)
}

// BridgeTransfer returns the bridge arguments, or false for direct calls.
func (c ConstructedCall) BridgeTransfer() (BridgeTransfer, bool) {
	if c.transfer == nil {
		return BridgeTransfer{}, false
	}
	t := *c.transfer
	t.RemoteAmount = new(big.Int).Set(c.transfer.RemoteAmount)
	return t, true
}

type bridgeTransferJSON struct {
	LocalToken   string `json:"localToken"`
	RemoteToken  string `json:"remoteToken"`
	To           string `json:"to"`
	RemoteAmount string `json:"remoteAmount"`
}

type constructedCallJSON struct {
	Kind     CallKind            `json:"kind"`
	Route    PaymentRoute        `json:"route"`
	Chain    ChainID             `json:"chain"`
	Target   string              `json:"to"`
	Value    string              `json:"value"`
	Method   string              `json:"method,omitempty"`
	Data     string              `json:"data"`
	Transfer *bridgeTransferJSON `json:"bridgeTransfer,omitempty"`
}

func (c ConstructedCall) MarshalJSON() ([]byte, error) {
	out := constructedCallJSON{
		Kind:   c.kind,
		Route:  c.route,
		Chain:  c.chain,
		Target: c.target.String(),
		Value:  c.Value().String(),
		Method: c.method,
		Data:   hexutil.Encode(c.data),
	}
	if c.transfer != nil {
		out.Transfer = &bridgeTransferJSON{
			LocalToken:   c.transfer.LocalToken.String(),
			RemoteToken:  c.transfer.RemoteToken.Hex(),
			To:           c.transfer.To.Hex(),
			RemoteAmount: c.transfer.RemoteAmount.String(),
		}
	}
	return json.Marshal(out)
}
