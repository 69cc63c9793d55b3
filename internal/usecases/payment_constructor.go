package usecases

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"paybridge.backend/internal/config"
	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

const (
	methodTransfer    = "transfer"
	methodBridgeToken = "bridgeToken"
)

type bridgeTransferArg struct {
	LocalToken   common.Address
	RemoteToken  [32]byte
	To           [32]byte
	RemoteAmount *big.Int
}

type bridgeCallArg struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

// PaymentConstructor turns a PaymentIntent into an unsigned call. It never
// submits anything and holds no mutable state.
type PaymentConstructor struct {
	profile      config.NetworkProfile
	routes       *RouteSelector
	bridge       entities.Address
	transferArgs abi.Arguments
	bridgeArgs   abi.Arguments
}

// NewPaymentConstructor validates the profile's bridge address and prepares
// the ABI argument layouts.
func NewPaymentConstructor(profile config.NetworkProfile, routes *RouteSelector) (*PaymentConstructor, error) {
	bridge, err := entities.ParseAddress(entities.ChainA, profile.BridgeAddress)
	if err != nil {
		return nil, fmt.Errorf("network profile %q: bridge address: %w", profile.Name, err)
	}

	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ABI address type: %w", err)
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ABI uint256 type: %w", err)
	}
	transferTupleType, err := abi.NewType("tuple", "", []abi.ArgumentMarshaling{
		{Name: "localToken", Type: "address"},
		{Name: "remoteToken", Type: "bytes32"},
		{Name: "to", Type: "bytes32"},
		{Name: "remoteAmount", Type: "uint256"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build ABI transfer tuple type: %w", err)
	}
	callsType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build ABI calls type: %w", err)
	}

	return &PaymentConstructor{
		profile: profile,
		routes:  routes,
		bridge:  bridge,
		transferArgs: abi.Arguments{
			{Name: "to", Type: addressType},
			{Name: "amount", Type: uint256Type},
		},
		bridgeArgs: abi.Arguments{
			{Name: "transfer", Type: transferTupleType},
			{Name: "calls", Type: callsType},
		},
	}, nil
}

// Construct builds the call for intent. On error no call is returned.
func (c *PaymentConstructor) Construct(intent entities.PaymentIntent) (entities.ConstructedCall, error) {
	route := c.routes.Select(intent.SourceChain, intent.DestinationChain)

	switch route.Kind {
	case entities.RouteSameChainDirect:
		if route.Source != entities.ChainA {
			return entities.ConstructedCall{}, fmt.Errorf("%w: same-chain payments on %s are not implemented", domainerrors.ErrUnsupportedRoute, route.Source)
		}
		return c.directTransfer(route, intent)
	case entities.RouteCrossChainBridged:
		if route.Source != entities.ChainA || route.Destination != entities.ChainB {
			return entities.ConstructedCall{}, fmt.Errorf("%w: no bridge call for %s", domainerrors.ErrUnsupportedRoute, route.Direction())
		}
		return c.bridgeTransfer(route, intent)
	}
	return entities.ConstructedCall{}, fmt.Errorf("%w: %s: %s", domainerrors.ErrUnsupportedRoute, route.Direction(), route.Reason)
}

func (c *PaymentConstructor) directTransfer(route entities.PaymentRoute, intent entities.PaymentIntent) (entities.ConstructedCall, error) {
	amount, err := entities.ParseTokenAmount(intent.Amount, intent.TokenDecimals)
	if err != nil {
		return entities.ConstructedCall{}, err
	}
	value, err := fitUint256(amount.Value())
	if err != nil {
		return entities.ConstructedCall{}, err
	}
	recipient, err := entities.ParseAddress(entities.ChainA, intent.RecipientAddress)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("recipient: %w", err)
	}

	if IsNativeToken(intent.TokenAddress) {
		return entities.NewNativeTransferCall(route, entities.ChainA, recipient, value), nil
	}

	token, err := entities.ParseAddress(entities.ChainA, intent.TokenAddress)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("token: %w", err)
	}
	packed, err := c.transferArgs.Pack(recipient.EVM(), value)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("failed to pack transfer args: %w", err)
	}
	data := append(computeSelector(ERC20TransferSignature), packed...)
	return entities.NewContractCall(entities.CallKindTokenTransfer, route, entities.ChainA, token, methodTransfer, data, nil), nil
}

func (c *PaymentConstructor) bridgeTransfer(route entities.PaymentRoute, intent entities.PaymentIntent) (entities.ConstructedCall, error) {
	localToken, err := entities.ParseAddress(entities.ChainA, intent.TokenAddress)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("%w: local token: %w", domainerrors.ErrInvalidBridgeParameters, err)
	}

	remoteText := intent.RemoteTokenAddress
	if remoteText == "" {
		mint, ok := c.profile.RemoteToken(localToken.String())
		if !ok {
			return entities.ConstructedCall{}, fmt.Errorf("%w: no remote token known for %s", domainerrors.ErrInvalidBridgeParameters, localToken)
		}
		remoteText = mint
	}
	remoteToken, err := entities.CanonicalFromText(entities.ChainB, remoteText)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("%w: remote token: %w", domainerrors.ErrInvalidBridgeParameters, err)
	}
	to, err := entities.CanonicalFromText(entities.ChainB, intent.RecipientAddress)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("%w: recipient: %w", domainerrors.ErrInvalidBridgeParameters, err)
	}

	amount, err := entities.ParseTokenAmount(intent.Amount, intent.TokenDecimals)
	if err != nil {
		return entities.ConstructedCall{}, err
	}
	remoteAmount, err := fitUint256(amount.Value())
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("%w: remote amount: %w", domainerrors.ErrInvalidBridgeParameters, err)
	}

	packed, err := c.bridgeArgs.Pack(
		bridgeTransferArg{
			LocalToken:   localToken.EVM(),
			RemoteToken:  remoteToken,
			To:           to,
			RemoteAmount: remoteAmount,
		},
		[]bridgeCallArg{},
	)
	if err != nil {
		return entities.ConstructedCall{}, fmt.Errorf("failed to pack bridgeToken args: %w", err)
	}
	data := append(computeSelector(BridgeTokenSignature), packed...)

	transfer := &entities.BridgeTransfer{
		LocalToken:   localToken,
		RemoteToken:  remoteToken,
		To:           to,
		RemoteAmount: remoteAmount,
	}
	return entities.NewContractCall(entities.CallKindBridgeToken, route, entities.ChainA, c.bridge, methodBridgeToken, data, transfer), nil
}

// IsNativeToken reports whether a token address denotes the chain's native asset.
func IsNativeToken(tokenAddress string) bool {
	t := strings.TrimSpace(tokenAddress)
	if t == "" || strings.EqualFold(t, "native") {
		return true
	}
	return common.IsHexAddress(t) && common.HexToAddress(t) == (common.Address{})
}

func fitUint256(v *big.Int) (*big.Int, error) {
	if _, overflow := uint256.FromBig(v); overflow {
		return nil, fmt.Errorf("%w: %s exceeds uint256", domainerrors.ErrInvalidAmount, v)
	}
	return v, nil
}
