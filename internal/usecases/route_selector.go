package usecases

import (
	"fmt"
	"strings"

	"paybridge.backend/internal/domain/entities"
	domainerrors "paybridge.backend/internal/domain/errors"
)

const routeUnsupportedReason = "direction not yet supported"

// RoutePolicy lists which cross-chain directions may be bridged. Enabling a
// direction is a data change.
type RoutePolicy struct {
	BridgedDirections map[entities.ChainDirection]bool
}

// DefaultRoutePolicy bridges only ChainA -> ChainB.
func DefaultRoutePolicy() RoutePolicy {
	return RoutePolicy{
		BridgedDirections: map[entities.ChainDirection]bool{
			{Source: entities.ChainA, Destination: entities.ChainB}: true,
		},
	}
}

// ParseRoutePolicy builds a policy from "source:destination" pairs.
func ParseRoutePolicy(pairs []string) (RoutePolicy, error) {
	policy := RoutePolicy{BridgedDirections: make(map[entities.ChainDirection]bool, len(pairs))}
	for _, pair := range pairs {
		src, dst, ok := strings.Cut(pair, ":")
		if !ok {
			return RoutePolicy{}, fmt.Errorf("%w: bridged direction %q must be source:destination", domainerrors.ErrInvalidInput, pair)
		}
		source, err := entities.ParseChainID(src)
		if err != nil {
			return RoutePolicy{}, err
		}
		destination, err := entities.ParseChainID(dst)
		if err != nil {
			return RoutePolicy{}, err
		}
		if source == destination {
			return RoutePolicy{}, fmt.Errorf("%w: bridged direction %q has equal chains", domainerrors.ErrInvalidInput, pair)
		}
		policy.BridgedDirections[entities.ChainDirection{Source: source, Destination: destination}] = true
	}
	return policy, nil
}

// RouteSelector decides how a payment between two chains is made. It is
// pure and safe for concurrent use.
type RouteSelector struct {
	policy RoutePolicy
}

func NewRouteSelector(policy RoutePolicy) *RouteSelector {
	return &RouteSelector{policy: policy}
}

// Select is total: every pair yields a route, unknown chains included.
func (s *RouteSelector) Select(source, destination entities.ChainID) entities.PaymentRoute {
	route := entities.PaymentRoute{Source: source, Destination: destination}
	switch {
	case !source.IsValid() || !destination.IsValid():
		route.Kind = entities.RouteUnsupported
		route.Reason = "unknown chain"
	case source == destination:
		route.Kind = entities.RouteSameChainDirect
	case s.policy.BridgedDirections[route.Direction()]:
		route.Kind = entities.RouteCrossChainBridged
	default:
		route.Kind = entities.RouteUnsupported
		route.Reason = routeUnsupportedReason
	}
	return route
}
