package entities

// RouteKind is the decision taken for a (source, destination) chain pair.
type RouteKind string

const (
	RouteSameChainDirect   RouteKind = "SAME_CHAIN_DIRECT"
	RouteCrossChainBridged RouteKind = "CROSS_CHAIN_BRIDGED"
	RouteUnsupported       RouteKind = "UNSUPPORTED"
)

// ChainDirection is an ordered chain pair.
type ChainDirection struct {
	Source      ChainID
	Destination ChainID
}

// String renders the direction the way it is stored on payments,
// e.g. "base-to-solana".
func (d ChainDirection) String() string {
	return string(d.Source) + "-to-" + string(d.Destination)
}

// PaymentRoute is derived from a chain pair on every request and never stored.
type PaymentRoute struct {
	Kind        RouteKind `json:"kind"`
	Source      ChainID   `json:"source"`
	Destination ChainID   `json:"destination"`
	Reason      string    `json:"reason,omitempty"`
}

func (r PaymentRoute) IsBridged() bool {
	return r.Kind == RouteCrossChainBridged
}

func (r PaymentRoute) Direction() ChainDirection {
	return ChainDirection{Source: r.Source, Destination: r.Destination}
}
