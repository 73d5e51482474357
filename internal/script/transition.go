package script

// Tri is a tri-state answer flag: unknown until the relevant question has
// been answered, then true or false.
type Tri int

const (
	TriUnknown Tri = iota
	TriTrue
	TriFalse
)

// Bool converts a Go bool to a Tri.
func Bool(b bool) Tri {
	if b {
		return TriTrue
	}
	return TriFalse
}

func (t Tri) String() string {
	switch t {
	case TriTrue:
		return "true"
	case TriFalse:
		return "false"
	default:
		return "unknown"
	}
}

// Flags are the derived facts that drive branching.
type Flags struct {
	InterestedInSelling Tri `json:"interested_in_selling"`
	HasOtherProperty    Tri `json:"has_other_property"`
	IsTenantOccupied    Tri `json:"is_tenant_occupied"`
	IsAnnualLease       Tri `json:"is_annual_lease"`
}

// Next is the pure transition function: given the node just answered and the
// accumulated flags, it returns the next node to ask. Unknown flags at a
// branch point mean the answer was unclear, so the same node is returned and
// the question is asked again.
func Next(current Node, flags Flags) Node {
	switch current {
	case NodeInitialInterest:
		switch flags.InterestedInSelling {
		case TriTrue:
			return NodePriceRange
		case TriFalse:
			return NodeOtherProperty
		default:
			return NodeInitialInterest
		}
	case NodeOtherProperty:
		if flags.HasOtherProperty == TriTrue {
			return NodePriceRange
		}
		return NodeClosing
	case NodePriceRange:
		return NodeBedroomsBathrooms
	case NodeBedroomsBathrooms:
		return NodeKitchenUpdates
	case NodeKitchenUpdates:
		return NodePropertyCondition
	case NodePropertyCondition:
		return NodeOccupancy
	case NodeOccupancy:
		if flags.IsTenantOccupied == TriTrue {
			return NodeLeaseType
		}
		return NodeSellingReason
	case NodeLeaseType:
		if flags.IsAnnualLease == TriTrue {
			return NodeLeaseExpiry
		}
		return NodeSellingReason
	case NodeLeaseExpiry:
		return NodeSellingReason
	case NodeSellingReason:
		return NodeCollectEmail
	case NodeCollectEmail:
		return NodeClosing
	case NodeClosing, NodeEnd:
		return NodeEnd
	default:
		// Not a graph member; callers guard with Known before transitioning.
		return NodeEnd
	}
}
