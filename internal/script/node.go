// Package script defines the fixed interview script: the closed set of
// question nodes, the answer contract each node expects, and the branch
// topology that selects the next node from accumulated answer flags.
package script

import "fmt"

// Node identifies one question/step in the interview graph.
type Node string

const (
	NodeInitialInterest   Node = "initial_interest"
	NodeOtherProperty     Node = "other_property"
	NodePriceRange        Node = "price_range"
	NodeBedroomsBathrooms Node = "bedrooms_bathrooms"
	NodeKitchenUpdates    Node = "kitchen_updates"
	NodePropertyCondition Node = "property_condition"
	NodeOccupancy         Node = "occupancy"
	NodeLeaseType         Node = "lease_type"
	NodeLeaseExpiry       Node = "lease_expiry"
	NodeSellingReason     Node = "selling_reason"
	NodeCollectEmail      Node = "collect_email"
	NodeClosing           Node = "closing"
	NodeEnd               Node = "end"
)

// Root is the node every new conversation starts at.
const Root = NodeInitialInterest

// Contract describes the shape of answer a node expects.
type Contract string

const (
	ContractBoolean   Contract = "boolean"
	ContractScale     Contract = "scale-1-10"
	ContractPrice     Contract = "currency-range"
	ContractRooms     Contract = "room-count"
	ContractOccupancy Contract = "occupancy-enum"
	ContractLease     Contract = "lease-type-enum"
	ContractTimeframe Contract = "date-or-timeframe"
	ContractEmail     Contract = "email-or-declined"
	ContractFreeText  Contract = "free-text"
	ContractNone      Contract = "none" // terminal nodes take no answer
)

// Question holds a node's fixed question text, answer contract, and the
// clarification shown when an answer cannot be understood.
type Question struct {
	Text          string
	Contract      Contract
	Clarification string
}

var registry = map[Node]Question{
	NodeInitialInterest: {
		Text:          "Hi, this is Alex with Propline Realty. I'm reaching out to homeowners in your area — have you given any thought to selling your property?",
		Contract:      ContractBoolean,
		Clarification: "Sorry, I didn't catch that — are you interested in selling your property? A simple yes or no works.",
	},
	NodeOtherProperty: {
		Text:          "No problem at all. Do you happen to own any other property you might consider selling?",
		Contract:      ContractBoolean,
		Clarification: "Just to make sure I understood — do you own another property you'd consider selling, yes or no?",
	},
	NodePriceRange: {
		Text:          "Great! Do you have a price range in mind for the property?",
		Contract:      ContractPrice,
		Clarification: "I didn't quite get that. Could you give me a rough figure or range, like \"around 300k\" or \"250 to 300 thousand\"? \"Not sure\" is fine too.",
	},
	NodeBedroomsBathrooms: {
		Text:          "Good to know. How many bedrooms and bathrooms does the property have?",
		Contract:      ContractRooms,
		Clarification: "Sorry, how many bedrooms and how many bathrooms? For example, \"3 bed 2 bath\".",
	},
	NodeKitchenUpdates: {
		Text:          "Thanks. When was the kitchen last updated, roughly?",
		Contract:      ContractTimeframe,
		Clarification: "Roughly when was the kitchen last updated? A year or a ballpark like \"about five years ago\" is fine.",
	},
	NodePropertyCondition: {
		Text:          "On a scale of 1 to 10, how would you rate the overall condition of the property?",
		Contract:      ContractScale,
		Clarification: "Could you rate the property's condition on a scale of 1 to 10?",
	},
	NodeOccupancy: {
		Text:          "Is the property currently occupied by you, or is it rented out to a tenant?",
		Contract:      ContractOccupancy,
		Clarification: "Just to clarify — do you live there yourself, or is a tenant renting it?",
	},
	NodeLeaseType: {
		Text:          "I see. Is the tenant on an annual lease or a month-to-month arrangement?",
		Contract:      ContractLease,
		Clarification: "Is that an annual lease or month-to-month?",
	},
	NodeLeaseExpiry: {
		Text:          "Got it. When does the current lease expire?",
		Contract:      ContractTimeframe,
		Clarification: "When does the lease run out? A month or rough timeframe is fine.",
	},
	NodeSellingReason: {
		Text:          "Thanks for bearing with me. What's the main reason you'd consider selling?",
		Contract:      ContractFreeText,
		Clarification: "Could you tell me a bit more about why you'd consider selling?",
	},
	NodeCollectEmail: {
		Text:          "This has been really helpful. Could I get an email address to send you a free market analysis for your property?",
		Contract:      ContractEmail,
		Clarification: "Could you spell out an email address for me? Or just say \"no\" if you'd rather not share one.",
	},
	NodeClosing: {
		Text:          "Thank you so much for your time today. One of our agents will follow up shortly with next steps. Have a great day!",
		Contract:      ContractNone,
		Clarification: "",
	},
	NodeEnd: {
		Text:          "Thanks again — this conversation has ended. Have a great day!",
		Contract:      ContractNone,
		Clarification: "",
	},
}

// Lookup returns the question definition for a node. A miss is a
// configuration defect, not a runtime condition; callers must treat it as
// fatal-to-the-turn.
func Lookup(n Node) (Question, error) {
	q, ok := registry[n]
	if !ok {
		return Question{}, fmt.Errorf("no question registered for node %q", n)
	}
	return q, nil
}

// Known reports whether n is a member of the interview graph.
func Known(n Node) bool {
	_, ok := registry[n]
	return ok
}

// Terminal reports whether n ends the interview.
func Terminal(n Node) bool {
	return n == NodeClosing || n == NodeEnd
}

// All returns every node in the graph, in question order.
func All() []Node {
	return []Node{
		NodeInitialInterest,
		NodeOtherProperty,
		NodePriceRange,
		NodeBedroomsBathrooms,
		NodeKitchenUpdates,
		NodePropertyCondition,
		NodeOccupancy,
		NodeLeaseType,
		NodeLeaseExpiry,
		NodeSellingReason,
		NodeCollectEmail,
		NodeClosing,
		NodeEnd,
	}
}
