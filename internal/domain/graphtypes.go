package domain

// NodeType tags the variants a graph node can take. Only account nodes are
// ever scored; identifier and touchpoint nodes exist so downstream
// consumers can traverse the full attribution picture.
type NodeType string

const (
	NodeTypeAccount    NodeType = "account"
	NodeTypeIdentifier NodeType = "identifier"
	NodeTypeTouchpoint NodeType = "touchpoint"
)

// EdgeType is the fixed enumeration of relationship kinds the engine
// understands. shared_* edges always come in symmetric pairs; money_flow
// edges are directed sender to receiver and never symmetrised.
type EdgeType string

const (
	EdgeTypeSharedIP         EdgeType = "shared_ip"
	EdgeTypeSharedDevice     EdgeType = "shared_device"
	EdgeTypeSharedTouchpoint EdgeType = "shared_touchpoint"
	EdgeTypeMoneyFlow        EdgeType = "money_flow"
)

// Node is one vertex of the attributed multigraph. Exactly the fields
// relevant to its type are populated.
type Node struct {
	ID   string
	Type NodeType

	// Account fields.
	AccountType AccountType
	Holder      string
	Ring        string

	// Identifier fields.
	IdentifierType IdentifierType
}

// Edge is one directed edge of the multigraph. Amount and Timestamp are
// only meaningful for money_flow edges; TransactionID ties a money_flow
// edge back to its source record.
type Edge struct {
	Source        string
	Target        string
	Type          EdgeType
	Amount        float64
	Timestamp     int64
	TransactionID string
}
