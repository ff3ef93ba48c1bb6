// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Session holds the reports and running cost of one analysis session.
// It is serialized to a YAML session file after every analyze call.
type Session struct {
	// SessionID uniquely identifies the session.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Reports lists all reports produced in this session, in creation order.
	Reports []Report `json:"reports" yaml:"reports"`

	// TotalCost is the running completion cost across all reports, in USD.
	TotalCost float64 `json:"total_cost" yaml:"total_cost"`

	// CreatedAt and UpdatedAt are RFC 3339 timestamps.
	CreatedAt string `json:"created_at" yaml:"created_at"`
	UpdatedAt string `json:"updated_at" yaml:"updated_at"`
}
