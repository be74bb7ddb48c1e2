package models

// Scoped is implemented by every model whose rows belong to one irrigation
// system. The model declares its resolution path as data: the SQL column that
// carries the system id and the joins needed to reach it from the model's own
// table. The scope resolver narrows queries with these; nothing probes struct
// fields at runtime.
type Scoped interface {
	// ScopeColumn is the fully qualified column holding the irrigation-system id.
	ScopeColumn() string
	// ScopeJoins are the JOIN clauses required before ScopeColumn is reachable,
	// in order. Empty when the column lives on the model's own table.
	ScopeJoins() []string
}
