package types

// Actor identifies who is performing an engine operation. The role comes
// from the upstream identity provider and is trusted as-is.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
