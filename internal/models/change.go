package models

// Change operations as reported by the database triggers.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change is a row-level change notification for a watched table.
type Change struct {
	Table  string         `json:"table"`
	Op     string         `json:"op"`
	Record map[string]any `json:"record"`
}
