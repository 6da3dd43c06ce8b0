package models

// Teacher is identified by name; the name is case-sensitive and unique.
type Teacher struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
