package models

// Room is a bookable classroom on a site.
type Room struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Capacity *int   `db:"capacity" json:"capacity,omitempty"`
	Site     string `db:"site" json:"site"`
}
