package models

// Grid is the days × blocks view of one career semester in a term.
type Grid struct {
	TermID   string   `json:"term_id"`
	CareerID string   `json:"career_id"`
	Semester int      `json:"semester"`
	Depth    int      `json:"depth"`
	Days     []Day    `json:"days"`
	Blocks   []string `json:"blocks"`
	Cells    []Cell   `json:"cells"`
}

// Cell holds the editable placements of a slot and the read-only layers behind them.
type Cell struct {
	Day       Day               `json:"day"`
	Block     string            `json:"block"`
	BlockID   string            `json:"block_id"`
	StartTime string            `json:"start_time"`
	EndTime   string            `json:"end_time"`
	Current   []PlacementDetail `json:"current"`
	Layers    []Layer           `json:"layers,omitempty"`
}

// Layer is a prior semester's occupancy of the same cell.
type Layer struct {
	Depth      int               `json:"depth"`
	Semester   int               `json:"semester"`
	Opacity    float64           `json:"opacity"`
	Label      string            `json:"label"`
	Placements []PlacementDetail `json:"placements"`
}
