package models

import "time"

// Term models an academic period ("periodo académico").
type Term struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	BannerCode string    `db:"banner_code" json:"banner_code"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Contains reports whether t falls within the term, both ends inclusive, compared by calendar date.
func (t Term) Contains(at time.Time) bool {
	day := truncateDay(at)
	return !day.Before(truncateDay(t.StartDate)) && !day.After(truncateDay(t.EndDate))
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
