package models

import (
	"strings"
	"time"
)

// Day is a teaching day of the week.
type Day string

const (
	Monday    Day = "MONDAY"
	Tuesday   Day = "TUESDAY"
	Wednesday Day = "WEDNESDAY"
	Thursday  Day = "THURSDAY"
	Friday    Day = "FRIDAY"
	Saturday  Day = "SATURDAY"
)

// Weekdays lists teaching days in calendar order.
var Weekdays = []Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayAliases = map[string]Day{
	"MONDAY":    Monday,
	"LUNES":     Monday,
	"TUESDAY":   Tuesday,
	"MARTES":    Tuesday,
	"WEDNESDAY": Wednesday,
	"MIERCOLES": Wednesday,
	"MIÉRCOLES": Wednesday,
	"THURSDAY":  Thursday,
	"JUEVES":    Thursday,
	"FRIDAY":    Friday,
	"VIERNES":   Friday,
	"SATURDAY":  Saturday,
	"SABADO":    Saturday,
	"SÁBADO":    Saturday,
}

// ParseDay accepts English or Spanish day names in any case.
func ParseDay(raw string) (Day, bool) {
	day, ok := dayAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return day, ok
}

// Index returns the position of d in Weekdays or -1.
func (d Day) Index() int {
	for i, day := range Weekdays {
		if day == d {
			return i
		}
	}
	return -1
}

// TimeBlock is a lettered period on a given day ("bloque horario").
type TimeBlock struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Day       Day       `db:"day" json:"day"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
}

// Slot names the (day, block) pair used in availability windows, e.g. "MONDAY-A".
func (b TimeBlock) Slot() string {
	return SlotKey(b.Day, b.Name)
}

// SlotKey formats a (day, block) pair.
func SlotKey(day Day, block string) string {
	return string(day) + "-" + strings.ToUpper(block)
}
