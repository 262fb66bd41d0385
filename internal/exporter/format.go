package exporter

import (
	"strconv"
)

// formatValue renders a measurement with the shortest representation that
// round-trips: 50000, 14.2, 0.125
func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatYear formats a year column value
func formatYear(y int) string {
	return strconv.Itoa(y)
}
