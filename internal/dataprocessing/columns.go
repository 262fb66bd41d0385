package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"
)

var digitRuns = regexp.MustCompile(`[0-9]+`)

// ExtractYear returns the first run of exactly four digits in name. Longer
// runs such as "20210" are not years.
func ExtractYear(name string) (int, bool) {
	for _, run := range digitRuns.FindAllString(name, -1) {
		if len(run) != 4 {
			continue
		}
		year, err := strconv.Atoi(run)
		if err != nil {
			return 0, false
		}
		return year, true
	}
	return 0, false
}

// SelectColumn returns the first column, in declaration order, whose name
// contains any of the keywords. Columns listed in exclude are skipped, which
// keeps a value search from resolving to the year column.
func SelectColumn(t *Table, keywords []string, exclude ...string) (string, bool) {
	if t == nil {
		return "", false
	}

	for _, col := range t.Columns {
		if contains(exclude, col) {
			continue
		}
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(col, kw) {
				return col, true
			}
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
