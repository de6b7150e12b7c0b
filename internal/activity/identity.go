package activity

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

func fold(value string) string {
	return cases.Fold().String(strings.TrimSpace(value))
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
