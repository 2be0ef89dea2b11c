package util

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var reSpaces = regexp.MustCompile(`[\s\p{Zs}]+`)

// NormalizeHeader upper-cases a header, trims it and collapses inner runs of
// whitespace (including NBSP) to one space.
func NormalizeHeader(input string) string {
	s := strings.ToUpper(input)
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// FoldAccents strips combining marks: "À PRÉVOIR" -> "A PREVOIR".
func FoldAccents(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}

// ContainsFold reports whether needle occurs in haystack ignoring case and
// accents.
func ContainsFold(haystack, needle string) bool {
	return strings.Contains(FoldAccents(strings.ToLower(haystack)), FoldAccents(strings.ToLower(needle)))
}

// CellString renders a sheet cell as trimmed text. Blank, nil and NaN cells
// become "".
func CellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return CellString(float64(v))
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case time.Time:
		return FormatDayFirst(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func StringPtr(v string) *string {
	return &v
}
