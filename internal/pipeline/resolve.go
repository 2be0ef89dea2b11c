package pipeline

import (
	"strings"

	"eurosom/internal"
	"eurosom/internal/util"
)

// Resolve returns the first header, in sheet order, whose upper-cased form
// contains the upper-cased keyword. When nothing matches it returns fallback
// unchanged, even if fallback is not a real header: lookups on it then simply
// find no data.
func Resolve(headers []string, keyword, fallback string) string {
	return resolve(headers, keyword, fallback, false)
}

// ResolveFolded is Resolve with accents stripped on both sides, so the keyword
// "DÉLAI" also binds a "TYPE DELAI" header.
func ResolveFolded(headers []string, keyword, fallback string) string {
	return resolve(headers, keyword, fallback, true)
}

func resolve(headers []string, keyword, fallback string, fold bool) string {
	needle := matchForm(keyword, fold)
	for _, h := range headers {
		if strings.Contains(matchForm(h, fold), needle) {
			return h
		}
	}
	return fallback
}

func matchForm(s string, fold bool) string {
	s = strings.ToUpper(s)
	if fold {
		s = util.FoldAccents(s)
	}
	return s
}

type Resolution struct {
	columns map[internal.FieldKey]string
	found   map[internal.FieldKey]bool
	order   []internal.FieldKey
}

// ResolveAll resolves every column spec against the same header set. With
// foldAccents, keywords and headers are compared without their accents.
func ResolveAll(headers []string, specs []internal.ColumnSpec, foldAccents bool) Resolution {
	res := Resolution{
		columns: make(map[internal.FieldKey]string, len(specs)),
		found:   make(map[internal.FieldKey]bool, len(specs)),
		order:   make([]internal.FieldKey, 0, len(specs)),
	}
	for _, spec := range specs {
		if _, seen := res.columns[spec.Key]; seen {
			continue
		}
		column := resolve(headers, spec.Keyword, spec.Default, foldAccents)
		res.columns[spec.Key] = column
		res.found[spec.Key] = column != spec.Default || containsExact(headers, spec.Default)
		res.order = append(res.order, spec.Key)
	}
	return res
}

// Column is the header bound to key, or "" for a key with no column spec.
func (r Resolution) Column(key internal.FieldKey) string {
	return r.columns[key]
}

// Found reports whether key resolved to a header that exists in the sheet.
func (r Resolution) Found(key internal.FieldKey) bool {
	return r.found[key]
}

func (r Resolution) Keys() []internal.FieldKey {
	return append([]internal.FieldKey(nil), r.order...)
}

// Map is the resolution keyed by field name.
func (r Resolution) Map() map[string]string {
	out := make(map[string]string, len(r.columns))
	for k, v := range r.columns {
		out[string(k)] = v
	}
	return out
}

// Cell reads the field from a row. Missing columns read as nil.
func (r Resolution) Cell(row internal.RawRow, key internal.FieldKey) any {
	column, ok := r.columns[key]
	if !ok {
		return nil
	}
	return row[column]
}

func containsExact(headers []string, name string) bool {
	for _, h := range headers {
		if h == name {
			return true
		}
	}
	return false
}
