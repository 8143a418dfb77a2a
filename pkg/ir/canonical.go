package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces canonical JSON for digests and golden snapshots.
//
// Differences from json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Floats use the shortest representation that round-trips
//  5. null, NaN and ±Inf are rejected
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return marshalCanonicalString(buf, val)
	case bool:
		buf.WriteString(strconv.FormatBool(val))
	case int:
		buf.WriteString(strconv.Itoa(val))
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
	case float64:
		return marshalCanonicalFloat(buf, val)
	case IntArray:
		return marshalCanonicalSlice(buf, val.vals)
	case FloatArray:
		return marshalCanonicalSlice(buf, val.vals)
	case StringArray:
		return marshalCanonicalSlice(buf, val.vals)
	case []string:
		return marshalCanonicalSlice(buf, val)
	case []any:
		return marshalCanonicalSlice(buf, val)
	case map[string]any:
		return marshalCanonicalObject(buf, val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

func marshalCanonicalSlice[T any](buf *bytes.Buffer, vals []T) error {
	buf.WriteByte('[')
	for i, elem := range vals {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonical(buf, any(elem)); err != nil {
			return fmt.Errorf("array[%d]: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}

// marshalCanonicalObject writes an object with UTF-16 key ordering.
func marshalCanonicalObject(buf *bytes.Buffer, obj map[string]any) error {
	buf.WriteByte('{')
	for i, k := range SortedKeys(obj) {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := marshalCanonicalString(buf, k); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
		buf.WriteByte(':')
		if err := marshalCanonical(buf, obj[k]); err != nil {
			return fmt.Errorf("value for key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func marshalCanonicalFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("non-finite float forbidden in canonical JSON: %v", f)
	}
	buf.WriteString(FormatFloat(f))
	return nil
}

// marshalCanonicalString writes a JSON string with NFC normalization.
// Only control characters, backslash and quote are escaped; U+2028 and
// U+2029 are written literally.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns \u2028 and \u2029 escapes back into literal
// characters, leaving \\u2028 (an escaped backslash followed by text) alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) && string(data[i+2:i+5]) == "202" && (data[i+5] == '8' || data[i+5] == '9') {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		// Any other escape: copy both bytes so an escaped backslash is never
		// mistaken for the start of \u2028.
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// SortedKeys returns keys in UTF-16 code unit order.
// Go's default string ordering compares UTF-8 bytes, which differs for
// characters outside the BMP.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// FormatFloat renders f in the shortest form that parses back to the same
// value. The result is always a valid deck number.
func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// valuesPerLine bounds the width of rendered records.
const valuesPerLine = 8

// RenderRecord renders rec as deck text under spec. The output re-parses to
// a record with the same name, kind and values. Runs of equal numeric values
// are written with the N*value shorthand.
func RenderRecord(spec KeywordSpec, rec KeywordRecord) string {
	var sb strings.Builder
	sb.WriteString(rec.Name)
	sb.WriteByte('\n')

	switch spec.Terminator {
	case TermNone:
		return sb.String()
	case TermLine:
		if sa, ok := rec.Values.(StringArray); ok {
			sb.WriteString(strings.Join(sa.vals, " "))
		}
		sb.WriteByte('\n')
		return sb.String()
	}

	items := renderItems(rec.Values)
	for i, item := range items {
		if i%valuesPerLine == 0 {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString("  ")
		} else {
			sb.WriteByte(' ')
		}
		sb.WriteString(item)
	}
	if len(items) > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString("/\n")
	return sb.String()
}

// renderItems converts values to deck lexemes, collapsing numeric runs.
func renderItems(values TypedArray) []string {
	switch v := values.(type) {
	case IntArray:
		return collapseRuns(v.vals, func(n int64) string { return strconv.FormatInt(n, 10) })
	case FloatArray:
		return collapseRuns(v.vals, FormatFloat)
	case StringArray:
		items := make([]string, len(v.vals))
		for i, s := range v.vals {
			// Quotes cannot be escaped; text holding one is written bare.
			if strings.ContainsRune(s, '\'') {
				items[i] = s
				continue
			}
			items[i] = "'" + s + "'"
		}
		return items
	default:
		return nil
	}
}

func collapseRuns[T comparable](vals []T, format func(T) string) []string {
	var items []string
	for i := 0; i < len(vals); {
		j := i + 1
		for j < len(vals) && vals[j] == vals[i] {
			j++
		}
		if n := j - i; n > 1 {
			items = append(items, strconv.Itoa(n)+"*"+format(vals[i]))
		} else {
			items = append(items, format(vals[i]))
		}
		i = j
	}
	return items
}
