package helper

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	om "github.com/cevaris/ordered_map"
	"github.com/relloyd/snowmerge/constants"
	"github.com/relloyd/snowmerge/logger"
)

// TokensToOrderedMap converts a string of the form, 'k1:v1,k2:v2' into an ordered map and returns a pointer to it.
// 1) Split on comma to find each key:value pair.
// 2) Split on colon to separate the key from the value.
// Spaces around keys and values are trimmed. Tokens without a colon are ignored.
func TokensToOrderedMap(s string) *om.OrderedMap {
	o := om.NewOrderedMap()
	for _, token := range strings.Split(s, ",") {
		x := strings.SplitN(token, ":", 2)
		if len(x) == 2 { // if there is a key:value...
			o.Set(strings.TrimSpace(x[0]), strings.TrimSpace(x[1]))
		}
	}
	return o
}

// OrderedMapToTokens converts the supplied ordered map to a CSV of key:value,key:value,...
// All keys and values are expected to be of type string.
func OrderedMapToTokens(m *om.OrderedMap) string {
	b := strings.Builder{}
	iter := m.IterFunc()
	for kv, ok := iter(); ok; kv, ok = iter() {
		b.WriteString(fmt.Sprintf(",%v:%v", kv.Key, kv.Value))
	}
	return strings.TrimLeft(b.String(), ",")
}

// StringSliceToOrderedMap adds each value in s to an ordered map with key and value set to the value in s.
func StringSliceToOrderedMap(s []string) *om.OrderedMap {
	retval := om.NewOrderedMap()
	for _, v := range s {
		retval.Set(v, v)
	}
	return retval
}

// OrderedMapValuesToStringSlice builds a list of values found in ordered map m.
// It writes into l starting at position *idx and moves *idx along as it goes.
func OrderedMapValuesToStringSlice(log logger.Logger, m *om.OrderedMap, l *[]string, idx *int) {
	iter := m.IterFunc()
	if iter == nil {
		log.Panic("Failed to get iterFunc in OrderedMapValuesToStringSlice()")
	}
	for kv, ok := iter(); ok; kv, ok = iter() {
		(*l)[*idx] = kv.Value.(string)
		*idx++
	}
}

// CsvToStringSliceTrimSpaces converts a string of the form, 'f1,f2,f3...' into a slice of string values.
// Empty values are dropped.
func CsvToStringSliceTrimSpaces(s string) []string {
	tokens := strings.Split(s, ",")
	retval := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			retval = append(retval, t)
		}
	}
	return retval
}

// GetStringFromInterface will convert interface{} value to a string.
// Optionally return Times in UTC.
// Nil is converted to the empty string; use StageText when NULL should survive.
func GetStringFromInterface(input interface{}, useUTC bool) (retval string) {
	switch v := input.(type) {
	case nil:
		retval = ""
	case string:
		retval = v
	case []uint8: // go-mssqldb returns DECIMAL and MONEY as bytes, ODBC drivers return most types as bytes.
		retval = string(v)
	case int, int8, int16, int32, int64, uint, uint16, uint32, uint64:
		retval = fmt.Sprintf("%d", v)
	case float32:
		retval = strconv.FormatFloat(float64(v), 'f', -1, 32) // use 'f' to convert float to string without an exponent i.e. preserve all decimal points.
	case float64:
		retval = strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		retval = strconv.FormatBool(v)
	case time.Time:
		if useUTC { // if caller requests UTC conversion...
			v = v.UTC()
		}
		if v.Location() == time.UTC { // if there is no offset to keep...
			retval = v.Format(constants.TimeFormatStageText)
		} else {
			retval = v.Format(constants.TimeFormatStageTextTZ)
		}
	case fmt.Stringer:
		retval = v.String()
	default:
		retval = fmt.Sprint(v)
	}
	return
}

// StageText converts a scanned database value into the value bound into a text staging column.
// NULL stays NULL so that it is not confused with the empty string.
func StageText(input interface{}) interface{} {
	if input == nil {
		return nil
	}
	return GetStringFromInterface(input, false)
}

// SplitRight splits s at the last occurrence of c.
// If c is not found it returns s, "".
func SplitRight(s string, c string) (string, string) {
	i := strings.LastIndex(s, c)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+len(c):]
}

// QuoteIdentifier wraps s in double quotes, doubling any embedded double quotes.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// QuoteIdentifiers applies QuoteIdentifier to every element of s and returns a new slice.
func QuoteIdentifiers(s []string) []string {
	retval := make([]string, len(s))
	for idx, v := range s {
		retval[idx] = QuoteIdentifier(v)
	}
	return retval
}

// GenerateStringOfColsEqualsCols returns "src.col1 = tgt.col1, src.col2 = tgt.col2" using the colList supplied,
// where the comma can be whatever separator you pass in.
func GenerateStringOfColsEqualsCols(colList []string, srcAlias string, tgtAlias string, separator string) string {
	return strings.Join(GenerateSliceOfColsEqualCols(colList, srcAlias, tgtAlias), separator)
}

func GenerateSliceOfColsEqualCols(colList []string, srcAlias string, tgtAlias string) []string {
	retval := make([]string, len(colList))
	for idx, col := range colList {
		retval[idx] = fmt.Sprintf("%s.%s = %s.%s", srcAlias, col, tgtAlias, col)
	}
	return retval
}

// PrefixEach returns a copy of s where each element is prefixed with "<prefix>.".
func PrefixEach(s []string, prefix string) []string {
	retval := make([]string, len(s))
	for idx, v := range s {
		retval[idx] = prefix + "." + v
	}
	return retval
}
