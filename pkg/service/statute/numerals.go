package statute

import "strings"

// Part headings use feminine ordinals ("PIRMOJI DALIS").
var feminineOrdinals = map[string]int{
	"PIRMOJI":       1,
	"ANTROJI":       2,
	"TREČIOJI":      3,
	"KETVIRTOJI":    4,
	"PENKTOJI":      5,
	"ŠEŠTOJI":       6,
	"SEPTINTOJI":    7,
	"AŠTUNTOJI":     8,
	"DEVINTOJI":     9,
	"DEŠIMTOJI":     10,
	"VIENUOLIKTOJI": 11,
	"DVYLIKTOJI":    12,
}

// Section headings use masculine ordinals ("PIRMASIS SKIRSNIS").
var masculineOrdinals = map[string]int{
	"PIRMASIS":        1,
	"ANTRASIS":        2,
	"TREČIASIS":       3,
	"KETVIRTASIS":     4,
	"PENKTASIS":       5,
	"ŠEŠTASIS":        6,
	"SEPTINTASIS":     7,
	"AŠTUNTASIS":      8,
	"DEVINTASIS":      9,
	"DEŠIMTASIS":      10,
	"VIENUOLIKTASIS":  11,
	"DVYLIKTASIS":     12,
	"TRYLIKTASIS":     13,
	"KETURIOLIKTASIS": 14,
	"PENKIOLIKTASIS":  15,
}

func ordinalValue(table map[string]int, word string) (int, bool) {
	n, ok := table[strings.ToUpper(word)]
	return n, ok
}

var romanDigits = map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000}

// romanValue parses a canonical roman numeral. Non-canonical spellings such as "IIII" or
// "VX" are rejected.
func romanValue(s string) (int, bool) {
	if s == "" {
		return 0, false
	}

	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanDigits[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && romanDigits[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}

	if total <= 0 || toRoman(total) != s {
		return 0, false
	}
	return total, true
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func toRoman(n int) string {
	var sb strings.Builder
	for _, e := range romanTable {
		for n >= e.value {
			sb.WriteString(e.symbol)
			n -= e.value
		}
	}
	return sb.String()
}
