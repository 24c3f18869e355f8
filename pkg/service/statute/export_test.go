package statute

var (
	RomanValue   = romanValue
	HeadingTitle = headingTitle
)

func FeminineOrdinal(word string) (int, bool) {
	return ordinalValue(feminineOrdinals, word)
}

func MasculineOrdinal(word string) (int, bool) {
	return ordinalValue(masculineOrdinals, word)
}
