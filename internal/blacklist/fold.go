package blacklist

import "golang.org/x/text/unicode/norm"

// FoldNFC returns a copy of s with every name in Unicode NFC, so composed and
// decomposed spellings of one name collapse to a single entry. Names that are
// already NFC are unchanged.
func FoldNFC(s Set) Set {
	out := make(Set, len(s))
	for name := range s {
		out.Add(norm.NFC.String(name))
	}
	return out
}
