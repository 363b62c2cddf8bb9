package cbor

import "bytes"

// compareCanonicalKeys implements RFC 8949 §4.2.1's deterministic-encoding
// total order over map keys:
//
//  1. Different major types: the smaller major type sorts first.
//  2. Both strings (byte or text): the shorter one sorts first.
//  3. Equal-length strings: compare lexicographically as unsigned octets.
//  4. Both integers of the same sign: the numerically smaller sorts first.
//
// Returns a negative number if a sorts before b, 0 if equal, positive
// otherwise.
func compareCanonicalKeys(a, b Value) int {
	ma, mb := a.majorType(), b.majorType()
	if ma != mb {
		if ma < mb {
			return -1
		}
		return 1
	}

	switch ma {
	case MajorUnsignedInt:
		ua, ub := uint64(a.(Uint)), uint64(b.(Uint))
		switch {
		case ua < ub:
			return -1
		case ua > ub:
			return 1
		default:
			return 0
		}
	case MajorNegativeInt:
		// Logical value is -1-arg: a larger wire argument is a *smaller*
		// (more negative) logical integer.
		na, nb := uint64(a.(NegInt)), uint64(b.(NegInt))
		switch {
		case na > nb:
			return -1
		case na < nb:
			return 1
		default:
			return 0
		}
	case MajorByteString:
		return compareStrings([]byte(a.(Bytes)), []byte(b.(Bytes)))
	case MajorTextString:
		return compareStrings([]byte(a.(Text)), []byte(b.(Text)))
	default:
		return 0
	}
}

func compareStrings(a, b []byte) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return bytes.Compare(a, b)
}

// sortedMapEntries returns a copy of m's entries sorted into CTAP2 canonical
// key order, ready for emission. The input Map is never mutated.
func sortedMapEntries(m Map) []MapEntry {
	entries := make([]MapEntry, len(m))
	copy(entries, m)
	// insertion sort: CTAP2 maps in this module are small (at most the 24
	// authenticatorGetInfo fields), and a stable, allocation-free sort keeps
	// the canonical ordering easy to verify by inspection.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && compareCanonicalKeys(entries[j].Key, entries[j-1].Key) < 0; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}
