package cbor

import "encoding/binary"

// Encode serializes v as RFC 8949 §4.2.1 deterministically-encoded CBOR:
// every integer head uses the shortest representation that fits its
// argument, and map entries are emitted in the sorted order
// compareCanonicalKeys defines, so two Encode calls on logically identical
// maps always produce byte-identical output regardless of the Map slice's
// insertion order.
func Encode(v Value) ([]byte, error) {
	buf := make([]byte, 0, 64)
	return appendValue(buf, v)
}

func appendValue(buf []byte, v Value) ([]byte, error) {
	switch n := v.(type) {
	case Uint:
		return appendHead(buf, MajorUnsignedInt, uint64(n)), nil
	case NegInt:
		return appendHead(buf, MajorNegativeInt, uint64(n)), nil
	case Bytes:
		buf = appendHead(buf, MajorByteString, uint64(len(n)))
		return append(buf, n...), nil
	case Text:
		buf = appendHead(buf, MajorTextString, uint64(len(n)))
		return append(buf, n...), nil
	case Array:
		buf = appendHead(buf, MajorArray, uint64(len(n)))
		for _, elem := range n {
			var err error
			buf, err = appendValue(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case Map:
		if err := checkNoDuplicateKeys(n); err != nil {
			return nil, err
		}
		entries := sortedMapEntries(n)
		buf = appendHead(buf, MajorMap, uint64(len(entries)))
		for _, e := range entries {
			var err error
			buf, err = appendValue(buf, e.Key)
			if err != nil {
				return nil, err
			}
			buf, err = appendValue(buf, e.Value)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil
	case Bool:
		sv := simpleFalse
		if n {
			sv = simpleTrue
		}
		return append(buf, encodeHead(MajorSimple, sv)), nil
	default:
		return nil, ErrUnsupported
	}
}

func checkNoDuplicateKeys(m Map) error {
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if valuesEqual(m[i].Key, m[j].Key) {
				return ErrDuplicateKey
			}
		}
	}
	return nil
}

// appendHead writes a major type's head byte (and, for arguments >= 24, its
// big-endian argument bytes) using the shortest of the five encodings RFC
// 8949 §3 permits: inline (0-23), 1-byte, 2-byte, 4-byte, or 8-byte.
func appendHead(buf []byte, mt MajorType, arg uint64) []byte {
	switch {
	case arg <= aiDirectMax:
		return append(buf, encodeHead(mt, byte(arg)))
	case arg <= 0xFF:
		return append(buf, encodeHead(mt, ai8Bit), byte(arg))
	case arg <= 0xFFFF:
		buf = append(buf, encodeHead(mt, ai16Bit))
		return binary.BigEndian.AppendUint16(buf, uint16(arg))
	case arg <= 0xFFFFFFFF:
		buf = append(buf, encodeHead(mt, ai32Bit))
		return binary.BigEndian.AppendUint32(buf, uint32(arg))
	default:
		buf = append(buf, encodeHead(mt, ai64Bit))
		return binary.BigEndian.AppendUint64(buf, arg)
	}
}
