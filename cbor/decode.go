package cbor

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// Decode parses one CBOR data item from the front of data and reports how
// many bytes it consumed. Use DecodeAll when the caller expects data to
// contain exactly one item.
func Decode(data []byte) (Value, int, error) {
	v, n, err := decodeValue(data, 0)
	if err != nil {
		return nil, 0, err
	}
	return v, n, nil
}

// DecodeAll parses exactly one CBOR data item and requires that it consume
// the entirety of data.
func DecodeAll(data []byte) (Value, error) {
	v, n, err := decodeValue(data, 0)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, newDecodeError(ErrInvalidCbor, n)
	}
	return v, nil
}

// decodeValue decodes the item starting at data[0] and returns it along
// with the number of bytes consumed from data. offset is the absolute
// position of data[0] within the original input, used only to annotate
// errors with a meaningful byte offset.
func decodeValue(data []byte, offset int) (Value, int, error) {
	mt, arg, headLen, err := readHead(data, offset)
	if err != nil {
		return nil, 0, err
	}

	switch mt {
	case MajorUnsignedInt:
		return Uint(arg), headLen, nil
	case MajorNegativeInt:
		return NegInt(arg), headLen, nil
	case MajorByteString:
		end := headLen + int(arg)
		if arg > uint64(len(data)-headLen) || end < headLen {
			return nil, 0, newDecodeError(ErrInvalidCbor, offset+headLen)
		}
		b := make([]byte, arg)
		copy(b, data[headLen:end])
		return Bytes(b), end, nil
	case MajorTextString:
		end := headLen + int(arg)
		if arg > uint64(len(data)-headLen) || end < headLen {
			return nil, 0, newDecodeError(ErrInvalidCbor, offset+headLen)
		}
		raw := data[headLen:end]
		if !utf8.Valid(raw) {
			return nil, 0, newDecodeError(fmt.Errorf("%w: %w", ErrInvalidCbor, ErrInvalidUtf8), offset+headLen)
		}
		return Text(string(raw)), end, nil
	case MajorArray:
		return decodeArray(data, offset, headLen, arg)
	case MajorMap:
		return decodeMap(data, offset, headLen, arg)
	case MajorSimple:
		switch arg {
		case uint64(simpleFalse):
			return Bool(false), headLen, nil
		case uint64(simpleTrue):
			return Bool(true), headLen, nil
		default:
			// Half, single and double floats (additional info 25/26/27)
			// are unsupported; any other simple value is invalid here.
			if _, ai := decodeHead(data[0]); ai >= ai16Bit && ai <= ai64Bit {
				return nil, 0, newDecodeError(ErrUnsupported, offset)
			}
			return nil, 0, newDecodeError(ErrInvalidCbor, offset)
		}
	default:
		return nil, 0, newDecodeError(ErrUnsupported, offset)
	}
}

func decodeArray(data []byte, offset, consumed int, count uint64) (Value, int, error) {
	elems := make(Array, 0, capHint(count, 1<<16))
	for i := uint64(0); i < count; i++ {
		if consumed >= len(data) {
			return nil, 0, newDecodeError(ErrInvalidCbor, offset+consumed)
		}
		v, n, err := decodeValue(data[consumed:], offset+consumed)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, v)
		consumed += n
	}
	return elems, consumed, nil
}

func decodeMap(data []byte, offset, consumed int, count uint64) (Value, int, error) {
	entries := make(Map, 0, capHint(count, 1<<16))
	for i := uint64(0); i < count; i++ {
		if consumed >= len(data) {
			return nil, 0, newDecodeError(ErrInvalidCbor, offset+consumed)
		}
		key, kn, err := decodeValue(data[consumed:], offset+consumed)
		if err != nil {
			return nil, 0, err
		}
		consumed += kn

		if consumed >= len(data) {
			return nil, 0, newDecodeError(ErrInvalidCbor, offset+consumed)
		}
		val, vn, err := decodeValue(data[consumed:], offset+consumed)
		if err != nil {
			return nil, 0, err
		}
		consumed += vn

		for _, e := range entries {
			if valuesEqual(e.Key, key) {
				return nil, 0, newDecodeError(ErrDuplicateKey, offset)
			}
		}
		entries = append(entries, MapEntry{Key: key, Value: val})
	}
	return entries, consumed, nil
}

// readHead decodes the head byte (and any following argument bytes) at the
// front of data, returning the major type, the decoded argument, and the
// total number of bytes the head occupied.
func readHead(data []byte, offset int) (MajorType, uint64, int, error) {
	if len(data) < 1 {
		return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
	}
	mt, ai := decodeHead(data[0])

	switch {
	case ai <= aiDirectMax:
		return mt, uint64(ai), 1, nil
	case ai == ai8Bit:
		if len(data) < 2 {
			return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
		}
		return mt, uint64(data[1]), 2, nil
	case ai == ai16Bit:
		if len(data) < 3 {
			return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
		}
		return mt, uint64(binary.BigEndian.Uint16(data[1:3])), 3, nil
	case ai == ai32Bit:
		if len(data) < 5 {
			return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
		}
		return mt, uint64(binary.BigEndian.Uint32(data[1:5])), 5, nil
	case ai == ai64Bit:
		if len(data) < 9 {
			return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
		}
		return mt, binary.BigEndian.Uint64(data[1:9]), 9, nil
	default:
		// 28, 29, 30 are reserved/invalid; 31 is indefinite-length, which
		// this codec does not support.
		if ai == aiIndefinite {
			return 0, 0, 0, newDecodeError(ErrUnsupported, offset)
		}
		return 0, 0, 0, newDecodeError(ErrInvalidCbor, offset)
	}
}

// capHint bounds a slice pre-allocation by a declared element count without
// trusting it outright: a maliciously large count in the head must not
// itself cause a huge allocation before the data backing it is validated.
func capHint(count uint64, max int) int {
	if count > uint64(max) {
		return max
	}
	return int(count)
}
