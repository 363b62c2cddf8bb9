package cbor

import (
	"bytes"
	"math/big"
)

// Value is a CBOR data item. The concrete types below are the only values
// this package's Encode/Decode accept or produce: Uint, NegInt, Bytes,
// Text, Array, and Map for containers, and Bool.
type Value interface {
	majorType() MajorType
}

// Uint is an unsigned integer (major type 0), argument 0..2^64-1.
type Uint uint64

// NegInt is a negative integer (major type 1). Its wire argument is stored
// directly; the logical value it represents is -1-int64(NegInt). Kept as
// the raw argument (rather than an int64) because CBOR negative integers
// span down to -2^64, one value past what int64 can hold.
type NegInt uint64

// Bytes is a byte string (major type 2): an opaque octet sequence.
type Bytes []byte

// Text is a UTF-8 text string (major type 3).
type Text string

// Array is a finite, ordered sequence of values (major type 4).
type Array []Value

// MapEntry is one key/value pair of a Map.
type MapEntry struct {
	Key   Value
	Value Value
}

// Map is a finite collection of key/value pairs (major type 5). Entries may
// be supplied in any order: Encode always sorts them into CTAP2 canonical
// order before emission, so the Map value itself carries no ordering
// guarantee on its own.
type Map []MapEntry

// Bool is a CBOR boolean (major type 7, simple value 20 or 21).
type Bool bool

func (Uint) majorType() MajorType { return MajorUnsignedInt }
func (NegInt) majorType() MajorType { return MajorNegativeInt }
func (Bytes) majorType() MajorType { return MajorByteString }
func (Text) majorType() MajorType { return MajorTextString }
func (Array) majorType() MajorType { return MajorArray }
func (Map) majorType() MajorType { return MajorMap }
func (Bool) majorType() MajorType { return MajorSimple }

// Int builds the canonical integer Value for a signed 64-bit value.
func Int(v int64) Value {
	if v >= 0 {
		return Uint(v)
	}
	return NegInt(uint64(-1 - v))
}

// Int64 reports the logical signed value of an integer Value, when it fits
// in an int64. ok is false for Uint values above math.MaxInt64, for NegInt
// values below math.MinInt64, or for any non-integer Value.
func Int64(v Value) (value int64, ok bool) {
	switch n := v.(type) {
	case Uint:
		if uint64(n) > 1<<63-1 {
			return 0, false
		}
		return int64(n), true
	case NegInt:
		// logical = -1 - n; the smallest representable logical int64 is
		// -1-math.MaxInt64, so any argument above math.MaxInt64 overflows.
		if uint64(n) > 1<<63-1 {
			return 0, false
		}
		return -1 - int64(n), true
	default:
		return 0, false
	}
}

// maxUint64Big and minNegBig bound the integers representable by Uint/NegInt.
var (
	maxUint64Big = new(big.Int).SetUint64(^uint64(0))                              // 2^64 - 1
	minNegBig    = new(big.Int).Neg(new(big.Int).Add(maxUint64Big, big.NewInt(1))) // -2^64
)

// IntFromBig converts an arbitrary-precision integer into the canonical
// Uint/NegInt Value, failing with ErrOutOfRange if n falls outside the
// CBOR-representable range -2^64..2^64-1. Unlike RFC 8949 bignums (tag 2/3),
// this never emits a tag: tags are unsupported by this codec entirely.
func IntFromBig(n *big.Int) (Value, error) {
	if n.Sign() >= 0 {
		if n.Cmp(maxUint64Big) > 0 {
			return nil, ErrOutOfRange
		}
		return Uint(n.Uint64()), nil
	}
	if n.Cmp(minNegBig) < 0 {
		return nil, ErrOutOfRange
	}
	// logical = -1 - arg  =>  arg = -1 - logical = -(logical + 1)
	arg := new(big.Int).Neg(n)
	arg.Sub(arg, big.NewInt(1))
	return NegInt(arg.Uint64()), nil
}

// Get returns the value associated with key in m, and whether it was found.
func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m {
		if valuesEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

func valuesEqual(a, b Value) bool {
	if a.majorType() != b.majorType() {
		return false
	}
	switch av := a.(type) {
	case Uint:
		return av == b.(Uint)
	case NegInt:
		return av == b.(NegInt)
	case Bytes:
		return bytes.Equal(av, b.(Bytes))
	case Text:
		return av == b.(Text)
	case Bool:
		return av == b.(Bool)
	default:
		return false
	}
}
