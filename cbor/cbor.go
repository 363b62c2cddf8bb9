// Package cbor implements the bounded subset of RFC 8949 Concise Binary
// Object Representation required by CTAP2: unsigned and negative integers,
// byte strings, UTF-8 text strings, definite-length arrays and maps, and
// booleans, always emitted in CTAP2 canonical ("deterministic") form.
//
// This implementation is inspired by .NET's System.Formats.Cbor, the same
// lineage the rest of this module's CBOR machinery descends from, but trades
// its streaming reader/writer API for a pure value-tree one: Encode takes a
// Value and returns bytes, Decode takes bytes and returns a Value. There is
// no mutable encoder/decoder state that outlives a single call.
//
// Deliberately unsupported, per CTAP2: major type 6 (tagged items), floats
// (major type 7, additional info 25/26/27), indefinite-length items, and the
// break stop byte. Decoding any of these fails with ErrUnsupported.
package cbor

// MajorType is the CBOR major type, the high 3 bits of an item's head byte.
type MajorType byte

const (
	MajorUnsignedInt MajorType = 0
	MajorNegativeInt MajorType = 1
	MajorByteString  MajorType = 2
	MajorTextString  MajorType = 3
	MajorArray       MajorType = 4
	MajorMap         MajorType = 5
	MajorSimple      MajorType = 7
)

// Additional-information codes in the low 5 bits of the head byte.
const (
	aiDirectMax  = 23
	ai8Bit       = 24
	ai16Bit      = 25
	ai32Bit      = 26
	ai64Bit      = 27
	aiIndefinite = 31
)

// Simple values used under MajorSimple. CTAP2 canonical CBOR only ever uses
// the boolean pair; any other value in this major type is Unsupported.
const (
	simpleFalse byte = 20
	simpleTrue  byte = 21
)

// encodeHead returns the major type merged with a raw additional-info value.
func encodeHead(mt MajorType, ai byte) byte {
	return byte(mt)<<5 | (ai & 0x1F)
}

// decodeHead splits a head byte into its major type and additional-info code.
func decodeHead(b byte) (MajorType, byte) {
	return MajorType(b >> 5), b & 0x1F
}
