package cbor

import (
	"bytes"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeIntegerVectors(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want []byte
	}{
		{"zero", Int(0), []byte{0x00}},
		{"twentythree", Int(23), []byte{0x17}},
		{"twentyfour", Int(24), []byte{0x18, 0x18}},
		{"thousand", Int(1000), []byte{0x19, 0x03, 0xE8}},
		{"minus_one", Int(-1), []byte{0x20}},
		{"minus_thousand", Int(-1000), []byte{0x39, 0x03, 0xE7}},
		{"max_uint64", Uint(math.MaxUint64), []byte{0x1B, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.v)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Encode(%v) = % X, want % X", tt.v, got, tt.want)
			}

			decoded, err := DecodeAll(tt.want)
			if err != nil {
				t.Fatalf("DecodeAll: %v", err)
			}
			if diff := cmp.Diff(tt.v, decoded); diff != "" {
				t.Errorf("DecodeAll round-trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeMapVector(t *testing.T) {
	// Entries given out of order must still encode in canonical key order:
	// encode({"a":"A","b":"B","c":"C","d":"D","e":"E"})
	m := Map{
		{Key: Text("c"), Value: Text("C")},
		{Key: Text("a"), Value: Text("A")},
		{Key: Text("e"), Value: Text("E")},
		{Key: Text("b"), Value: Text("B")},
		{Key: Text("d"), Value: Text("D")},
	}

	got, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	want := []byte{
		0xA5,
		0x61, 'a', 0x61, 'A',
		0x61, 'b', 0x61, 'B',
		0x61, 'c', 0x61, 'C',
		0x61, 'd', 0x61, 'D',
		0x61, 'e', 0x61, 'E',
	}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(map) = % X, want % X", got, want)
	}
}

func TestCanonicalDeterminism(t *testing.T) {
	// Any permutation of the same logical entries must encode identically.
	base := Map{
		{Key: Int(1), Value: Text("one")},
		{Key: Int(2), Value: Text("two")},
		{Key: Int(10), Value: Text("ten")},
	}
	permuted := Map{
		{Key: Int(10), Value: Text("ten")},
		{Key: Int(1), Value: Text("one")},
		{Key: Int(2), Value: Text("two")},
	}

	a, err := Encode(base)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encode(permuted)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("permuted map encodings differ: % X vs % X", a, b)
	}
}

func TestCanonicalOrderingIntegerVsString(t *testing.T) {
	m := Map{
		{Key: Text("z"), Value: Bool(true)},
		{Key: Int(5), Value: Bool(false)},
	}
	got, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	// integer key must be emitted before the text key.
	want := []byte{0xA2, 0x05, 0xF4, 0x61, 'z', 0xF5}
	if !bytes.Equal(got, want) {
		t.Errorf("got % X, want % X", got, want)
	}
}

func TestCanonicalOrderingStringLengthThenLex(t *testing.T) {
	m := Map{
		{Key: Text("bb"), Value: Int(2)},
		{Key: Text("a"), Value: Int(1)},
		{Key: Text("ab"), Value: Int(3)},
	}
	got, err := Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeAll(got)
	if err != nil {
		t.Fatal(err)
	}
	dm := decoded.(Map)
	wantOrder := []string{"a", "ab", "bb"}
	for i, k := range wantOrder {
		if string(dm[i].Key.(Text)) != k {
			t.Fatalf("entry %d key = %q, want %q", i, dm[i].Key, k)
		}
	}
}

func TestDuplicateKeyRejected(t *testing.T) {
	m := Map{
		{Key: Int(1), Value: Text("a")},
		{Key: Int(1), Value: Text("b")},
	}
	if _, err := Encode(m); err == nil {
		t.Fatal("Encode of map with duplicate keys should fail")
	}

	encoded := []byte{0xA2, 0x01, 0x61, 'a', 0x01, 0x61, 'b'}
	if _, err := DecodeAll(encoded); err == nil {
		t.Fatal("DecodeAll of wire map with duplicate keys should fail")
	}
}

func TestBooleans(t *testing.T) {
	for _, tt := range []struct {
		v    Bool
		want byte
	}{
		{false, 0xF4},
		{true, 0xF5},
	} {
		got, err := Encode(tt.v)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != tt.want {
			t.Errorf("Encode(%v) = % X, want [%02X]", tt.v, got, tt.want)
		}
	}
}

func TestInvalidUtf8Rejected(t *testing.T) {
	// major type 3, length 1, byte 0xFF (not valid UTF-8 on its own).
	_, err := DecodeAll([]byte{0x61, 0xFF})
	if err == nil {
		t.Fatal("expected invalid UTF-8 to be rejected")
	}
	if !errors.Is(err, ErrInvalidUtf8) {
		t.Errorf("errors.Is(err, ErrInvalidUtf8) = false, want true")
	}
	if !errors.Is(err, ErrInvalidCbor) {
		t.Errorf("errors.Is(err, ErrInvalidCbor) = false, want true")
	}
}

func TestUnsupportedConstructsRejected(t *testing.T) {
	tests := map[string][]byte{
		"tag":               {0xC0, 0x00},
		"float16":           {0xF9, 0x00, 0x00},
		"float32":           {0xFA, 0x00, 0x00, 0x00, 0x00},
		"float64":           {0xFB, 0, 0, 0, 0, 0, 0, 0, 0},
		"indefinite_array":  {0x9F, 0xFF},
		"indefinite_map":    {0xBF, 0xFF},
		"reserved_additional_info": {0x1C},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeAll(data); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestTruncatedInputRejected(t *testing.T) {
	tests := map[string][]byte{
		"truncated_arg":    {0x19, 0x01},       // 16-bit arg, only 1 byte follows
		"truncated_bytes":  {0x43, 0x01, 0x02}, // claims 3 bytes, only 2 present
		"truncated_array":  {0x81},             // array of 1, no element
		"truncated_map_key": {0xA1},            // map of 1, no key/value
		"empty":            {},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeAll(data); err == nil {
				t.Fatalf("expected %s to be rejected", name)
			}
		})
	}
}

func TestMinimalHeadEncoding(t *testing.T) {
	tests := []struct {
		value      uint64
		headLen    int
	}{
		{0, 1}, {23, 1},
		{24, 2}, {255, 2},
		{256, 3}, {65535, 3},
		{65536, 5}, {math.MaxUint32, 5},
		{math.MaxUint32 + 1, 9}, {math.MaxUint64, 9},
	}
	for _, tt := range tests {
		got, err := Encode(Uint(tt.value))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != tt.headLen {
			t.Errorf("value %d: encoded head length = %d, want %d", tt.value, len(got), tt.headLen)
		}
	}
}

func TestIntFromBigRange(t *testing.T) {
	max := new(big.Int).SetUint64(math.MaxUint64)
	if _, err := IntFromBig(max); err != nil {
		t.Fatalf("max uint64 should be representable: %v", err)
	}

	tooBig := new(big.Int).Add(max, big.NewInt(1))
	if _, err := IntFromBig(tooBig); err == nil {
		t.Fatal("expected ErrOutOfRange for value above max uint64")
	}

	tooNegative := new(big.Int).Sub(new(big.Int).Neg(max), big.NewInt(2))
	if _, err := IntFromBig(tooNegative); err == nil {
		t.Fatal("expected ErrOutOfRange for value below -2^64")
	}
}

func TestArrayRoundTrip(t *testing.T) {
	v := Array{Int(1), Text("two"), Bytes{3}, Bool(true)}
	encoded, err := Encode(v)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeAll(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(v, decoded); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}
