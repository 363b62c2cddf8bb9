package fido

import "github.com/argon-chat/fidocore/cbor"

// AlgorithmDescriptor names one supported public-key credential algorithm:
// a fixed credential type and a signed COSE algorithm identifier, e.g.
// Alg: -7 for ES256.
type AlgorithmDescriptor struct {
	Type string
	Alg  int64
}

func (d AlgorithmDescriptor) toCBOR() cbor.Value {
	return cbor.Map{
		{Key: cbor.Text("alg"), Value: cbor.Int(d.Alg)},
		{Key: cbor.Text("type"), Value: cbor.Text(d.Type)},
	}
}

// Settings is the authenticatorGetInfo response body. Every field is
// optional; a nil/zero-length field is omitted from the encoded response
// rather than emitted with a placeholder value. Indices in field comments
// are the CTAP2 getInfo response map keys this field serializes to.
type Settings struct {
	Versions            []string              // 0x01
	Extensions          []string              // 0x02
	AAGUID               []byte                // 0x03, exactly 16 bytes
	Options              map[string]bool       // 0x04
	MaxMsgSize           *uint64               // 0x05
	PinUvAuthProtocols   []int64               // 0x06
	MaxCredentialCount   *uint64               // 0x07
	MaxCredentialIDLen   *uint64               // 0x08
	Transports           []string              // 0x09
	Algorithms           []AlgorithmDescriptor // 0x0A
	MaxSerializedLBArray *uint64               // 0x0B
	ForcePINChange       *bool                 // 0x0C
	MinPINLength         *uint64               // 0x0D
	FirmwareVersion      *uint64               // 0x0E
	MaxCredBlobLength    *uint64               // 0x0F
	MaxRPIDsForMinPIN    *uint64               // 0x10
	PreferredPlatformUV  *uint64               // 0x11
	UVModality           *uint64               // 0x12
	Certifications       map[string]int64      // 0x13
	RemainingDiscoverable *uint64              // 0x14
	VendorPrototypeCmds  []int64               // 0x15
	AttestationFormats   []string              // 0x16
	UVCountSinceLastPin  *uint64               // 0x17
	LongTouchForReset    *bool                 // 0x18
}

// DefaultSettings returns the settings of a minimal, USB-only,
// user-presence-capable authenticator reporting CTAP 2.1 and a single
// ES256 algorithm. aaguid must be exactly 16 bytes.
func DefaultSettings(aaguid []byte) Settings {
	if len(aaguid) != 16 {
		panic("fido: aaguid must be 16 bytes")
	}
	return Settings{
		Versions: []string{"FIDO_2_1"},
		AAGUID:   aaguid,
		Options: map[string]bool{
			"rk":                            false,
			"up":                            true,
			"plat":                          false,
			"makeCredUvNotRqd":              false,
			"noMcGaPermissionsWithClientPin": false,
		},
		Transports: []string{"usb"},
		Algorithms: []AlgorithmDescriptor{{Type: "public-key", Alg: -7}},
	}
}

func stringArray(ss []string) cbor.Value {
	arr := make(cbor.Array, len(ss))
	for i, s := range ss {
		arr[i] = cbor.Text(s)
	}
	return arr
}

func intArray(ns []int64) cbor.Value {
	arr := make(cbor.Array, len(ns))
	for i, n := range ns {
		arr[i] = cbor.Int(n)
	}
	return arr
}

func boolMap(m map[string]bool) cbor.Value {
	entries := make(cbor.Map, 0, len(m))
	for k, v := range m {
		entries = append(entries, cbor.MapEntry{Key: cbor.Text(k), Value: cbor.Bool(v)})
	}
	return entries
}

func intMap(m map[string]int64) cbor.Value {
	entries := make(cbor.Map, 0, len(m))
	for k, v := range m {
		entries = append(entries, cbor.MapEntry{Key: cbor.Text(k), Value: cbor.Int(v)})
	}
	return entries
}

// toCBOR builds the getInfo response map, including each entry only if the
// corresponding settings field is populated. Key ordering on the wire is
// the codec's job (RFC 8949 §4.2.1 canonical ordering); entries are
// appended here in field order purely for readability.
func (s Settings) toCBOR() cbor.Value {
	var m cbor.Map

	put := func(key int64, v cbor.Value) {
		m = append(m, cbor.MapEntry{Key: cbor.Int(key), Value: v})
	}

	if len(s.Versions) > 0 {
		put(0x01, stringArray(s.Versions))
	}
	if len(s.Extensions) > 0 {
		put(0x02, stringArray(s.Extensions))
	}
	if len(s.AAGUID) > 0 {
		put(0x03, cbor.Bytes(s.AAGUID))
	}
	if len(s.Options) > 0 {
		put(0x04, boolMap(s.Options))
	}
	if s.MaxMsgSize != nil {
		put(0x05, cbor.Uint(*s.MaxMsgSize))
	}
	if len(s.PinUvAuthProtocols) > 0 {
		put(0x06, intArray(s.PinUvAuthProtocols))
	}
	if s.MaxCredentialCount != nil {
		put(0x07, cbor.Uint(*s.MaxCredentialCount))
	}
	if s.MaxCredentialIDLen != nil {
		put(0x08, cbor.Uint(*s.MaxCredentialIDLen))
	}
	if len(s.Transports) > 0 {
		put(0x09, stringArray(s.Transports))
	}
	if len(s.Algorithms) > 0 {
		arr := make(cbor.Array, len(s.Algorithms))
		for i, d := range s.Algorithms {
			arr[i] = d.toCBOR()
		}
		put(0x0A, arr)
	}
	if s.MaxSerializedLBArray != nil {
		put(0x0B, cbor.Uint(*s.MaxSerializedLBArray))
	}
	if s.ForcePINChange != nil {
		put(0x0C, cbor.Bool(*s.ForcePINChange))
	}
	if s.MinPINLength != nil {
		put(0x0D, cbor.Uint(*s.MinPINLength))
	}
	if s.FirmwareVersion != nil {
		put(0x0E, cbor.Uint(*s.FirmwareVersion))
	}
	if s.MaxCredBlobLength != nil {
		put(0x0F, cbor.Uint(*s.MaxCredBlobLength))
	}
	if s.MaxRPIDsForMinPIN != nil {
		put(0x10, cbor.Uint(*s.MaxRPIDsForMinPIN))
	}
	if s.PreferredPlatformUV != nil {
		put(0x11, cbor.Uint(*s.PreferredPlatformUV))
	}
	if s.UVModality != nil {
		put(0x12, cbor.Uint(*s.UVModality))
	}
	if len(s.Certifications) > 0 {
		put(0x13, intMap(s.Certifications))
	}
	if s.RemainingDiscoverable != nil {
		put(0x14, cbor.Uint(*s.RemainingDiscoverable))
	}
	if len(s.VendorPrototypeCmds) > 0 {
		put(0x15, intArray(s.VendorPrototypeCmds))
	}
	if len(s.AttestationFormats) > 0 {
		put(0x16, stringArray(s.AttestationFormats))
	}
	if s.UVCountSinceLastPin != nil {
		put(0x17, cbor.Uint(*s.UVCountSinceLastPin))
	}
	if s.LongTouchForReset != nil {
		put(0x18, cbor.Bool(*s.LongTouchForReset))
	}

	return m
}
