package vecenc

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode is the CBOR encoder configured with Core Deterministic
// Encoding (RFC 8949 §4.2): sorted map keys, smallest integer
// encoding, no indefinite-length items. Same logical data always
// produces identical bytes, which is what makes snapshot bytes and
// digests comparable across processes.
var encMode cbor.EncMode

// decMode is the CBOR decoder configured to accept standard CBOR.
// Unknown fields are ignored so newer writers stay readable.
var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	// Element types implementing encoding.TextMarshaler serialize as
	// CBOR text strings via MarshalText. Without this, such types
	// with unexported fields would serialize as empty CBOR maps.
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("vecenc: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		// When the decode target is any, pick map[string]any over the
		// CBOR default map[any]any so decoded values interoperate
		// with encoding/json and ordinary Go code.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirrors the TextMarshaler setting above for round trips.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("vecenc: CBOR decoder initialization failed: " + err.Error())
	}
}

// cborMarshal encodes v using Core Deterministic Encoding.
func cborMarshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// cborUnmarshal decodes CBOR data into v.
func cborUnmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}
