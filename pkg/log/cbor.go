package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// An .hlog capture is a plain concatenation of CBOR-encoded Event records.
// Encoding is canonical so identical captures compare byte for byte, and
// timestamps keep nanosecond precision because a short report round trip
// can complete well inside a millisecond.
var (
	hlogEnc cbor.EncMode
	hlogDec cbor.DecMode
)

func init() {
	var err error

	hlogEnc, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: building .hlog encoder mode: %v", err))
	}

	// Decoding stays permissive. Captures written by newer versions may
	// carry record fields this one does not know.
	hlogDec, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: building .hlog decoder mode: %v", err))
	}
}

// EncodeEvent marshals a single capture record.
func EncodeEvent(event Event) ([]byte, error) {
	return hlogEnc.Marshal(event)
}

// DecodeEvent unmarshals a single capture record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := hlogDec.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns a CBOR encoder producing an .hlog record stream on w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return hlogEnc.NewEncoder(w)
}

// NewDecoder returns a CBOR decoder consuming an .hlog record stream from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return hlogDec.NewDecoder(r)
}
