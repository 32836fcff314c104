package wire

import (
	"bytes"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("Short", func(t *testing.T) {
		raw := []byte{0x10, 0x02, 0x00, 0x11, 0xaa, 0xbb, 0xcc}
		msg, ok := Parse(raw)
		if !ok {
			t.Fatal("expected short report to parse")
		}
		if msg.Kind != ReportShort {
			t.Errorf("expected SHORT kind, got %s", msg.Kind)
		}
		if msg.DeviceIndex != 0x02 || msg.SubID != 0x00 || msg.Address != 0x11 {
			t.Errorf("unexpected header: %s", msg)
		}
		if !bytes.Equal(msg.Payload(), []byte{0xaa, 0xbb, 0xcc}) {
			t.Errorf("unexpected payload: %x", msg.Payload())
		}
	})

	t.Run("Long", func(t *testing.T) {
		raw := make([]byte, 20)
		raw[0] = 0x11
		raw[1] = 0xff
		raw[2] = 0x01
		raw[3] = 0x2a
		raw[4] = 0xde
		msg, ok := Parse(raw)
		if !ok {
			t.Fatal("expected long report to parse")
		}
		if msg.Kind != ReportLong {
			t.Errorf("expected LONG kind, got %s", msg.Kind)
		}
		if len(msg.Payload()) != LongParamLength {
			t.Errorf("expected 16 parameter bytes, got %d", len(msg.Payload()))
		}
		if msg.Params[0] != 0xde {
			t.Errorf("expected first parameter 0xde, got %#02x", msg.Params[0])
		}
	})

	t.Run("RejectsWrongLength", func(t *testing.T) {
		if _, ok := Parse([]byte{0x10, 0x01, 0x02}); ok {
			t.Error("truncated short report must not parse")
		}
		if _, ok := Parse(make([]byte, 20)); ok {
			t.Error("short-tagged 20-byte buffer must not parse")
		}
	})

	t.Run("RejectsUnknownReportID", func(t *testing.T) {
		raw := []byte{0x20, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
		if _, ok := Parse(raw); ok {
			t.Error("non-HID++ report ID must not parse")
		}
		if _, ok := Parse(nil); ok {
			t.Error("empty buffer must not parse")
		}
	})
}

func TestEncodeRoundTrip(t *testing.T) {
	msg, err := New(0x02, 0x00, U4FromLo(0x1), U4FromLo(0x5), []byte{0x00, 0x00, 0x42})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	raw := msg.Encode()
	if len(raw) != 7 {
		t.Fatalf("expected 7-byte short report, got %d bytes", len(raw))
	}
	if raw[0] != 0x10 {
		t.Errorf("expected report ID 0x10, got %#02x", raw[0])
	}
	// function 0x1 in the high nibble, software ID 0x5 in the low nibble
	if raw[3] != 0x15 {
		t.Errorf("expected address byte 0x15, got %#02x", raw[3])
	}

	parsed, ok := Parse(raw)
	if !ok {
		t.Fatal("encoded report must parse")
	}
	if parsed != msg {
		t.Errorf("round trip mismatch: %s vs %s", parsed, msg)
	}
}

func TestNewSelectsFraming(t *testing.T) {
	short, err := New(0x01, 0x05, 0, 1, []byte{1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}
	if short.Kind != ReportShort {
		t.Errorf("3 parameter bytes should produce a short message, got %s", short.Kind)
	}

	long, err := New(0x01, 0x05, 0, 1, []byte{1, 2, 3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if long.Kind != ReportLong {
		t.Errorf("4 parameter bytes should produce a long message, got %s", long.Kind)
	}

	if _, err := New(0x01, 0x05, 0, 1, make([]byte, 17)); err == nil {
		t.Error("17 parameter bytes must be rejected")
	}
}

func TestNibbleAccessors(t *testing.T) {
	msg, err := New(0x01, 0x00, U4FromLo(0xf), U4FromLo(0x3), nil)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Function() != 0xf {
		t.Errorf("expected function 0xf, got %#x", msg.Function())
	}
	if msg.SoftwareID() != 0x3 {
		t.Errorf("expected software ID 0x3, got %#x", msg.SoftwareID())
	}

	retagged := msg.WithTag(U4FromLo(0x9))
	if retagged.Function() != 0xf || retagged.SoftwareID() != 0x9 {
		t.Errorf("WithTag must only replace the software ID nibble, got %#02x", retagged.Address)
	}
}

func TestAsError(t *testing.T) {
	t.Run("V20", func(t *testing.T) {
		raw := []byte{0x10, 0x02, 0xff, 0x05, 0x1a, 0x06, 0x00}
		msg, ok := Parse(raw)
		if !ok {
			t.Fatal("error report must parse")
		}

		er, ok := msg.AsError()
		if !ok {
			t.Fatal("expected an error reply")
		}
		if !er.V20 {
			t.Error("expected a HID++2.0 error")
		}
		if er.SubID != 0x05 || er.Address != 0x1a {
			t.Errorf("unexpected reconstructed key: sub=%#02x addr=%#02x", er.SubID, er.Address)
		}
		if ErrorCode20(er.Code) != Err20InvalidFeatureIndex {
			t.Errorf("expected INVALID_FEATURE_INDEX, got %s", ErrorCode20(er.Code))
		}
	})

	t.Run("V10", func(t *testing.T) {
		raw := []byte{0x10, 0xff, 0x8f, 0x81, 0x02, 0x09, 0x00}
		msg, ok := Parse(raw)
		if !ok {
			t.Fatal("error report must parse")
		}

		er, ok := msg.AsError()
		if !ok {
			t.Fatal("expected an error reply")
		}
		if er.V20 {
			t.Error("expected a HID++1.0 error")
		}
		if er.SubID != 0x81 || er.Address != 0x02 {
			t.Errorf("unexpected reconstructed key: sub=%#02x addr=%#02x", er.SubID, er.Address)
		}
		if ErrorCode10(er.Code) != Err10ResourceError {
			t.Errorf("expected RESOURCE_ERROR, got %s", ErrorCode10(er.Code))
		}
	})

	t.Run("NotAnError", func(t *testing.T) {
		msg, _ := New(0x01, 0x00, 1, 1, nil)
		if _, ok := msg.AsError(); ok {
			t.Error("regular message must not decode as an error reply")
		}
	})

	t.Run("LongV10ErrorRejected", func(t *testing.T) {
		msg := Message{Kind: ReportLong, SubID: ErrorSubID10}
		if _, ok := msg.AsError(); ok {
			t.Error("1.0 errors are short by specification")
		}
	})
}

func TestNibbles(t *testing.T) {
	if U4FromHi(0xa5) != 0xa {
		t.Errorf("U4FromHi(0xa5) = %#x", U4FromHi(0xa5))
	}
	if U4FromLo(0xa5) != 0x5 {
		t.Errorf("U4FromLo(0xa5) = %#x", U4FromLo(0xa5))
	}
	if CombineNibbles(0xa, 0x5) != 0xa5 {
		t.Errorf("CombineNibbles(0xa, 0x5) = %#02x", CombineNibbles(0xa, 0x5))
	}
}

func TestDecodeBCD(t *testing.T) {
	v, err := DecodeBCD8(0x42)
	if err != nil || v != 42 {
		t.Errorf("DecodeBCD8(0x42) = %d, %v", v, err)
	}
	if _, err := DecodeBCD8(0x4a); err == nil {
		t.Error("0x4a is not valid packed BCD")
	}

	w, err := DecodeBCD16(0x1234)
	if err != nil || w != 1234 {
		t.Errorf("DecodeBCD16(0x1234) = %d, %v", w, err)
	}
	if _, err := DecodeBCD16(0x12f4); err == nil {
		t.Error("0x12f4 is not valid packed BCD")
	}
}
