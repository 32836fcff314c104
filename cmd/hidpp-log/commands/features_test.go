package commands

import (
	"strings"
	"testing"
)

func TestRunFeatures(t *testing.T) {
	t.Run("All", func(t *testing.T) {
		var out strings.Builder
		if err := RunFeatures(nil, &out); err != nil {
			t.Fatalf("listing catalog: %v", err)
		}

		text := out.String()
		if !strings.Contains(text, "0x1004  UnifiedBattery") {
			t.Errorf("output missing UnifiedBattery:\n%s", text)
		}
		if !strings.Contains(text, "0x0000  Root") {
			t.Errorf("output missing Root:\n%s", text)
		}
	})

	t.Run("ByID", func(t *testing.T) {
		var out strings.Builder
		if err := RunFeatures([]string{"0x2121"}, &out); err != nil {
			t.Fatalf("looking up ID: %v", err)
		}
		if got := out.String(); got != "0x2121  HiResWheel\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("ByNameFragment", func(t *testing.T) {
		var out strings.Builder
		if err := RunFeatures([]string{"battery"}, &out); err != nil {
			t.Fatalf("looking up name: %v", err)
		}

		text := out.String()
		for _, want := range []string{"BatteryStatus", "BatteryVoltage", "UnifiedBattery"} {
			if !strings.Contains(text, want) {
				t.Errorf("output missing %q:\n%s", want, text)
			}
		}
		if strings.Contains(text, "HiResWheel") {
			t.Errorf("fragment matched an unrelated feature:\n%s", text)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		var out strings.Builder
		if err := RunFeatures([]string{"0xfff0"}, &out); err == nil {
			t.Fatal("expected an error for an unknown ID")
		}
	})
}
