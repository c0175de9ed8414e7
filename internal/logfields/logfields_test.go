package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Combination", KeyCombination, "cool|low|18", Combination("cool|low|18")},
		{"OpMode", KeyOpMode, "cool", OpMode("cool")},
		{"FanMode", KeyFanMode, "low", FanMode("low")},
		{"SwingMode", KeySwingMode, "auto", SwingMode("auto")},
		{"Device", KeyDevice, "RM mini", Device("RM mini")},
		{"Addr", KeyAddr, "192.168.1.20:80", Addr("192.168.1.20:80")},
		{"Path", KeyPath, "/tmp/x.json", Path("/tmp/x.json")},
		{"SessionID", KeySessionID, "sess1", SessionID("sess1")},
		{"ReusedFrom", KeyReusedFrom, "cool|low|16", ReusedFrom("cool|low|16")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Temperature(18); v.Key != KeyTemperature {
		t.Fatalf("Temperature key mismatch: %s", v.Key)
	}
	if v := DeviceType(0x2712); v.Key != KeyDeviceType {
		t.Fatalf("DeviceType key mismatch: %s", v.Key)
	}
	if v := Captured(3); v.Key != KeyCaptured {
		t.Fatalf("Captured key mismatch: %s", v.Key)
	}
	if v := Skipped(1); v.Key != KeySkipped {
		t.Fatalf("Skipped key mismatch: %s", v.Key)
	}
	if v := Pending(7); v.Key != KeyPending {
		t.Fatalf("Pending key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("expected empty error string, got %s", attr.Value.String())
	}
	attr = Error(errors.New("boom"))
	if attr.Value.String() != "boom" {
		t.Fatalf("expected boom, got %s", attr.Value.String())
	}
}
