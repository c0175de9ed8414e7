package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyCombination = "combination"
	KeyOpMode      = "operation_mode"
	KeyFanMode     = "fan_mode"
	KeySwingMode   = "swing_mode"
	KeyTemperature = "temperature"
	KeyDevice      = "device"
	KeyDeviceType  = "device_type"
	KeyAddr        = "addr"
	KeyPath        = "path"
	KeySessionID   = "session_id"
	KeyCaptured    = "captured"
	KeySkipped     = "skipped"
	KeyPending     = "pending"
	KeyReusedFrom  = "reused_from"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Combination(key string) slog.Attr { return slog.String(KeyCombination, key) }
func OpMode(m string) slog.Attr        { return slog.String(KeyOpMode, m) }
func FanMode(m string) slog.Attr       { return slog.String(KeyFanMode, m) }
func SwingMode(m string) slog.Attr     { return slog.String(KeySwingMode, m) }
func Temperature(t int) slog.Attr      { return slog.Int(KeyTemperature, t) }
func Device(name string) slog.Attr     { return slog.String(KeyDevice, name) }
func DeviceType(t uint16) slog.Attr    { return slog.Int(KeyDeviceType, int(t)) }
func Addr(a string) slog.Attr          { return slog.String(KeyAddr, a) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func SessionID(id string) slog.Attr    { return slog.String(KeySessionID, id) }
func Captured(n int) slog.Attr         { return slog.Int(KeyCaptured, n) }
func Skipped(n int) slog.Attr          { return slog.Int(KeySkipped, n) }
func Pending(n int) slog.Attr          { return slog.Int(KeyPending, n) }
func ReusedFrom(key string) slog.Attr  { return slog.String(KeyReusedFrom, key) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
