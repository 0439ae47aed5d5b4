// Package sdunit builds journal match expressions for systemd units,
// the way journalctl's --unit flag does, including invocation-scoped
// matches resolved over D-Bus.
package sdunit

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
)

// Normalize appends ".service" to a unit name without a type suffix,
// mirroring journalctl.
func Normalize(unit string) string {
	if strings.ContainsRune(unit, '.') {
		return unit
	}
	return unit + ".service"
}

// Match returns the match expression selecting entries emitted by a
// system unit.
func Match(unit string) string {
	return "_SYSTEMD_UNIT=" + Normalize(unit)
}

// UserMatch returns the match expression selecting entries emitted by
// a user unit.
func UserMatch(unit string) string {
	return "_SYSTEMD_USER_UNIT=" + Normalize(unit)
}

// InvocationMatch returns the match expression selecting entries from
// one specific invocation of a unit.
func InvocationMatch(invocationID string) string {
	return "_SYSTEMD_INVOCATION_ID=" + invocationID
}

// InvocationID fetches the current invocation ID of a system unit over
// D-Bus, as a lowercase hex string.
func InvocationID(ctx context.Context, unit string) (string, error) {
	conn, err := sddbus.NewWithContext(ctx)
	if err != nil {
		return "", fmt.Errorf("sdunit: connecting to systemd: %w", err)
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, Normalize(unit), "InvocationID")
	if err != nil {
		return "", fmt.Errorf("sdunit: reading InvocationID of %s: %w", unit, err)
	}
	id, err := decodeInvocationID(prop.Value)
	if err != nil {
		return "", fmt.Errorf("sdunit: unit %s: %w", unit, err)
	}
	return id, nil
}

// decodeInvocationID unpacks the InvocationID property variant, a
// 16-byte array that is all zeros while the unit is inactive.
func decodeInvocationID(v godbus.Variant) (string, error) {
	raw, ok := v.Value().([]byte)
	if !ok {
		return "", fmt.Errorf("unexpected InvocationID type %s", v.Signature())
	}
	id := hex.EncodeToString(raw)
	if len(raw) == 0 || id == strings.Repeat("0", len(id)) {
		return "", fmt.Errorf("no active invocation")
	}
	return id, nil
}
