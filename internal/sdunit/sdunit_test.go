package sdunit

import (
	"testing"

	godbus "github.com/godbus/dbus/v5"
)

func TestNormalize(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"nginx", "nginx.service"},
		{"nginx.service", "nginx.service"},
		{"backup.timer", "backup.timer"},
		{"dev-sda1.mount", "dev-sda1.mount"},
	} {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMatchExpressions(t *testing.T) {
	if got := Match("nginx"); got != "_SYSTEMD_UNIT=nginx.service" {
		t.Errorf("Match = %q", got)
	}
	if got := UserMatch("syncthing"); got != "_SYSTEMD_USER_UNIT=syncthing.service" {
		t.Errorf("UserMatch = %q", got)
	}
	if got := InvocationMatch("abc123"); got != "_SYSTEMD_INVOCATION_ID=abc123" {
		t.Errorf("InvocationMatch = %q", got)
	}
}

func TestDecodeInvocationID(t *testing.T) {
	id, err := decodeInvocationID(godbus.MakeVariant([]byte{
		0x4e, 0x3f, 0x00, 0x11, 0x22, 0x33, 0x44, 0x55,
		0x66, 0x77, 0x88, 0x99, 0xaa, 0xbb, 0xcc, 0xdd,
	}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if id != "4e3f00112233445566778899aabbccdd" {
		t.Errorf("id = %q", id)
	}

	if _, err := decodeInvocationID(godbus.MakeVariant(make([]byte, 16))); err == nil {
		t.Error("all-zero ID accepted; want inactive-unit error")
	}
	if _, err := decodeInvocationID(godbus.MakeVariant("wrong type")); err == nil {
		t.Error("string variant accepted; want type error")
	}
}
