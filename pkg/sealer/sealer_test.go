package sealer

import (
	"crypto/rand"
	"encoding/base64"
	"testing"
	"time"
)

func newTestSealer(t *testing.T) *Sealer {
	t.Helper()
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatal(err)
	}
	s, err := New(base64.StdEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSealOpenRoundTrip(t *testing.T) {
	s := newTestSealer(t)
	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	token, err := s.SealCursor(at, "bk-789")
	if err != nil {
		t.Fatalf("SealCursor failed: %v", err)
	}

	gotAt, gotID, err := s.OpenCursor(token)
	if err != nil {
		t.Fatalf("OpenCursor failed: %v", err)
	}
	if !gotAt.Equal(at) {
		t.Errorf("timestamp = %v, want %v", gotAt, at)
	}
	if gotID != "bk-789" {
		t.Errorf("booking id = %q, want bk-789", gotID)
	}
}

func TestOpenRejectsTamperedToken(t *testing.T) {
	s := newTestSealer(t)

	token, err := s.SealCursor(time.Now(), "bk-1")
	if err != nil {
		t.Fatal(err)
	}

	raw, _ := base64.RawURLEncoding.DecodeString(token)
	raw[len(raw)-1] ^= 0x01
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	if _, _, err := s.OpenCursor(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestOpenRejectsGarbage(t *testing.T) {
	s := newTestSealer(t)

	for _, token := range []string{"", "not-base64!!!", "aaaa"} {
		if _, _, err := s.OpenCursor(token); err == nil {
			t.Errorf("expected token %q to be rejected", token)
		}
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Error("expected invalid base64 key to be rejected")
	}
	if _, err := New(base64.StdEncoding.EncodeToString([]byte("too-short"))); err == nil {
		t.Error("expected wrong-length key to be rejected")
	}
}
