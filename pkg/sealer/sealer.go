package sealer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Sealer produces opaque page cursors for the completed-jobs listing.
// A cursor is the (completed_at, booking_id) position of the last row on a
// page, AES-GCM sealed so clients can neither read nor forge it.
type Sealer struct {
	key []byte
}

func New(base64Key string) (*Sealer, error) {
	key, err := base64.StdEncoding.DecodeString(base64Key)
	if err != nil {
		return nil, fmt.Errorf("invalid sealer key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("sealer key must be 32 bytes, got %d", len(key))
	}
	return &Sealer{key: key}, nil
}

func (s *Sealer) SealCursor(completedAt time.Time, bookingID string) (string, error) {
	plaintext := []byte(strconv.FormatInt(completedAt.UnixMilli(), 10) + ":" + bookingID)

	aesgcm, err := s.gcm()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ct := aesgcm.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(ct), nil
}

func (s *Sealer) OpenCursor(token string) (time.Time, string, error) {
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed page token")
	}

	aesgcm, err := s.gcm()
	if err != nil {
		return time.Time{}, "", err
	}

	nonceSize := aesgcm.NonceSize()
	if len(data) < nonceSize {
		return time.Time{}, "", fmt.Errorf("malformed page token")
	}

	pt, err := aesgcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token")
	}

	parts := strings.SplitN(string(pt), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, "", fmt.Errorf("invalid page token format")
	}

	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token timestamp")
	}

	return time.UnixMilli(millis).UTC(), parts[1], nil
}

func (s *Sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
