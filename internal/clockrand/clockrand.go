// Package clockrand provides the injectable time source and CSPRNG the
// design notes call out as a capability record rather than a singleton:
// room-code and guest-token generation must be deterministic under test,
// and session timeout math must not read time.Now() directly.
package clockrand

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"time"
)

// RoomCodeAlphabet excludes visually ambiguous characters (no I, O, 0, 1),
// per spec.md §6.
const RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Clock abstracts time.Now so the session-timeout and anonymisation logic
// can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the real wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a test double that always returns the same instant unless
// advanced.
type FixedClock struct{ T time.Time }

func (c *FixedClock) Now() time.Time { return c.T }
func (c *FixedClock) Advance(d time.Duration) { c.T = c.T.Add(d) }

// Random abstracts CSPRNG-backed generation of room codes and guest tokens.
type Random interface {
	// RoomCode returns a code of the given length drawn uniformly from
	// RoomCodeAlphabet using rejection sampling (no modulo bias).
	RoomCode(length int) (string, error)
	// GuestToken returns a URL-safe base64 secret built from numBytes of
	// CSPRNG entropy (spec default: 32 bytes == 256 bits).
	GuestToken(numBytes int) (string, error)
}

// CSPRNG is the production Random backed by crypto/rand.
type CSPRNG struct{}

func (CSPRNG) RoomCode(length int) (string, error) {
	alphabetLen := big.NewInt(int64(len(RoomCodeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

func (CSPRNG) GuestToken(numBytes int) (string, error) {
	buf := make([]byte, numBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// SequenceRandom is a deterministic test double that replays a fixed list
// of room codes / tokens, looping if exhausted.
type SequenceRandom struct {
	RoomCodes   []string
	GuestTokens []string
	roomIdx     int
	tokenIdx    int
}

func (s *SequenceRandom) RoomCode(length int) (string, error) {
	if len(s.RoomCodes) == 0 {
		return "AAAAAA"[:length], nil
	}
	code := s.RoomCodes[s.roomIdx%len(s.RoomCodes)]
	s.roomIdx++
	return code, nil
}

func (s *SequenceRandom) GuestToken(numBytes int) (string, error) {
	if len(s.GuestTokens) == 0 {
		return "test-guest-token", nil
	}
	tok := s.GuestTokens[s.tokenIdx%len(s.GuestTokens)]
	s.tokenIdx++
	return tok, nil
}
