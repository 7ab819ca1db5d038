package signer

import (
	"testing"

	sec "github.com/named-data/ndnd/std/security"
)

func TestTrackAccumulates(t *testing.T) {
	t.Parallel()

	s := New(sec.NewSha256Signer())
	s.Track(100)
	s.Track(50)

	got := s.Statistics()
	if got.Packets != 2 {
		t.Fatalf("Packets = %d, want 2", got.Packets)
	}
	if got.Bytes != 150 {
		t.Fatalf("Bytes = %d, want 150", got.Bytes)
	}
}

func TestDigestAndKeychainAreDistinct(t *testing.T) {
	t.Parallel()

	keychain := sec.NewSha256Signer()
	s := New(keychain)

	if s.Keychain() != keychain {
		t.Fatal("Keychain() did not return the supplied signer")
	}
	if s.Digest() == nil {
		t.Fatal("Digest() returned nil")
	}
}
