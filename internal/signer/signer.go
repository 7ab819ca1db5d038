// Package signer selects between the two signature modes the publisher
// uses: digest-only (SHA-256, for data and parity segments whose
// implicit digest already provides integrity) and full keychain
// signatures (for everything else). The keychain itself is an opaque,
// externally-supplied collaborator, per the spec's external-interfaces
// section; this package only tracks which mode applies to which packet
// and accumulates signing statistics.
package signer

import (
	"sync/atomic"

	"github.com/named-data/ndnd/std/ndn"
	sec "github.com/named-data/ndnd/std/security"
)

// Signer wraps a caller-supplied keychain signer alongside an internal
// digest-only signer, and tracks bytes/packets signed across both.
type Signer struct {
	keychain ndn.Signer
	digest   ndn.Signer

	packets atomic.Int64
	bytes   atomic.Int64
}

// New creates a Signer. keychain is the opaque keychain collaborator used
// for every packet except data and parity segments.
func New(keychain ndn.Signer) *Signer {
	return &Signer{
		keychain: keychain,
		digest:   sec.NewSha256Signer(),
	}
}

// Digest returns the signer to use for data and parity segments.
func (s *Signer) Digest() ndn.Signer { return s.digest }

// Keychain returns the signer to use for every other packet type.
func (s *Signer) Keychain() ndn.Signer { return s.keychain }

// Track records that a packet of wireLen bytes was signed, for the
// signer's byte/packet counters.
func (s *Signer) Track(wireLen int) {
	s.packets.Add(1)
	s.bytes.Add(int64(wireLen))
}

// Stats is a point-in-time snapshot of the signer's counters.
type Stats struct {
	Packets int64
	Bytes   int64
}

// Statistics returns the current signing counters.
func (s *Signer) Statistics() Stats {
	return Stats{Packets: s.packets.Load(), Bytes: s.bytes.Load()}
}
