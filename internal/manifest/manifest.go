// Package manifest builds the segments-manifest packet content: the
// concatenated 32-byte SHA-256 implicit digests of a frame's data and
// parity segments, in the style of other_examples/zjkmxy-ndnd__rdr.go's
// manifest digest computation.
package manifest

import (
	"crypto/sha256"
	"fmt"
)

// DigestSize is the size in bytes of each manifest entry.
const DigestSize = sha256.Size // 32

// Digest computes the SHA-256 implicit digest of a packet's full wire
// encoding, the same hash NDN uses for implicit-digest-in-name addressing.
func Digest(wire []byte) [DigestSize]byte {
	return sha256.Sum256(wire)
}

// Build concatenates the digests of every data segment (in index order)
// followed by every parity segment (in index order) into the manifest
// packet's content.
func Build(dataWires, parityWires [][]byte) []byte {
	out := make([]byte, 0, DigestSize*(len(dataWires)+len(parityWires)))
	for _, w := range dataWires {
		d := Digest(w)
		out = append(out, d[:]...)
	}
	for _, w := range parityWires {
		d := Digest(w)
		out = append(out, d[:]...)
	}
	return out
}

// Entries splits a manifest's content back into its individual digests.
func Entries(content []byte) ([][DigestSize]byte, error) {
	if len(content)%DigestSize != 0 {
		return nil, fmt.Errorf("manifest: content length %d not a multiple of %d", len(content), DigestSize)
	}
	n := len(content) / DigestSize
	out := make([][DigestSize]byte, n)
	for i := 0; i < n; i++ {
		copy(out[i][:], content[i*DigestSize:(i+1)*DigestSize])
	}
	return out, nil
}
