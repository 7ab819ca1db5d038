// Package fec generates and recovers the publisher's forward error
// correction parity using systematic Reed-Solomon(28) coding over GF(2^8),
// via the klauspost/reedsolomon library.
package fec

import (
	"fmt"

	"github.com/klauspost/reedsolomon"
)

// ParityCount returns the number of parity segments for nData data
// segments: ceil(0.2 * nData), minimum 1. Callers are responsible for
// forcing this to 0 when FEC is disabled.
func ParityCount(nData int) int {
	if nData <= 0 {
		return 0
	}
	n := (nData*2 + 9) / 10 // ceil(0.2*nData) without floating point
	if n < 1 {
		n = 1
	}
	return n
}

// Encode splits data into nData shards of segmentSize bytes (zero-padding
// the final shard as needed) and computes nParity parity shards of the
// same size. It returns the parity shards only; the caller already has
// the data shards. A non-nil error indicates the frame should be
// published without FEC for this cycle.
func Encode(data []byte, segmentSize, nData, nParity int) ([][]byte, error) {
	if nData <= 0 || nParity <= 0 || segmentSize <= 0 {
		return nil, fmt.Errorf("fec: invalid shard geometry nData=%d nParity=%d segmentSize=%d", nData, nParity, segmentSize)
	}

	enc, err := reedsolomon.New(nData, nParity)
	if err != nil {
		return nil, fmt.Errorf("fec: create encoder: %w", err)
	}

	shards := make([][]byte, nData+nParity)
	for i := 0; i < nData; i++ {
		shard := make([]byte, segmentSize)
		start := i * segmentSize
		end := start + segmentSize
		if start < len(data) {
			n := end
			if n > len(data) {
				n = len(data)
			}
			copy(shard, data[start:n])
		}
		shards[i] = shard
	}
	for i := nData; i < nData+nParity; i++ {
		shards[i] = make([]byte, segmentSize)
	}

	if err := enc.Encode(shards); err != nil {
		return nil, fmt.Errorf("fec: encode: %w", err)
	}

	return shards[nData:], nil
}

// Reconstruct rebuilds any missing shards in place. shards must have
// length nData+nParity; a nil entry marks an erased shard. On success,
// every entry is populated with segmentSize bytes.
func Reconstruct(shards [][]byte, nData, nParity int) error {
	enc, err := reedsolomon.New(nData, nParity)
	if err != nil {
		return fmt.Errorf("fec: create encoder: %w", err)
	}
	if err := enc.Reconstruct(shards); err != nil {
		return fmt.Errorf("fec: reconstruct: %w", err)
	}
	return nil
}
