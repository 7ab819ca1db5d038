// Package wire centralizes construction of signed NDN Data packets on top
// of github.com/named-data/ndnd/std/ndn/spec_2022. Every publisher
// component builds packets through MakeData so the one place in this
// repository that guesses at the TLV encoding library's exact call shape
// (spec_2022.Spec{}.MakeData is not directly observed anywhere in the
// example pack; its signature here is inferred from the sibling
// ndn.DataConfig/ndn.Signer usage in other_examples/zjkmxy-ndnd__rdr.go)
// is this file.
package wire

import (
	"fmt"
	"time"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"
	"github.com/named-data/ndnd/std/ndn/spec_2022"
	"github.com/named-data/ndnd/std/types/optional"

	"github.com/ndnvc/publisher/media"
)

// MakeOpts configures one MakeData call. FinalBlockID is omitted when nil.
type MakeOpts struct {
	ContentType  ndn.ContentType
	Freshness    time.Duration
	FinalBlockID *enc.Component
	Signer       ndn.Signer
}

var spec = spec_2022.Spec{}

// MakeData builds, signs, and encodes a Data packet.
func MakeData(name enc.Name, content enc.Wire, opts MakeOpts) (media.Packet, error) {
	cfg := &ndn.DataConfig{
		ContentType: optional.Some(opts.ContentType),
		Freshness:   optional.Some(opts.Freshness),
	}
	if opts.FinalBlockID != nil {
		cfg.FinalBlockID = optional.Some(*opts.FinalBlockID)
	}

	w, _, err := spec.MakeData(name, cfg, content, opts.Signer)
	if err != nil {
		return media.Packet{}, fmt.Errorf("wire: make data %s: %w", name, err)
	}

	return media.Packet{Name: name, Wire: w.Join()}, nil
}
