// Package codec wraps the opaque low-level video encoder collaborator
// (out of scope per the spec) with the synchronous encoded/dropped
// callback contract the publisher's encode cycle depends on, and adds
// construction-time validation of the settings that would otherwise
// surface only as a division-by-zero or an infinite freshness plan.
package codec

import (
	"fmt"

	"github.com/ndnvc/publisher/media"
)

// Codec is the opaque video encoder collaborator. It is contractually
// synchronous: Encode invokes exactly one of onEncoded or onDropped
// before returning.
type Codec interface {
	InitEncoder(settings media.CodecSettings) error
	Encode(img media.Image, forceKeyframe bool, onEncoded func(media.EncodedFrame), onDropped func()) error
	Stats() media.CodecStats
}

// Adapter wraps a Codec, validating settings at construction time and
// providing a stable surface for StreamPublisher regardless of which
// concrete Codec backs it.
type Adapter struct {
	codec    Codec
	settings media.CodecSettings
}

// NewAdapter validates settings and initializes the underlying codec.
func NewAdapter(c Codec, settings media.CodecSettings) (*Adapter, error) {
	if settings.FPS <= 0 {
		return nil, fmt.Errorf("codec: fps must be positive, got %d", settings.FPS)
	}
	if settings.GOP <= 0 {
		return nil, fmt.Errorf("codec: gop must be positive, got %d", settings.GOP)
	}
	if err := c.InitEncoder(settings); err != nil {
		return nil, fmt.Errorf("codec: init encoder: %w", err)
	}
	return &Adapter{codec: c, settings: settings}, nil
}

// Settings returns the codec settings this adapter was constructed with.
func (a *Adapter) Settings() media.CodecSettings { return a.settings }

// Encode forwards to the underlying codec.
func (a *Adapter) Encode(img media.Image, forceKeyframe bool, onEncoded func(media.EncodedFrame), onDropped func()) error {
	return a.codec.Encode(img, forceKeyframe, onEncoded, onDropped)
}

// Stats returns the underlying codec's own statistics surface.
func (a *Adapter) Stats() media.CodecStats {
	return a.codec.Stats()
}
