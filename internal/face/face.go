// Package face defines the opaque NDN transport collaborator: interest
// filter registration and outgoing Data delivery. The publisher never
// talks to a concrete transport directly, only through this interface.
package face

import (
	enc "github.com/named-data/ndnd/std/encoding"

	"github.com/ndnvc/publisher/media"
)

// Interest is an incoming NDN Interest, reduced to what the publisher's
// reactive callbacks need: the requested name and when it was received.
type Interest struct {
	Name         enc.Name
	ReceivedAtMS int64
}

// InterestCallback handles an Interest matching a registered filter. It
// runs on the face's own goroutine/thread.
type InterestCallback func(interest Interest, f Face)

// Face is the opaque NDN transport handle.
type Face interface {
	// RegisterInterestFilter binds cb to interests under prefix.
	RegisterInterestFilter(prefix enc.Name, cb InterestCallback)
	// PutData sends pkt out over the transport. Non-blocking.
	PutData(pkt media.Packet)
}
