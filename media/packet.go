package media

import enc "github.com/named-data/ndnd/std/encoding"

// Packet pairs a signed Data packet's name with its wire encoding, as
// produced by one publisher encode cycle and consumed by the cache and
// the face.
type Packet struct {
	Name enc.Name
	Wire []byte
}
