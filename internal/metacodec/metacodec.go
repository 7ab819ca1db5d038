// Package metacodec serializes the publisher's three metadata record
// types — frame meta, stream meta, and live meta — into the
// content-meta-info envelope tagged with content type "ndnrtcv4". Layout
// is hand-rolled with encoding/binary and manual byte-buffer append, in
// the style of internal/moq's decoder-config builders.
package metacodec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ndnvc/publisher/media"
)

// ContentTypeTag is the envelope tag every metadata packet's content is
// prefixed with, per the wire-level constants in the data model.
const ContentTypeTag = "ndnrtcv4"

const envelopeVersion = 1

func putEnvelope(buf []byte) []byte {
	buf = append(buf, ContentTypeTag...)
	buf = append(buf, envelopeVersion)
	return buf
}

func checkEnvelope(data []byte) ([]byte, error) {
	if len(data) < len(ContentTypeTag)+1 {
		return nil, fmt.Errorf("metacodec: content too short for envelope")
	}
	if string(data[:len(ContentTypeTag)]) != ContentTypeTag {
		return nil, fmt.Errorf("metacodec: unexpected content type tag %q", data[:len(ContentTypeTag)])
	}
	if data[len(ContentTypeTag)] != envelopeVersion {
		return nil, fmt.Errorf("metacodec: unsupported envelope version %d", data[len(ContentTypeTag)])
	}
	return data[len(ContentTypeTag)+1:], nil
}

// FrameMeta is the per-frame metadata record: capture timestamp, FEC
// parity segment count, GoP indices, frame type, and generation delay.
type FrameMeta struct {
	Type              media.FrameType
	CaptureTimeNS     int64
	ParitySize        uint32 // count of parity segments, not bytes
	GopSeq            uint64
	GopPos            uint64
	GenerationDelayMS int64
}

// EncodeFrameMeta serializes a FrameMeta into its wire envelope.
func EncodeFrameMeta(m FrameMeta) []byte {
	buf := make([]byte, 0, len(ContentTypeTag)+1+1+8+4+8+8+8)
	buf = putEnvelope(buf)

	typ := byte(0)
	if m.Type == media.FrameKey {
		typ = 1
	}
	buf = append(buf, typ)

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(m.CaptureTimeNS))
	buf = append(buf, tmp[:]...)

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], m.ParitySize)
	buf = append(buf, tmp4[:]...)

	binary.BigEndian.PutUint64(tmp[:], m.GopSeq)
	buf = append(buf, tmp[:]...)

	binary.BigEndian.PutUint64(tmp[:], m.GopPos)
	buf = append(buf, tmp[:]...)

	binary.BigEndian.PutUint64(tmp[:], uint64(m.GenerationDelayMS))
	buf = append(buf, tmp[:]...)

	return buf
}

// DecodeFrameMeta parses a FrameMeta from its wire envelope.
func DecodeFrameMeta(data []byte) (FrameMeta, error) {
	var m FrameMeta
	body, err := checkEnvelope(data)
	if err != nil {
		return m, err
	}
	if len(body) < 1+8+4+8+8+8 {
		return m, fmt.Errorf("metacodec: frame meta body too short")
	}

	if body[0] == 1 {
		m.Type = media.FrameKey
	} else {
		m.Type = media.FrameDelta
	}
	body = body[1:]

	m.CaptureTimeNS = int64(binary.BigEndian.Uint64(body[:8]))
	body = body[8:]

	m.ParitySize = binary.BigEndian.Uint32(body[:4])
	body = body[4:]

	m.GopSeq = binary.BigEndian.Uint64(body[:8])
	body = body[8:]

	m.GopPos = binary.BigEndian.Uint64(body[:8])
	body = body[8:]

	m.GenerationDelayMS = int64(binary.BigEndian.Uint64(body[:8]))

	return m, nil
}

// StreamMeta is the once-per-stream metadata record. The upstream schema
// sets its width field twice in a row — once to Width, once to Height —
// on what is effectively a scalar, last-write-wins field: the value a
// consumer reads back out is Height, and there is no separate height
// field at all. That quirk is preserved here rather than corrected: see
// EncodeStreamMeta/DecodeStreamMeta.
type StreamMeta struct {
	Width       uint32
	Height      uint32 // encoded in the second width slot; decoded as Width, never as itself
	Description string
}

// EncodeStreamMeta serializes a StreamMeta. Width and then Height are
// written into two consecutive 4-byte width slots; DecodeStreamMeta reads
// only the second, so a consumer sees the outcome of the upstream
// set_width(width); set_width(height) sequence on a single scalar field.
func EncodeStreamMeta(m StreamMeta) []byte {
	buf := make([]byte, 0, len(ContentTypeTag)+1+4+4+4+len(m.Description))
	buf = putEnvelope(buf)

	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], m.Width)
	buf = append(buf, tmp4[:]...) // first slot, never read back
	binary.BigEndian.PutUint32(tmp4[:], m.Height)
	buf = append(buf, tmp4[:]...) // second slot, decoded as Width

	binary.BigEndian.PutUint32(tmp4[:], uint32(len(m.Description)))
	buf = append(buf, tmp4[:]...)
	buf = append(buf, m.Description...)

	return buf
}

// DecodeStreamMeta parses a StreamMeta. Width comes back as the second
// (overwriting) write's value — i.e. the original Height — matching
// last-write-wins semantics on the upstream's single scalar field.
// Height is always zero: it was never a field of its own.
func DecodeStreamMeta(data []byte) (StreamMeta, error) {
	var m StreamMeta
	body, err := checkEnvelope(data)
	if err != nil {
		return m, err
	}
	if len(body) < 4+4+4 {
		return m, fmt.Errorf("metacodec: stream meta body too short")
	}

	m.Width = binary.BigEndian.Uint32(body[4:8]) // last write wins
	body = body[8:]

	descLen := binary.BigEndian.Uint32(body[:4])
	body = body[4:]
	if uint32(len(body)) < descLen {
		return m, fmt.Errorf("metacodec: stream meta description truncated")
	}
	m.Description = string(body[:descLen])

	return m, nil
}

// LiveMeta is the reactive _live branch's payload: monotonic publish
// timestamp, producer framerate, and estimated segment counts for
// {key,delta} x {data,parity}.
type LiveMeta struct {
	MonotonicNS      int64
	FramerateHz      float64
	KeyDataCount     float64
	KeyParityCount   float64
	DeltaDataCount   float64
	DeltaParityCount float64
}

// EncodeLiveMeta serializes a LiveMeta.
func EncodeLiveMeta(m LiveMeta) []byte {
	buf := make([]byte, 0, len(ContentTypeTag)+1+8+8*5)
	buf = putEnvelope(buf)

	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(m.MonotonicNS))
	buf = append(buf, tmp[:]...)

	for _, v := range []float64{m.FramerateHz, m.KeyDataCount, m.KeyParityCount, m.DeltaDataCount, m.DeltaParityCount} {
		binary.BigEndian.PutUint64(tmp[:], math.Float64bits(v))
		buf = append(buf, tmp[:]...)
	}

	return buf
}

// DecodeLiveMeta parses a LiveMeta.
func DecodeLiveMeta(data []byte) (LiveMeta, error) {
	var m LiveMeta
	body, err := checkEnvelope(data)
	if err != nil {
		return m, err
	}
	if len(body) < 8+8*5 {
		return m, fmt.Errorf("metacodec: live meta body too short")
	}

	m.MonotonicNS = int64(binary.BigEndian.Uint64(body[:8]))
	body = body[8:]

	vals := make([]float64, 5)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.BigEndian.Uint64(body[:8]))
		body = body[8:]
	}
	m.FramerateHz = vals[0]
	m.KeyDataCount = vals[1]
	m.KeyParityCount = vals[2]
	m.DeltaDataCount = vals[3]
	m.DeltaParityCount = vals[4]

	return m, nil
}
