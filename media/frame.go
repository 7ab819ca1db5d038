// Package media defines the frame and packet types that flow from the
// codec adapter through the publisher to the wire.
package media

// FrameType distinguishes key frames, which anchor a GoP, from delta frames.
type FrameType int

const (
	FrameDelta FrameType = iota
	FrameKey
)

func (t FrameType) String() string {
	if t == FrameKey {
		return "key"
	}
	return "delta"
}

// EncodedFrame is the codec's output for a single capture cycle, produced
// synchronously inside the encoder's encoded-callback.
type EncodedFrame struct {
	Type     FrameType
	Length   int
	Data     []byte
	UserData any
}

// ImageFormat identifies the pixel layout of a raw capture buffer.
type ImageFormat int

const (
	FormatI420 ImageFormat = iota
	FormatNV12
	FormatRGB24
)

// Image wraps a raw capture buffer handed to the encoder.
type Image struct {
	Format ImageFormat
	Pixels []byte
}

// CodecSettings configures the opaque video encoder and derives the
// publisher's freshness plan.
type CodecSettings struct {
	FPS    int
	GOP    int
	Width  int
	Height int
}

// CodecStats mirrors the codec's own stats surface.
type CodecStats struct {
	NFrames    int64
	NProcessed int64
	NDropped   int64
}
