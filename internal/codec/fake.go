package codec

import "github.com/ndnvc/publisher/media"

// FakeCodec is a scriptable Codec for tests: callers queue up the exact
// frame (or a drop) each Encode call should produce.
type FakeCodec struct {
	Outputs []FakeOutput
	calls   int

	nFrames    int64
	nProcessed int64
	nDropped   int64

	InitErr error
}

// FakeOutput is one scripted Encode outcome: either Frame is set (an
// encoded callback fires) or Dropped is true (a dropped callback fires).
type FakeOutput struct {
	Frame   media.EncodedFrame
	Dropped bool
}

func (f *FakeCodec) InitEncoder(media.CodecSettings) error { return f.InitErr }

func (f *FakeCodec) Encode(_ media.Image, _ bool, onEncoded func(media.EncodedFrame), onDropped func()) error {
	if f.calls >= len(f.Outputs) {
		f.nDropped++
		onDropped()
		return nil
	}
	out := f.Outputs[f.calls]
	f.calls++
	f.nProcessed++

	if out.Dropped {
		f.nDropped++
		onDropped()
		return nil
	}
	f.nFrames++
	onEncoded(out.Frame)
	return nil
}

func (f *FakeCodec) Stats() media.CodecStats {
	return media.CodecStats{NFrames: f.nFrames, NProcessed: f.nProcessed, NDropped: f.nDropped}
}
