package publisher

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	enc "github.com/named-data/ndnd/std/encoding"
	sec "github.com/named-data/ndnd/std/security"

	"github.com/ndnvc/publisher/internal/cache"
	"github.com/ndnvc/publisher/internal/clock"
	"github.com/ndnvc/publisher/internal/codec"
	"github.com/ndnvc/publisher/internal/face"
	"github.com/ndnvc/publisher/internal/metacodec"
	"github.com/ndnvc/publisher/media"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultConfig() Config {
	return Config{
		SegmentSize:     8000,
		UseFec:          true,
		StoreInMemCache: false,
		Codec:           media.CodecSettings{FPS: 30, GOP: 30, Width: 640, Height: 480},
	}
}

func newTestPublisher(t *testing.T, c codec.Codec, cfg Config) *Publisher {
	t.Helper()
	return newTestPublisherWithCache(t, c, cfg, nil)
}

func newTestPublisherWithCache(t *testing.T, c codec.Codec, cfg Config, memCache cache.Cache) *Publisher {
	t.Helper()
	keychain := sec.NewSha256Signer()
	p, err := New("/ndnvc/alice", "cam0", cfg, keychain, c, memCache, clock.NewFakeClock(0, 1700000000000), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

func frameOf(typ media.FrameType, length int) media.EncodedFrame {
	return media.EncodedFrame{Type: typ, Length: length, Data: bytes.Repeat([]byte{0xAB}, length)}
}

// TestFirstFrameIsKeyFrame matches spec scenario 1: a single key frame
// sized so that segment_size=8000 yields 8 data segments (last 4096 B)
// and ceil(0.2*8)=2 parity segments, plus manifest, frame meta, the
// start-of-GoP-1 pointer, and the once-per-stream meta packet: 14 total.
func TestFirstFrameIsKeyFrame(t *testing.T) {
	t.Parallel()

	const length = 7*8000 + 4096 // 8 data segments, last = 4096 B
	fc := &codec.FakeCodec{Outputs: []codec.FakeOutput{{Frame: frameOf(media.FrameKey, length)}}}
	p := newTestPublisher(t, fc, defaultConfig())

	batch, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}

	if len(batch) != 14 {
		t.Fatalf("len(batch) = %d, want 14", len(batch))
	}

	frameMeta, ok := decodeFrameMetaFromBatch(t, batch)
	if !ok {
		t.Fatal("frame meta packet not found in batch")
	}
	// parity_size is a segment count (2 = ceil(0.2*8)), not a byte size.
	if frameMeta.ParitySize != 2 {
		t.Fatalf("ParitySize = %d, want 2 (parity segment count)", frameMeta.ParitySize)
	}
}

// decodeFrameMetaFromBatch locates the frame-meta packet in batch (the
// one whose name ends in "/_meta" but isn't the once-per-stream meta)
// and decodes its FrameMeta content. The signed Data TLV wrapping isn't
// parsed (no Data reader is exercised anywhere in the example pack to
// ground one on); instead the envelope tag is located directly in the
// packet's raw wire bytes, exactly as metacodec.checkEnvelope expects it,
// which DecodeFrameMeta can decode from regardless of the trailing
// signature bytes that follow its fixed-width fields.
func decodeFrameMetaFromBatch(t *testing.T, batch []media.Packet) (metacodec.FrameMeta, bool) {
	t.Helper()
	for _, pkt := range batch {
		n := pkt.Name.String()
		if !bytes.HasSuffix([]byte(n), []byte("/_meta")) || bytes.Contains([]byte(n), []byte("cam0/_meta")) {
			continue
		}
		idx := bytes.Index(pkt.Wire, []byte(metacodec.ContentTypeTag))
		if idx < 0 {
			continue
		}
		fm, err := metacodec.DecodeFrameMeta(pkt.Wire[idx:])
		if err != nil {
			t.Fatalf("DecodeFrameMeta: %v", err)
		}
		return fm, true
	}
	return metacodec.FrameMeta{}, false
}

// TestDeltaAfterKey matches spec scenario 2.
func TestDeltaAfterKey(t *testing.T) {
	t.Parallel()

	const keyLen = 16000
	const deltaLen = 16000
	fc := &codec.FakeCodec{Outputs: []codec.FakeOutput{
		{Frame: frameOf(media.FrameKey, keyLen)},
		{Frame: frameOf(media.FrameDelta, deltaLen)},
	}}
	p := newTestPublisher(t, fc, defaultConfig())

	if _, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false); err != nil {
		t.Fatalf("first ProcessImage() error = %v", err)
	}
	batch, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false)
	if err != nil {
		t.Fatalf("second ProcessImage() error = %v", err)
	}

	// 16000/8000 = 2 data segments, ceil(0.2*2)=1 parity, manifest, meta.
	if len(batch) != 5 {
		t.Fatalf("len(batch) = %d, want 5", len(batch))
	}
}

// TestGopRoll matches spec scenario 3: a bootstrap key frame (frame 0)
// establishes GoP 1, 30 delta frames follow (frames 1-30), and the next
// key frame (frame 31) rolls to GoP 2 — emitting both an end-of-GoP-1
// pointer (delegating to frame 30) and a start-of-GoP-2 pointer
// (delegating to frame 31).
func TestGopRoll(t *testing.T) {
	t.Parallel()

	outputs := make([]codec.FakeOutput, 0, 32)
	outputs = append(outputs, codec.FakeOutput{Frame: frameOf(media.FrameKey, 4000)})
	for i := 0; i < 30; i++ {
		outputs = append(outputs, codec.FakeOutput{Frame: frameOf(media.FrameDelta, 4000)})
	}
	outputs = append(outputs, codec.FakeOutput{Frame: frameOf(media.FrameKey, 4000)})
	fc := &codec.FakeCodec{Outputs: outputs}

	p := newTestPublisher(t, fc, defaultConfig())

	var lastBatch []media.Packet
	for i := 0; i < len(outputs); i++ {
		batch, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false)
		if err != nil {
			t.Fatalf("ProcessImage() iteration %d error = %v", i, err)
		}
		lastBatch = batch
	}

	var gopPackets []media.Packet
	for _, pkt := range lastBatch {
		name := pkt.Name.String()
		if bytes.Contains([]byte(name), []byte("_gop")) {
			gopPackets = append(gopPackets, pkt)
		}
	}
	if len(gopPackets) != 2 {
		t.Fatalf("len(gopPackets) = %d, want 2 (end-of-GoP-1 and start-of-GoP-2)", len(gopPackets))
	}

	foundEnd, foundStart := false, false
	for _, pkt := range gopPackets {
		n := pkt.Name.String()
		switch {
		case bytes.HasSuffix([]byte(n), []byte("/end")):
			foundEnd = true
		case bytes.HasSuffix([]byte(n), []byte("/start")):
			foundStart = true
		}
	}
	if !foundEnd || !foundStart {
		t.Fatalf("expected both an end and a start GoP pointer, got names: %v", namesOf(gopPackets))
	}
}

func namesOf(pkts []media.Packet) []string {
	out := make([]string, len(pkts))
	for i, p := range pkts {
		out[i] = p.Name.String()
	}
	return out
}

// TestFecDisabled matches spec scenario 4.
func TestFecDisabled(t *testing.T) {
	t.Parallel()

	const length = 16000
	fc := &codec.FakeCodec{Outputs: []codec.FakeOutput{{Frame: frameOf(media.FrameKey, length)}}}
	cfg := defaultConfig()
	cfg.UseFec = false
	p := newTestPublisher(t, fc, cfg)

	batch, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}

	var metaContent []byte
	for _, pkt := range batch {
		n := pkt.Name.String()
		if bytes.HasSuffix([]byte(n), []byte("/_meta")) && !bytes.Contains([]byte(n), []byte("cam0/_meta")) {
			metaContent = pkt.Wire
		}
	}
	if metaContent == nil {
		t.Fatal("frame meta packet not found in batch")
	}
	// The frame meta packet must be present; the absence of FEC is
	// checked by name: no parity-named segment may exist in the batch.
	for _, pkt := range batch {
		if bytes.Contains([]byte(pkt.Name.String()), []byte("/parity/")) {
			t.Fatalf("unexpected parity segment with use_fec=false: %s", pkt.Name.String())
		}
	}
}

// TestDroppedFrame matches spec scenario 5: frame_seq must not advance
// and the returned batch contains only drained queue items (here: none,
// since nothing was queued reactively).
func TestDroppedFrame(t *testing.T) {
	t.Parallel()

	fc := &codec.FakeCodec{Outputs: []codec.FakeOutput{{Dropped: true}}}
	p := newTestPublisher(t, fc, defaultConfig())

	batch, err := p.ProcessImage(media.FormatI420, make([]byte, 1), false)
	if err != nil {
		t.Fatalf("ProcessImage() error = %v", err)
	}

	// Only the enqueued stream-meta packet from construction is expected.
	if len(batch) != 1 {
		t.Fatalf("len(batch) = %d, want 1 (stream meta only)", len(batch))
	}
	if p.frameSeq != 0 {
		t.Fatalf("frameSeq = %d, want 0 after a dropped frame", p.frameSeq)
	}
}

// TestReactiveLatestBeforeFirstFrame matches spec scenario 6: a _latest
// request before any frame is published must delegate to the sentinel
// (uint64)-1 frame prefix. Construction-time state is checked directly,
// since parsing the signed Data TLV back out is outside this package's
// concern (covered by internal/delegation's own round-trip tests).
func TestReactiveLatestBeforeFirstFrame(t *testing.T) {
	t.Parallel()

	memCache := cache.NewMemCache()
	fc := &codec.FakeCodec{}
	p := newTestPublisherWithCache(t, fc, defaultConfig(), memCache)

	sentinel := p.lastFramePrefix[len(p.lastFramePrefix)-1]
	want := enc.NewSequenceNumComponent(^uint64(0))
	if sentinel.Compare(want) != 0 {
		t.Fatalf("sentinel last_frame_prefix component = %s, want the (uint64)-1 sentinel", sentinel.String())
	}

	rf := &recordingFace{}
	p.onLatestRequest(face.Interest{Name: p.GetPrefix()}, rf)

	if len(rf.puts) != 1 {
		t.Fatalf("len(puts) = %d, want 1", len(rf.puts))
	}
	if len(rf.puts[0].Wire) == 0 {
		t.Fatal("expected a non-empty signed _latest packet")
	}
}

type recordingFace struct {
	puts []media.Packet
}

func (r *recordingFace) RegisterInterestFilter(_ enc.Name, _ face.InterestCallback) {}
func (r *recordingFace) PutData(pkt media.Packet)                                  { r.puts = append(r.puts, pkt) }
