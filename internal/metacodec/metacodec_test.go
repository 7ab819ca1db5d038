package metacodec

import (
	"testing"

	"github.com/ndnvc/publisher/media"
)

func TestFrameMetaRoundTrip(t *testing.T) {
	t.Parallel()

	want := FrameMeta{
		Type:              media.FrameKey,
		CaptureTimeNS:     123456789,
		ParitySize:        1600,
		GopSeq:            3,
		GopPos:            91,
		GenerationDelayMS: 12,
	}

	got, err := DecodeFrameMeta(EncodeFrameMeta(want))
	if err != nil {
		t.Fatalf("DecodeFrameMeta() error = %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

// TestStreamMetaWidthOverwrittenByHeight matches the upstream
// set_width(width); set_width(height) quirk on a single scalar field:
// the second write wins, so a consumer reads Width back as the
// constructor's Height value, and Height itself never survives encoding.
func TestStreamMetaWidthOverwrittenByHeight(t *testing.T) {
	t.Parallel()

	want := StreamMeta{Width: 1280, Height: 720, Description: "front camera"}

	got, err := DecodeStreamMeta(EncodeStreamMeta(want))
	if err != nil {
		t.Fatalf("DecodeStreamMeta() error = %v", err)
	}
	if got.Width != want.Height {
		t.Fatalf("Width = %d, want %d (the last-write-wins Height value)", got.Width, want.Height)
	}
	if got.Height != 0 {
		t.Fatalf("Height = %d, want 0 (height is never its own field)", got.Height)
	}
	if got.Description != want.Description {
		t.Fatalf("Description = %q, want %q", got.Description, want.Description)
	}
}

func TestLiveMetaRoundTrip(t *testing.T) {
	t.Parallel()

	want := LiveMeta{
		MonotonicNS:      42,
		FramerateHz:      29.97,
		KeyDataCount:     2,
		KeyParityCount:   1,
		DeltaDataCount:   3.5,
		DeltaParityCount: 1.25,
	}

	got, err := DecodeLiveMeta(EncodeLiveMeta(want))
	if err != nil {
		t.Fatalf("DecodeLiveMeta() error = %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestDecodeRejectsWrongTag(t *testing.T) {
	t.Parallel()

	if _, err := DecodeFrameMeta([]byte("not-the-right-tag-at-all")); err == nil {
		t.Fatal("expected error for bad content type tag")
	}
}
