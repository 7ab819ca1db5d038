// Package ndnname builds the NDN names used throughout the publisher, on
// top of github.com/named-data/ndnd/std/encoding's Name and component
// types. Component literals ("_meta", "_manifest", "_gop", "_latest",
// "_live", "parity", "start", "end") are generic name components;
// sequence numbers use the sequence-number convention, segment indices
// the segment convention, and publish timestamps the timestamp convention.
package ndnname

import (
	"fmt"

	enc "github.com/named-data/ndnd/std/encoding"
)

// Literal generic-component names used throughout the name hierarchy.
const (
	CompMeta     = "_meta"
	CompManifest = "_manifest"
	CompGop      = "_gop"
	CompLatest   = "_latest"
	CompLive     = "_live"
	CompParity   = "parity"
	CompStart    = "start"
	CompEnd      = "end"
)

// generic builds a generic name component from a literal string.
func generic(s string) enc.Component {
	return enc.NewStringComponent(enc.TypeGenericNameComponent, s)
}

// StreamPrefix parses basePrefix and appends the timestamp (microsecond
// convention) and stream name components, producing the immutable stream
// prefix base_prefix/timestamp/stream_name.
func StreamPrefix(basePrefix string, timestampMS int64, streamName string) (enc.Name, error) {
	base, err := enc.NameFromStr(basePrefix)
	if err != nil {
		return nil, fmt.Errorf("ndnname: parse base prefix %q: %w", basePrefix, err)
	}
	name := make(enc.Name, len(base)+2)
	copy(name, base)
	name[len(base)] = enc.NewTimestampComponent(uint64(timestampMS) * 1000)
	name[len(base)+1] = generic(streamName)
	return name, nil
}

// Append returns a new name with extra components appended, never
// mutating the input.
func Append(name enc.Name, comps ...enc.Component) enc.Name {
	out := make(enc.Name, len(name)+len(comps))
	copy(out, name)
	copy(out[len(name):], comps)
	return out
}

// FrameName returns stream_prefix/frame_seq.
func FrameName(streamPrefix enc.Name, frameSeq uint64) enc.Name {
	return Append(streamPrefix, enc.NewSequenceNumComponent(frameSeq))
}

// DataSegmentName returns frame_name/seg.
func DataSegmentName(frameName enc.Name, seg uint64) enc.Name {
	return Append(frameName, enc.NewSegmentComponent(seg))
}

// ParitySegmentName returns frame_name/parity/seg.
func ParitySegmentName(frameName enc.Name, seg uint64) enc.Name {
	return Append(frameName, generic(CompParity), enc.NewSegmentComponent(seg))
}

// ManifestName returns frame_name/_manifest.
func ManifestName(frameName enc.Name) enc.Name {
	return Append(frameName, generic(CompManifest))
}

// FrameMetaName returns frame_name/_meta.
func FrameMetaName(frameName enc.Name) enc.Name {
	return Append(frameName, generic(CompMeta))
}

// GopPrefix returns stream_prefix/_gop.
func GopPrefix(streamPrefix enc.Name) enc.Name {
	return Append(streamPrefix, generic(CompGop))
}

// GopEndName returns gop_prefix/gop_seq/end.
func GopEndName(gopPrefix enc.Name, gopSeq uint64) enc.Name {
	return Append(gopPrefix, enc.NewSequenceNumComponent(gopSeq), generic(CompEnd))
}

// GopStartName returns gop_prefix/gop_seq/start.
func GopStartName(gopPrefix enc.Name, gopSeq uint64) enc.Name {
	return Append(gopPrefix, enc.NewSequenceNumComponent(gopSeq), generic(CompStart))
}

// LatestName returns stream_prefix/_latest/publish_ms (timestamp convention).
func LatestName(streamPrefix enc.Name, publishMS int64) enc.Name {
	return Append(streamPrefix, generic(CompLatest), enc.NewTimestampComponent(uint64(publishMS)*1000))
}

// LiveName returns stream_prefix/_live/publish_ms (timestamp convention).
func LiveName(streamPrefix enc.Name, publishMS int64) enc.Name {
	return Append(streamPrefix, generic(CompLive), enc.NewTimestampComponent(uint64(publishMS)*1000))
}

// LatestFilterPrefix returns stream_prefix/_latest, the prefix registered
// as an interest filter for reactive latest-pointer requests.
func LatestFilterPrefix(streamPrefix enc.Name) enc.Name {
	return Append(streamPrefix, generic(CompLatest))
}

// LiveFilterPrefix returns stream_prefix/_live, the prefix registered as
// an interest filter for reactive live-meta requests.
func LiveFilterPrefix(streamPrefix enc.Name) enc.Name {
	return Append(streamPrefix, generic(CompLive))
}

// StreamMetaName returns stream_prefix/_meta, the once-per-stream
// metadata packet's name.
func StreamMetaName(streamPrefix enc.Name) enc.Name {
	return Append(streamPrefix, generic(CompMeta))
}

// SentinelFrameName returns stream_prefix/(uint64)-1, the sentinel used
// to initialize last_frame_prefix before any frame has been published.
func SentinelFrameName(streamPrefix enc.Name) enc.Name {
	return Append(streamPrefix, enc.NewSequenceNumComponent(^uint64(0)))
}
