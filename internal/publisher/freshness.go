package publisher

import "time"

// FreshnessPlan is the publisher's per-packet-class freshness table,
// derived once at construction from the codec's fps and GoP length.
type FreshnessPlan struct {
	Sample    time.Duration // delta data/parity segments
	KeySample time.Duration // key data/parity segments and GoP pointers ("gop")
	Latest    time.Duration // _latest
	Live      time.Duration // _live
	Meta      time.Duration // stream meta
}

func computeFreshnessPlan(fps, gopLen int) FreshnessPlan {
	sampleMS := 1000 / fps
	keySampleMS := gopLen * sampleMS
	return FreshnessPlan{
		Sample:    time.Duration(sampleMS) * time.Millisecond,
		KeySample: time.Duration(keySampleMS) * time.Millisecond,
		Latest:    time.Duration(sampleMS) * time.Millisecond,
		Live:      time.Duration(keySampleMS) * time.Millisecond,
		Meta:      4000 * time.Millisecond,
	}
}
