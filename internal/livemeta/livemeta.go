// Package livemeta aggregates the publish-rate and per-type segment-count
// estimators served by the _live reactive branch, combining a frequency
// meter with asymmetric averages: a time window for delta-frame counts
// (frequent, safe to average over time) and a sample window for key-frame
// counts (rare, would be averaged away by a time window).
package livemeta

import (
	"github.com/ndnvc/publisher/internal/stats"
	"github.com/ndnvc/publisher/media"
)

// SegmentClass distinguishes data segments from parity segments when
// querying an estimate.
type SegmentClass int

const (
	ClassData SegmentClass = iota
	ClassParity
)

const (
	publishRateWindowMS  = 1000
	deltaCountWindowMS   = 100
	keyCountSampleWindow = 2
)

// LiveMetadata holds the five estimators backing the _live branch.
type LiveMetadata struct {
	publishRate  *stats.FreqMeter
	deltaData    *stats.Average
	deltaParity  *stats.Average
	keyData      *stats.Average
	keyParity    *stats.Average
}

// New creates a LiveMetadata with the estimator windows from the data model.
func New() *LiveMetadata {
	return &LiveMetadata{
		publishRate: stats.NewFreqMeter(publishRateWindowMS),
		deltaData:   stats.NewTimeWindowedAverage(deltaCountWindowMS),
		deltaParity: stats.NewTimeWindowedAverage(deltaCountWindowMS),
		keyData:     stats.NewSampleWindowedAverage(keyCountSampleWindow),
		keyParity:   stats.NewSampleWindowedAverage(keyCountSampleWindow),
	}
}

// Update records a publish tick and routes the segment counts to the
// key- or delta-bucketed averages depending on isKey.
func (l *LiveMetadata) Update(isKey bool, nData, nParity int, nowMS int64) {
	l.publishRate.NewValue(0, nowMS)
	if isKey {
		l.keyData.Update(float64(nData), nowMS)
		l.keyParity.Update(float64(nParity), nowMS)
	} else {
		l.deltaData.Update(float64(nData), nowMS)
		l.deltaParity.Update(float64(nParity), nowMS)
	}
}

// SegmentsEstimate returns the current segment-count estimate for the
// given frame type and segment class.
func (l *LiveMetadata) SegmentsEstimate(t media.FrameType, class SegmentClass) float64 {
	switch {
	case t == media.FrameKey && class == ClassData:
		return l.keyData.Value()
	case t == media.FrameKey && class == ClassParity:
		return l.keyParity.Value()
	case t == media.FrameDelta && class == ClassData:
		return l.deltaData.Value()
	default:
		return l.deltaParity.Value()
	}
}

// PublishRate returns the current publish rate in frames per second.
func (l *LiveMetadata) PublishRate(nowMS int64) float64 {
	return l.publishRate.Value(nowMS)
}
