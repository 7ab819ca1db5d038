// Package publisher implements StreamPublisher, the per-frame
// orchestration core: slicing a codec's encoded frames into named, signed
// segments with forward error correction, maintaining the GoP pointer
// chain, and answering reactive _latest/_live requests from the memory
// cache's pending-interest queries. It is the single-writer heart of the
// repository: ProcessImage runs exclusively on the capture thread, while
// the two reactive handlers run on whatever goroutine the face delivers
// interests on.
package publisher

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	enc "github.com/named-data/ndnd/std/encoding"
	"github.com/named-data/ndnd/std/ndn"

	"github.com/ndnvc/publisher/internal/cache"
	"github.com/ndnvc/publisher/internal/clock"
	"github.com/ndnvc/publisher/internal/codec"
	"github.com/ndnvc/publisher/internal/delegation"
	"github.com/ndnvc/publisher/internal/face"
	"github.com/ndnvc/publisher/internal/fec"
	"github.com/ndnvc/publisher/internal/livemeta"
	"github.com/ndnvc/publisher/internal/manifest"
	"github.com/ndnvc/publisher/internal/metacodec"
	"github.com/ndnvc/publisher/internal/ndnname"
	"github.com/ndnvc/publisher/internal/signer"
	"github.com/ndnvc/publisher/internal/wire"
	"github.com/ndnvc/publisher/media"
)

// streamMetaDescriptionPlaceholder mirrors the upstream stream meta's
// always-constant description field: no real description is supported
// yet, but the field is still populated.
const streamMetaDescriptionPlaceholder = "description is not supported yet"

// Config holds the options listed in the data model's configuration table.
type Config struct {
	SegmentSize     int
	UseFec          bool
	StoreInMemCache bool
	Codec           media.CodecSettings
}

// Statistics is a point-in-time snapshot of the publisher's counters.
type Statistics struct {
	PublishedFrames    int64
	PublishedKeyFrames int64
	DroppedFrames      int64
	RDRRequests        int64
	Codec              media.CodecStats
	Signer             signer.Stats
}

// Publisher is the StreamPublisher core.
type Publisher struct {
	log *slog.Logger

	clock        clock.Clock
	basePrefix   string
	streamName   string
	timestampMS  int64
	streamPrefix enc.Name

	config    Config
	freshness FreshnessPlan

	codec  *codec.Adapter
	signer *signer.Signer
	cache  cache.Cache
	live   *livemeta.LiveMetadata

	// Owned exclusively by ProcessImage; never touched from the reactive
	// handlers, so no lock is needed per the spec's concurrency model.
	frameSeq uint64
	gopSeq   uint64
	gopPos   uint64

	// Read by the reactive handlers (face thread), written by
	// ProcessImage (capture thread): narrow lock around just these three
	// fields, matching the spec's "never hold the lock across signing,
	// encoding, or face calls" guidance applied to this additional
	// cross-thread state.
	ptrMu              sync.RWMutex
	lastFramePrefix    enc.Name
	lastGopPrefix      enc.Name
	lastPublishEpochMS int64

	// queued_: packets generated reactively between encode cycles.
	queuedMu sync.Mutex
	queued   []media.Packet

	publishedFrames    atomic.Int64
	publishedKeyFrames atomic.Int64
	droppedFrames      atomic.Int64
	rdrRequests        atomic.Int64

	lastCycleMonoNS int64
}

// New constructs a Publisher. keychain is the opaque keychain signer used
// for every packet except data/parity segments. c is the opaque low-level
// video codec. memCache is optional; pass nil to disable cache mirroring
// and the reactive _latest/_live interest filters.
func New(basePrefix, streamName string, cfg Config, keychain ndn.Signer, c codec.Codec, memCache cache.Cache, clk clock.Clock, log *slog.Logger) (*Publisher, error) {
	if cfg.SegmentSize <= 0 {
		return nil, fmt.Errorf("publisher: segment_size must be positive, got %d", cfg.SegmentSize)
	}
	if log == nil {
		log = slog.Default()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	adapter, err := codec.NewAdapter(c, cfg.Codec)
	if err != nil {
		return nil, err
	}

	wallMS := clk.WallMS()
	streamPrefix, err := ndnname.StreamPrefix(basePrefix, wallMS, streamName)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		log:          log.With("component", "publisher", "stream", streamName),
		clock:        clk,
		basePrefix:   basePrefix,
		streamName:   streamName,
		timestampMS:  wallMS,
		streamPrefix: streamPrefix,
		config:       cfg,
		freshness:    computeFreshnessPlan(cfg.Codec.FPS, cfg.Codec.GOP),
		codec:        adapter,
		signer:       signer.New(keychain),
		cache:        memCache,
		live:         livemeta.New(),
	}
	p.lastFramePrefix = ndnname.SentinelFrameName(streamPrefix)

	if p.cache != nil {
		p.cache.SetInterestFilter(ndnname.LatestFilterPrefix(streamPrefix), p.onLatestRequest)
		p.cache.SetInterestFilter(ndnname.LiveFilterPrefix(streamPrefix), p.onLiveRequest)
	}

	if err := p.enqueueStreamMeta(); err != nil {
		return nil, err
	}

	return p, nil
}

// GetPrefix returns the immutable stream prefix.
func (p *Publisher) GetPrefix() enc.Name { return p.streamPrefix }

// GetBasePrefix returns the base_prefix this stream was constructed with.
func (p *Publisher) GetBasePrefix() string { return p.basePrefix }

// GetStreamName returns the stream's name component.
func (p *Publisher) GetStreamName() string { return p.streamName }

// GetStatistics returns a snapshot of the publisher's counters, combining
// its own state with the underlying codec and signer statistics.
func (p *Publisher) GetStatistics() Statistics {
	return Statistics{
		PublishedFrames:    p.publishedFrames.Load(),
		PublishedKeyFrames: p.publishedKeyFrames.Load(),
		DroppedFrames:      p.droppedFrames.Load(),
		RDRRequests:        p.rdrRequests.Load(),
		Codec:              p.codec.Stats(),
		Signer:             p.signer.Statistics(),
	}
}

// enqueueStreamMeta builds the once-per-stream meta packet and enqueues
// it so it is included in the first ProcessImage batch.
func (p *Publisher) enqueueStreamMeta() error {
	content := metacodec.EncodeStreamMeta(metacodec.StreamMeta{
		Width:       uint32(p.config.Codec.Width),
		Height:      uint32(p.config.Codec.Height),
		Description: streamMetaDescriptionPlaceholder,
	})

	pkt, err := wire.MakeData(ndnname.StreamMetaName(p.streamPrefix), enc.Wire{content}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   p.freshness.Meta,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		return fmt.Errorf("publisher: build stream meta: %w", err)
	}
	p.signer.Track(len(pkt.Wire))

	p.queuedMu.Lock()
	p.queued = append(p.queued, pkt)
	p.queuedMu.Unlock()
	return nil
}

// ProcessImage runs one encode cycle: feeds the image to the codec,
// slices the resulting frame (if any) into segments, drains any
// reactively queued packets, and optionally mirrors the batch into the
// memory cache. forceKeyframe requests a keyframe out of band, e.g. after
// a new subscriber joins.
func (p *Publisher) ProcessImage(format media.ImageFormat, pixels []byte, forceKeyframe bool) ([]media.Packet, error) {
	if len(pixels) == 0 {
		return nil, fmt.Errorf("publisher: empty image buffer")
	}

	thisCycleMonoNS := p.clock.MonotonicNS()

	var batch []media.Packet
	var encodeErr error

	img := media.Image{Format: format, Pixels: pixels}

	err := p.codec.Encode(img, forceKeyframe,
		func(ef media.EncodedFrame) {
			frameName, pkts, err := p.publishFrameGobj(ef, thisCycleMonoNS)
			if err != nil {
				encodeErr = err
				return
			}
			batch = append(batch, pkts...)

			if ef.Type == media.FrameKey {
				p.ptrMu.RLock()
				prevFramePrefix := p.lastFramePrefix
				p.ptrMu.RUnlock()

				gopPkts, newGopPrefix := p.publishGoP(frameName, prevFramePrefix)
				batch = append(batch, gopPkts...)

				p.ptrMu.Lock()
				p.lastGopPrefix = newGopPrefix
				p.ptrMu.Unlock()

				p.gopSeq++
			}
			p.gopPos++
			p.frameSeq++

			p.ptrMu.Lock()
			p.lastFramePrefix = frameName
			p.lastPublishEpochMS = p.clock.WallMS()
			p.ptrMu.Unlock()
		},
		func() {
			p.droppedFrames.Add(1)
			p.log.Warn("frame dropped by codec")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("publisher: encode: %w", err)
	}
	if encodeErr != nil {
		return nil, encodeErr
	}

	p.queuedMu.Lock()
	batch = append(batch, p.queued...)
	p.queued = nil
	p.queuedMu.Unlock()

	if p.config.StoreInMemCache && p.cache != nil {
		for _, pkt := range batch {
			p.cache.Add(pkt)
		}
	}

	p.lastCycleMonoNS = thisCycleMonoNS
	return batch, nil
}

// publishFrameGobj slices one encoded frame into data and parity
// segments, a manifest, and a frame meta packet.
func (p *Publisher) publishFrameGobj(ef media.EncodedFrame, captureNS int64) (enc.Name, []media.Packet, error) {
	frameName := ndnname.FrameName(p.streamPrefix, p.frameSeq)
	segSize := p.config.SegmentSize

	nData := (ef.Length + segSize - 1) / segSize
	if nData < 1 {
		nData = 1
	}
	nParity := 0
	if p.config.UseFec {
		nParity = fec.ParityCount(nData)
	}

	freshness := p.freshness.Sample
	if ef.Type == media.FrameKey {
		freshness = p.freshness.KeySample
	}

	var parityShards [][]byte
	if nParity > 0 {
		shards, err := fec.Encode(ef.Data, segSize, nData, nParity)
		if err != nil {
			p.log.Warn("fec encode failed, publishing without parity", "error", err)
			nParity = 0
		} else {
			parityShards = shards
		}
	}

	batch := make([]media.Packet, 0, nData+nParity+2)

	dataWires := make([][]byte, nData)
	for i := 0; i < nData; i++ {
		start := i * segSize
		end := start + segSize
		if end > ef.Length {
			end = ef.Length
		}
		payload := ef.Data[start:end]

		finalBlock := enc.NewSegmentComponent(uint64(nData - 1))
		pkt, err := wire.MakeData(ndnname.DataSegmentName(frameName, uint64(i)), enc.Wire{payload}, wire.MakeOpts{
			ContentType:  ndn.ContentTypeBlob,
			Freshness:    freshness,
			FinalBlockID: &finalBlock,
			Signer:       p.signer.Digest(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("publisher: data segment %d: %w", i, err)
		}
		p.signer.Track(len(pkt.Wire))
		batch = append(batch, pkt)
		dataWires[i] = pkt.Wire
	}

	parityWires := make([][]byte, nParity)
	for i := 0; i < nParity; i++ {
		finalBlock := enc.NewSegmentComponent(uint64(nParity - 1))
		pkt, err := wire.MakeData(ndnname.ParitySegmentName(frameName, uint64(i)), enc.Wire{parityShards[i]}, wire.MakeOpts{
			ContentType:  ndn.ContentTypeBlob,
			Freshness:    freshness,
			FinalBlockID: &finalBlock,
			Signer:       p.signer.Digest(),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("publisher: parity segment %d: %w", i, err)
		}
		p.signer.Track(len(pkt.Wire))
		batch = append(batch, pkt)
		parityWires[i] = pkt.Wire
	}

	manifestContent := manifest.Build(dataWires, parityWires)
	manifestPkt, err := wire.MakeData(ndnname.ManifestName(frameName), enc.Wire{manifestContent}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   freshness,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("publisher: manifest: %w", err)
	}
	p.signer.Track(len(manifestPkt.Wire))
	batch = append(batch, manifestPkt)

	generationDelayMS := p.generationDelay(ndnname.FrameMetaName(frameName))

	frameMeta := metacodec.FrameMeta{
		Type:              ef.Type,
		CaptureTimeNS:     captureNS,
		ParitySize:        uint32(nParity),
		GopSeq:            p.gopSeq,
		GopPos:            p.gopPos,
		GenerationDelayMS: generationDelayMS,
	}
	metaPkt, err := wire.MakeData(ndnname.FrameMetaName(frameName), enc.Wire{metacodec.EncodeFrameMeta(frameMeta)}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   freshness,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("publisher: frame meta: %w", err)
	}
	p.signer.Track(len(metaPkt.Wire))
	batch = append(batch, metaPkt)

	nowMS := p.clock.WallMS()
	p.live.Update(ef.Type == media.FrameKey, nData, nParity, nowMS)
	p.publishedFrames.Add(1)
	if ef.Type == media.FrameKey {
		p.publishedKeyFrames.Add(1)
	}

	return frameName, batch, nil
}

// generationDelay returns now - the receipt time of the oldest pending
// interest for name, or 0 if there is no cache or no pending interest.
func (p *Publisher) generationDelay(name enc.Name) int64 {
	if p.cache == nil {
		return 0
	}
	pending := p.cache.GetPendingInterestsForName(name)
	if len(pending) == 0 {
		return 0
	}
	return p.clock.WallMS() - pending[0].ReceivedAtMS()
}

// publishGoP emits the end-of-GoP and start-of-next-GoP pointers around a
// key frame, and returns gop_prefix/gop_seq with gop_seq as it stands
// before this key frame's increment: the GoP being closed out, not the
// one the start pointer opens.
func (p *Publisher) publishGoP(frameName, prevFramePrefix enc.Name) ([]media.Packet, enc.Name) {
	gopPrefix := ndnname.GopPrefix(p.streamPrefix)
	var batch []media.Packet

	if p.gopSeq > 0 {
		content := delegation.Encode([]delegation.Entry{{Preference: 0, Name: prevFramePrefix}})
		pkt, err := wire.MakeData(ndnname.GopEndName(gopPrefix, p.gopSeq), enc.Wire{content}, wire.MakeOpts{
			ContentType: ndn.ContentTypeBlob,
			Freshness:   p.freshness.KeySample,
			Signer:      p.signer.Keychain(),
		})
		if err != nil {
			p.log.Error("build end-of-gop pointer failed", "error", err)
		} else {
			p.signer.Track(len(pkt.Wire))
			batch = append(batch, pkt)
		}
	}

	startContent := delegation.Encode([]delegation.Entry{{Preference: 0, Name: frameName}})
	startPkt, err := wire.MakeData(ndnname.GopStartName(gopPrefix, p.gopSeq+1), enc.Wire{startContent}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   p.freshness.KeySample,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		p.log.Error("build start-of-gop pointer failed", "error", err)
	} else {
		p.signer.Track(len(startPkt.Wire))
		batch = append(batch, startPkt)
	}

	// Per spec §4.4 (and the source this was distilled from), the
	// returned prefix uses gop_seq as it stood before this cycle's
	// increment, not gop_seq+1 — preserved as observed rather than
	// "corrected" to match the just-emitted start pointer.
	newGopPrefix := ndnname.Append(gopPrefix, enc.NewSequenceNumComponent(p.gopSeq))
	return batch, newGopPrefix
}

// onLatestRequest answers a reactive _latest interest: it publishes a
// delegation set pointing at the most recent frame and GoP prefixes,
// flushes it to the face synchronously, and enqueues it so the next
// ProcessImage batch (and therefore the cache) observes it too.
func (p *Publisher) onLatestRequest(_ face.Interest, f face.Face) {
	p.ptrMu.RLock()
	lastFrame := p.lastFramePrefix
	lastGop := p.lastGopPrefix
	publishMS := p.lastPublishEpochMS
	p.ptrMu.RUnlock()

	content := delegation.Encode([]delegation.Entry{
		{Preference: 0, Name: lastFrame},
		{Preference: 1, Name: lastGop},
	})

	pkt, err := wire.MakeData(ndnname.LatestName(p.streamPrefix, publishMS), enc.Wire{content}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   p.freshness.Latest,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		p.log.Error("build _latest response failed", "error", err)
		return
	}
	p.signer.Track(len(pkt.Wire))

	f.PutData(pkt)

	p.queuedMu.Lock()
	p.queued = append(p.queued, pkt)
	p.queuedMu.Unlock()

	p.rdrRequests.Add(1)
}

// onLiveRequest answers a reactive _live interest with the current
// publish rate and segment-count estimates, following the same
// immediate-flush-and-enqueue pattern as onLatestRequest.
func (p *Publisher) onLiveRequest(_ face.Interest, f face.Face) {
	p.ptrMu.RLock()
	publishMS := p.lastPublishEpochMS
	p.ptrMu.RUnlock()

	nowMS := p.clock.WallMS()
	content := metacodec.EncodeLiveMeta(metacodec.LiveMeta{
		MonotonicNS:      p.clock.MonotonicNS(),
		FramerateHz:      p.live.PublishRate(nowMS),
		KeyDataCount:     p.live.SegmentsEstimate(media.FrameKey, livemeta.ClassData),
		KeyParityCount:   p.live.SegmentsEstimate(media.FrameKey, livemeta.ClassParity),
		DeltaDataCount:   p.live.SegmentsEstimate(media.FrameDelta, livemeta.ClassData),
		DeltaParityCount: p.live.SegmentsEstimate(media.FrameDelta, livemeta.ClassParity),
	})

	pkt, err := wire.MakeData(ndnname.LiveName(p.streamPrefix, publishMS), enc.Wire{content}, wire.MakeOpts{
		ContentType: ndn.ContentTypeBlob,
		Freshness:   p.freshness.Live,
		Signer:      p.signer.Keychain(),
	})
	if err != nil {
		p.log.Error("build _live response failed", "error", err)
		return
	}
	p.signer.Track(len(pkt.Wire))

	f.PutData(pkt)

	p.queuedMu.Lock()
	p.queued = append(p.queued, pkt)
	p.queuedMu.Unlock()

	p.rdrRequests.Add(1)
}
