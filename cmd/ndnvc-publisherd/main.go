// Command ndnvc-publisherd runs a single VideoStream publisher end to
// end: a synthetic capture loop feeds a demo codec, the publisher slices
// and signs each frame, and the resulting packets are served over an
// HTTP/3 netface listener, all without requiring a real NDN forwarder.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	sec "github.com/named-data/ndnd/std/security"

	"github.com/ndnvc/publisher/certs"
	"github.com/ndnvc/publisher/internal/cache"
	"github.com/ndnvc/publisher/internal/clock"
	"github.com/ndnvc/publisher/internal/netface"
	"github.com/ndnvc/publisher/internal/publisher"
	"github.com/ndnvc/publisher/media"
)

var version = "dev"

func main() {
	level := slog.LevelInfo
	if os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	slog.Info("generating self-signed certificate")
	cert, err := certs.Generate(14 * 24 * time.Hour)
	if err != nil {
		slog.Error("failed to generate cert", "error", err)
		os.Exit(1)
	}
	slog.Info("certificate generated",
		"fingerprint", cert.FingerprintBase64(),
		"expires", cert.NotAfter.Format(time.RFC3339),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
	}()

	netAddr := envOr("NETFACE_ADDR", ":4443")
	basePrefix := envOr("BASE_PREFIX", "/ndnvc/demo")
	streamName := envOr("STREAM_NAME", "cam0")
	fps := envInt("FPS", 30)
	gop := envInt("GOP", 30)
	width := envInt("WIDTH", 640)
	height := envInt("HEIGHT", 480)
	segmentSize := envInt("SEGMENT_SIZE", 8000)
	useFec := os.Getenv("USE_FEC") != "false"

	slog.Info("ndnvc-publisherd starting",
		"version", version,
		"netface", netAddr,
		"base_prefix", basePrefix,
		"stream_name", streamName,
		"fps", fps,
		"gop", gop,
		"cert_hash", cert.FingerprintBase64(),
	)

	memCache := cache.NewMemCache()

	netSrv, err := netface.NewServer(netface.Config{Addr: netAddr, Cert: cert}, memCache, slog.Default())
	if err != nil {
		slog.Error("failed to create netface server", "error", err)
		os.Exit(1)
	}

	// The publisher's keychain signer is an opaque external collaborator
	// per the spec's external-interfaces section; a digest-only signer
	// stands in for it here since this command has no real NDN identity
	// to sign with.
	keychain := sec.NewSha256Signer()

	dc := &demoCodec{}

	pub, err := publisher.New(basePrefix, streamName, publisher.Config{
		SegmentSize:     segmentSize,
		UseFec:          useFec,
		StoreInMemCache: true,
		Codec: media.CodecSettings{
			FPS:    fps,
			GOP:    gop,
			Width:  width,
			Height: height,
		},
	}, keychain, dc, memCache, clock.SystemClock{}, slog.Default())
	if err != nil {
		slog.Error("failed to create publisher", "error", err)
		os.Exit(1)
	}
	slog.Info("publisher ready", "prefix", pub.GetPrefix().String())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return netSrv.Start(ctx)
	})

	g.Go(func() error {
		return runCaptureLoop(ctx, pub, width, height, fps)
	})

	if err := g.Wait(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runCaptureLoop feeds synthetic images to the publisher at the
// configured frame rate until ctx is cancelled.
func runCaptureLoop(ctx context.Context, pub *publisher.Publisher, width, height, fps int) error {
	interval := time.Second / time.Duration(fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pixels := make([]byte, width*height*3/2) // I420 synthetic buffer
	var cycles int64

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			cycles++
			batch, err := pub.ProcessImage(media.FormatI420, pixels, false)
			if err != nil {
				slog.Error("process_image failed", "error", err)
				continue
			}
			if cycles%int64(fps) == 0 {
				stats := pub.GetStatistics()
				slog.Info("publisher progress",
					"frames", stats.PublishedFrames,
					"key_frames", stats.PublishedKeyFrames,
					"dropped", stats.DroppedFrames,
					"rdr_requests", stats.RDRRequests,
					"batch_size", len(batch),
				)
			}
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer env var, using fallback", "key", key, "value", v, "fallback", fallback)
		return fallback
	}
	return n
}

// demoCodec is a synthetic Codec standing in for the opaque video
// encoder: it never actually compresses anything, instead producing
// pseudo-random payloads of a plausible size per frame type so the
// publisher's segmentation, FEC, and manifest logic can be exercised
// end to end without a real encoder dependency.
type demoCodec struct {
	settings media.CodecSettings
	frameNum int64

	nFrames    int64
	nProcessed int64
	nDropped   int64
}

func (d *demoCodec) InitEncoder(settings media.CodecSettings) error {
	d.settings = settings
	return nil
}

func (d *demoCodec) Encode(_ media.Image, forceKeyframe bool, onEncoded func(media.EncodedFrame), onDropped func()) error {
	d.nProcessed++
	isKey := forceKeyframe || d.frameNum%int64(d.settings.GOP) == 0
	d.frameNum++

	size := d.settings.Width * d.settings.Height / 50
	if isKey {
		size = d.settings.Width * d.settings.Height / 8
	}

	data := make([]byte, size)
	if _, err := rand.Read(data); err != nil {
		d.nDropped++
		onDropped()
		return nil
	}

	typ := media.FrameDelta
	if isKey {
		typ = media.FrameKey
	}

	d.nFrames++
	onEncoded(media.EncodedFrame{Type: typ, Length: size, Data: data})
	return nil
}

func (d *demoCodec) Stats() media.CodecStats {
	return media.CodecStats{NFrames: d.nFrames, NProcessed: d.nProcessed, NDropped: d.nDropped}
}
