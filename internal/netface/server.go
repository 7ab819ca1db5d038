// Package netface provides a real, runnable Face implementation over
// HTTP/3, so the publisher can be exercised end to end on a single
// machine without an NDN forwarder. It is grounded on
// internal/distribution's HTTP/3 listener pattern: a self-signed
// certificate, a quic-go/http3 server, and a CORS-permissive mux,
// adapted from serving WebTransport sessions to serving single-shot
// named-Interest GET requests against a MemCache.
package netface

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"

	enc "github.com/named-data/ndnd/std/encoding"

	"github.com/ndnvc/publisher/certs"
	"github.com/ndnvc/publisher/internal/cache"
	"github.com/ndnvc/publisher/internal/face"
	"github.com/ndnvc/publisher/media"
)

const (
	interestTimeout = 4 * time.Second
	pollInterval    = 10 * time.Millisecond
)

// Config configures a Server.
type Config struct {
	Addr string
	Cert *certs.CertInfo
}

// Server is an HTTP/3 Face backed by a MemCache: GET /ndn?name=<uri>
// resolves one Interest against the cache, blocking (via short polling)
// until the name is satisfied or interestTimeout elapses. It also
// implements face.Face so a Publisher can register reactive filters and
// push data directly onto it.
type Server struct {
	config Config
	cache  *cache.MemCache
	log    *slog.Logger

	h3 *http3.Server
}

// NewServer creates a netface Server fronting c.
func NewServer(config Config, c *cache.MemCache, log *slog.Logger) (*Server, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("netface: Addr is required")
	}
	if config.Cert == nil {
		return nil, fmt.Errorf("netface: Cert is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{config: config, cache: c, log: log.With("component", "netface")}, nil
}

// RegisterInterestFilter implements face.Face by delegating to the
// backing cache's reactive-dispatch table.
func (s *Server) RegisterInterestFilter(prefix enc.Name, cb face.InterestCallback) {
	s.cache.SetInterestFilter(prefix, cb)
}

// PutData implements face.Face: a reactively produced packet is mirrored
// into the cache so that subsequent long-polling GETs (and the next
// process_image-driven cache insert) observe a consistent store.
func (s *Server) PutData(pkt media.Packet) {
	s.cache.Add(pkt)
}

// Start launches the HTTP/3 listener and blocks until ctx is cancelled or
// a fatal error occurs.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ndn", s.handleInterest)

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{s.config.Cert.TLSCert},
	}

	s.h3 = &http3.Server{
		Addr:      s.config.Addr,
		Handler:   corsMiddleware(mux),
		TLSConfig: tlsConfig,
		QUICConfig: &quic.Config{
			MaxIdleTimeout: 30 * time.Second,
			Allow0RTT:      true,
		},
	}

	s.log.Info("netface listening", "addr", s.config.Addr)

	stop := context.AfterFunc(ctx, func() { s.h3.Close() })
	defer stop()

	err := s.h3.ListenAndServe()
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// handleInterest resolves one Interest: it registers the request with
// the cache (so reactive filters and generation-delay accounting fire
// exactly as they would for a real NDN forwarder) and then polls the
// cache for the name until it is satisfied or the interest times out.
func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request) {
	nameStr := r.URL.Query().Get("name")
	name, err := enc.NameFromStr(nameStr)
	if err != nil {
		http.Error(w, "bad name", http.StatusBadRequest)
		return
	}

	receivedAtMS := time.Now().UnixMilli()

	respCh := make(chan media.Packet, 1)
	s.cache.OnInterest(face.Interest{Name: name, ReceivedAtMS: receivedAtMS}, &replyOnce{ch: respCh})

	deadline := time.NewTimer(interestTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case pkt := <-respCh:
			w.Write(pkt.Wire)
			return
		case <-ticker.C:
			if pkt, ok := s.cache.Lookup(name); ok {
				w.Write(pkt.Wire)
				return
			}
		case <-deadline.C:
			http.Error(w, "interest timeout", http.StatusGatewayTimeout)
			return
		case <-r.Context().Done():
			return
		}
	}
}

// replyOnce is a minimal face.Face used to capture a synchronous
// PutData call made by a matched reactive filter during OnInterest.
type replyOnce struct {
	ch chan media.Packet
}

func (r *replyOnce) RegisterInterestFilter(enc.Name, face.InterestCallback) {}
func (r *replyOnce) PutData(pkt media.Packet) {
	select {
	case r.ch <- pkt:
	default:
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
