// Package testutil provides testing utilities for pixdl: an IPv4 httptest
// helper, file helpers, a configurable image server and a fake pixiv site.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// pngMagic makes served bodies sniff as PNG images.
var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ImageBytes returns the deterministic body served for an image of the given
// size. seed varies the payload between images.
func ImageBytes(size int64, seed byte) []byte {
	data := make([]byte, size)
	n := copy(data, pngMagic)
	for i := n; i < len(data); i++ {
		data[i] = byte(i) ^ seed
	}
	return data
}

// MockServer is a configurable HTTP server that serves a single image body.
type MockServer struct {
	Server *httptest.Server

	// Configuration
	FileSize        int64         // Size of the served body
	OmitLength      bool          // Stream without Content-Length
	StatusCode      int           // Non-zero replaces the 200 response with this status
	Latency         time.Duration // Artificial latency before headers
	ChunkLatency    time.Duration // Sleep between 4KB chunks
	FailAfterBytes  int64         // Drop the connection after this many bytes (0 = no fail)
	RequireReferer  string        // Respond 403 unless the Referer header matches
	ChunkSize       int64
	data            []byte

	// Tracking
	RequestCount   atomic.Int64
	BytesServed    atomic.Int64
	ActiveRequests atomic.Int64
	FailedRequests atomic.Int64
	LastUserAgent  atomic.Value
}

// MockServerOption is a function that configures a MockServer.
type MockServerOption func(*MockServer)

// WithFileSize sets the body size to serve.
func WithFileSize(size int64) MockServerOption {
	return func(m *MockServer) { m.FileSize = size }
}

// WithoutContentLength streams the body chunked, with no length header.
func WithoutContentLength() MockServerOption {
	return func(m *MockServer) { m.OmitLength = true }
}

// WithStatus makes every request fail with code.
func WithStatus(code int) MockServerOption {
	return func(m *MockServer) { m.StatusCode = code }
}

// WithLatency adds artificial latency per request.
func WithLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) { m.Latency = d }
}

// WithChunkLatency sleeps between body chunks.
func WithChunkLatency(d time.Duration) MockServerOption {
	return func(m *MockServer) { m.ChunkLatency = d }
}

// WithFailAfterBytes causes the connection to fail after serving N bytes.
func WithFailAfterBytes(n int64) MockServerOption {
	return func(m *MockServer) { m.FailAfterBytes = n }
}

// WithRequiredReferer rejects requests whose Referer differs from ref.
func WithRequiredReferer(ref string) MockServerOption {
	return func(m *MockServer) { m.RequireReferer = ref }
}

// NewMockServerT creates a new mock image server and skips the test if binding fails.
func NewMockServerT(t *testing.T, opts ...MockServerOption) *MockServer {
	t.Helper()
	m := &MockServer{
		FileSize:  64 * 1024,
		ChunkSize: 4 * 1024,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.data = ImageBytes(m.FileSize, 0)
	m.Server = NewHTTPServerT(t, http.HandlerFunc(m.handleRequest))
	return m
}

// URL returns an image URL on the server.
func (m *MockServer) URL() string {
	return m.Server.URL + "/img-original/img/1_p0.png"
}

// Data returns the body the server sends.
func (m *MockServer) Data() []byte {
	return m.data
}

// Close shuts down the mock server.
func (m *MockServer) Close() {
	if m.Server != nil {
		m.Server.Close()
	}
}

func (m *MockServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	m.RequestCount.Add(1)
	m.ActiveRequests.Add(1)
	defer m.ActiveRequests.Add(-1)
	m.LastUserAgent.Store(r.UserAgent())

	if m.RequireReferer != "" && r.Referer() != m.RequireReferer {
		m.FailedRequests.Add(1)
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if m.StatusCode != 0 {
		m.FailedRequests.Add(1)
		http.Error(w, "Simulated failure", m.StatusCode)
		return
	}

	if m.Latency > 0 {
		time.Sleep(m.Latency)
	}

	serveBody(w, m.data, serveOptions{
		omitLength:     m.OmitLength,
		chunkSize:      m.ChunkSize,
		chunkLatency:   m.ChunkLatency,
		failAfterBytes: m.FailAfterBytes,
		served:         &m.BytesServed,
		failed:         &m.FailedRequests,
	})
}

type serveOptions struct {
	omitLength     bool
	chunkSize      int64
	chunkLatency   time.Duration
	failAfterBytes int64
	served         *atomic.Int64
	failed         *atomic.Int64
}

// serveBody writes data in chunks. Without a length header every chunk is
// flushed so the response goes out chunked.
func serveBody(w http.ResponseWriter, data []byte, o serveOptions) {
	w.Header().Set("Content-Type", "image/png")
	if !o.omitLength {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	}
	w.WriteHeader(http.StatusOK)

	chunk := o.chunkSize
	if chunk <= 0 {
		chunk = 4 * 1024
	}
	flusher, _ := w.(http.Flusher)

	var written int64
	for written < int64(len(data)) {
		if o.failAfterBytes > 0 && written >= o.failAfterBytes {
			if o.failed != nil {
				o.failed.Add(1)
			}
			// Abort the response so the client sees a truncated body
			panic(http.ErrAbortHandler)
		}
		end := written + chunk
		if end > int64(len(data)) {
			end = int64(len(data))
		}
		n, err := w.Write(data[written:end])
		if err != nil {
			return // Client disconnected
		}
		written += int64(n)
		if o.served != nil {
			o.served.Add(int64(n))
		}
		if o.omitLength && flusher != nil {
			flusher.Flush()
		}
		if o.chunkLatency > 0 {
			time.Sleep(o.chunkLatency)
		}
	}
}
