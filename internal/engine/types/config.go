package types

import (
	"time"
)

// Size constants
const (
	KB = 1024
	MB = 1024 * KB

	// Megabyte as float for display calculations
	Megabyte = 1024.0 * 1024.0
)

// Remote service constants
const (
	// Referer is required by the image host's hotlink protection.
	Referer = "https://www.pixiv.net/"

	DefaultBaseURL = "https://www.pixiv.net"

	// RankPageSize is the fixed number of entries the ranking endpoint returns per page.
	RankPageSize = 50
)

// Transfer tuning
const (
	WorkerBuffer = 32 * KB
)

// HTTP Client Tuning
const (
	DefaultMaxIdleConns          = 100
	DefaultIdleConnTimeout       = 90 * time.Second
	DefaultTLSHandshakeTimeout   = 10 * time.Second
	DefaultExpectContinueTimeout = 1 * time.Second
	DialTimeout                  = 10 * time.Second
	KeepAliveDuration            = 30 * time.Second
	RequestTimeout               = 30 * time.Second
)

// Channel buffer sizes
const (
	EventChannelBuffer = 100
)

// RuntimeConfig holds dynamic settings that can override defaults
type RuntimeConfig struct {
	BaseURL          string
	UserAgent        string // Empty means the built-in browser identity
	ProxyURL         string
	RequestTimeout   time.Duration
	WorkerBufferSize int
	MaxParallel      int
	TitleDirWithID   bool
	SkipTLSVerify    bool
}

// GetBaseURL returns the configured site root or the public one
func (r *RuntimeConfig) GetBaseURL() string {
	if r == nil || r.BaseURL == "" {
		return DefaultBaseURL
	}
	return r.BaseURL
}

// GetRequestTimeout returns configured value or default
func (r *RuntimeConfig) GetRequestTimeout() time.Duration {
	if r == nil || r.RequestTimeout <= 0 {
		return RequestTimeout
	}
	return r.RequestTimeout
}

// GetWorkerBufferSize returns configured value or default
func (r *RuntimeConfig) GetWorkerBufferSize() int {
	if r == nil || r.WorkerBufferSize <= 0 {
		return WorkerBuffer
	}
	return r.WorkerBufferSize
}

// GetMaxParallel returns the artwork concurrency used in parallel sweeps.
// Zero or less means one at a time.
func (r *RuntimeConfig) GetMaxParallel() int {
	if r == nil || r.MaxParallel <= 0 {
		return 1
	}
	return r.MaxParallel
}
