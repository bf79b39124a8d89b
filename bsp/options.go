// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"log/slog"
)

// DefaultMaxDecompressedSize bounds the buffer allocated for one compressed
// lump.
const DefaultMaxDecompressedSize = 256 << 20

type options struct {
	logger          *slog.Logger
	concurrency     int
	maxDecompressed uint32
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithConcurrency decodes up to n lumps at once. The result does not depend
// on n.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithMaxDecompressedSize rejects compressed lumps declaring more than size
// bytes. Zero disables the check.
func WithMaxDecompressedSize(size uint32) Option {
	return func(o *options) {
		o.maxDecompressed = size
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:          logger,
		concurrency:     1,
		maxDecompressed: DefaultMaxDecompressedSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
