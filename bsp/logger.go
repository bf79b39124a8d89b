// SPDX-License-Identifier: GPL-2.0-or-later

package bsp

import (
	"log/slog"
)

var logger = slog.New(slog.DiscardHandler)

// SetLogger sets the logger used by decodes that do not pass WithLogger.
// A nil logger discards.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.DiscardHandler)
	}
	logger = l
}
