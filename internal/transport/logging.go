// SPDX-License-Identifier: MIT
package transport

import (
	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
)

// LoggingTransport is the debug stand-in: it acknowledges every frame
// without transmitting anything.
type LoggingTransport struct{}

var _ Transport = (*LoggingTransport)(nil)

// NewLoggingTransport creates a LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("transport: using logging transport")
	return &LoggingTransport{}
}

// Send accepts data without transmitting; never fails. Pooled frames are
// released immediately.
func (t *LoggingTransport) Send(data any) error {
	applog.Debugf("transport: frame %T", data)
	if f, ok := data.(*AnalysisFrame); ok {
		ReleaseFrame(f)
	}
	return nil
}

// Close is a no-op.
func (t *LoggingTransport) Close() error {
	return nil
}
