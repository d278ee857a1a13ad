// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	applog "github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/log"
	"github.com/Peter-Dated-Projects/12-07-2025-audiuo-synth-visualizer/internal/transport"
)

/*
Packet layout (big endian):

	sequence    uint32       monotonically increasing
	timestamp   int64        nanoseconds since epoch
	freqA       float32
	freqB       float32
	complexity  float32
	bandEnergy  [5]float32   bass, mids, highs, melody, full
	binCount    uint16       number of spectrum values (0 when omitted)
	spectrum    []float32    smoothed normalized bins
*/

// Publisher snapshots the engine's latest analysis frame on a fixed
// interval, packs it into the binary layout above, and sends it through a
// Sender. Runs on its own goroutine between Start and Stop.
type Publisher struct {
	sender   *Sender
	frames   transport.FrameProvider
	interval time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // guards ticker/doneChan across Start/Stop

	sequence uint32

	// Reusable buffers keep the per-tick path allocation-light.
	frame  transport.AnalysisFrame
	packet *bytes.Buffer
}

// NewPublisher creates a publisher. Both sender and frames are required; a
// non-positive interval defaults to 16ms (~60 Hz).
func NewPublisher(interval time.Duration, sender *Sender, frames transport.FrameProvider) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("udp publisher: sender cannot be nil")
	}
	if frames == nil {
		return nil, fmt.Errorf("udp publisher: frame provider cannot be nil")
	}
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("udp: invalid publish interval, defaulting to %s", interval)
	}

	return &Publisher{
		sender:   sender,
		frames:   frames,
		interval: interval,
		packet:   new(bytes.Buffer),
	}, nil
}

// Start launches the publish loop. Calling Start while running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("udp: publisher already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	ticker := p.ticker
	done := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("udp: publisher started (interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishFrame()
			case <-done:
				return
			}
		}
	}()
}

// Stop signals the publish loop to exit and waits for it. Safe to call
// multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("udp: publisher stopped")
	return nil
}

func (p *Publisher) publishFrame() {
	if err := p.frames.SnapshotInto(&p.frame); err != nil {
		applog.Errorf("udp: snapshot failed: %v", err)
		return
	}

	p.sequence++
	p.packet.Reset()

	binary.Write(p.packet, binary.BigEndian, p.sequence)
	binary.Write(p.packet, binary.BigEndian, time.Now().UnixNano())
	binary.Write(p.packet, binary.BigEndian, float32(p.frame.FreqA))
	binary.Write(p.packet, binary.BigEndian, float32(p.frame.FreqB))
	binary.Write(p.packet, binary.BigEndian, float32(p.frame.Complexity))
	for _, e := range p.frame.BandEnergy {
		binary.Write(p.packet, binary.BigEndian, float32(e))
	}
	binary.Write(p.packet, binary.BigEndian, uint16(len(p.frame.Spectrum)))
	for _, v := range p.frame.Spectrum {
		binary.Write(p.packet, binary.BigEndian, float32(v))
	}

	if err := p.sender.Send(p.packet.Bytes()); err != nil {
		applog.Errorf("udp: send failed: %v", err)
	}
}
