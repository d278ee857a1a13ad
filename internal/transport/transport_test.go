// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAnalysisFrameJSON(t *testing.T) {
	frame := AnalysisFrame{
		Seq:        7,
		FreqA:      3.5,
		FreqB:      12.25,
		Complexity: 0.4,
		BandEnergy: [5]float64{0.1, 0.2, 0.3, 0.4, 0.5},
	}

	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)

	for _, key := range []string{`"seq":7`, `"freqA":3.5`, `"freqB":12.25`, `"complexity":0.4`, `"bandEnergy"`} {
		if !strings.Contains(s, key) {
			t.Errorf("marshaled frame missing %s: %s", key, s)
		}
	}
	// The spectrum is heavy; it must vanish from the wire when unset.
	if strings.Contains(s, "spectrum") {
		t.Errorf("empty spectrum should be omitted: %s", s)
	}

	frame.Spectrum = []float64{0.5, 0.25}
	data, err = json.Marshal(frame)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"spectrum":[0.5,0.25]`) {
		t.Errorf("spectrum not marshaled: %s", data)
	}

	var back AnalysisFrame
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Seq != frame.Seq || back.BandEnergy != frame.BandEnergy {
		t.Errorf("round trip mismatch: %+v", back)
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(AnalysisFrame{Seq: 1}); err != nil {
		t.Errorf("Send returned %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("Close returned %v", err)
	}
}

func TestWebSocketTransportDropsWhenFull(t *testing.T) {
	// Port 0 avoids binding a fixed address in tests; Send never blocks
	// regardless of the server's state.
	wt := NewWebSocketTransport("127.0.0.1:0")
	defer wt.Close()

	for i := 0; i < 1000; i++ {
		if err := wt.Send(AnalysisFrame{Seq: uint32(i)}); err != nil {
			t.Fatalf("Send %d returned %v", i, err)
		}
	}

	// Pooled frames ride the same path; dropped ones go back to the pool.
	for i := 0; i < 1000; i++ {
		f := AcquireFrame()
		f.Seq = uint32(i)
		if err := wt.Send(f); err != nil {
			t.Fatalf("pooled Send %d returned %v", i, err)
		}
	}
}
