// SPDX-License-Identifier: MIT
package audio

// EnableGate turns the input noise gate on.
func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

// DisableGate turns the input noise gate off; every buffer is analyzed.
func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the gate threshold as a fraction of full scale,
// clamped to [0, 1]. 0 means every buffer passes, 1 means none do.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0 {
		threshold = 0
	}
	if threshold > 1 {
		threshold = 1
	}
	e.gateThreshold = threshold
}

// GetGateThreshold returns the current gate threshold in [0, 1].
func (e *Engine) GetGateThreshold() float64 {
	return e.gateThreshold
}
