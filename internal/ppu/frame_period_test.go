package ppu

import "testing"

// TestFullFramePeriodReturnsLYToStart is the property spec.md §8 names:
// after exactly 70224 CPU T-cycles (154 lines * 456 dots) from any state
// with the LCD enabled, LY returns to its original value.
func TestFullFramePeriodReturnsLYToStart(t *testing.T) {
	const dotsPerFrame = 70224

	for _, startLY := range []byte{0, 1, 100, 143, 144, 153} {
		p := New(func(int) {})
		p.CPUWrite(0xFF40, 0x80) // LCD on

		// Advance to the requested starting line, then sample LY.
		for p.CPURead(0xFF44) != startLY {
			p.Tick(1)
		}
		before := p.CPURead(0xFF44)

		p.Tick(dotsPerFrame)

		after := p.CPURead(0xFF44)
		if after != before {
			t.Fatalf("LY after one full frame period from LY=%d: got %d, want %d", startLY, after, before)
		}
	}
}
