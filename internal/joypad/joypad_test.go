package joypad

import "testing"

func TestJoypad_ReadDefaultsAllReleased(t *testing.T) {
	j := New()
	if got := j.Read(); got != 0xFF {
		t.Fatalf("Read() = %#02x, want 0xFF with nothing pressed and nothing selected", got)
	}
}

func TestJoypad_SelectDPadReflectsPressedBits(t *testing.T) {
	j := New()
	j.Write(0x20) // clear bit5 -> select D-Pad
	j.Handle(Right, true)
	j.Handle(Down, true)
	got := j.Read() & 0x0F
	want := byte(0x0F &^ (1 | 1<<3))
	if got != want {
		t.Fatalf("Read() low nibble = %#02x, want %#02x", got, want)
	}
}

func TestJoypad_SelectButtonsReflectsPressedBits(t *testing.T) {
	j := New()
	j.Write(0x10) // clear bit4 -> select buttons
	j.Handle(A, true)
	got := j.Read() & 0x0F
	want := byte(0x0F &^ 1)
	if got != want {
		t.Fatalf("Read() low nibble = %#02x, want %#02x", got, want)
	}
}

func TestJoypad_FallingEdgeOnSelectedLineRaisesIRQ(t *testing.T) {
	j := New()
	j.Write(0x20) // select D-Pad
	j.Handle(Up, true)
	if !j.IRQ {
		t.Fatalf("expected IRQ latch set on press while D-Pad selected")
	}
}

func TestJoypad_PressWhileNotSelectedDoesNotRaiseIRQ(t *testing.T) {
	j := New()
	j.Write(0x10) // select buttons only
	j.Handle(Up, true)
	if j.IRQ {
		t.Fatalf("did not expect IRQ latch set: D-Pad not selected")
	}
}

func TestJoypad_ReadTopBitsAlwaysHigh(t *testing.T) {
	j := New()
	if got := j.Read() & 0xC0; got != 0xC0 {
		t.Fatalf("Read() top bits = %#02x, want 0xC0", got)
	}
}
