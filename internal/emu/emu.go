// Package emu wires the CPU, MMU, cartridge, PPU, timer, and joypad into
// the single-threaded step loop described in spec.md §2 and §5: the host
// (cmd/dmg8 or internal/ui) drives Machine.StepFrame once per displayed
// frame, and Machine runs CPU instructions until the PPU reports a frame
// boundary.
package emu

import (
	"fmt"
	"io"
	"os"

	"github.com/finchlane/dmg8/internal/bus"
	"github.com/finchlane/dmg8/internal/cpu"
	"github.com/finchlane/dmg8/internal/joypad"
)

// Buttons mirrors the eight logical joypad inputs spec.md §4.7 describes.
type Buttons struct {
	A, B, Start, Select   bool
	Up, Down, Left, Right bool
}

// Machine is a fully wired DMG: one cartridge, one CPU, one bus.
type Machine struct {
	cfg Config
	bus *bus.Bus
	cpu *cpu.CPU

	fb [160 * 144 * 4]byte

	prev    Buttons
	bootROM []byte
}

// New constructs a Machine with no cartridge loaded; call LoadCartridge
// before stepping.
func New(cfg Config) *Machine {
	return &Machine{cfg: cfg}
}

// LoadCartridge parses the ROM header, builds the matching cartridge
// implementation, and resets the CPU to its post-boot state (or, if a
// boot ROM is supplied, to the state the boot ROM itself establishes by
// executing from 0x0000).
func (m *Machine) LoadCartridge(rom []byte, boot []byte) error {
	b, err := bus.New(rom)
	if err != nil {
		return fmt.Errorf("emu: load cartridge: %w", err)
	}
	m.bus = b
	m.cpu = cpu.New(b)
	if len(boot) > 0 {
		b.SetBootROM(boot)
	} else {
		m.cpu.ResetNoBoot()
	}
	return nil
}

// LoadROMFromFile reads the ROM (and, if set, the boot ROM) from disk and
// wires a fresh cartridge/bus/cpu via LoadCartridge. The conformance test
// uses this; cmd/dmg8 reads its files itself and calls LoadCartridge.
func (m *Machine) LoadROMFromFile(romPath string) error {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		return fmt.Errorf("emu: read rom: %w", err)
	}
	var boot []byte
	if m.bootROM != nil {
		boot = m.bootROM
	}
	return m.LoadCartridge(rom, boot)
}

// SetBootROM stashes a boot ROM image to be applied by the next
// LoadCartridge/LoadROMFromFile call.
func (m *Machine) SetBootROM(data []byte) { m.bootROM = data }

// SetSerialWriter attaches a sink for bytes shifted out the serial port
// (spec.md §4.3's serial stub), used by Blargg-style conformance ROMs
// that report pass/fail over serial.
func (m *Machine) SetSerialWriter(w io.Writer) {
	if m.bus != nil {
		m.bus.SetSerialWriter(w)
	}
}

// StepFrame runs CPU instructions until the PPU completes one frame
// (spec.md §4.5's VBlank boundary), then copies the framebuffer out.
func (m *Machine) StepFrame() {
	if m.bus == nil || m.cpu == nil {
		return
	}
	ppu := m.bus.PPU()
	for !ppu.FrameReady() {
		if m.cfg.Trace {
			fmt.Printf("PC=%04X\n", m.cpu.PC)
		}
		m.cpu.Step()
	}
	ppu.ConsumeFrame()
	copy(m.fb[:], ppu.Framebuffer())
}

// StepFrameNoRender is StepFrame without the framebuffer copy, for
// headless conformance runs that only care about serial output.
func (m *Machine) StepFrameNoRender() {
	if m.bus == nil || m.cpu == nil {
		return
	}
	ppu := m.bus.PPU()
	for !ppu.FrameReady() {
		m.cpu.Step()
	}
	ppu.ConsumeFrame()
}

// Framebuffer returns the most recently completed frame as packed RGBA.
func (m *Machine) Framebuffer() []byte { return m.fb[:] }

// SetButtons delivers the current button state to the joypad, raising
// edges for buttons that just transitioned from released to pressed (and
// vice versa for release edges the hardware doesn't latch but bookkeeps
// the same way).
func (m *Machine) SetButtons(b Buttons) {
	if m.bus == nil {
		return
	}
	jp := m.bus.Joypad()
	deliver := func(key joypad.Key, now, was bool) {
		if now != was {
			jp.Handle(key, now)
		}
	}
	deliver(joypad.Right, b.Right, m.prev.Right)
	deliver(joypad.Left, b.Left, m.prev.Left)
	deliver(joypad.Up, b.Up, m.prev.Up)
	deliver(joypad.Down, b.Down, m.prev.Down)
	deliver(joypad.A, b.A, m.prev.A)
	deliver(joypad.B, b.B, m.prev.B)
	deliver(joypad.Select, b.Select, m.prev.Select)
	deliver(joypad.Start, b.Start, m.prev.Start)
	m.prev = b
}

// Bus exposes the underlying bus for tools that need direct access (the
// --doctor trace CLI, conformance tests reading the serial port).
func (m *Machine) Bus() *bus.Bus { return m.bus }

// CPU exposes the underlying CPU for the same reason.
func (m *Machine) CPU() *cpu.CPU { return m.cpu }
