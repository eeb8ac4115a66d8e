// Package bus implements the MMU described in spec.md §4.3: the flat
// 16-bit CPU address space, routed to cartridge, WRAM, HRAM, the PPU's
// VRAM/OAM, and the IO register block, plus the handful of side effects
// (OAM DMA, boot ROM overlay, echo-RAM fatal canary, IF aggregation) that
// make the memory map more than a lookup table.
package bus

import (
	"fmt"
	"io"

	"github.com/finchlane/dmg8/internal/cart"
	"github.com/finchlane/dmg8/internal/joypad"
	"github.com/finchlane/dmg8/internal/ppu"
	"github.com/finchlane/dmg8/internal/timer"
)

// Bus wires CPU-visible address space to cartridge, WRAM, HRAM, and IO.
type Bus struct {
	cart cart.Cartridge

	// Work RAM (WRAM) 8 KiB at 0xC000-0xDFFF. 0xE000-0xFDFF ("echo RAM")
	// is not backed by this slice at all: Read/Write panic on it.
	wram [0x2000]byte

	// High RAM (HRAM) 0xFF80-0xFFFE (127 bytes)
	hram [0x7F]byte

	ppu    *ppu.PPU
	timer  *timer.Timer
	joypad *joypad.Joypad

	// Interrupt registers
	ie    byte // IE at 0xFFFF
	ifReg byte // IF at 0xFF0F (lower 5 bits used)

	// Serial
	sb byte      // FF01 data
	sc byte      // FF02 control (bit7 start, bit0 clock source; completed immediately)
	sw io.Writer // optional sink for bytes shifted out the serial port

	// OAM DMA state
	dma       byte // FF46, last-written source page
	dmaActive bool
	dmaSrc    uint16
	dmaIndex  int

	// Boot ROM support
	bootROM     []byte
	bootEnabled bool
}

// New constructs a Bus from raw ROM bytes, picking a cartridge
// implementation from the header. Returns an error for cartridge types
// outside no-MBC/MBC1 rather than silently substituting a different one.
func New(rom []byte) (*Bus, error) {
	c, err := cart.NewCartridge(rom)
	if err != nil {
		return nil, fmt.Errorf("bus: %w", err)
	}
	return NewWithCartridge(c), nil
}

// NewWithCartridge wires a provided cartridge implementation directly,
// useful for tests that don't want to go through header parsing.
func NewWithCartridge(c cart.Cartridge) *Bus {
	b := &Bus{cart: c, timer: timer.New(0), joypad: joypad.New()}
	b.ppu = ppu.New(func(bit int) { b.ifReg |= 1 << bit })
	return b
}

// PPU returns the internal PPU for rendering helpers.
func (b *Bus) PPU() *ppu.PPU { return b.ppu }

// Cart returns the underlying cartridge.
func (b *Bus) Cart() cart.Cartridge { return b.cart }

// Joypad returns the internal joypad for input delivery.
func (b *Bus) Joypad() *joypad.Joypad { return b.joypad }

func (b *Bus) Read(addr uint16) byte {
	switch {
	case addr < 0x8000:
		if b.bootEnabled && addr < 0x0100 && len(b.bootROM) >= 0x100 {
			return b.bootROM[addr]
		}
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		// Echo RAM is a canary, not a real access path: spec.md §4.3/§7
		// mark it fatal, and no code in this emulator should ever compute
		// an address that lands here on purpose.
		panic(fmt.Sprintf("bus: read from echo RAM at %#04x", addr))
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if b.dmaActive {
			return 0xFF
		}
		return b.ppu.CPURead(addr)
	case addr >= 0xFF80 && addr <= 0xFFFE:
		return b.hram[addr-0xFF80]
	case addr == 0xFF00:
		return b.joypad.Read()
	case addr == 0xFF01:
		return b.sb
	case addr == 0xFF02:
		return 0x7E | (b.sc & 0x81)
	case addr == 0xFF04:
		return b.timer.DIV()
	case addr == 0xFF05:
		return b.timer.TIMA()
	case addr == 0xFF06:
		return b.timer.TMA()
	case addr == 0xFF07:
		return b.timer.TAC()
	case addr == 0xFF0F:
		return 0xE0 | (b.ifReg & 0x1F)
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		return b.ppu.CPURead(addr)
	case addr == 0xFF46:
		return b.dma
	case addr == 0xFF50:
		return 0xFF
	case addr == 0xFFFF:
		return b.ie
	}
	return 0xFF
}

func (b *Bus) Write(addr uint16, value byte) {
	switch {
	case addr < 0x8000:
		b.cart.Write(addr, value)
	case addr >= 0x8000 && addr <= 0x9FFF:
		b.ppu.CPUWrite(addr, value)
	case addr >= 0xA000 && addr <= 0xBFFF:
		b.cart.Write(addr, value)
	case addr >= 0xC000 && addr <= 0xDFFF:
		b.wram[addr-0xC000] = value
	case addr >= 0xE000 && addr <= 0xFDFF:
		panic(fmt.Sprintf("bus: write to echo RAM at %#04x", addr))
	case addr >= 0xFE00 && addr <= 0xFE9F:
		if !b.dmaActive {
			b.ppu.CPUWrite(addr, value)
		}
	case addr >= 0xFF80 && addr <= 0xFFFE:
		b.hram[addr-0xFF80] = value
	case addr == 0xFF00:
		b.joypad.Write(value)
	case addr == 0xFF01:
		b.sb = value
	case addr == 0xFF02:
		b.sc = value & 0x81
		if b.sc&0x80 != 0 {
			if b.sw != nil {
				_, _ = b.sw.Write([]byte{b.sb})
			}
			b.ifReg |= 1 << 3
			b.sc &^= 0x80
		}
	case addr == 0xFF04:
		b.timer.ResetDIV()
	case addr == 0xFF05:
		b.timer.SetTIMA(value)
	case addr == 0xFF06:
		b.timer.SetTMA(value)
	case addr == 0xFF07:
		b.timer.SetTAC(value)
	case addr == 0xFF0F:
		b.ifReg = value & 0x1F
	case addr == 0xFF40, addr == 0xFF41, addr == 0xFF42, addr == 0xFF43,
		addr == 0xFF44, addr == 0xFF45,
		addr == 0xFF47, addr == 0xFF48, addr == 0xFF49,
		addr == 0xFF4A, addr == 0xFF4B:
		b.ppu.CPUWrite(addr, value)
	case addr == 0xFF46:
		b.dma = value
		b.dmaActive = true
		b.dmaSrc = uint16(value) << 8
		b.dmaIndex = 0
	case addr == 0xFF50:
		if value != 0x00 {
			b.bootEnabled = false
		}
	case addr == 0xFFFF:
		b.ie = value
	}
}

// SetSerialWriter sets a sink that receives bytes shifted out the serial
// port, used by Blargg-style test ROMs that report results over serial.
func (b *Bus) SetSerialWriter(w io.Writer) { b.sw = w }

// SetDoctorMode pins the PPU's LY register to 0x90 on read, matching
// spec.md §6's --doctor trace contract.
func (b *Bus) SetDoctorMode(on bool) { b.ppu.SetDoctorMode(on) }

// SetBootROM loads a DMG boot ROM to be mapped at 0x0000-0x00FF until
// disabled by a write to 0xFF50.
func (b *Bus) SetBootROM(data []byte) {
	b.bootROM = nil
	b.bootEnabled = false
	if len(data) >= 0x100 {
		b.bootROM = make([]byte, 0x100)
		copy(b.bootROM, data[:0x100])
		b.bootEnabled = true
	}
}

// IE returns the current value of the interrupt-enable register.
func (b *Bus) IE() byte { return b.ie }

// IF returns the current value of the interrupt-flag register. PPU
// requests land in it immediately; timer and joypad requests are folded
// in only by Tick, so one latched since the last Tick is not yet visible.
func (b *Bus) IF() byte { return b.ifReg }

// SetIF overwrites the interrupt-flag register, with the same effect as a
// write to 0xFF0F (the CPU acknowledges interrupts through that write).
func (b *Bus) SetIF(v byte) { b.ifReg = v & 0x1F }

// Tick advances the timer, PPU, and OAM DMA state machine by the given
// number of T-cycles, folding any interrupts they raise into IF.
func (b *Bus) Tick(cycles int) {
	if cycles <= 0 {
		return
	}
	b.timer.Tick(cycles)
	if b.timer.IRQ {
		b.ifReg |= 1 << 2
		b.timer.IRQ = false
	}
	if b.joypad.IRQ {
		b.ifReg |= 1 << 4
		b.joypad.IRQ = false
	}
	for i := 0; i < cycles; i++ {
		b.ppu.Tick(1)
		if b.dmaActive {
			if b.dmaIndex < 0xA0 {
				v := b.dmaReadSource(b.dmaSrc + uint16(b.dmaIndex))
				b.ppu.OAMBytes()[b.dmaIndex] = v // not subject to the CPU's mode 2/3 OAM lockout
				b.dmaIndex++
			}
			if b.dmaIndex >= 0xA0 {
				b.dmaActive = false
			}
		}
	}
}

// dmaReadSource reads a DMA source byte directly from cart/WRAM rather
// than through Read, since OAM DMA must see through the OAM-blocked view
// Read presents to the CPU while a transfer is in flight.
func (b *Bus) dmaReadSource(addr uint16) byte {
	switch {
	case addr < 0x8000:
		return b.cart.Read(addr)
	case addr >= 0x8000 && addr <= 0x9FFF:
		return b.ppu.CPURead(addr)
	case addr >= 0xA000 && addr <= 0xBFFF:
		return b.cart.Read(addr)
	case addr >= 0xC000 && addr <= 0xDFFF:
		return b.wram[addr-0xC000]
	case addr >= 0xE000 && addr <= 0xFDFF:
		// The original routes DMA source reads through the same
		// general-purpose memory read as everything else, so a DMA
		// page byte that lands in echo RAM hits the same fatal canary
		// (_examples/original_source/src/gameboy/mod.rs's DMA loop
		// calls get_memory_byte, which panics on this range).
		panic(fmt.Sprintf("bus: DMA source read from echo RAM at %#04x", addr))
	default:
		return 0xFF
	}
}
