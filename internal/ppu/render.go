package ppu

// dmgShades maps a 2-bit palette-resolved shade (0..3, 0 lightest) to an
// RGBA color approximating the DMG's green-tinted LCD.
var dmgShades = [4][4]byte{
	{0xE0, 0xF8, 0xD0, 0xFF},
	{0x88, 0xC0, 0x70, 0xFF},
	{0x34, 0x68, 0x56, 0xFF},
	{0x08, 0x18, 0x20, 0xFF},
}

// directVRAM reads VRAM bytes directly, bypassing the CPU-facing
// mode-gated view CPURead presents; the renderer runs alongside mode 3,
// not through the bus, so it must never observe the 0xFF CPU-lockout.
type directVRAM struct{ p *PPU }

func (d directVRAM) Read(addr uint16) byte {
	if addr >= 0x8000 && addr <= 0x9FFF {
		return d.p.vram[addr-0x8000]
	}
	return 0xFF
}

func shade(palette, ci byte) byte { return (palette >> (ci * 2)) & 0x03 }

// composeScanline renders one visible line into the framebuffer using
// the register snapshot LineRegs captured at the start of mode 3,
// combining background, window, and sprite layers per spec.md §4.5.
func (p *PPU) composeScanline(ly int) {
	if ly < 0 || ly >= 144 {
		return
	}
	lr := p.lines[ly]
	mem := directVRAM{p}

	bgMapBase := uint16(0x9800)
	if lr.LCDC&0x08 != 0 {
		bgMapBase = 0x9C00
	}
	tileData8000 := lr.LCDC&0x10 != 0
	bgEnabled := lr.LCDC&0x01 != 0

	var bgci [160]byte
	if bgEnabled {
		bgci = RenderBGScanlineUsingFetcher(mem, bgMapBase, tileData8000, lr.SCX, lr.SCY, byte(ly))
	}

	if lr.WindowVisible {
		winMapBase := uint16(0x9800)
		if lr.LCDC&0x40 != 0 {
			winMapBase = 0x9C00
		}
		wxStart := int(lr.WX) - 7
		win := RenderWindowScanlineUsingFetcher(mem, winMapBase, tileData8000, wxStart, lr.WinLine)
		for x := wxStart; x < 160; x++ {
			if x < 0 {
				continue
			}
			bgci[x] = win[x]
		}
	}

	var spci, spPal [160]byte
	if lr.LCDC&0x02 != 0 {
		tall := lr.LCDC&0x04 != 0
		all := ScanOAM(p.OAMBytes())
		sprites := SpritesForLine(all, ly, tall)
		spci, spPal = ComposeSpriteLinePalettes(mem, sprites, ly, bgci, tall)
	}

	for x := 0; x < 160; x++ {
		var rgba [4]byte
		if spci[x] != 0 {
			pal := lr.OBP0
			if spPal[x] == 1 {
				pal = lr.OBP1
			}
			rgba = dmgShades[shade(pal, spci[x])]
		} else if bgEnabled || lr.WindowVisible {
			s := dmgShades[shade(lr.BGP, bgci[x])]
			rgba = s
		} else {
			rgba = dmgShades[0]
		}
		i := (ly*160 + x) * 4
		p.fb[i+0], p.fb[i+1], p.fb[i+2], p.fb[i+3] = rgba[0], rgba[1], rgba[2], rgba[3]
	}
}

// Framebuffer returns the current 160x144 RGBA framebuffer. The slice is
// owned by the PPU and is overwritten scanline-by-scanline as rendering
// progresses; callers that need a stable frame should copy it after
// FrameReady reports true.
func (p *PPU) Framebuffer() []byte { return p.fb[:] }

// FrameReady reports whether a full frame has completed since the last
// call to ConsumeFrame.
func (p *PPU) FrameReady() bool { return p.frameReady }

// ConsumeFrame clears the frame-ready latch; callers call this after
// having copied or presented the framebuffer.
func (p *PPU) ConsumeFrame() { p.frameReady = false }
