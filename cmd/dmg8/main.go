// Command dmg8 is the host loop glue of spec.md §2: it loads a cartridge
// image, wires it into an emu.Machine, and either drives an ebiten window
// (the frame sink / input source collaborators of spec.md §1) or, under
// --doctor, emits the per-step trace spec.md §6 describes for external
// conformance harnesses.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/finchlane/dmg8/internal/cart"
	"github.com/finchlane/dmg8/internal/emu"
	"github.com/finchlane/dmg8/internal/ui"
)

func main() {
	doctor := flag.Bool("doctor", false, "emit a per-step register/opcode trace on stdout instead of opening a window")
	bootROMPath := flag.String("bootrom", "", "optional DMG boot ROM to run from 0x0000 until FF50 disables it")
	scale := flag.Int("scale", 3, "integer window scale factor")
	title := flag.String("title", "dmg8", "window title")
	headless := flag.Bool("headless", false, "run without opening a window")
	frames := flag.Int("frames", 0, "frames to run under -headless before exiting (0 runs until killed)")
	steps := flag.Int("steps", 0, "CPU steps to run under -doctor before exiting (0 runs until killed)")
	flag.Parse()

	romPath := flag.Arg(0)
	if romPath == "" {
		fmt.Fprintln(os.Stderr, "usage: dmg8 [--doctor] rom-path")
		os.Exit(2)
	}

	rom, err := os.ReadFile(romPath)
	if err != nil {
		log.Fatalf("read rom: %v", err)
	}
	if h, err := cart.ParseHeader(rom); err == nil {
		log.Printf("rom: %q type=%s rom_banks=%d ram=%dB", h.Title, h.CartTypeStr, h.ROMBanks, h.RAMSizeBytes)
		if !h.ChecksumOK {
			log.Printf("warning: header checksum mismatch, continuing anyway")
		}
	} else {
		log.Printf("warning: %v", err)
	}

	var boot []byte
	if *bootROMPath != "" {
		boot, err = os.ReadFile(*bootROMPath)
		if err != nil {
			log.Fatalf("read bootrom: %v", err)
		}
	}

	m := emu.New(emu.Config{})
	if err := m.LoadCartridge(rom, boot); err != nil {
		log.Fatalf("load cartridge: %v", err)
	}

	if *doctor {
		runDoctor(m, *steps)
		return
	}

	if *headless {
		runHeadless(m, *frames)
		return
	}

	app := ui.NewApp(ui.Config{Title: *title, Scale: *scale}, m)
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

// runDoctor pins LY to 0x90 (spec.md §6) and prints one line per retired
// instruction: the register file plus the four bytes at PC, in the
// format external SM83 conformance harnesses expect.
func runDoctor(m *emu.Machine, maxSteps int) {
	m.Bus().SetDoctorMode(true)
	c := m.CPU()
	b := m.Bus()

	for i := 0; maxSteps == 0 || i < maxSteps; i++ {
		pc := c.PC
		mem := [4]byte{b.Read(pc), b.Read(pc + 1), b.Read(pc + 2), b.Read(pc + 3)}
		fmt.Printf("A:%02X F:%02X B:%02X C:%02X D:%02X E:%02X H:%02X L:%02X SP:%04X PC:%04X PCMEM:%02X,%02X,%02X,%02X\n",
			c.A, c.F, c.B, c.C, c.D, c.E, c.H, c.L, c.SP, pc, mem[0], mem[1], mem[2], mem[3])
		c.Step()
	}
}

// runHeadless drives the Machine for a fixed number of frames with no
// window, useful for scripted smoke tests of the full step loop.
func runHeadless(m *emu.Machine, frames int) {
	for i := 0; frames == 0 || i < frames; i++ {
		m.StepFrame()
	}
	log.Printf("ran %d frames", frames)
}
