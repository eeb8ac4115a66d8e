// Package ui is the ebiten-backed presentation layer: it owns the window,
// copies the PPU's framebuffer into a texture once per displayed frame,
// and translates keyboard state into the Machine's logical button inputs.
package ui

import (
	"github.com/finchlane/dmg8/internal/emu"
	"github.com/hajimehoshi/ebiten/v2"
)

// App implements ebiten.Game for a single running Machine.
type App struct {
	cfg Config
	m   *emu.Machine
	tex *ebiten.Image
}

// NewApp builds the window chrome around an already-loaded Machine.
func NewApp(cfg Config, m *emu.Machine) *App {
	cfg.Defaults()
	ebiten.SetWindowTitle(cfg.Title)
	ebiten.SetWindowSize(160*cfg.Scale, 144*cfg.Scale)
	return &App{cfg: cfg, m: m}
}

// Run hands control to ebiten's game loop until the window closes.
func (a *App) Run() error { return ebiten.RunGame(a) }

// Update reads keyboard state and steps one emulated frame.
func (a *App) Update() error {
	a.m.SetButtons(emu.Buttons{
		Right:  ebiten.IsKeyPressed(ebiten.KeyRight),
		Left:   ebiten.IsKeyPressed(ebiten.KeyLeft),
		Up:     ebiten.IsKeyPressed(ebiten.KeyUp),
		Down:   ebiten.IsKeyPressed(ebiten.KeyDown),
		A:      ebiten.IsKeyPressed(ebiten.KeyZ),
		B:      ebiten.IsKeyPressed(ebiten.KeyX),
		Start:  ebiten.IsKeyPressed(ebiten.KeyEnter),
		Select: ebiten.IsKeyPressed(ebiten.KeyShiftRight),
	})
	a.m.StepFrame()
	return nil
}

// Draw blits the Machine's framebuffer to the screen.
func (a *App) Draw(screen *ebiten.Image) {
	if a.tex == nil {
		a.tex = ebiten.NewImage(160, 144)
	}
	a.tex.WritePixels(a.m.Framebuffer())
	screen.DrawImage(a.tex, nil)
}

// Layout pins the logical screen to the DMG's native resolution; ebiten
// handles the scale-factor upsampling to the actual window size.
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) { return 160, 144 }
