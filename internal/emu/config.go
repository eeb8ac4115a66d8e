package emu

// Config contains settings that affect emulation behavior.
type Config struct {
	Trace bool // log each fetched PC to stdout
}
