// This file is part of Gbathread.
//
// Gbathread is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gbathread is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gbathread.  If not, see <https://www.gnu.org/licenses/>.

package thread

// Core is the emulation engine that runs inside the worker's main loop. An
// implementation owns the CPU, memory map, and scheduler; this package never
// looks inside it.
type Core interface {
	// Configure applies the owned configuration (frameskip, rewind buffer
	// sizing, idle optimization, ...) Core should use for the rest of its
	// life. Called once, before Create.
	Configure(opts Options)

	Create() error
	Reset()
	SkipBIOS()
	Destroy()

	SetSync(sync *SyncChannel)
	SetKeySource(keys KeySource)
	AttachDebugger(d Debugger)
	AttachCheats(cheats string) error

	LoadROM(rom File) error
	LoadBIOS(bios File) error
	LoadPatch(patch File) error
	ApplyOverride(romID string)

	// RunQuantum advances emulation by one scheduling quantum. It may call
	// back into the Renderer (via SyncChannel.PostFrame) or the AudioSink
	// (via SyncChannel.ProduceAudio) any number of times.
	RunQuantum()

	// SetHalted is called by End to unstick a CPU sitting in a halted
	// (low-power) state so that the worker's run loop can observe the
	// state change promptly.
	SetHalted(halted bool)
}

// Renderer consumes decoded video frames produced through SyncChannel.
type Renderer interface {
	Associate(sync *SyncChannel)
	GetPixels() (stride int, pixels []byte)
}

// AudioSink consumes audio samples produced through SyncChannel. Room
// reports whether the sink's ring buffer currently has space for another
// quantum's worth of samples; SyncChannel surfaces it as the audioRoom
// predicate (see SetAudioRoomPredicate).
type AudioSink interface {
	Room() bool
}

// File is an open handle to a ROM, BIOS image, patch, save, or cheats file.
type File interface {
	Close() error
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
}

// FileProvider is an abstract directory the worker scans for a ROM and
// companion files when started in directory mode.
type FileProvider interface {
	Rewind()
	ListNext() (name string, ok bool)
	OpenFile(name string) (File, error)
	Close() error
}

// Debugger is the attached debugger's view of the worker. Run executes one
// debugger step; State reports whether that step requested shutdown.
type Debugger interface {
	Run()
	State() DebuggerState
	Enter(reason string)
	Log(msg string)
}

// DebuggerState is the debugger's own small state enumeration; the worker
// only ever inspects it for DebuggerShutdown.
type DebuggerState int

const (
	DebuggerRunning DebuggerState = iota
	DebuggerPaused
	DebuggerShutdown
)

// Movie is an attached input-recording/playback driver.
type Movie interface {
	StartPlaying(fromState bool)
	Destroy()
}

// KeySource is polled by Core for the currently held input.
type KeySource interface {
	ActiveKeys() uint32
}
