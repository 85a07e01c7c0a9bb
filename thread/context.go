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

import (
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/vanadium/go.lib/nsync"

	"github.com/jetsetilly/gbathread/errors"
)

// Context holds everything owned by a single worker: its lifecycle state,
// the collaborators it was configured with, and the sync fabric consumers
// use to pick up its output. A Context is created by NewContext and is
// exclusively owned by its creator; the worker goroutine and any consumer
// goroutines only ever touch it through the mutex-guarded operations on
// StateMachine and SyncChannel.
type Context struct {
	stateMutex     sync.Mutex
	stateCond      nsync.CV
	state          State
	savedState     State
	interruptDepth int
	terminalErr    error

	sync *SyncChannel

	log *logrus.Entry

	core     Core
	renderer Renderer
	audio    AudioSink
	debugger Debugger
	movie    Movie
	cheats   string
	keys     KeySource

	opts Options
	args Arguments

	rom        File
	bios       File
	patch      File
	save       File
	cheatsFile File
	gameDir    FileProvider
	stateDir   FileProvider

	rewindBuffer []byte

	startCallback func(*Context)
	cleanCallback func(*Context)
	frameCallback func(*Context)

	done chan struct{}
}

// NewContext constructs a Context in the INITIALIZED state. log may be nil,
// in which case an entry on logrus's standard logger is used so call sites
// never need a nil check.
func NewContext(log *logrus.Entry) *Context {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Context{
		state: INITIALIZED,
		sync:  NewSyncChannel(),
		log:   log,
		done:  make(chan struct{}),
	}
}

// Sync returns the SyncChannel consumers use to pick up frames and drain
// audio.
func (c *Context) Sync() *SyncChannel {
	return c.sync
}

// State returns the current lifecycle state under stateMutex.
func (c *Context) State() State {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.state
}

// Configure wires the collaborators and options a worker will use. It must
// be called before Start.
func (c *Context) Configure(opts Options, args Arguments, core Core, renderer Renderer, audio AudioSink) {
	c.opts = opts
	c.args = args
	c.core = core
	c.renderer = renderer
	c.audio = audio

	c.sync.setAudioWait(opts.AudioSync)
	c.sync.setVideoWait(opts.VideoSync)
	if audio != nil {
		c.sync.SetAudioRoomPredicate(audio.Room)
	}
}

// SetFiles wires the file handles and directory providers a worker will
// load from. Any argument may be nil/zero; in directory mode (gameDir
// non-nil and rom nil) Start scans gameDir for a ROM and a companion patch
// the way resolveROM documents.
func (c *Context) SetFiles(rom, bios, patch, save, cheatsFile File, gameDir, stateDir FileProvider) {
	c.rom = rom
	c.bios = bios
	c.patch = patch
	c.save = save
	c.cheatsFile = cheatsFile
	c.gameDir = gameDir
	c.stateDir = stateDir
}

// AttachDebugger wires an optional debugger; the worker consults it on every
// iteration of the main loop.
func (c *Context) AttachDebugger(d Debugger) {
	c.debugger = d
}

// AttachMovie wires an optional input recorder/player.
func (c *Context) AttachMovie(m Movie) {
	c.movie = m
}

// SetCheats wires a raw cheat-code listing the worker passes to
// Core.AttachCheats on startup. An empty string means no cheats are applied.
func (c *Context) SetCheats(cheats string) {
	c.cheats = cheats
}

// SetKeySource wires the input poller Core will use.
func (c *Context) SetKeySource(k KeySource) {
	c.keys = k
}

// SetLifecycleCallbacks installs the optional callbacks the worker invokes
// at the start and end of its run, and after each Core.RunQuantum call
// (whether or not that quantum produced a frame).
func (c *Context) SetLifecycleCallbacks(start, clean, frame func(*Context)) {
	c.startCallback = start
	c.cleanCallback = clean
	c.frameCallback = frame
}

// Crash lets a Core implementation request the CRASHED terminal state
// directly, without a panic, when it detects its own unrecoverable fault.
func (c *Context) Crash(err error) {
	curated := errors.Errorf(errors.EmulationCrash, err)
	c.log.WithError(curated).Error(errors.Head(curated))

	c.stateMutex.Lock()
	c.state = CRASHED
	c.terminalErr = curated
	c.stateCond.Broadcast()
	c.stateMutex.Unlock()

	c.sync.shutdown()
}

// Err returns the curated error that explains why the worker reached its
// current terminal state, or nil if it hasn't reached one (or reached
// SHUTDOWN cleanly). Classify it with errors.Is(c.Err(), errors.EmulationCrash)
// or errors.Is(c.Err(), errors.ConfigError).
func (c *Context) Err() error {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.terminalErr
}

// resolveROM scans gameDir (if set, ie. directory mode) for a ROM and
// companion patch file, exactly as the worker-start path in the original
// source does. It returns false if no ROM could be resolved.
func (c *Context) resolveROM() bool {
	if c.rom != nil {
		return true
	}
	if c.gameDir == nil {
		return false
	}

	c.gameDir.Rewind()
	for {
		name, ok := c.gameDir.ListNext()
		if !ok {
			break
		}
		f, err := c.gameDir.OpenFile(name)
		if err != nil {
			continue
		}
		if c.rom == nil && isROM(f) {
			c.rom = f
		} else if c.patch == nil && isPatch(f) {
			c.patch = f
		} else {
			f.Close()
		}
	}

	return c.rom != nil
}

// isROM and isPatch are the directory-scan predicates a real FileProvider
// implementation's files would need to satisfy. They are deliberately
// conservative stand-ins: file-format sniffing is a FileProvider/File
// collaborator concern, not the supervisor's.
func isROM(f File) bool {
	type romSniffer interface{ IsROM() bool }
	if s, ok := f.(romSniffer); ok {
		return s.IsROM()
	}
	return false
}

func isPatch(f File) bool {
	type patchSniffer interface{ IsPatch() bool }
	if s, ok := f.(patchSniffer); ok {
		return s.IsPatch()
	}
	return false
}
