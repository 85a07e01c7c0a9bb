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
	"github.com/jetsetilly/gbathread/errors"
)

// run is the worker goroutine's entry point: initialization, the main
// emulation loop driven by the state machine, then teardown. It always
// closes c.done before returning, however it got there, so Join never hangs.
func (c *Context) run() {
	registerContext(c)

	c.log = c.log.WithField("state", c.State().String())

	if c.core != nil {
		resolved := c.opts
		resolved.FPSTarget = c.opts.fpsTarget()
		c.core.Configure(resolved)
		c.core.SetSync(c.sync)
		if c.keys != nil {
			c.core.SetKeySource(c.keys)
		}
		if c.debugger != nil {
			c.core.AttachDebugger(c.debugger)
		}
		if c.cheats != "" {
			if err := c.core.AttachCheats(c.cheats); err != nil {
				c.log.WithError(err).Warn("failed to attach cheats")
			}
		}
		if err := c.core.Create(); err != nil {
			c.log.WithError(err).Error("core creation failed")
			c.changeState(SHUTDOWN, true)
			c.closeOwnedFiles()
			unregisterContext()
			close(c.done)
			return
		}

		if c.rom != nil {
			if err := c.core.LoadROM(c.rom); err != nil {
				c.log.WithError(err).Error("ROM load failed")
			}
			if c.bios != nil {
				if err := c.core.LoadBIOS(c.bios); err != nil {
					c.log.WithError(err).Warn("BIOS load failed")
				}
			}
			if c.patch != nil {
				if err := c.core.LoadPatch(c.patch); err != nil {
					c.log.WithError(err).Warn("patch load failed")
				}
			}
		}

		c.core.Reset()

		if c.movie != nil {
			c.movie.StartPlaying(false)
		}

		if c.opts.SkipBIOS {
			c.core.SkipBIOS()
		}
	}

	if c.startCallback != nil {
		c.startCallback(c)
	}

	c.changeState(RUNNING, true)

	c.mainLoop()
	c.teardown()
}

// mainLoop runs until state reaches EXITING, alternating between advancing
// emulation (or stepping the debugger) and the worker-side poll that
// observes pause/interrupt/reset requests made by the state machine.
func (c *Context) mainLoop() {
	for c.State() < EXITING {
		c.runQuantumGuarded()

		resetScheduled := false
		c.stateMutex.Lock()
		for c.state > RUNNING && c.state < EXITING {
			if c.state == PAUSING {
				c.state = PAUSED
				c.stateCond.Broadcast()
			}
			if c.state == INTERRUPTING {
				c.state = INTERRUPTED
				c.stateCond.Broadcast()
			}
			if c.state == RESETING {
				c.state = RUNNING
				resetScheduled = true
			}
			for c.state == PAUSED || c.state == INTERRUPTED {
				c.stateCond.Wait(&c.stateMutex)
			}
		}
		c.stateMutex.Unlock()

		if resetScheduled && c.core != nil {
			c.core.Reset()
			if c.opts.SkipBIOS {
				c.core.SkipBIOS()
			}
		}
	}
}

// runQuantumGuarded runs either one debugger step or a burst of emulation
// quanta (until the state changes out from under RUNNING), recovering from
// any panic raised inside Core.RunQuantum or the debugger step and
// publishing CRASHED instead of letting it escape the worker goroutine.
func (c *Context) runQuantumGuarded() {
	defer func() {
		if r := recover(); r != nil {
			curated := errors.Errorf(errors.EmulationCrash, r)
			c.log.WithError(curated).Error(errors.Head(curated))

			c.stateMutex.Lock()
			c.terminalErr = curated
			c.stateMutex.Unlock()

			c.changeState(CRASHED, true)
		}
	}()

	if c.debugger != nil {
		c.debugger.Run()
		if c.debugger.State() == DebuggerShutdown {
			curated := errors.Errorf(errors.DebuggerShutdown)
			c.log.Debug(errors.Head(curated))
			c.changeState(EXITING, false)
		}
		return
	}

	if c.core == nil {
		return
	}
	for c.State() == RUNNING {
		c.core.RunQuantum()
		if c.frameCallback != nil {
			c.frameCallback(c)
		}
	}
}

// teardown forces the terminal state, runs cleanup, releases owned
// resources, wakes any consumer still blocked in SyncChannel, and finally
// closes c.done so Join can return. It runs even after a crash so that file
// handles and the sync channel are never left stuck.
func (c *Context) teardown() {
	if c.State() != CRASHED {
		c.changeState(SHUTDOWN, false)
	}

	if c.cleanCallback != nil {
		c.cleanCallback(c)
	}

	if c.core != nil {
		c.core.Destroy()
	}
	if c.movie != nil {
		c.movie.Destroy()
	}

	c.closeOwnedFiles()

	c.sync.shutdown()

	unregisterContext()

	close(c.done)
}

// closeOwnedFiles closes every file handle the context owns exactly once.
// Called once per worker run: from teardown, or from run when Core creation
// fails.
func (c *Context) closeOwnedFiles() {
	closeIfSet := func(f File) {
		if f != nil {
			f.Close()
		}
	}
	closeIfSet(c.rom)
	c.rom = nil
	closeIfSet(c.save)
	c.save = nil
	closeIfSet(c.bios)
	c.bios = nil
	closeIfSet(c.patch)
	c.patch = nil
	closeIfSet(c.cheatsFile)
	c.cheatsFile = nil

	// stateDir and gameDir may be the same provider (directory mode); close
	// it only once, as the source does.
	if c.gameDir != nil {
		if c.stateDir == c.gameDir {
			c.stateDir = nil
		}
		c.gameDir.Close()
		c.gameDir = nil
	}
	if c.stateDir != nil {
		c.stateDir.Close()
		c.stateDir = nil
	}
}
