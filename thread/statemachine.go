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

// changeState sets the state under stateMutex and optionally wakes the state
// condition. Callers must not hold stateMutex.
func (c *Context) changeState(newState State, broadcast bool) {
	c.stateMutex.Lock()
	c.state = newState
	if broadcast {
		c.stateCond.Broadcast()
	}
	c.stateMutex.Unlock()
}

// waitOnInterrupt blocks while the worker is sitting in INTERRUPTED. Callers
// must hold stateMutex.
func (c *Context) waitOnInterrupt() {
	for c.state == INTERRUPTED {
		c.stateCond.Wait(&c.stateMutex)
	}
}

// waitUntilNotState is the one documented nested-lock idiom in this package:
// while state == oldState, it releases stateMutex, nudges both sync
// conditions so a blocked consumer or producer can observe the transition in
// flight, then reacquires stateMutex and nudges the state condition too.
// Video sync is disabled for the duration and restored to its prior value on
// return so that a worker blocked in PostFrame can return and reach its state
// poll while the handshake is in progress. Callers must hold stateMutex on entry and retain it on return.
func (c *Context) waitUntilNotState(oldState State) {
	c.sync.videoFrameMutex.Lock()
	videoFrameWait := c.sync.videoFrameWait
	c.sync.videoFrameWait = false
	c.sync.videoFrameMutex.Unlock()

	for c.state == oldState {
		c.stateMutex.Unlock()
		c.sync.wake()
		c.stateMutex.Lock()
		c.stateCond.Broadcast()
	}

	c.sync.videoFrameMutex.Lock()
	c.sync.videoFrameWait = videoFrameWait
	c.sync.videoFrameMutex.Unlock()
}

// pauseThread sets PAUSING and, unless called from the worker's own
// goroutine, blocks until the worker has moved on from PAUSING (to PAUSED,
// or further if something else preempted it). Callers must hold stateMutex.
func (c *Context) pauseThread(onThread bool) {
	c.state = PAUSING
	if !onThread {
		c.waitUntilNotState(PAUSING)
	}
}

// Start spawns the worker goroutine running run, and blocks until it
// reaches RUNNING (or SHUTDOWN, if Core creation failed). It returns false
// without spawning the worker if no ROM could be resolved.
func (c *Context) Start() bool {
	c.state = INITIALIZED
	c.sync.videoFrameOn = true
	c.sync.videoFrameSkip = 0

	if c.opts.RewindEnable {
		c.rewindBuffer = make([]byte, 0, c.opts.RewindBufferCapacity)
	}

	if !c.resolveROM() {
		curated := errors.Errorf(errors.ConfigError)
		c.log.WithError(curated).Warn(errors.Head(curated))

		c.stateMutex.Lock()
		c.terminalErr = curated
		c.stateMutex.Unlock()

		c.changeState(SHUTDOWN, false)
		return false
	}

	c.stateMutex.Lock()
	go c.run()
	for c.state < RUNNING {
		c.stateCond.Wait(&c.stateMutex)
	}
	c.stateMutex.Unlock()

	return true
}

// End requests termination. It waits out any in-flight interrupt, sets
// EXITING, unsticks a halted Core, and wakes every condition variable so
// that any producer or consumer currently blocked in SyncChannel returns
// promptly.
func (c *Context) End() {
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	c.state = EXITING
	if c.core != nil {
		c.core.SetHalted(false)
	}
	c.stateCond.Broadcast()
	c.stateMutex.Unlock()

	c.sync.shutdown()
}

// Reset requests a CPU reset on the worker's next poll. It waits out any
// in-flight interrupt first.
func (c *Context) Reset() {
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	c.state = RESETING
	c.stateCond.Broadcast()
	c.stateMutex.Unlock()
}

// Pause requests a pause and blocks until the worker reaches PAUSED (or the
// request is a no-op because the worker wasn't RUNNING).
func (c *Context) Pause() {
	frameOn := true
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	if c.state == RUNNING {
		c.pauseThread(false)
		frameOn = false
	}
	c.stateMutex.Unlock()

	c.sync.changeVideoSync(frameOn)
}

// PauseFromThread is the worker-goroutine variant of Pause: it sets PAUSING
// without waiting for the handshake, since the caller is the worker itself.
func (c *Context) PauseFromThread() {
	frameOn := true
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	if c.state == RUNNING {
		c.pauseThread(true)
		frameOn = false
	}
	c.stateMutex.Unlock()

	c.sync.changeVideoSync(frameOn)
}

// Unpause requests a resume from PAUSED or PAUSING back to RUNNING.
func (c *Context) Unpause() {
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	if c.state == PAUSED || c.state == PAUSING {
		c.state = RUNNING
		c.stateCond.Broadcast()
	}
	c.stateMutex.Unlock()

	c.sync.changeVideoSync(true)
}

// TogglePause flips between RUNNING and PAUSED/PAUSING.
func (c *Context) TogglePause() {
	frameOn := true
	c.stateMutex.Lock()
	c.waitOnInterrupt()
	switch {
	case c.state == PAUSED || c.state == PAUSING:
		c.state = RUNNING
		c.stateCond.Broadcast()
	case c.state == RUNNING:
		c.pauseThread(false)
		frameOn = false
	}
	c.stateMutex.Unlock()

	c.sync.changeVideoSync(frameOn)
}

// IsPaused reports whether the worker is currently PAUSED.
func (c *Context) IsPaused() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	c.waitOnInterrupt()
	return c.state == PAUSED
}

// IsActive reports whether the worker is usable from the caller's
// perspective: RUNNING, or in one of the states layered over it, but not
// currently quiesced for an in-flight interrupt. This is deliberately
// stricter than State.IsActive as used by Interrupt/Continue: Continue must
// still treat INTERRUPTED as within the active range so that the outermost
// Continue restores the saved state. Nesting itself is detected by
// interruptDepth.
func (c *Context) IsActive() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	if c.state == INTERRUPTING || c.state == INTERRUPTED {
		return false
	}
	return c.state.IsActive()
}

// HasStarted reports whether Start has moved the worker out of INITIALIZED.
func (c *Context) HasStarted() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.state.HasStarted()
}

// HasExited reports whether the worker has reached SHUTDOWN (or CRASHED).
func (c *Context) HasExited() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.state.HasExited()
}

// HasCrashed reports whether the worker published CRASHED.
func (c *Context) HasCrashed() bool {
	c.stateMutex.Lock()
	defer c.stateMutex.Unlock()
	return c.state.HasCrashed()
}

// Interrupt pairs with Continue like a recursive lock over the logical
// state: nested calls only increment interruptDepth and return immediately;
// the outermost call saves the current state, flips to INTERRUPTING, and
// waits until the worker has observed it and moved to INTERRUPTED.
func (c *Context) Interrupt() {
	c.stateMutex.Lock()
	c.interruptDepth++
	if c.interruptDepth > 1 || !c.state.IsActive() {
		c.stateMutex.Unlock()
		return
	}

	c.savedState = c.state
	c.waitOnInterrupt()
	c.state = INTERRUPTING
	c.stateCond.Broadcast()
	c.waitUntilNotState(INTERRUPTING)
	c.stateMutex.Unlock()
}

// Continue decrements interruptDepth; once it reaches zero and the context
// is still active, the state saved by the outermost Interrupt is restored.
func (c *Context) Continue() {
	c.stateMutex.Lock()
	c.interruptDepth--
	if c.interruptDepth < 1 && c.state.IsActive() {
		c.state = c.savedState
		c.stateCond.Broadcast()
	}
	c.stateMutex.Unlock()
}

// Join blocks until the worker goroutine has finished (ie. Start's run has
// returned from teardown), then releases ownership of the context -- after
// Join returns no goroutine should reference it further.
func (c *Context) Join() {
	<-c.done
}
