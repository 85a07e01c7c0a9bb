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

// Package thread implements the concurrent control plane around a GBA
// emulation core: a lifecycle state machine with a re-entrant interrupt
// mechanism, and a pair of condition-variable rendezvous protocols that hand
// video frames and audio buffers between the worker goroutine and whatever
// consumer goroutines the host runs alongside it.
package thread

// State is a totally ordered lifecycle state. The ordering is significant:
// callers query ranges of it ("active" is RUNNING <= s < EXITING) rather than
// enumerating individual values, so the relative order of the constants below
// must never change.
type State int

const (
	INITIALIZED State = iota
	RUNNING
	RESETING
	INTERRUPTING
	INTERRUPTED
	PAUSING
	PAUSED
	EXITING
	SHUTDOWN
	CRASHED
)

func (s State) String() string {
	switch s {
	case INITIALIZED:
		return "INITIALIZED"
	case RUNNING:
		return "RUNNING"
	case RESETING:
		return "RESETING"
	case INTERRUPTING:
		return "INTERRUPTING"
	case INTERRUPTED:
		return "INTERRUPTED"
	case PAUSING:
		return "PAUSING"
	case PAUSED:
		return "PAUSED"
	case EXITING:
		return "EXITING"
	case SHUTDOWN:
		return "SHUTDOWN"
	case CRASHED:
		return "CRASHED"
	default:
		return "UNKNOWN"
	}
}

// IsActive reports whether the worker is advancing emulation or sitting in
// one of the transient states layered over RUNNING (paused, interrupted,
// reseting). It is false once EXITING has been reached.
func (s State) IsActive() bool {
	return s >= RUNNING && s < EXITING
}

// HasStarted reports whether Start has been called and the worker has left
// INITIALIZED, regardless of where it is now.
func (s State) HasStarted() bool {
	return s > INITIALIZED
}

// HasExited reports whether the worker has run its teardown and reached
// SHUTDOWN. CRASHED also satisfies this since it is defined to compare
// greater than EXITING.
func (s State) HasExited() bool {
	return s > EXITING
}

// HasCrashed reports whether the worker published the CRASHED state.
func (s State) HasCrashed() bool {
	return s == CRASHED
}

// IsPaused reports whether the worker is blocked waiting for Unpause.
func (s State) IsPaused() bool {
	return s == PAUSED
}

// IsInterrupted reports whether the worker is blocked waiting for Continue.
func (s State) IsInterrupted() bool {
	return s == INTERRUPTED
}
