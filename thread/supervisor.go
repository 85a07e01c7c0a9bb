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

	"github.com/jetsetilly/gbathread/assert"
)

// contextSlot is the Go-native replacement for the pthread/Win32
// thread-local-storage key the source uses to recover the current
// *GBAThread from inside collaborator callbacks. Go has no public
// goroutine-local storage, so instead a single process-wide map keyed by a
// goroutine identity token (obtained the same way assert.GetGoRoutineID
// does, by parsing runtime.Stack) stands in for it. Entries are written once
// by the worker on entry and deleted when the worker exits, so the slot's lifetime
// never outlives the worker goroutine that owns it.
var contextSlot sync.Map // map[uint64]*Context

// registerContext installs c as the current context for the calling
// goroutine. Called once, by the worker, at the start of run.
func registerContext(c *Context) {
	contextSlot.Store(assert.GetGoRoutineID(), c)
}

// unregisterContext removes the calling goroutine's slot entry. Called once,
// by the worker, during teardown (or when Core creation fails).
func unregisterContext() {
	contextSlot.Delete(assert.GetGoRoutineID())
}

// GetContext returns the Context associated with the calling goroutine, if
// any. Collaborators invoked from inside a worker's RunQuantum can use this
// to recover the Context that owns them without needing it threaded through
// every call.
func GetContext() (*Context, bool) {
	v, ok := contextSlot.Load(assert.GetGoRoutineID())
	if !ok {
		return nil, false
	}
	return v.(*Context), true
}
