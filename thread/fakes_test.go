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

package thread_test

import (
	"sync"
	"sync/atomic"

	"github.com/jetsetilly/gbathread/thread"
)

// fakeCore is a minimal Core that just spins RunQuantum, optionally posting
// frames through the sync channel, until told to stop.
type fakeCore struct {
	mu      sync.Mutex
	sync    *thread.SyncChannel
	quanta  int64
	panicAt int64 // RunQuantum panics on this call number if non-zero
	created bool
	reset   int64
	halted  bool
	opts    thread.Options
}

func (f *fakeCore) Configure(opts thread.Options) { f.opts = opts }
func (f *fakeCore) Create() error                 { f.created = true; return nil }
func (f *fakeCore) Reset()        { atomic.AddInt64(&f.reset, 1) }
func (f *fakeCore) SkipBIOS()     {}
func (f *fakeCore) Destroy()      {}

func (f *fakeCore) SetSync(s *thread.SyncChannel) { f.sync = s }
func (f *fakeCore) SetKeySource(thread.KeySource) {}
func (f *fakeCore) AttachDebugger(thread.Debugger) {}
func (f *fakeCore) AttachCheats(string) error      { return nil }

func (f *fakeCore) LoadROM(thread.File) error   { return nil }
func (f *fakeCore) LoadBIOS(thread.File) error  { return nil }
func (f *fakeCore) LoadPatch(thread.File) error { return nil }
func (f *fakeCore) ApplyOverride(string)        {}

func (f *fakeCore) SetHalted(halted bool) {
	f.mu.Lock()
	f.halted = halted
	f.mu.Unlock()
}

func (f *fakeCore) RunQuantum() {
	n := atomic.AddInt64(&f.quanta, 1)
	if f.panicAt != 0 && n == f.panicAt {
		panic("fake core fault")
	}
	if f.sync != nil {
		f.sync.PostFrame()
	}
}

func (f *fakeCore) quantaRun() int64 {
	return atomic.LoadInt64(&f.quanta)
}

// fakeFile is a no-op File that can declare itself a ROM for directory-mode
// resolution tests.
type fakeFile struct {
	name   string
	isROM  bool
	closed bool
}

func (f *fakeFile) Close() error               { f.closed = true; return nil }
func (f *fakeFile) Read(p []byte) (int, error)  { return 0, nil }
func (f *fakeFile) Write(p []byte) (int, error) { return len(p), nil }
func (f *fakeFile) IsROM() bool                 { return f.isROM }

// fakeAudioSink always reports room, unless told otherwise.
type fakeAudioSink struct {
	room int32
}

func newFakeAudioSink(room bool) *fakeAudioSink {
	f := &fakeAudioSink{}
	if room {
		f.room = 1
	}
	return f
}

func (f *fakeAudioSink) Room() bool { return atomic.LoadInt32(&f.room) != 0 }
func (f *fakeAudioSink) setRoom(room bool) {
	if room {
		atomic.StoreInt32(&f.room, 1)
	} else {
		atomic.StoreInt32(&f.room, 0)
	}
}

// newTestContext builds a Context pre-configured with a fakeCore and a
// single ROM file, ready for Start.
func newTestContext() (*thread.Context, *fakeCore) {
	c := thread.NewContext(nil)
	core := &fakeCore{}
	c.Configure(thread.Options{}, thread.Arguments{}, core, nil, nil)
	c.SetFiles(&fakeFile{name: "rom", isROM: true}, nil, nil, nil, nil, nil, nil)
	return c, core
}
