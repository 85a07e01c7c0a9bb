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
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jetsetilly/gbathread/errors"
	"github.com/jetsetilly/gbathread/test"
	"github.com/jetsetilly/gbathread/thread"
)

// Scenario A: Start; sleep; End; Join.
func TestLifecycleStartEnd(t *testing.T) {
	c, _ := newTestContext()

	ok := c.Start()
	test.ExpectSuccess(t, ok)
	test.ExpectSuccess(t, c.HasStarted())

	time.Sleep(50 * time.Millisecond)

	c.End()
	c.Join()

	test.ExpectSuccess(t, c.HasExited())
}

// Scenario B: Start; Pause; IsPaused; Unpause; End; Join.
func TestPauseUnpause(t *testing.T) {
	c, _ := newTestContext()
	test.ExpectSuccess(t, c.Start())

	c.Pause()
	test.ExpectSuccess(t, c.IsPaused())

	c.Unpause()
	require.Eventually(t, func() bool {
		return !c.IsPaused()
	}, time.Second, time.Millisecond)

	c.End()
	c.Join()
}

// Pause followed by Pause is idempotent; same for Unpause.
func TestPauseIdempotence(t *testing.T) {
	c, _ := newTestContext()
	test.ExpectSuccess(t, c.Start())

	c.Pause()
	c.Pause()
	test.ExpectSuccess(t, c.IsPaused())

	c.Unpause()
	c.Unpause()
	require.Eventually(t, func() bool {
		return !c.IsPaused()
	}, time.Second, time.Millisecond)

	c.End()
	c.Join()
}

// Scenario C: Start; Interrupt; Interrupt; Continue; IsActive; Continue; End; Join.
func TestInterruptReentrancy(t *testing.T) {
	c, _ := newTestContext()
	test.ExpectSuccess(t, c.Start())

	c.Interrupt()
	c.Interrupt()

	test.ExpectFailure(t, c.IsActive())

	c.Continue()
	test.ExpectFailure(t, c.IsActive())

	c.Continue()
	require.Eventually(t, func() bool {
		return c.IsActive()
	}, time.Second, time.Millisecond)

	c.End()
	c.Join()
}

// Scenario E: Start; Reset; End; Join -- a reset is observed and the worker
// returns to RUNNING.
func TestReset(t *testing.T) {
	c, core := newTestContext()
	test.ExpectSuccess(t, c.Start())

	// the worker resets the core once during startup; count from there
	before := atomic.LoadInt64(&core.reset)
	c.Reset()

	require.Eventually(t, func() bool {
		return atomic.LoadInt64(&core.reset) > before
	}, time.Second, time.Millisecond)
	test.ExpectEquality(t, c.State(), thread.RUNNING)

	c.End()
	c.Join()
}

// Scenario F: Start; End without any consumer ever calling WaitFrameStart.
// Join must still complete within a bounded time because the producer
// unblocks on End.
func TestShutdownWithoutConsumer(t *testing.T) {
	c, _ := newTestContext()
	opts := thread.Options{VideoSync: true}
	c.Configure(opts, thread.Arguments{}, &fakeCore{}, nil, nil)
	c.SetFiles(&fakeFile{isROM: true}, nil, nil, nil, nil, nil, nil)

	test.ExpectSuccess(t, c.Start())
	time.Sleep(20 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.End()
		c.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Join did not complete after End with no consumer")
	}
}

// Scenario G: a panic inside RunQuantum is recovered, CRASHED is observed,
// and Join still completes and closes owned file handles.
func TestCrashRecovery(t *testing.T) {
	c := thread.NewContext(nil)
	core := &fakeCore{panicAt: 3}
	c.Configure(thread.Options{}, thread.Arguments{}, core, nil, nil)
	rom := &fakeFile{isROM: true}
	c.SetFiles(rom, nil, nil, nil, nil, nil, nil)

	test.ExpectSuccess(t, c.Start())

	require.Eventually(t, func() bool {
		return c.HasCrashed()
	}, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		c.Join()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Join did not complete after a crash")
	}

	test.ExpectSuccess(t, rom.closed)
	test.ExpectSuccess(t, errors.Is(c.Err(), errors.EmulationCrash))
}

func TestConfigErrorWithNoROM(t *testing.T) {
	c := thread.NewContext(nil)
	c.Configure(thread.Options{}, thread.Arguments{}, &fakeCore{}, nil, nil)

	ok := c.Start()
	test.ExpectFailure(t, ok)
	test.ExpectFailure(t, c.IsActive())
	test.ExpectSuccess(t, errors.Is(c.Err(), errors.ConfigError))
}
