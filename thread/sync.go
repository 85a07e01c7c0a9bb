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
	"time"

	"github.com/vanadium/go.lib/nsync"
)

// frameWaitDeadline bounds how long a consumer will block in WaitFrameStart
// for a stalled producer.
const frameWaitDeadline = 50 * time.Millisecond

// SyncChannel mediates the handoff of video frames and audio buffers between
// the worker goroutine (producer) and whatever renderer/audio goroutines the
// host runs (consumers). The video and audio halves are independent and
// guarded by separate mutexes; a goroutine must never hold both at once.
type SyncChannel struct {
	videoFrameMutex      sync.Mutex
	videoFrameOn         bool
	videoFrameWait       bool
	videoFrameSkip       int
	videoFramePending    int
	videoFrameAvailable  nsync.CV
	videoFrameRequired   nsync.CV

	audioBufferMutex sync.Mutex
	audioWait        bool
	audioRoom        func() bool
	audioRequired    nsync.CV
}

// NewSyncChannel returns a SyncChannel with video output enabled and no
// backpressure on either channel; a worker enables backpressure via Options.
func NewSyncChannel() *SyncChannel {
	return &SyncChannel{
		videoFrameOn: true,
	}
}

// SetAudioRoomPredicate installs the AudioSink's room-remaining check, used
// by ProduceAudio to wait correctly across spurious wakeups. Passing nil
// reverts to the single, non-looping wait the source used (see §9 of the
// design notes).
func (s *SyncChannel) SetAudioRoomPredicate(room func() bool) {
	s.audioBufferMutex.Lock()
	defer s.audioBufferMutex.Unlock()
	s.audioRoom = room
}

// --- video protocol ---

// PostFrame is called by the producer once per completed frame, skipped or
// not. If the frame is not being skipped it signals any waiting consumer and,
// if VSync is enabled, blocks until the consumer has claimed the frame or
// VSync is disabled out from under it.
func (s *SyncChannel) PostFrame() {
	s.videoFrameMutex.Lock()
	defer s.videoFrameMutex.Unlock()

	s.videoFramePending++
	s.videoFrameSkip--

	if s.videoFrameSkip < 0 {
		for {
			s.videoFrameAvailable.Signal()
			if s.videoFrameWait {
				s.videoFrameRequired.Wait(&s.videoFrameMutex)
			}
			if !(s.videoFrameWait && s.videoFramePending != 0) {
				break
			}
		}
	}
}

// WaitFrameStart is called by a consumer to claim the next frame. It always
// returns with videoFrameMutex held; the caller must follow with exactly one
// call to WaitFrameEnd regardless of the returned value (see §9 of the
// design notes -- the source leaves this undocumented, this package fixes
// the convention explicitly).
//
// It returns false if the channel is dry and video output is disabled, or if
// the producer hasn't posted a frame within the 50ms deadline.
func (s *SyncChannel) WaitFrameStart(frameskip int) bool {
	s.videoFrameMutex.Lock()

	s.videoFrameRequired.Signal()

	if !s.videoFrameOn && s.videoFramePending == 0 {
		return false
	}

	if s.videoFrameOn {
		deadline := time.Now().Add(frameWaitDeadline)
		if s.videoFrameAvailable.WaitWithDeadline(&s.videoFrameMutex, deadline, nil) == nsync.Expired {
			return false
		}
	}

	s.videoFramePending = 0
	s.videoFrameSkip = frameskip
	s.videoFrameRequired.Signal()
	return true
}

// WaitFrameEnd releases the lock taken by WaitFrameStart. Safe to call
// unconditionally after any WaitFrameStart return value.
func (s *SyncChannel) WaitFrameEnd() {
	s.videoFrameMutex.Unlock()
}

// DrawingFrame reports whether the frame the producer is currently working
// on, ie. the one its next PostFrame call will post, is not one being skipped
// under the frameskip set by the last successful WaitFrameStart.
func (s *SyncChannel) DrawingFrame() bool {
	return s.videoFrameSkip <= 0
}

// changeVideoSync flips videoFrameOn, waking any consumer blocked in
// WaitFrameStart so it observes the change promptly -- in particular so a
// consumer stays responsive while the worker is paused.
func (s *SyncChannel) changeVideoSync(on bool) {
	s.videoFrameMutex.Lock()
	if on != s.videoFrameOn {
		s.videoFrameOn = on
		s.videoFrameAvailable.Broadcast()
	}
	s.videoFrameMutex.Unlock()
}

// SuspendDrawing disables video output.
func (s *SyncChannel) SuspendDrawing() {
	s.changeVideoSync(false)
}

// ResumeDrawing re-enables video output.
func (s *SyncChannel) ResumeDrawing() {
	s.changeVideoSync(true)
}

// setVideoWait enables or disables producer backpressure (VSync).
func (s *SyncChannel) setVideoWait(wait bool) {
	s.videoFrameMutex.Lock()
	s.videoFrameWait = wait
	s.videoFrameMutex.Unlock()
}

// --- audio protocol ---

// LockAudio acquires the audio mutex around a consumer's ring-buffer read.
func (s *SyncChannel) LockAudio() {
	s.audioBufferMutex.Lock()
}

// UnlockAudio releases the audio mutex.
func (s *SyncChannel) UnlockAudio() {
	s.audioBufferMutex.Unlock()
}

// ProduceAudio is called by the producer while holding the audio mutex
// (LockAudio must already be held -- Core calls it from inside RunQuantum
// after filling the ring buffer). If audioWait and wait are both set it
// blocks until the consumer signals room, then releases the mutex.
//
// When an audioRoom predicate has been installed this loops correctly across
// spurious wakeups; without one it performs the single non-looping wait the
// source used (see §9 of the design notes).
func (s *SyncChannel) ProduceAudio(wait bool) {
	defer s.audioBufferMutex.Unlock()

	if !s.audioWait || !wait {
		return
	}

	if s.audioRoom != nil {
		for !s.audioRoom() {
			s.audioRequired.Wait(&s.audioBufferMutex)
		}
		return
	}

	s.audioRequired.Wait(&s.audioBufferMutex)
}

// ConsumeAudio is called by the consumer after draining the ring buffer. It
// wakes a blocked producer and releases the mutex taken by LockAudio.
func (s *SyncChannel) ConsumeAudio() {
	s.audioRequired.Signal()
	s.audioBufferMutex.Unlock()
}

// setAudioWait enables or disables producer backpressure on the audio
// channel.
func (s *SyncChannel) setAudioWait(wait bool) {
	s.audioBufferMutex.Lock()
	s.audioWait = wait
	s.audioBufferMutex.Unlock()
}

// shutdown disables both channels and wakes every waiter so that a producer
// or consumer blocked inside SyncChannel at the moment of an End call
// returns promptly.
func (s *SyncChannel) shutdown() {
	s.audioBufferMutex.Lock()
	s.audioWait = false
	s.audioRequired.Broadcast()
	s.audioBufferMutex.Unlock()

	s.videoFrameMutex.Lock()
	s.videoFrameWait = false
	s.videoFrameOn = false
	s.videoFrameRequired.Broadcast()
	s.videoFrameAvailable.Broadcast()
	s.videoFrameMutex.Unlock()
}

// wake nudges both sync conditions without changing any flag. Used by the
// state machine's waitUntilNotState dance to unblock anyone waiting on a
// sync condition while a state transition is in flight.
func (s *SyncChannel) wake() {
	s.videoFrameMutex.Lock()
	s.videoFrameRequired.Signal()
	s.videoFrameMutex.Unlock()

	s.audioBufferMutex.Lock()
	s.audioRequired.Signal()
	s.audioBufferMutex.Unlock()
}
