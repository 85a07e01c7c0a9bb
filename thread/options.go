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

import "github.com/sirupsen/logrus"

// defaultFPSTarget is used when Options.FPSTarget is left at its zero value.
const defaultFPSTarget = 60.0

// Options configures a worker before Start is called. The host populates
// this however it likes -- flags, environment, a config file -- none of
// which is this package's concern.
type Options struct {
	BIOS File

	Frameskip int
	LogLevel  logrus.Level

	RewindEnable         bool
	RewindBufferCapacity int
	RewindBufferInterval int

	SkipBIOS bool

	// AudioSync enables producer backpressure on the audio channel
	// (SyncChannel.audioWait).
	AudioSync bool

	// VideoSync enables producer backpressure on the video channel
	// (SyncChannel.videoFrameWait), ie. VSync.
	VideoSync bool

	// FPSTarget defaults to 60 when zero.
	FPSTarget float64

	AudioBuffers int

	IdleOptimization bool
}

// fpsTarget returns o.FPSTarget, or the default if it was left unset.
func (o Options) fpsTarget() float64 {
	if o.FPSTarget == 0 {
		return defaultFPSTarget
	}
	return o.FPSTarget
}

// Arguments names the ROM (or game directory) and the companion files a
// worker should load.
type Arguments struct {
	Fname   string
	DirMode bool

	Patch      string
	CheatsFile string
	Movie      string
}
