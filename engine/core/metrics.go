package core

const AVG_COUNT uint8 = 30

// Metrics tracks frame timings and how often the floating origin re-based.
type Metrics struct {
	FrameAVGCounter    uint8
	MStimes            [AVG_COUNT]float64
	MSavg              float64
	Frames             int32
	AccumulatedFrameMS float64
	FPS                float64

	TotalFrames uint64
	Snaps       uint64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (ms *Metrics) Update(frameElapsedTime float64) {
	// Calculate frame ms average
	frameMS := (frameElapsedTime * 1000.0)
	ms.MStimes[ms.FrameAVGCounter] = frameMS
	if ms.FrameAVGCounter == AVG_COUNT-1 {
		ms.MSavg = 0
		for i := uint8(0); i < AVG_COUNT; i++ {
			ms.MSavg += ms.MStimes[i]
		}

		ms.MSavg /= float64(AVG_COUNT)
	}
	ms.FrameAVGCounter++
	ms.FrameAVGCounter %= AVG_COUNT

	// Calculate Frames per second.
	ms.AccumulatedFrameMS += frameMS
	if ms.AccumulatedFrameMS > 1000 {
		ms.FPS = float64(ms.Frames)
		ms.AccumulatedFrameMS -= 1000
		ms.Frames = 0
	}

	// Count all Frames.
	ms.Frames++
	ms.TotalFrames++
}

func (ms *Metrics) RecordSnap() {
	ms.Snaps++
}

func (ms *Metrics) FrameTime() float64 {
	return ms.MSavg
}

func (ms *Metrics) Frame() (float64, float64) {
	return ms.FPS, ms.MSavg
}
