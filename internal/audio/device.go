package audio

// Device describes one host audio device.
type Device struct {
	ID                int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	LowInputLatency   float64 // ms
	HighInputLatency  float64 // ms
	IsDefaultInput    bool
}

// Kind returns "Input", "Output", "Input/Output" or "".
func (d Device) Kind() string {
	switch {
	case d.MaxInputChannels > 0 && d.MaxOutputChannels > 0:
		return "Input/Output"
	case d.MaxInputChannels > 0:
		return "Input"
	case d.MaxOutputChannels > 0:
		return "Output"
	}
	return ""
}

// CanAnalyze reports whether the device offers the mono or stereo input the
// analyzer accepts.
func (d Device) CanAnalyze(channels int) bool {
	return channels >= 1 && channels <= 2 && d.MaxInputChannels >= channels
}
