package audio

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
)

// Player drives the default PortAudio output device from an Output.
type Player struct {
	output *Output
	stream *portaudio.Stream
}

// NewPlayer initializes PortAudio and opens a mono 48kHz stream, falling
// back to smaller buffers if the device rejects framesPerBuffer.
func NewPlayer(output *Output, framesPerBuffer int) (*Player, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	callback := func(out []int16) {
		output.Read(out)
	}

	var lastErr error
	for _, frames := range []int{framesPerBuffer, 512, 256} {
		if frames <= 0 {
			continue
		}
		stream, err := portaudio.OpenDefaultStream(0, 1, SampleRate, frames, callback)
		if err == nil {
			log.Debugf("[audio] Using default audio device (buffer: %d frames)", frames)
			return &Player{output: output, stream: stream}, nil
		}
		lastErr = err
	}
	portaudio.Terminate()
	return nil, fmt.Errorf("failed to open audio stream with any buffer size: %w", lastErr)
}

func (p *Player) Start() error {
	return p.stream.Start()
}

func (p *Player) Close() error {
	if err := p.stream.Stop(); err != nil {
		log.Errorf("[audio] Could not stop stream: %s", err.Error())
	}
	err := p.stream.Close()
	portaudio.Terminate()
	return err
}

// LogDevices lists the PortAudio output devices.
func LogDevices() {
	if err := portaudio.Initialize(); err != nil {
		log.Errorf("Failed to initialize PortAudio: %v", err)
		return
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		log.Errorf("Failed to get device list: %v", err)
		return
	}
	for i, device := range devices {
		if device.MaxOutputChannels > 0 {
			log.Infof("Audio device [%d] %s: %d channels, %.0f Hz", i, device.Name, device.MaxOutputChannels, device.DefaultSampleRate)
		}
	}
}
