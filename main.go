package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/audio"
	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/decode"
	"github.com/jrwynneiii/portarx/metrics"
	"github.com/jrwynneiii/portarx/radio"
	"github.com/jrwynneiii/portarx/receiver"
	"github.com/jrwynneiii/portarx/tui"

	"github.com/knadh/koanf/parsers/hcl"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const recentPackets = 32

var cli struct {
	Verbose bool   `help:"Prints debug output by default"`
	Profile bool   `help:"Output a pprof profile"`
	Config  string `help:"Path to an HCL config file" type:"path"`
	Probe   struct {
	} `cmd:"" help:"List the available radios, SoapySDR configuration and audio devices"`
	Modes struct {
	} `cmd:"" help:"List the receiver modes"`
	Rx struct {
		File      string `help:"Replay a cs8 or .rfcap capture instead of a radio" type:"path"`
		Mode      string `help:"Receiver mode to start in"`
		Frequency int64  `help:"Frequency to tune in Hz"`
		NoTui     bool   `help:"Log to the terminal instead of starting the TUI"`
	} `cmd:"" help:"Starts the receiver and the TUI"`
}

var configFile = koanf.New(".")

func getConfigPath() string {
	paths := []string{"/etc/portarx/config.hcl", "./config.hcl"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = []string{"/etc/portarx/config.hcl", filepath.Join(home, ".config", "portarx", "config.hcl"), "./config.hcl"}
	}
	if cli.Config != "" {
		paths = []string{cli.Config}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			log.Infof("Found config file: %s", path)
			return path
		}
	}
	log.Info("Config file not found!")
	return ""
}

func loadConfig() config.Conf {
	if path := getConfigPath(); path != "" {
		if err := configFile.Load(file.Provider(path), hcl.Parser(true)); err != nil {
			log.Errorf("Could not read config file: %v", err)
		}
	}
	if err := configFile.Load(env.Provider(".", env.Opt{
		Prefix: "PORTARX_",
		TransformFunc: func(k, v string) (string, any) {
			key := strings.ToLower(strings.TrimPrefix(k, "PORTARX_"))
			k = strings.Replace(key, "_", ".", 1)
			log.Debugf("Found config env var: %s=%v", k, v)
			return k, v
		},
	}), nil); err != nil {
		log.Errorf("Could not read environment: %v", err)
	}

	conf, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	return conf
}

func main() {
	log.Info("Starting portarx")
	flags := kong.Parse(&cli)
	if cli.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	if cli.Profile {
		prof, err := os.Create("./cpu.pprof")
		if err != nil {
			panic(err)
		}
		pprof.StartCPUProfile(prof)
		defer pprof.StopCPUProfile()
	}

	switch flags.Command() {
	case "probe":
		radio.LogAllSoapySDRDevices()
		audio.LogDevices()

	case "modes":
		for i, c := range receiver.Configurations {
			log.Infof("%d: %-8s offset %8d Hz, %d S/s / %d, bandwidth %d Hz, audio %v",
				i, c.Name, c.TuningOffset, c.SampleRate, c.Decimation, c.Bandwidth, c.EnableAudio)
		}

	case "rx":
		conf := loadConfig()
		if cli.Rx.File != "" {
			conf.Radio.File = cli.Rx.File
		}
		if cli.Rx.Mode != "" {
			conf.Receiver.Mode = cli.Rx.Mode
		}
		if cli.Rx.Frequency != 0 {
			conf.Receiver.Frequency = cli.Rx.Frequency
		}
		if err := rx(conf); err != nil {
			log.Fatalf("%v", err)
		}

	default:
		log.Info("Command not recognized")
	}
}

func rx(conf config.Conf) error {
	modeIndex, ok := receiver.ConfigurationIndex(conf.Receiver.Mode)
	if !ok {
		return fmt.Errorf("unknown receiver mode %q, see the modes command", conf.Receiver.Mode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var dev receiver.Device
	var capture *radio.File
	if conf.Radio.File != "" {
		capture = radio.NewFile(conf.Radio)
		defer capture.Close()
		dev = capture
	} else {
		log.Debugf("Found radio definition for %s: %##v", conf.Radio.Driver, conf.Radio)
		r := radio.New(conf.Radio)
		if err := r.Connect(); err != nil {
			return err
		}
		defer r.Destroy()
		dev = r
	}

	var out receiver.AudioOutput
	var output *audio.Output
	if conf.Audio.Enabled {
		output = audio.NewOutput(audio.DefaultDepth)
		if conf.Audio.RawOutput != "" {
			raw, err := os.Create(conf.Audio.RawOutput)
			if err != nil {
				return fmt.Errorf("could not create raw audio output: %w", err)
			}
			defer raw.Close()
			output.Tee(raw)
		}
		player, err := audio.NewPlayer(output, conf.Audio.FramesPerBuffer)
		if err != nil {
			log.Errorf("Audio disabled: %v", err)
		} else {
			if err := player.Start(); err != nil {
				log.Errorf("Could not start audio stream: %v", err)
			}
			defer player.Close()
		}
		out = output
	}

	queue := receiver.NewPayloadQueue(conf.Receiver.PacketQueue)

	var observer receiver.Metrics
	var counter decode.PacketCounter
	var dsp *metrics.DSP
	if conf.Metrics.Enabled {
		dsp = metrics.NewDSP()
		observer = dsp
		counter = dsp
	}

	r := receiver.New(dev, out, queue, observer)

	if dsp != nil {
		dsp.WatchCounter("portarx_buffer_overruns_total", "Sample blocks written to scratch because both buffers were busy", r.Buffers().Overruns)
		dsp.WatchCounter("portarx_payloads_dropped_total", "Framed payloads dropped because the decode queue was full", queue.Dropped)
		if output != nil {
			dsp.WatchCounter("portarx_audio_dropped_total", "Audio blocks dropped because the player fell behind", output.Dropped)
			dsp.WatchCounter("portarx_audio_underruns_total", "Audio callbacks padded with silence", output.Underruns)
		}
		go dsp.Serve(conf.Metrics.Listen)
	}

	decoder := decode.New(queue.Packets(), recentPackets, counter)
	go decoder.Start(ctx)

	done := make(chan error, 1)
	go func() {
		done <- r.Run(ctx, modeIndex)
	}()

	r.SetFrequency(conf.Receiver.Frequency)
	r.SetRFGain(conf.Receiver.RFGain)
	r.SetIFGain(conf.Receiver.IFGain)
	r.SetBBGain(conf.Receiver.BBGain)
	r.SetAudioGain(conf.Receiver.AudioGain)

	if capture != nil && !capture.Loop {
		go watchCapture(ctx, cancel, capture)
	}

	if cli.Rx.NoTui {
		<-ctx.Done()
	} else if err := tui.StartUI(ctx, r, decoder, conf.Tui); err != nil {
		log.Errorf("Could not start UI: %v", err)
	}
	cancel()

	err := <-done
	s := r.Status()
	stats := decoder.Stats()
	log.Infof("Processed %d blocks, %d overruns, %d packets decoded, %d payloads dropped",
		s.Blocks, s.Overruns, stats.TotalPacketsProcessed, s.DroppedPayloads)
	return err
}

// watchCapture stops the receiver once a non-looping capture runs out.
func watchCapture(ctx context.Context, cancel context.CancelFunc, capture *radio.File) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := capture.Err(); err != nil {
				log.Infof("Capture finished: %v", err)
				cancel()
				return
			}
		}
	}
}
