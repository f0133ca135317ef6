package radio

// #cgo CFLAGS: -g -Wall
// #cgo LDFLAGS: -lSoapySDR
import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/jrwynneiii/portarx/baseband"
	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/receiver"

	"github.com/pothosware/go-soapy-sdr/pkg/device"
	"github.com/pothosware/go-soapy-sdr/pkg/modules"
	"github.com/pothosware/go-soapy-sdr/pkg/sdrlogger"
	"github.com/pothosware/go-soapy-sdr/pkg/version"
)

var ErrNotConnected = errors.New("radio is not connected")

// readTimeoutUs bounds each stream read so StopStream is noticed promptly.
const readTimeoutUs = 100000

// Radio streams signed 8 bit IQ from a SoapySDR device into a
// baseband.DoubleBuffer.
type Radio struct {
	Driver     string
	Address    string
	SampleRate uint32
	Decimation uint32
	Frequency  int64
	//Private:
	gainElements [3]string
	args         map[string]string
	device       *device.SDRDevice
	stream       *device.SDRStreamCS8
	raw          [][]int8
	stop         chan struct{}
	wg           sync.WaitGroup
}

func InitSoapySDR() {
	log.Debugf("Using SoapySDR versions: ABI: %s API: %s Lib: %s", version.GetABIVersion(), version.GetAPIVersion(), version.GetLibVersion())
	log.Debugf("SoapySDR modules root path: %v", modules.GetRootPath())

	searchPaths := modules.ListSearchPaths()
	if len(searchPaths) > 0 {
		for i, searchPath := range searchPaths {
			log.Debugf("Search path #%d: %v", i, searchPath)
		}
	} else {
		log.Debug("Search paths: [none]")
	}

	for _, module := range modules.ListModules() {
		moduleVersion := modules.GetModuleVersion(module)
		if len(moduleVersion) == 0 {
			moduleVersion = "[None]"
		}
		log.Debugf("Found SoapySDR module: %v, version: %v", module, moduleVersion)
	}
	sdrlogger.SetLogLevel(sdrlogger.Error)
}

func LogAllSoapySDRDevices() {
	log.Infof("Using SoapySDR versions: ABI: %s API: %s Lib: %s", version.GetABIVersion(), version.GetAPIVersion(), version.GetLibVersion())
	log.Infof("SoapySDR modules root path: %v", modules.GetRootPath())

	modulesFound := modules.ListModules()
	if len(modulesFound) == 0 {
		log.Info("No SoapySDR modules found")
	}
	for _, module := range modulesFound {
		moduleVersion := modules.GetModuleVersion(module)
		if len(moduleVersion) == 0 {
			moduleVersion = "[None]"
		}
		log.Infof("Found SoapySDR module: %v, version: %v", module, moduleVersion)
	}
	sdrlogger.SetLogLevel(sdrlogger.Error)

	devices := device.Enumerate(nil)
	log.Infof("Found %d devices", len(devices))
	args := make([]map[string]string, len(devices))
	for idx, dev := range devices {
		args[idx] = map[string]string{"driver": dev["driver"]}
	}
	devs, err := device.MakeList(args)
	if err != nil {
		log.Errorf("SoapySDR could not open devices: %v", err)
		return
	}
	// UnmakeList double frees inside the SoapySDR bindings, so the devices
	// are left for the OS to close.
	for idx, dev := range devs {
		log.Infof("Driver: %s", args[idx]["driver"])
		LogAvailSettings(dev)
	}
}

func LogAvailSettings(dev *device.SDRDevice) {
	log.Infof("Current settings:")
	for _, setting := range dev.GetSettingInfo() {
		log.Infof("\t- %s: %v", setting.Key, setting.Value)
	}

	numChannels := dev.GetNumChannels(device.DirectionRX)
	log.Info("Channel info:")
	for channel := uint(0); channel < numChannels; channel++ {
		log.Infof("Channel %d:", channel)
		log.Infof("\tAvailable sample rates:")
		for _, sampleRateRange := range dev.GetSampleRateRange(device.DirectionRX, channel) {
			log.Infof("\t\t- %v", sampleRateRange.ToString())
		}
		log.Infof("\tGain elements: %v", dev.ListGains(device.DirectionRX, channel))
		log.Infof("\tIQ Sample Types: %v", dev.GetStreamFormats(device.DirectionRX, channel))
	}
}

func New(conf config.RadioConf) *Radio {
	log.Debug("Initing SoapySDR")
	InitSoapySDR()

	return &Radio{
		Driver:       conf.Driver,
		Address:      conf.Address,
		Decimation:   1,
		gainElements: [3]string{receiver.GainRF: conf.RFGainElement, receiver.GainIF: conf.IFGainElement, receiver.GainBB: conf.BBGainElement},
		raw:          [][]int8{make([]int8, 2*baseband.BlockSize)},
	}
}

func (r *Radio) Connect() error {
	r.args = map[string]string{"driver": r.Driver}
	if r.Driver == "rtltcp" {
		r.args["rtltcp"] = r.Address
	}
	if r.device != nil {
		return nil
	}
	var err error
	if r.device, err = device.Make(r.args); err != nil {
		return fmt.Errorf("could not create SoapySDR device: %w", err)
	}
	log.Debugf("Initialized device: %v", r.Driver)
	if r.Driver != "rtltcp" {
		LogAvailSettings(r.device)
	}
	return nil
}

func (r *Radio) SetFrequency(hz int64) error {
	if r.device == nil {
		return ErrNotConnected
	}
	log.Debugf("Setting frequency to %d", hz)
	if err := r.device.SetFrequency(device.DirectionRX, 0, float64(hz), nil); err != nil {
		return err
	}
	r.Frequency = hz
	return nil
}

// SetSampleRate records the converter rate; the device itself is set to the
// rate after decimation by SetDecimation.
func (r *Radio) SetSampleRate(hz uint32) error {
	r.SampleRate = hz
	return r.applySampleRate()
}

func (r *Radio) SetDecimation(factor uint32) error {
	if factor == 0 {
		return fmt.Errorf("invalid decimation %d", factor)
	}
	r.Decimation = factor
	return r.applySampleRate()
}

func (r *Radio) applySampleRate() error {
	if r.device == nil {
		return ErrNotConnected
	}
	rate := float64(r.SampleRate / r.Decimation)
	log.Debugf("Setting sample rate to %f", rate)
	return r.device.SetSampleRate(device.DirectionRX, 0, rate)
}

func (r *Radio) SetBandwidth(hz uint32) error {
	if r.device == nil {
		return ErrNotConnected
	}
	return r.device.SetBandwidth(device.DirectionRX, 0, float64(hz))
}

func (r *Radio) SetGain(stage receiver.GainStage, db int) error {
	if r.device == nil {
		return ErrNotConnected
	}
	name := r.gainElements[stage]
	if name == "" {
		return nil
	}
	return r.device.SetGainElement(device.DirectionRX, 0, name, float64(db))
}

// StartStream sets up and activates the IQ stream and fills buffers from a
// new goroutine until StopStream or ctx is done.
func (r *Radio) StartStream(ctx context.Context, buffers *baseband.DoubleBuffer) error {
	if r.device == nil {
		return ErrNotConnected
	}
	log.Debug("Creating the IQ stream")
	stream, err := r.device.SetupSDRStreamCS8(device.DirectionRX, []uint{0}, nil)
	if err != nil {
		return fmt.Errorf("could not setup SDR stream: %w", err)
	}
	log.Debug("Activating IQ stream...")
	if err := stream.Activate(0, 0, 0); err != nil {
		stream.Close()
		return fmt.Errorf("could not activate the IQ stream: %w", err)
	}
	r.stream = stream
	r.stop = make(chan struct{})

	r.wg.Add(1)
	go r.run(ctx, buffers, r.stop)
	return nil
}

func (r *Radio) run(ctx context.Context, buffers *baseband.DoubleBuffer, stop chan struct{}) {
	defer r.wg.Done()
	flags := make([]int, 1)
	for {
		index := buffers.Fill()
		block := buffers.Block(index)
		filled := 0
		for filled < len(block) {
			select {
			case <-ctx.Done():
				buffers.Release(index)
				return
			case <-stop:
				buffers.Release(index)
				return
			default:
			}
			want := uint(len(block) - filled)
			_, numSamples, err := r.stream.Read(r.raw, want, flags, readTimeoutUs)
			if err != nil {
				log.Debugf("[radio] Read failed: %s", err.Error())
				continue
			}
			filled += baseband.FromInterleavedS8(block[filled:], r.raw[0][:2*numSamples])
		}
		buffers.Commit(index)
	}
}

// StopStream waits for the reader goroutine and tears the stream down.
// The block being filled at the time is handed back unfilled.
func (r *Radio) StopStream() error {
	if r.stream == nil {
		return nil
	}
	close(r.stop)
	r.wg.Wait()

	log.Debug("Deactivating IQ stream...")
	var errs []error
	if err := r.stream.Deactivate(0, 0); err != nil {
		errs = append(errs, fmt.Errorf("could not deactivate the IQ stream: %w", err))
	}
	log.Debug("Closing IQ stream...")
	if err := r.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("could not close the IQ stream: %w", err))
	}
	r.stream = nil
	return errors.Join(errs...)
}

func (r *Radio) Destroy() {
	if err := r.StopStream(); err != nil {
		log.Errorf("[radio] %s", err.Error())
	}
	if r.device != nil {
		if err := r.device.Unmake(); err != nil {
			log.Errorf("[radio] Could not close device: %s", err.Error())
		}
		r.device = nil
	}
}
