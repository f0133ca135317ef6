package receiver

import "strings"

// Mode selects the pipeline a Configuration runs.
type Mode int

const (
	ModeAM Mode = iota
	ModeNBFM
	ModeWBFM
	ModeTPMSASK
	ModeTPMSFSK
	ModeAIS
)

func (m Mode) String() string {
	switch m {
	case ModeAM:
		return "NBAM"
	case ModeNBFM:
		return "NBFM"
	case ModeWBFM:
		return "WBFM"
	case ModeTPMSASK:
		return "TPMS-ASK"
	case ModeTPMSFSK:
		return "TPMS-FSK"
	case ModeAIS:
		return "AIS"
	}
	return "unknown"
}

// Configuration is one entry of the receiver mode table.
type Configuration struct {
	Name           string
	Mode           Mode
	TuningOffset   int64
	SampleRate     uint32
	Bandwidth      uint32
	Decimation     uint32
	EnableAudio    bool
	EnableSpectrum bool
}

// BasebandRate is the complex sample rate the pipeline sees after the
// front end decimation.
func (c Configuration) BasebandRate() uint32 {
	return c.SampleRate / c.Decimation
}

// The tuning offset puts the wanted signal a quarter of the baseband rate
// above the LO, where the first decimation stage shifts it back to DC.
var Configurations = []Configuration{
	{
		Name:         ModeAM.String(),
		Mode:         ModeAM,
		TuningOffset: -768000,
		SampleRate:   12288000,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  true,
	},
	{
		Name:         ModeNBFM.String(),
		Mode:         ModeNBFM,
		TuningOffset: -768000,
		SampleRate:   12288000,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  true,
	},
	{
		Name:         ModeWBFM.String(),
		Mode:         ModeWBFM,
		TuningOffset: -768000,
		SampleRate:   12288000,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  true,
	},
	{
		Name:         ModeTPMSASK.String(),
		Mode:         ModeTPMSASK,
		TuningOffset: -768000,
		SampleRate:   12288000,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  true,
	},
	{
		Name:         ModeTPMSFSK.String(),
		Mode:         ModeTPMSFSK,
		TuningOffset: -614400,
		SampleRate:   9830400,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  true,
	},
	{
		Name:         ModeAIS.String(),
		Mode:         ModeAIS,
		TuningOffset: -614400,
		SampleRate:   9830400,
		Bandwidth:    1750000,
		Decimation:   4,
		EnableAudio:  false,
	},
}

// ConfigurationIndex looks a configuration up by name, ignoring case.
func ConfigurationIndex(name string) (int, bool) {
	for i, c := range Configurations {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}
