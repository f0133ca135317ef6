package config

import "github.com/knadh/koanf/v2"

type RadioConf struct {
	Driver        string `koanf:"driver"`
	Address       string `koanf:"address"`
	RFGainElement string `koanf:"rf_gain_element"`
	IFGainElement string `koanf:"if_gain_element"`
	BBGainElement string `koanf:"bb_gain_element"`
	// File replays raw interleaved signed 8 bit IQ instead of opening a radio.
	File     string `koanf:"file"`
	Loop     bool   `koanf:"loop"`
	Realtime bool   `koanf:"realtime"`
}

type ReceiverConf struct {
	Mode        string `koanf:"mode"`
	Frequency   int64  `koanf:"frequency"`
	RFGain      int    `koanf:"rf_gain"`
	IFGain      int    `koanf:"if_gain"`
	BBGain      int    `koanf:"bb_gain"`
	AudioGain   int    `koanf:"audio_gain"`
	PacketQueue int    `koanf:"packet_queue"`
}

type AudioConf struct {
	Enabled         bool   `koanf:"enabled"`
	FramesPerBuffer int    `koanf:"frames_per_buffer"`
	RawOutput       string `koanf:"raw_output"`
}

type MetricsConf struct {
	Enabled bool   `koanf:"enabled"`
	Listen  string `koanf:"listen"`
}

type TuiConf struct {
	RefreshMs       int     `koanf:"refresh_ms"`
	SNRWarn         float64 `koanf:"snr_threshold_warn"`
	SNRCrit         float64 `koanf:"snr_threshold_crit"`
	LoadWarnPct     float64 `koanf:"load_threshold_warn_pct"`
	LoadCritPct     float64 `koanf:"load_threshold_crit_pct"`
	EnableLogOutput bool    `koanf:"enable_log_output"`
}

type Conf struct {
	Radio    RadioConf    `koanf:"radio"`
	Receiver ReceiverConf `koanf:"receiver"`
	Audio    AudioConf    `koanf:"audio"`
	Metrics  MetricsConf  `koanf:"metrics"`
	Tui      TuiConf      `koanf:"tui"`
}

// Defaults suit a HackRF One through SoapySDR listening to NOAA weather radio on 162.550MHz.
func Defaults() Conf {
	return Conf{
		Radio: RadioConf{
			Driver:        "hackrf",
			RFGainElement: "AMP",
			IFGainElement: "LNA",
			BBGainElement: "VGA",
			Realtime:      true,
		},
		Receiver: ReceiverConf{
			Mode:        "NBFM",
			Frequency:   162550000,
			IFGain:      32,
			BBGain:      32,
			PacketQueue: 64,
		},
		Audio: AudioConf{
			Enabled:         true,
			FramesPerBuffer: 256,
		},
		Metrics: MetricsConf{
			Listen: ":9090",
		},
		Tui: TuiConf{
			RefreshMs:       250,
			SNRWarn:         10,
			SNRCrit:         4,
			LoadWarnPct:     60,
			LoadCritPct:     90,
			EnableLogOutput: true,
		},
	}
}

// Load overlays whatever k holds onto Defaults.
func Load(k *koanf.Koanf) (Conf, error) {
	conf := Defaults()
	if err := k.Unmarshal("", &conf); err != nil {
		return Defaults(), err
	}
	return conf, nil
}
