package tui

import (
	"strings"
	"testing"

	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/decode"
	"github.com/jrwynneiii/portarx/receiver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	status receiver.Status
	calls  []string
	values []int64
}

func (f *fakeController) Status() receiver.Status { return f.status }

func (f *fakeController) record(name string, v int64) {
	f.calls = append(f.calls, name)
	f.values = append(f.values, v)
}

func (f *fakeController) SetRxMode(index int)   { f.record("mode", int64(index)) }
func (f *fakeController) SetFrequency(hz int64) { f.record("frequency", hz) }
func (f *fakeController) SetRFGain(db int)      { f.record("rf", int64(db)) }
func (f *fakeController) SetIFGain(db int)      { f.record("if", int64(db)) }
func (f *fakeController) SetBBGain(db int)      { f.record("bb", int64(db)) }
func (f *fakeController) SetAudioGain(db int)   { f.record("audio", int64(db)) }

func TestHandleKey(t *testing.T) {
	last := len(receiver.Configurations) - 1
	base := receiver.Status{
		Mode:        "NBFM",
		ModeIndex:   1,
		TunedHz:     162550000,
		IFGainDB:    32,
		BBGainDB:    32,
		AudioGainDB: -10,
	}

	tests := []struct {
		name   string
		status func(s *receiver.Status)
		key    rune
		call   string
		value  int64
	}{
		{"next mode", nil, 'm', "mode", 2},
		{"previous mode", nil, 'M', "mode", 0},
		{"mode wraps forward", func(s *receiver.Status) { s.ModeIndex = last }, 'm', "mode", 0},
		{"mode wraps back", func(s *receiver.Status) { s.ModeIndex = 0 }, 'M', "mode", int64(last)},
		{"tune up", nil, '+', "frequency", 162562500},
		{"tune down", nil, '-', "frequency", 162537500},
		{"wide step", func(s *receiver.Status) { s.Mode = "WBFM" }, '+', "frequency", 162650000},
		{"amp on", nil, 'a', "rf", receiver.RFAmpGainDB},
		{"amp off", func(s *receiver.Status) { s.RFGainDB = receiver.RFAmpGainDB }, 'a', "rf", 0},
		{"if up", nil, 'i', "if", 32 + receiver.IFGainStep},
		{"if down", nil, 'I', "if", 32 - receiver.IFGainStep},
		{"bb up", nil, 'b', "bb", 32 + receiver.BBGainStep},
		{"bb down", nil, 'B', "bb", 32 - receiver.BBGainStep},
		{"volume up", nil, 'v', "audio", -7},
		{"volume down", nil, 'V', "audio", -13},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := &fakeController{status: base}
			if tc.status != nil {
				tc.status(&ctrl.status)
			}
			assert.False(t, handleKey(ctrl, tc.key))
			require.Equal(t, []string{tc.call}, ctrl.calls)
			assert.Equal(t, tc.value, ctrl.values[0])
		})
	}
}

func TestHandleKey_Quit(t *testing.T) {
	ctrl := &fakeController{}
	assert.True(t, handleKey(ctrl, 'q'))
	assert.False(t, handleKey(ctrl, 'x'))
	assert.Empty(t, ctrl.calls)
}

func TestLevelPercent(t *testing.T) {
	assert.Equal(t, 0.0, levelPercent(0))
	assert.Equal(t, 0.0, levelPercent(1))
	assert.InDelta(t, 100.0, levelPercent(32768), 1e-9)
	assert.InDelta(t, 50.0, levelPercent(32768/1000.0*31.6227766), 0.01)
	assert.Equal(t, 100.0, levelPercent(1e6))
}

func TestLevelHistory(t *testing.T) {
	var h levelHistory
	var values []float64
	for i := 0; i < historyLength+10; i++ {
		values = h.push(float64(i))
	}
	require.Len(t, values, historyLength)
	assert.Equal(t, 10.0, values[0])
	assert.Equal(t, float64(historyLength+9), values[len(values)-1])
}

func TestModeTable(t *testing.T) {
	data := &snapshot{}
	data.set(receiver.Status{ModeIndex: 5}, decode.Stats{
		RxPacketsPerMode:      map[string]int{"AIS": 3},
		DroppedPacketsPerMode: map[string]int{"AIS": 1},
	})
	table := &ModeTableData{data: data}

	assert.Equal(t, len(receiver.Configurations)+1, table.GetRowCount())
	assert.Contains(t, table.GetCell(6, 0).Text, "black:lightskyblue]AIS")
	assert.Contains(t, table.GetCell(1, 0).Text, "[lightskyblue]NBAM")
	assert.Equal(t, "[green]3", table.GetCell(6, 2).Text)
	assert.Equal(t, "[red]1", table.GetCell(6, 3).Text)
	assert.Equal(t, "[red]0", table.GetCell(1, 2).Text)
	assert.Equal(t, "[white]3.0720 MS/s", table.GetCell(1, 1).Text)
}

func TestStatusTable(t *testing.T) {
	data := &snapshot{}
	data.set(receiver.Status{
		TunedHz:  161975000,
		RFGainDB: 14,
		IFGainDB: 32,
		BBGainDB: 20,
		Quality:  7,
		Overruns: 2,
	}, decode.Stats{TotalPacketsProcessed: 9})
	table := &StatusTableData{data: data, conf: config.Defaults().Tui}

	assert.Equal(t, len(statusLabels), table.GetRowCount())
	assert.Equal(t, "161.9750 MHz", table.GetCell(0, 1).Text)
	assert.Equal(t, "14 / 32 / 20 dB", table.GetCell(1, 1).Text)
	assert.True(t, strings.HasPrefix(table.GetCell(3, 1).Text, "7.0"))
	assert.Equal(t, "9", table.GetCell(7, 1).Text)
	assert.Equal(t, "ERROR", table.GetCell(99, 1).Text)
}
