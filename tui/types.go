package tui

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/decode"
	"github.com/jrwynneiii/portarx/receiver"
	"github.com/rivo/tview"
)

// Controller is the part of the receiver the UI drives.
type Controller interface {
	Status() receiver.Status
	SetRxMode(index int)
	SetFrequency(hz int64)
	SetRFGain(db int)
	SetIFGain(db int)
	SetBBGain(db int)
	SetAudioGain(db int)
}

// StatsSource reports decoder totals.
type StatsSource interface {
	Stats() decode.Stats
}

// snapshot is what the tables draw from, refreshed by the update loop.
type snapshot struct {
	mu     sync.RWMutex
	status receiver.Status
	stats  decode.Stats
}

func (s *snapshot) set(status receiver.Status, stats decode.Stats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.stats = stats
}

func (s *snapshot) get() (receiver.Status, decode.Stats) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status, s.stats
}

type ModeTableData struct {
	tview.TableContentReadOnly
	data *snapshot
}

type StatusTableData struct {
	tview.TableContentReadOnly
	data *snapshot
	conf config.TuiConf
}

func (m *ModeTableData) GetRowCount() int {
	return len(receiver.Configurations) + 1
}

func (m *ModeTableData) GetColumnCount() int {
	return 4
}

func (m *ModeTableData) GetCell(row, column int) *tview.TableCell {
	if row == 0 {
		switch column {
		case 0:
			return tview.NewTableCell("[lightskyblue]Mode ")
		case 1:
			return tview.NewTableCell("[white]Rate ")
		case 2:
			return tview.NewTableCell("[green]Packets RX'd ")
		case 3:
			return tview.NewTableCell("[red]Packets Dropped")
		}
		return tview.NewTableCell("ERROR")
	}

	status, stats := m.data.get()
	c := receiver.Configurations[row-1]
	switch column {
	case 0:
		if row-1 == status.ModeIndex {
			return tview.NewTableCell(fmt.Sprintf("[black:lightskyblue]%s", c.Name))
		}
		return tview.NewTableCell(fmt.Sprintf("[lightskyblue]%s", c.Name))
	case 1:
		return tview.NewTableCell(fmt.Sprintf("[white]%.4f MS/s", float64(c.BasebandRate())/1e6))
	case 2:
		n := stats.RxPacketsPerMode[c.Name]
		if n == 0 {
			return tview.NewTableCell(fmt.Sprintf("[red]%d", n))
		}
		return tview.NewTableCell(fmt.Sprintf("[green]%d", n))
	case 3:
		return tview.NewTableCell(fmt.Sprintf("[red]%d", stats.DroppedPacketsPerMode[c.Name]))
	}
	return tview.NewTableCell("ERROR")
}

var statusLabels = []string{
	"Frequency:",
	"RF amp / IF / BB:",
	"Audio gain:",
	"Symbol SNR:",
	"Blocks:",
	"Overruns:",
	"Payloads dropped:",
	"Packets decoded:",
}

func (s *StatusTableData) GetRowCount() int {
	return len(statusLabels)
}

func (s *StatusTableData) GetColumnCount() int {
	return 2
}

func (s *StatusTableData) GetCell(row, column int) *tview.TableCell {
	if row < 0 || row >= len(statusLabels) {
		return tview.NewTableCell("ERROR")
	}
	if column == 0 {
		return tview.NewTableCell(statusLabels[row])
	}

	status, stats := s.data.get()
	switch row {
	case 0:
		return tview.NewTableCell(fmt.Sprintf("%.4f MHz", float64(status.TunedHz)/1e6))
	case 1:
		return tview.NewTableCell(fmt.Sprintf("%d / %d / %d dB", status.RFGainDB, status.IFGainDB, status.BBGainDB))
	case 2:
		return tview.NewTableCell(fmt.Sprintf("%d dB", status.AudioGainDB))
	case 3:
		color := tcell.ColorGreen
		if status.Quality < s.conf.SNRCrit {
			color = tcell.ColorRed
		} else if status.Quality < s.conf.SNRWarn {
			color = tcell.ColorYellow
		}
		return tview.NewTableCell(fmt.Sprintf("%.1f dB", status.Quality)).SetTextColor(color)
	case 4:
		return tview.NewTableCell(fmt.Sprintf("%d", status.Blocks))
	case 5:
		color := tcell.ColorGreen
		if status.Overruns > 0 {
			color = tcell.ColorRed
		}
		return tview.NewTableCell(fmt.Sprintf("%d", status.Overruns)).SetTextColor(color)
	case 6:
		return tview.NewTableCell(fmt.Sprintf("%d", status.DroppedPayloads))
	case 7:
		return tview.NewTableCell(fmt.Sprintf("%d", stats.TotalPacketsProcessed))
	}
	return tview.NewTableCell("ERROR")
}
