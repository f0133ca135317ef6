package tui

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gdamore/tcell/v2"
	"github.com/jrwynneiii/portarx/config"
	"github.com/jrwynneiii/portarx/receiver"
	"github.com/navidys/tvxwidgets"
	"github.com/rivo/tview"
)

const (
	levelFloorDB  = -60.0
	levelFullS16  = 32768.0
	historyLength = 120

	narrowStepHz = 12500
	wideStepHz   = 100000
	audioStep    = 3
)

var LogOut *tview.TextView

// levelPercent maps the pipeline level onto a 60 dB gauge.
func levelPercent(level float32) float64 {
	if level <= 0 {
		return 0
	}
	db := 20 * math.Log10(float64(level)/levelFullS16)
	pct := (db - levelFloorDB) / -levelFloorDB * 100
	return math.Max(0, math.Min(100, pct))
}

func frequencyStep(mode string) int64 {
	if mode == receiver.ModeWBFM.String() {
		return wideStepHz
	}
	return narrowStepHz
}

// handleKey applies a single keypress to the receiver. It returns true
// when the key asks to quit.
func handleKey(ctrl Controller, key rune) bool {
	status := ctrl.Status()
	modes := len(receiver.Configurations)
	switch key {
	case 'q', 'Q':
		return true
	case 'm':
		ctrl.SetRxMode((status.ModeIndex + 1) % modes)
	case 'M':
		ctrl.SetRxMode((status.ModeIndex + modes - 1) % modes)
	case '+', '=':
		ctrl.SetFrequency(status.TunedHz + frequencyStep(status.Mode))
	case '-', '_':
		ctrl.SetFrequency(status.TunedHz - frequencyStep(status.Mode))
	case 'a':
		if status.RFGainDB > 0 {
			ctrl.SetRFGain(0)
		} else {
			ctrl.SetRFGain(receiver.RFAmpGainDB)
		}
	case 'i':
		ctrl.SetIFGain(status.IFGainDB + receiver.IFGainStep)
	case 'I':
		ctrl.SetIFGain(status.IFGainDB - receiver.IFGainStep)
	case 'b':
		ctrl.SetBBGain(status.BBGainDB + receiver.BBGainStep)
	case 'B':
		ctrl.SetBBGain(status.BBGainDB - receiver.BBGainStep)
	case 'v':
		ctrl.SetAudioGain(status.AudioGainDB + audioStep)
	case 'V':
		ctrl.SetAudioGain(status.AudioGainDB - audioStep)
	}
	return false
}

// levelHistory keeps the most recent gauge readings for the plot.
type levelHistory struct {
	values []float64
}

func (h *levelHistory) push(v float64) []float64 {
	h.values = append(h.values, v)
	if len(h.values) > historyLength {
		h.values = h.values[len(h.values)-historyLength:]
	}
	return h.values
}

func newGauge(label string, warn, crit float64) *tvxwidgets.UtilModeGauge {
	g := tvxwidgets.NewUtilModeGauge()
	g.SetLabel(label)
	g.SetLabelColor(tcell.ColorLightSkyBlue)
	g.SetWarnPercentage(warn)
	g.SetCritPercentage(crit)
	g.SetEmptyColor(tcell.ColorBlack)
	g.SetBorder(false)
	return g
}

func StartUI(ctx context.Context, ctrl Controller, stats StatsSource, tuiConf config.TuiConf) error {
	app := tview.NewApplication()
	data := &snapshot{}
	data.set(ctrl.Status(), stats.Stats())

	LogOut = tview.NewTextView().
		SetDynamicColors(true).
		SetRegions(true).
		SetWordWrap(true)

	modeTable := tview.NewTable().SetContent(&ModeTableData{data: data})
	statusTable := tview.NewTable().SetContent(&StatusTableData{data: data, conf: tuiConf})

	packets := tview.NewTextView().SetDynamicColors(false).SetWordWrap(false)
	packets.SetBorder(true).SetTitle("Recent Packets")

	levelPlot := tvxwidgets.NewPlot()
	levelPlot.SetLineColor([]tcell.Color{tcell.ColorLightSkyBlue})
	levelPlot.SetMarker(tvxwidgets.PlotMarkerBraille)
	levelPlot.SetBorder(true)
	levelPlot.SetTitle("Signal Level")

	levelGauge := newGauge("Signal Level:   ", 99, 100)
	loadGauge := newGauge("DSP Load:       ", tuiConf.LoadWarnPct, tuiConf.LoadCritPct)

	gaugeBox := tview.NewFlex()
	gaugeBox.SetDirection(tview.FlexRow)
	gaugeBox.AddItem(levelGauge, 0, 1, false)
	gaugeBox.AddItem(loadGauge, 0, 1, false)
	gaugeBox.SetTitle("Signal Stats")
	gaugeBox.SetBorder(true)

	LogOut.SetChangedFunc(func() {
		LogOut.ScrollToEnd()
		app.Draw()
	})
	LogOut.SetBorder(true).SetTitle("Log Output")
	if tuiConf.EnableLogOutput {
		log.SetOutput(LogOut)
	}

	modeTable.SetSelectable(false, false).SetBorder(true).SetTitle("Modes")
	statusTable.SetSelectable(false, false).SetBorder(true).SetTitle("Receiver Status")

	help := tview.NewTextView().SetDynamicColors(true).
		SetText("[lightskyblue]m/M[white] mode  [lightskyblue]+/-[white] tune  [lightskyblue]a[white] amp  [lightskyblue]i/I[white] IF  [lightskyblue]b/B[white] BB  [lightskyblue]v/V[white] volume  [lightskyblue]q[white] quit")

	page := tview.NewFlex().SetDirection(tview.FlexColumn)

	leftCol := tview.NewFlex().SetDirection(tview.FlexRow)
	leftCol.AddItem(modeTable, 0, 2, false)
	leftCol.AddItem(statusTable, 0, 3, false)

	rightCol := tview.NewFlex().SetDirection(tview.FlexRow)
	rightCol.AddItem(gaugeBox, 4, 0, false)
	rightCol.AddItem(levelPlot, 0, 2, false)
	rightCol.AddItem(packets, 0, 2, false)
	if tuiConf.EnableLogOutput {
		rightCol.AddItem(LogOut, 0, 2, false)
	}

	page.AddItem(leftCol, 0, 2, false)
	page.AddItem(rightCol, 0, 5, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow)
	root.AddItem(page, 0, 1, false)
	root.AddItem(help, 1, 0, false)

	app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		if ev.Key() != tcell.KeyRune {
			return ev
		}
		if handleKey(ctrl, ev.Rune()) {
			app.Stop()
		}
		return nil
	})

	refresh := time.Duration(tuiConf.RefreshMs) * time.Millisecond
	if refresh <= 0 {
		refresh = 250 * time.Millisecond
	}

	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		var history levelHistory
		for {
			select {
			case <-ctx.Done():
				app.Stop()
				return
			case <-ticker.C:
			}

			status := ctrl.Status()
			decoded := stats.Stats()
			data.set(status, decoded)

			level := levelPercent(status.Level)
			values := history.push(level)

			var recent strings.Builder
			for i := len(decoded.Recent) - 1; i >= 0; i-- {
				recent.WriteString(decoded.Recent[i].String())
				recent.WriteByte('\n')
			}

			app.QueueUpdateDraw(func() {
				levelGauge.SetValue(level)
				loadGauge.SetValue(math.Min(100, status.Load*100))
				levelPlot.SetData([][]float64{append([]float64(nil), values...)})
				packets.SetText(recent.String())
			})
		}
	}()

	return app.SetRoot(root, true).EnableMouse(true).Run()
}
