package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cepro/solarsim/telemetry"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

// nightRate charges 10p/kWh before 07:00 and 30p/kWh after.
type nightRate struct{}

func (nightRate) RateAt(t time.Time) float64 {
	if t.Hour() < 7 {
		return 10
	}
	return 30
}

// flatRate charges the same at all times.
type flatRate float64

func (f flatRate) RateAt(time.Time) float64 {
	return float64(f)
}

func dayOfReadings() []telemetry.PlantReading {
	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	var readings []telemetry.PlantReading
	for i := 0; i < 48; i++ {
		at := start.Add(time.Duration(i) * 30 * time.Minute)
		tick := timeutils.TickFromTime(at)
		raw := 0.0
		if tick.Hour > 6 && tick.Hour < 18 {
			raw = 6 * (1 - (tick.Hour-12)*(tick.Hour-12)/36)
		}
		readings = append(readings, telemetry.PlantReading{
			ReadingMeta:   telemetry.ReadingMeta{Time: at},
			Tick:          tick,
			SolarRawPower: raw,
			SolarPower:    min(raw, 5),
			LoadPower:     1,
			InverterOK:    true,
		})
	}
	return readings
}

func TestDayPlot(t *testing.T) {
	p, err := DayPlot(dayOfReadings(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Solar output on day 153", p.Title.Text)

	var buf bytes.Buffer
	require.NoError(t, WritePNG(p, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))

	path := filepath.Join(t.TempDir(), "day.png")
	require.NoError(t, SavePNG(p, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, pngMagic))
}

func TestDayPlotWithNoReadings(t *testing.T) {
	_, err := DayPlot(nil, 5)
	assert.Error(t, err)
}

func TestSummary(t *testing.T) {
	acc := NewAccumulator(nightRate{}, flatRate(15))

	night := time.Date(2024, time.June, 1, 2, 0, 0, 0, time.UTC)
	noon := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	nextNoon := noon.Add(24 * time.Hour)

	acc.Add(telemetry.PlantReading{
		ReadingMeta: telemetry.ReadingMeta{Time: night},
		Tick:        timeutils.TickFromTime(night),
		EnergyLoad:  1,
		GridImport:  1,
		InverterOK:  true,
		BatterySoe:  0.25,
	}, nil)
	acc.Add(telemetry.PlantReading{
		ReadingMeta:     telemetry.ReadingMeta{Time: noon},
		Tick:            timeutils.TickFromTime(noon),
		EnergyGenerated: 2.5,
		EnergyLoad:      0.5,
		EnergyCurtailed: 0.5,
		BatteryCharged:  1,
		GridExport:      1,
		InverterOK:      true,
		BatterySoe:      1.2,
	}, &telemetry.CurtailmentEvent{AmountCurtailed: 1})
	acc.Add(telemetry.PlantReading{
		ReadingMeta:     telemetry.ReadingMeta{Time: nextNoon},
		Tick:            timeutils.TickFromTime(nextNoon),
		EnergyCurtailed: 1.5,
		InverterOK:      false,
		BatterySoe:      1.1,
	}, &telemetry.CurtailmentEvent{AmountCurtailed: 3})

	s := acc.Summary()
	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 1, s.InverterDownSteps)
	assert.InDelta(t, 2.5, s.EnergyGenerated, 1e-9)
	assert.InDelta(t, 2.0, s.EnergyCurtailed, 1e-9)
	assert.Equal(t, 2, s.CurtailmentEvents)
	assert.InDelta(t, 3.0, s.PeakCurtailment, 1e-9)
	assert.InDelta(t, 2.0, s.MeanCurtailment, 1e-9)
	assert.Equal(t, 2, s.DaysWithCurtailment)
	assert.InDelta(t, 1.5, s.MaxDailyCurtailedKWh, 1e-9)
	assert.InDelta(t, 10.0, s.ImportCost, 1e-9)
	assert.InDelta(t, 15.0, s.ExportIncome, 1e-9)
	assert.InDelta(t, -5.0, s.NetCost, 1e-9)
	assert.InDelta(t, 0.6, s.SelfConsumption, 1e-9)
	assert.InDelta(t, 1.1, s.FinalBatterySoe, 1e-9)
}

func TestEmptySummary(t *testing.T) {
	s := NewAccumulator(nil, nil).Summary()
	assert.Equal(t, 0, s.Steps)
	assert.Equal(t, 0.0, s.PeakCurtailment)
	assert.Equal(t, 0.0, s.SelfConsumption)
}

func TestDays(t *testing.T) {
	acc := NewAccumulator(nil, nil)
	readings := dayOfReadings()
	for _, r := range readings {
		r.EnergyGenerated = r.SolarPower * 0.5
		acc.Add(r, nil)
	}
	next := readings[24]
	next.Time = next.Time.Add(24 * time.Hour)
	next.EnergyCurtailed = 0.5
	acc.Add(next, &telemetry.CurtailmentEvent{AmountCurtailed: 1})

	days := acc.Days()
	require.Len(t, days, 2)
	assert.Equal(t, "2024-06-01", days[0].Date)
	assert.Equal(t, 0, days[0].CurtailmentEvents)
	assert.InDelta(t, acc.Summary().EnergyGenerated-days[1].EnergyGenerated, days[0].EnergyGenerated, 1e-9)
	assert.Equal(t, "2024-06-02", days[1].Date)
	assert.Equal(t, 1, days[1].CurtailmentEvents)
	assert.InDelta(t, 0.5, days[1].EnergyCurtailed, 1e-9)
}

func TestBuildXLSX(t *testing.T) {
	summary := Summary{Steps: 48, CurtailmentEvents: 3, EnergyCurtailed: 1.25}
	days := []DayTotals{{Date: "2024-06-01", EnergyCurtailed: 1.25, CurtailmentEvents: 3}}

	data, err := BuildXLSX(summary, days)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, daysSheet}, f.GetSheetList())

	label, err := f.GetCellValue(summarySheet, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Steps", label)
	steps, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "48", steps)

	date, err := f.GetCellValue(daysSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", date)
	events, err := f.GetCellValue(daysSheet, "G2")
	require.NoError(t, err)
	assert.Equal(t, "3", events)
}

func TestBuildPDF(t *testing.T) {
	days := []DayTotals{{Date: "2024-06-01"}, {Date: "2024-06-02"}}
	data, err := BuildPDF(Summary{Steps: 96}, days)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	xlsxPath := filepath.Join(dir, "summary.xlsx")
	pdfPath := filepath.Join(dir, "summary.pdf")
	require.NoError(t, WriteFiles(Summary{}, nil, xlsxPath, pdfPath))

	for _, path := range []string{xlsxPath, pdfPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
}
