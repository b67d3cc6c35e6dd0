package dataplatform

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cepro/solarsim/repository"
	"github.com/cepro/solarsim/telemetry"
	timeutils "github.com/cepro/solarsim/time_utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUploader records uploads and fails while `fail` is set.
type mockUploader struct {
	mu       sync.Mutex
	fail     bool
	readings int
	events   int
}

func (m *mockUploader) UploadReadings(readings interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("connection refused")
	}
	switch r := readings.(type) {
	case *[]repository.StoredPlantReading:
		m.readings += len(*r)
	case *[]repository.StoredCurtailmentEvent:
		m.events += len(*r)
	}
	return nil
}

func (m *mockUploader) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *mockUploader) counts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readings, m.events
}

type mockObserver struct {
	attempts map[string]int
	failures int
}

func (m *mockObserver) ObserveUpload(kind string, count int, err error) {
	m.attempts[kind] += count
	if err != nil {
		m.failures++
	}
}

func newTestDataPlatform(t *testing.T, uploader Uploader) *DataPlatform {
	t.Helper()
	d, err := New(uploader, filepath.Join(t.TempDir(), "buffer.sqlite"), 10*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func testReading(at time.Time) telemetry.PlantReading {
	return telemetry.PlantReading{
		ReadingMeta: telemetry.ReadingMeta{ID: uuid.New(), Time: at},
		Tick:        timeutils.TickFromTime(at),
		SolarPower:  3,
	}
}

func testRecord(at time.Time) telemetry.CurtailmentRecord {
	return telemetry.NewCurtailmentRecord(at, telemetry.CurtailmentEvent{
		Tick:            timeutils.TickFromTime(at),
		RawPower:        6,
		ClippedPower:    5,
		AmountCurtailed: 1,
	})
}

func TestNewRejectsBadInterval(t *testing.T) {
	_, err := New(&mockUploader{}, filepath.Join(t.TempDir(), "buffer.sqlite"), 0)
	assert.Error(t, err)
}

func TestFlushUploadsEverything(t *testing.T) {
	uploader := &mockUploader{}
	d := newTestDataPlatform(t, uploader)
	observer := &mockObserver{attempts: map[string]int{}}
	d.SetObserver(observer)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 250; i++ {
		d.StorePlantReading(testReading(start.Add(time.Duration(i) * time.Minute)))
	}
	d.StoreCurtailmentEvent(testRecord(start.Add(12 * time.Hour)))

	require.NoError(t, d.Flush(10))

	readings, events := uploader.counts()
	assert.Equal(t, 250, readings)
	assert.Equal(t, 1, events)
	assert.Equal(t, 250, observer.attempts[KindPlantReadings])
	assert.Equal(t, 1, observer.attempts[KindCurtailmentEvents])
	assert.Equal(t, 0, observer.failures)

	remaining, err := d.repository.CountPlantReadings()
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestFailedUploadIsRetried(t *testing.T) {
	uploader := &mockUploader{fail: true}
	d := newTestDataPlatform(t, uploader)

	start := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		d.StorePlantReading(testReading(start.Add(time.Duration(i) * time.Minute)))
	}

	assert.Error(t, d.Flush(3))

	old, err := d.repository.GetPlantReadings(10, false)
	require.NoError(t, err)
	require.Len(t, old, 3)
	assert.Greater(t, old[0].UploadAttemptCount, uint(0))

	uploader.setFail(false)
	d.attemptUpload()

	readings, _ := uploader.counts()
	assert.Equal(t, 3, readings)
	remaining, err := d.repository.CountPlantReadings()
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestRun(t *testing.T) {
	uploader := &mockUploader{}
	d := newTestDataPlatform(t, uploader)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	at := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	d.PlantReadings <- testReading(at)
	d.CurtailmentEvents <- testRecord(at)

	assert.Eventually(t, func() bool {
		readings, events := uploader.counts()
		return readings == 1 && events == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestRunStoresBufferedReadingsOnCancel(t *testing.T) {
	d := newTestDataPlatform(t, &mockUploader{})

	at := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		d.PlantReadings <- testReading(at.Add(time.Duration(i) * time.Minute))
	}
	d.CurtailmentEvents <- testRecord(at)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	readings, err := d.repository.CountPlantReadings()
	require.NoError(t, err)
	assert.Equal(t, int64(5), readings)
	events, err := d.repository.CountCurtailmentEvents()
	require.NoError(t, err)
	assert.Equal(t, int64(1), events)
}
