package dataplatform

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/cepro/solarsim/repository"
	"github.com/cepro/solarsim/telemetry"
)

const (
	// uploadChunkLimit defines how many rows we can upload in one supabase HTTP request
	uploadChunkLimit = 100

	KindPlantReadings     = "plant_readings"
	KindCurtailmentEvents = "curtailment_events"
)

// Uploader sends stored readings to the cloud, e.g. a *supabase.Client.
type Uploader interface {
	UploadReadings(readings interface{}) error
}

// UploadObserver is told about every upload attempt, e.g. a *metrics.Recorder.
type UploadObserver interface {
	ObserveUpload(kind string, count int, err error)
}

// DataPlatform handles the streaming of plant telemetry to Supabase.
// Put new plant readings and curtailment events onto the appropriate channels, they will be buffered on disk in a
// SQLite database before being uploaded to Supabase.
type DataPlatform struct {
	PlantReadings     chan telemetry.PlantReading
	CurtailmentEvents chan telemetry.CurtailmentRecord

	repository     *repository.Repository
	uploader       Uploader
	observer       UploadObserver
	uploadInterval time.Duration
	logger         *slog.Logger
}

func New(uploader Uploader, bufferRepositoryFilename string, uploadInterval time.Duration) (*DataPlatform, error) {

	repository, err := repository.New(bufferRepositoryFilename)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	if uploadInterval <= 0 {
		return nil, fmt.Errorf("upload interval must be positive, got %s", uploadInterval)
	}

	return &DataPlatform{
		PlantReadings:     make(chan telemetry.PlantReading, 25), // a small buffer to allow SQLite to catch up in case the disk is slow
		CurtailmentEvents: make(chan telemetry.CurtailmentRecord, 25),
		repository:        repository,
		uploader:          uploader,
		uploadInterval:    uploadInterval,
		logger:            slog.Default().With("component", "data_platform"),
	}, nil
}

// SetObserver registers an observer for upload attempts.
func (d *DataPlatform) SetObserver(observer UploadObserver) {
	d.observer = observer
}

// Run loops until the context is cancelled, storing readings and events as they arrive and periodically uploading them.
// Readings and events still buffered on the channels when the context is cancelled are stored before Run returns.
func (d *DataPlatform) Run(ctx context.Context) {

	uploadTicker := time.NewTicker(d.uploadInterval)
	defer uploadTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case reading := <-d.PlantReadings:
			d.StorePlantReading(reading)
		case record := <-d.CurtailmentEvents:
			d.StoreCurtailmentEvent(record)
		case <-uploadTicker.C:
			d.attemptUpload()
		}
	}
}

func (d *DataPlatform) drain() {
	for {
		select {
		case reading := <-d.PlantReadings:
			d.StorePlantReading(reading)
		case record := <-d.CurtailmentEvents:
			d.StoreCurtailmentEvent(record)
		default:
			return
		}
	}
}

// StorePlantReading buffers the reading in the local database.
func (d *DataPlatform) StorePlantReading(reading telemetry.PlantReading) {
	err := d.repository.AddPlantReading(reading)
	if err != nil {
		d.logger.Error("Failed to persist plant reading", "error", err)
		return
	}
	d.logger.Debug("Stored plant reading", "tick", reading.Tick.String())
}

// StoreCurtailmentEvent buffers the event in the local database.
func (d *DataPlatform) StoreCurtailmentEvent(record telemetry.CurtailmentRecord) {
	err := d.repository.AddCurtailmentEvent(record)
	if err != nil {
		d.logger.Error("Failed to persist curtailment event", "error", err)
		return
	}
	d.logger.Debug("Stored curtailment event", "tick", record.Tick.String())
}

// Flush makes up to `maxRounds` upload rounds until the buffer is empty. It is used at the end of a batch run, and
// must not be called while Run is running.
func (d *DataPlatform) Flush(maxRounds int) error {
	for i := 0; i < maxRounds; i++ {
		remaining, err := d.remaining()
		if err != nil {
			return err
		}
		if remaining == 0 {
			return nil
		}
		d.attemptUpload()
	}

	remaining, err := d.remaining()
	if err != nil {
		return err
	}
	if remaining > 0 {
		return fmt.Errorf("%d rows were not uploaded after %d rounds", remaining, maxRounds)
	}
	return nil
}

// remaining returns the number of buffered rows of any kind.
func (d *DataPlatform) remaining() (int64, error) {
	readings, err := d.repository.CountPlantReadings()
	if err != nil {
		return 0, fmt.Errorf("count plant readings: %w", err)
	}
	events, err := d.repository.CountCurtailmentEvents()
	if err != nil {
		return 0, fmt.Errorf("count curtailment events: %w", err)
	}
	return readings + events, nil
}

// Close releases the buffer database.
func (d *DataPlatform) Close() error {
	return d.repository.Close()
}

// attemptUpload attempts to upload the telemetry from the repository into Supabase.
func (d *DataPlatform) attemptUpload() {

	// first attempt to upload any new rows that have not been seen before, then any old rows that have already failed an
	// upload at least once
	for _, fresh := range []bool{true, false} {
		readings, err := d.repository.GetPlantReadings(uploadChunkLimit, fresh)
		if err != nil {
			d.logger.Error("Failed to query plant readings", "fresh", fresh, "error", err)
		} else if len(readings) > 0 {
			err = d.handleReadings(KindPlantReadings, &readings)
			if err != nil {
				d.logger.Error("Failed to handle plant readings", "fresh", fresh, "error", err)
			}
		}

		events, err := d.repository.GetCurtailmentEvents(uploadChunkLimit, fresh)
		if err != nil {
			d.logger.Error("Failed to query curtailment events", "fresh", fresh, "error", err)
		} else if len(events) > 0 {
			err = d.handleReadings(KindCurtailmentEvents, &events)
			if err != nil {
				d.logger.Error("Failed to handle curtailment events", "fresh", fresh, "error", err)
			}
		}
	}
}

// handleReadings attempts to upload the given readings. If successful, it deletes the readings from the database, if
// unsuccessful, it increments the 'upload attempt count' column and leaves the reading in the database for another time.
func (d *DataPlatform) handleReadings(kind string, readings interface{}) error {

	count := reflect.ValueOf(readings).Elem().Len()

	uploadErr := d.uploader.UploadReadings(readings)
	if d.observer != nil {
		d.observer.ObserveUpload(kind, count, uploadErr)
	}
	if uploadErr != nil {
		uploadErr := fmt.Errorf("upload failed: %w", uploadErr)
		errInc := d.repository.IncrementUploadAttemptCount(readings)
		if errInc != nil {
			return fmt.Errorf("%w: increment upload attempt count: %w", uploadErr, errInc)
		}
		return uploadErr
	}

	// If the delete fails after a successful upload the rows will be uploaded again, and rejected on their primary key
	deleteErr := d.repository.DeleteReadings(readings)
	if deleteErr != nil {
		return fmt.Errorf("delete %s: %w", kind, deleteErr)
	}

	d.logger.Info("Uploaded readings", "kind", kind, "db_records", count)

	return nil
}
