package repository

import (
	"fmt"

	"github.com/cepro/solarsim/telemetry"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repository stores plant readings and curtailment events to the local file system (sqlite) before they are uploaded
// to Supabase.
type Repository struct {
	db *gorm.DB
}

func New(path string) (*Repository, error) {

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Migrate the schema
	err = db.AutoMigrate(&StoredPlantReading{}, &StoredCurtailmentEvent{})
	if err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Repository{
		db: db,
	}, nil
}

func (r *Repository) AddPlantReading(reading telemetry.PlantReading) error {
	stored := newStoredPlantReading(reading)
	result := r.db.Create(&stored)
	return result.Error
}

func (r *Repository) AddCurtailmentEvent(record telemetry.CurtailmentRecord) error {
	stored := newStoredCurtailmentEvent(record)
	result := r.db.Create(&stored)
	return result.Error
}

// DeleteReadings deletes the given stored readings or events, which must be a pointer to a non-empty slice of
// StoredPlantReading or StoredCurtailmentEvent.
func (r *Repository) DeleteReadings(readings interface{}) error {
	result := r.db.Delete(readings)
	return result.Error
}

func (r *Repository) GetPlantReadings(limit int, fresh bool) ([]StoredPlantReading, error) {
	var readings []StoredPlantReading
	result := r.pending(limit, fresh).Find(&readings)
	if result.Error != nil {
		return nil, result.Error
	}
	return readings, nil
}

func (r *Repository) GetCurtailmentEvents(limit int, fresh bool) ([]StoredCurtailmentEvent, error) {
	var events []StoredCurtailmentEvent
	result := r.pending(limit, fresh).Find(&events)
	if result.Error != nil {
		return nil, result.Error
	}
	return events, nil
}

// pending returns a query for rows that have never been uploaded (fresh) or that have failed at least one upload.
func (r *Repository) pending(limit int, fresh bool) *gorm.DB {
	query := r.db.Limit(limit).Order("upload_attempt_count asc, time desc")
	if fresh {
		return query.Where("upload_attempt_count = ?", 0)
	}
	return query.Where("upload_attempt_count > ?", 0)
}

// IncrementUploadAttemptCount bumps the attempt count of the given stored readings or events, which must be a pointer
// to a non-empty slice.
func (r *Repository) IncrementUploadAttemptCount(readings interface{}) error {
	result := r.db.Model(readings).UpdateColumn("upload_attempt_count", gorm.Expr("upload_attempt_count + ?", 1))
	return result.Error
}

// CountPlantReadings returns the number of plant readings waiting to be uploaded.
func (r *Repository) CountPlantReadings() (int64, error) {
	var count int64
	result := r.db.Model(&StoredPlantReading{}).Count(&count)
	return count, result.Error
}

// CountCurtailmentEvents returns the number of curtailment events waiting to be uploaded.
func (r *Repository) CountCurtailmentEvents() (int64, error) {
	var count int64
	result := r.db.Model(&StoredCurtailmentEvent{}).Count(&count)
	return count, result.Error
}

// Close releases the underlying database connection.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	return sqlDB.Close()
}
