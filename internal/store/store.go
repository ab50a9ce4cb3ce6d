package store

import (
	"errors"
	"fmt"

	"go_dcd/internal/model"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no record exists for the given key.
var ErrNotFound = errors.New("deployment record not found")

// Store persists deployment records. All writes are committed per call;
// a failed commit is always returned to the caller.
type Store struct {
	db *gorm.DB
}

// New creates a record store backed by the given database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts a new deployment record.
func (s *Store) Create(rec *model.DeploymentRecord) error {
	if err := s.db.Create(rec).Error; err != nil {
		return fmt.Errorf("create deployment record: %w", err)
	}
	return nil
}

// GetByJobID loads the record for the given job id.
func (s *Store) GetByJobID(jobID string) (*model.DeploymentRecord, error) {
	var rec model.DeploymentRecord
	err := s.db.Where("job_id = ?", jobID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query deployment record by job id: %w", err)
	}
	return &rec, nil
}

// GetByInstanceID loads the record for the given instance id.
func (s *Store) GetByInstanceID(instanceID string) (*model.DeploymentRecord, error) {
	var rec model.DeploymentRecord
	err := s.db.Where("instance_id = ?", instanceID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query deployment record by instance id: %w", err)
	}
	return &rec, nil
}

// Update saves all fields of the record. The record must have been loaded
// through this store (primary key set).
func (s *Store) Update(rec *model.DeploymentRecord) error {
	result := s.db.Model(&model.DeploymentRecord{}).
		Where("id = ?", rec.ID).
		Select("ChainStatus", "InstanceID", "InstanceStatus", "ErrorMessage").
		Updates(rec)
	if result.Error != nil {
		return fmt.Errorf("update deployment record %s: %w", rec.JobID, result.Error)
	}
	if result.RowsAffected == 0 {
		// MySQL reports zero affected rows for a same-value update, so a
		// zero count alone does not mean the row is missing.
		var count int64
		if err := s.db.Model(&model.DeploymentRecord{}).
			Where("id = ?", rec.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("update deployment record %s: %w", rec.JobID, err)
		}
		if count == 0 {
			return ErrNotFound
		}
	}
	return nil
}
