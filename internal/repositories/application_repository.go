package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"talentgate/interview/internal/models"
)

// ErrApplicationNotFound is returned when the target application record does
// not exist.
var ErrApplicationNotFound = errors.New("application not found")

// ApplicationRepository writes interview outcomes to the durable employer-side
// application record.
type ApplicationRepository struct {
	DB *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) *ApplicationRepository {
	return &ApplicationRepository{DB: db}
}

// UpdateInterviewResult stores the final average score and pass/fail status.
// Idempotent: re-running the same update leaves the record unchanged.
func (r *ApplicationRepository) UpdateInterviewResult(ctx context.Context, applicationID uint, averageScore float64, status string) error {
	result := r.DB.WithContext(ctx).
		Model(&models.Application{}).
		Where("application_id = ?", applicationID).
		Updates(map[string]interface{}{
			"interview_score": averageScore,
			"status":          status,
		})

	if result.Error != nil {
		return fmt.Errorf("update application %d: %w", applicationID, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update application %d: %w", applicationID, ErrApplicationNotFound)
	}
	return nil
}

// GetByID loads one application record.
func (r *ApplicationRepository) GetByID(ctx context.Context, applicationID uint) (*models.Application, error) {
	var app models.Application
	err := r.DB.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&app).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}
