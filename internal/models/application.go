package models

import "time"

// Application is the employer-side record a candidate's interview belongs to.
// The interview engine only ever touches InterviewScore and Status; the rest
// is owned by the application intake flow.
type Application struct {
	ApplicationID     uint    `gorm:"primaryKey" json:"application_id"`
	Email             string  `json:"email"`
	FullName          string  `json:"full_name"`
	Phone             string  `json:"phone"`
	VacancyID         uint    `gorm:"index" json:"vacancy_id"`
	ParsedText        string  `gorm:"type:text" json:"parsed_text"`
	Experience        string  `json:"experience,omitempty"`
	SalaryExpectation string  `json:"salary_expectation,omitempty"`
	InterviewScore    float64 `json:"interview_score"`
	Status            string  `gorm:"index" json:"status"`
	StorageObjectName string  `json:"storage_object_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
