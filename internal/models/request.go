package models

import "strings"

type StartInterviewRequest struct {
	ResumeText    string `json:"resume_text"`
	Topic         string `json:"topic"`
	Language      string `json:"language"`
	ApplicationID *uint  `json:"application_id,omitempty"`
}

// implements the Validator interface
func (r *StartInterviewRequest) Validate() error {
	// An empty resume degrades to generic questions rather than failing,
	// so only the topic is required.
	if strings.TrimSpace(r.Topic) == "" {
		return &ErrorResponse{
			Code:    "missing_topic",
			Message: "Topic (vacancy description) is required",
		}
	}

	if r.Language == "" {
		r.Language = DefaultLanguage
	}

	return nil
}

type AnswerRequest struct {
	SessionID string `json:"session_id"`
	Answer    string `json:"answer"`
	Language  string `json:"language,omitempty"`
}

func (r *AnswerRequest) Validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return &ErrorResponse{
			Code:    "missing_session_id",
			Message: "Session ID is required",
		}
	}
	if strings.TrimSpace(r.Answer) == "" {
		return &ErrorResponse{
			Code:    "missing_answer",
			Message: "Answer field is required",
		}
	}
	return nil
}
