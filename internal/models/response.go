package models

type StartInterviewResponse struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type AnswerResponse struct {
	Reasoning    string   `json:"reasoning"`
	Score        int      `json:"score"`
	NextQuestion string   `json:"next_question,omitempty"`
	Finished     bool     `json:"finished"`
	Passed       bool     `json:"passed"`
	FinalScore   *float64 `json:"final_score,omitempty"`
}

// uniform error responses
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorResponse) Error() string {
	return e.Code + ": " + e.Message
}
