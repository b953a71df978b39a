package models

// Message is one role-tagged turn of the interview conversation. The full
// ordered history is sent to the oracle verbatim on every call.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SessionState is the explicit lifecycle tag of an interview session.
// Finished is terminal: no transition ever leaves it.
type SessionState string

const (
	StateCreated    SessionState = "created"
	StateInProgress SessionState = "in_progress"
	StateFinished   SessionState = "finished"
)

// InterviewSession is the mutable state of one interview, keyed by an opaque
// token in the session store. History and Scores are append-only; QuestionCount
// and PassingScore are captured at creation so config changes never affect a
// session already in flight.
type InterviewSession struct {
	Language      string       `json:"language"`
	Topic         string       `json:"topic"`
	ResumeText    string       `json:"resume_text"`
	History       []Message    `json:"history"`
	Scores        []int        `json:"scores"`
	State         SessionState `json:"state"`
	QuestionCount int          `json:"question_count"`
	PassingScore  float64      `json:"passing_score"`
	ApplicationID *uint        `json:"application_id,omitempty"`
}

// NewInterviewSession returns a session in the Created state with the
// per-session interview constants pinned.
func NewInterviewSession(resumeText, topic, language string, questionCount int, passingScore float64, applicationID *uint) *InterviewSession {
	if language == "" {
		language = DefaultLanguage
	}
	return &InterviewSession{
		Language:      language,
		Topic:         topic,
		ResumeText:    resumeText,
		State:         StateCreated,
		QuestionCount: questionCount,
		PassingScore:  passingScore,
		ApplicationID: applicationID,
	}
}

// Finished reports whether the session has reached its question quota.
func (s *InterviewSession) Finished() bool {
	return s.State == StateFinished
}

// AverageScore is the mean of all recorded scores, 0 when none are recorded.
func (s *InterviewSession) AverageScore() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	sum := 0
	for _, score := range s.Scores {
		sum += score
	}
	return float64(sum) / float64(len(s.Scores))
}

// Passed reports the final verdict. Always false while the session is not
// finished.
func (s *InterviewSession) Passed() bool {
	return s.Finished() && s.AverageScore() >= s.PassingScore
}
