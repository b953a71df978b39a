package models

// Message roles used in the interview conversation history.
const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

// Final application statuses written to the durable record.
const (
	StatusInterviewPassed = "interview_passed"
	StatusInterviewFailed = "interview_failed"
)

// Supported prompt languages. Anything else gets no language directive.
const (
	LanguageEnglish = "en"
	LanguageRussian = "ru"
)

const DefaultLanguage = LanguageEnglish

// Fallback evaluation values used when the oracle reply cannot be parsed.
const (
	FallbackScore        = 1
	FallbackNextQuestion = "Please elaborate on your answer in more detail."
)
