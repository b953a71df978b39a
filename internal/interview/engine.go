package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"talentgate/interview/internal/jobs"
	"talentgate/interview/internal/llm"
	"talentgate/interview/internal/metrics"
	"talentgate/interview/internal/models"
	"talentgate/interview/internal/prompts"
	"talentgate/interview/internal/session"
	"talentgate/interview/internal/voice"
)

var (
	// ErrSessionNotFound maps an unknown or expired token to a client error.
	ErrSessionNotFound = errors.New("interview session not found")

	// ErrInterviewFinished rejects submits against a terminal session.
	ErrInterviewFinished = errors.New("interview already finished")

	// ErrOracleUnavailable wraps transport/timeout/empty failures from the
	// reasoning service. Distinct from a malformed reply: nothing was received,
	// so nothing is scored.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// ResultSink persists the final verdict to the employer-side application
// record. Called at most once per session, on the finish transition.
type ResultSink interface {
	UpdateInterviewResult(ctx context.Context, applicationID uint, averageScore float64, status string) error
}

// Config pins the interview constants read once at process start.
type Config struct {
	QuestionCount int
	PassingScore  float64
}

// Engine drives one interview from first question to final verdict through
// StartInterview and SubmitAnswer.
type Engine struct {
	provider llm.Provider
	prompts  prompts.PromptProvider
	store    session.Store
	speaker  voice.Speaker
	sink     ResultSink        // may be nil when the database is unavailable
	retries  *jobs.ResultQueue // may be nil; sink failures are then only logged
	logger   *zap.Logger
	config   Config
	locks    *sessionLocks
}

func NewEngine(provider llm.Provider, promptManager prompts.PromptProvider, store session.Store, speaker voice.Speaker, sink ResultSink, retries *jobs.ResultQueue, config Config, logger *zap.Logger) *Engine {
	if speaker == nil {
		speaker = voice.NopSpeaker{}
	}
	return &Engine{
		provider: provider,
		prompts:  promptManager,
		store:    store,
		speaker:  speaker,
		sink:     sink,
		retries:  retries,
		logger:   logger,
		config:   config,
		locks:    newSessionLocks(),
	}
}

// StartInterview seeds a session from the resume and vacancy topic, asks the
// oracle for the opening question and registers the session under a fresh
// token. Oracle failures propagate; there is no automatic retry because a
// retry re-spends an oracle call and would desynchronize message history.
func (e *Engine) StartInterview(ctx context.Context, resumeText, topic, language string, applicationID *uint) (string, string, error) {
	sess := models.NewInterviewSession(resumeText, topic, language, e.config.QuestionCount, e.config.PassingScore, applicationID)

	systemPrompt, err := e.prompts.BuildPrompt("interview", "system", map[string]string{
		"Resume":            resumeText,
		"Topic":             topic,
		"LanguageDirective": e.languageDirective(sess.Language),
	})
	if err != nil {
		return "", "", fmt.Errorf("build system prompt: %w", err)
	}

	sess.History = append(sess.History, models.Message{Role: models.RoleSystem, Content: systemPrompt})

	reply, err := e.provider.GenerateText(ctx, sess.History)
	if err != nil {
		metrics.OracleError("start")
		e.logger.Error("Oracle call failed for opening question", zap.Error(err))
		return "", "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	firstQuestion := strings.TrimSpace(reply)
	sess.History = append(sess.History, models.Message{Role: models.RoleAssistant, Content: firstQuestion})
	sess.State = models.StateInProgress

	token, err := e.store.Create(ctx, sess)
	if err != nil {
		return "", "", fmt.Errorf("create session: %w", err)
	}

	e.speakDetached(firstQuestion, sess.Language)
	metrics.InterviewStarted()

	e.logger.Info("Interview started",
		zap.String("session_id", token),
		zap.String("language", sess.Language),
		zap.Int("question_count", sess.QuestionCount))

	return token, firstQuestion, nil
}

// SubmitAnswer evaluates one candidate answer. The whole operation is
// serialized per session: concurrent submits for the same token queue up
// behind the keyed lock, so score history can never outgrow the quota and the
// conversation never interleaves.
func (e *Engine) SubmitAnswer(ctx context.Context, sessionID, answer, language string) (*models.AnswerResponse, error) {
	lock := e.locks.get(sessionID)
	lock.Lock()
	defer lock.Unlock()

	sess, err := e.store.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	if sess.State == models.StateFinished {
		return nil, ErrInterviewFinished
	}

	if language != "" {
		// Affects prompt wording for the remaining turns only; past history
		// is never retranslated.
		sess.Language = language
	}

	// This answer exhausts the quota once scored.
	final := len(sess.Scores) >= sess.QuestionCount-1

	variant := "interim"
	if final {
		variant = "final"
	}
	instruction, err := e.prompts.BuildPrompt("evaluate", variant, map[string]string{
		"History":           formatHistory(sess.History, answer),
		"LanguageDirective": e.languageDirective(sess.Language),
	})
	if err != nil {
		return nil, fmt.Errorf("build evaluation prompt: %w", err)
	}

	raw, err := e.provider.GenerateJSON(ctx, []models.Message{
		{Role: models.RoleSystem, Content: instruction},
		{Role: models.RoleUser, Content: answer},
	})
	if err != nil {
		// No reply was received, so there is nothing to score and the session
		// is left untouched for the caller to retry.
		metrics.OracleError("evaluate")
		e.logger.Error("Oracle call failed for evaluation",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	score, reasoning, nextQuestion := e.interpretReply(sessionID, raw, final)

	// The oracle call has fully resolved; commit all mutations together.
	sess.History = append(sess.History, models.Message{Role: models.RoleUser, Content: answer})
	if nextQuestion != "" {
		sess.History = append(sess.History, models.Message{Role: models.RoleAssistant, Content: nextQuestion})
		e.speakDetached(nextQuestion, sess.Language)
	}
	sess.Scores = append(sess.Scores, score)

	finished := len(sess.Scores) >= sess.QuestionCount
	if finished {
		sess.State = models.StateFinished
	}

	if err := e.store.Update(ctx, sessionID, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	response := &models.AnswerResponse{
		Reasoning:    reasoning,
		Score:        score,
		NextQuestion: nextQuestion,
		Finished:     finished,
		Passed:       sess.Passed(),
	}

	if finished {
		average := sess.AverageScore()
		response.FinalScore = &average
		e.completeInterview(ctx, sessionID, sess)
		e.locks.release(sessionID)
	}

	return response, nil
}

// interpretReply runs the single parse step for the turn's expected shape and
// applies the fallback policy on malformed output: the interview must always
// progress, so a parse failure becomes a lowest-grade turn instead of an error.
func (e *Engine) interpretReply(sessionID, raw string, final bool) (score int, reasoning, nextQuestion string) {
	if final {
		eval, err := parseFinalEvaluation(raw)
		if err != nil {
			return e.fallback(sessionID, err, final)
		}
		return eval.Score, eval.Reasoning, ""
	}

	eval, err := parseInterimEvaluation(raw)
	if err != nil {
		return e.fallback(sessionID, err, final)
	}
	return eval.Score, eval.Reasoning, eval.NextQuestion
}

func (e *Engine) fallback(sessionID string, parseErr error, final bool) (int, string, string) {
	metrics.EvaluationFallback()
	e.logger.Warn("Malformed oracle evaluation, using fallback",
		zap.String("session_id", sessionID),
		zap.Error(parseErr))

	nextQuestion := ""
	if !final {
		nextQuestion = models.FallbackNextQuestion
	}
	return models.FallbackScore, "Failed to parse the evaluation reply: " + parseErr.Error(), nextQuestion
}

// completeInterview persists the final verdict exactly once. Sink failures
// are logged and queued for the retry job; the in-memory verdict returned to
// the candidate stays authoritative either way.
func (e *Engine) completeInterview(ctx context.Context, sessionID string, sess *models.InterviewSession) {
	average := sess.AverageScore()
	passed := sess.Passed()
	metrics.InterviewCompleted(passed)

	status := models.StatusInterviewFailed
	if passed {
		status = models.StatusInterviewPassed
	}

	e.logger.Info("Interview finished",
		zap.String("session_id", sessionID),
		zap.Float64("average_score", average),
		zap.String("status", status))

	if sess.ApplicationID == nil || e.sink == nil {
		return
	}

	if err := e.sink.UpdateInterviewResult(ctx, *sess.ApplicationID, average, status); err != nil {
		e.logger.Error("Failed to persist interview result",
			zap.String("session_id", sessionID),
			zap.Uint("application_id", *sess.ApplicationID),
			zap.Error(err))
		if e.retries != nil {
			e.retries.Enqueue(jobs.PendingResult{
				ApplicationID: *sess.ApplicationID,
				AverageScore:  average,
				Status:        status,
			})
		}
	}
}

// speakDetached fires the voice-synthesis side task. It is never awaited and
// every failure, panics included, stops at this boundary.
func (e *Engine) speakDetached(text, language string) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.logger.Error("Voice synthesis task panicked", zap.Any("panic", r))
			}
		}()

		if err := e.speaker.Speak(context.Background(), text, language); err != nil {
			e.logger.Warn("Voice synthesis failed", zap.Error(err))
		}
	}()
}

func (e *Engine) languageDirective(language string) string {
	directive, err := e.prompts.BuildPrompt("language", language, nil)
	if err != nil {
		// Unknown language tags simply get no directive.
		return ""
	}
	return directive
}

// formatHistory renders the conversation plus the just-received answer as the
// oracle's review context.
func formatHistory(history []models.Message, answer string) string {
	var builder strings.Builder
	for _, msg := range history {
		builder.WriteString(msg.Role)
		builder.WriteString(": ")
		builder.WriteString(msg.Content)
		builder.WriteString("\n")
	}
	builder.WriteString(models.RoleUser)
	builder.WriteString(": ")
	builder.WriteString(answer)
	return builder.String()
}
