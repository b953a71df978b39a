package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"talentgate/interview/internal/jobs"
	"talentgate/interview/internal/llm"
	"talentgate/interview/internal/models"
	"talentgate/interview/internal/prompts"
	"talentgate/interview/internal/session"
)

type mockProvider struct {
	generateTextFn func(ctx context.Context, messages []models.Message) (string, error)
	generateJSONFn func(ctx context.Context, messages []models.Message) (string, error)
}

func (m *mockProvider) GenerateText(ctx context.Context, messages []models.Message) (string, error) {
	if m.generateTextFn == nil {
		return "What is a goroutine?", nil
	}
	return m.generateTextFn(ctx, messages)
}

func (m *mockProvider) GenerateJSON(ctx context.Context, messages []models.Message) (string, error) {
	if m.generateJSONFn == nil {
		return `{"score": 4, "reasoning": "solid", "next question": "And channels?"}`, nil
	}
	return m.generateJSONFn(ctx, messages)
}

func (m *mockProvider) GetProviderName() string { return "mock" }

type sinkCall struct {
	applicationID uint
	averageScore  float64
	status        string
}

type fakeSink struct {
	mu    sync.Mutex
	calls []sinkCall
	err   error
}

func (s *fakeSink) UpdateInterviewResult(_ context.Context, applicationID uint, averageScore float64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, sinkCall{applicationID, averageScore, status})
	return s.err
}

func (s *fakeSink) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newTestEngine(t *testing.T, provider llm.Provider, sink ResultSink, retries *jobs.ResultQueue, questionCount int) (*Engine, *session.MemoryStore) {
	t.Helper()

	promptManager, err := prompts.NewPromptManager()
	if err != nil {
		t.Fatalf("NewPromptManager error: %v", err)
	}

	store := session.NewMemoryStore()
	engine := NewEngine(provider, promptManager, store, nil, sink, retries, Config{
		QuestionCount: questionCount,
		PassingScore:  3,
	}, zap.NewNop())
	return engine, store
}

func startSession(t *testing.T, engine *Engine, applicationID *uint) string {
	t.Helper()

	token, question, err := engine.StartInterview(context.Background(), "5 years of Go", "Backend engineer", "en", applicationID)
	if err != nil {
		t.Fatalf("StartInterview error: %v", err)
	}
	if token == "" || question == "" {
		t.Fatalf("expected token and question, got %q / %q", token, question)
	}
	return token
}

func TestStartInterviewSeedsSession(t *testing.T) {
	var seenMessages []models.Message
	provider := &mockProvider{
		generateTextFn: func(_ context.Context, messages []models.Message) (string, error) {
			seenMessages = messages
			return "  Tell me about your Go experience. \n", nil
		},
	}

	engine, store := newTestEngine(t, provider, nil, nil, 5)
	token := startSession(t, engine, nil)

	if len(seenMessages) != 1 || seenMessages[0].Role != models.RoleSystem {
		t.Fatalf("expected a single system message, got %+v", seenMessages)
	}

	sess, err := store.Get(context.Background(), token)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if sess.State != models.StateInProgress {
		t.Fatalf("expected state in_progress, got %s", sess.State)
	}
	if len(sess.History) != 2 {
		t.Fatalf("expected system + assistant history, got %d messages", len(sess.History))
	}
	if sess.History[1].Content != "Tell me about your Go experience." {
		t.Fatalf("expected trimmed first question, got %q", sess.History[1].Content)
	}
	if sess.QuestionCount != 5 || sess.PassingScore != 3 {
		t.Fatalf("interview constants not pinned on session: %+v", sess)
	}
}

func TestStartInterviewOracleFailure(t *testing.T) {
	provider := &mockProvider{
		generateTextFn: func(context.Context, []models.Message) (string, error) {
			return "", &llm.ProviderError{Provider: "mock", Code: llm.ErrCodeServiceDown, Message: "down"}
		},
	}

	engine, store := newTestEngine(t, provider, nil, nil, 5)
	_, _, err := engine.StartInterview(context.Background(), "resume", "topic", "en", nil)
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("expected ErrOracleUnavailable, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected no session registered after failed start")
	}
}

func TestSubmitAnswerRoundTrip(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return `{"score": 4, "reasoning": "good answer", "next question": "What about channels?"}`, nil
		},
	}
	sink := &fakeSink{}
	engine, store := newTestEngine(t, provider, sink, nil, 5)

	appID := uint(42)
	token := startSession(t, engine, &appID)

	for turn := 1; turn <= 5; turn++ {
		result, err := engine.SubmitAnswer(context.Background(), token, fmt.Sprintf("answer %d", turn), "")
		if err != nil {
			t.Fatalf("SubmitAnswer %d error: %v", turn, err)
		}

		if result.Score != 4 {
			t.Fatalf("turn %d: expected score 4, got %d", turn, result.Score)
		}

		if turn < 5 {
			if result.Finished || result.Passed {
				t.Fatalf("turn %d: interview finished early: %+v", turn, result)
			}
			if result.NextQuestion == "" {
				t.Fatalf("turn %d: expected a next question", turn)
			}
			if result.FinalScore != nil {
				t.Fatalf("turn %d: final score should be absent, got %v", turn, *result.FinalScore)
			}
		} else {
			if !result.Finished || !result.Passed {
				t.Fatalf("expected finished and passed on the final turn: %+v", result)
			}
			if result.FinalScore == nil || *result.FinalScore != 4.0 {
				t.Fatalf("expected final score 4.0, got %v", result.FinalScore)
			}
		}

		sess, _ := store.Get(context.Background(), token)
		if len(sess.Scores) != turn {
			t.Fatalf("turn %d: expected %d scores, got %d", turn, turn, len(sess.Scores))
		}
	}

	if sink.callCount() != 1 {
		t.Fatalf("expected exactly one sink call, got %d", sink.callCount())
	}
	call := sink.calls[0]
	if call.applicationID != 42 || call.averageScore != 4.0 || call.status != models.StatusInterviewPassed {
		t.Fatalf("unexpected sink call: %+v", call)
	}
}

func TestSubmitAnswerVerdictThreshold(t *testing.T) {
	cases := []struct {
		name       string
		scores     []int
		wantAvg    float64
		wantPassed bool
		wantStatus string
	}{
		{"mixed scores above threshold", []int{5, 4, 1, 2, 5}, 3.4, true, models.StatusInterviewPassed},
		{"all lowest grade", []int{1, 1, 1, 1, 1}, 1.0, false, models.StatusInterviewFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			turn := 0
			provider := &mockProvider{
				generateJSONFn: func(context.Context, []models.Message) (string, error) {
					score := tc.scores[turn]
					turn++
					return fmt.Sprintf(`{"score": %d, "reasoning": "r", "next question": "q"}`, score), nil
				},
			}
			sink := &fakeSink{}
			engine, _ := newTestEngine(t, provider, sink, nil, 5)

			appID := uint(7)
			token := startSession(t, engine, &appID)

			var last *models.AnswerResponse
			for i := 0; i < 5; i++ {
				result, err := engine.SubmitAnswer(context.Background(), token, "answer", "")
				if err != nil {
					t.Fatalf("SubmitAnswer error: %v", err)
				}
				last = result
			}

			if !last.Finished {
				t.Fatalf("expected finished after 5 answers")
			}
			if last.Passed != tc.wantPassed {
				t.Fatalf("expected passed=%v, got %v", tc.wantPassed, last.Passed)
			}
			if *last.FinalScore != tc.wantAvg {
				t.Fatalf("expected average %v, got %v", tc.wantAvg, *last.FinalScore)
			}
			if sink.calls[0].status != tc.wantStatus {
				t.Fatalf("expected sink status %s, got %s", tc.wantStatus, sink.calls[0].status)
			}
		})
	}
}

func TestSubmitAnswerMalformedReplyFallsBack(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return "I think the candidate did okay", nil
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, 5)
	token := startSession(t, engine, nil)

	result, err := engine.SubmitAnswer(context.Background(), token, "my answer", "")
	if err != nil {
		t.Fatalf("malformed reply must never surface as an error, got %v", err)
	}
	if result.Score != models.FallbackScore {
		t.Fatalf("expected fallback score %d, got %d", models.FallbackScore, result.Score)
	}
	if result.Reasoning == "" {
		t.Fatalf("expected a non-empty fallback reasoning")
	}
	if result.NextQuestion != models.FallbackNextQuestion {
		t.Fatalf("expected fallback next question, got %q", result.NextQuestion)
	}

	sess, _ := store.Get(context.Background(), token)
	if len(sess.Scores) != 1 {
		t.Fatalf("fallback turn must still be scored, got %d scores", len(sess.Scores))
	}
}

func TestSubmitAnswerFinalTurnHasNoNextQuestion(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			// The oracle erroneously includes a next question on the final turn.
			return `{"score": 5, "reasoning": "great", "next question": "One more?"}`, nil
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, 1)
	token := startSession(t, engine, nil)

	result, err := engine.SubmitAnswer(context.Background(), token, "answer", "")
	if err != nil {
		t.Fatalf("SubmitAnswer error: %v", err)
	}
	if !result.Finished {
		t.Fatalf("expected finished with question count 1")
	}
	if result.NextQuestion != "" {
		t.Fatalf("final turn must strip the next question, got %q", result.NextQuestion)
	}

	sess, _ := store.Get(context.Background(), token)
	if last := sess.History[len(sess.History)-1]; last.Role != models.RoleUser {
		t.Fatalf("no assistant turn may follow the final answer, history ends with %s", last.Role)
	}
}

func TestSubmitAnswerMalformedFinalTurn(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return "```not json```", nil
		},
	}
	engine, _ := newTestEngine(t, provider, nil, nil, 1)
	token := startSession(t, engine, nil)

	result, err := engine.SubmitAnswer(context.Background(), token, "answer", "")
	if err != nil {
		t.Fatalf("SubmitAnswer error: %v", err)
	}
	if result.NextQuestion != "" {
		t.Fatalf("fallback on the final turn must not produce a next question")
	}
	if !result.Finished || result.Passed {
		t.Fatalf("expected finished, failed verdict: %+v", result)
	}
}

func TestSubmitAnswerUnknownSession(t *testing.T) {
	engine, store := newTestEngine(t, &mockProvider{}, nil, nil, 5)

	_, err := engine.SubmitAnswer(context.Background(), "no-such-token", "answer", "")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("unknown session must not create state")
	}
}

func TestSubmitAnswerAfterFinish(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return `{"score": 3, "reasoning": "ok"}`, nil
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, 1)
	token := startSession(t, engine, nil)

	if _, err := engine.SubmitAnswer(context.Background(), token, "answer", ""); err != nil {
		t.Fatalf("SubmitAnswer error: %v", err)
	}

	_, err := engine.SubmitAnswer(context.Background(), token, "again", "")
	if !errors.Is(err, ErrInterviewFinished) {
		t.Fatalf("expected ErrInterviewFinished, got %v", err)
	}

	sess, _ := store.Get(context.Background(), token)
	if len(sess.Scores) != 1 {
		t.Fatalf("rejected submit must not mutate the session, got %d scores", len(sess.Scores))
	}
	if sess.State != models.StateFinished {
		t.Fatalf("finished state must never revert, got %s", sess.State)
	}
}

func TestSubmitAnswerOracleTimeoutIsNotScored(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return "", &llm.ProviderError{Provider: "mock", Code: llm.ErrCodeTimeout, Message: "deadline"}
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, 5)
	token := startSession(t, engine, nil)

	_, err := engine.SubmitAnswer(context.Background(), token, "answer", "")
	if !errors.Is(err, ErrOracleUnavailable) {
		t.Fatalf("a timeout must surface as oracle unavailable, got %v", err)
	}

	sess, _ := store.Get(context.Background(), token)
	if len(sess.Scores) != 0 {
		t.Fatalf("a timeout must not be scored, got %d scores", len(sess.Scores))
	}
	if len(sess.History) != 2 {
		t.Fatalf("a timeout must leave history untouched, got %d messages", len(sess.History))
	}
}

func TestSubmitAnswerSinkFailureIsSwallowedAndQueued(t *testing.T) {
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return `{"score": 5, "reasoning": "great"}`, nil
		},
	}
	sink := &fakeSink{err: errors.New("database down")}
	queue := jobs.NewResultQueue()
	engine, _ := newTestEngine(t, provider, sink, queue, 1)

	appID := uint(9)
	token := startSession(t, engine, &appID)

	result, err := engine.SubmitAnswer(context.Background(), token, "answer", "")
	if err != nil {
		t.Fatalf("sink failure must not surface to the caller, got %v", err)
	}
	if !result.Finished || !result.Passed {
		t.Fatalf("in-memory verdict stays authoritative: %+v", result)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected the failed write to be queued for retry, queue has %d", queue.Len())
	}
}

func TestSubmitAnswerConcurrentSameSession(t *testing.T) {
	const quota = 5
	provider := &mockProvider{
		generateJSONFn: func(context.Context, []models.Message) (string, error) {
			return `{"score": 3, "reasoning": "ok", "next question": "next?"}`, nil
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, quota)
	token := startSession(t, engine, nil)

	const submitters = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted, rejected := 0, 0

	for i := 0; i < submitters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.SubmitAnswer(context.Background(), token, "answer", "")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case errors.Is(err, ErrInterviewFinished):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if accepted != quota {
		t.Fatalf("expected exactly %d accepted submits, got %d", quota, accepted)
	}
	if rejected != submitters-quota {
		t.Fatalf("expected %d rejected submits, got %d", submitters-quota, rejected)
	}

	sess, _ := store.Get(context.Background(), token)
	if len(sess.Scores) > quota {
		t.Fatalf("score history outgrew the quota: %d", len(sess.Scores))
	}

	// History must stay well-formed: one system message, then strictly
	// alternating assistant/user turns.
	if sess.History[0].Role != models.RoleSystem {
		t.Fatalf("history must start with the system message")
	}
	for i, msg := range sess.History[1:] {
		want := models.RoleAssistant
		if i%2 == 1 {
			want = models.RoleUser
		}
		if msg.Role != want {
			t.Fatalf("corrupted history at %d: expected %s, got %s", i+1, want, msg.Role)
		}
	}
}

func TestSubmitAnswerLanguageOverride(t *testing.T) {
	var instruction string
	provider := &mockProvider{
		generateJSONFn: func(_ context.Context, messages []models.Message) (string, error) {
			instruction = messages[0].Content
			return `{"score": 3, "reasoning": "ok", "next question": "q"}`, nil
		},
	}
	engine, store := newTestEngine(t, provider, nil, nil, 5)
	token := startSession(t, engine, nil)

	if _, err := engine.SubmitAnswer(context.Background(), token, "answer", "ru"); err != nil {
		t.Fatalf("SubmitAnswer error: %v", err)
	}

	if !strings.Contains(instruction, "русском") {
		t.Fatalf("expected the russian language directive in the evaluation prompt")
	}

	sess, _ := store.Get(context.Background(), token)
	if sess.Language != "ru" {
		t.Fatalf("expected session language to switch to ru, got %s", sess.Language)
	}
}
