package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/errors"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

// TestCaseOutcome is the judged result of one test case. Hidden outcomes are
// used for grading only and stripped before anything reaches the submitter.
type TestCaseOutcome struct {
	TestCaseID     string  `json:"testCaseId"`
	Input          string  `json:"input"`
	ExpectedOutput string  `json:"expectedOutput"`
	ActualOutput   string  `json:"actualOutput"`

	Status  models.SubmissionStatus `json:"status"`
	Verdict string                  `json:"verdict"`

	ExecutionTime float64 `json:"executionTime"` // ms
	Memory        int     `json:"memory"`        // KB
	Passed        bool    `json:"passed"`
	Hidden        bool    `json:"-"`
}

// Pipeline runs a user's code against a problem's test cases through the
// external judge and aggregates the per-case verdicts.
type Pipeline struct {
	Judge JudgeClient

	// Poll budget per test case; exceeding it yields a JudgeError for that
	// case only, never an indefinite hang.
	MaxPollAttempts int
	PollInterval    time.Duration
}

func NewPipeline(judge JudgeClient) *Pipeline {
	return &Pipeline{
		Judge:           judge,
		MaxPollAttempts: 10,
		PollInterval:    time.Second,
	}
}

// Evaluate judges code against the problem's test cases. Hidden cases are
// included unless visibleOnly is set (dry runs). Test cases execute
// concurrently, each with an isolated failure domain: a judge transport
// error or exhausted poll budget marks that case JudgeError and the rest
// still complete.
func (p *Pipeline) Evaluate(ctx context.Context, problem *models.Problem, code, language string, visibleOnly bool) ([]TestCaseOutcome, error) {
	langID, ok := languageID(language)
	if !ok {
		return nil, errors.BadRequest("Unsupported programming language")
	}

	cases := problem.TestCases
	if visibleOnly {
		cases = problem.VisibleTestCases()
	}
	if len(cases) == 0 {
		return nil, errors.NotFound("No test cases found for this problem")
	}

	outcomes := make([]TestCaseOutcome, len(cases))

	var wg sync.WaitGroup
	for i, tc := range cases {
		wg.Add(1)
		go func(i int, tc models.TestCase) {
			defer wg.Done()
			outcomes[i] = p.judgeTestCase(ctx, langID, code, problem, tc)
		}(i, tc)
	}
	wg.Wait()

	return outcomes, nil
}

// judgeTestCase runs a single test case: one dispatch plus a bounded poll
// loop. All failures collapse into a JudgeError outcome for this case.
func (p *Pipeline) judgeTestCase(ctx context.Context, langID int, code string, problem *models.Problem, tc models.TestCase) TestCaseOutcome {
	outcome := TestCaseOutcome{
		TestCaseID:     tc.ID,
		Input:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		Hidden:         tc.Hidden,
	}

	timeLimit := problem.TimeLimit
	if timeLimit <= 0 {
		timeLimit = 2
	}
	memoryLimit := problem.MemoryLimit
	if memoryLimit <= 0 {
		memoryLimit = 128000
	}

	token, err := p.Judge.Submit(ctx, JudgeRequest{
		SourceCode:     code,
		LanguageID:     langID,
		Stdin:          tc.Input,
		ExpectedOutput: tc.ExpectedOutput,
		CPUTimeLimit:   timeLimit,
		MemoryLimit:    memoryLimit,
	})
	if err != nil {
		logger.Error().Err(err).Str("test_case", tc.ID).Msg("Judge dispatch failed")
		outcome.Status = models.StatusJudgeError
		outcome.Verdict = "Judge Error"
		return outcome
	}

	var result *JudgeResult
	for attempt := 0; attempt < p.MaxPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			outcome.Status = models.StatusJudgeError
			outcome.Verdict = "Judge Error"
			return outcome
		case <-time.After(p.PollInterval):
		}

		polled, done, err := p.Judge.Poll(ctx, token)
		if err != nil {
			logger.Error().Err(err).Str("token", token).Msg("Judge poll failed")
			outcome.Status = models.StatusJudgeError
			outcome.Verdict = "Judge Error"
			return outcome
		}
		if done {
			result = polled
			break
		}
	}

	if result == nil {
		// Poll budget exhausted while the judge still reported queued/processing
		logger.Warn().Str("token", token).Str("test_case", tc.ID).Msg("Judge poll budget exhausted")
		outcome.Status = models.StatusJudgeError
		outcome.Verdict = "Judge Error"
		return outcome
	}

	status, verdict := mapJudgeStatus(result.StatusID)
	actual := strings.TrimSpace(result.Stdout)

	outcome.ActualOutput = actual
	outcome.Status = status
	outcome.Verdict = verdict
	outcome.ExecutionTime = result.Time * 1000 // seconds -> ms
	outcome.Memory = result.Memory
	// Exact trimmed comparison on top of the judge's own verdict
	outcome.Passed = status == models.StatusAccepted && actual == strings.TrimSpace(tc.ExpectedOutput)
	if !outcome.Passed && status == models.StatusAccepted {
		outcome.Status = models.StatusWrongAnswer
		outcome.Verdict = "Wrong Answer"
	}

	return outcome
}

// AggregateOutcomes reduces per-case outcomes to the submission-level
// verdict and resource metrics. Runtime and memory are the MAX across test
// cases, characterizing worst-case resource usage.
func AggregateOutcomes(outcomes []TestCaseOutcome) (status models.SubmissionStatus, verdict string, runtime float64, memory int, passed int) {
	status = models.StatusAccepted
	verdict = "Accepted"

	for _, o := range outcomes {
		if o.ExecutionTime > runtime {
			runtime = o.ExecutionTime
		}
		if o.Memory > memory {
			memory = o.Memory
		}
		if o.Passed {
			passed++
		} else if status == models.StatusAccepted {
			// First failing case defines the submission verdict
			status = o.Status
			verdict = o.Verdict
		}
	}
	return status, verdict, runtime, memory, passed
}
