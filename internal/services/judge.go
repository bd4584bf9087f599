package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/abhisek2004/Dev-Elevate-sub000/internal/config"
	"github.com/abhisek2004/Dev-Elevate-sub000/internal/models"
	"github.com/abhisek2004/Dev-Elevate-sub000/pkg/logger"
)

// JudgeRequest is one (code, stdin, expected output) execution unit.
type JudgeRequest struct {
	SourceCode     string  `json:"source_code"`
	LanguageID     int     `json:"language_id"`
	Stdin          string  `json:"stdin"`
	ExpectedOutput string  `json:"expected_output"`
	CPUTimeLimit   float64 `json:"cpu_time_limit"`
	MemoryLimit    int     `json:"memory_limit"`
}

// JudgeResult is the terminal state reported for a token.
type JudgeResult struct {
	StatusID      int
	Stdout        string
	Stderr        string
	CompileOutput string
	Time          float64 // seconds
	Memory        int     // KB
}

// JudgeClient submits one execution unit and polls it to a terminal verdict.
type JudgeClient interface {
	Submit(ctx context.Context, req JudgeRequest) (string, error)
	Poll(ctx context.Context, token string) (*JudgeResult, bool, error)
}

// judge0Response is the raw poll payload. Judge0 reports time as a decimal
// string and memory as KB.
type judge0Response struct {
	Status struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"status"`
	Stdout        string      `json:"stdout"`
	Stderr        string      `json:"stderr"`
	CompileOutput string      `json:"compile_output"`
	Time          json.Number `json:"time"`
	Memory        int         `json:"memory"`
}

type judge0SubmitResponse struct {
	Token string `json:"token"`
}

// Judge0Client talks to a Judge0 instance (RapidAPI-hosted by default).
type Judge0Client struct {
	BaseURL string
	APIKey  string
	Host    string

	HTTP *http.Client
}

func NewJudge0Client() *Judge0Client {
	return &Judge0Client{
		BaseURL: config.AppConfig.Judge0APIURL,
		APIKey:  config.AppConfig.Judge0APIKey,
		Host:    config.AppConfig.Judge0Host,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Judge0Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-RapidAPI-Key", c.APIKey)
		req.Header.Set("X-RapidAPI-Host", c.Host)
	}
}

// Submit dispatches one execution unit and returns its token.
func (c *Judge0Client) Submit(ctx context.Context, jr JudgeRequest) (string, error) {
	body, err := json.Marshal(jr)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/submissions", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("judge submit failed with status: %d", resp.StatusCode)
	}

	var out judge0SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", fmt.Errorf("judge returned empty token")
	}
	return out.Token, nil
}

// Poll fetches the current state for a token. The second return value is
// false while the submission is still queued or processing (status id <= 2).
func (c *Judge0Client) Poll(ctx context.Context, token string) (*JudgeResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/submissions/"+token, nil)
	if err != nil {
		return nil, false, err
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("judge poll failed with status: %d", resp.StatusCode)
	}

	var raw judge0Response
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false, err
	}

	if raw.Status.ID <= 2 {
		// Still in queue or processing
		return nil, false, nil
	}

	seconds, _ := raw.Time.Float64()
	result := &JudgeResult{
		StatusID:      raw.Status.ID,
		Stdout:        raw.Stdout,
		Stderr:        raw.Stderr,
		CompileOutput: raw.CompileOutput,
		Time:          seconds,
		Memory:        raw.Memory,
	}
	return result, true, nil
}

// languageID maps supported language names to Judge0 language ids.
func languageID(language string) (int, bool) {
	switch language {
	case "javascript":
		return 63, true
	case "python":
		return 71, true
	case "java":
		return 62, true
	case "cpp":
		return 54, true
	case "c":
		return 50, true
	case "csharp":
		return 51, true
	case "ruby":
		return 72, true
	case "go":
		return 60, true
	case "rust":
		return 73, true
	case "php":
		return 68, true
	default:
		return 0, false
	}
}

// mapJudgeStatus converts a terminal Judge0 status id to the internal
// verdict taxonomy plus a detail string. The switch is exhaustive over the
// Judge0 status table; anything unexpected is a judge-side error.
func mapJudgeStatus(statusID int) (models.SubmissionStatus, string) {
	switch statusID {
	case 3:
		return models.StatusAccepted, "Accepted"
	case 4:
		return models.StatusWrongAnswer, "Wrong Answer"
	case 5:
		return models.StatusTLE, "Time Limit Exceeded"
	case 6:
		return models.StatusCompileError, "Compilation Error"
	case 7:
		return models.StatusRuntimeError, "Runtime Error (SIGSEGV)"
	case 8:
		return models.StatusRuntimeError, "Runtime Error (SIGXFSZ)"
	case 9:
		return models.StatusRuntimeError, "Runtime Error (SIGFPE)"
	case 10:
		return models.StatusRuntimeError, "Runtime Error (SIGABRT)"
	case 11:
		return models.StatusRuntimeError, "Runtime Error (NZEC)"
	case 12:
		return models.StatusRuntimeError, "Runtime Error (Other)"
	case 13:
		return models.StatusJudgeError, "Internal Error"
	case 14:
		return models.StatusJudgeError, "Exec Format Error"
	default:
		logger.Warn().Int("status_id", statusID).Msg("Unexpected judge status id")
		return models.StatusJudgeError, "Unknown Judge Status"
	}
}
