package models

import "time"

// SubmissionStatus is the internal verdict taxonomy. Values match the wire
// strings the frontend renders.
type SubmissionStatus string

const (
	StatusAccepted     SubmissionStatus = "Accepted"
	StatusWrongAnswer  SubmissionStatus = "Wrong Answer"
	StatusTLE          SubmissionStatus = "Time Limit Exceeded"
	StatusCompileError SubmissionStatus = "Compilation Error"
	StatusRuntimeError SubmissionStatus = "Runtime Error"
	StatusJudgeError   SubmissionStatus = "Judge Error"
)

// ContestSubmission is immutable once persisted: a resubmission creates a new
// row, never an update.
type ContestSubmission struct {
	ID        string `gorm:"primaryKey;type:text" json:"id"`
	UserID    string `gorm:"index:idx_sub_user_contest_problem" json:"userId"`
	ContestID string `gorm:"index:idx_sub_user_contest_problem;index:idx_sub_contest_status" json:"contestId"`
	ProblemID string `gorm:"index:idx_sub_user_contest_problem" json:"problemId"`

	Code     string `gorm:"type:text" json:"code"`
	Language string `json:"language"`

	Status  SubmissionStatus `gorm:"type:text;index:idx_sub_contest_status" json:"status"`
	Verdict string           `json:"verdict"` // detailed message, e.g. runtime error variant

	// Only results for non-hidden test cases are stored
	TestResults []TestResult `gorm:"foreignKey:SubmissionID" json:"testResults,omitempty"`

	Runtime float64 `json:"runtime"` // max across test cases, ms
	Memory  int     `json:"memory"`  // max across test cases, KB

	Points   int `gorm:"default:0" json:"points"`
	Penalty  int `gorm:"default:0" json:"penalty"` // minutes from prior failed attempts
	Attempts int `gorm:"default:1" json:"attempts"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

type TestResult struct {
	ID           string `gorm:"primaryKey;type:text" json:"id"`
	SubmissionID string `gorm:"index" json:"-"`

	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	ActualOutput   string `json:"actualOutput"`

	Status        SubmissionStatus `gorm:"type:text" json:"status"`
	ExecutionTime float64          `json:"executionTime"` // ms
	Memory        int              `json:"memory"`        // KB
	Passed        bool             `json:"passed"`
}
