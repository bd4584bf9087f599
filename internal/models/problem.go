package models

import "time"

type Problem struct {
	ID          string     `gorm:"primaryKey;type:text" json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"` // Markdown
	Difficulty  Difficulty `gorm:"type:text;default:'Easy'" json:"difficulty"`
	Category    string     `json:"category"`

	// Constraints handed to the judge
	TimeLimit   float64 `gorm:"default:2" json:"timeLimit"`        // seconds
	MemoryLimit int     `gorm:"default:128000" json:"memoryLimit"` // KB

	// Global counters across all contests, incremented atomically
	Submissions int `gorm:"default:0" json:"submissions"`
	Accepted    int `gorm:"default:0" json:"accepted"`

	TestCases []TestCase `gorm:"foreignKey:ProblemID" json:"testCases,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VisibleTestCases filters out hidden grading-only cases.
func (p *Problem) VisibleTestCases() []TestCase {
	visible := make([]TestCase, 0, len(p.TestCases))
	for _, tc := range p.TestCases {
		if !tc.Hidden {
			visible = append(visible, tc)
		}
	}
	return visible
}

type TestCase struct {
	ID             string `gorm:"primaryKey;type:text" json:"id"`
	ProblemID      string `gorm:"index" json:"problemId"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	Hidden         bool   `gorm:"default:false" json:"hidden"` // grading-only, never exposed
	Order          int    `json:"order"`
}
