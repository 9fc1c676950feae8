package database

import (
	"time"
)

// Case is one docket as exported by CourtListener.
type Case struct {
	CaseID              int64      `json:"case_id" gorm:"primaryKey;autoIncrement:false"`
	URL                 string     `json:"url"`
	CourtSlug           *string    `json:"court_slug" gorm:"index:idx_cases_court_filing,priority:1"`
	DocketNumber        string     `json:"docket_number"`
	FilingDate          *time.Time `json:"filing_date" gorm:"type:date;index;index:idx_cases_court_filing,priority:2"`
	ClosingDate         *time.Time `json:"closing_date" gorm:"type:date;index:idx_cases_closing"`
	NatureOfSuitNumeric *int       `json:"nature_of_suit_numeric" gorm:"index"`
	Disposition         *string    `json:"disposition" gorm:"type:text"`
	OutcomeWin          *bool      `json:"outcome_win"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (Case) TableName() string {
	return "cases"
}

// Date truncates t to midnight UTC, the form every stored date takes.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DatePtr is Date for nullable columns.
func DatePtr(t time.Time) *time.Time {
	d := Date(t)
	return &d
}
