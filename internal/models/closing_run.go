// internal/models/closing_run.go
package models

import (
	"time"

	"github.com/lib/pq"
)

// ClosingRun is the persisted report of one monthly close invocation.
// Re-running a period appends a new row; the billing idempotency key keeps
// the records themselves from duplicating.
type ClosingRun struct {
	BaseModel
	Period             string         `json:"period" gorm:"size:7;not null;index"`
	StartedAt          time.Time      `json:"started_at" gorm:"not null"`
	FinishedAt         *time.Time     `json:"finished_at"`
	OrganizationsTotal int            `json:"organizations_total" gorm:"not null;default:0"`
	RecordsCreated     int            `json:"records_created" gorm:"not null;default:0"`
	RecordsSkipped     int            `json:"records_skipped" gorm:"not null;default:0"`
	RecordsFailed      int            `json:"records_failed" gorm:"not null;default:0"`
	OverdueMarked      int            `json:"overdue_marked" gorm:"not null;default:0"`
	Errors             pq.StringArray `json:"errors,omitempty" gorm:"type:text[]"`
}
