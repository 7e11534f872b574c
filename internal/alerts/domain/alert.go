package alerts

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	risk "waterhealth-cloud/internal/risk/domain"
)

// ErrNotFound indicates a missing alert.
var ErrNotFound = errors.New("alerts: not found")

// Alert is raised when an area is assessed at High or Critical risk.
// Only Sent may change after creation.
type Alert struct {
	ID        string     `json:"id"`
	Area      string     `json:"area"`
	Message   string     `json:"message"`
	Severity  risk.Level `json:"severity"`
	Sent      bool       `json:"is_sent"`
	CreatedAt time.Time  `json:"created_at"`
}

// DefaultListLimit caps alert listings when no limit is given.
const DefaultListLimit = 50

// ListFilter selects alerts, newest first.
type ListFilter struct {
	Severity risk.Level
	Limit    int
}

// Normalize fills in the default limit.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	return f
}

// MakeAlert builds an alert for an assessment. It returns false when the level does not alert.
func MakeAlert(area string, level risk.Level, score float64, activeCases int, at time.Time) (Alert, bool) {
	if !level.Alerting() {
		return Alert{}, false
	}
	return Alert{
		ID:        uuid.NewString(),
		Area:      area,
		Message:   FormatMessage(area, level, score, activeCases),
		Severity:  level,
		Sent:      false,
		CreatedAt: at.UTC(),
	}, true
}

// FormatMessage renders the alert text.
func FormatMessage(area string, level risk.Level, score float64, activeCases int) string {
	return fmt.Sprintf("⚠️ %s outbreak risk in %s. Score: %.1f. Active cases: %d.", level, area, score, activeCases)
}
