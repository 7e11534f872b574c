package postgres

import (
	"database/sql"
)

// Store bundles the repositories behind a single handle.
type Store struct {
	*ObservationRepository
	*RiskRepository
	*AlertRepository
}

// NewStore constructs a Store over db.
func NewStore(db *sql.DB) *Store {
	return &Store{
		ObservationRepository: NewObservationRepository(db),
		RiskRepository:        NewRiskRepository(db),
		AlertRepository:       NewAlertRepository(db),
	}
}
