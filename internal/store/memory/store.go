package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

// Store keeps observations, assessments and alerts in memory.
type Store struct {
	mu       sync.RWMutex
	seq      int64
	water    map[string][]risk.WaterQuality
	weather  map[string][]risk.Weather
	disease  map[string][]risk.DiseaseCases
	risks    map[string]risk.Assessment
	alerts   []alerts.Alert
	failNext map[string]error
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		water:    make(map[string][]risk.WaterQuality),
		weather:  make(map[string][]risk.Weather),
		disease:  make(map[string][]risk.DiseaseCases),
		risks:    make(map[string]risk.Assessment),
		failNext: make(map[string]error),
	}
}

// FailNext makes the next call of the named operation return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[op] = err
}

func (s *Store) takeFailure(op string) error {
	if err, ok := s.failNext[op]; ok {
		delete(s.failNext, op)
		return err
	}
	return nil
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

// InsertWater records a water sample.
func (s *Store) InsertWater(_ context.Context, wq *risk.WaterQuality) error {
	if wq == nil || strings.TrimSpace(wq.Area) == "" {
		return risk.ErrEmptyArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	wq.ID = s.nextID()
	s.water[wq.Area] = append(s.water[wq.Area], *wq)
	return nil
}

// InsertWeather records a weather observation.
func (s *Store) InsertWeather(_ context.Context, w *risk.Weather) error {
	if w == nil || strings.TrimSpace(w.Area) == "" {
		return risk.ErrEmptyArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = s.nextID()
	s.weather[w.Area] = append(s.weather[w.Area], *w)
	return nil
}

// InsertDisease records disease case counts.
func (s *Store) InsertDisease(_ context.Context, d *risk.DiseaseCases) error {
	if d == nil || strings.TrimSpace(d.Area) == "" {
		return risk.ErrEmptyArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.nextID()
	s.disease[d.Area] = append(s.disease[d.Area], *d)
	return nil
}

// LatestWater returns the newest water sample for the area.
func (s *Store) LatestWater(_ context.Context, area string) (*risk.WaterQuality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("LatestWater"); err != nil {
		return nil, err
	}
	rows := s.water[area]
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

// LatestWeather returns the newest weather observation for the area.
func (s *Store) LatestWeather(_ context.Context, area string) (*risk.Weather, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("LatestWeather"); err != nil {
		return nil, err
	}
	rows := s.weather[area]
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

// LatestDisease returns the newest disease record for the area.
func (s *Store) LatestDisease(_ context.Context, area string) (*risk.DiseaseCases, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("LatestDisease"); err != nil {
		return nil, err
	}
	rows := s.disease[area]
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[len(rows)-1]
	return &latest, nil
}

// SeedRisk stores an assessment as-is, registering the area for recalculation.
func (s *Store) SeedRisk(a risk.Assessment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID()
	}
	s.risks[a.Area] = a
}

// RegisterArea adds an area with a Low placeholder assessment. Existing areas only
// get their coordinates refreshed.
func (s *Store) RegisterArea(_ context.Context, area string, lat, lng *float64) error {
	if strings.TrimSpace(area) == "" {
		return risk.ErrEmptyArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.risks[area]
	if !ok {
		a = risk.Assessment{ID: s.nextID(), Area: area, Level: risk.LevelLow, UpdatedAt: time.Now().UTC()}
	}
	if lat != nil {
		a.Lat = lat
	}
	if lng != nil {
		a.Lng = lng
	}
	s.risks[area] = a
	return nil
}

// LatestRisk returns the assessment for the area.
func (s *Store) LatestRisk(_ context.Context, area string) (*risk.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("LatestRisk"); err != nil {
		return nil, err
	}
	a, ok := s.risks[area]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// ListAssessments returns all assessments ordered by area.
func (s *Store) ListAssessments(_ context.Context) ([]risk.Assessment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("ListAssessments"); err != nil {
		return nil, err
	}
	out := make([]risk.Assessment, 0, len(s.risks))
	for _, a := range s.risks {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Area < out[j].Area })
	return out, nil
}

// UpsertRisk writes score, level and timestamp for the area.
func (s *Store) UpsertRisk(_ context.Context, area string, score float64, level risk.Level, at time.Time) error {
	if strings.TrimSpace(area) == "" {
		return risk.ErrEmptyArea
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("UpsertRisk"); err != nil {
		return err
	}
	a, ok := s.risks[area]
	if !ok {
		a = risk.Assessment{ID: s.nextID(), Area: area}
	}
	a.Score = score
	a.Level = level
	a.UpdatedAt = at.UTC()
	s.risks[area] = a
	return nil
}

// AppendAlert stores a new alert.
func (s *Store) AppendAlert(_ context.Context, alert *alerts.Alert) error {
	if alert == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("AppendAlert"); err != nil {
		return err
	}
	s.alerts = append(s.alerts, *alert)
	return nil
}

// ListAlerts returns alerts newest first.
func (s *Store) ListAlerts(_ context.Context, filter alerts.ListFilter) ([]alerts.Alert, error) {
	filter = filter.Normalize()
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]alerts.Alert, 0, len(s.alerts))
	for i := len(s.alerts) - 1; i >= 0; i-- {
		a := s.alerts[i]
		if filter.Severity != "" && a.Severity != filter.Severity {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CountUnsent returns the number of alerts not yet delivered.
func (s *Store) CountUnsent(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.alerts {
		if !a.Sent {
			count++
		}
	}
	return count, nil
}

// ListUnsent returns undelivered alerts of the given severities, oldest first.
func (s *Store) ListUnsent(_ context.Context, severities ...risk.Level) ([]alerts.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []alerts.Alert{}
	for _, a := range s.alerts {
		if a.Sent || !hasLevel(severities, a.Severity) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// MarkSent flips the sent flag.
func (s *Store) MarkSent(_ context.Context, id string) (*alerts.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure("MarkSent"); err != nil {
		return nil, err
	}
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i].Sent = true
			a := s.alerts[i]
			return &a, nil
		}
	}
	return nil, alerts.ErrNotFound
}

// ClearAlerts deletes every alert.
func (s *Store) ClearAlerts(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.alerts))
	s.alerts = nil
	return n, nil
}

func hasLevel(levels []risk.Level, level risk.Level) bool {
	if len(levels) == 0 {
		return true
	}
	for _, l := range levels {
		if l == level {
			return true
		}
	}
	return false
}
