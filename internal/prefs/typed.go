package prefs

import (
	"encoding/json"

	"twquant/internal/backend"
	"twquant/internal/listops"
)

// Tuning mirrors the optional analysis tuning fields. Nil means the user
// never set (or cleared) the field, which the request layer turns into an
// explicit null so the backend reverts to its own default.
type Tuning struct {
	LookbackDays *float64 `json:"lookback_days"`
	EntryFrac    *float64 `json:"entry_frac"`
	TargetFrac   *float64 `json:"target_frac"`
	StopATRMult  *float64 `json:"stop_atr_mult"`
	StopFloorPct *float64 `json:"stop_floor_pct"`
	AccountSize  *float64 `json:"account_size"`
	RiskPct      *float64 `json:"risk_pct"`
}

// LoadTuning reads the persisted tuning preferences. ok is false when the
// key is absent, the store is unavailable, or the blob no longer parses;
// callers keep their defaults in every one of those cases.
func (s *Store) LoadTuning() (Tuning, bool) {
	var t Tuning
	raw, st := s.TryRead(KeyTuning)
	if st != ReadOK {
		return t, false
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		s.log.Debug("tuning blob corrupt, ignoring", "error", err)
		return Tuning{}, false
	}
	return t, true
}

// SaveTuning persists the tuning preferences, best-effort.
func (s *Store) SaveTuning(t Tuning) bool {
	raw, err := json.Marshal(t)
	if err != nil {
		return false
	}
	return s.TryWrite(KeyTuning, raw)
}

// LoadFilters reads the persisted filter/sort state for the recommendation
// list.
func (s *Store) LoadFilters() (listops.FilterState, bool) {
	var f listops.FilterState
	raw, st := s.TryRead(KeyRecFilters)
	if st != ReadOK {
		return f, false
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		s.log.Debug("filter blob corrupt, ignoring", "error", err)
		return listops.FilterState{}, false
	}
	return f, true
}

// SaveFilters persists the filter/sort state, best-effort.
func (s *Store) SaveFilters(f listops.FilterState) bool {
	raw, err := json.Marshal(f)
	if err != nil {
		return false
	}
	return s.TryWrite(KeyRecFilters, raw)
}

// LoadWatchlist reads the local watchlist fallback blob. A missing or
// corrupt blob yields an empty list.
func (s *Store) LoadWatchlist() []backend.WatchlistItem {
	raw, st := s.TryRead(KeyWatchlist)
	if st != ReadOK {
		return nil
	}
	var items []backend.WatchlistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Debug("watchlist blob corrupt, ignoring", "error", err)
		return nil
	}
	return items
}

// SaveWatchlist persists the local watchlist fallback, best-effort.
func (s *Store) SaveWatchlist(items []backend.WatchlistItem) bool {
	raw, err := json.Marshal(items)
	if err != nil {
		return false
	}
	return s.TryWrite(KeyWatchlist, raw)
}
