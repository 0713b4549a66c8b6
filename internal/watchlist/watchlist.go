// Package watchlist keeps the user's saved tickers. The backend copy is
// authoritative; a local mirror in the preference store covers reads while
// the backend is unreachable and keeps edits from being silently lost.
package watchlist

import (
	"context"
	"fmt"
	"log/slog"

	"twquant/internal/backend"
	"twquant/internal/prefs"
	"twquant/internal/symbol"
)

// Source reports where a watchlist read came from.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Service mediates between the backend watchlist endpoints and the local
// mirror.
type Service struct {
	remote *backend.Client
	store  *prefs.Store
	log    *slog.Logger
}

// NewService creates a watchlist service.
func NewService(remote *backend.Client, store *prefs.Store, log *slog.Logger) *Service {
	return &Service{remote: remote, store: store, log: log}
}

// List returns the watchlist. The backend copy is preferred and mirrored
// locally on success; when the backend is unreachable the local mirror is
// served instead. An error is returned only when neither side can answer.
func (s *Service) List(ctx context.Context) ([]backend.WatchlistItem, Source, error) {
	items, err := s.remote.Watchlist(ctx)
	if err == nil {
		s.store.SaveWatchlist(items)
		return items, SourceRemote, nil
	}
	s.log.Warn("watchlist fetch failed, serving local mirror", "error", err)

	local := s.store.LoadWatchlist()
	if local == nil {
		return nil, SourceLocal, fmt.Errorf("fetching watchlist: %w", err)
	}
	return local, SourceLocal, nil
}

// Add normalizes raw and adds it to the watchlist. The returned message is
// user-facing; when the backend rejects the write but the local mirror
// accepts it, the message says so and no error is reported.
func (s *Service) Add(ctx context.Context, raw string) (string, error) {
	ticker := symbol.Normalize(raw)
	if ticker == "" {
		return "", fmt.Errorf("empty ticker")
	}

	err := s.remote.WatchlistAdd(ctx, ticker)
	if err == nil {
		// Refresh the mirror from the authoritative copy when possible.
		if items, lerr := s.remote.Watchlist(ctx); lerr == nil {
			s.store.SaveWatchlist(items)
		} else {
			s.mirrorAdd(ticker)
		}
		return fmt.Sprintf("已加入自選股：%s", ticker), nil
	}
	s.log.Warn("watchlist add failed upstream", "ticker", ticker, "error", err)

	if s.mirrorAdd(ticker) {
		return fmt.Sprintf("已加入本機自選股（後端未同步）：%s", ticker), nil
	}
	return "", fmt.Errorf("adding %s to watchlist: %w", ticker, err)
}

// Remove normalizes raw and removes it from the watchlist, mirroring the
// removal locally.
func (s *Service) Remove(ctx context.Context, raw string) (string, error) {
	ticker := symbol.Normalize(raw)
	if ticker == "" {
		return "", fmt.Errorf("empty ticker")
	}

	err := s.remote.WatchlistRemove(ctx, ticker)
	s.mirrorRemove(ticker)
	if err != nil {
		s.log.Warn("watchlist remove failed upstream", "ticker", ticker, "error", err)
		return "", fmt.Errorf("removing %s from watchlist: %w", ticker, err)
	}
	return fmt.Sprintf("已自自選股移除：%s", ticker), nil
}

// mirrorAdd appends ticker to the local mirror unless already present.
func (s *Service) mirrorAdd(ticker string) bool {
	items := s.store.LoadWatchlist()
	for _, it := range items {
		if it.Ticker == ticker {
			return true
		}
	}
	items = append(items, backend.WatchlistItem{Ticker: ticker})
	return s.store.SaveWatchlist(items)
}

// mirrorRemove drops ticker from the local mirror.
func (s *Service) mirrorRemove(ticker string) {
	items := s.store.LoadWatchlist()
	kept := items[:0]
	for _, it := range items {
		if it.Ticker != ticker {
			kept = append(kept, it)
		}
	}
	if len(kept) != len(items) {
		s.store.SaveWatchlist(kept)
	}
}
