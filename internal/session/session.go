// Package session owns the shared view state of the dashboard: the active
// tab, one result slot per tab, the recommendation list controls, and the
// currently selected ticker. All mutation goes through this package so that
// the HTTP handlers and the WebSocket push never disagree about what the
// user is looking at.
package session

import (
	"log/slog"
	"sync"

	"twquant/internal/backend"
	"twquant/internal/listops"
	"twquant/internal/symbol"
)

// Tab identifies one of the dashboard views.
type Tab string

const (
	TabRecommend Tab = "recommend"
	TabRealtime  Tab = "realtime"
	TabAI        Tab = "ai"
	TabStock     Tab = "stock"
	TabWatch     Tab = "watch"
	TabBacktest  Tab = "backtest"
)

var allTabs = []Tab{TabRecommend, TabRealtime, TabAI, TabStock, TabWatch, TabBacktest}

// ParseTab maps a wire string to a Tab.
func ParseTab(s string) (Tab, bool) {
	for _, t := range allTabs {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// ListTab selects which half of the split recommendation list is shown.
type ListTab string

const (
	ListRecommended ListTab = "recommended"
	ListRejected    ListTab = "rejected"
)

// SlotView is the externally visible state of one tab's result slot.
type SlotView struct {
	Loading bool              `json:"loading"`
	Error   string            `json:"error,omitempty"`
	Result  *backend.Response `json:"result,omitempty"`
	Seq     uint64            `json:"seq"`
}

// slot is the internal mutable form. seq increases on every Begin; a
// Complete carrying an older token is a response to a superseded request
// and is discarded.
type slot struct {
	loading bool
	err     string
	result  *backend.Response
	seq     uint64
}

// Event is pushed to subscribers when the shared state changes.
type Event struct {
	Type   string `json:"type"` // "ticker_selected", "tab", "slot"
	Ticker string `json:"ticker,omitempty"`
	Tab    Tab    `json:"tab,omitempty"`
}

// View is a consistent snapshot of the whole session, served as one JSON
// document.
type View struct {
	ActiveTab Tab                 `json:"active_tab"`
	Selected  string              `json:"selected_ticker,omitempty"`
	ListTab   ListTab             `json:"list_tab"`
	Filters   listops.FilterState `json:"filters"`
	Page      int                 `json:"page"`
	PageSize  int                 `json:"page_size"`
	Slots     map[Tab]SlotView    `json:"slots"`
}

// State holds the session. One State serves all clients of a gateway
// process; there is a single shared view, not one per connection.
type State struct {
	mu       sync.RWMutex
	active   Tab
	slots    map[Tab]*slot
	listTab  ListTab
	filters  listops.FilterState
	page     int
	pageSize int
	selected string
	log      *slog.Logger

	subsMu    sync.Mutex
	nextSubID int
	subs      map[int]chan Event
}

// New creates a State with every slot idle, the recommend tab active, and
// the recommendation list on page one of the recommended half.
func New(pageSize int, log *slog.Logger) *State {
	if pageSize <= 0 {
		pageSize = 10
	}
	s := &State{
		active:   TabRecommend,
		slots:    make(map[Tab]*slot, len(allTabs)),
		listTab:  ListRecommended,
		page:     1,
		pageSize: pageSize,
		log:      log,
		subs:     make(map[int]chan Event),
	}
	for _, t := range allTabs {
		s.slots[t] = &slot{}
	}
	return s
}

// ---------------------------------------------------------------------------
// Result slots
// ---------------------------------------------------------------------------

// Begin marks the tab's slot as loading and returns the sequence token the
// eventual Complete must present. Any in-flight request for the same tab is
// implicitly superseded.
func (s *State) Begin(tab Tab) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl := s.slots[tab]
	sl.seq++
	sl.loading = true
	sl.err = ""
	return sl.seq
}

// Complete resolves the slot identified by tab if seq is still the latest
// token. It returns false when the response belongs to a superseded request,
// in which case the slot is left untouched.
func (s *State) Complete(tab Tab, seq uint64, resp *backend.Response, err error) bool {
	s.mu.Lock()
	sl := s.slots[tab]
	if seq != sl.seq {
		current := sl.seq
		s.mu.Unlock()
		s.log.Debug("discarding stale response", "tab", tab, "seq", seq, "current", current)
		return false
	}
	sl.loading = false
	if err != nil {
		sl.err = err.Error()
		sl.result = nil
	} else {
		sl.err = ""
		sl.result = resp
	}
	s.mu.Unlock()

	s.broadcast(Event{Type: "slot", Tab: tab})
	return true
}

// Slot returns the tab's current slot state.
func (s *State) Slot(tab Tab) SlotView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl := s.slots[tab]
	return SlotView{Loading: sl.loading, Error: sl.err, Result: sl.result, Seq: sl.seq}
}

// ---------------------------------------------------------------------------
// Tabs and list controls
// ---------------------------------------------------------------------------

// SetActive switches the active tab.
func (s *State) SetActive(tab Tab) {
	s.mu.Lock()
	changed := s.active != tab
	s.active = tab
	s.mu.Unlock()
	if changed {
		s.broadcast(Event{Type: "tab", Tab: tab})
	}
}

// Active returns the active tab.
func (s *State) Active() Tab {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetFilters replaces the recommendation filter/sort settings. The page
// resets to one so the visible window stays inside the new result set.
func (s *State) SetFilters(f listops.FilterState) {
	s.mu.Lock()
	s.filters = f
	s.page = 1
	s.mu.Unlock()
}

// Filters returns the current filter/sort settings.
func (s *State) Filters() listops.FilterState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters
}

// SetListTab switches between the recommended and rejected halves of the
// list, resetting the page.
func (s *State) SetListTab(lt ListTab) {
	s.mu.Lock()
	if s.listTab != lt {
		s.listTab = lt
		s.page = 1
	}
	s.mu.Unlock()
}

// SetPage moves to page n. Values below one clamp to one; an upper clamp is
// applied at render time where the list length is known.
func (s *State) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	s.page = n
	s.mu.Unlock()
}

// ListState returns the list tab, filter settings, page, and page size as
// one consistent read.
func (s *State) ListState() (ListTab, listops.FilterState, int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listTab, s.filters, s.page, s.pageSize
}

// ---------------------------------------------------------------------------
// Ticker selection
// ---------------------------------------------------------------------------

// SelectTicker normalizes raw, records it as the selected ticker, and
// notifies subscribers. The normalized form is returned so callers can echo
// it back.
func (s *State) SelectTicker(raw string) string {
	norm := symbol.Normalize(raw)
	s.mu.Lock()
	s.selected = norm
	s.mu.Unlock()
	if norm != "" {
		s.broadcast(Event{Type: "ticker_selected", Ticker: norm})
	}
	return norm
}

// Selected returns the selected ticker ("" when none).
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// ---------------------------------------------------------------------------
// Snapshot
// ---------------------------------------------------------------------------

// View returns a consistent snapshot of the entire session.
func (s *State) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := View{
		ActiveTab: s.active,
		Selected:  s.selected,
		ListTab:   s.listTab,
		Filters:   s.filters,
		Page:      s.page,
		PageSize:  s.pageSize,
		Slots:     make(map[Tab]SlotView, len(s.slots)),
	}
	for t, sl := range s.slots {
		v.Slots[t] = SlotView{Loading: sl.loading, Error: sl.err, Result: sl.result, Seq: sl.seq}
	}
	return v
}

// ---------------------------------------------------------------------------
// Pub/sub
// ---------------------------------------------------------------------------

// Subscribe returns a channel that receives state events. bufSize controls
// the channel buffer; slow consumers will have events dropped.
func (s *State) Subscribe(bufSize int) (int, <-chan Event) {
	ch := make(chan Event, bufSize)
	s.subsMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = ch
	s.subsMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *State) Unsubscribe(id int) {
	s.subsMu.Lock()
	if ch, ok := s.subs[id]; ok {
		delete(s.subs, id)
		close(ch)
	}
	s.subsMu.Unlock()
}

// broadcast sends an event to all subscribers non-blocking (drop on full).
func (s *State) broadcast(e Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
			// Slow consumer — drop event.
		}
	}
}
