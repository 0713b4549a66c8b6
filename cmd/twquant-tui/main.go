package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"twquant/internal/backend"
	"twquant/internal/listops"
	"twquant/internal/session"
	"twquant/internal/util"
	"twquant/pkg/twquant"
)

// Messages.
type viewLoadedMsg struct {
	view *session.View
	err  error
}

type pageLoadedMsg struct {
	page *twquant.RecPage
	err  error
}

type analysisDoneMsg struct {
	tab  session.Tab
	resp *backend.Response
	err  error
}

type watchlistLoadedMsg struct {
	items  []backend.WatchlistItem
	source string
	err    error
}

type industriesLoadedMsg struct {
	list []string
	err  error
}

type configLoadedMsg struct {
	cfg *backend.RemoteConfig
	err error
}

type toastMsg string

type subscribedMsg struct {
	ch  <-chan session.Event
	err error
}

type sessionEventMsg session.Event

type wsClosedMsg struct{}

type toastExpireMsg int

// sortKeys is the cycle order for the f key.
var sortKeys = []listops.SortKey{
	listops.SortDefault, listops.SortRRDesc, listops.SortATRAsc, listops.SortTrendBull,
}

// Model.
type model struct {
	client *twquant.Client
	logger *slog.Logger

	width, height int
	ready         bool
	viewport      viewport.Model
	input         textinput.Model

	view       *session.View
	page       *twquant.RecPage
	wlItems    []backend.WatchlistItem
	wlSource   string
	industries []string
	aiEnabled  bool
	interval   string

	loading bool
	toast   string
	toastID int
	errText string

	events <-chan session.Event
}

func initialModel(client *twquant.Client, logger *slog.Logger) model {
	ti := textinput.New()
	ti.Placeholder = "代號，例如 2330 或 2330,2603"
	ti.CharLimit = 64
	ti.Width = 40

	return model{
		client:    client,
		logger:    logger,
		input:     ti,
		aiEnabled: true,
		interval:  "5m",
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchView(),
		m.fetchWatchlist(),
		m.fetchIndustries(),
		m.fetchConfig(),
		m.subscribe(),
	)
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func (m model) fetchView() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		v, err := c.View(context.Background())
		return viewLoadedMsg{view: v, err: err}
	}
}

func (m model) fetchPage() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		p, err := c.RecommendPage(context.Background())
		return pageLoadedMsg{page: p, err: err}
	}
}

func (m model) fetchWatchlist() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		items, source, err := c.Watchlist(context.Background())
		return watchlistLoadedMsg{items: items, source: source, err: err}
	}
}

func (m model) fetchIndustries() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		list, err := c.Industries(context.Background())
		return industriesLoadedMsg{list: list, err: err}
	}
}

func (m model) fetchConfig() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		cfg, err := c.Config(context.Background())
		return configLoadedMsg{cfg: cfg, err: err}
	}
}

func (m model) subscribe() tea.Cmd {
	c := m.client
	return func() tea.Msg {
		ch, err := c.Subscribe(context.Background())
		return subscribedMsg{ch: ch, err: err}
	}
}

func waitEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return wsClosedMsg{}
		}
		return sessionEventMsg(e)
	}
}

// isIndustry reports whether the input line names a known industry, in
// which case the batch endpoints are used instead of the ticker ones.
func (m model) isIndustry(query string) bool {
	for _, ind := range m.industries {
		if ind == query {
			return true
		}
	}
	return false
}

// runAnalysis dispatches the input line to the active tab's operation.
func (m model) runAnalysis(tab session.Tab, query string) tea.Cmd {
	c := m.client
	industry := m.isIndustry(query)
	interval := m.interval
	return func() tea.Msg {
		ctx := context.Background()
		var resp *backend.Response
		var err error
		switch tab {
		case session.TabRecommend:
			if industry {
				resp, err = c.RecommendIndustry(ctx, query)
			} else {
				resp, err = c.Recommend(ctx, query)
			}
		case session.TabRealtime:
			c.Select(ctx, query)
			resp, err = c.Daytrade(ctx, query, interval)
		case session.TabAI:
			c.Select(ctx, query)
			resp, err = c.AIRecommend(ctx, query)
		case session.TabStock:
			if industry {
				resp, err = c.AnalyzeIndustry(ctx, query)
				break
			}
			c.Select(ctx, query)
			resp, err = c.AnalyzeStock(ctx, backend.StockAnalyzeRequest{Ticker: query})
		case session.TabBacktest:
			end := time.Now()
			start := end.AddDate(-1, 0, 0)
			resp, err = c.Backtest(ctx, backend.BacktestRequest{
				Ticker:    query,
				StartDate: start.Format("2006-01-02"),
				EndDate:   end.Format("2006-01-02"),
			})
		}
		return analysisDoneMsg{tab: tab, resp: resp, err: err}
	}
}

func (m model) watchlistAdd(ticker string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		msg, err := c.WatchlistAdd(context.Background(), ticker)
		if err != nil {
			return toastMsg(err.Error())
		}
		return toastMsg(msg)
	}
}

func (m model) watchlistRemove(ticker string) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		msg, err := c.WatchlistRemove(context.Background(), ticker)
		if err != nil {
			return toastMsg(err.Error())
		}
		return toastMsg(msg)
	}
}

func (m *model) showToast(text string) tea.Cmd {
	m.toast = text
	m.toastID++
	id := m.toastID
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return toastExpireMsg(id)
	})
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - 3 // header + input + footer
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.MouseWheelEnabled = true
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.viewport.SetContent(m.renderContent())
		return m, nil

	case viewLoadedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.view = msg.view
			m.errText = ""
		}
		m.refresh()
		if m.view != nil && m.view.ActiveTab == session.TabRecommend {
			return m, m.fetchPage()
		}
		return m, nil

	case pageLoadedMsg:
		if msg.err != nil {
			m.errText = msg.err.Error()
		} else {
			m.page = msg.page
		}
		m.refresh()
		return m, nil

	case analysisDoneMsg:
		m.loading = false
		var cmds []tea.Cmd
		if msg.err != nil {
			cmds = append(cmds, m.showToast(msg.err.Error()))
			m.logger.Warn("analysis failed", "tab", msg.tab, "error", msg.err)
		}
		cmds = append(cmds, m.fetchView())
		if msg.tab == session.TabRecommend {
			cmds = append(cmds, m.fetchPage())
		}
		m.refresh()
		return m, tea.Batch(cmds...)

	case watchlistLoadedMsg:
		if msg.err != nil {
			m.logger.Warn("loading watchlist", "error", msg.err)
		} else {
			m.wlItems = msg.items
			m.wlSource = msg.source
		}
		m.refresh()
		return m, nil

	case industriesLoadedMsg:
		if msg.err == nil {
			m.industries = msg.list
		}
		return m, nil

	case configLoadedMsg:
		if msg.err == nil && msg.cfg != nil {
			m.aiEnabled = msg.cfg.AI.Enabled
		}
		m.refresh()
		return m, nil

	case toastMsg:
		cmd = m.showToast(string(msg))
		return m, tea.Batch(cmd, m.fetchWatchlist())

	case toastExpireMsg:
		if int(msg) == m.toastID {
			m.toast = ""
		}
		return m, nil

	case subscribedMsg:
		if msg.err != nil {
			m.logger.Warn("event stream unavailable", "error", msg.err)
			return m, nil
		}
		m.events = msg.ch
		return m, waitEvent(m.events)

	case sessionEventMsg:
		cmds := []tea.Cmd{waitEvent(m.events)}
		switch msg.Type {
		case "slot":
			cmds = append(cmds, m.fetchView())
			if msg.Tab == session.TabRecommend {
				cmds = append(cmds, m.fetchPage())
			}
		case "ticker_selected":
			cmds = append(cmds, m.showToast("已選取 "+msg.Ticker))
		case "tab":
			cmds = append(cmds, m.fetchView())
		}
		return m, tea.Batch(cmds...)

	case wsClosedMsg:
		m.events = nil
		m.logger.Warn("event stream closed")
		return m, nil
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The input captures printable keys while focused.
	if m.input.Focused() {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.input.Blur()
			m.refresh()
			return m, nil
		case "enter":
			query := m.input.Value()
			m.input.Blur()
			if query == "" {
				m.refresh()
				return m, nil
			}
			tab := m.activeTab()
			if tab == session.TabWatch {
				m.refresh()
				return m, m.watchlistAdd(query)
			}
			if tab == session.TabAI && !m.aiEnabled {
				return m, m.showToast("AI 分析未啟用")
			}
			m.loading = true
			m.refresh()
			return m, m.runAnalysis(tab, query)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "/":
		m.input.Focus()
		m.refresh()
		return m, textinput.Blink
	case "1", "2", "3", "4", "5", "6":
		tabs := []session.Tab{
			session.TabRecommend, session.TabRealtime, session.TabAI,
			session.TabStock, session.TabWatch, session.TabBacktest,
		}
		tab := tabs[int(msg.String()[0]-'1')]
		c := m.client
		return m, tea.Batch(func() tea.Msg {
			c.SetTab(context.Background(), tab)
			v, err := c.View(context.Background())
			return viewLoadedMsg{view: v, err: err}
		})
	case "tab":
		if m.activeTab() != session.TabRecommend {
			return m, nil
		}
		next := session.ListRecommended
		if m.listTab() == session.ListRecommended {
			next = session.ListRejected
		}
		c := m.client
		return m, func() tea.Msg {
			c.SetListTab(context.Background(), next)
			p, err := c.RecommendPage(context.Background())
			return pageLoadedMsg{page: p, err: err}
		}
	case "left", "right":
		if m.activeTab() != session.TabRecommend || m.page == nil {
			return m, nil
		}
		page := m.page.Page
		if msg.String() == "left" {
			page--
		} else {
			page++
		}
		if page < 1 || (m.page.TotalPages > 0 && page > m.page.TotalPages) {
			return m, nil
		}
		c := m.client
		return m, func() tea.Msg {
			c.SetPage(context.Background(), page)
			p, err := c.RecommendPage(context.Background())
			return pageLoadedMsg{page: p, err: err}
		}
	case "f":
		f := m.filters()
		cur := 0
		for i, k := range sortKeys {
			if k == f.SortKey {
				cur = i
				break
			}
		}
		f.SortKey = sortKeys[(cur+1)%len(sortKeys)]
		return m, m.applyFilters(f)
	case "b":
		f := m.filters()
		f.OnlyBullish = !f.OnlyBullish
		return m, m.applyFilters(f)
	case "v":
		switch m.interval {
		case "1m":
			m.interval = "5m"
		case "5m":
			m.interval = "15m"
		default:
			m.interval = "1m"
		}
		return m, m.showToast("當沖週期：" + m.interval)
	case "a":
		if t := m.selectedTicker(); t != "" {
			return m, m.watchlistAdd(t)
		}
		return m, nil
	case "d":
		if m.activeTab() == session.TabWatch && len(m.wlItems) > 0 {
			return m, m.watchlistRemove(m.wlItems[len(m.wlItems)-1].Ticker)
		}
		return m, nil
	case "R":
		return m, tea.Batch(m.fetchView(), m.fetchPage(), m.fetchWatchlist())
	}

	var cmd tea.Cmd
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
	}
	return m, cmd
}

func (m model) applyFilters(f listops.FilterState) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		c.SetFilters(context.Background(), f)
		p, err := c.RecommendPage(context.Background())
		return pageLoadedMsg{page: p, err: err}
	}
}

// ---------------------------------------------------------------------------
// Accessors over the shared view
// ---------------------------------------------------------------------------

func (m *model) activeTab() session.Tab {
	if m.view == nil {
		return session.TabRecommend
	}
	return m.view.ActiveTab
}

func (m *model) listTab() session.ListTab {
	if m.view == nil {
		return session.ListRecommended
	}
	return m.view.ListTab
}

func (m *model) filters() listops.FilterState {
	if m.view == nil {
		return listops.FilterState{SortKey: listops.SortDefault}
	}
	f := m.view.Filters
	if f.SortKey == "" {
		f.SortKey = listops.SortDefault
	}
	return f
}

func (m *model) selectedTicker() string {
	if m.view == nil {
		return ""
	}
	return m.view.Selected
}

func (m *model) refresh() {
	if m.ready {
		m.viewport.SetContent(m.renderContent())
	}
}

// ---------------------------------------------------------------------------
// Entry point
// ---------------------------------------------------------------------------

func main() {
	gatewayURL := "http://localhost:8080"
	if u := os.Getenv("TWQUANT_GATEWAY"); u != "" {
		gatewayURL = u
	}

	logPath := fmt.Sprintf("/tmp/twquant-tui-%s.log", time.Now().Format("2006-01-02"))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := util.NewLogger(os.Getenv("TWQUANT_LOG_LEVEL"), "text", logFile)

	client := twquant.NewClient(gatewayURL)
	if err := client.Health(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "gateway unreachable at %s: %v\n", gatewayURL, err)
		os.Exit(1)
	}
	logger.Info("connected to gateway", "url", gatewayURL)

	p := tea.NewProgram(
		initialModel(client, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
