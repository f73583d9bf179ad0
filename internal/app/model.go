package app

import (
	"context"
	"fmt"
	"sort"
	"time"

	"postdesk/internal/api"
	"postdesk/internal/backend"
	"postdesk/internal/config"
	"postdesk/internal/history"
	"postdesk/internal/logging"
	"postdesk/internal/session"
	"postdesk/internal/ui"
	"postdesk/internal/workflow"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	progressbar "github.com/charmbracelet/bubbles/progress"
)

// View identifies the active screen.
type View int

const (
	ViewWorkflow View = iota
	ViewPending
	ViewApproved
)

// PanelFocus tracks which workflow panel has keyboard focus.
type PanelFocus int

const (
	FocusDomains PanelFocus = iota
	FocusArticles
)

// Dialer opens an event channel connection. Injectable so tests can
// substitute a loopback backend.
type Dialer func(addr string) (*backend.Client, error)

// Model is the root bubbletea model for the postdesk console.
type Model struct {
	cfg  config.Config
	rest *api.Client

	// Event channel
	dial             Dialer
	channel          *backend.Client
	connected        bool
	connError        string
	reconnecting     bool
	reconnectAttempt int
	pendingJoins     []backend.ClientMessage

	// Pipeline state
	tracker session.Tracker
	flow    *workflow.Controller

	// Domain catalog
	domains     map[string]api.Domain
	domainKeys  []string
	domainIndex int
	domainsErr  string

	// Workflow cursors
	articleIndex  int
	numberOfPosts int

	// Posts
	pending      []api.Post
	approved     []api.Post
	postIndex    int
	expandedPost int
	postsErr     string

	// Cache
	cacheStats    *api.CacheStats
	cacheByDomain map[string]api.DomainCacheStats

	// History
	store  *history.Store
	recent []history.Entry

	// UI state
	view   View
	focus  PanelFocus
	width  int
	height int
	spin   spinner.Model
	bar    progressbar.Model

	// Edit overlay
	editing bool
	editor  textarea.Model
	editID  int

	// Transient notification
	toast      string
	toastLevel toastLevel
}

type toastLevel int

const (
	toastInfo toastLevel = iota
	toastWarn
	toastError
)

const maxPostsPerRun = 5

// New creates a Model wired to the configured backend. The history
// store may be nil; the console then simply keeps no local history.
func New(cfg config.Config, store *history.Store) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.SpinnerStyle

	bar := progressbar.New(progressbar.WithDefaultGradient(), progressbar.WithoutPercentage())
	bar.Width = 30

	ed := textarea.New()
	ed.CharLimit = 0

	return Model{
		cfg:           cfg,
		rest:          api.New(cfg.API.BaseURL, cfg.API.Timeout, cfg.API.ScrapeInterval),
		dial:          backend.Dial,
		flow:          workflow.New(cfg.Selection.MaxArticles, cfg.Selection.MinArticles),
		store:         store,
		numberOfPosts: 1,
		expandedPost:  -1,
		spin:          sp,
		bar:           bar,
		editor:        ed,
	}
}

// Init connects to the event channel and loads everything the first
// screen needs.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.dial, m.cfg.Channel.Addr),
		loadDomainsCmd(m.rest),
		loadPendingCmd(m.rest),
		loadApprovedCmd(m.rest),
		cacheStatsCmd(m.rest),
		loadHistoryCmd(m.store),
		m.spin.Tick,
	)
}

// connectCmd dials the event channel.
func connectCmd(dial Dialer, addr string) tea.Cmd {
	return func() tea.Msg {
		client, err := dial(addr)
		if err != nil {
			return ChannelConnectErrorMsg{Err: err}
		}
		return ChannelConnectedMsg{Client: client}
	}
}

// readEventCmd reads the next event from the channel.
func readEventCmd(client *backend.Client) tea.Cmd {
	return func() tea.Msg {
		env, err := client.ReadEvent()
		if err != nil {
			return ChannelReadErrorMsg{Err: err}
		}
		return ChannelEventMsg{Envelope: env}
	}
}

// joinCmd emits a session join. A write failure means the connection
// is gone and is handled like a broken read.
func joinCmd(client *backend.Client, msg backend.ClientMessage) tea.Cmd {
	return func() tea.Msg {
		if err := client.Emit(msg); err != nil {
			return ChannelReadErrorMsg{Err: err}
		}
		return nil
	}
}

// reconnectCmd schedules the next connection attempt.
func reconnectCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ReconnectTickMsg{}
	})
}

func loadDomainsCmd(rest *api.Client) tea.Cmd {
	return func() tea.Msg {
		domains, err := rest.Domains(context.Background())
		return DomainsLoadedMsg{Domains: domains, Err: err}
	}
}

func loadPendingCmd(rest *api.Client) tea.Cmd {
	return func() tea.Msg {
		posts, err := rest.PendingPosts(context.Background())
		return PendingLoadedMsg{Posts: posts, Err: err}
	}
}

func loadApprovedCmd(rest *api.Client) tea.Cmd {
	return func() tea.Msg {
		posts, err := rest.ApprovedPosts(context.Background())
		return ApprovedLoadedMsg{Posts: posts, Err: err}
	}
}

func cacheStatsCmd(rest *api.Client) tea.Cmd {
	return func() tea.Msg {
		stats, err := rest.CacheStats(context.Background())
		return CacheStatsMsg{Stats: stats, Err: err}
	}
}

func cacheDomainsCmd(rest *api.Client) tea.Cmd {
	return func() tea.Msg {
		stats, err := rest.CacheByDomains(context.Background())
		return CacheDomainsMsg{Stats: stats, Err: err}
	}
}

func scrapeCmd(rest *api.Client, domain string, force bool, token int) tea.Cmd {
	return func() tea.Msg {
		res, err := rest.Scrape(context.Background(), domain, force)
		return ScrapeResultMsg{Token: token, Result: res, Err: err}
	}
}

func generateCmd(rest *api.Client, articles []api.Article, domain string, numberOfPosts, token int) tea.Cmd {
	return func() tea.Msg {
		res, err := rest.Generate(context.Background(), articles, domain, numberOfPosts)
		return GenerateResultMsg{Token: token, Result: res, Err: err}
	}
}

func postActionCmd(rest *api.Client, action PostAction, id int) tea.Cmd {
	return func() tea.Msg {
		var res api.ActionResult
		var err error
		ctx := context.Background()
		switch action {
		case ActionApprove:
			res, err = rest.Approve(ctx, id)
		case ActionPublish:
			res, err = rest.Publish(ctx, id)
		case ActionDelete:
			res, err = rest.Delete(ctx, id)
		}
		return PostActionMsg{Action: action, ID: id, Result: res, Err: err}
	}
}

func editPostCmd(rest *api.Client, id int, content string) tea.Cmd {
	return func() tea.Msg {
		res, err := rest.Edit(context.Background(), id, content)
		return PostActionMsg{Action: ActionEdit, ID: id, Result: res, Err: err}
	}
}

const recentHistoryShown = 5

// loadHistoryCmd reads recent session history. History is best-effort:
// errors surface as an empty list, never as a console failure.
func loadHistoryCmd(store *history.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := store.Recent(recentHistoryShown)
		if err != nil {
			return HistoryLoadedMsg{}
		}
		return HistoryLoadedMsg{Entries: entries}
	}
}

// recordHistoryCmd appends one terminated session and reloads the
// recent list.
func recordHistoryCmd(store *history.Store, entry history.Entry) tea.Cmd {
	return func() tea.Msg {
		if err := store.Record(entry); err != nil {
			logging.Warn("history record failed", "err", err)
		}
		return loadHistoryCmd(store)()
	}
}

func clearToastCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return ClearToastMsg{}
	})
}

func clearErrorCmd() tea.Cmd {
	return tea.Tick(6*time.Second, func(time.Time) tea.Msg {
		return ClearErrorMsg{}
	})
}

func clearProgressCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearProgressMsg{}
	})
}

// Update processes messages and returns the updated model and any
// commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(40, max(10, msg.Width-40))
		m.editor.SetWidth(max(20, msg.Width-8))
		m.editor.SetHeight(max(5, msg.Height-10))
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ChannelConnectedMsg:
		m.channel = msg.Client
		m.connected = true
		m.connError = ""
		m.reconnecting = false
		m.reconnectAttempt = 0
		m.tracker.SetConnected(true)
		cmds := []tea.Cmd{readEventCmd(m.channel)}
		// Flush joins requested while disconnected.
		for _, join := range m.pendingJoins {
			cmds = append(cmds, joinCmd(m.channel, join))
		}
		m.pendingJoins = nil
		logging.Info("event channel connected", "addr", m.cfg.Channel.Addr)
		return m, tea.Batch(cmds...)

	case ChannelConnectErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.tracker.SetConnected(false)
		if m.reconnectAttempt < m.cfg.Channel.ReconnectAttempts {
			m.reconnecting = true
			return m, reconnectCmd(m.cfg.Channel.ReconnectDelay)
		}
		m.reconnecting = false
		logging.Warn("event channel unreachable, giving up", "attempts", m.reconnectAttempt)
		return m, nil

	case ReconnectTickMsg:
		m.reconnectAttempt++
		return m, connectCmd(m.dial, m.cfg.Channel.Addr)

	case ChannelReadErrorMsg:
		m.connected = false
		m.connError = msg.Err.Error()
		m.tracker.SetConnected(false)
		if m.channel != nil {
			m.channel.Close()
			m.channel = nil
		}
		m.reconnecting = true
		m.reconnectAttempt = 0
		logging.Warn("event channel lost", "err", msg.Err)
		return m, reconnectCmd(m.cfg.Channel.ReconnectDelay)

	case ChannelEventMsg:
		cmd := m.handleEvent(msg.Envelope)
		if m.channel == nil {
			return m, cmd
		}
		return m, tea.Batch(cmd, readEventCmd(m.channel))

	case DomainsLoadedMsg:
		if msg.Err != nil {
			m.domainsErr = msg.Err.Error()
			return m, nil
		}
		m.domainsErr = ""
		m.domains = msg.Domains
		m.domainKeys = m.domainKeys[:0]
		for key := range msg.Domains {
			m.domainKeys = append(m.domainKeys, key)
		}
		sort.Strings(m.domainKeys)
		if m.domainIndex >= len(m.domainKeys) {
			m.domainIndex = max(0, len(m.domainKeys)-1)
		}
		return m, nil

	case PendingLoadedMsg:
		if msg.Err != nil {
			// Keep showing the stale list alongside the alert.
			m.postsErr = msg.Err.Error()
			return m, nil
		}
		m.postsErr = ""
		m.pending = msg.Posts
		m.clampPostCursor()
		return m, nil

	case ApprovedLoadedMsg:
		if msg.Err != nil {
			m.postsErr = msg.Err.Error()
			return m, nil
		}
		m.postsErr = ""
		m.approved = msg.Posts
		m.clampPostCursor()
		return m, nil

	case CacheStatsMsg:
		if msg.Err == nil {
			stats := msg.Stats
			m.cacheStats = &stats
		}
		return m, nil

	case CacheDomainsMsg:
		if msg.Err == nil {
			m.cacheByDomain = msg.Stats
		}
		return m, nil

	case ScrapeResultMsg:
		if msg.Err != nil {
			m.flow.ScrapeFailed(msg.Token)
			return m.notify(toastError, fmt.Sprintf("Erreur de scraping: %v", msg.Err))
		}
		if !m.flow.ApplyScrape(msg.Token, msg.Result.Articles) {
			logging.Debug("stale scrape response discarded", "domain", msg.Result.Domain)
			return m, nil
		}
		m.focus = FocusArticles
		m.articleIndex = 0
		var join tea.Cmd
		if msg.Result.SessionID != "" {
			join = m.join(backend.ClientMessage{
				Event:     backend.EventJoinScrapingSession,
				SessionID: msg.Result.SessionID,
			})
		}
		if msg.Result.FromCache {
			mm, cmd := m.notify(toastInfo, fmt.Sprintf("%d articles chargés depuis le cache", len(msg.Result.Articles)))
			return mm, tea.Batch(cmd, join, cacheStatsCmd(m.rest))
		}
		return m, join

	case GenerateResultMsg:
		if msg.Err != nil {
			m.flow.GenerateFailed(msg.Token)
			return m.notify(toastError, fmt.Sprintf("Échec de la génération: %v", msg.Err))
		}
		if !msg.Result.Success {
			m.flow.GenerateFailed(msg.Token)
			reason := msg.Result.Message
			if reason == "" {
				reason = "Échec de la génération"
			}
			return m.notify(toastError, reason)
		}
		if !m.flow.ApplyGenerate(msg.Token) {
			logging.Debug("stale generate response discarded")
			return m, nil
		}
		// Posts are persisted as soon as the request succeeds; the
		// workflow itself resets on the terminal channel event.
		cmds := []tea.Cmd{loadPendingCmd(m.rest)}
		if msg.Result.SessionID != "" {
			cmds = append(cmds, m.join(backend.ClientMessage{
				Event:     backend.EventJoinGenerationSession,
				SessionID: msg.Result.SessionID,
			}))
		}
		return m, tea.Batch(cmds...)

	case PostActionMsg:
		return m.handlePostAction(msg)

	case HistoryLoadedMsg:
		m.recent = msg.Entries
		return m, nil

	case ClearToastMsg:
		m.toast = ""
		return m, nil

	case ClearErrorMsg:
		m.tracker.ClearError()
		return m, nil

	case ClearProgressMsg:
		if !m.tracker.Active() {
			m.tracker.ClearProgress()
		}
		return m, nil
	}

	return m, nil
}

// handleEvent processes one channel event and returns any resulting
// command.
func (m *Model) handleEvent(env backend.Envelope) tea.Cmd {
	switch env.Event {
	case backend.EventSessionJoined:
		logging.Debug("session joined")

	case backend.EventScrapingStarted:
		ev, err := env.Started()
		if err != nil {
			logging.Warn("bad scraping_started payload", "err", err)
			return nil
		}
		m.tracker.Start(session.KindScraping, ev)
		m.flow.MarkScrapeStarted(time.Now())

	case backend.EventScrapingProgress:
		ev, err := env.Progress()
		if err != nil {
			return nil
		}
		m.tracker.Update(session.KindScraping, ev)

	case backend.EventScrapingCompleted:
		ev, err := env.Completed()
		if err != nil {
			return nil
		}
		if _, ok := m.tracker.Complete(session.KindScraping, ev); !ok {
			return nil
		}
		now := time.Now()
		m.flow.MarkScrapeCompleted(now)
		cmds := []tea.Cmd{clearProgressCmd(), cacheStatsCmd(m.rest)}
		if n := ev.Results.TotalArticles; n != nil {
			m.toast = fmt.Sprintf("%d articles trouvés", *n)
			m.toastLevel = toastInfo
			cmds = append(cmds, clearToastCmd())
		}
		if m.store != nil {
			entry := history.Entry{
				Kind:     "scraping",
				Domain:   firstNonEmpty(ev.Results.Domain, m.flow.Domain()),
				Outcome:  "completed",
				Articles: intOrZero(ev.Results.TotalArticles),
				EndedAt:  now,
			}
			if d, ok := m.flow.Elapsed(); ok {
				entry.Duration = d
			}
			cmds = append(cmds, recordHistoryCmd(m.store, entry))
		}
		return tea.Batch(cmds...)

	case backend.EventGenerationStarted:
		ev, err := env.Started()
		if err != nil {
			logging.Warn("bad generation_started payload", "err", err)
			return nil
		}
		m.tracker.Start(session.KindGeneration, ev)

	case backend.EventGenerationProgress:
		ev, err := env.Progress()
		if err != nil {
			return nil
		}
		m.tracker.Update(session.KindGeneration, ev)

	case backend.EventGenerationCompleted:
		ev, err := env.Completed()
		if err != nil {
			return nil
		}
		count, ok := m.tracker.Complete(session.KindGeneration, ev)
		if !ok {
			return nil
		}
		domain := m.flow.Domain()
		m.flow.CompleteGeneration()
		m.focus = FocusDomains
		m.articleIndex = 0
		cmds := []tea.Cmd{clearProgressCmd(), loadPendingCmd(m.rest)}
		if m.store != nil {
			cmds = append(cmds, recordHistoryCmd(m.store, history.Entry{
				Kind:    "generation",
				Domain:  domain,
				Outcome: "completed",
				Posts:   count,
				EndedAt: time.Now(),
			}))
		}
		return tea.Batch(cmds...)

	case backend.EventError:
		ev, err := env.ChannelError()
		if err != nil {
			return nil
		}
		kind := m.tracker.Kind
		domain := m.flow.Domain()
		if !m.tracker.Fail(ev) {
			return nil
		}
		if kind == session.KindGeneration {
			m.flow.AbortGeneration()
		}
		logging.Warn("backend job failed", "type", ev.Error.Type, "msg", ev.Error.Message)
		cmds := []tea.Cmd{clearErrorCmd()}
		if m.store != nil && kind != session.KindNone {
			cmds = append(cmds, recordHistoryCmd(m.store, history.Entry{
				Kind:    kind.String(),
				Domain:  domain,
				Outcome: "failed",
				EndedAt: time.Now(),
			}))
		}
		return tea.Batch(cmds...)
	}

	return nil
}

// join emits a session join, or queues it until the channel is back.
func (m *Model) join(msg backend.ClientMessage) tea.Cmd {
	if !m.connected || m.channel == nil {
		m.pendingJoins = append(m.pendingJoins, msg)
		return nil
	}
	return joinCmd(m.channel, msg)
}

// handleKey processes key presses outside the edit overlay.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyCtrlC:
		if m.channel != nil {
			m.channel.Close()
		}
		return m, tea.Quit

	case KeyTab:
		switch m.view {
		case ViewWorkflow:
			m.view = ViewPending
			m.postIndex = 0
			m.expandedPost = -1
			return m, loadPendingCmd(m.rest)
		case ViewPending:
			m.view = ViewApproved
			m.postIndex = 0
			m.expandedPost = -1
			return m, loadApprovedCmd(m.rest)
		default:
			m.view = ViewWorkflow
			return m, nil
		}

	case KeyReconnect:
		if !m.connected && !m.reconnecting {
			m.reconnectAttempt = 0
			m.reconnecting = true
			return m, connectCmd(m.dial, m.cfg.Channel.Addr)
		}
		return m, nil

	case KeyRefresh:
		switch m.view {
		case ViewPending:
			return m, loadPendingCmd(m.rest)
		case ViewApproved:
			return m, loadApprovedCmd(m.rest)
		default:
			return m, tea.Batch(loadDomainsCmd(m.rest), cacheStatsCmd(m.rest))
		}

	case KeyDown, KeyJ:
		m.moveCursor(1)
		return m, nil

	case KeyUp, KeyK:
		m.moveCursor(-1)
		return m, nil

	case KeyEnter:
		return m.handleEnter()

	case KeyEsc:
		m.toast = ""
		if m.view == ViewWorkflow {
			m.focus = FocusDomains
		}
		return m, nil

	case KeySpace:
		if m.view != ViewWorkflow || m.focus != FocusArticles {
			return m, nil
		}
		if warning := m.flow.Toggle(m.articleIndex); warning != "" {
			return m.notify(toastWarn, warning)
		}
		return m, nil

	case KeySelectAll:
		if m.view != ViewWorkflow || len(m.flow.Articles()) == 0 {
			return m, nil
		}
		if warning := m.flow.SelectAll(); warning != "" {
			return m.notify(toastWarn, warning)
		}
		return m, nil

	case KeyClearAll:
		if m.view == ViewWorkflow {
			m.flow.ClearAll()
		}
		return m, nil

	case KeyScrape:
		return m.startScrape(false)

	case KeyForceScrape:
		return m.startScrape(true)

	case KeyMorePosts, KeyMorePostsAlt:
		if m.numberOfPosts < maxPostsPerRun {
			m.numberOfPosts++
		}
		return m, nil

	case KeyFewerPosts:
		if m.numberOfPosts > 1 {
			m.numberOfPosts--
		}
		return m, nil

	case KeyGenerate:
		return m.startGenerate()

	case KeyApprove:
		if m.view != ViewPending {
			return m, nil
		}
		if post, ok := m.cursorPost(); ok {
			return m, postActionCmd(m.rest, ActionApprove, post.ID)
		}
		return m, nil

	case KeyPublish:
		if m.view != ViewApproved {
			return m, nil
		}
		if post, ok := m.cursorPost(); ok && !post.Published {
			return m, postActionCmd(m.rest, ActionPublish, post.ID)
		}
		return m, nil

	case KeyDelete:
		if m.view == ViewWorkflow {
			return m, nil
		}
		if post, ok := m.cursorPost(); ok {
			return m, postActionCmd(m.rest, ActionDelete, post.ID)
		}
		return m, nil

	case KeyEdit:
		if m.view == ViewWorkflow {
			return m, nil
		}
		if post, ok := m.cursorPost(); ok {
			m.editing = true
			m.editID = post.ID
			m.editor.SetValue(post.Content)
			return m, m.editor.Focus()
		}
		return m, nil
	}

	return m, nil
}

// handleEditKey routes keys to the edit overlay.
func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.editing = false
		m.editor.Blur()
		return m, nil

	case KeySaveEdit:
		content := m.editor.Value()
		m.editing = false
		m.editor.Blur()
		return m, editPostCmd(m.rest, m.editID, content)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m Model) startScrape(force bool) (tea.Model, tea.Cmd) {
	if m.view != ViewWorkflow {
		return m, nil
	}
	if m.flow.Domain() == "" {
		return m.notify(toastWarn, "Sélectionnez d'abord un domaine")
	}
	if !m.connected {
		return m.notify(toastWarn, "Canal d'événements déconnecté")
	}
	if m.tracker.Active() {
		return m.notify(toastWarn, "Une session est déjà en cours")
	}
	token := m.flow.BeginScrape()
	return m, scrapeCmd(m.rest, m.flow.Domain(), force, token)
}

func (m Model) startGenerate() (tea.Model, tea.Cmd) {
	if m.view != ViewWorkflow {
		return m, nil
	}
	if !m.connected {
		return m.notify(toastWarn, "Canal d'événements déconnecté")
	}
	if m.tracker.Active() {
		return m.notify(toastWarn, "Une session est déjà en cours")
	}
	if !m.flow.CanGenerate() {
		return m.notify(toastWarn, m.flow.GenerateDisabledReason())
	}
	token := m.flow.BeginGenerate()
	return m, generateCmd(m.rest, m.flow.SelectedArticles(), m.flow.Domain(), m.numberOfPosts, token)
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.view {
	case ViewWorkflow:
		if m.focus == FocusDomains && m.domainIndex < len(m.domainKeys) {
			m.flow.SelectDomain(m.domainKeys[m.domainIndex])
			m.articleIndex = 0
			return m, cacheDomainsCmd(m.rest)
		}
		return m, nil
	default:
		if m.expandedPost == m.postIndex {
			m.expandedPost = -1
		} else {
			m.expandedPost = m.postIndex
		}
		return m, nil
	}
}

func (m Model) handlePostAction(msg PostActionMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m.notify(toastError, fmt.Sprintf("Erreur: %v", msg.Err))
	}
	if !msg.Result.Success {
		reason := msg.Result.Message
		if reason == "" {
			reason = "L'opération a échoué"
		}
		return m.notify(toastError, reason)
	}

	var note string
	switch msg.Action {
	case ActionApprove:
		note = "Post approuvé"
	case ActionPublish:
		note = "Post publié !"
	case ActionDelete:
		note = "Post supprimé"
	case ActionEdit:
		note = "Post modifié"
	}
	mm, cmd := m.notify(toastInfo, note)
	return mm, tea.Batch(cmd, loadPendingCmd(m.rest), loadApprovedCmd(m.rest))
}

// notify sets the transient toast and schedules its expiry.
func (m Model) notify(level toastLevel, text string) (Model, tea.Cmd) {
	m.toast = text
	m.toastLevel = level
	return m, clearToastCmd()
}

func (m *Model) moveCursor(delta int) {
	switch m.view {
	case ViewWorkflow:
		if m.focus == FocusArticles {
			m.articleIndex = clamp(m.articleIndex+delta, 0, len(m.flow.Articles())-1)
		} else {
			m.domainIndex = clamp(m.domainIndex+delta, 0, len(m.domainKeys)-1)
		}
	default:
		m.postIndex = clamp(m.postIndex+delta, 0, len(m.visiblePosts())-1)
	}
}

func (m Model) visiblePosts() []api.Post {
	if m.view == ViewApproved {
		return m.approved
	}
	return m.pending
}

func (m Model) cursorPost() (api.Post, bool) {
	posts := m.visiblePosts()
	if m.postIndex < 0 || m.postIndex >= len(posts) {
		return api.Post{}, false
	}
	return posts[m.postIndex], true
}

func (m *Model) clampPostCursor() {
	m.postIndex = clamp(m.postIndex, 0, len(m.visiblePosts())-1)
	if m.expandedPost >= len(m.visiblePosts()) {
		m.expandedPost = -1
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
