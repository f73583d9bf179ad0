package app

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"postdesk/internal/api"
	"postdesk/internal/backend"
	"postdesk/internal/config"
	"postdesk/internal/workflow"
)

func testModel() Model {
	cfg := config.Config{
		API: config.APIConfig{
			BaseURL:        "http://127.0.0.1:0/api",
			Timeout:        time.Second,
			ScrapeInterval: time.Millisecond,
		},
		Channel: config.ChannelConfig{
			Addr:              "127.0.0.1:0",
			ReconnectAttempts: 2,
			ReconnectDelay:    time.Millisecond,
		},
		Selection: config.SelectionConfig{MaxArticles: 5, MinArticles: 2},
	}
	m := New(cfg, nil)
	m.width = 100
	m.height = 30
	return m
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	nm, cmd := m.Update(msg)
	return nm.(Model), cmd
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func envOf(t *testing.T, event string, payload any) backend.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return backend.Envelope{Event: event, Data: raw}
}

func testArticles(n int) []api.Article {
	out := make([]api.Article, n)
	for i := range out {
		out[i] = api.Article{Title: "article", URL: "https://example.com", Source: "src"}
	}
	return out
}

// scrapedModel returns a model with a selected domain and n scraped
// articles, focus on the article panel.
func scrapedModel(t *testing.T, n int) Model {
	t.Helper()
	m := testModel()
	m.connected = true
	m.flow.SelectDomain("ai")
	token := m.flow.BeginScrape()
	m, _ = applyUpdate(m, ScrapeResultMsg{Token: token, Result: api.ScrapeResult{
		Success:  true,
		Articles: testArticles(n),
		Domain:   "ai",
	}})
	return m
}

func TestConnectErrorSchedulesReconnect(t *testing.T) {
	m := testModel()

	m, cmd := applyUpdate(m, ChannelConnectErrorMsg{Err: errors.New("refused")})
	if !m.reconnecting {
		t.Error("expected reconnecting after first failure")
	}
	if cmd == nil {
		t.Error("expected a reconnect tick to be scheduled")
	}

	// Exhaust the attempt budget.
	m.reconnectAttempt = m.cfg.Channel.ReconnectAttempts
	m, cmd = applyUpdate(m, ChannelConnectErrorMsg{Err: errors.New("refused")})
	if m.reconnecting {
		t.Error("expected no automatic retry after budget exhausted")
	}
	if cmd != nil {
		t.Error("expected no command after budget exhausted")
	}
}

func TestJoinQueuedWhileDisconnected(t *testing.T) {
	m := testModel()
	m.flow.SelectDomain("ai")
	token := m.flow.BeginScrape()

	m, _ = applyUpdate(m, ScrapeResultMsg{Token: token, Result: api.ScrapeResult{
		Success:   true,
		SessionID: "s1",
		Articles:  testArticles(2),
	}})

	if len(m.pendingJoins) != 1 {
		t.Fatalf("pendingJoins = %d, want 1", len(m.pendingJoins))
	}
	join := m.pendingJoins[0]
	if join.Event != backend.EventJoinScrapingSession || join.SessionID != "s1" {
		t.Errorf("queued join = %+v", join)
	}
}

func TestScrapeResultInstallsArticles(t *testing.T) {
	m := scrapedModel(t, 3)

	if got := len(m.flow.Articles()); got != 3 {
		t.Fatalf("articles = %d, want 3", got)
	}
	if m.flow.Phase() != workflow.PhaseScraped {
		t.Errorf("phase = %v, want scraped", m.flow.Phase())
	}
	if m.focus != FocusArticles {
		t.Error("expected focus to move to the article panel")
	}
}

func TestStaleScrapeResultIgnored(t *testing.T) {
	m := testModel()
	m.flow.SelectDomain("ai")
	token := m.flow.BeginScrape()

	// Operator moves on before the response lands.
	m.flow.SelectDomain("cloud")

	m, _ = applyUpdate(m, ScrapeResultMsg{Token: token, Result: api.ScrapeResult{
		Success:  true,
		Articles: testArticles(4),
	}})

	if len(m.flow.Articles()) != 0 {
		t.Error("stale scrape response must not install articles")
	}
	if m.flow.Domain() != "cloud" {
		t.Errorf("domain = %q, want cloud", m.flow.Domain())
	}
}

func TestScrapeErrorToastsAndKeepsPhase(t *testing.T) {
	m := testModel()
	m.flow.SelectDomain("ai")
	token := m.flow.BeginScrape()

	m, cmd := applyUpdate(m, ScrapeResultMsg{Token: token, Err: errors.New("timeout")})
	if m.toast == "" || m.toastLevel != toastError {
		t.Errorf("toast = %q level %v, want error toast", m.toast, m.toastLevel)
	}
	if cmd == nil {
		t.Error("expected toast expiry to be scheduled")
	}
	if m.flow.Phase() != workflow.PhaseDomainSelected {
		t.Errorf("phase = %v, want domain_selected", m.flow.Phase())
	}
}

func TestScrapingEventsDriveTracker(t *testing.T) {
	m := scrapedModel(t, 2)

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingStarted,
		backend.SessionStarted{SessionID: "s1", Domain: "ai"})})
	if !m.tracker.Active() {
		t.Fatal("expected an active session after scraping_started")
	}

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingProgress,
		backend.ProgressEvent{SessionID: "s1", Type: backend.StageDomainStarted, Domain: "ai"})})
	if m.tracker.Progress == nil || m.tracker.Progress.Percentage != 10 {
		t.Fatalf("progress = %+v, want 10%%", m.tracker.Progress)
	}

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingCompleted,
		backend.SessionCompleted{SessionID: "s1", Results: backend.SessionResults{
			TotalArticles: backend.IntPtr(12),
		}})})
	if m.tracker.Active() {
		t.Error("expected session to end on scraping_completed")
	}
	if m.tracker.Progress == nil || m.tracker.Progress.Message != "Scraping terminé !" {
		t.Errorf("terminal progress = %+v", m.tracker.Progress)
	}
	if _, ok := m.flow.Elapsed(); !ok {
		t.Error("expected an elapsed measurement after completion")
	}
}

func TestForeignSessionEventsDropped(t *testing.T) {
	m := testModel()

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingStarted,
		backend.SessionStarted{SessionID: "s1", Domain: "ai"})})
	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingProgress,
		backend.ProgressEvent{SessionID: "other", Type: backend.StageDomainCompleted})})

	if m.tracker.Progress.Percentage == 100 {
		t.Error("progress from a foreign session must be dropped")
	}
}

func TestGenerationCompletedResetsWorkflow(t *testing.T) {
	m := scrapedModel(t, 3)
	m.flow.Toggle(0)
	m.flow.Toggle(1)
	token := m.flow.BeginGenerate()
	m, _ = applyUpdate(m, GenerateResultMsg{Token: token, Result: api.GenerateResult{Success: true}})

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventGenerationStarted,
		backend.SessionStarted{SessionID: "g1", Domain: "ai"})})
	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventGenerationCompleted,
		backend.SessionCompleted{SessionID: "g1", Results: backend.SessionResults{
			PostsCount: backend.IntPtr(2),
		}})})

	if m.flow.Phase() != workflow.PhaseIdle {
		t.Errorf("phase = %v, want idle after completion", m.flow.Phase())
	}
	if m.flow.Domain() != "" {
		t.Error("domain must clear after a completed generation")
	}
	if m.tracker.Progress == nil || m.tracker.Progress.Message != "2 posts générés avec succès !" {
		t.Errorf("terminal progress = %+v", m.tracker.Progress)
	}
}

func TestGenerateFailureRestoresPhase(t *testing.T) {
	m := scrapedModel(t, 3)
	m.flow.Toggle(0)
	m.flow.Toggle(1)
	token := m.flow.BeginGenerate()

	m, _ = applyUpdate(m, GenerateResultMsg{Token: token, Err: errors.New("llm down")})
	if m.flow.Phase() != workflow.PhaseArticlesSelected {
		t.Errorf("phase = %v, want articles_selected restored", m.flow.Phase())
	}
	if m.toastLevel != toastError {
		t.Errorf("toast level = %v, want error", m.toastLevel)
	}
}

func TestBackendGenerationErrorKeepsSelection(t *testing.T) {
	m := scrapedModel(t, 3)
	m.flow.Toggle(0)
	m.flow.Toggle(1)
	token := m.flow.BeginGenerate()
	m, _ = applyUpdate(m, GenerateResultMsg{Token: token, Result: api.GenerateResult{
		Success:   true,
		SessionID: "g1",
	}})

	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventGenerationStarted,
		backend.SessionStarted{SessionID: "g1", Domain: "ai"})})
	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventError,
		backend.ChannelError{SessionID: "g1", Error: backend.ErrorDetail{
			Type: "generation_error", Message: "llm down",
		}})})

	if m.flow.Phase() != workflow.PhaseArticlesSelected {
		t.Errorf("phase = %v, want articles_selected after backend failure", m.flow.Phase())
	}
	if got := len(m.flow.Selected()); got != 2 {
		t.Errorf("selected = %d, want selection kept", got)
	}
	if !m.flow.CanGenerate() {
		t.Error("generate must be retryable after a backend failure")
	}
}

func TestBackendErrorEventSetsTrackerError(t *testing.T) {
	m := testModel()
	m, _ = applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventScrapingStarted,
		backend.SessionStarted{SessionID: "s1", Domain: "ai"})})

	m, cmd := applyUpdate(m, ChannelEventMsg{Envelope: envOf(t, backend.EventError,
		backend.ChannelError{SessionID: "s1", Error: backend.ErrorDetail{
			Type: "scraping_error", Message: "source injoignable",
		}})})

	if m.tracker.Err != "source injoignable" {
		t.Errorf("tracker err = %q", m.tracker.Err)
	}
	if m.tracker.Active() {
		t.Error("session must end on a job error")
	}
	if cmd == nil {
		t.Error("expected error expiry to be scheduled")
	}
}

func TestToggleCapWarnsViaToast(t *testing.T) {
	m := scrapedModel(t, 6)

	for i := 0; i < 5; i++ {
		m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeySpace})
		m, _ = applyUpdate(m, keyRunes("j"))
	}
	if got := len(m.flow.Selected()); got != 5 {
		t.Fatalf("selected = %d, want 5", got)
	}

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.flow.Selected()) != 5 {
		t.Error("cap overflow must not change the selection")
	}
	if !strings.Contains(m.toast, "5 articles maximum") {
		t.Errorf("toast = %q, want cap warning", m.toast)
	}
}

func TestGenerateRequiresMinimumSelection(t *testing.T) {
	m := scrapedModel(t, 3)
	m.flow.Toggle(0)

	m, _ = applyUpdate(m, keyRunes("g"))
	if m.toast != "Sélectionnez au moins 2 articles pour générer un post" {
		t.Errorf("toast = %q", m.toast)
	}
	if m.flow.Phase() == workflow.PhaseGenerating {
		t.Error("generation must not start below the minimum")
	}
}

func TestGenerateBlockedWhileDisconnected(t *testing.T) {
	m := scrapedModel(t, 3)
	m.flow.Toggle(0)
	m.flow.Toggle(1)
	m.connected = false

	m, _ = applyUpdate(m, keyRunes("g"))
	if m.flow.Phase() == workflow.PhaseGenerating {
		t.Error("generation must be blocked without the event channel")
	}
	if m.toast == "" {
		t.Error("expected a toast explaining the blocked action")
	}
}

func TestNumberOfPostsBounds(t *testing.T) {
	m := testModel()
	for i := 0; i < 10; i++ {
		m, _ = applyUpdate(m, keyRunes("+"))
	}
	if m.numberOfPosts != maxPostsPerRun {
		t.Errorf("numberOfPosts = %d, want %d", m.numberOfPosts, maxPostsPerRun)
	}
	for i := 0; i < 10; i++ {
		m, _ = applyUpdate(m, keyRunes("-"))
	}
	if m.numberOfPosts != 1 {
		t.Errorf("numberOfPosts = %d, want 1", m.numberOfPosts)
	}
}

func TestTabCyclesViews(t *testing.T) {
	m := testModel()
	views := []View{ViewPending, ViewApproved, ViewWorkflow}
	for _, want := range views {
		m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyTab})
		if m.view != want {
			t.Fatalf("view = %v, want %v", m.view, want)
		}
	}
}

func TestPostActionSuccessToasts(t *testing.T) {
	m := testModel()
	m, cmd := applyUpdate(m, PostActionMsg{
		Action: ActionPublish,
		ID:     7,
		Result: api.ActionResult{Success: true},
	})
	if m.toast != "Post publié !" {
		t.Errorf("toast = %q", m.toast)
	}
	if cmd == nil {
		t.Error("expected list reloads after a post action")
	}
}

func TestPostsLoadErrorKeepsStaleList(t *testing.T) {
	m := testModel()
	m.pending = []api.Post{{ID: 1}, {ID: 2}}

	m, _ = applyUpdate(m, PendingLoadedMsg{Err: errors.New("api down")})
	if len(m.pending) != 2 {
		t.Error("stale list must survive a failed refresh")
	}
	if m.postsErr == "" {
		t.Error("expected an inline alert")
	}
}

func TestEditOverlayLifecycle(t *testing.T) {
	m := testModel()
	m.view = ViewPending
	m.pending = []api.Post{{ID: 3, Content: "brouillon"}}

	m, _ = applyUpdate(m, keyRunes("e"))
	if !m.editing || m.editID != 3 {
		t.Fatalf("editing = %v editID = %d", m.editing, m.editID)
	}
	if m.editor.Value() != "brouillon" {
		t.Errorf("editor value = %q", m.editor.Value())
	}

	m, _ = applyUpdate(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing {
		t.Error("esc must cancel the edit")
	}
}

func TestSelectAllTruncationWarns(t *testing.T) {
	m := scrapedModel(t, 8)

	m, _ = applyUpdate(m, keyRunes("a"))
	if got := len(m.flow.Selected()); got != 5 {
		t.Fatalf("selected = %d, want 5", got)
	}
	if !strings.Contains(m.toast, "5 premiers articles") {
		t.Errorf("toast = %q, want truncation warning", m.toast)
	}
}

func TestViewRenders(t *testing.T) {
	m := testModel()
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = applyUpdate(m, DomainsLoadedMsg{Domains: map[string]api.Domain{
		"ai": {Name: "Intelligence Artificielle", Color: "#FF0000"},
	}})

	out := m.View()
	if !strings.Contains(out, "POSTDESK") {
		t.Error("view must render the title")
	}
	if !strings.Contains(out, "DOMAINES") {
		t.Error("view must render the domain panel")
	}
	if !strings.Contains(out, "Intelligence Artificielle") {
		t.Error("view must list loaded domains")
	}
}

func TestTruncateKeepsStylingIntact(t *testing.T) {
	styled := "\x1b[31m" + strings.Repeat("x", 40) + "\x1b[0m"

	got := truncateToWidth(styled, 10)
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("visible width = %d, want <= 10", w)
	}
	if !strings.Contains(got, "…") {
		t.Error("expected an ellipsis on the truncated line")
	}
	if !strings.Contains(got, "\x1b[0m") {
		t.Error("reset sequence must survive truncation")
	}

	if short := truncateToWidth(styled, 80); short != styled {
		t.Error("lines that fit must pass through unchanged")
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := testModel()
	m.width = 0
	if out := m.View(); out == "" {
		t.Error("view must render a placeholder before the first resize")
	}
}
