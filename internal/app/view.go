package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"postdesk/internal/api"
	"postdesk/internal/history"
	"postdesk/internal/ui"
	"postdesk/internal/workflow"
)

// View renders the full console.
func (m Model) View() string {
	if m.width == 0 {
		return "Initialisation..."
	}

	if m.editing {
		return m.renderEditOverlay()
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderTabs())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if line := m.renderStatusLine(); line != "" {
		sections = append(sections, line)
	}

	switch m.view {
	case ViewPending:
		sections = append(sections, m.renderPosts(m.pending, "EN ATTENTE"))
	case ViewApproved:
		sections = append(sections, m.renderPosts(m.approved, "APPROUVÉS"))
	default:
		sections = append(sections, m.renderWorkflow())
	}

	if m.toast != "" {
		sections = append(sections, m.renderToast())
	}
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("POSTDESK")

	var dot string
	if m.connected {
		dot = ui.ConnectedDotStyle.Render("● connecté")
	} else if m.reconnecting {
		dot = ui.DisconnectedDotStyle.Render("○ reconnexion...")
	} else {
		dot = ui.DisconnectedDotStyle.Render("○ déconnecté") + ui.DimStyle.Render(" (R pour réessayer)")
	}

	var cache string
	if m.cacheStats != nil {
		cache = ui.CacheBadgeStyle.Render(fmt.Sprintf("  cache: %d frais / %d articles",
			m.cacheStats.FreshArticles, m.cacheStats.TotalArticles))
	}

	return title + "  " + dot + cache
}

func (m Model) renderTabs() string {
	tabs := []struct {
		view  View
		label string
	}{
		{ViewWorkflow, "Workflow"},
		{ViewPending, fmt.Sprintf("En attente (%d)", len(m.pending))},
		{ViewApproved, fmt.Sprintf("Approuvés (%d)", len(m.approved))},
	}

	var parts []string
	for _, tab := range tabs {
		if tab.view == m.view {
			parts = append(parts, ui.PanelTitleActiveStyle.Render("[ "+tab.label+" ]"))
		} else {
			parts = append(parts, ui.DimStyle.Render("  "+tab.label+"  "))
		}
	}
	return strings.Join(parts, " ")
}

// renderStatusLine shows the active session progress or the last
// backend job error. Empty when there is nothing to report.
func (m Model) renderStatusLine() string {
	if m.tracker.Err != "" {
		return ui.ErrorStyle.Render("Erreur: ") + ui.ErrorTextStyle.Render(m.tracker.Err)
	}
	p := m.tracker.Progress
	if p == nil {
		return ""
	}

	var spin string
	if m.tracker.Active() {
		spin = m.spin.View() + " "
	}
	bar := m.bar.ViewAs(p.Percentage / 100)
	pct := ui.DimStyle.Render(fmt.Sprintf(" %3.0f%%", p.Percentage))
	return spin + bar + pct + "  " + ui.ProgressMessageStyle.Render(p.Message)
}

func (m Model) renderWorkflow() string {
	domainW := m.domainPanelWidth()
	articleW := max(20, m.width-domainW-3)
	contentH := m.contentHeight()

	domainPanel := m.renderDomainPanel(domainW, contentH)
	articlePanel := m.renderArticlePanel(articleW, contentH)

	divider := ui.DividerStyle.Render("│")
	domainLines := strings.Split(domainPanel, "\n")
	articleLines := strings.Split(articlePanel, "\n")

	var rows []string
	for i := 0; i < contentH; i++ {
		left := strings.Repeat(" ", domainW)
		if i < len(domainLines) {
			left = padRight(domainLines[i], domainW)
		}
		right := ""
		if i < len(articleLines) {
			right = articleLines[i]
		}
		rows = append(rows, left+divider+right)
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderDomainPanel(width, height int) string {
	var header string
	if m.focus == FocusDomains {
		header = ui.PanelTitleActiveStyle.Render("DOMAINES")
	} else {
		header = ui.PanelTitleStyle.Render("DOMAINES")
	}

	lines := []string{header}

	if m.domainsErr != "" {
		lines = append(lines, ui.ErrorTextStyle.Render("  API injoignable"))
		lines = append(lines, ui.DimStyle.Render("  r pour réessayer"))
	} else if len(m.domainKeys) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Chargement..."))
	} else {
		for i, key := range m.domainKeys {
			domain := m.domains[key]
			dot := ui.DomainColor(domain.Color).Render("●")
			name := domain.Name
			if name == "" {
				name = key
			}

			var line string
			switch {
			case key == m.flow.Domain():
				line = "  " + dot + " " + ui.SelectedStyle.Render(name+" ✓")
				if stats, ok := m.cacheByDomain[key]; ok && stats.CachedCount > 0 {
					line += ui.CacheBadgeStyle.Render(fmt.Sprintf(" %d en cache", stats.CachedCount))
				}
			case i == m.domainIndex && m.focus == FocusDomains:
				line = ui.SelectedStyle.Render("> ") + dot + " " + ui.SelectedStyle.Render(name)
			default:
				line = "  " + dot + " " + name
			}
			lines = append(lines, truncateToWidth(line, width))
		}
	}

	// Recent history at the bottom of the panel.
	if len(m.recent) > 0 && height-len(lines) > len(m.recent)+2 {
		for len(lines) < height-len(m.recent)-1 {
			lines = append(lines, "")
		}
		lines = append(lines, ui.PanelTitleStyle.Render("RÉCENT"))
		for _, e := range m.recent {
			lines = append(lines, truncateToWidth(ui.DimStyle.Render("  "+historyLine(e)), width))
		}
	}

	return joinPanel(lines, width, height)
}

func historyLine(e history.Entry) string {
	var what string
	switch {
	case e.Outcome == "failed":
		what = "échec"
	case e.Kind == "generation":
		what = fmt.Sprintf("%d posts", e.Posts)
	default:
		what = fmt.Sprintf("%d articles", e.Articles)
	}
	return fmt.Sprintf("%s %s — %s", e.EndedAt.Format("15:04"), e.Domain, what)
}

func (m Model) renderArticlePanel(width, height int) string {
	var header string
	label := "ARTICLES"
	if n := len(m.flow.Articles()); n > 0 {
		label = fmt.Sprintf("ARTICLES (%d)", n)
	}
	if m.focus == FocusArticles {
		header = ui.PanelTitleActiveStyle.Render(label)
	} else {
		header = ui.PanelTitleStyle.Render(label)
	}

	if d, ok := m.flow.Elapsed(); ok {
		header += ui.DimStyle.Render(fmt.Sprintf("  scrapé en %s", formatDuration(d)))
	}

	lines := []string{header}

	articles := m.flow.Articles()
	switch {
	case m.flow.Phase() == workflow.PhaseIdle:
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Choisissez un domaine puis lancez le scraping (s)"))
	case len(articles) == 0:
		lines = append(lines, "")
		if m.tracker.Active() {
			lines = append(lines, ui.DimStyle.Render("  Scraping en cours..."))
		} else {
			lines = append(lines, ui.DimStyle.Render("  Aucun article. Lancez le scraping (s, S pour forcer)"))
		}
	default:
		lines = append(lines, m.renderSelectionSummary())
		start, end := visibleRange(len(articles), m.articleIndex, height-3)
		for i := start; i < end; i++ {
			lines = append(lines, truncateToWidth(m.renderArticleLine(i, articles[i]), width))
		}
	}

	return joinPanel(lines, width, height)
}

func (m Model) renderSelectionSummary() string {
	count := len(m.flow.Selected())
	summary := fmt.Sprintf("  %d/%d sélectionnés", count, m.flow.MaxSelected())
	if m.numberOfPosts > 1 {
		summary += fmt.Sprintf(" · %d posts", m.numberOfPosts)
	}
	if m.flow.CanGenerate() {
		return ui.SuccessStyle.Render(summary + " · g pour générer")
	}
	return ui.DimStyle.Render(summary)
}

func (m Model) renderArticleLine(i int, article api.Article) string {
	var check string
	if m.flow.IsSelected(i) {
		check = ui.CheckedStyle.Render("[x]")
	} else {
		check = ui.DimStyle.Render("[ ]")
	}

	meta := ui.DimStyle.Render(fmt.Sprintf(" — %s (%.1f)", article.Source, article.RelevanceScore))

	if i == m.articleIndex && m.focus == FocusArticles {
		return ui.SelectedStyle.Render("> ") + check + " " + ui.SelectedStyle.Render(article.Title) + meta
	}
	return "  " + check + " " + article.Title + meta
}

func (m Model) renderPosts(posts []api.Post, label string) string {
	width := m.width
	height := m.contentHeight()

	lines := []string{ui.PanelTitleStyle.Render(fmt.Sprintf("%s (%d)", label, len(posts)))}

	if m.postsErr != "" {
		lines = append(lines, ui.ErrorTextStyle.Render("  Impossible de rafraîchir la liste — données non à jour"))
	}

	if len(posts) == 0 {
		lines = append(lines, "")
		lines = append(lines, ui.DimStyle.Render("  Aucun post"))
		return joinPanel(lines, width, height)
	}

	start, end := visibleRange(len(posts), m.postIndex, height-2)
	for i := start; i < end; i++ {
		post := posts[i]
		lines = append(lines, truncateToWidth(m.renderPostLine(i, post), width))

		if i == m.expandedPost {
			for _, wl := range wrapText(post.Content, max(20, width-8)) {
				lines = append(lines, ui.DimStyle.Render("      "+wl))
			}
			if len(post.Hashtags) > 0 {
				lines = append(lines, ui.BadgeStyle.Render("      "+strings.Join(post.Hashtags, " ")))
			}
			for _, src := range post.SourceArticles {
				lines = append(lines, truncateToWidth(ui.DimStyle.Render("      ↳ "+src.Title+" ("+src.Source+")"), width))
			}
		}
	}

	return joinPanel(lines, width, height)
}

func (m Model) renderPostLine(i int, post api.Post) string {
	first := firstLine(post.Content)

	var badges string
	if post.Published {
		badges = " " + ui.SuccessStyle.Render("[publié]")
	} else if post.Approved {
		badges = " " + ui.BadgeStyle.Render("[approuvé]")
	}
	meta := ui.DimStyle.Render(fmt.Sprintf(" — %s · %d sources", post.DomainName, post.SourcesCount))

	if i == m.postIndex {
		return ui.SelectedStyle.Render("> "+first) + badges + meta
	}
	return "  " + first + badges + meta
}

func (m Model) renderToast() string {
	switch m.toastLevel {
	case toastError:
		return ui.ErrorTextStyle.Render(m.toast)
	case toastWarn:
		return ui.WarnStyle.Render(m.toast)
	default:
		return ui.SuccessStyle.Render(m.toast)
	}
}

func (m Model) renderFooter() string {
	var parts []string
	key := func(k, desc string) {
		parts = append(parts, ui.FooterKeyStyle.Render(k)+ui.FooterDescStyle.Render(" "+desc))
	}

	switch m.view {
	case ViewWorkflow:
		key("Entrée", "Domaine")
		key("s/S", "Scraper")
		key("Espace", "Sélection")
		key("a/c", "Tout/Rien")
		key("+/-", "Nb posts")
		key("g", "Générer")
	default:
		if m.view == ViewPending {
			key("A", "Approuver")
		} else {
			key("P", "Publier")
		}
		key("e", "Modifier")
		key("d", "Supprimer")
		key("Entrée", "Détail")
		key("r", "Rafraîchir")
	}
	key("Tab", "Vue")
	key("q", "Quitter")

	return strings.Join(parts, "  ")
}

func (m Model) renderEditOverlay() string {
	title := ui.PanelTitleStyle.Render(fmt.Sprintf("MODIFIER LE POST #%d", m.editID))
	hints := ui.FooterKeyStyle.Render("ctrl+s") + ui.FooterDescStyle.Render(" Enregistrer") +
		"  " + ui.FooterKeyStyle.Render("échap") + ui.FooterDescStyle.Render(" Annuler")
	return strings.Join([]string{title, "", m.editor.View(), "", hints}, "\n")
}

func (m Model) domainPanelWidth() int {
	if m.width == 0 {
		return 30
	}
	return max(24, m.width*30/100)
}

func (m Model) contentHeight() int {
	if m.height == 0 {
		return 20
	}
	// header + tabs + divider + status + toast + divider + footer
	return max(5, m.height-7)
}

// Helpers

// visibleRange windows a list of n items around the cursor.
func visibleRange(n, cursor, visible int) (int, int) {
	if visible < 1 {
		visible = 1
	}
	if n <= visible {
		return 0, n
	}
	start := cursor - visible/2
	if start < 0 {
		start = 0
	}
	if start+visible > n {
		start = n - visible
	}
	return start, start + visible
}

func joinPanel(lines []string, width, height int) string {
	for len(lines) < height {
		lines = append(lines, "")
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	return strings.Join(lines, "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
}

func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// truncateToWidth cuts a line to the panel width without splitting
// escape sequences or styling.
func truncateToWidth(s string, width int) string {
	return ansi.Truncate(s, width, "…")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
