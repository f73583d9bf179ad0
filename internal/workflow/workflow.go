// Package workflow drives the three-step operator flow: choose a
// domain, scrape it, select articles under the cap, generate posts.
package workflow

import (
	"fmt"
	"time"

	"postdesk/internal/api"
)

// Phase is the workflow state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDomainSelected
	PhaseScraped
	PhaseArticlesSelected
	PhaseGenerating
)

func (p Phase) String() string {
	switch p {
	case PhaseDomainSelected:
		return "domain_selected"
	case PhaseScraped:
		return "scraped"
	case PhaseArticlesSelected:
		return "articles_selected"
	case PhaseGenerating:
		return "generating"
	default:
		return "idle"
	}
}

// Controller owns the article list, the selection set and the phase.
// Selection indices are only valid against the article slice from the
// most recent scrape; any domain change or rescrape clears them.
type Controller struct {
	maxSelected int
	minSelected int

	phase      Phase
	priorPhase Phase
	domain     string
	articles   []api.Article
	selected   []int

	// epoch stamps outbound REST requests. A response carrying an old
	// epoch resolved after the operator moved on and is discarded.
	epoch int

	scrapeStart time.Time
	elapsed     time.Duration
}

// New creates a controller with the given selection bounds.
func New(maxSelected, minSelected int) *Controller {
	if maxSelected <= 0 {
		maxSelected = 5
	}
	if minSelected <= 0 {
		minSelected = 2
	}
	return &Controller{maxSelected: maxSelected, minSelected: minSelected}
}

// Phase returns the current workflow phase.
func (c *Controller) Phase() Phase { return c.phase }

// Domain returns the selected domain key, or "" when idle.
func (c *Controller) Domain() string { return c.domain }

// Articles returns the article list from the most recent scrape.
func (c *Controller) Articles() []api.Article { return c.articles }

// Selected returns the selected indices in selection order.
func (c *Controller) Selected() []int { return c.selected }

// IsSelected reports whether article index i is in the selection.
func (c *Controller) IsSelected(i int) bool {
	for _, s := range c.selected {
		if s == i {
			return true
		}
	}
	return false
}

// MaxSelected returns the selection cap.
func (c *Controller) MaxSelected() int { return c.maxSelected }

// SelectDomain picks a domain, discarding any prior articles, selection
// and timing. In-flight requests for the previous domain become stale.
func (c *Controller) SelectDomain(key string) {
	c.domain = key
	c.articles = nil
	c.selected = nil
	c.elapsed = 0
	c.scrapeStart = time.Time{}
	c.epoch++
	if key == "" {
		c.phase = PhaseIdle
	} else {
		c.phase = PhaseDomainSelected
	}
}

// BeginScrape stamps an outbound scrape request. The returned token
// must be handed back with the response.
func (c *Controller) BeginScrape() int {
	return c.epoch
}

// ApplyScrape installs a scrape response. Returns false when the token
// is stale (the operator changed domains while the call was in
// flight); stale responses must not clobber newer state.
func (c *Controller) ApplyScrape(token int, articles []api.Article) bool {
	if token != c.epoch {
		return false
	}
	c.articles = articles
	c.selected = nil
	c.phase = PhaseScraped
	return true
}

// ScrapeFailed records a scrape REST failure: prior state is kept,
// only the timing measurement is dropped.
func (c *Controller) ScrapeFailed(token int) {
	if token != c.epoch {
		return
	}
	c.elapsed = 0
	c.scrapeStart = time.Time{}
}

// MarkScrapeStarted begins the wall-clock measurement.
func (c *Controller) MarkScrapeStarted(t time.Time) {
	c.scrapeStart = t
}

// MarkScrapeCompleted ends the measurement.
func (c *Controller) MarkScrapeCompleted(t time.Time) {
	if !c.scrapeStart.IsZero() {
		c.elapsed = t.Sub(c.scrapeStart)
	}
}

// Elapsed returns the measured scrape duration, if one completed.
func (c *Controller) Elapsed() (time.Duration, bool) {
	return c.elapsed, c.elapsed > 0
}

// Toggle flips article index i in or out of the selection. Adding
// beyond the cap leaves the selection unchanged and returns a warning
// for the operator; it is never an error.
func (c *Controller) Toggle(i int) (warning string) {
	if i < 0 || i >= len(c.articles) {
		return ""
	}
	for pos, s := range c.selected {
		if s == i {
			c.selected = append(c.selected[:pos], c.selected[pos+1:]...)
			c.refreshPhase()
			return ""
		}
	}
	if len(c.selected) >= c.maxSelected {
		return fmt.Sprintf("Vous ne pouvez sélectionner que %d articles maximum", c.maxSelected)
	}
	c.selected = append(c.selected, i)
	c.refreshPhase()
	return ""
}

// SelectAll selects the first maxSelected articles in original order
// and warns when the list had to be truncated.
func (c *Controller) SelectAll() (warning string) {
	n := len(c.articles)
	limit := n
	if limit > c.maxSelected {
		limit = c.maxSelected
	}
	c.selected = c.selected[:0]
	for i := 0; i < limit; i++ {
		c.selected = append(c.selected, i)
	}
	c.refreshPhase()
	if n > c.maxSelected {
		return fmt.Sprintf("Seuls les %d premiers articles ont été sélectionnés", c.maxSelected)
	}
	return ""
}

// ClearAll empties the selection unconditionally.
func (c *Controller) ClearAll() {
	c.selected = nil
	c.refreshPhase()
}

// CanGenerate reports whether generation may be requested.
func (c *Controller) CanGenerate() bool {
	return c.phase == PhaseArticlesSelected && len(c.selected) >= c.minSelected
}

// GenerateDisabledReason explains why the generate action is disabled.
func (c *Controller) GenerateDisabledReason() string {
	return fmt.Sprintf("Sélectionnez au moins %d articles pour générer un post", c.minSelected)
}

// SelectedArticles returns the selected articles in selection order.
func (c *Controller) SelectedArticles() []api.Article {
	out := make([]api.Article, 0, len(c.selected))
	for _, i := range c.selected {
		if i < len(c.articles) {
			out = append(out, c.articles[i])
		}
	}
	return out
}

// BeginGenerate enters the generating phase and stamps the request.
func (c *Controller) BeginGenerate() int {
	c.priorPhase = c.phase
	c.phase = PhaseGenerating
	return c.epoch
}

// ApplyGenerate acknowledges a generate response. Stale responses are
// discarded. The phase stays at generating until the terminal event.
func (c *Controller) ApplyGenerate(token int) bool {
	return token == c.epoch
}

// GenerateFailed returns to the phase the workflow was in before the
// failed request.
func (c *Controller) GenerateFailed(token int) {
	if token != c.epoch {
		return
	}
	if c.phase == PhaseGenerating {
		c.phase = c.priorPhase
	}
}

// AbortGeneration reverts a generation that the backend reported as
// failed over the event channel. There is no request token on that
// path; the selection is kept so the operator can retry immediately.
func (c *Controller) AbortGeneration() {
	if c.phase == PhaseGenerating {
		c.phase = c.priorPhase
	}
}

// CompleteGeneration consumes the terminal generation event: the
// selection, article list and domain are all cleared and the workflow
// returns to idle.
func (c *Controller) CompleteGeneration() {
	c.domain = ""
	c.articles = nil
	c.selected = nil
	c.elapsed = 0
	c.scrapeStart = time.Time{}
	c.epoch++
	c.phase = PhaseIdle
}

func (c *Controller) refreshPhase() {
	if c.phase == PhaseGenerating || c.articles == nil {
		return
	}
	if len(c.selected) > 0 {
		c.phase = PhaseArticlesSelected
	} else {
		c.phase = PhaseScraped
	}
}
