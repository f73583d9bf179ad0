// Package progress turns raw pipeline events into operator-facing
// messages and a single 0-100 progress value.
//
// The percentages are a hand-tuned partition of the pipeline stages,
// not a measured fraction of work, except where source counts allow a
// real ratio. Values are point-in-time estimates and may go backwards
// (a failure forces 0 after any prior value).
package progress

import (
	"fmt"

	"postdesk/internal/backend"
)

// Progress is the only view of a running job the UI ever renders.
// Replaced wholesale on every inbound event.
type Progress struct {
	Type       string
	Message    string
	Percentage float64
	Details    backend.ProgressEvent
}

// Fallback values for event types the console does not recognize.
// Unknown types must never error: the backend grows new stages faster
// than the console learns about them.
const (
	fallbackScrapingMessage   = "En cours..."
	fallbackGenerationMessage = "Génération en cours..."
	fallbackPercentage        = 50
)

// InterpretScraping maps one scraping progress event to a message and
// percentage. Total over all inputs.
func InterpretScraping(ev backend.ProgressEvent) (string, float64) {
	switch ev.Type {
	case backend.StageDomainStarted:
		return fmt.Sprintf("Début du scraping %s...", ev.Domain), 10

	case backend.StageSourcesStarted:
		return fmt.Sprintf("Scraping de %d sources...", intOrZero(ev.SourcesCount)), 20

	case backend.StageSourceCompleted:
		msg := fmt.Sprintf("Source %s terminée (%d articles)", ev.SourceName, intOrZero(ev.ArticlesFound))
		if ev.CompletedSources != nil && ev.TotalSources != nil && *ev.TotalSources > 0 {
			ratio := float64(*ev.CompletedSources) / float64(*ev.TotalSources)
			return msg, 20 + ratio*60
		}
		// Counts missing or zero: fixed value, never a division.
		return msg, 30

	case backend.StageProcessingStarted:
		return fmt.Sprintf("Traitement de %d articles...", intOrZero(ev.TotalArticles)), 80

	case backend.StageProcessingCompleted:
		return fmt.Sprintf("Sélection finale: %d articles", intOrZero(ev.FinalArticles)), 95

	case backend.StageDomainCompleted:
		return fmt.Sprintf("Domaine %s terminé (%d articles)", ev.Domain, intOrZero(ev.ArticlesFound)), 100

	default:
		return fallbackScrapingMessage, fallbackPercentage
	}
}

// InterpretGeneration maps one generation progress event to a message
// and percentage. Supports both the single-post flow and the multi-post
// batch flow, whose per-post events carry their own percentage hint.
func InterpretGeneration(ev backend.ProgressEvent) (string, float64) {
	switch ev.Type {
	case backend.StageGenerationStarted:
		return fmt.Sprintf("Génération d'un post %s avec %d articles...", ev.Domain, intOrZero(ev.ArticlesCount)), 10

	case backend.StagePostGeneration:
		current, total := intOrZero(ev.CurrentPost), intOrZero(ev.TotalPosts)
		var msg string
		switch ev.Step {
		case backend.StepStarting:
			msg = fmt.Sprintf("Génération du post %d/%d...", current, total)
		case backend.StepCompleted:
			msg = fmt.Sprintf("Post %d/%d généré", current, total)
		default:
			msg = fmt.Sprintf("Génération du post %d/%d en cours...", current, total)
		}
		return msg, percentageOr(ev.Percentage, fallbackPercentage)

	case backend.StageStepCompleted:
		return fmt.Sprintf("Étape %s terminée...", ev.Step), percentageOr(ev.Percentage, fallbackPercentage)

	case backend.StageGenerationCompleted:
		return "Post généré avec succès !", 100

	case backend.StageGenerationFailed:
		return "Échec de la génération", 0

	default:
		return fallbackGenerationMessage, fallbackPercentage
	}
}

// ScrapingStartedMessage is shown when a scraping session begins, before
// any progress event has arrived.
func ScrapingStartedMessage(domain string) string {
	return fmt.Sprintf("Début du scraping %s...", domain)
}

// GenerationStartedMessage is shown when a generation session begins.
func GenerationStartedMessage(domain string) string {
	return fmt.Sprintf("Génération d'un post %s...", domain)
}

// ScrapingCompletedMessage is the terminal scraping message.
func ScrapingCompletedMessage() string {
	return "Scraping terminé !"
}

// GenerationCompletedMessage phrases the terminal generation message
// depending on how many posts the session produced.
func GenerationCompletedMessage(postCount int) string {
	if postCount <= 1 {
		return "Post généré avec succès !"
	}
	return fmt.Sprintf("%d posts générés avec succès !", postCount)
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func percentageOr(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
