// Package backend provides the client and protocol types for the job
// system's event channel, spoken as NDJSON over a long-lived TCP
// connection.
package backend

import "encoding/json"

// Server-to-client event names.
const (
	EventSessionJoined       = "session_joined"
	EventScrapingStarted     = "scraping_started"
	EventScrapingProgress    = "scraping_progress"
	EventScrapingCompleted   = "scraping_completed"
	EventGenerationStarted   = "generation_started"
	EventGenerationProgress  = "generation_progress"
	EventGenerationCompleted = "generation_completed"
	EventError               = "error"
)

// Client-to-server event names. Joins are the only messages the console
// ever sends on the channel.
const (
	EventJoinScrapingSession   = "join_scraping_session"
	EventJoinGenerationSession = "join_generation_session"
)

// Stage markers inside scraping progress events.
const (
	StageDomainStarted       = "domain_started"
	StageSourcesStarted      = "sources_started"
	StageSourceCompleted     = "source_completed"
	StageSourceError         = "source_error"
	StageProcessingStarted   = "processing_started"
	StageProcessingCompleted = "processing_completed"
	StageDomainCompleted     = "domain_completed"
)

// Stage markers inside generation progress events.
const (
	StageGenerationStarted   = "generation_started"
	StageStepCompleted       = "step_completed"
	StagePostGeneration      = "post_generation"
	StageGenerationCompleted = "generation_completed"
	StageGenerationFailed    = "generation_failed"
)

// Per-post steps carried by post_generation events.
const (
	StepStarting  = "starting"
	StepCompleted = "completed"
)

// ClientMessage is sent from the console to the job system.
type ClientMessage struct {
	Event     string `json:"event"`
	SessionID string `json:"session_id,omitempty"`
}

// Envelope frames one server-to-client message. Data is decoded lazily
// into the payload type matching Event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ProgressEvent carries one stage transition of a running job. A single
// flat shape covers both the scraping and generation streams; Type
// discriminates, everything else is optional.
type ProgressEvent struct {
	SessionID string `json:"session_id"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp,omitempty"`

	Domain            string `json:"domain,omitempty"`
	SourceName        string `json:"source_name,omitempty"`
	ArticlesFound     *int   `json:"articles_found,omitempty"`
	CompletedSources  *int   `json:"completed_sources,omitempty"`
	TotalSources      *int   `json:"total_sources,omitempty"`
	SourcesCount      *int   `json:"sources_count,omitempty"`
	ProcessedArticles *int   `json:"processed_articles,omitempty"`
	TotalArticles     *int   `json:"total_articles,omitempty"`
	FinalArticles     *int   `json:"final_articles,omitempty"`

	ArticlesCount *int     `json:"articles_count,omitempty"`
	Step          string   `json:"step,omitempty"`
	Percentage    *float64 `json:"percentage,omitempty"`
	CurrentPost   *int     `json:"current_post,omitempty"`
	TotalPosts    *int     `json:"total_posts,omitempty"`
	PostID        *int     `json:"post_id,omitempty"`

	Error string `json:"error,omitempty"`
}

// SessionStarted announces that a joined session has begun streaming.
type SessionStarted struct {
	SessionID     string `json:"session_id"`
	Domain        string `json:"domain"`
	MaxArticles   *int   `json:"max_articles,omitempty"`
	ArticlesCount *int   `json:"articles_count,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// SessionCompleted is the terminal event of a successful session.
type SessionCompleted struct {
	SessionID string         `json:"session_id"`
	Results   SessionResults `json:"results"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// SessionResults summarizes what a session produced. Scraping sessions
// fill the article fields, generation sessions the post fields.
type SessionResults struct {
	TotalArticles *int              `json:"total_articles,omitempty"`
	Domain        string            `json:"domain,omitempty"`
	FromCache     *bool             `json:"from_cache,omitempty"`
	PostID        *int              `json:"post_id,omitempty"`
	ArticlesCount *int              `json:"articles_count,omitempty"`
	Posts         []json.RawMessage `json:"posts,omitempty"`
	PostsCount    *int              `json:"posts_count,omitempty"`
}

// PostCount reports how many posts a generation session produced.
// Defaults to 1 when the backend sent no count at all.
func (r SessionResults) PostCount() int {
	if len(r.Posts) > 0 {
		return len(r.Posts)
	}
	if r.PostsCount != nil {
		return *r.PostsCount
	}
	return 1
}

// ChannelError is a backend-reported job failure.
type ChannelError struct {
	SessionID string      `json:"session_id"`
	Error     ErrorDetail `json:"error"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// ErrorDetail carries the backend-supplied error taxonomy and message.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Progress decodes the envelope payload as a ProgressEvent.
func (e Envelope) Progress() (ProgressEvent, error) {
	var ev ProgressEvent
	err := json.Unmarshal(e.Data, &ev)
	return ev, err
}

// Started decodes the envelope payload as a SessionStarted.
func (e Envelope) Started() (SessionStarted, error) {
	var ev SessionStarted
	err := json.Unmarshal(e.Data, &ev)
	return ev, err
}

// Completed decodes the envelope payload as a SessionCompleted.
func (e Envelope) Completed() (SessionCompleted, error) {
	var ev SessionCompleted
	err := json.Unmarshal(e.Data, &ev)
	return ev, err
}

// ChannelError decodes the envelope payload as a ChannelError.
func (e Envelope) ChannelError() (ChannelError, error) {
	var ev ChannelError
	err := json.Unmarshal(e.Data, &ev)
	return ev, err
}

// IntPtr returns a pointer to an int value. Convenience for building
// events in tests.
func IntPtr(n int) *int { return &n }

// Float64Ptr returns a pointer to a float64 value.
func Float64Ptr(f float64) *float64 { return &f }
