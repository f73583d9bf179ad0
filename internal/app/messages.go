package app

import (
	"postdesk/internal/api"
	"postdesk/internal/backend"
	"postdesk/internal/history"
)

// ChannelConnectedMsg is sent when the event channel connection is
// established.
type ChannelConnectedMsg struct {
	Client *backend.Client
}

// ChannelConnectErrorMsg is sent when connecting to the event channel
// fails.
type ChannelConnectErrorMsg struct {
	Err error
}

// ChannelEventMsg wraps one streamed event from the backend.
type ChannelEventMsg struct {
	Envelope backend.Envelope
}

// ChannelReadErrorMsg is sent when the event stream breaks.
type ChannelReadErrorMsg struct {
	Err error
}

// ReconnectTickMsg triggers a reconnection attempt.
type ReconnectTickMsg struct{}

// DomainsLoadedMsg carries the domain catalog from the REST API.
type DomainsLoadedMsg struct {
	Domains map[string]api.Domain
	Err     error
}

// PendingLoadedMsg carries the pending posts list.
type PendingLoadedMsg struct {
	Posts []api.Post
	Err   error
}

// ApprovedLoadedMsg carries the approved posts list.
type ApprovedLoadedMsg struct {
	Posts []api.Post
	Err   error
}

// CacheStatsMsg carries the backend article cache summary.
type CacheStatsMsg struct {
	Stats api.CacheStats
	Err   error
}

// CacheDomainsMsg carries the per-domain cache breakdown.
type CacheDomainsMsg struct {
	Stats map[string]api.DomainCacheStats
	Err   error
}

// ScrapeResultMsg carries the response of a scrape request. Token is
// the workflow epoch the request was issued under.
type ScrapeResultMsg struct {
	Token  int
	Result api.ScrapeResult
	Err    error
}

// GenerateResultMsg carries the response of a generation request.
type GenerateResultMsg struct {
	Token  int
	Result api.GenerateResult
	Err    error
}

// PostAction identifies a post mutation.
type PostAction int

const (
	ActionApprove PostAction = iota
	ActionPublish
	ActionDelete
	ActionEdit
)

// PostActionMsg carries the response of a post mutation.
type PostActionMsg struct {
	Action PostAction
	ID     int
	Result api.ActionResult
	Err    error
}

// HistoryLoadedMsg carries recent session history entries.
type HistoryLoadedMsg struct {
	Entries []history.Entry
}

// ClearToastMsg clears the transient notification after a timeout.
type ClearToastMsg struct{}

// ClearErrorMsg clears the last backend job error after a timeout.
type ClearErrorMsg struct{}

// ClearProgressMsg drops a terminal progress message once the operator
// has had time to read it.
type ClearProgressMsg struct{}
