package api

// Post is one generated social-media post, owned and persisted by the
// backend. The console reads it, edits its content and flips the
// approved/published flags.
type Post struct {
	ID             int             `json:"id"`
	Content        string          `json:"content"`
	DomainName     string          `json:"domain_name"`
	Hashtags       []string        `json:"hashtags"`
	SourceArticles []SourceArticle `json:"source_articles"`
	SourcesCount   int             `json:"sources_count"`
	GeneratedAt    string          `json:"generated_at"`
	Approved       bool            `json:"approved"`
	Published      bool            `json:"published"`
	PublishedAt    string          `json:"published_at,omitempty"`
}

// SourceArticle references one article a post was generated from.
type SourceArticle struct {
	Title  string `json:"title"`
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Article is one scraped article, valid only within the scrape response
// that carried it. The workflow references articles by index into that
// slice.
type Article struct {
	Title             string  `json:"title"`
	URL               string  `json:"url"`
	Source            string  `json:"source"`
	Summary           string  `json:"summary,omitempty"`
	Content           string  `json:"content,omitempty"`
	RelevanceScore    float64 `json:"relevance_score"`
	DomainMatches     *int    `json:"domain_matches,omitempty"`
	Published         string  `json:"published"`
	PrimaryTechnology string  `json:"primary_technology,omitempty"`
}

// Domain is one topic category the pipeline can scrape.
type Domain struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// ScrapeResult is the response of POST /scrape/{domain}.
type ScrapeResult struct {
	Success    bool      `json:"success"`
	SessionID  string    `json:"session_id,omitempty"`
	Articles   []Article `json:"articles"`
	TotalCount int       `json:"total_count"`
	Domain     string    `json:"domain"`
	FromCache  bool      `json:"from_cache"`
}

// GenerateResult is the response of POST /generate-from-selection.
// Post is filled for single-post runs, Posts for batches.
type GenerateResult struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Post      *Post  `json:"post,omitempty"`
	Posts     []Post `json:"posts,omitempty"`
	Message   string `json:"message"`
}

// ActionResult is the response of the post mutation endpoints.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CacheStats summarizes the backend's article cache.
type CacheStats struct {
	TotalArticles   int `json:"total_articles"`
	FreshArticles   int `json:"fresh_articles"`
	ExpiredArticles int `json:"expired_articles"`
}

// DomainCacheStats is the per-domain cache breakdown.
type DomainCacheStats struct {
	CachedCount  int `json:"cached_count"`
	SourcesCount int `json:"sources_count"`
}
