package model

import "time"

// SearchEvent records one concordance search for analytics
type SearchEvent struct {
	CorpusName        string        `json:"corpus_name"`
	Pattern           string        `json:"pattern"` // canonical pattern form
	NodeTypes         []string      `json:"node_types,omitempty"`
	ResponseTime      time.Duration `json:"response_time"`
	FragmentCount     int           `json:"fragment_count"`
	ParagraphsScanned int           `json:"paragraphs_scanned"`
	Failed            bool          `json:"failed,omitempty"`
	Timestamp         time.Time     `json:"timestamp"`
}

// PopularPattern represents aggregated data for a frequently searched pattern
type PopularPattern struct {
	Pattern     string `json:"pattern"`
	SearchCount int    `json:"search_count"`
	TrendChange string `json:"trend_change,omitempty"` // "up", "down", "stable"
}

// CorpusStats represents statistics for a specific corpus
type CorpusStats struct {
	CorpusName      string `json:"corpus_name"`
	TextCount       int    `json:"text_count"`
	ParagraphCount  int    `json:"paragraph_count"`
	OccurrenceCount int    `json:"occurrence_count"`
	SearchCount     int    `json:"search_count"`
}

// ResponseTimeDistribution represents response time distribution buckets
type ResponseTimeDistribution struct {
	Bucket0To25ms     int     `json:"bucket_0_25ms"`
	Bucket25To50ms    int     `json:"bucket_25_50ms"`
	Bucket50To100ms   int     `json:"bucket_50_100ms"`
	Bucket100msPlus   int     `json:"bucket_100ms_plus"`
	Percentage0To25   float64 `json:"percentage_0_25"`
	Percentage25To50  float64 `json:"percentage_25_50"`
	Percentage50To100 float64 `json:"percentage_50_100"`
	Percentage100Plus float64 `json:"percentage_100_plus"`
}

// SearchPerformanceHourly represents hourly search performance data
type SearchPerformanceHourly struct {
	Hour            int   `json:"hour"`
	SearchCount     int   `json:"search_count"`
	AvgResponseTime int64 `json:"avg_response_time"` // in milliseconds
}

// AnalyticsDashboard represents the complete analytics dashboard data
type AnalyticsDashboard struct {
	// Summary metrics
	TotalSearches         int     `json:"total_searches"`
	SearchesChangePercent float64 `json:"searches_change_percent"`
	FailedSearches        int     `json:"failed_searches"`
	AvgResponseTime       int64   `json:"avg_response_time"` // in milliseconds
	ResponseTimeChange    string  `json:"response_time_change"`
	TotalTexts            int     `json:"total_texts"`
	ActiveCorpora         int     `json:"active_corpora"`

	// Detailed analytics
	SearchPerformance24h     []SearchPerformanceHourly `json:"search_performance_24h"`
	PopularPatterns          []PopularPattern          `json:"popular_patterns"`
	CorpusUsage              []CorpusStats             `json:"corpus_usage"`
	ResponseTimeDistribution ResponseTimeDistribution  `json:"response_time_distribution"`
	NodeTypeUsage            map[string]int            `json:"node_type_usage"` // searches using each pattern node type
}
