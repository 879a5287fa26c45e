// Package analytics records concordance searches and aggregates them into
// the dashboard served by the API.
package analytics

import (
	stderrors "errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-concordance-engine/internal/pattern"
	"github.com/gcbaptista/go-concordance-engine/internal/persistence"
	"github.com/gcbaptista/go-concordance-engine/model"
	"github.com/gcbaptista/go-concordance-engine/services"
)

const (
	maxEventsToKeep = 10000 // Keep last 10k events for performance
	saveEvery       = 100   // events between automatic saves
	popularPatterns = 5
)

// Service implements analytics tracking and reporting
type Service struct {
	mutex         sync.RWMutex
	events        []model.SearchEvent
	unsaved       int
	corpusManager services.CorpusManager
	dataFilePath  string // empty disables persistence
	logger        *zap.Logger
	now           func() time.Time
}

// NewService creates a new analytics service. Events are loaded from and
// saved to dataFilePath as JSON unless it is empty.
func NewService(corpusManager services.CorpusManager, dataFilePath string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{
		events:        make([]model.SearchEvent, 0),
		corpusManager: corpusManager,
		dataFilePath:  dataFilePath,
		logger:        logger.Named("analytics"),
		now:           time.Now,
	}

	if err := service.loadData(); err != nil {
		service.logger.Warn("failed to load analytics data", zap.String("path", dataFilePath), zap.Error(err))
	}
	return service
}

// NodeTypes returns the distinct node types used by a pattern, sorted.
func NodeTypes(root *pattern.Root) []string {
	if root == nil {
		return nil
	}
	seen := make(map[string]bool)
	_ = pattern.Walk(root, func(_ string, n pattern.Node) error {
		if n.Type() != pattern.NodeRoot {
			seen[n.Type().String()] = true
		}
		return nil
	})
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// TrackSearchEvent records a new search event. Every saveEvery events the
// log is written to disk.
func (s *Service) TrackSearchEvent(event model.SearchEvent) error {
	s.mutex.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	s.events = append(s.events, event)

	// Keep only the latest events to prevent unbounded growth
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	s.unsaved++
	flush := s.dataFilePath != "" && s.unsaved >= saveEvery
	s.mutex.Unlock()

	if flush {
		return s.Save()
	}
	return nil
}

// Save writes the event log to disk.
func (s *Service) Save() error {
	if s.dataFilePath == "" {
		return nil
	}
	s.mutex.Lock()
	snapshot := make([]model.SearchEvent, len(s.events))
	copy(snapshot, s.events)
	s.unsaved = 0
	s.mutex.Unlock()

	if err := persistence.SaveJSON(s.dataFilePath, snapshot); err != nil {
		return fmt.Errorf("failed to save analytics data: %w", err)
	}
	return nil
}

// GetDashboardData returns complete analytics dashboard data
func (s *Service) GetDashboardData() (model.AnalyticsDashboard, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := s.now()
	yesterday := now.Add(-24 * time.Hour)
	lastWeek := now.Add(-7 * 24 * time.Hour)

	// Filter events for different time periods
	last24hEvents := filterEventsByTimeRange(s.events, yesterday, now)
	prev24hEvents := filterEventsByTimeRange(s.events, yesterday.Add(-24*time.Hour), yesterday)
	lastWeekEvents := filterEventsByTimeRange(s.events, lastWeek, now)
	prevWeekEvents := filterEventsByTimeRange(s.events, lastWeek.Add(-7*24*time.Hour), lastWeek)

	usage, totalTexts := s.getCorpusUsage(lastWeekEvents)
	dashboard := model.AnalyticsDashboard{
		TotalSearches:            len(last24hEvents),
		SearchesChangePercent:    calculateChangePercent(len(last24hEvents), len(prev24hEvents)),
		FailedSearches:           countFailed(last24hEvents),
		AvgResponseTime:          calculateAvgResponseTime(last24hEvents),
		ResponseTimeChange:       calculateResponseTimeChange(last24hEvents, prev24hEvents),
		TotalTexts:               totalTexts,
		ActiveCorpora:            len(usage),
		SearchPerformance24h:     getHourlyPerformance(last24hEvents),
		PopularPatterns:          getPopularPatterns(lastWeekEvents, prevWeekEvents),
		CorpusUsage:              usage,
		ResponseTimeDistribution: getResponseTimeDistribution(last24hEvents),
		NodeTypeUsage:            getNodeTypeUsage(lastWeekEvents),
	}

	return dashboard, nil
}

// filterEventsByTimeRange returns events in (start, end]
func filterEventsByTimeRange(events []model.SearchEvent, start, end time.Time) []model.SearchEvent {
	var filtered []model.SearchEvent
	for _, event := range events {
		if event.Timestamp.After(start) && !event.Timestamp.After(end) {
			filtered = append(filtered, event)
		}
	}
	return filtered
}

// calculateChangePercent calculates percentage change between current and previous values
func calculateChangePercent(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100.0
		}
		return 0.0
	}
	return float64(current-previous) / float64(previous) * 100.0
}

func countFailed(events []model.SearchEvent) int {
	failed := 0
	for _, event := range events {
		if event.Failed {
			failed++
		}
	}
	return failed
}

// calculateAvgResponseTime calculates average response time for events in milliseconds
func calculateAvgResponseTime(events []model.SearchEvent) int64 {
	if len(events) == 0 {
		return 0
	}

	var total time.Duration
	for _, event := range events {
		total += event.ResponseTime
	}
	avgDuration := total / time.Duration(len(events))
	return avgDuration.Milliseconds()
}

// calculateResponseTimeChange calculates response time change trend
func calculateResponseTimeChange(current, previous []model.SearchEvent) string {
	currentAvg := calculateAvgResponseTime(current)
	previousAvg := calculateAvgResponseTime(previous)

	if previousAvg == 0 {
		return "stable"
	}
	return trend(float64(currentAvg-previousAvg) / float64(previousAvg))
}

func trend(change float64) string {
	if change > 0.1 {
		return "up"
	} else if change < -0.1 {
		return "down"
	}
	return "stable"
}

// getCorpusUsage returns usage statistics for each corpus and the total text count
func (s *Service) getCorpusUsage(events []model.SearchEvent) ([]model.CorpusStats, int) {
	if s.corpusManager == nil {
		return []model.CorpusStats{}, 0
	}
	searchCounts := make(map[string]int)
	for _, event := range events {
		searchCounts[event.CorpusName]++
	}

	names := s.corpusManager.ListCorpora()
	usage := make([]model.CorpusStats, 0, len(names))
	totalTexts := 0
	for _, name := range names {
		corpus, err := s.corpusManager.GetCorpus(name)
		if err != nil {
			// Deleted since ListCorpora
			continue
		}
		stats := corpus.Stats()
		stats.SearchCount = searchCounts[name]
		totalTexts += stats.TextCount
		usage = append(usage, stats)
	}
	return usage, totalTexts
}

// getHourlyPerformance returns hourly search performance for the last 24 hours
func getHourlyPerformance(events []model.SearchEvent) []model.SearchPerformanceHourly {
	hourlyData := make(map[int][]model.SearchEvent)
	for _, event := range events {
		hour := event.Timestamp.Hour()
		hourlyData[hour] = append(hourlyData[hour], event)
	}

	performance := make([]model.SearchPerformanceHourly, 0, 24)
	for hour := 0; hour < 24; hour++ {
		events := hourlyData[hour]
		performance = append(performance, model.SearchPerformanceHourly{
			Hour:            hour,
			SearchCount:     len(events),
			AvgResponseTime: calculateAvgResponseTime(events),
		})
	}
	return performance
}

// getPopularPatterns returns the most searched patterns of the last week,
// with their trend against the week before
func getPopularPatterns(events, previous []model.SearchEvent) []model.PopularPattern {
	counts := countPatterns(events)
	previousCounts := countPatterns(previous)

	type patternCount struct {
		pattern string
		count   int
	}
	patterns := make([]patternCount, 0, len(counts))
	for p, count := range counts {
		patterns = append(patterns, patternCount{pattern: p, count: count})
	}

	// Sort by count descending, then by pattern for a stable order
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].count != patterns[j].count {
			return patterns[i].count > patterns[j].count
		}
		return patterns[i].pattern < patterns[j].pattern
	})

	popular := make([]model.PopularPattern, 0, popularPatterns)
	for i, pc := range patterns {
		if i >= popularPatterns {
			break
		}
		change := "up"
		if prev := previousCounts[pc.pattern]; prev > 0 {
			change = trend(float64(pc.count-prev) / float64(prev))
		}
		popular = append(popular, model.PopularPattern{
			Pattern:     pc.pattern,
			SearchCount: pc.count,
			TrendChange: change,
		})
	}
	return popular
}

func countPatterns(events []model.SearchEvent) map[string]int {
	counts := make(map[string]int)
	for _, event := range events {
		if event.Pattern != "" && !event.Failed {
			counts[event.Pattern]++
		}
	}
	return counts
}

// getResponseTimeDistribution returns response time distribution
func getResponseTimeDistribution(events []model.SearchEvent) model.ResponseTimeDistribution {
	dist := model.ResponseTimeDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		ms := event.ResponseTime.Milliseconds()
		switch {
		case ms <= 25:
			dist.Bucket0To25ms++
		case ms <= 50:
			dist.Bucket25To50ms++
		case ms <= 100:
			dist.Bucket50To100ms++
		default:
			dist.Bucket100msPlus++
		}
	}

	// Calculate percentages
	dist.Percentage0To25 = float64(dist.Bucket0To25ms) / float64(total) * 100
	dist.Percentage25To50 = float64(dist.Bucket25To50ms) / float64(total) * 100
	dist.Percentage50To100 = float64(dist.Bucket50To100ms) / float64(total) * 100
	dist.Percentage100Plus = float64(dist.Bucket100msPlus) / float64(total) * 100

	return dist
}

// getNodeTypeUsage counts the searches using each pattern node type
func getNodeTypeUsage(events []model.SearchEvent) map[string]int {
	usage := make(map[string]int)
	for _, event := range events {
		for _, t := range event.NodeTypes {
			usage[t]++
		}
	}
	return usage
}

// loadData loads analytics data from file
func (s *Service) loadData() error {
	if s.dataFilePath == "" {
		return nil
	}
	var events []model.SearchEvent
	if err := persistence.LoadJSON(s.dataFilePath, &events); err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return nil // File doesn't exist yet, that's okay
		}
		return err
	}
	if len(events) > maxEventsToKeep {
		events = events[len(events)-maxEventsToKeep:]
	}
	s.events = events
	return nil
}
