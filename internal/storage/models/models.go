package models

import "time"

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

type RawItem struct {
	ID              string
	Source          string
	ContentType     string
	RawContent      string
	ContentHash     string
	Priority        int
	Processed       bool
	ProcessedAt     *time.Time
	LearningOutcome map[string]interface{}
	LeasedBy        string
	LeasedAt        *time.Time
	CreatedAt       time.Time
}

type KnowledgeEntry struct {
	ID              string
	Category        string
	Topic           string
	Question        string
	Answer          string
	ShortAnswer     string
	Source          string
	SourceURL       string
	ConfidenceScore float64
	Keywords        []string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type DataSource struct {
	Name           string
	SourceType     string
	URL            string
	FetchFrequency string
	LastFetch      *time.Time
	NextFetch      *time.Time
	IsActive       bool
	ErrorCount     int
	LastError      string
	Config         map[string]interface{}
}

type HealingIssue struct {
	ID            string
	Component     string
	IssueType     string
	Description   string
	Severity      Severity
	AutoHealed    bool
	HealingAction string
	HealingResult string
	RequiresHuman bool
	Notified      bool
	CreatedAt     time.Time
	ResolvedAt    *time.Time
}

type ActivityEntry struct {
	ID           string
	ActionType   string
	Component    string
	Metadata     map[string]interface{}
	Success      bool
	ErrorMessage string
	DurationMS   int
	CreatedAt    time.Time
}

type ExternalData struct {
	Source    string
	DataType  string
	Content   map[string]interface{}
	FetchedAt time.Time
}

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnhealthy HealthStatus = "unhealthy"
)

// Worse reports whether a is a worse status than b. The health aggregator's
// overall status is the worst of all signals.
func (a HealthStatus) Worse(b HealthStatus) bool {
	return a.rank() > b.rank()
}

func (s HealthStatus) rank() int {
	switch s {
	case StatusUnhealthy:
		return 2
	case StatusDegraded:
		return 1
	default:
		return 0
	}
}

type HealthSignal struct {
	Component   string       `json:"component"`
	Status      HealthStatus `json:"status"`
	LatencyMS   int64        `json:"latency_ms,omitempty"`
	Detail      string       `json:"detail,omitempty"`
	LastSuccess *time.Time   `json:"last_success,omitempty"`
	ErrorCount  int          `json:"error_count,omitempty"`
}
