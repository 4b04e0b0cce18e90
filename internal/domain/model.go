package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Core domain models used internally by the engine. Storage adapters map
// their rows onto these; keep them free of driver types.

// ProcurementRecord is one awarded contract as collected upstream. The engine
// never mutates records.
type ProcurementRecord struct {
	ID                   string
	Title                string
	ContractingAuthority string
	WinnerName           string
	WinnerOrgID          *string
	Value                decimal.Decimal
	CategoryCodes        string // comma-joined in source form
	AwardDate            *time.Time
	Municipality         *string
}

// Categories splits the comma-joined category codes, dropping blanks.
func (r ProcurementRecord) Categories() []string {
	if r.CategoryCodes == "" {
		return nil
	}
	parts := strings.Split(r.CategoryCodes, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PrimaryCategory is the first category code, or "" when none is set.
func (r ProcurementRecord) PrimaryCategory() string {
	cats := r.Categories()
	if len(cats) == 0 {
		return ""
	}
	return cats[0]
}

// Kind tags which detector produced a Finding.
type Kind string

const (
	KindPriceOutlier        Kind = "price_outlier"
	KindMarketConcentration Kind = "market_concentration"
	KindTimeClustering      Kind = "time_clustering"
	KindGeographicMismatch  Kind = "geographic_mismatch"
	KindNetworkAffinity     Kind = "network_affinity"
	KindLearnedOutlier      Kind = "learned_outlier"
)

// Kinds lists every detector tag in reporting order.
var Kinds = []Kind{
	KindPriceOutlier,
	KindMarketConcentration,
	KindTimeClustering,
	KindGeographicMismatch,
	KindNetworkAffinity,
	KindLearnedOutlier,
}

// Valid reports whether k is one of the known detector tags.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// findingNamespace seeds the v5 UUIDs used as finding identities.
var findingNamespace = uuid.MustParse("6f1d7c8e-3b0a-5e4f-9a51-2c7d0e6b8a43")

// Finding is one detector's flagged anomaly. SubjectRecordID is nil when the
// finding describes a pattern across many records.
type Finding struct {
	SubjectRecordID *string
	Kind            Kind
	Discriminator   string
	Description     string
	RawScore        float64
	RiskScore       float64
	DetectedAt      time.Time
	Evidence        map[string]any
}

// Key is the identity tuple (subject, kind, discriminator) encoded as one
// string. A pattern finding's subject is "-" and a record's subject is the
// record ID prefixed with "=", so a nil and an empty subject stay apart.
func (f Finding) Key() string {
	subject := "-"
	if f.SubjectRecordID != nil {
		subject = "=" + *f.SubjectRecordID
	}
	return JoinKey(subject, string(f.Kind), f.Discriminator)
}

var keyEscaper = strings.NewReplacer(`\`, `\\`, "|", `\|`)

// JoinKey joins parts with "|" after escaping "\" and "|" inside each part,
// so distinct part lists never produce the same key. Detectors build
// multi-part discriminators with it.
func JoinKey(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = keyEscaper.Replace(p)
	}
	return strings.Join(escaped, "|")
}

// ID is the stable identity of the finding across runs. Two findings with the
// same (subject, kind, discriminator) always share an ID.
func (f Finding) ID() uuid.UUID {
	return uuid.NewSHA1(findingNamespace, []byte(f.Key()))
}

// AnalysisReport summarizes one engine pass.
type AnalysisReport struct {
	RunID             uuid.UUID        `json:"run_id"`
	StartedAt         time.Time        `json:"started_at"`
	DurationSeconds   float64          `json:"duration_seconds"`
	RecordCount       int              `json:"record_count"`
	TotalFindings     int              `json:"total_findings"`
	FindingsByKind    map[Kind]int     `json:"findings_by_kind"`
	HighRiskCount     int              `json:"high_risk_count"`
	StoredCount       int              `json:"stored_count"`
	DegradedDetectors map[Kind]string  `json:"degraded_detectors,omitempty"`
	Top               []FindingSummary `json:"top,omitempty"`
}

// FindingSummary is the JSON shape of a Finding inside a report.
type FindingSummary struct {
	ID              uuid.UUID      `json:"id"`
	SubjectRecordID *string        `json:"subject_record_id"`
	Kind            Kind           `json:"kind"`
	Description     string         `json:"description"`
	RiskScore       float64        `json:"risk_score"`
	RiskLevel       string         `json:"risk_level"`
	DetectedAt      time.Time      `json:"detected_at"`
	Evidence        map[string]any `json:"evidence,omitempty"`
}

// Summarize converts a Finding to its report shape.
func Summarize(f Finding) FindingSummary {
	return FindingSummary{
		ID:              f.ID(),
		SubjectRecordID: f.SubjectRecordID,
		Kind:            f.Kind,
		Description:     f.Description,
		RiskScore:       f.RiskScore,
		RiskLevel:       RiskLevel(f.RiskScore),
		DetectedAt:      f.DetectedAt,
		Evidence:        f.Evidence,
	}
}

// RecordFilter narrows the record snapshot. Zero values mean no filter.
type RecordFilter struct {
	AwardedWithin time.Duration
	Municipality  string
	Now           time.Time
}

// Since returns the lower award-date bound, or nil when unbounded. The bound
// is a calendar date: records awarded on that day are inside the window
// whatever their time of day.
func (f RecordFilter) Since() *time.Time {
	if f.AwardedWithin <= 0 {
		return nil
	}
	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	since := CalendarDay(CalendarDay(now.UTC()).Add(-f.AwardedWithin))
	return &since
}

// CalendarDay drops the time of day, keeping t's calendar date as midnight
// UTC. Award dates are dates, so window bounds compare on this.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Match applies the filter to a single record, for stores that cannot push it
// down into a query.
func (f RecordFilter) Match(r ProcurementRecord) bool {
	if f.Municipality != "" {
		if r.Municipality == nil || !strings.EqualFold(*r.Municipality, f.Municipality) {
			return false
		}
	}
	if since := f.Since(); since != nil {
		if r.AwardDate == nil || CalendarDay(*r.AwardDate).Before(*since) {
			return false
		}
	}
	return true
}

// FindingStats is an aggregate view over stored findings.
type FindingStats struct {
	Total    int                `json:"total_findings"`
	Recent   int                `json:"recent_findings"`
	HighRisk int                `json:"high_risk_findings"`
	ByKind   map[Kind]KindStats `json:"by_kind"`
}

// KindStats is the count and mean risk of one finding kind.
type KindStats struct {
	Count       int     `json:"count"`
	AverageRisk float64 `json:"average_risk"`
}

// RunStatus tracks a queued analysis run.
type RunStatus struct {
	ID         uuid.UUID       `json:"id"`
	Status     string          `json:"status"` // queued|running|completed|failed
	QueuedAt   time.Time       `json:"queued_at"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
	Error      string          `json:"error,omitempty"`
	Report     *AnalysisReport `json:"report,omitempty"`
}
