package store

// Opening is a canonical chess opening identified by its FEN position.
// The FEN is immutable once created; the ECO code groups variations of the
// same family and is deliberately not unique.
type Opening struct {
	FEN       string
	Name      string
	ECO       string
	Aliases   []string
	CreatedAt int64 // unix millis
}

// Video is a platform video referenced by one or more openings.
type Video struct {
	ID          string
	Title       string
	Channel     string
	Duration    int // seconds
	ViewCount   int64
	PublishedAt int64 // unix millis, 0 = unknown
	Thumbnail   string
	CreatedAt   int64
}

// Relationship links an opening to a video with a bounded match score.
type Relationship struct {
	OpeningFEN string
	VideoID    string
	MatchScore float64
	CreatedAt  int64
	UpdatedAt  int64
}

// ScoredVideo is a video together with its match score for one opening.
type ScoredVideo struct {
	Video
	MatchScore float64
}

// Stats summarises store contents and the storage reduction achieved
// against the declared raw source size.
type Stats struct {
	Openings      int
	Videos        int
	Relationships int
	StoreBytes    int64
	SourceBytes   int64
	// ReductionRatio is 1 - store/source; 0 when the source size is unknown.
	ReductionRatio float64
}

// IntegrityReport describes data-level problems found by ValidateIntegrity.
// Data issues populate the report; they never surface as errors.
type IntegrityReport struct {
	OrphanedRelationships int
	InvalidScores         int
	Issues                []string
}

// OK reports whether the store passed all integrity checks.
func (r *IntegrityReport) OK() bool {
	return r.OrphanedRelationships == 0 && r.InvalidScores == 0
}

// RunRecord is a persisted migration run report.
type RunRecord struct {
	RunID      string
	Stage      string
	Migrated   int
	Skipped    int
	Errored    int
	DurationMS int64
	Success    bool
	Details    string // optional JSON
	CreatedAt  int64
}
