package model

// ---- Enrichment output ----

// EnrichedPhase is a linked phase carrying the signals derived from its dynamic events.
type EnrichedPhase struct {
	Phase

	TypeCounts    map[string]int // event_type slug -> count
	SubtypeCounts map[string]int // event_subtype slug -> count

	DefensiveLineHeightStartFirst float64 // last_defensive_line_height_start_first_team_possession
	DefensiveLineHeightEndLast    float64 // last_defensive_line_height_end_last_team_possession

	TeammatesAheadPhaseStart, TeammatesAheadPhaseEnd float64
	OpponentsAheadPhaseStart, OpponentsAheadPhaseEnd float64

	IPScoreStart  float64
	OOPScoreStart float64
}

// Count returns the value of an n_<slug> count column, checking event types
// before subtypes. Unknown columns count zero.
func (p *EnrichedPhase) Count(col string) (int, bool) {
	slug, ok := countSlug(col)
	if !ok {
		return 0, false
	}
	if n, ok := p.TypeCounts[slug]; ok {
		return n, true
	}
	if n, ok := p.SubtypeCounts[slug]; ok {
		return n, true
	}
	return 0, false
}

func countSlug(col string) (string, bool) {
	if len(col) <= 2 || col[:2] != "n_" {
		return "", false
	}
	return col[2:], true
}

// Enrichment column names.
const (
	ColDefensiveLineHeightStartFirst = "last_defensive_line_height_start_first_team_possession"
	ColDefensiveLineHeightEndLast    = "last_defensive_line_height_end_last_team_possession"
	ColTeammatesAheadPhaseStart      = "n_teammates_ahead_phase_start"
	ColTeammatesAheadPhaseEnd        = "n_teammates_ahead_phase_end"
	ColOpponentsAheadPhaseStart      = "n_opponents_ahead_phase_start"
	ColOpponentsAheadPhaseEnd        = "n_opponents_ahead_phase_end"
	ColIPScoreStart                  = "ip_score_start"
	ColOOPScoreStart                 = "oop_score_start"
)

// EnrichedTable is the output of the enricher. CountColumns holds the sorted n_*
// event count columns present on every row.
type EnrichedTable struct {
	Rows         []EnrichedPhase
	Columns      ColumnSet
	CountColumns []string
}

// ---- Possession views ----

// Perspective selects which team a possession view describes.
type Perspective int

const (
	InPossession Perspective = iota
	OutOfPossession
)

func (p Perspective) String() string {
	if p == OutOfPossession {
		return "out_of_possession"
	}
	return "in_possession"
}

// PossessionPhase is one phase seen from a single team's perspective.
type PossessionPhase struct {
	MatchID     string
	Index       int
	Period      int
	MatchDate   string
	FrameStart  int
	FrameEnd    int
	Duration    float64
	TimeStart   string
	TimeEnd     string
	MinuteStart float64
	SecondStart float64

	TeamScoreStart     float64
	OpponentScoreStart float64

	TeamID        string
	TeamName      string
	PhaseType     string
	NextPhaseType string

	PossessionLoss bool
	LeadToShot     bool
	LeadToGoal     bool

	ChannelStart, ThirdStart, PenaltyAreaStart string
	ChannelEnd, ThirdEnd, PenaltyAreaEnd       string

	TeamWidthStart, TeamWidthEnd   float64
	TeamLengthStart, TeamLengthEnd float64

	DefensiveLineHeightStart float64 // opponent's line in possession, own line out of possession
	DefensiveLineHeightEnd   float64

	PlayersAheadPhaseStart float64
	PlayersAheadPhaseEnd   float64

	PlayerPossessions float64

	Counts map[string]int // output column name -> count
}

// PossessionTable is one perspective's view of the enriched phases. Columns is
// the ordered list of output columns the source could populate.
type PossessionTable struct {
	Perspective Perspective
	Rows        []PossessionPhase
	Columns     []string
}

// ---- Aggregates ----

// MatchTeamAggregate is one team's phase-type-pivoted metrics for one match.
type MatchTeamAggregate struct {
	MatchID  string
	TeamID   string
	TeamName string
	Metrics  map[string]float64 // "<metric>_<phase_type>" -> value, NaN when absent
}

// MatchAggregateTable holds match aggregates with the metric column order.
type MatchAggregateTable struct {
	Perspective   Perspective
	Rows          []MatchTeamAggregate
	MetricColumns []string
}

// SeasonTeamAggregate is one team's rollup across every match in scope.
type SeasonTeamAggregate struct {
	TeamID        string
	TeamName      string
	Matches       int
	MinutesPlayed float64
	Metrics       map[string]float64
}

// SeasonTable holds season rollups with the metric column order.
type SeasonTable struct {
	Perspective   Perspective
	Rows          []SeasonTeamAggregate
	MetricColumns []string
}

// PlayerEventAggregate is one player's dynamic-event counts within one phase type.
type PlayerEventAggregate struct {
	PlayerID      string
	PlayerName    string
	TeamID        string
	TeamName      string
	PhaseType     string
	MinutesPlayed float64
	Metrics       map[string]float64
}

// PlayerTable holds player event aggregates with the metric column order.
type PlayerTable struct {
	Rows          []PlayerEventAggregate
	MetricColumns []string
}
