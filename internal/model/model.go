package model

import (
	"math"
	"sort"
	"strconv"
)

// NoNextPhase labels a phase whose chronological successor could not be located.
const NoNextPhase = "no_next_phase"

// NoFrame marks a frame_start or frame_end the source left blank.
const NoFrame = -1

// NoPhase marks a dynamic event whose phase_index the source left blank.
const NoPhase = -1

// Null returns the value used for a missing continuous measurement.
func Null() float64 { return math.NaN() }

// IsNull reports whether v is a missing or non-finite measurement.
func IsNull(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }

// ColumnSet records which named columns a source table carried.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from the given column names.
func NewColumnSet(cols ...string) ColumnSet {
	s := make(ColumnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether col is present.
func (s ColumnSet) Has(col string) bool {
	_, ok := s[col]
	return ok
}

// Add marks the given columns as present.
func (s ColumnSet) Add(cols ...string) {
	for _, c := range cols {
		s[c] = struct{}{}
	}
}

// Missing returns the required columns absent from s, sorted.
func (s ColumnSet) Missing(required ...string) []string {
	var out []string
	for _, c := range required {
		if !s.Has(c) {
			out = append(out, c)
		}
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s ColumnSet) Clone() ColumnSet {
	out := make(ColumnSet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}
	return out
}

// ---- Phases of play ----

// Phase is one interval of play within a match, seen from both teams.
type Phase struct {
	MatchID   string
	Index     int
	Period    int
	MatchDate string // "YYYY-MM-DD"

	FrameStart, FrameEnd int // NoFrame when blank
	Duration             float64
	TimeStart, TimeEnd   string
	MinuteStart          float64
	SecondStart          float64

	TeamInPossessionID        string
	TeamInPossessionShortname string
	TeamInPossessionPhaseType string

	TeamOutOfPossessionID        string // "" when the match has no clean pair of teams
	TeamOutOfPossessionShortname string
	TeamOutOfPossessionPhaseType string

	InPossessionWidthStart, InPossessionWidthEnd         float64
	InPossessionLengthStart, InPossessionLengthEnd       float64
	OutOfPossessionWidthStart, OutOfPossessionWidthEnd   float64
	OutOfPossessionLengthStart, OutOfPossessionLengthEnd float64

	PlayerPossessions float64 // n_player_possessions_in_phase

	PossessionLoss   bool
	LeadToShot       bool
	LeadToGoal       bool
	ChannelStart     string
	ThirdStart       string
	PenaltyAreaStart string
	ChannelEnd       string
	ThirdEnd         string
	PenaltyAreaEnd   string

	// Set by the linker.
	InPossessionNextPhase    string
	OutOfPossessionNextPhase string
}

// PhaseTable is a flat, ordered batch of phases across any number of matches.
type PhaseTable struct {
	Rows    []Phase
	Columns ColumnSet
}

// Phase column names.
const (
	ColMatchID                      = "match_id"
	ColIndex                        = "index"
	ColPeriod                       = "period"
	ColMatchDate                    = "match_date"
	ColFrameStart                   = "frame_start"
	ColFrameEnd                     = "frame_end"
	ColDuration                     = "duration"
	ColTimeStart                    = "time_start"
	ColTimeEnd                      = "time_end"
	ColMinuteStart                  = "minute_start"
	ColSecondStart                  = "second_start"
	ColTeamInPossessionID           = "team_in_possession_id"
	ColTeamInPossessionShortname    = "team_in_possession_shortname"
	ColTeamInPossessionPhaseType    = "team_in_possession_phase_type"
	ColTeamOutOfPossessionID        = "team_out_of_possession_id"
	ColTeamOutOfPossessionShortname = "team_out_of_possession_shortname"
	ColTeamOutOfPossessionPhaseType = "team_out_of_possession_phase_type"
	ColInPossessionNextPhase        = "team_in_possession_next_phase"
	ColOutOfPossessionNextPhase     = "team_out_of_possession_next_phase"
	ColInPossessionWidthStart       = "team_in_possession_width_start"
	ColInPossessionWidthEnd         = "team_in_possession_width_end"
	ColInPossessionLengthStart      = "team_in_possession_length_start"
	ColInPossessionLengthEnd        = "team_in_possession_length_end"
	ColOutOfPossessionWidthStart    = "team_out_of_possession_width_start"
	ColOutOfPossessionWidthEnd      = "team_out_of_possession_width_end"
	ColOutOfPossessionLengthStart   = "team_out_of_possession_length_start"
	ColOutOfPossessionLengthEnd     = "team_out_of_possession_length_end"
	ColPlayerPossessionsInPhase     = "n_player_possessions_in_phase"
	ColPossessionLoss               = "team_possession_loss_in_phase"
	ColLeadToShot                   = "team_possession_lead_to_shot"
	ColLeadToGoal                   = "team_possession_lead_to_goal"
	ColChannelStart                 = "channel_start"
	ColThirdStart                   = "third_start"
	ColPenaltyAreaStart             = "penalty_area_start"
	ColChannelEnd                   = "channel_end"
	ColThirdEnd                     = "third_end"
	ColPenaltyAreaEnd               = "penalty_area_end"
)

// PhaseColumns lists every phase column the loader understands, in output order.
var PhaseColumns = []string{
	ColMatchID, ColIndex, ColPeriod, ColMatchDate,
	ColFrameStart, ColFrameEnd, ColDuration,
	ColTimeStart, ColTimeEnd, ColMinuteStart, ColSecondStart,
	ColTeamInPossessionID, ColTeamInPossessionShortname, ColTeamInPossessionPhaseType,
	ColTeamOutOfPossessionID, ColTeamOutOfPossessionShortname, ColTeamOutOfPossessionPhaseType,
	ColInPossessionWidthStart, ColInPossessionWidthEnd,
	ColInPossessionLengthStart, ColInPossessionLengthEnd,
	ColOutOfPossessionWidthStart, ColOutOfPossessionWidthEnd,
	ColOutOfPossessionLengthStart, ColOutOfPossessionLengthEnd,
	ColPlayerPossessionsInPhase,
	ColPossessionLoss, ColLeadToShot, ColLeadToGoal,
	ColChannelStart, ColThirdStart, ColPenaltyAreaStart,
	ColChannelEnd, ColThirdEnd, ColPenaltyAreaEnd,
}

// NewPhaseTable wraps rows built in code. Every phase column is marked present
// except period, which is present only when withPeriod is set.
func NewPhaseTable(rows []Phase, withPeriod bool) PhaseTable {
	cols := NewColumnSet(PhaseColumns...)
	if !withPeriod {
		delete(cols, ColPeriod)
	}
	return PhaseTable{Rows: rows, Columns: cols}
}

// HasPeriod reports whether phases are tracked per period.
func (t PhaseTable) HasPeriod() bool { return t.Columns.Has(ColPeriod) }

// Clone copies the rows so a stage can write to them without touching its input.
func (t PhaseTable) Clone() PhaseTable {
	rows := make([]Phase, len(t.Rows))
	copy(rows, t.Rows)
	return PhaseTable{Rows: rows, Columns: t.Columns.Clone()}
}

// ---- Dynamic events ----

// DynamicEvent is a fine-grained event nested inside one phase.
type DynamicEvent struct {
	MatchID    string
	Index      int
	PhaseIndex int // NoPhase when blank
	Period     int
	MatchDate  string

	EventType    string
	EventSubtype string // "None" when the source had no subtype
	FrameStart   float64

	TeamScore, OpponentTeamScore float64

	FirstPlayerPossessionInTeamPossession bool
	LastPlayerPossessionInTeamPossession  bool

	LastDefensiveLineHeightStart, LastDefensiveLineHeightEnd float64
	TeammatesAheadStart, TeammatesAheadEnd                   float64
	OpponentsAheadStart, OpponentsAheadEnd                   float64

	// Player-level attribution, used by the player event aggregates.
	PlayerID                    string
	PlayerName                  string
	TeamID                      string
	TeamShortname               string
	TeamInPossessionPhaseType   string
	AssociatedOffBallRunSubtype string
	FurthestLineBreakType       string
	FurthestLineBreak           string
	Targeted                    bool
	PlayerInPossessionID        string
	PlayerInPossessionName      string
}

// EventTable is a batch of dynamic events.
type EventTable struct {
	Rows    []DynamicEvent
	Columns ColumnSet
}

// Dynamic event column names not shared with phases.
const (
	ColPhaseIndex                   = "phase_index"
	ColEventType                    = "event_type"
	ColEventSubtype                 = "event_subtype"
	ColTeamScore                    = "team_score"
	ColOpponentTeamScore            = "opponent_team_score"
	ColFirstPlayerPossession        = "first_player_possession_in_team_possession"
	ColLastPlayerPossession         = "last_player_possession_in_team_possession"
	ColLastDefensiveLineHeightStart = "last_defensive_line_height_start"
	ColLastDefensiveLineHeightEnd   = "last_defensive_line_height_end"
	ColTeammatesAheadStart          = "n_teammates_ahead_start"
	ColTeammatesAheadEnd            = "n_teammates_ahead_end"
	ColOpponentsAheadStart          = "n_opponents_ahead_start"
	ColOpponentsAheadEnd            = "n_opponents_ahead_end"
	ColPlayerID                     = "player_id"
	ColPlayerName                   = "player_name"
	ColTeamID                       = "team_id"
	ColTeamShortname                = "team_shortname"
	ColAssociatedOffBallRunSubtype  = "associated_off_ball_run_subtype"
	ColFurthestLineBreakType        = "furthest_line_break_type"
	ColFurthestLineBreak            = "furthest_line_break"
	ColTargeted                     = "targeted"
	ColPlayerInPossessionID         = "player_in_possession_id"
	ColPlayerInPossessionName       = "player_in_possession_name"
)

// EventColumns lists every dynamic event column the loader understands.
var EventColumns = []string{
	ColMatchID, ColIndex, ColPhaseIndex, ColPeriod, ColMatchDate,
	ColEventType, ColEventSubtype, ColFrameStart,
	ColTeamScore, ColOpponentTeamScore,
	ColFirstPlayerPossession, ColLastPlayerPossession,
	ColLastDefensiveLineHeightStart, ColLastDefensiveLineHeightEnd,
	ColTeammatesAheadStart, ColTeammatesAheadEnd,
	ColOpponentsAheadStart, ColOpponentsAheadEnd,
	ColPlayerID, ColPlayerName, ColTeamID, ColTeamShortname,
	ColTeamInPossessionPhaseType, ColAssociatedOffBallRunSubtype,
	ColFurthestLineBreakType, ColFurthestLineBreak, ColTargeted,
	ColPlayerInPossessionID, ColPlayerInPossessionName,
}

// NewEventTable wraps events built in code, marking every event column present
// except period unless withPeriod is set.
func NewEventTable(rows []DynamicEvent, withPeriod bool) EventTable {
	cols := NewColumnSet(EventColumns...)
	if !withPeriod {
		delete(cols, ColPeriod)
	}
	return EventTable{Rows: rows, Columns: cols}
}

// HasPeriod reports whether events carry a period.
func (t EventTable) HasPeriod() bool { return t.Columns.Has(ColPeriod) }

// ---- Match metadata and player minutes ----

// MatchInfo is one row of match metadata.
type MatchInfo struct {
	MatchID              string
	MatchDate            string
	Period1Minutes       float64
	Period2Minutes       float64
	MatchDurationMinutes float64 // sum of the period durations
}

// PlayerPerformance is one player's minutes in one match.
type PlayerPerformance struct {
	MatchID       string
	PlayerID      string
	TeamID        string
	MinutesPlayed float64
}

// ---- IDs ----

// CompareIDs orders identifiers numerically when both parse as integers and
// lexically otherwise. Empty ids sort last.
func CompareIDs(a, b string) int {
	if a == b {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
