// Package loader reads the phase, dynamic event, match and player performance
// tables from CSV exports.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// Column names of the match metadata and player performance exports.
const (
	colPeriod1Minutes   = "match_period_1_duration_minutes"
	colPeriod2Minutes   = "match_period_2_duration_minutes"
	colMatchMinutes     = "match_duration_minutes"
	colMatchDateTime    = "date_time"
	colMinutesPlayed    = "playing_time_total_minutes_played"
	colPlayerMinutesAlt = "minutes_played"
)

// csvTable is a parsed CSV with a case-insensitive header index.
type csvTable struct {
	name    string
	header  map[string]int
	records [][]string
}

func readCSV(name string, r io.Reader) (*csvTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	hdr, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: read header: %w", name, err)
	}
	t := &csvTable{name: name, header: make(map[string]int, len(hdr))}
	for i, h := range hdr {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := t.header[h]; !dup {
			t.header[h] = i
		}
	}
	// pandas exports write an unnamed leading index column.
	delete(t.header, "")
	delete(t.header, "unnamed: 0")

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read row %d: %w", name, len(t.records)+2, err)
		}
		t.records = append(t.records, rec)
	}
	return t, nil
}

func (t *csvTable) columns() model.ColumnSet {
	cols := make(model.ColumnSet, len(t.header))
	for h := range t.header {
		cols[h] = struct{}{}
	}
	return cols
}

// cell returns the trimmed value of col in rec, or "" when col is absent.
func (t *csvTable) cell(rec []string, col string) string {
	i, ok := t.header[col]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (t *csvTable) str(rec []string, col string) string {
	s := t.cell(rec, col)
	if isNullToken(s) {
		return ""
	}
	return s
}

func (t *csvTable) id(rec []string, col string) string {
	return normalizeID(t.str(rec, col))
}

func (t *csvTable) float(rec []string, col string) float64 {
	s := t.str(rec, col)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// count parses a count column, treating missing values as zero.
func (t *csvTable) count(rec []string, col string) float64 {
	v := t.float(rec, col)
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func (t *csvTable) int(rec []string, col string) int {
	return t.optInt(rec, col, 0)
}

// optInt parses an integer column that may be blank, returning missing then.
func (t *csvTable) optInt(rec []string, col string, missing int) int {
	v := t.float(rec, col)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return missing
	}
	return int(math.Round(v))
}

func (t *csvTable) bool(rec []string, col string) bool {
	return ParseBool(t.cell(rec, col))
}

func (t *csvTable) date(rec []string, col string) string {
	s := t.str(rec, col)
	if len(s) > 10 {
		s = s[:10]
	}
	return s
}

// ParseBool normalizes the textual boolean variants found in provider exports.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "t", "yes", "y", "1.0":
		return true
	}
	return false
}

func isNullToken(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "<na>", "null", "none", "nat":
		return true
	}
	return false
}

// normalizeID strips the ".0" pandas adds to integer ids stored as floats.
func normalizeID(s string) string {
	if strings.HasSuffix(s, ".0") {
		if _, err := strconv.ParseInt(strings.TrimSuffix(s, ".0"), 10, 64); err == nil {
			return strings.TrimSuffix(s, ".0")
		}
	}
	return s
}

// ReadPhases parses a phases-of-play export. Missing columns are not an error
// here; each pipeline stage checks the columns it needs.
func ReadPhases(r io.Reader) (model.PhaseTable, error) {
	t, err := readCSV("phases", r)
	if err != nil {
		return model.PhaseTable{}, err
	}
	if err := model.RequireColumns("phases", t.columns(), model.ColMatchID); err != nil {
		return model.PhaseTable{}, err
	}
	cols := t.columns()
	_, hasIndex := t.header[model.ColIndex]

	rows := make([]model.Phase, 0, len(t.records))
	for i, rec := range t.records {
		p := model.Phase{
			MatchID:   t.id(rec, model.ColMatchID),
			Index:     i,
			Period:    t.int(rec, model.ColPeriod),
			MatchDate: t.date(rec, model.ColMatchDate),

			FrameStart:  t.optInt(rec, model.ColFrameStart, model.NoFrame),
			FrameEnd:    t.optInt(rec, model.ColFrameEnd, model.NoFrame),
			Duration:    t.float(rec, model.ColDuration),
			TimeStart:   t.str(rec, model.ColTimeStart),
			TimeEnd:     t.str(rec, model.ColTimeEnd),
			MinuteStart: t.float(rec, model.ColMinuteStart),
			SecondStart: t.float(rec, model.ColSecondStart),

			TeamInPossessionID:           t.id(rec, model.ColTeamInPossessionID),
			TeamInPossessionShortname:    t.str(rec, model.ColTeamInPossessionShortname),
			TeamInPossessionPhaseType:    t.str(rec, model.ColTeamInPossessionPhaseType),
			TeamOutOfPossessionID:        t.id(rec, model.ColTeamOutOfPossessionID),
			TeamOutOfPossessionShortname: t.str(rec, model.ColTeamOutOfPossessionShortname),
			TeamOutOfPossessionPhaseType: t.str(rec, model.ColTeamOutOfPossessionPhaseType),

			InPossessionWidthStart:     t.float(rec, model.ColInPossessionWidthStart),
			InPossessionWidthEnd:       t.float(rec, model.ColInPossessionWidthEnd),
			InPossessionLengthStart:    t.float(rec, model.ColInPossessionLengthStart),
			InPossessionLengthEnd:      t.float(rec, model.ColInPossessionLengthEnd),
			OutOfPossessionWidthStart:  t.float(rec, model.ColOutOfPossessionWidthStart),
			OutOfPossessionWidthEnd:    t.float(rec, model.ColOutOfPossessionWidthEnd),
			OutOfPossessionLengthStart: t.float(rec, model.ColOutOfPossessionLengthStart),
			OutOfPossessionLengthEnd:   t.float(rec, model.ColOutOfPossessionLengthEnd),

			PlayerPossessions: t.count(rec, model.ColPlayerPossessionsInPhase),

			PossessionLoss:   t.bool(rec, model.ColPossessionLoss),
			LeadToShot:       t.bool(rec, model.ColLeadToShot),
			LeadToGoal:       t.bool(rec, model.ColLeadToGoal),
			ChannelStart:     t.str(rec, model.ColChannelStart),
			ThirdStart:       t.str(rec, model.ColThirdStart),
			PenaltyAreaStart: t.str(rec, model.ColPenaltyAreaStart),
			ChannelEnd:       t.str(rec, model.ColChannelEnd),
			ThirdEnd:         t.str(rec, model.ColThirdEnd),
			PenaltyAreaEnd:   t.str(rec, model.ColPenaltyAreaEnd),
		}
		if hasIndex {
			p.Index = t.int(rec, model.ColIndex)
		}
		rows = append(rows, p)
	}
	// Without a provider index the row position stands in for it.
	cols.Add(model.ColIndex)
	return model.PhaseTable{Rows: rows, Columns: cols}, nil
}

// ReadEvents parses a dynamic events export.
func ReadEvents(r io.Reader) (model.EventTable, error) {
	t, err := readCSV("dynamic_events", r)
	if err != nil {
		return model.EventTable{}, err
	}
	if err := model.RequireColumns("dynamic_events", t.columns(), model.ColMatchID); err != nil {
		return model.EventTable{}, err
	}

	rows := make([]model.DynamicEvent, 0, len(t.records))
	for _, rec := range t.records {
		subtype := t.str(rec, model.ColEventSubtype)
		if subtype == "" {
			subtype = "None"
		}
		rows = append(rows, model.DynamicEvent{
			MatchID:    t.id(rec, model.ColMatchID),
			Index:      t.int(rec, model.ColIndex),
			PhaseIndex: t.optInt(rec, model.ColPhaseIndex, model.NoPhase),
			Period:     t.int(rec, model.ColPeriod),
			MatchDate:  t.date(rec, model.ColMatchDate),

			EventType:    t.str(rec, model.ColEventType),
			EventSubtype: subtype,
			FrameStart:   t.float(rec, model.ColFrameStart),

			TeamScore:         t.float(rec, model.ColTeamScore),
			OpponentTeamScore: t.float(rec, model.ColOpponentTeamScore),

			FirstPlayerPossessionInTeamPossession: t.bool(rec, model.ColFirstPlayerPossession),
			LastPlayerPossessionInTeamPossession:  t.bool(rec, model.ColLastPlayerPossession),

			LastDefensiveLineHeightStart: t.float(rec, model.ColLastDefensiveLineHeightStart),
			LastDefensiveLineHeightEnd:   t.float(rec, model.ColLastDefensiveLineHeightEnd),
			TeammatesAheadStart:          t.float(rec, model.ColTeammatesAheadStart),
			TeammatesAheadEnd:            t.float(rec, model.ColTeammatesAheadEnd),
			OpponentsAheadStart:          t.float(rec, model.ColOpponentsAheadStart),
			OpponentsAheadEnd:            t.float(rec, model.ColOpponentsAheadEnd),

			PlayerID:                    t.id(rec, model.ColPlayerID),
			PlayerName:                  t.str(rec, model.ColPlayerName),
			TeamID:                      t.id(rec, model.ColTeamID),
			TeamShortname:               t.str(rec, model.ColTeamShortname),
			TeamInPossessionPhaseType:   t.str(rec, model.ColTeamInPossessionPhaseType),
			AssociatedOffBallRunSubtype: t.str(rec, model.ColAssociatedOffBallRunSubtype),
			FurthestLineBreakType:       t.str(rec, model.ColFurthestLineBreakType),
			FurthestLineBreak:           t.str(rec, model.ColFurthestLineBreak),
			Targeted:                    t.bool(rec, model.ColTargeted),
			PlayerInPossessionID:        t.id(rec, model.ColPlayerInPossessionID),
			PlayerInPossessionName:      t.str(rec, model.ColPlayerInPossessionName),
		})
	}
	return model.EventTable{Rows: rows, Columns: t.columns()}, nil
}

// ReadMatches parses match metadata and derives match_duration_minutes from the
// period durations when the export does not carry it.
func ReadMatches(r io.Reader) ([]model.MatchInfo, error) {
	t, err := readCSV("matches", r)
	if err != nil {
		return nil, err
	}
	cols := t.columns()
	if err := model.RequireColumns("matches", cols, model.ColMatchID); err != nil {
		return nil, err
	}
	if !cols.Has(colMatchMinutes) {
		if err := model.RequireColumns("matches", cols, colPeriod1Minutes, colPeriod2Minutes); err != nil {
			return nil, err
		}
	}

	out := make([]model.MatchInfo, 0, len(t.records))
	for _, rec := range t.records {
		m := model.MatchInfo{
			MatchID:        t.id(rec, model.ColMatchID),
			MatchDate:      t.date(rec, model.ColMatchDate),
			Period1Minutes: t.float(rec, colPeriod1Minutes),
			Period2Minutes: t.float(rec, colPeriod2Minutes),
		}
		if m.MatchDate == "" {
			m.MatchDate = t.date(rec, colMatchDateTime)
		}
		if cols.Has(colMatchMinutes) {
			m.MatchDurationMinutes = t.float(rec, colMatchMinutes)
		} else {
			m.MatchDurationMinutes = m.Period1Minutes + m.Period2Minutes
		}
		out = append(out, m)
	}
	return out, nil
}

// ReadPerformances parses per-player per-match minutes played.
func ReadPerformances(r io.Reader) ([]model.PlayerPerformance, error) {
	t, err := readCSV("player_performances", r)
	if err != nil {
		return nil, err
	}
	cols := t.columns()
	minutesCol := colMinutesPlayed
	if !cols.Has(minutesCol) && cols.Has(colPlayerMinutesAlt) {
		minutesCol = colPlayerMinutesAlt
	}
	if err := model.RequireColumns("player_performances", cols,
		model.ColMatchID, model.ColPlayerID, model.ColTeamID, minutesCol); err != nil {
		return nil, err
	}

	out := make([]model.PlayerPerformance, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, model.PlayerPerformance{
			MatchID:       t.id(rec, model.ColMatchID),
			PlayerID:      t.id(rec, model.ColPlayerID),
			TeamID:        t.id(rec, model.ColTeamID),
			MinutesPlayed: t.float(rec, minutesCol),
		})
	}
	return out, nil
}

// LoadPhases opens and parses a phases CSV file.
func LoadPhases(path string) (model.PhaseTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.PhaseTable{}, fmt.Errorf("open phases: %w", err)
	}
	defer f.Close()
	return ReadPhases(f)
}

// LoadEvents opens and parses a dynamic events CSV file.
func LoadEvents(path string) (model.EventTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.EventTable{}, fmt.Errorf("open dynamic events: %w", err)
	}
	defer f.Close()
	return ReadEvents(f)
}

// LoadMatches opens and parses a match metadata CSV file.
func LoadMatches(path string) ([]model.MatchInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open matches: %w", err)
	}
	defer f.Close()
	return ReadMatches(f)
}

// LoadPerformances opens and parses a player performances CSV file.
func LoadPerformances(path string) ([]model.PlayerPerformance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open player performances: %w", err)
	}
	defer f.Close()
	return ReadPerformances(f)
}
