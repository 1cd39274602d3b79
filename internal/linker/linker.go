// Package linker derives the out-of-possession team of every phase and links
// each phase to the one that chronologically follows it.
package linker

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/liamMichaelBailey/team-analysis-helpers/internal/model"
)

// Mode controls how a match without exactly two possession teams is handled.
type Mode int

const (
	// ModeBatch leaves the out-of-possession team empty for a degraded match
	// and keeps going.
	ModeBatch Mode = iota
	// ModeStrict fails on the first degraded match.
	ModeStrict
)

// AssignOutOfPossession fills team_out_of_possession_id/shortname with the other
// team of each match. Sources that already carry both columns are returned
// unchanged.
func AssignOutOfPossession(t model.PhaseTable, mode Mode, log logrus.FieldLogger) (model.PhaseTable, error) {
	out := t.Clone()
	if t.Columns.Has(model.ColTeamOutOfPossessionID) && t.Columns.Has(model.ColTeamOutOfPossessionShortname) {
		return out, nil
	}
	if err := model.RequireColumns("phases", t.Columns,
		model.ColMatchID, model.ColTeamInPossessionID, model.ColTeamInPossessionShortname); err != nil {
		return model.PhaseTable{}, err
	}

	for _, m := range partition(out.Rows, false) {
		ids, names := distinctTeams(out.Rows, m.rows)
		if len(ids) != 2 || len(names) != 2 {
			cerr := &model.CardinalityError{MatchID: m.key.matchID, TeamIDs: ids, TeamNames: names}
			if mode == ModeStrict {
				return model.PhaseTable{}, cerr
			}
			log.WithFields(logrus.Fields{
				"match_id": m.key.matchID,
				"teams":    len(ids),
				"names":    len(names),
			}).Warn("match does not have two possession teams; out-of-possession team left empty")
			for _, i := range m.rows {
				out.Rows[i].TeamOutOfPossessionID = ""
				out.Rows[i].TeamOutOfPossessionShortname = ""
			}
			continue
		}

		idSwap := map[string]string{ids[0]: ids[1], ids[1]: ids[0]}
		nameSwap := map[string]string{names[0]: names[1], names[1]: names[0]}
		for _, i := range m.rows {
			p := &out.Rows[i]
			p.TeamOutOfPossessionID = idSwap[p.TeamInPossessionID]
			p.TeamOutOfPossessionShortname = nameSwap[p.TeamInPossessionShortname]
		}
	}

	out.Columns.Add(model.ColTeamOutOfPossessionID, model.ColTeamOutOfPossessionShortname)
	return out, nil
}

// ComputeNextPhase sets team_in_possession_next_phase and
// team_out_of_possession_next_phase on every phase. The successor of a phase is
// the phase in the same match (and period, when tracked) whose frame_start
// equals its frame_end. When several phases share that frame_start the one
// earliest in input order wins. The chronologically last phase of a partition
// has no successor. A blank frame_end links to nothing, and a phase with a
// blank frame_start neither links nor is linked to.
func ComputeNextPhase(t model.PhaseTable, log logrus.FieldLogger) (model.PhaseTable, error) {
	if err := model.RequireColumns("phases", t.Columns,
		model.ColMatchID, model.ColFrameStart, model.ColFrameEnd,
		model.ColTeamInPossessionID, model.ColTeamInPossessionPhaseType,
		model.ColTeamOutOfPossessionID, model.ColTeamOutOfPossessionPhaseType,
	); err != nil {
		return model.PhaseTable{}, err
	}

	out := t.Clone()
	for _, part := range partition(out.Rows, t.HasPeriod()) {
		rows := make([]int, 0, len(part.rows))
		for _, i := range part.rows {
			out.Rows[i].InPossessionNextPhase = model.NoNextPhase
			out.Rows[i].OutOfPossessionNextPhase = model.NoNextPhase
			if out.Rows[i].FrameStart != model.NoFrame {
				rows = append(rows, i)
			}
		}
		sort.SliceStable(rows, func(a, b int) bool {
			return out.Rows[rows[a]].FrameStart < out.Rows[rows[b]].FrameStart
		})

		// frame_start -> row positions in ascending input order
		byStart := make(map[int][]int, len(rows))
		dupes := 0
		for _, i := range rows {
			fs := out.Rows[i].FrameStart
			if len(byStart[fs]) == 1 {
				dupes++
			}
			byStart[fs] = append(byStart[fs], i)
		}
		if dupes > 0 {
			fields := logrus.Fields{"match_id": part.key.matchID, "frame_starts": dupes}
			if t.HasPeriod() {
				fields["period"] = part.key.period
			}
			log.WithFields(fields).Warn("phases share a frame_start; earliest row is used as successor")
		}

		// The chronologically last row has nothing after it.
		for n := 0; n+1 < len(rows); n++ {
			i := rows[n]
			cur := &out.Rows[i]
			if cur.FrameEnd == model.NoFrame {
				continue
			}
			next, ok := successor(byStart[cur.FrameEnd], i)
			if !ok {
				continue
			}
			nxt := out.Rows[next]
			cur.InPossessionNextPhase = label(cur.TeamInPossessionID, nxt.TeamInPossessionID,
				nxt.TeamInPossessionPhaseType, nxt.TeamOutOfPossessionPhaseType)
			cur.OutOfPossessionNextPhase = label(cur.TeamOutOfPossessionID, nxt.TeamOutOfPossessionID,
				nxt.TeamOutOfPossessionPhaseType, nxt.TeamInPossessionPhaseType)
		}
	}

	out.Columns.Add(model.ColInPossessionNextPhase, model.ColOutOfPossessionNextPhase)
	return out, nil
}

// ---- helpers ----

type partKey struct {
	matchID string
	period  int
}

type part struct {
	key  partKey
	rows []int // positions into the flat row slice, input order
}

// partition groups row positions by match (and period), in order of first appearance.
func partition(rows []model.Phase, byPeriod bool) []part {
	idx := make(map[partKey]int)
	var parts []part
	for i, p := range rows {
		k := partKey{matchID: p.MatchID}
		if byPeriod {
			k.period = p.Period
		}
		n, ok := idx[k]
		if !ok {
			n = len(parts)
			idx[k] = n
			parts = append(parts, part{key: k})
		}
		parts[n].rows = append(parts[n].rows, i)
	}
	return parts
}

// distinctTeams returns the non-empty in-possession ids and names of a match in
// order of first appearance.
func distinctTeams(rows []model.Phase, positions []int) (ids, names []string) {
	seenID := make(map[string]bool)
	seenName := make(map[string]bool)
	for _, i := range positions {
		p := rows[i]
		if p.TeamInPossessionID != "" && !seenID[p.TeamInPossessionID] {
			seenID[p.TeamInPossessionID] = true
			ids = append(ids, p.TeamInPossessionID)
		}
		if p.TeamInPossessionShortname != "" && !seenName[p.TeamInPossessionShortname] {
			seenName[p.TeamInPossessionShortname] = true
			names = append(names, p.TeamInPossessionShortname)
		}
	}
	return ids, names
}

// successor picks the earliest candidate that is not the phase itself.
func successor(candidates []int, self int) (int, bool) {
	for _, c := range candidates {
		if c != self {
			return c, true
		}
	}
	return 0, false
}

// label returns sameType when the team is unchanged across the link, otherwise
// otherType. Unknown teams never compare equal.
func label(curTeam, nextTeam, sameType, otherType string) string {
	l := otherType
	if curTeam != "" && curTeam == nextTeam {
		l = sameType
	}
	if l == "" {
		return model.NoNextPhase
	}
	return l
}
