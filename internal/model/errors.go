package model

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns absent from an input table. It is fatal
// for the whole run.
type SchemaError struct {
	Table   string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s missing required columns: [%s]", e.Table, strings.Join(e.Missing, ", "))
}

// RequireColumns returns a *SchemaError when any of required is absent from cols.
func RequireColumns(table string, cols ColumnSet, required ...string) error {
	if missing := cols.Missing(required...); len(missing) > 0 {
		return &SchemaError{Table: table, Missing: missing}
	}
	return nil
}

// CardinalityError reports a match that does not have exactly two possession teams.
type CardinalityError struct {
	MatchID   string
	TeamIDs   []string
	TeamNames []string
}

func (e *CardinalityError) Error() string {
	return fmt.Sprintf("match %s: expected 2 possession teams, found %d ids %v and %d names %v",
		e.MatchID, len(e.TeamIDs), e.TeamIDs, len(e.TeamNames), e.TeamNames)
}
