package game

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	idDateLayout = "20060102"
	idLength     = len(idDateLayout) + 2 + 2 + 1
)

// ID is the decoded form of a KBO game id such as 20250513WOLG0:
// date, away team code, home team code, double-header index.
type ID struct {
	Date         time.Time
	AwayCode     string
	HomeCode     string
	DoubleHeader int
}

func ParseID(raw string, loc *time.Location) (ID, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) != idLength {
		return ID{}, fmt.Errorf("game id %q must be %d characters", raw, idLength)
	}
	if loc == nil {
		loc = time.UTC
	}

	date, err := time.ParseInLocation(idDateLayout, raw[:8], loc)
	if err != nil {
		return ID{}, fmt.Errorf("parse game id %q date: %w", raw, err)
	}
	dh, err := strconv.Atoi(raw[12:])
	if err != nil {
		return ID{}, fmt.Errorf("parse game id %q double-header index: %w", raw, err)
	}

	return ID{
		Date:         date,
		AwayCode:     raw[8:10],
		HomeCode:     raw[10:12],
		DoubleHeader: dh,
	}, nil
}

func (id ID) String() string {
	return id.Date.Format(idDateLayout) + id.AwayCode + id.HomeCode + strconv.Itoa(id.DoubleHeader)
}

func (id ID) WithDoubleHeader(index int) ID {
	id.DoubleHeader = index
	return id
}

// IsDoubleHeader reports whether the id addresses one game of a double header.
func (id ID) IsDoubleHeader() bool {
	return id.DoubleHeader > 0
}
