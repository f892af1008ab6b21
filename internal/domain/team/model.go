package team

import (
	"fmt"
	"strings"
)

// Team is one KBO club. Code is the two-letter code used inside game ids.
type Team struct {
	ID        int64
	Name      string
	ShortName string
	Code      string
}

func (t Team) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("team id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("team name is required")
	}
	if len(strings.TrimSpace(t.Code)) != 2 {
		return fmt.Errorf("team code must be two characters")
	}

	return nil
}
