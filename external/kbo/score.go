package kbo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
)

// FetchScore reads the status from the daily game list and the runs from the
// score board. Both requests run concurrently and fail independently.
func (c *Client) FetchScore(ctx context.Context, query usecase.ScoreQuery) (usecase.ScoreSnapshot, error) {
	gameID := strings.TrimSpace(query.GameID)
	if len(gameID) < 8 {
		return usecase.ScoreSnapshot{}, fmt.Errorf("%w: game id %q", usecase.ErrInvalidInput, query.GameID)
	}
	leagueID := query.LeagueID
	if leagueID <= 0 {
		leagueID = c.leagueID
	}

	var (
		wg        conc.WaitGroup
		status    *string
		home      *int
		away      *int
		statusErr error
		scoreErr  error
	)
	wg.Go(func() {
		status, statusErr = c.fetchStatus(ctx, leagueID, gameID)
	})
	wg.Go(func() {
		home, away, scoreErr = c.fetchScoreBoard(ctx, leagueID, query.SeriesID, query.Year, gameID)
	})
	wg.Wait()

	snapshot := usecase.ScoreSnapshot{Status: status}
	if scoreErr == nil {
		snapshot.HomeScore, snapshot.AwayScore = home, away
	}
	return snapshot, crerr.CombineErrors(statusErr, scoreErr)
}

func (c *Client) fetchStatus(ctx context.Context, leagueID int, gameID string) (*string, error) {
	var envelope gameListEnvelope
	err := c.postForm(ctx, pathGameList, []formField{
		{key: "leId", value: strconv.Itoa(leagueID)},
		{key: "srId", value: allGameListSeries},
		{key: "date", value: gameID[:8]},
	}, &envelope)
	if err != nil {
		return nil, fmt.Errorf("fetch game status %s: %w", gameID, err)
	}

	for _, item := range envelope.Games {
		if strings.TrimSpace(item.GameID) != gameID {
			continue
		}
		status := rawStatus(item)
		if status == "" {
			return nil, fmt.Errorf("game %s has unknown state code %q", gameID, item.StateCode)
		}
		return &status, nil
	}
	return nil, fmt.Errorf("game %s not in game list", gameID)
}

// rawStatus translates the state code into the status texts the schedule
// page publishes, so both sources feed the same state machine.
func rawStatus(item gameListItem) string {
	cancelName := strings.TrimSpace(item.CancelName)
	switch strings.TrimSpace(item.StateCode) {
	case stateBeforeGame:
		return statusBeforeGame
	case stateInProgress:
		return statusInProgress
	case stateFinished:
		return game.RawStatusFinished
	case stateCanceled:
		if cancelName == "" || cancelName == normalGameName {
			return game.RawStatusOther
		}
		return cancelName
	default:
		return ""
	}
}

func (c *Client) fetchScoreBoard(ctx context.Context, leagueID, seriesID, year int, gameID string) (home, away *int, err error) {
	if year <= 0 {
		year, err = strconv.Atoi(gameID[:4])
		if err != nil {
			return nil, nil, fmt.Errorf("derive season from game id %s: %w", gameID, err)
		}
	}

	var envelope scoreBoardEnvelope
	err = c.postForm(ctx, pathScoreBoard, []formField{
		{key: "leId", value: strconv.Itoa(leagueID)},
		{key: "srId", value: strconv.Itoa(seriesID)},
		{key: "seasonId", value: strconv.Itoa(year)},
		{key: "gameId", value: gameID},
	}, &envelope)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch score board %s: %w", gameID, err)
	}
	if code := strings.TrimSpace(envelope.Code); code != "" && code != responseCodeOK {
		return nil, nil, fmt.Errorf("score board %s: code=%s msg=%s", gameID, code, strings.TrimSpace(envelope.Msg))
	}
	return parseScoreTable(envelope.Table3)
}

// parseScoreTable reads the runs column of the R/H/E/B table: away first, home second.
// A game that has not started publishes empty cells and yields nil scores.
func parseScoreTable(raw string) (home, away *int, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil, nil
	}

	var table scoreTable
	if err := sonic.UnmarshalString(raw, &table); err != nil {
		return nil, nil, fmt.Errorf("decode score table: %w", err)
	}
	if len(table.Rows) < 2 {
		return nil, nil, fmt.Errorf("score table has %d rows", len(table.Rows))
	}

	away, err = runsOf(table.Rows[0])
	if err != nil {
		return nil, nil, fmt.Errorf("away runs: %w", err)
	}
	home, err = runsOf(table.Rows[1])
	if err != nil {
		return nil, nil, fmt.Errorf("home runs: %w", err)
	}
	if (home == nil) != (away == nil) {
		return nil, nil, fmt.Errorf("score table publishes only one side")
	}
	return home, away, nil
}

func runsOf(row scheduleRow) (*int, error) {
	if len(row.Row) == 0 {
		return nil, fmt.Errorf("empty row")
	}
	text := cellText(row.Row[0].Text)
	if text == "" || text == emptyNote {
		return nil, nil
	}
	runs, err := strconv.Atoi(text)
	if err != nil {
		return nil, fmt.Errorf("parse runs %q: %w", text, err)
	}
	return &runs, nil
}
