package kbo

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sourcegraph/conc/pool"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/game"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/usecase"
)

const (
	classDay   = "day"
	classTime  = "time"
	classPlay  = "play"
	classRelay = "relay"
	emptyNote  = "-"
)

// dayRegex reads "MM.DD" out of the day cell text, e.g. "05.13(화)".
var dayRegex = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})`)

// Former franchise names still show up in archived seasons.
var teamAliases = map[string]string{
	"SK":   "SSG",
	"넥센":   "키움",
	"우리":   "키움",
	"히어로즈": "키움",
	"OB":   "두산",
	"해태":   "KIA",
}

// FetchMonth returns every game line of one month, one request per configured series.
func (c *Client) FetchMonth(ctx context.Context, year int, month time.Month) ([]usecase.ExternalScheduleRow, error) {
	if year <= 0 || month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid schedule month %d-%02d", year, month)
	}

	p := pool.NewWithResults[[]usecase.ExternalScheduleRow]().WithContext(ctx).WithCancelOnError()
	for _, seriesID := range c.seriesIDs {
		p.Go(func(ctx context.Context) ([]usecase.ExternalScheduleRow, error) {
			return c.fetchSeriesMonth(ctx, year, month, seriesID)
		})
	}
	batches, err := p.Wait()
	if err != nil {
		return nil, err
	}

	var rows []usecase.ExternalScheduleRow
	for _, batch := range batches {
		rows = append(rows, batch...)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.Before(rows[j].Date)
		}
		if rows[i].Time != rows[j].Time {
			return rows[i].Time < rows[j].Time
		}
		return rows[i].GameID < rows[j].GameID
	})
	return rows, nil
}

func (c *Client) fetchSeriesMonth(ctx context.Context, year int, month time.Month, seriesID int) ([]usecase.ExternalScheduleRow, error) {
	var envelope scheduleEnvelope
	err := c.postForm(ctx, pathScheduleList, []formField{
		{key: "leId", value: strconv.Itoa(c.leagueID)},
		{key: "srIdList", value: strconv.Itoa(seriesID)},
		{key: "seasonId", value: strconv.Itoa(year)},
		{key: "gameMonth", value: fmt.Sprintf("%02d", int(month))},
		{key: "teamId", value: ""},
	}, &envelope)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule %d-%02d series=%d: %w", year, month, seriesID, err)
	}

	rows, skipped := parseScheduleRows(envelope.Rows, year, seriesID, c.loc)
	if skipped > 0 {
		c.logger.WarnContext(ctx, "kbo schedule rows skipped",
			"year", year,
			"month", int(month),
			"series_id", seriesID,
			"skipped", skipped,
		)
	}
	return rows, nil
}

// parseScheduleRows walks the table rows. The day cell spans every game of
// that day, so rows without one inherit the previous date.
func parseScheduleRows(items []scheduleRow, year, seriesID int, loc *time.Location) ([]usecase.ExternalScheduleRow, int) {
	out := make([]usecase.ExternalScheduleRow, 0, len(items))
	skipped := 0

	var day time.Time
	for _, item := range items {
		row, ok := parseScheduleRow(item.Row, year, loc, &day)
		if !ok {
			if hasClass(item.Row, classPlay) {
				skipped++
			}
			continue
		}
		row.SeriesID = seriesID
		out = append(out, row)
	}
	return out, skipped
}

func parseScheduleRow(cells []cell, year int, loc *time.Location, day *time.Time) (usecase.ExternalScheduleRow, bool) {
	var (
		row   usecase.ExternalScheduleRow
		plain []string
		play  bool
	)

	for _, item := range cells {
		switch strings.TrimSpace(item.Class) {
		case classDay:
			parsed, ok := parseDay(item.Text, year, loc)
			if !ok {
				return row, false
			}
			*day = parsed
		case classTime:
			row.Time = cellText(item.Text)
		case classPlay:
			away, home, awayScore, homeScore, ok := parsePlay(item.Text)
			if !ok {
				return row, false
			}
			row.AwayTeam, row.HomeTeam = away, home
			row.AwayScore, row.HomeScore = awayScore, homeScore
			play = true
		case classRelay:
			row.GameID = relayGameID(item.Text, loc)
		default:
			plain = append(plain, cellText(item.Text))
		}
	}

	// Trailing unclassed cells are broadcasters, stadium and note, in that order.
	if !play || day.IsZero() || len(plain) < 2 {
		return row, false
	}
	row.Date = *day
	row.Stadium = plain[len(plain)-2]
	if note := plain[len(plain)-1]; note != emptyNote {
		row.Note = note
	}
	return row, true
}

func parseDay(raw string, year int, loc *time.Location) (time.Time, bool) {
	match := dayRegex.FindStringSubmatch(cellText(raw))
	if match == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(match[1])
	dayOfMonth, _ := strconv.Atoi(match[2])
	if month < 1 || month > 12 || dayOfMonth < 1 || dayOfMonth > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), dayOfMonth, 0, 0, 0, 0, loc), true
}

// parsePlay reads "<span>away</span><em>score vs score</em><span>home</span>".
// Scores are absent before the game starts.
func parsePlay(raw string) (away, home string, awayScore, homeScore *int, ok bool) {
	body, err := fragment(raw)
	if err != nil {
		return "", "", nil, nil, false
	}
	board := body.Find("em").First()
	teams := body.ChildrenFiltered("span")
	if board.Length() == 0 || teams.Length() < 2 {
		return "", "", nil, nil, false
	}

	away = normalizeTeam(teams.First().Text())
	home = normalizeTeam(teams.Last().Text())
	if away == "" || home == "" {
		return "", "", nil, nil, false
	}

	var runs []int
	board.Children().Each(func(_ int, item *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(item.Text())); err == nil {
			runs = append(runs, n)
		}
	})
	if len(runs) == 2 {
		awayScore, homeScore = &runs[0], &runs[1]
	}
	return away, home, awayScore, homeScore, true
}

// relayGameID takes the gameId query value of the first review or relay link.
func relayGameID(raw string, loc *time.Location) string {
	body, err := fragment(raw)
	if err != nil {
		return ""
	}

	var id string
	body.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		parsed, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return true
		}
		candidate := strings.TrimSpace(parsed.Query().Get("gameId"))
		if _, err := game.ParseID(candidate, loc); err != nil {
			return true
		}
		id = candidate
		return false
	})
	return id
}

func normalizeTeam(name string) string {
	name = strings.TrimSpace(name)
	if alias, ok := teamAliases[name]; ok {
		return alias
	}
	return name
}

// fragment parses one cell. The parser wraps it in a document, so the cell
// content ends up under body.
func fragment(raw string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse cell html: %w", err)
	}
	return doc.Find("body"), nil
}

func cellText(raw string) string {
	if !strings.ContainsAny(raw, "<&") {
		return strings.TrimSpace(raw)
	}
	body, err := fragment(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(body.Text())
}

func hasClass(cells []cell, class string) bool {
	for _, item := range cells {
		if strings.TrimSpace(item.Class) == class {
			return true
		}
	}
	return false
}
