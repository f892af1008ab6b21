package kbo

// Wire types of the koreabaseball.com web service. Cells carry HTML fragments.

type scheduleEnvelope struct {
	Code string        `json:"code"`
	Msg  string        `json:"msg"`
	Rows []scheduleRow `json:"rows"`
}

type scheduleRow struct {
	Row []cell `json:"row"`
}

type cell struct {
	Text    string `json:"Text"`
	Class   string `json:"Class"`
	RowSpan string `json:"RowSpan"`
}

type gameListEnvelope struct {
	Code  string         `json:"code"`
	Msg   string         `json:"msg"`
	Games []gameListItem `json:"game"`
}

type gameListItem struct {
	GameID      string `json:"G_ID"`
	GameDate    string `json:"G_DT"`
	StateCode   string `json:"GAME_STATE_SC"`
	CancelCode  string `json:"CANCEL_SC_ID"`
	CancelName  string `json:"CANCEL_SC_NM"`
	AwayID      string `json:"AWAY_ID"`
	HomeID      string `json:"HOME_ID"`
	StadiumName string `json:"S_NM"`
}

// scoreBoardEnvelope nests the line score as a JSON document inside a string.
type scoreBoardEnvelope struct {
	Code   string `json:"code"`
	Msg    string `json:"msg"`
	Table3 string `json:"table3"`
}

type scoreTable struct {
	Rows []scheduleRow `json:"rows"`
}

// GAME_STATE_SC values.
const (
	stateBeforeGame = "1"
	stateInProgress = "2"
	stateFinished   = "3"
	stateCanceled   = "4"
)

const (
	statusBeforeGame = "경기전"
	statusInProgress = "경기중"
	normalGameName   = "정상경기"
	responseCodeOK   = "100"
)
