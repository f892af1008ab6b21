package memory

import (
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/stadium"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/domain/team"
)

const (
	TeamIDLG int64 = iota + 1
	TeamIDDoosan
	TeamIDKIA
	TeamIDSamsung
	TeamIDLotte
	TeamIDSSG
	TeamIDHanwha
	TeamIDNC
	TeamIDKT
	TeamIDKiwoom
)

// SeedTeams returns the ten KBO clubs. Codes are the ones used inside game ids.
func SeedTeams() []team.Team {
	return []team.Team{
		{ID: TeamIDLG, Name: "LG 트윈스", ShortName: "LG", Code: "LG"},
		{ID: TeamIDDoosan, Name: "두산 베어스", ShortName: "두산", Code: "OB"},
		{ID: TeamIDKIA, Name: "KIA 타이거즈", ShortName: "KIA", Code: "HT"},
		{ID: TeamIDSamsung, Name: "삼성 라이온즈", ShortName: "삼성", Code: "SS"},
		{ID: TeamIDLotte, Name: "롯데 자이언츠", ShortName: "롯데", Code: "LT"},
		{ID: TeamIDSSG, Name: "SSG 랜더스", ShortName: "SSG", Code: "SK"},
		{ID: TeamIDHanwha, Name: "한화 이글스", ShortName: "한화", Code: "HH"},
		{ID: TeamIDNC, Name: "NC 다이노스", ShortName: "NC", Code: "NC"},
		{ID: TeamIDKT, Name: "KT 위즈", ShortName: "KT", Code: "KT"},
		{ID: TeamIDKiwoom, Name: "키움 히어로즈", ShortName: "키움", Code: "WO"},
	}
}

func SeedStadiums() []stadium.Stadium {
	return []stadium.Stadium{
		{ID: 1, Name: "잠실", FullName: "잠실야구장", Latitude: 37.5122, Longitude: 127.0719},
		{ID: 2, Name: "고척", FullName: "고척스카이돔", Latitude: 37.4982, Longitude: 126.8670},
		{ID: 3, Name: "문학", FullName: "인천SSG랜더스필드", Latitude: 37.4370, Longitude: 126.6933},
		{ID: 4, Name: "수원", FullName: "수원KT위즈파크", Latitude: 37.2997, Longitude: 127.0097},
		{ID: 5, Name: "대전", FullName: "대전한화생명볼파크", Latitude: 36.3171, Longitude: 127.4291},
		{ID: 6, Name: "대구", FullName: "대구삼성라이온즈파크", Latitude: 35.8410, Longitude: 128.6815},
		{ID: 7, Name: "사직", FullName: "사직야구장", Latitude: 35.1940, Longitude: 129.0615},
		{ID: 8, Name: "광주", FullName: "광주-기아챔피언스필드", Latitude: 35.1682, Longitude: 126.8889},
		{ID: 9, Name: "창원", FullName: "창원NC파크", Latitude: 35.2225, Longitude: 128.5823},
		{ID: 10, Name: "포항", FullName: "포항야구장", Latitude: 36.0081, Longitude: 129.3592},
		{ID: 11, Name: "울산", FullName: "울산문수야구장", Latitude: 35.5323, Longitude: 129.2656},
		{ID: 12, Name: "청주", FullName: "청주야구장", Latitude: 36.6390, Longitude: 127.4700},
	}
}
