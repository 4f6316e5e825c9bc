package model

// BucketPoint は棒グラフ1本分の表示データです。
// BucketKey は日単位のポイントにのみ設定され、時間単位へのドリルダウンに使います。
type BucketPoint struct {
	Label     string `json:"label"`
	Count     int    `json:"count"`
	BucketKey string `json:"bucket_key,omitempty"`
}

// CalendarCell はカレンダーグリッドの1マスです。
// 年外のパディングセルは BucketKey が空、Value が0、InYear が false です。
type CalendarCell struct {
	BucketKey string  `json:"bucket_key,omitempty"`
	Count     int     `json:"count"`
	Value     float64 `json:"value"`
	InYear    bool    `json:"in_year"`
	Future    bool    `json:"future,omitempty"`
}

// Week は日曜から土曜までの7セルです。
type Week [7]CalendarCell

// CalendarGrid は1年分の週単位カレンダーレイアウトです。
// MonthLabels は Weeks と同じ長さで、ラベルのない週は空文字です。
type CalendarGrid struct {
	Year          int      `json:"year"`
	Weeks         []Week   `json:"weeks"`
	MonthLabels   []string `json:"month_labels"`
	MaxCount      int      `json:"max_count"`
	Normalization string   `json:"normalization"`
}

// HeatmapMatrix は7日×24時間の集計マトリクスです。
// Days[i] は行 i の日付キー、MaxCount は常に1以上です。
type HeatmapMatrix struct {
	StartDate string     `json:"start_date"`
	Days      [7]string  `json:"days"`
	Cells     [7][24]int `json:"cells"`
	MaxCount  int        `json:"max_count"`
}

// TrendStats は直近30日から算出した傾向値です。
type TrendStats struct {
	Today      int `json:"today"`
	TodayDelta int `json:"today_delta"`
	ThisWeek   int `json:"this_week"`
	WeekDelta  int `json:"week_delta"`
}
