// Package model は、ダッシュボードで扱う値オブジェクトとエラー定義を提供します。
package model

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// CountRecord は上流サーバーが返す1バケット分の集計値です。
// BucketKey は時間キー "YYYY-MM-DD HH" または日キー "YYYY-MM-DD" です。
type CountRecord struct {
	BucketKey string `json:"bucket_key"`
	Count     int    `json:"count"`
}

// UnmarshalJSON は上流サーバーの3種類の形式を受け付けます。
//
//	{"Hour": "2024-03-05 14", "Count": 3}
//	{"Day": "2024-03-05", "Count": 3}
//	{"bucket_key": "2024-03-05", "count": 3}
func (r *CountRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		BucketKey *string `json:"bucket_key"`
		Hour      *string `json:"hour"`
		Day       *string `json:"day"`
		Count     *int    `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch {
	case raw.BucketKey != nil:
		r.BucketKey = *raw.BucketKey
	case raw.Hour != nil:
		r.BucketKey = *raw.Hour
	case raw.Day != nil:
		r.BucketKey = *raw.Day
	default:
		return errors.New("bucket key is required")
	}

	if raw.Count == nil {
		return fmt.Errorf("count is required for %q", r.BucketKey)
	}
	r.Count = *raw.Count
	return nil
}

// Validate はレコードのデータバリデーションを行います。
func (r CountRecord) Validate() error {
	// キーの検証
	if !IsHourKey(r.BucketKey) && !IsDayKey(r.BucketKey) {
		return NewValidationError(fmt.Sprintf("invalid bucket key %q", r.BucketKey))
	}

	// 値の検証
	if r.Count < 0 {
		return NewValidationError(fmt.Sprintf("negative count %d for %s", r.Count, r.BucketKey))
	}

	return nil
}

// HourDayRecord はヒートマップ用の (日, 時) 単位の集計値です。
type HourDayRecord struct {
	Day   string `json:"day"`
	Hour  int    `json:"hour"`
	Count int    `json:"count"`
}

// Validate はレコードのデータバリデーションを行います。
func (r HourDayRecord) Validate() error {
	if !IsDayKey(r.Day) {
		return NewValidationError(fmt.Sprintf("invalid day %q", r.Day))
	}
	if r.Hour < 0 || r.Hour > 23 {
		return NewValidationError(fmt.Sprintf("hour out of range: %d", r.Hour))
	}
	if r.Count < 0 {
		return NewValidationError(fmt.Sprintf("negative count %d for %s %02d", r.Count, r.Day, r.Hour))
	}
	return nil
}

// WeeklyHeatmap は上流サーバーの週次ヒートマップ応答です。
type WeeklyHeatmap struct {
	StartDate string          `json:"startDate"`
	Data      []HourDayRecord `json:"data"`
}

// ValidateRecords はすべてのレコードを検証し、最初のエラーを返します。
func ValidateRecords(records []CountRecord) error {
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// DuplicateKeys は複数回出現したバケットキーを出現順に返します。
// 重複は後勝ちで集計されますが、データ品質の異常として記録するために使います。
func DuplicateKeys(records []CountRecord) []string {
	seen := make(map[string]int, len(records))
	var dups []string
	for _, r := range records {
		seen[r.BucketKey]++
		if seen[r.BucketKey] == 2 {
			dups = append(dups, r.BucketKey)
		}
	}
	return dups
}
