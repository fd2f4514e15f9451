// Package calendar は時刻成分を持たない暦日と、その閉区間を扱います。
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/staffing-grpc-clean-arch/internal/core/failure"
)

// Layout は暦日の文字列表現です。
const Layout = "2006-01-02"

var (
	// ErrInvalidDate は暦日の書式が不正な場合に返却されます。
	ErrInvalidDate = failure.Validation("calendar: invalid date, expected YYYY-MM-DD")
	// ErrInvalidRange は終了日が開始日より前の場合に返却されます。
	ErrInvalidRange = failure.Validation("calendar: end date must not be before start date")
)

// Date は UTC の 0 時に正規化された暦日です。ゼロ値は未設定を表します。
type Date struct {
	t time.Time
}

// DateOf は任意の時刻をその暦日に切り捨てます。年月日は t のロケーションで解釈します。
func DateOf(t time.Time) Date {
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewDate は年月日から暦日を生成します。
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate は YYYY-MM-DD 形式の文字列を暦日に変換します。
func ParseDate(raw string) (Date, error) {
	t, err := time.ParseInLocation(Layout, strings.TrimSpace(raw), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%q: %w", raw, ErrInvalidDate)
	}
	return Date{t: t}, nil
}

// MustParseDate は ParseDate の失敗時に panic します。テストや定数定義向けです。
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

// IsZero は未設定かを返します。
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Time は UTC 0 時の time.Time を返します。
func (d Date) Time() time.Time {
	return d.t
}

// AddDays は n 日後の暦日を返します。
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Before は d が other より前かを返します。
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// After は d が other より後かを返します。
func (d Date) After(other Date) bool {
	return d.t.After(other.t)
}

// Equal は同じ暦日かを返します。
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// DaysUntil は d から other までの日数を返します。other が前なら負になります。
func (d Date) DaysUntil(other Date) int {
	// UTC 0 時同士なので夏時間の影響を受けない
	return int(other.t.Sub(d.t).Hours() / 24)
}

// String は YYYY-MM-DD 形式を返します。
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(Layout)
}

// Range は開始日・終了日をともに含む閉区間です。
type Range struct {
	Start Date
	End   Date
}

// NewRange は閉区間を生成します。終了日が開始日より前なら ErrInvalidRange を返します。
func NewRange(start, end Date) (Range, error) {
	if start.IsZero() || end.IsZero() {
		return Range{}, ErrInvalidDate
	}
	if end.Before(start) {
		return Range{}, ErrInvalidRange
	}
	return Range{Start: start, End: end}, nil
}

// Contains は day が区間に含まれるかを返します。
func (r Range) Contains(day Date) bool {
	return !day.Before(r.Start) && !day.After(r.End)
}

// Overlaps は二つの閉区間が一日でも重なるかを返します。
func (r Range) Overlaps(other Range) bool {
	return !r.Start.After(other.End) && !r.End.Before(other.Start)
}

// Days は区間に含まれる日数を返します。
func (r Range) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Each は区間内の各日を昇順に fn へ渡します。
func (r Range) Each(fn func(Date)) {
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		fn(d)
	}
}

// String は "start..end" 形式を返します。
func (r Range) String() string {
	return r.Start.String() + ".." + r.End.String()
}
