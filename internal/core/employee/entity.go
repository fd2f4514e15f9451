package employee

import "time"

const (
	// DefaultWorkTimeFactor は work_time_factor 未設定時の値です。
	DefaultWorkTimeFactor = 1.0
	// DefaultPartTimeFactor は part_time_factor 未設定時の値です。
	DefaultPartTimeFactor = 100.0
)

// Employee は社員エンティティです。稼働率の計算中は不変として扱います。
type Employee struct {
	ID   int64
	Name string
	// WorkTimeFactor は常勤換算の係数 (0.0〜1.0) です。
	WorkTimeFactor float64
	// PartTimeFactor はパートタイム率 (0〜100, パーセント) です。
	PartTimeFactor float64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// PartTimeFraction は PartTimeFactor を 0.0〜1.0 に正規化した値を返します。
func (e *Employee) PartTimeFraction() float64 {
	return e.PartTimeFactor / 100
}
