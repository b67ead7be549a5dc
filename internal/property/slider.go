package property

// SliderPosition はスライダー操作のUI向けペイロード
// Normalize をバリデータとしてセルに与えることで、
// Min <= Current <= Max と Step 刻みへのスナップが常に保たれる
type SliderPosition struct {
	Current int `json:"current"` // 現在値
	Min     int `json:"min"`     // 最小値
	Max     int `json:"max"`     // 最大値
	Step    int `json:"step"`    // 刻み幅
}

// Normalize はスライダー位置を正規化する
//   - Step は 1 以上に切り上げる
//   - Max は Min 以上に切り上げる
//   - Current は [Min, Max] に収めた上で Step の倍数へ丸め、
//     丸めで範囲を外れた場合は再度収める
func (p SliderPosition) Normalize() SliderPosition {
	if p.Step < 1 {
		p.Step = 1
	}
	if p.Max < p.Min {
		p.Max = p.Min
	}

	p.Current = clamp(p.Current, p.Min, p.Max)

	// 最近接の Step の倍数へスナップする
	p.Current = snapToStep(p.Current, p.Step)

	p.Current = clamp(p.Current, p.Min, p.Max)
	return p
}

// snapToStep は value を最近接の step の倍数へ丸める
func snapToStep(value, step int) int {
	if value >= 0 {
		return (value + step/2) / step * step
	}
	return -((-value + step/2) / step * step)
}

// clamp は value を [min, max] に収める
func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
