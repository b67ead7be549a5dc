package property

import (
	"testing"
)

// TestSliderNormalize はスライダー位置の正規化をテストする
func TestSliderNormalize(t *testing.T) {
	testCases := []struct {
		name string
		in   SliderPosition
		want int
	}{
		{
			name: "刻み幅へのスナップ",
			in:   SliderPosition{Current: 119, Min: 1, Max: 2000, Step: 5},
			want: 120,
		},
		{
			name: "最大値へのクランプ",
			in:   SliderPosition{Current: 5000, Min: 1, Max: 2000, Step: 5},
			want: 2000,
		},
		{
			name: "最小値へのクランプ",
			in:   SliderPosition{Current: -10, Min: 1, Max: 2000, Step: 5},
			want: 1,
		},
		{
			name: "スナップ後の再クランプ",
			in:   SliderPosition{Current: 2, Min: 1, Max: 2000, Step: 5},
			want: 1, // 0 へスナップされた後 Min=1 へ戻る
		},
		{
			name: "既に整列済みの値は変化しない",
			in:   SliderPosition{Current: 115, Min: 1, Max: 2000, Step: 5},
			want: 115,
		},
		{
			name: "中間値は近い方へ丸める",
			in:   SliderPosition{Current: 117, Min: 1, Max: 2000, Step: 5},
			want: 115,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.in.Normalize()
			if got.Current != tc.want {
				t.Errorf("Current が一致しません: got %d, want %d", got.Current, tc.want)
			}
			if got.Current < got.Min || got.Current > got.Max {
				t.Errorf("範囲不変条件が破れています: %+v", got)
			}
		})
	}
}

// TestSliderNormalizeRepairsShape は不正な形状（Step < 1 や Max < Min）が
// 修復されることをテストする
func TestSliderNormalizeRepairsShape(t *testing.T) {
	got := SliderPosition{Current: 5, Min: 10, Max: 3, Step: 0}.Normalize()

	if got.Step != 1 {
		t.Errorf("Step が修復されていません: got %d, want 1", got.Step)
	}
	if got.Max != got.Min {
		t.Errorf("Max < Min が修復されていません: %+v", got)
	}
	if got.Current != 10 {
		t.Errorf("Current が範囲に収まっていません: got %d, want 10", got.Current)
	}
}

// TestSliderValidatedCell はセルのバリデータとして使った場合に全書き込みで
// 正規化が保たれることをテストする
func TestSliderValidatedCell(t *testing.T) {
	p := NewValidated(SliderPosition{Current: 119, Min: 1, Max: 2000, Step: 5},
		SliderPosition.Normalize)

	if got := p.Get().Current; got != 120 {
		t.Errorf("初期値が正規化されていません: got %d, want 120", got)
	}

	p.Write(func(pos SliderPosition) SliderPosition {
		pos.Current = 5000
		return pos
	})
	if got := p.Get().Current; got != 2000 {
		t.Errorf("書き込みが正規化されていません: got %d, want 2000", got)
	}
}
