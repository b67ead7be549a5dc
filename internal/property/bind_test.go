package property

import (
	"testing"
)

// whiteBalance はホワイトバランスの複合値（Derive のテスト用）
type whiteBalance struct {
	TemperatureK uint32
	Tint         uint32
}

// TestLinkAliases はリンク後の読み書きがリンク先へ透過的に転送される
// ことをテストする
func TestLinkAliases(t *testing.T) {
	a := New(0)
	other := New(100)

	a.Link(other)

	if got := a.Get(); got != 100 {
		t.Errorf("リンク後の読み込みがリンク先を参照していません: got %d, want 100", got)
	}

	a.Set(7)
	if got := other.Get(); got != 7 {
		t.Errorf("リンク経由の書き込みがリンク先に届いていません: got %d, want 7", got)
	}

	other.Set(8)
	if got := a.Get(); got != 8 {
		t.Errorf("リンク先への直接書き込みが見えていません: got %d, want 8", got)
	}
}

// TestLinkTransplantsObservers はリンク前に登録したオブザーバがリンク後も
// リンク先の書き込みで発火することをテストする
func TestLinkTransplantsObservers(t *testing.T) {
	a := New(0)
	other := New(100)

	var got []int
	a.Observe(func(v int) { got = append(got, v) })
	got = got[:0]

	a.Link(other)

	// 移植は初回呼び出しなしで行われる
	if len(got) != 0 {
		t.Fatalf("移植時に余計な呼び出しが発生しました: %v", got)
	}

	// リンク先への直接書き込みで移植済みオブザーバが発火する
	other.Set(5)
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("移植されたオブザーバが発火していません: got %v, want [5]", got)
	}

	// リンク元経由の書き込みでも一度だけ発火する
	a.Set(6)
	if len(got) != 2 || got[1] != 6 {
		t.Errorf("リンク経由の書き込みで発火していません: got %v", got)
	}
}

// TestLinkValidatorIsTargets はリンク後の書き込みにリンク先のバリデータが
// 適用されることをテストする（転送は逐語的で、ローカル検証は残らない）
func TestLinkValidatorIsTargets(t *testing.T) {
	a := NewValidated(0, func(v int) int { return v + 1000 })
	other := NewValidated(0, func(v int) int { return v * 2 })

	a.Link(other)
	a.Set(3)

	if got := other.Get(); got != 6 {
		t.Errorf("リンク先のバリデータが適用されていません: got %d, want 6", got)
	}
}

// TestDeriveFieldRetention は toTarget がローカル型の持たないフィールドを
// 保持することをテストする
func TestDeriveFieldRetention(t *testing.T) {
	target := New(whiteBalance{TemperatureK: 6503, Tint: 1000})
	tint := New(uint32(0))

	Derive(tint, target,
		func(wb whiteBalance, v uint32) whiteBalance {
			wb.Tint = v
			return wb
		},
		func(wb whiteBalance) uint32 { return wb.Tint })

	if got := tint.Get(); got != 1000 {
		t.Fatalf("派生セルの読み込みが不正です: got %d, want 1000", got)
	}

	tint.Set(1200)

	got := target.Get()
	if got.Tint != 1200 {
		t.Errorf("派生セル経由の書き込みが届いていません: got %d, want 1200", got.Tint)
	}
	if got.TemperatureK != 6503 {
		t.Errorf("ローカル型が持たないフィールドが壊れました: got %d, want 6503", got.TemperatureK)
	}
}

// TestDeriveTransplantsObservers は派生前に登録したオブザーバが変換を挟んで
// 発火することをテストする
func TestDeriveTransplantsObservers(t *testing.T) {
	target := New(whiteBalance{TemperatureK: 6503, Tint: 1000})
	tint := New(uint32(0))

	var got []uint32
	tint.Observe(func(v uint32) { got = append(got, v) })
	got = got[:0]

	Derive(tint, target,
		func(wb whiteBalance, v uint32) whiteBalance {
			wb.Tint = v
			return wb
		},
		func(wb whiteBalance) uint32 { return wb.Tint })

	if len(got) != 0 {
		t.Fatalf("移植時に余計な呼び出しが発生しました: %v", got)
	}

	// ターゲットへの直接書き込みが変換されて届く
	target.Write(func(wb whiteBalance) whiteBalance {
		wb.Tint = 1500
		return wb
	})
	if len(got) != 1 || got[0] != 1500 {
		t.Errorf("移植されたオブザーバに変換値が届いていません: got %v, want [1500]", got)
	}
}

// TestDeriveAppliesLocalValidator は派生セル経由の書き込みにローカルの
// バリデータが適用されることをテストする
func TestDeriveAppliesLocalValidator(t *testing.T) {
	target := New(whiteBalance{TemperatureK: 6503, Tint: 1000})
	slider := NewValidated(SliderPosition{Current: 1000, Min: 200, Max: 2500, Step: 10},
		SliderPosition.Normalize)

	Derive(slider, target,
		func(wb whiteBalance, pos SliderPosition) whiteBalance {
			wb.Tint = uint32(pos.Current)
			return wb
		},
		func(wb whiteBalance) SliderPosition {
			return SliderPosition{Current: int(wb.Tint), Min: 200, Max: 2500, Step: 10}
		})

	// 1203 は刻み幅 10 で 1200 へスナップされてから書き込まれる
	slider.Write(func(pos SliderPosition) SliderPosition {
		pos.Current = 1203
		return pos
	})

	if got := target.Get().Tint; got != 1200 {
		t.Errorf("ローカルバリデータが適用されていません: got %d, want 1200", got)
	}
}

// TestLinkObserverFiresViaEitherHandle はリンク後に双方のハンドルから見た
// 値が常に一致することをテストする
func TestLinkObserverFiresViaEitherHandle(t *testing.T) {
	a := New(1)
	b := New(2)
	a.Link(b)

	values := []int{10, 20, 30}
	for _, v := range values {
		a.Set(v)
		if a.Get() != b.Get() {
			t.Fatalf("リンク後の値が一致しません: a=%d, b=%d", a.Get(), b.Get())
		}
	}
}
