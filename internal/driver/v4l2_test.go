package driver

import (
	"context"
	"testing"
)

// TestParseResolutions は --list-formats-ext 出力の解析をテストする
func TestParseResolutions(t *testing.T) {
	output := `ioctl: VIDIOC_ENUM_FMT
	Type: Video Capture

	[0]: 'MJPG' (Motion-JPEG, compressed)
		Size: Discrete 1920x1080
			Interval: Discrete 0.033s (30.000 fps)
		Size: Discrete 1280x720
			Interval: Discrete 0.033s (30.000 fps)
	[1]: 'YUYV' (YUYV 4:2:2)
		Size: Discrete 1280x720
			Interval: Discrete 0.067s (15.000 fps)
		Size: Discrete 640x480
			Interval: Discrete 0.033s (30.000 fps)
`

	modes := parseResolutions(output)

	if len(modes) != 3 {
		t.Fatalf("解像度の数が一致しません（重複除去込み）: got %d, want 3", len(modes))
	}

	// 面積の大きい順に並ぶこと（先頭が最大解像度）
	want := []Resolution{
		{Width: 1920, Height: 1080},
		{Width: 1280, Height: 720},
		{Width: 640, Height: 480},
	}
	for i, res := range want {
		if modes[i] != res {
			t.Errorf("modes[%d] が一致しません: got %+v, want %+v", i, modes[i], res)
		}
	}
}

// TestParseControlValue は --get-ctrl 出力の解析をテストする
func TestParseControlValue(t *testing.T) {
	testCases := []struct {
		name      string
		output    string
		want      int
		expectErr bool
	}{
		{name: "通常の出力", output: "exposure_time_absolute: 1200\n", want: 1200},
		{name: "負の値", output: "hue: -5\n", want: -5},
		{name: "コロンなし", output: "garbage", expectErr: true},
		{name: "数値でない", output: "gain: abc", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseControlValue(tc.output)
			if tc.expectErr {
				if err == nil {
					t.Error("エラーが期待されましたが、エラーが発生しませんでした")
				}
				return
			}
			if err != nil {
				t.Fatalf("予期しないエラーが発生しました: %v", err)
			}
			if got != tc.want {
				t.Errorf("値が一致しません: got %d, want %d", got, tc.want)
			}
		})
	}
}

// TestExtractDeviceNumber はデバイスパスからの番号抽出をテストする
func TestExtractDeviceNumber(t *testing.T) {
	testCases := []struct {
		path string
		want int
	}{
		{path: "/dev/video0", want: 0},
		{path: "/dev/video12", want: 12},
		{path: "/dev/unrelated", want: 0},
	}

	for _, tc := range testCases {
		if got := extractDeviceNumber(tc.path); got != tc.want {
			t.Errorf("%s: got %d, want %d", tc.path, got, tc.want)
		}
	}
}

// TestMockDriverHotplug はモックドライバーの着脱通知をテストする
func TestMockDriverHotplug(t *testing.T) {
	drv := NewMockDriver()
	ch, err := drv.WatchHotplug(context.Background())
	if err != nil {
		t.Fatalf("WatchHotplug failed: %v", err)
	}

	device := NewMockDescriptor("テストカメラ")
	drv.AddDevice(device)

	select {
	case <-ch:
	default:
		t.Fatal("デバイス追加でホットプラグが通知されていません")
	}

	devices, err := drv.Enumerate(context.Background())
	if err != nil {
		t.Fatalf("Enumerate failed: %v", err)
	}
	if len(devices) != 1 || devices[0].ID != device.ID {
		t.Errorf("列挙結果が一致しません: %+v", devices)
	}

	drv.RemoveDevice(device.ID)
	devices, _ = drv.Enumerate(context.Background())
	if len(devices) != 0 {
		t.Errorf("削除後も列挙されています: %+v", devices)
	}
}
