package device

import (
	"bytes"
	"testing"
)

func TestForceOpaqueAlpha(t *testing.T) {
	pixels := make([]byte, 32)
	for i := range pixels {
		pixels[i] = byte(i)
	}

	if err := ForceOpaqueAlpha(pixels); err != nil {
		t.Fatalf("エラーが発生: %v", err)
	}

	for i, b := range pixels {
		if i%4 == 3 {
			if b != 255 {
				t.Errorf("アルファ成分 %d が 255 になっていない: %d", i, b)
			}
			continue
		}
		if b != byte(i) {
			t.Errorf("色成分 %d が変更された: %d", i, b)
		}
	}
}

func TestForceOpaqueAlphaIdempotent(t *testing.T) {
	pixels := make([]byte, 64)
	for i := range pixels {
		pixels[i] = byte(i * 3)
	}

	if err := ForceOpaqueAlpha(pixels); err != nil {
		t.Fatalf("エラーが発生: %v", err)
	}
	first := append([]byte(nil), pixels...)

	if err := ForceOpaqueAlpha(pixels); err != nil {
		t.Fatalf("2回目でエラーが発生: %v", err)
	}
	if !bytes.Equal(first, pixels) {
		t.Error("2回適用すると結果が変わった")
	}
}

func TestForceOpaqueAlphaInvalidLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{name: "16バイト境界", length: 16, wantErr: false},
		{name: "空", length: 0, wantErr: false},
		{name: "16バイト境界でない端数", length: 20, wantErr: true},
		{name: "ピクセル境界でもない", length: 13, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ForceOpaqueAlpha(make([]byte, tt.length))
			if (err != nil) != tt.wantErr {
				t.Errorf("長さ %d のエラー有無が期待と異なる: %v", tt.length, err)
			}
		})
	}
}
