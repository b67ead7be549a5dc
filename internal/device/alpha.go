package device

import (
	"encoding/binary"
	"fmt"
)

// opaqueMask はリトルエンディアンの8バイト中、各ピクセルの
// アルファバイト（3, 7バイト目）だけを立てるマスク
const opaqueMask uint64 = 0xFF000000FF000000

// ForceOpaqueAlpha は RGBA バッファの全アルファバイトを 255 にする
// 16バイト（4ピクセル）単位で処理するため、長さは16の倍数で
// なければならない。再適用しても結果は変わらない
func ForceOpaqueAlpha(rgba []byte) error {
	if len(rgba)%16 != 0 {
		return fmt.Errorf("バッファ長が16の倍数ではありません: %d", len(rgba))
	}

	for i := 0; i < len(rgba); i += 16 {
		lo := binary.LittleEndian.Uint64(rgba[i:])
		hi := binary.LittleEndian.Uint64(rgba[i+8:])
		binary.LittleEndian.PutUint64(rgba[i:], lo|opaqueMask)
		binary.LittleEndian.PutUint64(rgba[i+8:], hi|opaqueMask)
	}
	return nil
}
