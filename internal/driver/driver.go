package driver

import "context"

// Descriptor は列挙された1台のカメラを表す
type Descriptor struct {
	ID   string // 一意識別子（V4L2 ではデバイスパス）
	Name string // 表示名
}

// Resolution はプレビューモードの解像度を表す
type Resolution struct {
	Width  int
	Height int
}

// Frame は取得済みの画像バッファを表す
// Data は RGBA 形式（1ピクセル4バイト）で、送信後に送信側が
// 参照し続けてはならない
type Frame struct {
	Data   []byte
	Width  int
	Height int
}

// EventKind はセッションが報告するハードウェアイベントの種別
type EventKind int

const (
	// EventFrameReady は新しいプレビューフレームの到着を表す
	EventFrameReady EventKind = iota
	// EventStillReady は静止画の準備完了を表す
	EventStillReady
	// EventDisconnected はデバイスの切断を表す
	EventDisconnected
	// EventExposureChanged はデバイス内部の露出自動調整の通知を表す
	EventExposureChanged
	// EventUnknown は認識できないイベントを表す
	EventUnknown
)

// String は EventKind のログ用表現を返す
func (k EventKind) String() string {
	switch k {
	case EventFrameReady:
		return "frame_ready"
	case EventStillReady:
		return "still_ready"
	case EventDisconnected:
		return "disconnected"
	case EventExposureChanged:
		return "exposure_changed"
	default:
		return "unknown"
	}
}

// Driver はカメラハードウェアへの入口を表す
type Driver interface {
	// Enumerate は現在接続されているデバイスの一覧を順序付きで返す
	Enumerate(ctx context.Context) ([]Descriptor, error)

	// WatchHotplug はデバイスの着脱を通知するチャンネルを返す
	// 通知の監視は ctx のキャンセルで停止する
	WatchHotplug(ctx context.Context) (<-chan struct{}, error)

	// Open は指定された（空文字列なら先頭の）デバイスを開く
	Open(ctx context.Context, id string) (Session, error)
}

// Session は開かれた1台のカメラへの排他的なハンドルを表す
// 全メソッドは単一の実行コンテキストから呼び出される前提
type Session interface {
	// Modes はサポートされるプレビューモードを解像度の大きい順で返す
	Modes() []Resolution

	// Configure はプレビューモードと自動露出を設定し、
	// ストリーミングを開始する
	Configure(mode int, autoExposure bool) error

	// SetExposureTime は露出時間をマイクロ秒で設定する
	SetExposureTime(microseconds uint32) error

	// SetExposureGain は露出ゲインをパーセントで設定する
	SetExposureGain(percents uint16) error

	// SetWhiteBalance は色温度（ケルビン）とティントを設定する
	SetWhiteBalance(temperatureK, tint uint32) error

	// WhiteBalance は現在の色温度とティントを返す
	WhiteBalance() (temperatureK, tint uint32, err error)

	// ExposureTime は現在の露出時間をマイクロ秒で返す
	ExposureTime() (uint32, error)

	// ExposureGain は現在の露出ゲインをパーセントで返す
	ExposureGain() (uint16, error)

	// Snap は指定モードの解像度で静止画の撮影を要求する
	Snap(mode int) error

	// Events はハードウェアイベントを通知するチャンネルを返す
	// デバイスが失われるとEventDisconnected の後にクローズされる
	Events() <-chan EventKind

	// PullFrame は EventFrameReady に対応するフレームを取り出す
	PullFrame() (Frame, error)

	// PullStill は EventStillReady に対応する静止画を取り出す
	PullStill() (Frame, error)

	// Close はセッションを解放する
	Close() error
}
