package device

import (
	"utsuru/internal/driver"
)

// Event はワーカーからアプリケーションへ送られるメッセージ
type Event interface {
	isEvent()
}

// HotplugListEvent は列挙されたデバイス一覧の更新を表す
type HotplugListEvent struct {
	Devices []driver.Descriptor
}

// ConnectedEvent はセッションの確立を表す
// Reported にはデバイスが報告した現在のパラメータ値が入る
type ConnectedEvent struct {
	Device   driver.Descriptor
	Reported ReportedState
}

// FrameEvent は後処理済みのプレビューフレームを表す
type FrameEvent struct {
	Frame driver.Frame
}

// StillFrameEvent は後処理済みの静止画を表す
type StillFrameEvent struct {
	Frame driver.Frame
}

// DisconnectedEvent はセッションの喪失を表す
type DisconnectedEvent struct{}

func (HotplugListEvent) isEvent()  {}
func (ConnectedEvent) isEvent()    {}
func (FrameEvent) isEvent()        {}
func (StillFrameEvent) isEvent()   {}
func (DisconnectedEvent) isEvent() {}

// ReportedState はデバイスが報告する現在のパラメータ値の束
type ReportedState struct {
	ExposureTimeUs    uint32 // 露出時間（マイクロ秒）
	ExposureGainPct   uint16 // 露出ゲイン（パーセント）
	ColorTemperatureK uint32 // 色温度（ケルビン）
	Tint              uint32 // ティント
}

// Command はアプリケーションからワーカーへ送られるメッセージ
type Command interface {
	isCommand()
}

// ConnectCommand は（空文字列なら先頭の）デバイスへの接続を要求する
type ConnectCommand struct {
	DeviceID string
}

// SetExposureTimeCommand は露出時間の設定を要求する
type SetExposureTimeCommand struct {
	Microseconds uint32
}

// SetExposureGainCommand は露出ゲインの設定を要求する
type SetExposureGainCommand struct {
	Percents uint16
}

// SetColorTemperatureCommand は色温度の設定を要求する
type SetColorTemperatureCommand struct {
	Kelvin uint32
}

// SetTintCommand はティントの設定を要求する
type SetTintCommand struct {
	Value uint32
}

// SnapCommand は現在のプレビュー解像度での静止画撮影を要求する
type SnapCommand struct{}

func (ConnectCommand) isCommand()             {}
func (SetExposureTimeCommand) isCommand()     {}
func (SetExposureGainCommand) isCommand()     {}
func (SetColorTemperatureCommand) isCommand() {}
func (SetTintCommand) isCommand()             {}
func (SnapCommand) isCommand()                {}
