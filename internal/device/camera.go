package device

import (
	"context"

	"utsuru/internal/driver"
	"utsuru/internal/property"
)

// channelDepth はコマンド・イベントチャンネルのバッファ長
// 両チャンネルとも単一の消費者が継続的に読み出す前提
const channelDepth = 64

// Camera はデバイスワーカーへのフロントエンド
// パラメータセルへの書き込みはオブザーバ経由でコマンドに変換され、
// ワーカーが開いているセッションへ適用する。セルの操作は
// アプリケーションコンテキストの単一ゴルーチンから行うこと
type Camera struct {
	worker *Worker
	cmds   chan Command

	exposureTimeUs    *property.Property[uint32]
	exposureGainPct   *property.Property[uint16]
	colorTemperatureK *property.Property[uint32]
	tint              *property.Property[uint32]

	// ハードウェア報告値の書き戻し中はコマンド転送を抑止する
	muted bool
}

// New は新しい Camera とワーカーからのイベントチャンネルを作成する
// initial は設定ファイルから読み込んだ初期パラメータ値
func New(drv driver.Driver, initial ReportedState) (*Camera, <-chan Event) {
	events := make(chan Event, channelDepth)
	cmds := make(chan Command, channelDepth)

	camera := &Camera{
		worker:            NewWorker(drv, events, cmds),
		cmds:              cmds,
		exposureTimeUs:    property.New(initial.ExposureTimeUs),
		exposureGainPct:   property.New(initial.ExposureGainPct),
		colorTemperatureK: property.New(initial.ColorTemperatureK),
		tint:              property.New(initial.Tint),
	}

	// セルへの書き込みをコマンドとして転送する。書き込み経路と
	// ハードウェア報告経路は muted フラグで区別される
	camera.exposureTimeUs.Observe(func(us uint32) {
		camera.forward(SetExposureTimeCommand{Microseconds: us})
	})
	camera.exposureGainPct.Observe(func(pct uint16) {
		camera.forward(SetExposureGainCommand{Percents: pct})
	})
	camera.colorTemperatureK.Observe(func(kelvin uint32) {
		camera.forward(SetColorTemperatureCommand{Kelvin: kelvin})
	})
	camera.tint.Observe(func(value uint32) {
		camera.forward(SetTintCommand{Value: value})
	})

	return camera, events
}

// Start はワーカーゴルーチンを起動する
func (c *Camera) Start(ctx context.Context) {
	go c.worker.Run(ctx)
}

// Connect は（空文字列なら先頭の）デバイスへの接続を要求し、
// 現在のセル値をパラメータコマンドとして続けて送る
func (c *Camera) Connect(deviceID string) {
	c.send(ConnectCommand{DeviceID: deviceID})
	c.send(SetExposureTimeCommand{Microseconds: c.exposureTimeUs.Get()})
	c.send(SetExposureGainCommand{Percents: c.exposureGainPct.Get()})
	c.send(SetColorTemperatureCommand{Kelvin: c.colorTemperatureK.Get()})
	c.send(SetTintCommand{Value: c.tint.Get()})
}

// Snap は静止画の撮影を要求する
func (c *Camera) Snap() {
	c.send(SnapCommand{})
}

// ExposureTimeUs は露出時間（マイクロ秒）のセルを返す
func (c *Camera) ExposureTimeUs() *property.Property[uint32] {
	return c.exposureTimeUs
}

// ExposureGainPct は露出ゲイン（パーセント）のセルを返す
func (c *Camera) ExposureGainPct() *property.Property[uint16] {
	return c.exposureGainPct
}

// ColorTemperatureK は色温度（ケルビン）のセルを返す
func (c *Camera) ColorTemperatureK() *property.Property[uint32] {
	return c.colorTemperatureK
}

// Tint はティントのセルを返す
func (c *Camera) Tint() *property.Property[uint32] {
	return c.tint
}

// UpdateFromDevice はデバイスが報告した値をセルへ書き戻す
// この経路での書き込みはコマンドとして再転送されない
func (c *Camera) UpdateFromDevice(reported ReportedState) {
	c.muted = true
	defer func() { c.muted = false }()

	c.exposureTimeUs.Set(reported.ExposureTimeUs)
	c.exposureGainPct.Set(reported.ExposureGainPct)
	c.colorTemperatureK.Set(reported.ColorTemperatureK)
	c.tint.Set(reported.Tint)
}

// Reported は現在のセル値を ReportedState として読み出す
// （設定ファイルへの書き戻し用）
func (c *Camera) Reported() ReportedState {
	return ReportedState{
		ExposureTimeUs:    c.exposureTimeUs.Get(),
		ExposureGainPct:   c.exposureGainPct.Get(),
		ColorTemperatureK: c.colorTemperatureK.Get(),
		Tint:              c.tint.Get(),
	}
}

// forward はセルのオブザーバからのコマンド転送（muted 中は何もしない）
func (c *Camera) forward(cmd Command) {
	if c.muted {
		return
	}
	c.send(cmd)
}

// send はコマンドを送る。ワーカーが既にいない場合は黙って破棄する
func (c *Camera) send(cmd Command) {
	select {
	case c.cmds <- cmd:
	default:
		// シャットダウン中などでワーカーが読み出していない。
		// 「誰も聞いていない」ので破棄する
	}
}
