package app

import (
	"context"
	"log"

	"utsuru/internal/config"
	"utsuru/internal/device"
	"utsuru/internal/driver"
	"utsuru/internal/property"
	"utsuru/internal/snapshot"
)

// スライダーの形状。値域と刻み幅はUI側の操作粒度を決める
var (
	exposureTimeShape     = property.SliderPosition{Min: 1, Max: 2000, Step: 5}      // ミリ秒
	exposureGainShape     = property.SliderPosition{Min: 100, Max: 300, Step: 1}     // パーセント
	colorTemperatureShape = property.SliderPosition{Min: 2000, Max: 15000, Step: 10} // ケルビン
	tintShape             = property.SliderPosition{Min: 200, Max: 2500, Step: 10}
)

// App はアプリケーション全体の状態を保持する
// 状態はポンプゴルーチン（Run）だけが触り、外部からは
// 公開メソッド経由で要求を送る
type App struct {
	cfg    *config.Config
	camera *device.Camera
	events <-chan device.Event
	store  *snapshot.Store

	reqs chan func()
	done chan struct{}

	// 以下はポンプゴルーチンのみが触る
	devices   []driver.Descriptor
	connected *driver.Descriptor

	exposureTime     *property.Property[property.SliderPosition]
	exposureGain     *property.Property[property.SliderPosition]
	colorTemperature *property.Property[property.SliderPosition]
	tint             *property.Property[property.SliderPosition]

	latestFrame    driver.Frame
	hasFrame       bool
	subscribers    map[int]chan driver.Frame
	nextSubscriber int
}

// Controls は全スライダーの現在位置
type Controls struct {
	ExposureTimeMs    property.SliderPosition `json:"exposure_time_ms"`
	ExposureGainPct   property.SliderPosition `json:"exposure_gain_pct"`
	ColorTemperatureK property.SliderPosition `json:"color_temperature_k"`
	Tint              property.SliderPosition `json:"tint"`
}

// New は設定とドライバから App を作成する
func New(cfg *config.Config, drv driver.Driver) *App {
	camera, events := device.New(drv, device.ReportedState{
		ExposureTimeUs:    cfg.Camera.ExposureTimeMs * 1000,
		ExposureGainPct:   cfg.Camera.ExposureGainPct,
		ColorTemperatureK: cfg.Camera.ColorTemperatureK,
		Tint:              cfg.Camera.Tint,
	})

	a := &App{
		cfg:         cfg,
		camera:      camera,
		events:      events,
		store:       snapshot.NewStore(cfg.Snapshot.OutputDir),
		reqs:        make(chan func(), 16),
		done:        make(chan struct{}),
		subscribers: make(map[int]chan driver.Frame),
	}

	// スライダーセルをカメラパラメータセルに束縛する。
	// スライダーへの書き込みは正規化された上でカメラ側へ流れ、
	// カメラ側の変化はスライダー購読者へ通知される
	a.exposureTime = property.NewValidated(exposureTimeShape, property.SliderPosition.Normalize)
	property.Derive(a.exposureTime, camera.ExposureTimeUs(),
		func(_ uint32, p property.SliderPosition) uint32 { return uint32(p.Current) * 1000 },
		func(us uint32) property.SliderPosition { return position(exposureTimeShape, int(us/1000)) },
	)

	a.exposureGain = property.NewValidated(exposureGainShape, property.SliderPosition.Normalize)
	property.Derive(a.exposureGain, camera.ExposureGainPct(),
		func(_ uint16, p property.SliderPosition) uint16 { return uint16(p.Current) },
		func(pct uint16) property.SliderPosition { return position(exposureGainShape, int(pct)) },
	)

	a.colorTemperature = property.NewValidated(colorTemperatureShape, property.SliderPosition.Normalize)
	property.Derive(a.colorTemperature, camera.ColorTemperatureK(),
		func(_ uint32, p property.SliderPosition) uint32 { return uint32(p.Current) },
		func(kelvin uint32) property.SliderPosition { return position(colorTemperatureShape, int(kelvin)) },
	)

	a.tint = property.NewValidated(tintShape, property.SliderPosition.Normalize)
	property.Derive(a.tint, camera.Tint(),
		func(_ uint32, p property.SliderPosition) uint32 { return uint32(p.Current) },
		func(value uint32) property.SliderPosition { return position(tintShape, int(value)) },
	)

	return a
}

// Run はワーカーを起動してポンプループを実行する。ctx のキャンセルまで戻らない
func (a *App) Run(ctx context.Context) {
	defer close(a.done)

	a.camera.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case event := <-a.events:
			a.handleEvent(event)
		case req := <-a.reqs:
			req()
		}
	}
}

// handleEvent はワーカーからのイベントを処理する
func (a *App) handleEvent(event device.Event) {
	switch ev := event.(type) {
	case device.HotplugListEvent:
		a.devices = ev.Devices
		log.Printf("デバイス一覧を更新 (%d 台)", len(ev.Devices))
		if a.cfg.Camera.AutoConnect && a.connected == nil && len(ev.Devices) > 0 {
			// 接続要求の重複はワーカー側で無視されるため、
			// 未接続の間は検出のたびに要求してよい
			a.camera.Connect(a.cfg.Camera.DeviceID)
		}

	case device.ConnectedEvent:
		dev := ev.Device
		a.connected = &dev
		log.Printf("カメラに接続: %s (%s)", dev.Name, dev.ID)

	case device.FrameEvent:
		a.latestFrame = ev.Frame
		a.hasFrame = true
		for _, ch := range a.subscribers {
			select {
			case ch <- ev.Frame:
			default:
				// 購読者が遅い場合はこのフレームを落とす
			}
		}

	case device.StillFrameEvent:
		path, err := a.store.Save(ev.Frame)
		if err != nil {
			log.Printf("静止画の保存に失敗: %v", err)
			return
		}
		log.Printf("静止画を保存: %s", path)

	case device.DisconnectedEvent:
		a.connected = nil
		log.Println("カメラから切断")
	}
}

// do は要求をポンプゴルーチンで実行し、完了を待つ
// ポンプが停止済みの場合は何もしない
func (a *App) do(fn func()) {
	done := make(chan struct{})
	select {
	case a.reqs <- func() { fn(); close(done) }:
	case <-a.done:
		return
	}
	select {
	case <-done:
	case <-a.done:
	}
}

// Devices は列挙済みのデバイス一覧を返す
func (a *App) Devices() []driver.Descriptor {
	var devices []driver.Descriptor
	a.do(func() { devices = append([]driver.Descriptor(nil), a.devices...) })
	return devices
}

// ConnectedDevice は接続中のデバイスを返す
func (a *App) ConnectedDevice() (driver.Descriptor, bool) {
	var (
		dev driver.Descriptor
		ok  bool
	)
	a.do(func() {
		if a.connected != nil {
			dev = *a.connected
			ok = true
		}
	})
	return dev, ok
}

// Connect は指定された（空文字列なら先頭の）デバイスへの接続を要求する
func (a *App) Connect(deviceID string) {
	a.do(func() {
		a.cfg.Camera.DeviceID = deviceID
		a.camera.Connect(deviceID)
	})
}

// Snap は静止画の撮影を要求する
func (a *App) Snap() {
	a.do(func() { a.camera.Snap() })
}

// Controls は全スライダーの現在位置を返す
func (a *App) Controls() Controls {
	var controls Controls
	a.do(func() {
		controls = Controls{
			ExposureTimeMs:    a.exposureTime.Get(),
			ExposureGainPct:   a.exposureGain.Get(),
			ColorTemperatureK: a.colorTemperature.Get(),
			Tint:              a.tint.Get(),
		}
	})
	return controls
}

// SetExposureTimeMs は露出時間スライダーを動かす
func (a *App) SetExposureTimeMs(ms int) {
	a.setSlider(a.exposureTime, ms)
}

// SetExposureGainPct は露出ゲインスライダーを動かす
func (a *App) SetExposureGainPct(pct int) {
	a.setSlider(a.exposureGain, pct)
}

// SetColorTemperatureK は色温度スライダーを動かす
func (a *App) SetColorTemperatureK(kelvin int) {
	a.setSlider(a.colorTemperature, kelvin)
}

// SetTint はティントスライダーを動かす
func (a *App) SetTint(value int) {
	a.setSlider(a.tint, value)
}

// LatestFrame は最新のプレビューフレームを返す
func (a *App) LatestFrame() (driver.Frame, bool) {
	var (
		frame driver.Frame
		ok    bool
	)
	a.do(func() {
		frame = a.latestFrame
		ok = a.hasFrame
	})
	return frame, ok
}

// Subscribe はプレビューフレームの購読を開始する
// 購読者が読み出さない間のフレームは配信されない
func (a *App) Subscribe() (int, <-chan driver.Frame) {
	var (
		id int
		ch chan driver.Frame
	)
	a.do(func() {
		id = a.nextSubscriber
		a.nextSubscriber++
		ch = make(chan driver.Frame, 1)
		a.subscribers[id] = ch
	})
	return id, ch
}

// Unsubscribe はプレビューフレームの購読を終了する
func (a *App) Unsubscribe(id int) {
	a.do(func() {
		delete(a.subscribers, id)
	})
}

// Snapshots は保存済みの静止画一覧を返す
func (a *App) Snapshots() ([]snapshot.Snapshot, error) {
	return a.store.List()
}

// SaveSettings は現在のパラメータを設定に書き戻して保存する
func (a *App) SaveSettings() error {
	var err error
	a.do(func() {
		reported := a.camera.Reported()
		a.cfg.Camera.ExposureTimeMs = reported.ExposureTimeUs / 1000
		a.cfg.Camera.ExposureGainPct = reported.ExposureGainPct
		a.cfg.Camera.ColorTemperatureK = reported.ColorTemperatureK
		a.cfg.Camera.Tint = reported.Tint
		err = a.cfg.Store()
	})
	return err
}

// setSlider はスライダーの現在値を書き換える
func (a *App) setSlider(slider *property.Property[property.SliderPosition], value int) {
	a.do(func() {
		slider.Write(func(p property.SliderPosition) property.SliderPosition {
			p.Current = value
			return p
		})
	})
}

// position は形状に現在値を与えたスライダー位置を作る
func position(shape property.SliderPosition, current int) property.SliderPosition {
	shape.Current = current
	return shape
}
