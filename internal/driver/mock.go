package driver

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MockDriver はテスト用のスクリプト可能な Driver 実装
type MockDriver struct {
	mu           sync.Mutex
	devices      []Descriptor
	openErr      error
	openAttempts int
	hotplug      chan struct{}
	sessions     []*MockSession
}

// NewMockDriver は指定されたデバイスを持つ MockDriver を作成する
func NewMockDriver(devices ...Descriptor) *MockDriver {
	return &MockDriver{
		devices: devices,
		hotplug: make(chan struct{}, 1),
	}
}

// NewMockDescriptor はランダムな ID のデバイス記述子を作成する
func NewMockDescriptor(name string) Descriptor {
	return Descriptor{ID: uuid.New().String(), Name: name}
}

// Enumerate は現在のデバイス一覧を返す
func (d *MockDriver) Enumerate(_ context.Context) ([]Descriptor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Descriptor(nil), d.devices...), nil
}

// WatchHotplug はホットプラグ通知チャンネルを返す
// テスト側の着脱操作と競合しないよう、ctx キャンセルでのクローズは行わない
func (d *MockDriver) WatchHotplug(_ context.Context) (<-chan struct{}, error) {
	return d.hotplug, nil
}

// Open は指定された（空文字列なら先頭の）デバイスのセッションを開く
func (d *MockDriver) Open(_ context.Context, id string) (Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.openAttempts++
	if d.openErr != nil {
		return nil, d.openErr
	}
	if len(d.devices) == 0 {
		return nil, fmt.Errorf("利用可能なデバイスがありません")
	}

	if id == "" {
		id = d.devices[0].ID
	}
	found := false
	for _, device := range d.devices {
		if device.ID == id {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("デバイスが見つかりません: %s", id)
	}

	session := NewMockSession()
	d.sessions = append(d.sessions, session)
	return session, nil
}

// AddDevice はデバイスを追加してホットプラグを通知する
func (d *MockDriver) AddDevice(device Descriptor) {
	d.mu.Lock()
	d.devices = append(d.devices, device)
	d.mu.Unlock()
	d.signalHotplug()
}

// RemoveDevice はデバイスを取り除いてホットプラグを通知する
func (d *MockDriver) RemoveDevice(id string) {
	d.mu.Lock()
	kept := d.devices[:0]
	for _, device := range d.devices {
		if device.ID != id {
			kept = append(kept, device)
		}
	}
	d.devices = kept
	d.mu.Unlock()
	d.signalHotplug()
}

// SetOpenError はテスト用に Open の失敗を設定する
func (d *MockDriver) SetOpenError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.openErr = err
}

// OpenAttempts はこれまでの Open の試行回数を返す
func (d *MockDriver) OpenAttempts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openAttempts
}

// Sessions はこれまでに開かれたセッションを返す
func (d *MockDriver) Sessions() []*MockSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockSession(nil), d.sessions...)
}

// signalHotplug は未消費の通知がなければ通知を送る
func (d *MockDriver) signalHotplug() {
	select {
	case d.hotplug <- struct{}{}:
	default:
	}
}

// MockSession はテスト用のスクリプト可能な Session 実装
type MockSession struct {
	mu sync.Mutex

	modes        []Resolution
	mode         int
	autoExposure bool
	configured   bool
	closed       bool

	exposureTimeUs  uint32
	exposureGainPct uint16
	temperatureK    uint32
	tint            uint32

	calls []string

	events chan EventKind
	frames chan Frame
	stills chan Frame
}

// NewMockSession は新しい MockSession を作成する
func NewMockSession() *MockSession {
	return &MockSession{
		modes: []Resolution{
			{Width: 1920, Height: 1080},
			{Width: 1280, Height: 720},
			{Width: 640, Height: 480},
		},
		exposureTimeUs:  120000,
		exposureGainPct: 100,
		temperatureK:    6503,
		tint:            1000,
		events:          make(chan EventKind, 16),
		frames:          make(chan Frame, 16),
		stills:          make(chan Frame, 16),
	}
}

// Modes はサポートされるプレビューモードを返す
func (s *MockSession) Modes() []Resolution {
	return s.modes
}

// Configure は設定を記録する
func (s *MockSession) Configure(mode int, autoExposure bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode < 0 || mode >= len(s.modes) {
		return fmt.Errorf("無効なプレビューモード: %d", mode)
	}
	s.mode = mode
	s.autoExposure = autoExposure
	s.configured = true
	s.record("Configure(%d,%t)", mode, autoExposure)
	return nil
}

// SetExposureTime は露出時間を記録する
func (s *MockSession) SetExposureTime(microseconds uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposureTimeUs = microseconds
	s.record("SetExposureTime(%d)", microseconds)
	return nil
}

// SetExposureGain は露出ゲインを記録する
func (s *MockSession) SetExposureGain(percents uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exposureGainPct = percents
	s.record("SetExposureGain(%d)", percents)
	return nil
}

// SetWhiteBalance は色温度とティントを記録する
func (s *MockSession) SetWhiteBalance(temperatureK, tint uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temperatureK = temperatureK
	s.tint = tint
	s.record("SetWhiteBalance(%d,%d)", temperatureK, tint)
	return nil
}

// WhiteBalance は現在の色温度とティントを返す
func (s *MockSession) WhiteBalance() (uint32, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.temperatureK, s.tint, nil
}

// ExposureTime は現在の露出時間を返す
func (s *MockSession) ExposureTime() (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposureTimeUs, nil
}

// ExposureGain は現在の露出ゲインを返す
func (s *MockSession) ExposureGain() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exposureGainPct, nil
}

// Snap は静止画要求を記録する
func (s *MockSession) Snap(mode int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("Snap(%d)", mode)
	return nil
}

// Events はハードウェアイベントのチャンネルを返す
func (s *MockSession) Events() <-chan EventKind {
	return s.events
}

// PullFrame は注入済みのプレビューフレームを取り出す
func (s *MockSession) PullFrame() (Frame, error) {
	select {
	case frame := <-s.frames:
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("取り出せるフレームがありません")
	}
}

// PullStill は注入済みの静止画を取り出す
func (s *MockSession) PullStill() (Frame, error) {
	select {
	case frame := <-s.stills:
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("取り出せる静止画がありません")
	}
}

// Close はセッションのクローズを記録する
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.record("Close()")
	return nil
}

// EmitFrame はプレビューフレームを注入して FrameReady を通知する
func (s *MockSession) EmitFrame(frame Frame) {
	s.frames <- frame
	s.events <- EventFrameReady
}

// EmitStill は静止画を注入して StillReady を通知する
func (s *MockSession) EmitStill(frame Frame) {
	s.stills <- frame
	s.events <- EventStillReady
}

// EmitDisconnected は切断イベントを通知してチャンネルをクローズする
func (s *MockSession) EmitDisconnected() {
	s.events <- EventDisconnected
	close(s.events)
}

// EmitExposureChanged は露出変化イベントを通知する
func (s *MockSession) EmitExposureChanged() {
	s.events <- EventExposureChanged
}

// EmitUnknown は不明イベントを通知する
func (s *MockSession) EmitUnknown() {
	s.events <- EventUnknown
}

// Calls は記録された呼び出しの一覧を返す
func (s *MockSession) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Closed はセッションがクローズ済みかを返す
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Configured は Configure 済みかどうかと設定内容を返す
func (s *MockSession) Configured() (bool, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configured, s.mode, s.autoExposure
}

// record は呼び出しを記録する（ロック済み前提）
func (s *MockSession) record(format string, args ...any) {
	s.calls = append(s.calls, fmt.Sprintf(format, args...))
}
