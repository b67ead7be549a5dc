package device

import (
	"context"
	"log"

	"utsuru/internal/driver"
)

// Worker はハードウェアセッションを排他所有する単一のゴルーチンとして
// 動作し、コマンド・ハードウェアイベント・ホットプラグの3系統を
// 単一の select で多重待ち合わせする
type Worker struct {
	drv    driver.Driver
	events chan<- Event
	cmds   <-chan Command

	// 直近の列挙結果（ConnectedEvent の記述子解決用）
	known []driver.Descriptor
}

// NewWorker は新しい Worker を作成する
func NewWorker(drv driver.Driver, events chan<- Event, cmds <-chan Command) *Worker {
	return &Worker{
		drv:    drv,
		events: events,
		cmds:   cmds,
	}
}

// Run はワーカーループを実行する。ctx のキャンセルまで戻らない
func (w *Worker) Run(ctx context.Context) {
	// 起動時に一度列挙して一覧を配る
	w.enumerate(ctx)

	hotplugCh, err := w.drv.WatchHotplug(ctx)
	if err != nil {
		log.Printf("ホットプラグ監視の開始に失敗（再列挙は行われません）: %v", err)
		hotplugCh = nil // nil チャンネルは永久にブロックする
	}

	for {
		session, descriptor, ok := w.waitConnect(ctx, hotplugCh)
		if !ok {
			return
		}
		w.stream(ctx, session, descriptor, hotplugCh)
	}
}

// waitConnect はセッションが無い間のループ。接続コマンドを待ち、
// オープンに成功したらセッションを返す。ctx キャンセルで ok=false
func (w *Worker) waitConnect(ctx context.Context, hotplugCh <-chan struct{}) (driver.Session, driver.Descriptor, bool) {
	for {
		select {
		case <-ctx.Done():
			return nil, driver.Descriptor{}, false

		case <-hotplugCh:
			w.enumerate(ctx)

		case cmd := <-w.cmds:
			connect, isConnect := cmd.(ConnectCommand)
			if !isConnect {
				// セッションが無い間のパラメータコマンドは破棄する
				continue
			}

			session, err := w.drv.Open(ctx, connect.DeviceID)
			if err != nil {
				// 列挙とオープンの間にデバイスが消えた場合など。
				// 次のコマンドかホットプラグを待つ
				log.Printf("デバイスのオープンに失敗: %v", err)
				continue
			}

			// 最大解像度のプレビューモードを選び、自動露出を無効化して
			// 全てのパラメータコマンドを権威にする
			if err := session.Configure(0, false); err != nil {
				log.Printf("セッションの設定に失敗: %v", err)
				_ = session.Close()
				continue
			}

			descriptor := w.resolveDescriptor(connect.DeviceID)
			w.emit(ctx, ConnectedEvent{
				Device:   descriptor,
				Reported: readReported(session),
			})
			return session, descriptor, true
		}
	}
}

// stream は接続中のループ。切断イベントか ctx キャンセルで戻る
func (w *Worker) stream(ctx context.Context, session driver.Session, _ driver.Descriptor, hotplugCh <-chan struct{}) {
	defer func() { _ = session.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case <-hotplugCh:
			// 再列挙してもセッションには影響しない
			w.enumerate(ctx)

		case cmd := <-w.cmds:
			w.apply(session, cmd)

		case kind, ok := <-session.Events():
			if !ok {
				w.emit(ctx, DisconnectedEvent{})
				return
			}
			if done := w.handleHardwareEvent(ctx, session, kind); done {
				return
			}
		}
	}
}

// apply はパラメータコマンドをセッションへ即時適用する
func (w *Worker) apply(session driver.Session, cmd Command) {
	var err error
	switch c := cmd.(type) {
	case ConnectCommand:
		// 接続中の再接続要求は無視する
	case SetExposureTimeCommand:
		err = session.SetExposureTime(c.Microseconds)
	case SetExposureGainCommand:
		err = session.SetExposureGain(c.Percents)
	case SetColorTemperatureCommand:
		// ティントを保持したまま色温度だけを更新する
		_, tint, wbErr := session.WhiteBalance()
		if wbErr != nil {
			err = wbErr
			break
		}
		err = session.SetWhiteBalance(c.Kelvin, tint)
	case SetTintCommand:
		// 色温度を保持したままティントだけを更新する
		temperature, _, wbErr := session.WhiteBalance()
		if wbErr != nil {
			err = wbErr
			break
		}
		err = session.SetWhiteBalance(temperature, c.Value)
	case SnapCommand:
		// 静止画は現在のプレビュー解像度で撮影する
		err = session.Snap(0)
	}

	if err != nil {
		log.Printf("コマンドの適用に失敗: %v", err)
	}
}

// handleHardwareEvent はハードウェアイベントを処理する
// セッションが終了した場合に true を返す
func (w *Worker) handleHardwareEvent(ctx context.Context, session driver.Session, kind driver.EventKind) bool {
	switch kind {
	case driver.EventFrameReady:
		frame, err := session.PullFrame()
		if err != nil {
			log.Printf("フレームの取り出しに失敗: %v", err)
			return false
		}
		if err := ForceOpaqueAlpha(frame.Data); err != nil {
			log.Printf("フレーム後処理に失敗: %v", err)
			return false
		}
		w.emit(ctx, FrameEvent{Frame: frame})

	case driver.EventStillReady:
		frame, err := session.PullStill()
		if err != nil {
			log.Printf("静止画の取り出しに失敗: %v", err)
			return false
		}
		if err := ForceOpaqueAlpha(frame.Data); err != nil {
			log.Printf("静止画後処理に失敗: %v", err)
			return false
		}
		w.emit(ctx, StillFrameEvent{Frame: frame})

	case driver.EventDisconnected:
		w.emit(ctx, DisconnectedEvent{})
		return true

	case driver.EventExposureChanged:
		// デバイス内部の自動調整のエコー。UIへのフィードバックは行わない

	default:
		// 認識できないイベントはプロトコル違反だが、セッションを
		// 道連れにはせず記録して続行する
		log.Printf("不明なハードウェアイベントを無視します: %v", kind)
	}
	return false
}

// enumerate はデバイスを列挙して一覧イベントを送出する
func (w *Worker) enumerate(ctx context.Context) {
	devices, err := w.drv.Enumerate(ctx)
	if err != nil {
		log.Printf("デバイスの列挙に失敗: %v", err)
		return
	}
	w.known = devices
	w.emit(ctx, HotplugListEvent{Devices: devices})
}

// resolveDescriptor は直近の列挙結果から記述子を引く
func (w *Worker) resolveDescriptor(id string) driver.Descriptor {
	for _, device := range w.known {
		if device.ID == id {
			return device
		}
	}
	if id == "" && len(w.known) > 0 {
		return w.known[0]
	}
	return driver.Descriptor{ID: id}
}

// emit はイベントを送出する。受信側がいない場合は ctx キャンセルで諦める
func (w *Worker) emit(ctx context.Context, event Event) {
	select {
	case w.events <- event:
	case <-ctx.Done():
	}
}

// readReported はセッションから現在のパラメータ値を読み出す
// 読めなかった値はゼロのまま返す
func readReported(session driver.Session) ReportedState {
	var reported ReportedState
	if us, err := session.ExposureTime(); err == nil {
		reported.ExposureTimeUs = us
	}
	if pct, err := session.ExposureGain(); err == nil {
		reported.ExposureGainPct = pct
	}
	if temperature, tint, err := session.WhiteBalance(); err == nil {
		reported.ColorTemperatureK = temperature
		reported.Tint = tint
	}
	return reported
}
