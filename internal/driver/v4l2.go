package driver

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// V4L2Driver は v4l2-ctl / ffmpeg のサブプロセスを使った Driver 実装
type V4L2Driver struct {
	scanInterval time.Duration
}

// NewV4L2Driver は新しい V4L2Driver を作成する
func NewV4L2Driver() *V4L2Driver {
	return &V4L2Driver{
		scanInterval: 2 * time.Second, // 2秒間隔でホットプラグを検出
	}
}

// Enumerate は /dev/video* をスキャンして利用可能なデバイスを返す
func (d *V4L2Driver) Enumerate(ctx context.Context) ([]Descriptor, error) {
	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return nil, fmt.Errorf("デバイスのスキャンに失敗: %w", err)
	}

	// デバイス番号でソート
	sort.Slice(matches, func(i, j int) bool {
		return extractDeviceNumber(matches[i]) < extractDeviceNumber(matches[j])
	})

	var devices []Descriptor
	for _, path := range matches {
		select {
		case <-ctx.Done():
			return devices, ctx.Err()
		default:
		}

		info, err := queryDeviceInfo(ctx, path)
		if err != nil {
			// 開けないデバイスノード（メタデータ専用など）は除外
			continue
		}

		name := info["Card type"]
		if name == "" {
			name = filepath.Base(path)
		}

		devices = append(devices, Descriptor{ID: path, Name: name})
	}

	return devices, nil
}

// WatchHotplug はデバイス集合の変化を定期スキャンで検出して通知する
func (d *V4L2Driver) WatchHotplug(ctx context.Context) (<-chan struct{}, error) {
	notifyCh := make(chan struct{}, 1)

	go func() {
		defer close(notifyCh)

		ticker := time.NewTicker(d.scanInterval)
		defer ticker.Stop()

		last := currentDeviceSet()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				current := currentDeviceSet()
				if current == last {
					continue
				}
				last = current

				// 通知が未消費なら重ねて送らない
				select {
				case notifyCh <- struct{}{}:
				default:
				}
			}
		}
	}()

	return notifyCh, nil
}

// Open は指定された（空文字列なら先頭の）デバイスのセッションを開く
func (d *V4L2Driver) Open(ctx context.Context, id string) (Session, error) {
	if id == "" {
		devices, err := d.Enumerate(ctx)
		if err != nil {
			return nil, fmt.Errorf("デバイスの列挙に失敗: %w", err)
		}
		if len(devices) == 0 {
			return nil, fmt.Errorf("利用可能なデバイスがありません")
		}
		id = devices[0].ID
	}

	if _, err := queryDeviceInfo(ctx, id); err != nil {
		return nil, fmt.Errorf("デバイス %s を開けません: %w", id, err)
	}

	modes, err := queryModes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("デバイス %s のモード取得に失敗: %w", id, err)
	}
	if len(modes) == 0 {
		// 解像度が取得できない場合の保険
		modes = []Resolution{{Width: 1280, Height: 720}}
	}

	sessCtx, cancel := context.WithCancel(context.Background())
	return &v4l2Session{
		devicePath: id,
		modes:      modes,
		ctx:        sessCtx,
		cancel:     cancel,
		events:     make(chan EventKind, 8),
		frames:     make(chan Frame, 4),
		stills:     make(chan Frame, 2),
	}, nil
}

// v4l2Session は1台の V4L2 デバイスへの排他的なセッション
type v4l2Session struct {
	devicePath string
	modes      []Resolution
	mode       int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	events chan EventKind
	frames chan Frame
	stills chan Frame

	snapPending atomic.Bool
	closing     atomic.Bool
}

// Modes はサポートされるプレビューモードを返す
func (s *v4l2Session) Modes() []Resolution {
	return s.modes
}

// Configure はプレビューモードと自動露出を設定してストリーミングを開始する
func (s *v4l2Session) Configure(mode int, autoExposure bool) error {
	if mode < 0 || mode >= len(s.modes) {
		return fmt.Errorf("無効なプレビューモード: %d", mode)
	}
	s.mode = mode

	// auto_exposure: 1 = manual mode
	if !autoExposure {
		if err := s.setControl("auto_exposure", 1); err != nil {
			log.Printf("自動露出の無効化に失敗（続行します）: %v", err)
		}
		if err := s.setControl("white_balance_automatic", 0); err != nil {
			log.Printf("自動ホワイトバランスの無効化に失敗（続行します）: %v", err)
		}
	}

	res := s.modes[mode]
	cmd := exec.CommandContext(s.ctx,
		"ffmpeg",
		"-f", "v4l2",
		"-video_size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"-i", s.devicePath,
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdoutパイプの作成に失敗: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpegの起動に失敗: %w", err)
	}

	s.wg.Add(1)
	go s.readFrames(cmd, stdout, res)

	return nil
}

// readFrames は固定長の RGBA フレームを切り出して配送する
func (s *v4l2Session) readFrames(cmd *exec.Cmd, stdout io.Reader, res Resolution) {
	defer s.wg.Done()
	defer func() { _ = cmd.Wait() }()

	frameSize := res.Width * res.Height * 4
	for {
		buf := make([]byte, frameSize)
		if _, err := io.ReadFull(stdout, buf); err != nil {
			// パイプの終端はデバイス喪失（またはクローズ）を意味する
			if !s.closing.Load() {
				s.deliver(EventDisconnected)
			}
			close(s.events)
			return
		}

		frame := Frame{Data: buf, Width: res.Width, Height: res.Height}

		if s.snapPending.Swap(false) {
			still := Frame{Data: append([]byte(nil), buf...), Width: res.Width, Height: res.Height}
			select {
			case s.stills <- still:
				s.deliver(EventStillReady)
			case <-s.ctx.Done():
				return
			}
		}

		select {
		case s.frames <- frame:
			s.deliver(EventFrameReady)
		case <-s.ctx.Done():
			return
		}
	}
}

// deliver はイベントをセッションのイベントチャンネルへ送る
func (s *v4l2Session) deliver(kind EventKind) {
	select {
	case s.events <- kind:
	case <-s.ctx.Done():
	}
}

// SetExposureTime は露出時間を設定する（V4L2 は 100µs 単位）
func (s *v4l2Session) SetExposureTime(microseconds uint32) error {
	return s.setControl("exposure_time_absolute", int(microseconds/100))
}

// SetExposureGain は露出ゲインを設定する
func (s *v4l2Session) SetExposureGain(percents uint16) error {
	return s.setControl("gain", int(percents))
}

// SetWhiteBalance は色温度とティントを設定する
// ティントに相当する V4L2 コントロールは無いため hue で代用する
func (s *v4l2Session) SetWhiteBalance(temperatureK, tint uint32) error {
	if err := s.setControl("white_balance_temperature", int(temperatureK)); err != nil {
		return err
	}
	return s.setControl("hue", int(tint))
}

// WhiteBalance は現在の色温度とティントを返す
func (s *v4l2Session) WhiteBalance() (uint32, uint32, error) {
	temp, err := s.getControl("white_balance_temperature")
	if err != nil {
		return 0, 0, err
	}
	tint, err := s.getControl("hue")
	if err != nil {
		return 0, 0, err
	}
	return uint32(temp), uint32(tint), nil
}

// ExposureTime は現在の露出時間をマイクロ秒で返す
func (s *v4l2Session) ExposureTime() (uint32, error) {
	value, err := s.getControl("exposure_time_absolute")
	if err != nil {
		return 0, err
	}
	return uint32(value * 100), nil
}

// ExposureGain は現在の露出ゲインを返す
func (s *v4l2Session) ExposureGain() (uint16, error) {
	value, err := s.getControl("gain")
	if err != nil {
		return 0, err
	}
	return uint16(value), nil
}

// Snap は次のプレビューフレームを静止画として配送するよう要求する
// プレビュー解像度のまま取り出すため mode は現在のモードに限られる
func (s *v4l2Session) Snap(mode int) error {
	if mode != s.mode {
		return fmt.Errorf("プレビュー解像度以外の静止画撮影は未サポート: mode=%d", mode)
	}
	s.snapPending.Store(true)
	return nil
}

// Events はハードウェアイベントのチャンネルを返す
func (s *v4l2Session) Events() <-chan EventKind {
	return s.events
}

// PullFrame は配送済みのプレビューフレームを取り出す
func (s *v4l2Session) PullFrame() (Frame, error) {
	select {
	case frame, ok := <-s.frames:
		if !ok {
			return Frame{}, fmt.Errorf("セッションは終了しています")
		}
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("取り出せるフレームがありません")
	}
}

// PullStill は配送済みの静止画を取り出す
func (s *v4l2Session) PullStill() (Frame, error) {
	select {
	case frame, ok := <-s.stills:
		if !ok {
			return Frame{}, fmt.Errorf("セッションは終了しています")
		}
		return frame, nil
	default:
		return Frame{}, fmt.Errorf("取り出せる静止画がありません")
	}
}

// Close はセッションを解放する
func (s *v4l2Session) Close() error {
	s.closing.Store(true)
	s.cancel()
	s.wg.Wait()
	return nil
}

// setControl は v4l2-ctl --set-ctrl を実行する
func (s *v4l2Session) setControl(name string, value int) error {
	ctx, cancelFn := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancelFn()

	cmd := exec.CommandContext(ctx, "v4l2-ctl",
		"--device", s.devicePath,
		"--set-ctrl", fmt.Sprintf("%s=%d", name, value))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("コントロール %s の設定に失敗: %w", name, err)
	}
	return nil
}

// getControl は v4l2-ctl --get-ctrl の出力から値を取り出す
func (s *v4l2Session) getControl(name string) (int, error) {
	ctx, cancelFn := context.WithTimeout(s.ctx, 3*time.Second)
	defer cancelFn()

	cmd := exec.CommandContext(ctx, "v4l2-ctl",
		"--device", s.devicePath,
		"--get-ctrl", name)
	output, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("コントロール %s の取得に失敗: %w", name, err)
	}
	return parseControlValue(string(output))
}

// queryDeviceInfo は v4l2-ctl --info の出力をキーと値に分解する
func queryDeviceInfo(ctx context.Context, devicePath string) (map[string]string, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", devicePath, "--info")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("デバイス情報の取得に失敗: %w", err)
	}

	info := make(map[string]string)
	for _, line := range strings.Split(string(output), "\n") {
		if !strings.Contains(line, ":") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		info[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return info, nil
}

// queryModes は v4l2-ctl --list-formats-ext から解像度一覧を取り出す
func queryModes(ctx context.Context, devicePath string) ([]Resolution, error) {
	cmd := exec.CommandContext(ctx, "v4l2-ctl", "--device", devicePath, "--list-formats-ext")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("フォーマット一覧の取得に失敗: %w", err)
	}
	return parseResolutions(string(output)), nil
}

// resolutionPattern は "Size: Discrete 1280x720" 形式の行にマッチする
var resolutionPattern = regexp.MustCompile(`Size:\s+\w+\s+(\d+)x(\d+)`)

// parseResolutions は重複を除いた解像度一覧を面積の大きい順で返す
func parseResolutions(output string) []Resolution {
	seen := make(map[Resolution]bool)
	var modes []Resolution

	for _, match := range resolutionPattern.FindAllStringSubmatch(output, -1) {
		width, _ := strconv.Atoi(match[1])
		height, _ := strconv.Atoi(match[2])
		res := Resolution{Width: width, Height: height}
		if !seen[res] {
			seen[res] = true
			modes = append(modes, res)
		}
	}

	sort.Slice(modes, func(i, j int) bool {
		return modes[i].Width*modes[i].Height > modes[j].Width*modes[j].Height
	})
	return modes
}

// parseControlValue は "exposure_time_absolute: 1200" 形式の出力から値を取り出す
func parseControlValue(output string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(output), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("コントロール値の形式が不正: %q", output)
	}
	value, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, fmt.Errorf("コントロール値の解析に失敗: %w", err)
	}
	return value, nil
}

// deviceNumberPattern は /dev/videoN の N にマッチする
var deviceNumberPattern = regexp.MustCompile(`video(\d+)$`)

// extractDeviceNumber はデバイスパスから番号を取り出す（ソート用）
func extractDeviceNumber(devicePath string) int {
	match := deviceNumberPattern.FindStringSubmatch(devicePath)
	if match == nil {
		return 0
	}
	number, _ := strconv.Atoi(match[1])
	return number
}

// currentDeviceSet は現在の /dev/video* 集合を比較可能な形で返す
func currentDeviceSet() string {
	matches, err := filepath.Glob("/dev/video*")
	if err != nil {
		return ""
	}
	sort.Strings(matches)
	return strings.Join(matches, ",")
}
