package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"utsuru/internal/app"
	"utsuru/internal/config"
	"utsuru/internal/driver"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{
			Host:         "127.0.0.1",
			Port:         0, // ランダムポートを使用
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Camera: config.CameraConfig{
			AutoConnect:       true,
			ExposureTimeMs:    120,
			ExposureGainPct:   100,
			ColorTemperatureK: 6503,
			Tint:              1000,
		},
		Snapshot: config.SnapshotConfig{OutputDir: t.TempDir()},
	}
}

// newTestServer はモックドライバの上にサーバーを組み立てて接続完了まで待つ
func newTestServer(t *testing.T) (*Server, *driver.MockDriver) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	drv := driver.NewMockDriver(driver.NewMockDescriptor("Mock Camera"))
	cfg := testConfig(t)
	application := app.New(cfg, drv)
	go application.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := application.ConnectedDevice(); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("自動接続がタイムアウトした")
		}
		time.Sleep(5 * time.Millisecond)
	}

	return New(cfg, application), drv
}

// TestServerStartAndShutdown はサーバーの起動とシャットダウンをテストする
func TestServerStartAndShutdown(t *testing.T) {
	srv, _ := newTestServer(t)

	// テスト用のコンテキスト（タイムアウト付き）
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// サーバーを別ゴルーチンで起動
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// サーバーが起動するまで少し待つ
	time.Sleep(100 * time.Millisecond)

	// コンテキストをキャンセルしてサーバーを停止
	cancel()

	// エラーチャンネルから結果を受信
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("サーバーの起動/停止でエラーが発生しました: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("サーバーの停止がタイムアウトしました")
	}
}

// TestServerEndpoints は各エンドポイントのステータスコードをテストする
func TestServerEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	testCases := []struct {
		name           string
		method         string
		endpoint       string
		body           string
		expectedStatus int
	}{
		{"ルートエンドポイント", http.MethodGet, "/", "", http.StatusOK},
		{"ヘルスチェックエンドポイント", http.MethodGet, "/health", "", http.StatusOK},
		{"ステータスエンドポイント", http.MethodGet, "/api/status", "", http.StatusOK},
		{"デバイス一覧エンドポイント", http.MethodGet, "/api/devices", "", http.StatusOK},
		{"コントロール取得エンドポイント", http.MethodGet, "/api/controls", "", http.StatusOK},
		{"静止画一覧エンドポイント", http.MethodGet, "/api/snapshots", "", http.StatusOK},
		{"静止画撮影エンドポイント", http.MethodPost, "/api/snap", "", http.StatusAccepted},
		{"接続エンドポイント", http.MethodPost, "/api/connect", `{"device_id":""}`, http.StatusAccepted},
		{"接続エンドポイントの不正なボディ", http.MethodPost, "/api/connect", `{`, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.endpoint, strings.NewReader(tc.body))
			if tc.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			rec := httptest.NewRecorder()
			srv.engine.ServeHTTP(rec, req)

			if rec.Code != tc.expectedStatus {
				t.Errorf("予期しないステータスコード: got %d, want %d", rec.Code, tc.expectedStatus)
			}
		})
	}
}

// TestServerStatusPayload はステータスレスポンスの内容をテストする
func TestServerStatusPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	var status StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}
	if status.Status != "running" {
		t.Errorf("ステータスが期待と異なる: %s", status.Status)
	}
	if status.Connected == nil || status.Connected.Name != "Mock Camera" {
		t.Errorf("接続中デバイスが期待と異なる: %+v", status.Connected)
	}
	if status.Devices != 1 {
		t.Errorf("デバイス数が期待と異なる: %d", status.Devices)
	}
}

// TestServerSetControls はスライダー操作エンドポイントをテストする
func TestServerSetControls(t *testing.T) {
	srv, drv := newTestServer(t)
	session := drv.Sessions()[0]

	req := httptest.NewRequest(http.MethodPost, "/api/controls",
		strings.NewReader(`{"exposure_time_ms":119,"color_temperature_k":5003}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("予期しないステータスコード: %d", rec.Code)
	}

	var controls struct {
		ExposureTimeMs    struct{ Current int } `json:"exposure_time_ms"`
		ColorTemperatureK struct{ Current int } `json:"color_temperature_k"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &controls); err != nil {
		t.Fatalf("レスポンスの解析に失敗: %v", err)
	}

	// 正規化された位置が返る
	if controls.ExposureTimeMs.Current != 120 {
		t.Errorf("露出時間がスナップされていない: %d", controls.ExposureTimeMs.Current)
	}
	if controls.ColorTemperatureK.Current != 5000 {
		t.Errorf("色温度がスナップされていない: %d", controls.ColorTemperatureK.Current)
	}

	// デバイスまで届いている
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, call := range session.Calls() {
			if call == "SetExposureTime(120000)" {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("コマンドがセッションに届いていない: %v", session.Calls())
}
