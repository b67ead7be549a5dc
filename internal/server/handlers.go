package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"utsuru/internal/snapshot"
)

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// StatusResponse はシステム状態のレスポンス
type StatusResponse struct {
	Status    string      `json:"status"`
	Server    ServerInfo  `json:"server"`
	Connected *DeviceInfo `json:"connected,omitempty"`
	Devices   int         `json:"devices"`
	Timestamp time.Time   `json:"timestamp"`
}

// ServerInfo はサーバーの待ち受け情報
type ServerInfo struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// DeviceInfo はカメラデバイスの情報
type DeviceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DevicesResponse はデバイス一覧のレスポンス
type DevicesResponse struct {
	Devices []DeviceInfo `json:"devices"`
}

// ConnectRequest は接続要求のリクエストボディ
type ConnectRequest struct {
	DeviceID string `json:"device_id"`
}

// ControlsRequest はスライダー操作のリクエストボディ
// 指定されたフィールドだけが動かされる
type ControlsRequest struct {
	ExposureTimeMs    *int `json:"exposure_time_ms"`
	ExposureGainPct   *int `json:"exposure_gain_pct"`
	ColorTemperatureK *int `json:"color_temperature_k"`
	Tint              *int `json:"tint"`
}

// SnapshotsResponse は静止画一覧のレスポンス
type SnapshotsResponse struct {
	Snapshots []snapshot.Snapshot `json:"snapshots"`
}

// ErrorResponse はエラーのレスポンス
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth はヘルスチェックエンドポイント
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	})
}

// handleStatus はシステム状態取得エンドポイント
func (s *Server) handleStatus(c *gin.Context) {
	response := StatusResponse{
		Status: "running",
		Server: ServerInfo{
			Host: s.config.Server.Host,
			Port: s.config.Server.Port,
		},
		Devices:   len(s.app.Devices()),
		Timestamp: time.Now(),
	}

	if dev, ok := s.app.ConnectedDevice(); ok {
		response.Connected = &DeviceInfo{ID: dev.ID, Name: dev.Name}
	}

	c.JSON(http.StatusOK, response)
}

// handleDevices はデバイス一覧取得エンドポイント
func (s *Server) handleDevices(c *gin.Context) {
	devices := s.app.Devices()
	response := DevicesResponse{Devices: make([]DeviceInfo, 0, len(devices))}
	for _, dev := range devices {
		response.Devices = append(response.Devices, DeviceInfo{ID: dev.ID, Name: dev.Name})
	}
	c.JSON(http.StatusOK, response)
}

// handleConnect は接続要求エンドポイント
func (s *Server) handleConnect(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストボディの解析に失敗しました",
			Timestamp: time.Now(),
		})
		return
	}

	s.app.Connect(req.DeviceID)
	c.Status(http.StatusAccepted)
}

// handleGetControls はスライダー位置取得エンドポイント
func (s *Server) handleGetControls(c *gin.Context) {
	c.JSON(http.StatusOK, s.app.Controls())
}

// handleSetControls はスライダー操作エンドポイント
// 正規化後の位置を返す
func (s *Server) handleSetControls(c *gin.Context) {
	var req ControlsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:     "invalid_request",
			Message:   "リクエストボディの解析に失敗しました",
			Timestamp: time.Now(),
		})
		return
	}

	if req.ExposureTimeMs != nil {
		s.app.SetExposureTimeMs(*req.ExposureTimeMs)
	}
	if req.ExposureGainPct != nil {
		s.app.SetExposureGainPct(*req.ExposureGainPct)
	}
	if req.ColorTemperatureK != nil {
		s.app.SetColorTemperatureK(*req.ColorTemperatureK)
	}
	if req.Tint != nil {
		s.app.SetTint(*req.Tint)
	}

	c.JSON(http.StatusOK, s.app.Controls())
}

// handleSnap は静止画撮影エンドポイント
func (s *Server) handleSnap(c *gin.Context) {
	if _, ok := s.app.ConnectedDevice(); !ok {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:     "not_connected",
			Message:   "カメラが接続されていません",
			Timestamp: time.Now(),
		})
		return
	}

	s.app.Snap()
	c.Status(http.StatusAccepted)
}

// handleSnapshots は静止画一覧取得エンドポイント
func (s *Server) handleSnapshots(c *gin.Context) {
	snapshots, err := s.app.Snapshots()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:     "list_failed",
			Message:   "静止画一覧の取得に失敗しました",
			Timestamp: time.Now(),
		})
		return
	}
	c.JSON(http.StatusOK, SnapshotsResponse{Snapshots: snapshots})
}

// handleRoot はルートパスのハンドラ
func (s *Server) handleRoot(c *gin.Context) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, `<!DOCTYPE html>
<html lang="ja">
<head>
    <meta charset="UTF-8">
    <title>Utsuru - USBカメラコントロール</title>
</head>
<body>
    <h1>Utsuru USBカメラコントロール</h1>
    <p>サーバーが正常に起動しています。</p>
    <p>ステータス: <a href="/api/status">/api/status</a></p>
    <p>デバイス一覧: <a href="/api/devices">/api/devices</a></p>
    <p>コントロール: <a href="/api/controls">/api/controls</a></p>
    <p>ヘルスチェック: <a href="/health">/health</a></p>
</body>
</html>`)
}
