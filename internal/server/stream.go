package server

import (
	"encoding/binary"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"utsuru/internal/driver"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 同一ホストの確認用UIからの接続を想定する
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleStream はWebSocketでプレビューフレームを配信する
// 各メッセージは幅・高さ（リトルエンディアン uint32）の8バイトの
// ヘッダに RGBA ピクセルが続くバイナリフレーム
func (s *Server) handleStream(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocketへのアップグレードに失敗: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	id, frames := s.app.Subscribe()
	defer s.app.Unsubscribe(id)

	// クライアント切断を検知するためのコンテキスト
	clientGone := c.Request.Context().Done()

	// 直前のフレームがあればすぐに1枚送る
	if frame, ok := s.app.LatestFrame(); ok {
		if err := writeFrame(conn, frame); err != nil {
			return
		}
	}

	// ストリーミングループ
	for {
		select {
		case <-clientGone:
			// クライアントが切断された
			return

		case frame, ok := <-frames:
			if !ok {
				// チャンネルがクローズされた
				return
			}
			if err := writeFrame(conn, frame); err != nil {
				return
			}
		}
	}
}

// writeFrame は1フレームをバイナリメッセージとして書き込む
func writeFrame(conn *websocket.Conn, frame driver.Frame) error {
	payload := make([]byte, 8+len(frame.Data))
	binary.LittleEndian.PutUint32(payload[0:], uint32(frame.Width))
	binary.LittleEndian.PutUint32(payload[4:], uint32(frame.Height))
	copy(payload[8:], frame.Data)
	return conn.WriteMessage(websocket.BinaryMessage, payload)
}
