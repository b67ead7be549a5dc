// Package server は、HTTPサーバーとWebSocket通信を管理します。
//
// このパッケージは、HTTPサーバーの起動、ルーティング、
// カメラ操作APIの提供、プレビューフレームの配信を担当します。
//
// 責務:
//   - HTTPサーバーの起動と管理
//   - カメラ操作API（接続・スライダー・静止画）の提供
//   - WebSocket接続の確立とフレームストリーミング
//   - クライアントからのリクエスト処理
//
// 仕様:
//   - ルーティングはgin-gonic/ginを使用
//   - WebSocketはgorilla/websocketを使用
//   - グレースフルシャットダウンに対応
//   - 複数クライアントの同時接続をサポート
package server
