// Package driver はカメラハードウェアとの境界を定義する
//
// # 責務
// - デバイスの列挙とホットプラグ監視
// - セッション（排他的なデバイスハンドル）のオープン
// - 露出・ゲイン・ホワイトバランスなどのパラメータ制御
// - プレビューフレームと静止画の取得
//
// # 仕様
// - V4L2Driver: v4l2-ctl / ffmpeg のサブプロセス経由の実装
// - MockDriver / MockSession: テスト用のスクリプト可能な実装
// - セッションは常にただ一つの実行コンテキスト（デバイスワーカー）が
//   所有し、Driver 自体はセッションの状態を共有しない
//
// # 前提要件
//   - v4l-utils: デバイス列挙とパラメータ制御に使用
//     Ubuntu/Debian: sudo apt install v4l-utils
//   - ffmpeg: フレームストリーミングに使用
//     Ubuntu/Debian: sudo apt install ffmpeg
package driver
