// Package device はカメラ制御の並行処理エンジンを提供する
//
// # 責務
// - デバイスワーカー: セッションを排他所有する単一ゴルーチン
// - コマンド・イベントの2本のチャンネルによるアプリケーションとの接続
// - 接続状態機械（Idle → WaitingForConnect → Connected&Streaming）
// - フレーム後処理（アルファチャンネルの不透明化）
// - Camera フロントエンド: パラメータセルとコマンド転送の配線
//
// # 仕様
//   - セッションに触れるのはワーカーゴルーチンだけであり、
//     セッション周りの追加ロックは不要
//   - ワーカーはコマンド・ハードウェアイベント・ホットプラグの
//     3系統を単一の select で待ち合わせる
//   - Connected はセッション毎にちょうど一度、最初の Frame より
//     前に送出され、Disconnected は最後の Frame より後に送出される
//   - セッションが無い間のパラメータコマンドは破棄される
package device
