// Package app はカメラワーカーとフロントエンドを仲立ちする
// アプリケーション本体を提供する。
//
// # 責務
//
//   - ワーカーからのイベントとフロントエンドからの要求を単一の
//     ポンプゴルーチンで直列化する
//   - スライダーセルをカメラパラメータセルに束縛する
//   - 最新プレビューフレームの保持と購読者への配信
//   - 静止画の保存と設定の書き戻し
//
// # 仕様
//
// セルとアプリケーション状態はポンプゴルーチンだけが触る。
// HTTPハンドラなど外部のゴルーチンは App の公開メソッドを通じて
// 操作し、各メソッドは要求をポンプへ送って完了を待つ。
// フレーム配信は購読者が遅い場合にフレームを落とす（詰まらない）。
package app
