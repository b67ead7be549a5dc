// Package property は検証付きの監視可能な値コンテナを提供する
//
// # 責務
// - 値の保持と検証（バリデータ）
// - 書き込み時の同期的なオブザーバ通知
// - セル同士のバインディング（Link / Derive）
// - チャンネルや他セルへの値の転送（Notify / Propagate）
//
// # 仕様
//   - 通知は登録順に同期実行される
//   - オブザーバ内からの同一セルへの書き込みは、進行中の通知が
//     完了した後に改めて適用される（ネストしない）
//   - Link / Derive は既存のオブザーバをリンク先へ移植するため、
//     バインド前に登録した購読はバインド後も生き続ける
//   - セルは単一ゴルーチンから操作する前提（排他制御は持たない）
package property
