package main

import (
	"context"
	"log"

	"utsuru/internal/app"
	"utsuru/internal/config"
	"utsuru/internal/driver"
	"utsuru/internal/server"
)

func main() {
	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コンテキストを作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// アプリケーションを起動
	application := app.New(cfg, driver.NewV4L2Driver())
	go application.Run(ctx)

	// サーバーを起動
	srv := server.New(cfg, application)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}

	// 正常終了時は現在のパラメータを設定へ書き戻す
	if err := application.SaveSettings(); err != nil {
		log.Printf("設定の保存に失敗しました: %v", err)
	}
}
