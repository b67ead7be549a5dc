// Package main はUtsuruサーバーコマンドの実装です
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"utsuru/internal/app"
	"utsuru/internal/config"
	"utsuru/internal/driver"
	"utsuru/internal/server"
)

func main() {
	// コマンドラインオプション
	var (
		host      = flag.String("host", "", "サーバーのホスト (デフォルト: 0.0.0.0)")
		port      = flag.Int("port", 0, "サーバーのポート (デフォルト: 8080)")
		device    = flag.String("device", "", "接続するカメラデバイスID (デフォルト: 先頭のデバイス)")
		noConnect = flag.Bool("no-auto-connect", false, "起動時の自動接続を無効にする")
		help      = flag.Bool("help", false, "ヘルプを表示")
	)

	flag.Parse()

	// ヘルプ表示
	if *help {
		fmt.Println("Utsuru")
		fmt.Println()
		fmt.Println("使用方法:")
		fmt.Println("  server [オプション]")
		fmt.Println()
		fmt.Println("オプション:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	// 設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	// コマンドラインオプションで設定を上書き
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *device != "" {
		cfg.Camera.DeviceID = *device
	}
	if *noConnect {
		cfg.Camera.AutoConnect = false
	}

	// コンテキストを作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// アプリケーションを起動
	application := app.New(cfg, driver.NewV4L2Driver())
	go application.Run(ctx)

	// サーバーを起動
	srv := server.New(cfg, application)
	log.Printf("Utsuru サーバーを起動します: %s", cfg.ServerAddress())
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("サーバーの起動に失敗しました: %v", err)
	}

	// 正常終了時は現在のパラメータを設定へ書き戻す
	if err := application.SaveSettings(); err != nil {
		log.Printf("設定の保存に失敗しました: %v", err)
	}
}
