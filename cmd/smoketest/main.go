// smoketest はデプロイ済みのストックエージェントに対して疎通確認を行うCLIです。
// 引数なしの場合はローカル(http://localhost:8080)を対象にし、
// URLを渡すとリモートサービスとして負荷テストまで実行します。
package main

import (
	"context"
	"fmt"
	"os"

	"stock_agent/internal/feature/quotes/adapters/memory"
	"stock_agent/internal/smoketest"
)

func main() {
	baseURL := "http://localhost:8080"
	remote := false

	if len(os.Args) > 1 {
		baseURL = os.Args[1]
		remote = true
	} else {
		fmt.Println("usage: smoketest [service-url]")
		fmt.Println("no URL given, targeting", baseURL)
	}

	runner := smoketest.NewRunner(baseURL, remote, memory.NewQuoteMemory())
	if !runner.Run(context.Background()) {
		os.Exit(1)
	}
}
