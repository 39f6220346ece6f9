// kuairec 下载、加载并导出 KuaiRec 数据集。
//
//	kuairec fetch
//	kuairec describe --raw
//	kuairec export --out kuairec.db
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	// .env 不覆盖已有的环境变量
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
