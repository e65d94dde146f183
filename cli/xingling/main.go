package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	xinglingcmder "github.com/zhyuuka/xingling-chat/cmd/xingling"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := xinglingcmder.NewXinglingCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
