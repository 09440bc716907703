package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/linjuya-lu/device-isx3-go/cmd/isx3ctl/cmd"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		log.Printf("got %v, stopping", s)
		cancel()
		// 退出前先停止测量并接收剩余数据
		<-time.After(30 * time.Second)
		log.Fatal("took too long to shutdown, forcefully exiting")
	}()
	os.Exit(cmd.Execute(ctx))
}
