package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"go-streamfeed-server/config"
	"go-streamfeed-server/logger"
	"go-streamfeed-server/server"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <filename> [host] [port]\n", os.Args[0])
		os.Exit(1)
	}
	filePath := os.Args[1]

	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config, using defaults: %v\n", err)
	}

	if len(os.Args) > 2 {
		cfg.Server.HostName = os.Args[2]
	}
	if len(os.Args) > 3 {
		port, err := strconv.Atoi(os.Args[3])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid port %q: %v\n", os.Args[3], err)
			os.Exit(1)
		}
		cfg.Server.Port = port
	}

	logger.Init(cfg.Log.Level)
	log := logger.WithComponent("main")

	// Capture SIGINT and SIGTERM for graceful shutdown
	stopCh := make(chan struct{})
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-signalChan
		log.Info().Msg("shutdown signal received")
		close(stopCh)
	}()

	srv := server.New(&cfg, filePath, os.Stdin)
	if err := srv.Listen(); err != nil {
		log.Fatal().Err(err).Msg("error starting server")
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go srv.Serve(stopCh, &wg)

	wg.Wait()
	log.Info().Msg("server shut down gracefully")
}
