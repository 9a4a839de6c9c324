// digit-server: HTTP API for handwritten digit classification
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"digitrec/inference"
	"digitrec/preprocess"
	"digitrec/server"
	"digitrec/utils"
)

var (
	addr        = flag.String("addr", ":8080", "Listen address")
	weightsFile = flag.String("weights", "", "Weights file (.json or comma/newline separated text)")
	hidden      = flag.String("hidden", "256 128", "Hidden layer sizes")
	strict      = flag.Bool("strict", false, "Fail on invalid tokens in text weights instead of skipping them")
	topK        = flag.Int("topk", inference.DefaultTopK, "Ranked predictions per response")
	maxUpload   = flag.Int64("max-upload", 8<<20, "Maximum request body in bytes")
	verbose     = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	hiddenSizes, err := utils.ParseArchitecture(*hidden)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing -hidden: %v\n", err)
		os.Exit(1)
	}
	cfg := &utils.Config{Hidden: hiddenSizes, WeightsPath: *weightsFile, Strict: *strict}

	svc := inference.NewService(preprocess.DefaultConfig())
	svc.SetTopK(*topK)
	if *weightsFile == "" {
		log.Printf("no -weights given, /predict answers 503 until weights are loaded (send SIGHUP after setting up the file)")
	} else if err := reload(svc, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading weights: %v\n", err)
		os.Exit(1)
	}

	srv := server.New(svc)
	srv.MaxUploadBytes = *maxUpload
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	stopped := make(chan struct{})
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		for sig := range signals {
			if sig == syscall.SIGHUP {
				if cfg.WeightsPath == "" {
					log.Printf("SIGHUP ignored: no -weights path")
					continue
				}
				if err := reload(svc, cfg); err != nil {
					log.Printf("reload failed, keeping current model: %v", err)
				}
				continue
			}
			log.Printf("%v received, shutting down", sig)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := httpServer.Shutdown(ctx); err != nil {
				log.Printf("shutdown: %v", err)
			}
			cancel()
			close(stopped)
			return
		}
	}()

	log.Printf("listening on %s", *addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server: %v", err)
	}
	<-stopped
	log.Printf("server stopped")
}

func reload(svc *inference.Service, cfg *utils.Config) error {
	start := time.Now()
	report, err := svc.Reload(cfg)
	if err != nil {
		return err
	}
	info, _ := svc.Info()
	log.Printf("model %v loaded from %s in %v", info.Topology, cfg.WeightsPath, time.Since(start))
	if report.Skipped > 0 {
		log.Printf("skipped %d invalid tokens", report.Skipped)
	}
	if *verbose {
		log.Printf("%d values over %d lines", report.Values, report.Lines)
	}
	return nil
}
