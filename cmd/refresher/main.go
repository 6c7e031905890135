package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bvmarkets/quickrefresh/pkg/config"
	"github.com/bvmarkets/quickrefresh/pkg/dataset"
	"github.com/bvmarkets/quickrefresh/pkg/handler"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	targetDate := flag.String("date", "", "optional yyyymmdd target date override")
	flag.Parse()

	log.Println("[Refresher] Starting daily dataset refresh...")

	cfg := config.Load(*configPath)

	specs, err := dataset.LoadDir(cfg.Datasets.Dir)
	if err != nil {
		log.Fatalf("[Refresher] Failed to load dataset inventory: %v", err)
	}
	log.Printf("[Refresher] Loaded %d dataset spec(s)", len(specs))

	resp, err := handler.New(cfg, specs).Handle(context.Background(), handler.Event{TargetDate: *targetDate})
	if err != nil {
		log.Fatalf("[Refresher] Run failed: %v", err)
	}

	fmt.Println(resp.Body)
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}
