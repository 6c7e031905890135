package main

import (
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/bvmarkets/quickrefresh/pkg/config"
	"github.com/bvmarkets/quickrefresh/pkg/dataset"
	"github.com/bvmarkets/quickrefresh/pkg/handler"
)

func main() {
	log.Println("[Lambda] Starting daily dataset refresh handler...")

	configPath := os.Getenv("QUICKREFRESH_CONFIG")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg := config.Load(configPath)

	specs, err := dataset.LoadDir(cfg.Datasets.Dir)
	if err != nil {
		log.Fatalf("[Lambda] Failed to load dataset inventory: %v", err)
	}
	log.Printf("[Lambda] Loaded %d dataset spec(s)", len(specs))

	lambda.Start(handler.New(cfg, specs).Handle)
}
