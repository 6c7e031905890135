package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Named types to allow reuse and clearer code
type AWSConfig struct {
	Region    string `yaml:"region"`
	AccountID string `yaml:"accountId"` // optional override; otherwise derived at runtime
}

type RefreshConfig struct {
	Mode       string `yaml:"mode"`    // sequential | parallel
	Workers    int    `yaml:"workers"` // pool size in parallel mode
	TargetDate string `yaml:"targetDate"`

	WaitForStart bool          `yaml:"waitForStart"`
	StartTimeout time.Duration `yaml:"startTimeout"`
	PollInterval time.Duration `yaml:"pollInterval"`

	WaitForCompletion      bool          `yaml:"waitForCompletion"`
	CompletionTimeout      time.Duration `yaml:"completionTimeout"`
	CompletionPollInterval time.Duration `yaml:"completionPollInterval"`
}

type S3ReportConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	Endpoint  string `yaml:"endpoint"`
	Prefix    string `yaml:"prefix"`
}

type AppConfig struct {
	AWS AWSConfig `yaml:"aws"`

	Datasets struct {
		Dir string `yaml:"dir"`
	} `yaml:"datasets"`

	Refresh RefreshConfig `yaml:"refresh"`

	Report struct {
		S3 S3ReportConfig `yaml:"s3"`
	} `yaml:"report"`
}

// Load reads and parses a YAML config file into an AppConfig struct.
// It will terminate the program if the file is not found or invalid.
func Load(path string) AppConfig {
	// Initialize with defaults
	cfg := AppConfig{
		AWS: AWSConfig{
			Region: "us-east-1",
		},
		Refresh: RefreshConfig{
			Mode:                   "sequential",
			Workers:                4,
			TargetDate:             "previous-business-day",
			WaitForStart:           true,
			StartTimeout:           60 * time.Second,
			PollInterval:           3 * time.Second, // incremental refreshes start within seconds
			CompletionTimeout:      10 * time.Minute,
			CompletionPollInterval: 10 * time.Second,
		},
	}
	cfg.Datasets.Dir = "datasets"

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Fatalf("Config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("Error parsing config file: %v", err)
	}

	return cfg
}
