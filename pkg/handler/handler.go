// Package handler exposes the run entry point shared by the Lambda runtime
// and the local CLI: resolve the account and target date, run the refresh
// cycle, return the aggregated result.
package handler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	jsoniter "github.com/json-iterator/go"

	"github.com/bvmarkets/quickrefresh/pkg/config"
	"github.com/bvmarkets/quickrefresh/pkg/dataset"
	"github.com/bvmarkets/quickrefresh/pkg/dates"
	"github.com/bvmarkets/quickrefresh/pkg/quicksight"
	"github.com/bvmarkets/quickrefresh/pkg/refresh"
	"github.com/bvmarkets/quickrefresh/pkg/report"
)

var json = jsoniter.ConfigFastest

// Event is the run-trigger payload. All fields are optional; an empty event
// runs with the configured defaults.
type Event struct {
	TargetDate string `json:"target_date,omitempty"` // yyyymmdd override
}

// Response mirrors the Lambda proxy shape: a status code plus a JSON body.
// Partial failure is still a 200; the body enumerates every outcome.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type Handler struct {
	cfg   config.AppConfig
	specs []dataset.Spec

	// Seams for tests.
	newService func(ctx context.Context, accountID string) (refresh.DatasetService, error)
	accountID  func(ctx context.Context) (string, error)
	archiver   *report.Archiver
	now        func() time.Time
}

func New(cfg config.AppConfig, specs []dataset.Spec) *Handler {
	h := &Handler{
		cfg:      cfg,
		specs:    specs,
		archiver: report.NewArchiver(cfg.Report.S3),
		now:      time.Now,
	}
	h.newService = func(ctx context.Context, accountID string) (refresh.DatasetService, error) {
		return quicksight.NewStoreFromConfig(ctx, cfg.AWS.Region, accountID)
	}
	h.accountID = h.resolveAccountID
	return h
}

// Handle runs one refresh cycle across the full inventory. Failures before
// the per-dataset loop produce a 500 response; per-dataset failures are
// reported inside a 200 body.
func (h *Handler) Handle(ctx context.Context, evt Event) (Response, error) {
	accountID, err := h.accountID(ctx)
	if err != nil {
		return errorResponse(err), nil
	}

	targetDate := evt.TargetDate
	if targetDate == "" {
		targetDate, err = dates.Resolve(h.cfg.Refresh.TargetDate, h.now())
	} else {
		err = dates.Validate(targetDate)
	}
	if err != nil {
		return errorResponse(err), nil
	}

	svc, err := h.newService(ctx, accountID)
	if err != nil {
		return errorResponse(err), nil
	}

	coordinator := refresh.NewCoordinator(svc, h.cfg.Refresh)
	summary := coordinator.Run(ctx, h.specs, targetDate)

	// The summary is the source of truth either way; a failed archive upload
	// must not fail the run.
	if archiveErr := h.archiver.UploadIfEnabled(ctx, summary); archiveErr != nil {
		log.Printf("[Handler] Failed to archive run report: %v", archiveErr)
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return errorResponse(err), nil
	}

	return Response{StatusCode: 200, Body: string(body)}, nil
}

func errorResponse(err error) Response {
	log.Printf("[Handler] Run failed: %v", err)
	body, _ := json.Marshal(map[string]string{"error": err.Error()})
	return Response{StatusCode: 500, Body: string(body)}
}

// resolveAccountID prefers the configured override, then the Lambda
// invocation ARN, then an STS lookup for local runs.
func (h *Handler) resolveAccountID(ctx context.Context) (string, error) {
	if h.cfg.AWS.AccountID != "" {
		return h.cfg.AWS.AccountID, nil
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.InvokedFunctionArn != "" {
		if id, err := accountFromARN(lc.InvokedFunctionArn); err == nil {
			return id, nil
		}
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(h.cfg.AWS.Region))
	if err != nil {
		return "", fmt.Errorf("load AWS config: %w", err)
	}
	out, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("resolve account id: %w", err)
	}
	return aws.ToString(out.Account), nil
}

func accountFromARN(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) < 5 || parts[4] == "" {
		return "", fmt.Errorf("malformed function ARN %q", arn)
	}
	return parts[4], nil
}
