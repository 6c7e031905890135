// Package quicksight adapts the AWS QuickSight API to the refresh
// coordinator: it rewrites a dataset's embedded custom SQL in place and
// drives incremental ingestions.
package quicksight

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	qs "github.com/aws/aws-sdk-go-v2/service/quicksight"
	"github.com/aws/aws-sdk-go-v2/service/quicksight/types"

	"github.com/bvmarkets/quickrefresh/pkg/refresh"
)

// ErrNoCustomSQL means the dataset's physical table map carries no custom
// SQL table, so there is no query to rewrite.
var ErrNoCustomSQL = errors.New("dataset has no custom SQL physical table")

// API is the subset of the QuickSight client the store depends on.
type API interface {
	DescribeDataSet(ctx context.Context, params *qs.DescribeDataSetInput, optFns ...func(*qs.Options)) (*qs.DescribeDataSetOutput, error)
	UpdateDataSet(ctx context.Context, params *qs.UpdateDataSetInput, optFns ...func(*qs.Options)) (*qs.UpdateDataSetOutput, error)
	CreateIngestion(ctx context.Context, params *qs.CreateIngestionInput, optFns ...func(*qs.Options)) (*qs.CreateIngestionOutput, error)
	DescribeIngestion(ctx context.Context, params *qs.DescribeIngestionInput, optFns ...func(*qs.Options)) (*qs.DescribeIngestionOutput, error)
}

// Store addresses one account's datasets.
type Store struct {
	api       API
	accountID string
}

func NewStore(api API, accountID string) *Store {
	return &Store{api: api, accountID: accountID}
}

// NewStoreFromConfig builds a store backed by the real QuickSight client,
// using the default credential chain.
func NewStoreFromConfig(ctx context.Context, region, accountID string) (*Store, error) {
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewStore(qs.NewFromConfig(awsCfg), accountID), nil
}

// RewriteQuery describes the dataset, applies the transform to its first
// custom SQL table and writes the result back, preserving the dataset name,
// import mode, columns and data-source reference. When the transform matches
// nothing the update is skipped and a zero count returned; that is not an
// error.
func (s *Store) RewriteQuery(ctx context.Context, datasetID string, transform refresh.QueryTransform) (int, error) {
	out, err := s.api.DescribeDataSet(ctx, &qs.DescribeDataSetInput{
		AwsAccountId: aws.String(s.accountID),
		DataSetId:    aws.String(datasetID),
	})
	if err != nil {
		return 0, fmt.Errorf("describe dataset %s: %w", datasetID, err)
	}

	ds := out.DataSet
	for tableID, table := range ds.PhysicalTableMap {
		custom, ok := table.(*types.PhysicalTableMemberCustomSql)
		if !ok {
			continue
		}

		newSQL, replaced := transform(aws.ToString(custom.Value.SqlQuery))
		if replaced == 0 {
			return 0, nil
		}

		updated := map[string]types.PhysicalTable{
			tableID: &types.PhysicalTableMemberCustomSql{
				Value: types.CustomSql{
					DataSourceArn: custom.Value.DataSourceArn,
					Name:          custom.Value.Name,
					SqlQuery:      aws.String(newSQL),
					Columns:       custom.Value.Columns,
				},
			},
		}

		_, err = s.api.UpdateDataSet(ctx, &qs.UpdateDataSetInput{
			AwsAccountId:     aws.String(s.accountID),
			DataSetId:        aws.String(datasetID),
			Name:             ds.Name,
			PhysicalTableMap: updated,
			ImportMode:       ds.ImportMode,
		})
		if err != nil {
			return 0, fmt.Errorf("update dataset %s: %w", datasetID, err)
		}
		return replaced, nil
	}

	return 0, fmt.Errorf("dataset %s: %w", datasetID, ErrNoCustomSQL)
}

// StartIngestion submits one incremental reload. Failures surface to the
// caller; there are no retries here.
func (s *Store) StartIngestion(ctx context.Context, datasetID, ingestionID string) error {
	_, err := s.api.CreateIngestion(ctx, &qs.CreateIngestionInput{
		AwsAccountId:  aws.String(s.accountID),
		DataSetId:     aws.String(datasetID),
		IngestionId:   aws.String(ingestionID),
		IngestionType: types.IngestionTypeIncrementalRefresh,
	})
	if err != nil {
		return fmt.Errorf("create ingestion for %s: %w", datasetID, err)
	}
	return nil
}

// IngestionStatus reads the current job status plus error detail when the
// service reports one.
func (s *Store) IngestionStatus(ctx context.Context, datasetID, ingestionID string) (refresh.IngestionStatus, string, error) {
	out, err := s.api.DescribeIngestion(ctx, &qs.DescribeIngestionInput{
		AwsAccountId: aws.String(s.accountID),
		DataSetId:    aws.String(datasetID),
		IngestionId:  aws.String(ingestionID),
	})
	if err != nil {
		return "", "", fmt.Errorf("describe ingestion %s: %w", ingestionID, err)
	}

	ing := out.Ingestion
	detail := ""
	if ing.ErrorInfo != nil {
		detail = aws.ToString(ing.ErrorInfo.Message)
		if detail == "" {
			detail = string(ing.ErrorInfo.Type)
		}
	}
	return refresh.IngestionStatus(ing.IngestionStatus), detail, nil
}
