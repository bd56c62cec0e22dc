package adapter

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/m-mizutani/euonia/pkg/model"
	"github.com/m-mizutani/goerr/v2"
)

// BigQuery records conversation turn logs for analytics
type BigQuery interface {
	// InsertTurnLogs streams turn logs into the configured table
	InsertTurnLogs(ctx context.Context, logs ...*model.TurnLog) error
}

type bigqueryClient struct {
	client    *bigquery.Client
	datasetID string
	tableID   string
}

// NewBigQuery creates a new BigQuery client writing to project.dataset.table
func NewBigQuery(ctx context.Context, projectID, datasetID, tableID string) (BigQuery, error) {
	if datasetID == "" || tableID == "" {
		return nil, goerr.New("dataset and table are required",
			goerr.V("dataset", datasetID), goerr.V("table", tableID))
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create BigQuery client")
	}

	return &bigqueryClient{
		client:    client,
		datasetID: datasetID,
		tableID:   tableID,
	}, nil
}

func (bq *bigqueryClient) InsertTurnLogs(ctx context.Context, logs ...*model.TurnLog) error {
	if len(logs) == 0 {
		return nil
	}

	inserter := bq.client.Dataset(bq.datasetID).Table(bq.tableID).Inserter()
	if err := inserter.Put(ctx, logs); err != nil {
		return goerr.Wrap(err, "failed to insert turn logs",
			goerr.V("dataset", bq.datasetID),
			goerr.V("table", bq.tableID),
			goerr.V("count", len(logs)))
	}
	return nil
}
