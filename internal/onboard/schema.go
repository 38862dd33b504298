package onboard

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// AddColumn appends a column to the dataset's schema. The column must
// already exist in the underlying data; the platform does not backfill.
func (o *Onboarder) AddColumn(ctx context.Context, datasetID, name string, dtype platform.DType, nullable bool) error {
	dataset, err := o.client.GetDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	if dataset.Schema == nil {
		return fmt.Errorf("dataset %s has no schema", datasetID)
	}
	if dataset.Schema.ColumnByName(name) != nil {
		return fmt.Errorf("column %q already exists in dataset %s", name, datasetID)
	}

	col := platform.NewDatasetColumn(uuid.NewString(), uuid.NewString(), name, dtype, nullable)
	columns := append(dataset.Schema.Columns, col)

	if err := o.client.UpdateDatasetSchema(ctx, datasetID, platform.PutDatasetSchema{
		AliasMask: dataset.Schema.AliasMask,
		Columns:   columns,
	}); err != nil {
		return err
	}
	o.logger.Info("Added column to dataset schema",
		zap.String("dataset_id", datasetID), zap.String("column", name),
		zap.String("dtype", string(dtype)))
	return nil
}

// RemoveColumn drops a column from the dataset's schema. Aggregations
// referencing the column must be removed first.
func (o *Onboarder) RemoveColumn(ctx context.Context, datasetID, name string) error {
	dataset, err := o.client.GetDataset(ctx, datasetID)
	if err != nil {
		return err
	}
	if dataset.Schema == nil {
		return fmt.Errorf("dataset %s has no schema", datasetID)
	}

	columns := make([]platform.DatasetColumn, 0, len(dataset.Schema.Columns))
	found := false
	for _, col := range dataset.Schema.Columns {
		if col.SourceName == name {
			found = true
			continue
		}
		columns = append(columns, col)
	}
	if !found {
		return &MissingColumnError{Dataset: dataset.Name, Column: name}
	}

	if err := o.client.UpdateDatasetSchema(ctx, datasetID, platform.PutDatasetSchema{
		AliasMask: dataset.Schema.AliasMask,
		Columns:   columns,
	}); err != nil {
		return err
	}
	o.logger.Info("Removed column from dataset schema",
		zap.String("dataset_id", datasetID), zap.String("column", name))
	return nil
}
