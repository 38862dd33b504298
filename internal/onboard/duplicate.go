package onboard

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// DuplicateResult summarizes a metric duplication run.
type DuplicateResult struct {
	Retained int
	Created  int
	Skipped  int
	Total    int
}

// ColumnMapping maps old column IDs to new column IDs by source name and
// collects the old column IDs with no counterpart in the new schema.
func ColumnMapping(old, new *platform.Dataset) (map[string]string, map[string]bool) {
	byName := make(map[string]string, len(new.Schema.Columns))
	for _, col := range new.Schema.Columns {
		byName[col.SourceName] = col.ID
	}

	mapping := make(map[string]string)
	removed := make(map[string]bool)
	for _, col := range old.Schema.Columns {
		if newID, ok := byName[col.SourceName]; ok {
			mapping[col.ID] = newID
		} else {
			removed[col.ID] = true
		}
	}
	return mapping, removed
}

func isUUID(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// MapSpec rewrites an aggregation spec to target the new dataset,
// swapping every column UUID through the mapping. List-valued args
// (segmentation columns) are remapped element-wise. It returns false
// when the spec references a column that no longer exists and must be
// dropped rather than copied.
func MapSpec(spec platform.AggregationSpec, oldDatasetID, newDatasetID string, mapping map[string]string, removed map[string]bool) (platform.AggregationSpec, bool) {
	mapped := spec
	mapped.Args = make([]platform.MetricsArg, 0, len(spec.Args))

	for _, a := range spec.Args {
		value := a.Value

		switch v := a.Value.(type) {
		case string:
			if a.Key == "dataset" && v == oldDatasetID {
				value = newDatasetID
			} else if removed[v] {
				return platform.AggregationSpec{}, false
			} else if newID, ok := mapping[v]; ok {
				value = newID
			}
		case []string:
			out := make([]string, 0, len(v))
			for _, item := range v {
				if removed[item] {
					return platform.AggregationSpec{}, false
				}
				if newID, ok := mapping[item]; ok {
					item = newID
				}
				out = append(out, item)
			}
			value = out
		case []any:
			out := make([]any, 0, len(v))
			for _, item := range v {
				if isUUID(item) {
					id := item.(string)
					if removed[id] {
						return platform.AggregationSpec{}, false
					}
					if newID, ok := mapping[id]; ok {
						item = newID
					}
				}
				out = append(out, item)
			}
			value = out
		}

		mapped.Args = append(mapped.Args, platform.MetricsArg{Key: a.Key, Value: value})
	}
	return mapped, true
}

// specDatasetID returns the dataset a spec is bound to, if any.
func specDatasetID(spec platform.AggregationSpec) string {
	for _, a := range spec.Args {
		if a.Key == "dataset" {
			if id, ok := a.Value.(string); ok {
				return id
			}
		}
	}
	return ""
}

func specsForDatasets(specs []platform.AggregationSpec, ids map[string]bool) []platform.AggregationSpec {
	var out []platform.AggregationSpec
	for _, spec := range specs {
		if ids[specDatasetID(spec)] {
			out = append(out, spec)
		}
	}
	return out
}

// DuplicateMetrics copies the model's aggregations from each old dataset
// to its replacement, remapping column references by source name.
// Aggregations already targeting the new datasets are replaced;
// aggregations on any other dataset are left untouched, and the run
// fails if they would change.
func (o *Onboarder) DuplicateMetrics(ctx context.Context, modelID string, datasetMapping map[string]string) (*DuplicateResult, error) {
	model, err := o.client.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if model.MetricConfig == nil {
		return nil, fmt.Errorf("model %s has no metric config", modelID)
	}

	datasets, err := o.client.ListDatasets(ctx, model.ProjectID, []string{model.ID})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*platform.Dataset, len(datasets))
	for i := range datasets {
		byID[datasets[i].ID] = &datasets[i]
	}

	oldIDs := make(map[string]bool, len(datasetMapping))
	newIDs := make(map[string]bool, len(datasetMapping))
	for oldID, newID := range datasetMapping {
		oldIDs[oldID] = true
		newIDs[newID] = true
	}

	existing := model.MetricConfig.AggregationSpecs
	result := &DuplicateResult{}

	var created []platform.AggregationSpec
	for oldID, newID := range datasetMapping {
		oldDataset, ok := byID[oldID]
		if !ok {
			return nil, fmt.Errorf("old dataset %s is not attached to model %s", oldID, modelID)
		}
		newDataset, ok := byID[newID]
		if !ok {
			return nil, fmt.Errorf("new dataset %s is not attached to model %s", newID, modelID)
		}
		if oldDataset.Schema == nil || newDataset.Schema == nil {
			return nil, fmt.Errorf("datasets %s and %s must both have schemas", oldID, newID)
		}

		mapping, removed := ColumnMapping(oldDataset, newDataset)
		o.logger.Info("Mapping dataset columns",
			zap.String("old", oldDataset.Name), zap.String("new", newDataset.Name),
			zap.Int("mapped", len(mapping)), zap.Int("removed", len(removed)))

		for _, spec := range existing {
			if specDatasetID(spec) != oldID {
				continue
			}
			mapped, ok := MapSpec(spec, oldID, newID, mapping, removed)
			if !ok {
				o.logger.Warn("Skipping aggregation that references a removed column",
					zap.String("aggregation_id", spec.AggregationID))
				result.Skipped++
				continue
			}
			created = append(created, mapped)
		}
	}
	result.Created = len(created)

	// Keep everything that does not target a replacement dataset; the
	// replacement datasets get exactly the remapped copies.
	var retained []platform.AggregationSpec
	for _, spec := range existing {
		if !newIDs[specDatasetID(spec)] {
			retained = append(retained, spec)
		}
	}
	result.Retained = len(retained)

	combined := append(retained, created...)
	result.Total = len(combined)

	// The old datasets' aggregations must come through bit-identical.
	before := specsForDatasets(existing, oldIDs)
	after := specsForDatasets(combined, oldIDs)
	if !reflect.DeepEqual(before, after) {
		return nil, fmt.Errorf("validation failed: aggregations for source datasets changed during duplication")
	}

	if err := o.client.PutModelMetricConfig(ctx, modelID, platform.PutModelMetricSpec{
		AggregationSpecs: combined,
	}); err != nil {
		return nil, err
	}
	o.logger.Info("Duplicated metrics",
		zap.Int("retained", result.Retained), zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped), zap.Int("total", result.Total))
	return result, nil
}
