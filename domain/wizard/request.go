package wizard

import (
	"encoding/json"
	"strconv"

	"pipewiz/domain/core"
)

// Wire names of the training form fields.
const (
	FieldTarget              = "target"
	FieldFeatures            = "features"
	FieldModelType           = "model_type"
	FieldTaskType            = "task_type"
	FieldEpochs              = "epochs"
	FieldStandardize         = "preprocess_standardize"
	FieldNormalize           = "preprocess_normalize"
	FieldSplitRatio          = "split_ratio"
	FieldMaxDepth            = "max_depth"
	FieldAllowedTargetValues = "allowed_target_values"
)

// Field is one form field of a training request.
type Field struct {
	Name  string
	Value string
}

// TrainingRequest is the ordered set of form fields sent to /train.
type TrainingRequest struct {
	Fields []Field
}

// BuildRequest maps a validated configuration to wire fields. Lists are JSON
// encoded in insertion order; fields that do not apply are left out.
func BuildRequest(cfg ValidatedConfig) TrainingRequest {
	req := TrainingRequest{Fields: make([]Field, 0, 10)}
	add := func(name, value string) {
		req.Fields = append(req.Fields, Field{Name: name, Value: value})
	}

	add(FieldTarget, cfg.Target)
	add(FieldFeatures, jsonList(cfg.Features))
	add(FieldModelType, cfg.ModelType.String())
	add(FieldTaskType, cfg.TaskType.String())
	if cfg.Epochs > 0 {
		add(FieldEpochs, strconv.Itoa(cfg.Epochs))
	}
	add(FieldStandardize, jsonList(cfg.Standardize))
	add(FieldNormalize, jsonList(cfg.Normalize))
	add(FieldSplitRatio, strconv.FormatFloat(cfg.SplitRatio, 'f', -1, 64))
	if cfg.MaxDepth > 0 {
		add(FieldMaxDepth, strconv.Itoa(cfg.MaxDepth))
	}
	if len(cfg.AllowedValues) > 0 {
		add(FieldAllowedTargetValues, jsonList(cfg.AllowedValues))
	}
	return req
}

// Get returns the value of a field and whether it is present.
func (r TrainingRequest) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Has reports whether the request carries a field.
func (r TrainingRequest) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Fingerprint hashes the request; equal requests have equal fingerprints.
func (r TrainingRequest) Fingerprint() core.PayloadHash {
	pairs := make([][2]string, len(r.Fields))
	for i, f := range r.Fields {
		pairs[i] = [2]string{f.Name, f.Value}
	}
	return core.ComputePayloadHash(pairs)
}

func jsonList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		// []string always marshals.
		panic(err)
	}
	return string(b)
}
