package trainsvc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"pipewiz/domain/core"
	"pipewiz/domain/dataset"
	"pipewiz/domain/training"
	"pipewiz/internal/errors"
)

// decodeResult reads the task_type discriminator and unmarshals the matching
// result variant.
func decodeResult(body []byte) (training.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Protocol("train response is not valid JSON", nil)
	}
	tag := gjson.GetBytes(body, "task_type")
	if !tag.Exists() || tag.String() == "" {
		return nil, errors.Protocol("train response has no task_type", core.ErrMissingDiscriminator)
	}

	switch training.TaskType(tag.String()) {
	case training.TaskClassification:
		var res training.ClassificationResult
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, errors.Protocol("malformed classification result", err)
		}
		return &res, nil
	case training.TaskRegression:
		var res training.RegressionResult
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, errors.Protocol("malformed regression result", err)
		}
		return &res, nil
	default:
		return nil, errors.Protocol(fmt.Sprintf("train response has unknown task_type %q", tag.String()), core.ErrUnknownTaskType)
	}
}

func decodeColumnStatistics(body []byte) (*dataset.ColumnStatistics, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.Protocol("upload response is not valid JSON", nil)
	}
	if !gjson.GetBytes(body, "columns").IsArray() || !gjson.GetBytes(body, "column_types").IsObject() {
		return nil, errors.Protocol("upload response lacks columns or column_types", nil)
	}
	var stats dataset.ColumnStatistics
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, errors.Protocol("malformed upload response", err)
	}
	return &stats, nil
}

func decodeTargetStats(body []byte) (*dataset.TargetColumnStats, error) {
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "column").Exists() {
		return nil, errors.Protocol("target stats response lacks column", nil)
	}
	var ts dataset.TargetColumnStats
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, errors.Protocol("malformed target stats response", err)
	}
	return &ts, nil
}

func decodeURLReport(body []byte) (*dataset.URLValidationReport, error) {
	if !gjson.ValidBytes(body) || !gjson.GetBytes(body, "results").IsArray() {
		return nil, errors.Protocol("URL check response lacks results", nil)
	}
	var rep dataset.URLValidationReport
	if err := json.Unmarshal(body, &rep); err != nil {
		return nil, errors.Protocol("malformed URL check response", err)
	}
	return &rep, nil
}

// detailMessage extracts the service's error message. FastAPI-style request
// validation errors carry a list of {msg} objects instead of a string.
func detailMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		return ""
	case detail.IsArray():
		var msgs []string
		detail.ForEach(func(_, item gjson.Result) bool {
			if m := item.Get("msg"); m.Exists() {
				msgs = append(msgs, m.String())
			} else {
				msgs = append(msgs, item.String())
			}
			return true
		})
		return strings.Join(msgs, "; ")
	default:
		return detail.String()
	}
}
