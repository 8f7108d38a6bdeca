package trainsvc

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipewiz/domain/core"
	"pipewiz/domain/training"
	"pipewiz/domain/wizard"
	"pipewiz/internal/errors"
	"pipewiz/internal/testkit"
	"pipewiz/ports"
)

func newClient(t *testing.T) (*Client, *testkit.FakeService) {
	t.Helper()
	fake := testkit.NewFakeService()
	url := fake.Start()
	t.Cleanup(fake.Close)
	return NewClient(Config{BaseURL: url + "/", Timeout: 5 * time.Second, URLCheckTimeout: 5 * time.Second}, nil), fake
}

func TestClient_Upload(t *testing.T) {
	client, fake := newClient(t)

	stats, err := client.Upload(context.Background(), ports.Upload{
		Filename: "data.csv",
		Content:  strings.NewReader("age,income,label\n30,1000.5,a\n"),
	})
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Rows)
	assert.Equal(t, []string{"age", "income", "label"}, stats.Columns)
	assert.Equal(t, "float64", stats.TypeOf("income"))
	assert.Equal(t, 3, stats.UniqueCount("label"))
	assert.Equal(t, []string{"data.csv"}, fake.Uploads())
}

func TestClient_TargetStats(t *testing.T) {
	client, _ := newClient(t)

	ts, err := client.TargetStats(context.Background(), "label")
	require.NoError(t, err)
	assert.Equal(t, "label", ts.ColumnName)
	assert.Equal(t, 3, ts.UniqueCount)
	require.Len(t, ts.TopValues, 3)
	assert.Equal(t, "a", ts.TopValues[0].Value)

	_, err = client.TargetStats(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, errors.CodeServiceRejected, errors.GetCode(err))
	assert.Contains(t, err.Error(), "Column 'nope' not found")
}

func TestClient_CheckURLs(t *testing.T) {
	client, fake := newClient(t)
	fake.URLStatus["https://up"] = 200
	fake.URLStatus["https://gone"] = 404

	rep, err := client.CheckURLs(context.Background(), []string{"https://up", "https://gone", "https://dns-fail"})
	require.NoError(t, err)
	assert.Equal(t, 3, rep.CheckedCount)
	assert.Equal(t, 1, rep.ReachableCount)
	assert.Equal(t, []string{"https://up"}, rep.ReachableURLs())
	require.NotNil(t, rep.Results[1].Status)
	assert.Equal(t, 404, *rep.Results[1].Status)
	assert.Nil(t, rep.Results[2].Status)
}

func TestClient_TrainSendsFieldsInOrder(t *testing.T) {
	client, fake := newClient(t)

	req := wizard.TrainingRequest{Fields: []wizard.Field{
		{Name: wizard.FieldTarget, Value: "label"},
		{Name: wizard.FieldFeatures, Value: `["age","income"]`},
		{Name: wizard.FieldModelType, Value: "decision_tree"},
		{Name: wizard.FieldTaskType, Value: "classification"},
		{Name: wizard.FieldSplitRatio, Value: "0.2"},
	}}
	res, err := client.Train(context.Background(), req)
	require.NoError(t, err)

	cls, ok := res.(*training.ClassificationResult)
	require.True(t, ok, "expected classification result, got %T", res)
	assert.Equal(t, 0.9, cls.Accuracy)
	assert.Equal(t, []string{"a", "b", "c"}, cls.Labels)
	assert.Equal(t, 96, cls.TrainSize)
	assert.Equal(t, "Trained decision_tree", cls.ModelDescription)

	forms := fake.TrainForms()
	require.Len(t, forms, 1)
	assert.Equal(t, req.Fields, forms[0])
}

func TestClient_TrainRegression(t *testing.T) {
	client, _ := newClient(t)
	res, err := client.Train(context.Background(), wizard.TrainingRequest{Fields: []wizard.Field{
		{Name: wizard.FieldTaskType, Value: "regression"},
	}})
	require.NoError(t, err)
	reg, ok := res.(*training.RegressionResult)
	require.True(t, ok)
	assert.Equal(t, 0.712, reg.R2)
	assert.Equal(t, training.TaskRegression, reg.Kind())
}

func TestClient_TrainRejected(t *testing.T) {
	client, fake := newClient(t)
	fake.RejectTrain(http.StatusBadRequest, gin.H{"detail": "Classification: target must have at least 2 distinct classes."})

	_, err := client.Train(context.Background(), wizard.TrainingRequest{})
	require.Error(t, err)
	assert.Equal(t, errors.CodeServiceRejected, errors.GetCode(err))
	assert.Equal(t, "Classification: target must have at least 2 distinct classes.", errors.ServiceMessage(err))

	fake.RejectTrain(http.StatusInternalServerError, "oops")
	_, err = client.Train(context.Background(), wizard.TrainingRequest{})
	assert.Contains(t, err.Error(), "HTTP 500", "no detail gives a generic message")
}

func TestClient_Unreachable(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil)
	_, err := client.TargetStats(context.Background(), "label")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConnectivity, errors.GetCode(err))
	assert.Equal(t, errors.KindConnectivity, errors.KindOf(err))
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		kind    training.TaskType
		wantErr bool
	}{
		{"classification", `{"task_type":"classification","accuracy":0.5,"labels":["x"],"confusion_matrix":[[1]]}`, training.TaskClassification, false},
		{"regression", `{"task_type":"regression","r2":-0.25}`, training.TaskRegression, false},
		{"missing discriminator", `{"accuracy":0.5}`, "", true},
		{"empty discriminator", `{"task_type":""}`, "", true},
		{"unknown discriminator", `{"task_type":"clustering"}`, "", true},
		{"not json", `<html>`, "", true},
		{"wrong field type", `{"task_type":"regression","r2":"high"}`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := decodeResult([]byte(tt.body))
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CodeProtocolError, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, res.Kind())
		})
	}

	_, err := decodeResult([]byte(`{"r2":1}`))
	assert.ErrorIs(t, err, core.ErrMissingDiscriminator)
}

func TestDetailMessage(t *testing.T) {
	assert.Equal(t, "bad", detailMessage([]byte(`{"detail":"bad"}`)))
	assert.Equal(t, "field required; value is not a valid float",
		detailMessage([]byte(`{"detail":[{"msg":"field required"},{"msg":"value is not a valid float"}]}`)))
	assert.Empty(t, detailMessage([]byte(`{"error":"x"}`)))
	assert.Empty(t, detailMessage([]byte(`not json`)))
}

func TestDecodeColumnStatistics_RequiresColumns(t *testing.T) {
	_, err := decodeColumnStatistics([]byte(`{"rows":3}`))
	assert.Equal(t, errors.CodeProtocolError, errors.GetCode(err))

	stats, err := decodeColumnStatistics([]byte(`{"columns":["a"],"column_types":{"a":"int64"}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.UniqueCount("a"), "unique counts are optional")
}
