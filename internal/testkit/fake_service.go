package testkit

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"pipewiz/domain/dataset"
	"pipewiz/domain/wizard"
)

// FakeService is an in-process stand-in for the training service. It serves
// the four endpoints from fixtures and records every train form it receives.
type FakeService struct {
	mu sync.Mutex

	Stats       *dataset.ColumnStatistics
	TargetStats map[string]*dataset.TargetColumnStats
	// URLStatus maps a URL to the HTTP status the probe reports; missing URLs
	// are unreachable with a null status.
	URLStatus map[string]int
	// TargetStatsDelay holds back the target_stats response per column.
	TargetStatsDelay map[string]time.Duration

	ClassificationResult gin.H
	RegressionResult     gin.H

	rejectStatus int
	rejectBody   interface{}

	trainForms [][]wizard.Field
	uploads    []string

	server *httptest.Server
}

// NewFakeService returns a fake preloaded with the age/income/label dataset.
func NewFakeService() *FakeService {
	return &FakeService{
		Stats: &dataset.ColumnStatistics{
			Rows:         120,
			Columns:      []string{"age", "income", "label"},
			ColumnTypes:  map[string]string{"age": "int64", "income": "float64", "label": "object"},
			UniqueCounts: map[string]int{"age": 40, "income": 118, "label": 3},
		},
		TargetStats: map[string]*dataset.TargetColumnStats{
			"label": {
				ColumnName: "label", DType: "object", UniqueCount: 3,
				TopValues: []dataset.TopValue{{Value: "a", Count: 50}, {Value: "b", Count: 40}, {Value: "c", Count: 30}},
			},
		},
		URLStatus:        map[string]int{},
		TargetStatsDelay: map[string]time.Duration{},
		ClassificationResult: gin.H{
			"task_type":        "classification",
			"accuracy":         0.9,
			"precision":        0.91,
			"recall":           0.9,
			"f1":               0.9,
			"labels":           []string{"a", "b", "c"},
			"confusion_matrix": [][]int{{9, 1, 0}, {0, 8, 0}, {0, 1, 5}},
			"too_many_classes": false,
			"train_size":       96,
			"test_size":        24,
			"split_ratio":      0.2,
			"preprocessing":    gin.H{"standardize": []string{}, "normalize": []string{}},
			"details":          "Trained decision_tree",
		},
		RegressionResult: gin.H{
			"task_type":     "regression",
			"r2":            0.712,
			"mae":           1.5,
			"rmse":          2.0,
			"mse":           4.0,
			"train_size":    96,
			"test_size":     24,
			"split_ratio":   0.2,
			"preprocessing": gin.H{"standardize": []string{}, "normalize": []string{}},
			"details":       "Trained random_forest",
		},
	}
}

// Start serves the fake on a local listener and returns its base URL.
func (f *FakeService) Start() string {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/upload", f.handleUpload)
	router.GET("/target_stats", f.handleTargetStats)
	router.POST("/check_urls", f.handleCheckURLs)
	router.POST("/train", f.handleTrain)
	f.server = httptest.NewServer(router)
	return f.server.URL
}

// Close stops the listener.
func (f *FakeService) Close() {
	if f.server != nil {
		f.server.Close()
	}
}

// RejectTrain makes every following train call fail with status and body.
func (f *FakeService) RejectTrain(status int, body interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejectStatus = status
	f.rejectBody = body
}

// TrainForms returns the recorded train forms, fields in wire order.
func (f *FakeService) TrainForms() [][]wizard.Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]wizard.Field(nil), f.trainForms...)
}

// Uploads returns the recorded upload filenames.
func (f *FakeService) Uploads() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.uploads...)
}

func (f *FakeService) handleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": []gin.H{{"loc": []string{"body", "file"}, "msg": "field required"}}})
		return
	}
	f.mu.Lock()
	f.uploads = append(f.uploads, file.Filename)
	stats := f.Stats
	f.mu.Unlock()
	c.JSON(http.StatusOK, stats)
}

func (f *FakeService) handleTargetStats(c *gin.Context) {
	col := c.Query("col")
	f.mu.Lock()
	ts, ok := f.TargetStats[col]
	delay := f.TargetStatsDelay[col]
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Column '" + col + "' not found in dataset"})
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (f *FakeService) handleCheckURLs(c *gin.Context) {
	var urls []string
	if err := c.ShouldBindJSON(&urls); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	results := make([]gin.H, 0, len(urls))
	reachable := 0
	for _, u := range urls {
		status, known := f.URLStatus[u]
		ok := known && status >= 200 && status < 400
		if ok {
			reachable++
		}
		var s interface{}
		if known {
			s = status
		}
		results = append(results, gin.H{"url": u, "ok": ok, "status": s})
	}
	c.JSON(http.StatusOK, gin.H{"checked": len(results), "reachable": reachable, "results": results})
}

func (f *FakeService) handleTrain(c *gin.Context) {
	mr, err := c.Request.MultipartReader()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "expected multipart form"})
		return
	}
	var fields []wizard.Field
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
			return
		}
		value, _ := io.ReadAll(part)
		fields = append(fields, wizard.Field{Name: part.FormName(), Value: string(value)})
	}

	f.mu.Lock()
	f.trainForms = append(f.trainForms, fields)
	rejectStatus, rejectBody := f.rejectStatus, f.rejectBody
	cls, reg := f.ClassificationResult, f.RegressionResult
	f.mu.Unlock()

	if rejectStatus != 0 {
		c.JSON(rejectStatus, rejectBody)
		return
	}

	req := wizard.TrainingRequest{Fields: fields}
	task, _ := req.Get(wizard.FieldTaskType)
	switch task {
	case "classification":
		c.JSON(http.StatusOK, cls)
	case "regression":
		c.JSON(http.StatusOK, reg)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Unknown task_type. Choose 'auto', 'classification', or 'regression'."})
	}
}
