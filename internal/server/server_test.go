package server

import (
	"context"
	"encoding/json"
	"image"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/aksharpad/internal/classify"
	"github.com/san-kum/aksharpad/internal/predict"
	"github.com/san-kum/aksharpad/internal/surface"
)

func testModel() *classify.TemplateModel {
	const size = 32
	ink := make([]float32, size*size)
	for i := range ink {
		ink[i] = 1
	}
	return &classify.TemplateModel{
		Names:     []string{"blank", "ink", "half"},
		Size:      size,
		Templates: [][]float32{make([]float32, size*size), ink, halfTemplate(size)},
	}
}

func halfTemplate(size int) []float32 {
	t := make([]float32, size*size)
	for i := 0; i < size*size/2; i++ {
		t[i] = 1
	}
	return t
}

func blankDataURL(t *testing.T) string {
	t.Helper()
	url, err := surface.New(280, 280).DataURL()
	require.NoError(t, err)
	return url
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, predict.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp predict.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestPredictBlankCanvas(t *testing.T) {
	s := New(testModel(), Config{}, nil)
	body, err := json.Marshal(predict.Request{Image: blankDataURL(t)})
	require.NoError(t, err)

	rec, resp := post(t, s.Handler(), string(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	assert.Equal(t, "blank", resp.Prediction)
	assert.True(t, strings.HasSuffix(resp.Confidence.String(), "%"), resp.Confidence)
	require.Len(t, resp.Top, TopN)
	assert.Equal(t, "blank", resp.Top[0].Label)
	assert.Equal(t, "half", resp.Top[1].Label)

	text, err := resp.Text()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "Result: blank (Confidence: "), text)
}

func TestPredictInkedCanvas(t *testing.T) {
	s := New(testModel(), Config{}, nil)

	pad := surface.New(280, 280, surface.WithRadius(400))
	pad.Begin()
	pad.Paint(140, 140)
	pad.End()
	url, err := pad.DataURL()
	require.NoError(t, err)

	body, _ := json.Marshal(predict.Request{Image: url})
	rec, resp := post(t, s.Handler(), string(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ink", resp.Prediction)
}

func TestPredictErrors(t *testing.T) {
	tests := []struct {
		name   string
		model  classify.Model
		body   string
		status int
		msg    string
	}{
		{"no model", nil, `{"image":"data:image/png;base64,AAAA"}`, http.StatusInternalServerError, "Model not loaded"},
		{"empty body", testModel(), ``, http.StatusBadRequest, "No image received"},
		{"missing image", testModel(), `{"picture":"x"}`, http.StatusBadRequest, "No image received"},
		{"not json", testModel(), `image=abc`, http.StatusBadRequest, "No image received"},
		{"bad data url", testModel(), `{"image":"data:image/png;base64,%%%"}`, http.StatusBadRequest, "Invalid image"},
		{"not an image", testModel(), `{"image":"data:image/png;base64,aGVsbG8="}`, http.StatusBadRequest, "Invalid image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(tt.model, Config{}, nil)
			rec, resp := post(t, s.Handler(), tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, resp.Error)

			text, err := resp.Text()
			require.NoError(t, err)
			assert.Equal(t, "Error: "+tt.msg, text)
		})
	}
}

func TestPredictRejectsOversizedImage(t *testing.T) {
	url, err := surface.DataURL(image.NewGray(image.Rect(0, 0, 300, 1)))
	require.NoError(t, err)

	s := New(testModel(), Config{MaxInflight: 1, MaxSide: 280}, nil)
	rec, resp := post(t, s.Handler(), `{"image":"`+url+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid image", resp.Error)

	// The rejection gives its slot back.
	rec, resp = post(t, s.Handler(), `{"image":"`+blankDataURL(t)+`"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "blank", resp.Prediction)
}

func TestDefaultMaxSide(t *testing.T) {
	url, err := surface.DataURL(image.NewGray(image.Rect(0, 0, DefaultMaxSide+1, 1)))
	require.NoError(t, err)

	s := New(testModel(), Config{}, nil)
	rec, _ := post(t, s.Handler(), `{"image":"`+url+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPredictMethodNotAllowed(t *testing.T) {
	s := New(testModel(), Config{}, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/predict", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	New(testModel(), Config{}, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","classes":3}`, rec.Body.String())

	rec = httptest.NewRecorder()
	New(nil, Config{}, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.JSONEq(t, `{"status":"no model","classes":0}`, rec.Body.String())
}

func TestClientAgainstServer(t *testing.T) {
	ts := httptest.NewServer(New(testModel(), Config{}, nil).Handler())
	defer ts.Close()

	c := predict.NewClient(ts.URL + "/predict")
	resp, err := c.PredictImage(context.Background(), surface.New(100, 100).Snapshot())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "blank", resp.Prediction)

	noModel := httptest.NewServer(New(nil, Config{}, nil).Handler())
	defer noModel.Close()
	resp, err = predict.NewClient(noModel.URL + "/predict").Predict(context.Background(), blankDataURL(t))
	require.NoError(t, err)
	text, err := resp.Text()
	require.NoError(t, err)
	assert.Equal(t, "Error: Model not loaded", text)
	assert.Equal(t, http.StatusInternalServerError, resp.Status)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(testModel(), Config{}, nil).Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/healthz"
	require.Eventually(t, func() bool {
		res, err := http.Get(url)
		if err != nil {
			return false
		}
		res.Body.Close()
		return res.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
