// Package remotemodel talks to the external variety recognition service.
// The caller's context deadline is the only timeout that matters for the
// submission path; the adapter never stretches it.
package remotemodel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/papaclick/papaclick-engine/internal/core/domain"
	"github.com/papaclick/papaclick-engine/internal/infrastructure/resilience"
)

const maxResponseBytes = 1 << 20

type Client struct {
	baseURL    string
	httpClient *http.Client
	exec       *resilience.Executor
}

func New(baseURL string, exec *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		exec:       exec,
	}
}

type predictionResponse struct {
	Variety      string  `json:"variety"`
	Confidence   float64 `json:"confidence"`
	Alternatives []struct {
		Variety    string  `json:"variety"`
		Confidence float64 `json:"confidence"`
	} `json:"predictions"`
	ModelVersion string `json:"model_version"`
}

// Predict posts the image to the model service and maps its answer onto the
// domain prediction. The image is buffered up front so every retry attempt
// re-sends the same bytes.
func (c *Client) Predict(ctx context.Context, image io.Reader) (domain.Prediction, error) {
	payload, err := io.ReadAll(image)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("read image payload: %w", err)
	}
	if len(payload) == 0 {
		return domain.Prediction{}, domain.WrapError(domain.ErrInvalidInput, "predict variety", fmt.Errorf("empty image payload"))
	}

	started := time.Now()
	var response predictionResponse
	err = c.exec.Run(ctx, "predict_variety", func(ctx context.Context) error {
		return c.postImage(ctx, payload, &response)
	}, classifyModelError)
	if err != nil {
		return domain.Prediction{}, wrapTemporaryIfNeeded("predict variety", err)
	}

	prediction := domain.Prediction{
		Variety:    response.Variety,
		Confidence: response.Confidence,
		LatencyMs:  time.Since(started).Milliseconds(),
	}
	for _, alt := range response.Alternatives {
		prediction.Alternatives = append(prediction.Alternatives, domain.AlternativePrediction{
			Variety:    alt.Variety,
			Confidence: alt.Confidence,
		})
	}
	if response.ModelVersion != "" {
		prediction.ModelMetadata = map[string]string{"model_version": response.ModelVersion}
	}
	return prediction, nil
}

func (c *Client) postImage(ctx context.Context, payload []byte, out *predictionResponse) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", "sample.jpg")
	if err != nil {
		return fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return fmt.Errorf("write multipart payload: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/predictions", &body)
	if err != nil {
		return fmt.Errorf("build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read prediction response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &HTTPStatusError{
			Operation:  "predict",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse prediction json: %w", err)
	}
	return nil
}
