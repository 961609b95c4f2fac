// Package gemini wraps the Gemini generateContent API for plain-text answers.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"
)

// DefaultModel は GEMINI_MODEL が未設定の場合に使うモデル
const DefaultModel = "gemini-2.5-flash"

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = time.Second
)

// ErrNotConfigured は API キーが設定されていない場合のエラー
var ErrNotConfigured = errors.New("gemini: api key not configured")

// ErrEmptyResponse はモデルが本文を返さなかった場合のエラー
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client はテキスト生成のインターフェース（テスト時はモックに差し替える）
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type generateFunc func(ctx context.Context, prompt string) (string, error)

// RealClient は genai SDK を使う Client 実装
// 429 を受けた場合は指数バックオフで再試行する
type RealClient struct {
	model       string
	config      *genai.GenerateContentConfig
	maxAttempts int
	baseDelay   time.Duration
	generate    generateFunc
	sleep       func(ctx context.Context, d time.Duration) error
}

// Option は RealClient の設定
type Option func(*RealClient)

// WithMaxAttempts は試行回数の上限を設定する
func WithMaxAttempts(n int) Option {
	return func(c *RealClient) { c.maxAttempts = n }
}

// WithBaseDelay はバックオフの初期待ち時間を設定する
func WithBaseDelay(d time.Duration) Option {
	return func(c *RealClient) { c.baseDelay = d }
}

// NewClient は RealClient を生成する。apiKey が空なら ErrNotConfigured
func NewClient(ctx context.Context, apiKey, model string, opts ...Option) (*RealClient, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	c := newClient(model, opts...)
	c.generate = func(ctx context.Context, prompt string) (string, error) {
		res, err := sdk.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
		if err != nil {
			return "", err
		}
		return res.Text(), nil
	}
	return c, nil
}

func newClient(model string, opts ...Option) *RealClient {
	if model == "" {
		model = DefaultModel
	}
	c := &RealClient{
		model: model,
		config: &genai.GenerateContentConfig{
			Temperature:      genai.Ptr(float32(0.5)),
			TopK:             genai.Ptr(float32(1)),
			TopP:             genai.Ptr(float32(1)),
			MaxOutputTokens:  2048,
			ResponseMIMEType: "text/plain",
		},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the model name requests are sent to.
func (c *RealClient) Model() string { return c.model }

// Generate はプロンプトを送信し、生成されたテキストを返す
func (c *RealClient) Generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		text, err := c.generate(ctx, prompt)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}
		lastErr = err
		if !IsRateLimited(err) || attempt == c.maxAttempts-1 {
			break
		}
		delay := c.baseDelay * time.Duration(1<<attempt)
		slog.Warn("gemini rate limited, retrying", "attempt", attempt+1, "delay", delay.String())
		if err := c.sleep(ctx, delay); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("gemini generate: %w", lastErr)
}

// IsRateLimited は err が HTTP 429 を表すかどうかを返す
func IsRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code == http.StatusTooManyRequests
	}
	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
