// Package captioner generates image captions with an OpenAI compatible
// chat completions API.
package captioner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/andreyxaxa/Image-Captioner/internal/infrastructure"
	oagc "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"golang.org/x/time/rate"
)

const (
	_defaultModel     = oagc.ChatModelGPT4oMini
	_defaultPrompt    = "Write one short sentence describing this image for a photo gallery caption."
	_defaultMaxTokens = 60
	_defaultRate      = 20
)

var ErrEmptyCaption = errors.New("model returned an empty caption")

type OpenAI struct {
	oac *oagc.Client
	rl  *rate.Limiter

	model     string
	prompt    string
	maxTokens int64
}

var _ infrastructure.CaptionGenerator = (*OpenAI)(nil)

type Config struct {
	APIKey        string
	BaseURL       string // empty means api.openai.com
	Model         string
	Prompt        string
	MaxTokens     int
	RatePerMinute int
	HTTPClient    *http.Client // if nil uses http.DefaultClient
}

func New(cfg Config) *OpenAI {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	opts := []option.RequestOption{
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0), // retries belong to the trigger
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	o := &OpenAI{
		oac:       oagc.NewClient(opts...),
		model:     cfg.Model,
		prompt:    cfg.Prompt,
		maxTokens: int64(cfg.MaxTokens),
	}
	if o.model == "" {
		o.model = _defaultModel
	}
	if o.prompt == "" {
		o.prompt = _defaultPrompt
	}
	if o.maxTokens <= 0 {
		o.maxTokens = _defaultMaxTokens
	}

	o.rl = newLimiter(cfg.RatePerMinute)

	return o
}

// newLimiter allows perMinute calls a minute, spread evenly, with bursts of
// up to perMinute.
func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		perMinute = _defaultRate
	}

	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
}

func (o *OpenAI) GenerateCaption(ctx context.Context, image []byte, contentType string) (string, error) {
	// Rate limit use of the API
	if err := o.rl.Wait(ctx); err != nil {
		return "", fmt.Errorf("OpenAI - GenerateCaption - o.rl.Wait: %w", err)
	}

	params := oagc.ChatCompletionNewParams{
		Model: oagc.F(oagc.ChatModel(o.model)),
		Messages: oagc.F([]oagc.ChatCompletionMessageParamUnion{
			oagc.UserMessageParts(
				oagc.TextPart(o.prompt),
				oagc.ImagePart(dataURL(image, contentType)),
			),
		}),
		MaxCompletionTokens: oagc.Int(o.maxTokens),
	}

	resp, err := o.oac.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("OpenAI - GenerateCaption - o.oac.Chat.Completions.New: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("OpenAI - GenerateCaption: %w", ErrEmptyCaption)
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return "", fmt.Errorf("OpenAI - GenerateCaption: %w", ErrEmptyCaption)
	}

	return caption, nil
}

func dataURL(image []byte, contentType string) string {
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(image)
}
