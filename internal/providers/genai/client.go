package genai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra"
	"contentstudio/internal/infra/credentials"
)

// Options controls how the Gemini client is configured.
type Options struct {
	Credentials credentials.Store
	BaseURL     string
	TextModel   string
	ImageModel  string
	VideoModel  string
	HTTPClient  *http.Client
	Logger      *infra.Logger

	// Per-call deadlines. Status checks are short; generation and artifact
	// fetches are allowed to run much longer.
	StatusCheckTimeout time.Duration
	GenerateTimeout    time.Duration
	FetchTimeout       time.Duration
}

// Client is a facade over the Gemini REST API so that providers can focus on
// translating domain requests to API calls. The API key is read from the
// injected credential store once per call; a missing key surfaces as
// domain.ErrCredentialMissing rather than a transport failure.
type Client struct {
	creds      credentials.Store
	baseURL    string
	textModel  string
	imageModel string
	videoModel string
	httpClient *http.Client
	logger     *infra.Logger

	statusTimeout   time.Duration
	generateTimeout time.Duration
	fetchTimeout    time.Duration
}

// Part is one piece of multimodal request content.
type Part struct {
	Text       string
	InlineData []byte
	MimeType   string
}

// TextPart builds a text-only part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part.
func ImagePart(data []byte, mimeType string) Part {
	return Part{InlineData: data, MimeType: mimeType}
}

// GenerateRequest describes one synchronous or streaming generation call.
type GenerateRequest struct {
	Model             string
	Parts             []Part
	SystemInstruction string
	// ResponseSchema switches the call to JSON mode when non-nil; the
	// returned text is then a document conforming to the schema.
	ResponseSchema json.RawMessage
	Temperature    float64
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents          []geminiContent         `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Status  string `json:"status,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one without its own timeout is
// created since every call carries a context deadline.
func NewClient(opts Options) (*Client, error) {
	if opts.Credentials == nil {
		return nil, fmt.Errorf("credential store is required")
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	textModel := opts.TextModel
	if textModel == "" {
		textModel = "gemini-2.5-flash"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "imagen-3.0-generate-002"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-2.0-generate-001"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	statusTimeout := opts.StatusCheckTimeout
	if statusTimeout <= 0 {
		statusTimeout = 15 * time.Second
	}
	generateTimeout := opts.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = 2 * time.Minute
	}
	fetchTimeout := opts.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = 5 * time.Minute
	}

	return &Client{
		creds:           opts.Credentials,
		baseURL:         baseURL,
		textModel:       textModel,
		imageModel:      imageModel,
		videoModel:      videoModel,
		httpClient:      client,
		logger:          logger,
		statusTimeout:   statusTimeout,
		generateTimeout: generateTimeout,
		fetchTimeout:    fetchTimeout,
	}, nil
}

// TextModel returns the configured default text model identifier.
func (c *Client) TextModel() string {
	return c.textModel
}

// GenerateText performs a synchronous generation call and returns the model's
// text output. An empty response is reported as domain.ErrMalformedResponse.
func (c *Client) GenerateText(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload, err := c.buildGeneratePayload(req)
	if err != nil {
		return "", err
	}

	model := req.Model
	if model == "" {
		model = c.textModel
	}

	var response geminiGenerateContentResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(model)), payload, &response); err != nil {
		return "", err
	}

	text := extractText(response)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: empty text", domain.ErrMalformedResponse)
	}
	return text, nil
}

// GenerateJSON performs a schema-constrained generation call and decodes the
// returned document into out. Parse failures surface as
// domain.ErrMalformedResponse so callers can distinguish them from transport
// problems.
func (c *Client) GenerateJSON(ctx context.Context, req GenerateRequest, out any) error {
	if len(req.ResponseSchema) == 0 {
		return fmt.Errorf("%w: response schema is required for JSON generation", domain.ErrInvalidInput)
	}
	text, err := c.GenerateText(ctx, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripCodeFences(text)), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

// GenerateStream performs a streaming generation call, delivering each text
// chunk to onChunk in arrival order. The stream is single-pass and ends when
// the API closes it or ctx is cancelled.
func (c *Client) GenerateStream(ctx context.Context, req GenerateRequest, onChunk func(string)) error {
	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload, err := c.buildGeneratePayload(req)
	if err != nil {
		return err
	}

	model := req.Model
	if model == "" {
		model = c.textModel
	}

	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/models/%s:streamGenerateContent?alt=sse", url.PathEscape(model)), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		var chunk geminiGenerateContentResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("%w: stream chunk: %v", domain.ErrMalformedResponse, err)
		}
		if text := extractText(chunk); text != "" {
			onChunk(text)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%w: read stream: %v", domain.ErrTransport, err)
	}
	return nil
}

type imagenPredictRequest struct {
	Instances  []imagenInstance `json:"instances"`
	Parameters imagenParameters `json:"parameters"`
}

type imagenInstance struct {
	Prompt string `json:"prompt"`
}

type imagenParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type imagenPredictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage renders a single image for the prompt and returns the raw
// bytes along with the reported mime type.
func (c *Client) GenerateImage(ctx context.Context, prompt, aspectRatio string) ([]byte, string, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	payload := imagenPredictRequest{
		Instances:  []imagenInstance{{Prompt: prompt}},
		Parameters: imagenParameters{SampleCount: 1, AspectRatio: aspectRatio},
	}

	var response imagenPredictResponse
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predict", url.PathEscape(c.imageModel)), payload, &response); err != nil {
		return nil, "", err
	}
	if len(response.Predictions) == 0 || response.Predictions[0].BytesBase64Encoded == "" {
		return nil, "", fmt.Errorf("%w: no image returned", domain.ErrMalformedResponse)
	}
	data, err := base64.StdEncoding.DecodeString(response.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, "", fmt.Errorf("%w: decode image: %v", domain.ErrMalformedResponse, err)
	}
	mime := response.Predictions[0].MimeType
	if mime == "" {
		mime = "image/png"
	}
	return data, mime, nil
}

type veoStartRequest struct {
	Instances []veoInstance `json:"instances"`
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoOperation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []veoSample `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		GeneratedVideos []veoSample `json:"generatedVideos"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type veoSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

func (op veoOperation) resultURI() string {
	if op.Response == nil {
		return ""
	}
	if gvr := op.Response.GenerateVideoResponse; gvr != nil && len(gvr.GeneratedSamples) > 0 {
		return gvr.GeneratedSamples[0].Video.URI
	}
	if len(op.Response.GeneratedVideos) > 0 {
		return op.Response.GeneratedVideos[0].Video.URI
	}
	return ""
}

// StartVideoJob submits a long-running video generation request and returns
// the opaque operation name used for subsequent status checks.
func (c *Client) StartVideoJob(ctx context.Context, prompt string, seedImage []byte, mimeType string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.generateTimeout)
	defer cancel()

	instance := veoInstance{Prompt: prompt}
	if len(seedImage) > 0 {
		if mimeType == "" {
			mimeType = "image/png"
		}
		instance.Image = &veoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(seedImage),
			MimeType:           mimeType,
		}
	}

	var op veoOperation
	if err := c.invoke(ctx, http.MethodPost, fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(c.videoModel)), veoStartRequest{Instances: []veoInstance{instance}}, &op); err != nil {
		return "", err
	}
	if op.Name == "" {
		return "", fmt.Errorf("%w: operation name missing", domain.ErrMalformedResponse)
	}
	return op.Name, nil
}

// CheckVideoJob is a pure status query for a previously submitted operation;
// it never mutates local state.
func (c *Client) CheckVideoJob(ctx context.Context, operationName string) (domain.JobStatus, error) {
	if strings.TrimSpace(operationName) == "" {
		return domain.JobStatus{}, fmt.Errorf("%w: operation name is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
	defer cancel()

	var op veoOperation
	if err := c.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(operationName, "/"), nil, &op); err != nil {
		return domain.JobStatus{}, err
	}

	status := domain.JobStatus{Done: op.Done, ResultURI: op.resultURI()}
	if op.Error != nil {
		status.ErrorDetail = op.Error.Message
	}
	return status, nil
}

// FetchArtifact downloads the binary payload addressed by uri, appending the
// API key when the target is the Gemini file endpoint.
func (c *Client) FetchArtifact(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", key)
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: download artifact: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: download status %d: %s", domain.ErrTransport, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read artifact: %v", domain.ErrTransport, err)
	}
	return blob, nil
}

func (c *Client) buildGeneratePayload(req GenerateRequest) (geminiGenerateContentRequest, error) {
	if len(req.Parts) == 0 {
		return geminiGenerateContentRequest{}, fmt.Errorf("%w: request content is required", domain.ErrInvalidInput)
	}

	parts := make([]geminiPart, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch {
		case len(part.InlineData) > 0:
			mime := part.MimeType
			if mime == "" {
				mime = "image/png"
			}
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MimeType: mime,
				Data:     base64.StdEncoding.EncodeToString(part.InlineData),
			}})
		case part.Text != "":
			parts = append(parts, geminiPart{Text: part.Text})
		}
	}
	if len(parts) == 0 {
		return geminiGenerateContentRequest{}, fmt.Errorf("%w: request content is empty", domain.ErrInvalidInput)
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{Role: "user", Parts: parts}},
	}
	if req.SystemInstruction != "" {
		payload.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: req.SystemInstruction}}}
	}
	cfg := &geminiGenerationConfig{Temperature: req.Temperature}
	if len(req.ResponseSchema) > 0 {
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseSchema = req.ResponseSchema
	}
	if cfg.Temperature != 0 || cfg.ResponseMimeType != "" {
		payload.GenerationConfig = cfg
	}
	return payload, nil
}

func (c *Client) invoke(ctx context.Context, method, path string, payload, out any) error {
	resp, err := c.do(ctx, method, path, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrMalformedResponse, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any) (*http.Response, error) {
	key, err := c.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		var apiErr geminiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("%w: status %d: %s", domain.ErrTransport, resp.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("%w: status %d", domain.ErrTransport, resp.StatusCode)
	}
	return resp, nil
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	key, err := c.creds.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}
	if strings.TrimSpace(key) == "" {
		return "", domain.ErrCredentialMissing
	}
	return key, nil
}

func extractText(resp geminiGenerateContentResponse) string {
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		for _, part := range candidate.Content.Parts {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// Some models wrap JSON-mode output in markdown fences despite the response
// mime type; strip them before unmarshalling.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
