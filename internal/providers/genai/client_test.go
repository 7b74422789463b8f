package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentstudio/internal/domain"
	"contentstudio/internal/infra/credentials"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(Options{
		Credentials: credentials.NewMemoryStore("test-key"),
		BaseURL:     baseURL,
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func textResponse(text string) string {
	raw, _ := json.Marshal(geminiGenerateContentResponse{
		Candidates: []geminiCandidate{{Content: geminiContent{Parts: []geminiPart{{Text: text}}}}},
	})
	return string(raw)
}

func TestGenerateTextSendsKeyHeader(t *testing.T) {
	var gotKey, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		fmt.Fprint(w, textResponse("hello"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	text, err := client.GenerateText(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}})
	if err != nil {
		t.Fatalf("GenerateText returned error: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q, want %q", text, "hello")
	}
	if gotKey != "test-key" {
		t.Fatalf("x-goog-api-key = %q, want %q", gotKey, "test-key")
	}
	if want := "/models/gemini-2.5-flash:generateContent"; gotPath != want {
		t.Fatalf("path = %q, want %q", gotPath, want)
	}
}

func TestGenerateTextMissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("request reached server without a configured key")
	}))
	defer srv.Close()

	client, err := NewClient(Options{Credentials: credentials.NewMemoryStore(""), BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.GenerateText(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}}); !errors.Is(err, domain.ErrCredentialMissing) {
		t.Fatalf("error = %v, want ErrCredentialMissing", err)
	}
}

func TestGenerateTextAPIErrorIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"status":"RESOURCE_EXHAUSTED","message":"quota exceeded"}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.GenerateText(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}})
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error %q does not carry the API message", err)
	}
}

func TestGenerateJSONDecodesDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiGenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.GenerationConfig == nil || req.GenerationConfig.ResponseMimeType != "application/json" {
			t.Errorf("JSON call did not request application/json output")
		}
		fmt.Fprint(w, textResponse("```json\n{\"name\":\"ok\"}\n```"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	var out struct {
		Name string `json:"name"`
	}
	schema := json.RawMessage(`{"type":"OBJECT","properties":{"name":{"type":"STRING"}}}`)
	if err := client.GenerateJSON(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}, ResponseSchema: schema}, &out); err != nil {
		t.Fatalf("GenerateJSON returned error: %v", err)
	}
	if out.Name != "ok" {
		t.Fatalf("decoded name = %q, want %q", out.Name, "ok")
	}
}

func TestGenerateJSONMalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, textResponse("this is not json"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	var out map[string]any
	schema := json.RawMessage(`{"type":"OBJECT"}`)
	err := client.GenerateJSON(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}, ResponseSchema: schema}, &out)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestGenerateStreamDeliversChunksInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.RawQuery, "alt=sse") {
			t.Errorf("stream call missing alt=sse, query = %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprintf(w, "data: %s\n\n", textResponse("first "))
		fmt.Fprintf(w, "data: %s\n\n", textResponse("second"))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	var got []string
	err := client.GenerateStream(context.Background(), GenerateRequest{Parts: []Part{TextPart("hi")}}, func(chunk string) {
		got = append(got, chunk)
	})
	if err != nil {
		t.Fatalf("GenerateStream returned error: %v", err)
	}
	if len(got) != 2 || got[0] != "first " || got[1] != "second" {
		t.Fatalf("chunks = %q, want [%q %q]", got, "first ", "second")
	}
}

func TestGenerateImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want := "/models/imagen-3.0-generate-002:predict"; r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		encoded := base64.StdEncoding.EncodeToString([]byte("png-bytes"))
		fmt.Fprintf(w, `{"predictions":[{"bytesBase64Encoded":%q,"mimeType":"image/png"}]}`, encoded)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	data, mime, err := client.GenerateImage(context.Background(), "a red door", "16:9")
	if err != nil {
		t.Fatalf("GenerateImage returned error: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("image bytes = %q", data)
	}
	if mime != "image/png" {
		t.Fatalf("mime = %q, want image/png", mime)
	}
}

func TestGenerateImageEmptyPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"predictions":[]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, _, err := client.GenerateImage(context.Background(), "prompt", ""); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("error = %v, want ErrMalformedResponse", err)
	}
}

func TestVideoJobLifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			var req veoStartRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode start request: %v", err)
			}
			if len(req.Instances) != 1 || req.Instances[0].Image == nil {
				t.Errorf("start request missing seed image instance")
			}
			fmt.Fprint(w, `{"name":"operations/abc123"}`)
		case r.URL.Path == "/operations/abc123" && r.Method == http.MethodGet:
			fmt.Fprint(w, `{"name":"operations/abc123","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"/files/video-1"}}]}}}`)
		case r.URL.Path == "/files/video-1":
			if r.URL.Query().Get("key") != "test-key" {
				t.Errorf("artifact download missing key query param")
			}
			fmt.Fprint(w, "mp4-payload")
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx := context.Background()

	op, err := client.StartVideoJob(ctx, "a storm over the sea", []byte("seed"), "image/png")
	if err != nil {
		t.Fatalf("StartVideoJob returned error: %v", err)
	}
	if op != "operations/abc123" {
		t.Fatalf("operation = %q, want %q", op, "operations/abc123")
	}

	status, err := client.CheckVideoJob(ctx, op)
	if err != nil {
		t.Fatalf("CheckVideoJob returned error: %v", err)
	}
	if !status.Done || status.ResultURI != "/files/video-1" {
		t.Fatalf("status = %+v, want done with result uri", status)
	}

	payload, err := client.FetchArtifact(ctx, status.ResultURI)
	if err != nil {
		t.Fatalf("FetchArtifact returned error: %v", err)
	}
	if string(payload) != "mp4-payload" {
		t.Fatalf("payload = %q, want %q", payload, "mp4-payload")
	}
}

func TestCheckVideoJobReadsGeneratedVideosShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"operations/x","done":true,"response":{"generatedVideos":[{"video":{"uri":"https://cdn.example.test/v.mp4"}}]}}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	status, err := client.CheckVideoJob(context.Background(), "operations/x")
	if err != nil {
		t.Fatalf("CheckVideoJob returned error: %v", err)
	}
	if status.ResultURI != "https://cdn.example.test/v.mp4" {
		t.Fatalf("result uri = %q", status.ResultURI)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Fatalf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
