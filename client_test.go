package cerebras

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

// newCompletionServer simulates the OpenAI-compatible completion endpoint.
// Requests bearing a key outside validKeys get a 401; valid requests are
// answered from deltas, as a single body or as SSE depending on the
// request's stream flag.
func newCompletionServer(t *testing.T, hits *int32, validKeys map[string]bool, deltas []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}

		key := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !validKeys[key] {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"message": "Wrong API Key",
					"type":    "authentication_error",
					"code":    "wrong_api_key",
				},
			})
			return
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("completion server: bad request body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if req.Stream {
			writeSSE(w, deltas)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion",
			Model:  req.Model,
			Choices: []chatChoice{{
				Message:      chatMessage{Role: "assistant", Content: strings.Join(deltas, "")},
				FinishReason: "stop",
			}},
			Usage: Usage{PromptTokens: 10, CompletionTokens: 15, TotalTokens: 25},
		})
	}))
}

// writeSSE renders deltas as an event stream: one chunk per delta, a
// keep-alive comment in the middle, a usage-only chunk, then [DONE].
func writeSSE(w http.ResponseWriter, deltas []string) {
	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)

	stop := "stop"
	for i, delta := range deltas {
		chunk := chunkResponse{
			ID:     "chatcmpl-test",
			Object: "chat.completion.chunk",
			Choices: []chunkChoice{{
				Delta: chatMessage{Role: "assistant", Content: delta},
			}},
		}
		if i == len(deltas)-1 {
			chunk.Choices[0].FinishReason = &stop
		}
		data, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", data)
		if i == 0 {
			fmt.Fprint(w, ": keep-alive\n\n")
		}
		if flusher != nil {
			flusher.Flush()
		}
	}

	usage, _ := json.Marshal(chunkResponse{Usage: &Usage{TotalTokens: 25}})
	fmt.Fprintf(w, "data: %s\n\n", usage)
	fmt.Fprint(w, "data: [DONE]\n\n")
	if flusher != nil {
		flusher.Flush()
	}
}

const testFixedKey = "csk-fixed-0123456789abcdef"

var testDeltas = []string{"Thermodynamics ", "is the study ", "of heat and work."}

func TestGenerate_Success(t *testing.T) {
	srv := newCompletionServer(t, nil, map[string]bool{testFixedKey: true}, testDeltas)
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL), WithModel(ModelLlama3_3_70B))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	completion, err := client.Generate(context.Background(), "what is Thermodynamics?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := strings.Join(testDeltas, "")
	if completion.Content != want {
		t.Errorf("Content = %q, want %q", completion.Content, want)
	}
	if completion.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", completion.FinishReason)
	}
	if completion.Usage.TotalTokens != 25 {
		t.Errorf("Usage.TotalTokens = %d, want 25", completion.Usage.TotalTokens)
	}
	if completion.Model != ModelLlama3_3_70B {
		t.Errorf("Model = %q, want %q", completion.Model, ModelLlama3_3_70B)
	}
}

func TestGenerate_EmptyPromptMakesNoNetworkCall(t *testing.T) {
	var hits int32
	srv := newCompletionServer(t, &hits, map[string]bool{testFixedKey: true}, testDeltas)
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := client.Generate(context.Background(), prompt)
		if !IsInputError(err) {
			t.Errorf("Generate(%q) error = %v, want *InputError", prompt, err)
		}

		_, err = client.GenerateStream(context.Background(), prompt)
		if !IsInputError(err) {
			t.Errorf("GenerateStream(%q) error = %v, want *InputError", prompt, err)
		}
	}

	if got := atomic.LoadInt32(&hits); got != 0 {
		t.Errorf("completion endpoint hit %d times for invalid prompts, want 0", got)
	}
}

func TestGenerate_RefreshAndRetryOnExpiry(t *testing.T) {
	const freshKey = "csk-fresh-0123456789abcdef"

	var issuanceHits, completionHits int32
	issuance := newIssuanceServer(t, &issuanceHits, issueKey(freshKey))
	defer issuance.Close()
	completion := newCompletionServer(t, &completionHits, map[string]bool{freshKey: true}, testDeltas)
	defer completion.Close()

	client, err := New(testCookies, WithAuthURL(issuance.URL), WithBaseURL(completion.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	// Simulate a previously cached, now expired key.
	client.mu.Lock()
	client.apiKey = "csk-expired-0123456789abcd"
	client.mu.Unlock()

	result, err := client.Generate(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Generate() error = %v, want success after refresh", err)
	}
	if result.Content == "" {
		t.Error("Content is empty after successful retry")
	}

	if got := atomic.LoadInt32(&issuanceHits); got != 1 {
		t.Errorf("observed %d refresh attempts, want exactly 1", got)
	}
	if got := atomic.LoadInt32(&completionHits); got != 2 {
		t.Errorf("completion endpoint hit %d times, want 2 (original + retry)", got)
	}
	if got := client.APIKey(); got != freshKey {
		t.Errorf("APIKey() = %q, want the refreshed key", got)
	}
}

func TestGenerate_PersistentAuthFailure(t *testing.T) {
	var issuanceHits, completionHits int32
	// The issuance endpoint keeps handing out a key the completion endpoint
	// rejects.
	issuance := newIssuanceServer(t, &issuanceHits, issueKey("csk-stillbad-0123456789ab"))
	defer issuance.Close()
	completion := newCompletionServer(t, &completionHits, map[string]bool{}, testDeltas)
	defer completion.Close()

	client, err := New(testCookies, WithAuthURL(issuance.URL), WithBaseURL(completion.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "hello")
	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		t.Fatalf("Generate() error = %v, want *ChatError", err)
	}
	if chatErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("ChatError.StatusCode = %d, want 401", chatErr.StatusCode)
	}

	// Lazy fetch plus the single expiry-triggered refresh.
	if got := atomic.LoadInt32(&issuanceHits); got != 2 {
		t.Errorf("observed %d issuance calls, want 2 (initial fetch + one refresh)", got)
	}
	if got := atomic.LoadInt32(&completionHits); got != 2 {
		t.Errorf("completion endpoint hit %d times, want 2", got)
	}
}

func TestGenerate_RefreshBudgetConfigurable(t *testing.T) {
	var issuanceHits, completionHits int32
	issuance := newIssuanceServer(t, &issuanceHits, issueKey("csk-stillbad-0123456789ab"))
	defer issuance.Close()
	completion := newCompletionServer(t, &completionHits, map[string]bool{}, testDeltas)
	defer completion.Close()

	client, err := New(testCookies,
		WithAuthURL(issuance.URL),
		WithBaseURL(completion.URL),
		WithMaxRefreshRetries(3),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "hello")
	if !IsChatError(err) {
		t.Fatalf("Generate() error = %v, want *ChatError", err)
	}

	if got := atomic.LoadInt32(&issuanceHits); got != 4 {
		t.Errorf("observed %d issuance calls, want 4 (initial fetch + 3 refreshes)", got)
	}
	if got := atomic.LoadInt32(&completionHits); got != 4 {
		t.Errorf("completion endpoint hit %d times, want 4", got)
	}
}

func TestGenerate_FixedKeyClientNeverRefreshes(t *testing.T) {
	var completionHits int32
	completion := newCompletionServer(t, &completionHits, map[string]bool{}, testDeltas)
	defer completion.Close()

	client, err := New(testFixedKey, WithBaseURL(completion.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "hello")
	if !IsChatError(err) {
		t.Fatalf("Generate() error = %v, want *ChatError", err)
	}
	if got := atomic.LoadInt32(&completionHits); got != 1 {
		t.Errorf("completion endpoint hit %d times, want 1 (no retry without cookies)", got)
	}
}

func TestGenerate_APIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limit exceeded","type":"too_many_requests"}}`))
	}))
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "hello")
	var chatErr *ChatError
	if !errors.As(err, &chatErr) {
		t.Fatalf("Generate() error = %v, want *ChatError", err)
	}
	if chatErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d, want 429", chatErr.StatusCode)
	}
	if !strings.Contains(chatErr.Message, "rate limit exceeded") {
		t.Errorf("Message = %q, want the provider's message", chatErr.Message)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-test","choices":[]}`))
	}))
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = client.Generate(context.Background(), "hello")
	if !IsChatError(err) {
		t.Errorf("Generate() error = %v, want *ChatError for empty choices", err)
	}
}

func TestGenerate_IndependentCalls(t *testing.T) {
	srv := newCompletionServer(t, nil, map[string]bool{testFixedKey: true}, testDeltas)
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	first, err := client.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatalf("first Generate() error = %v", err)
	}
	second, err := client.Generate(context.Background(), "same prompt")
	if err != nil {
		t.Fatalf("second Generate() error = %v", err)
	}

	if first.Content != second.Content {
		t.Errorf("independent calls disagree: %q vs %q", first.Content, second.Content)
	}
	if first == second {
		t.Error("calls returned the same Completion pointer, buffers are shared")
	}
}

func TestStreamingAndBlockingEquivalence(t *testing.T) {
	srv := newCompletionServer(t, nil, map[string]bool{testFixedKey: true}, testDeltas)
	defer srv.Close()

	client, err := New(testFixedKey, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	blocking, err := client.Generate(context.Background(), "what is Thermodynamics?")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	stream, err := client.GenerateStream(context.Background(), "what is Thermodynamics?")
	if err != nil {
		t.Fatalf("GenerateStream() error = %v", err)
	}
	defer stream.Close()

	streamed, err := stream.Text()
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}

	if streamed != blocking.Content {
		t.Errorf("streamed %q != blocking %q", streamed, blocking.Content)
	}
}
