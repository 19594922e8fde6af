package cerebras

// Wire types for the OpenAI-compatible completion endpoint. Only the fields
// the client sends or reads are modeled.

// chatRequest is the body of a completion request.
type chatRequest struct {
	// Model specifies which model to use (see Models).
	Model string `json:"model"`

	// Messages contains the system prompt followed by the user prompt.
	Messages []chatMessage `json:"messages"`

	// Stream enables server-sent events for streaming.
	Stream bool `json:"stream"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature"`

	// TopP is the nucleus sampling parameter.
	TopP float64 `json:"top_p"`

	// MaxCompletionTokens limits the response length.
	MaxCompletionTokens int `json:"max_completion_tokens"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	// Role is one of: "system", "user", "assistant".
	Role string `json:"role"`

	// Content is the message text content.
	Content string `json:"content"`
}

// chatResponse is a non-streaming completion response.
type chatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

// chatChoice is a single completion choice.
type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// chunkResponse is one server-sent event of a streaming response.
type chunkResponse struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
	// Usage is only present on the final chunk.
	Usage *Usage `json:"usage"`
}

// chunkChoice carries the incremental delta of a streaming choice.
type chunkChoice struct {
	Index        int         `json:"index"`
	Delta        chatMessage `json:"delta"`
	FinishReason *string     `json:"finish_reason"`
}

// apiErrorResponse is the error envelope of the completion endpoint.
type apiErrorResponse struct {
	Error apiErrorDetail `json:"error"`
}

// apiErrorDetail contains the error details.
type apiErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Usage contains token usage statistics as reported by the provider.
type Usage struct {
	// PromptTokens is the number of tokens in the prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the sum of prompt and completion tokens.
	TotalTokens int `json:"total_tokens"`
}

// Completion is the result of a non-streaming Generate call.
type Completion struct {
	// ID is the provider-assigned identifier for this completion.
	ID string

	// Model is the model that produced the completion.
	Model string

	// Content is the full generated text.
	Content string

	// FinishReason indicates why the model stopped generating
	// ("stop", "length", "content_filter").
	FinishReason string

	// Usage contains token usage statistics.
	Usage Usage
}

// Chunk is one element of a streaming response: the incremental text delta
// plus the finish reason when the final delta carries one.
type Chunk struct {
	// Content is the text delta. May be empty on the terminating chunk.
	Content string

	// FinishReason is non-empty on the last content-bearing chunk.
	FinishReason string
}
