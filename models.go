package cerebras

const (
	// DefaultBaseURL is the OpenAI-compatible completion endpoint.
	DefaultBaseURL = "https://api.cerebras.ai/v1"

	// DefaultAuthURL is the GraphQL endpoint that issues demo API keys for
	// an authenticated browser session.
	DefaultAuthURL = "https://chat.cerebras.ai/api/graphql"

	// DefaultOrigin is sent as the Origin/Referer pair on issuance requests
	// so they look like they come from the web playground.
	DefaultOrigin = "https://inference.cerebras.ai"
)

// Model identifiers known to be served by the demo endpoint.
const (
	ModelLlama3_1_8B        = "llama3.1-8b"
	ModelLlama3_3_70B       = "llama-3.3-70b"
	ModelQwen3_32B          = "qwen-3-32b"
	ModelQwen3_235BInstruct = "qwen-3-235b-a22b-instruct-2507"
	ModelQwen3_235BThinking = "qwen-3-235b-a22b-thinking-2507"
	ModelGPTOSS120B         = "gpt-oss-120b"
	ModelGLM4_6             = "zai-glm-4.6"
)

// Models returns the catalog of known model identifiers. The service may
// serve more; an unknown identifier is passed through untouched.
func Models() []string {
	return []string{
		ModelLlama3_1_8B,
		ModelLlama3_3_70B,
		ModelQwen3_32B,
		ModelQwen3_235BInstruct,
		ModelQwen3_235BThinking,
		ModelGPTOSS120B,
		ModelGLM4_6,
	}
}
