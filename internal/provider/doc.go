// Package provider abstracts the LLM backends a conversation thread can be
// completed against.
//
// # Core components
//
//   - Provider: the interface every backend implements
//   - Registry: a mutex-guarded map of configured providers, keyed by id
//   - CompletionRequest/CompletionStream: the unified streaming completion
//     contract every provider satisfies
//
// # Supported providers
//
// Anthropic and OpenAI talk to their respective hosted chat APIs directly
// over net/http, decoding each vendor's Server-Sent-Events stream format by
// hand rather than pulling in a client SDK. ARK reuses the OpenAI adapter
// against Volcengine's OpenAI-compatible endpoint. Native and Fallback are
// local backends: Native sizes itself from internal/hardware and emits a
// tokenized echo in place of a real decoder (no Go llama.cpp/GGUF binding
// exists in this codebase's dependency set), and Fallback emits one fixed
// notice chunk so a conversation is never left without a reply when nothing
// else is configured.
//
// # Registry usage
//
//	registry, err := InitializeProviders(ctx, cfg)
//	p, err := registry.Get("anthropic")
//	model, err := registry.GetModel("anthropic", "claude-sonnet-4-20250514")
//	model, err := registry.DefaultModel()
//	models := registry.AllModels()
//
// # Streaming completions
//
//	stream, err := p.CreateCompletion(ctx, &CompletionRequest{
//	    Model:     "claude-sonnet-4-20250514",
//	    Messages:  messages,
//	    MaxTokens: 4096,
//	})
//	for {
//	    chunk, err := stream.Recv()
//	    if err != nil {
//	        break
//	    }
//	    // consume chunk.Delta / chunk.FinishReason / chunk.Usage
//	}
//	stream.Close()
package provider
