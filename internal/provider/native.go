package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vannadii/rustygpt-go/internal/hardware"
)

// NativeProvider stands in for a local llama.cpp/GGUF inference runtime. No
// Go binding to llama.cpp or GGUF exists in this server's dependency
// ecosystem, so this provider is stdlib-only by necessity: it does not call
// out to a model at all, it tokenizes an echo of the last
// message on whitespace and emits it one token per tick, sized by the host's
// hardware profile the same way a real native runtime would size its batch
// and thread count.
type NativeProvider struct {
	id     string
	params hardware.Params
	models []Model
}

// NativeConfig configures a NativeProvider. Threads/ContextSize/BatchSize of
// zero mean "use hardware.Detect().OptimalParams()".
type NativeConfig struct {
	ID          string
	Threads     int
	ContextSize int
	BatchSize   int
}

// NewNativeProvider builds a provider sized by the host's hardware profile,
// with any non-zero fields in cfg overriding the detected defaults.
func NewNativeProvider(cfg *NativeConfig) *NativeProvider {
	params := hardware.Detect().OptimalParams()
	if cfg != nil {
		if cfg.Threads > 0 {
			params.Threads = cfg.Threads
		}
		if cfg.ContextSize > 0 {
			params.ContextSize = cfg.ContextSize
		}
		if cfg.BatchSize > 0 {
			params.BatchSize = cfg.BatchSize
		}
	}
	id := "native"
	if cfg != nil && cfg.ID != "" {
		id = cfg.ID
	}
	return &NativeProvider{
		id:     id,
		params: params,
		models: []Model{{ID: "native-default", Name: "Native", ProviderID: id, ContextLength: params.ContextSize, MaxOutputTokens: params.ContextSize / 2}},
	}
}

func (p *NativeProvider) ID() string      { return p.id }
func (p *NativeProvider) Name() string    { return "Native" }
func (p *NativeProvider) Models() []Model { return p.models }

// CreateCompletion ignores everything in req but the last message, replies
// "You said: <its content>", and streams that back one word per tick. tickInterval scales down with the
// host's thread count so a beefier host "generates" faster, mirroring a real
// decoder's throughput scaling with parallelism.
func (p *NativeProvider) CreateCompletion(ctx context.Context, req *CompletionRequest) (CompletionStream, error) {
	reply := syntheticReply(req)
	tokens := strings.Fields(reply)

	interval := time.Second / time.Duration(max(p.params.Threads, 1)*4)
	return &nativeStream{
		ctx:      ctx,
		tokens:   tokens,
		interval: interval,
		ticker:   time.NewTicker(interval),
	}, nil
}

func syntheticReply(req *CompletionRequest) string {
	if len(req.Messages) == 0 {
		return "I do not have enough context to respond."
	}
	last := req.Messages[len(req.Messages)-1]
	return fmt.Sprintf("You said: %s", last.Content)
}

type nativeStream struct {
	ctx      context.Context
	tokens   []string
	index    int
	interval time.Duration
	ticker   *time.Ticker
	closed   bool
}

func (s *nativeStream) Recv() (Chunk, error) {
	if s.closed {
		return Chunk{}, ErrStreamClosed
	}
	if s.index >= len(s.tokens) {
		return Chunk{FinishReason: "stop", Usage: &Usage{CompletionTokens: len(s.tokens), TotalTokens: len(s.tokens)}}, nil
	}

	select {
	case <-s.ctx.Done():
		return Chunk{}, s.ctx.Err()
	case <-s.ticker.C:
		word := s.tokens[s.index]
		s.index++
		delta := word
		if s.index < len(s.tokens) {
			delta += " "
		}
		return Chunk{Delta: delta}, nil
	}
}

func (s *nativeStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.ticker.Stop()
	return nil
}
