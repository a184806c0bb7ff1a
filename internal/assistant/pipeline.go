package assistant

import (
	"context"
	"strings"
	"time"

	"github.com/vannadii/rustygpt-go/internal/convo"
	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/provider"
	"github.com/vannadii/rustygpt-go/internal/streamsup"
)

// Pipeline is the chat-completions entry point: prompt assembly, the
// provider call, and - when the request carries Metadata - the stateful
// stream controller that materializes the reply into a conversation's
// message tree as it streams.
//
// Its control loop follows a generate-then-finalize shape with no
// tool-execution branch, since this pipeline never calls tools.
type Pipeline struct {
	convo      *convo.Service
	hub        *eventbus.Hub
	providers  *provider.Registry
	supervisor *streamsup.Supervisor

	// GenerationTimeout bounds one assistant generation; zero means no
	// supervisor-enforced timeout.
	GenerationTimeout time.Duration
	// PersistChunks controls whether streamed deltas after the first are
	// written to message_chunks as they arrive, letting a reconnecting
	// subscriber replay a generation in progress. The first delta always
	// becomes the assistant row's initial content, and finalization always
	// persists the completed content, regardless of this setting.
	PersistChunks bool
}

// New builds a Pipeline over the service layer it drives.
func New(convoSvc *convo.Service, hub *eventbus.Hub, providers *provider.Registry, supervisor *streamsup.Supervisor) *Pipeline {
	return &Pipeline{
		convo:         convoSvc,
		hub:           hub,
		providers:     providers,
		supervisor:    supervisor,
		PersistChunks: true,
	}
}

func (p *Pipeline) resolveProvider(req *Request) (provider.Provider, provider.Model, error) {
	var providerID, modelID string
	if req.Model != "" {
		providerID, modelID = provider.ParseModelString(req.Model)
	}

	if providerID == "" {
		model, err := p.providers.DefaultModel()
		if err != nil {
			return nil, provider.Model{}, newError(CodeModelNotFound, err.Error())
		}
		providerID, modelID = model.ProviderID, model.ID
	}

	prov, err := p.providers.Get(providerID)
	if err != nil {
		return nil, provider.Model{}, newError(CodeProviderNotFound, err.Error())
	}
	model, err := p.providers.GetModel(providerID, modelID)
	if err != nil {
		return nil, provider.Model{}, newError(CodeModelNotFound, err.Error())
	}
	return prov, *model, nil
}

// lastUserMessage returns the content of the latest user-role message in
// messages, the turn the stateful path writes into the tree.
func lastUserMessage(messages []provider.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == provider.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

// ParseStopWords validates the chat-completions "stop" field, accepting
// either a single string or an array of strings.
func ParseStopWords(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, newError(CodeInvalidStop, "stop must be a string or array of strings")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, newError(CodeInvalidStop, "stop must be a string or array of strings")
	}
}

// generation carries the running state of one completion across both the
// stateless and stateful code paths.
type generation struct {
	req        *Request
	prov       provider.Provider
	model      provider.Model
	stream     provider.CompletionStream
	promptText string

	accumulated strings.Builder
	chunkIndex  int
	usage       *provider.Usage

	// Stateful-only fields, populated once the assistant row exists.
	assistantMsg *convo.Message
	handle       *streamsup.Handle
	// replyParentID is the message the assistant reply is written as a
	// child of: the freshly written user turn in the normal case, or
	// Metadata.ParentMessageID itself when ReplyToExisting skipped
	// writing a new user turn.
	replyParentID string
}

// systemAuthorID marks a message as system-authored - no human participant
// behind it - the way the assistant's own replies are recorded.
const systemAuthorID = ""

func (p *Pipeline) startStream(ctx context.Context, req *Request) (*generation, error) {
	prov, model, err := p.resolveProvider(req)
	if err != nil {
		return nil, err
	}

	var prompt string
	var handle *streamsup.Handle
	var replyParentID string
	// genCtx is the single cancellation token threaded into the provider
	// call. For a stateful request it's the supervisor handle's context, so
	// a later timeout or explicit Cancel unwinds the in-flight HTTP stream
	// too, not just the bookkeeping around it.
	genCtx := ctx

	if req.Metadata != nil {
		if req.CallerID == "" {
			return nil, newError(CodeValidation, "stateful completions require an authenticated caller")
		}
		ok, err := p.convo.CanAccess(ctx, req.CallerID, req.Metadata.ConversationID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, convo.ErrNotParticipant
		}

		replyToID := req.Metadata.ParentMessageID
		var content string

		if req.Metadata.ReplyToExisting {
			chain, err := p.convo.GetAncestorChain(ctx, replyToID)
			if err != nil {
				return nil, err
			}
			if len(chain) > 0 {
				content = chain[len(chain)-1].Content
			}
			prompt = BuildStatefulPrompt(chain, content)
		} else {
			var ok bool
			content, ok = lastUserMessage(req.Messages)
			if !ok {
				return nil, newError(CodeValidation, "stateful completions require a user message")
			}
			userMsg, err := p.convo.ReplyMessage(ctx, req.CallerID, replyToID, "user", content)
			if err != nil {
				return nil, err
			}
			replyToID = userMsg.ID

			chain, err := p.convo.GetAncestorChain(ctx, userMsg.ID)
			if err != nil {
				return nil, err
			}
			prompt = BuildStatefulPrompt(chain, content)
		}
		replyParentID = replyToID

		handle = p.supervisor.CreateSession(ctx, p.GenerationTimeout)
		genCtx = handle.Context()
	} else {
		prompt = BuildPrompt(req.Messages)
	}

	creq := &provider.CompletionRequest{
		Model:       model.ID,
		Messages:    []provider.Message{{Role: provider.RoleUser, Content: prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		TopP:        req.TopP,
		StopWords:   req.StopWords,
	}
	if creq.MaxTokens == 0 {
		creq.MaxTokens = model.MaxOutputTokens
	}

	stream, err := prov.CreateCompletion(genCtx, creq)
	if err != nil {
		return nil, newError(CodeUpstream, err.Error())
	}

	return &generation{req: req, prov: prov, model: model, stream: stream, promptText: prompt, handle: handle, replyParentID: replyParentID}, nil
}

// Complete runs one non-streamed chat completion to exhaustion.
func (p *Pipeline) Complete(ctx context.Context, req *Request) (*ChatCompletion, error) {
	g, err := p.startStream(ctx, req)
	if err != nil {
		return nil, err
	}

	if req.Metadata != nil {
		return p.runStateful(ctx, g, nil)
	}
	return p.runStateless(ctx, g, nil)
}

// Stream runs one streamed chat completion, sending one StreamFrame per
// emitted chunk on the returned channel. The channel is closed once the
// generation finalizes; the caller should drain it even after ctx is
// cancelled so finalization can complete.
func (p *Pipeline) Stream(ctx context.Context, req *Request) (<-chan StreamFrame, error) {
	g, err := p.startStream(ctx, req)
	if err != nil {
		return nil, err
	}

	frames := make(chan StreamFrame, 8)
	go func() {
		defer close(frames)
		if req.Metadata != nil {
			_, _ = p.runStateful(ctx, g, frames)
		} else {
			_, _ = p.runStateless(ctx, g, frames)
		}
	}()
	return frames, nil
}
