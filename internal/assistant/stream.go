package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/provider"
)

var idCounter atomic.Uint64

// runStateless drains g.stream without touching convo or the event hub,
// optionally emitting one StreamFrame per delta on frames.
func (p *Pipeline) runStateless(ctx context.Context, g *generation, frames chan<- StreamFrame) (*ChatCompletion, error) {
	defer g.stream.Close()

	completionID := "chatcmpl-" + randomID()
	finishReason := FinishStop
	var usage *provider.Usage
	first := true

	for {
		chunk, err := g.stream.Recv()
		if err != nil {
			if errors.Is(err, provider.ErrStreamClosed) {
				break
			}
			finishReason = FinishError
			break
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
		if chunk.Delta == "" {
			continue
		}
		g.accumulated.WriteString(chunk.Delta)

		if frames != nil {
			frames <- StreamFrame{Data: encodeChunk(completionID, g.model.ID, chunk.Delta, first, false, "")}
		}
		first = false
	}

	content := g.accumulated.String()
	u := usageOrApproximate(usage, g.promptText, content)

	if frames != nil {
		frames <- StreamFrame{Data: encodeChunk(completionID, g.model.ID, "", false, true, finishReason)}
		frames <- StreamFrame{Data: "[DONE]", Done: true}
		return nil, nil
	}

	return &ChatCompletion{
		ID:      completionID,
		Object:  "chat.completion",
		Created: unixNow(),
		Model:   g.model.ID,
		Choices: []Choice{{
			Index:        0,
			Message:      provider.Message{Role: provider.RoleAssistant, Content: content},
			FinishReason: finishReason,
		}},
		Usage: Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens},
	}, nil
}

type chatCompletionChunk struct {
	ID      string        `json:"id"`
	Object  string        `json:"object"`
	Created int64         `json:"created"`
	Model   string        `json:"model"`
	Choices []chunkChoice `json:"choices"`
}

type chunkChoice struct {
	Index        int             `json:"index"`
	Delta        chunkDelta      `json:"delta"`
	FinishReason *string         `json:"finish_reason"`
}

type chunkDelta struct {
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
}

func encodeChunk(id, model, delta string, includeRole, final bool, finishReason string) string {
	choice := chunkChoice{Index: 0, Delta: chunkDelta{Content: delta}}
	if includeRole {
		choice.Delta.Role = string(provider.RoleAssistant)
	}
	if final {
		choice.FinishReason = &finishReason
	}
	body := chatCompletionChunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: unixNow(),
		Model:   model,
		Choices: []chunkChoice{choice},
	}
	out, _ := json.Marshal(body)
	return string(out)
}

// runStateful drains g.stream while materializing the reply into the
// conversation tree, publishing message.delta/message.done events, and
// watching the supervisor handle for cooperative cancellation.
func (p *Pipeline) runStateful(ctx context.Context, g *generation, frames chan<- StreamFrame) (*ChatCompletion, error) {
	defer g.stream.Close()

	streamCtx := g.handle.Context()

	var streamErr error
	finishReason := ""

	for {
		select {
		case <-g.handle.Done():
			if finishReason == "" {
				finishReason = finishReasonFromSupervisor(g.handle.Reason())
			}
		default:
		}
		if finishReason != "" {
			break
		}

		chunk, err := g.stream.Recv()
		if err != nil {
			if errors.Is(err, provider.ErrStreamClosed) {
				finishReason = FinishStop
				break
			}
			// A blocked Recv unblocked by the supervisor cancelling its
			// context surfaces as a plain context error here, not
			// ErrStreamClosed - recover the supervisor's reason rather than
			// treating cooperative cancellation as a stream failure.
			select {
			case <-g.handle.Done():
				finishReason = finishReasonFromSupervisor(g.handle.Reason())
			default:
				streamErr = err
				finishReason = FinishError
			}
			break
		}

		if chunk.Usage != nil {
			g.usage = chunk.Usage
		}
		if chunk.FinishReason != "" && finishReason == "" {
			finishReason = chunk.FinishReason
		}
		if chunk.Delta == "" {
			continue
		}

		if err := p.publishDelta(streamCtx, g, chunk.Delta, frames); err != nil {
			streamErr = err
		}
	}

	return p.finalize(ctx, g, finishReason, streamErr, frames)
}

// publishDelta materializes the assistant row on first content, appends the
// delta to the accumulator, optionally persists the chunk, publishes
// message.delta to the conversation's event hub, and - for a caller
// streaming the chat-completions response directly - emits the matching
// chat.completion.chunk StreamFrame.
func (p *Pipeline) publishDelta(ctx context.Context, g *generation, delta string, frames chan<- StreamFrame) error {
	firstChunk := g.assistantMsg == nil && g.accumulated.Len() == 0

	if g.assistantMsg == nil {
		msg, err := p.convo.ReplyMessage(ctx, systemAuthorID, g.replyParentID, "assistant", delta)
		if err != nil {
			return err
		}
		g.assistantMsg = &msg
		p.supervisor.Register(msg.ID, g.handle)
	} else if p.PersistChunks {
		if _, err := p.convo.AppendMessageChunk(ctx, g.assistantMsg.ID, delta); err != nil {
			return err
		}
	}
	g.accumulated.WriteString(delta)

	choice := eventbus.ChatDeltaChoice{Index: 0, Delta: eventbus.ChatDelta{Content: delta}}
	if firstChunk {
		choice.Delta.Role = string(provider.RoleAssistant)
	}
	payload := eventbus.MessageDeltaPayload{
		ID:             g.assistantMsg.ID,
		Object:         "chat.completion.chunk",
		ConversationID: g.assistantMsg.ConversationID,
		RootID:         g.assistantMsg.RootID,
		MessageID:      g.assistantMsg.ID,
		ParentID:       g.assistantMsg.ParentID,
		Depth:          g.assistantMsg.Depth,
		ChunkIndex:     g.chunkIndex,
		Choices:        []eventbus.ChatDeltaChoice{choice},
	}
	_, err := p.hub.Publish(ctx, g.assistantMsg.ConversationID, eventbus.EventMessageDelta, payload, g.assistantMsg.RootID, g.assistantMsg.ID)
	g.chunkIndex++

	if frames != nil {
		frames <- StreamFrame{Data: encodeChunk("chatcmpl-"+g.assistantMsg.ID, g.model.ID, delta, firstChunk, false, "")}
	}
	return err
}

// finishReasonFromSupervisor translates a streamsup.Reason into the
// externally visible finish_reason vocabulary. A handle whose context died
// without an explicit trip - the client disconnected, cancelling the
// handle's parent context directly - reports no reason of its own; that
// case is still a cancellation from the pipeline's point of view.
func finishReasonFromSupervisor(reason string) string {
	switch reason {
	case "timed_out":
		return FinishTimeout
	default:
		return FinishCancelled
	}
}

func usageOrApproximate(u *provider.Usage, promptText string, completion string) Usage {
	if u != nil && u.PromptTokens != 0 && u.CompletionTokens != 0 {
		return Usage{PromptTokens: u.PromptTokens, CompletionTokens: u.CompletionTokens, TotalTokens: u.TotalTokens}
	}

	promptTokens := 0
	if u != nil {
		promptTokens = u.PromptTokens
	}
	if promptTokens == 0 {
		promptTokens = len(strings.Fields(promptText))
	}

	completionTokens := 0
	if u != nil {
		completionTokens = u.CompletionTokens
	}
	if completionTokens == 0 {
		completionTokens = len(strings.Fields(completion))
	}

	return Usage{PromptTokens: promptTokens, CompletionTokens: completionTokens, TotalTokens: promptTokens + completionTokens}
}

func randomID() string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	buf := make([]byte, 20)
	seed := uint64(unixNow())<<20 | idCounter.Add(1)
	for i := range buf {
		seed = seed*6364136223846793005 + 1442695040888963407
		buf[i] = alphabet[(seed>>33)%uint64(len(alphabet))]
	}
	return string(buf)
}
