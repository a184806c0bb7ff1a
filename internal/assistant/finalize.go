package assistant

import (
	"context"
	"fmt"

	"github.com/vannadii/rustygpt-go/internal/eventbus"
	"github.com/vannadii/rustygpt-go/internal/provider"
)

const (
	placeholderCancelled = "Assistant response cancelled."
	placeholderTimeout   = "Assistant response timed out before completion."
	placeholderError     = "Assistant response failed before completion."

	warningTimeout = "assistant generation timed out before completion."
)

// finalize runs exactly once per generation: it materializes a placeholder
// assistant row if none was ever created, persists the final content,
// publishes message.done (and, on a warning, an error event), publishes
// thread.activity, and unregisters the generation from the supervisor.
func (p *Pipeline) finalize(ctx context.Context, g *generation, finishReason string, streamErr error, frames chan<- StreamFrame) (*ChatCompletion, error) {
	// Finalization must land even when ctx was cancelled by the client
	// disconnecting or by the supervisor timing out the generation - that's
	// exactly the case it exists to record. Carry values, drop cancellation.
	ctx = context.WithoutCancel(ctx)

	if finishReason == "" {
		finishReason = FinishStop
	}

	warning := ""
	switch {
	case finishReason == FinishTimeout:
		warning = warningTimeout
	case streamErr != nil:
		warning = fmt.Sprintf("assistant generation failed before completion: %v", streamErr)
		finishReason = FinishError
	case finishReason == FinishError:
		warning = "assistant generation ended with a provider-reported error."
	}

	if g.assistantMsg == nil {
		content := placeholderFor(finishReason)
		msg, err := p.convo.ReplyMessage(ctx, systemAuthorID, g.replyParentID, "assistant", content)
		if err != nil {
			return nil, err
		}
		g.assistantMsg = &msg
		g.accumulated.Reset()
		g.accumulated.WriteString(content)
	}

	finalContent := g.accumulated.String()
	if warning != "" {
		finalContent += "\n⚠️ " + warning
	}

	finalMsg, err := p.convo.FinalizeMessage(ctx, g.assistantMsg.ID, finalContent)
	if err != nil {
		return nil, err
	}

	usage := usageOrApproximate(g.usage, g.promptText, g.accumulated.String())
	busUsage := &eventbus.Usage{PromptTokens: usage.PromptTokens, CompletionTokens: usage.CompletionTokens, TotalTokens: usage.TotalTokens}

	if _, err := p.hub.Publish(ctx, finalMsg.ConversationID, eventbus.EventMessageDone, eventbus.MessageDonePayload{
		MessageID:      finalMsg.ID,
		RootID:         finalMsg.RootID,
		ConversationID: finalMsg.ConversationID,
		FinishReason:   finishReason,
		Usage:          busUsage,
	}, finalMsg.RootID, finalMsg.ID); err != nil {
		return nil, err
	}

	if warning != "" {
		code := "assistant_stream_error"
		if finishReason == FinishTimeout {
			code = "assistant_timeout"
		}
		if _, err := p.hub.Publish(ctx, finalMsg.ConversationID, eventbus.EventError, eventbus.ErrorPayload{
			Code:    code,
			Message: warning,
		}, finalMsg.RootID, finalMsg.ID); err != nil {
			return nil, err
		}
	}

	if _, err := p.hub.Publish(ctx, finalMsg.ConversationID, eventbus.EventThreadActivity, eventbus.ThreadActivityPayload{
		RootID:         finalMsg.RootID,
		LastActivityAt: finalMsg.CreatedAt.UTC().Format(rfc3339),
	}, finalMsg.RootID, ""); err != nil {
		return nil, err
	}

	p.supervisor.Unregister(finalMsg.ID)

	if frames != nil {
		frames <- StreamFrame{Data: encodeChunk("chatcmpl-"+finalMsg.ID, g.model.ID, "", false, true, finishReason)}
		frames <- StreamFrame{Data: "[DONE]", Done: true}
		return nil, nil
	}

	var warnings []string
	if warning != "" {
		warnings = append(warnings, warning)
	}

	return &ChatCompletion{
		ID:      "chatcmpl-" + finalMsg.ID,
		Object:  "chat.completion",
		Created: unixNow(),
		Model:   g.model.ID,
		Choices: []Choice{{
			Index:        0,
			Message:      provider.Message{Role: provider.RoleAssistant, Content: finalContent},
			FinishReason: finishReason,
		}},
		Usage:    usage,
		Warnings: warnings,
	}, nil
}

func placeholderFor(finishReason string) string {
	switch finishReason {
	case FinishCancelled:
		return placeholderCancelled
	case FinishTimeout:
		return placeholderTimeout
	default:
		return placeholderError
	}
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"
