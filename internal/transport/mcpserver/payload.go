package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// toolResponse is the structured payload every tool returns. Validation
// and resolution failures become status=error responses at this boundary
// instead of protocol-level errors, so the calling host can read and relay
// them.
type toolResponse struct {
	Status      string         `json:"status"`
	Content     string         `json:"content,omitempty"`
	ContentType string         `json:"content_type,omitempty"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`

	ContinuationOffer *continuationOffer `json:"continuation_offer,omitempty"`
}

// continuationOffer hands the thread id back to the caller so a follow-up
// tool call can resume the conversation.
type continuationOffer struct {
	ContinuationID string `json:"continuation_id"`
	RemainingTurns int    `json:"remaining_turns"`
}

func successResult(resp toolResponse) (*mcp.CallToolResult, error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal tool response: %w", err)
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func errorResult(message string, metadata map[string]any) (*mcp.CallToolResult, error) {
	return successResult(toolResponse{
		Status:   statusError,
		Error:    message,
		Metadata: metadata,
	})
}
