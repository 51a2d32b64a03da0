// Package messages defines the Messages API request format emitted by the
// converter and read back by downstream tooling. The shapes follow the
// Anthropic-style /v1/messages contract: a request carries plain-text turns
// or block-structured turns (tool_use, tool_result), plus optional tool
// declarations.
package messages

import (
	"bytes"
	"encoding/json"
)

// MessageRole represents the role of a message. Only user and assistant are
// valid in a request; tool traffic travels inside content blocks.
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// Content block types.
const (
	BlockTypeText       = "text"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock is a union of the block variants. Exactly one variant's
// fields are populated; the zero fields are omitted from JSON.
type ContentBlock struct {
	Type string `json:"type"`

	// Text blocks.
	Text string `json:"text,omitempty"`

	// Tool use blocks. Input is always present on the wire, "{}" when the
	// call carried no parseable arguments.
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// Tool result blocks.
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   any    `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// NewToolUseBlock creates a tool_use block.
func NewToolUseBlock(id, name string, input json.RawMessage) ContentBlock {
	if len(input) == 0 {
		input = json.RawMessage(`{}`)
	}
	return ContentBlock{
		Type:  BlockTypeToolUse,
		ID:    id,
		Name:  name,
		Input: input,
	}
}

// NewToolResultBlock creates a tool_result block answering the tool_use
// with the given id.
func NewToolResultBlock(toolUseID string, content any) ContentBlock {
	return ContentBlock{
		Type:      BlockTypeToolResult,
		ToolUseID: toolUseID,
		Content:   content,
	}
}

// MessageContent is either a bare string or an ordered list of content
// blocks. It serializes to whichever form it holds, matching the untagged
// union the downstream parser expects.
type MessageContent struct {
	Text   string
	Blocks []ContentBlock
}

// TextContent wraps plain text as message content.
func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

// BlockContent wraps content blocks as message content.
func BlockContent(blocks []ContentBlock) MessageContent {
	return MessageContent{Blocks: blocks}
}

// IsBlocks reports whether the content is in block form.
func (c MessageContent) IsBlocks() bool {
	return c.Blocks != nil
}

// MarshalJSON emits a JSON string for plain content and a JSON array for
// block content.
func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts both the string and the block-array form.
func (c *MessageContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		c.Text = ""
		return json.Unmarshal(data, &c.Blocks)
	}
	c.Blocks = nil
	return json.Unmarshal(data, &c.Text)
}

// MessageParam is a single conversational turn.
type MessageParam struct {
	Role    MessageRole    `json:"role"`
	Content MessageContent `json:"content"`
}

// NewTextMessage creates a plain-text turn.
func NewTextMessage(role MessageRole, text string) MessageParam {
	return MessageParam{Role: role, Content: TextContent(text)}
}

// NewBlockMessage creates a block-structured turn.
func NewBlockMessage(role MessageRole, blocks []ContentBlock) MessageParam {
	return MessageParam{Role: role, Content: BlockContent(blocks)}
}

// Tool is a normalized function-calling declaration. Description is kept
// even when empty and the schema is always present; both are required by
// the downstream prompt builder.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// MessagesRequest is one line of the converter's JSONL output. Tools is
// omitted entirely when no function declarations survived conversion.
type MessagesRequest struct {
	Model     string         `json:"model"`
	Messages  []MessageParam `json:"messages"`
	System    string         `json:"system,omitempty"`
	Tools     []Tool         `json:"tools,omitempty"`
	MaxTokens int            `json:"max_tokens"`
}
