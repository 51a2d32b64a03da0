package toucan

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/EternisAI/toucan-to-messages/pkg/messages"
	"github.com/EternisAI/toucan-to-messages/pkg/pyliteral"
)

// defaultInputSchema stands in for function declarations that carry no
// parameters key.
var defaultInputSchema = json.RawMessage(`{"type":"object"}`)

// Converter turns raw dataset rows into Messages API requests.
type Converter struct {
	logger    *log.Logger
	model     string
	maxTokens int
}

func NewConverter(logger *log.Logger, model string, maxTokens int) *Converter {
	return &Converter{logger: logger, model: model, maxTokens: maxTokens}
}

// ConvertRow converts one dataset row. An error here spoils only the row,
// not the run.
func (c *Converter) ConvertRow(messagesJSON, toolsJSON string) (*messages.MessagesRequest, error) {
	turns, err := ParseTurns(messagesJSON)
	if err != nil {
		return nil, err
	}
	tools, err := c.ConvertTools(toolsJSON)
	if err != nil {
		return nil, err
	}
	return &messages.MessagesRequest{
		Model:     c.model,
		Messages:  c.ConvertTurns(turns),
		Tools:     tools,
		MaxTokens: c.maxTokens,
	}, nil
}

// ConvertTurns reshapes role-tagged turns into user/assistant messages. A
// run of consecutive tool_call turns becomes one assistant message of
// tool_use blocks; the tool_response run that follows becomes one user
// message of tool_result blocks, matched to the calls by position. Tool use
// ids are synthesized as toolu_NNNN from a per-row counter.
func (c *Converter) ConvertTurns(turns []Turn) []messages.MessageParam {
	result := []messages.MessageParam{}
	counter := 0

	i := 0
	for i < len(turns) {
		switch turns[i].Role {
		case RoleUser:
			result = append(result, messages.NewTextMessage(messages.MessageRoleUser, turns[i].Content))
			i++

		case RoleAssistant:
			result = append(result, messages.NewTextMessage(messages.MessageRoleAssistant, turns[i].Content))
			i++

		case RoleToolCall:
			var uses []messages.ContentBlock
			for i < len(turns) && turns[i].Role == RoleToolCall {
				counter++
				name, input := c.parseToolCall(turns[i].Content)
				uses = append(uses, messages.NewToolUseBlock(toolUseID(counter), name, input))
				i++
			}
			result = append(result, messages.NewBlockMessage(messages.MessageRoleAssistant, uses))

			var toolResults []messages.ContentBlock
			for respIdx := 0; i < len(turns) && turns[i].Role == RoleToolResponse; respIdx++ {
				var id string
				if respIdx < len(uses) {
					id = uses[respIdx].ID
				} else {
					// Surplus responses keep position-based ids past the
					// end of the call run.
					id = toolUseID(counter + respIdx + 1)
				}
				toolResults = append(toolResults, messages.NewToolResultBlock(id, turns[i].Content))
				i++
			}
			if len(toolResults) > 0 {
				result = append(result, messages.NewBlockMessage(messages.MessageRoleUser, toolResults))
			}

		default:
			c.logger.Warn("Skipping turn with unknown role", "role", turns[i].Role)
			i++
		}
	}
	return result
}

// parseToolCall decodes a tool_call turn. The dataset stores these as the
// Python repr of {'name': ..., 'arguments': '<JSON string>'}. A turn that
// cannot be decoded degrades to name "unknown" with empty input instead of
// failing the row.
func (c *Converter) parseToolCall(content string) (string, json.RawMessage) {
	parsed, err := pyliteral.DecodeDict(content)
	if err != nil {
		c.logger.Warn("Failed to parse tool_call", "error", err)
		return "unknown", nil
	}
	name, ok := parsed["name"].(string)
	if !ok {
		c.logger.Warn("Failed to parse tool_call", "error", "missing or non-string name")
		return "unknown", nil
	}
	argsVal, ok := parsed["arguments"]
	if !ok {
		return name, nil
	}
	argsStr, ok := argsVal.(string)
	if !ok {
		c.logger.Warn("Failed to parse tool_call", "error", "arguments is not a string")
		return "unknown", nil
	}
	input, err := compactJSON(argsStr)
	if err != nil {
		c.logger.Warn("Failed to parse tool_call arguments, using empty input", "name", name, "error", err)
		return name, nil
	}
	return name, input
}

type toolFunction struct {
	Name        *string         `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type toolDecl struct {
	Type     string        `json:"type"`
	Function *toolFunction `json:"function"`
}

// ConvertTools flattens the OpenAI-style function declarations of the
// tools column. Entries that are not function declarations are dropped.
func (c *Converter) ConvertTools(toolsJSON string) ([]messages.Tool, error) {
	var decls []toolDecl
	if err := json.Unmarshal([]byte(toolsJSON), &decls); err != nil {
		return nil, errors.Wrap(err, "failed to parse tools column")
	}
	if decls == nil {
		return nil, errors.New("tools column is not an array")
	}

	var tools []messages.Tool
	for _, decl := range decls {
		if decl.Type != "function" {
			continue
		}
		if decl.Function == nil {
			return nil, errors.New("function declaration without a function body")
		}
		if decl.Function.Name == nil {
			return nil, errors.New("function declaration without a name")
		}
		schema := decl.Function.Parameters
		if len(schema) == 0 {
			schema = defaultInputSchema
		}
		tools = append(tools, messages.Tool{
			Name:        *decl.Function.Name,
			Description: decl.Function.Description,
			InputSchema: schema,
		})
	}
	return tools, nil
}

func toolUseID(n int) string {
	return fmt.Sprintf("toolu_%04d", n)
}

func compactJSON(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
