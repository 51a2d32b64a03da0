package messages

import (
	"encoding/json"
	"regexp"

	"github.com/pkg/errors"
)

// toolNameRegex mirrors the constraint enforced by the serving side: 1-64
// characters from [a-zA-Z0-9_-].
var toolNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// ValidToolName reports whether name is acceptable as a tool identifier.
func ValidToolName(name string) bool {
	return toolNameRegex.MatchString(name)
}

// Validate checks that the declaration can be accepted by the serving side.
func (t Tool) Validate() error {
	if !ValidToolName(t.Name) {
		return errors.Errorf("invalid tool name %q", t.Name)
	}
	if len(t.InputSchema) == 0 {
		return errors.Errorf("tool %q has no input_schema", t.Name)
	}
	return nil
}

// Validate checks the structural invariants of a request and returns the
// first violation found. It covers everything the converter guarantees:
// known roles and block types, complete tool_use and tool_result blocks,
// ids unique within the request, and well-formed tool declarations.
func (r *MessagesRequest) Validate() error {
	if r.Model == "" {
		return errors.New("missing model")
	}
	if r.MaxTokens <= 0 {
		return errors.Errorf("max_tokens must be positive, got %d", r.MaxTokens)
	}
	seenIDs := map[string]bool{}
	for i, msg := range r.Messages {
		if msg.Role != MessageRoleUser && msg.Role != MessageRoleAssistant {
			return errors.Errorf("message %d: unknown role %q", i, msg.Role)
		}
		if !msg.Content.IsBlocks() {
			continue
		}
		for j, block := range msg.Content.Blocks {
			if err := validateBlock(block, seenIDs); err != nil {
				return errors.Wrapf(err, "message %d block %d", i, j)
			}
		}
	}
	for _, tool := range r.Tools {
		if err := tool.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateBlock(block ContentBlock, seenIDs map[string]bool) error {
	switch block.Type {
	case BlockTypeText:
		return nil
	case BlockTypeToolUse:
		if block.ID == "" {
			return errors.New("tool_use without id")
		}
		if seenIDs[block.ID] {
			return errors.Errorf("duplicate tool_use id %q", block.ID)
		}
		seenIDs[block.ID] = true
		if block.Name == "" {
			return errors.New("tool_use without name")
		}
		if !json.Valid(block.Input) {
			return errors.Errorf("tool_use %s has invalid input", block.ID)
		}
		return nil
	case BlockTypeToolResult:
		if block.ToolUseID == "" {
			return errors.New("tool_result without tool_use_id")
		}
		return nil
	default:
		return errors.Errorf("unknown block type %q", block.Type)
	}
}

// ToolUseIDs returns every tool_use id in the request, in document order.
func (r *MessagesRequest) ToolUseIDs() []string {
	var ids []string
	for _, msg := range r.Messages {
		for _, block := range msg.Content.Blocks {
			if block.Type == BlockTypeToolUse {
				ids = append(ids, block.ID)
			}
		}
	}
	return ids
}

// DanglingResultIDs returns tool_use_ids referenced by tool_result blocks
// that no earlier tool_use block declares. Surplus tool responses in the
// source data produce these legitimately, so they are reported as warnings
// rather than validation failures.
func (r *MessagesRequest) DanglingResultIDs() []string {
	declared := map[string]bool{}
	var dangling []string
	for _, msg := range r.Messages {
		for _, block := range msg.Content.Blocks {
			switch block.Type {
			case BlockTypeToolUse:
				declared[block.ID] = true
			case BlockTypeToolResult:
				if !declared[block.ToolUseID] {
					dangling = append(dangling, block.ToolUseID)
				}
			}
		}
	}
	return dangling
}
