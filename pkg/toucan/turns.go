package toucan

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Turn roles used by the Toucan dataset.
const (
	RoleUser         = "user"
	RoleAssistant    = "assistant"
	RoleToolCall     = "tool_call"
	RoleToolResponse = "tool_response"
)

// Turn is one element of a row's messages column.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ParseTurns decodes the messages column of a row.
func ParseTurns(messagesJSON string) ([]Turn, error) {
	var turns []Turn
	if err := json.Unmarshal([]byte(messagesJSON), &turns); err != nil {
		return nil, errors.Wrap(err, "failed to parse messages column")
	}
	if turns == nil {
		return nil, errors.New("messages column is not an array")
	}
	return turns, nil
}

// FirstUserText returns the content of the first user turn, or "" when the
// conversation has none.
func FirstUserText(turns []Turn) string {
	turn, _ := lo.Find(turns, func(t Turn) bool { return t.Role == RoleUser })
	return turn.Content
}
