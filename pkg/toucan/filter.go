package toucan

import "strings"

// toolCallMarker is the dataset's JSON spelling of a tool_call turn. The
// messages column is serialized with ", " and ": " separators, so the
// marker carries the space.
const toolCallMarker = `"role": "tool_call"`

// CountToolCalls counts tool invocations in a raw messages column without
// parsing it. Conversation text that happens to contain the marker would
// inflate the count; the dataset does not do this in practice.
func CountToolCalls(messagesJSON string) int {
	return strings.Count(messagesJSON, toolCallMarker)
}
