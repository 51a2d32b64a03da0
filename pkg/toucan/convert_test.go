package toucan

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EternisAI/toucan-to-messages/pkg/messages"
)

func testConverter() *Converter {
	return NewConverter(log.New(io.Discard), "rwkv", 4096)
}

func TestParseTurns(t *testing.T) {
	t.Run("valid turns", func(t *testing.T) {
		turns, err := ParseTurns(`[{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}]`)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, RoleUser, turns[0].Role)
		assert.Equal(t, "hello", turns[1].Content)
	})

	t.Run("empty array", func(t *testing.T) {
		turns, err := ParseTurns(`[]`)
		require.NoError(t, err)
		assert.NotNil(t, turns)
		assert.Empty(t, turns)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := ParseTurns(`{{`)
		assert.Error(t, err)
	})

	t.Run("null is not an array", func(t *testing.T) {
		_, err := ParseTurns(`null`)
		assert.ErrorContains(t, err, "not an array")
	})
}

func TestFirstUserText(t *testing.T) {
	turns := []Turn{
		{Role: RoleAssistant, Content: "welcome"},
		{Role: RoleUser, Content: "first question"},
		{Role: RoleUser, Content: "second question"},
	}
	assert.Equal(t, "first question", FirstUserText(turns))
	assert.Equal(t, "", FirstUserText([]Turn{{Role: RoleAssistant, Content: "only me"}}))
	assert.Equal(t, "", FirstUserText(nil))
}

func TestCountToolCalls(t *testing.T) {
	raw := `[{"role": "user", "content": "go"}, {"role": "tool_call", "content": "{}"}, {"role": "tool_response", "content": "ok"}, {"role": "tool_call", "content": "{}"}]`
	assert.Equal(t, 2, CountToolCalls(raw))
	assert.Equal(t, 0, CountToolCalls(`[{"role": "user", "content": "no tools here"}]`))

	// The marker includes the dataset's ": " spacing on purpose; compact
	// JSON does not match it.
	assert.Equal(t, 0, CountToolCalls(`[{"role":"tool_call","content":"{}"}]`))
}

func TestConvertTurns(t *testing.T) {
	conv := testConverter()

	t.Run("text turns pass through", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleUser, Content: "hello"},
			{Role: RoleAssistant, Content: "hi there"},
		})
		require.Len(t, msgs, 2)
		assert.Equal(t, messages.MessageRoleUser, msgs[0].Role)
		assert.Equal(t, "hello", msgs[0].Content.Text)
		assert.Equal(t, messages.MessageRoleAssistant, msgs[1].Role)
		assert.Equal(t, "hi there", msgs[1].Content.Text)
	})

	t.Run("tool call and response pair up", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleUser, Content: "weather in Paris?"},
			{Role: RoleToolCall, Content: `{'name': 'get_weather', 'arguments': '{"city": "Paris"}'}`},
			{Role: RoleToolResponse, Content: "Sunny, 22C"},
			{Role: RoleAssistant, Content: "It is sunny."},
		})
		require.Len(t, msgs, 4)

		use := msgs[1]
		assert.Equal(t, messages.MessageRoleAssistant, use.Role)
		require.Len(t, use.Content.Blocks, 1)
		assert.Equal(t, messages.BlockTypeToolUse, use.Content.Blocks[0].Type)
		assert.Equal(t, "toolu_0001", use.Content.Blocks[0].ID)
		assert.Equal(t, "get_weather", use.Content.Blocks[0].Name)
		assert.JSONEq(t, `{"city": "Paris"}`, string(use.Content.Blocks[0].Input))

		result := msgs[2]
		assert.Equal(t, messages.MessageRoleUser, result.Role)
		require.Len(t, result.Content.Blocks, 1)
		assert.Equal(t, messages.BlockTypeToolResult, result.Content.Blocks[0].Type)
		assert.Equal(t, "toolu_0001", result.Content.Blocks[0].ToolUseID)
		assert.Equal(t, "Sunny, 22C", result.Content.Blocks[0].Content)
	})

	t.Run("parallel calls merge into one assistant message", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleToolCall, Content: `{'name': 'a', 'arguments': '{}'}`},
			{Role: RoleToolCall, Content: `{'name': 'b', 'arguments': '{}'}`},
			{Role: RoleToolResponse, Content: "ra"},
			{Role: RoleToolResponse, Content: "rb"},
		})
		require.Len(t, msgs, 2)
		require.Len(t, msgs[0].Content.Blocks, 2)
		assert.Equal(t, "toolu_0001", msgs[0].Content.Blocks[0].ID)
		assert.Equal(t, "toolu_0002", msgs[0].Content.Blocks[1].ID)
		require.Len(t, msgs[1].Content.Blocks, 2)
		assert.Equal(t, "toolu_0001", msgs[1].Content.Blocks[0].ToolUseID)
		assert.Equal(t, "toolu_0002", msgs[1].Content.Blocks[1].ToolUseID)
	})

	t.Run("counter continues across runs", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleToolCall, Content: `{'name': 'a', 'arguments': '{}'}`},
			{Role: RoleToolResponse, Content: "r1"},
			{Role: RoleToolCall, Content: `{'name': 'b', 'arguments': '{}'}`},
			{Role: RoleToolCall, Content: `{'name': 'c', 'arguments': '{}'}`},
			{Role: RoleToolResponse, Content: "r2"},
			{Role: RoleToolResponse, Content: "r3"},
		})
		require.Len(t, msgs, 4)
		assert.Equal(t, "toolu_0001", msgs[0].Content.Blocks[0].ID)
		assert.Equal(t, "toolu_0002", msgs[2].Content.Blocks[0].ID)
		assert.Equal(t, "toolu_0003", msgs[2].Content.Blocks[1].ID)
		assert.Equal(t, "toolu_0002", msgs[3].Content.Blocks[0].ToolUseID)
		assert.Equal(t, "toolu_0003", msgs[3].Content.Blocks[1].ToolUseID)
	})

	t.Run("surplus responses get positional ids", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleToolCall, Content: `{'name': 'a', 'arguments': '{}'}`},
			{Role: RoleToolCall, Content: `{'name': 'b', 'arguments': '{}'}`},
			{Role: RoleToolResponse, Content: "r1"},
			{Role: RoleToolResponse, Content: "r2"},
			{Role: RoleToolResponse, Content: "r3"},
		})
		require.Len(t, msgs, 2)
		results := msgs[1].Content.Blocks
		require.Len(t, results, 3)
		assert.Equal(t, "toolu_0001", results[0].ToolUseID)
		assert.Equal(t, "toolu_0002", results[1].ToolUseID)
		assert.Equal(t, "toolu_0005", results[2].ToolUseID)
	})

	t.Run("orphaned calls produce no result message", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: RoleToolCall, Content: `{'name': 'a', 'arguments': '{}'}`},
			{Role: RoleAssistant, Content: "gave up waiting"},
		})
		require.Len(t, msgs, 2)
		assert.True(t, msgs[0].Content.IsBlocks())
		assert.False(t, msgs[1].Content.IsBlocks())
	})

	t.Run("unknown roles are skipped", func(t *testing.T) {
		msgs := conv.ConvertTurns([]Turn{
			{Role: "system", Content: "be nice"},
			{Role: RoleUser, Content: "hi"},
		})
		require.Len(t, msgs, 1)
		assert.Equal(t, messages.MessageRoleUser, msgs[0].Role)
	})

	t.Run("no turns yield an empty message list", func(t *testing.T) {
		msgs := conv.ConvertTurns(nil)
		assert.NotNil(t, msgs)
		assert.Empty(t, msgs)
	})
}

func TestParseToolCall(t *testing.T) {
	conv := testConverter()

	t.Run("valid call", func(t *testing.T) {
		name, input := conv.parseToolCall(`{'name': 'get_weather', 'arguments': '{"city": "Paris", "units": "metric"}'}`)
		assert.Equal(t, "get_weather", name)
		assert.JSONEq(t, `{"city": "Paris", "units": "metric"}`, string(input))
	})

	t.Run("arguments survive as given", func(t *testing.T) {
		name, input := conv.parseToolCall(`{'name': 'f', 'arguments': '{"a": 1, "b": [true, null]}'}`)
		assert.Equal(t, "f", name)
		assert.Equal(t, `{"a":1,"b":[true,null]}`, string(input))
	})

	t.Run("unparsable literal degrades to unknown", func(t *testing.T) {
		name, input := conv.parseToolCall(`not a python dict`)
		assert.Equal(t, "unknown", name)
		assert.Nil(t, input)
	})

	t.Run("missing name degrades to unknown", func(t *testing.T) {
		name, _ := conv.parseToolCall(`{'arguments': '{}'}`)
		assert.Equal(t, "unknown", name)
	})

	t.Run("missing arguments keep the name", func(t *testing.T) {
		name, input := conv.parseToolCall(`{'name': 'ping'}`)
		assert.Equal(t, "ping", name)
		assert.Nil(t, input)
	})

	t.Run("invalid argument JSON keeps the name", func(t *testing.T) {
		name, input := conv.parseToolCall(`{'name': 'ping', 'arguments': 'not json'}`)
		assert.Equal(t, "ping", name)
		assert.Nil(t, input)
	})

	t.Run("non-string arguments degrade to unknown", func(t *testing.T) {
		name, _ := conv.parseToolCall(`{'name': 'ping', 'arguments': 42}`)
		assert.Equal(t, "unknown", name)
	})
}

func TestConvertTools(t *testing.T) {
	conv := testConverter()

	t.Run("function declarations flatten", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[{"type": "function", "function": {"name": "get_weather", "description": "Weather lookup", "parameters": {"type": "object", "properties": {"city": {"type": "string"}}}}}]`)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.Equal(t, "get_weather", tools[0].Name)
		assert.Equal(t, "Weather lookup", tools[0].Description)
		assert.JSONEq(t, `{"type": "object", "properties": {"city": {"type": "string"}}}`, string(tools[0].InputSchema))
	})

	t.Run("missing description becomes empty", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[{"type": "function", "function": {"name": "ping", "parameters": {"type": "object"}}}]`)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.Equal(t, "", tools[0].Description)
	})

	t.Run("missing parameters default to an object schema", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[{"type": "function", "function": {"name": "ping"}}]`)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.JSONEq(t, `{"type": "object"}`, string(tools[0].InputSchema))
	})

	t.Run("null parameters pass through", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[{"type": "function", "function": {"name": "ping", "parameters": null}}]`)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.Equal(t, "null", string(tools[0].InputSchema))
	})

	t.Run("non-function entries are dropped", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[{"type": "retrieval"}, {"type": "function", "function": {"name": "keep_me"}}]`)
		require.NoError(t, err)
		require.Len(t, tools, 1)
		assert.Equal(t, "keep_me", tools[0].Name)
	})

	t.Run("empty list converts to nothing", func(t *testing.T) {
		tools, err := conv.ConvertTools(`[]`)
		require.NoError(t, err)
		assert.Empty(t, tools)
	})

	t.Run("invalid JSON fails the row", func(t *testing.T) {
		_, err := conv.ConvertTools(`{{`)
		assert.Error(t, err)
	})

	t.Run("null fails the row", func(t *testing.T) {
		_, err := conv.ConvertTools(`null`)
		assert.ErrorContains(t, err, "not an array")
	})

	t.Run("function without a name fails the row", func(t *testing.T) {
		_, err := conv.ConvertTools(`[{"type": "function", "function": {"description": "nameless"}}]`)
		assert.ErrorContains(t, err, "without a name")
	})

	t.Run("function without a body fails the row", func(t *testing.T) {
		_, err := conv.ConvertTools(`[{"type": "function", "function": null}]`)
		assert.ErrorContains(t, err, "without a function body")
	})
}

func TestConvertRow(t *testing.T) {
	conv := testConverter()

	t.Run("full conversation serializes exactly", func(t *testing.T) {
		messagesJSON := `[{"role": "user", "content": "What is the weather in Paris?"}, {"role": "tool_call", "content": "{'name': 'get_weather', 'arguments': '{\"city\": \"Paris\"}'}"}, {"role": "tool_response", "content": "Sunny, 22C"}, {"role": "assistant", "content": "It is sunny and 22C in Paris."}]`
		toolsJSON := `[{"type": "function", "function": {"name": "get_weather", "description": "Get current weather", "parameters": {"type": "object", "properties": {"city": {"type": "string"}}}}}]`

		req, err := conv.ConvertRow(messagesJSON, toolsJSON)
		require.NoError(t, err)

		line, err := json.Marshal(req)
		require.NoError(t, err)
		expected := `{"model":"rwkv","messages":[{"role":"user","content":"What is the weather in Paris?"},{"role":"assistant","content":[{"type":"tool_use","id":"toolu_0001","name":"get_weather","input":{"city":"Paris"}}]},{"role":"user","content":[{"type":"tool_result","tool_use_id":"toolu_0001","content":"Sunny, 22C"}]},{"role":"assistant","content":"It is sunny and 22C in Paris."}],"tools":[{"name":"get_weather","description":"Get current weather","input_schema":{"type":"object","properties":{"city":{"type":"string"}}}}],"max_tokens":4096}`
		assert.Equal(t, expected, string(line))
	})

	t.Run("no tools means no tools key", func(t *testing.T) {
		req, err := conv.ConvertRow(
			`[{"role": "user", "content": "Hello"}, {"role": "assistant", "content": "Hi"}]`, `[]`)
		require.NoError(t, err)
		line, err := json.Marshal(req)
		require.NoError(t, err)
		assert.Equal(t,
			`{"model":"rwkv","messages":[{"role":"user","content":"Hello"},{"role":"assistant","content":"Hi"}],"max_tokens":4096}`,
			string(line))
	})

	t.Run("converted request passes validation", func(t *testing.T) {
		req, err := conv.ConvertRow(
			`[{"role": "user", "content": "hello there"}, {"role": "tool_call", "content": "{'name': 'ping', 'arguments': '{}'}"}, {"role": "tool_response", "content": "pong"}]`,
			`[{"type": "function", "function": {"name": "ping"}}]`,
		)
		require.NoError(t, err)
		assert.NoError(t, req.Validate())
	})

	t.Run("bad messages column fails", func(t *testing.T) {
		_, err := conv.ConvertRow(`{{`, `[]`)
		assert.Error(t, err)
	})

	t.Run("bad tools column fails", func(t *testing.T) {
		_, err := conv.ConvertRow(`[]`, `{{`)
		assert.Error(t, err)
	})
}
