package messages

import (
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  ChatMessage
		role Role
	}{
		{"system", System("be terse"), RoleSystem},
		{"user", User("hello"), RoleUser},
		{"assistant", Assistant("hi"), RoleAssistant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.role, tt.msg.Role)
			assert.NotEmpty(t, tt.msg.Content)
			assert.Nil(t, tt.msg.Extra)
		})
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "user: what time is it?", User("what time is it?").String())
	assert.Equal(t, "assistant: ", Assistant("").String())
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleSystem.Valid())
	assert.True(t, RoleFunction.Valid())
	assert.False(t, Role("moderator").Valid())
	assert.False(t, Role("").Valid())
}

func TestJSONShape(t *testing.T) {
	msg := ChatMessage{
		Role:    RoleUser,
		Content: "hello",
		Extra:   map[string]any{"name": "alice"},
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded ChatMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg.Role, decoded.Role)
	assert.Equal(t, msg.Content, decoded.Content)
	assert.Equal(t, "alice", decoded.Extra["name"])

	// extras are omitted when empty
	data, err = json.Marshal(User("hi"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "extra")
}
