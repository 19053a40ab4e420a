package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	tests := []struct {
		name string
		want Method
	}{
		{"initialize", MethodInitialize},
		{"notifications/initialized", MethodInitialized},
		{"tools/list", MethodToolsList},
		{"tools/call", MethodToolsCall},
		{"unknown/thing", MethodUnknown},
		{"", MethodUnknown},
		{"TOOLS/LIST", MethodUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMethod(tt.name))
		})
	}
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "tools/call", MethodToolsCall.String())
	assert.Equal(t, "unknown", MethodUnknown.String())
}

func TestMethodIsNotification(t *testing.T) {
	assert.True(t, MethodInitialized.IsNotification())
	assert.False(t, MethodInitialize.IsNotification())
	assert.False(t, MethodToolsCall.IsNotification())
}
