package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServeAddr(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{name: "default", args: nil, want: defaultServeAddr},
		{name: "positional", args: []string{":8080"}, want: ":8080"},
		{name: "flag", args: []string{"--addr", "0.0.0.0:9000"}, want: "0.0.0.0:9000"},
		{name: "single dash flag", args: []string{"-addr", "localhost:3000"}, want: "localhost:3000"},
		{name: "positional wins over default", args: []string{"127.0.0.1:8001"}, want: "127.0.0.1:8001"},
		{name: "missing port", args: []string{"localhost"}, wantErr: true},
		{name: "non numeric port", args: []string{":http"}, wantErr: true},
		{name: "port out of range", args: []string{":70000"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseServeAddr(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateAddr(t *testing.T) {
	assert.NoError(t, validateAddr("127.0.0.1:8000"))
	assert.NoError(t, validateAddr(":0"))
	assert.NoError(t, validateAddr("localhost:8000"))
	assert.Error(t, validateAddr("no-port"))
	assert.Error(t, validateAddr(":-1"))
}
