package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pairs   []string
		stdin   string
		want    map[string]string
		wantErr string
	}{
		{
			name:  "plain pairs",
			pairs: []string{"branch=main", "msg=a=b", "empty="},
			want:  map[string]string{"branch": "main", "msg": "a=b", "empty": ""},
		},
		{
			name:  "stdin shared by keys",
			pairs: []string{"a=-", "b=-", "c=1"},
			stdin: "body\n",
			want:  map[string]string{"a": "body", "b": "body", "c": "1"},
		},
		{
			name:    "missing equals",
			pairs:   []string{"branch"},
			wantErr: "expected KEY=VALUE",
		},
		{
			name:    "empty key",
			pairs:   []string{"=x"},
			wantErr: "key cannot be empty",
		},
		{
			name:    "empty stdin",
			pairs:   []string{"a=-"},
			wantErr: "stdin is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseArgs(tt.pairs, strings.NewReader(tt.stdin))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgs_NilStdin(t *testing.T) {
	t.Parallel()

	_, err := parseArgs([]string{"a=-"}, nil)
	assert.ErrorContains(t, err, "stdin not piped")
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	candidates := []string{"deploy", "deploy-stage", "build", "notify"}

	assert.ElementsMatch(t, []string{"deploy", "deploy-stage"}, suggest("dpl", candidates))
	assert.Equal(t, []string{"build"}, suggest("build-all", candidates))
	assert.Empty(t, suggest("zzz", candidates))
}

func TestTriggerURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080/hooks/deploy"},
		{"0.0.0.0:80", "http://localhost:80/hooks/deploy"},
		{"[::]:9000", "http://localhost:9000/hooks/deploy"},
		{"hooks.example.com:8080", "http://hooks.example.com:8080/hooks/deploy"},
		{"[::1]:8080", "http://[::1]:8080/hooks/deploy"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()
			got, err := triggerURL(tt.addr, "deploy")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := triggerURL("nonsense", "deploy")
	assert.Error(t, err)
}
