package quotes

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{ name string }

func (s *stubProvider) FetchDaily(context.Context, string) ([]byte, error) { return nil, nil }

func init() {
	RegisterProvider("stub", func(name string, cfg *ProviderConfig) (Provider, error) {
		return &stubProvider{name: name}, nil
	})
}

func TestLoadConfigFromReader(t *testing.T) {
	yamlDoc := `
default: primary
providers:
  primary:
    type: stub
    base_url: https://quotes.example.com
    api_key: demo
    timeout: 45s
    http_timeout: 10s
    max_retries: 4
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.Equal(t, "primary", cfg.Default)
	require.Len(t, cfg.Providers, 1)

	p := cfg.Providers["primary"]
	require.NotNil(t, p)
	assert.Equal(t, "stub", p.Type)
	assert.Equal(t, "https://quotes.example.com", p.BaseURL)
	assert.Equal(t, 45*time.Second, p.Timeout)
	assert.Equal(t, 10*time.Second, p.HTTPTimeout)
	assert.Equal(t, 4, p.MaxRetries)
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	t.Setenv("QUOTES_TEST_KEY", "secret-key")
	yamlDoc := `
providers:
  primary:
    type: stub
    api_key: ${QUOTES_TEST_KEY}
`
	cfg, err := LoadConfigFromReader(strings.NewReader(yamlDoc))
	require.NoError(t, err)
	require.Equal(t, "secret-key", cfg.Providers["primary"].APIKey)
}

func TestLoadConfigRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		yamlDoc string
		wantErr string
	}{
		{
			name:    "no providers",
			yamlDoc: `default: primary`,
			wantErr: "providers cannot be empty",
		},
		{
			name: "unknown default",
			yamlDoc: `
default: missing
providers:
  primary:
    type: stub
`,
			wantErr: "default provider",
		},
		{
			name: "missing type",
			yamlDoc: `
providers:
  primary:
    base_url: https://quotes.example.com
`,
			wantErr: "must specify type",
		},
		{
			name: "unsupported type",
			yamlDoc: `
providers:
  primary:
    type: nonexistent
`,
			wantErr: "unsupported type",
		},
		{
			name: "bad timeout",
			yamlDoc: `
providers:
  primary:
    type: stub
    timeout: not-a-duration
`,
			wantErr: "invalid timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromReader(strings.NewReader(tt.yamlDoc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildProviders(t *testing.T) {
	cfg := &Config{
		Default: "primary",
		Providers: map[string]*ProviderConfig{
			"primary": {Type: "stub"},
			"backup":  {Type: "stub"},
		},
	}
	providers, err := cfg.BuildProviders()
	require.NoError(t, err)
	require.Len(t, providers, 2)
	require.Contains(t, providers, "primary")
	require.Contains(t, providers, "backup")
}
