package main

import (
	"testing"

	"github.com/cloudwego/hertz/pkg/app/server"
	hertzconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TourRoute/config"
)

func TestNewServer(t *testing.T) {
	tests := []struct {
		name    string
		tracing bool
	}{
		{"plain", false},
		{"with tracing", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := config.Cfg.OTELEnabled
			config.Cfg.OTELEnabled = tt.tracing
			t.Cleanup(func() { config.Cfg.OTELEnabled = prev })

			h := newServer([]hertzconfig.Option{server.WithHostPorts("127.0.0.1:0")})
			require.NotNil(t, h)
			assert.Equal(t, "127.0.0.1:0", h.GetOptions().Addr)
		})
	}
}
