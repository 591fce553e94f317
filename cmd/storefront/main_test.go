package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Skotchmaster/keymarket/internal/config"
	"github.com/Skotchmaster/keymarket/internal/session"
)

func TestSessionConfig(t *testing.T) {
	t.Parallel()

	m := session.NewManager(time.Minute)
	for _, secure := range []bool{true, false} {
		cfg := config.Config{
			SessionSecret: []byte("secret"),
			SessionTTL:    5 * time.Minute,
			CookieSecure:  secure,
		}

		sc := sessionConfig(cfg, m)
		assert.Same(t, m, sc.Manager)
		assert.Equal(t, []byte("secret"), sc.Secret)
		assert.Equal(t, 5*time.Minute, sc.TTL)
		assert.Equal(t, secure, sc.Secure)
	}
}
