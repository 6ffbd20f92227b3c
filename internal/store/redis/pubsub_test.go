package redis_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	redisstore "github.com/gosuda/plaza/internal/store/redis"
)

func TestAuditLogChannel(t *testing.T) {
	t.Parallel()

	t.Run("default namespace", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "audit:new", redisstore.AuditLogChannel(""))
	})

	t.Run("named namespace", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "audit:staging:new", redisstore.AuditLogChannel("staging"))
	})

	t.Run("prefix", func(t *testing.T) {
		t.Parallel()

		got := redisstore.AuditLogChannel("prod")
		assert.True(t, strings.HasPrefix(got, "audit:"), "expected prefix 'audit:', got %q", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, redisstore.AuditLogChannel("a"), redisstore.AuditLogChannel("a"))
	})

	t.Run("namespaces do not collide", func(t *testing.T) {
		t.Parallel()

		assert.NotEqual(t, redisstore.AuditLogChannel("a"), redisstore.AuditLogChannel("b"))
		assert.NotEqual(t, redisstore.AuditLogChannel(""), redisstore.AuditLogChannel("a"))
	})
}
