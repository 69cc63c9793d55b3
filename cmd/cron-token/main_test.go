package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"paybridge.backend/internal/config"
	"paybridge.backend/pkg/jwt"
)

func withHooks(t *testing.T, secret string) *bytes.Buffer {
	t.Helper()
	origDotenv, origCfg, origOut := loadDotenv, loadCfg, stdout
	t.Cleanup(func() {
		loadDotenv, loadCfg, stdout = origDotenv, origCfg, origOut
	})

	buf := &bytes.Buffer{}
	stdout = buf
	loadDotenv = func(...string) error { return nil }
	loadCfg = func() *config.Config {
		return &config.Config{JWT: config.JWTConfig{Secret: secret, TokenExpiry: time.Hour}}
	}
	return buf
}

func TestRun_IssuesSchedulerToken(t *testing.T) {
	out := withHooks(t, "cron-secret")

	require.NoError(t, run([]string{"-scope", "billing"}))

	var token string
	for _, line := range strings.Split(out.String(), "\n") {
		if v, ok := strings.CutPrefix(line, "CRON_TOKEN="); ok {
			token = v
		}
	}
	require.NotEmpty(t, token)

	claims, err := jwt.NewJWTService("cron-secret", time.Hour).ValidateSubject(token, jwt.SubjectScheduler)
	require.NoError(t, err)
	require.Equal(t, "billing", claims.Scope)
}

func TestRun_Errors(t *testing.T) {
	withHooks(t, "")
	require.ErrorContains(t, run(nil), "JWT_SECRET")

	withHooks(t, "s")
	require.Error(t, run([]string{"-expiry", "soon"}))
}
