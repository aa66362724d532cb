package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/fixflow/backend/internal/infrastructure/auth"
	"github.com/fixflow/backend/internal/infrastructure/config"
	"github.com/fixflow/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, secret string) *app {
	t.Helper()
	cfg := &config.Config{
		Log: config.LogConfig{Level: "error"},
		JWT: config.JWTConfig{Secret: secret, Issuer: "fixflow", AccessTokenExpiration: time.Hour},
	}
	a := &app{
		loadConfig: func() (*config.Config, error) { return cfg, nil },
		openDB: func(*config.Config, *zap.Logger) (*persistence.Database, error) {
			db, err := persistence.NewSQLiteDatabase(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), persistence.Options{})
			if err != nil {
				return nil, err
			}
			return db, persistence.AutoMigrate(context.Background(), db.DB)
		},
	}
	t.Cleanup(a.close)
	return a
}

// run executes one command line and decodes its JSON output
func run(t *testing.T, a *app, args ...string) (map[string]any, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(a)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		return nil, err
	}
	var v map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &v), out.String())
	return v, nil
}

func TestCommandPresence(t *testing.T) {
	root := newRootCommand(newApp())
	for _, path := range [][]string{
		{"agency", "register"}, {"agency", "validate"}, {"agency", "suspend"},
		{"currency", "change"}, {"currency", "propagate"},
		{"company", "relink"},
		{"account", "create"}, {"account", "deactivate"},
		{"token"},
	} {
		sub, _, err := root.Find(path)
		require.NoError(t, err, "%v", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

func TestBootstrapAgency(t *testing.T) {
	a := newTestApp(t, "test-secret-key-for-the-admin-cli")

	agency, err := run(t, a, "agency", "register", "--name", "Acme Lettings", "--currency", "EUR", "--tax-rate", "0.2")
	require.NoError(t, err)
	agencyID := agency["id"].(string)
	assert.Equal(t, "PENDING", agency["validation_status"])
	assert.Equal(t, "0.2", agency["tax_rate"])

	agency, err = run(t, a, "agency", "validate", agencyID)
	require.NoError(t, err)
	assert.Equal(t, "VALIDATED", agency["validation_status"])

	changed, err := run(t, a, "currency", "change", agencyID, "USD", "--propagate")
	require.NoError(t, err)
	change := changed["change"].(map[string]any)
	assert.Equal(t, "EUR", change["old_currency"])
	assert.Equal(t, "USD", change["new_currency"])
	assert.Contains(t, changed, "propagation")

	account, err := run(t, a, "account", "create", "--email", "desk@acme.example", "--role", "AGENCY", "--subject", agencyID)
	require.NoError(t, err)
	accountID := account["id"].(string)

	token, err := run(t, a, "token", accountID)
	require.NoError(t, err)
	raw := token["access_token"].(string)
	claims, err := auth.NewJWTService(a.cfg.JWT).ValidateAccessToken(raw)
	require.NoError(t, err)
	got, err := claims.Account()
	require.NoError(t, err)
	assert.Equal(t, accountID, got.String())

	_, err = run(t, a, "account", "deactivate", accountID)
	require.NoError(t, err)
	_, err = run(t, a, "token", accountID)
	assert.Error(t, err, "deactivated accounts get no token")
}

func TestCommandErrors(t *testing.T) {
	a := newTestApp(t, "")

	_, err := run(t, a, "agency", "validate", "not-a-uuid")
	assert.ErrorContains(t, err, "invalid id")

	_, err = run(t, a, "agency", "register", "--name", "Acme", "--currency", "EUR", "--tax-rate", "lots")
	assert.ErrorContains(t, err, "--tax-rate")

	_, err = run(t, a, "agency", "validate", uuid.NewString())
	assert.Error(t, err)

	agency, err := run(t, a, "agency", "register", "--name", "Acme", "--currency", "EUR")
	require.NoError(t, err)
	account, err := run(t, a, "account", "create", "--email", "desk@acme.example", "--role", "AGENCY", "--subject", agency["id"].(string))
	require.NoError(t, err)
	_, err = run(t, a, "token", account["id"].(string))
	assert.ErrorContains(t, err, "jwt.secret")
}
