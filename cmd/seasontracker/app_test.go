package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/mantonx/seasontracker/internal/auth"
	"github.com/mantonx/seasontracker/internal/config"
	"github.com/mantonx/seasontracker/internal/database"
	"github.com/mantonx/seasontracker/internal/modules/membermodule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenLine = regexp.MustCompile(`token: ([0-9a-f]+)`)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "seasontracker.yaml")
	body := "database:\n  type: sqlite\n  database_path: " + filepath.Join(dir, "st.db") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(context.Background(), append([]string{"seasontracker", "--config", cfgPath}, args...))
	return out.String(), err
}

func openConfigured(t *testing.T, cfgPath string) *membermodule.MemberRepository {
	t.Helper()
	cm := config.NewConfigManager()
	require.NoError(t, cm.LoadConfig(cfgPath))
	db, err := database.Open(cm.GetConfig().Database)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return membermodule.NewMemberRepository(db)
}

func TestMigrate(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, cfgPath, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "migrated")
}

func TestMemberCreatePrintsToken(t *testing.T) {
	cfgPath := writeConfig(t)

	out, err := run(t, cfgPath, "member", "create", "--name", "Alice", "--email", "alice@example.com", "--role", auth.RoleCanManageTvShows)
	require.NoError(t, err)

	match := tokenLine.FindStringSubmatch(out)
	require.Len(t, match, 2)

	repo := openConfigured(t, cfgPath)
	caller, err := repo.CallerByTokenHash(context.Background(), auth.HashToken(match[1]))
	require.NoError(t, err)
	roles, err := repo.Roles(context.Background(), caller.MemberID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleCanManageTvShows}, roles)

	_, err = run(t, cfgPath, "member", "create", "--name", "Again", "--email", "alice@example.com")
	assert.ErrorIs(t, err, membermodule.ErrMemberExists)
}

func TestMemberRoles(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, cfgPath, "member", "create", "--name", "Bob", "--email", "bob@example.com")
	require.NoError(t, err)

	out, err := run(t, cfgPath, "member", "grant", "--email", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "granted "+auth.RoleCanManageTvShows)

	out, err = run(t, cfgPath, "member", "list", "--json")
	require.NoError(t, err)
	var members []membermodule.MemberSummary
	require.NoError(t, json.Unmarshal([]byte(out), &members))
	require.Len(t, members, 1)
	assert.Equal(t, []string{auth.RoleCanManageTvShows}, members[0].Roles)

	_, err = run(t, cfgPath, "member", "revoke", "--email", "bob@example.com")
	require.NoError(t, err)
	_, err = run(t, cfgPath, "member", "revoke", "--email", "bob@example.com")
	assert.ErrorIs(t, err, membermodule.ErrRoleNotGranted)

	_, err = run(t, cfgPath, "member", "grant", "--email", "nobody@example.com")
	assert.ErrorIs(t, err, membermodule.ErrMemberNotFound)
}

func TestMemberTokenRotation(t *testing.T) {
	cfgPath := writeConfig(t)
	out, err := run(t, cfgPath, "member", "create", "--name", "Carol", "--email", "carol@example.com")
	require.NoError(t, err)
	first := tokenLine.FindStringSubmatch(out)[1]

	out, err = run(t, cfgPath, "member", "token", "--email", "carol@example.com")
	require.NoError(t, err)
	second := tokenLine.FindStringSubmatch(out)[1]
	assert.NotEqual(t, first, second)

	repo := openConfigured(t, cfgPath)
	_, err = repo.CallerByTokenHash(context.Background(), auth.HashToken(first))
	assert.ErrorIs(t, err, auth.ErrUnknownToken)
	_, err = repo.CallerByTokenHash(context.Background(), auth.HashToken(second))
	assert.NoError(t, err)
}

func TestMemberListTable(t *testing.T) {
	cfgPath := writeConfig(t)
	_, err := run(t, cfgPath, "member", "create", "--name", "Dan", "--email", "dan@example.com")
	require.NoError(t, err)

	out, err := run(t, cfgPath, "member", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "EMAIL")
	assert.Contains(t, out, "dan@example.com")
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.yaml")

	out, err := run(t, path, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	cm := config.NewConfigManager()
	require.NoError(t, cm.LoadConfig(path))
	want, got := config.DefaultConfig(), cm.GetConfig()
	assert.Equal(t, want.Server.Port, got.Server.Port)
	assert.Equal(t, want.Server.ReadTimeout, got.Server.ReadTimeout)
	assert.Equal(t, want.Database.DatabasePath, got.Database.DatabasePath)
	assert.Equal(t, want.Security.RateLimitRPM, got.Security.RateLimitRPM)

	_, err = run(t, path, "config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, path, "config", "init", "--force")
	assert.NoError(t, err)
}
