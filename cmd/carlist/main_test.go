package main

import (
	"bytes"
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/carrental-web/internal/auth"
	"github.com/ukydev/carrental-web/internal/models"
	"github.com/ukydev/carrental-web/internal/notify"
)

const testSecret = "cli-test-secret"

// setupEnv points the commands at a throwaway bolt store
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SESSION_BACKEND", "bolt")
	t.Setenv("SESSION_PATH", filepath.Join(dir, "session.db"))
	t.Setenv("API_BASE_URL", "http://127.0.0.1:1")
	t.Setenv("MQTT_BROKER", "")
	return filepath.Join(dir, "missing.env")
}

func run(t *testing.T, envFile, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--env-file", envFile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func issue(t *testing.T, role models.Role) string {
	t.Helper()
	token, err := auth.NewService(testSecret, time.Hour).GenerateToken(&models.User{ID: "u1", Username: "jane", Role: role})
	require.NoError(t, err)
	return token
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "browse", "session", "devapi"})
}

func TestSessionCmd_Lifecycle(t *testing.T) {
	envFile := setupEnv(t)

	out, err := run(t, envFile, "", "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	out, err = run(t, envFile, "", "session", "set", issue(t, models.RoleAdmin))
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as jane (admin)")

	out, err = run(t, envFile, "", "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "User: jane")
	assert.Contains(t, out, "Role: admin")

	out, err = run(t, envFile, "", "session", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out")

	out, err = run(t, envFile, "", "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")
}

func TestSessionCmd_SetFromStdin(t *testing.T) {
	envFile := setupEnv(t)

	out, err := run(t, envFile, issue(t, models.RoleUser)+"\n", "session", "set", "-")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as jane (user)")
}

func TestSessionCmd_SetRejectsInvalidToken(t *testing.T) {
	envFile := setupEnv(t)

	_, err := run(t, envFile, "", "session", "set", "not-a-token")
	assert.Error(t, err)

	_, err = run(t, envFile, "", "session", "set", "-")
	assert.Error(t, err)

	out, err := run(t, envFile, "", "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	envFile := setupEnv(t)
	t.Setenv("SESSION_BACKEND", "redis")

	_, err := run(t, envFile, "", "session", "show")
	assert.Error(t, err)
}

func TestRunHTTP_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- runHTTP(ctx, "127.0.0.1:0", http.NotFoundHandler())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestSessionCmd_ShowStaleToken(t *testing.T) {
	envFile := setupEnv(t)

	_, err := run(t, envFile, "", "session", "set", issue(t, models.RoleAdmin))
	require.NoError(t, err)

	t.Setenv("JWT_SECRET", "rotated-secret")

	out, err := run(t, envFile, "", "session", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "saved token of jane is no longer valid")
}

// stalledSender stands in for a broker that never acknowledges
type stalledSender struct {
	release chan struct{}
}

func (s *stalledSender) Send(context.Context, notify.Notification) error {
	<-s.release
	return nil
}

func (s *stalledSender) Name() string { return "mqtt" }

func TestApp_BrokerSendsDoNotBlockToasts(t *testing.T) {
	a := &app{envFile: setupEnv(t)}
	require.NoError(t, a.setup())

	stalled := &stalledSender{release: make(chan struct{})}
	a.broadcast.Register(stalled)

	done := make(chan struct{})
	go func() {
		a.dispatcher.Dispatch(context.Background(), notify.Success("Car deleted successfully").To("u1"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch waited for the broker")
	}
	assert.Len(t, a.flash.Drain("u1"), 1)

	close(stalled.release)
	a.broadcast.Wait()
}
