package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/capitalize-ai/aichat/internal/config"
	"github.com/capitalize-ai/aichat/internal/middleware"
	"github.com/capitalize-ai/aichat/internal/server"
	"github.com/capitalize-ai/aichat/pkg/logger"
)

type cli struct {
	t         *testing.T
	apiURL    string
	tokenFile string
}

type result struct {
	stdout string
	stderr string
	err    error
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	issuer, err := middleware.NewTokenIssuer("cli-test", time.Hour)
	require.NoError(t, err)
	h, err := server.NewRouter(server.Deps{
		Logger:       logger.NewNop(),
		Issuer:       issuer,
		PasswordCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &cli{
		t:         t,
		apiURL:    srv.URL + "/api",
		tokenFile: filepath.Join(t.TempDir(), "credentials.json"),
	}
}

// run executes one invocation; state carries over only through the token file.
func (c *cli) run(stdin string, args ...string) result {
	c.t.Helper()
	cfg := config.Defaults()
	cfg.APIBaseURL = c.apiURL
	cfg.TokenStore = "file"
	cfg.TokenFile = c.tokenFile
	cfg.LogLevel = "error"
	cfg.ReconcileDelay = time.Millisecond

	a := &app{cfg: cfg}
	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	a.close()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func (c *cli) signIn(name string) {
	c.t.Helper()
	res := c.run("", "register", "-u", name, "-p", "password1")
	require.NoError(c.t, res.err, res.stderr)
	res = c.run("", "login", "-u", name, "-p", "password1")
	require.NoError(c.t, res.err, res.stderr)
	require.Contains(c.t, res.stdout, "Logged in as "+name)
}

func TestGuardRequiresLogin(t *testing.T) {
	c := newCLI(t)

	for _, args := range [][]string{
		{"conversations", "list"},
		{"conversations", "trash"},
		{"roles"},
		{"whoami"},
		{"send", "hello"},
	} {
		res := c.run("", args...)
		assert.ErrorIs(t, res.err, errLoginRequired, args)
		assert.Contains(t, res.stderr, `Run "aichat login"`, args)
	}
}

func TestGuardRejectsLoginWhileSignedIn(t *testing.T) {
	c := newCLI(t)
	c.signIn("alice")

	res := c.run("", "login", "-u", "alice", "-p", "password1")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "already logged in as alice")

	res = c.run("", "logout")
	require.NoError(t, res.err)
	res = c.run("", "whoami")
	assert.ErrorIs(t, res.err, errLoginRequired)
}

func TestLoginPrompts(t *testing.T) {
	c := newCLI(t)
	res := c.run("bob\nsecret99\n", "register")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Registered bob")

	res = c.run("bob\nsecret99\n", "login")
	require.NoError(t, res.err, res.stderr)

	res = c.run("", "whoami")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "bob")
	assert.Contains(t, res.stdout, "session expires")
}

func TestWrongPasswordIsNotified(t *testing.T) {
	c := newCLI(t)
	res := c.run("", "register", "-u", "carol", "-p", "password1")
	require.NoError(t, res.err)

	res = c.run("", "login", "-u", "carol", "-p", "wrong")
	require.Error(t, res.err)
	assert.True(t, notified(res.err))
	assert.Contains(t, res.stderr, "[error]")
	assert.NotContains(t, res.stderr, `Run "aichat login"`)
}

func TestConversationWorkflow(t *testing.T) {
	c := newCLI(t)
	c.signIn("dave")

	res := c.run("", "conversations", "create")
	require.NoError(t, res.err, res.stderr)
	fields := strings.Split(strings.TrimSpace(res.stdout), "\t")
	require.Len(t, fields, 2)
	id := fields[0]
	assert.Equal(t, "New Chat", fields[1])

	res = c.run("", "send", "-c", id, "hello", "there")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Echo: hello there\n", res.stdout)

	res = c.run("", "conversations", "show", id)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "# hello there")
	assert.Contains(t, res.stdout, "[assistant]")

	res = c.run("", "conv", "delete", id)
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stderr, "Conversation moved to recycle bin")

	res = c.run("", "conversations", "list")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "No conversations")

	res = c.run("", "conversations", "trash")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "hello there")

	res = c.run("", "conversations", "restore", id)
	require.NoError(t, res.err, res.stderr)

	res = c.run("", "export", id, "--format", "text")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Echo: hello there")

	res = c.run("", "stats")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "messages:       2")
}

func TestSendWithoutConversation(t *testing.T) {
	c := newCLI(t)
	c.signIn("erin")

	res := c.run("", "send", "hi")
	require.Error(t, res.err)
	assert.True(t, notified(res.err))
	assert.Contains(t, res.stderr, "Please select a conversation first")

	res = c.run("", "send", "--new", "hi")
	require.NoError(t, res.err, res.stderr)
	assert.Equal(t, "Echo: hi\n", res.stdout)
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	c := newCLI(t)
	c.signIn("frank")

	res := c.run("", "export", "1", "--format", "pdf")
	require.Error(t, res.err)
	assert.False(t, notified(res.err))
}
