package main

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("TEAMCHAT_EMAIL", "")
	t.Setenv("TEAMCHAT_PASSWORD", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--email", "lead@example.com"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.ErrorContains(t, cmd.Execute(), "email and password are required")
}

func TestRootCmd_FlagDefaultsFromEnv(t *testing.T) {
	t.Setenv("TEAMCHAT_EMAIL", "lead@example.com")
	t.Setenv("TEAMCHAT_PASSWORD", "password1")

	flags := newRootCmd().Flags()

	email := flags.Lookup("email")
	require.NotNil(t, email)
	assert.Equal(t, "lead@example.com", email.DefValue)

	server := flags.Lookup("server")
	require.NotNil(t, server)
	assert.Equal(t, "http://localhost:8080", server.DefValue)
}

func TestRootCmd_RejectsPositionalArgs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"general"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.ErrorContains(t, cmd.Execute(), `unknown command "general"`)
}
