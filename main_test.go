package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/motus/internal/config"
	"github.com/robalobadob/motus/internal/leaderboard"
)

func testConfig(t *testing.T, apiURL string) config.Client {
	t.Helper()
	color.NoColor = true
	return config.Client{
		APIURL:      apiURL,
		HTTPTimeout: 5 * time.Second,
		StatePath:   filepath.Join(t.TempDir(), "motus.ini"),
	}
}

func TestCheck(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(testConfig(t, "http://unused"), []string{"check", "llama", "alarm"}, &out))
	assert.Equal(t, " L  L  A  M  A \nabsent correct correct present present\n", out.String())

	out.Reset()
	require.NoError(t, run(testConfig(t, "http://unused"), []string{"check", "PLANE", "plane"}, &out))
	assert.Contains(t, out.String(), "Found!")

	assert.Error(t, run(testConfig(t, "http://unused"), []string{"check", "ABC", "ABCD"}, &out))
	assert.ErrorIs(t, run(testConfig(t, "http://unused"), []string{"check", "ABC"}, &out), errUsage)
}

func TestLeaderboardCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/leaderboard", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"leaderboard": []leaderboard.Entry{
			{Username: "bob", TotalScore: 1520, HardWins: 2},
			{Username: "alice", TotalScore: 2850, HardWins: 1},
		}})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	var out bytes.Buffer
	require.NoError(t, run(testConfig(t, ts.URL), []string{"leaderboard"}, &out))
	assert.Contains(t, out.String(), "Overall Rankings")
	assert.Contains(t, out.String(), "1. alice")
	assert.Contains(t, out.String(), "2,850 pts")

	out.Reset()
	require.NoError(t, run(testConfig(t, ts.URL), []string{"leaderboard", "-c", "hard"}, &out))
	assert.Contains(t, out.String(), "Hard Mode Rankings")
	assert.Contains(t, out.String(), "1. bob")

	assert.Error(t, run(testConfig(t, ts.URL), []string{"leaderboard", "-c", "extreme"}, &out))
}

func TestWhoamiAndLogoutWhenSignedOut(t *testing.T) {
	cfg := testConfig(t, "http://unused")
	var out bytes.Buffer
	require.NoError(t, run(cfg, []string{"whoami"}, &out))
	assert.Equal(t, "Not signed in.\n", out.String())

	out.Reset()
	require.NoError(t, run(cfg, []string{"logout"}, &out))
	assert.Equal(t, "Signed out.\n", out.String())
}

func TestUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorIs(t, run(testConfig(t, "http://unused"), []string{"dance"}, &out), errUsage)
}
