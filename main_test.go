package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quotes-scraper/config"
	"quotes-scraper/csvfile"
	"quotes-scraper/db"
)

const scenarioPage = `<html><body><div class="col-md-8">
<div class="quote"><span class="text">A</span><span>by <small class="author">Author1</small></span>
<div class="tags">Tags: <meta class="keywords" content="wisdom,life"><a class="tag" href="/tag/wisdom/">wisdom</a> <a class="tag" href="/tag/life/">life</a></div></div>
<div class="quote"><span class="text">B</span><span>by <small class="author">Author2</small></span>
<div class="tags">Tags: <meta class="keywords" content=""></div></div>
<nav><ul class="pager"></ul></nav>
</div></body></html>`

const noQuotesPage = `<html><body><div class="col-md-8">No quotes found!</div></body></html>`

// newSite serves scenarioPage as page 1 and the "No quotes found!" page beyond it
func newSite(t *testing.T, requests *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			atomic.AddInt32(requests, 1)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/page/1/":
			fmt.Fprint(w, scenarioPage)
		case "/page/2/", "/page/3/":
			fmt.Fprint(w, noQuotesPage)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL, output string) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.BaseURL = baseURL + "/"
	cfg.Output = output
	cfg.Log.Level = "error"
	return cfg
}

func TestRun_Scenario(t *testing.T) {
	var requests int32
	srv := newSite(t, &requests)
	out := filepath.Join(t.TempDir(), "out", "result.csv")

	require.NoError(t, run(context.Background(), testConfig(srv.URL, out)))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, []string{"text,author,tags", `A,Author1,"wisdom,life"`, "B,Author2,"}, lines)

	// page 1 plus the empty page 2, nothing more
	assert.EqualValues(t, 2, atomic.LoadInt32(&requests))
}

func TestRun_IdenticalOutputAcrossRuns(t *testing.T) {
	srv := newSite(t, nil)
	dir := t.TempDir()

	for _, kind := range []string{"colly", "resty"} {
		first := filepath.Join(dir, kind+"-first.csv")
		second := filepath.Join(dir, kind+"-second.csv")

		cfg := testConfig(srv.URL, first)
		cfg.Fetcher.Kind = kind
		require.NoError(t, run(context.Background(), cfg))

		cfg.Output = second
		require.NoError(t, run(context.Background(), cfg))

		a, err := os.ReadFile(first)
		require.NoError(t, err)
		b, err := os.ReadFile(second)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(a, b), "fetcher %s produced different files", kind)
	}
}

func TestRun_LinkBasedTermination(t *testing.T) {
	var requests int32
	srv := newSite(t, &requests)
	out := filepath.Join(t.TempDir(), "result.csv")

	cfg := testConfig(srv.URL, out)
	cfg.Termination = config.TerminateOnLastLink
	cfg.TagsFrom = config.TagsFromLabel
	require.NoError(t, run(context.Background(), cfg))

	quotes, err := csvfile.ReadQuotes(out)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, []string{"wisdom", "life"}, quotes[0].Tags)
	assert.Empty(t, quotes[1].Tags)

	// page 1, then page 2 twice
	assert.EqualValues(t, 3, atomic.LoadInt32(&requests))
}

func TestRun_FailureWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/page/1/" {
			fmt.Fprint(w, scenarioPage)
			return
		}
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	out := filepath.Join(t.TempDir(), "result.csv")
	err := run(context.Background(), testConfig(srv.URL, out))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file after a failed crawl")
}

func TestRun_SavesToStore(t *testing.T) {
	srv := newSite(t, nil)
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "quotes.db")

	cfg := testConfig(srv.URL, filepath.Join(dir, "result.csv"))
	cfg.Store = config.StoreConfig{Driver: "sqlite", DSN: dbPath}
	require.NoError(t, run(context.Background(), cfg))

	store, err := db.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer store.Close()

	latest, err := store.LatestRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.QuoteCount)
	assert.Equal(t, 1, latest.Pages)

	quotes, err := store.GetRunQuotes(context.Background(), latest.ID)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "Author1", quotes[0].Author)
}

func TestRun_SinkFailuresDoNotFailRun(t *testing.T) {
	srv := newSite(t, nil)
	dir := t.TempDir()

	cfg := testConfig(srv.URL, filepath.Join(dir, "result.csv"))
	cfg.Store = config.StoreConfig{Driver: "sqlite", DSN: filepath.Join(dir, "missing-dir", "quotes.db")}
	cfg.Sheets.SpreadsheetURL = "https://example.com/not-a-sheet"

	assert.NoError(t, run(context.Background(), cfg))
}

func TestRootCmd_OutputArgument(t *testing.T) {
	srv := newSite(t, nil)
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf("base_url: %s/\nlog:\n  level: error\n", srv.URL)), 0o644))

	out := filepath.Join(dir, "cli.csv")
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--config", configPath, out})
	require.NoError(t, cmd.Execute())

	quotes, err := csvfile.ReadQuotes(out)
	require.NoError(t, err)
	assert.Len(t, quotes, 2)
}

func TestRootCmd_RejectsExtraArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"a.csv", "b.csv"})
	assert.Error(t, cmd.Execute())
}

func TestLoadConfig_DefaultsWithoutPath(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, config.DefaultOutput, cfg.Output)
}
