package selfupdate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func releaseServer(t *testing.T, tag string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/abhisek/ladder/releases/latest" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"tag_name":"` + tag + `","html_url":"https://example.com/` + tag + `"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name    string
		current string
		latest  string
		want    bool
	}{
		{"newer release", "v1.0.0", "v1.1.0", true},
		{"same release", "v1.1.0", "v1.1.0", false},
		{"older release", "v2.0.0", "v1.9.9", false},
		{"missing v prefix", "1.0.0", "v1.0.1", true},
		{"unparseable current", "nightly", "v1.0.0", true},
		{"prerelease is older", "v1.0.0", "v1.0.0-rc.1", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := releaseServer(t, tt.latest)
			res, err := NewChecker(WithBaseURL(server.URL)).Check(context.Background(), &CheckInput{Version: tt.current})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.UpdateAvailable)
			assert.Equal(t, tt.latest, res.LatestVersion)
			assert.Equal(t, "https://example.com/"+tt.latest, res.ReleaseURL)
		})
	}
}

func TestCheck_Errors(t *testing.T) {
	t.Run("dev build", func(t *testing.T) {
		_, err := NewChecker().Check(context.Background(), &CheckInput{Version: DevVersion})
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("bad tag", func(t *testing.T) {
		server := releaseServer(t, "latest")
		_, err := NewChecker(WithBaseURL(server.URL)).Check(context.Background(), &CheckInput{Version: "v1.0.0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a semantic version")
	})

	t.Run("wrong repo", func(t *testing.T) {
		server := releaseServer(t, "v1.0.0")
		_, err := NewChecker(WithBaseURL(server.URL), WithRepo("someone", "else")).
			Check(context.Background(), &CheckInput{Version: "v1.0.0"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 404")
	})
}

func TestLatest(t *testing.T) {
	server := releaseServer(t, "v1.2.0")
	c := NewChecker(WithBaseURL(server.URL))

	got, err := c.Latest(context.Background(), "v1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "v1.2.0", got)

	got, err = c.Latest(context.Background(), "v1.2.0")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = c.Latest(context.Background(), DevVersion)
	require.NoError(t, err)
	assert.Empty(t, got)
}
