package crates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/crateprov/crateprov/internal/errors"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	t.Parallel()

	archive := buildArchive(t, "semver", "1.0.4", []archiveEntry{
		{path: ".cargo_vcs_info.json", data: validVCSInfo},
		{path: "src/lib.rs", data: "// lib\n"},
	})

	var gotPath, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	fetcher, err := NewHTTPFetcher(
		hclog.NewNullLogger(),
		WithBaseURL(srv.URL),
		WithUserAgent("crateprov-test"),
	)
	require.NoError(t, err)

	artifact, err := fetcher.Fetch(context.Background(), "semver", "1.0.4")
	require.NoError(t, err)

	assert.Equal(t, "/semver/semver-1.0.4.crate", gotPath)
	assert.Equal(t, "crateprov-test", gotUA)
	assert.Equal(t, "ea9ea80c023ba3913b2ab0a1c1d0a3bf7e6c6db5", artifact.DeclaredRevision)
	require.Len(t, artifact.Files, 1)
	assert.Equal(t, "src/lib.rs", artifact.Files[0].Path)
}

func TestHTTPFetcher_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{
			name:    "forbidden is excluded from classification",
			status:  http.StatusForbidden,
			wantErr: errs.ErrCrateForbidden,
		},
		{
			name:    "not found",
			status:  http.StatusNotFound,
			wantErr: errs.ErrCrateNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			fetcher, err := NewHTTPFetcher(hclog.NewNullLogger(), WithBaseURL(srv.URL))
			require.NoError(t, err)

			_, err = fetcher.Fetch(context.Background(), "some-crate", "0.1.0")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHTTPFetcher_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher, err := NewHTTPFetcher(hclog.NewNullLogger(), WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = fetcher.Fetch(context.Background(), "some-crate", "0.1.0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, errs.ErrCrateForbidden)
	assert.NotErrorIs(t, err, errs.ErrCrateNotFound)
}

func TestNewFetcherOptions_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewFetcherOptions(WithBaseURL("  "))
	require.Error(t, err)

	_, err = NewFetcherOptions(WithHTTPClient(nil))
	require.Error(t, err)

	_, err = NewFetcherOptions(WithUserAgent(""))
	require.Error(t, err)

	_, err = NewFetcherOptions(WithExtensions(nil))
	require.Error(t, err)
}
