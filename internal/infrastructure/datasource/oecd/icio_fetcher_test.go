package oecd

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EcoFootprint-Intelligence/internal/testutil"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
)

const tableCSV = `id,AUS_AGR,AUS_MIN,DEU_AGR,DEU_MIN
OUT,100,200,300,400
`

// zipWith returns a ZIP archive containing the named members.
func zipWith(t *testing.T, members map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestLoadTableUsesCacheWithoutFetching(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")
	require.NoError(t, os.WriteFile(cachePath, []byte(tableCSV), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("remote archive must not be fetched when the cache exists")
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 0, testutil.NewMockLogger())
	table, err := f.LoadTable(context.Background())
	require.NoError(t, err)

	out, ok := table.Row("OUT")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 200, 300, 400}, out)
}

func TestLoadTableFetchesExtractsAndCaches(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")
	archive := zipWith(t, map[string]string{
		"readme.txt":        "documentation",
		"ICIO2016_2011.csv": tableCSV,
	})

	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 0, nil)

	table, err := f.LoadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Len(t, table.Columns(), 4)

	// The extracted CSV must now be on disk, byte-identical to the member.
	cached, err := os.ReadFile(cachePath)
	require.NoError(t, err)
	assert.Equal(t, tableCSV, string(cached))

	// Second load hits the cache.
	_, err = f.LoadTable(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
}

func TestLoadTableFallsBackToFirstCSVMember(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")
	archive := zipWith(t, map[string]string{
		"data/some_other_name.CSV": tableCSV,
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 0, nil)
	table, err := f.LoadTable(context.Background())
	require.NoError(t, err)
	assert.Len(t, table.Columns(), 4)
}

func TestLoadTableArchiveWithoutCSV(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")
	archive := zipWith(t, map[string]string{"readme.txt": "nothing here"})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 0, nil)
	_, err := f.LoadTable(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestLoadTableCorruptArchive(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("definitely not a zip"))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 0, nil)
	_, err := f.LoadTable(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))

	// A failed extraction must not leave a cache file behind.
	_, statErr := os.Stat(cachePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLoadTableFetchFailsAfterRetries(t *testing.T) {
	dir := t.TempDir()
	cachePath := filepath.Join(dir, "ICIO2016_2011.csv")

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, cachePath, 5*time.Second, 1, nil)
	_, err := f.LoadTable(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceUnavailable))
	assert.Equal(t, 2, calls)
}
