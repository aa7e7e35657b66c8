package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveReport_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := Report{
		Target:      "https://shop.example.com/cart/",
		Stylesheets: []string{"https://shop.example.com/app.css"},
		Candidates:  3,
		Matched:     []string{".cart"},
		Unmatched:   []string{".promo", ".legacy"},
	}

	path, err := SaveReport(dir, r)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "shop.example.com"), filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "cart_"))

	got, err := ReadReport(path)
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestSaveReport_SameContentSameFile(t *testing.T) {
	dir := t.TempDir()
	r := Report{Target: "https://a.test/", Matched: []string{"#a"}}

	p1, err := SaveReport(dir, r)
	require.NoError(t, err)
	p2, err := SaveReport(dir, r)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)

	r.Matched = []string{"#b"}
	p3, err := SaveReport(dir, r)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p3)

	paths, err := ListReports(dir)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestReportPath(t *testing.T) {
	tests := []struct {
		name   string
		report Report
		want   string
	}{
		{name: "url root", report: Report{Target: "https://a.test/"}, want: filepath.Join("out", "a.test", "index_0123456789ab.yaml")},
		{name: "local file", report: Report{Target: "/tmp/pages/home.html"}, want: filepath.Join("out", "local", "home.html_0123456789ab.yaml")},
		{name: "explicit name", report: Report{Name: "landing page", Target: "https://a.test/x"}, want: filepath.Join("out", "a.test", "landing_page_0123456789ab.yaml")},
		{name: "stdin", report: Report{Target: "-"}, want: filepath.Join("out", "local", "stdin_0123456789ab.yaml")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReportPath("out", tt.report, "0123456789abcdef"))
		})
	}
}
