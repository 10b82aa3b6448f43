package models

import (
	"testing"
	"time"

	"cadview/db"

	"github.com/stretchr/testify/require"
)

const (
	firefoxAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	chromeAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.0.0"
)

func TestDetectBrowser(t *testing.T) {
	tests := []struct {
		agent string
		want  string
	}{
		{firefoxAgent, "Firefox"},
		{chromeAgent, "Chrome"},
		{edgeAgent, "Edge"},
		{"Mozilla/5.0 (Macintosh) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15", "Safari"},
		{"Opera/9.80 (Windows NT 6.0) Presto/2.12.388 Version/12.14", "Opera"},
		{"Mozilla/5.0 (compatible; MSIE 10.0; Windows NT 6.1; Trident/6.0)", "Internet Explorer"},
		{"curl/8.4.0", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := DetectBrowser(tt.agent); got != tt.want {
				t.Errorf("DetectBrowser(%q) = %q, want %q", tt.agent, got, tt.want)
			}
		})
	}
}

func TestComputeViewStats_Empty(t *testing.T) {
	setupTestDB(t)
	stats, err := ComputeViewStats(42)
	require.NoError(t, err)
	require.Equal(t, 0, stats.TotalViews)
	require.Equal(t, 0, stats.UniqueIPs)
	require.Nil(t, stats.FirstView)
	require.Nil(t, stats.LastView)
	require.Empty(t, stats.ViewDetails)
	require.Empty(t, stats.IPAddresses)
	require.Empty(t, stats.BrowserStats)
}

func TestRecordViewAndComputeStats(t *testing.T) {
	bucket := setupTestDB(t)
	m := Model{Filename: "bracket.step", Format: "STEP", BucketID: bucket.ID}
	require.NoError(t, db.Instance.Create(&m).Error)

	firefox := firefoxAgent
	chrome := chromeAgent
	base := time.Now().Unix()
	events := []ViewEvent{
		{ModelID: m.ID, ShareID: strPtr("abc"), IPAddress: "10.0.0.1", UserAgent: &firefox, ViewedAt: base - 30},
		{ModelID: m.ID, ShareID: strPtr("abc"), IPAddress: "10.0.0.1", UserAgent: &firefox, ViewedAt: base - 20},
		{ModelID: m.ID, ShareID: strPtr("abc"), IPAddress: "10.0.0.2", UserAgent: &chrome, ViewedAt: base - 10, Authenticated: true},
		{ModelID: m.ID, IPAddress: "10.0.0.3", ViewedAt: base},
	}
	for i := range events {
		require.NoError(t, db.Instance.Create(&events[i]).Error)
	}

	stats, err := ComputeViewStats(m.ID)
	require.NoError(t, err)
	require.Equal(t, 4, stats.TotalViews)
	require.Equal(t, 3, stats.UniqueIPs)
	require.NotNil(t, stats.FirstView)
	require.NotNil(t, stats.LastView)
	require.Len(t, stats.ViewDetails, 4)

	// Newest first
	require.Equal(t, "10.0.0.3", stats.ViewDetails[0].IPAddress)
	require.Equal(t, "10.0.0.1", stats.ViewDetails[3].IPAddress)
	require.True(t, stats.ViewDetails[1].Authenticated)

	counts := map[string]int{}
	for _, ip := range stats.IPAddresses {
		counts[ip.Address] = ip.Count
	}
	require.Equal(t, map[string]int{"10.0.0.1": 2, "10.0.0.2": 1, "10.0.0.3": 1}, counts)

	browsers := map[string]int{}
	for _, b := range stats.BrowserStats {
		browsers[b.Name] = b.Count
	}
	require.Equal(t, map[string]int{"Firefox": 2, "Chrome": 1}, browsers)
}

func TestRecordView_Appends(t *testing.T) {
	bucket := setupTestDB(t)
	m := Model{Filename: "part.stl", Format: "STL", BucketID: bucket.ID}
	require.NoError(t, db.Instance.Create(&m).Error)
	RecordView(m.ID, nil, "10.0.0.1", nil, false)
	var count int64
	require.NoError(t, db.Instance.Model(&ViewEvent{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}
