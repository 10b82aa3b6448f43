package models

import (
	"log"
	"sort"
	"strings"
	"time"

	"cadview/db"
	"cadview/utils"
)

// ViewEvent is one access to a model's content. Append-only: rows are never
// updated, and only removed when the model itself is deleted.
type ViewEvent struct {
	ID            uint64  `gorm:"primaryKey"`
	ModelID       uint64  `gorm:"not null;index"`
	Model         Model   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ShareID       *string `gorm:"type:varchar(100)"` // nil when viewed by the owner/admin outside the share path
	IPAddress     string  `gorm:"type:varchar(64);not null"`
	UserAgent     *string `gorm:"type:varchar(255)"`
	ViewedAt      int64   `gorm:"not null"`
	Authenticated bool    // the viewer passed a share password challenge
}

// RecordView appends a view event. Best effort: a failure is logged and
// must never fail the request that delivered the content.
func RecordView(modelID uint64, shareID *string, ipAddress string, userAgent *string, authenticated bool) {
	event := ViewEvent{
		ModelID:       modelID,
		ShareID:       shareID,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		ViewedAt:      time.Now().Unix(),
		Authenticated: authenticated,
	}
	if err := db.Instance.Create(&event).Error; err != nil {
		log.Printf("RecordView: model %d: %v", modelID, err)
	}
}

type ViewDetail struct {
	IPAddress     string  `json:"ipAddress"`
	UserAgent     *string `json:"userAgent,omitempty"`
	ViewedAt      string  `json:"viewedAt"`
	Authenticated bool    `json:"authenticated"`
}

type IPAddressStat struct {
	Address  string  `json:"address"`
	Count    int     `json:"count"`
	LastView *string `json:"lastView,omitempty"`
}

type BrowserStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type ViewStats struct {
	TotalViews   int             `json:"totalViews"`
	UniqueIPs    int             `json:"uniqueIPs"`
	FirstView    *string         `json:"firstView,omitempty"`
	LastView     *string         `json:"lastView,omitempty"`
	ViewDetails  []ViewDetail    `json:"viewDetails"`
	IPAddresses  []IPAddressStat `json:"ipAddresses"`
	BrowserStats []BrowserStat   `json:"browserStats"`
}

// ComputeViewStats derives aggregate statistics from the view log at read
// time. No counters are maintained, so the result is always consistent
// with the log.
func ComputeViewStats(modelID uint64) (ViewStats, error) {
	stats := ViewStats{
		ViewDetails:  []ViewDetail{},
		IPAddresses:  []IPAddressStat{},
		BrowserStats: []BrowserStat{},
	}
	var events []ViewEvent
	err := db.Instance.
		Where("model_id = ?", modelID).
		Order("viewed_at DESC, id DESC").
		Find(&events).Error
	if err != nil {
		return stats, err
	}
	stats.TotalViews = len(events)
	if len(events) == 0 {
		return stats, nil
	}

	first := utils.UnixToISO(events[len(events)-1].ViewedAt)
	last := utils.UnixToISO(events[0].ViewedAt)
	stats.FirstView = &first
	stats.LastView = &last

	ipCounts := map[string]*IPAddressStat{}
	ipOrder := []string{}
	browserCounts := map[string]int{}
	for _, event := range events {
		ip := ipCounts[event.IPAddress]
		if ip == nil {
			// Events are newest-first, so the first one seen per IP is its last view
			lastView := utils.UnixToISO(event.ViewedAt)
			ip = &IPAddressStat{Address: event.IPAddress, LastView: &lastView}
			ipCounts[event.IPAddress] = ip
			ipOrder = append(ipOrder, event.IPAddress)
		}
		ip.Count++
		if event.UserAgent != nil {
			browserCounts[DetectBrowser(*event.UserAgent)]++
		}
		stats.ViewDetails = append(stats.ViewDetails, ViewDetail{
			IPAddress:     event.IPAddress,
			UserAgent:     event.UserAgent,
			ViewedAt:      utils.UnixToISO(event.ViewedAt),
			Authenticated: event.Authenticated,
		})
	}
	stats.UniqueIPs = len(ipCounts)
	for _, address := range ipOrder {
		stats.IPAddresses = append(stats.IPAddresses, *ipCounts[address])
	}
	for name, count := range browserCounts {
		stats.BrowserStats = append(stats.BrowserStats, BrowserStat{Name: name, Count: count})
	}
	sort.Slice(stats.BrowserStats, func(i, j int) bool {
		if stats.BrowserStats[i].Count != stats.BrowserStats[j].Count {
			return stats.BrowserStats[i].Count > stats.BrowserStats[j].Count
		}
		return stats.BrowserStats[i].Name < stats.BrowserStats[j].Name
	})
	return stats, nil
}

// DetectBrowser is a coarse keyword heuristic; anything ambiguous is "Other"
func DetectBrowser(userAgent string) string {
	userAgent = strings.ToLower(userAgent)
	switch {
	case strings.Contains(userAgent, "firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "edg"):
		return "Edge"
	case strings.Contains(userAgent, "opera"), strings.Contains(userAgent, "opr"):
		return "Opera"
	case strings.Contains(userAgent, "chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "safari"):
		return "Safari"
	case strings.Contains(userAgent, "msie"), strings.Contains(userAgent, "trident"):
		return "Internet Explorer"
	}
	return "Other"
}
