package meta

import (
	"context"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/adspilot/metads-assistant/internal/config"
)

// CampaignHealth pairs a campaign with its health evaluation.
type CampaignHealth struct {
	Campaign     Campaign `json:"campaign"`
	Status       string   `json:"status"`
	StatusReason string   `json:"status_reason"`
}

// TodaySummary aggregates today's delivery across an account.
type TodaySummary struct {
	Timestamp   time.Time `json:"timestamp"`
	Spend       float64   `json:"spend"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	Reach       int64     `json:"reach"`
	CTR         float64   `json:"ctr"`
	CPC         float64   `json:"cpc"`
}

// Collector polls a single ad account for realtime data. Each account gets
// its own collector so a slow or broken account never blocks the others.
type Collector struct {
	client    *Client
	token     string
	accountID string
	config    config.PollingConfig

	mu              sync.RWMutex
	latestInsights  []Insight
	latestCampaigns []CampaignHealth
	latestSummary   *TodaySummary
	lastFetch       time.Time
	isRunning       bool
}

// NewCollector creates a realtime collector for one ad account.
func NewCollector(client *Client, token, accountID string, cfg config.PollingConfig) *Collector {
	return &Collector{
		client:    client,
		token:     token,
		accountID: accountID,
		config:    cfg,
	}
}

// Start begins the polling loop. It blocks until ctx is cancelled.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	c.isRunning = true
	c.mu.Unlock()

	log.Printf("Starting realtime collector for %s...", c.accountID)

	// Initial fetch
	c.fetchAll(ctx)

	ticker := time.NewTicker(c.config.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("Stopping realtime collector for %s...", c.accountID)
			c.mu.Lock()
			c.isRunning = false
			c.mu.Unlock()
			return
		case <-ticker.C:
			c.fetchAll(ctx)
		}
	}
}

func (c *Collector) fetchAll(ctx context.Context) {
	startTime := time.Now()

	var wg sync.WaitGroup

	type fetchResult struct {
		name string
		err  error
	}
	results := make(chan fetchResult, 2)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- fetchResult{name: "insights", err: c.fetchInsights(ctx)}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		results <- fetchResult{name: "campaigns", err: c.fetchCampaigns(ctx)}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	successCount := 0
	for result := range results {
		if result.err != nil {
			log.Printf("Error fetching %s for %s: %v", result.name, c.accountID, result.err)
		} else {
			successCount++
		}
	}

	c.mu.Lock()
	c.lastFetch = time.Now()
	c.mu.Unlock()

	log.Printf("Realtime fetch for %s completed in %v (%d/2 successful)", c.accountID, time.Since(startTime), successCount)
}

func (c *Collector) fetchInsights(ctx context.Context) error {
	insights, err := c.client.TodayInsights(ctx, c.token, c.accountID)
	if err != nil {
		return err
	}

	summary := summarizeInsights(insights)

	c.mu.Lock()
	c.latestInsights = insights
	c.latestSummary = summary
	c.mu.Unlock()

	return nil
}

func (c *Collector) fetchCampaigns(ctx context.Context) error {
	campaigns, err := c.client.Campaigns(ctx, c.token, c.accountID)
	if err != nil {
		return err
	}

	health := make([]CampaignHealth, 0, len(campaigns))
	for _, campaign := range campaigns {
		status, reason := EvaluateCampaignHealth(campaign)
		health = append(health, CampaignHealth{
			Campaign:     campaign,
			Status:       status,
			StatusReason: reason,
		})
	}

	c.mu.Lock()
	c.latestCampaigns = health
	c.mu.Unlock()

	return nil
}

// Health evaluation thresholds for delivering campaigns.
const (
	healthMinCTR   = 1.0
	healthMaxCPC   = 2.0
	healthMinReach = 10000
)

// EvaluateCampaignHealth flags campaigns with weak delivery numbers.
func EvaluateCampaignHealth(campaign Campaign) (status, reason string) {
	ctr := ParseMetric(campaign.CTR)
	cpc := ParseMetric(campaign.CPC)
	impressions := int64(ParseMetric(campaign.Impressions))

	switch {
	case ctr > 0 && ctr < healthMinCTR:
		return "warning", "CTR below 1.0%"
	case cpc > healthMaxCPC:
		return "warning", "CPC above $2.00"
	case impressions > 0 && impressions < healthMinReach:
		return "warning", "Low reach"
	default:
		return "healthy", ""
	}
}

func summarizeInsights(insights []Insight) *TodaySummary {
	summary := &TodaySummary{Timestamp: time.Now()}
	for _, ins := range insights {
		summary.Spend += ParseMetric(ins.Spend)
		summary.Impressions += int64(ParseMetric(ins.Impressions))
		summary.Clicks += int64(ParseMetric(ins.Clicks))
		summary.Reach += int64(ParseMetric(ins.Reach))
	}
	if summary.Impressions > 0 {
		summary.CTR = float64(summary.Clicks) / float64(summary.Impressions) * 100
	}
	if summary.Clicks > 0 {
		summary.CPC = summary.Spend / float64(summary.Clicks)
	}
	return summary
}

// ParseMetric converts a Graph API numeric string to a float. Absent or
// malformed values count as zero.
func ParseMetric(s string) float64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// GetLatestInsights returns today's insight rows from the last poll.
func (c *Collector) GetLatestInsights() []Insight {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestInsights
}

// GetLatestCampaigns returns the last polled campaigns with health status.
func (c *Collector) GetLatestCampaigns() []CampaignHealth {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestCampaigns
}

// GetLatestSummary returns today's aggregated account summary.
func (c *Collector) GetLatestSummary() *TodaySummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latestSummary
}

// GetLastFetchTime returns the time of the last fetch attempt.
func (c *Collector) GetLastFetchTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastFetch
}

// IsRunning returns whether the polling loop is active.
func (c *Collector) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isRunning
}

// FetchNow triggers an immediate fetch outside the ticker schedule.
func (c *Collector) FetchNow(ctx context.Context) {
	c.fetchAll(ctx)
}

// Monitor supervises one collector per monitored ad account.
type Monitor struct {
	client *Client
	config config.PollingConfig

	mu         sync.Mutex
	collectors map[string]*Collector
	cancels    map[string]context.CancelFunc
}

// NewMonitor creates an empty realtime monitor.
func NewMonitor(client *Client, cfg config.PollingConfig) *Monitor {
	return &Monitor{
		client:     client,
		config:     cfg,
		collectors: make(map[string]*Collector),
		cancels:    make(map[string]context.CancelFunc),
	}
}

// Watch starts a collector for the account if one is not already running
// and returns it. The token is captured at start; watching the same account
// again with a new token restarts its collector.
func (m *Monitor) Watch(ctx context.Context, token, accountID string) *Collector {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.collectors[accountID]; ok {
		if existing.token == token {
			return existing
		}
		m.cancels[accountID]()
	}

	collector := NewCollector(m.client, token, accountID, m.config)
	collectorCtx, cancel := context.WithCancel(ctx)
	m.collectors[accountID] = collector
	m.cancels[accountID] = cancel

	go collector.Start(collectorCtx)

	return collector
}

// Get returns the collector for an account, or nil if none is running.
func (m *Monitor) Get(accountID string) *Collector {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collectors[accountID]
}

// Stop cancels every running collector.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cancel := range m.cancels {
		cancel()
		delete(m.cancels, id)
		delete(m.collectors, id)
	}
}
