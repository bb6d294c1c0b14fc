package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/tradevault/backend/src/logger"
	"golang.org/x/net/publicsuffix"
)

const ckMarketNews = "market_news_week"

// calendarEntryResponse mirrors one entry of the weekly economic calendar feed.
type calendarEntryResponse struct {
	Title    string `json:"title"`
	Country  string `json:"country"`
	Date     string `json:"date"`
	Impact   string `json:"impact"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

func (c calendarEntryResponse) empty() bool {
	return c.Title == "" || c.Country == "" || c.Date == ""
}

// MarketNewsEntry is one piece of news within a time slot.
type MarketNewsEntry struct {
	Content  string `json:"content"`
	Severity string `json:"severity"`
	Country  string `json:"country"`
	Forecast string `json:"forecast"`
	Previous string `json:"previous"`
}

// MarketNewsSlot groups entries released at the same time of day.
type MarketNewsSlot struct {
	Time    string            `json:"time"`
	Entries []MarketNewsEntry `json:"entries"`
}

// MarketNewsDay is one calendar day of news slots.
type MarketNewsDay struct {
	Date  string           `json:"date"`
	Slots []MarketNewsSlot `json:"slots"`
}

// NewsService fetches the weekly market news calendar.
type NewsService interface {
	GetMarketNews() ([]MarketNewsDay, error)
}

type newsServiceImpl struct {
	httpClient  *http.Client
	calendarURL string
	newsCache   *cache.Cache
	cacheExpiry time.Duration
}

// NewNewsService creates the news service. The HTTP client carries a cookie
// jar because the calendar host sets session cookies on the first request.
func NewNewsService(calendarURL string, timeout, cacheExpiry time.Duration) NewsService {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		logger.L.Error("Failed to create cookie jar", "error", err)
	}

	return &newsServiceImpl{
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		calendarURL: calendarURL,
		newsCache:   cache.New(cacheExpiry, 2*cacheExpiry),
		cacheExpiry: cacheExpiry,
	}
}

func (s *newsServiceImpl) GetMarketNews() ([]MarketNewsDay, error) {
	if cached, found := s.newsCache.Get(ckMarketNews); found {
		logger.L.Debug("Cache hit for market news")
		return cached.([]MarketNewsDay), nil
	}

	entries, err := s.fetchCalendar()
	if err != nil {
		return nil, err
	}

	days := groupNewsByDay(entries)
	s.newsCache.Set(ckMarketNews, days, s.cacheExpiry)
	return days, nil
}

func (s *newsServiceImpl) fetchCalendar() ([]calendarEntryResponse, error) {
	req, err := http.NewRequest(http.MethodGet, s.calendarURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building calendar request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; TradeVault/1.0)")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching market news calendar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market news calendar returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading calendar response: %w", err)
	}

	var entries []calendarEntryResponse
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("error decoding calendar response: %w", err)
	}

	logger.L.Info("Fetched market news calendar", "entries", len(entries))
	return entries, nil
}

// groupNewsByDay converts raw calendar entries into day → slot → entry form,
// dropping incomplete entries and sorting days and slots chronologically.
func groupNewsByDay(entries []calendarEntryResponse) []MarketNewsDay {
	type slotKey struct {
		day  string
		time string
	}

	slotEntries := make(map[slotKey][]MarketNewsEntry)
	for _, entry := range entries {
		if entry.empty() {
			continue
		}
		ts, err := time.Parse(time.RFC3339, entry.Date)
		if err != nil {
			logger.L.Warn("Skipping news entry with unparsable date", "date", entry.Date, "error", err)
			continue
		}
		key := slotKey{day: ts.Format("2006-01-02"), time: ts.Format("15:04")}
		slotEntries[key] = append(slotEntries[key], MarketNewsEntry{
			Content:  entry.Title,
			Severity: severityFromImpact(entry.Impact),
			Country:  entry.Country,
			Forecast: entry.Forecast,
			Previous: entry.Previous,
		})
	}

	daySlots := make(map[string][]MarketNewsSlot)
	for key, list := range slotEntries {
		daySlots[key.day] = append(daySlots[key.day], MarketNewsSlot{Time: key.time, Entries: list})
	}

	days := make([]MarketNewsDay, 0, len(daySlots))
	for day, slots := range daySlots {
		sort.Slice(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
		days = append(days, MarketNewsDay{Date: day, Slots: slots})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	return days
}

func severityFromImpact(impact string) string {
	switch strings.ToLower(impact) {
	case "high":
		return "SEVERE"
	case "medium":
		return "MODERATE"
	case "low":
		return "LOW"
	default:
		return "NONE"
	}
}
