package crawler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sjsage522/oddsworker/internal/page"
	"sjsage522/oddsworker/services/cache"

	"github.com/stretchr/testify/require"
)

// route maps a page name and a clicked link text to the next page name
type route map[string]map[string]string

// directRoute reaches Tokyo day 2 race 11 through the open odds menu
func directRoute() route {
	return route{
		"home":            {"オッズ": "odds_landing"},
		"odds_landing":    {"2回東京2日": "meeting"},
		"meeting":         {"11レース": "win_place"},
		"win_place":       {"単勝・複勝": "win_place", "馬連": "quinella"},
		"quinella":        {"単勝・複勝": "win_place", "馬連": "quinella"},
		"race_result":     {"オッズ": "win_place"},
		"results_landing": {"2回東京2日": "meeting"},
	}
}

// fallbackRoute reaches the same race through the results listing
func fallbackRoute() route {
	r := directRoute()
	r["home"] = map[string]string{"オッズ": "odds_landing_no_meeting"}
	r["odds_landing_no_meeting"] = map[string]string{"過去のレース結果": "results_landing"}
	r["meeting"] = map[string]string{"11レース": "race_result"}
	return r
}

// MockSession serves fixture pages and follows scripted clicks
type MockSession struct {
	mu       sync.Mutex
	pages    map[string]string
	routes   route
	current  string
	clicks   []page.Link
	visited  []string
	closed   int
	clickErr error
}

var _ Session = (*MockSession)(nil)

func NewMockSession(t *testing.T, routes route) *MockSession {
	t.Helper()
	pages := make(map[string]string)
	for _, name := range []string{
		"home", "odds_landing", "odds_landing_no_meeting", "results_landing",
		"meeting", "race_result", "win_place", "quinella",
	} {
		data, err := os.ReadFile(filepath.Join("..", "page", "testdata", name+".html"))
		require.NoError(t, err)
		pages[name] = string(data)
	}
	return &MockSession{pages: pages, routes: routes}
}

func (m *MockSession) Navigate(ctx context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = "home"
	m.visited = append(m.visited, m.current)
	return ctx.Err()
}

func (m *MockSession) Click(ctx context.Context, link page.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.clickErr != nil {
		return m.clickErr
	}
	next, ok := m.routes[m.current][link.Text]
	if !ok {
		return fmt.Errorf("no route from %s via %q", m.current, link.Text)
	}
	m.clicks = append(m.clicks, link)
	m.current = next
	m.visited = append(m.visited, next)
	return ctx.Err()
}

func (m *MockSession) HTML(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, ok := m.pages[m.current]
	if !ok {
		return "", fmt.Errorf("unknown page %q", m.current)
	}
	return html, nil
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return nil
}

func (m *MockSession) clickedTexts() []string {
	texts := make([]string, 0, len(m.clicks))
	for _, l := range m.clicks {
		texts = append(texts, l.Text)
	}
	return texts
}

// MockBrowser hands out the same session every time
type MockBrowser struct {
	session  *MockSession
	err      error
	sessions int
}

var _ Browser = (*MockBrowser)(nil)

func (b *MockBrowser) NewSession(context.Context) (Session, error) {
	b.sessions++
	if b.err != nil {
		return nil, b.err
	}
	return b.session, nil
}

// MockCache is an in-memory cache.CacheService
type MockCache struct {
	mu     sync.Mutex
	items  map[string][]byte
	ttls   map[string]time.Duration
	getErr error
}

var _ cache.CacheService = (*MockCache)(nil)

func NewMockCache() *MockCache {
	return &MockCache{items: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (c *MockCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	v, ok := c.items[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return v, nil
}

func (c *MockCache) Set(key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	c.ttls[key] = expiration
	return nil
}

func (c *MockCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func testNavigatorOptions() NavigatorOptions {
	return NavigatorOptions{
		PortalURL:    "https://portal.test/keiba/",
		StepTimeout:  30 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}
}
