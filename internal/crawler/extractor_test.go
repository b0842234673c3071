package crawler

import (
	"context"
	"testing"

	"sjsage522/oddsworker/internal/odds"
	"sjsage522/oddsworker/internal/page"
	apperrors "sjsage522/oddsworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func navigatedTo(t *testing.T, session *MockSession) *Navigator {
	t.Helper()
	nav := NewNavigator(session, page.DefaultContract(), testNavigatorOptions(), tokyoRace11(t))
	require.NoError(t, nav.GoToRace(context.Background()))
	return nav
}

func TestExtractFullRace(t *testing.T) {
	session := NewMockSession(t, directRoute())
	nav := navigatedTo(t, session)

	res, err := NewExtractor(nav, page.DefaultContract()).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "スイートピーステークス", res.Header.RaceName)
	assert.Equal(t, "15:05", res.Header.PostTime)

	assert.Len(t, res.Win, 7)
	assert.Equal(t, 1.8, res.Win[3])
	assert.Equal(t, 1234.5, res.Win[6])
	assert.NotContains(t, res.Win, 4)
	assert.InDelta(t, 1.2, res.Place[3], 1e-9)

	favorite, ok := res.Win.Favorite()
	require.True(t, ok)
	assert.Equal(t, 3, favorite)

	assert.Len(t, res.Quinella, 4)
	for pair := range res.Quinella {
		assert.Equal(t, favorite, pair.First)
		assert.NotEqual(t, favorite, pair.Second)
	}
	assert.Equal(t, 4.6, res.Quinella[odds.Pair{First: 3, Second: 5}])

	assert.Equal(t, []string{"オッズ", "2回東京2日", "11レース", "単勝・複勝", "馬連"}, session.clickedTexts())
	assert.Equal(t, StateBetTypeTab, nav.State())
	assert.Equal(t, page.Quinella, nav.Tab())
}

func TestExtractSkipsQuinellaWithoutWinOdds(t *testing.T) {
	routes := directRoute()
	routes["win_place"] = map[string]string{"単勝・複勝": "quinella", "馬連": "quinella"}
	session := NewMockSession(t, routes)
	nav := navigatedTo(t, session)

	res, err := NewExtractor(nav, page.DefaultContract()).Extract(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Win)
	assert.Empty(t, res.Place)
	assert.Empty(t, res.Quinella)
	assert.NotNil(t, res.Quinella)

	// The header was read from the race page before switching tabs
	assert.Equal(t, "スイートピーステークス", res.Header.RaceName)
	assert.NotContains(t, session.clickedTexts(), "馬連")
}

func TestExtractTabFailure(t *testing.T) {
	routes := directRoute()
	routes["meeting"] = map[string]string{"11レース": "race_result"}
	session := NewMockSession(t, routes)
	nav := navigatedTo(t, session)

	res, err := NewExtractor(nav, page.DefaultContract()).Extract(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNavigation))
	assert.Empty(t, res.Win)
}

func TestMergeHeader(t *testing.T) {
	have := page.Header{RaceName: "皐月賞", PostTime: odds.Unknown}
	merged := mergeHeader(have, page.Header{RaceName: "other", PostTime: "15:40"})
	assert.Equal(t, page.Header{RaceName: "皐月賞", PostTime: "15:40"}, merged)
}
