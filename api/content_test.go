package api_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/medihelp-client/api"
	apperrors "github.com/jrsteele09/medihelp-client/internal/errors"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func TestFirstAidGuides(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/firstaid/": respond(http.StatusOK, `[
			{"id": 1, "title": "Burns", "description": "Minor burns", "steps": ["Cool the burn", "Cover it"], "severity_level": 3, "created_at": "2025-01-01T00:00:00Z"},
			{"id": 2, "title": "Cuts", "summary": "Small cuts", "content": "Apply pressure", "severity_level": 2},
			{"id": 3, "title": "Bruise", "severity_level": 1},
			{"id": 4, "title": "Sprain", "severity_level": "HIGH"},
			{"id": 5, "title": "Splinter", "severity_level": "severe"},
			{"id": 6, "title": "Nosebleed"}
		]`),
	})

	guides, err := newClient(t, ts, &fakeTokens{access: "A"}, api.WithNowFunc(func() time.Time { return fixedNow })).FirstAidGuides(context.Background())
	require.NoError(t, err)
	require.Equal(t, "type=firstaid", ts.last().Query)
	require.Empty(t, ts.last().Auth)
	require.Len(t, guides, 6)

	require.Equal(t, api.FirstAidItem{
		ID:            1,
		Title:         "Burns",
		Summary:       "Minor burns",
		Content:       "Cool the burn\nCover it",
		Kind:          api.KindFirstAid,
		SeverityLevel: "high",
		CreatedAt:     "2025-01-01T00:00:00Z",
	}, guides[0])
	require.Equal(t, "Small cuts", guides[1].Summary)
	require.Equal(t, "Apply pressure", guides[1].Content)
	require.Equal(t, "2026-05-01T12:00:00Z", guides[1].CreatedAt)

	var levels []string
	for _, g := range guides {
		levels = append(levels, g.SeverityLevel)
	}
	require.Equal(t, []string{"high", "medium", "low", "high", "medium", "medium"}, levels)
}

func TestHomeRemedies(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/firstaid/remedies/": respond(http.StatusOK, `{"results": [
			{"id": 1, "name": "Ginger tea", "preparation": "Steep for 10 minutes", "ingredients": ["Ginger", "Honey", "Water"]},
			{"id": 2, "title": "Salt gargle", "description": "For sore throats", "content": "Gargle twice daily", "created_at": "2025-02-02T00:00:00Z"}
		]}`),
	})

	remedies, err := newClient(t, ts, nil, api.WithNowFunc(func() time.Time { return fixedNow })).HomeRemedies(context.Background())
	require.NoError(t, err)
	require.Equal(t, []api.FirstAidItem{
		{ID: 1, Title: "Ginger tea", Summary: "Steep for 10 minutes", Content: "Ingredients: Ginger, Honey, Water", Kind: api.KindHomeRemedy, CreatedAt: "2026-05-01T12:00:00Z"},
		{ID: 2, Title: "Salt gargle", Summary: "For sore throats", Content: "Gargle twice daily", Kind: api.KindHomeRemedy, CreatedAt: "2025-02-02T00:00:00Z"},
	}, remedies)
}

func TestArticles(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/content/articles/": respond(http.StatusOK, `{"count": 1, "results": [{"id": 3, "title": "Sleep", "tags": ["rest"], "is_published": true}]}`),
		"/content/articles/3/": respond(http.StatusOK, `{"id": 3, "title": "Sleep", "content": "Eight hours",
			"related_conditions": [{"id": 1, "name": "Insomnia"}]}`),
	})
	client := newClient(t, ts, nil)

	articles, err := client.Articles(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Equal(t, "page=1&page_size=10", ts.last().Query)
	require.Equal(t, []api.Article{{ID: 3, Title: "Sleep", Tags: []string{"rest"}, IsPublished: true}}, articles)

	article, err := client.Article(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "Eight hours", article.Content)
	require.Equal(t, []api.Related{{ID: 1, Name: "Insomnia"}}, article.RelatedConditions)

	_, err = client.Article(context.Background(), 4)
	require.True(t, apperrors.IsStatus(err, http.StatusNotFound))
}

func TestArticles_NoPaging(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/content/articles/": respond(http.StatusOK, `[]`),
	})

	_, err := newClient(t, ts, nil).Articles(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Empty(t, ts.last().Query)
}

func TestVideos(t *testing.T) {
	ts := newTestServer(t, map[string]http.HandlerFunc{
		"/content/videos/": respond(http.StatusOK, `[{"id": 1, "title": "Stretching", "youtube_url": "https://youtu.be/x", "duration_minutes": 12}]`),
	})

	videos, err := newClient(t, ts, nil).Videos(context.Background())
	require.NoError(t, err)
	require.Len(t, videos, 1)
	require.Equal(t, 12, videos[0].DurationMinutes)
}
