package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func (c *Client) Articles(ctx context.Context, page, pageSize int) ([]Article, error) {
	body, err := c.fetch(ctx, call{op: "Articles", method: http.MethodGet, path: "/content/articles/", query: pageQuery(page, pageSize), auth: public})
	if err != nil {
		return nil, err
	}
	return decodeList[Article](body, "article list")
}

func (c *Client) Article(ctx context.Context, id int64) (*Article, error) {
	body, err := c.fetch(ctx, call{op: "Article", method: http.MethodGet, path: fmt.Sprintf("/content/articles/%d/", id), auth: public})
	if err != nil {
		return nil, err
	}
	article, err := decodeInto[Article](body, "article")
	if err != nil {
		return nil, err
	}
	return &article, nil
}

func (c *Client) Videos(ctx context.Context) ([]Video, error) {
	body, err := c.fetch(ctx, call{op: "Videos", method: http.MethodGet, path: "/content/videos/", auth: public})
	if err != nil {
		return nil, err
	}
	return decodeList[Video](body, "video list")
}

func (c *Client) FirstAidGuides(ctx context.Context) ([]FirstAidItem, error) {
	items, err := c.firstAid(ctx, "FirstAidGuides", "/firstaid/", url.Values{"type": {"firstaid"}})
	if err != nil {
		return nil, err
	}
	out := make([]FirstAidItem, 0, len(items))
	for _, item := range items {
		out = append(out, c.firstAidGuide(item))
	}
	return out, nil
}

func (c *Client) HomeRemedies(ctx context.Context) ([]FirstAidItem, error) {
	items, err := c.firstAid(ctx, "HomeRemedies", "/firstaid/remedies/", nil)
	if err != nil {
		return nil, err
	}
	out := make([]FirstAidItem, 0, len(items))
	for _, item := range items {
		out = append(out, c.homeRemedy(item))
	}
	return out, nil
}

func (c *Client) firstAid(ctx context.Context, op, path string, query url.Values) ([]map[string]any, error) {
	body, err := c.fetch(ctx, call{op: op, method: http.MethodGet, path: path, query: query, auth: public})
	if err != nil {
		return nil, err
	}
	return decodeList[map[string]any](body, "first aid list")
}
