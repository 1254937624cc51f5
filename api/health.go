package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Symptoms(ctx context.Context) ([]Symptom, error) {
	body, err := c.fetch(ctx, call{op: "Symptoms", method: http.MethodGet, path: "/health/symptoms/", auth: optionalAuth})
	if err != nil {
		return nil, err
	}
	return decodeList[Symptom](body, "symptom list")
}

// CreateSymptomCheck records the selected symptoms and returns the new check
func (c *Client) CreateSymptomCheck(ctx context.Context, symptomIDs []int64, additionalInfo string) (*SymptomCheck, error) {
	payload := struct {
		Symptoms       []int64 `json:"symptoms"`
		AdditionalInfo string  `json:"additional_info,omitempty"`
	}{symptomIDs, additionalInfo}

	body, err := c.fetch(ctx, call{op: "CreateSymptomCheck", method: http.MethodPost, path: "/health/checks/", json: payload, auth: requiredAuth})
	if err != nil {
		return nil, err
	}
	m, err := decodeObject(body, "symptom check")
	if err != nil {
		return nil, err
	}
	check := parseSymptomCheck(m)
	return &check, nil
}

func (c *Client) SymptomChecks(ctx context.Context) ([]SymptomCheck, error) {
	body, err := c.fetch(ctx, call{op: "SymptomChecks", method: http.MethodGet, path: "/health/checks/", auth: requiredAuth})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[map[string]any](body, "symptom check list")
	if err != nil {
		return nil, err
	}
	checks := make([]SymptomCheck, 0, len(items))
	for _, item := range items {
		checks = append(checks, parseSymptomCheck(item))
	}
	return checks, nil
}

// SymptomCheck fetches one check. Symptoms without an id are numbered by
// position and missing descriptions get a placeholder.
func (c *Client) SymptomCheck(ctx context.Context, id int64) (*SymptomCheck, error) {
	body, err := c.fetch(ctx, call{op: "SymptomCheck", method: http.MethodGet, path: fmt.Sprintf("/health/checks/%d/", id), auth: requiredAuth})
	if err != nil {
		return nil, err
	}
	m, err := decodeObject(body, "symptom check")
	if err != nil {
		return nil, err
	}
	check := parseSymptomCheck(m)
	return &check, nil
}

func (c *Client) Conditions(ctx context.Context, page, pageSize int) ([]Condition, error) {
	return c.conditions(ctx, page, pageSize, 0)
}

func (c *Client) conditions(ctx context.Context, page, pageSize, retries int) ([]Condition, error) {
	body, err := c.fetch(ctx, call{
		op:      "Conditions",
		method:  http.MethodGet,
		path:    "/health/conditions/",
		query:   pageQuery(page, pageSize),
		auth:    optionalAuth,
		retries: retries,
	})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[map[string]any](body, "condition list")
	if err != nil {
		return nil, err
	}
	conditions := make([]Condition, 0, len(items))
	for i, item := range items {
		conditions = append(conditions, parseCondition(item, i))
	}
	return conditions, nil
}

// PossibleConditions lists conditions for a check: the AI diagnosis when the
// check has one, otherwise the first three general conditions.
func (c *Client) PossibleConditions(ctx context.Context, check *SymptomCheck) ([]Condition, error) {
	if check != nil && check.AIDiagnosis != nil && len(check.AIDiagnosis.Conditions) > 0 {
		return aiConditions(check.AIDiagnosis), nil
	}
	return c.conditions(ctx, 1, 3, secondaryRetries)
}

func pageQuery(page, pageSize int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	return q
}
