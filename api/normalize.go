package api

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jrsteele09/medihelp-client/internal/utils"
)

// The API is loose about optional fields. Everything below maps a decoded
// JSON object to a strict type, applying the fallbacks in one place.

const (
	noSymptomDescription   = "No description available"
	noConditionDescription = "No detailed description available."
	closestMatch           = "This condition matches your symptoms most closely based on AI analysis."
	possibleMatch          = "This condition may be related to your symptoms based on AI analysis."
	defaultChatReply       = "I'm sorry, I couldn't process your request."
	skinDescription        = "Description based on AI analysis of your skin condition."
)

func parseSymptomCheck(m map[string]any) SymptomCheck {
	check := SymptomCheck{
		CreatedAt:      utils.StringOr(m, "", "created_at"),
		AdditionalInfo: utils.StringOr(m, "", "additional_info"),
		Symptoms:       []Symptom{},
	}
	check.ID, _ = utils.Int64(m["id"])

	if items, ok := m["symptoms"].([]any); ok {
		for i, item := range items {
			check.Symptoms = append(check.Symptoms, parseSymptom(item, i))
		}
	}

	if d, ok := m["ai_diagnosis"].(map[string]any); ok {
		check.AIDiagnosis = &AIDiagnosis{
			Conditions:      utils.ToStringSlice(d["conditions"]),
			Recommendations: utils.ToStringSlice(d["recommendations"]),
			Urgency:         utils.StringOr(d, "", "urgency"),
		}
	}
	return check
}

// parseSymptom accepts a symptom object or a bare symptom id
func parseSymptom(v any, index int) Symptom {
	var s Symptom
	switch item := v.(type) {
	case map[string]any:
		s.ID, _ = utils.Int64(item["id"])
		s.Name = utils.StringOr(item, "", "name")
		s.Description = utils.StringOr(item, "", "description")
	default:
		s.ID, _ = utils.Int64(item)
	}
	if s.ID == 0 {
		s.ID = int64(index + 1)
	}
	if s.Description == "" {
		s.Description = noSymptomDescription
	}
	return s
}

func parseCondition(m map[string]any, index int) Condition {
	c := Condition{
		Name:        utils.StringOr(m, "", "name"),
		Description: utils.StringOr(m, noConditionDescription, "description"),
		Severity:    conditionSeverity(m["severity"]),
	}
	c.ID, _ = utils.Int64(m["id"])
	if c.ID == 0 {
		c.ID = int64(index + 1)
	}
	return c
}

// aiConditions turns the names in a check's AI diagnosis into conditions. The
// first is the closest match; all share the diagnosis urgency.
func aiConditions(d *AIDiagnosis) []Condition {
	severity := strings.ToLower(d.Urgency)
	if severity == "" {
		severity = "medium"
	}
	out := make([]Condition, 0, len(d.Conditions))
	for i, name := range d.Conditions {
		description := possibleMatch
		if i == 0 {
			description = closestMatch
		}
		out = append(out, Condition{ID: int64(i + 1), Name: name, Description: description, Severity: severity})
	}
	return out
}

// conditionSeverity maps a 1-10 score or a label to low/medium/high
func conditionSeverity(v any) string {
	if s, ok := v.(string); ok {
		return strings.ToLower(s)
	}
	score, ok := utils.Float64(v)
	if !ok {
		return ""
	}
	switch {
	case score <= 3:
		return "low"
	case score <= 7:
		return "medium"
	}
	return "high"
}

// severityLevel maps a first aid severity (1-3 or a label) to low/medium/high,
// defaulting to medium.
func severityLevel(v any) string {
	switch level := v.(type) {
	case float64:
		switch level {
		case 3:
			return "high"
		case 2:
			return "medium"
		}
		return "low"
	case string:
		switch l := strings.ToLower(level); l {
		case "low", "medium", "high":
			return l
		}
	}
	return "medium"
}

func (c *Client) firstAidGuide(m map[string]any) FirstAidItem {
	item := FirstAidItem{
		Title:         utils.StringOr(m, "", "title"),
		Summary:       utils.StringOr(m, "", "description", "summary"),
		Kind:          KindFirstAid,
		SeverityLevel: severityLevel(m["severity_level"]),
		CreatedAt:     c.createdAt(m),
	}
	item.ID, _ = utils.Int64(m["id"])
	if steps, ok := m["steps"].([]any); ok {
		item.Content = strings.Join(utils.ToStringSlice(steps), "\n")
	} else {
		item.Content = utils.StringOr(m, "", "content")
	}
	return item
}

func (c *Client) homeRemedy(m map[string]any) FirstAidItem {
	item := FirstAidItem{
		Title:     utils.StringOr(m, "", "name", "title"),
		Summary:   utils.StringOr(m, "", "preparation", "description"),
		Kind:      KindHomeRemedy,
		CreatedAt: c.createdAt(m),
	}
	item.ID, _ = utils.Int64(m["id"])
	if ingredients, ok := m["ingredients"].([]any); ok {
		item.Content = "Ingredients: " + strings.Join(utils.ToStringSlice(ingredients), ", ")
	} else {
		item.Content = utils.StringOr(m, "", "content")
	}
	return item
}

func (c *Client) createdAt(m map[string]any) string {
	return utils.StringOr(m, c.nowFunc().UTC().Format(time.RFC3339), "created_at")
}

// chatReply finds the assistant's text in the several shapes the chat
// endpoint has used.
func chatReply(v any) string {
	switch data := v.(type) {
	case string:
		return data
	case map[string]any:
		switch r := data["response"].(type) {
		case string:
			return r
		case map[string]any:
			if s, ok := utils.FirstString(r, "response", "text", "message"); ok {
				return s
			}
			b, err := json.Marshal(r)
			if err == nil {
				return string(b)
			}
		}
		if s, ok := utils.FirstString(data, "text", "message"); ok {
			return s
		}
	}
	return defaultChatReply
}

func parseSkinDiagnosis(m map[string]any) SkinDiagnosis {
	d, _ := m["diagnosis"].(map[string]any)
	conditions := utils.ToStringSlice(d["conditions"])

	result := SkinDiagnosis{
		Condition:         "Unknown condition",
		Confidence:        0.5,
		Description:       skinDescription,
		Recommendations:   []string{"Consult a dermatologist"},
		Severity:          utils.StringOr(d, "moderate", "urgency"),
		SimilarConditions: []SimilarCondition{},
	}
	if len(conditions) > 0 && conditions[0] != "" {
		result.Condition = conditions[0]
	}
	if confidence, ok := utils.Float64(d["confidence"]); ok && confidence != 0 {
		result.Confidence = confidence
	}
	if recommendations, ok := d["recommendations"].([]any); ok {
		result.Recommendations = utils.ToStringSlice(recommendations)
	}
	for i, name := range conditions {
		if i == 0 {
			continue
		}
		result.SimilarConditions = append(result.SimilarConditions, SimilarCondition{
			Name:       name,
			Similarity: 0.8 - float64(i-1)*0.2,
		})
	}
	return result
}
