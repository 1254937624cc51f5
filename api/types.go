package api

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jrsteele09/medihelp-client/internal/utils"
)

// Number decodes a JSON number or a numeric string, as decimal fields are
// often serialized as strings.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f, ok := utils.Float64(v)
	if !ok {
		return fmt.Errorf("[Number.UnmarshalJSON] %s is not a number", b)
	}
	*n = Number(f)
	return nil
}

type Symptom struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AIDiagnosis is the model output attached to a symptom check
type AIDiagnosis struct {
	Conditions      []string `json:"conditions,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
	Urgency         string   `json:"urgency,omitempty"`
}

type SymptomCheck struct {
	ID             int64        `json:"id"`
	CreatedAt      string       `json:"created_at"`
	Symptoms       []Symptom    `json:"symptoms"`
	AdditionalInfo string       `json:"additional_info,omitempty"`
	AIDiagnosis    *AIDiagnosis `json:"ai_diagnosis,omitempty"`
}

// Condition.Severity is "low", "medium", "high", or "" when unknown
type Condition struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity,omitempty"`
}

type Person struct {
	ID        int64  `json:"id,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Doctor struct {
	ID              int64  `json:"id"`
	User            Person `json:"user"`
	Specialization  string `json:"specialization"`
	ConsultationFee Number `json:"consultation_fee"`
	LicenseNumber   string `json:"license_number"`
	Bio             string `json:"bio,omitempty"`
	Rating          Number `json:"rating,omitempty"`
	Available       bool   `json:"available,omitempty"`
}

type Availability struct {
	ID        int64  `json:"id"`
	Day       string `json:"day"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type Teleconsultation struct {
	ID            int64  `json:"id"`
	Patient       Person `json:"patient"`
	ScheduledTime string `json:"scheduled_time"`
	Duration      int    `json:"duration"`
	Status        string `json:"status"`
}

type Clinic struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Phone        string   `json:"phone"`
	OpeningHours string   `json:"opening_hours"`
	Services     []string `json:"services"`
	Distance     *Number  `json:"distance,omitempty"`
	Latitude     Number   `json:"latitude"`
	Longitude    Number   `json:"longitude"`
}

type Related struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Article struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	Summary           string    `json:"summary"`
	Content           string    `json:"content"`
	Tags              []string  `json:"tags"`
	IsPublished       bool      `json:"is_published"`
	PublishedDate     string    `json:"published_date"`
	Author            string    `json:"author,omitempty"`
	AuthorTitle       string    `json:"author_title,omitempty"`
	RelatedConditions []Related `json:"related_conditions,omitempty"`
	ImageURL          string    `json:"image_url,omitempty"`
}

type Video struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	YoutubeURL      string    `json:"youtube_url"`
	DurationMinutes int       `json:"duration_minutes"`
	IsPublished     bool      `json:"is_published"`
	PublishedDate   string    `json:"published_date"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	RelatedSymptoms []Related `json:"related_symptoms,omitempty"`
}

type FirstAidKind string

const (
	KindFirstAid   FirstAidKind = "firstaid"
	KindHomeRemedy FirstAidKind = "homeremedy"
)

// FirstAidItem is the common shape of first aid guides and home remedies
type FirstAidItem struct {
	ID            int64        `json:"id"`
	Title         string       `json:"title"`
	Summary       string       `json:"summary"`
	Content       string       `json:"content"`
	Kind          FirstAidKind `json:"type"`
	SeverityLevel string       `json:"severity_level,omitempty"`
	CreatedAt     string       `json:"created_at"`
}

type SimilarCondition struct {
	Name       string  `json:"name"`
	Similarity float64 `json:"similarity"`
}

type SkinDiagnosis struct {
	Condition         string             `json:"condition"`
	Confidence        float64            `json:"confidence"`
	Description       string             `json:"description"`
	Recommendations   []string           `json:"recommendations"`
	Severity          string             `json:"severity"`
	SimilarConditions []SimilarCondition `json:"similar_conditions"`
}
