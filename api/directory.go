package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

func (c *Client) Doctors(ctx context.Context) ([]Doctor, error) {
	body, err := c.fetch(ctx, call{op: "Doctors", method: http.MethodGet, path: "/doctors/profiles/", auth: optionalAuth})
	if err != nil {
		return nil, err
	}
	return decodeList[Doctor](body, "doctor list")
}

// DoctorAvailability is the signed-in doctor's weekly schedule
func (c *Client) DoctorAvailability(ctx context.Context) ([]Availability, error) {
	body, err := c.fetch(ctx, call{op: "DoctorAvailability", method: http.MethodGet, path: "/doctors/availability/", auth: requiredAuth})
	if err != nil {
		return nil, err
	}
	return decodeList[Availability](body, "availability list")
}

func (c *Client) Teleconsultations(ctx context.Context) ([]Teleconsultation, error) {
	body, err := c.fetch(ctx, call{op: "Teleconsultations", method: http.MethodGet, path: "/doctors/teleconsults/", auth: requiredAuth})
	if err != nil {
		return nil, err
	}
	return decodeList[Teleconsultation](body, "teleconsultation list")
}

func (c *Client) Clinics(ctx context.Context) ([]Clinic, error) {
	body, err := c.fetch(ctx, call{op: "Clinics", method: http.MethodGet, path: "/clinics/", auth: public})
	if err != nil {
		return nil, err
	}
	return decodeList[Clinic](body, "clinic list")
}

// NearbyClinics lists clinics around a position, nearest first
func (c *Client) NearbyClinics(ctx context.Context, lat, lng float64) ([]Clinic, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	body, err := c.fetch(ctx, call{op: "NearbyClinics", method: http.MethodGet, path: "/clinics/nearby/", query: q, auth: public})
	if err != nil {
		return nil, err
	}
	return decodeList[Clinic](body, "clinic list")
}
