package users

import "strings"

// RoleType is derived from the profile, the API has no role list
type RoleType string

const (
	RolePatient RoleType = "patient"
	RoleDoctor  RoleType = "doctor"
)

// Routes the session manager navigates to
const (
	HomeRoute           = "/"
	LoginRoute          = "/login"
	PatientLandingRoute = "/dashboard"
	DoctorLandingRoute  = "/doctor-dashboard"
)

// Profile is the account returned by GET /auth/me/
type Profile struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Phone       string  `json:"phone"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	IsDoctor    bool    `json:"is_doctor,omitempty"`
}

func (p *Profile) Role() RoleType {
	if p != nil && p.IsDoctor {
		return RoleDoctor
	}
	return RolePatient
}

// LandingRoute is where a freshly authenticated user is sent
func (p *Profile) LandingRoute() string {
	if p.Role() == RoleDoctor {
		return DoctorLandingRoute
	}
	return PatientLandingRoute
}

func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// RegisterData is the body of POST /auth/register/
type RegisterData struct {
	Email           string `json:"email"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Phone           string `json:"phone"`
	DateOfBirth     string `json:"date_of_birth"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// DoctorRegisterData is the body of POST /doctors/register/
type DoctorRegisterData struct {
	Email           string  `json:"email"`
	FirstName       string  `json:"first_name"`
	LastName        string  `json:"last_name"`
	Phone           string  `json:"phone"`
	Password        string  `json:"password"`
	LicenseNumber   string  `json:"license_number"`
	Specialization  string  `json:"specialization"`
	ConsultationFee float64 `json:"consultation_fee"`
}
