package http

import (
	"time"

	"github.com/m1chalz/AI-First-sub005/internal/announcement"
	"github.com/m1chalz/AI-First-sub005/internal/photo"
)

// AnnouncementResponse is the public shape of an announcement. It never
// carries the management password or its hash.
type AnnouncementResponse struct {
	ID                string    `json:"id"`
	PetName           *string   `json:"petName"`
	Species           string    `json:"species"`
	Breed             *string   `json:"breed"`
	Sex               string    `json:"sex"`
	Age               *int      `json:"age"`
	Description       *string   `json:"description"`
	MicrochipNumber   *string   `json:"microchipNumber"`
	LocationLatitude  *float64  `json:"locationLatitude"`
	LocationLongitude *float64  `json:"locationLongitude"`
	LastSeenDate      string    `json:"lastSeenDate"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	PhotoURL          *string   `json:"photoUrl"`
	Status            string    `json:"status"`
	Reward            *string   `json:"reward"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func NewResponse(a *announcement.Announcement) AnnouncementResponse {
	resp := AnnouncementResponse{
		ID:              a.ID,
		PetName:         a.PetName,
		Species:         string(a.Species),
		Breed:           a.Breed,
		Sex:             string(a.Sex),
		Age:             a.Age,
		Description:     a.Description,
		MicrochipNumber: a.MicrochipNumber,
		LastSeenDate:    a.LastSeenDate.Format(announcement.DateLayout),
		Email:           a.Email,
		Phone:           a.Phone,
		Status:          string(a.Status),
		Reward:          a.Reward,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}

	if a.Location != nil {
		lat, lng := a.Location.Latitude, a.Location.Longitude
		resp.LocationLatitude = &lat
		resp.LocationLongitude = &lng
	}

	if a.HasPhoto() {
		url := photo.URL(*a.PhotoURL)
		resp.PhotoURL = &url
	}

	return resp
}

// CreateBody is the payload for POST /api/v1/announcements. Field rules are
// enforced by the service so every violation is reported at once.
type CreateBody struct {
	Species           string   `json:"species"`
	Sex               string   `json:"sex"`
	LastSeenDate      string   `json:"lastSeenDate"`
	LocationLatitude  *float64 `json:"locationLatitude"`
	LocationLongitude *float64 `json:"locationLongitude"`
	Email             string   `json:"email"`
	Phone             string   `json:"phone"`
	Status            *string  `json:"status"`
	PetName           *string  `json:"petName"`
	Breed             *string  `json:"breed"`
	Age               *int     `json:"age"`
	MicrochipNumber   *string  `json:"microchipNumber"`
	Description       *string  `json:"description"`
	Reward            *string  `json:"reward"`
}

func (b CreateBody) toRequest() announcement.CreateRequest {
	return announcement.CreateRequest{
		Species:           b.Species,
		Sex:               b.Sex,
		LastSeenDate:      b.LastSeenDate,
		LocationLatitude:  b.LocationLatitude,
		LocationLongitude: b.LocationLongitude,
		Email:             b.Email,
		Phone:             b.Phone,
		Status:            b.Status,
		PetName:           b.PetName,
		Breed:             b.Breed,
		Age:               b.Age,
		MicrochipNumber:   b.MicrochipNumber,
		Description:       b.Description,
		Reward:            b.Reward,
	}
}

// CreatedResponse is returned exactly once per announcement.
type CreatedResponse struct {
	ID                 string `json:"id"`
	ManagementPassword string `json:"managementPassword"`
}
