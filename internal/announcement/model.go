package announcement

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound     = errors.New("announcement not found")
	ErrInvalidLogin = errors.New("invalid management password")
)

// DateLayout is the wire format of LastSeenDate.
const DateLayout = "2006-01-02"

type Species string

const (
	SpeciesDog     Species = "DOG"
	SpeciesCat     Species = "CAT"
	SpeciesBird    Species = "BIRD"
	SpeciesRabbit  Species = "RABBIT"
	SpeciesRodent  Species = "RODENT"
	SpeciesReptile Species = "REPTILE"
	SpeciesOther   Species = "OTHER"
)

var allSpecies = []Species{
	SpeciesDog, SpeciesCat, SpeciesBird, SpeciesRabbit, SpeciesRodent, SpeciesReptile, SpeciesOther,
}

type Sex string

const (
	SexMale    Sex = "MALE"
	SexFemale  Sex = "FEMALE"
	SexUnknown Sex = "UNKNOWN"
)

var allSexes = []Sex{SexMale, SexFemale, SexUnknown}

type Status string

const (
	StatusActive Status = "ACTIVE"
	StatusFound  Status = "FOUND"
	StatusClosed Status = "CLOSED"
)

var allStatuses = []Status{StatusActive, StatusFound, StatusClosed}

// Location is a coordinate pair. An announcement has either a full pair or none.
type Location struct {
	Latitude  float64
	Longitude float64
}

// Announcement is a lost/found pet report.
type Announcement struct {
	ID                     string
	PetName                *string
	Species                Species
	Breed                  *string
	Sex                    Sex
	Age                    *int
	Description            *string
	MicrochipNumber        *string
	Location               *Location
	LastSeenDate           time.Time
	Email                  string
	Phone                  string
	PhotoURL               *string // Storage key of the bound photo; nil until bound
	Status                 Status
	ManagementPasswordHash string
	Reward                 *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasPhoto reports whether a photo has been bound.
func (a Announcement) HasPhoto() bool {
	return a.PhotoURL != nil && *a.PhotoURL != ""
}

// Clone returns a copy that shares no pointers with a.
func (a Announcement) Clone() *Announcement {
	c := a
	c.PetName = clonePtr(a.PetName)
	c.Breed = clonePtr(a.Breed)
	c.Age = clonePtr(a.Age)
	c.Description = clonePtr(a.Description)
	c.MicrochipNumber = clonePtr(a.MicrochipNumber)
	c.PhotoURL = clonePtr(a.PhotoURL)
	c.Reward = clonePtr(a.Reward)
	if a.Location != nil {
		loc := *a.Location
		c.Location = &loc
	}
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// String keeps the management password hash out of logs and fmt output.
func (a Announcement) String() string {
	return fmt.Sprintf("Announcement{ID:%s Species:%s Status:%s}", a.ID, a.Species, a.Status)
}

// Created is returned once from Create. ManagementPassword is the only copy
// of the plaintext credential.
type Created struct {
	ID                 string
	ManagementPassword string
}
