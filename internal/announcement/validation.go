package announcement

import (
	"slices"
	"strings"
	"time"

	"github.com/m1chalz/AI-First-sub005/internal/validation"
)

const (
	maxPetNameLen     = 100
	maxBreedLen       = 100
	maxDescriptionLen = 1000
	maxRewardLen      = 100
	maxMicrochipLen   = 15
	maxAge            = 40
)

// CreateRequest carries the raw fields of a new announcement.
type CreateRequest struct {
	Species           string
	Sex               string
	LastSeenDate      string
	LocationLatitude  *float64
	LocationLongitude *float64
	Email             string
	Phone             string
	Status            *string
	PetName           *string
	Breed             *string
	Age               *int
	MicrochipNumber   *string
	Description       *string
	Reward            *string
}

// ValidateCreate checks every field and returns all violations together.
// now decides what "the future" means for lastSeenDate.
func ValidateCreate(req CreateRequest, now time.Time) validation.Errors {
	errs := validation.Errors{}

	switch species := strings.TrimSpace(req.Species); {
	case species == "":
		errs.Add("species", "species is required")
	case !slices.Contains(allSpecies, Species(species)):
		errs.Add("species", "species must be one of "+joinEnum(allSpecies))
	}

	switch sex := strings.TrimSpace(req.Sex); {
	case sex == "":
		errs.Add("sex", "sex is required")
	case !slices.Contains(allSexes, Sex(sex)):
		errs.Add("sex", "sex must be one of "+joinEnum(allSexes))
	}

	if req.Status != nil && !slices.Contains(allStatuses, Status(strings.TrimSpace(*req.Status))) {
		errs.Add("status", "status must be one of "+joinEnum(allStatuses))
	}

	if strings.TrimSpace(req.LastSeenDate) == "" {
		errs.Add("lastSeenDate", "lastSeenDate is required")
	} else if d, err := time.Parse(DateLayout, strings.TrimSpace(req.LastSeenDate)); err != nil {
		errs.Add("lastSeenDate", "lastSeenDate must be a date in YYYY-MM-DD format")
	} else if d.After(today(now)) {
		errs.Add("lastSeenDate", "lastSeenDate cannot be in the future")
	}

	errs.AddAll("location", validation.ValidateLocation(req.LocationLatitude, req.LocationLongitude))
	errs.AddAll("email", validation.ValidateEmail(req.Email))
	errs.AddAll("phone", validation.ValidatePhone(req.Phone))

	if req.Age != nil && (*req.Age < 0 || *req.Age > maxAge) {
		errs.Add("age", "age must be between 0 and 40")
	}

	// A blank microchip is absent, like the other optional text fields.
	if chip := trimOptional(req.MicrochipNumber); chip != nil {
		if len(*chip) > maxMicrochipLen || strings.Trim(*chip, "0123456789") != "" {
			errs.Add("microchipNumber", "microchipNumber must contain up to 15 digits")
		}
	}

	errs.AddAll("petName", validation.ValidateText(req.PetName, maxPetNameLen))
	errs.AddAll("breed", validation.ValidateText(req.Breed, maxBreedLen))
	errs.AddAll("description", validation.ValidateText(req.Description, maxDescriptionLen))
	errs.AddAll("reward", validation.ValidateText(req.Reward, maxRewardLen))

	return errs
}

// today truncates now to its UTC calendar date.
func today(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func joinEnum[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
