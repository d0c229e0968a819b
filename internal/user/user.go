package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	Male   Gender = "MALE"
	Female Gender = "FEMALE"
)

// Genders lists every accepted Gender value.
var Genders = []Gender{Male, Female}

// ParseGender matches s against the Gender values ignoring case.
func ParseGender(s string) (Gender, error) {
	candidate := Gender(strings.ToUpper(strings.TrimSpace(s)))
	for _, g := range Genders {
		if candidate == g {
			return g, nil
		}
	}
	return "", fmt.Errorf("%w: invalid gender %q", ErrInvalidArgument, s)
}

type User struct {
	UID       uuid.UUID `json:"userUid"`
	FirstName string    `json:"firstName" validate:"required"`
	LastName  string    `json:"lastName" validate:"required"`
	Gender    Gender    `json:"gender" validate:"required,oneof=MALE FEMALE"`
	Age       int       `json:"age" validate:"min=0,max=112"`
	Email     string    `json:"email" validate:"required,email"`
}

// WithUID returns a copy of u stored under id.
func WithUID(id uuid.UUID, u User) User {
	u.UID = id
	return u
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// DateOfBirth is the year the user was born, relative to now.
func (u User) DateOfBirth(now time.Time) int {
	return now.AddDate(-u.Age, 0, 0).Year()
}

func (u User) String() string {
	return fmt.Sprintf("User{userUid=%s, firstName=%q, lastName=%q, gender=%s, age=%d, email=%q}",
		u.UID, u.FirstName, u.LastName, u.Gender, u.Age, u.Email)
}

// SeedUsers returns the demo record the in-memory store starts with.
func SeedUsers() []User {
	return []User{{
		UID:       uuid.New(),
		FirstName: "Joe",
		LastName:  "Jones",
		Gender:    Male,
		Age:       22,
		Email:     "example@gmail.com",
	}}
}
