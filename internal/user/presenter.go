package user

import (
	"time"

	"github.com/google/uuid"
)

// Presenter shapes users for HTTP responses.
type Presenter struct {
	now func() time.Time
}

func NewPresenter() *Presenter {
	return &Presenter{now: time.Now}
}

type Response struct {
	UID         uuid.UUID `json:"userUid"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Gender      Gender    `json:"gender"`
	Age         int       `json:"age"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	DateOfBirth int       `json:"dateOfBirth"`
}

func (p *Presenter) ToResponse(user User) Response {
	return Response{
		UID:         user.UID,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Gender:      user.Gender,
		Age:         user.Age,
		Email:       user.Email,
		FullName:    user.FullName(),
		DateOfBirth: user.DateOfBirth(p.now()),
	}
}

func (p *Presenter) ToList(users []User) []Response {
	result := make([]Response, 0, len(users))
	for _, user := range users {
		result = append(result, p.ToResponse(user))
	}
	return result
}
