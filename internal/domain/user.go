package domain

import "time"

type User struct {
	ID          int32     `json:"id"`
	Email       string    `json:"email"`
	PhoneNumber string    `json:"phone_number"`
	Name        string    `json:"name"`
	CreatedOn   time.Time `json:"created_on"`
}
