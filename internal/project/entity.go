package project

import "github.com/google/uuid"

type Project struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
