package model

import "time"

type BaseModel struct {
	ID        string    `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (b BaseModel) GetID() string { return b.ID }

// Identifiable is satisfied by every entity embedding BaseModel.
type Identifiable interface {
	GetID() string
}
