package models

import "time"

type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
)

func (r Role) Valid() bool { return r == RoleDriver || r == RoleRider }

type Vehicle struct {
	Plate string `json:"placa"`
	Model string `json:"modelo"`
	Color string `json:"color"`
}

// Profile holds the identity provider's user fields.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	PhotoURL  string    `json:"foto"`
	Role      Role      `json:"rol"`
	Vehicle   *Vehicle  `json:"vehiculo,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session identifies the acting party of an operation.
type Session struct {
	UserID string
	Role   Role
	Name   string
}
