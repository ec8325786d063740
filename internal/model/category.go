package model

type Category struct {
	BaseModel
	UserID string `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
}
