package models

import "time"

// Sex of a person record.
type Sex string

const (
	SexMale   Sex = "MALE"
	SexFemale Sex = "FEMALE"
)

// Teacher represents an instructor. ID is the identity provider user id.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   string    `db:"address" json:"address"`
	Img       *string   `db:"img" json:"img,omitempty"`
	BloodType string    `db:"blood_type" json:"bloodType"`
	Sex       Sex       `db:"sex" json:"sex"`
	Birthday  time.Time `db:"birthday" json:"birthday"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	// SubjectIDs is nil when the subject set is not loaded or must be left unchanged.
	SubjectIDs []int `db:"-" json:"subjects"`
}
