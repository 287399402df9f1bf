package model

// Student is a roster entry. The roster system owns it; the attendance core only reads it.
type Student struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	ClassID int    `json:"class_id"`
}
