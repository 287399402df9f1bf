package model

import "fmt"

// ClassInstance is one teaching group (grade + section) of a school. It scopes
// which students and which attendance records belong together.
type ClassInstance struct {
	ID         int    `json:"id"`
	Grade      int    `json:"grade"`
	Section    string `json:"section"`
	SchoolCode string `json:"school_code"`
}

// Label renders the class the way rosters print it, e.g. "7-B".
func (c ClassInstance) Label() string {
	return fmt.Sprintf("%d-%s", c.Grade, c.Section)
}
