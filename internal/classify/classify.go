// Package classify assigns semantic roles to spreadsheet headers.
package classify

import (
	"strings"
)

// Role is the meaning of a column.
type Role int

const (
	RoleNone Role = iota
	RoleEmail
	RoleName
	RoleRoll
	RoleDivision
	RoleLecture
	RoleCodingScore
	RoleAptitude
	RoleCodingTest
)

var roleNames = map[Role]string{
	RoleNone:        "none",
	RoleEmail:       "email",
	RoleName:        "name",
	RoleRoll:        "roll",
	RoleDivision:    "division",
	RoleLecture:     "lecture",
	RoleCodingScore: "coding score",
	RoleAptitude:    "aptitude",
	RoleCodingTest:  "coding test",
}

func (r Role) String() string {
	return roleNames[r]
}

type rule struct {
	role  Role
	match func(h string) bool
}

func containsAny(words ...string) func(string) bool {
	return func(h string) bool {
		for _, w := range words {
			if strings.Contains(h, w) {
				return true
			}
		}
		return false
	}
}

func containsAll(words ...string) func(string) bool {
	return func(h string) bool {
		for _, w := range words {
			if !strings.Contains(h, w) {
				return false
			}
		}
		return true
	}
}

// rules is evaluated in order; a header takes the first role that matches.
var rules = []rule{
	{RoleEmail, containsAny("email")},
	{RoleName, containsAny("user name", "student name", "name")},
	{RoleRoll, containsAny("roll no", "roll", "prn")},
	{RoleDivision, containsAny("division")},
	{RoleLecture, containsAny("lecture")},
	{RoleCodingScore, containsAny("coding problem score", "coding score")},
	{RoleAptitude, containsAll("overall", "50")},
	{RoleCodingTest, containsAll("we", "100")},
}

// Column is a classified header and its position.
type Column struct {
	Index  int
	Header string
}

// Classification groups header columns by role.
type Classification struct {
	byRole map[Role][]Column
}

// RoleOf returns the role of a single header, or RoleNone.
func RoleOf(header string) Role {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "" {
		return RoleNone
	}
	for _, r := range rules {
		if r.match(h) {
			return r.role
		}
	}
	return RoleNone
}

// Classify looks only at header text, never at row data.
func Classify(headers []string) Classification {
	c := Classification{
		byRole: make(map[Role][]Column),
	}
	for i, h := range headers {
		role := RoleOf(h)
		if role == RoleNone {
			continue
		}
		c.byRole[role] = append(c.byRole[role], Column{Index: i, Header: h})
	}
	return c
}

// Columns returns the columns with the given role in header order.
func (c Classification) Columns(role Role) []Column {
	return c.byRole[role]
}
