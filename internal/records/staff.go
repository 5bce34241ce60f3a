package records

import (
	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

// Staff is a staff account, keyed by username.
type Staff struct {
	Username     string
	PasswordHash string
	Fullname     string
}

func (s *Staff) Key() string { return s.Username }

func (s *Staff) Encode() []string {
	return []string{s.Username, s.PasswordHash, s.Fullname}
}

// StaffSchema is the layout of StaffTable.
var StaffSchema = Schema[string, *Staff]{
	Name: "StaffTable",
	Columns: []flatfile.Column{
		{Name: "username", Width: 30},
		{Name: "password_hash", Width: PasswordHashWidth},
		{Name: "fullname", Width: 30},
	},
	Decode: func(f []string) (*Staff, error) { return NewStaff(f[0], f[1], f[2]) },
}

// NewStaff validates and builds a staff row.
func NewStaff(username, passwordHash, fullname string) (*Staff, error) {
	if _, err := validation.Length(username, 2, 30, "username"); err != nil {
		return nil, err
	}
	if err := checkHash(passwordHash); err != nil {
		return nil, err
	}
	if _, err := validation.Length(fullname, 2, 30, "full name"); err != nil {
		return nil, err
	}
	return &Staff{Username: username, PasswordHash: passwordHash, Fullname: fullname}, nil
}
