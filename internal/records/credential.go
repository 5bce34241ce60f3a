package records

import (
	"awardbook/internal/flatfile"
	"awardbook/internal/validation"
)

// PasswordHashWidth is the stored width of a password credential.
const PasswordHashWidth = 128

// Credential is a student's login, keyed by username.
type Credential struct {
	Username     string
	PasswordHash string
	StudentID    int
}

func (c *Credential) Key() string { return c.Username }

func (c *Credential) Encode() []string {
	return []string{c.Username, c.PasswordHash, itoa(c.StudentID)}
}

// CredentialSchema is the layout of StudentLoginTable.
var CredentialSchema = Schema[string, *Credential]{
	Name: "StudentLoginTable",
	Columns: []flatfile.Column{
		{Name: "username", Width: 30},
		{Name: "password_hash", Width: PasswordHashWidth},
		{Name: "student_id", Width: IDWidth},
	},
	Decode: func(f []string) (*Credential, error) {
		id, err := validation.ID(f[2], IDWidth, "student ID")
		if err != nil {
			return nil, err
		}
		return NewCredential(f[0], f[1], id)
	},
}

// NewCredential validates and builds a login row. passwordHash must already
// be hashed.
func NewCredential(username, passwordHash string, studentID int) (*Credential, error) {
	if _, err := validation.Length(username, 2, 30, "username"); err != nil {
		return nil, err
	}
	if err := checkHash(passwordHash); err != nil {
		return nil, err
	}
	if _, err := validation.ID(itoa(studentID), IDWidth, "student ID"); err != nil {
		return nil, err
	}
	return &Credential{Username: username, PasswordHash: passwordHash, StudentID: studentID}, nil
}

func checkHash(hash string) error {
	_, err := validation.Length(hash, 1, PasswordHashWidth, "password credential")
	return err
}
