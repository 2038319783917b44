package model

// UserProfile is the public view of an account returned by a credential lookup.
// It never carries secret material.
type UserProfile struct {
	ID       string
	Username string
	Name     string
	Surname  string
	Groups   []string
}

// DisplayName joins name and surname the way tokens present it.
func (p *UserProfile) DisplayName() string {
	switch {
	case p.Name == "":
		return p.Surname
	case p.Surname == "":
		return p.Name
	default:
		return p.Name + " " + p.Surname
	}
}

// Credential is a stored account including its password hash.
type Credential struct {
	ID           string
	Username     string
	PasswordHash string
	Name         string
	Surname      string
	Groups       []string
}

// Profile copies the whitelisted public fields of the credential.
func (c *Credential) Profile() *UserProfile {
	return &UserProfile{
		ID:       c.ID,
		Username: c.Username,
		Name:     c.Name,
		Surname:  c.Surname,
		Groups:   append([]string(nil), c.Groups...),
	}
}
