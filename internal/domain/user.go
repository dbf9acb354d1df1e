package domain

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleOwner    Role = "OWNER"
	RoleAdmin    Role = "ADMIN"
)

// UserData is the persisted session snapshot. Unknown profile fields are kept
// in Extra and written back flat, next to the known ones.
type UserData struct {
	UserID      FlexID
	Role        Role
	Phone       string
	Email       string
	Name        string
	CreatedAt   *time.Time
	UpdatedAt   *time.Time
	LastUpdated time.Time
	Extra       map[string]json.RawMessage
}

// ProfilePatch is a partial profile write. Nil fields leave the stored value alone.
type ProfilePatch struct {
	UserID    *FlexID                    `json:"userId,omitempty"`
	Role      *Role                      `json:"role,omitempty" validate:"omitempty,oneof=CUSTOMER OWNER ADMIN"`
	Phone     *string                    `json:"phone,omitempty" validate:"omitempty,max=32"`
	Email     *string                    `json:"email,omitempty" validate:"omitempty,email"`
	Name      *string                    `json:"name,omitempty" validate:"omitempty,max=200"`
	CreatedAt *time.Time                 `json:"createdAt,omitempty"`
	UpdatedAt *time.Time                 `json:"updatedAt,omitempty"`
	Extra     map[string]json.RawMessage `json:"extra,omitempty"`
}

// Apply merges p over u field by field and returns the result. u is not modified.
// LastUpdated is left to the caller.
func (p ProfilePatch) Apply(u UserData) UserData {
	out := u
	if p.UserID != nil && *p.UserID != "" {
		out.UserID = *p.UserID
	}
	if p.Role != nil {
		out.Role = *p.Role
	}
	if p.Phone != nil {
		out.Phone = *p.Phone
	}
	if p.Email != nil {
		out.Email = *p.Email
	}
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.CreatedAt != nil {
		t := *p.CreatedAt
		out.CreatedAt = &t
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		out.UpdatedAt = &t
	}
	if len(u.Extra) > 0 || len(p.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(u.Extra)+len(p.Extra))
		for k, v := range u.Extra {
			out.Extra[k] = v
		}
		for k, v := range p.Extra {
			if _, reserved := knownUserFields[k]; reserved {
				continue
			}
			out.Extra[k] = v
		}
	}
	return out
}

// PatchFrom turns a user fetched from the API into a patch. Empty fields are
// left out so they do not wipe what is already stored.
func PatchFrom(u UserData) ProfilePatch {
	var p ProfilePatch
	if u.UserID != "" {
		p.UserID = &u.UserID
	}
	if u.Role != "" {
		p.Role = &u.Role
	}
	if u.Phone != "" {
		p.Phone = &u.Phone
	}
	if u.Email != "" {
		p.Email = &u.Email
	}
	if u.Name != "" {
		p.Name = &u.Name
	}
	p.CreatedAt, p.UpdatedAt = u.CreatedAt, u.UpdatedAt
	p.Extra = u.Extra
	return p
}

var knownUserFields = map[string]struct{}{
	"userId": {}, "role": {}, "phone": {}, "email": {}, "name": {},
	"createdAt": {}, "updatedAt": {}, "lastUpdated": {},
}

type userDataJSON struct {
	UserID      FlexID     `json:"userId,omitempty"`
	Role        Role       `json:"role,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Name        string     `json:"name,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
}

func (u UserData) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(userDataJSON{
		UserID: u.UserID, Role: u.Role, Phone: u.Phone, Email: u.Email, Name: u.Name,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt, LastUpdated: u.LastUpdated,
	})
	if err != nil || len(u.Extra) == 0 {
		return known, err
	}
	flat := make(map[string]json.RawMessage, len(u.Extra)+8)
	for k, v := range u.Extra {
		flat[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		flat[k] = v
	}
	return json.Marshal(flat)
}

func (u *UserData) UnmarshalJSON(b []byte) error {
	var known userDataJSON
	if err := json.Unmarshal(b, &known); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	*u = UserData{
		UserID: known.UserID, Role: known.Role, Phone: known.Phone, Email: known.Email, Name: known.Name,
		CreatedAt: known.CreatedAt, UpdatedAt: known.UpdatedAt, LastUpdated: known.LastUpdated,
	}
	for k, v := range all {
		if _, ok := knownUserFields[k]; ok {
			continue
		}
		if u.Extra == nil {
			u.Extra = map[string]json.RawMessage{}
		}
		u.Extra[k] = v
	}
	return nil
}
