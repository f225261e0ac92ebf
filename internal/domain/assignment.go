package domain

import (
	"bytes"
	"encoding/json"
)

// AssignmentKind tags the representation an assignment relation arrived in.
type AssignmentKind int

const (
	AssignmentUnassigned AssignmentKind = iota
	AssignmentByID
	AssignmentByRecord
)

// AssignmentRecord is the embedded user shape of an assignment relation.
type AssignmentRecord struct {
	ID       string `json:"id"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
}

// Assignment is a relation to a user that may be absent, a bare identifier or
// an embedded user record.
type Assignment struct {
	Kind   AssignmentKind
	ID     string
	Record *AssignmentRecord
}

// Unassigned returns the empty relation.
func Unassigned() Assignment {
	return Assignment{Kind: AssignmentUnassigned}
}

// AssignByID returns a relation holding only an identifier.
func AssignByID(id string) Assignment {
	return Assignment{Kind: AssignmentByID, ID: id}
}

// AssignByRecord returns a relation holding an embedded user record.
func AssignByRecord(record AssignmentRecord) Assignment {
	return Assignment{Kind: AssignmentByRecord, Record: &record}
}

// AssignUser embeds the identifying fields of a stored user.
func AssignUser(user *User) Assignment {
	if user == nil {
		return Unassigned()
	}
	return AssignByRecord(AssignmentRecord{ID: user.ID, FullName: user.FullName, Email: user.Email})
}

// UnmarshalJSON accepts null, a bare string or number, or an object with a
// string id. Anything else decodes to Unassigned instead of failing.
func (a *Assignment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*a = Unassigned()
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	switch trimmed[0] {
	case '"':
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return nil
		}
		*a = AssignByID(id)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var id json.Number
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return nil
		}
		*a = AssignByID(id.String())
	case '{':
		var raw map[string]any
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil
		}
		id, ok := raw["id"].(string)
		if !ok {
			return nil
		}
		record := AssignmentRecord{ID: id}
		record.FullName, _ = raw["fullName"].(string)
		record.Email, _ = raw["email"].(string)
		*a = AssignByRecord(record)
	}
	return nil
}

// MarshalJSON writes the relation in the shape it holds.
func (a Assignment) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AssignmentByID:
		return json.Marshal(a.ID)
	case AssignmentByRecord:
		if a.Record != nil {
			return json.Marshal(a.Record)
		}
	}
	return []byte("null"), nil
}
