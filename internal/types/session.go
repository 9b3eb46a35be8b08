package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Session is a scheduled talk as stored by the backend.
type Session struct {
	ID          string `json:"_id"`
	SessionName string `json:"sessionName"`
	TopicName   string `json:"topicName"`
	Date        string `json:"date"`
	HallName    string `json:"hallName"`
	FacultyName string `json:"facultyName"`
	FacultyType string `json:"facultyType"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

// SessionPayload is the body sent on create and update. The backend owns the
// identifier and both timestamps.
type SessionPayload struct {
	SessionName string `json:"sessionName"`
	TopicName   string `json:"topicName"`
	Date        string `json:"date"`
	HallName    string `json:"hallName"`
	FacultyName string `json:"facultyName"`
	FacultyType string `json:"facultyType"`
	Email       string `json:"email"`
	Mobile      string `json:"mobile"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// SessionList accepts either a bare JSON array or an object wrapping the
// array under "data".
type SessionList []Session

func (l *SessionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = SessionList{}
		return nil
	}
	if data[0] == '[' {
		var items []Session
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = SessionList(items)
		return nil
	}
	var wrapped struct {
		Data []Session `json:"data"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("session list: %w", err)
	}
	if wrapped.Data == nil {
		wrapped.Data = []Session{}
	}
	*l = SessionList(wrapped.Data)
	return nil
}

// FacultyType is the role a faculty member plays in a session.
type FacultyType string

const (
	FacultyGuest    FacultyType = "Guest"
	FacultyInternal FacultyType = "Internal"
	FacultyKeynote  FacultyType = "Keynote"
	FacultyPanelist FacultyType = "Panelist"
)

// FacultyTypes returns the selectable faculty types in display order.
func FacultyTypes() []FacultyType {
	return []FacultyType{FacultyGuest, FacultyInternal, FacultyKeynote, FacultyPanelist}
}

func (f FacultyType) Label() string {
	if f == FacultyKeynote {
		return "Keynote Speaker"
	}
	return string(f)
}

// User is the authenticated identity returned at login.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginResponse is the body returned by POST /users/login.
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	User        *User  `json:"user"`
}

// RefreshResponse is the body returned by POST /users/refresh-token.
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}
