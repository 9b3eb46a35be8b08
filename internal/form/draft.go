package form

import (
	"fmt"
	"strings"

	"sessions-admin/internal/timefmt"
	"sessions-admin/internal/types"
)

// Field names one editable value of a Draft. The values match the wire names.
type Field string

const (
	FieldSessionName Field = "sessionName"
	FieldTopicName   Field = "topicName"
	FieldDate        Field = "date"
	FieldHallName    Field = "hallName"
	FieldFacultyName Field = "facultyName"
	FieldFacultyType Field = "facultyType"
	FieldEmail       Field = "email"
	FieldMobile      Field = "mobile"
	FieldStartTime   Field = "startTime"
	FieldEndTime     Field = "endTime"
)

var fieldOrder = []Field{
	FieldSessionName,
	FieldTopicName,
	FieldDate,
	FieldHallName,
	FieldFacultyName,
	FieldFacultyType,
	FieldEmail,
	FieldMobile,
	FieldStartTime,
	FieldEndTime,
}

var fieldLabels = map[Field]string{
	FieldSessionName: "Session Name",
	FieldTopicName:   "Topic Name",
	FieldDate:        "Date",
	FieldHallName:    "Hall Name",
	FieldFacultyName: "Faculty Name",
	FieldFacultyType: "Faculty Type",
	FieldEmail:       "Email",
	FieldMobile:      "Mobile",
	FieldStartTime:   "Start Time",
	FieldEndTime:     "End Time",
}

// Fields returns every field in form order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

func (f Field) Label() string {
	if label, ok := fieldLabels[f]; ok {
		return label
	}
	return string(f)
}

// Options lists the allowed values for fields edited by picking from a list.
// Free-text fields return nil.
func (f Field) Options() []string {
	switch f {
	case FieldFacultyType:
		kinds := types.FacultyTypes()
		out := make([]string, len(kinds))
		for i, kind := range kinds {
			out[i] = string(kind)
		}
		return out
	case FieldStartTime, FieldEndTime:
		return timefmt.TimeSlots()
	default:
		return nil
	}
}

// Draft is the editable copy of a session. Date is "YYYY-MM-DD" and the times
// are 12-hour display strings.
type Draft struct {
	SessionName string `json:"sessionName" validate:"required"`
	TopicName   string `json:"topicName" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	HallName    string `json:"hallName" validate:"required"`
	FacultyName string `json:"facultyName" validate:"required"`
	FacultyType string `json:"facultyType" validate:"required,oneof=Guest Internal Keynote Panelist"`
	Email       string `json:"email" validate:"required,email"`
	Mobile      string `json:"mobile" validate:"required,len=10,number"`
	StartTime   string `json:"startTime" validate:"required,timeslot"`
	EndTime     string `json:"endTime" validate:"required,timeslot"`
}

func (d *Draft) ptr(field Field) *string {
	switch field {
	case FieldSessionName:
		return &d.SessionName
	case FieldTopicName:
		return &d.TopicName
	case FieldDate:
		return &d.Date
	case FieldHallName:
		return &d.HallName
	case FieldFacultyName:
		return &d.FacultyName
	case FieldFacultyType:
		return &d.FacultyType
	case FieldEmail:
		return &d.Email
	case FieldMobile:
		return &d.Mobile
	case FieldStartTime:
		return &d.StartTime
	case FieldEndTime:
		return &d.EndTime
	default:
		return nil
	}
}

// Get returns the value of field, or "" for an unknown field.
func (d Draft) Get(field Field) string {
	if p := d.ptr(field); p != nil {
		return *p
	}
	return ""
}

func (d *Draft) set(field Field, value string) error {
	p := d.ptr(field)
	if p == nil {
		return fmt.Errorf("form: unknown field %q", field)
	}
	*p = value
	return nil
}

func seedDraft(session *types.Session) Draft {
	if session == nil {
		return Draft{}
	}
	return Draft{
		SessionName: session.SessionName,
		TopicName:   session.TopicName,
		Date:        dateOnly(session.Date),
		HallName:    session.HallName,
		FacultyName: session.FacultyName,
		FacultyType: session.FacultyType,
		Email:       session.Email,
		Mobile:      session.Mobile,
		StartTime:   timefmt.To12Hour(session.StartTime),
		EndTime:     timefmt.To12Hour(session.EndTime),
	}
}

// dateOnly keeps the UTC calendar day of an ISO date-time.
func dateOnly(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if day, ok := timefmt.ParseDay(value); ok {
		return day.Format("2006-01-02")
	}
	return value
}
