package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sessions-admin/internal/form"
)

// formView renders one input per field of the dashboard's form controller.
// Option fields are not typed into; left/right steps through their values.
type formView struct {
	fields []form.Field
	inputs []textinput.Model
	focus  int
	errors map[form.Field]string
	busy   bool
}

func newFormView(ctrl *form.Controller) formView {
	draft := ctrl.Draft()
	fields := form.Fields()
	v := formView{fields: fields, inputs: make([]textinput.Model, len(fields))}
	for i, field := range fields {
		in := textinput.New()
		in.Prompt = ""
		in.Width = 40
		in.CharLimit = 200
		in.Placeholder = placeholder(field)
		in.SetValue(draft.Get(field))
		v.inputs[i] = in
	}
	v.applyFocus()
	return v
}

func placeholder(field form.Field) string {
	switch field {
	case form.FieldDate:
		return "YYYY-MM-DD"
	case form.FieldMobile:
		return "10 digits"
	case form.FieldEmail:
		return "faculty@example.com"
	}
	if len(field.Options()) > 0 {
		return "←/→ to choose"
	}
	return ""
}

func (v *formView) applyFocus() {
	for i := range v.inputs {
		if i == v.focus {
			v.inputs[i].Focus()
		} else {
			v.inputs[i].Blur()
		}
	}
}

func (v *formView) moveFocus(delta int) {
	n := len(v.inputs)
	v.focus = ((v.focus+delta)%n + n) % n
	v.applyFocus()
}

// cycle steps the focused option field and returns the new value.
func (v *formView) cycle(delta int) (string, bool) {
	options := v.fields[v.focus].Options()
	if len(options) == 0 {
		return "", false
	}
	current := v.inputs[v.focus].Value()
	idx := -1
	for i, option := range options {
		if option == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta < 0:
		idx = len(options) - 1
	case idx < 0:
		idx = 0
	default:
		idx = ((idx+delta)%len(options) + len(options)) % len(options)
	}
	v.inputs[v.focus].SetValue(options[idx])
	return options[idx], true
}

// update handles keys meant for the inputs and mirrors every change into
// the controller's draft.
func (v formView) update(msg tea.KeyMsg, keys keyMap, ctrl *form.Controller) (formView, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.NextField):
		v.moveFocus(1)
		return v, nil
	case key.Matches(msg, keys.PrevField):
		v.moveFocus(-1)
		return v, nil
	case key.Matches(msg, keys.NextOpt), key.Matches(msg, keys.PrevOpt):
		delta := 1
		if key.Matches(msg, keys.PrevOpt) {
			delta = -1
		}
		if value, ok := v.cycle(delta); ok {
			_ = ctrl.Set(v.fields[v.focus], value)
			delete(v.errors, v.fields[v.focus])
			return v, nil
		}
	}
	if len(v.fields[v.focus].Options()) > 0 {
		return v, nil
	}
	var cmd tea.Cmd
	v.inputs[v.focus], cmd = v.inputs[v.focus].Update(msg)
	_ = ctrl.Set(v.fields[v.focus], v.inputs[v.focus].Value())
	return v, cmd
}

// setErrors records field errors from a failed save and moves focus to the
// first offending field.
func (v *formView) setErrors(err error) bool {
	var verr *form.ValidationError
	if !errors.As(err, &verr) {
		v.errors = nil
		return false
	}
	v.errors = verr.FieldErrors
	for i, field := range v.fields {
		if _, bad := v.errors[field]; bad {
			v.focus = i
			break
		}
	}
	v.applyFocus()
	return true
}

func (v formView) view(editing bool, width int, spin string, help string) string {
	title := "Add New Session"
	if editing {
		title = "Edit Session"
	}
	lines := make([]string, 0, len(v.fields)*2+4)
	for i, field := range v.fields {
		label := labelStyle.Render(field.Label() + " *")
		if i == v.focus {
			label = focusStyle.Inherit(labelStyle).Render(field.Label() + " *")
		}
		lines = append(lines, label+v.inputs[i].View())
		if msg, bad := v.errors[field]; bad {
			lines = append(lines, labelStyle.Render("")+errStyle.Render(field.Label()+" "+msg))
		}
	}
	lines = append(lines, "")
	if v.busy {
		lines = append(lines, spin+" Saving...")
	} else {
		lines = append(lines, footerStyle.Render(help))
	}
	return renderModal(title, strings.Join(lines, "\n"), width, lipgloss.Color("62"))
}
