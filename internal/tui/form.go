package tui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formKind int

const (
	formNewSection formKind = iota
	formEditSection
	formNewChapter
	formEditChapter
)

const (
	fieldTitle = iota
	fieldDescription
	fieldOrder
)

var errOrderNotNumber = errors.New("invalid order_number: must be a whole number")

// entityForm edits the title, description and order of a section or chapter.
type entityForm struct {
	kind      formKind
	id        string
	sectionID string

	inputs     []textinput.Model
	focus      int
	err        string
	submitting bool
}

func newEntityForm(kind formKind, id, sectionID, title, description string, order int) *entityForm {
	f := &entityForm{kind: kind, id: id, sectionID: sectionID}
	placeholders := []string{"Title", "Description (markdown)", "Order"}
	values := []string{title, description, strconv.Itoa(order)}
	for i := range placeholders {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholders[i]
		in.CharLimit = 500
		in.SetValue(values[i])
		f.inputs = append(f.inputs, in)
	}
	f.inputs[fieldOrder].CharLimit = 6
	f.focusField(fieldTitle)
	return f
}

func (f *entityForm) heading() string {
	switch f.kind {
	case formNewSection:
		return "New section"
	case formEditSection:
		return "Edit section"
	case formNewChapter:
		return "New chapter"
	default:
		return "Edit chapter"
	}
}

func (f *entityForm) focusField(i int) tea.Cmd {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	var cmd tea.Cmd
	for j := range f.inputs {
		if j == f.focus {
			cmd = f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
	return cmd
}

func (f *entityForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

// values returns the trimmed field values. Title and order range are checked by the editor;
// only a non-numeric order is rejected here.
func (f *entityForm) values() (title, description string, order int, err error) {
	title = strings.TrimSpace(f.inputs[fieldTitle].Value())
	description = strings.TrimSpace(f.inputs[fieldDescription].Value())
	order, convErr := strconv.Atoi(strings.TrimSpace(f.inputs[fieldOrder].Value()))
	if convErr != nil {
		return title, description, 0, errOrderNotNumber
	}
	return title, description, order, nil
}

func (f *entityForm) view(width int) string {
	bodyW := modalBodyWidth(width)
	labels := []string{"Title", "Description", "Order"}
	var lines []string
	for i := range f.inputs {
		in := f.inputs[i]
		in.Width = bodyW - 1
		label := styleMuted().Render(labels[i])
		if i == f.focus {
			label = styleHeader().Render(labels[i])
		}
		lines = append(lines, label, in.View(), "")
	}
	if f.err != "" {
		lines = append(lines, styleError().Width(bodyW).Render(f.err), "")
	}
	if f.submitting {
		lines = append(lines, styleMuted().Render("saving"+glyphEllipsis()), "")
	}
	lines = append(lines, lipgloss.NewStyle().Width(bodyW).Render(
		styleMuted().Render("tab: next field   enter: save   esc: cancel"),
	))
	return renderModalBox(width, f.heading(), strings.Join(lines, "\n"))
}
