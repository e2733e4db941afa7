package components

import (
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/ladder/internal/ui/theme"
)

// TextInput is a focused single-line prompt. Value trims surrounding
// whitespace.
type TextInput struct {
	Model textinput.Model
}

// NewTextInput returns a focused input; limit <= 0 keeps the default cap.
func NewTextInput(placeholder string, limit int) TextInput {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "› "
	if limit > 0 {
		in.CharLimit = limit
	}
	st := in.Styles()
	st.Focused.Prompt = st.Focused.Prompt.Foreground(theme.Accent)
	st.Focused.Placeholder = st.Focused.Placeholder.Foreground(theme.TextDim)
	in.SetStyles(st)
	in.Focus()
	return TextInput{Model: in}
}

func (t TextInput) Init() tea.Cmd { return t.Model.Focus() }

func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	m, cmd := t.Model.Update(msg)
	t.Model = m
	return t, cmd
}

func (t TextInput) View() string { return t.Model.View() }
func (t TextInput) Value() string { return strings.TrimSpace(t.Model.Value()) }
func (t *TextInput) Clear() { t.Model.Reset() }
