package components

import (
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
)

// MenuItem is one entry of a vertical menu.
type MenuItem struct {
	Label    string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu tracks a cursor over Items. The cursor never rests on a disabled
// item and stops at either end.
type Menu struct {
	Items    []MenuItem
	Selected int
}

var menuKeys = struct {
	Up, Down, Choose key.Binding
}{
	Up:     key.NewBinding(key.WithKeys("up", "k")),
	Down:   key.NewBinding(key.WithKeys("down", "j")),
	Choose: key.NewBinding(key.WithKeys("enter")),
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.Selected = m.next(-1, 1)
	return m
}

func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	k, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(k, menuKeys.Up):
		m.Selected = m.next(m.Selected, -1)
	case key.Matches(k, menuKeys.Down):
		m.Selected = m.next(m.Selected, 1)
	case key.Matches(k, menuKeys.Choose):
		if m.Selected < 0 || m.Selected >= len(m.Items) {
			break
		}
		if it := m.Items[m.Selected]; !it.Disabled && it.Action != nil {
			return m, it.Action()
		}
	}
	return m, nil
}

// next finds the first enabled item after from in direction dir, or
// returns from when there is none.
func (m Menu) next(from, dir int) int {
	for i := from + dir; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			return i
		}
	}
	if from < 0 {
		return 0
	}
	return from
}

// Labels returns the item labels with the indexes of disabled items.
func (m Menu) Labels() (labels []string, disabled map[int]bool) {
	disabled = map[int]bool{}
	for i, it := range m.Items {
		labels = append(labels, it.Label)
		if it.Disabled {
			disabled[i] = true
		}
	}
	return labels, disabled
}
