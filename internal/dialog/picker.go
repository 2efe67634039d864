package dialog

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	stylePickerPrompt = lipgloss.NewStyle().Bold(true)
	stylePickerDir    = lipgloss.NewStyle().Faint(true)
	stylePickerCursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#89b4fa")).Bold(true)
	stylePickerFolder = lipgloss.NewStyle().Foreground(lipgloss.Color("#94e2d5"))
	stylePickerStatus = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")).Italic(true)
	stylePickerKeys   = lipgloss.NewStyle().Faint(true)
)

// Picker is a terminal selection prompt for hosts where the native
// dialogs cannot appear (SSH sessions, no window server).
type Picker struct {
	Start string    // initial directory; defaults to the working directory
	In    io.Reader // defaults to stdin
	Out   io.Writer // defaults to stdout
}

var _ Chooser = (*Picker)(nil)

func (p *Picker) ChooseFile(ctx context.Context, prompt string, extensions []string) (string, error) {
	return p.run(ctx, prompt, extensions)
}

func (p *Picker) ChooseDir(ctx context.Context, prompt string) (string, error) {
	return p.run(ctx, prompt, nil)
}

func (p *Picker) run(ctx context.Context, prompt string, extensions []string) (string, error) {
	start := p.Start
	if start == "" {
		if wd, err := os.Getwd(); err == nil {
			start = wd
		} else {
			start = "/"
		}
	}
	model, err := newPickerModel(prompt, start, extensions)
	if err != nil {
		return "", err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return "", fmt.Errorf("run picker: %w", err)
	}
	m, ok := final.(pickerModel)
	if !ok || m.cancelled || m.choice == "" {
		return "", ErrCancelled
	}
	return m.choice, nil
}

type pickerEntry struct {
	name       string
	isDir      bool
	selectable bool
}

// pickerModel is the Bubble Tea model behind Picker. Directory mode
// (nil extensions) lists folders plus a "." entry that selects the
// listed directory itself; file mode lists folders to descend into and
// files matching the wanted extensions.
type pickerModel struct {
	prompt     string
	extensions []string // nil means directory mode
	dir        string
	entries    []pickerEntry
	cursor     int
	offset     int
	height     int
	status     string // transient notification
	choice     string
	cancelled  bool
}

func newPickerModel(prompt, dir string, extensions []string) (pickerModel, error) {
	entries, err := readEntries(dir, extensions)
	if err != nil {
		return pickerModel{}, fmt.Errorf("read %s: %w", dir, err)
	}
	return pickerModel{
		prompt:     prompt,
		extensions: extensions,
		dir:        dir,
		entries:    entries,
		height:     24,
	}, nil
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		return m.clampScroll(), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m pickerModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.cancelled = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m.clampScroll(), nil

	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return m.clampScroll(), nil

	case "left", "h", "backspace":
		return m.changeDir(filepath.Dir(m.dir)), nil

	case "enter":
		return m.activate()
	}

	return m, nil
}

func (m pickerModel) activate() (tea.Model, tea.Cmd) {
	if len(m.entries) == 0 {
		return m, nil
	}
	entry := m.entries[m.cursor]
	switch {
	case entry.selectable:
		if entry.name == "." {
			m.choice = m.dir
		} else {
			m.choice = filepath.Join(m.dir, entry.name)
		}
		return m, tea.Quit

	case entry.name == "..":
		return m.changeDir(filepath.Dir(m.dir)), nil

	case entry.isDir:
		return m.changeDir(filepath.Join(m.dir, entry.name)), nil
	}
	return m, nil
}

func (m pickerModel) changeDir(dir string) pickerModel {
	entries, err := readEntries(dir, m.extensions)
	if err != nil {
		m.status = fmt.Sprintf("cannot open %s", dir)
		return m
	}
	m.dir = dir
	m.entries = entries
	m.cursor = 0
	m.offset = 0
	m.status = ""
	return m
}

func (m pickerModel) clampScroll() pickerModel {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	return m
}

func (m pickerModel) visibleRows() int {
	rows := m.height - 6 // prompt, path, blank, blank, status, footer
	if rows < 3 {
		rows = 3
	}
	return rows
}

func (m pickerModel) View() string {
	var b strings.Builder

	b.WriteString(stylePickerPrompt.Render("  "+m.prompt) + "\n")
	b.WriteString(stylePickerDir.Render("  "+m.dir) + "\n\n")

	end := m.offset + m.visibleRows()
	if end > len(m.entries) {
		end = len(m.entries)
	}
	for i := m.offset; i < end; i++ {
		entry := m.entries[i]
		name := entry.name
		if entry.isDir && name != "." && name != ".." {
			name += "/"
		}
		switch {
		case i == m.cursor:
			b.WriteString("  " + stylePickerCursor.Render("> "+name))
		case entry.isDir && !entry.selectable:
			b.WriteString("    " + stylePickerFolder.Render(name))
		default:
			b.WriteString("    " + name)
		}
		b.WriteByte('\n')
	}
	if len(m.entries) == 0 {
		b.WriteString(stylePickerStatus.Render("    (empty)") + "\n")
	}

	b.WriteByte('\n')
	if m.status != "" {
		b.WriteString(stylePickerStatus.Render("  "+m.status) + "\n")
	}
	b.WriteString(stylePickerKeys.Render("  enter select   h up   j/k move   esc cancel"))

	return b.String()
}

// readEntries lists dir for the picker. Bundle images such as
// sparsebundles are directories on disk, so in file mode a folder whose
// name carries a wanted extension is offered as a selectable file.
func readEntries(dir string, extensions []string) ([]pickerEntry, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var entries []pickerEntry
	if extensions == nil {
		entries = append(entries, pickerEntry{name: ".", isDir: true, selectable: true})
	}
	if filepath.Dir(dir) != dir {
		entries = append(entries, pickerEntry{name: "..", isDir: true})
	}
	var dirs, files []pickerEntry
	for _, it := range items {
		name := it.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		switch {
		case it.IsDir() && matchesExtension(name, extensions):
			files = append(files, pickerEntry{name: name, isDir: true, selectable: true})
		case it.IsDir():
			dirs = append(dirs, pickerEntry{name: name, isDir: true})
		case matchesExtension(name, extensions):
			files = append(files, pickerEntry{name: name, selectable: true})
		}
	}
	entries = append(entries, dirs...)
	return append(entries, files...), nil
}

func matchesExtension(name string, extensions []string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	for _, want := range extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
