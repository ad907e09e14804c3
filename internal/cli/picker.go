package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/voronoize/voronoize/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// imageExtensions are the file types the picker offers.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// imageEntry is one selectable file in the picker.
type imageEntry struct {
	Name string
	Size int64
}

// ImageListModel is the bubbletea model for interactive image selection.
type ImageListModel struct {
	Images   []imageEntry
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewImageListModel creates a new image list model.
func NewImageListModel(images []imageEntry) ImageListModel {
	return ImageListModel{
		Images: images,
		Height: 15,
	}
}

func (m ImageListModel) Init() tea.Cmd {
	return nil
}

func (m ImageListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Images)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Images[m.Cursor].Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ImageListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Image"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Images) {
		end = len(m.Images)
	}

	for i := m.Offset; i < end; i++ {
		img := m.Images[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		line := fmt.Sprintf("%s%-40s %s", cursor, img.Name, listDimStyle.Render(formatSize(img.Size)))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Images))))

	return b.String()
}

// pickImage runs the interactive picker over the image files in dir.
// Quitting without a selection is reported as INVALID_INPUT.
func pickImage(dir string) (string, error) {
	images, err := listImages(dir)
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "no image files in %s", dir)
	}

	final, err := tea.NewProgram(NewImageListModel(images)).Run()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "run image picker")
	}

	model, ok := final.(ImageListModel)
	if !ok || model.Selected == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no image selected")
	}
	return filepath.Join(dir, model.Selected), nil
}

// listImages collects the image files directly under dir, sorted by name.
func listImages(dir string) ([]imageEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "list %s", dir)
	}

	var images []imageEntry
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		images = append(images, imageEntry{Name: e.Name(), Size: info.Size()})
	}
	return images, nil
}

// formatSize renders a byte count in human-readable form.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
