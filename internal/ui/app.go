package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"DesignStudio/internal/editor"
	"DesignStudio/internal/logging"
)

// Options configure the desktop window.
type Options struct {
	Title     string
	Owner     string
	ShareLink string
	ExportDir string
}

// RunApp opens the editor window for s and blocks until it is closed.
func RunApp(s *editor.Session, opts Options) {
	if opts.Title == "" {
		opts.Title = "Design Studio"
	}
	a := app.New()
	w := a.NewWindow(opts.Title + " - " + s.Name())
	w.Resize(fyne.NewSize(1280, 800))

	status := widget.NewLabel("Ready")
	if opts.ShareLink != "" {
		status.SetText("Live preview at " + opts.ShareLink)
	}
	report := func(err error) {
		if err != nil {
			logging.For("ui").Debug("action failed", "err", err)
		}
	}

	board := NewBoard(s)
	props := newProperties(s)
	d := &dialogs{s: s, win: w, owner: opts.Owner, dir: opts.ExportDir}

	stopWatch := s.Watch(func() {
		fyne.Do(func() {
			board.Redraw()
			props.update(s.Fields())
			w.SetTitle(opts.Title + " - " + s.Name())
		})
	})
	stopNotices := s.OnNotice(func(n editor.Notice) {
		fyne.Do(func() { showNotice(status, n) })
	})
	defer stopWatch()
	defer stopNotices()

	w.SetMainMenu(d.menu())
	registerShortcuts(w.Canvas(), s)

	side := container.NewVScroll(props.root)
	side.SetMinSize(fyne.NewSize(280, 0))
	content := container.NewBorder(
		NewToolbar(s, report),
		status,
		nil,
		side,
		container.NewCenter(board),
	)
	w.SetContent(content)
	w.ShowAndRun()
}

func showNotice(status *widget.Label, n editor.Notice) {
	text := n.Title
	if n.Message != "" {
		text += ": " + n.Message
	}
	status.Importance = widget.MediumImportance
	if n.Level == editor.LevelError {
		status.Importance = widget.DangerImportance
	}
	status.SetText(text)
}

func registerShortcuts(c fyne.Canvas, s *editor.Session) {
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { _, _ = s.Undo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierShortcutDefault},
		func(fyne.Shortcut) { _, _ = s.Redo() })
	c.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierShortcutDefault | fyne.KeyModifierShift},
		func(fyne.Shortcut) { _, _ = s.Redo() })
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyDelete, fyne.KeyBackspace:
			_ = s.DeleteActive()
		}
	})
}
