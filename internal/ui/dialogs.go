package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"

	"DesignStudio/internal/editor"
	"DesignStudio/internal/logging"
)

const requestTimeout = 90 * time.Second

// dialogs holds the file, prompt and storage flows of the main menu.
// Long running calls are made off the UI goroutine; their outcome is
// reported through the session's notices.
type dialogs struct {
	s     *editor.Session
	win   fyne.Window
	owner string
	dir   string
}

func (d *dialogs) menu() *fyne.MainMenu {
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("Rename...", d.rename),
		fyne.NewMenuItem("Open Saved Design...", d.openSaved),
		fyne.NewMenuItem("Save", d.save),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Import JSON...", d.importJSON),
		fyne.NewMenuItem("Export JSON...", d.exportJSON),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Download PNG", func() { d.download("png") }),
		fyne.NewMenuItem("Download PDF", func() { d.download("pdf") }),
	)
	insert := fyne.NewMenu("Insert",
		fyne.NewMenuItem("Image from File...", d.imageFile),
		fyne.NewMenuItem("Image from URL...", d.imageURL),
		fyne.NewMenuItem("Generate Image...", d.generate),
	)
	return fyne.NewMainMenu(file, insert)
}

func readAll(r fyne.URIReadCloser) ([]byte, error) {
	defer r.Close()
	return io.ReadAll(r)
}

// wait logs the final outcome of an async request. Failures are already
// shown as notices.
func wait(op string, ch <-chan error, cancel context.CancelFunc) {
	go func() {
		defer cancel()
		if err := <-ch; err != nil {
			logging.For("ui").Debug("request ended", "op", op, "err", err)
		}
	}()
}

func (d *dialogs) imageFile() {
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		data, err := readAll(r)
		if err != nil {
			dialog.ShowError(err, d.win)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		wait("import file", d.s.ImportFile(ctx, data), cancel)
	}, d.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tiff"}))
	fd.Show()
}

func (d *dialogs) imageURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://")
	dialog.ShowForm("Image from URL", "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			wait("import url", d.s.ImportURL(ctx, entry.Text), cancel)
		}, d.win)
}

func (d *dialogs) generate() {
	entry := widget.NewMultiLineEntry()
	entry.SetText(d.s.Prompt())
	entry.OnChanged = d.s.SetPrompt
	entry.SetPlaceHolder("A watercolor fox in a snowy forest")
	form := dialog.NewForm("Generate Image", "Generate", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Prompt", entry)},
		func(ok bool) {
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			wait("generate image", d.s.GenerateImage(ctx, entry.Text), cancel)
		}, d.win)
	form.Resize(fyne.NewSize(480, 220))
	form.Show()
}

func (d *dialogs) rename() {
	entry := widget.NewEntry()
	entry.SetText(d.s.Name())
	dialog.ShowForm("Rename Design", "Rename", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Name", entry)},
		func(ok bool) {
			if ok {
				_ = d.s.Rename(entry.Text)
			}
		}, d.win)
}

// ownerThen asks for the owner id when none was configured.
func (d *dialogs) ownerThen(next func(owner string)) {
	if d.owner != "" {
		next(d.owner)
		return
	}
	entry := widget.NewEntry()
	entry.SetPlaceHolder("user id")
	dialog.ShowForm("Sign In", "Continue", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("User", entry)},
		func(ok bool) {
			if ok && entry.Text != "" {
				d.owner = entry.Text
				next(d.owner)
			}
		}, d.win)
}

func (d *dialogs) save() {
	d.ownerThen(func(owner string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			if _, err := d.s.Save(ctx, owner); err != nil {
				logging.For("ui").Debug("save failed", "err", err)
			}
		}()
	})
}

func (d *dialogs) openSaved() {
	d.ownerThen(func(owner string) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			list, err := d.s.Designs(ctx, owner)
			fyne.Do(func() {
				if err != nil {
					dialog.ShowError(err, d.win)
					return
				}
				if len(list) == 0 {
					dialog.ShowInformation("Open Saved Design", "No saved designs yet.", d.win)
					return
				}
				labels := make([]string, len(list))
				ids := make(map[string]string, len(list))
				for i, des := range list {
					labels[i] = fmt.Sprintf("%s (%s)", des.Name, des.UpdatedAt.Local().Format("2006-01-02 15:04"))
					ids[labels[i]] = des.ID
				}
				pick := widget.NewSelect(labels, nil)
				dialog.ShowForm("Open Saved Design", "Open", "Cancel",
					[]*widget.FormItem{widget.NewFormItem("Design", pick)},
					func(ok bool) {
						if ok && pick.Selected != "" {
							d.load(ids[pick.Selected])
						}
					}, d.win)
			})
		}()
	})
}

func (d *dialogs) load(id string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := d.s.Load(ctx, id); err != nil {
			logging.For("ui").Debug("load failed", "id", id, "err", err)
		}
	}()
}

func (d *dialogs) importJSON() {
	fd := dialog.NewFileOpen(func(r fyne.URIReadCloser, err error) {
		if err != nil || r == nil {
			return
		}
		data, err := readAll(r)
		if err != nil {
			dialog.ShowError(err, d.win)
			return
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			defer cancel()
			_ = d.s.LoadJSON(ctx, data)
		}()
	}, d.win)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".json"}))
	fd.Show()
}

func (d *dialogs) exportJSON() {
	fd := dialog.NewFileSave(func(w fyne.URIWriteCloser, err error) {
		if err != nil || w == nil {
			return
		}
		defer w.Close()
		data, err := d.s.ExportJSON()
		if err == nil {
			_, err = w.Write(data)
		}
		if err != nil {
			dialog.ShowError(err, d.win)
		}
	}, d.win)
	fd.SetFileName(d.s.Name() + ".json")
	fd.Show()
}

// download writes the PNG or PDF into the export directory, asking for
// one when none is configured.
func (d *dialogs) download(ext string) {
	run := func(dir string) {
		go func() {
			var err error
			if ext == "pdf" {
				_, err = d.s.DownloadPDF(dir)
			} else {
				_, err = d.s.Download(dir)
			}
			if err != nil {
				logging.For("ui").Debug("download failed", "ext", ext, "err", err)
			}
		}()
	}
	if d.dir != "" {
		run(d.dir)
		return
	}
	dialog.ShowFolderOpen(func(u fyne.ListableURI, err error) {
		if err != nil || u == nil {
			return
		}
		d.dir = u.Path()
		run(d.dir)
	}, d.win)
}
