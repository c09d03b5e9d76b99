package editor

import (
	"errors"

	"DesignStudio/internal/errs"
)

type Level int

const (
	LevelInfo Level = iota
	LevelError
)

// Notice is a transient message for the user, shown as a toast.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

func info(title, msg string) Notice {
	return Notice{Level: LevelInfo, Title: title, Message: msg}
}

func failure(err error) Notice {
	title := "Error"
	switch errs.KindOf(err) {
	case errs.ErrValidation:
		title = "Nothing to do"
	case errs.ErrService:
		title = "Service unavailable"
	case errs.ErrImport:
		title = "Import failed"
	case errs.ErrPrecondition:
		title = "Not yet"
	}
	msg := err.Error()
	var e *errs.Error
	if errors.As(err, &e) && e.Msg != "" {
		msg = e.Msg
	}
	return Notice{Level: LevelError, Title: title, Message: msg}
}
