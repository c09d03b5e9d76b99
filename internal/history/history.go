// Package history keeps full-copy snapshots of a document and replays them
// on undo and redo.
package history

import (
	"fmt"

	"DesignStudio/internal/export"
	"DesignStudio/internal/logging"
	"DesignStudio/internal/state"
)

// Record is one snapshot and the action that produced it.
type Record struct {
	Label string
	Data  []byte
}

// Manager records a snapshot after every committed document change. The
// snapshot at the cursor always matches the committed document after that
// change; previews still open are left out. Recording after an undo prunes
// the redo branch.
type Manager struct {
	doc     *state.Document
	records []Record
	cursor  int
	limit   int
	cancel  func()
}

// New attaches a manager to doc. A positive limit drops the oldest
// snapshots once more than limit are held.
func New(doc *state.Document, limit int) *Manager {
	m := &Manager{doc: doc, limit: limit}
	m.cancel = doc.Subscribe(m.observe)
	return m
}

func (m *Manager) observe(e state.Event) {
	if !e.Mutation() {
		return
	}
	if err := m.Record(e.Label()); err != nil {
		logging.For("history").Error("snapshot failed", "action", e.Label(), "err", err)
	}
}

// Detach stops recording.
func (m *Manager) Detach() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Record snapshots the committed document, discarding anything after the
// cursor.
func (m *Manager) Record(label string) error {
	data, err := export.Encode(m.doc.Committed())
	if err != nil {
		return fmt.Errorf("record %q: %w", label, err)
	}
	if len(m.records) > 0 {
		m.records = m.records[:m.cursor+1]
	}
	m.records = append(m.records, Record{Label: label, Data: data})
	if m.limit > 0 && len(m.records) > m.limit {
		m.records = append([]Record(nil), m.records[len(m.records)-m.limit:]...)
	}
	m.cursor = len(m.records) - 1
	logging.For("history").Debug("snapshot recorded", "action", label, "cursor", m.cursor, "len", len(m.records))
	return nil
}

// Undo steps back one snapshot. At the first snapshot it does nothing and
// reports false.
func (m *Manager) Undo() (bool, error) {
	if m.cursor == 0 || len(m.records) == 0 {
		return false, nil
	}
	return true, m.moveTo(m.cursor - 1)
}

// Redo steps forward one snapshot. At the last snapshot it does nothing and
// reports false.
func (m *Manager) Redo() (bool, error) {
	if m.cursor >= len(m.records)-1 {
		return false, nil
	}
	return true, m.moveTo(m.cursor + 1)
}

func (m *Manager) moveTo(i int) error {
	snap, err := export.Decode(m.records[i].Data)
	if err != nil {
		return fmt.Errorf("restore snapshot %d: %w", i, err)
	}
	m.cursor = i
	m.doc.Restore(snap)
	return nil
}

// Reset discards every record and starts over with the live document as the
// only snapshot.
func (m *Manager) Reset(label string) error {
	m.records = nil
	m.cursor = 0
	return m.Record(label)
}

// Len is the number of snapshots held.
func (m *Manager) Len() int { return len(m.records) }

// Cursor is the index of the snapshot matching the live document.
// It is 0 while the history is empty.
func (m *Manager) Cursor() int { return m.cursor }

func (m *Manager) CanUndo() bool { return m.cursor > 0 }

func (m *Manager) CanRedo() bool { return m.cursor < len(m.records)-1 }

// Labels lists the action of every snapshot, oldest first.
func (m *Manager) Labels() []string {
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.Label
	}
	return out
}
