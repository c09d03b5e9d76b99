// Package state holds the document model: an ordered list of drawable
// objects plus canvas properties. List order is z-order, index 0 at the back.
package state

import (
	"fmt"
	"image"
	"reflect"
	"slices"

	"DesignStudio/internal/logging"
)

// Placement is the target of a reorder.
type Placement int

const (
	ToFront Placement = iota
	ToBack
)

// Snapshot is a detached copy of the document state.
type Snapshot struct {
	Width      float64
	Height     float64
	Background string
	Objects    []Object
}

// Document is owned by a single editing session and is not safe for
// concurrent use; the session serializes access.
type Document struct {
	width      float64
	height     float64
	background string
	objects    []*Object
	active     string

	// used holds every id ever assigned, so ids stay unique for the
	// document's lifetime even after removal.
	used   map[string]struct{}
	assets map[string]image.Image

	// committed holds the last committed copy of each object that has
	// previewed changes on top of it.
	committed map[string]*Object

	observers map[int]Observer
	nextObs   int
}

// New creates an empty document.
func New(width, height float64, background string) *Document {
	return &Document{
		width:      width,
		height:     height,
		background: background,
		used:       make(map[string]struct{}),
		assets:     make(map[string]image.Image),
		committed:  make(map[string]*Object),
		observers:  make(map[int]Observer),
	}
}

func (d *Document) Width() float64     { return d.width }
func (d *Document) Height() float64    { return d.height }
func (d *Document) Background() string { return d.background }
func (d *Document) Len() int           { return len(d.objects) }

// Subscribe registers fn for every subsequent event. The returned func
// removes it.
func (d *Document) Subscribe(fn Observer) (cancel func()) {
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	return func() { delete(d.observers, id) }
}

func (d *Document) emit(e Event) {
	keys := make([]int, 0, len(d.observers))
	for k := range d.observers {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if fn, ok := d.observers[k]; ok {
			fn(e)
		}
	}
}

func (d *Document) index(id string) int {
	return slices.IndexFunc(d.objects, func(o *Object) bool { return o.ID == id })
}

func (d *Document) claimID(o *Object) {
	if _, taken := d.used[o.ID]; o.ID == "" || taken {
		o.ID = NewID(o.Kind)
	}
	d.used[o.ID] = struct{}{}
}

// Add appends o at the top of the z-order and returns its id. An empty or
// already used id is replaced with a fresh one.
func (d *Document) Add(o Object) (string, error) {
	if err := Validate(o); err != nil {
		return "", fmt.Errorf("add object: %w", err)
	}
	obj := o.Clone()
	d.claimID(&obj)
	d.objects = append(d.objects, &obj)
	logging.For("state").Debug("object added", "id", obj.ID, "kind", obj.Kind, "count", len(d.objects))
	d.emit(Event{Kind: EventAdded, ID: obj.ID, Object: obj.Kind})
	return obj.ID, nil
}

// Remove deletes the object with id. It reports false when there is none.
func (d *Document) Remove(id string) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	kind := d.objects[i].Kind
	d.objects = slices.Delete(d.objects, i, i+1)
	delete(d.committed, id)
	if d.active == id {
		d.active = ""
	}
	d.emit(Event{Kind: EventRemoved, ID: id, Object: kind})
	return true
}

// Update merges p into the object with id as a committed edit. It reports
// false, and emits nothing, when the object is missing or nothing changed.
func (d *Document) Update(id string, p Patch) bool {
	return d.patch(id, p, EventUpdated)
}

// Preview merges p like Update but emits EventPreviewed, which redraws
// without being recorded. The object's committed state is kept aside until
// the preview is rewound or committed; see Committed.
func (d *Document) Preview(id string, p Patch) bool {
	return d.patch(id, p, EventPreviewed)
}

func (d *Document) patch(id string, p Patch, kind EventKind) bool {
	i := d.index(id)
	if i < 0 || p.Empty() {
		return false
	}
	if !p.Finite() {
		logging.For("state").Warn("non-finite patch refused", "id", id)
		return false
	}
	o := d.objects[i]
	base, pending := d.committed[id]

	if kind == EventPreviewed {
		if !pending {
			c := o.Clone()
			base = &c
		}
		if !o.apply(p) {
			return false
		}
		d.settle(id, o, base)
		d.emit(Event{Kind: kind, ID: id, Object: o.Kind})
		return true
	}

	changed := o.apply(p)
	if pending {
		// a commit lands on the committed copy too; the live object only
		// redraws when the committed state did not move
		live := changed
		changed = base.apply(p)
		d.settle(id, o, base)
		if !changed && live {
			kind = EventPreviewed
			changed = true
		}
	}
	if !changed {
		return false
	}
	d.emit(Event{Kind: kind, ID: id, Object: o.Kind})
	return true
}

// settle keeps base as the committed copy of id while o differs from it.
func (d *Document) settle(id string, o, base *Object) {
	if reflect.DeepEqual(*o, *base) {
		delete(d.committed, id)
		return
	}
	d.committed[id] = base
}

// Reorder moves the object to the end (front) or the start (back) of the
// list. Moving an object that is already there is a no-op.
func (d *Document) Reorder(id string, to Placement) bool {
	i := d.index(id)
	if i < 0 {
		return false
	}
	o := d.objects[i]
	switch to {
	case ToFront:
		if i == len(d.objects)-1 {
			return false
		}
		d.objects = append(slices.Delete(d.objects, i, i+1), o)
	case ToBack:
		if i == 0 {
			return false
		}
		d.objects = slices.Insert(slices.Delete(d.objects, i, i+1), 0, o)
	default:
		return false
	}
	d.emit(Event{Kind: EventReordered, ID: id, Object: o.Kind})
	return true
}

// Clear removes every object as a single change. An empty document stays
// untouched.
func (d *Document) Clear() bool {
	if len(d.objects) == 0 {
		return false
	}
	d.objects = nil
	d.active = ""
	clear(d.committed)
	d.emit(Event{Kind: EventCleared})
	return true
}

// SetBackground changes the canvas color.
func (d *Document) SetBackground(c string) bool {
	if c == d.background {
		return false
	}
	d.background = c
	d.emit(Event{Kind: EventBackground})
	return true
}

// Object returns a copy of the object with id.
func (d *Document) Object(id string) (Object, bool) {
	if i := d.index(id); i >= 0 {
		return d.objects[i].Clone(), true
	}
	return Object{}, false
}

// Objects returns copies of all objects, back to front.
func (d *Document) Objects() []Object {
	out := make([]Object, len(d.objects))
	for i, o := range d.objects {
		out[i] = o.Clone()
	}
	return out
}

// IDs returns object ids, back to front.
func (d *Document) IDs() []string {
	out := make([]string, len(d.objects))
	for i, o := range d.objects {
		out[i] = o.ID
	}
	return out
}

// ActiveID returns the selected object's id, or "" when nothing is selected.
func (d *Document) ActiveID() string { return d.active }

// Active returns a copy of the selected object.
func (d *Document) Active() (Object, bool) {
	if d.active == "" {
		return Object{}, false
	}
	return d.Object(d.active)
}

// SetActive selects the object with id; "" clears the selection. An unknown
// id is refused and the selection is left alone.
func (d *Document) SetActive(id string) bool {
	if id != "" && d.index(id) < 0 {
		return false
	}
	if id == d.active {
		return true
	}
	d.active = id
	d.emit(Event{Kind: EventSelected, ID: id})
	return true
}

// Snapshot returns a deep copy of the current state.
func (d *Document) Snapshot() Snapshot {
	return Snapshot{
		Width:      d.width,
		Height:     d.height,
		Background: d.background,
		Objects:    d.Objects(),
	}
}

// Committed is Snapshot without previewed changes: the state a history
// snapshot records while a slider or a drag is still open.
func (d *Document) Committed() Snapshot {
	s := d.Snapshot()
	for i, o := range s.Objects {
		if base, ok := d.committed[o.ID]; ok {
			s.Objects[i] = base.Clone()
		}
	}
	return s
}

// Restore replaces the whole state with s. The selection survives when the
// selected object exists in s, otherwise it is cleared.
func (d *Document) Restore(s Snapshot) {
	d.width, d.height, d.background = s.Width, s.Height, s.Background
	clear(d.committed)
	d.objects = make([]*Object, 0, len(s.Objects))
	for _, o := range s.Objects {
		obj := o.Clone()
		if _, taken := d.used[obj.ID]; !taken || d.index(obj.ID) >= 0 {
			d.claimID(&obj)
		}
		d.objects = append(d.objects, &obj)
	}
	if d.active != "" && d.index(d.active) < 0 {
		d.active = ""
	}
	d.emit(Event{Kind: EventRestored})
}

// RegisterAsset records decoded pixels under src for image objects.
func (d *Document) RegisterAsset(src string, img image.Image) {
	d.assets[src] = img
}

// Asset returns the pixels registered under src.
func (d *Document) Asset(src string) (image.Image, bool) {
	img, ok := d.assets[src]
	return img, ok
}
