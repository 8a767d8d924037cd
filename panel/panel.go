package panel

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"sync"

	"github.com/yeremiapane/portfolio-app/models"
)

// Backend is the server side the panel acts on. *APIClient implements it.
type Backend interface {
	List(ctx context.Context) ([]models.Notification, error)
	MarkRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	ClearAll(ctx context.Context) error
}

// Diff is what a Fetch changed locally.
type Diff struct {
	Added   int
	Removed int
	Updated int
}

func (d Diff) Empty() bool {
	return d.Added == 0 && d.Removed == 0 && d.Updated == 0
}

// Panel holds the operator's notification list and unread count. Local state only
// changes after the server has confirmed an action.
type Panel struct {
	// OnError receives every failed action with the operation name.
	OnError func(op string, err error)
	// OnChange is called after the local state changed, outside the panel lock.
	OnChange func()

	backend Backend
	sound   SoundService

	mu     sync.Mutex
	items  map[string]models.Notification
	unread int

	// gen counts local pushes, deletes and clears. touched and deleted remember the generation
	// that last changed an id so a fetch started earlier cannot undo it.
	gen       uint64
	touched   map[string]uint64
	deleted   map[string]uint64
	clearedAt uint64
	fetching  int
}

func New(backend Backend, sound SoundService) *Panel {
	if sound == nil {
		sound = Silent{}
	}
	return &Panel{
		backend: backend,
		sound:   sound,
		items:   make(map[string]models.Notification),
		touched: make(map[string]uint64),
		deleted: make(map[string]uint64),
	}
}

// Fetch pulls the server list and reconciles it into the local state.
func (p *Panel) Fetch(ctx context.Context) (Diff, error) {
	p.mu.Lock()
	start := p.gen
	p.fetching++
	p.mu.Unlock()

	list, err := p.backend.List(ctx)

	p.mu.Lock()
	var diff Diff
	if err == nil {
		diff = p.reconcile(list, start)
	}
	p.fetching--
	if p.fetching == 0 {
		p.touched = make(map[string]uint64)
		p.deleted = make(map[string]uint64)
	}
	p.mu.Unlock()

	if err != nil {
		return Diff{}, p.fail("fetch", err)
	}

	if !diff.Empty() {
		p.changed()
	}
	return diff, nil
}

// reconcile must be called with p.mu held. start is the generation the fetch began
// at; ids pushed or deleted after it keep their local state. A record read locally
// stays read even if the server copy is older.
func (p *Panel) reconcile(list []models.Notification, start uint64) Diff {
	var diff Diff
	seen := make(map[string]struct{}, len(list))
	for _, n := range list {
		seen[n.ID] = struct{}{}
		old, ok := p.items[n.ID]
		if !ok {
			if p.deleted[n.ID] > start || p.clearedAt > start {
				continue
			}
			p.items[n.ID] = n
			diff.Added++
			continue
		}
		if old.Read {
			n.Read = true
		}
		if !sameNotification(old, n) {
			p.items[n.ID] = n
			diff.Updated++
		}
	}
	for id := range p.items {
		if p.touched[id] > start {
			continue
		}
		if _, ok := seen[id]; !ok {
			delete(p.items, id)
			diff.Removed++
		}
	}
	p.recount()
	return diff
}

func sameNotification(a, b models.Notification) bool {
	return a.Message == b.Message &&
		a.Type == b.Type &&
		a.Category == b.Category &&
		a.Importance == b.Importance &&
		a.Link == b.Link &&
		a.Read == b.Read &&
		a.CreatedAt.Equal(b.CreatedAt) &&
		reflect.DeepEqual(a.Metadata, b.Metadata)
}

// MarkAsRead marks one notification read. Marking a read notification again does not
// touch the unread count.
func (p *Panel) MarkAsRead(ctx context.Context, id string) error {
	if _, err := p.backend.MarkRead(ctx, id); err != nil {
		return p.fail("mark_read", err)
	}

	p.mu.Lock()
	n, ok := p.items[id]
	changed := ok && !n.Read
	if changed {
		n.Read = true
		p.items[id] = n
		if p.unread > 0 {
			p.unread--
		}
	}
	p.mu.Unlock()

	if changed {
		p.changed()
	}
	return nil
}

func (p *Panel) MarkAllAsRead(ctx context.Context) error {
	if err := p.backend.MarkAllRead(ctx); err != nil {
		return p.fail("mark_all_read", err)
	}

	p.mu.Lock()
	for id, n := range p.items {
		n.Read = true
		p.items[id] = n
	}
	p.unread = 0
	p.mu.Unlock()

	p.changed()
	return nil
}

// Delete removes one notification. The unread count is recomputed from what is left.
func (p *Panel) Delete(ctx context.Context, id string) error {
	if err := p.backend.Delete(ctx, id); err != nil {
		return p.fail("delete", err)
	}

	p.mu.Lock()
	delete(p.items, id)
	p.gen++
	p.deleted[id] = p.gen
	p.recount()
	p.mu.Unlock()

	p.changed()
	return nil
}

func (p *Panel) ClearAll(ctx context.Context) error {
	if err := p.backend.ClearAll(ctx); err != nil {
		return p.fail("clear_all", err)
	}

	p.mu.Lock()
	empty := len(p.items) == 0
	p.items = make(map[string]models.Notification)
	p.unread = 0
	p.gen++
	p.clearedAt = p.gen
	p.mu.Unlock()

	if !empty {
		p.changed()
	}
	return nil
}

// Apply adds a notification pushed over the stream and plays its cue. A record the
// panel already holds is ignored.
func (p *Panel) Apply(n models.Notification) bool {
	p.mu.Lock()
	if _, ok := p.items[n.ID]; ok {
		p.mu.Unlock()
		return false
	}
	p.items[n.ID] = n
	p.gen++
	p.touched[n.ID] = p.gen
	if !n.Read {
		p.unread++
	}
	p.mu.Unlock()

	if !n.Read {
		p.sound.Play(CueFor(n))
	}
	p.changed()
	return true
}

// Items returns every notification, newest first.
func (p *Panel) Items() []models.Notification {
	items := p.snapshot()
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items
}

// Sorted orders for display: unread first, then importance high to low, then newest.
func (p *Panel) Sorted() []models.Notification {
	items := p.snapshot()
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Read != b.Read {
			return !a.Read
		}
		if ra, rb := a.Importance.Rank(), b.Importance.Rank(); ra != rb {
			return ra < rb
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return items
}

func (p *Panel) UnreadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// Badge is the unread count as shown on the bell icon.
func (p *Panel) Badge() string {
	n := p.UnreadCount()
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}

func (p *Panel) snapshot() []models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := make([]models.Notification, 0, len(p.items))
	for _, n := range p.items {
		items = append(items, n)
	}
	return items
}

// recount must be called with p.mu held.
func (p *Panel) recount() {
	unread := 0
	for _, n := range p.items {
		if !n.Read {
			unread++
		}
	}
	p.unread = unread
}

func (p *Panel) fail(op string, err error) error {
	if p.OnError != nil {
		p.OnError(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *Panel) changed() {
	if p.OnChange != nil {
		p.OnChange()
	}
}
