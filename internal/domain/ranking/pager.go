package ranking

import (
	"sync"

	"github.com/nvara/tally/internal/domain/types"
)

// Default pagination constants.
const (
	defaultPageSize = 20
	firstPage       = 1
)

// PagerOption applies a configuration option to the Pager.
type PagerOption func(*Pager)

// WithPageSize sets the page size used for every group.
func WithPageSize(size int) PagerOption {
	return func(p *Pager) {
		if size > 0 {
			p.pageSize = size
		}
	}
}

// Pager tracks the current page per group key so paging one group does not
// reset another's page. Unknown keys start at page 1.
type Pager struct {
	mu       sync.Mutex
	pageSize int
	pages    map[string]int
}

// NewPager creates a pager with configuration options.
func NewPager(opts ...PagerOption) *Pager {
	p := &Pager{
		pageSize: defaultPageSize,
		pages:    make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PageSize returns the configured page size.
func (p *Pager) PageSize() int {
	return p.pageSize
}

// SetPage positions one group on a specific page. Pages below 1 reset the
// group to the first page.
func (p *Pager) SetPage(key string, page int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page < firstPage {
		page = firstPage
	}
	p.pages[key] = page
}

// Page returns the current page for a group key.
func (p *Pager) Page(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if page, ok := p.pages[key]; ok {
		return page
	}
	return firstPage
}

// Reset forgets all page state, returning every group to the first page.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pages = make(map[string]int)
}

// Slice cuts one group down to its current page. A page beyond the end
// yields an empty item list with the page number preserved, so a consumer
// can detect it ran off the end without losing position in other groups.
func (p *Pager) Slice(g Group) types.GroupPage {
	return p.SliceN(g, 0)
}

// SliceN is Slice with a per-call page size override; pageSize <= 0 uses the
// configured default.
func (p *Pager) SliceN(g Group, pageSize int) types.GroupPage {
	if pageSize <= 0 {
		pageSize = p.pageSize
	}
	return slicePage(g, p.Page(g.Key), pageSize)
}

func slicePage(g Group, page, pageSize int) types.GroupPage {
	out := types.GroupPage{
		Key:        g.Key,
		TotalCount: len(g.Entries),
		Page:       page,
	}
	start := (page - firstPage) * pageSize
	if start >= len(g.Entries) {
		return out
	}
	end := start + pageSize
	if end > len(g.Entries) {
		end = len(g.Entries)
	}
	out.PageItems = g.Entries[start:end]
	return out
}
