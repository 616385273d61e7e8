package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
)

// MemoryContactsRepo 用于 DB 未启用时的联调和 service 测试
type MemoryContactsRepo struct {
	t *memTable[domain.Contact]
}

func NewMemoryContactsRepo() *MemoryContactsRepo {
	return &MemoryContactsRepo{t: newMemTable[domain.Contact]()}
}

var _ ContactsRepository = (*MemoryContactsRepo)(nil)

func (r *MemoryContactsRepo) GetContact(_ context.Context, tenantID, contactID string) (*domain.Contact, error) {
	c, ok := r.t.get(tenantID, contactID)
	if !ok {
		return nil, fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return &c, nil
}

func (r *MemoryContactsRepo) ListContacts(_ context.Context, tenantID string, filter ContactsFilter, page, size int) ([]*domain.Contact, int, error) {
	search := strings.ToLower(filter.Search)
	rows := r.t.list(tenantID, func(c domain.Contact) bool {
		if search != "" &&
			!strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) &&
			!strings.Contains(strings.ToLower(c.BusinessName), search) {
			return false
		}
		if filter.Owner != "" && c.Owner != filter.Owner {
			return false
		}
		if filter.LeadScore != "" && c.LeadScore != filter.LeadScore {
			return false
		}
		if filter.Source != "" && c.Source != filter.Source {
			return false
		}
		return true
	})
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].ContactID < rows[j].ContactID
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	if limit, offset := normalizePage(page, size); limit > 0 {
		if offset >= len(rows) {
			rows = nil
		} else {
			rows = rows[offset:min(offset+limit, len(rows))]
		}
	}
	out := make([]*domain.Contact, 0, len(rows))
	for i := range rows {
		out = append(out, &rows[i])
	}
	return out, total, nil
}

func (r *MemoryContactsRepo) CreateContact(_ context.Context, c *domain.Contact) error {
	now := time.Now().UTC()
	c.ContactID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now
	r.t.put(c.TenantID, c.ContactID, *c)
	return nil
}

func (r *MemoryContactsRepo) BulkCreateContacts(ctx context.Context, tenantID string, contacts []*domain.Contact) (int, error) {
	for _, c := range contacts {
		c.TenantID = tenantID
		if err := r.CreateContact(ctx, c); err != nil {
			return 0, err
		}
	}
	return len(contacts), nil
}

func (r *MemoryContactsRepo) UpdateContact(_ context.Context, c *domain.Contact) error {
	return r.t.update(c.TenantID, func(rows map[string]domain.Contact) error {
		old, ok := rows[c.ContactID]
		if !ok {
			return fmt.Errorf("contact %s: %w", c.ContactID, domain.ErrNotFound)
		}
		c.CreatedAt = old.CreatedAt
		c.LastContactedAt = old.LastContactedAt
		c.UpdatedAt = time.Now().UTC()
		rows[c.ContactID] = *c
		return nil
	})
}

func (r *MemoryContactsRepo) DeleteContact(_ context.Context, tenantID, contactID string) error {
	if !r.t.del(tenantID, contactID) {
		return fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
	}
	return nil
}

func (r *MemoryContactsRepo) TouchLastContacted(_ context.Context, tenantID, contactID string, at time.Time) error {
	return r.t.update(tenantID, func(rows map[string]domain.Contact) error {
		c, ok := rows[contactID]
		if !ok {
			return fmt.Errorf("contact %s: %w", contactID, domain.ErrNotFound)
		}
		if c.LastContactedAt == nil || at.After(*c.LastContactedAt) {
			at := at
			c.LastContactedAt = &at
		}
		c.UpdatedAt = time.Now().UTC()
		rows[contactID] = c
		return nil
	})
}
