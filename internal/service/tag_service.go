package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Pristinepartners/pristine-crm-sub000/internal/domain"
	"github.com/Pristinepartners/pristine-crm-sub000/internal/repository"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// TagService 联系人标签
type TagService struct {
	tags     repository.TagsRepository
	contacts repository.ContactsRepository
	logger   *zap.Logger
}

func NewTagService(tags repository.TagsRepository, contacts repository.ContactsRepository, logger *zap.Logger) *TagService {
	return &TagService{tags: tags, contacts: contacts, logger: logger}
}

func (s *TagService) ListTags(ctx context.Context, tenantID string) ([]TagItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	tags, err := s.tags.ListTags(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return toTagItems(tags), nil
}

// CreateTag 名称在租户内唯一
func (s *TagService) CreateTag(ctx context.Context, tenantID, name, color string) (*TagItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("tag name is required")
	}
	if color != "" && !colorPattern.MatchString(color) {
		return nil, invalid("color must be #RRGGBB")
	}
	t := &domain.Tag{TenantID: tenantID, Name: name, Color: color}
	if err := s.tags.CreateTag(ctx, t); err != nil {
		return nil, err
	}
	return &TagItem{TagID: t.TagID, Name: t.Name, Color: t.Color}, nil
}

func (s *TagService) DeleteTag(ctx context.Context, tenantID, tagID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.tags.DeleteTag(ctx, tenantID, tagID)
}

func (s *TagService) ListContactTags(ctx context.Context, tenantID, contactID string) ([]TagItem, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	tags, err := s.tags.ListContactTags(ctx, tenantID, contactID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact tags: %w", err)
	}
	return toTagItems(tags), nil
}

// TagContact 给联系人打标签（幂等）
func (s *TagService) TagContact(ctx context.Context, tenantID, contactID, tagID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	if _, err := s.contacts.GetContact(ctx, tenantID, contactID); err != nil {
		return err
	}
	if _, err := s.tags.GetTag(ctx, tenantID, tagID); err != nil {
		return err
	}
	return s.tags.AddTagToContact(ctx, tenantID, contactID, tagID)
}

func (s *TagService) UntagContact(ctx context.Context, tenantID, contactID, tagID string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	return s.tags.RemoveTagFromContact(ctx, tenantID, contactID, tagID)
}
