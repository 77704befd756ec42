package database

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/containerhub/containerhub/internal/entities"
)

var ErrItemNotFound = errors.New("item not found")

// ItemFilter narrows item listings.
type ItemFilter struct {
	OrganizationID uint
	ItemType       entities.ItemType
	Industry       string
	Department     string
	Search         string

	// Visibilities the caller is allowed to see. Empty means public only.
	Visibilities []entities.Visibility

	// MarketplaceOnly restricts the listing to cross-org marketplace items.
	MarketplaceOnly bool
}

// CreateItem persists a single item along with its tags.
// Tags are created on first use and attached in the order supplied.
func (d *Database) CreateItem(item *entities.Item, tagNames []string) error {
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("item title must not be empty")
	}
	if !entities.ValidItemType(item.ItemType) {
		return fmt.Errorf("invalid item type: %s", item.ItemType)
	}
	if item.Visibility == "" {
		item.Visibility = entities.VisibilityPublic
	}
	if !entities.ValidVisibility(item.Visibility) {
		return fmt.Errorf("invalid visibility: %s", item.Visibility)
	}

	return d.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("failed to create item: %w", err)
		}
		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		if len(tags) > 0 {
			if err := tx.Model(item).Association("Tags").Append(tags); err != nil {
				return fmt.Errorf("failed to attach tags: %w", err)
			}
		}
		return nil
	})
}

// BulkCreateItems persists a batch of items in one transaction and returns
// the number created. The whole batch fails together so a partially written
// batch never reports success.
func (d *Database) BulkCreateItems(items []*entities.Item, tagNames [][]string) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	created := 0
	err := d.DB.Transaction(func(tx *gorm.DB) error {
		for i, item := range items {
			if strings.TrimSpace(item.Title) == "" {
				return fmt.Errorf("item %d: title must not be empty", i)
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			if i < len(tagNames) && len(tagNames[i]) > 0 {
				tags, err := findOrCreateTags(tx, tagNames[i])
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				if err := tx.Model(item).Association("Tags").Append(tags); err != nil {
					return fmt.Errorf("item %d: failed to attach tags: %w", i, err)
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// ListItems returns items matching the filter, newest first.
func (d *Database) ListItems(filter ItemFilter) ([]entities.Item, error) {
	query := d.DB.Preload("Tags").Order("created_at DESC")

	visibilities := filter.Visibilities
	if len(visibilities) == 0 {
		visibilities = []entities.Visibility{entities.VisibilityPublic}
	}
	query = query.Where("visibility IN ?", visibilities)

	if filter.OrganizationID != 0 && !filter.MarketplaceOnly {
		// Org members see their own items plus the shared marketplace.
		query = query.Where("organization_id = ? OR is_marketplace_item = ?", filter.OrganizationID, true)
	}
	if filter.MarketplaceOnly {
		query = query.Where("is_marketplace_item = ?", true)
	}
	if filter.ItemType != "" {
		query = query.Where("item_type = ?", filter.ItemType)
	}
	if filter.Industry != "" {
		query = query.Where("industry = ?", filter.Industry)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var items []entities.Item
	if err := query.Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

// RegisteredSourceURLs returns the distinct non-empty source URLs of all
// registered items. The deduplication filter checks candidates against it.
func (d *Database) RegisteredSourceURLs() ([]string, error) {
	var urls []string
	err := d.DB.Model(&entities.Item{}).
		Where("source_url <> ''").
		Distinct().
		Pluck("source_url", &urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source urls: %w", err)
	}
	return urls, nil
}

func (d *Database) GetItemByID(id uint) (*entities.Item, error) {
	var item entities.Item
	err := d.DB.Preload("Tags").First(&item, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem applies the given column updates to an item.
func (d *Database) UpdateItem(id uint, updates map[string]interface{}) (*entities.Item, error) {
	result := d.DB.Model(&entities.Item{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	return d.GetItemByID(id)
}

// DeleteItem soft-deletes an item.
func (d *Database) DeleteItem(id uint) error {
	result := d.DB.Delete(&entities.Item{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrItemNotFound
	}
	return nil
}

func findOrCreateTags(tx *gorm.DB, names []string) ([]entities.Tag, error) {
	tags := make([]entities.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[strings.ToLower(name)] {
			continue
		}
		seen[strings.ToLower(name)] = true

		var tag entities.Tag
		err := tx.Where("name = ?", name).First(&tag).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			tag = entities.Tag{Name: name}
			if err := tx.Create(&tag).Error; err != nil {
				return nil, fmt.Errorf("failed to create tag %s: %w", name, err)
			}
		} else if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
