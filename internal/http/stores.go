package http

import (
	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
)

// ItemStore is the catalog persistence interface used by the items
// controller. *database.Database satisfies it.
type ItemStore interface {
	CreateItem(item *entities.Item, tagNames []string) error
	BulkCreateItems(items []*entities.Item, tagNames [][]string) (int, error)
	ListItems(filter database.ItemFilter) ([]entities.Item, error)
	RegisteredSourceURLs() ([]string, error)
	GetItemByID(id uint) (*entities.Item, error)
	UpdateItem(id uint, updates map[string]interface{}) (*entities.Item, error)
	DeleteItem(id uint) error
}
