// Package catalog provides the in-process catalog adapter used by
// single-binary deployments, where the import pipeline and the catalog
// share one database and no HTTP hop is needed between them.
package catalog

import (
	"context"
	"errors"

	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
	"github.com/containerhub/containerhub/internal/fetchproxy"
	"github.com/containerhub/containerhub/internal/importer"
)

// Local implements the importer's catalog boundary directly against the
// database, with page fetches going through the fetch proxy's fetcher.
type Local struct {
	db             *database.Database
	fetcher        *fetchproxy.Fetcher
	organizationID uint
	createdByID    uint
}

func NewLocal(db *database.Database, fetcher *fetchproxy.Fetcher, organizationID, createdByID uint) *Local {
	return &Local{
		db:             db,
		fetcher:        fetcher,
		organizationID: organizationID,
		createdByID:    createdByID,
	}
}

func (l *Local) CreateItem(_ context.Context, item importer.NormalizedItem) (*importer.CreatedItem, error) {
	record := l.toEntity(item)
	if err := l.db.CreateItem(record, item.Tags); err != nil {
		return nil, err
	}
	return &importer.CreatedItem{ID: record.ID, Title: record.Title}, nil
}

func (l *Local) BulkCreate(_ context.Context, items []importer.NormalizedItem) (int, error) {
	records := make([]*entities.Item, 0, len(items))
	tagNames := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, l.toEntity(item))
		tagNames = append(tagNames, item.Tags)
	}
	return l.db.BulkCreateItems(records, tagNames)
}

func (l *Local) RegisteredSourceURLs(_ context.Context) ([]string, error) {
	return l.db.RegisteredSourceURLs()
}

// FetchPage fetches the target through the shared fetcher. Non-2xx
// responses are translated to the importer's request errors so that
// failure classification sees the upstream status code.
func (l *Local) FetchPage(ctx context.Context, target string) (*importer.FetchResult, error) {
	result, err := l.fetcher.Fetch(ctx, target)
	if err != nil {
		var statusErr *fetchproxy.StatusError
		if errors.As(err, &statusErr) {
			if statusErr.StatusCode >= 500 {
				return nil, &importer.ServerError{StatusCode: statusErr.StatusCode}
			}
			return nil, &importer.RequestError{StatusCode: statusErr.StatusCode, Message: statusErr.Error()}
		}
		return nil, err
	}
	return &importer.FetchResult{
		Content:     result.Content,
		ContentType: result.ContentType,
	}, nil
}

func (l *Local) toEntity(item importer.NormalizedItem) *entities.Item {
	visibility := item.Visibility
	if visibility == "" {
		visibility = entities.VisibilityPublic
	}
	return &entities.Item{
		OrganizationID:    l.organizationID,
		Title:             item.Title,
		Description:       item.Description,
		FullInstructions:  item.FullInstructions,
		ItemType:          item.ItemType,
		Industry:          item.Industry,
		Department:        item.Department,
		Visibility:        visibility,
		SourceURL:         item.SourceURL,
		IsMarketplaceItem: item.IsMarketplaceItem,
		CreatedByID:       l.createdByID,
	}
}
