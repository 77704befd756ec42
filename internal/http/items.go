package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/auth"
	"github.com/containerhub/containerhub/internal/database"
	"github.com/containerhub/containerhub/internal/entities"
)

type ItemsController struct {
	store ItemStore
}

func NewItemsController(store ItemStore) *ItemsController {
	return &ItemsController{
		store: store,
	}
}

type itemRequest struct {
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description"`
	FullInstructions  string   `json:"full_instructions"`
	ItemType          string   `json:"item_type" binding:"required"`
	Industry          string   `json:"industry"`
	Department        string   `json:"department"`
	Visibility        string   `json:"visibility"`
	SourceURL         string   `json:"source_url"`
	IsMarketplaceItem bool     `json:"is_marketplace_item"`
	Tags              []string `json:"tags"`
}

func (req *itemRequest) toEntity(orgID, createdByID uint) *entities.Item {
	visibility := entities.Visibility(req.Visibility)
	if visibility == "" {
		visibility = entities.VisibilityPublic
	}
	return &entities.Item{
		OrganizationID:    orgID,
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		FullInstructions:  req.FullInstructions,
		ItemType:          entities.ItemType(req.ItemType),
		Industry:          req.Industry,
		Department:        req.Department,
		Visibility:        visibility,
		SourceURL:         strings.TrimSpace(req.SourceURL),
		IsMarketplaceItem: req.IsMarketplaceItem,
		CreatedByID:       createdByID,
	}
}

// List returns catalog items filtered by query parameters and narrowed
// to the visibility levels the caller's role may read. The
// fields=source_url projection serves the import deduplication filter.
func (controller *ItemsController) List(c *gin.Context) {
	if c.Query("fields") == "source_url" {
		urls, err := controller.store.RegisteredSourceURLs()
		if err != nil {
			c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.IndentedJSON(http.StatusOK, gin.H{"source_urls": urls, "count": len(urls)})
		return
	}

	filter := database.ItemFilter{
		OrganizationID:  auth.OrgFromContext(c),
		ItemType:        entities.ItemType(c.Query("item_type")),
		Industry:        c.Query("industry"),
		Department:      c.Query("department"),
		Search:          c.Query("search"),
		Visibilities:    visibilitiesForRole(auth.RoleFromContext(c)),
		MarketplaceOnly: c.Query("marketplace") == "true",
	}
	if filter.ItemType != "" && !entities.ValidItemType(filter.ItemType) {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid item_type"})
		return
	}

	items, err := controller.store.ListItems(filter)
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (controller *ItemsController) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	item, err := controller.store.GetItemByID(id)
	if errors.Is(err, database.ErrItemNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	role := auth.RoleFromContext(c)
	orgID := auth.OrgFromContext(c)
	if !role.CanSee(item.Visibility) || (!item.IsMarketplaceItem && item.OrganizationID != orgID) {
		// Hidden items look absent rather than forbidden.
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	c.IndentedJSON(http.StatusOK, item)
}

func (controller *ItemsController) Create(c *gin.Context) {
	var req itemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := req.toEntity(auth.OrgFromContext(c), auth.UserIDFromContext(c))
	if err := controller.store.CreateItem(item, req.Tags); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusCreated, item)
}

type bulkCreateRequest struct {
	Items []itemRequest `json:"items" binding:"required"`
}

// BulkCreate persists a batch of items in one transaction. The whole
// batch fails together, so a partial batch never reports success.
func (controller *ItemsController) BulkCreate(c *gin.Context) {
	var req bulkCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "items must not be empty"})
		return
	}

	orgID := auth.OrgFromContext(c)
	createdByID := auth.UserIDFromContext(c)
	items := make([]*entities.Item, 0, len(req.Items))
	tagNames := make([][]string, 0, len(req.Items))
	for _, r := range req.Items {
		items = append(items, r.toEntity(orgID, createdByID))
		tagNames = append(tagNames, r.Tags)
	}

	created, err := controller.store.BulkCreateItems(items, tagNames)
	if err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusCreated, gin.H{"created": created})
}

type itemUpdateRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	FullInstructions *string `json:"full_instructions"`
	Industry         *string `json:"industry"`
	Department       *string `json:"department"`
	Visibility       *string `json:"visibility"`
	SourceURL        *string `json:"source_url"`
}

func (controller *ItemsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	var req itemUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := make(map[string]interface{})
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "title must not be empty"})
			return
		}
		updates["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.FullInstructions != nil {
		updates["full_instructions"] = *req.FullInstructions
	}
	if req.Industry != nil {
		updates["industry"] = *req.Industry
	}
	if req.Department != nil {
		updates["department"] = *req.Department
	}
	if req.Visibility != nil {
		if !entities.ValidVisibility(entities.Visibility(*req.Visibility)) {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid visibility"})
			return
		}
		updates["visibility"] = *req.Visibility
	}
	if req.SourceURL != nil {
		updates["source_url"] = strings.TrimSpace(*req.SourceURL)
	}
	if len(updates) == 0 {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}

	item, err := controller.store.UpdateItem(id, updates)
	if errors.Is(err, database.ErrItemNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, item)
}

func (controller *ItemsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return
	}

	err := controller.store.DeleteItem(id)
	if errors.Is(err, database.ErrItemNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		c.IndentedJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"deleted": id})
}
