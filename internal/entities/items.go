package entities

import (
	"time"

	"gorm.io/gorm"
)

type ItemType string

const (
	ItemTypeApp      ItemType = "app"
	ItemTypeVoice    ItemType = "voice"
	ItemTypeWorkflow ItemType = "workflow"
)

// ValidItemType reports whether t is one of the known item types.
func ValidItemType(t ItemType) bool {
	switch t {
	case ItemTypeApp, ItemTypeVoice, ItemTypeWorkflow:
		return true
	}
	return false
}

type Visibility string

const (
	VisibilityPublic     Visibility = "public"
	VisibilityRestricted Visibility = "restricted"
	VisibilityAdminOnly  Visibility = "admin_only"
)

// ValidVisibility reports whether v is one of the known visibility levels.
func ValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPublic, VisibilityRestricted, VisibilityAdminOnly:
		return true
	}
	return false
}

type Organization struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"uniqueIndex;size:256" json:"name"`
	Slug      string         `gorm:"uniqueIndex;size:128" json:"slug"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Item is a catalog entry: an App, an AI Voice agent, or a Workflow.
type Item struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OrganizationID   uint       `gorm:"index" json:"organization_id"`
	Title            string     `gorm:"index;size:512" json:"title"`
	Description      string     `gorm:"type:text" json:"description"`
	FullInstructions string     `gorm:"type:text" json:"full_instructions,omitempty"`
	ItemType         ItemType   `gorm:"size:20;index;default:'app'" json:"item_type"`
	Industry         string     `gorm:"size:128" json:"industry,omitempty"`
	Department       string     `gorm:"size:128" json:"department,omitempty"`
	Visibility       Visibility `gorm:"size:20;index;default:'public'" json:"visibility"`
	SourceURL        string     `gorm:"index;size:2048" json:"source_url,omitempty"`

	// Marketplace items are browsable across organizations; non-marketplace
	// items are privately assigned to one organization.
	IsMarketplaceItem bool `gorm:"default:false" json:"is_marketplace_item"`

	CreatedByID uint         `gorm:"index" json:"created_by_id,omitempty"`
	CreatedBy   User         `gorm:"foreignKey:CreatedByID" json:"-"`
	Org         Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	Tags        []Tag        `gorm:"many2many:item_tags;" json:"tags,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
