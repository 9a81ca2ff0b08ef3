package model

import (
	"strings"
	"time"
)

type ItemType string

const (
	ItemTypeCustom   ItemType = "custom"
	ItemTypeCategory ItemType = "category"
	ItemTypeProduct  ItemType = "product"
	ItemTypePage     ItemType = "page"
	ItemTypePost     ItemType = "post"
)

// ItemTypes lists every supported item type in display order.
var ItemTypes = []ItemType{ItemTypeCustom, ItemTypeCategory, ItemTypeProduct, ItemTypePage, ItemTypePost}

func (t ItemType) Valid() bool {
	for _, x := range ItemTypes {
		if t == x {
			return true
		}
	}
	return false
}

// IsReference reports whether the item links to another entity via ReferenceID.
func (t ItemType) IsReference() bool {
	return t.Valid() && t != ItemTypeCustom
}

type Target string

const (
	TargetSelf  Target = "_self"
	TargetBlank Target = "_blank"
)

func (t Target) Valid() bool {
	return t == TargetSelf || t == TargetBlank
}

type Menu struct {
	Slug      string    `json:"slug" yaml:"slug"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"createdAt" yaml:"createdAt"`
}

// ReferenceStatus is the resolved state of a {type, referenceId} pair.
type ReferenceStatus struct {
	Exists bool   `json:"exists" yaml:"exists"`
	Active bool   `json:"active" yaml:"active"`
	URL    string `json:"url,omitempty" yaml:"url,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
}

// MenuItem is a node in a menu. The flat list (ParentID + Order) is authoritative;
// Children is only populated in the nested view.
type MenuItem struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title,omitempty" yaml:"title,omitempty"`
	Type        ItemType `json:"type" yaml:"type"`
	URL         string   `json:"url,omitempty" yaml:"url,omitempty"`
	ReferenceID string   `json:"referenceId,omitempty" yaml:"referenceId,omitempty"`
	Target      Target   `json:"target" yaml:"target"`
	IconClass   string   `json:"iconClass,omitempty" yaml:"iconClass,omitempty"`
	CSSClass    string   `json:"cssClass,omitempty" yaml:"cssClass,omitempty"`

	// Order is relative to siblings under the same parent.
	Order    int     `json:"order" yaml:"order"`
	ParentID *string `json:"parentId" yaml:"parentId"`

	ReferenceStatus *ReferenceStatus `json:"referenceStatus,omitempty" yaml:"referenceStatus,omitempty"`

	Children []MenuItem `json:"children,omitempty" yaml:"children,omitempty"`
}

// Label is the display text, falling back to the resolved reference title and then the id.
func (it MenuItem) Label() string {
	if t := strings.TrimSpace(it.Title); t != "" {
		return t
	}
	if it.ReferenceStatus != nil && strings.TrimSpace(it.ReferenceStatus.Title) != "" {
		return strings.TrimSpace(it.ReferenceStatus.Title)
	}
	return it.ID
}

// Parent returns the parent id, or "" for root items.
func (it MenuItem) Parent() string {
	if it.ParentID == nil {
		return ""
	}
	return strings.TrimSpace(*it.ParentID)
}

// StructureNode is the wire shape accepted by the structure persistence call.
type StructureNode struct {
	ID       string          `json:"id" yaml:"id"`
	Children []StructureNode `json:"children" yaml:"children"`
}

type Event struct {
	ID       string    `json:"id"`
	TS       time.Time `json:"ts"`
	Type     string    `json:"type"`
	Menu     string    `json:"menu"`
	EntityID string    `json:"entityId"`
	Payload  any       `json:"payload"`
}

// StringPtr returns a pointer to a trimmed copy of s, or nil when s is blank.
func StringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
