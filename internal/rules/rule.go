package rules

import "github.com/google/uuid"

// Rule is an operator-configured parsing rule: a text fingerprint that,
// when found in an invoice, associates default supplier/category/site ids
// and supplies site-name cleanup replacements. Read-only to the engine.
type Rule struct {
	ID                   uuid.UUID  `json:"id"`
	TextPattern          string     `json:"text_pattern"`
	SupplierID           *uuid.UUID `json:"supplier_id,omitempty"`
	DefaultCategoryID    *uuid.UUID `json:"default_category_id,omitempty"`
	DefaultSiteID        *uuid.UUID `json:"default_site_id,omitempty"`
	SiteNameReplacements []string   `json:"site_name_replacements,omitempty"`
	Priority             int        `json:"priority"`
	IsActive             bool       `json:"is_active"`
}
