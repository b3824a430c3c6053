package backend

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"payflow/internal/models"
)

// Currency decodes the platform's currency field, which is either a plain
// code string or a nested object {"code": "XAF", ...}.
type Currency struct {
	Code string
}

func (c *Currency) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Code = s
		return nil
	}
	var obj struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	c.Code = obj.Code
	return nil
}

// RawItem is the platform's offer/product payload before resolution.
type RawItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Currency    Currency        `json:"currency"`
	Image       string          `json:"image"`
	Active      *bool           `json:"active"`
}

// IsActive treats a missing active flag as active.
func (r *RawItem) IsActive() bool {
	return r.Active == nil || *r.Active
}

// RawGroup is the platform's group payload. Offers are the member items;
// when IsPackage is true the group itself carries a sellable price.
type RawGroup struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	IsPackage   bool            `json:"is_package"`
	Price       decimal.Decimal `json:"price"`
	Currency    Currency        `json:"currency"`
	Image       string          `json:"image"`
	Offers      []RawItem       `json:"offers"`
}

// Item converts a raw payload to the domain snapshot, flattening the
// currency and applying the platform default when absent.
func (r *RawItem) Item(kind models.ItemKind) models.PurchasableItem {
	return models.PurchasableItem{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Currency:    currencyOrDefault(r.Currency.Code),
		Image:       r.Image,
		Kind:        kind,
	}
}

// PackageItem converts a package group to a purchasable item; price, name
// and image are inherited from the group itself.
func (g *RawGroup) PackageItem() models.PurchasableItem {
	return models.PurchasableItem{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Price:       g.Price,
		Currency:    currencyOrDefault(g.Currency.Code),
		Image:       g.Image,
		Kind:        models.KindGroupPackage,
	}
}

// Context converts a raw group to its domain group context.
func (g *RawGroup) Context() models.GroupContext {
	items := make([]models.PurchasableItem, 0, len(g.Offers))
	for i := range g.Offers {
		items = append(items, g.Offers[i].Item(models.KindOffer))
	}
	return models.GroupContext{
		ID:        g.ID,
		Name:      g.Name,
		IsPackage: g.IsPackage,
		Items:     items,
	}
}

func currencyOrDefault(code string) string {
	if code == "" {
		return models.DefaultCurrency
	}
	return code
}
