package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"payflow/internal/backend"
	"payflow/internal/models"
)

// ErrGroupNotPackage signals that a group requested as a direct package
// purchase is only a listing container. Not a failure: the caller must
// re-route to the group's listing page instead of checkout.
var ErrGroupNotPackage = errors.New("group is not sold as a package")

// ResolvedItem is the outcome of item resolution for a checkout session.
// Group is set when the purchase happens inside or against a group.
type ResolvedItem struct {
	Item  models.PurchasableItem
	Group *models.GroupContext
}

// Resolver turns a route parameter into the purchasable item snapshot.
// Read-only and safe to retry; a fresh navigation re-fetches.
type Resolver struct {
	client *backend.Client
	logger *zap.Logger
}

func NewResolver(client *backend.Client, logger *zap.Logger) *Resolver {
	return &Resolver{client: client, logger: logger}
}

// Resolve fetches the purchasable item for (kind, id).
//
// Offers and products are fetched directly; not-found or inactive items
// fail with backend.ErrNotFound. For groups, packagePurchase says the
// caller intends to buy the group as one unit: if the group turns out not
// to be a package, Resolve returns ErrGroupNotPackage together with the
// group context so the caller can show the listing instead.
func (r *Resolver) Resolve(ctx context.Context, kind models.ItemKind, id string, packagePurchase bool) (*ResolvedItem, error) {
	switch kind {
	case models.KindOffer, models.KindProduct:
		raw, err := r.client.GetItem(ctx, kind, id)
		if err != nil {
			return nil, err
		}
		if !raw.IsActive() {
			return nil, backend.ErrNotFound
		}
		return &ResolvedItem{Item: raw.Item(kind)}, nil

	case models.KindGroupPackage:
		group, err := r.client.GetGroup(ctx, id)
		if err != nil {
			return nil, err
		}
		gctx := group.Context()
		if !group.IsPackage {
			if packagePurchase {
				r.logger.Info("group requested as package is listing-only, rerouting",
					zap.String("group_id", id))
				return &ResolvedItem{Group: &gctx}, ErrGroupNotPackage
			}
			return &ResolvedItem{Group: &gctx}, nil
		}
		return &ResolvedItem{Item: group.PackageItem(), Group: &gctx}, nil

	default:
		return nil, fmt.Errorf("unknown item kind %q", kind)
	}
}

// Methods fetches the enabled payment methods. An empty list is valid:
// the checkout form then fails method-required validation on submit,
// not here.
func (r *Resolver) Methods(ctx context.Context) ([]models.PaymentMethod, error) {
	return r.client.ListPaymentMethods(ctx)
}

// MethodByID finds a method in a fetched list.
func MethodByID(methods []models.PaymentMethod, id string) *models.PaymentMethod {
	for i := range methods {
		if methods[i].ID == id {
			return &methods[i]
		}
	}
	return nil
}
