package authz

import (
	"context"
	"fmt"

	"github.com/workbridge/workbridge/internal/shared"
)

// OwnershipRule relates a principal to a resource. The set of rules is
// closed: only the types in this file implement it.
type OwnershipRule interface {
	// Name is the stable label used in logs and metrics.
	Name() string
	needsBody() bool
	validate() error
	resolve(ctx context.Context, loader Loader, req Request) (Resource, error)
	allows(p shared.Principal, res Resource) bool
}

// SelfByID allows the user addressed by the {id} path parameter.
type SelfByID struct{}

func (SelfByID) Name() string    { return "self_by_id" }
func (SelfByID) needsBody() bool { return false }
func (SelfByID) validate() error { return nil }

func (SelfByID) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	ref, err := req.pathRef(KindUser)
	if err != nil {
		return Resource{}, err
	}
	return loader.Load(ctx, ref)
}

func (SelfByID) allows(p shared.Principal, res Resource) bool {
	return res.ID == p.ID
}

// SelfByBodyField allows the principal whose id equals the resource's Field.
// With Of empty the request body is the resource, which covers create
// routes; otherwise the row of kind Of addressed by {id} is loaded.
type SelfByBodyField struct {
	Field Field
	Of    Kind
}

func (r SelfByBodyField) Name() string {
	if r.Of != "" {
		return "self_by_field:" + string(r.Of) + "." + string(r.Field)
	}
	return "self_by_body_field:" + string(r.Field)
}

func (r SelfByBodyField) needsBody() bool { return r.Of == "" }

func (r SelfByBodyField) validate() error {
	if !r.Field.valid() {
		return fmt.Errorf("authz: unknown field %q", r.Field)
	}
	if r.Of != "" && !r.Of.valid() {
		return fmt.Errorf("authz: unknown kind %q", r.Of)
	}
	return nil
}

func (r SelfByBodyField) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	if r.Of != "" {
		ref, err := req.pathRef(r.Of)
		if err != nil {
			return Resource{}, err
		}
		return loader.Load(ctx, ref)
	}
	v, ok, err := req.BodyInt(r.Field)
	if err != nil {
		return Resource{}, err
	}
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s is required", shared.ErrInvalidInput, r.Field)
	}
	return Resource{Attrs: map[Field]int64{r.Field: v}}, nil
}

func (r SelfByBodyField) allows(p shared.Principal, res Resource) bool {
	v, ok := res.Attr(r.Field)
	return ok && v == p.ID
}

// OrderOwner allows the user who owns the order. The order id is read from
// body.order_id when present, falling back to the {id} path parameter. A
// body order_id that disagrees with {id} is rejected so the checked order is
// always the one the handler acts on.
type OrderOwner struct{}

func (OrderOwner) Name() string    { return "order_owner" }
func (OrderOwner) needsBody() bool { return true }
func (OrderOwner) validate() error { return nil }

func (OrderOwner) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	id, ok, err := req.BodyInt(FieldOrderID)
	if err != nil {
		return Resource{}, err
	}
	switch {
	case ok && req.PathID > 0 && id != req.PathID:
		return Resource{}, fmt.Errorf("%w: order_id does not match path", shared.ErrInvalidInput)
	case !ok:
		ref, err := req.pathRef(KindOrder)
		if err != nil {
			return Resource{}, err
		}
		id = ref.ID
	}
	return loader.Load(ctx, ResourceRef{Kind: KindOrder, ID: id})
}

func (OrderOwner) allows(p shared.Principal, res Resource) bool {
	return orderOwnedBy(res, p)
}

// OrderOwnerViaChild loads the child row addressed by {id} and applies
// OrderOwner to its parent order.
type OrderOwnerViaChild struct {
	Child Kind
}

func (r OrderOwnerViaChild) Name() string  { return "order_owner_via:" + string(r.Child) }
func (OrderOwnerViaChild) needsBody() bool { return false }

func (r OrderOwnerViaChild) validate() error {
	switch r.Child {
	case KindOrdersSkill, KindOrderHistory:
		return nil
	}
	return fmt.Errorf("authz: %q has no parent order", r.Child)
}

func (r OrderOwnerViaChild) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	ref, err := req.pathRef(r.Child)
	if err != nil {
		return Resource{}, err
	}
	child, err := loader.Load(ctx, ref)
	if err != nil {
		return Resource{}, err
	}
	orderID, ok := child.Attr(FieldOrderID)
	if !ok {
		return Resource{}, fmt.Errorf("authz: %s %d has no order_id", r.Child, ref.ID)
	}
	return loader.Load(ctx, ResourceRef{Kind: KindOrder, ID: orderID})
}

func (OrderOwnerViaChild) allows(p shared.Principal, res Resource) bool {
	return orderOwnedBy(res, p)
}

// RoomParticipant allows either participant of a room. With OnCreate set
// the participants come from the request body since no row exists yet.
type RoomParticipant struct {
	OnCreate bool
}

func (r RoomParticipant) Name() string {
	if r.OnCreate {
		return "room_participant:create"
	}
	return "room_participant"
}

func (r RoomParticipant) needsBody() bool { return r.OnCreate }
func (RoomParticipant) validate() error   { return nil }

func (r RoomParticipant) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	if !r.OnCreate {
		ref, err := req.pathRef(KindRoom)
		if err != nil {
			return Resource{}, err
		}
		return loader.Load(ctx, ref)
	}
	first, ok, err := req.BodyInt(FieldUserFirstID)
	if err != nil {
		return Resource{}, err
	}
	if !ok {
		return Resource{}, fmt.Errorf("%w: %s is required", shared.ErrInvalidInput, FieldUserFirstID)
	}
	res := Resource{Attrs: map[Field]int64{FieldUserFirstID: first}}
	second, ok, err := req.BodyInt(FieldUserSecondID)
	if err != nil {
		return Resource{}, err
	}
	if ok {
		res.Attrs[FieldUserSecondID] = second
	}
	return res, nil
}

func (RoomParticipant) allows(p shared.Principal, res Resource) bool {
	if v, ok := res.Attr(FieldUserFirstID); ok && v == p.ID {
		return true
	}
	v, ok := res.Attr(FieldUserSecondID)
	return ok && v == p.ID
}

// NotSelf allows anyone except the user addressed by {id}. It guards
// actions a user must not perform on their own account, such as rating.
type NotSelf struct{}

func (NotSelf) Name() string    { return "not_self" }
func (NotSelf) needsBody() bool { return false }
func (NotSelf) validate() error { return nil }

func (NotSelf) resolve(ctx context.Context, loader Loader, req Request) (Resource, error) {
	ref, err := req.pathRef(KindUser)
	if err != nil {
		return Resource{}, err
	}
	return loader.Load(ctx, ref)
}

func (NotSelf) allows(p shared.Principal, res Resource) bool {
	return res.ID != p.ID
}

func orderOwnedBy(res Resource, p shared.Principal) bool {
	owner, ok := res.Attr(FieldUserID)
	return ok && owner == p.ID
}
