// Package authz decides whether an authenticated principal may act on a
// resource. Policies combine an optional required role with an optional
// ownership rule; the rule set is closed and declared when routes are
// registered.
package authz

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/workbridge/workbridge/internal/shared"
)

// Kind identifies a resource table.
type Kind string

// Resource kinds the loader understands.
const (
	KindUser         Kind = "user"
	KindOrder        Kind = "order"
	KindRoom         Kind = "room"
	KindOrdersSkill  Kind = "orders_skill"
	KindUsersSkill   Kind = "users_skill"
	KindOrderHistory Kind = "order_history"
	KindMessage      Kind = "message"
)

func (k Kind) valid() bool {
	switch k {
	case KindUser, KindOrder, KindRoom, KindOrdersSkill, KindUsersSkill, KindOrderHistory, KindMessage:
		return true
	}
	return false
}

func (k Kind) label() string {
	return strings.ReplaceAll(string(k), "_", " ")
}

// Field names an owning attribute of a resource or request body.
type Field string

// Owning attributes.
const (
	FieldUserID       Field = "user_id"
	FieldSenderID     Field = "sender_id"
	FieldOrderID      Field = "order_id"
	FieldRoomID       Field = "room_id"
	FieldUserFirstID  Field = "user_first_id"
	FieldUserSecondID Field = "user_second_id"
)

func (f Field) valid() bool {
	switch f {
	case FieldUserID, FieldSenderID, FieldOrderID, FieldRoomID, FieldUserFirstID, FieldUserSecondID:
		return true
	}
	return false
}

// ResourceRef locates a single row.
type ResourceRef struct {
	Kind Kind
	ID   int64
}

// Resource is a loaded row reduced to the attributes authorization needs.
// A resource built from a request body has an empty Kind and zero ID.
type Resource struct {
	Kind  Kind
	ID    int64
	Attrs map[Field]int64
}

// Attr returns the attribute and whether it is set.
func (r Resource) Attr(f Field) (int64, bool) {
	v, ok := r.Attrs[f]
	return v, ok
}

// NotFoundError reports a missing row of a given kind.
type NotFoundError struct {
	Ref ResourceRef
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Ref.Kind.label(), e.Ref.ID)
}

// Unwrap lets errors.Is match shared.ErrNotFound.
func (e *NotFoundError) Unwrap() error {
	return shared.ErrNotFound
}

// Request carries the locator inputs of one HTTP request.
type Request struct {
	// PathID is the {id} path parameter, zero when the route has none.
	PathID int64
	// Body holds the decoded top-level JSON object when the rule needs it.
	Body map[string]json.RawMessage
}

// BodyInt reads an integer body field. JSON numbers and numeric strings are
// accepted; an absent or null field reports ok=false.
func (r Request) BodyInt(f Field) (int64, bool, error) {
	raw, ok := r.Body[string(f)]
	if !ok {
		return 0, false, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return 0, false, nil
	}
	trimmed = strings.Trim(trimmed, `"`)
	v, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || v <= 0 {
		return 0, false, fmt.Errorf("%w: %s must be a positive integer", shared.ErrInvalidInput, f)
	}
	return v, true, nil
}

func (r Request) pathRef(k Kind) (ResourceRef, error) {
	if r.PathID <= 0 {
		return ResourceRef{}, fmt.Errorf("%w: missing %s id", shared.ErrInvalidInput, k.label())
	}
	return ResourceRef{Kind: k, ID: r.PathID}, nil
}
