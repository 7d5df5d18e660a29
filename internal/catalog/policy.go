package catalog

// Caller is the identity behind a request. The zero value is anonymous.
type Caller struct {
	UserID   int64
	Username string
	Staff    bool
}

func (c Caller) Authenticated() bool { return c.UserID != 0 }

type Resource string

const (
	ResourceProduct  Resource = "product"
	ResourceCategory Resource = "category"
	ResourceReview   Resource = "review"
	ResourceWishlist Resource = "wishlist"
	ResourceUser     Resource = "user"
)

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

type Capability int

const (
	CapPublic Capability = iota
	CapAuthenticated
	// CapOwnerOrStaff: authenticated; on a concrete record the caller must
	// own it or be staff, otherwise the request is forbidden.
	CapOwnerOrStaff
	// CapOwnerScoped: like CapOwnerOrStaff but records of other owners are
	// invisible, so a mismatch reads as not-found.
	CapOwnerScoped
	CapStaff
)

var rules = map[Resource]map[Action]Capability{
	ResourceProduct: {
		ActionList:     CapPublic,
		ActionRetrieve: CapPublic,
		ActionCreate:   CapAuthenticated,
		ActionUpdate:   CapOwnerOrStaff,
		ActionDelete:   CapOwnerOrStaff,
	},
	ResourceCategory: {
		ActionList:     CapPublic,
		ActionRetrieve: CapPublic,
		ActionCreate:   CapStaff,
		ActionUpdate:   CapStaff,
		ActionDelete:   CapStaff,
	},
	ResourceReview: {
		ActionList:     CapPublic,
		ActionRetrieve: CapPublic,
		ActionCreate:   CapAuthenticated,
		ActionUpdate:   CapOwnerOrStaff,
		ActionDelete:   CapOwnerOrStaff,
	},
	ResourceWishlist: {
		ActionList:     CapOwnerScoped,
		ActionRetrieve: CapOwnerScoped,
		ActionCreate:   CapAuthenticated,
		ActionDelete:   CapOwnerScoped,
	},
	ResourceUser: {
		ActionList:     CapStaff,
		ActionRetrieve: CapOwnerOrStaff,
		ActionCreate:   CapPublic,
		ActionUpdate:   CapOwnerOrStaff,
	},
}

// Requirement returns the capability needed for (resource, action) and
// whether the pair is supported at all.
func Requirement(r Resource, a Action) (Capability, bool) {
	c, ok := rules[r][a]
	return c, ok
}

// Admit is the request-level gate: it checks everything that can be decided
// before the target record is loaded.
func Admit(c Caller, capability Capability) error {
	switch capability {
	case CapPublic:
		return nil
	case CapStaff:
		if !c.Authenticated() {
			return ErrUnauthenticated
		}
		if !c.Staff {
			return ErrPermissionDenied
		}
		return nil
	default:
		if !c.Authenticated() {
			return ErrUnauthenticated
		}
		return nil
	}
}

// Authorize decides whether c may perform a on a record of r owned by ownerID.
func Authorize(c Caller, r Resource, a Action, ownerID int64) error {
	capability, ok := Requirement(r, a)
	if !ok {
		return ErrPermissionDenied
	}
	if err := Admit(c, capability); err != nil {
		return err
	}
	switch capability {
	case CapOwnerOrStaff:
		if ownerID != c.UserID && !c.Staff {
			return ErrPermissionDenied
		}
	case CapOwnerScoped:
		if ownerID != c.UserID && !c.Staff {
			return ErrNotFound
		}
	}
	return nil
}

// WishlistOwner is the owner filter applied to every wishlist query made by
// c. Staff get nil (no restriction).
func WishlistOwner(c Caller) *int64 {
	if c.Staff {
		return nil
	}
	id := c.UserID
	return &id
}
