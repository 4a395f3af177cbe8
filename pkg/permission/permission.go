// Package permission evaluates whether a principal's resolved grants allow an
// action on a resource. Evaluation is pure: no I/O, no clock, no error paths —
// an unmatched lookup is an ordinary false.
package permission

// Wildcard matches any resource or action, but only on role-derived grants.
const Wildcard = "*"

type ConditionKind string

const (
	// ConditionSelf requires the acting user to be the target user.
	ConditionSelf ConditionKind = "self"

	// ConditionCreator requires the acting user to be the resource creator.
	ConditionCreator ConditionKind = "creator"
)

// Condition narrows when a permission that matches by (resource, action)
// actually applies. Kinds form a closed set; a kind outside it never
// evaluates true, so a misconfigured grant denies instead of widening access.
type Condition struct {
	Kind ConditionKind
}

type Permission struct {
	ID         int64
	Name       string
	Resource   string
	Action     string
	Conditions []Condition
}

type Role struct {
	ID          int64
	Name        string
	Permissions []Permission
}

// Context carries the request attributes conditions are evaluated against.
// Zero-valued fields are legitimate inputs; a self condition with both IDs
// zero still compares them.
type Context struct {
	UserID       int64
	TargetUserID int64
	CreatorID    int64
}

// Allowed reports whether the grants permit action on resource.
//
// Direct grants are scanned first and must match resource and action exactly;
// wildcards are not honored there. Role-derived grants are scanned second and
// honor the wildcard on either side. The first satisfied grant wins.
func Allowed(direct []Permission, roles []Role, resource, action string, ctx Context) bool {
	for _, perm := range direct {
		if perm.Resource != resource || perm.Action != action {
			continue
		}
		if conditionsMet(perm.Conditions, ctx) {
			return true
		}
	}

	for _, role := range roles {
		for _, perm := range role.Permissions {
			if perm.Resource != resource && perm.Resource != Wildcard {
				continue
			}
			if perm.Action != action && perm.Action != Wildcard {
				continue
			}
			if conditionsMet(perm.Conditions, ctx) {
				return true
			}
		}
	}

	return false
}

// conditionsMet applies every condition with logical AND. An empty set is
// vacuously satisfied.
func conditionsMet(conditions []Condition, ctx Context) bool {
	for _, c := range conditions {
		switch c.Kind {
		case ConditionSelf:
			if ctx.UserID != ctx.TargetUserID {
				return false
			}
		case ConditionCreator:
			if ctx.UserID != ctx.CreatorID {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ParseConditions converts a stored condition mapping into typed conditions.
// Keys with a false or non-boolean value are inert and dropped; unrecognized
// keys are kept as unknown-kind conditions so the grant fails closed.
func ParseConditions(raw map[string]any) []Condition {
	if len(raw) == 0 {
		return nil
	}

	conditions := make([]Condition, 0, len(raw))
	for key, value := range raw {
		enabled, ok := value.(bool)
		if !ok || !enabled {
			continue
		}

		switch ConditionKind(key) {
		case ConditionSelf:
			conditions = append(conditions, Condition{Kind: ConditionSelf})
		case ConditionCreator:
			conditions = append(conditions, Condition{Kind: ConditionCreator})
		default:
			conditions = append(conditions, Condition{Kind: ConditionKind(key)})
		}
	}

	return conditions
}
