package permission

import "testing"

func grant(resource, action string, conditions ...Condition) Permission {
	return Permission{
		Resource:   resource,
		Action:     action,
		Conditions: conditions,
	}
}

func TestDirectPermissionExactMatch(t *testing.T) {
	direct := []Permission{grant("survey", "read")}

	if !Allowed(direct, nil, "survey", "read", Context{}) {
		t.Fatal("expected exact direct permission to allow")
	}
	if Allowed(direct, nil, "survey", "update", Context{}) {
		t.Fatal("expected mismatched action to deny")
	}
	if Allowed(direct, nil, "question", "read", Context{}) {
		t.Fatal("expected mismatched resource to deny")
	}
}

func TestDirectPermissionWildcardNotHonored(t *testing.T) {
	direct := []Permission{grant(Wildcard, Wildcard)}

	if Allowed(direct, nil, "survey", "read", Context{}) {
		t.Fatal("expected wildcard direct permission to deny an unrelated resource")
	}
	// The literal "*" resource is still reachable by exact match.
	if !Allowed(direct, nil, Wildcard, Wildcard, Context{}) {
		t.Fatal("expected literal wildcard lookup to allow")
	}
}

func TestRolePermissionWildcard(t *testing.T) {
	roles := []Role{{
		Name:        "Admin",
		Permissions: []Permission{grant(Wildcard, Wildcard)},
	}}

	if !Allowed(nil, roles, "survey", "delete", Context{}) {
		t.Fatal("expected role wildcard to allow any resource and action")
	}
	if !Allowed(nil, roles, "user", "read", Context{}) {
		t.Fatal("expected role wildcard to allow any resource and action")
	}
}

func TestRolePermissionPartialWildcard(t *testing.T) {
	roles := []Role{{
		Name:        "Moderator",
		Permissions: []Permission{grant("survey", Wildcard)},
	}}

	if !Allowed(nil, roles, "survey", "update", Context{}) {
		t.Fatal("expected action wildcard to allow any action on the resource")
	}
	if Allowed(nil, roles, "question", "update", Context{}) {
		t.Fatal("expected other resources to deny")
	}
}

func TestSelfCondition(t *testing.T) {
	direct := []Permission{grant("user", "read", Condition{Kind: ConditionSelf})}

	if !Allowed(direct, nil, "user", "read", Context{UserID: 5, TargetUserID: 5}) {
		t.Fatal("expected self condition to allow when acting on oneself")
	}
	if Allowed(direct, nil, "user", "read", Context{UserID: 5, TargetUserID: 6}) {
		t.Fatal("expected self condition to deny when acting on another user")
	}
}

func TestCreatorCondition(t *testing.T) {
	direct := []Permission{grant("survey", "update", Condition{Kind: ConditionCreator})}

	if !Allowed(direct, nil, "survey", "update", Context{UserID: 7, CreatorID: 7}) {
		t.Fatal("expected creator condition to allow the creator")
	}
	if Allowed(direct, nil, "survey", "update", Context{UserID: 7, CreatorID: 9}) {
		t.Fatal("expected creator condition to deny non-creators")
	}
}

func TestConditionsAreConjunctive(t *testing.T) {
	direct := []Permission{grant(
		"user", "update",
		Condition{Kind: ConditionSelf},
		Condition{Kind: ConditionCreator},
	)}

	if !Allowed(direct, nil, "user", "update", Context{UserID: 3, TargetUserID: 3, CreatorID: 3}) {
		t.Fatal("expected all conditions holding to allow")
	}
	if Allowed(direct, nil, "user", "update", Context{UserID: 3, TargetUserID: 3, CreatorID: 4}) {
		t.Fatal("expected one failing condition to deny")
	}
}

func TestUnknownConditionFailsClosed(t *testing.T) {
	direct := []Permission{grant("user", "read", Condition{Kind: "owner"})}

	if Allowed(direct, nil, "user", "read", Context{UserID: 1, TargetUserID: 1}) {
		t.Fatal("expected a permission with an unrecognized condition to deny")
	}
}

func TestNoGrantsDeny(t *testing.T) {
	if Allowed(nil, nil, "survey", "read", Context{}) {
		t.Fatal("expected empty grants to deny")
	}
}

func TestAllowedIsDeterministic(t *testing.T) {
	direct := []Permission{grant("user", "read", Condition{Kind: ConditionSelf})}
	roles := []Role{{Name: "Viewer", Permissions: []Permission{grant("survey", "read")}}}
	ctx := Context{UserID: 2, TargetUserID: 2}

	first := Allowed(direct, roles, "user", "read", ctx)
	for i := 0; i < 100; i++ {
		if Allowed(direct, roles, "user", "read", ctx) != first {
			t.Fatal("expected repeated evaluation to yield identical results")
		}
	}
}

func TestParseConditions(t *testing.T) {
	conditions := ParseConditions(map[string]any{
		"self":    true,
		"creator": false,
		"shift":   "night",
	})

	var foundSelf, foundCreator bool
	for _, c := range conditions {
		switch c.Kind {
		case ConditionSelf:
			foundSelf = true
		case ConditionCreator:
			foundCreator = true
		}
	}

	if !foundSelf {
		t.Fatal("expected enabled self condition to be parsed")
	}
	if foundCreator {
		t.Fatal("expected disabled creator condition to be dropped")
	}
	// Non-boolean values are inert regardless of key.
	if len(conditions) != 1 {
		t.Fatalf("expected exactly one condition, got %d", len(conditions))
	}
}

func TestParseConditionsKeepsUnknownKeys(t *testing.T) {
	conditions := ParseConditions(map[string]any{"owner": true})
	if len(conditions) != 1 {
		t.Fatalf("expected unknown enabled key to be kept, got %d conditions", len(conditions))
	}

	direct := []Permission{grant("doc", "read", conditions...)}
	if Allowed(direct, nil, "doc", "read", Context{}) {
		t.Fatal("expected kept unknown condition to fail closed")
	}
}

func TestParseConditionsEmpty(t *testing.T) {
	if ParseConditions(nil) != nil {
		t.Fatal("expected nil conditions for nil input")
	}
	if ParseConditions(map[string]any{}) != nil {
		t.Fatal("expected nil conditions for empty input")
	}
}
