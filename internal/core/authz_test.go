package core

import "testing"

func TestAllowMatrix(t *testing.T) {
	cases := []struct {
		role   Role
		action Action
		want   bool
	}{
		{RoleManager, ActionObjectCreate, true},
		{RoleManager, ActionObjectDelete, true},
		{RoleManager, ActionDefectAssign, true},
		{RoleManager, ActionDefectResolve, true},
		{RoleManager, ActionDefectProgress, false},
		{RoleManager, ActionUserCreate, true},

		{RoleEngineer, ActionObjectCreate, false},
		{RoleEngineer, ActionObjectUpdate, false},
		{RoleEngineer, ActionDefectCreate, false},
		{RoleEngineer, ActionDefectAssign, false},
		{RoleEngineer, ActionDefectResolve, false},
		{RoleEngineer, ActionDefectProgress, true},
		{RoleEngineer, ActionCommentAdd, true},
		{RoleEngineer, ActionAttachmentDelete, true},
		{RoleEngineer, ActionUserCreate, false},

		{RoleObserver, ActionObjectRead, true},
		{RoleObserver, ActionDefectRead, true},
		{RoleObserver, ActionCommentAdd, false},
		{RoleObserver, ActionAttachmentAdd, false},
		{RoleObserver, ActionDefectProgress, false},
		{RoleObserver, ActionProfileEdit, true},
	}
	for _, c := range cases {
		if got := Allow(c.role, c.action); got != c.want {
			t.Errorf("Allow(%s, %s) = %v, want %v", c.role, c.action, got, c.want)
		}
	}
}

// Allow must be total: every role/action pair answers, unknown pairs deny.
func TestAllowFailClosed(t *testing.T) {
	if Allow("superuser", ActionObjectCreate) {
		t.Fatal("unknown role must deny")
	}
	if Allow("", ActionObjectRead) {
		t.Fatal("empty role must deny")
	}
	if Allow(RoleManager, "object:drop") {
		t.Fatal("unknown action must deny")
	}
	if Allow("", "") {
		t.Fatal("empty pair must deny")
	}
}

func TestAllowDeterministic(t *testing.T) {
	roles := []Role{RoleManager, RoleEngineer, RoleObserver, "ghost"}
	actions := []Action{
		ActionObjectCreate, ActionObjectRead, ActionObjectUpdate, ActionObjectDelete,
		ActionDefectCreate, ActionDefectRead, ActionDefectUpdate, ActionDefectDelete,
		ActionDefectAssign, ActionDefectResolve, ActionDefectProgress,
		ActionUserCreate, ActionUserDelete, ActionUserList, ActionProfileEdit,
		ActionCommentAdd, ActionCommentEdit, ActionCommentDelete,
		ActionAttachmentAdd, ActionAttachmentRead, ActionAttachmentDelete,
		ActionHistoryRead,
	}
	for _, r := range roles {
		for _, a := range actions {
			first := Allow(r, a)
			for i := 0; i < 3; i++ {
				if Allow(r, a) != first {
					t.Fatalf("Allow(%s, %s) not deterministic", r, a)
				}
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"manager", "engineer", "observer"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q): %v", s, err)
		}
	}
	for _, s := range []string{"", "admin", "Manager", "ENGINEER"} {
		if _, err := ParseRole(s); err == nil {
			t.Errorf("ParseRole(%q): expected error", s)
		}
	}
}
