package approval

import (
	"errors"
	"testing"
	"time"
)

func TestApprovalFlow(t *testing.T) {
	mgr := NewManager()

	id := mgr.Start("session-1", "quiero reservar un hotel")
	if len(id) != 8 {
		t.Fatalf("expected 8-char approval ID, got %q", id)
	}

	got, err := mgr.Get(id)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", got.SessionID)
	}

	pending, ok := mgr.ForSession("session-1")
	if !ok || pending.ID != id {
		t.Errorf("ForSession returned %+v, %v", pending, ok)
	}

	resolved, ok := mgr.Resolve("session-1")
	if !ok {
		t.Fatal("expected resolve to find approval")
	}
	if resolved.ID != id {
		t.Errorf("resolved wrong approval: %s", resolved.ID)
	}

	if _, err := mgr.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after resolve, got %v", err)
	}
	if _, ok := mgr.Resolve("session-1"); ok {
		t.Error("second resolve should find nothing")
	}
}

func TestApprovalNotFound(t *testing.T) {
	mgr := NewManager()

	if _, err := mgr.Get("nonexistent"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, ok := mgr.ForSession("nobody"); ok {
		t.Error("expected no approval for unknown session")
	}
}

func TestApprovalStartReplacesPrevious(t *testing.T) {
	mgr := NewManager()

	first := mgr.Start("session-1", "reservar vuelo")
	second := mgr.Start("session-1", "pagar hotel")

	if mgr.Len() != 1 {
		t.Fatalf("expected 1 pending approval, got %d", mgr.Len())
	}
	if _, err := mgr.Get(first); !errors.Is(err, ErrNotFound) {
		t.Error("first approval should have been replaced")
	}
	if got, _ := mgr.ForSession("session-1"); got.ID != second {
		t.Errorf("expected %s, got %s", second, got.ID)
	}
}

func TestApprovalCancel(t *testing.T) {
	mgr := NewManager()

	id := mgr.Start("session-1", "pagar")
	if !mgr.Cancel(id) {
		t.Error("expected pending approval to be cancelled")
	}
	if mgr.Cancel("nonexistent") {
		t.Error("unknown id should report false")
	}

	if mgr.Len() != 0 {
		t.Errorf("expected empty manager, got %d", mgr.Len())
	}
	if _, ok := mgr.ForSession("session-1"); ok {
		t.Error("session index not cleaned up")
	}
}

func TestApprovalPendingOrdered(t *testing.T) {
	mgr := NewManager()

	mgr.Start("a", "uno")
	time.Sleep(2 * time.Millisecond)
	mgr.Start("b", "dos")
	time.Sleep(2 * time.Millisecond)
	mgr.Start("c", "tres")

	list := mgr.Pending()
	if len(list) != 3 {
		t.Fatalf("expected 3 approvals, got %d", len(list))
	}
	if list[0].SessionID != "a" || list[2].SessionID != "c" {
		t.Errorf("unexpected order: %s, %s, %s", list[0].SessionID, list[1].SessionID, list[2].SessionID)
	}
}
