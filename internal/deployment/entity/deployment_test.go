package entity

import (
	"testing"
	"time"
)

func TestNewStatus_Counts(t *testing.T) {
	// Arrange
	t0 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	revs := []Revision{
		{ItemName: "app-a", Status: DeployStatusSuccess, DeployedAt: t0},
		{ItemName: "app-b", Status: DeployStatusFail, DeployedAt: t0.Add(time.Minute)},
		{ItemName: "app-c", Status: DeployStatusFail, DeployedAt: t0.Add(2 * time.Minute)},
	}

	// Act
	st := NewStatus(RemoteConfig{ID: "rc-1", SuccessfulDeployments: 99}, t0, revs)

	// Assert
	if st.SuccessfulDeployments != 1 || st.FailedDeployments != 2 {
		t.Fatalf("counts = %d/%d, want 1/2", st.SuccessfulDeployments, st.FailedDeployments)
	}
	if !st.LastSynchronized.Equal(t0) || st.ID != "rc-1" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestStatus_FailedNewestFirst(t *testing.T) {
	t0 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	st := NewStatus(RemoteConfig{}, t0, []Revision{
		{ItemName: "old", Status: DeployStatusFail, DeployedAt: t0},
		{ItemName: "ok", Status: DeployStatusSuccess, DeployedAt: t0.Add(time.Hour)},
		{ItemName: "new", Status: DeployStatusFail, DeployedAt: t0.Add(time.Minute)},
	})

	got := st.Failed()

	if len(got) != 2 || got[0].ItemName != "new" || got[1].ItemName != "old" {
		t.Fatalf("unexpected failed revisions %+v", got)
	}
	if st.Revisions[0].ItemName != "old" {
		t.Fatalf("Failed must not reorder the status revisions")
	}
}

func TestStatus_FailedEmpty(t *testing.T) {
	st := NewStatus(RemoteConfig{}, time.Time{}, nil)

	if got := st.Failed(); len(got) != 0 {
		t.Fatalf("expected no failed revisions, got %+v", got)
	}
}
