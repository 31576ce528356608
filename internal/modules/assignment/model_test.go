package assignment

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"pending to in_progress", StatusPending, StatusInProgress, true},
		{"pending to under_review", StatusPending, StatusUnderReview, true},
		{"pending to approved", StatusPending, StatusApproved, true},
		{"in_progress to under_review", StatusInProgress, StatusUnderReview, true},
		{"under_review to approved", StatusUnderReview, StatusApproved, true},
		{"under_review back to in_progress", StatusUnderReview, StatusInProgress, false},
		{"approved back to under_review", StatusApproved, StatusUnderReview, false},
		{"approved to approved", StatusApproved, StatusApproved, false},
		{"pending to pending", StatusPending, StatusPending, false},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"approved to cancelled", StatusApproved, StatusCancelled, true},
		{"cancelled to pending", StatusCancelled, StatusPending, false},
		{"cancelled to cancelled", StatusCancelled, StatusCancelled, false},
		{"unknown source", Status("limbo"), StatusApproved, false},
		{"unknown target", StatusPending, Status("limbo"), false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("%s: CanTransition(%q, %q) = %v, want %v", tc.name, tc.from, tc.to, got, tc.want)
		}
	}
}
