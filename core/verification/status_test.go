package verification

import "testing"

func TestDeriveStatus(t *testing.T) {
	doc := func(id string, status DocumentStatus, parentID string) Document {
		d := Document{ID: id, Status: status, ParentDocumentID: parentID}
		if status != DocumentStatusPending {
			d.ReviewedByID = "reviewer"
		}
		return d
	}

	tests := []struct {
		name string
		docs []Document
		want Status
	}{
		{name: "no documents", want: StatusPending},
		{
			name: "all pending",
			docs: []Document{doc("a", DocumentStatusPending, ""), doc("b", DocumentStatusPending, "")},
			want: StatusPending,
		},
		{
			name: "some reviewed",
			docs: []Document{doc("a", DocumentStatusApproved, ""), doc("b", DocumentStatusPending, "")},
			want: StatusInReview,
		},
		{
			name: "all approved",
			docs: []Document{doc("a", DocumentStatusApproved, ""), doc("b", DocumentStatusApproved, "")},
			want: StatusCompleted,
		},
		{
			name: "one rejected",
			docs: []Document{doc("a", DocumentStatusApproved, ""), doc("b", DocumentStatusRejected, "")},
			want: StatusRejected,
		},
		{
			name: "resubmission required",
			docs: []Document{doc("a", DocumentStatusApproved, ""), doc("b", DocumentStatusResubmissionRequired, "")},
			want: StatusRejected,
		},
		{
			// a superseded rejection no longer counts against the verdict
			name: "rejected then resubmitted",
			docs: []Document{
				doc("a", DocumentStatusApproved, ""),
				doc("b", DocumentStatusRejected, ""),
				doc("c", DocumentStatusPending, "b"),
			},
			want: StatusInReview,
		},
		{
			name: "rejected, resubmitted and approved",
			docs: []Document{
				doc("a", DocumentStatusApproved, ""),
				doc("b", DocumentStatusRejected, ""),
				doc("c", DocumentStatusApproved, "b"),
			},
			want: StatusCompleted,
		},
		{
			name: "resubmission rejected again",
			docs: []Document{
				doc("a", DocumentStatusApproved, ""),
				doc("b", DocumentStatusRejected, ""),
				doc("c", DocumentStatusRejected, "b"),
			},
			want: StatusRejected,
		},
		{
			// a reviewer touched the chain even though the head is pending
			name: "pending resubmission keeps review activity",
			docs: []Document{
				doc("a", DocumentStatusRejected, ""),
				doc("b", DocumentStatusPending, "a"),
			},
			want: StatusInReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveStatus(tt.docs); got != tt.want {
				t.Errorf("DeriveStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLatestDocuments(t *testing.T) {
	a := Document{ID: "a", Status: DocumentStatusRejected}
	b := Document{ID: "b", Status: DocumentStatusRejected, ParentDocumentID: "a"}
	c := Document{ID: "c", Status: DocumentStatusPending, ParentDocumentID: "b"}
	d := Document{ID: "d", Status: DocumentStatusApproved}

	latest := LatestDocuments([]Document{a, b, c, d})
	if len(latest) != 2 {
		t.Fatalf("LatestDocuments() len = %d, want 2", len(latest))
	}
	ids := map[string]bool{latest[0].ID: true, latest[1].ID: true}
	if !ids["c"] || !ids["d"] {
		t.Errorf("LatestDocuments() = %v, want chain heads c and d", ids)
	}
}
