package verification

// LatestDocuments filters docs down to the head of each resubmission chain,
// i.e. the documents no later upload has replaced.
func LatestDocuments(docs []Document) []Document {
	superseded := make(map[string]bool, len(docs))
	for _, d := range docs {
		if d.ParentDocumentID != "" {
			superseded[d.ParentDocumentID] = true
		}
	}

	latest := make([]Document, 0, len(docs))
	for _, d := range docs {
		if !superseded[d.ID] {
			latest = append(latest, d)
		}
	}
	return latest
}

// DeriveStatus computes a request's status from all of its documents,
// historical uploads included. Only the latest document of each resubmission
// chain counts towards the verdict; superseded documents still count as
// review activity.
func DeriveStatus(docs []Document) Status {
	latest := LatestDocuments(docs)

	allApproved := len(latest) > 0
	for _, d := range latest {
		switch d.Status {
		case DocumentStatusRejected, DocumentStatusResubmissionRequired:
			return StatusRejected
		case DocumentStatusApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return StatusCompleted
	}

	for _, d := range docs {
		if d.Reviewed() {
			return StatusInReview
		}
	}
	return StatusPending
}
