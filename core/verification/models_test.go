package verification

import (
	"testing"

	"github.com/kmutombo/veridoc/core/catalog"
)

func TestFileMetadataCheckAgainst(t *testing.T) {
	reqmt := catalog.Requirement{
		ID:           "req-1",
		MaxFileSize:  1 << 20,
		AllowedTypes: []string{"pdf", "jpg"},
	}
	file := func(name string, size int64) FileMetadata {
		return FileMetadata{
			FileName:     name,
			OriginalName: name,
			FileURL:      "https://cdn.test.cm/" + name,
			FileSize:     size,
			MimeType:     "application/octet-stream",
		}
	}

	t.Run("within limits", func(t *testing.T) {
		f := file("passport.pdf", 1024)
		if err := f.CheckAgainst(reqmt); err != nil {
			t.Errorf("CheckAgainst() error = %v", err)
		}
	})

	t.Run("too large", func(t *testing.T) {
		f := file("passport.pdf", reqmt.MaxFileSize+1)
		err := f.CheckAgainst(reqmt)
		sizeErr, ok := err.(*FileTooLargeError)
		if !ok {
			t.Fatalf("CheckAgainst() error = %v, want *FileTooLargeError", err)
		}
		if sizeErr.Size != reqmt.MaxFileSize+1 || sizeErr.MaxSize != reqmt.MaxFileSize {
			t.Errorf("CheckAgainst() = %+v", sizeErr)
		}
	})

	t.Run("bad extension", func(t *testing.T) {
		f := file("passport.docx", 1024)
		err := f.CheckAgainst(reqmt)
		typeErr, ok := err.(*UnsupportedFileTypeError)
		if !ok {
			t.Fatalf("CheckAgainst() error = %v, want *UnsupportedFileTypeError", err)
		}
		if typeErr.Ext != "docx" {
			t.Errorf("CheckAgainst() ext = %v, want docx", typeErr.Ext)
		}
	})

	t.Run("extension match is case-insensitive", func(t *testing.T) {
		f := file("PASSPORT.PDF", 1024)
		if err := f.CheckAgainst(reqmt); err != nil {
			t.Errorf("CheckAgainst() error = %v", err)
		}
	})
}

func TestReviewDocumentValidate(t *testing.T) {
	tests := []struct {
		name    string
		rd      ReviewDocument
		wantErr bool
	}{
		{"approval", ReviewDocument{Decision: DecisionApproved}, false},
		{"rejection with reason", ReviewDocument{Decision: DecisionRejected, RejectionReason: "illegible"}, false},
		{"rejection without reason", ReviewDocument{Decision: DecisionRejected}, true},
		{"resubmission without reason", ReviewDocument{Decision: DecisionResubmissionRequired}, true},
		{"unknown decision", ReviewDocument{Decision: "MAYBE"}, true},
		{"missing decision", ReviewDocument{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.rd.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
