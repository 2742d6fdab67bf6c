package entity

import (
	"errors"
	"testing"

	"github.com/andreyxaxa/Image-Captioner/pkg/types/errs"
)

func TestThumbnailKey(t *testing.T) {
	if got, want := ThumbnailKey("uploads/cat.png"), "thumbnails/cat.png"; got != want {
		t.Errorf("ThumbnailKey = %q, want %q", got, want)
	}

	r := &UploadRecord{ImageKey: OriginalKey("dog.jpg")}
	if got, want := r.ThumbnailKey(), "thumbnails/dog.jpg"; got != want {
		t.Errorf("UploadRecord.ThumbnailKey = %q, want %q", got, want)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "cat.png", "cat.png"},
		{"traversal", "../../etc/passwd", "passwd"},
		{"windows path", `C:\Users\me\dog.jpg`, "dog.jpg"},
		{"spaces", "my holiday pic.jpeg", "my_holiday_pic.jpeg"},
		{"control chars", "bad\x00na\nme.png", "badname.png"},
		{"hidden", ".secret.png", "secret.png"},
		{"unicode", "café.png", "caf_.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.in)
			if err != nil {
				t.Fatalf("Unexpected error %s", err)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameRejects(t *testing.T) {
	for _, in := range []string{"", ".", "..", "uploads/", "\x01\x02", "///", "???"} {
		_, err := SanitizeFilename(in)
		if !errors.Is(err, errs.ErrValidation) {
			t.Errorf("SanitizeFilename(%q) error = %v, want ErrValidation", in, err)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if Pending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !Ready.Terminal() || !Failed.Terminal() {
		t.Error("ready and failed must be terminal")
	}
}
