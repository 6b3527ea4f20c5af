//go:build linux

package camera

import (
	"errors"
	"testing"

	"camscope/internal/domain"
)

func TestCheckNodes(t *testing.T) {
	deny := func(string) error { return errors.New("EACCES") }
	allow := func(string) error { return nil }

	if err := checkNodes(nil, deny); err != nil {
		t.Errorf("Expected no error without nodes, got %v", err)
	}
	if err := checkNodes([]string{"/dev/video0"}, allow); err != nil {
		t.Errorf("Expected accessible node to pass, got %v", err)
	}

	err := checkNodes([]string{"/dev/video0", "/dev/video1"}, deny)
	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Errorf("Expected permission denied, got %v", err)
	}

	partial := func(path string) error {
		if path == "/dev/video1" {
			return errors.New("EACCES")
		}
		return nil
	}
	if err := checkNodes([]string{"/dev/video0", "/dev/video1"}, partial); err != nil {
		t.Errorf("Expected partial access to pass, got %v", err)
	}
}
