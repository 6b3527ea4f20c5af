package domain

import (
	"strings"
	"testing"
)

func profileWithFacing(facing FacingMode) TrackProfile {
	return TrackProfile{Settings: TrackSettings{Width: 1920, Height: 1080, FacingMode: facing}}
}

func TestClassify_Roles(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		facing      FacingMode
		role        Role
		orientation Orientation
	}{
		{"front label", "Front Camera", FacingNone, RoleFront, OrientationFront},
		{"front chinese", "前置摄像头", FacingNone, RoleFront, OrientationFront},
		{"front by facing mode", "camera 1", FacingUser, RoleFront, OrientationFront},
		{"back defaults to wide", "Back Camera", FacingNone, RoleWide, OrientationBack},
		{"rear defaults to wide", "rear", FacingNone, RoleWide, OrientationBack},
		{"back by facing mode", "camera 0", FacingEnvironment, RoleWide, OrientationBack},
		{"ultra wins over wide", "Back Ultra Wide", FacingNone, RoleUltrawide, OrientationBack},
		{"ultrawide chinese", "后置超广角", FacingNone, RoleUltrawide, OrientationBack},
		{"wide chinese", "后置广角", FacingNone, RoleWide, OrientationBack},
		{"telephoto", "Back Telephoto", FacingNone, RoleTelephoto, OrientationBack},
		{"zoom", "rear zoom", FacingNone, RoleTelephoto, OrientationBack},
		{"tele chinese", "后置长焦", FacingNone, RoleTelephoto, OrientationBack},
		{"macro", "Back Macro", FacingNone, RoleMacro, OrientationBack},
		{"wide beats telephoto", "back wide tele", FacingNone, RoleWide, OrientationBack},
		{"front checked before back", "front back", FacingNone, RoleFront, OrientationFront},
		{"usb is external", "USB2.0 HD UVC", FacingNone, RoleExternal, OrientationExternal},
		{"webcam is external", "webcam", FacingUser, RoleExternal, OrientationExternal},
		{"brand is external", "Logitech BRIO", FacingNone, RoleExternal, OrientationExternal},
		{"obs is virtual", "OBS Virtual Camera", FacingNone, RoleVirtual, OrientationExternal},
		{"snap is virtual", "Snap Camera", FacingNone, RoleVirtual, OrientationExternal},
		{"external beats front", "Front USB camera", FacingNone, RoleExternal, OrientationExternal},
		{"long label without facing", "Integrated Camera: Integrated C", FacingNone, RoleExternal, OrientationExternal},
		{"long label with facing", "Integrated Camera: Integrated C", FacingUser, RoleFront, OrientationFront},
		{"standard", "Integrated Camera", FacingNone, RoleStandard, OrientationUnknown},
		{"empty label", "", FacingNone, RoleStandard, OrientationUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := RawDeviceInfo{ID: "dev-1", Label: tt.label, Index: 1}
			cam := Classify(raw, profileWithFacing(tt.facing))

			if cam.Role != tt.role {
				t.Errorf("Expected role %s, got %s", tt.role, cam.Role)
			}
			if cam.Orientation != tt.orientation {
				t.Errorf("Expected orientation %s, got %s", tt.orientation, cam.Orientation)
			}
			if cam.IsExternal != (cam.Orientation == OrientationExternal) {
				t.Errorf("IsExternal=%v does not match orientation %s", cam.IsExternal, cam.Orientation)
			}
			if cam.Description == "" || cam.Icon == "" {
				t.Errorf("Expected icon and description for role %s", cam.Role)
			}
		})
	}
}

func TestClassify_BackWithoutSubtypeIsWide(t *testing.T) {
	labels := []string{"back", "Back Camera", "rear camera 2", "后置摄像头", "camera2 0, back"}
	for _, label := range labels {
		cam := Classify(RawDeviceInfo{ID: label, Label: label}, profileWithFacing(FacingEnvironment))
		if cam.Role != RoleWide || cam.Orientation != OrientationBack {
			t.Errorf("%q: expected wide/back, got %s/%s", label, cam.Role, cam.Orientation)
		}
	}
}

// Известное ограничение эвристики: длинная метка настоящей тыловой камеры без
// facingMode попадает во внешние.
func TestClassify_LongLabelHeuristicLimitation(t *testing.T) {
	label := "camera2 1, facing back"
	cam := Classify(RawDeviceInfo{ID: "1", Label: label}, TrackProfile{})
	if !cam.IsExternal {
		t.Fatalf("Expected long label without facing mode to be external, got %s", cam.Role)
	}

	cam = Classify(RawDeviceInfo{ID: "1", Label: label}, profileWithFacing(FacingEnvironment))
	if cam.IsExternal || cam.Orientation != OrientationBack {
		t.Fatalf("Expected facing mode to keep camera on the back, got %s/%s", cam.Role, cam.Orientation)
	}
}

func TestClassify_DisplayLabel(t *testing.T) {
	cam := Classify(RawDeviceInfo{ID: "a", Index: 3}, TrackProfile{})
	if cam.DisplayLabel != "Camera 3" {
		t.Errorf("Expected placeholder label, got %q", cam.DisplayLabel)
	}

	cam = Classify(RawDeviceInfo{ID: "a", Label: "Back Camera", Index: 3}, TrackProfile{})
	if cam.DisplayLabel != "Back Camera" {
		t.Errorf("Expected device label, got %q", cam.DisplayLabel)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	raw := RawDeviceInfo{ID: "x", Label: "Back Ultra Wide Camera"}
	profile := profileWithFacing(FacingEnvironment)
	first := Classify(raw, profile)
	for i := 0; i < 10; i++ {
		if got := Classify(raw, profile); got.Role != first.Role || got.Orientation != first.Orientation {
			t.Fatalf("Classify is not deterministic: %v vs %v", got, first)
		}
	}
}

func TestFacingHint(t *testing.T) {
	if got := FacingHint("FRONT camera"); got != FacingUser {
		t.Errorf("Expected user, got %q", got)
	}
	if got := FacingHint("Rear"); got != FacingEnvironment {
		t.Errorf("Expected environment, got %q", got)
	}
	if got := FacingHint(strings.Repeat("x", 5)); got != FacingNone {
		t.Errorf("Expected none, got %q", got)
	}
}
