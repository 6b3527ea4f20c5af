package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ключевые слова проверяются по метке в нижнем регистре. Порядок групп и
// порядок проверок в Classify определяют результат, менять их нельзя.
var (
	externalKeywords = []string{
		"usb", "external", "webcam", "virtual", "capture", "obs", "snap",
		"logitech", "razer", "elgato", "avermedia", "lifecam", "microsoft",
		"外接", "外置", "虚拟",
	}
	virtualKeywords   = []string{"virtual", "obs", "snap"}
	frontKeywords     = []string{"front", "前"}
	backKeywords      = []string{"back", "rear", "后"}
	ultrawideKeywords = []string{"ultra", "超广角"}
	wideKeywords      = []string{"wide", "广角"}
	teleKeywords      = []string{"telephoto", "tele", "zoom", "长焦"}
	macroKeywords     = []string{"macro", "微距"}
)

// longLabelThreshold длина метки, начиная с которой камера без facingMode
// считается внешней
const longLabelThreshold = 20

type roleInfo struct {
	icon        string
	description string
}

var roles = map[Role]roleInfo{
	RoleFront:       {"🤳", "Для селфи и видеозвонков"},
	RoleWide:        {"🌄", "Обычный широкоугольный объектив для повседневной съёмки"},
	RoleUltrawide:   {"🌄", "Более широкий угол обзора для пейзажей и групповых фото"},
	RoleTelephoto:   {"🔭", "Приближает удалённые объекты, подходит для портретов"},
	RoleMacro:       {"🔬", "Съёмка деталей с близкого расстояния"},
	RoleExternal:    {"🔌", "Внешняя камера (USB или устройство захвата)"},
	RoleVirtual:     {"🖥️", "Программная виртуальная камера"},
	RoleUnknownBack: {"📷", "Тыловая камера без уточнения типа"},
	RoleStandard:    {"📷", "Стандартная камера"},
}

// Icon возвращает значок категории для роли
func (r Role) Icon() string {
	if info, ok := roles[r]; ok {
		return info.icon
	}
	return "📷"
}

// Description возвращает описание роли для отображения
func (r Role) Description() string {
	if info, ok := roles[r]; ok {
		return info.description
	}
	return roles[RoleStandard].description
}

// Classify определяет роль и ориентацию камеры по метке и снимку трека.
// Чистая функция: результат зависит только от аргументов.
func Classify(raw RawDeviceInfo, profile TrackProfile) CameraDescriptor {
	role, orientation := classifyRole(raw.Label, profile.Settings.FacingMode)

	return CameraDescriptor{
		DeviceID:     raw.ID,
		DisplayLabel: DisplayLabel(raw),
		Role:         role,
		Orientation:  orientation,
		IsExternal:   orientation == OrientationExternal,
		Icon:         role.Icon(),
		Description:  role.Description(),
		Profile:      profile,
	}
}

// DisplayLabel возвращает метку устройства или заглушку "Camera N"
func DisplayLabel(raw RawDeviceInfo) string {
	if label := strings.TrimSpace(raw.Label); label != "" {
		return raw.Label
	}
	if raw.Index > 0 {
		return fmt.Sprintf("Camera %d", raw.Index)
	}
	return "Camera"
}

func classifyRole(label string, facing FacingMode) (Role, Orientation) {
	lower := cases.Lower(language.Und).String(label)

	if containsAny(lower, externalKeywords) ||
		(facing == FacingNone && utf8.RuneCountInString(label) > longLabelThreshold) {
		if containsAny(lower, virtualKeywords) {
			return RoleVirtual, OrientationExternal
		}
		return RoleExternal, OrientationExternal
	}

	if containsAny(lower, frontKeywords) || facing == FacingUser {
		return RoleFront, OrientationFront
	}

	if containsAny(lower, backKeywords) || facing == FacingEnvironment {
		switch {
		case containsAny(lower, ultrawideKeywords):
			return RoleUltrawide, OrientationBack
		case containsAny(lower, wideKeywords):
			return RoleWide, OrientationBack
		case containsAny(lower, teleKeywords):
			return RoleTelephoto, OrientationBack
		case containsAny(lower, macroKeywords):
			return RoleMacro, OrientationBack
		default:
			return RoleWide, OrientationBack
		}
	}

	return RoleStandard, OrientationUnknown
}

// FacingHint возвращает ориентацию, на которую указывают ключевые слова метки
func FacingHint(label string) FacingMode {
	lower := cases.Lower(language.Und).String(label)
	switch {
	case containsAny(lower, frontKeywords):
		return FacingUser
	case containsAny(lower, backKeywords):
		return FacingEnvironment
	default:
		return FacingNone
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
