package domain

// dedupeKey ключ группировки. Для внешних камер ключом служит ID устройства.
type dedupeKey struct {
	role        Role
	orientation Orientation
	deviceID    string
}

// Dedupe оставляет по одной камере на пару (роль, ориентация), предпочитая
// большее разрешение. Внешние камеры не объединяются. Порядок результата
// соответствует порядку первого появления ключа.
func Dedupe(descriptors []CameraDescriptor) []CameraDescriptor {
	if len(descriptors) == 0 {
		return []CameraDescriptor{}
	}

	index := make(map[dedupeKey]int, len(descriptors))
	result := make([]CameraDescriptor, 0, len(descriptors))

	for _, cam := range descriptors {
		key := keyFor(cam)
		pos, seen := index[key]
		if !seen {
			index[key] = len(result)
			result = append(result, cam)
			continue
		}
		if cam.Profile.Settings.Pixels() > result[pos].Profile.Settings.Pixels() {
			result[pos] = cam
		}
	}

	return result
}

func keyFor(cam CameraDescriptor) dedupeKey {
	if cam.IsExternal {
		return dedupeKey{deviceID: cam.DeviceID}
	}
	return dedupeKey{role: cam.Role, orientation: ResolvedOrientation(cam)}
}

// ResolvedOrientation возвращает ориентацию камеры, а для неизвестной
// выводит её из фактического facingMode трека
func ResolvedOrientation(cam CameraDescriptor) Orientation {
	if cam.Orientation != "" && cam.Orientation != OrientationUnknown {
		return cam.Orientation
	}
	switch cam.Profile.Settings.FacingMode {
	case FacingEnvironment:
		return OrientationBack
	case FacingUser:
		return OrientationFront
	default:
		return OrientationUnknown
	}
}
