package util

// Pointer returns a pointer to a copy of v
func Pointer[T any](v T) *T {
	return &v
}

// ValueOrDefault dereferences ptr, or returns defaultVal if ptr is nil
func ValueOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr != nil {
		return *ptr
	}
	return defaultVal
}
