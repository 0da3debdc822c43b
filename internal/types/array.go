package types

import "strconv"

// ArrayName returns the canonical spelling of "array of elem with size
// elements": elem[N], or elem[] for runtime-sized arrays.
func ArrayName(elem string, size int32) string {
	if size == ArrayUnsized {
		return elem + "[]"
	}
	return elem + "[" + strconv.FormatInt(int64(size), 10) + "]"
}

// ValidArraySize reports whether size can form an array type. Zero is not an
// array at all and negative sizes other than ArrayUnsized are malformed.
func ValidArraySize(size int32) bool {
	return size > 0 || size == ArrayUnsized
}
