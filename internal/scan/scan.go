// Package scan provides the exact byte-sequence search used to locate
// markers in save containers and decompressed game-state streams.
package scan

import "bytes"

// IndexFrom returns the offset of the first occurrence of pat in buf at or
// after from, or -1 if there is none.
func IndexFrom(buf, pat []byte, from int) int {
	if from < 0 {
		from = 0
	}
	if len(pat) == 0 || from > len(buf) {
		return -1
	}
	i := bytes.Index(buf[from:], pat)
	if i < 0 {
		return -1
	}
	return from + i
}

// LastIndexBefore returns the offset of the last occurrence of pat that lies
// entirely within buf[:end], or -1 if there is none.
func LastIndexBefore(buf, pat []byte, end int) int {
	if end > len(buf) {
		end = len(buf)
	}
	if len(pat) == 0 || end < len(pat) {
		return -1
	}
	return bytes.LastIndex(buf[:end], pat)
}

// LastIndex returns the offset of the last occurrence of pat in buf, or -1.
func LastIndex(buf, pat []byte) int {
	return LastIndexBefore(buf, pat, len(buf))
}
