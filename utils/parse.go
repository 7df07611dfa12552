package utils

import (
	"math"
	"os"
	"unsafe"

	"github.com/rs/zerolog/log"
)

func init() {
	checkCompiler()
}

// Enforces a 64bit machine due to assumptions about size of ints.
func checkCompiler() {
	myInt := int(math.MaxInt64) // Shouldn't compile on a 32 bit system.
	myInt64 := int64(math.MaxInt64)
	if uint64(myInt) != uint64(myInt64) {
		panic("Must be on 64 bit system.")
	}
}

//go:nosplit
func Noescape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

func CreateFile(path string) (file *os.File) {
	file, err := os.Create(path)
	if err != nil {
		log.Panic().Err(err).Msg("Failed to create file: " + path)
	}
	return file
}

// ParseUint32 is a digits-only unsigned parser for the line-ingest hot path.
// Reports false on empty input, junk bytes, or overflow.
func ParseUint32(s string) (n uint32, ok bool) {
	if len(s) == 0 || len(s) > 10 {
		return 0, false
	}
	v := uint64(0)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + uint64(c-'0')
	}
	if v > math.MaxUint32 {
		return 0, false
	}
	return uint32(v), true
}

// var asciiSpace = [256]uint8{'\t': 1, '\n': 1, '\v': 1, '\f': 1, '\r': 1, ' ': 1}
const spaceMask = 1<<9 | 1<<10 | 1<<11 | 1<<12 | 1<<13 | 1<<32

func isByteSpace(b byte) bool {
	return b < 64 && ((spaceMask & (1 << b)) != 0)
}

// FastFields is an ASCII-only, allocation-free strings.Fields. Assumes fieldBuff
// is large enough; entries point into byteBuff. Returns the field count.
func FastFields(fieldBuff []string, byteBuff []byte) (fieldIndex int) {
	i := 0
	// Skip spaces in the front of the input.
	for i < len(byteBuff) && isByteSpace(byteBuff[i]) {
		i++
	}
	fieldStart := i
	for i < len(byteBuff) {
		if !isByteSpace(byteBuff[i]) {
			i++
			continue
		}
		b := byteBuff[fieldStart:i]
		fieldBuff[fieldIndex] = *(*string)(Noescape(unsafe.Pointer(&b)))
		fieldIndex++
		i++
		// Skip spaces in between fields.
		for i < len(byteBuff) && isByteSpace(byteBuff[i]) {
			i++
		}
		fieldStart = i
	}
	if fieldStart < len(byteBuff) { // Last field might end at EOF.
		b := byteBuff[fieldStart:]
		fieldBuff[fieldIndex] = *(*string)(Noescape(unsafe.Pointer(&b)))
		fieldIndex++
	}
	return fieldIndex
}
