package prs

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
)

// MaxSheetName is the longest worksheet title Google Sheets accepts.
const MaxSheetName = 100

var sheetNameReplacer = strings.NewReplacer(
	"[", "", "]", "", `\`, "", "*", "", "?", "", "/", "", ":", "",
	" ", "_",
)

// SanitizeSheetName removes characters worksheet titles cannot contain and
// replaces spaces with underscores. Names longer than MaxSheetName are cut
// and suffixed with a hash of the original title so distinct long titles
// stay distinct.
func SanitizeSheetName(title string) string {
	s := sheetNameReplacer.Replace(title)
	runes := []rune(s)
	if len(runes) <= MaxSheetName {
		return s
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(title))
	suffix := fmt.Sprintf("%08x", h.Sum32())
	return string(runes[:MaxSheetName-len(suffix)-1]) + "_" + suffix
}

// SheetNames hands out worksheet titles that are unique within one upload.
// Titles are compared ignoring case, as Google Sheets does.
type SheetNames struct {
	used map[string]bool
}

// NewSheetNames reserves titles that groups must never take, such as the
// Summary worksheet.
func NewSheetNames(reserved ...string) *SheetNames {
	n := &SheetNames{used: make(map[string]bool, len(reserved))}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

// Unique sanitizes title and, when the result is taken, appends _2, _3 and
// so on, cutting the base so the name stays within MaxSheetName.
func (n *SheetNames) Unique(title string) string {
	base := SanitizeSheetName(title)
	if base == "" {
		base = "Untitled"
	}
	name := base
	for i := 2; n.used[strings.ToLower(name)]; i++ {
		suffix := "_" + strconv.Itoa(i)
		runes := []rune(base)
		if len(runes)+len(suffix) > MaxSheetName {
			runes = runes[:MaxSheetName-len(suffix)]
		}
		name = string(runes) + suffix
	}
	n.used[strings.ToLower(name)] = true
	return name
}
