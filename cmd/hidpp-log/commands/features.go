package commands

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/lus/hidpp-go/pkg/feature"
)

// RunFeatures prints the known feature ID catalog, used to put names on the
// IDs a device enumeration or a viewed capture turns up. Each query is
// either a feature ID (0x1004) or a case-insensitive name fragment; without
// queries the whole catalog is printed.
func RunFeatures(queries []string, output io.Writer) error {
	names := feature.Names()

	ids := make([]feature.ID, 0, len(names))
	for id := range names {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	matched := 0
	for _, id := range ids {
		if !matchesFeature(id, names[id], queries) {
			continue
		}
		fmt.Fprintf(output, "0x%04x  %s\n", uint16(id), names[id])
		matched++
	}

	if matched == 0 {
		return fmt.Errorf("no known feature matches %s", strings.Join(queries, " "))
	}
	return nil
}

func matchesFeature(id feature.ID, name string, queries []string) bool {
	if len(queries) == 0 {
		return true
	}
	for _, q := range queries {
		if n, err := strconv.ParseUint(q, 0, 16); err == nil && feature.ID(n) == id {
			return true
		}
		if strings.Contains(strings.ToLower(name), strings.ToLower(q)) {
			return true
		}
	}
	return false
}
