package dashboard

import (
	"fmt"
	"strconv"
	"strings"
)

// Tab zone ids are "tab:{index}".
const zoneTabPrefix = "tab:"

func makeTabZoneID(index int) string {
	return fmt.Sprintf("%s%d", zoneTabPrefix, index)
}

// parseTabZoneID extracts the index from a tab zone id.
func parseTabZoneID(zoneID string) (int, bool) {
	rest, ok := strings.CutPrefix(zoneID, zoneTabPrefix)
	if !ok {
		return 0, false
	}
	index, err := strconv.Atoi(rest)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
