package util

import (
	"fmt"
	"strconv"
	"strings"
)

// NextNumericID 기존 ID 중 최댓값 + 1 (비어 있으면 1)
func NextNumericID(ids []int) int {
	max := 0
	for _, id := range ids {
		if id > max {
			max = id
		}
	}
	return max + 1
}

// NextSequenceID returns "<prefix>-<year>-<NNN>" using one more than the
// highest sequence already issued for that prefix and year.
func NextSequenceID(prefix string, year int, existing []string) string {
	head := fmt.Sprintf("%s-%d-", prefix, year)
	max := 0
	for _, id := range existing {
		if !strings.HasPrefix(id, head) {
			continue
		}
		seq, err := strconv.Atoi(strings.TrimPrefix(id, head))
		if err != nil {
			continue
		}
		if seq > max {
			max = seq
		}
	}
	return fmt.Sprintf("%s%03d", head, max+1)
}
