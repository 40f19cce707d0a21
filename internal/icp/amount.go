package icp

import "fmt"

// E8sPerICP is the number of e8s in one ICP.
const E8sPerICP = 100_000_000

// FormatICP renders an e8s amount as a decimal ICP string with eight
// fractional digits.
func FormatICP(e8s uint64) string {
	return fmt.Sprintf("%d.%08d", e8s/E8sPerICP, e8s%E8sPerICP)
}
