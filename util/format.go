package util

import "fmt"

// ToLogLength renders a byte size as an integer amount of decimal B/KB/MB.
func ToLogLength(bytes int64) string {
	if bytes >= 1_000_000 {
		return fmt.Sprintf("%dMB", bytes/1_000_000)
	}
	if bytes >= 1_000 {
		return fmt.Sprintf("%dKB", bytes/1_000)
	}
	return fmt.Sprintf("%dB", bytes)
}

// ToLogPercent is the reduction from high to low in percent, two decimals.
func ToLogPercent(low, high int64) string {
	if high == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", 100-(float64(low)/float64(high))*100)
}
