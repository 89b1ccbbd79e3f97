package model

import "fmt"

// All monetary amounts in the system are carried as int64 SUN, the smallest
// TRX unit. Conversions to TRX happen only at the presentation edge.
const SunPerTRX int64 = 1_000_000

func TRXToSun(trx int64) int64 {
	return trx * SunPerTRX
}

// FormatTRX renders a SUN amount as a decimal TRX string, e.g. "50.000000".
func FormatTRX(sun int64) string {
	sign := ""
	if sun < 0 {
		sign = "-"
		sun = -sun
	}
	return fmt.Sprintf("%s%d.%06d", sign, sun/SunPerTRX, sun%SunPerTRX)
}
