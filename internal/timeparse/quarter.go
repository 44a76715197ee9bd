package timeparse

// QuarterHour converts a time of day into fractional hours rounded to a
// quarter hour. "pm" adds 12 to every hour but 12; "am" and "" leave the hour
// alone, so 12am stays 12.
//
// Rounding looks at the tens and ones digits of the minute:
//
//	tens 0: ones <= 7 -> :00, else :15
//	tens 1: :15
//	tens 2: ones <= 3 -> :15, else :30
//	tens 3: ones <= 7 -> :30, else :45
//	tens 4: :45
//	tens 5: ones <= 3 -> :45, else next hour :00
func QuarterHour(hour, minute int, meridiem string) float64 {
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}

	tens, ones := minute/10, minute%10
	var quarters int
	switch tens {
	case 0:
		if ones > 7 {
			quarters = 1
		}
	case 1:
		quarters = 1
	case 2:
		quarters = 1
		if ones > 3 {
			quarters = 2
		}
	case 3:
		quarters = 2
		if ones > 7 {
			quarters = 3
		}
	case 4:
		quarters = 3
	case 5:
		quarters = 3
		if ones > 3 {
			hour++
			quarters = 0
		}
	}

	return float64(hour) + float64(quarters)*0.25
}
