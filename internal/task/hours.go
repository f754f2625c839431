package task

// Hours color codes for the actual-vs-planned badge.
const (
	HoursGreen  = "green"  // actual within plan
	HoursYellow = "yellow" // up to 20% over plan
	HoursRed    = "red"    // more than 20% over plan
)

// HoursVariance classifies recorded hours against the estimate. With no
// estimate any recorded time counts as over.
func HoursVariance(actual, planned float64) string {
	if planned <= 0 {
		if actual > 0 {
			return HoursRed
		}
		return HoursGreen
	}
	switch {
	case actual <= planned:
		return HoursGreen
	case actual <= planned*1.2:
		return HoursYellow
	default:
		return HoursRed
	}
}
