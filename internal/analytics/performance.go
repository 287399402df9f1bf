package analytics

// Performance is the band an overall attendance rate falls in.
type Performance string

const (
	Excellent Performance = "excellent"
	Good      Performance = "good"
	Fair      Performance = "fair"
	Poor      Performance = "poor"
)

// Lower bounds of each band, inclusive.
const (
	ExcellentFrom = 90
	GoodFrom      = 75
	FairFrom      = 60
)

// Classify maps a rate to its band. A rate equal to a bound belongs to the higher band.
func Classify(rate int) Performance {
	switch {
	case rate >= ExcellentFrom:
		return Excellent
	case rate >= GoodFrom:
		return Good
	case rate >= FairFrom:
		return Fair
	default:
		return Poor
	}
}

// Severity is the alert vocabulary some dashboards use for the same bands:
// "ok" for excellent and good, "warning" for fair, "critical" for poor.
func (p Performance) Severity() string {
	switch p {
	case Excellent, Good:
		return "ok"
	case Fair:
		return "warning"
	default:
		return "critical"
	}
}
