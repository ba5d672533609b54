package redis

import "fmt"

const ns = "boxoffice:v1"

func KeyOfferingSummary(offeringID int64) string {
	return fmt.Sprintf("%s:offering:%d:summary", ns, offeringID)
}

func KeyOfferingAvailability(offeringID int64) string {
	return fmt.Sprintf("%s:offering:%d:availability", ns, offeringID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelOfferingsChanged() string {
	return ns + ":offerings:changed"
}
