package redisrepo

import "fmt"

const ns = "tixgo:v1"

func KeyEventSummary(eventID int64) string {
	return fmt.Sprintf("%s:event:%d:summary", ns, eventID)
}

func KeyEventList(limit, offset int) string {
	return fmt.Sprintf("%s:events:list:%d:%d", ns, limit, offset)
}

func keyEventListPattern() string {
	return ns + ":events:list:*"
}

func KeyAnalyticsSummary() string {
	return ns + ":analytics:summary"
}

// KeyIdemVerify scopes a verification to the signed order and payment pair,
// so a stored outcome is only reachable with that exact pair.
func KeyIdemVerify(orderID, paymentID string) string {
	return fmt.Sprintf("%s:idem:verify:%s:%s", ns, orderID, paymentID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func ChannelChanges() string {
	return ns + ":changes"
}
