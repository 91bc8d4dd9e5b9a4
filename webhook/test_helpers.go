package webhook

import "github.com/stretchr/testify/mock"

// MatchWebhook creates a custom matcher for webhook arguments in mocks
func MatchWebhook(matcher func(Webhook) bool) interface{} {
	return mock.MatchedBy(matcher)
}

// MatchDeliveryLog creates a custom matcher for delivery log arguments in mocks
func MatchDeliveryLog(matcher func(DeliveryLog) bool) interface{} {
	return mock.MatchedBy(matcher)
}
