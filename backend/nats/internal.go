package nats

import "strings"

// "." is a reserved character by NATS for subjects, queue groups etc.
func replaceDots(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}

func defaultSubject(aggregateType string) string {
	return "dendrite.events." + replaceDots(aggregateType)
}
