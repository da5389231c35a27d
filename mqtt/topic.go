package mqtt

import "strings"

// TopicSeparator separates the levels of an MQTT topic.
const TopicSeparator = "/"

// TrimTopic removes leading and trailing separators from topic.
func TrimTopic(topic string) string {
	return strings.Trim(topic, TopicSeparator)
}

// JoinTopic trims each part and joins the non-empty ones with TopicSeparator. JoinTopic("magichome/", "", "/porch")
// is "magichome/porch".
func JoinTopic(parts ...string) string {
	levels := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = TrimTopic(part); part != "" {
			levels = append(levels, part)
		}
	}

	return strings.Join(levels, TopicSeparator)
}
