package logger

import "strings"

var allowedLevels = map[string]string{
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
	"fatal":   "FATAL",
}

var allowedStatus = map[string]string{
	"ok":           "ok",
	"fail":         "fail",
	"skip":         "skip",
	"retry":        "retry",
	"rate_limited": "rate_limited",
	"cancelled":    "cancelled",
}

// Outcomes cover handler results plus the vote protocol's terminal states.
var allowedOutcome = map[string]string{
	"ok":             "ok",
	"fail":           "fail",
	"cancelled":      "cancelled",
	"rate_limited":   "rate_limited",
	"already_voted":  "already_voted",
	"not_found":      "not_found",
	"not_subscribed": "not_subscribed",
	"invalid":        "invalid",
	"ignored":        "ignored",
}

func normalizeLevel(level string) string {
	if level == "" {
		return "INFO"
	}
	if mapped, ok := allowedLevels[strings.ToLower(level)]; ok {
		return mapped
	}
	return strings.ToUpper(level)
}

func normalizeStatus(status string) (string, bool) {
	status = strings.ToLower(strings.TrimSpace(status))
	if mapped, ok := allowedStatus[status]; ok {
		return mapped, true
	}
	return status, false
}

func normalizeOutcome(outcome string) (string, bool) {
	val, ok := allowedOutcome[strings.ToLower(strings.TrimSpace(outcome))]
	return val, ok
}

var defaultKeyOrder = []string{
	"ts",
	"level",
	"component",
	"event",
	"status",
	"rid",
	"rid_full",
	"ts_unix_nano",
	"update_id",
	"user_id",
	"chat_id",
	"chat_type",
	"handler",
	"op",
	"cb_key",
	"state",
	"outcome",
	"duration_ms",
	"messages",
	"kb",
	"like_id",
	"owner_id",
	"voter_id",
	"channel",
	"verdict",
	"likes",
	"key",
	"namespace",
	"payload",
	"lang",
	"username",
	"mode",
	"listen",
	"public_url",
	"path",
	"http_code",
	"driver",
	"addr",
	"db",
	"host",
	"port",
	"err",
	"err_code",
	"cause",
	"attempts",
}
