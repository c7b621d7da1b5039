package validator

import (
	"errors"
	"net/url"
	"strings"
)

// IsSlackWebhookURL reports whether raw points at a Slack incoming-webhook
// endpoint. Anything else is rejected before it reaches storage.
func IsSlackWebhookURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.New("invalid url")
	}

	if u.Scheme != "https" {
		return errors.New("slack webhook urls must use https")
	}

	if strings.ToLower(u.Hostname()) != "hooks.slack.com" {
		return errors.New("not a slack webhook url")
	}

	return nil
}
