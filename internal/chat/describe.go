// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"fmt"

	"github.com/jeranaias/rigchat/internal/cloud"
)

// Describe turns a completion failure into the Markdown shown in the
// transcript.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *cloud.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Sprintf("⚠️ An error occurred: %v", err)
	}

	switch apiErr.Kind {
	case cloud.KindInvalidCredential:
		return "⚠️ **Error 401: Invalid API Key**\n\n" +
			"The API key was rejected. Please check it and enter it again."
	case cloud.KindInsufficientCredits:
		return "⚠️ **Error 402: Insufficient Credits**\n\n" +
			"Your API key has run out of credits. Please either:\n" +
			"1. Top up credits at [OpenRouter](https://openrouter.ai/settings/credits)\n" +
			"2. Or use a different API key"
	case cloud.KindServerError:
		return fmt.Sprintf("⚠️ **Error %d**\n\n%s", apiErr.Status, apiErr.Body)
	case cloud.KindTimeout:
		return "⚠️ Request timeout. The API took too long to respond."
	case cloud.KindConnectionFailed:
		return "⚠️ Could not connect to the API. Check your internet connection."
	default:
		msg := apiErr.Message
		if msg == "" {
			msg = apiErr.Error()
		}
		return fmt.Sprintf("⚠️ An error occurred: %s", msg)
	}
}
