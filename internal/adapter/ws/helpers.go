package wshandler

import (
	ws "github.com/zhans-k/ride-dispatch/pkg/wsHub"
)

func errorResponse(client ws.Client, message any) error {
	return client.Send(
		map[string]any{
			"error": message,
		})
}

func failedValidationResponse(client ws.Client, errors map[string]string) error {
	return errorResponse(client, errors)
}
