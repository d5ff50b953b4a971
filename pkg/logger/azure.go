package logger

import (
	azlog "github.com/Azure/azure-sdk-for-go/sdk/azcore/log"
)

// AttachAzureSDK forwards Azure SDK log events (token acquisition, retries, requests)
// to the fabkit logger. Request and response events are only enabled at trace level.
func AttachAzureSDK(includeRequests bool) {
	azlog.SetListener(func(event azlog.Event, msg string) {
		if event == azlog.EventRequest || event == azlog.EventResponse {
			Trace(msg, "source", "azure-sdk", "event", string(event))
			return
		}
		Debug(msg, "source", "azure-sdk", "event", string(event))
	})

	events := []azlog.Event{azlog.EventRetryPolicy, azlog.EventResponseError}
	if includeRequests {
		events = append(events, azlog.EventRequest, azlog.EventResponse)
	}
	azlog.SetEvents(events...)
}

// DetachAzureSDK stops forwarding Azure SDK log events.
func DetachAzureSDK() {
	azlog.SetListener(nil)
}
