package minimcp

// Method names this server recognizes, per the MCP 2024-11-05/2025-03-26
// wire protocol.
const (
	methodInitialize = "initialize"

	methodToolsList = "tools/list"
	methodToolsCall = "tools/call"

	methodPromptsList = "prompts/list"
	methodPromptsGet  = "prompts/get"

	methodResourcesList          = "resources/list"
	methodResourcesTemplatesList = "resources/templates/list"
	methodResourcesRead          = "resources/read"
	methodResourcesSubscribe     = "resources/subscribe"
	methodResourcesUnsubscribe   = "resources/unsubscribe"

	methodLoggingSetLevel = "logging/setLevel"

	methodCompletionComplete = "completion/complete"
)

// Notification method names this server recognizes. Any other notification
// method is logged and silently dropped, per the unknown-notification
// silencing design note -- a notification has no response channel to carry
// an error back on anyway.
const (
	notificationInitialized = "notifications/initialized"
	notificationCancelled   = "notifications/cancelled"
)
