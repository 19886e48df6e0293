package handlers

// Client-visible error messages. They are part of the HTTP contract.
const (
	MsgNotFound         = "Not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgOriginNotAllowed = "Origin not allowed"
	MsgInvalidJSON      = "Invalid JSON body"
	MsgMissingPrompt    = "Missing required field: prompt"
	MsgBodyTooLarge     = "Request body too large"
	MsgUnexpected       = "Unexpected error"
)
