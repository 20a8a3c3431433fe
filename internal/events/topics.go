package events

// Topic constants for domain events emitted by the pricing service.
const (
	TopicDocumentSaved     = "document.saved"
	TopicDocumentDiscarded = "document.discarded"
	TopicTemplateChanged   = "template.changed"
)
