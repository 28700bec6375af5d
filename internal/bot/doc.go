// Package bot implements the two chat-facing handlers: the scheduled
// Broadcaster and the slash command Responder.
//
// Both keep the legacy contract of answering 500 only when configuration is
// missing and 200 otherwise; what actually happened (storage unavailable,
// delivery failed, ...) is reported on Response.State and logged.
package bot
