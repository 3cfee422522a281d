// Package channel provides Local, an in-process implementation of presence.Channel.
//
// It is the transport used by the replay command, the HTTP roster feature and tests:
// handlers are registered per event, events are delivered with Trigger, and Reconnect
// rotates the connection epoch (a random UUID) so a reconciler bound to the channel
// falls back into its pending state until the next snapshot.
package channel
