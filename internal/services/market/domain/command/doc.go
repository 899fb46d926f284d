// Package command defines the marketplace command envelope and the decision
// contract shared by deciders.
//
// A command is one host input after payload decoding: the sender identity,
// the requested method and the raw JSON object. The registry maps methods to
// payload validators so malformed fields are caught before any decider runs.
// Methods absent from the registry are not errors; the processor treats them
// as no-ops.
package command
