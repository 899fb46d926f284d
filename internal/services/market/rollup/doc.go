// Package rollup talks to the rollup node's HTTP API.
//
// The node hands out one request per /finish call and waits for the next
// /finish to learn the verdict for it. Advance requests carry a sender
// address and a hex payload; inspect requests carry only a hex payload.
// Reports and notices are posted while a request is being handled.
package rollup
