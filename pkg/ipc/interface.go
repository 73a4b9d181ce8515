/*
Package ipc implements msgpack IPC for spelling queries over stdin/stdout.

Clients that embed spellserve as a subprocess (editors, game bots) write one
msgpack map per request to stdin and read one map per response from stdout.
Frames are self-delimiting msgpack values, so no newline or length prefix is
needed. Requests are answered in order.

A query names the letter pool and, optionally, how many extra letters may be
borrowed:

	{"id": "q1", "l": "cat", "d": 1}

The response carries the uppercased pool and the buckets of spellable words:

	{"id": "q1", "w": "CAT", "b": {5: ["ACT", "CAT"], 2: ["AT", "TA"]}, "c": 4, "t": 85}

Rejected queries get an error frame with an HTTP-like code. A distance outside
[0, 2] or a pool with characters other than A-Z is a 400:

	{"id": "q2", "e": "invalid distance: 3 unsupported (must be 0..2)", "c": 400}

Logs go to stderr; stdout only ever carries frames.
*/
package ipc

// SpellRequest is one query.
type SpellRequest struct {
	ID       string `msgpack:"id"`
	Letters  string `msgpack:"l"`
	Distance int    `msgpack:"d,omitempty"`
}

// SpellResponse answers a query. TimeTaken is in microseconds.
type SpellResponse struct {
	ID        string           `msgpack:"id"`
	Word      string           `msgpack:"w"`
	Buckets   map[int][]string `msgpack:"b"`
	Count     int              `msgpack:"c"`
	TimeTaken int64            `msgpack:"t"`
}

// SpellError holds basic error information for a rejected query
type SpellError struct {
	ID    string `msgpack:"id"`
	Error string `msgpack:"e"`
	Code  int    `msgpack:"c"`
}

// StatusMessage is written once when the loop is ready for requests.
type StatusMessage struct {
	Status string `msgpack:"status"`
}
