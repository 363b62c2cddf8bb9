// Command fidocore-agent is a demonstration CLI wiring the CBOR codec, the
// CTAPHID framer, and the CTAP2 dispatcher together: it is not a real USB
// HID device driver, but exercises the same codepaths a real transport
// would drive.
package main

import "github.com/argon-chat/fidocore/cmd/fidocore-agent/commands"

func main() {
	commands.Execute()
}
