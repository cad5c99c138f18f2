// Command dibd runs a Decentralized Interledger Bridge relay node.
package main

import (
	"github.com/klingon-exchange/dib-relay/internal/cli"
)

func main() {
	cli.Execute()
}
