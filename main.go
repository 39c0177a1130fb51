package main

import "github.com/wormhole-demo/transfer-decoder/cmd"

func main() {
	cmd.Execute()
}
